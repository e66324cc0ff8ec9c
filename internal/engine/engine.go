// Package engine implements the search: parallel iterative deepening
// alpha-beta over a shared lock-free transposition table, with a
// tapered classical evaluation.
package engine

import (
	"runtime"
	"sync/atomic"

	"github.com/hailam/tempo/internal/board"
)

const (
	DefaultHashMB = 64
	MaxHashMB     = 4096
	MaxThreads    = 256
)

// DefaultThreads matches the hardware parallelism available at startup.
var DefaultThreads = min(runtime.NumCPU(), MaxThreads)

// Engine coordinates the worker pool. One Engine serves one game at a
// time; Search must not be called concurrently with itself.
type Engine struct {
	tt      *TranspositionTable
	workers []*worker
	threads int

	stop   atomic.Bool
	nodes  atomic.Uint64
	onInfo func(SearchInfo)
}

// New returns an engine with the default table size and one worker per
// available CPU.
func New() *Engine {
	return &Engine{
		tt:      NewTranspositionTable(DefaultHashMB),
		threads: DefaultThreads,
	}
}

// SetHashSize resizes the transposition table. Not safe during a
// search.
func (e *Engine) SetHashSize(mb int) {
	if mb < 1 {
		mb = 1
	}
	if mb > MaxHashMB {
		mb = MaxHashMB
	}
	e.tt.Resize(mb)
}

// SetThreads sets the worker count for subsequent searches.
func (e *Engine) SetThreads(n int) {
	if n < 1 {
		n = 1
	}
	if n > MaxThreads {
		n = MaxThreads
	}
	e.threads = n
}

// Threads returns the configured worker count.
func (e *Engine) Threads() int { return e.threads }

// NewGame clears the transposition table and all ordering state.
func (e *Engine) NewGame() {
	e.tt.Clear()
	for _, w := range e.workers {
		w.orderer.Reset()
	}
}

// Stop aborts the running search. Safe from any goroutine.
func (e *Engine) Stop() {
	e.stop.Store(true)
}

// OnInfo registers a callback invoked after each completed iteration.
func (e *Engine) OnInfo(f func(SearchInfo)) {
	e.onInfo = f
}

// TTMove returns the table move stored for pos when it is legal there,
// NoMove otherwise.
func (e *Engine) TTMove(pos *board.Position) board.Move {
	entry, ok := e.tt.Probe(pos.Hash)
	if !ok || entry.Move == board.NoMove {
		return board.NoMove
	}
	if !pos.GenerateLegalMoves().Contains(entry.Move) {
		return board.NoMove
	}
	return entry.Move
}

func (e *Engine) ensureWorkers() {
	for len(e.workers) < e.threads {
		e.workers = append(e.workers, &worker{
			id:    len(e.workers),
			tt:    e.tt,
			stop:  &e.stop,
			nodes: &e.nodes,
		})
	}
	e.workers = e.workers[:e.threads]
}
