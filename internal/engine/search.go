package engine

import (
	"sync"
	"time"

	"github.com/hailam/tempo/internal/board"
)

// SearchInfo is a progress snapshot passed to the info callback after
// each completed iteration.
type SearchInfo struct {
	Depth    int
	Score    int
	Nodes    uint64
	Time     time.Duration
	PV       []board.Move
	HashFull int
}

// Result is the final outcome of a search.
type Result struct {
	BestMove board.Move
	Score    int
	Depth    int
	Nodes    uint64
	PV       []board.Move
}

// workerResult is one completed iteration reported by a worker.
type workerResult struct {
	workerID int
	depth    int
	score    int
	move     board.Move
	pv       []board.Move
}

// betterThan ranks completed iterations: deeper wins, same depth the
// higher score wins.
func (r workerResult) betterThan(best Result) bool {
	if r.depth != best.Depth {
		return r.depth > best.Depth
	}
	return r.score > best.Score
}

// Search runs all workers on pos until a limit fires or Stop is called.
// history holds the zobrist hashes of the game so far, for repetition
// detection across the root.
func (e *Engine) Search(pos *board.Position, limits Limits, history []uint64) Result {
	e.stop.Store(false)
	e.nodes.Store(0)
	e.tt.NewSearch()

	gamePly := 2 * (pos.FullMoveNumber - 1)
	if pos.SideToMove == board.Black {
		gamePly++
	}
	tm := NewTimeManager(limits, pos.SideToMove, gamePly)

	legal := pos.GenerateLegalMoves()
	if legal.Len() == 0 {
		return Result{}
	}

	maxDepth := MaxPly - 1
	if limits.Depth > 0 && limits.Depth < maxDepth {
		maxDepth = limits.Depth
	}

	if tm.Limited() {
		timer := time.AfterFunc(tm.Maximum(), e.Stop)
		defer timer.Stop()
	}

	e.ensureWorkers()
	results := make(chan workerResult, e.threads*4)
	var wg sync.WaitGroup
	for _, w := range e.workers {
		w.pos = pos.Copy()
		w.nodeLimit = limits.Nodes
		w.orderer.NewSearch()
		w.history = w.history[:0]
		w.history = append(w.history, history...)
		w.history = append(w.history, pos.Hash)

		wg.Add(1)
		go func(w *worker) {
			defer wg.Done()
			w.iterate(maxDepth, results)
		}(w)
	}
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	var best Result
	stability, changes := 0, 0
	for running := true; running; {
		select {
		case r := <-results:
			if r.betterThan(best) {
				if best.Depth > 0 {
					if r.move == best.BestMove {
						stability++
						changes = 0
						tm.AdjustForStability(stability)
					} else {
						stability = 0
						changes++
						tm.AdjustForInstability(changes)
					}
				}
				best = Result{BestMove: r.move, Score: r.score, Depth: r.depth, PV: r.pv}
				e.sendInfo(best, tm)
			}
			if best.Depth >= maxDepth ||
				tm.PastOptimum() ||
				(tm.Limited() && abs(best.Score) >= MateScore-100) {
				e.stop.Store(true)
			}
		case <-ticker.C:
			if tm.PastOptimum() {
				e.stop.Store(true)
			}
		case <-done:
			running = false
		}
	}

drain:
	for {
		select {
		case r := <-results:
			if r.betterThan(best) {
				best = Result{BestMove: r.move, Score: r.score, Depth: r.depth, PV: r.pv}
			}
		default:
			break drain
		}
	}

	best.Nodes = e.nodes.Load()
	if best.BestMove == board.NoMove {
		// Stopped before the first iteration finished; the table move
		// is the best guess, any legal move beats forfeiting.
		best.BestMove = legal.Get(0)
		if m := e.TTMove(pos); m != board.NoMove {
			best.BestMove = m
		}
	}
	return best
}

func (e *Engine) sendInfo(best Result, tm *TimeManager) {
	if e.onInfo == nil {
		return
	}
	e.onInfo(SearchInfo{
		Depth:    best.Depth,
		Score:    best.Score,
		Nodes:    e.nodes.Load(),
		Time:     tm.Elapsed(),
		PV:       best.PV,
		HashFull: e.tt.HashFull(),
	})
}
