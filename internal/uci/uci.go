// Package uci speaks the Universal Chess Interface over a text stream.
package uci

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"runtime/pprof"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hailam/tempo/internal/board"
	"github.com/hailam/tempo/internal/book"
	"github.com/hailam/tempo/internal/engine"
	"github.com/hailam/tempo/internal/storage"
)

const (
	engineName   = "Tempo"
	engineAuthor = "Tempo Team"
)

// Handler wires one engine instance to a UCI front end.
type Handler struct {
	engine   *engine.Engine
	position *board.Position

	// hashes of every position since game start, for repetition
	// detection across the root
	history []uint64

	book     *book.Book
	bookPath string
	ownBook  bool

	out   io.Writer
	outMu sync.Mutex

	searchDone chan struct{}

	profileFile *os.File
}

// New creates a handler writing responses to out.
func New(eng *engine.Engine, out io.Writer) *Handler {
	pos := board.NewPosition()
	return &Handler{
		engine:   eng,
		position: pos,
		history:  []uint64{pos.Hash},
		out:      out,
	}
}

// printf serializes writes: the search goroutine emits info lines
// while the main loop answers commands.
func (h *Handler) printf(format string, args ...any) {
	h.outMu.Lock()
	defer h.outMu.Unlock()
	fmt.Fprintf(h.out, format+"\n", args...)
}

// Run reads commands from in until quit or EOF. The running search is
// stopped before returning.
func (h *Handler) Run(in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		cmd, args := fields[0], fields[1:]

		switch cmd {
		case "uci":
			h.handleUCI()
		case "isready":
			h.printf("readyok")
		case "ucinewgame":
			h.handleNewGame()
		case "position":
			h.handlePosition(args)
		case "go":
			h.handleGo(args)
		case "stop":
			h.handleStop()
		case "ponderhit":
			// pondering is not implemented; the token is accepted so a
			// GUI that sends it stays in sync
		case "setoption":
			h.handleSetOption(args)
		case "quit":
			h.shutdown()
			return scanner.Err()
		case "d":
			h.printf("%s", h.position.String())
			h.printf("fen: %s", h.position.ToFEN())
		case "perft":
			h.handlePerft(args)
		case "eval":
			h.printf("info string static eval %d cp", engine.Evaluate(h.position))
		}
	}
	h.shutdown()
	return scanner.Err()
}

func (h *Handler) handleUCI() {
	h.printf("id name %s", engineName)
	h.printf("id author %s", engineAuthor)
	h.printf("")
	h.printf("option name Hash type spin default %d min 1 max %d", engine.DefaultHashMB, engine.MaxHashMB)
	h.printf("option name Threads type spin default %d min 1 max %d", engine.DefaultThreads, engine.MaxThreads)
	h.printf("option name OwnBook type check default false")
	h.printf("option name BookFile type string default <empty>")
	h.printf("uciok")
}

func (h *Handler) handleNewGame() {
	h.handleStop()
	h.engine.NewGame()
	h.position = board.NewPosition()
	h.history = []uint64{h.position.Hash}
}

// handlePosition accepts "position startpos|fen <fen> [moves ...]".
func (h *Handler) handlePosition(args []string) {
	if len(args) == 0 {
		return
	}

	movesIdx := len(args)
	for i, arg := range args {
		if arg == "moves" {
			movesIdx = i
			break
		}
	}
	moveStart := movesIdx
	if moveStart < len(args) {
		moveStart++
	}

	switch args[0] {
	case "startpos":
		h.position = board.NewPosition()
	case "fen":
		pos, err := board.ParseFEN(strings.Join(args[1:movesIdx], " "))
		if err != nil {
			h.printf("info string invalid fen: %v", err)
			return
		}
		h.position = pos
	default:
		return
	}

	h.history = h.history[:0]
	h.history = append(h.history, h.position.Hash)

	for _, s := range args[moveStart:] {
		move := h.matchLegalMove(s)
		if move == board.NoMove {
			h.printf("info string invalid move: %s", s)
			return
		}
		h.position.MakeMove(move)
		h.history = append(h.history, h.position.Hash)
	}
}

// matchLegalMove resolves a coordinate string against the legal moves,
// so castling and en passant get their proper encodings.
func (h *Handler) matchLegalMove(s string) board.Move {
	want, err := board.ParseMove(s, h.position)
	if err != nil {
		return board.NoMove
	}
	legal := h.position.GenerateLegalMoves()
	for i := 0; i < legal.Len(); i++ {
		if m := legal.Get(i); m == want {
			return m
		}
	}
	return board.NoMove
}

func (h *Handler) handleGo(args []string) {
	if h.searchDone != nil {
		select {
		case <-h.searchDone:
			h.searchDone = nil // previous search already finished
		default:
			return // still searching
		}
	}

	limits := parseLimits(args)

	if h.ownBook && h.book != nil && !limits.Infinite {
		if move, ok := h.book.Pick(h.position); ok {
			h.printf("info string book move")
			h.printf("bestmove %s", move)
			return
		}
	}

	h.engine.OnInfo(func(info engine.SearchInfo) { h.sendInfo(info) })

	searchPos := h.position.Copy()
	history := append([]uint64(nil), h.history[:len(h.history)-1]...)
	done := make(chan struct{})
	h.searchDone = done

	go func() {
		defer close(done)
		result := h.engine.Search(searchPos, limits, history)
		h.printBestMove(result.BestMove)
	}()
}

// printBestMove validates the move against a fresh copy of the root
// position before answering, falling back to the table move and then
// to any legal move.
func (h *Handler) printBestMove(best board.Move) {
	pos := h.position.Copy()
	legal := pos.GenerateLegalMoves()
	if best != board.NoMove && legal.Contains(best) {
		h.printf("bestmove %s", best)
		return
	}
	if m := h.engine.TTMove(pos); m != board.NoMove {
		h.printf("info string search returned no usable move")
		h.printf("bestmove %s", m)
		return
	}
	if legal.Len() > 0 {
		h.printf("info string search returned no usable move")
		h.printf("bestmove %s", legal.Get(0))
		return
	}
	h.printf("bestmove 0000")
}

// parseLimits reads the go-command arguments, milliseconds throughout.
func parseLimits(args []string) engine.Limits {
	var limits engine.Limits
	ms := func(s string) time.Duration {
		v, _ := strconv.Atoi(s)
		return time.Duration(v) * time.Millisecond
	}
	for i := 0; i < len(args); i++ {
		hasValue := i+1 < len(args)
		switch args[i] {
		case "infinite":
			limits.Infinite = true
		case "depth":
			if hasValue {
				limits.Depth, _ = strconv.Atoi(args[i+1])
				i++
			}
		case "nodes":
			if hasValue {
				limits.Nodes, _ = strconv.ParseUint(args[i+1], 10, 64)
				i++
			}
		case "movetime":
			if hasValue {
				limits.MoveTime = ms(args[i+1])
				i++
			}
		case "wtime":
			if hasValue {
				limits.WhiteTime = ms(args[i+1])
				i++
			}
		case "btime":
			if hasValue {
				limits.BlackTime = ms(args[i+1])
				i++
			}
		case "winc":
			if hasValue {
				limits.WhiteInc = ms(args[i+1])
				i++
			}
		case "binc":
			if hasValue {
				limits.BlackInc = ms(args[i+1])
				i++
			}
		case "movestogo":
			if hasValue {
				limits.MovesToGo, _ = strconv.Atoi(args[i+1])
				i++
			}
		}
	}
	return limits
}

func (h *Handler) sendInfo(info engine.SearchInfo) {
	parts := []string{fmt.Sprintf("depth %d", info.Depth)}

	switch {
	case info.Score > engine.MateScore-engine.MaxPly:
		parts = append(parts, fmt.Sprintf("score mate %d", (engine.MateScore-info.Score+1)/2))
	case info.Score < -engine.MateScore+engine.MaxPly:
		parts = append(parts, fmt.Sprintf("score mate %d", -(engine.MateScore+info.Score+1)/2))
	default:
		parts = append(parts, fmt.Sprintf("score cp %d", info.Score))
	}

	parts = append(parts,
		fmt.Sprintf("nodes %d", info.Nodes),
		fmt.Sprintf("time %d", info.Time.Milliseconds()))
	if info.Time > 0 {
		parts = append(parts, fmt.Sprintf("nps %d", uint64(float64(info.Nodes)/info.Time.Seconds())))
	}
	if info.HashFull > 0 {
		parts = append(parts, fmt.Sprintf("hashfull %d", info.HashFull))
	}

	// Replay the pv against the root so a stale table move never
	// reaches the GUI.
	if len(info.PV) > 0 {
		testPos := h.position.Copy()
		valid := make([]string, 0, len(info.PV))
		for _, m := range info.PV {
			if !testPos.GenerateLegalMoves().Contains(m) {
				break
			}
			valid = append(valid, m.String())
			testPos.MakeMove(m)
		}
		if len(valid) > 0 {
			parts = append(parts, "pv "+strings.Join(valid, " "))
		}
	}

	h.printf("info %s", strings.Join(parts, " "))
}

func (h *Handler) handleStop() {
	if h.searchDone == nil {
		return
	}
	h.engine.Stop()
	<-h.searchDone
	h.searchDone = nil
}

func (h *Handler) handleSetOption(args []string) {
	name, value := parseOption(args)
	switch strings.ToLower(name) {
	case "hash":
		if mb, err := strconv.Atoi(value); err == nil {
			h.engine.SetHashSize(mb)
		}
	case "threads":
		if n, err := strconv.Atoi(value); err == nil {
			h.engine.SetThreads(n)
		}
	case "ownbook":
		h.ownBook = strings.EqualFold(value, "true")
		if h.ownBook {
			h.openBook()
		}
	case "bookfile":
		h.bookPath = value
		if h.ownBook {
			h.openBook()
		}
	case "cpuprofile":
		h.setProfile(value)
	}
}

// openBook opens the configured book, or the per-user default location
// when no BookFile was set.
func (h *Handler) openBook() {
	if h.book != nil {
		return
	}
	path := h.bookPath
	if path == "" {
		dir, err := storage.BookDir()
		if err != nil {
			h.printf("info string cannot open book: %v", err)
			return
		}
		path = dir
	}
	b, err := book.Open(path)
	if err != nil {
		h.printf("info string cannot open book: %v", err)
		return
	}
	h.book = b
}

func (h *Handler) setProfile(value string) {
	if h.profileFile != nil {
		pprof.StopCPUProfile()
		h.profileFile.Close()
		h.profileFile = nil
	}
	if value == "" || value == "stop" {
		return
	}
	f, err := os.Create(value)
	if err != nil {
		h.printf("info string cannot create profile: %v", err)
		return
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		f.Close()
		h.printf("info string cannot start profile: %v", err)
		return
	}
	h.profileFile = f
}

// parseOption splits "name <name> value <value>", both possibly
// multi-word.
func parseOption(args []string) (name, value string) {
	var names, values []string
	target := &names
	for _, arg := range args {
		switch arg {
		case "name":
			target = &names
		case "value":
			target = &values
		default:
			*target = append(*target, arg)
		}
	}
	return strings.Join(names, " "), strings.Join(values, " ")
}

func (h *Handler) handlePerft(args []string) {
	depth := 5
	if len(args) > 0 {
		if d, err := strconv.Atoi(args[0]); err == nil {
			depth = d
		}
	}
	start := time.Now()
	nodes := board.Perft(h.position.Copy(), depth)
	elapsed := time.Since(start)
	h.printf("info string perft %d nodes %d time %v", depth, nodes, elapsed)
}

func (h *Handler) shutdown() {
	h.handleStop()
	if h.book != nil {
		h.book.Close()
	}
	if h.profileFile != nil {
		pprof.StopCPUProfile()
		h.profileFile.Close()
		h.profileFile = nil
	}
}
