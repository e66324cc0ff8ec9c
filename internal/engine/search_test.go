package engine

import (
	"testing"
	"time"

	"github.com/hailam/tempo/internal/board"
)

func TestSearchDepthOne(t *testing.T) {
	e := New()
	pos := board.NewPosition()
	res := e.Search(pos, Limits{Depth: 1}, nil)

	if res.BestMove == board.NoMove {
		t.Fatal("no best move")
	}
	if !pos.GenerateLegalMoves().Contains(res.BestMove) {
		t.Errorf("best move %s is not legal", res.BestMove)
	}
	if res.Depth < 1 {
		t.Errorf("depth %d, want at least 1", res.Depth)
	}
	if res.Nodes == 0 {
		t.Error("no nodes counted")
	}
}

func TestSearchDepthFour(t *testing.T) {
	e := New()
	pos := board.NewPosition()
	res := e.Search(pos, Limits{Depth: 4}, nil)

	if !pos.GenerateLegalMoves().Contains(res.BestMove) {
		t.Fatalf("best move %s is not legal", res.BestMove)
	}
	if res.Depth < 4 {
		t.Errorf("depth %d, want at least 4", res.Depth)
	}
	if len(res.PV) == 0 || res.PV[0] != res.BestMove {
		t.Errorf("pv %v should start with the best move %s", res.PV, res.BestMove)
	}
}

func TestSearchFindsMateInOne(t *testing.T) {
	e := New()
	pos, _ := board.ParseFEN("6k1/5ppp/8/8/8/8/5PPP/R5K1 w - - 0 1")
	res := e.Search(pos, Limits{Depth: 4}, nil)

	if want := mustMove(t, pos, "a1a8"); res.BestMove != want {
		t.Errorf("best move %s, want %s", res.BestMove, want)
	}
	if res.Score != MateScore-1 {
		t.Errorf("score %d, want mate in one (%d)", res.Score, MateScore-1)
	}
}

func TestSearchFindsMateMultiThreaded(t *testing.T) {
	e := New()
	e.SetThreads(4)
	pos, _ := board.ParseFEN("6k1/5ppp/8/8/8/8/5PPP/R5K1 w - - 0 1")
	res := e.Search(pos, Limits{Depth: 5}, nil)

	if want := mustMove(t, pos, "a1a8"); res.BestMove != want {
		t.Errorf("best move %s, want %s", res.BestMove, want)
	}
	if res.Score < MateScore-10 {
		t.Errorf("score %d, want a mate score", res.Score)
	}
}

func TestSearchAvoidsStalemateTrap(t *testing.T) {
	// White is up a queen; grabbing the pawn with the king stalemates.
	e := New()
	pos, _ := board.ParseFEN("7k/5Q2/8/8/8/8/8/6K1 w - - 0 1")
	res := e.Search(pos, Limits{Depth: 6}, nil)

	pos.MakeMove(res.BestMove)
	if pos.IsStalemate() {
		t.Errorf("%s throws away the win by stalemate", res.BestMove)
	}
}

func TestSearchStopLatency(t *testing.T) {
	e := New()
	pos := board.NewPosition()

	resCh := make(chan Result, 1)
	go func() {
		resCh <- e.Search(pos, Limits{Infinite: true}, nil)
	}()

	time.Sleep(100 * time.Millisecond)
	e.Stop()

	select {
	case res := <-resCh:
		if !pos.GenerateLegalMoves().Contains(res.BestMove) {
			t.Errorf("best move %s is not legal", res.BestMove)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("search did not stop within the grace period")
	}
}

func TestSearchMoveTime(t *testing.T) {
	e := New()
	pos := board.NewPosition()

	start := time.Now()
	res := e.Search(pos, Limits{MoveTime: 100 * time.Millisecond}, nil)
	elapsed := time.Since(start)

	if elapsed > 2*time.Second {
		t.Errorf("movetime 100ms search took %v", elapsed)
	}
	if !pos.GenerateLegalMoves().Contains(res.BestMove) {
		t.Errorf("best move %s is not legal", res.BestMove)
	}
}

func TestSearchNodeLimit(t *testing.T) {
	e := New()
	e.SetThreads(1)
	pos := board.NewPosition()
	res := e.Search(pos, Limits{Nodes: 20000}, nil)

	// Workers poll the counter every few thousand nodes, so allow the
	// overshoot of one polling interval.
	if res.Nodes > 20000+8192 {
		t.Errorf("searched %d nodes with a 20000 node limit", res.Nodes)
	}
}

func TestRepetitionDetection(t *testing.T) {
	pos := board.NewPosition()
	w := &worker{pos: pos}

	// Nf3 Nf6 Ng1 Ng8 walks back to the start position.
	line := []string{"g1f3", "g8f6", "f3g1", "f6g8"}
	w.history = append(w.history, pos.Hash)
	for _, s := range line {
		pos.MakeMove(mustMove(t, pos, s))
		w.history = append(w.history, pos.Hash)
	}

	if !w.isRepetition() {
		t.Error("returning to the start position should count as a repetition")
	}

	pos.MakeMove(mustMove(t, pos, "e2e4"))
	w.history = append(w.history, pos.Hash)
	if w.isRepetition() {
		t.Error("a fresh position is not a repetition")
	}
}

func TestSearchInfoCallback(t *testing.T) {
	e := New()
	var infos []SearchInfo
	e.OnInfo(func(info SearchInfo) { infos = append(infos, info) })

	pos := board.NewPosition()
	e.Search(pos, Limits{Depth: 5}, nil)

	if len(infos) == 0 {
		t.Fatal("no info callbacks")
	}
	last := 0
	for _, info := range infos {
		if info.Depth < last {
			t.Errorf("info depths went backwards: %d after %d", info.Depth, last)
		}
		last = info.Depth
		if len(info.PV) == 0 {
			t.Error("info without a pv")
		}
	}
}

func TestSearchSingleThreadDeterministic(t *testing.T) {
	pos, _ := board.ParseFEN("r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1")

	run := func() Result {
		e := New()
		e.SetThreads(1)
		return e.Search(pos.Copy(), Limits{Depth: 5}, nil)
	}
	a, b := run(), run()
	if a.BestMove != b.BestMove || a.Score != b.Score || a.Nodes != b.Nodes {
		t.Errorf("single threaded fixed-depth searches diverged: %+v vs %+v", a, b)
	}
}

func TestSearchNoLegalMoves(t *testing.T) {
	e := New()
	pos, _ := board.ParseFEN("rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3")
	res := e.Search(pos, Limits{Depth: 3}, nil)
	if res.BestMove != board.NoMove {
		t.Errorf("mated position returned move %s", res.BestMove)
	}
}
