package engine

import (
	"testing"

	"github.com/hailam/tempo/internal/board"
)

func TestEvaluateMirrorNegation(t *testing.T) {
	fens := []string{
		board.StartFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
		"r1bqkb1r/pppp1ppp/2n2n2/4p3/2B1P3/5N2/PPPP1PPP/RNBQK2R w KQkq - 4 4",
		"4k3/8/8/8/8/8/4P3/4K3 b - - 0 1",
		"rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8",
	}
	for _, fen := range fens {
		pos, err := board.ParseFEN(fen)
		if err != nil {
			t.Fatalf("ParseFEN(%q): %v", fen, err)
		}
		score := Evaluate(pos)
		mirrored := Evaluate(pos.Flipped())
		if mirrored != -score {
			t.Errorf("%s: eval %d, mirrored %d, want exact negation", fen, score, mirrored)
		}
	}
}

func TestEvaluateStartPosition(t *testing.T) {
	pos := board.NewPosition()
	if got := Evaluate(pos); got != tempoBonus {
		t.Errorf("symmetric start position should score only the tempo, got %d", got)
	}
}

func TestEvaluateMaterialAdvantage(t *testing.T) {
	// White is up a full queen.
	pos, _ := board.ParseFEN("rnb1kbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")
	if got := Evaluate(pos); got < 700 {
		t.Errorf("queen-up position should score heavily for White, got %d", got)
	}
}

func TestEvaluateForSideToMove(t *testing.T) {
	pos, _ := board.ParseFEN("rnb1kbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR b KQkq - 0 1")
	if got := evaluateFor(pos); got > -700 {
		t.Errorf("side to move is a queen down, got %d", got)
	}
}
