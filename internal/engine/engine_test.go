package engine

import (
	"runtime"
	"testing"

	"github.com/hailam/tempo/internal/board"
)

func TestNewDefaultsToHardwareThreads(t *testing.T) {
	want := min(runtime.NumCPU(), MaxThreads)
	if got := New().Threads(); got != want {
		t.Errorf("default threads %d, want %d", got, want)
	}
}

func TestTTMovePrefersStoredMove(t *testing.T) {
	e := New()
	pos := board.NewPosition()

	m := mustMove(t, pos, "e2e4")
	e.tt.Store(pos.Hash, m, 10, 3, BoundExact)
	if got := e.TTMove(pos); got != m {
		t.Errorf("table move %s, want %s", got, m)
	}
}

func TestTTMoveRejectsIllegalEntry(t *testing.T) {
	e := New()
	pos := board.NewPosition()

	e.tt.Store(pos.Hash, board.NewMove(board.E2, board.E5), 10, 3, BoundExact)
	if got := e.TTMove(pos); got != board.NoMove {
		t.Errorf("illegal table move %s should be rejected", got)
	}
}

func TestTTMoveEmptyTable(t *testing.T) {
	e := New()
	if got := e.TTMove(board.NewPosition()); got != board.NoMove {
		t.Errorf("empty table returned move %s", got)
	}
}
