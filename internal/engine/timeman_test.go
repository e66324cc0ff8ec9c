package engine

import (
	"testing"
	"time"

	"github.com/hailam/tempo/internal/board"
)

// fakeClock drives a TimeManager without sleeping.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time             { return c.t }
func (c *fakeClock) advance(d time.Duration)    { c.t = c.t.Add(d) }
func newFakeTM(limits Limits, stm board.Color, ply int) (*TimeManager, *fakeClock) {
	tm := NewTimeManager(limits, stm, ply)
	clock := &fakeClock{t: time.Now()}
	tm.now = clock.now
	tm.start = clock.t
	return tm, clock
}

func TestTimeManagerMoveTime(t *testing.T) {
	tm, clock := newFakeTM(Limits{MoveTime: 100 * time.Millisecond}, board.White, 0)
	if !tm.Limited() {
		t.Fatal("movetime search should be limited")
	}
	if tm.ShouldStop() {
		t.Error("should not stop at the start")
	}
	clock.advance(99 * time.Millisecond)
	if tm.ShouldStop() {
		t.Error("should not stop before the deadline")
	}
	clock.advance(2 * time.Millisecond)
	if !tm.ShouldStop() {
		t.Error("must stop once the deadline has passed")
	}
}

func TestTimeManagerInfinite(t *testing.T) {
	tm, clock := newFakeTM(Limits{Infinite: true}, board.White, 0)
	clock.advance(time.Hour)
	if tm.ShouldStop() || tm.PastOptimum() {
		t.Error("infinite search must never hit a time limit")
	}
}

func TestTimeManagerClockBudget(t *testing.T) {
	limits := Limits{
		WhiteTime: time.Minute,
		BlackTime: time.Minute,
		WhiteInc:  time.Second,
		BlackInc:  time.Second,
	}
	tm, _ := newFakeTM(limits, board.White, 20)

	if !tm.Limited() {
		t.Fatal("clock search should be limited")
	}
	if tm.optimum > tm.maximum {
		t.Errorf("optimum %v exceeds maximum %v", tm.optimum, tm.maximum)
	}
	if tm.maximum > limits.WhiteTime*95/100 {
		t.Errorf("maximum %v risks flagging with %v left", tm.maximum, limits.WhiteTime)
	}
	if tm.optimum < 10*time.Millisecond {
		t.Errorf("optimum %v below floor", tm.optimum)
	}
}

func TestTimeManagerSoftBeforeHard(t *testing.T) {
	tm, clock := newFakeTM(Limits{WhiteTime: 10 * time.Second}, board.White, 40)
	clock.advance(tm.optimum)
	if !tm.PastOptimum() {
		t.Error("optimum elapsed, PastOptimum should hold")
	}
	if tm.ShouldStop() && tm.optimum < tm.maximum {
		t.Error("soft limit must not trip the hard stop")
	}
}

func TestTimeManagerStability(t *testing.T) {
	tm, _ := newFakeTM(Limits{WhiteTime: time.Minute}, board.White, 20)
	base := tm.optimum

	tm.AdjustForStability(6)
	if tm.optimum >= base {
		t.Error("a long-stable best move should shrink the budget")
	}

	tm.AdjustForStability(0)
	if tm.optimum != base {
		t.Error("stability reset should restore the base budget")
	}

	tm.AdjustForInstability(4)
	if tm.optimum <= base {
		t.Error("a flip-flopping best move should stretch the budget")
	}
	if tm.optimum > tm.maximum {
		t.Error("stretched budget must stay under the hard limit")
	}
}

func TestTimeManagerUsesOwnClock(t *testing.T) {
	limits := Limits{WhiteTime: time.Minute, BlackTime: time.Second}
	white, _ := newFakeTM(limits, board.White, 20)
	black, _ := newFakeTM(limits, board.Black, 20)
	if black.maximum >= white.maximum {
		t.Errorf("black has 1s on the clock but got %v vs white's %v", black.maximum, white.maximum)
	}
}
