package engine

import (
	"time"

	"github.com/hailam/tempo/internal/board"
)

// Limits carries the go-command search constraints. Zero values mean
// unconstrained.
type Limits struct {
	WhiteTime time.Duration
	BlackTime time.Duration
	WhiteInc  time.Duration
	BlackInc  time.Duration
	MovesToGo int
	MoveTime  time.Duration
	Depth     int
	Nodes     uint64
	Infinite  bool
}

// TimeManager splits the clock into a soft budget, past which no new
// iteration starts, and a hard one that aborts the search outright.
type TimeManager struct {
	start       time.Time
	baseOptimum time.Duration
	optimum     time.Duration
	maximum     time.Duration
	limited     bool

	now func() time.Time // swappable for tests
}

// NewTimeManager allocates time for one move. gamePly is the number of
// half moves already played.
func NewTimeManager(limits Limits, stm board.Color, gamePly int) *TimeManager {
	tm := &TimeManager{now: time.Now}
	tm.start = tm.now()

	if limits.Infinite {
		return tm
	}
	if limits.MoveTime > 0 {
		tm.limited = true
		tm.baseOptimum = limits.MoveTime
		tm.optimum = limits.MoveTime
		tm.maximum = limits.MoveTime
		return tm
	}

	timeLeft, inc := limits.WhiteTime, limits.WhiteInc
	if stm == board.Black {
		timeLeft, inc = limits.BlackTime, limits.BlackInc
	}
	if timeLeft <= 0 {
		return tm
	}
	tm.limited = true

	mtg := limits.MovesToGo
	if mtg == 0 {
		mtg = 50 - gamePly/4
		if mtg < 10 {
			mtg = 10
		}
		if mtg > 50 {
			mtg = 50
		}
	}

	optimum := timeLeft/time.Duration(mtg) + inc*9/10
	if gamePly < 8 {
		// Openings rarely reward long thinks.
		optimum = optimum * 85 / 100
	}

	maximum := min(5*optimum, timeLeft*8/10)
	if cap := timeLeft * 95 / 100; maximum > cap {
		maximum = cap
	}

	if optimum < 10*time.Millisecond {
		optimum = 10 * time.Millisecond
	}
	if maximum < 50*time.Millisecond {
		maximum = 50 * time.Millisecond
	}
	if optimum > maximum {
		optimum = maximum
	}

	tm.baseOptimum = optimum
	tm.optimum = optimum
	tm.maximum = maximum
	return tm
}

// Elapsed returns the time spent since the search started.
func (tm *TimeManager) Elapsed() time.Duration {
	return tm.now().Sub(tm.start)
}

// Limited reports whether the search runs under a clock at all.
func (tm *TimeManager) Limited() bool { return tm.limited }

// Maximum is the hard deadline.
func (tm *TimeManager) Maximum() time.Duration { return tm.maximum }

// ShouldStop reports whether the hard deadline has passed.
func (tm *TimeManager) ShouldStop() bool {
	return tm.limited && tm.Elapsed() >= tm.maximum
}

// PastOptimum reports whether starting another iteration would likely
// be wasted.
func (tm *TimeManager) PastOptimum() bool {
	return tm.limited && tm.Elapsed() >= tm.optimum
}

// AdjustForStability shrinks the soft budget when the best move has
// survived several consecutive iterations.
func (tm *TimeManager) AdjustForStability(stable int) {
	if !tm.limited {
		return
	}
	switch {
	case stable >= 6:
		tm.optimum = tm.baseOptimum * 40 / 100
	case stable >= 4:
		tm.optimum = tm.baseOptimum * 60 / 100
	case stable >= 2:
		tm.optimum = tm.baseOptimum * 80 / 100
	default:
		tm.optimum = tm.baseOptimum
	}
}

// AdjustForInstability stretches the soft budget when the best move
// keeps flipping, capped at the hard deadline.
func (tm *TimeManager) AdjustForInstability(changes int) {
	if !tm.limited {
		return
	}
	switch {
	case changes >= 4:
		tm.optimum = tm.baseOptimum * 2
	case changes >= 2:
		tm.optimum = tm.baseOptimum * 3 / 2
	default:
		tm.optimum = tm.baseOptimum
	}
	if tm.optimum > tm.maximum {
		tm.optimum = tm.maximum
	}
}
