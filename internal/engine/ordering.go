package engine

import "github.com/hailam/tempo/internal/board"

// Move ordering score bands. Anything above goodCaptureBase is tried
// before quiets; losing captures sink below every quiet.
const (
	ttMoveScore     = 10000000
	goodCaptureBase = 1000000
	killerScore1    = 900000
	killerScore2    = 800000
	counterScore    = 700000
	badCaptureBase  = -100000
	historyMax      = 400000
)

// mvvLva[victim][attacker]: most valuable victim first, least valuable
// attacker breaking ties.
var mvvLva = func() [6][6]int {
	var t [6][6]int
	for v := board.Pawn; v <= board.King; v++ {
		for a := board.Pawn; a <= board.King; a++ {
			t[v][a] = (int(v)*6 + 5 - int(a)) * 1000
		}
	}
	return t
}()

// Orderer holds one worker's private move ordering state. Workers never
// share it, so no locking anywhere.
type Orderer struct {
	killers  [MaxPly][2]board.Move
	history  [2][64][64]int
	counters [2][6][64]board.Move
}

// NewSearch halves the history so old preferences fade but still steer
// the early iterations, and drops killers and counters.
func (o *Orderer) NewSearch() {
	for c := 0; c < 2; c++ {
		for from := 0; from < 64; from++ {
			for to := 0; to < 64; to++ {
				o.history[c][from][to] /= 2
			}
		}
	}
	o.killers = [MaxPly][2]board.Move{}
	o.counters = [2][6][64]board.Move{}
}

// Reset wipes all ordering state for a fresh game.
func (o *Orderer) Reset() {
	*o = Orderer{}
}

// UpdateKillers records a quiet move that caused a beta cutoff at ply.
func (o *Orderer) UpdateKillers(m board.Move, ply int) {
	if o.killers[ply][0] != m {
		o.killers[ply][1] = o.killers[ply][0]
		o.killers[ply][0] = m
	}
}

// UpdateHistory rewards a cutoff move with a depth-squared bonus,
// halving the whole side's table when an entry runs out of range.
func (o *Orderer) UpdateHistory(c board.Color, m board.Move, depth int) {
	h := &o.history[c][m.From()][m.To()]
	*h += depth * depth
	if *h > historyMax {
		for from := 0; from < 64; from++ {
			for to := 0; to < 64; to++ {
				o.history[c][from][to] /= 2
			}
		}
	}
}

// UpdateCounter remembers m as the reply that refuted the previous move.
func (o *Orderer) UpdateCounter(c board.Color, prevPiece board.PieceType, prevTo board.Square, m board.Move) {
	o.counters[c][prevPiece][prevTo] = m
}

// movePicker yields moves from best to worst by one selection sort step
// per call, so a fast cutoff never pays for a full sort.
type movePicker struct {
	list   *board.MoveList
	scores [256]int
	index  int
}

func (o *Orderer) newPicker(pos *board.Position, list *board.MoveList, ttMove board.Move, ply int, prevPiece board.PieceType, prevTo board.Square) movePicker {
	mp := movePicker{list: list}
	us := pos.SideToMove
	counter := board.NoMove
	if prevTo != board.NoSquare {
		counter = o.counters[us][prevPiece][prevTo]
	}

	for i := 0; i < list.Len(); i++ {
		m := list.Get(i)
		switch {
		case m == ttMove:
			mp.scores[i] = ttMoveScore
		case m.IsCapture(pos):
			if see := SEE(pos, m); see >= 0 {
				victim := board.Pawn
				if cap := pos.PieceAt(m.To()); cap != board.NoPiece {
					victim = cap.Type()
				}
				mp.scores[i] = goodCaptureBase + mvvLva[victim][pos.PieceAt(m.From()).Type()]
			} else {
				mp.scores[i] = badCaptureBase + see
			}
		case m.IsPromotion():
			mp.scores[i] = goodCaptureBase + board.PieceValue[m.Promotion()]
		case m == o.killers[ply][0]:
			mp.scores[i] = killerScore1
		case m == o.killers[ply][1]:
			mp.scores[i] = killerScore2
		case m == counter:
			mp.scores[i] = counterScore
		default:
			mp.scores[i] = o.history[us][m.From()][m.To()]
		}
	}
	return mp
}

// next returns the best remaining move, or NoMove when exhausted.
func (mp *movePicker) next() board.Move {
	if mp.index >= mp.list.Len() {
		return board.NoMove
	}
	best := mp.index
	for i := mp.index + 1; i < mp.list.Len(); i++ {
		if mp.scores[i] > mp.scores[best] {
			best = i
		}
	}
	if best != mp.index {
		mp.list.Swap(mp.index, best)
		mp.scores[mp.index], mp.scores[best] = mp.scores[best], mp.scores[mp.index]
	}
	m := mp.list.Get(mp.index)
	mp.index++
	return m
}
