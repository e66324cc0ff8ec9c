package engine

import (
	"errors"
	"math"
	"sync/atomic"

	"github.com/hailam/tempo/internal/board"
)

// errStopSearch unwinds a worker's search stack when the stop flag is
// seen. It is recovered at the worker's top level, never escapes.
var errStopSearch = errors.New("search stopped")

// lmrTable[depth][moveNumber] holds precomputed late move reductions.
var lmrTable = func() [64][64]int {
	var t [64][64]int
	for d := 1; d < 64; d++ {
		for m := 1; m < 64; m++ {
			t[d][m] = int(0.75 + math.Log(float64(d))*math.Log(float64(m))/2.25)
		}
	}
	return t
}()

// lmpThresholds caps the number of quiet moves tried at shallow depths.
var lmpThresholds = [8]int{0, 3, 5, 9, 15, 23, 33, 45}

// worker runs one search thread. It owns its position copy, move
// ordering state and hash history; only the transposition table, the
// stop flag and the node counter are shared.
type worker struct {
	id        int
	pos       *board.Position
	tt        *TranspositionTable
	stop      *atomic.Bool
	nodes     *atomic.Uint64
	nodeLimit uint64
	orderer   Orderer

	// history holds the zobrist hash of every position from the game
	// start through the current search path, the current one last.
	history []uint64

	pv    [MaxPly + 2][MaxPly + 2]board.Move
	pvLen [MaxPly + 2]int

	prevPiece [MaxPly + 1]board.PieceType
	prevTo    [MaxPly + 1]board.Square
}

func (w *worker) countNode() {
	n := w.nodes.Add(1)
	if n&4095 != 0 {
		return
	}
	if w.nodeLimit > 0 && n >= w.nodeLimit {
		w.stop.Store(true)
	}
	if w.stop.Load() {
		panic(errStopSearch)
	}
}

func (w *worker) prevAt(ply int) (board.PieceType, board.Square) {
	if ply == 0 {
		return board.Pawn, board.NoSquare
	}
	return w.prevPiece[ply-1], w.prevTo[ply-1]
}

// isRepetition reports whether the current position occurred before,
// in the game or on the search path. A single earlier occurrence is
// scored as a draw: the opponent can force the repetition anyway.
func (w *worker) isRepetition() bool {
	n := len(w.history)
	barrier := n - 1 - w.pos.HalfMoveClock
	if barrier < 0 {
		barrier = 0
	}
	h := w.pos.Hash
	for i := n - 3; i >= barrier; i-- {
		if w.history[i] == h {
			return true
		}
	}
	return false
}

// iterate runs iterative deepening, reporting each completed depth.
// Helper workers start one ply deeper to desynchronize the pool.
func (w *worker) iterate(maxDepth int, results chan<- workerResult) {
	// A stop unwinds the stack via errStopSearch. Any other panic ends
	// this worker only; the remaining workers carry the search.
	defer func() { _ = recover() }()

	start := 1
	if w.id > 0 {
		start += w.id % 2
	}
	score := 0
	for depth := start; depth <= maxDepth; depth++ {
		score = w.aspirate(depth, score)
		pv := make([]board.Move, w.pvLen[0])
		copy(pv, w.pv[0][:w.pvLen[0]])
		if len(pv) == 0 {
			continue
		}
		results <- workerResult{
			workerID: w.id,
			depth:    depth,
			score:    score,
			move:     pv[0],
			pv:       pv,
		}
	}
}

// aspirate searches depth with a window around the previous score,
// rerunning with the failed side opened to infinity when the score
// lands outside.
func (w *worker) aspirate(depth, prev int) int {
	alpha, beta := -Infinity, Infinity
	if depth >= 5 {
		alpha, beta = prev-aspirationWindow, prev+aspirationWindow
	}
	for {
		score := w.negamax(depth, 0, alpha, beta, true, true, board.NoMove)
		switch {
		case score <= alpha:
			alpha = -Infinity
		case score >= beta:
			beta = Infinity
		default:
			return score
		}
	}
}

const aspirationWindow = 50

func (w *worker) negamax(depth, ply, alpha, beta int, pvNode, canNull bool, excluded board.Move) int {
	w.pvLen[ply] = 0
	w.countNode()

	pos := w.pos
	isRoot := ply == 0

	if ply >= MaxPly {
		return evaluateFor(pos)
	}
	if !isRoot {
		if w.isRepetition() || pos.IsDrawByRule() {
			return DrawScore
		}
		// Mate distance pruning: a shorter mate elsewhere bounds us.
		alpha = max(alpha, -MateScore+ply)
		beta = min(beta, MateScore-ply-1)
		if alpha >= beta {
			return alpha
		}
	}

	inCheck := pos.InCheck()
	if inCheck {
		depth++
	}
	if depth <= 0 {
		return w.quiescence(ply, alpha, beta)
	}

	ttMove := board.NoMove
	entry, ttHit := TTEntry{}, false
	if excluded == board.NoMove {
		entry, ttHit = w.tt.Probe(pos.Hash)
	}
	if ttHit {
		ttMove = entry.Move
		if !pvNode && entry.Depth >= depth {
			score := ScoreFromTT(entry.Score, ply)
			switch entry.Bound {
			case BoundExact:
				return score
			case BoundLower:
				if score >= beta {
					return score
				}
			case BoundUpper:
				if score <= alpha {
					return score
				}
			}
		}
	}

	staticEval := -Infinity
	if !inCheck {
		staticEval = evaluateFor(pos)
	}

	if !pvNode && !inCheck && excluded == board.NoMove {
		// Reverse futility: a comfortable static margin over beta.
		if depth <= 8 && staticEval-80*depth >= beta && beta > -MateScore+MaxPly {
			return staticEval
		}

		// Razoring: hopeless nodes drop straight to quiescence.
		if depth <= 3 && staticEval+200*depth <= alpha {
			score := w.quiescence(ply, alpha, beta)
			if score <= alpha {
				return score
			}
		}

		// Null move: hand over the turn; if the reply still cannot
		// reach beta the real position is surely good enough.
		if canNull && depth >= 3 && staticEval >= beta && pos.HasNonPawnMaterial() {
			r := 3 + depth/6
			undo := pos.MakeNullMove()
			w.history = append(w.history, pos.Hash)
			score := -w.negamax(depth-1-r, ply+1, -beta, -beta+1, false, false, board.NoMove)
			w.history = w.history[:len(w.history)-1]
			pos.UnmakeNullMove(undo)
			if score >= beta {
				if score >= MateScore-MaxPly {
					score = beta // zugzwang can fake a mate
				}
				return score
			}
		}
	}

	// Internal iterative reduction when the table gives no move to try
	// first.
	if pvNode && depth >= 6 && ttMove == board.NoMove {
		depth--
	}

	moves := pos.GenerateLegalMoves()
	if moves.Len() == 0 {
		if inCheck {
			return -MateScore + ply
		}
		return DrawScore
	}

	prevPiece, prevTo := w.prevAt(ply)
	picker := w.orderer.newPicker(pos, moves, ttMove, ply, prevPiece, prevTo)

	alphaOrig := alpha
	bestScore := -Infinity
	bestMove := board.NoMove
	searched := 0
	quietCount := 0

	for m := picker.next(); m != board.NoMove; m = picker.next() {
		if m == excluded {
			continue
		}
		isQuiet := !m.IsCapture(pos) && !m.IsPromotion()

		if !isRoot && !pvNode && !inCheck && isQuiet && bestScore > -MateScore+MaxPly {
			// Late move pruning.
			if depth < len(lmpThresholds) && quietCount >= lmpThresholds[depth] {
				continue
			}
			// Futility pruning.
			if depth <= 6 && staticEval+100+120*depth <= alpha {
				continue
			}
		}

		extension := 0
		if m == ttMove && !isRoot && excluded == board.NoMove &&
			depth >= 8 && ttHit && entry.Bound != BoundUpper &&
			entry.Depth >= depth-3 && abs(entry.Score) < MateScore-MaxPly {
			// Singular extension: if every alternative fails well below
			// the table score, the move is forced and deserves depth.
			sBeta := ScoreFromTT(entry.Score, ply) - 2*depth
			sScore := w.negamax(depth/2, ply, sBeta-1, sBeta, false, false, m)
			if sScore < sBeta {
				extension = 1
			}
		}

		movedPiece := pos.PieceAt(m.From()).Type()
		undo := pos.MakeMove(m)
		w.history = append(w.history, pos.Hash)
		w.prevPiece[ply] = movedPiece
		w.prevTo[ply] = m.To()
		givesCheck := pos.InCheck()
		searched++
		if isQuiet {
			quietCount++
		}

		newDepth := depth - 1 + extension
		var score int
		if searched == 1 {
			score = -w.negamax(newDepth, ply+1, -beta, -alpha, pvNode, true, board.NoMove)
		} else {
			reduction := 0
			if depth >= 3 && isQuiet && !inCheck && !givesCheck {
				reduction = lmrTable[min(depth, 63)][min(searched, 63)]
				if pvNode {
					reduction--
				}
				if reduction < 0 {
					reduction = 0
				}
				if reduction > newDepth-1 {
					reduction = newDepth - 1
				}
			}
			score = -w.negamax(newDepth-reduction, ply+1, -alpha-1, -alpha, false, true, board.NoMove)
			if score > alpha && reduction > 0 {
				score = -w.negamax(newDepth, ply+1, -alpha-1, -alpha, false, true, board.NoMove)
			}
			if score > alpha && score < beta && pvNode {
				score = -w.negamax(newDepth, ply+1, -beta, -alpha, true, true, board.NoMove)
			}
		}

		w.history = w.history[:len(w.history)-1]
		pos.UnmakeMove(m, undo)

		if score > bestScore {
			bestScore = score
			bestMove = m
		}
		if score > alpha {
			alpha = score
			w.pv[ply][0] = m
			copy(w.pv[ply][1:], w.pv[ply+1][:w.pvLen[ply+1]])
			w.pvLen[ply] = w.pvLen[ply+1] + 1
		}
		if alpha >= beta {
			if isQuiet {
				w.orderer.UpdateKillers(m, ply)
				w.orderer.UpdateHistory(pos.SideToMove, m, depth)
				if prevTo != board.NoSquare {
					w.orderer.UpdateCounter(pos.SideToMove, prevPiece, prevTo, m)
				}
			}
			break
		}
	}

	if searched == 0 {
		// Every move was excluded; the singular probe fails low.
		return alpha
	}

	if excluded == board.NoMove {
		bound := BoundUpper
		switch {
		case bestScore >= beta:
			bound = BoundLower
		case bestScore > alphaOrig:
			bound = BoundExact
		}
		w.tt.Store(pos.Hash, bestMove, ScoreToTT(bestScore, ply), depth, bound)
	}
	return bestScore
}

func (w *worker) quiescence(ply, alpha, beta int) int {
	w.pvLen[ply] = 0
	w.countNode()

	pos := w.pos
	if ply >= MaxPly {
		return evaluateFor(pos)
	}
	if w.isRepetition() || pos.IsDrawByRule() {
		return DrawScore
	}

	inCheck := pos.InCheck()
	bestScore := -Infinity
	if !inCheck {
		bestScore = evaluateFor(pos)
		if bestScore >= beta {
			return bestScore
		}
		if bestScore > alpha {
			alpha = bestScore
		}
	}

	var moves *board.MoveList
	if inCheck {
		moves = pos.GenerateLegalMoves()
		if moves.Len() == 0 {
			return -MateScore + ply
		}
	} else {
		moves = pos.GenerateCaptures()
	}

	prevPiece, prevTo := w.prevAt(ply)
	picker := w.orderer.newPicker(pos, moves, board.NoMove, ply, prevPiece, prevTo)

	for m := picker.next(); m != board.NoMove; m = picker.next() {
		if !inCheck {
			// Delta pruning: even winning this piece cannot help.
			if captured := pos.PieceAt(m.To()); captured != board.NoPiece {
				if bestScore+board.PieceValue[captured.Type()]+200 <= alpha {
					continue
				}
			}
			if SEE(pos, m) < 0 {
				continue
			}
		}

		movedPiece := pos.PieceAt(m.From()).Type()
		undo := pos.MakeMove(m)
		w.history = append(w.history, pos.Hash)
		w.prevPiece[ply] = movedPiece
		w.prevTo[ply] = m.To()
		score := -w.quiescence(ply+1, -beta, -alpha)
		w.history = w.history[:len(w.history)-1]
		pos.UnmakeMove(m, undo)

		if score > bestScore {
			bestScore = score
		}
		if score > alpha {
			alpha = score
			w.pv[ply][0] = m
			copy(w.pv[ply][1:], w.pv[ply+1][:w.pvLen[ply+1]])
			w.pvLen[ply] = w.pvLen[ply+1] + 1
		}
		if alpha >= beta {
			break
		}
	}
	return bestScore
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
