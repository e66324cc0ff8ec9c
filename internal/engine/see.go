package engine

import "github.com/hailam/tempo/internal/board"

// SEE estimates the material outcome of the exchange started by m on
// its target square, in centipawns from the mover's point of view.
// Attackers are applied least valuable first, with x-ray attackers
// revealed as pieces come off the board.
func SEE(pos *board.Position, m board.Move) int {
	from, to := m.From(), m.To()

	var gain [32]int
	captured := pos.PieceAt(to)
	if captured != board.NoPiece {
		gain[0] = board.PieceValue[captured.Type()]
	}

	occupied := pos.AllOccupied &^ board.SquareBB(from)
	if m.IsEnPassant() {
		gain[0] = board.PieceValue[board.Pawn]
		capSq := to - 8
		if pos.SideToMove == board.Black {
			capSq = to + 8
		}
		occupied &^= board.SquareBB(capSq)
	}

	attackerPt := pos.PieceAt(from).Type()
	if m.IsPromotion() {
		attackerPt = m.Promotion()
	}

	bishops := pos.Pieces[board.White][board.Bishop] | pos.Pieces[board.Black][board.Bishop] |
		pos.Pieces[board.White][board.Queen] | pos.Pieces[board.Black][board.Queen]
	rooks := pos.Pieces[board.White][board.Rook] | pos.Pieces[board.Black][board.Rook] |
		pos.Pieces[board.White][board.Queen] | pos.Pieces[board.Black][board.Queen]

	attackers := pos.AttackersTo(to, occupied) & occupied
	side := pos.SideToMove.Other()
	d := 0

	for {
		ours := attackers & pos.Occupied[side]
		if ours == 0 {
			break
		}
		d++
		gain[d] = board.PieceValue[attackerPt] - gain[d-1]
		if max(-gain[d-1], gain[d]) < 0 {
			break
		}

		// Least valuable attacker recaptures next.
		var sq board.Square
		for pt := board.Pawn; pt <= board.King; pt++ {
			if bb := ours & pos.Pieces[side][pt]; bb != 0 {
				sq = bb.LSB()
				attackerPt = pt
				break
			}
		}

		occupied &^= board.SquareBB(sq)
		switch attackerPt {
		case board.Pawn, board.Bishop:
			attackers |= board.BishopAttacks(to, occupied) & bishops
		case board.Rook:
			attackers |= board.RookAttacks(to, occupied) & rooks
		case board.Queen:
			attackers |= (board.BishopAttacks(to, occupied) & bishops) |
				(board.RookAttacks(to, occupied) & rooks)
		}
		attackers &= occupied
		side = side.Other()
	}

	for ; d > 0; d-- {
		gain[d-1] = -max(-gain[d-1], gain[d])
	}
	return gain[0]
}
