package board

// GenerateLegalMoves returns every legal move in the position.
func (p *Position) GenerateLegalMoves() *MoveList {
	ml := &MoveList{}
	p.generateMoves(ml, false)
	return p.filterLegal(ml)
}

// GenerateCaptures returns legal captures and promotions, for quiescence.
func (p *Position) GenerateCaptures() *MoveList {
	ml := &MoveList{}
	p.generateMoves(ml, true)
	return p.filterLegal(ml)
}

// generateMoves emits pseudo-legal moves. With capturesOnly it keeps
// captures, en passant and promotions (push promotions included, they
// are as forcing as captures).
func (p *Position) generateMoves(ml *MoveList, capturesOnly bool) {
	us := p.SideToMove
	them := us.Other()
	occupied := p.AllOccupied
	enemies := p.Occupied[them]

	targets := ^p.Occupied[us]
	if capturesOnly {
		targets = enemies
	}

	p.generatePawnMoves(ml, capturesOnly)

	for knights := p.Pieces[us][Knight]; knights != 0; {
		from := knights.PopLSB()
		for attacks := KnightAttacks(from) & targets; attacks != 0; {
			ml.Add(NewMove(from, attacks.PopLSB()))
		}
	}
	for bishops := p.Pieces[us][Bishop]; bishops != 0; {
		from := bishops.PopLSB()
		for attacks := BishopAttacks(from, occupied) & targets; attacks != 0; {
			ml.Add(NewMove(from, attacks.PopLSB()))
		}
	}
	for rooks := p.Pieces[us][Rook]; rooks != 0; {
		from := rooks.PopLSB()
		for attacks := RookAttacks(from, occupied) & targets; attacks != 0; {
			ml.Add(NewMove(from, attacks.PopLSB()))
		}
	}
	for queens := p.Pieces[us][Queen]; queens != 0; {
		from := queens.PopLSB()
		for attacks := QueenAttacks(from, occupied) & targets; attacks != 0; {
			ml.Add(NewMove(from, attacks.PopLSB()))
		}
	}

	ksq := p.KingSquare[us]
	for attacks := KingAttacks(ksq) & targets; attacks != 0; {
		ml.Add(NewMove(ksq, attacks.PopLSB()))
	}

	if !capturesOnly {
		p.generateCastling(ml)
	}
}

func (p *Position) generatePawnMoves(ml *MoveList, capturesOnly bool) {
	us := p.SideToMove
	pawns := p.Pieces[us][Pawn]
	enemies := p.Occupied[us.Other()]
	empty := ^p.AllOccupied

	var push1, push2, capW, capE, promoRank Bitboard
	var fwd int
	if us == White {
		push1 = pawns.North() & empty
		push2 = (push1 & Rank3).North() & empty
		capW = pawns.NorthWest() & enemies
		capE = pawns.NorthEast() & enemies
		promoRank = Rank8
		fwd = 8
	} else {
		push1 = pawns.South() & empty
		push2 = (push1 & Rank6).South() & empty
		capW = pawns.SouthWest() & enemies
		capE = pawns.SouthEast() & enemies
		promoRank = Rank1
		fwd = -8
	}

	emit := func(bb Bitboard, delta int) {
		promos := bb & promoRank
		for quiet := bb &^ promoRank; quiet != 0; {
			to := quiet.PopLSB()
			ml.Add(NewMove(Square(int(to)-delta), to))
		}
		for promos != 0 {
			to := promos.PopLSB()
			from := Square(int(to) - delta)
			ml.Add(NewPromotion(from, to, Queen))
			ml.Add(NewPromotion(from, to, Rook))
			ml.Add(NewPromotion(from, to, Bishop))
			ml.Add(NewPromotion(from, to, Knight))
		}
	}

	emit(capW, fwd-1)
	emit(capE, fwd+1)
	if capturesOnly {
		// Still generate push promotions.
		emit(push1&promoRank, fwd)
	} else {
		emit(push1, fwd)
		for push2 != 0 {
			to := push2.PopLSB()
			ml.Add(NewMove(Square(int(to)-2*fwd), to))
		}
	}

	if p.EnPassant != NoSquare {
		for attackers := PawnAttacks(p.EnPassant, us.Other()) & pawns; attackers != 0; {
			ml.Add(NewEnPassant(attackers.PopLSB(), p.EnPassant))
		}
	}
}

func (p *Position) generateCastling(ml *MoveList) {
	us := p.SideToMove
	them := us.Other()
	if p.Checkers != 0 {
		return
	}

	type castle struct {
		right      CastlingRights
		kingFrom   Square
		kingTo     Square
		emptyMask  Bitboard
		checkSquar [2]Square // squares the king crosses besides the start
	}
	var castles [2]castle
	if us == White {
		castles = [2]castle{
			{WhiteKingSide, E1, G1, SquareBB(F1) | SquareBB(G1), [2]Square{F1, G1}},
			{WhiteQueenSide, E1, C1, SquareBB(B1) | SquareBB(C1) | SquareBB(D1), [2]Square{D1, C1}},
		}
	} else {
		castles = [2]castle{
			{BlackKingSide, E8, G8, SquareBB(F8) | SquareBB(G8), [2]Square{F8, G8}},
			{BlackQueenSide, E8, C8, SquareBB(B8) | SquareBB(C8) | SquareBB(D8), [2]Square{D8, C8}},
		}
	}

	for _, c := range castles {
		if p.CastlingRights&c.right == 0 || p.AllOccupied&c.emptyMask != 0 {
			continue
		}
		if p.IsSquareAttacked(c.checkSquar[0], them) || p.IsSquareAttacked(c.checkSquar[1], them) {
			continue
		}
		ml.Add(NewCastling(c.kingFrom, c.kingTo))
	}
}

// filterLegal removes moves that leave the own king in check. Non-pinned
// non-king moves are legal without further checks when not in check.
func (p *Position) filterLegal(ml *MoveList) *MoveList {
	result := &MoveList{}
	pinned := p.ComputePinned()
	ksq := p.KingSquare[p.SideToMove]
	inCheck := p.Checkers != 0

	for i := 0; i < ml.Len(); i++ {
		m := ml.Get(i)
		if !inCheck && m.From() != ksq && !m.IsEnPassant() && pinned&SquareBB(m.From()) == 0 {
			result.Add(m)
			continue
		}
		if p.isLegal(m, pinned) {
			result.Add(m)
		}
	}
	return result
}

// isLegal validates king moves, pinned-piece moves, en passant and
// check evasions without make/unmake where possible.
func (p *Position) isLegal(m Move, pinned Bitboard) bool {
	from, to := m.From(), m.To()
	us := p.SideToMove
	them := us.Other()
	ksq := p.KingSquare[us]

	if from == ksq {
		if m.IsCastling() {
			// Crossing squares were verified at generation.
			return p.Checkers == 0
		}
		// Drop the king from occupancy so sliders see through it.
		occ := p.AllOccupied &^ SquareBB(from)
		return p.AttackersByColor(to, them, occ) == 0
	}

	if p.Checkers != 0 {
		if p.Checkers.PopCount() > 1 {
			return false // double check, only the king may move
		}
		checker := p.Checkers.LSB()

		if m.IsEnPassant() {
			capSq := to - 8
			if us == Black {
				capSq = to + 8
			}
			if capSq != checker {
				return false
			}
			return p.isLegalByMake(m)
		}
		if (SquareBB(checker)|Between(checker, ksq))&SquareBB(to) == 0 {
			return false
		}
		return pinned&SquareBB(from) == 0 || Aligned(from, to, ksq)
	}

	if m.IsEnPassant() {
		// Two pawns leave the rank at once; a discovered rook check
		// along it escapes the pin logic, so play it out.
		return p.isLegalByMake(m)
	}
	if pinned&SquareBB(from) == 0 {
		return true
	}
	return Aligned(from, to, ksq)
}

func (p *Position) isLegalByMake(m Move) bool {
	undo := p.MakeMove(m)
	if p.Hash != undo.Hash {
		p.UnmakeMove(m, undo)
	}
	return undo.Valid
}

// HasLegalMoves reports whether any legal move exists.
func (p *Position) HasLegalMoves() bool {
	ml := &MoveList{}
	p.generateMoves(ml, false)
	pinned := p.ComputePinned()
	ksq := p.KingSquare[p.SideToMove]
	inCheck := p.Checkers != 0
	for i := 0; i < ml.Len(); i++ {
		m := ml.Get(i)
		if !inCheck && m.From() != ksq && !m.IsEnPassant() && pinned&SquareBB(m.From()) == 0 {
			return true
		}
		if p.isLegal(m, pinned) {
			return true
		}
	}
	return false
}

// IsCheckmate reports whether the side to move is mated.
func (p *Position) IsCheckmate() bool {
	return p.InCheck() && !p.HasLegalMoves()
}

// IsStalemate reports whether the side to move has no move but no check.
func (p *Position) IsStalemate() bool {
	return !p.InCheck() && !p.HasLegalMoves()
}
