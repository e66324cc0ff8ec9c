package board

import "strings"

// CastlingRights is a bitmask of the four castling permissions.
type CastlingRights uint8

const (
	WhiteKingSide CastlingRights = 1 << iota
	WhiteQueenSide
	BlackKingSide
	BlackQueenSide
	NoCastling  CastlingRights = 0
	AllCastling CastlingRights = WhiteKingSide | WhiteQueenSide | BlackKingSide | BlackQueenSide
)

func (cr CastlingRights) String() string {
	if cr == NoCastling {
		return "-"
	}
	var sb strings.Builder
	for i, c := range []byte("KQkq") {
		if cr&(1<<i) != 0 {
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

// Position is a complete chess position. Each search worker owns its own
// copy; a Position is never shared mutably across goroutines.
type Position struct {
	Pieces [2][6]Bitboard // [color][piece type]

	Occupied    [2]Bitboard
	AllOccupied Bitboard

	SideToMove     Color
	CastlingRights CastlingRights
	EnPassant      Square // capture target square, NoSquare if none
	HalfMoveClock  int
	FullMoveNumber int

	Hash uint64

	KingSquare [2]Square
	Checkers   Bitboard // enemy pieces giving check to the side to move
}

// NewPosition returns the standard starting position.
func NewPosition() *Position {
	pos, _ := ParseFEN(StartFEN)
	return pos
}

// Copy returns an independent copy of the position.
func (p *Position) Copy() *Position {
	cp := *p
	return &cp
}

// PieceAt returns the piece on sq, or NoPiece.
func (p *Position) PieceAt(sq Square) Piece {
	bb := SquareBB(sq)
	if p.AllOccupied&bb == 0 {
		return NoPiece
	}
	c := White
	if p.Occupied[Black]&bb != 0 {
		c = Black
	}
	for pt := Pawn; pt <= King; pt++ {
		if p.Pieces[c][pt]&bb != 0 {
			return NewPiece(pt, c)
		}
	}
	return NoPiece
}

// IsEmpty reports whether sq holds no piece.
func (p *Position) IsEmpty(sq Square) bool {
	return p.AllOccupied&SquareBB(sq) == 0
}

// InCheck reports whether the side to move is in check.
func (p *Position) InCheck() bool { return p.Checkers != 0 }

func (p *Position) putPiece(pt PieceType, c Color, sq Square) {
	bb := SquareBB(sq)
	p.Pieces[c][pt] |= bb
	p.Occupied[c] |= bb
	p.AllOccupied |= bb
	if pt == King {
		p.KingSquare[c] = sq
	}
}

func (p *Position) dropPiece(pt PieceType, c Color, sq Square) {
	bb := SquareBB(sq)
	p.Pieces[c][pt] &^= bb
	p.Occupied[c] &^= bb
	p.AllOccupied &^= bb
}

func (p *Position) shiftPiece(pt PieceType, c Color, from, to Square) {
	bb := SquareBB(from) | SquareBB(to)
	p.Pieces[c][pt] ^= bb
	p.Occupied[c] ^= bb
	p.AllOccupied ^= bb
	if pt == King {
		p.KingSquare[c] = to
	}
}

// castlingUpdates clears rights when a king or rook square is touched.
var castlingUpdates = func() [64]CastlingRights {
	var t [64]CastlingRights
	for sq := range t {
		t[sq] = AllCastling
	}
	t[E1] &^= WhiteKingSide | WhiteQueenSide
	t[A1] &^= WhiteQueenSide
	t[H1] &^= WhiteKingSide
	t[E8] &^= BlackKingSide | BlackQueenSide
	t[A8] &^= BlackQueenSide
	t[H8] &^= BlackKingSide
	return t
}()

// MakeMove applies m and returns the undo record. If the move leaves the
// mover's own king in check the position is still modified but
// Undo.Valid is false; callers must unmake and skip the move.
func (p *Position) MakeMove(m Move) Undo {
	undo := Undo{
		Captured:       NoPiece,
		CastlingRights: p.CastlingRights,
		EnPassant:      p.EnPassant,
		HalfMoveClock:  p.HalfMoveClock,
		Hash:           p.Hash,
		Checkers:       p.Checkers,
		KingSquare:     p.KingSquare,
		Pieces:         p.Pieces,
		Occupied:       p.Occupied,
		AllOccupied:    p.AllOccupied,
	}

	us := p.SideToMove
	them := us.Other()
	from, to := m.From(), m.To()
	piece := p.PieceAt(from)
	if piece == NoPiece || piece.Color() != us {
		return undo
	}
	undo.Valid = true
	pt := piece.Type()

	p.Hash ^= zobristSideToMove
	p.Hash ^= zobristCastling[p.CastlingRights]
	if p.EnPassant != NoSquare {
		p.Hash ^= zobristEnPassant[p.EnPassant.File()]
	}
	p.EnPassant = NoSquare

	switch {
	case m.IsEnPassant():
		capSq := to - 8
		if us == Black {
			capSq = to + 8
		}
		undo.Captured = NewPiece(Pawn, them)
		p.dropPiece(Pawn, them, capSq)
		p.Hash ^= zobristPiece[them][Pawn][capSq]
	default:
		if captured := p.PieceAt(to); captured != NoPiece {
			undo.Captured = captured
			p.dropPiece(captured.Type(), them, to)
			p.Hash ^= zobristPiece[them][captured.Type()][to]
		}
	}

	p.shiftPiece(pt, us, from, to)
	p.Hash ^= zobristPiece[us][pt][from] ^ zobristPiece[us][pt][to]

	if m.IsPromotion() {
		promo := m.Promotion()
		p.dropPiece(Pawn, us, to)
		p.putPiece(promo, us, to)
		p.Hash ^= zobristPiece[us][Pawn][to] ^ zobristPiece[us][promo][to]
	}

	if m.IsCastling() {
		rookFrom, rookTo := H1, F1
		if to < from {
			rookFrom, rookTo = A1, D1
		}
		if us == Black {
			rookFrom, rookTo = rookFrom.Mirror(), rookTo.Mirror()
		}
		p.shiftPiece(Rook, us, rookFrom, rookTo)
		p.Hash ^= zobristPiece[us][Rook][rookFrom] ^ zobristPiece[us][Rook][rookTo]
	}

	p.CastlingRights &= castlingUpdates[from] & castlingUpdates[to]
	p.Hash ^= zobristCastling[p.CastlingRights]

	// Double pawn push opens an en passant target.
	if pt == Pawn && (int(to)-int(from) == 16 || int(from)-int(to) == 16) {
		ep := Square((int(from) + int(to)) / 2)
		p.EnPassant = ep
		p.Hash ^= zobristEnPassant[ep.File()]
	}

	if pt == Pawn || undo.Captured != NoPiece {
		p.HalfMoveClock = 0
	} else {
		p.HalfMoveClock++
	}
	if us == Black {
		p.FullMoveNumber++
	}

	p.SideToMove = them
	p.UpdateCheckers()

	if p.IsSquareAttacked(p.KingSquare[us], them) {
		undo.Valid = false
	}
	return undo
}

// UnmakeMove restores the position from the undo record.
func (p *Position) UnmakeMove(m Move, undo Undo) {
	us := p.SideToMove.Other()
	p.CastlingRights = undo.CastlingRights
	p.EnPassant = undo.EnPassant
	p.HalfMoveClock = undo.HalfMoveClock
	p.Hash = undo.Hash
	p.Checkers = undo.Checkers
	p.KingSquare = undo.KingSquare
	p.Pieces = undo.Pieces
	p.Occupied = undo.Occupied
	p.AllOccupied = undo.AllOccupied
	p.SideToMove = us
	if us == Black {
		p.FullMoveNumber--
	}
}

// NullUndo holds the state for taking back a null move.
type NullUndo struct {
	EnPassant Square
	Hash      uint64
	Checkers  Bitboard
}

// MakeNullMove passes the turn without moving a piece.
func (p *Position) MakeNullMove() NullUndo {
	undo := NullUndo{EnPassant: p.EnPassant, Hash: p.Hash, Checkers: p.Checkers}
	if p.EnPassant != NoSquare {
		p.Hash ^= zobristEnPassant[p.EnPassant.File()]
		p.EnPassant = NoSquare
	}
	p.SideToMove = p.SideToMove.Other()
	p.Hash ^= zobristSideToMove
	p.UpdateCheckers()
	return undo
}

// UnmakeNullMove takes back a null move.
func (p *Position) UnmakeNullMove(undo NullUndo) {
	p.EnPassant = undo.EnPassant
	p.Hash = undo.Hash
	p.Checkers = undo.Checkers
	p.SideToMove = p.SideToMove.Other()
}

// ComputePinned returns the side to move's pieces that are pinned to
// their king, found by x-raying from the king through single blockers.
func (p *Position) ComputePinned() Bitboard {
	us := p.SideToMove
	them := us.Other()
	ksq := p.KingSquare[us]
	var pinned Bitboard

	snipers := (RookAttacks(ksq, 0) & (p.Pieces[them][Rook] | p.Pieces[them][Queen])) |
		(BishopAttacks(ksq, 0) & (p.Pieces[them][Bishop] | p.Pieces[them][Queen]))
	for snipers != 0 {
		sq := snipers.PopLSB()
		blockers := Between(sq, ksq) & p.AllOccupied
		if blockers.PopCount() == 1 && blockers&p.Occupied[us] != 0 {
			pinned |= blockers
		}
	}
	return pinned
}

// HasNonPawnMaterial reports whether the side to move has any piece
// besides pawns and the king. Null move pruning is unsound without it.
func (p *Position) HasNonPawnMaterial() bool {
	us := p.SideToMove
	return p.Pieces[us][Knight]|p.Pieces[us][Bishop]|p.Pieces[us][Rook]|p.Pieces[us][Queen] != 0
}

// IsInsufficientMaterial reports whether neither side can possibly mate.
func (p *Position) IsInsufficientMaterial() bool {
	if p.Pieces[White][Pawn]|p.Pieces[Black][Pawn]|
		p.Pieces[White][Rook]|p.Pieces[Black][Rook]|
		p.Pieces[White][Queen]|p.Pieces[Black][Queen] != 0 {
		return false
	}
	wMinors := (p.Pieces[White][Knight] | p.Pieces[White][Bishop]).PopCount()
	bMinors := (p.Pieces[Black][Knight] | p.Pieces[Black][Bishop]).PopCount()
	return (wMinors <= 1 && bMinors == 0) || (bMinors <= 1 && wMinors == 0)
}

// IsDrawByRule reports fifty-move or dead-position draws. Repetition is
// tracked by the search over its hash history, not here.
func (p *Position) IsDrawByRule() bool {
	return p.HalfMoveClock >= 100 || p.IsInsufficientMaterial()
}

// Flipped returns the color-mirrored position: every piece moved to its
// vertically mirrored square with its color swapped, side to move and
// castling rights swapped likewise. Evaluation must negate under it.
func (p *Position) Flipped() *Position {
	f := &Position{
		SideToMove:     p.SideToMove.Other(),
		EnPassant:      NoSquare,
		HalfMoveClock:  p.HalfMoveClock,
		FullMoveNumber: p.FullMoveNumber,
	}
	for c := White; c <= Black; c++ {
		for pt := Pawn; pt <= King; pt++ {
			bb := p.Pieces[c][pt]
			for bb != 0 {
				f.putPiece(pt, c.Other(), bb.PopLSB().Mirror())
			}
		}
	}
	if p.EnPassant != NoSquare {
		f.EnPassant = p.EnPassant.Mirror()
	}
	if p.CastlingRights&WhiteKingSide != 0 {
		f.CastlingRights |= BlackKingSide
	}
	if p.CastlingRights&WhiteQueenSide != 0 {
		f.CastlingRights |= BlackQueenSide
	}
	if p.CastlingRights&BlackKingSide != 0 {
		f.CastlingRights |= WhiteKingSide
	}
	if p.CastlingRights&BlackQueenSide != 0 {
		f.CastlingRights |= WhiteQueenSide
	}
	f.Hash = f.ComputeHash()
	f.UpdateCheckers()
	return f
}

// String renders the board with rank 8 on top.
func (p *Position) String() string {
	var sb strings.Builder
	for rank := 7; rank >= 0; rank-- {
		for file := 0; file < 8; file++ {
			sb.WriteString(p.PieceAt(NewSquare(file, rank)).String())
			sb.WriteByte(' ')
		}
		sb.WriteByte('\n')
	}
	sb.WriteString(p.SideToMove.String())
	sb.WriteString(" to move\n")
	return sb.String()
}
