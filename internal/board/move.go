package board

import "fmt"

// Move packs a move into 16 bits:
// bits 0-5 from square, 6-11 to square, 12-13 promotion piece
// (0=knight .. 3=queen), 14-15 flags.
type Move uint16

const (
	flagPromotion Move = 1 << 14
	flagEnPassant Move = 2 << 14
	flagCastling  Move = 3 << 14
	flagMask      Move = 3 << 14
)

// NoMove is the zero move, used as a sentinel.
const NoMove Move = 0

// NewMove builds a plain move.
func NewMove(from, to Square) Move {
	return Move(from) | Move(to)<<6
}

// NewPromotion builds a promotion move.
func NewPromotion(from, to Square, promo PieceType) Move {
	return Move(from) | Move(to)<<6 | Move(promo-Knight)<<12 | flagPromotion
}

// NewEnPassant builds an en passant capture.
func NewEnPassant(from, to Square) Move {
	return Move(from) | Move(to)<<6 | flagEnPassant
}

// NewCastling builds a castling move, encoded as the king's two-square step.
func NewCastling(from, to Square) Move {
	return Move(from) | Move(to)<<6 | flagCastling
}

func (m Move) From() Square { return Square(m & 0x3F) }
func (m Move) To() Square   { return Square((m >> 6) & 0x3F) }

// Promotion returns the promoted piece type. Valid only when IsPromotion.
func (m Move) Promotion() PieceType { return PieceType((m>>12)&3) + Knight }

func (m Move) IsPromotion() bool { return m&flagMask == flagPromotion }
func (m Move) IsEnPassant() bool { return m&flagMask == flagEnPassant }
func (m Move) IsCastling() bool  { return m&flagMask == flagCastling }

// IsCapture reports whether m captures a piece in pos.
func (m Move) IsCapture(pos *Position) bool {
	return m.IsEnPassant() || !pos.IsEmpty(m.To())
}

// String formats the move in coordinate notation ("e2e4", "e7e8q").
func (m Move) String() string {
	if m == NoMove {
		return "0000"
	}
	s := m.From().String() + m.To().String()
	if m.IsPromotion() {
		s += string("nbrq"[m.Promotion()-Knight])
	}
	return s
}

// ParseMove parses coordinate notation against pos, so castling and en
// passant get their proper flags.
func ParseMove(s string, pos *Position) (Move, error) {
	if len(s) < 4 || len(s) > 5 {
		return NoMove, fmt.Errorf("invalid move %q", s)
	}
	from, err := ParseSquare(s[0:2])
	if err != nil {
		return NoMove, err
	}
	to, err := ParseSquare(s[2:4])
	if err != nil {
		return NoMove, err
	}

	if len(s) == 5 {
		var promo PieceType
		switch s[4] {
		case 'n':
			promo = Knight
		case 'b':
			promo = Bishop
		case 'r':
			promo = Rook
		case 'q':
			promo = Queen
		default:
			return NoMove, fmt.Errorf("invalid promotion piece %q", s[4])
		}
		return NewPromotion(from, to, promo), nil
	}

	piece := pos.PieceAt(from)
	if piece == NoPiece {
		return NoMove, fmt.Errorf("no piece on %s", from)
	}
	switch {
	case piece.Type() == King && (int(to)-int(from) == 2 || int(from)-int(to) == 2):
		return NewCastling(from, to), nil
	case piece.Type() == Pawn && to == pos.EnPassant:
		return NewEnPassant(from, to), nil
	}
	return NewMove(from, to), nil
}

// MoveList is a fixed-capacity move buffer. 256 covers any legal position.
type MoveList struct {
	moves [256]Move
	count int
}

func (ml *MoveList) Add(m Move)       { ml.moves[ml.count] = m; ml.count++ }
func (ml *MoveList) Len() int         { return ml.count }
func (ml *MoveList) Get(i int) Move   { return ml.moves[i] }
func (ml *MoveList) Clear()           { ml.count = 0 }

func (ml *MoveList) Swap(i, j int) {
	ml.moves[i], ml.moves[j] = ml.moves[j], ml.moves[i]
}

// Contains reports whether m is in the list.
func (ml *MoveList) Contains(m Move) bool {
	for i := 0; i < ml.count; i++ {
		if ml.moves[i] == m {
			return true
		}
	}
	return false
}

// Undo holds the state needed to take back one move. UnmakeMove
// restores the full bitboard snapshot.
type Undo struct {
	Captured       Piece
	CastlingRights CastlingRights
	EnPassant      Square
	HalfMoveClock  int
	Hash           uint64
	Checkers       Bitboard
	KingSquare     [2]Square
	Pieces         [2][6]Bitboard
	Occupied       [2]Bitboard
	AllOccupied    Bitboard
	Valid          bool // false when the move left the own king in check
}
