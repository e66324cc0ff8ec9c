package board

// Precomputed attack tables. Built once at init and read-only afterwards.
var (
	knightAttacks [64]Bitboard
	kingAttacks   [64]Bitboard
	pawnAttacks   [2][64]Bitboard

	betweenBB [64][64]Bitboard // squares strictly between two aligned squares
	lineBB    [64][64]Bitboard // full line through two aligned squares
)

func init() {
	initLeaperAttacks()
	initLines()
	initSliderAttacks()
}

func initLeaperAttacks() {
	for sq := A1; sq <= H8; sq++ {
		bb := SquareBB(sq)

		knightAttacks[sq] = bb.North().NorthEast() | bb.North().NorthWest() |
			bb.South().SouthEast() | bb.South().SouthWest() |
			bb.East().NorthEast() | bb.East().SouthEast() |
			bb.West().NorthWest() | bb.West().SouthWest()

		kingAttacks[sq] = bb.North() | bb.South() | bb.East() | bb.West() |
			bb.NorthEast() | bb.NorthWest() | bb.SouthEast() | bb.SouthWest()

		pawnAttacks[White][sq] = bb.NorthEast() | bb.NorthWest()
		pawnAttacks[Black][sq] = bb.SouthEast() | bb.SouthWest()
	}
}

func initLines() {
	dirs := [8][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}, {1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
	for sq1 := A1; sq1 <= H8; sq1++ {
		for _, d := range dirs {
			ray := castRay(sq1, d[0], d[1], 0)
			for bb := ray; bb != 0; {
				sq2 := bb.PopLSB()
				betweenBB[sq1][sq2] = ray &^ castRay(sq2, d[0], d[1], 0) &^ SquareBB(sq2)
				lineBB[sq1][sq2] = ray | castRay(sq1, -d[0], -d[1], 0) | SquareBB(sq1)
			}
		}
	}
}

// castRay walks from sq in direction (df, dr), stopping after the first
// occupied square. With empty occupancy it spans to the board edge.
func castRay(sq Square, df, dr int, occupied Bitboard) Bitboard {
	var ray Bitboard
	f, r := sq.File()+df, sq.Rank()+dr
	for f >= 0 && f <= 7 && r >= 0 && r <= 7 {
		s := NewSquare(f, r)
		ray |= SquareBB(s)
		if occupied.IsSet(s) {
			break
		}
		f += df
		r += dr
	}
	return ray
}

func rookAttacksSlow(sq Square, occupied Bitboard) Bitboard {
	return castRay(sq, 1, 0, occupied) | castRay(sq, -1, 0, occupied) |
		castRay(sq, 0, 1, occupied) | castRay(sq, 0, -1, occupied)
}

func bishopAttacksSlow(sq Square, occupied Bitboard) Bitboard {
	return castRay(sq, 1, 1, occupied) | castRay(sq, 1, -1, occupied) |
		castRay(sq, -1, 1, occupied) | castRay(sq, -1, -1, occupied)
}

// Fancy magic bitboards for sliding attacks.
type magicEntry struct {
	mask   Bitboard
	magic  uint64
	shift  uint8
	offset uint32
}

var (
	bishopMagics [64]magicEntry
	rookMagics   [64]magicEntry
	bishopTable  [5248]Bitboard
	rookTable    [102400]Bitboard
)

var bishopMagicNumbers = [64]uint64{
	0x0002020202020200, 0x0002020202020000, 0x0004010202000000, 0x0004040080000000,
	0x0001104000000000, 0x0000821040000000, 0x0000410410400000, 0x0000104104104000,
	0x0000040404040400, 0x0000020202020200, 0x0000040102020000, 0x0000040400800000,
	0x0000011040000000, 0x0000008210400000, 0x0000004104104000, 0x0000002082082000,
	0x0004000808080800, 0x0002000404040400, 0x0001000202020200, 0x0000800802004000,
	0x0000800400A00000, 0x0000200100884000, 0x0000400082082000, 0x0000200041041000,
	0x0002080010101000, 0x0001040008080800, 0x0000208004010400, 0x0000404004010200,
	0x0000840000802000, 0x0000404002011000, 0x0000808001041000, 0x0000404000820800,
	0x0001041000202000, 0x0000820800101000, 0x0000104400080800, 0x0000020080080080,
	0x0000404040040100, 0x0000808100020100, 0x0001010100020800, 0x0000808080010400,
	0x0000820820004000, 0x0000410410002000, 0x0000082088001000, 0x0000002011000800,
	0x0000080100400400, 0x0001010101000200, 0x0002020202000400, 0x0001010101000200,
	0x0000410410400000, 0x0000208208200000, 0x0000002084100000, 0x0000000020880000,
	0x0000001002020000, 0x0000040408020000, 0x0004040404040000, 0x0002020202020000,
	0x0000104104104000, 0x0000002082082000, 0x0000000020841000, 0x0000000000208800,
	0x0000000010020200, 0x0000000404080200, 0x0000040404040400, 0x0002020202020200,
}

var rookMagicNumbers = [64]uint64{
	0x0080001020400080, 0x0040001000200040, 0x0080081000200080, 0x0080040800100080,
	0x0080020400080080, 0x0080010200040080, 0x0080008001000200, 0x0080002040800100,
	0x0000800020400080, 0x0000400020005000, 0x0000801000200080, 0x0000800800100080,
	0x0000800400080080, 0x0000800200040080, 0x0000800100020080, 0x0000800040800100,
	0x0000208000400080, 0x0000404000201000, 0x0000808010002000, 0x0000808008001000,
	0x0000808004000800, 0x0000808002000400, 0x0000010100020004, 0x0000020000408104,
	0x0000208080004000, 0x0000200040005000, 0x0000100080200080, 0x0000080080100080,
	0x0000040080080080, 0x0000020080040080, 0x0000010080800200, 0x0000800080004100,
	0x0000204000800080, 0x0000200040401000, 0x0000100080802000, 0x0000080080801000,
	0x0000040080800800, 0x0000020080800400, 0x0000020001010004, 0x0000800040800100,
	0x0000204000808000, 0x0000200040008080, 0x0000100020008080, 0x0000080010008080,
	0x0000040008008080, 0x0000020004008080, 0x0000010002008080, 0x0000004081020004,
	0x0000204000800080, 0x0000200040008080, 0x0000100020008080, 0x0000080010008080,
	0x0000040008008080, 0x0000020004008080, 0x0000800100020080, 0x0000800041000080,
	0x00FFFCDDFCED714A, 0x007FFCDDFCED714A, 0x003FFFCDFFD88096, 0x0000040810002101,
	0x0001000204080011, 0x0001000204000801, 0x0001000082000401, 0x0001FFFAABFAD1A2,
}

func initSliderAttacks() {
	var bOffset, rOffset uint32
	for sq := A1; sq <= H8; sq++ {
		bOffset = initMagic(&bishopMagics[sq], sq, bOffset, bishopMagicNumbers[sq],
			bishopMask(sq), bishopAttacksSlow, bishopTable[:])
		rOffset = initMagic(&rookMagics[sq], sq, rOffset, rookMagicNumbers[sq],
			rookMask(sq), rookAttacksSlow, rookTable[:])
	}
}

func initMagic(m *magicEntry, sq Square, offset uint32, magic uint64, mask Bitboard,
	slow func(Square, Bitboard) Bitboard, table []Bitboard) uint32 {

	bits := mask.PopCount()
	*m = magicEntry{mask: mask, magic: magic, shift: uint8(64 - bits), offset: offset}

	// Enumerate every subset of the mask and fill its table slot.
	occ := Bitboard(0)
	for {
		idx := (uint64(occ) * magic) >> m.shift
		table[offset+uint32(idx)] = slow(sq, occ)
		occ = (occ - mask) & mask
		if occ == 0 {
			break
		}
	}
	return offset + 1<<bits
}

// bishopMask is the bishop's attack span minus the board edges.
func bishopMask(sq Square) Bitboard {
	return bishopAttacksSlow(sq, 0) &^ (Rank1 | Rank8 | FileA | FileH)
}

// rookMask excludes the final square of each ray.
func rookMask(sq Square) Bitboard {
	mask := castRay(sq, 1, 0, 0) &^ FileH
	mask |= castRay(sq, -1, 0, 0) &^ FileA
	mask |= castRay(sq, 0, 1, 0) &^ Rank8
	mask |= castRay(sq, 0, -1, 0) &^ Rank1
	return mask
}

// KnightAttacks returns the knight attack set for sq.
func KnightAttacks(sq Square) Bitboard { return knightAttacks[sq] }

// KingAttacks returns the king attack set for sq.
func KingAttacks(sq Square) Bitboard { return kingAttacks[sq] }

// PawnAttacks returns the capture squares of a c-colored pawn on sq.
func PawnAttacks(sq Square, c Color) Bitboard { return pawnAttacks[c][sq] }

// BishopAttacks returns bishop attacks from sq given occupancy.
func BishopAttacks(sq Square, occupied Bitboard) Bitboard {
	m := &bishopMagics[sq]
	idx := (uint64(occupied&m.mask) * m.magic) >> m.shift
	return bishopTable[m.offset+uint32(idx)]
}

// RookAttacks returns rook attacks from sq given occupancy.
func RookAttacks(sq Square, occupied Bitboard) Bitboard {
	m := &rookMagics[sq]
	idx := (uint64(occupied&m.mask) * m.magic) >> m.shift
	return rookTable[m.offset+uint32(idx)]
}

// QueenAttacks returns the union of rook and bishop attacks.
func QueenAttacks(sq Square, occupied Bitboard) Bitboard {
	return BishopAttacks(sq, occupied) | RookAttacks(sq, occupied)
}

// Between returns the squares strictly between two aligned squares,
// empty if they do not share a rank, file or diagonal.
func Between(sq1, sq2 Square) Bitboard { return betweenBB[sq1][sq2] }

// Aligned reports whether sq3 lies on the line through sq1 and sq2.
func Aligned(sq1, sq2, sq3 Square) bool {
	return lineBB[sq1][sq2]&SquareBB(sq3) != 0
}

// AttackersTo returns all pieces of either color attacking sq.
func (p *Position) AttackersTo(sq Square, occupied Bitboard) Bitboard {
	return p.AttackersByColor(sq, White, occupied) | p.AttackersByColor(sq, Black, occupied)
}

// AttackersByColor returns the c-colored pieces attacking sq.
func (p *Position) AttackersByColor(sq Square, c Color, occupied Bitboard) Bitboard {
	return (pawnAttacks[c.Other()][sq] & p.Pieces[c][Pawn]) |
		(knightAttacks[sq] & p.Pieces[c][Knight]) |
		(kingAttacks[sq] & p.Pieces[c][King]) |
		(BishopAttacks(sq, occupied) & (p.Pieces[c][Bishop] | p.Pieces[c][Queen])) |
		(RookAttacks(sq, occupied) & (p.Pieces[c][Rook] | p.Pieces[c][Queen]))
}

// IsSquareAttacked reports whether byColor attacks sq.
func (p *Position) IsSquareAttacked(sq Square, byColor Color) bool {
	return p.AttackersByColor(sq, byColor, p.AllOccupied) != 0
}

// UpdateCheckers recomputes the checkers set for the side to move.
func (p *Position) UpdateCheckers() {
	us := p.SideToMove
	p.Checkers = p.AttackersByColor(p.KingSquare[us], us.Other(), p.AllOccupied)
}
