package engine

import (
	"math/bits"
	"sync/atomic"

	"github.com/hailam/tempo/internal/board"
)

// Bound classifies a stored score against the window it was searched
// with.
type Bound uint8

const (
	BoundNone Bound = iota
	BoundExact
	BoundLower
	BoundUpper
)

// TTEntry is a decoded transposition table record.
type TTEntry struct {
	Move  board.Move
	Score int
	Depth int
	Bound Bound
}

const ttGenMask = 0x3F

// ttSlot holds one entry as two separately written words. The key word
// stores hash^data, so a probe that races a store decodes to a key
// mismatch instead of a plausible wrong entry. Scores in a slot may
// still belong to a stale search; the search re-validates the stored
// move against the legal move list before trusting it.
type ttSlot struct {
	key  atomic.Uint64
	data atomic.Uint64
}

// data layout: bits 0-15 move, 16-31 score, 32-39 depth, 40-41 bound,
// 42-47 generation.
func ttPack(move board.Move, score, depth int, bound Bound, gen uint8) uint64 {
	return uint64(move) |
		uint64(uint16(int16(score)))<<16 |
		uint64(uint8(int8(depth)))<<32 |
		uint64(bound)<<40 |
		uint64(gen&ttGenMask)<<42
}

func ttUnpack(data uint64) TTEntry {
	return TTEntry{
		Move:  board.Move(data & 0xFFFF),
		Score: int(int16(data >> 16)),
		Depth: int(int8(data >> 32)),
		Bound: Bound((data >> 40) & 3),
	}
}

// TranspositionTable is a fixed-size hash table shared by all search
// workers without locks. Entries are best-effort: a probe may miss or
// return stale data, never a torn record.
type TranspositionTable struct {
	slots []ttSlot
	mask  uint64
	gen   uint8
}

// NewTranspositionTable allocates a table of about sizeMB megabytes,
// rounded down to a power of two entries.
func NewTranspositionTable(sizeMB int) *TranspositionTable {
	tt := &TranspositionTable{}
	tt.Resize(sizeMB)
	return tt
}

// Resize reallocates the table, discarding all entries. Not safe while
// a search is running.
func (tt *TranspositionTable) Resize(sizeMB int) {
	n := uint64(sizeMB) << 20 / 16
	if n == 0 {
		n = 1
	}
	n = 1 << (63 - bits.LeadingZeros64(n))
	tt.slots = make([]ttSlot, n)
	tt.mask = n - 1
	tt.gen = 0
}

// Clear wipes every entry.
func (tt *TranspositionTable) Clear() {
	for i := range tt.slots {
		tt.slots[i].key.Store(0)
		tt.slots[i].data.Store(0)
	}
	tt.gen = 0
}

// NewSearch advances the generation so old entries age out of the
// replacement policy without being erased.
func (tt *TranspositionTable) NewSearch() {
	tt.gen = (tt.gen + 1) & ttGenMask
}

// Probe returns the entry for hash if one is present and intact.
func (tt *TranspositionTable) Probe(hash uint64) (TTEntry, bool) {
	slot := &tt.slots[hash&tt.mask]
	key := slot.key.Load()
	data := slot.data.Load()
	if key^data != hash {
		return TTEntry{}, false
	}
	entry := ttUnpack(data)
	if entry.Bound == BoundNone {
		return TTEntry{}, false
	}
	return entry, true
}

// Store writes an entry. Within one generation deeper entries win;
// entries from older searches are always replaced. For the same
// position a shallower non-exact result never evicts a deeper one,
// but the stored move is kept when the new search found none.
func (tt *TranspositionTable) Store(hash uint64, move board.Move, score, depth int, bound Bound) {
	if depth > 127 {
		depth = 127 // the packed depth field is a signed byte
	}
	slot := &tt.slots[hash&tt.mask]
	key := slot.key.Load()
	data := slot.data.Load()

	if key^data == hash && data != 0 {
		if move == board.NoMove {
			move = board.Move(data & 0xFFFF)
		}
		if depth < int(int8(data>>32)) && bound != BoundExact {
			return
		}
	} else if data != 0 {
		oldGen := uint8(data>>42) & ttGenMask
		if oldGen == tt.gen && int(int8(data>>32)) > depth {
			return
		}
	}

	packed := ttPack(move, score, depth, bound, tt.gen)
	slot.data.Store(packed)
	slot.key.Store(hash ^ packed)
}

// HashFull estimates table occupancy in permill by sampling the first
// thousand slots for current-generation entries.
func (tt *TranspositionTable) HashFull() int {
	n := 1000
	if len(tt.slots) < n {
		n = len(tt.slots)
	}
	used := 0
	for i := 0; i < n; i++ {
		data := tt.slots[i].data.Load()
		if data != 0 && uint8(data>>42)&ttGenMask == tt.gen {
			used++
		}
	}
	return used * 1000 / n
}

// ScoreToTT converts a mate score from root-relative to node-relative
// before storing, so the entry stays correct at any depth it is probed
// from.
func ScoreToTT(score, ply int) int {
	if score >= MateScore-MaxPly {
		return score + ply
	}
	if score <= -MateScore+MaxPly {
		return score - ply
	}
	return score
}

// ScoreFromTT reverses ScoreToTT at probe time.
func ScoreFromTT(score, ply int) int {
	if score >= MateScore-MaxPly {
		return score - ply
	}
	if score <= -MateScore+MaxPly {
		return score + ply
	}
	return score
}
