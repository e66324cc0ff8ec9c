package engine

import (
	"testing"

	"github.com/hailam/tempo/internal/board"
)

func TestTTRoundTrip(t *testing.T) {
	tt := NewTranspositionTable(1)
	move := board.NewMove(board.E2, board.E4)

	cases := []struct {
		hash  uint64
		score int
		depth int
		bound Bound
	}{
		{0x123456789ABCDEF0, 137, 12, BoundExact},
		{0xFEDCBA9876543210, -2500, 1, BoundUpper},
		{0xDEADBEEFCAFEF00D, 0, 64, BoundLower},
	}
	for _, tc := range cases {
		tt.Store(tc.hash, move, tc.score, tc.depth, tc.bound)
		entry, ok := tt.Probe(tc.hash)
		if !ok {
			t.Fatalf("probe miss after store, hash %016x", tc.hash)
		}
		if entry.Move != move || entry.Score != tc.score || entry.Depth != tc.depth || entry.Bound != tc.bound {
			t.Errorf("round trip: got %+v, want score %d depth %d bound %d", entry, tc.score, tc.depth, tc.bound)
		}
	}
}

func TestTTProbeMiss(t *testing.T) {
	tt := NewTranspositionTable(1)
	if _, ok := tt.Probe(0x42); ok {
		t.Error("probe of empty table should miss")
	}
	tt.Store(0x42, board.NoMove, 10, 5, BoundExact)
	if _, ok := tt.Probe(0x43); ok {
		t.Error("probe of absent hash should miss")
	}
}

func TestTTTornEntryRejected(t *testing.T) {
	tt := NewTranspositionTable(1)
	hash := uint64(0x0123456789ABCDEF)
	tt.Store(hash, board.NewMove(board.D2, board.D4), 55, 9, BoundExact)

	// Corrupt the data word as an interrupted concurrent store would.
	slot := &tt.slots[hash&tt.mask]
	slot.data.Store(slot.data.Load() ^ (1 << 20))

	if _, ok := tt.Probe(hash); ok {
		t.Error("probe must reject an entry whose checksum does not match")
	}
}

func TestTTReplacementPolicy(t *testing.T) {
	tt := NewTranspositionTable(1)
	h1 := uint64(0x10)
	h2 := h1 + tt.mask + 1 // same slot, different hash

	tt.Store(h1, board.NoMove, 100, 10, BoundExact)
	tt.Store(h2, board.NoMove, 200, 2, BoundExact)
	if _, ok := tt.Probe(h1); !ok {
		t.Error("shallow same-generation entry must not evict a deeper one")
	}
	if _, ok := tt.Probe(h2); ok {
		t.Error("rejected store should not be probeable")
	}

	// After aging, the old deep entry gives way.
	tt.NewSearch()
	tt.Store(h2, board.NoMove, 200, 2, BoundExact)
	if _, ok := tt.Probe(h2); !ok {
		t.Error("old-generation entry should be replaced")
	}
	if _, ok := tt.Probe(h1); ok {
		t.Error("evicted entry should miss")
	}
}

func TestTTSamePositionKeepsMove(t *testing.T) {
	tt := NewTranspositionTable(1)
	hash := uint64(0x77)
	move := board.NewMove(board.G1, board.F3)

	tt.Store(hash, move, 30, 6, BoundExact)
	tt.Store(hash, board.NoMove, 25, 8, BoundExact)

	entry, ok := tt.Probe(hash)
	if !ok {
		t.Fatal("probe miss")
	}
	if entry.Move != move {
		t.Errorf("stored move lost on moveless overwrite: got %s", entry.Move)
	}
	if entry.Depth != 8 {
		t.Errorf("deeper overwrite should win: depth %d", entry.Depth)
	}
}

func TestTTStoreClampsDeepDepth(t *testing.T) {
	tt := NewTranspositionTable(1)
	hash := uint64(0x88)
	tt.Store(hash, board.NoMove, 10, 128, BoundExact)

	entry, ok := tt.Probe(hash)
	if !ok {
		t.Fatal("probe miss")
	}
	if entry.Depth != 127 {
		t.Errorf("depth %d, want 127; a wrapped depth breaks replacement", entry.Depth)
	}

	// A shallower non-exact store must still lose to the clamped entry.
	tt.Store(hash, board.NoMove, 5, 4, BoundLower)
	entry, _ = tt.Probe(hash)
	if entry.Depth != 127 {
		t.Errorf("clamped entry evicted by depth %d", entry.Depth)
	}
}

func TestTTClear(t *testing.T) {
	tt := NewTranspositionTable(1)
	tt.Store(0x99, board.NoMove, 1, 1, BoundExact)
	tt.Clear()
	if _, ok := tt.Probe(0x99); ok {
		t.Error("probe after clear should miss")
	}
}

func TestTTHashFull(t *testing.T) {
	tt := NewTranspositionTable(1)
	if got := tt.HashFull(); got != 0 {
		t.Fatalf("fresh table reports %d permill", got)
	}
	for i := uint64(0); i < 500; i++ {
		tt.Store(i, board.NoMove, 0, 1, BoundExact)
	}
	if got := tt.HashFull(); got != 500 {
		t.Errorf("HashFull = %d, want 500", got)
	}
}

func TestScoreToFromTT(t *testing.T) {
	cases := []struct {
		score int
		ply   int
	}{
		{MateScore - 3, 7},
		{-MateScore + 5, 12},
		{150, 30},
		{0, 0},
	}
	for _, tc := range cases {
		stored := ScoreToTT(tc.score, tc.ply)
		if got := ScoreFromTT(stored, tc.ply); got != tc.score {
			t.Errorf("score %d ply %d: round trip gave %d", tc.score, tc.ply, got)
		}
	}

	// A mate found at ply 4 probed from ply 2 must read as a mate two
	// plies closer to the probing node.
	stored := ScoreToTT(MateScore-10, 4)
	if got := ScoreFromTT(stored, 2); got != MateScore-8 {
		t.Errorf("mate rebasing: got %d, want %d", got, MateScore-8)
	}
}
