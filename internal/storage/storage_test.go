package storage

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func record(result string, plies int) *GameRecord {
	return &GameRecord{
		ID:        uuid.NewString(),
		White:     "tempo-a",
		Black:     "tempo-b",
		Result:    result,
		Reason:    "checkmate",
		Moves:     []string{"e2e4", "e7e5"},
		FinalFEN:  "rnbqkbnr/pppp1ppp/8/4p3/4P3/8/PPPP1PPP/RNBQKBNR w KQkq - 0 2",
		Plies:     plies,
		Duration:  3 * time.Second,
		StartedAt: time.Now(),
	}
}

func TestSaveAndLoadGame(t *testing.T) {
	s := openTestStore(t)
	rec := record("1-0", 40)

	if err := s.SaveGame(rec); err != nil {
		t.Fatalf("SaveGame: %v", err)
	}
	got, err := s.LoadGame(rec.ID)
	if err != nil {
		t.Fatalf("LoadGame: %v", err)
	}
	if got.Result != rec.Result || got.Plies != rec.Plies || len(got.Moves) != len(rec.Moves) {
		t.Errorf("loaded game differs: got %+v, want %+v", got, rec)
	}
}

func TestLoadMissingGame(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.LoadGame(uuid.NewString()); err == nil {
		t.Error("loading an unknown id should fail")
	}
}

func TestStatsAggregation(t *testing.T) {
	s := openTestStore(t)

	for _, result := range []string{"1-0", "0-1", "1/2-1/2", "1-0"} {
		if err := s.SaveGame(record(result, 50)); err != nil {
			t.Fatalf("SaveGame: %v", err)
		}
	}

	stats, err := s.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.GamesPlayed != 4 || stats.WhiteWins != 2 || stats.BlackWins != 1 || stats.Draws != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.DrawRate() != 25 {
		t.Errorf("DrawRate = %f, want 25", stats.DrawRate())
	}
	if stats.AveragePlies() != 50 {
		t.Errorf("AveragePlies = %f, want 50", stats.AveragePlies())
	}
}

func TestEmptyStats(t *testing.T) {
	s := openTestStore(t)
	stats, err := s.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.GamesPlayed != 0 || stats.DrawRate() != 0 {
		t.Errorf("fresh store stats = %+v", stats)
	}
}

func TestListGameIDs(t *testing.T) {
	s := openTestStore(t)

	want := map[string]bool{}
	for i := 0; i < 3; i++ {
		rec := record("1/2-1/2", 30)
		want[rec.ID] = true
		if err := s.SaveGame(rec); err != nil {
			t.Fatalf("SaveGame: %v", err)
		}
	}

	ids, err := s.ListGameIDs()
	if err != nil {
		t.Fatalf("ListGameIDs: %v", err)
	}
	if len(ids) != 3 {
		t.Fatalf("got %d ids, want 3", len(ids))
	}
	for _, id := range ids {
		if !want[id] {
			t.Errorf("unexpected id %s", id)
		}
	}
}
