package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const (
	keyStats   = "stats"
	gamePrefix = "game:"
)

// GameRecord is one completed self-play game.
type GameRecord struct {
	ID        string        `json:"id"`
	White     string        `json:"white"`
	Black     string        `json:"black"`
	Result    string        `json:"result"` // "1-0", "0-1" or "1/2-1/2"
	Reason    string        `json:"reason"` // checkmate, stalemate, repetition, ...
	Moves     []string      `json:"moves"`
	FinalFEN  string        `json:"final_fen"`
	Plies     int           `json:"plies"`
	Duration  time.Duration `json:"duration"`
	StartedAt time.Time     `json:"started_at"`
}

// Stats aggregates results over all recorded games.
type Stats struct {
	GamesPlayed int           `json:"games_played"`
	WhiteWins   int           `json:"white_wins"`
	BlackWins   int           `json:"black_wins"`
	Draws       int           `json:"draws"`
	TotalPlies  int           `json:"total_plies"`
	TotalTime   time.Duration `json:"total_time"`
}

// DrawRate returns the share of drawn games as a percentage.
func (s *Stats) DrawRate() float64 {
	if s.GamesPlayed == 0 {
		return 0
	}
	return float64(s.Draws) / float64(s.GamesPlayed) * 100
}

// AveragePlies returns the mean game length.
func (s *Stats) AveragePlies() float64 {
	if s.GamesPlayed == 0 {
		return 0
	}
	return float64(s.TotalPlies) / float64(s.GamesPlayed)
}

// Store wraps a badger database holding game records and stats.
type Store struct {
	db *badger.DB
}

// Open opens or creates a store at dir.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", dir, err)
	}
	return &Store{db: db}, nil
}

// OpenDefault opens the store in the per-user data directory.
func OpenDefault() (*Store, error) {
	dir, err := DatabaseDir()
	if err != nil {
		return nil, err
	}
	return Open(dir)
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveGame persists rec and folds its result into the aggregate stats.
func (s *Store) SaveGame(rec *GameRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("storage: marshal game: %w", err)
	}

	stats, err := s.Stats()
	if err != nil {
		return err
	}
	stats.GamesPlayed++
	stats.TotalPlies += rec.Plies
	stats.TotalTime += rec.Duration
	switch rec.Result {
	case "1-0":
		stats.WhiteWins++
	case "0-1":
		stats.BlackWins++
	default:
		stats.Draws++
	}
	statsData, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("storage: marshal stats: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(gamePrefix+rec.ID), data); err != nil {
			return err
		}
		return txn.Set([]byte(keyStats), statsData)
	})
	if err != nil {
		return fmt.Errorf("storage: save game %s: %w", rec.ID, err)
	}
	return nil
}

// LoadGame retrieves one game by id.
func (s *Store) LoadGame(id string) (*GameRecord, error) {
	var rec GameRecord
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(gamePrefix + id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("storage: load game %s: %w", id, err)
	}
	return &rec, nil
}

// ListGameIDs returns the ids of all stored games.
func (s *Store) ListGameIDs() ([]string, error) {
	var ids []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		prefix := []byte(gamePrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			ids = append(ids, string(it.Item().Key()[len(prefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("storage: list games: %w", err)
	}
	return ids, nil
}

// Stats loads the aggregate statistics, zero-valued when none exist.
func (s *Store) Stats() (*Stats, error) {
	stats := &Stats{}
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyStats))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, stats)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("storage: load stats: %w", err)
	}
	return stats, nil
}
