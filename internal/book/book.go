// Package book implements an opening book persisted in BadgerDB,
// keyed by position hash with weighted move lists as values.
package book

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math/rand"
	"sort"

	"github.com/dgraph-io/badger/v4"

	"github.com/hailam/tempo/internal/board"
)

// Entry is one candidate move for a position. The move is stored in
// coordinate notation so book files survive changes to the internal
// move encoding.
type Entry struct {
	Move   string `json:"move"`
	Weight uint32 `json:"weight"`
}

// Book is an opening book backed by a badger database directory.
type Book struct {
	db *badger.DB
}

// Open opens or creates a book at dir.
func Open(dir string) (*Book, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("book: open %s: %w", dir, err)
	}
	return &Book{db: db}, nil
}

// Close flushes and closes the database.
func (b *Book) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

func positionKey(hash uint64) []byte {
	key := make([]byte, 12)
	copy(key, "pos:")
	binary.BigEndian.PutUint64(key[4:], hash)
	return key
}

// Entries returns the stored moves for pos, heaviest first. A missing
// position is not an error, just an empty list.
func (b *Book) Entries(pos *board.Position) ([]Entry, error) {
	var entries []Entry
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(positionKey(pos.Hash))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entries)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("book: read entries: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Weight > entries[j].Weight
	})
	return entries, nil
}

// Pick draws a weighted random book move for pos. Moves that are not
// legal in the position are skipped, so a stale book never produces an
// unplayable move.
func (b *Book) Pick(pos *board.Position) (board.Move, bool) {
	entries, err := b.Entries(pos)
	if err != nil || len(entries) == 0 {
		return board.NoMove, false
	}

	legal := pos.GenerateLegalMoves()
	type candidate struct {
		move   board.Move
		weight uint32
	}
	var candidates []candidate
	var total uint32
	for _, e := range entries {
		move, err := board.ParseMove(e.Move, pos)
		if err != nil || !legal.Contains(move) {
			continue
		}
		weight := e.Weight
		if weight == 0 {
			weight = 1
		}
		candidates = append(candidates, candidate{move, weight})
		total += weight
	}
	if len(candidates) == 0 {
		return board.NoMove, false
	}

	r := rand.Uint32() % total
	var cumulative uint32
	for _, c := range candidates {
		cumulative += c.weight
		if r < cumulative {
			return c.move, true
		}
	}
	return candidates[0].move, true
}

// AddMove records move for pos with the given weight, adding the
// weight to an existing entry for the same move.
func (b *Book) AddMove(pos *board.Position, move board.Move, weight uint32) error {
	key := positionKey(pos.Hash)
	err := b.db.Update(func(txn *badger.Txn) error {
		var entries []Entry
		item, err := txn.Get(key)
		if err == nil {
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &entries)
			}); err != nil {
				return err
			}
		} else if err != badger.ErrKeyNotFound {
			return err
		}

		s := move.String()
		found := false
		for i := range entries {
			if entries[i].Move == s {
				entries[i].Weight += weight
				found = true
				break
			}
		}
		if !found {
			entries = append(entries, Entry{Move: s, Weight: weight})
		}

		data, err := json.Marshal(entries)
		if err != nil {
			return err
		}
		return txn.Set(key, data)
	})
	if err != nil {
		return fmt.Errorf("book: add move %s: %w", move, err)
	}
	return nil
}

// AddLine plays a move sequence from the start position, recording
// every move along the way with the given weight.
func (b *Book) AddLine(moves []string, weight uint32) error {
	pos := board.NewPosition()
	for _, s := range moves {
		move, err := board.ParseMove(s, pos)
		if err != nil {
			return fmt.Errorf("book: line move %q: %w", s, err)
		}
		if !pos.GenerateLegalMoves().Contains(move) {
			return fmt.Errorf("book: illegal line move %q in %s", s, pos.ToFEN())
		}
		if err := b.AddMove(pos, move, weight); err != nil {
			return err
		}
		pos.MakeMove(move)
	}
	return nil
}

// Size counts the distinct positions in the book.
func (b *Book) Size() (int, error) {
	count := 0
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		prefix := []byte("pos:")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("book: size: %w", err)
	}
	return count, nil
}
