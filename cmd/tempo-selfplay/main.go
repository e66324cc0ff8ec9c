// Command tempo-selfplay plays the engine against itself and records
// the games for later analysis.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hailam/tempo/internal/board"
	"github.com/hailam/tempo/internal/engine"
	"github.com/hailam/tempo/internal/storage"
)

func main() {
	games := flag.Int("games", 10, "number of games to play")
	concurrency := flag.Int("concurrency", 2, "games played in parallel")
	depth := flag.Int("depth", 6, "fixed search depth per move")
	moveTime := flag.Duration("movetime", 0, "time per move (overrides -depth)")
	maxPlies := flag.Int("maxplies", 300, "adjudicate a draw after this many plies")
	dbDir := flag.String("db", "", "database directory (default per-user data dir)")
	flag.Parse()

	var store *storage.Store
	var err error
	if *dbDir != "" {
		store, err = storage.Open(*dbDir)
	} else {
		store, err = storage.OpenDefault()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "selfplay: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	limits := engine.Limits{Depth: *depth}
	if *moveTime > 0 {
		limits = engine.Limits{MoveTime: *moveTime}
	}

	var g errgroup.Group
	g.SetLimit(*concurrency)
	for i := 0; i < *games; i++ {
		g.Go(func() error {
			rec := playGame(limits, *maxPlies)
			if err := store.SaveGame(rec); err != nil {
				return err
			}
			fmt.Printf("game %s: %s after %d plies (%s)\n", rec.ID, rec.Result, rec.Plies, rec.Reason)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		fmt.Fprintf(os.Stderr, "selfplay: %v\n", err)
		os.Exit(1)
	}

	stats, err := store.Stats()
	if err != nil {
		fmt.Fprintf(os.Stderr, "selfplay: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("total %d games: +%d -%d =%d, draw rate %.1f%%, avg length %.1f plies\n",
		stats.GamesPlayed, stats.WhiteWins, stats.BlackWins, stats.Draws,
		stats.DrawRate(), stats.AveragePlies())
}

// playGame runs one game with a fresh engine per side so the players
// do not share a transposition table.
func playGame(limits engine.Limits, maxPlies int) *storage.GameRecord {
	engines := [2]*engine.Engine{engine.New(), engine.New()}

	pos := board.NewPosition()
	history := []uint64{pos.Hash}
	seen := map[uint64]int{pos.Hash: 1}
	var moves []string

	rec := &storage.GameRecord{
		ID:        uuid.NewString(),
		White:     "tempo",
		Black:     "tempo",
		StartedAt: time.Now(),
	}

	result, reason := "1/2-1/2", "adjudicated"
	for ply := 0; ply < maxPlies; ply++ {
		if pos.IsCheckmate() {
			reason = "checkmate"
			if pos.SideToMove == board.White {
				result = "0-1"
			} else {
				result = "1-0"
			}
			break
		}
		if pos.IsStalemate() {
			reason = "stalemate"
			break
		}
		if pos.IsDrawByRule() {
			reason = "fifty moves or dead position"
			break
		}
		if seen[pos.Hash] >= 3 {
			reason = "threefold repetition"
			break
		}

		eng := engines[pos.SideToMove]
		res := eng.Search(pos.Copy(), limits, history[:len(history)-1])
		if res.BestMove == board.NoMove {
			break
		}

		moves = append(moves, res.BestMove.String())
		pos.MakeMove(res.BestMove)
		history = append(history, pos.Hash)
		seen[pos.Hash]++
	}

	rec.Result = result
	rec.Reason = reason
	rec.Moves = moves
	rec.FinalFEN = pos.ToFEN()
	rec.Plies = len(moves)
	rec.Duration = time.Since(rec.StartedAt)
	return rec
}
