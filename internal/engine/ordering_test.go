package engine

import (
	"testing"

	"github.com/hailam/tempo/internal/board"
)

func TestPickerYieldsTTMoveFirst(t *testing.T) {
	pos, _ := board.ParseFEN("4k3/8/8/3p4/4P3/8/8/4K3 w - - 0 1")
	moves := pos.GenerateLegalMoves()
	ttMove := mustMove(t, pos, "e1d1")
	if !moves.Contains(ttMove) {
		t.Fatal("test setup: tt move not legal")
	}

	var o Orderer
	picker := o.newPicker(pos, moves, ttMove, 0, board.Pawn, board.NoSquare)

	if first := picker.next(); first != ttMove {
		t.Errorf("first move = %s, want tt move %s", first, ttMove)
	}
	if second := picker.next(); second != mustMove(t, pos, "e4d5") {
		t.Errorf("second move = %s, want the winning capture", second)
	}
}

func TestPickerKillersBeforeQuiets(t *testing.T) {
	pos := board.NewPosition()
	moves := pos.GenerateLegalMoves()
	killer := mustMove(t, pos, "g1f3")

	var o Orderer
	o.UpdateKillers(killer, 3)
	picker := o.newPicker(pos, moves, board.NoMove, 3, board.Pawn, board.NoSquare)

	if first := picker.next(); first != killer {
		t.Errorf("first move = %s, want killer %s", first, killer)
	}
}

func TestPickerHistoryOrdersQuiets(t *testing.T) {
	pos := board.NewPosition()
	moves := pos.GenerateLegalMoves()
	liked := mustMove(t, pos, "d2d4")

	var o Orderer
	o.UpdateHistory(board.White, liked, 10)
	picker := o.newPicker(pos, moves, board.NoMove, 0, board.Pawn, board.NoSquare)

	if first := picker.next(); first != liked {
		t.Errorf("first move = %s, want history-favored %s", first, liked)
	}
}

func TestPickerExhausts(t *testing.T) {
	pos := board.NewPosition()
	moves := pos.GenerateLegalMoves()

	var o Orderer
	picker := o.newPicker(pos, moves, board.NoMove, 0, board.Pawn, board.NoSquare)

	seen := map[board.Move]bool{}
	for m := picker.next(); m != board.NoMove; m = picker.next() {
		if seen[m] {
			t.Fatalf("move %s yielded twice", m)
		}
		seen[m] = true
	}
	if len(seen) != moves.Len() {
		t.Errorf("picker yielded %d of %d moves", len(seen), moves.Len())
	}
}

func TestHistoryOverflowHalves(t *testing.T) {
	var o Orderer
	m := board.NewMove(board.E2, board.E4)
	for i := 0; i < 100; i++ {
		o.UpdateHistory(board.White, m, 64)
	}
	if h := o.history[board.White][m.From()][m.To()]; h > historyMax {
		t.Errorf("history %d exceeds the clamp %d", h, historyMax)
	}
}

func TestCounterMoveScored(t *testing.T) {
	pos := board.NewPosition()
	pos.MakeMove(mustMove(t, pos, "e2e4"))
	moves := pos.GenerateLegalMoves()
	reply := mustMove(t, pos, "e7e5")

	var o Orderer
	o.UpdateCounter(board.Black, board.Pawn, board.E4, reply)
	picker := o.newPicker(pos, moves, board.NoMove, 1, board.Pawn, board.E4)

	if first := picker.next(); first != reply {
		t.Errorf("first move = %s, want counter move %s", first, reply)
	}
}
