package engine

import (
	"math/rand"

	"github.com/park285/connect4-montecarlo-bot/internal/board"
)

// Outcome is the result of one finished rollout.
type Outcome int

const (
	Draw Outcome = iota
	WinnerA
	WinnerB
)

func (o Outcome) String() string {
	switch o {
	case WinnerA:
		return "winner_a"
	case WinnerB:
		return "winner_b"
	default:
		return "draw"
	}
}

// Wins reports whether the outcome is a win for piece.
func (o Outcome) Wins(piece board.Cell) bool {
	switch o {
	case WinnerA:
		return piece == board.PieceA
	case WinnerB:
		return piece == board.PieceB
	default:
		return false
	}
}

// Simulate plays uniformly random legal moves from b until the game ends.
// b is copied; the caller's board is never touched.
func Simulate(b board.Board, start board.Cell, sides board.Sides, r *rand.Rand) Outcome {
	final, _ := playout(b, start, sides, r)
	return outcomeOf(final)
}

// playout returns the finished board and the number of pieces it dropped.
// It never drops more than Rows*Cols pieces.
func playout(b board.Board, start board.Cell, sides board.Sides, r *rand.Rand) (board.Board, int) {
	working := b
	turn := start
	steps := 0
	for ; steps < board.Rows*board.Cols && !working.IsTerminal(); steps++ {
		legal := working.LegalColumns()
		col := legal[r.Intn(len(legal))]
		row, _ := working.LowestOpenRow(col)
		working.Drop(row, col, turn)
		turn = sides.Other(turn)
	}
	return working, steps
}

func outcomeOf(b board.Board) Outcome {
	if b.IsWinningMove(board.PieceA) {
		return WinnerA
	}
	if b.IsWinningMove(board.PieceB) {
		return WinnerB
	}
	return Draw
}
