package board

import (
	"errors"
	"fmt"
	"strings"
)

const (
	Rows = 6
	Cols = 7
	// WinLength is the run length that wins the game.
	WinLength = 4
)

// ErrInvalidColumn marks a column outside [0, Cols) or a full column passed to a drop.
var ErrInvalidColumn = errors.New("invalid column")

// Cell is the content of one board square.
type Cell uint8

const (
	Empty  Cell = 0
	PieceA Cell = 1
	PieceB Cell = 2
)

func (c Cell) String() string {
	switch c {
	case PieceA:
		return "A"
	case PieceB:
		return "B"
	default:
		return "."
	}
}

// Board is a 6x7 grid, row 0 at the top. It is a value type: assignment copies it.
type Board [Rows][Cols]Cell

// EmptyBoard returns a board with every cell empty.
func EmptyBoard() Board { return Board{} }

func checkColumn(col int) error {
	if col < 0 || col >= Cols {
		return fmt.Errorf("%w: %d", ErrInvalidColumn, col)
	}
	return nil
}

// IsLegalColumn reports whether col still accepts a drop.
func (b Board) IsLegalColumn(col int) (bool, error) {
	if err := checkColumn(col); err != nil {
		return false, err
	}
	return b[0][col] == Empty, nil
}

// LowestOpenRow scans col from the bottom and returns the first empty row.
// ok is false when the column is full or out of range.
func (b Board) LowestOpenRow(col int) (row int, ok bool) {
	if col < 0 || col >= Cols {
		return 0, false
	}
	for r := Rows - 1; r >= 0; r-- {
		if b[r][col] == Empty {
			return r, true
		}
	}
	return 0, false
}

// Drop writes piece at (row, col). Callers pick row with LowestOpenRow.
func (b *Board) Drop(row, col int, piece Cell) {
	b[row][col] = piece
}

// Play validates col, resolves the landing row and drops piece there.
func (b *Board) Play(col int, piece Cell) (int, error) {
	legal, err := b.IsLegalColumn(col)
	if err != nil {
		return 0, err
	}
	if !legal {
		return 0, fmt.Errorf("%w: column %d is full", ErrInvalidColumn, col)
	}
	row, _ := b.LowestOpenRow(col)
	b.Drop(row, col, piece)
	return row, nil
}

// LegalColumns returns the open columns in ascending order.
func (b Board) LegalColumns() []int {
	cols := make([]int, 0, Cols)
	for c := 0; c < Cols; c++ {
		if b[0][c] == Empty {
			cols = append(cols, c)
		}
	}
	return cols
}

// IsWinningMove reports whether piece owns four in a row anywhere on the board.
func (b Board) IsWinningMove(piece Cell) bool {
	if piece == Empty {
		return false
	}
	// horizontal
	for c := 0; c <= Cols-WinLength; c++ {
		for r := 0; r < Rows; r++ {
			if b[r][c] == piece && b[r][c+1] == piece && b[r][c+2] == piece && b[r][c+3] == piece {
				return true
			}
		}
	}
	// vertical
	for c := 0; c < Cols; c++ {
		for r := 0; r <= Rows-WinLength; r++ {
			if b[r][c] == piece && b[r+1][c] == piece && b[r+2][c] == piece && b[r+3][c] == piece {
				return true
			}
		}
	}
	// rising diagonal, read bottom-left to top-right
	for c := 0; c <= Cols-WinLength; c++ {
		for r := WinLength - 1; r < Rows; r++ {
			if b[r][c] == piece && b[r-1][c+1] == piece && b[r-2][c+2] == piece && b[r-3][c+3] == piece {
				return true
			}
		}
	}
	// falling diagonal, read bottom-right to top-left
	for c := WinLength - 1; c < Cols; c++ {
		for r := WinLength - 1; r < Rows; r++ {
			if b[r][c] == piece && b[r-1][c-1] == piece && b[r-2][c-2] == piece && b[r-3][c-3] == piece {
				return true
			}
		}
	}
	return false
}

// IsTerminal reports whether either side has won or the board is full.
func (b Board) IsTerminal() bool {
	if b.IsWinningMove(PieceA) || b.IsWinningMove(PieceB) {
		return true
	}
	for c := 0; c < Cols; c++ {
		if b[0][c] == Empty {
			return false
		}
	}
	return true
}

// Count returns the number of occupied cells.
func (b Board) Count() int {
	n := 0
	for r := 0; r < Rows; r++ {
		for c := 0; c < Cols; c++ {
			if b[r][c] != Empty {
				n++
			}
		}
	}
	return n
}

// Heights returns how many pieces each column holds.
func (b Board) Heights() [Cols]int {
	var h [Cols]int
	for c := 0; c < Cols; c++ {
		for r := Rows - 1; r >= 0 && b[r][c] != Empty; r-- {
			h[c]++
		}
	}
	return h
}

// Lines returns the board as one string per row, top first.
func (b Board) Lines() []string {
	lines := make([]string, 0, Rows)
	for r := 0; r < Rows; r++ {
		var sb strings.Builder
		for c := 0; c < Cols; c++ {
			sb.WriteString(b[r][c].String())
		}
		lines = append(lines, sb.String())
	}
	return lines
}

func (b Board) String() string {
	return strings.Join(b.Lines(), "\n")
}
