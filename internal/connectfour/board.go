// internal/connectfour/board.go

// Package connectfour implements the 7x6 drop-four rule engine and its AI
// opponents.
package connectfour

import (
	"math/rand"

	"github.com/haloarcade/tabletop/internal/gamekit"
)

const (
	Cols = 7
	Rows = 6
)

// Cell is the content of one grid position.
type Cell uint8

const (
	Empty Cell = iota
	Yellow
	Red
)

// Board is row-major with row 0 at the top; discs settle toward row 5.
// It is a value type; Apply returns a fresh copy.
type Board struct {
	Grid [Rows][Cols]Cell `json:"grid"`
}

// Move is the column a disc is dropped into.
type Move int

// CellOf maps a side to its disc color. SideA plays yellow.
func CellOf(s gamekit.Side) Cell {
	if s == gamekit.SideA {
		return Yellow
	}
	return Red
}

// NewBoard returns the empty starting board.
func NewBoard() Board {
	return Board{}
}

// LegalMoves lists columns with at least one open cell. Terminal boards
// have no legal moves.
func LegalMoves(b Board, _ gamekit.Side) []Move {
	if b.Winner() != Empty {
		return nil
	}
	var ms []Move
	for c := 0; c < Cols; c++ {
		if b.Grid[0][c] == Empty {
			ms = append(ms, Move(c))
		}
	}
	return ms
}

// DropRow returns the row a disc dropped in the column would land on,
// or -1 if the column is full.
func (b Board) DropRow(col int) int {
	for r := Rows - 1; r >= 0; r-- {
		if b.Grid[r][col] == Empty {
			return r
		}
	}
	return -1
}

// Apply drops s's disc into the move column and returns the new board.
// The move must be legal.
func Apply(b Board, m Move, s gamekit.Side) Board {
	if r := b.DropRow(int(m)); r >= 0 {
		b.Grid[r][m] = CellOf(s)
	}
	return b
}

var dirs = [4][2]int{{0, 1}, {1, 0}, {1, 1}, {1, -1}}

// Winner returns the color holding a line of four, or Empty.
func (b Board) Winner() Cell {
	for r := 0; r < Rows; r++ {
		for c := 0; c < Cols; c++ {
			cell := b.Grid[r][c]
			if cell == Empty {
				continue
			}
			for _, d := range dirs {
				count := 1
				rr, cc := r+d[0], c+d[1]
				for rr >= 0 && rr < Rows && cc >= 0 && cc < Cols && b.Grid[rr][cc] == cell {
					count++
					if count == 4 {
						return cell
					}
					rr += d[0]
					cc += d[1]
				}
			}
		}
	}
	return Empty
}

// Full reports whether every column is topped out.
func (b Board) Full() bool {
	for c := 0; c < Cols; c++ {
		if b.Grid[0][c] == Empty {
			return false
		}
	}
	return true
}

// Outcome classifies the board.
func Outcome(b Board) gamekit.Outcome {
	switch b.Winner() {
	case Yellow:
		return gamekit.SideAWins
	case Red:
		return gamekit.SideBWins
	}
	if b.Full() {
		return gamekit.Draw
	}
	return gamekit.InProgress
}

// Engine adapts the package functions to the shared engine contract.
type Engine struct{}

func (Engine) Initial(_ *rand.Rand) Board                  { return NewBoard() }
func (Engine) LegalMoves(b Board, s gamekit.Side) []Move   { return LegalMoves(b, s) }
func (Engine) Apply(b Board, m Move, s gamekit.Side) Board { return Apply(b, m, s) }
func (Engine) Outcome(b Board) gamekit.Outcome             { return Outcome(b) }

func (Engine) BeginTurn(b Board, _ gamekit.Side, _ *rand.Rand) Board { return b }

func (Engine) NextSide(_ Board, _ Move, s gamekit.Side) gamekit.Side {
	return s.Opponent()
}
