// internal/tictactoe/board.go

// Package tictactoe implements the 3x3 rule engine and its AI opponents.
package tictactoe

import (
	"math/rand"

	"github.com/haloarcade/tabletop/internal/gamekit"
)

// Mark is the content of one cell.
type Mark uint8

const (
	Empty Mark = iota
	X
	O
)

// Board is a value type; Apply returns a fresh copy.
type Board [9]Mark

// Move is the cell index (0..8), row-major.
type Move int

// lines are all eight winning triples.
var lines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

// MarkOf maps a side to its mark. SideA plays X.
func MarkOf(s gamekit.Side) Mark {
	if s == gamekit.SideA {
		return X
	}
	return O
}

// NewBoard returns the empty starting board.
func NewBoard() Board {
	return Board{}
}

// Winner returns the mark holding a full line, or Empty.
func (b Board) Winner() Mark {
	for _, l := range lines {
		if b[l[0]] != Empty && b[l[0]] == b[l[1]] && b[l[1]] == b[l[2]] {
			return b[l[0]]
		}
	}
	return Empty
}

// Full reports whether every cell is occupied.
func (b Board) Full() bool {
	for _, m := range b {
		if m == Empty {
			return false
		}
	}
	return true
}

// LegalMoves lists the open cells. Terminal boards have no legal moves.
func LegalMoves(b Board, s gamekit.Side) []Move {
	if b.Winner() != Empty {
		return nil
	}
	var ms []Move
	for i, m := range b {
		if m == Empty {
			ms = append(ms, Move(i))
		}
	}
	return ms
}

// Apply places s's mark on the move cell and returns the new board.
func Apply(b Board, m Move, s gamekit.Side) Board {
	b[m] = MarkOf(s)
	return b
}

// Outcome classifies the board.
func Outcome(b Board) gamekit.Outcome {
	switch b.Winner() {
	case X:
		return gamekit.SideAWins
	case O:
		return gamekit.SideBWins
	}
	if b.Full() {
		return gamekit.Draw
	}
	return gamekit.InProgress
}

// Engine adapts the package functions to the shared engine contract.
type Engine struct{}

func (Engine) Initial(_ *rand.Rand) Board                     { return NewBoard() }
func (Engine) LegalMoves(b Board, s gamekit.Side) []Move      { return LegalMoves(b, s) }
func (Engine) Apply(b Board, m Move, s gamekit.Side) Board    { return Apply(b, m, s) }
func (Engine) Outcome(b Board) gamekit.Outcome                { return Outcome(b) }
func (Engine) BeginTurn(b Board, _ gamekit.Side, _ *rand.Rand) Board { return b }

func (Engine) NextSide(_ Board, _ Move, s gamekit.Side) gamekit.Side {
	return s.Opponent()
}
