// internal/connectfour/board_test.go
package connectfour

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haloarcade/tabletop/internal/gamekit"
)

// drop plays a sequence of columns, alternating sides starting with
// SideA, and returns the resulting board.
func drop(b Board, cols ...int) Board {
	s := gamekit.SideA
	for _, c := range cols {
		b = Apply(b, Move(c), s)
		s = s.Opponent()
	}
	return b
}

func TestDiscsStackFromBottom(t *testing.T) {
	b := drop(NewBoard(), 3, 3, 3)
	assert.Equal(t, Yellow, b.Grid[5][3])
	assert.Equal(t, Red, b.Grid[4][3])
	assert.Equal(t, Yellow, b.Grid[3][3])
	assert.Equal(t, 2, b.DropRow(3))
}

func TestFullColumnIsNotLegal(t *testing.T) {
	b := NewBoard()
	s := gamekit.SideA
	for i := 0; i < Rows; i++ {
		b = Apply(b, 0, s)
		s = s.Opponent()
	}
	assert.Equal(t, -1, b.DropRow(0))
	assert.NotContains(t, LegalMoves(b, s), Move(0))
}

func TestHorizontalWin(t *testing.T) {
	// Yellow plays columns 0..3 on the bottom row; red stacks on 6.
	b := drop(NewBoard(), 0, 6, 1, 6, 2, 6, 3)
	assert.Equal(t, Yellow, b.Winner())
	assert.Equal(t, gamekit.SideAWins, Outcome(b))
	assert.Empty(t, LegalMoves(b, gamekit.SideB))
}

func TestVerticalWin(t *testing.T) {
	b := drop(NewBoard(), 2, 5, 2, 5, 2, 5, 2)
	assert.Equal(t, Yellow, b.Winner())
}

func TestDiagonalWin(t *testing.T) {
	// Builds a rising diagonal for yellow from column 0 to 3.
	b := drop(NewBoard(), 0, 1, 1, 2, 2, 3, 2, 3, 3, 6, 3)
	assert.Equal(t, Yellow, b.Winner())
	assert.Equal(t, gamekit.SideAWins, Outcome(b))
}

func TestOutcomeInProgress(t *testing.T) {
	b := drop(NewBoard(), 3, 3)
	assert.Equal(t, gamekit.InProgress, Outcome(b))
	require.Len(t, LegalMoves(b, gamekit.SideA), 7)
}

func TestApplyDoesNotMutateOriginal(t *testing.T) {
	b := NewBoard()
	b2 := Apply(b, 3, gamekit.SideA)
	assert.Equal(t, Empty, b.Grid[5][3])
	assert.Equal(t, Yellow, b2.Grid[5][3])
}
