// internal/connectfour/ai_test.go
package connectfour

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haloarcade/tabletop/internal/gamekit"
)

func TestMediumCompletesThreeInARow(t *testing.T) {
	// Red holds columns 0..2 on the bottom row and must play 3 to win.
	b := NewBoard()
	b = Apply(b, 0, gamekit.SideB)
	b = Apply(b, 1, gamekit.SideB)
	b = Apply(b, 2, gamekit.SideB)
	m, ok := pickMedium(b, gamekit.SideB, nil)
	require.True(t, ok)
	assert.Equal(t, Move(3), m)
}

func TestMediumBlocksOpponentThree(t *testing.T) {
	b := NewBoard()
	b = Apply(b, 0, gamekit.SideA)
	b = Apply(b, 1, gamekit.SideA)
	b = Apply(b, 2, gamekit.SideA)
	m, ok := pickMedium(b, gamekit.SideB, nil)
	require.True(t, ok)
	assert.Equal(t, Move(3), m)
}

func TestMediumPrefersCenterColumn(t *testing.T) {
	m, ok := pickMedium(NewBoard(), gamekit.SideA, nil)
	require.True(t, ok)
	assert.Equal(t, Move(3), m)
}

func TestHardIsDeterministic(t *testing.T) {
	hard := Strategies()[gamekit.Hard]
	b := drop(NewBoard(), 3, 3, 2)
	first, ok := hard(b, gamekit.SideB, nil)
	require.True(t, ok)
	for i := 0; i < 5; i++ {
		m, ok := hard(b, gamekit.SideB, nil)
		require.True(t, ok)
		assert.Equal(t, first, m)
	}
}

func TestMasterTakesForcedWin(t *testing.T) {
	// Yellow threatens vertically on column 2; master finishes it.
	b := NewBoard()
	b = Apply(b, 2, gamekit.SideA)
	b = Apply(b, 2, gamekit.SideA)
	b = Apply(b, 2, gamekit.SideA)
	b = Apply(b, 6, gamekit.SideB)
	master := Strategies()[gamekit.Master]
	m, ok := master(b, gamekit.SideA, nil)
	require.True(t, ok)
	assert.Equal(t, gamekit.SideAWins, Outcome(Apply(b, m, gamekit.SideA)))
}

func TestMasterBlocksForcedLoss(t *testing.T) {
	// Red threatens vertically on column 4; master must cap it.
	b := NewBoard()
	b = Apply(b, 4, gamekit.SideB)
	b = Apply(b, 4, gamekit.SideB)
	b = Apply(b, 4, gamekit.SideB)
	master := Strategies()[gamekit.Master]
	m, ok := master(b, gamekit.SideA, nil)
	require.True(t, ok)
	assert.Equal(t, Move(4), m)
}

func TestEasyStaysWithinLegalColumns(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	easy := Strategies()[gamekit.Easy]
	b := NewBoard()
	s := gamekit.SideA
	for i := 0; i < Rows; i++ {
		b = Apply(b, 0, s)
		s = s.Opponent()
	}
	for i := 0; i < 25; i++ {
		m, ok := easy(b, gamekit.SideA, rng)
		require.True(t, ok)
		assert.NotEqual(t, Move(0), m)
	}
}

func TestEvaluateFavorsOpenThrees(t *testing.T) {
	b := NewBoard()
	b = Apply(b, 1, gamekit.SideA)
	b = Apply(b, 2, gamekit.SideA)
	b = Apply(b, 3, gamekit.SideA)
	assert.Greater(t, Evaluate(b, gamekit.SideA), 0)
	assert.Less(t, Evaluate(b, gamekit.SideB), 0)
}
