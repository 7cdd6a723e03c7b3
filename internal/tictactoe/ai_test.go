// internal/tictactoe/ai_test.go
package tictactoe

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haloarcade/tabletop/internal/gamekit"
)

func TestMediumTakesImmediateWin(t *testing.T) {
	// X to move with two in the top row.
	b := place(NewBoard(), X, 0, 1)
	b = place(b, O, 4, 8)
	m, ok := pickMedium(b, gamekit.SideA, nil)
	require.True(t, ok)
	assert.Equal(t, Move(2), m)
}

func TestMediumBlocksOpponentWin(t *testing.T) {
	// O to move; X threatens the left column at 6.
	b := place(NewBoard(), X, 0, 3)
	b = place(b, O, 4)
	m, ok := pickMedium(b, gamekit.SideB, nil)
	require.True(t, ok)
	assert.Equal(t, Move(6), m)
}

func TestMediumPrefersCenterOpening(t *testing.T) {
	m, ok := pickMedium(NewBoard(), gamekit.SideA, nil)
	require.True(t, ok)
	assert.Equal(t, Move(4), m)
}

func TestStrategiesCoverEveryDifficulty(t *testing.T) {
	table := Strategies()
	for _, d := range []gamekit.Difficulty{gamekit.Easy, gamekit.Medium, gamekit.Hard, gamekit.Master} {
		assert.Contains(t, table, d)
	}
}

func TestEasyPicksLegalMoves(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	easy := Strategies()[gamekit.Easy]
	b := place(NewBoard(), X, 0)
	b = place(b, O, 4)
	for i := 0; i < 20; i++ {
		m, ok := easy(b, gamekit.SideA, rng)
		require.True(t, ok)
		assert.Equal(t, Empty, b[m])
	}
}

// playOut pits the master picker as aiSide against every possible
// opponent line and asserts the opponent never wins.
func playOut(t *testing.T, b Board, toMove, aiSide gamekit.Side, ai gamekit.Picker[Board, Move]) {
	t.Helper()
	switch Outcome(b) {
	case gamekit.InProgress:
	case gamekit.Wins(aiSide.Opponent()):
		t.Fatalf("master lost position:\n%v", b)
	default:
		return
	}
	if toMove == aiSide {
		m, ok := ai(b, toMove, nil)
		require.True(t, ok)
		playOut(t, Apply(b, m, toMove), toMove.Opponent(), aiSide, ai)
		return
	}
	for _, m := range LegalMoves(b, toMove) {
		playOut(t, Apply(b, m, toMove), toMove.Opponent(), aiSide, ai)
	}
}

func TestMasterNeverLosesMovingSecond(t *testing.T) {
	master := Strategies()[gamekit.Master]
	playOut(t, NewBoard(), gamekit.SideA, gamekit.SideB, master)
}

func TestMasterNeverLosesMovingFirst(t *testing.T) {
	master := Strategies()[gamekit.Master]
	playOut(t, NewBoard(), gamekit.SideA, gamekit.SideA, master)
}

func TestMasterFinishesWinningPosition(t *testing.T) {
	// X holds 0 and 1; master must complete the row.
	b := place(NewBoard(), X, 0, 1)
	b = place(b, O, 4, 8)
	master := Strategies()[gamekit.Master]
	m, ok := master(b, gamekit.SideA, nil)
	require.True(t, ok)
	assert.Equal(t, gamekit.SideAWins, Outcome(Apply(b, m, gamekit.SideA)))
}
