// internal/checkers/ai_test.go
package checkers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haloarcade/tabletop/internal/gamekit"
)

func TestMediumPrefersBiggerCapture(t *testing.T) {
	// Red can take one piece via (4,1) or two via (4,5) then (2,5).
	var b Board
	b.Squares[5][2] = RedMan
	b.Squares[4][1] = BlackMan
	b.Squares[5][4] = RedMan
	b.Squares[4][5] = BlackMan
	b.Squares[2][5] = BlackMan

	m, ok := pickMedium(b, gamekit.SideA, nil)
	require.True(t, ok)
	assert.Len(t, m.Captures, 2)
}

func TestMediumTakesWinningCapture(t *testing.T) {
	var b Board
	b.Squares[5][2] = RedMan
	b.Squares[4][3] = BlackMan // black's last piece

	m, ok := pickMedium(b, gamekit.SideA, nil)
	require.True(t, ok)
	after := Apply(b, m, gamekit.SideA)
	assert.Equal(t, gamekit.SideAWins, Outcome(after))
}

func TestHardAvoidsFreeCapture(t *testing.T) {
	// Red man at (4,3) can step to (3,2) or (3,4). Stepping to (3,4)
	// hands black at (2,5) a free jump; search must see it.
	var b Board
	b.Squares[4][3] = RedMan
	b.Squares[2][5] = BlackMan
	b.Squares[0][1] = BlackMan

	hard := Strategies()[gamekit.Hard]
	m, ok := hard(b, gamekit.SideA, nil)
	require.True(t, ok)
	assert.Equal(t, Pos{3, 2}, m.To)
}

func TestEvaluateMaterial(t *testing.T) {
	var b Board
	b.Squares[4][3] = RedMan
	b.Squares[3][4] = BlackMan
	b.Squares[2][3] = BlackKing

	// Black is up a king; red's view is negative, black's positive.
	assert.Negative(t, Evaluate(b, gamekit.SideA))
	assert.Positive(t, Evaluate(b, gamekit.SideB))
}

func TestStrategiesCoverEveryDifficulty(t *testing.T) {
	table := Strategies()
	for _, d := range []gamekit.Difficulty{gamekit.Easy, gamekit.Medium, gamekit.Hard, gamekit.Master} {
		assert.Contains(t, table, d)
	}
}
