// internal/session/session_test.go
package session

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haloarcade/tabletop/internal/backgammon"
	"github.com/haloarcade/tabletop/internal/gamekit"
	"github.com/haloarcade/tabletop/internal/tictactoe"
)

// firstMoveTable always plays the lowest open cell, making AI replies
// fully scriptable.
func firstMoveTable() gamekit.StrategyTable[tictactoe.Board, tictactoe.Move] {
	pick := func(b tictactoe.Board, s gamekit.Side, _ *rand.Rand) (tictactoe.Move, bool) {
		ms := tictactoe.LegalMoves(b, s)
		if len(ms) == 0 {
			return 0, false
		}
		return ms[0], true
	}
	return gamekit.StrategyTable[tictactoe.Board, tictactoe.Move]{
		gamekit.Easy:   pick,
		gamekit.Medium: pick,
		gamekit.Hard:   pick,
		gamekit.Master: pick,
	}
}

func newTestController(opts Options) *Controller[tictactoe.Board, tictactoe.Move] {
	if opts.ThinkDelay == 0 {
		opts.ThinkDelay = time.Millisecond
	}
	if opts.PassDelay == 0 {
		opts.PassDelay = time.Millisecond
	}
	if opts.Seed == 0 {
		opts.Seed = 1
	}
	return New[tictactoe.Board, tictactoe.Move](tictactoe.Engine{}, firstMoveTable(), opts)
}

// playHuman applies the human move and waits for the AI reply.
func playHuman(t *testing.T, c *Controller[tictactoe.Board, tictactoe.Move], cell tictactoe.Move) {
	t.Helper()
	require.True(t, c.ApplyHumanMove(func(m tictactoe.Move) bool { return m == cell }))
	require.Eventually(t, func() bool {
		return c.Status() != StatusPlaying || c.CurrentSide() == gamekit.SideA
	}, time.Second, time.Millisecond)
}

func TestStartRejectsUnknownDifficulty(t *testing.T) {
	c := newTestController(Options{})
	assert.False(t, c.Start(gamekit.Difficulty("brutal")))
	assert.Equal(t, StatusIdle, c.Status())
}

func TestStartResetsToPlaying(t *testing.T) {
	c := newTestController(Options{})
	require.True(t, c.Start(gamekit.Easy))
	assert.Equal(t, StatusPlaying, c.Status())
	assert.Equal(t, gamekit.SideA, c.CurrentSide())
	assert.Len(t, c.LegalMoves(), 9)
}

func TestIllegalMoveSilentlyRejected(t *testing.T) {
	c := newTestController(Options{})
	require.True(t, c.Start(gamekit.Easy))
	assert.False(t, c.ApplyHumanMove(func(tictactoe.Move) bool { return false }))
	assert.Equal(t, StatusPlaying, c.Status())
}

func TestMoveRejectedWhenNotPlaying(t *testing.T) {
	c := newTestController(Options{})
	assert.False(t, c.ApplyHumanMove(func(tictactoe.Move) bool { return true }))
}

func TestAIRepliesAfterHumanMove(t *testing.T) {
	c := newTestController(Options{})
	require.True(t, c.Start(gamekit.Easy))
	playHuman(t, c, 4)
	// Stub AI takes the lowest open cell.
	assert.Equal(t, tictactoe.O, c.Board()[0])
}

func TestOutOfTurnMoveRejected(t *testing.T) {
	c := newTestController(Options{ThinkDelay: time.Hour})
	require.True(t, c.Start(gamekit.Easy))
	require.True(t, c.ApplyHumanMove(func(m tictactoe.Move) bool { return m == 4 }))
	// AI turn is pending; a second human move must bounce.
	assert.False(t, c.ApplyHumanMove(func(m tictactoe.Move) bool { return m == 0 }))
}

func TestUndoNeedsTwoPlies(t *testing.T) {
	c := newTestController(Options{})
	require.True(t, c.Start(gamekit.Easy))
	assert.False(t, c.Undo())
}

func TestUndoBlockedWhileAIPending(t *testing.T) {
	c := newTestController(Options{ThinkDelay: time.Hour})
	require.True(t, c.Start(gamekit.Easy))
	require.True(t, c.ApplyHumanMove(func(m tictactoe.Move) bool { return m == 4 }))
	assert.False(t, c.Undo())
}

func TestUndoRestoresPriorPosition(t *testing.T) {
	c := newTestController(Options{})
	require.True(t, c.Start(gamekit.Easy))
	initial := c.Board()
	playHuman(t, c, 4)
	require.Equal(t, StatusPlaying, c.Status())

	require.True(t, c.Undo())
	assert.Equal(t, initial, c.Board())
	assert.Equal(t, gamekit.SideA, c.CurrentSide())
	assert.Len(t, c.LegalMoves(), 9)
}

func TestHumanWinFiresOnFinish(t *testing.T) {
	done := make(chan Status, 1)
	c := newTestController(Options{OnFinish: func(s Status) { done <- s }})
	require.True(t, c.Start(gamekit.Easy))

	// Stub AI fills 1 then 2; the human takes the left column.
	playHuman(t, c, 0)
	playHuman(t, c, 3)
	require.True(t, c.ApplyHumanMove(func(m tictactoe.Move) bool { return m == 6 }))

	select {
	case s := <-done:
		assert.Equal(t, StatusWon, s)
	case <-time.After(time.Second):
		t.Fatal("OnFinish never fired")
	}
	assert.Equal(t, StatusWon, c.Status())
	assert.Nil(t, c.LegalMoves())
}

func TestStopInvalidatesPendingAI(t *testing.T) {
	c := newTestController(Options{ThinkDelay: 5 * time.Millisecond})
	require.True(t, c.Start(gamekit.Easy))
	require.True(t, c.ApplyHumanMove(func(m tictactoe.Move) bool { return m == 4 }))
	c.Stop()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, StatusIdle, c.Status())
	// The stale timer must not have replayed an AI ply.
	b := c.Board()
	count := 0
	for _, m := range b {
		if m != tictactoe.Empty {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestStartAfterFinishBeginsFreshGame(t *testing.T) {
	c := newTestController(Options{})
	require.True(t, c.Start(gamekit.Easy))
	playHuman(t, c, 0)
	playHuman(t, c, 3)
	require.True(t, c.ApplyHumanMove(func(m tictactoe.Move) bool { return m == 6 }))
	require.Eventually(t, func() bool { return c.Status().Terminal() }, time.Second, time.Millisecond)

	require.True(t, c.Start(gamekit.Medium))
	assert.Equal(t, StatusPlaying, c.Status())
	assert.Equal(t, tictactoe.NewBoard(), c.Board())
}

func TestUndoRewindsWholeBackgammonTurn(t *testing.T) {
	c := New[backgammon.Board, backgammon.Move](backgammon.Engine{}, backgammon.Strategies(), Options{
		ThinkDelay: time.Millisecond,
		PassDelay:  time.Millisecond,
		Seed:       42,
	})
	require.True(t, c.Start(gamekit.Easy))

	before := c.Board()
	// Play out the human's full turn, one die at a time.
	for c.Status() == StatusPlaying && c.CurrentSide() == gamekit.SideA {
		ms := c.LegalMoves()
		if len(ms) == 0 {
			break
		}
		want := ms[0]
		require.True(t, c.ApplyHumanMove(func(m backgammon.Move) bool { return m == want }))
	}
	require.NotEqual(t, before, c.Board())

	// Let the AI finish its whole turn and hand back.
	require.Eventually(t, func() bool {
		return c.Status() != StatusPlaying || c.CurrentSide() == gamekit.SideA
	}, time.Second, time.Millisecond)
	require.Equal(t, StatusPlaying, c.Status())

	// Undo must restore the board as the human's turn began, including
	// the dice that were rolled for it, not just the AI's last die move.
	require.True(t, c.Undo())
	assert.Equal(t, before, c.Board())
	assert.Equal(t, gamekit.SideA, c.CurrentSide())
}

// wallBoard gives SideA one move per turn and strands SideB with no
// moves at all while the position stays non-terminal.
type wallBoard struct{ Moves int }

type wallEngine struct{}

func (wallEngine) Initial(_ *rand.Rand) wallBoard { return wallBoard{} }
func (wallEngine) LegalMoves(b wallBoard, s gamekit.Side) []int {
	if s == gamekit.SideA {
		return []int{b.Moves}
	}
	return nil
}
func (wallEngine) Apply(b wallBoard, _ int, _ gamekit.Side) wallBoard { b.Moves++; return b }
func (wallEngine) NextSide(_ wallBoard, _ int, s gamekit.Side) gamekit.Side {
	return s.Opponent()
}
func (wallEngine) BeginTurn(b wallBoard, _ gamekit.Side, _ *rand.Rand) wallBoard { return b }
func (wallEngine) Outcome(_ wallBoard) gamekit.Outcome                           { return gamekit.InProgress }

// passingWallEngine is the same position under a pass rule.
type passingWallEngine struct{ wallEngine }

func (passingWallEngine) PassWhenBlocked() bool { return true }

func wallTable(eng gamekit.Engine[wallBoard, int]) gamekit.StrategyTable[wallBoard, int] {
	pick := func(b wallBoard, s gamekit.Side, _ *rand.Rand) (int, bool) {
		ms := eng.LegalMoves(b, s)
		if len(ms) == 0 {
			return 0, false
		}
		return ms[0], true
	}
	return gamekit.StrategyTable[wallBoard, int]{
		gamekit.Easy:   pick,
		gamekit.Medium: pick,
		gamekit.Hard:   pick,
		gamekit.Master: pick,
	}
}

func TestBlockedSideLosesWithoutPassRule(t *testing.T) {
	done := make(chan Status, 1)
	eng := wallEngine{}
	c := New[wallBoard, int](eng, wallTable(eng), Options{
		ThinkDelay: time.Millisecond,
		PassDelay:  time.Millisecond,
		Seed:       1,
		OnFinish:   func(s Status) { done <- s },
	})
	require.True(t, c.Start(gamekit.Easy))
	require.True(t, c.ApplyHumanMove(func(m int) bool { return m == 0 }))

	// The opponent is blocked with no pass rule: it loses immediately
	// instead of being handed a free pass.
	assert.Equal(t, StatusWon, c.Status())
	select {
	case s := <-done:
		assert.Equal(t, StatusWon, s)
	case <-time.After(time.Second):
		t.Fatal("OnFinish never fired")
	}
}

func TestBlockedTurnPassesWhenEngineAllows(t *testing.T) {
	eng := passingWallEngine{}
	c := New[wallBoard, int](eng, wallTable(eng), Options{
		ThinkDelay: time.Millisecond,
		PassDelay:  time.Millisecond,
		Seed:       1,
	})
	require.True(t, c.Start(gamekit.Easy))
	require.True(t, c.ApplyHumanMove(func(m int) bool { return m == 0 }))

	// The blocked opponent forfeits only the turn.
	require.Eventually(t, func() bool {
		return c.CurrentSide() == gamekit.SideA
	}, time.Second, time.Millisecond)
	assert.Equal(t, StatusPlaying, c.Status())
	assert.Len(t, c.LegalMoves(), 1)
}
