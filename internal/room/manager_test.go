// internal/room/manager_test.go
package room

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haloarcade/tabletop/internal/store"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// collidingStore forces ErrCodeTaken on the first n creates.
type collidingStore struct {
	store.RoomStore
	remaining int
}

func (c *collidingStore) Create(ctx context.Context, rec *store.RoomRecord) error {
	if c.remaining > 0 {
		c.remaining--
		return store.ErrCodeTaken
	}
	return c.RoomStore.Create(ctx, rec)
}

func TestCreateRoomGeneratesCode(t *testing.T) {
	m := NewManager(store.NewMemoryStore(), testLogger(), WithCodeLength(5))
	r, err := m.CreateRoom(context.Background(), "tictactoe", "private", guest(1), Settings{})
	require.NoError(t, err)
	assert.Len(t, r.Code, 5)
	for _, ch := range r.Code {
		assert.Contains(t, codeAlphabet, string(ch))
	}

	got, ok := m.Get(r.ID)
	require.True(t, ok)
	assert.Same(t, r, got)
}

func TestCreateRoomRetriesOnCodeCollision(t *testing.T) {
	cs := &collidingStore{RoomStore: store.NewMemoryStore(), remaining: 2}
	m := NewManager(cs, testLogger())
	r, err := m.CreateRoom(context.Background(), "checkers", "private", guest(1), Settings{})
	require.NoError(t, err)
	assert.Zero(t, cs.remaining)
	assert.NotEmpty(t, r.Code)
}

func TestCreateRoomGivesUpAfterAttempts(t *testing.T) {
	cs := &collidingStore{RoomStore: store.NewMemoryStore(), remaining: codeAttempts}
	m := NewManager(cs, testLogger())
	_, err := m.CreateRoom(context.Background(), "checkers", "private", guest(1), Settings{})
	assert.Error(t, err)
}

func TestJoinByCodeUnknownRoom(t *testing.T) {
	m := NewManager(store.NewMemoryStore(), testLogger())
	_, res := m.JoinByCode(context.Background(), "NOPE42", guest(1))
	assert.False(t, res.Success)
	assert.Equal(t, "room not found", res.Error)
}

func TestJoinByCodeSeatsPlayer(t *testing.T) {
	m := NewManager(store.NewMemoryStore(), testLogger())
	r, err := m.CreateRoom(context.Background(), "tictactoe", "private", guest(1), Settings{})
	require.NoError(t, err)

	joined, res := m.JoinByCode(context.Background(), r.Code, guest(2))
	require.True(t, res.Success)
	assert.Same(t, r, joined)
	assert.Len(t, r.Players, 2)
}

func TestMutationsPersistToStore(t *testing.T) {
	st := store.NewMemoryStore()
	m := NewManager(st, testLogger())
	r, err := m.CreateRoom(context.Background(), "tictactoe", "private", guest(1), Settings{})
	require.NoError(t, err)

	_, res := m.JoinByCode(context.Background(), r.Code, guest(2))
	require.True(t, res.Success)

	// Snapshots are written asynchronously after each mutation.
	require.Eventually(t, func() bool {
		rec, err := st.GetByCode(context.Background(), r.Code)
		if err != nil {
			return false
		}
		var players []*Player
		if err := json.Unmarshal(rec.Players, &players); err != nil {
			return false
		}
		return len(players) == 2
	}, time.Second, 10*time.Millisecond)
}

func TestRehydrateFromStore(t *testing.T) {
	st := store.NewMemoryStore()
	m1 := NewManager(st, testLogger())
	r, err := m1.CreateRoom(context.Background(), "checkers", "private", guest(1), Settings{MaxPlayers: 2})
	require.NoError(t, err)
	_, res := m1.JoinByCode(context.Background(), r.Code, guest(2))
	require.True(t, res.Success)

	require.Eventually(t, func() bool {
		rec, err := st.GetByCode(context.Background(), r.Code)
		if err != nil {
			return false
		}
		var players []*Player
		return json.Unmarshal(rec.Players, &players) == nil && len(players) == 2
	}, time.Second, 10*time.Millisecond)

	// A fresh manager over the same store simulates a restarted node.
	m2 := NewManager(st, testLogger())
	revived, err := m2.GetByCode(context.Background(), r.Code)
	require.NoError(t, err)
	assert.Equal(t, r.ID, revived.ID)
	assert.Equal(t, "checkers", revived.GameType)
	require.Len(t, revived.Players, 2)
	for _, p := range revived.Players {
		assert.False(t, p.IsConnected)
	}
}

func TestRehydrateKeepsMinPlayers(t *testing.T) {
	st := store.NewMemoryStore()
	m1 := NewManager(st, testLogger())
	r, err := m1.CreateRoom(context.Background(), "checkers", "private", guest(1), Settings{
		MaxPlayers: 4,
		MinPlayers: 3,
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		rec, err := st.GetByCode(context.Background(), r.Code)
		return err == nil && rec.MinPlayers == 3
	}, time.Second, 10*time.Millisecond)

	// The raised minimum must survive a node restart, not reset to the
	// default.
	m2 := NewManager(st, testLogger())
	revived, err := m2.GetByCode(context.Background(), r.Code)
	require.NoError(t, err)
	assert.Equal(t, 3, revived.Settings.MinPlayers)
	assert.Equal(t, 4, revived.Settings.MaxPlayers)
}

func TestEmptyRoomIsDeletedEverywhere(t *testing.T) {
	st := store.NewMemoryStore()
	m := NewManager(st, testLogger())
	r, err := m.CreateRoom(context.Background(), "tictactoe", "private", guest(1), Settings{})
	require.NoError(t, err)

	r.Leave(guest(1).ID)

	_, ok := m.Get(r.ID)
	assert.False(t, ok)
	require.Eventually(t, func() bool {
		_, err := st.GetByID(context.Background(), r.ID)
		return err != nil
	}, time.Second, 10*time.Millisecond)
}

func TestOnFinishedHookReceivesScores(t *testing.T) {
	done := make(chan map[string]int, 1)
	m := NewManager(store.NewMemoryStore(), testLogger(), WithOnFinished(func(_ *Room, scores map[string]int) {
		done <- scores
	}))
	r, err := m.CreateRoom(context.Background(), "tictactoe", "private", guest(1), Settings{})
	require.NoError(t, err)
	_, res := m.JoinByCode(context.Background(), r.Code, guest(2))
	require.True(t, res.Success)
	require.True(t, r.SetReady(guest(2).ID, true).Success)
	require.True(t, r.Start(guest(1).ID, json.RawMessage(`{}`)).Success)

	r.Finish(json.RawMessage(`{}`), map[string]int{guest(1).ID: 1})
	select {
	case scores := <-done:
		assert.Equal(t, 1, scores[guest(1).ID])
	case <-time.After(time.Second):
		t.Fatal("finish hook never fired")
	}
}
