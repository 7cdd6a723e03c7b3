// internal/match/adapter_test.go
package match

import (
	"encoding/json"
	"io"
	"math/rand"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haloarcade/tabletop/internal/gamekit"
	"github.com/haloarcade/tabletop/internal/identity"
	"github.com/haloarcade/tabletop/internal/room"
	"github.com/haloarcade/tabletop/internal/tictactoe"
)

func newTestRand() *rand.Rand { return rand.New(rand.NewSource(1)) }

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

type peer struct {
	id      identity.Identity
	conn    *room.Conn
	adapter *Adapter[tictactoe.Board, tictactoe.Move]
}

// pump forwards every broadcast frame queued on the peer's connection
// into its adapter, the way the client event loop would.
func (p *peer) pump() {
	for {
		select {
		case msg := <-p.conn.Out:
			p.adapter.HandleMessage(msg)
		default:
			return
		}
	}
}

// setupMatch builds a two-peer tic-tac-toe match with the game started
// and both adapters synced.
func setupMatch(t *testing.T) (*room.Room, *peer, *peer) {
	t.Helper()
	a := identity.Identity{ID: "player-a", Name: "Alice"}
	b := identity.Identity{ID: "player-b", Name: "Bob"}

	r := room.New("ABC234", GameTicTacToe, "private", a, room.Settings{MaxPlayers: 2})
	require.True(t, r.Join(b).Success)

	pa := &peer{id: a, conn: &room.Conn{PlayerID: a.ID, Name: a.Name, Out: make(chan room.Message, 64)}}
	pb := &peer{id: b, conn: &room.Conn{PlayerID: b.ID, Name: b.Name, Out: make(chan room.Message, 64)}}
	r.Subscribe(pa.conn)
	r.Subscribe(pb.conn)

	pa.adapter = New[tictactoe.Board, tictactoe.Move](tictactoe.Engine{}, r, a.ID, testLogger())
	pb.adapter = New[tictactoe.Board, tictactoe.Move](tictactoe.Engine{}, r, b.ID, testLogger())

	require.True(t, r.SetReady(b.ID, true).Success)

	r.Mu.Lock()
	players := append([]*room.Player(nil), r.Players...)
	r.Mu.Unlock()
	res := pa.adapter.StartGame(players)
	require.True(t, res.Success, res.Error)

	pa.pump()
	pb.pump()
	require.True(t, pb.adapter.Started())
	return r, pa, pb
}

func TestStartGameSeatsPlayersInJoinOrder(t *testing.T) {
	_, pa, pb := setupMatch(t)

	_, current := pa.adapter.Board()
	assert.Equal(t, gamekit.SideA, current)
	// Both peers agree on the seating after the game_started frame.
	_, current = pb.adapter.Board()
	assert.Equal(t, gamekit.SideA, current)
}

func TestSubmitBeforeStartFails(t *testing.T) {
	a := identity.Identity{ID: "player-a", Name: "Alice"}
	r := room.New("ABC234", GameTicTacToe, "private", a, room.Settings{})
	ad := New[tictactoe.Board, tictactoe.Move](tictactoe.Engine{}, r, a.ID, testLogger())
	res := ad.SubmitMove(4)
	assert.False(t, res.Success)
	assert.Equal(t, "game has not started", res.Error)
}

func TestMoveRelaysToPeer(t *testing.T) {
	_, pa, pb := setupMatch(t)

	res := pa.adapter.SubmitMove(4)
	require.True(t, res.Success, res.Error)
	pb.pump()

	board, current := pb.adapter.Board()
	assert.Equal(t, tictactoe.X, board[4])
	assert.Equal(t, gamekit.SideB, current)
}

func TestOutOfTurnMoveFails(t *testing.T) {
	_, _, pb := setupMatch(t)
	res := pb.adapter.SubmitMove(4)
	assert.False(t, res.Success)
	assert.Equal(t, "not your turn", res.Error)
}

func TestIllegalMoveFails(t *testing.T) {
	_, pa, _ := setupMatch(t)
	res := pa.adapter.SubmitMove(42)
	assert.False(t, res.Success)
	assert.Equal(t, "illegal move", res.Error)
}

func TestStaleActionIsDropped(t *testing.T) {
	_, pa, pb := setupMatch(t)

	require.True(t, pa.adapter.SubmitMove(4).Success)
	pb.pump()

	// Replay the same move with an old sequence number.
	payload, err := encodeAction(actionPayload[tictactoe.Move]{Move: 0, By: gamekit.SideA})
	require.NoError(t, err)
	pb.adapter.HandleMessage(room.Message{
		Type:     room.MsgGameAction,
		Payload:  payload,
		SenderID: pa.id.ID,
		Seq:      1,
	})

	board, current := pb.adapter.Board()
	assert.Equal(t, tictactoe.Empty, board[0])
	assert.Equal(t, gamekit.SideB, current)
}

func TestOwnActionsAreNotReapplied(t *testing.T) {
	_, pa, pb := setupMatch(t)

	require.True(t, pa.adapter.SubmitMove(4).Success)
	pa.pump() // the sender sees its own broadcast and must skip it
	pb.pump()

	board, current := pa.adapter.Board()
	assert.Equal(t, tictactoe.X, board[4])
	assert.Equal(t, gamekit.SideB, current)

	// Alternate a full exchange to confirm both views stay aligned.
	require.True(t, pb.adapter.SubmitMove(0).Success)
	pa.pump()
	pb.pump()

	boardA, _ := pa.adapter.Board()
	boardB, _ := pb.adapter.Board()
	assert.Equal(t, boardA, boardB)
}

func TestFullSyncRecoversDivergedPeer(t *testing.T) {
	_, pa, pb := setupMatch(t)

	// Peer B misses A's action entirely.
	require.True(t, pa.adapter.SubmitMove(4).Success)
	for len(pb.conn.Out) > 0 {
		<-pb.conn.Out
	}
	board, _ := pb.adapter.Board()
	require.Equal(t, tictactoe.Empty, board[4])

	// A later full sync carries the authoritative state.
	raw := pa.adapter.encodedState()
	var st map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &st))
	pb.adapter.HandleMessage(room.Message{
		Type:    room.MsgGameStateSync,
		Payload: map[string]interface{}{"state": st},
		Seq:     100,
	})

	board, current := pb.adapter.Board()
	assert.Equal(t, tictactoe.X, board[4])
	assert.Equal(t, gamekit.SideB, current)
}

func TestTerminalMoveFinishesRoom(t *testing.T) {
	r, pa, pb := setupMatch(t)
	var scores map[string]int
	r.OnFinished = func(_ *room.Room, s map[string]int) { scores = s }

	step := func(p *peer, m tictactoe.Move) {
		res := p.adapter.SubmitMove(m)
		require.True(t, res.Success, res.Error)
		pa.pump()
		pb.pump()
	}

	step(pa, 0)
	step(pb, 3)
	step(pa, 1)
	step(pb, 4)
	step(pa, 2) // completes the top row

	r.Mu.Lock()
	status := r.Status
	r.Mu.Unlock()
	assert.Equal(t, room.StatusFinished, status)
	require.NotNil(t, scores)
	assert.Equal(t, 1, scores[pa.id.ID])
	assert.Equal(t, -1, scores[pb.id.ID])
}

func TestInitialStateKnowsEveryGame(t *testing.T) {
	players := []*room.Player{{ID: "p1"}, {ID: "p2"}}
	for _, g := range []string{GameTicTacToe, GameConnectFour, GameCheckers, GameBackgammon} {
		require.True(t, KnownGame(g))
		raw, err := InitialState(g, players, newTestRand())
		require.NoError(t, err)
		assert.NotEmpty(t, raw)
	}
	assert.False(t, KnownGame("chess"))
	_, err := InitialState("chess", players, newTestRand())
	assert.Error(t, err)
}
