// internal/match/adapter.go

// Package match binds a rule engine to the room protocol: local moves
// become broadcast actions, remote actions become local state
// transitions, and periodic full-state syncs plus a monotonic sequence
// number keep every client converging on the same board.
package match

import (
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/haloarcade/tabletop/internal/gamekit"
	"github.com/haloarcade/tabletop/internal/room"
)

// syncEvery is the number of relayed actions between full-state syncs,
// the recovery path for dropped broadcasts.
const syncEvery = 5

// state is the wire form of a running match, carried by game_started and
// game_state_sync frames.
type state[B any] struct {
	Board   B            `json:"board"`
	Current gamekit.Side `json:"current"`

	// Seats assigns each roster player a side, in join order.
	Seats map[string]gamekit.Side `json:"seats"`
}

// actionPayload is the wire form of one relayed move.
type actionPayload[M any] struct {
	Move M            `json:"move"`
	By   gamekit.Side `json:"by"`
}

// Adapter drives one client's view of a multiplayer match. There is no
// central authority: each peer runs its own adapter, trusts peers to act
// on their own turns, and reconciles through last-write-wins syncs.
type Adapter[B, M any] struct {
	mu   sync.Mutex
	eng  gamekit.Engine[B, M]
	room *room.Room
	log  *logrus.Logger

	selfID string
	rng    *rand.Rand

	board   B
	current gamekit.Side
	seats   map[string]gamekit.Side
	started bool
	lastSeq uint64
	actions int
}

// New builds an adapter for the engine over the room, for the local
// player selfID.
func New[B, M any](eng gamekit.Engine[B, M], r *room.Room, selfID string, log *logrus.Logger) *Adapter[B, M] {
	return &Adapter[B, M]{
		eng:    eng,
		room:   r,
		log:    log,
		selfID: selfID,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		seats:  make(map[string]gamekit.Side),
	}
}

// StartGame is called by the host: it seats the first two roster
// players, builds the initial engine state, and starts the room with it.
func (a *Adapter[B, M]) StartGame(players []*room.Player) room.Result {
	a.mu.Lock()
	seats := map[string]gamekit.Side{}
	sides := []gamekit.Side{gamekit.SideA, gamekit.SideB}
	for i, p := range players {
		if i >= len(sides) {
			break
		}
		seats[p.ID] = sides[i]
	}
	initial := state[B]{
		Board:   a.eng.Initial(a.rng),
		Current: gamekit.SideA,
		Seats:   seats,
	}
	raw, err := json.Marshal(initial)
	if err != nil {
		a.mu.Unlock()
		return room.Result{Success: false, Error: "failed to encode initial state"}
	}
	a.mu.Unlock()

	res := a.room.Start(a.selfID, raw)
	if res.Success {
		a.mu.Lock()
		a.adopt(initial)
		a.mu.Unlock()
	}
	return res
}

// SubmitMove validates and applies the local player's move, then relays
// it. Illegal and out-of-turn moves fail as result values.
func (a *Adapter[B, M]) SubmitMove(m M) room.Result {
	a.mu.Lock()
	if !a.started {
		a.mu.Unlock()
		return room.Result{Success: false, Error: "game has not started"}
	}
	side, seated := a.seats[a.selfID]
	if !seated || side != a.current {
		a.mu.Unlock()
		return room.Result{Success: false, Error: "not your turn"}
	}
	if !a.legal(m, side) {
		a.mu.Unlock()
		return room.Result{Success: false, Error: "illegal move"}
	}
	a.board = a.eng.Apply(a.board, m, side)
	a.current = a.eng.NextSide(a.board, m, side)
	a.actions++
	payload, err := encodeAction(actionPayload[M]{Move: m, By: side})
	needSync := a.actions%syncEvery == 0
	raw := a.encodedState()
	terminal := a.eng.Outcome(a.board) != gamekit.InProgress
	a.mu.Unlock()

	if err != nil {
		return room.Result{Success: false, Error: "failed to encode move"}
	}
	res := a.room.SendAction(a.selfID, payload)
	if !res.Success {
		return res
	}
	if needSync && !terminal {
		a.room.SyncState(a.selfID, raw)
	}
	if terminal {
		a.finish(raw)
	}
	return res
}

// HandleMessage feeds one broadcast frame into the adapter. Join, leave,
// and ready frames are idempotent against duplication upstream; actions
// and syncs are guarded by Seq so stale or duplicate deliveries drop.
func (a *Adapter[B, M]) HandleMessage(msg room.Message) {
	switch msg.Type {
	case room.MsgGameStarted, room.MsgGameStateSync:
		a.applySync(msg)
	case room.MsgGameAction:
		a.applyAction(msg)
	}
}

func (a *Adapter[B, M]) applySync(msg room.Message) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if msg.Seq <= a.lastSeq && a.started {
		return // stale sync: the most recent full sync wins
	}
	raw, err := json.Marshal(msg.Payload["state"])
	if err != nil {
		a.log.WithError(err).Warn("match: unreadable state sync")
		return
	}
	var st state[B]
	if err := json.Unmarshal(raw, &st); err != nil {
		a.log.WithError(err).Warn("match: undecodable state sync")
		return
	}
	a.adopt(st)
	a.lastSeq = msg.Seq
}

func (a *Adapter[B, M]) applyAction(msg room.Message) {
	if msg.SenderID == a.selfID {
		return // own action, already applied optimistically
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.started || msg.Seq <= a.lastSeq {
		return
	}
	raw, err := json.Marshal(msg.Payload)
	if err != nil {
		return
	}
	var act actionPayload[M]
	if err := json.Unmarshal(raw, &act); err != nil {
		a.log.WithError(err).Warn("match: undecodable action")
		return
	}
	if act.By != a.current || !a.legal(act.Move, act.By) {
		// Out-of-turn or diverged peer; wait for the next full sync.
		a.log.WithField("seq", msg.Seq).Warn("match: rejected remote action, awaiting resync")
		return
	}
	a.board = a.eng.Apply(a.board, act.Move, act.By)
	a.current = a.eng.NextSide(a.board, act.Move, act.By)
	a.lastSeq = msg.Seq
}

// BeginLocalTurn runs the engine's turn hook for the local player
// (backgammon rolls its dice there) and publishes the result as a full
// sync so peers see the roll before any action built on it. Engines
// whose hook is the identity make this a no-op.
func (a *Adapter[B, M]) BeginLocalTurn() room.Result {
	a.mu.Lock()
	if !a.started {
		a.mu.Unlock()
		return room.Result{Success: false, Error: "game has not started"}
	}
	side, seated := a.seats[a.selfID]
	if !seated || side != a.current {
		a.mu.Unlock()
		return room.Result{Success: false, Error: "not your turn"}
	}
	a.board = a.eng.BeginTurn(a.board, side, a.rng)
	raw := a.encodedState()
	a.mu.Unlock()
	return a.room.SyncState(a.selfID, raw)
}

// Board returns the adapter's current board view.
func (a *Adapter[B, M]) Board() (B, gamekit.Side) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.board, a.current
}

// Started reports whether the match is underway locally.
func (a *Adapter[B, M]) Started() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.started
}

func (a *Adapter[B, M]) adopt(st state[B]) {
	a.board = st.Board
	a.current = st.Current
	if len(st.Seats) > 0 {
		a.seats = st.Seats
	}
	a.started = true
}

func (a *Adapter[B, M]) legal(m M, s gamekit.Side) bool {
	want, err := json.Marshal(m)
	if err != nil {
		return false
	}
	for _, lm := range a.eng.LegalMoves(a.board, s) {
		got, err := json.Marshal(lm)
		if err != nil {
			continue
		}
		if string(got) == string(want) {
			return true
		}
	}
	return false
}

func (a *Adapter[B, M]) encodedState() json.RawMessage {
	raw, err := json.Marshal(state[B]{Board: a.board, Current: a.current, Seats: a.seats})
	if err != nil {
		return nil
	}
	return raw
}

// finish surfaces the engine's terminal detection to the room with a
// simple win/loss/draw scoreline.
func (a *Adapter[B, M]) finish(finalState json.RawMessage) {
	a.mu.Lock()
	out := a.eng.Outcome(a.board)
	scores := make(map[string]int, len(a.seats))
	winner := gamekit.WinnerOf(out)
	for id, side := range a.seats {
		switch {
		case winner == gamekit.NoSide:
			scores[id] = 0
		case side == winner:
			scores[id] = 1
		default:
			scores[id] = -1
		}
	}
	a.mu.Unlock()
	a.room.Finish(finalState, scores)
}

func encodeAction[M any](p actionPayload[M]) (map[string]interface{}, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
