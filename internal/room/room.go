// internal/room/room.go

// Package room implements the multiplayer room protocol: lifecycle,
// roster and readiness tracking, host migration, and the broadcast
// channel carrying game-start, game-action, and full-state-sync frames.
//
// The host is a roster role with start authority, not a synchronization
// authority: every client applies actions optimistically and periodic
// full-state syncs reconcile divergence.
package room

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/haloarcade/tabletop/internal/identity"
)

// Status is the room lifecycle state.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// Player is one roster entry. IsConnected tracks transport presence and
// is independent of membership: a disconnected player stays in the room.
type Player struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	IsHost      bool      `json:"isHost"`
	IsReady     bool      `json:"isReady"`
	IsConnected bool      `json:"isConnected"`
	JoinedAt    time.Time `json:"joinedAt"`
}

// Settings configures a room at creation.
type Settings struct {
	MaxPlayers int `json:"maxPlayers"`
	MinPlayers int `json:"minPlayers"`

	// TurnTimeLimitSec, when positive, arms a per-turn timer; expiry
	// broadcasts a turn_timeout frame so adapters can skip the turn.
	TurnTimeLimitSec int `json:"turnTimeLimitSec"`
}

// Room is the live, authoritative state of one multiplayer room.
// Invariants: exactly one player has IsHost while the roster is
// non-empty, and the roster never exceeds Settings.MaxPlayers.
type Room struct {
	ID         uuid.UUID `json:"id"`
	Code       string    `json:"code"`
	GameType   string    `json:"gameType"`
	Visibility string    `json:"visibility"`
	HostID     string    `json:"hostId"`
	Status     Status    `json:"status"`
	Settings   Settings  `json:"settings"`

	// Players is ordered by JoinedAt; host migration promotes the
	// earliest remaining entry.
	Players []*Player `json:"players"`

	// GameState is the durable source of truth once playing.
	GameState json.RawMessage `json:"gameState,omitempty"`

	// Seq increments on every game action and state sync.
	Seq uint64 `json:"seq"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	conns map[string]*Conn

	turnTimer *time.Timer
	turnGen   int

	// OnEmpty fires after the last player leaves; the manager deletes
	// the room there.
	OnEmpty func(id uuid.UUID)

	// OnMutate fires after every state-changing operation so the
	// manager can snapshot the room to the durable store (best effort).
	OnMutate func(r *Room)

	// OnFinished fires once when the game reaches a terminal state,
	// with the final scoreline for the reward pipeline.
	OnFinished func(r *Room, scores map[string]int)

	Mu sync.Mutex
}

// New builds a waiting room hosted by the given identity.
func New(code, gameType, visibility string, host identity.Identity, settings Settings) *Room {
	if settings.MaxPlayers <= 0 {
		settings.MaxPlayers = 2
	}
	if settings.MinPlayers <= 0 {
		settings.MinPlayers = 2
	}
	now := time.Now()
	return &Room{
		ID:         uuid.New(),
		Code:       code,
		GameType:   gameType,
		Visibility: visibility,
		HostID:     host.ID,
		Status:     StatusWaiting,
		Settings:   settings,
		Players: []*Player{{
			ID:          host.ID,
			Name:        host.Name,
			IsHost:      true,
			IsConnected: true,
			JoinedAt:    now,
		}},
		CreatedAt: now,
		UpdatedAt: now,
		conns:     make(map[string]*Conn),
	}
}

func (r *Room) playerUnsafe(id string) *Player {
	for _, p := range r.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// RosterUnsafe returns a value snapshot of the roster. Broadcast frames
// are marshaled by write pumps after the lock is released, so payloads
// must never share the live Player structs. Callers must hold r.Mu.
func (r *Room) RosterUnsafe() []Player {
	roster := make([]Player, len(r.Players))
	for i, p := range r.Players {
		roster[i] = *p
	}
	return roster
}

// Join adds the player to the roster. Rejoining members are reconnected
// instead of duplicated. Full or already-started rooms reject with a
// reason string.
func (r *Room) Join(player identity.Identity) Result {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if p := r.playerUnsafe(player.ID); p != nil {
		p.IsConnected = true
		r.touchUnsafe()
		return ok()
	}
	if r.Status != StatusWaiting {
		return fail("game already started")
	}
	if len(r.Players) >= r.Settings.MaxPlayers {
		return fail("room is full")
	}
	p := &Player{
		ID:          player.ID,
		Name:        player.Name,
		IsConnected: true,
		JoinedAt:    time.Now(),
	}
	r.Players = append(r.Players, p)
	r.touchUnsafe()
	r.broadcastUnsafe(newMessage(MsgPlayerJoined, player.ID, player.Name, r.Seq, map[string]interface{}{
		"player": *p,
		"roster": r.RosterUnsafe(),
	}))
	return ok()
}

// Leave removes the player. A departing host hands the role to the
// earliest-joined remaining player; an emptied room triggers OnEmpty.
func (r *Room) Leave(playerID string) {
	r.Mu.Lock()

	idx := -1
	for i, p := range r.Players {
		if p.ID == playerID {
			idx = i
			break
		}
	}
	if idx < 0 {
		r.Mu.Unlock()
		return
	}
	wasHost := r.Players[idx].IsHost
	name := r.Players[idx].Name
	r.Players = append(r.Players[:idx], r.Players[idx+1:]...)
	delete(r.conns, playerID)

	if wasHost && len(r.Players) > 0 {
		// Roster is join-ordered, so the next host is index 0.
		next := r.Players[0]
		next.IsHost = true
		next.IsReady = false
		r.HostID = next.ID
	}
	empty := len(r.Players) == 0
	onEmpty := r.OnEmpty
	id := r.ID
	r.touchUnsafe()
	r.broadcastUnsafe(newMessage(MsgPlayerLeft, playerID, name, r.Seq, map[string]interface{}{
		"playerId": playerID,
		"hostId":   r.HostID,
		"roster":   r.RosterUnsafe(),
	}))
	r.Mu.Unlock()

	if empty && onEmpty != nil {
		onEmpty(id)
	}
}

// SetReady flips the player's ready flag. Host readiness is implied by
// the start action, and readiness is inert once playing.
func (r *Room) SetReady(playerID string, ready bool) Result {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if r.Status != StatusWaiting {
		return fail("game already started")
	}
	p := r.playerUnsafe(playerID)
	if p == nil {
		return fail("player not in room")
	}
	if p.IsHost {
		return fail("host readiness is implied")
	}
	if p.IsReady == ready {
		return ok()
	}
	p.IsReady = ready
	r.touchUnsafe()
	r.broadcastUnsafe(newMessage(MsgPlayerReady, playerID, p.Name, r.Seq, map[string]interface{}{
		"playerId": playerID,
		"isReady":  ready,
	}))
	return ok()
}

// Start transitions waiting -> playing. Only the host may start, the
// roster must meet the game's minimum, every non-host must be ready, and
// the caller supplies the explicitly constructed initial game state.
func (r *Room) Start(playerID string, initialState json.RawMessage) Result {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if playerID != r.HostID {
		return fail("only the host can start the game")
	}
	if r.Status != StatusWaiting {
		return fail("game already started")
	}
	if len(r.Players) < r.Settings.MinPlayers {
		return fail("not enough players")
	}
	for _, p := range r.Players {
		if !p.IsHost && !p.IsReady {
			return fail("not all players are ready")
		}
	}
	if len(initialState) == 0 {
		return fail("missing initial game state")
	}
	r.Status = StatusPlaying
	r.GameState = initialState
	r.Seq++
	r.touchUnsafe()
	host := r.playerUnsafe(playerID)
	r.broadcastUnsafe(newMessage(MsgGameStarted, playerID, host.Name, r.Seq, map[string]interface{}{
		"gameType": r.GameType,
		"state":    json.RawMessage(initialState),
	}))
	r.armTurnTimerUnsafe()
	return ok()
}

// SendAction relays one game action to every subscriber and resets the
// turn timer. The sender is trusted to act on its own turn; see the
// adapter for the seq guard on the receiving side.
func (r *Room) SendAction(playerID string, payload map[string]interface{}) Result {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if r.Status != StatusPlaying {
		return fail("game is not in progress")
	}
	p := r.playerUnsafe(playerID)
	if p == nil {
		return fail("player not in room")
	}
	r.Seq++
	r.touchUnsafe()
	r.broadcastUnsafe(newMessage(MsgGameAction, playerID, p.Name, r.Seq, payload))
	r.armTurnTimerUnsafe()
	return ok()
}

// SyncState replaces the durable game state with a full snapshot and
// broadcasts it. The most recent sync wins. Syncs reset the turn timer
// like actions do: a turn can begin with a sync (a backgammon dice roll
// is published as one), not only with an action.
func (r *Room) SyncState(playerID string, state json.RawMessage) Result {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if r.Status != StatusPlaying {
		return fail("game is not in progress")
	}
	p := r.playerUnsafe(playerID)
	if p == nil {
		return fail("player not in room")
	}
	r.GameState = state
	r.Seq++
	r.touchUnsafe()
	r.broadcastUnsafe(newMessage(MsgGameStateSync, playerID, p.Name, r.Seq, map[string]interface{}{
		"state": json.RawMessage(state),
	}))
	r.armTurnTimerUnsafe()
	return ok()
}

// Chat relays a chat message without touching game state.
func (r *Room) Chat(playerID, text string) Result {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	p := r.playerUnsafe(playerID)
	if p == nil {
		return fail("player not in room")
	}
	r.broadcastUnsafe(newMessage(MsgChat, playerID, p.Name, r.Seq, map[string]interface{}{
		"text": text,
	}))
	return ok()
}

// Finish transitions playing -> finished with the final state and
// scoreline, cancels the turn timer, and fires OnFinished once.
func (r *Room) Finish(finalState json.RawMessage, scores map[string]int) {
	r.Mu.Lock()
	if r.Status != StatusPlaying {
		r.Mu.Unlock()
		return
	}
	r.Status = StatusFinished
	if len(finalState) > 0 {
		r.GameState = finalState
	}
	r.Seq++
	r.turnGen++ // cancel any armed turn timer
	if r.turnTimer != nil {
		r.turnTimer.Stop()
		r.turnTimer = nil
	}
	r.touchUnsafe()
	r.broadcastUnsafe(newMessage(MsgGameStateSync, "", "", r.Seq, map[string]interface{}{
		"state":  json.RawMessage(r.GameState),
		"status": string(StatusFinished),
		"scores": scores,
	}))
	onFinished := r.OnFinished
	r.Mu.Unlock()

	if onFinished != nil {
		onFinished(r, scores)
	}
}

// Subscribe attaches a live connection for the player and marks them
// connected.
func (r *Room) Subscribe(c *Conn) {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	if old, ok := r.conns[c.PlayerID]; ok && old != c && old.Cancel != nil {
		old.Cancel()
	}
	r.conns[c.PlayerID] = c
	if p := r.playerUnsafe(c.PlayerID); p != nil {
		p.IsConnected = true
	}
}

// Unsubscribe detaches the player's connection and marks them
// disconnected. Membership is untouched: presence never removes a player.
func (r *Room) Unsubscribe(playerID string) {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	delete(r.conns, playerID)
	if p := r.playerUnsafe(playerID); p != nil {
		p.IsConnected = false
	}
}

func (r *Room) broadcastUnsafe(msg Message) {
	for _, c := range r.conns {
		c.Write(msg)
	}
}

func (r *Room) touchUnsafe() {
	r.UpdatedAt = time.Now()
	if r.OnMutate != nil {
		// The persistence callback re-acquires the lock to snapshot,
		// so it runs on its own goroutine. Writes are best effort.
		go r.OnMutate(r)
	}
}

// armTurnTimerUnsafe starts (or restarts) the per-turn clock when the
// room enforces one. Expiry broadcasts turn_timeout; adapters decide how
// to skip the turn.
func (r *Room) armTurnTimerUnsafe() {
	if r.Settings.TurnTimeLimitSec <= 0 {
		return
	}
	r.turnGen++
	gen := r.turnGen
	if r.turnTimer != nil {
		r.turnTimer.Stop()
	}
	r.turnTimer = time.AfterFunc(time.Duration(r.Settings.TurnTimeLimitSec)*time.Second, func() {
		r.Mu.Lock()
		defer r.Mu.Unlock()
		if gen != r.turnGen || r.Status != StatusPlaying {
			return // stale timer
		}
		r.Seq++
		r.broadcastUnsafe(newMessage(MsgTurnTimeout, "", "", r.Seq, map[string]interface{}{
			"limitSec": r.Settings.TurnTimeLimitSec,
		}))
		r.armTurnTimerUnsafe()
	})
}

