// internal/room/manager.go
package room

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/haloarcade/tabletop/internal/identity"
	"github.com/haloarcade/tabletop/internal/store"
)

// codeAlphabet omits ambiguous characters so codes survive being read
// aloud or typed from a phone screen.
const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const codeAttempts = 5

// Manager owns the live rooms of one node and mirrors them into the
// durable store. Lookup by short code is the public join path.
type Manager struct {
	mu     sync.Mutex
	rooms  map[uuid.UUID]*Room
	byCode map[string]*Room

	store      store.RoomStore
	log        *logrus.Logger
	codeLen    int
	rng        *rand.Rand
	onFinished func(r *Room, scores map[string]int)
}

// ManagerOption tunes a Manager.
type ManagerOption func(*Manager)

// WithCodeLength overrides the generated room-code length (default 6).
func WithCodeLength(n int) ManagerOption {
	return func(m *Manager) { m.codeLen = n }
}

// WithOnFinished registers the completion hook (reward/history pipeline).
func WithOnFinished(fn func(r *Room, scores map[string]int)) ManagerOption {
	return func(m *Manager) { m.onFinished = fn }
}

// NewManager builds a manager over the given durable store.
func NewManager(st store.RoomStore, log *logrus.Logger, opts ...ManagerOption) *Manager {
	m := &Manager{
		rooms:   make(map[uuid.UUID]*Room),
		byCode:  make(map[string]*Room),
		store:   st,
		log:     log,
		codeLen: 6,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CreateRoom creates a live room plus its durable record. Code
// uniqueness is enforced by the store; collisions regenerate and retry.
func (m *Manager) CreateRoom(ctx context.Context, gameType, visibility string, host identity.Identity, settings Settings) (*Room, error) {
	for attempt := 0; attempt < codeAttempts; attempt++ {
		code := m.generateCode()
		r := New(code, gameType, visibility, host, settings)
		m.wire(r)

		if err := m.store.Create(ctx, m.record(r)); err != nil {
			if errors.Is(err, store.ErrCodeTaken) {
				m.log.WithField("code", code).Debug("room code collision, retrying")
				continue
			}
			return nil, fmt.Errorf("create room: %w", err)
		}

		m.mu.Lock()
		m.rooms[r.ID] = r
		m.byCode[r.Code] = r
		m.mu.Unlock()

		m.log.WithFields(logrus.Fields{
			"room": r.ID, "code": r.Code, "game": gameType, "host": host.ID,
		}).Info("room created")
		return r, nil
	}
	return nil, fmt.Errorf("create room: exhausted %d code attempts", codeAttempts)
}

// JoinByCode resolves the code and joins the player. An unknown code is
// the user-visible "room not found" condition.
func (m *Manager) JoinByCode(ctx context.Context, code string, player identity.Identity) (*Room, Result) {
	r, err := m.GetByCode(ctx, code)
	if err != nil {
		return nil, fail("room not found")
	}
	res := r.Join(player)
	if !res.Success {
		return nil, res
	}
	return r, res
}

// Get returns the live room by id.
func (m *Manager) Get(id uuid.UUID) (*Room, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[id]
	return r, ok
}

// GetByCode returns the live room, rehydrating a waiting room from the
// durable record if this node does not hold it in memory.
func (m *Manager) GetByCode(ctx context.Context, code string) (*Room, error) {
	m.mu.Lock()
	if r, ok := m.byCode[code]; ok {
		m.mu.Unlock()
		return r, nil
	}
	m.mu.Unlock()

	rec, err := m.store.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return m.rehydrate(rec)
}

// rehydrate rebuilds a live room from its durable record after a restart.
func (m *Manager) rehydrate(rec *store.RoomRecord) (*Room, error) {
	var players []*Player
	if len(rec.Players) > 0 {
		if err := json.Unmarshal(rec.Players, &players); err != nil {
			return nil, fmt.Errorf("rehydrate room %s: %w", rec.ID, err)
		}
	}
	if rec.MinPlayers <= 0 {
		rec.MinPlayers = 2
	}
	r := &Room{
		ID:         rec.ID,
		Code:       rec.Code,
		GameType:   rec.GameType,
		Visibility: rec.Visibility,
		HostID:     rec.HostID,
		Status:     Status(rec.Status),
		Settings: Settings{
			MaxPlayers:       rec.MaxPlayers,
			MinPlayers:       rec.MinPlayers,
			TurnTimeLimitSec: rec.TurnTimeLimitSec,
		},
		Players:   players,
		GameState: rec.GameState,
		Seq:       rec.Seq,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
		conns:     make(map[string]*Conn),
	}
	// Nobody is connected to a freshly rehydrated room.
	for _, p := range r.Players {
		p.IsConnected = false
	}
	m.wire(r)

	m.mu.Lock()
	if existing, ok := m.byCode[r.Code]; ok {
		m.mu.Unlock()
		return existing, nil
	}
	m.rooms[r.ID] = r
	m.byCode[r.Code] = r
	m.mu.Unlock()
	return r, nil
}

// wire attaches the manager's lifecycle callbacks.
func (m *Manager) wire(r *Room) {
	r.OnEmpty = m.deleteRoom
	r.OnMutate = m.persist
	r.OnFinished = func(r *Room, scores map[string]int) {
		if m.onFinished != nil {
			m.onFinished(r, scores)
		}
	}
}

// persist snapshots the room into the durable store, best effort.
func (m *Manager) persist(r *Room) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.store.Update(ctx, m.record(r)); err != nil {
		m.log.WithError(err).WithField("room", r.ID).Warn("room snapshot write failed")
	}
}

// record builds the durable form of the room under its lock.
func (m *Manager) record(r *Room) *store.RoomRecord {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	players, err := json.Marshal(r.Players)
	if err != nil {
		m.log.WithError(err).WithField("room", r.ID).Warn("roster marshal failed")
	}
	return &store.RoomRecord{
		ID:               r.ID,
		Code:             r.Code,
		GameType:         r.GameType,
		Visibility:       r.Visibility,
		HostID:           r.HostID,
		Status:           string(r.Status),
		MaxPlayers:       r.Settings.MaxPlayers,
		MinPlayers:       r.Settings.MinPlayers,
		TurnTimeLimitSec: r.Settings.TurnTimeLimitSec,
		Seq:              r.Seq,
		Players:          players,
		GameState:        r.GameState,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

func (m *Manager) deleteRoom(id uuid.UUID) {
	m.mu.Lock()
	r, ok := m.rooms[id]
	if ok {
		delete(m.rooms, id)
		delete(m.byCode, r.Code)
	}
	m.mu.Unlock()
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.store.Delete(ctx, id); err != nil {
		m.log.WithError(err).WithField("room", id).Warn("room delete failed")
	}
	m.log.WithField("room", id).Info("empty room deleted")
}

func (m *Manager) generateCode() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	buf := make([]byte, m.codeLen)
	for i := range buf {
		buf[i] = codeAlphabet[m.rng.Intn(len(codeAlphabet))]
	}
	return string(buf)
}
