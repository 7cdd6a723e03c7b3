// internal/store/store.go

// Package store persists the durable GameRoom record. The room protocol
// treats every write as best-effort; implementations only need basic
// CRUD plus uniqueness on the room code.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned for unknown room ids and codes.
	ErrNotFound = errors.New("room not found")

	// ErrCodeTaken is returned when creating a room whose code is
	// already in use; callers regenerate the code and retry.
	ErrCodeTaken = errors.New("room code already in use")
)

// RoomRecord is the durable shape of a room. Players and GameState are
// stored as JSON documents; the in-memory room is the live authority and
// snapshots into this record on every mutation.
type RoomRecord struct {
	ID               uuid.UUID       `json:"id"`
	Code             string          `json:"code"`
	GameType         string          `json:"gameType"`
	Visibility       string          `json:"visibility"`
	HostID           string          `json:"hostId"`
	Status           string          `json:"status"`
	MaxPlayers       int             `json:"maxPlayers"`
	MinPlayers       int             `json:"minPlayers"`
	TurnTimeLimitSec int             `json:"turnTimeLimitSec"`
	Seq              uint64          `json:"seq"`
	Players          json.RawMessage `json:"players"`
	GameState        json.RawMessage `json:"gameState,omitempty"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// RoomStore is the narrow durable interface the room protocol consumes.
type RoomStore interface {
	Create(ctx context.Context, rec *RoomRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*RoomRecord, error)
	GetByCode(ctx context.Context, code string) (*RoomRecord, error)
	Update(ctx context.Context, rec *RoomRecord) error
	Delete(ctx context.Context, id uuid.UUID) error
}
