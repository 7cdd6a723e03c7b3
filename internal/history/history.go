// internal/history/history.go

// Package history pushes completed-match records onto a Redis queue.
// The gamification service consumes the queue to award experience
// points; the game core's only obligation is a clean terminal record.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultQueueName is the Redis list the reward consumer reads.
const DefaultQueueName = "tabletop_matches"

// MatchRecord is the terminal scoreline of one finished game.
type MatchRecord struct {
	RoomID     uuid.UUID      `json:"room_id,omitempty"`
	GameType   string         `json:"game_type"`
	Players    []string       `json:"players"`
	WinnerID   string         `json:"winner_id,omitempty"`
	Scores     map[string]int `json:"scores"`
	Difficulty string         `json:"difficulty,omitempty"` // single-player only
	FinishedAt int64          `json:"finished_at"`
}

// Queue wraps the Redis client and list name.
type Queue struct {
	rdb  *redis.Client
	name string
}

// Connect initializes the queue client and pings Redis.
func Connect(ctx context.Context, addr string, db int, queueName string) (*Queue, error) {
	if queueName == "" {
		queueName = DefaultQueueName
	}
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return &Queue{rdb: rdb, name: queueName}, nil
}

// Publish serializes the record and pushes it onto the queue. The send
// is quick and never blocks game logic beyond the network write.
func (q *Queue) Publish(ctx context.Context, rec MatchRecord) error {
	if rec.FinishedAt == 0 {
		rec.FinishedAt = time.Now().Unix()
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal MatchRecord: %w", err)
	}
	if err := q.rdb.RPush(ctx, q.name, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list %q: %w", q.name, err)
	}
	return nil
}

// Close releases the Redis client.
func (q *Queue) Close() error { return q.rdb.Close() }
