// internal/history/postgres.go
package history

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// XP awarded per finished match. A draw pays every seat the draw rate.
const (
	xpWin  = 100
	xpDraw = 50
	xpLoss = 25
)

// MatchStore writes finished matches and player XP to Postgres.
type MatchStore struct {
	pool *pgxpool.Pool
}

// ConnectMatchStore builds a pool from the standard POSTGRES_*/PG_* env
// vars and pings it.
func ConnectMatchStore(ctx context.Context) (*MatchStore, error) {
	connStr := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s",
		os.Getenv("POSTGRES_USER"),
		os.Getenv("POSTGRES_PASSWORD"),
		os.Getenv("PG_HOST"),
		os.Getenv("PG_PORT"),
		os.Getenv("PG_DATABASE"),
	)
	config, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to parse pgx config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create pgx pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	return &MatchStore{pool: pool}, nil
}

// Close releases the pool.
func (m *MatchStore) Close() { m.pool.Close() }

// InsertMatches writes the batch and the derived XP awards in one
// transaction, so a crash never pays XP for an unrecorded match.
func (m *MatchStore) InsertMatches(ctx context.Context, recs []MatchRecord) error {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for i := range recs {
		if err := insertMatch(ctx, tx, &recs[i]); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func insertMatch(ctx context.Context, tx pgx.Tx, rec *MatchRecord) error {
	q := `
	INSERT INTO match_history (
		room_id, game_type, players, winner_id, scores, difficulty, finished_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, to_timestamp($7))
	`
	_, err := tx.Exec(ctx, q,
		rec.RoomID, rec.GameType, rec.Players, rec.WinnerID,
		rec.Scores, rec.Difficulty, rec.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("insert match: %w", err)
	}
	for _, playerID := range rec.Players {
		award := xpLoss
		switch {
		case rec.WinnerID == "":
			award = xpDraw
		case rec.WinnerID == playerID:
			award = xpWin
		}
		if err := awardXP(ctx, tx, playerID, rec.WinnerID == playerID, award); err != nil {
			return err
		}
	}
	return nil
}

func awardXP(ctx context.Context, tx pgx.Tx, playerID string, won bool, amount int) error {
	wins := 0
	if won {
		wins = 1
	}
	q := `
	INSERT INTO player_progress (player_id, xp, matches_played, matches_won)
	VALUES ($1, $2, 1, $3)
	ON CONFLICT (player_id) DO UPDATE
	SET xp = player_progress.xp + EXCLUDED.xp,
	    matches_played = player_progress.matches_played + 1,
	    matches_won = player_progress.matches_won + EXCLUDED.matches_won
	`
	if _, err := tx.Exec(ctx, q, playerID, amount, wins); err != nil {
		return fmt.Errorf("award xp: %w", err)
	}
	return nil
}
