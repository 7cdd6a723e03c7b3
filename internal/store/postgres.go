// internal/store/postgres.go
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// uniqueViolation is the SQLSTATE Postgres raises on duplicate room codes.
const uniqueViolation = "23505"

// PostgresStore persists room records in a game_rooms table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// ConnectPostgres builds a pool from the standard POSTGRES_*/PG_* env
// vars and pings it.
func ConnectPostgres(ctx context.Context) (*PostgresStore, error) {
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
	return &PostgresStore{pool: pool}, nil
}

// Close releases the pool.
func (p *PostgresStore) Close() { p.pool.Close() }

func (p *PostgresStore) Create(ctx context.Context, rec *RoomRecord) error {
	q := `
	INSERT INTO game_rooms (
		id, code, game_type, visibility, host_id, status,
		max_players, min_players, turn_time_limit_sec, seq, players,
		game_state, created_at, updated_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := p.pool.Exec(ctx, q,
		rec.ID, rec.Code, rec.GameType, rec.Visibility, rec.HostID, rec.Status,
		rec.MaxPlayers, rec.MinPlayers, rec.TurnTimeLimitSec, rec.Seq, rec.Players,
		rec.GameState, rec.CreatedAt, rec.UpdatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrCodeTaken
	}
	return err
}

func (p *PostgresStore) GetByID(ctx context.Context, id uuid.UUID) (*RoomRecord, error) {
	return p.getWhere(ctx, "id = $1", id)
}

func (p *PostgresStore) GetByCode(ctx context.Context, code string) (*RoomRecord, error) {
	return p.getWhere(ctx, "code = $1", code)
}

func (p *PostgresStore) getWhere(ctx context.Context, where string, arg interface{}) (*RoomRecord, error) {
	var rec RoomRecord
	q := `
	SELECT id, code, game_type, visibility, host_id, status,
	       max_players, min_players, turn_time_limit_sec, seq, players,
	       game_state, created_at, updated_at
	FROM game_rooms
	WHERE ` + where
	err := p.pool.QueryRow(ctx, q, arg).Scan(
		&rec.ID, &rec.Code, &rec.GameType, &rec.Visibility, &rec.HostID, &rec.Status,
		&rec.MaxPlayers, &rec.MinPlayers, &rec.TurnTimeLimitSec, &rec.Seq, &rec.Players,
		&rec.GameState, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (p *PostgresStore) Update(ctx context.Context, rec *RoomRecord) error {
	q := `
	UPDATE game_rooms
	SET host_id = $2, status = $3, seq = $4, players = $5,
	    game_state = $6, updated_at = $7
	WHERE id = $1
	`
	tag, err := p.pool.Exec(ctx, q,
		rec.ID, rec.HostID, rec.Status, rec.Seq, rec.Players,
		rec.GameState, rec.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *PostgresStore) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := p.pool.Exec(ctx, `DELETE FROM game_rooms WHERE id = $1`, id)
	return err
}
