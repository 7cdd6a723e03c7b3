// internal/config/config.go

// Package config reads the service configuration from environment
// variables, with defaults suitable for local development.
package config

import (
	"os"
	"strconv"
)

// Config carries everything cmd/server wires together.
type Config struct {
	Addr string

	// UsePostgres selects the durable room store; false keeps rooms in
	// process memory.
	UsePostgres bool

	// UseRedis enables the match history queue; false skips the reward
	// pipeline entirely.
	UseRedis     bool
	RedisAddr    string
	RedisDB      int
	HistoryQueue string

	RoomCodeLength      int
	DefaultMaxPlayers   int
	DefaultTurnLimitSec int

	// AIThinkDelayMs paces single-player AI replies so they read as
	// deliberate; zero disables the pause.
	AIThinkDelayMs int
}

// Load reads the environment.
func Load() Config {
	return Config{
		Addr:                ":" + getEnv("PORT", "8080"),
		UsePostgres:         os.Getenv("PG_HOST") != "",
		UseRedis:            os.Getenv("REDIS_ADDR") != "",
		RedisAddr:           getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:             getEnvInt("REDIS_DB", 0),
		HistoryQueue:        getEnv("HISTORY_QUEUE_NAME", "tabletop_matches"),
		RoomCodeLength:      getEnvInt("ROOM_CODE_LENGTH", 6),
		DefaultMaxPlayers:   getEnvInt("ROOM_MAX_PLAYERS", 2),
		DefaultTurnLimitSec: getEnvInt("ROOM_TURN_LIMIT_SEC", 0),
		AIThinkDelayMs:      getEnvInt("AI_THINK_DELAY_MS", 600),
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}
