// cmd/historian/main.go

// Command historian drains the finished-match queue into Postgres and
// pays out XP. It runs as a separate process from the game server so a
// slow database never backs up live games.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/haloarcade/tabletop/internal/config"
	"github.com/haloarcade/tabletop/internal/history"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if os.Getenv("LOG_LEVEL") == "debug" {
		logger.SetLevel(logrus.DebugLevel)
	}

	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := history.ConnectMatchStore(ctx)
	if err != nil {
		logger.WithError(err).Fatal("historian: failed to connect to Postgres")
	}
	defer store.Close()

	consumer := history.NewConsumer(cfg.RedisAddr, cfg.RedisDB, cfg.HistoryQueue, store, logger, history.ConsumerOptions{
		BatchSize:  envInt("HISTORIAN_BATCH_SIZE", 20),
		FlushDelay: time.Duration(envInt("HISTORIAN_FLUSH_MS", 500)) * time.Millisecond,
	})
	defer consumer.Close()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		logger.Infof("historian: received signal %v, shutting down", sig)
		cancel()
	}()

	logger.Infof("historian: consuming queue %q from %s", cfg.HistoryQueue, cfg.RedisAddr)
	if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.WithError(err).Fatal("historian: consumer stopped")
	}
	logger.Info("historian: stopped")
}

func envInt(key string, def int) int {
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
