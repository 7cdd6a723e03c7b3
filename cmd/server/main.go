// cmd/server/main.go
package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/haloarcade/tabletop/internal/config"
	"github.com/haloarcade/tabletop/internal/handlers"
	"github.com/haloarcade/tabletop/internal/history"
	"github.com/haloarcade/tabletop/internal/identity"
	"github.com/haloarcade/tabletop/internal/middleware"
	"github.com/haloarcade/tabletop/internal/room"
	"github.com/haloarcade/tabletop/internal/store"
)

func main() {
	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)
	if os.Getenv("LOG_LEVEL") == "debug" {
		logger.SetLevel(logrus.DebugLevel)
	}

	cfg := config.Load()

	if err := identity.Init(); err != nil {
		logger.Fatalf("identity init failed: %v", err)
	}

	var roomStore store.RoomStore
	if cfg.UsePostgres {
		pg, err := store.ConnectPostgres(context.Background())
		if err != nil {
			logger.Fatalf("postgres connect failed: %v", err)
		}
		defer pg.Close()
		roomStore = pg
		logger.Info("using postgres room store")
	} else {
		roomStore = store.NewMemoryStore()
		logger.Info("using in-memory room store")
	}

	var matches *history.Queue
	if cfg.UseRedis {
		q, err := history.Connect(context.Background(), cfg.RedisAddr, cfg.RedisDB, cfg.HistoryQueue)
		if err != nil {
			logger.Fatalf("redis connect failed: %v", err)
		}
		defer q.Close()
		matches = q
		logger.Infof("publishing match history to %s", cfg.HistoryQueue)
	}

	opts := []room.ManagerOption{room.WithCodeLength(cfg.RoomCodeLength)}
	if matches != nil {
		opts = append(opts, room.WithOnFinished(func(r *room.Room, scores map[string]int) {
			rec := matchRecord(r, scores)
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := matches.Publish(ctx, rec); err != nil {
				logger.Warnf("failed to publish match record for room %s: %v", r.ID, err)
			}
		}))
	}
	rooms := room.NewManager(roomStore, logger, opts...)

	srv := handlers.NewServer(rooms, logger, room.Settings{
		MaxPlayers:       cfg.DefaultMaxPlayers,
		TurnTimeLimitSec: cfg.DefaultTurnLimitSec,
	})

	logged := middleware.LogMiddleware(logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/", handlers.PingHandler)
	mux.Handle("/room/create", logged(http.HandlerFunc(srv.CreateRoomHandler)))
	mux.Handle("/room/join", logged(http.HandlerFunc(srv.JoinRoomHandler)))
	mux.Handle("/room/get", logged(http.HandlerFunc(srv.GetRoomHandler)))
	mux.Handle("/room/ws/", http.HandlerFunc(srv.RoomWSHandler()))

	server := &http.Server{
		Handler:     mux,
		ReadTimeout: 10 * time.Second,
		// No WriteTimeout: websocket connections outlive any sane value.
	}

	l, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		logger.Fatalf("failed to listen on %s: %v", cfg.Addr, err)
	}
	logger.Infof("listening on %s", l.Addr())

	errc := make(chan error, 1)
	go func() {
		errc <- server.Serve(l)
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	select {
	case err := <-errc:
		logger.Errorf("server exited: %v", err)
	case sig := <-sigs:
		logger.Infof("terminating: %v", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(ctx)
}

// matchRecord flattens a finished room into the reward pipeline's
// record shape.
func matchRecord(r *room.Room, scores map[string]int) history.MatchRecord {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	players := make([]string, 0, len(r.Players))
	for _, p := range r.Players {
		players = append(players, p.ID)
	}
	winner := ""
	best := 0
	for id, sc := range scores {
		if sc > best {
			best = sc
			winner = id
		}
	}
	return history.MatchRecord{
		RoomID:     r.ID,
		GameType:   r.GameType,
		Players:    players,
		WinnerID:   winner,
		Scores:     scores,
		FinishedAt: time.Now().Unix(),
	}
}
