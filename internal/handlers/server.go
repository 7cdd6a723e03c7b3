// internal/handlers/server.go

// Package handlers exposes the HTTP and WebSocket surface of the room
// service: guest identity issuance, room create/join endpoints, and the
// per-room WebSocket relay.
package handlers

import (
	"encoding/json"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/haloarcade/tabletop/internal/identity"
	"github.com/haloarcade/tabletop/internal/room"
)

// Server bundles the dependencies of every handler. It is constructed
// once in main and injected; handlers never reach for globals.
type Server struct {
	Rooms    *room.Manager
	Log      *logrus.Logger
	Defaults room.Settings

	mu  sync.Mutex
	rng *rand.Rand
}

// NewServer builds a handler set over the room manager.
func NewServer(rooms *room.Manager, log *logrus.Logger, defaults room.Settings) *Server {
	return &Server{
		Rooms:    rooms,
		Log:      log,
		Defaults: defaults,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *Server) newGuest() identity.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return identity.NewGuest(s.rng)
}

// PingHandler answers health checks.
func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("pong"))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
