// internal/handlers/http.go
package handlers

import (
	"net/http"
	"strings"
	"time"

	"encoding/json"

	"github.com/haloarcade/tabletop/internal/identity"
	"github.com/haloarcade/tabletop/internal/match"
	"github.com/haloarcade/tabletop/internal/room"
)

// EnsureGuest resolves the caller's identity from the auth_token cookie,
// minting a fresh guest identity (and setting the cookie) when the
// token is missing or invalid. Every player is a guest; there are no
// registered accounts.
func (s *Server) EnsureGuest(w http.ResponseWriter, r *http.Request) (identity.Identity, error) {
	if c, err := r.Cookie("auth_token"); err == nil && c.Value != "" {
		if id, err := identity.VerifyToken(c.Value); err == nil {
			return id, nil
		}
		// Fall through and mint a replacement for an expired or bad token.
	}

	guest := s.newGuest()
	token, err := identity.IssueToken(guest)
	if err != nil {
		return identity.Identity{}, err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    token,
		HttpOnly: true,
		Path:     "/",
	})
	return guest, nil
}

type createRoomRequest struct {
	GameType         string `json:"gameType"`
	Visibility       string `json:"visibility"`
	MaxPlayers       int    `json:"maxPlayers"`
	MinPlayers       int    `json:"minPlayers"`
	TurnTimeLimitSec int    `json:"turnTimeLimitSec"`
}

// CreateRoomHandler creates a room hosted by the caller and returns its
// summary, including the join code to share.
func (s *Server) CreateRoomHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	host, err := s.EnsureGuest(w, r)
	if err != nil {
		s.Log.Warnf("guest identity failed: %v", err)
		http.Error(w, "identity failure", http.StatusInternalServerError)
		return
	}

	var req createRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, room.Result{Success: false, Error: "invalid JSON body"})
		return
	}
	if !match.KnownGame(req.GameType) {
		writeJSON(w, http.StatusBadRequest, room.Result{Success: false, Error: "unknown game type"})
		return
	}
	visibility := req.Visibility
	if visibility == "" {
		visibility = "private"
	}

	settings := s.Defaults
	if req.MaxPlayers > 0 {
		settings.MaxPlayers = req.MaxPlayers
	}
	settings.MinPlayers = match.MinPlayers(req.GameType)
	if req.MinPlayers > settings.MinPlayers {
		settings.MinPlayers = req.MinPlayers
	}
	if req.TurnTimeLimitSec > 0 {
		settings.TurnTimeLimitSec = req.TurnTimeLimitSec
	}

	rm, err := s.Rooms.CreateRoom(r.Context(), req.GameType, visibility, host, settings)
	if err != nil {
		s.Log.Errorf("create room: %v", err)
		writeJSON(w, http.StatusInternalServerError, room.Result{Success: false, Error: "failed to create room"})
		return
	}
	writeJSON(w, http.StatusCreated, roomSummary(rm))
}

type joinRoomRequest struct {
	Code string `json:"code"`
}

// JoinRoomHandler seats the caller in the room named by its join code.
// Join failures come back as Result values, not bare status codes, so
// clients can surface the reason inline.
func (s *Server) JoinRoomHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	player, err := s.EnsureGuest(w, r)
	if err != nil {
		http.Error(w, "identity failure", http.StatusInternalServerError)
		return
	}

	var req joinRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, room.Result{Success: false, Error: "invalid JSON body"})
		return
	}
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if code == "" {
		writeJSON(w, http.StatusBadRequest, room.Result{Success: false, Error: "missing room code"})
		return
	}

	rm, res := s.Rooms.JoinByCode(r.Context(), code, player)
	if !res.Success {
		status := http.StatusConflict
		if res.Error == "room not found" {
			status = http.StatusNotFound
		}
		writeJSON(w, status, res)
		return
	}
	writeJSON(w, http.StatusOK, roomSummary(rm))
}

// GetRoomHandler looks a room up by code without joining it.
func (s *Server) GetRoomHandler(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("code")))
	if code == "" {
		writeJSON(w, http.StatusBadRequest, room.Result{Success: false, Error: "missing room code"})
		return
	}
	rm, err := s.Rooms.GetByCode(r.Context(), code)
	if err != nil {
		writeJSON(w, http.StatusNotFound, room.Result{Success: false, Error: "room not found"})
		return
	}
	writeJSON(w, http.StatusOK, roomSummary(rm))
}

type roomView struct {
	ID         string          `json:"id"`
	Code       string          `json:"code"`
	GameType   string          `json:"gameType"`
	Visibility string          `json:"visibility"`
	HostID     string          `json:"hostId"`
	Status     room.Status     `json:"status"`
	Settings   room.Settings   `json:"settings"`
	Players    []room.Player   `json:"players"`
	Seq        uint64          `json:"seq"`
	GameState  json.RawMessage `json:"gameState,omitempty"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

func roomSummary(r *room.Room) roomView {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	// Value copies: the view is marshaled after the lock is released.
	players := r.RosterUnsafe()
	return roomView{
		ID:         r.ID.String(),
		Code:       r.Code,
		GameType:   r.GameType,
		Visibility: r.Visibility,
		HostID:     r.HostID,
		Status:     r.Status,
		Settings:   r.Settings,
		Players:    players,
		Seq:        r.Seq,
		GameState:  r.GameState,
		UpdatedAt:  r.UpdatedAt,
	}
}
