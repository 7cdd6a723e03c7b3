// internal/handlers/room_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/haloarcade/tabletop/internal/match"
	"github.com/haloarcade/tabletop/internal/room"
)

// clientFrame is the envelope for every message a client sends over the
// room socket. Payload is relayed untouched for game actions; the
// server validates membership and turn ownership lives with the peers.
type clientFrame struct {
	Type    string                 `json:"type"`
	Payload map[string]interface{} `json:"payload,omitempty"`
	State   json.RawMessage        `json:"state,omitempty"`
	Text    string                 `json:"text,omitempty"`
	Ready   bool                   `json:"ready,omitempty"`
}

// RoomWSHandler upgrades the connection for /room/ws/{room_id},
// authenticates the guest, seats them in the room, and relays frames
// until the socket closes.
func (s *Server) RoomWSHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pathParts := strings.Split(strings.TrimPrefix(r.URL.Path, "/room/ws/"), "/")
		if len(pathParts) < 1 || pathParts[0] == "" {
			http.Error(w, "missing room_id in path (/room/ws/{room_id})", http.StatusBadRequest)
			return
		}
		roomID, err := uuid.Parse(pathParts[0])
		if err != nil {
			http.Error(w, "invalid room_id", http.StatusBadRequest)
			return
		}

		// Authenticate before the upgrade: cookies can no longer be set
		// once the connection is hijacked.
		player, err := s.EnsureGuest(w, r)
		if err != nil {
			http.Error(w, "identity failure", http.StatusInternalServerError)
			return
		}

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"room"},
			OriginPatterns: []string{"*"}, // Adjust in production
		})
		if err != nil {
			s.Log.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		if c.Subprotocol() != "room" {
			c.Close(BadSubprotocolError, "client must speak the room subprotocol")
			return
		}

		rm, ok := s.Rooms.Get(roomID)
		if !ok {
			c.Close(InvalidRoomIDError, "room does not exist")
			return
		}

		if res := rm.Join(player); !res.Success {
			c.Close(JoinRejectedError, res.Error)
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		conn := &room.Conn{
			PlayerID: player.ID,
			Name:     player.Name,
			Cancel:   cancel,
			Out:      make(chan room.Message, 16),
		}
		rm.Subscribe(conn)

		// Hand the newcomer a full snapshot so they can render without
		// waiting for the next sync.
		rm.Mu.Lock()
		conn.Write(rm.StateFrame())
		rm.Mu.Unlock()

		s.Log.Infof("player %s (%s) connected to room %s", player.ID, r.RemoteAddr, roomID)

		go s.writePump(ctx, c, conn)
		s.readPump(ctx, c, rm, conn)

		rm.Unsubscribe(player.ID)
		cancel()
		s.Log.Infof("player %s disconnected from room %s", player.ID, roomID)
	}
}

// readPump consumes frames until the connection dies. It returns on the
// first read error; the caller owns cleanup.
func (s *Server) readPump(ctx context.Context, c *websocket.Conn, rm *room.Room, conn *room.Conn) {
	for {
		typ, data, err := c.Read(ctx)
		if err != nil {
			closeStatus := websocket.CloseStatus(err)
			if closeStatus == websocket.StatusNormalClosure || closeStatus == websocket.StatusGoingAway {
				return
			}
			if strings.Contains(err.Error(), "context canceled") {
				return
			}
			s.Log.Warnf("room %s: read error for player %s: %v", rm.ID, conn.PlayerID, err)
			return
		}
		if typ != websocket.MessageText {
			s.Log.Warnf("room %s: ignoring non-text message from player %s", rm.ID, conn.PlayerID)
			continue
		}

		var frame clientFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			conn.Write(room.ErrorFrame("invalid JSON frame"))
			continue
		}

		if leave := s.handleFrame(rm, conn, frame); leave {
			return
		}
	}
}

// handleFrame dispatches one client frame. It returns true when the
// client asked to leave and the pump should stop.
func (s *Server) handleFrame(rm *room.Room, conn *room.Conn, frame clientFrame) bool {
	switch frame.Type {
	case "ready":
		s.reply(conn, rm.SetReady(conn.PlayerID, true))
	case "unready":
		s.reply(conn, rm.SetReady(conn.PlayerID, false))
	case "start_game":
		s.reply(conn, s.startGame(rm, conn.PlayerID))
	case "game_action":
		if frame.Payload == nil {
			conn.Write(room.ErrorFrame("game_action requires a payload"))
			return false
		}
		s.reply(conn, rm.SendAction(conn.PlayerID, frame.Payload))
	case "sync_state":
		if len(frame.State) == 0 {
			conn.Write(room.ErrorFrame("sync_state requires a state snapshot"))
			return false
		}
		s.reply(conn, rm.SyncState(conn.PlayerID, frame.State))
	case "chat":
		if frame.Text != "" {
			rm.Chat(conn.PlayerID, frame.Text)
		}
	case "leave_room":
		rm.Leave(conn.PlayerID)
		return true
	default:
		conn.Write(room.ErrorFrame("unknown frame type"))
	}
	return false
}

func (s *Server) reply(conn *room.Conn, res room.Result) {
	if !res.Success {
		conn.Write(room.ErrorFrame(res.Error))
	}
}

// startGame builds the initial match state server-side so the
// game_started broadcast carries a fully constructed board, then runs
// the room's start checks.
func (s *Server) startGame(rm *room.Room, playerID string) room.Result {
	rm.Mu.Lock()
	gameType := rm.GameType
	players := make([]*room.Player, len(rm.Players))
	copy(players, rm.Players)
	rm.Mu.Unlock()

	s.mu.Lock()
	initial, err := match.InitialState(gameType, players, s.rng)
	s.mu.Unlock()
	if err != nil {
		return room.Result{Success: false, Error: err.Error()}
	}
	return rm.Start(playerID, initial)
}

// writePump drains the connection's outbound channel onto the socket
// and keeps the connection alive with periodic pings.
func (s *Server) writePump(ctx context.Context, c *websocket.Conn, conn *room.Conn) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-conn.Out:
			data, err := json.Marshal(msg)
			if err != nil {
				s.Log.Warnf("failed to marshal outgoing frame for player %s: %v", conn.PlayerID, err)
				continue
			}
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = c.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				s.Log.Warnf("write failed for player %s: %v", conn.PlayerID, err)
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				s.Log.Warnf("ping failed for player %s, assuming disconnect: %v", conn.PlayerID, err)
				return
			}
		}
	}
}
