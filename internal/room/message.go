// internal/room/message.go
package room

import (
	"log"
	"time"
)

// MessageType enumerates the broadcast channel's message kinds.
type MessageType string

const (
	MsgPlayerJoined  MessageType = "player_joined"
	MsgPlayerLeft    MessageType = "player_left"
	MsgPlayerReady   MessageType = "player_ready"
	MsgGameStarted   MessageType = "game_started"
	MsgGameAction    MessageType = "game_action"
	MsgGameStateSync MessageType = "game_state_sync"
	MsgChat          MessageType = "chat_message"
	MsgTurnTimeout   MessageType = "turn_timeout"

	// MsgRoomState and MsgError are direct frames, written to a single
	// connection rather than broadcast.
	MsgRoomState MessageType = "room_state"
	MsgError     MessageType = "error"
)

// Message is one broadcast frame. Messages are ephemeral: the room's
// durable gameState is the source of truth and broadcasts only exist for
// low-latency reflection. Seq is the room's monotonic action sequence;
// receivers drop game actions and syncs whose Seq is not newer than the
// last one they applied.
type Message struct {
	Type       MessageType            `json:"type"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
	SenderID   string                 `json:"senderId,omitempty"`
	SenderName string                 `json:"senderName,omitempty"`
	Seq        uint64                 `json:"seq"`
	Timestamp  int64                  `json:"timestamp"`
}

func newMessage(t MessageType, senderID, senderName string, seq uint64, payload map[string]interface{}) Message {
	return Message{
		Type:       t,
		Payload:    payload,
		SenderID:   senderID,
		SenderName: senderName,
		Seq:        seq,
		Timestamp:  time.Now().UnixMilli(),
	}
}

// Result is the explicit outcome of a protocol operation. Failures are
// values, never panics, so callers can render inline feedback.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func ok() Result            { return Result{Success: true} }
func fail(msg string) Result { return Result{Success: false, Error: msg} }

// ErrorFrame builds an error message for one connection.
func ErrorFrame(text string) Message {
	return newMessage(MsgError, "", "", 0, map[string]interface{}{"error": text})
}

// StateFrame builds a full room snapshot for one connection, typically
// sent right after subscribing. Callers must hold r.Mu.
func (r *Room) StateFrame() Message {
	return newMessage(MsgRoomState, "", "", r.Seq, map[string]interface{}{
		"id":         r.ID.String(),
		"code":       r.Code,
		"gameType":   r.GameType,
		"visibility": r.Visibility,
		"hostId":     r.HostID,
		"status":     r.Status,
		"settings":   r.Settings,
		"roster":     r.RosterUnsafe(),
		"state":      r.GameState,
	})
}

// Conn is a single player's live subscription to the room's broadcast
// channel.
type Conn struct {
	PlayerID string
	Name     string
	Cancel   func()
	Out      chan Message
}

// Write pushes a message onto the connection non-blockingly; a full or
// closed channel drops the message, relying on the next full-state sync
// to repair the client.
func (c *Conn) Write(msg Message) {
	select {
	case c.Out <- msg:
	default:
		log.Printf("room: out channel for player %s full or closed, dropped %s", c.PlayerID, msg.Type)
	}
}
