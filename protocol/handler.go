// Package protocol interprets the inbound command stream of one connection
// and drives the hub. Commands are decoded once into a closed set of typed
// variants; anything unrecognized is a deliberate no-op so newer clients
// never break older servers.
package protocol

import (
	"encoding/json"
	"log/slog"

	"github.com/dog-face/snake-game/domain"
	"github.com/dog-face/snake-game/hub"
)

type Handler struct {
	hub     *hub.Hub
	welcome string
}

func NewHandler(h *hub.Hub, welcome string) *Handler {
	return &Handler{hub: h, welcome: welcome}
}

// OnConnect acknowledges a freshly registered connection with its id.
func (h *Handler) OnConnect(conn domain.Connection) {
	h.reply(conn, domain.Event{
		Type:         domain.EventConnected,
		ConnectionID: conn.ID(),
		Message:      h.welcome,
	})
}

func (h *Handler) Handle(conn domain.Connection, data []byte) {
	var msg domain.Inbound
	if err := json.Unmarshal(data, &msg); err != nil {
		slog.Warn("invalid message", "connectionId", conn.ID(), "error", err)
		h.reply(conn, domain.Event{Type: domain.EventError, Message: "Invalid JSON format"})
		return
	}

	switch msg.Type {
	case "subscribe":
		// No playerId: silently ignore, keep the connection.
		if msg.PlayerID == "" {
			return
		}
		h.hub.Subscribe(conn.ID(), msg.PlayerID)
		h.reply(conn, domain.Event{Type: domain.EventSubscribed, PlayerID: msg.PlayerID})

	case "unsubscribe":
		h.hub.Unsubscribe(conn.ID(), msg.PlayerID)
		h.reply(conn, domain.Event{Type: domain.EventUnsubscribed, PlayerID: msg.PlayerID})

	case "join_room":
		if msg.RoomID == "" || msg.PlayerID == "" {
			return
		}
		h.hub.JoinRoom(conn.ID(), msg.RoomID, msg.PlayerID)
		h.reply(conn, domain.Event{Type: domain.EventRoomJoined, RoomID: msg.RoomID})
		h.notifyRoom(conn, domain.EventPlayerJoined, msg.PlayerID, msg.RoomID)

	case "leave_room":
		if msg.RoomID == "" {
			return
		}
		playerID := h.hub.LeaveRoom(conn.ID(), msg.RoomID)
		h.reply(conn, domain.Event{Type: domain.EventRoomLeft, RoomID: msg.RoomID})
		if playerID != "" {
			h.notifyRoom(conn, domain.EventPlayerLeft, playerID, msg.RoomID)
		}

	case "game_state":
		if msg.RoomID == "" {
			return
		}
		// Pure relay: the inbound frame goes to the room byte-for-byte.
		h.hub.BroadcastToRoom(msg.RoomID, data, conn.ID())

	case "ping":
		h.reply(conn, domain.Event{Type: domain.EventPong})

	default:
		// Unknown or missing type: ignore, keep the connection.
	}
}

func (h *Handler) reply(conn domain.Connection, event domain.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		slog.Warn("marshal error", "connectionId", conn.ID(), "error", err)
		return
	}
	h.hub.Send(conn.ID(), data)
}

func (h *Handler) notifyRoom(sender domain.Connection, eventType, playerID, roomID string) {
	data, err := json.Marshal(domain.Event{Type: eventType, PlayerID: playerID, RoomID: roomID})
	if err != nil {
		slog.Warn("marshal error", "connectionId", sender.ID(), "error", err)
		return
	}
	h.hub.BroadcastToRoom(roomID, data, sender.ID())
}
