package hub

import (
	"encoding/json"
	"log/slog"

	"github.com/dog-face/snake-game/domain"
)

// Notifier translates session lifecycle events into presence broadcasts.
// Each event goes to the subscribers of that player id only; with nobody
// subscribed the broadcast is a no-op, which is the common case for a
// brand-new session.
type Notifier struct {
	hub *Hub
}

func NewNotifier(h *Hub) *Notifier {
	return &Notifier{hub: h}
}

var _ domain.PresenceNotifier = (*Notifier)(nil)

func (n *Notifier) PlayerJoin(playerID string, snapshot any) {
	n.emit(domain.EventPlayerJoin, playerID, snapshot)
}

func (n *Notifier) PlayerUpdate(playerID string, snapshot any) {
	n.emit(domain.EventPlayerUpdate, playerID, snapshot)
}

func (n *Notifier) PlayerLeave(playerID string) {
	n.emit(domain.EventPlayerLeave, playerID, nil)
}

func (n *Notifier) emit(eventType, playerID string, data any) {
	msg, err := json.Marshal(domain.PresenceEvent{
		Type:     eventType,
		PlayerID: playerID,
		Data:     data,
	})
	if err != nil {
		slog.Warn("presence event marshal failed", "type", eventType, "playerId", playerID, "error", err)
		return
	}
	n.hub.BroadcastToEntity(playerID, msg, "")
}
