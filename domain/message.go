package domain

// Inbound is a client command, decoded once at the socket boundary. Types
// without a matching field set are ignored by the processor.
type Inbound struct {
	Type     string `json:"type"`
	PlayerID string `json:"playerId,omitempty"`
	RoomID   string `json:"roomId,omitempty"`
}

// Event is an outbound control or notification frame (acks, room
// notifications, errors).
type Event struct {
	Type         string `json:"type"`
	ConnectionID string `json:"connectionId,omitempty"`
	PlayerID     string `json:"playerId,omitempty"`
	RoomID       string `json:"roomId,omitempty"`
	Message      string `json:"message,omitempty"`
}

// PresenceEvent carries a watched player's state to its subscribers.
// Data is null for player:leave.
type PresenceEvent struct {
	Type     string `json:"type"`
	PlayerID string `json:"playerId"`
	Data     any    `json:"data"`
}

const (
	EventConnected    = "connected"
	EventSubscribed   = "subscribed"
	EventUnsubscribed = "unsubscribed"
	EventRoomJoined   = "room_joined"
	EventRoomLeft     = "room_left"
	EventPlayerJoined = "player_joined"
	EventPlayerLeft   = "player_left"
	EventPong         = "pong"
	EventError        = "error"

	EventPlayerJoin   = "player:join"
	EventPlayerUpdate = "player:update"
	EventPlayerLeave  = "player:leave"
)
