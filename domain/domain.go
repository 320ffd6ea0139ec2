package domain

// Connection is the send side of one live client connection. The hub owns
// the set of live connections; everything else holds connection ids only.
type Connection interface {
	ID() string
	Send(data []byte) error
	Close() error
}

// Registry is what the transport adapter needs from the hub: a place to
// announce a new connection and a single cleanup entry point on close.
type Registry interface {
	Register(conn Connection)
	Remove(connID string)
}

// MessageHandler interprets inbound frames for one connection.
type MessageHandler interface {
	OnConnect(conn Connection)
	Handle(conn Connection, data []byte)
}

// PresenceNotifier receives domain-level session events and turns them into
// broadcasts to whoever is watching that player.
type PresenceNotifier interface {
	PlayerJoin(playerID string, snapshot any)
	PlayerUpdate(playerID string, snapshot any)
	PlayerLeave(playerID string)
}
