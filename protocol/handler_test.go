package protocol

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dog-face/snake-game/domain"
	"github.com/dog-face/snake-game/hub"
)

type mockConn struct {
	id       string
	received [][]byte
	mu       sync.Mutex
}

func (m *mockConn) ID() string { return m.id }

func (m *mockConn) Send(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.received = append(m.received, data)
	return nil
}

func (m *mockConn) Close() error { return nil }

func (m *mockConn) getReceived() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.received
}

func (m *mockConn) lastEvent(t *testing.T) domain.Event {
	t.Helper()
	received := m.getReceived()
	require.NotEmpty(t, received)
	var event domain.Event
	require.NoError(t, json.Unmarshal(received[len(received)-1], &event))
	return event
}

func setup(t *testing.T, ids ...string) (*hub.Hub, *Handler, []*mockConn) {
	t.Helper()
	h := hub.New()
	handler := NewHandler(h, "Connected to Snake Game WebSocket")
	conns := make([]*mockConn, len(ids))
	for i, id := range ids {
		conns[i] = &mockConn{id: id}
		h.Register(conns[i])
	}
	return h, handler, conns
}

func TestHandler_OnConnect(t *testing.T) {
	_, handler, conns := setup(t, "c1")

	handler.OnConnect(conns[0])

	event := conns[0].lastEvent(t)
	assert.Equal(t, "connected", event.Type)
	assert.Equal(t, "c1", event.ConnectionID)
	assert.Equal(t, "Connected to Snake Game WebSocket", event.Message)
}

func TestHandler_PingPong(t *testing.T) {
	_, handler, conns := setup(t, "c1")

	handler.Handle(conns[0], []byte(`{"type":"ping"}`))

	assert.Equal(t, "pong", conns[0].lastEvent(t).Type)
}

func TestHandler_ConcurrentPings(t *testing.T) {
	_, handler, conns := setup(t, "c1", "c2")

	var wg sync.WaitGroup
	for _, conn := range conns {
		wg.Add(1)
		go func(c *mockConn) {
			defer wg.Done()
			handler.Handle(c, []byte(`{"type":"ping"}`))
		}(conn)
	}
	wg.Wait()

	for _, conn := range conns {
		received := conn.getReceived()
		require.Len(t, received, 1, "conn %s", conn.id)
		assert.Equal(t, "pong", conn.lastEvent(t).Type)
	}
}

func TestHandler_Subscribe(t *testing.T) {
	h, handler, conns := setup(t, "c1")

	handler.Handle(conns[0], []byte(`{"type":"subscribe","playerId":"p1"}`))

	event := conns[0].lastEvent(t)
	assert.Equal(t, "subscribed", event.Type)
	assert.Equal(t, "p1", event.PlayerID)
	assert.Len(t, h.Subscribers("p1"), 1)
}

func TestHandler_SubscribeWithoutPlayerIDIsSilentlyIgnored(t *testing.T) {
	_, handler, conns := setup(t, "c1")

	handler.Handle(conns[0], []byte(`{"type":"subscribe"}`))
	assert.Empty(t, conns[0].getReceived())

	// connection still works
	handler.Handle(conns[0], []byte(`{"type":"ping"}`))
	assert.Equal(t, "pong", conns[0].lastEvent(t).Type)
}

func TestHandler_Unsubscribe(t *testing.T) {
	h, handler, conns := setup(t, "c1")

	handler.Handle(conns[0], []byte(`{"type":"subscribe","playerId":"p1"}`))
	handler.Handle(conns[0], []byte(`{"type":"unsubscribe","playerId":"p1"}`))

	event := conns[0].lastEvent(t)
	assert.Equal(t, "unsubscribed", event.Type)
	assert.Equal(t, "p1", event.PlayerID)
	assert.Empty(t, h.Subscribers("p1"))
}

func TestHandler_JoinRoom(t *testing.T) {
	_, handler, conns := setup(t, "a", "b")
	a, b := conns[0], conns[1]

	handler.Handle(a, []byte(`{"type":"join_room","roomId":"r1","playerId":"pa"}`))
	require.Len(t, a.getReceived(), 1)
	event := a.lastEvent(t)
	assert.Equal(t, "room_joined", event.Type)
	assert.Equal(t, "r1", event.RoomID)

	handler.Handle(b, []byte(`{"type":"join_room","roomId":"r1","playerId":"pb"}`))

	// the earlier member hears about the join, the joiner does not echo itself
	require.Len(t, a.getReceived(), 2)
	joined := a.lastEvent(t)
	assert.Equal(t, "player_joined", joined.Type)
	assert.Equal(t, "pb", joined.PlayerID)
	assert.Equal(t, "r1", joined.RoomID)

	require.Len(t, b.getReceived(), 1)
	assert.Equal(t, "room_joined", b.lastEvent(t).Type)
}

func TestHandler_JoinRoomMissingFieldsIsIgnored(t *testing.T) {
	_, handler, conns := setup(t, "c1")

	handler.Handle(conns[0], []byte(`{"type":"join_room","roomId":"r1"}`))
	handler.Handle(conns[0], []byte(`{"type":"join_room","playerId":"pa"}`))

	assert.Empty(t, conns[0].getReceived())
}

func TestHandler_LeaveRoom(t *testing.T) {
	_, handler, conns := setup(t, "a", "b")
	a, b := conns[0], conns[1]

	handler.Handle(a, []byte(`{"type":"join_room","roomId":"r1","playerId":"pa"}`))
	handler.Handle(b, []byte(`{"type":"join_room","roomId":"r1","playerId":"pb"}`))

	handler.Handle(a, []byte(`{"type":"leave_room","roomId":"r1"}`))

	left := a.lastEvent(t)
	assert.Equal(t, "room_left", left.Type)
	assert.Equal(t, "r1", left.RoomID)

	// the remaining member is told who left
	notification := b.lastEvent(t)
	assert.Equal(t, "player_left", notification.Type)
	assert.Equal(t, "pa", notification.PlayerID)
	assert.Equal(t, "r1", notification.RoomID)
}

func TestHandler_LeaveRoomWithoutJoinSkipsNotification(t *testing.T) {
	_, handler, conns := setup(t, "a", "b")
	a, b := conns[0], conns[1]

	handler.Handle(b, []byte(`{"type":"join_room","roomId":"r1","playerId":"pb"}`))
	before := len(b.getReceived())

	// a was never in r1: it still gets the ack, b hears nothing
	handler.Handle(a, []byte(`{"type":"leave_room","roomId":"r1"}`))

	assert.Equal(t, "room_left", a.lastEvent(t).Type)
	assert.Len(t, b.getReceived(), before)
}

func TestHandler_GameStateRelayedVerbatim(t *testing.T) {
	_, handler, conns := setup(t, "a", "b")
	a, b := conns[0], conns[1]

	handler.Handle(a, []byte(`{"type":"join_room","roomId":"r1","playerId":"pa"}`))
	handler.Handle(b, []byte(`{"type":"join_room","roomId":"r1","playerId":"pb"}`))

	frame := []byte(`{"type":"game_state","roomId":"r1","X":1,"nested":{"y":[1,2,3]}}`)
	sent := len(a.getReceived())
	handler.Handle(a, frame)

	// receiver gets the exact bytes, the sender gets nothing back
	received := b.getReceived()
	require.NotEmpty(t, received)
	assert.Equal(t, string(frame), string(received[len(received)-1]))
	assert.Len(t, a.getReceived(), sent)
}

func TestHandler_GameStateWithoutRoomIsIgnored(t *testing.T) {
	_, handler, conns := setup(t, "c1")

	handler.Handle(conns[0], []byte(`{"type":"game_state","X":1}`))

	assert.Empty(t, conns[0].getReceived())
}

func TestHandler_InvalidJSON(t *testing.T) {
	_, handler, conns := setup(t, "c1")

	handler.Handle(conns[0], []byte("not json"))

	event := conns[0].lastEvent(t)
	assert.Equal(t, "error", event.Type)
	assert.Contains(t, event.Message, "JSON")
}

func TestHandler_UnknownTypeIsIgnored(t *testing.T) {
	_, handler, conns := setup(t, "c1")

	handler.Handle(conns[0], []byte(`{"type":"frobnicate"}`))
	handler.Handle(conns[0], []byte(`{"data":"no type field"}`))
	assert.Empty(t, conns[0].getReceived())

	// connection keeps working afterwards
	handler.Handle(conns[0], []byte(`{"type":"ping"}`))
	assert.Equal(t, "pong", conns[0].lastEvent(t).Type)
}
