package ws

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/town-engine/internal/sim"
	"github.com/jwebster45206/town-engine/pkg/town"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestHub_SnapshotThenEvents(t *testing.T) {
	snap := sim.Snapshot{Session: "s1", Tick: 3, Period: town.Morning, NPCs: []town.View{{ID: "ravi", Name: "Ravi"}}}
	hub := NewHub(func() sim.Snapshot { return snap }, testLogger())
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dial(t, srv)

	greeting := readMessage(t, conn)
	assert.Equal(t, MessageSnapshot, greeting.Type)
	require.NotNil(t, greeting.Snapshot)
	assert.Equal(t, "s1", greeting.Snapshot.Session)
	assert.Equal(t, "Ravi", greeting.Snapshot.NPCs[0].Name)

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	hub.Publish(sim.Event{Type: sim.EventArrived, Session: "s1", Seq: 9, NPCID: "ravi", Location: "Market"})
	msg := readMessage(t, conn)
	assert.Equal(t, MessageEvent, msg.Type)
	require.NotNil(t, msg.Event)
	assert.Equal(t, sim.EventArrived, msg.Event.Type)
	assert.Equal(t, "Market", msg.Event.Location)
}

func TestHub_BroadcastsToEveryClient(t *testing.T) {
	hub := NewHub(nil, testLogger())
	srv := httptest.NewServer(hub)
	defer srv.Close()

	a, b := dial(t, srv), dial(t, srv)
	require.Eventually(t, func() bool { return hub.Clients() == 2 }, time.Second, 10*time.Millisecond)

	hub.Publish(sim.Event{Type: sim.EventTimeUpdated, Hour: 9.5})
	for _, conn := range []*websocket.Conn{a, b} {
		msg := readMessage(t, conn)
		require.NotNil(t, msg.Event)
		assert.Equal(t, 9.5, msg.Event.Hour)
	}
}

func TestHub_ClientDisconnect(t *testing.T) {
	hub := NewHub(nil, testLogger())
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dial(t, srv)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.Clients() == 0 }, 2*time.Second, 10*time.Millisecond)
	assert.NotPanics(t, func() { hub.Publish(sim.Event{Type: sim.EventThought}) })
}

func TestHub_SlowClientDropsEvents(t *testing.T) {
	hub := NewHub(nil, testLogger())
	c := &client{id: uuid.New(), send: make(chan []byte, 1)}
	hub.clients[c.id] = c

	hub.Publish(sim.Event{Seq: 1})
	hub.Publish(sim.Event{Seq: 2})
	hub.Publish(sim.Event{Seq: 3})

	assert.Len(t, c.send, 1)
	assert.Equal(t, uint64(2), c.dropped.Load())

	var msg Message
	require.NoError(t, json.Unmarshal(<-c.send, &msg))
	assert.Equal(t, uint64(1), msg.Event.Seq)
}
