package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cosmossdk.io/log"
	gws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func dial(t *testing.T, server *httptest.Server) *gws.Conn {
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := gws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *gws.Conn) map[string]interface{} {
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg map[string]interface{}
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestHubDeliversEventsToSubscribers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(nil, log.NewNopLogger())
	go hub.Run(ctx)
	server := httptest.NewServer(httpHandler(hub))
	defer server.Close()

	conn := dial(t, server)
	require.NoError(t, conn.WriteJSON(ClientMessage{Action: ActionSubscribe, Channel: "reserve:uusdc"}))
	msg := readMessage(t, conn)
	require.Equal(t, "subscribed", msg["type"])
	require.Equal(t, "reserve:uusdc", msg["channel"])

	hub.PublishEvent(&EventMessage{ID: "other", Type: "vault_deposit", Attributes: map[string]string{"reserve_id": "uatom"}})
	hub.PublishEvent(&EventMessage{ID: "mine", Type: "vault_deposit", Attributes: map[string]string{"reserve_id": "uusdc"}})

	msg = readMessage(t, conn)
	require.Equal(t, "event", msg["type"])
	data := msg["data"].(map[string]interface{})
	require.Equal(t, "mine", data["id"])
}

func TestHubRejectsUnknownChannels(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(nil, log.NewNopLogger())
	go hub.Run(ctx)
	server := httptest.NewServer(httpHandler(hub))
	defer server.Close()

	conn := dial(t, server)
	require.NoError(t, conn.WriteJSON(ClientMessage{Action: ActionSubscribe, Channel: "ticker:BTC"}))
	msg := readMessage(t, conn)
	require.Equal(t, "error", msg["type"])

	require.NoError(t, conn.WriteJSON(ClientMessage{Action: ActionPing}))
	msg = readMessage(t, conn)
	require.Equal(t, "pong", msg["type"])
}

func TestEventChannels(t *testing.T) {
	event := &EventMessage{Attributes: map[string]string{
		"reserve_id": "uusdc",
		"user":       "alice",
		"recipient":  "alice",
		"admin":      "carol",
	}}
	require.Equal(t, []string{"vault", "reserve:uusdc", "account:alice", "account:carol"}, EventChannels(event))

	pool := &EventMessage{Attributes: map[string]string{"asset": "uatom"}}
	require.Equal(t, []string{"vault", "reserve:uatom"}, EventChannels(pool))

	require.True(t, ValidChannel("vault"))
	require.True(t, ValidChannel("account:alice"))
	require.False(t, ValidChannel("reserve:"))
	require.False(t, ValidChannel("orders:alice"))
}

func httpHandler(hub *Hub) http.Handler {
	return http.HandlerFunc(hub.ServeWS)
}

func TestSlowClientIsDropped(t *testing.T) {
	hub := NewHub(nil, log.NewNopLogger())
	client := NewClient(hub, nil, "slow", "127.0.0.1")
	hub.clients[client] = true
	hub.channels[ChannelVault] = map[*Client]bool{client: true}

	for i := 0; i < outboxSize; i++ {
		hub.PublishEvent(&EventMessage{ID: "fill", Type: "vault_deposit"})
	}
	require.False(t, client.Dropped())
	require.Len(t, client.outbox, outboxSize)

	hub.PublishEvent(&EventMessage{ID: "overflow", Type: "vault_deposit"})
	require.True(t, client.Dropped())
	require.False(t, client.Send([]byte(`{}`)))

	// the backlog is still readable but the outbox is closed
	drained := 0
	for range client.outbox {
		drained++
	}
	require.Equal(t, outboxSize, drained)

	// unregistering a dropped client does not close the outbox twice
	require.NotPanics(t, func() { hub.unregisterClient(client) })
	require.Zero(t, hub.GetClientCount())
}

func TestSlowClientConnectionIsClosed(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(nil, log.NewNopLogger())
	go hub.Run(ctx)
	server := httptest.NewServer(httpHandler(hub))
	defer server.Close()

	conn := dial(t, server)
	require.NoError(t, conn.WriteJSON(ClientMessage{Action: ActionSubscribe, Channel: ChannelVault}))
	require.Equal(t, "subscribed", readMessage(t, conn)["type"])

	var client *Client
	hub.mu.RLock()
	for c := range hub.clients {
		client = c
	}
	hub.mu.RUnlock()
	require.NotNil(t, client)

	// nothing reads the connection, so socket buffers fill and then the outbox
	payload := []byte(`"` + strings.Repeat("x", 64*1024) + `"`)
	queued := 0
	for client.Send(payload) {
		queued++
		require.Less(t, queued, 100_000, "outbox never filled")
	}
	require.True(t, client.Dropped())

	// the backlog already on the wire is followed by a policy-violation close
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(10*time.Second)))
	for {
		_, _, err := conn.ReadMessage()
		if err == nil {
			continue
		}
		require.True(t, gws.IsCloseError(err, gws.ClosePolicyViolation), "got %v", err)
		break
	}

	require.Eventually(t, func() bool { return hub.GetClientCount() == 0 }, 5*time.Second, 10*time.Millisecond)
}
