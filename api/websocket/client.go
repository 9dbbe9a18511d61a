package websocket

import (
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

// Actions a client may send
const (
	ActionSubscribe   = "subscribe"
	ActionUnsubscribe = "unsubscribe"
	ActionPing        = "ping"
)

const (
	writeTimeout    = 10 * time.Second
	idleTimeout     = 60 * time.Second
	keepalivePeriod = idleTimeout * 9 / 10

	maxInboundBytes = 4096
	outboxSize      = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// streamed events are public chain data
	CheckOrigin: func(*http.Request) bool { return true },
}

// ClientMessage is a request sent by a subscriber
type ClientMessage struct {
	Action  string `json:"action"`
	Channel string `json:"channel,omitempty"`
}

// Client is one websocket subscriber. The hub writes to outbox; writeLoop
// drains it onto the connection.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	id   string
	ip   string

	outboxMu sync.Mutex
	outbox   chan []byte
	closed   bool
	slow     atomic.Bool

	subsMu sync.Mutex
	subs   map[string]bool

	limiter  *rate.Limiter
	joinedAt time.Time
}

// NewClient wraps an upgraded connection
func NewClient(hub *Hub, conn *websocket.Conn, id, ip string) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		id:       id,
		ip:       ip,
		outbox:   make(chan []byte, outboxSize),
		subs:     make(map[string]bool),
		limiter:  rate.NewLimiter(rate.Limit(hub.config.MessageRateLimit), hub.config.MessageBurst),
		joinedAt: time.Now(),
	}
}

func (c *Client) touch() error {
	return c.conn.SetReadDeadline(time.Now().Add(idleTimeout))
}

// readLoop handles client requests until the connection fails or goes idle
func (c *Client) readLoop() {
	defer c.leave()

	c.conn.SetReadLimit(maxInboundBytes)
	_ = c.touch()
	c.conn.SetPongHandler(func(string) error { return c.touch() })

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Debug("websocket read failed", "client", c.id, "error", err)
			}
			return
		}
		if !c.limiter.Allow() {
			c.sendError("rate_limit_exceeded", "too many messages")
			continue
		}

		var msg ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.sendError("invalid_message", "message is not valid JSON")
			continue
		}
		c.dispatch(msg)
	}
}

func (c *Client) leave() {
	select {
	case c.hub.unregister <- c:
	case <-c.hub.done:
	}
	_ = c.conn.Close()
}

func (c *Client) writeFrame(messageType int, payload []byte) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(messageType, payload)
}

// writeLoop sends queued messages and keepalive pings. It exits when the
// outbox is closed or a write fails. A client dropped for falling behind
// gets a policy-violation close frame instead of its backlog.
func (c *Client) writeLoop() {
	keepalive := time.NewTicker(keepalivePeriod)
	defer keepalive.Stop()
	defer c.conn.Close()

	for {
		select {
		case payload, open := <-c.outbox:
			if c.slow.Load() {
				_ = c.writeFrame(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "client too slow"))
				return
			}
			if !open {
				_ = c.writeFrame(websocket.CloseMessage, []byte{})
				return
			}
			if c.writeFrame(websocket.TextMessage, payload) != nil {
				return
			}
		case <-keepalive.C:
			if c.writeFrame(websocket.PingMessage, nil) != nil {
				return
			}
		}
	}
}

func (c *Client) dispatch(msg ClientMessage) {
	switch msg.Action {
	case ActionSubscribe:
		c.subscribe(msg.Channel)
	case ActionUnsubscribe:
		c.unsubscribe(msg.Channel)
	case ActionPing:
		c.Send(encode(&WSMessage{Type: "pong", Data: map[string]int64{"timestamp": time.Now().UnixMilli()}}))
	default:
		c.sendError("unknown_action", "unknown action: "+msg.Action)
	}
}

func (c *Client) subscribe(channel string) {
	if !ValidChannel(channel) {
		c.sendError("invalid_channel", "unknown channel: "+channel)
		return
	}

	c.subsMu.Lock()
	full := !c.subs[channel] && len(c.subs) >= c.hub.config.MaxSubscriptions
	if !full {
		c.subs[channel] = true
	}
	c.subsMu.Unlock()
	if full {
		c.sendError("subscription_limit", "subscription limit reached")
		return
	}

	c.hub.enqueue(c.hub.subscribe, &SubscriptionRequest{Client: c, Channel: channel})
}

func (c *Client) unsubscribe(channel string) {
	c.subsMu.Lock()
	delete(c.subs, channel)
	c.subsMu.Unlock()

	c.hub.enqueue(c.hub.unsubscribe, &SubscriptionRequest{Client: c, Channel: channel})
}

func (c *Client) sendError(code, message string) {
	c.Send(encode(&WSMessage{
		Type: "error",
		Data: map[string]string{"code": code, "message": message},
	}))
}

// Send queues a message without blocking and reports whether it was queued.
// A client whose outbox is full is dropped: the outbox is closed, writeLoop
// closes the connection and readLoop unregisters it from the hub.
func (c *Client) Send(payload []byte) bool {
	if payload == nil {
		return false
	}
	c.outboxMu.Lock()
	defer c.outboxMu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.outbox <- payload:
		return true
	default:
	}

	c.slow.Store(true)
	c.closed = true
	close(c.outbox)
	c.hub.logger.Info("dropping slow websocket client", "client", c.id, "ip", c.ip)
	return false
}

// Dropped reports whether the client was disconnected for falling behind
func (c *Client) Dropped() bool {
	return c.slow.Load()
}

func (c *Client) close() {
	c.outboxMu.Lock()
	defer c.outboxMu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.outbox)
	}
}

// Subscriptions returns the client's channels in sorted order
func (c *Client) Subscriptions() []string {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()

	channels := make([]string, 0, len(c.subs))
	for channel := range c.subs {
		channels = append(channels, channel)
	}
	sort.Strings(channels)
	return channels
}
