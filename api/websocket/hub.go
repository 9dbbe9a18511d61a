package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"cosmossdk.io/log"
	"github.com/google/uuid"

	"github.com/openalpha/fee-vault/api/middleware"
)

// Channel names. Every vault event goes to ChannelVault, and to the reserve
// and account channels named by its attributes.
const (
	ChannelVault         = "vault"
	ChannelReservePrefix = "reserve:"
	ChannelAccountPrefix = "account:"
)

// Hub maintains the set of active clients and fans events out to channels
type Hub struct {
	clients  map[*Client]bool
	channels map[string]map[*Client]bool // channel -> clients

	register    chan *Client
	unregister  chan *Client
	subscribe   chan *SubscriptionRequest
	unsubscribe chan *SubscriptionRequest

	done chan struct{}

	mu     sync.RWMutex
	config *HubConfig
	logger log.Logger
}

// HubConfig contains hub configuration
type HubConfig struct {
	MaxSubscriptions int     // per client
	MessageRateLimit float64 // inbound messages per second per client
	MessageBurst     int
}

// DefaultHubConfig returns default hub configuration
func DefaultHubConfig() *HubConfig {
	return &HubConfig{
		MaxSubscriptions: 50,
		MessageRateLimit: 10,
		MessageBurst:     20,
	}
}

// SubscriptionRequest represents a subscription request
type SubscriptionRequest struct {
	Client  *Client
	Channel string
}

// NewHub creates a new Hub
func NewHub(config *HubConfig, logger log.Logger) *Hub {
	if config == nil {
		config = DefaultHubConfig()
	}
	return &Hub{
		clients:     make(map[*Client]bool),
		channels:    make(map[string]map[*Client]bool),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		subscribe:   make(chan *SubscriptionRequest, 256),
		unsubscribe: make(chan *SubscriptionRequest, 256),
		done:        make(chan struct{}),
		config:      config,
		logger:      logger.With("module", "api/websocket"),
	}
}

// Run processes client registrations until ctx is done
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case req := <-h.subscribe:
			h.handleSubscription(req)

		case req := <-h.unsubscribe:
			h.handleUnsubscription(req)

		case <-ctx.Done():
			close(h.done)
			h.closeAll()
			return
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true
	h.logger.Debug("client connected", "client", client.id, "ip", client.ip)
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	for channel, clients := range h.channels {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.channels, channel)
		}
	}
	client.close()
	h.logger.Debug("client disconnected",
		"client", client.id,
		"channels", client.Subscriptions(),
		"connected_for", time.Since(client.joinedAt).String(),
	)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		client.close()
	}
	h.clients = make(map[*Client]bool)
	h.channels = make(map[string]map[*Client]bool)
}

func (h *Hub) enqueue(queue chan *SubscriptionRequest, req *SubscriptionRequest) {
	select {
	case queue <- req:
	case <-h.done:
	}
}

func (h *Hub) handleSubscription(req *SubscriptionRequest) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.clients[req.Client] {
		return
	}
	if _, ok := h.channels[req.Channel]; !ok {
		h.channels[req.Channel] = make(map[*Client]bool)
	}
	h.channels[req.Channel][req.Client] = true

	req.Client.Send(encode(&WSMessage{Type: "subscribed", Channel: req.Channel}))
}

func (h *Hub) handleUnsubscription(req *SubscriptionRequest) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.channels[req.Channel]; ok {
		delete(clients, req.Client)
		if len(clients) == 0 {
			delete(h.channels, req.Channel)
		}
	}
	if h.clients[req.Client] {
		req.Client.Send(encode(&WSMessage{Type: "unsubscribed", Channel: req.Channel}))
	}
}

// BroadcastToChannel sends a message to all clients subscribed to a channel.
// A client whose buffer is full is disconnected.
func (h *Hub) BroadcastToChannel(channel string, message *WSMessage) {
	h.mu.RLock()
	clients, ok := h.channels[channel]
	if !ok {
		h.mu.RUnlock()
		return
	}
	clientList := make([]*Client, 0, len(clients))
	for client := range clients {
		clientList = append(clientList, client)
	}
	h.mu.RUnlock()

	data := encode(message)
	if data == nil {
		return
	}
	for _, client := range clientList {
		client.Send(data)
	}
}

// PublishEvent delivers a vault event to every channel it belongs to
func (h *Hub) PublishEvent(event *EventMessage) {
	for _, channel := range EventChannels(event) {
		h.BroadcastToChannel(channel, &WSMessage{Type: "event", Channel: channel, Data: event})
	}
}

// EventChannels lists the channels an event is delivered on
func EventChannels(event *EventMessage) []string {
	channels := []string{ChannelVault}
	if reserve := event.Attributes["reserve_id"]; reserve != "" {
		channels = append(channels, ChannelReservePrefix+reserve)
	} else if asset := event.Attributes["asset"]; asset != "" {
		channels = append(channels, ChannelReservePrefix+asset)
	}
	seen := make(map[string]bool)
	for _, key := range []string{"user", "recipient", "admin", "new_admin"} {
		account := event.Attributes[key]
		if account == "" || seen[account] {
			continue
		}
		seen[account] = true
		channels = append(channels, ChannelAccountPrefix+account)
	}
	return channels
}

// ValidChannel reports whether a client may subscribe to channel
func ValidChannel(channel string) bool {
	switch {
	case channel == ChannelVault:
		return true
	case strings.HasPrefix(channel, ChannelReservePrefix):
		return len(channel) > len(ChannelReservePrefix)
	case strings.HasPrefix(channel, ChannelAccountPrefix):
		return len(channel) > len(ChannelAccountPrefix)
	}
	return false
}

// ============ Message Types ============

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type    string      `json:"type"`
	Channel string      `json:"channel,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// EventMessage is a vault or pool event observed in a finalized block
type EventMessage struct {
	ID         string            `json:"id"`
	Height     int64             `json:"height"`
	TxIndex    int               `json:"tx_index"` // -1 for block-level events
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
	Time       time.Time         `json:"time"`
}

func encode(message *WSMessage) []byte {
	data, err := json.Marshal(message)
	if err != nil {
		return nil
	}
	return data
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// GetChannelClientCount returns the number of clients in a channel
func (h *Hub) GetChannelClientCount(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channel])
}

// ServeWS handles WebSocket upgrade requests
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", "error", err)
		return
	}

	clientID := r.URL.Query().Get("client_id")
	if clientID == "" {
		clientID = uuid.NewString()
	}
	client := NewClient(h, conn, clientID, middleware.ClientIP(r))

	select {
	case h.register <- client:
	case <-h.done:
		_ = conn.Close()
		return
	}

	go client.writeLoop()
	go client.readLoop()
}
