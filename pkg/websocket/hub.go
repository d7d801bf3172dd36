package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/ridebook/ride-booking/pkg/logger"
)

// Message is the envelope pushed to clients
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// SubscriptionCheck reports whether userID may follow events of the given trip
type SubscriptionCheck func(ctx context.Context, userID, tripID string) bool

// Hub tracks connected clients and fans out messages to them.
// Sends never block: a client whose buffer is full misses the message.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	check   SubscriptionCheck
	logger  *logger.Logger
}

// NewHub creates a new WebSocket hub
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  log,
	}
}

// SetSubscriptionCheck installs the authorization used for trip subscriptions.
// Without one every subscription is refused.
func (h *Hub) SetSubscriptionCheck(check SubscriptionCheck) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.check = check
}

// Register adds a client
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()

	h.logger.Info("Client registered",
		logger.String("client_id", client.ID),
		logger.String("user_id", client.UserID),
		logger.String("role", client.Role),
	)
}

// Unregister removes a client and closes its send buffer
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	_, ok := h.clients[client]
	if ok {
		delete(h.clients, client)
		close(client.Send)
	}
	h.mu.Unlock()

	if ok {
		h.logger.Info("Client unregistered", logger.String("client_id", client.ID))
	}
}

// Close disconnects every client
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		delete(h.clients, client)
		close(client.Send)
	}
}

// BroadcastToRole sends a message to every client connected with the role
func (h *Hub) BroadcastToRole(role string, message Message) int {
	return h.fanOut(message, func(c *Client) bool { return c.Role == role })
}

// SendToUser sends a message to every connection of one user
func (h *Hub) SendToUser(userID string, message Message) int {
	return h.fanOut(message, func(c *Client) bool { return c.UserID == userID })
}

// BroadcastToTrip sends a message to clients subscribed to the trip, except
// connections of skipUsers, which were already sent the message directly
func (h *Hub) BroadcastToTrip(tripID string, message Message, skipUsers ...string) int {
	return h.fanOut(message, func(c *Client) bool {
		for _, u := range skipUsers {
			if c.UserID == u {
				return false
			}
		}
		return c.IsSubscribed(tripID)
	})
}

// ActiveConnections returns the number of connected clients
func (h *Hub) ActiveConnections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) canSubscribe(ctx context.Context, userID, tripID string) bool {
	h.mu.RLock()
	check := h.check
	h.mu.RUnlock()

	return check != nil && check(ctx, userID, tripID)
}

// fanOut delivers to matching clients and returns how many received the message
func (h *Hub) fanOut(message Message, match func(*Client) bool) int {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("Failed to marshal message", logger.Err(err), logger.String("type", message.Type))
		return 0
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	sent := 0
	for client := range h.clients {
		if !match(client) {
			continue
		}
		select {
		case client.Send <- data:
			sent++
		default:
			h.logger.Warn("Client send buffer full",
				logger.String("client_id", client.ID),
				logger.String("type", message.Type),
			)
		}
	}
	return sent
}
