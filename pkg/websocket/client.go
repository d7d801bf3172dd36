package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ridebook/ride-booking/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 64
)

// Client is one authenticated WebSocket connection
type Client struct {
	ID     string
	UserID string
	Role   string
	Send   chan []byte

	hub           *Hub
	conn          *websocket.Conn
	subscriptions map[string]struct{}
	mu            sync.RWMutex
	logger        *logger.Logger
}

// ClientMessage is a command sent by the client
type ClientMessage struct {
	Type   string `json:"type"`
	TripID string `json:"trip_id,omitempty"`
}

// NewClient creates a client bound to the hub. conn may be nil in tests.
func NewClient(hub *Hub, conn *websocket.Conn, userID, role string, log *logger.Logger) *Client {
	id := uuid.NewString()
	return &Client{
		ID:            id,
		UserID:        userID,
		Role:          role,
		Send:          make(chan []byte, sendBuffer),
		hub:           hub,
		conn:          conn,
		subscriptions: make(map[string]struct{}),
		logger:        log.With(logger.String("client_id", id), logger.String("user_id", userID)),
	}
}

// ReadPump reads client commands until the connection fails, then unregisters
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("WebSocket read error", logger.Err(err))
			}
			return
		}

		c.HandleMessage(ctx, message)
	}
}

// WritePump writes queued messages and keepalive pings to the connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// HandleMessage executes one client command
func (c *Client) HandleMessage(ctx context.Context, raw []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.reply(Message{Type: "error", Data: map[string]string{"message": "malformed message"}})
		return
	}

	switch msg.Type {
	case "subscribe":
		if msg.TripID == "" || !c.hub.canSubscribe(ctx, c.UserID, msg.TripID) {
			c.reply(Message{Type: "error", Data: map[string]string{"message": "subscription refused", "trip_id": msg.TripID}})
			return
		}
		c.mu.Lock()
		c.subscriptions[msg.TripID] = struct{}{}
		c.mu.Unlock()
		c.reply(Message{Type: "subscribed", Data: map[string]string{"trip_id": msg.TripID}})

	case "unsubscribe":
		c.mu.Lock()
		delete(c.subscriptions, msg.TripID)
		c.mu.Unlock()
		c.reply(Message{Type: "unsubscribed", Data: map[string]string{"trip_id": msg.TripID}})

	case "ping":
		c.reply(Message{Type: "pong"})

	default:
		c.logger.Debug("Unknown message type", logger.String("type", msg.Type))
		c.reply(Message{Type: "error", Data: map[string]string{"message": "unknown message type"}})
	}
}

// IsSubscribed reports whether the client follows the trip
func (c *Client) IsSubscribed(tripID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.subscriptions[tripID]
	return ok
}

func (c *Client) reply(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	// the hub lock guards against a concurrent Unregister closing Send
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if _, ok := c.hub.clients[c]; !ok {
		return
	}

	select {
	case c.Send <- data:
	default:
		c.logger.Warn("Client send buffer full")
	}
}
