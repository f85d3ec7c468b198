package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/taxiride/ride-hailing/pkg/logger"
)

// User types a client can connect as
const (
	UserTypeRider  = "rider"
	UserTypeDriver = "driver"
)

// Hub maintains active client connections and routes messages to them
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
	logger     *logger.Logger
}

// Message represents a WebSocket message
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// NewHub creates a new WebSocket hub
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     log,
	}
}

// Run processes registrations until ctx is done, then closes every client.
// Run must be called once.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.logger.Info("Client registered",
				logger.String("client_id", client.ID),
				logger.String("user_type", client.UserType),
			)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
				h.logger.Info("Client unregistered", logger.String("client_id", client.ID))
			}
			h.mu.Unlock()

		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.Send)
			}
			h.mu.Unlock()
			close(h.done)
			return
		}
	}
}

// Register registers a new client. Once the hub has stopped the client's
// send channel is closed instead, so its write pump exits.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.Send)
	}
}

// Unregister unregisters a client. It is a no-op once the hub has stopped,
// since Run already closed every registered client.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// SendToUser sends a message to every connection of a user
func (h *Hub) SendToUser(userID string, message Message) int {
	return h.deliver(message, func(c *Client) bool { return c.UserID == userID })
}

// BroadcastToRide sends a message to all clients subscribed to a ride
func (h *Hub) BroadcastToRide(rideID string, message Message) int {
	return h.deliver(message, func(c *Client) bool { return c.IsSubscribedToRide(rideID) })
}

// BroadcastToType sends a message to all clients of a user type
func (h *Hub) BroadcastToType(userType string, message Message) int {
	return h.deliver(message, func(c *Client) bool { return c.UserType == userType })
}

// deliver queues the message for every matching client without blocking and
// returns how many clients got it
func (h *Hub) deliver(message Message, match func(*Client) bool) int {
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
			h.logger.Warn("Client send buffer full, message dropped",
				logger.String("client_id", client.ID),
				logger.String("type", message.Type),
			)
		}
	}
	return sent
}

// GetActiveConnections returns the number of active connections
func (h *Hub) GetActiveConnections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// GetClientsByUserType returns count of clients by user type
func (h *Hub) GetClientsByUserType(userType string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	count := 0
	for client := range h.clients {
		if client.UserType == userType {
			count++
		}
	}
	return count
}
