package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/moderator/internal/app/models/dto"
)

// Message is one live update pushed to the subscribers of an event
type Message struct {
	// Type is one of question.accepted, question.updated, question.removed
	Type      string               `json:"type"`
	EventID   int64                `json:"eventId"`
	Question  dto.QuestionResponse `json:"question"`
	Timestamp time.Time            `json:"timestamp"`
}

// Hub keeps the live subscribers of each event and fans messages out to them
type Hub struct {
	// clients by event ID; only the Run goroutine writes it
	clients map[int64]map[*Client]bool

	broadcast  chan *Message
	register   chan *Client
	unregister chan *Client
	// done is closed when Run returns
	done chan struct{}

	// mu guards reads of clients from other goroutines
	mu sync.RWMutex

	now    func() time.Time
	logger zerolog.Logger
}

// NewHub creates a new Hub instance
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[int64]map[*Client]bool),
		broadcast:  make(chan *Message, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		now:        time.Now,
		logger:     logger.With().Str("component", "live").Logger(),
	}
}

// Run serves registrations and broadcasts until ctx is done, then closes every client
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)
		case client := <-h.unregister:
			h.unregisterClient(client)
		case message := <-h.broadcast:
			h.broadcastMessage(message)
		case <-ctx.Done():
			h.closeAll()
			close(h.done)
			return
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.eventID]; !ok {
		h.clients[client.eventID] = make(map[*Client]bool)
	}
	h.clients[client.eventID][client] = true

	h.logger.Debug().
		Int64("eventID", client.eventID).
		Int64("userID", client.userID).
		Msg("Client registered")
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(client)
}

func (h *Hub) removeLocked(client *Client) {
	clients, ok := h.clients[client.eventID]
	if !ok || !clients[client] {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.clients, client.eventID)
	}
	h.logger.Debug().
		Int64("eventID", client.eventID).
		Int64("userID", client.userID).
		Msg("Client unregistered")
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, clients := range h.clients {
		for client := range clients {
			h.removeLocked(client)
		}
	}
}

// broadcastMessage sends message to every subscriber of its event. Subscribers whose
// buffer is full are dropped.
func (h *Hub) broadcastMessage(message *Message) {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error().Err(err).Int64("eventID", message.EventID).Msg("Failed to marshal message for broadcast")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	clients := h.clients[message.EventID]
	for client := range clients {
		select {
		case client.send <- data:
		default:
			h.logger.Warn().Int64("userID", client.userID).Msg("Dropping slow live client")
			h.removeLocked(client)
		}
	}

	h.logger.Debug().
		Int64("eventID", message.EventID).
		Str("type", message.Type).
		Int("clientCount", len(clients)).
		Msg("Message broadcasted to event")
}

// Register adds client to its event; false when the hub has stopped
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes client from its event
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// PublishQuestion queues a question change for the event's subscribers.
// It never blocks the caller; when the queue is full the message is dropped.
func (h *Hub) PublishQuestion(eventID int64, kind string, question dto.QuestionResponse) {
	message := &Message{
		Type:      kind,
		EventID:   eventID,
		Question:  question,
		Timestamp: h.now(),
	}
	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn().Int64("eventID", eventID).Str("type", kind).Msg("Live queue full, message dropped")
	}
}

// ClientsCount returns the number of live subscribers of an event
func (h *Hub) ClientsCount(eventID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[eventID])
}
