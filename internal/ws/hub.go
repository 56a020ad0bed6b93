package ws

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/rvail/docchat/internal/models"
)

// event is the frame pushed to connected clients.
type event struct {
	Type    string      `json:"type"`
	Message interface{} `json:"message,omitempty"`
}

type messagePayload struct {
	ID                string `json:"id"`
	SenderUsername    string `json:"senderUsername"`
	RecipientUsername string `json:"recipientUsername"`
	Content           string `json:"content"`
	Timestamp         string `json:"timestamp"`
}

// Hub fans newly created chat messages out to the open connections of
// the two endpoints. All client bookkeeping happens on the Run goroutine.
type Hub struct {
	// Registered clients, keyed by username. A user may hold several
	// connections (multiple tabs).
	clients map[string]map[*Client]bool

	// Outbound messages to deliver.
	notify chan *models.Message

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	log *slog.Logger
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		notify:     make(chan *models.Message, 16),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[string]map[*Client]bool),
		log:        log,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			conns := h.clients[client.username]
			if conns == nil {
				conns = make(map[*Client]bool)
				h.clients[client.username] = conns
			}
			conns[client] = true
		case client := <-h.unregister:
			if conns, ok := h.clients[client.username]; ok {
				if _, ok := conns[client]; ok {
					delete(conns, client)
					close(client.send)
					if len(conns) == 0 {
						delete(h.clients, client.username)
					}
				}
			}
		case msg := <-h.notify:
			frame, err := json.Marshal(event{
				Type: "message",
				Message: messagePayload{
					ID:                msg.ID,
					SenderUsername:    msg.SenderUsername,
					RecipientUsername: msg.RecipientUsername,
					Content:           msg.Content,
					Timestamp:         msg.Timestamp.UTC().Format("2006-01-02T15:04:05.000Z"),
				},
			})
			if err != nil {
				h.log.Error("marshal ws event", "error", err)
				continue
			}
			h.deliver(msg.RecipientUsername, frame)
			if msg.SenderUsername != msg.RecipientUsername {
				h.deliver(msg.SenderUsername, frame)
			}
		}
	}
}

func (h *Hub) deliver(username string, frame []byte) {
	for client := range h.clients[username] {
		select {
		case client.send <- frame:
		default:
			close(client.send)
			delete(h.clients[username], client)
		}
	}
}

// NotifyMessage queues a persisted message for delivery to both
// endpoints. Never blocks the HTTP handler: if the hub is saturated the
// event is dropped after a short wait.
func (h *Hub) NotifyMessage(msg *models.Message) {
	select {
	case h.notify <- msg:
	case <-time.After(100 * time.Millisecond):
		h.log.Warn("ws hub saturated, dropping event", "message_id", msg.ID)
	}
}
