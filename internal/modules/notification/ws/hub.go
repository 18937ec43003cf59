package ws

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// Hub tracks connected clients per user and pushes reminder events to them.
// The feed is one-directional: clients only receive.
type Hub struct {
	users      map[uint]map[*Client]bool
	mu         sync.RWMutex
	Register   chan *Client
	Unregister chan *Client
	Log        *slog.Logger
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		users:      make(map[uint]map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Log:        log.With(slog.String("component", "notification_hub")),
	}
}

// Run owns the register/unregister lifecycle. Start once in its own goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			if _, ok := h.users[client.UserID]; !ok {
				h.users[client.UserID] = make(map[*Client]bool)
			}
			h.users[client.UserID][client] = true
			h.mu.Unlock()
			client.Log.Info("Client registered")

		case client := <-h.Unregister:
			h.mu.Lock()
			if userClients, ok := h.users[client.UserID]; ok {
				if _, clientExists := userClients[client]; clientExists {
					close(client.Send)
					delete(userClients, client)
					if len(userClients) == 0 {
						delete(h.users, client.UserID)
					}
				}
			}
			h.mu.Unlock()
			client.Log.Info("Client unregistered")
		}
	}
}

// Publish sends a payload to every open connection the user has. A client
// with a full send buffer is skipped, not waited on.
func (h *Hub) Publish(userID uint, payload interface{}) {
	log := h.Log.With(slog.String("op", "Hub.Publish"), slog.Uint64("userID", uint64(userID)))

	data, err := json.Marshal(payload)
	if err != nil {
		log.Error("failed to marshal feed payload", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	clients, ok := h.users[userID]
	if !ok || len(clients) == 0 {
		return
	}

	for client := range clients {
		select {
		case client.Send <- data:
		default:
			log.Warn("client send buffer full, dropping feed message")
		}
	}
}
