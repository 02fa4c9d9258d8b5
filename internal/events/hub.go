package events

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mcoot/pokersignup/internal/model"
)

// Hub fans out events to the SSE clients watching one game
type Hub struct {
	gameID  model.GameID
	clients map[*Client]bool
	mu      sync.RWMutex
	logger  *slog.Logger

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	final      chan []byte
	done       chan struct{}
	closeOnce  sync.Once
}

// NewHub creates a new Hub for a game
func NewHub(gameID model.GameID, logger *slog.Logger) *Hub {
	return &Hub{
		gameID:     gameID,
		clients:    make(map[*Client]bool),
		logger:     logger.With(slog.String("game_id", string(gameID))),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256),
		final:      make(chan []byte),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	h.logger.Debug("sse hub started")
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			clientCount := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("sse client registered",
				slog.String("player_id", string(client.playerID)),
				slog.Int("total_clients", clientCount))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				clientCount := len(h.clients)
				h.mu.Unlock()
				h.logger.Info("sse client unregistered",
					slog.String("player_id", string(client.playerID)),
					slog.Duration("connection_duration", time.Since(client.connectedAt)),
					slog.Int("total_clients", clientCount))
			} else {
				h.mu.Unlock()
			}

		case message := <-h.broadcast:
			h.deliver(message)

		case message := <-h.final:
			// Anything already queued goes out ahead of the final message
			for pending := len(h.broadcast); pending > 0; pending-- {
				h.deliver(<-h.broadcast)
			}
			h.deliver(message)
			h.Close()
			h.disconnectAll()
			return

		case <-h.done:
			h.disconnectAll()
			return
		}
	}
}

func (h *Hub) deliver(message []byte) {
	h.mu.RLock()
	dropped := 0
	for client := range h.clients {
		select {
		case client.send <- message:
		default:
			dropped++
		}
	}
	sent := len(h.clients) - dropped
	h.mu.RUnlock()
	if dropped > 0 {
		h.logger.Warn("sse broadcast partial failure",
			slog.Int("sent", sent),
			slog.Int("dropped", dropped))
	}
}

// disconnectAll closes every client's stream. Buffered messages are still read first.
func (h *Hub) disconnectAll() {
	h.mu.Lock()
	clientCount := len(h.clients)
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
	h.mu.Unlock()
	h.logger.Debug("sse hub stopped", slog.Int("disconnected_clients", clientCount))
}

// Register adds a client to the hub. Returns false if the hub is closed.
func (h *Hub) Register(client *Client) bool {
	// Run may still be selecting after Close, so check done on its own first
	select {
	case <-h.done:
		return false
	default:
	}
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Broadcast sends a raw message to all clients
func (h *Hub) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn("sse broadcast dropped - hub buffer full")
	}
}

// BroadcastEvent sends an SSE event with a name and data
func (h *Hub) BroadcastEvent(eventName, data string) {
	h.Broadcast(formatSSEMessage(eventName, data))
}

// Close shuts down the hub, disconnecting every client
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// CloseWith delivers message to every client and then closes the hub.
// It returns once the hub has taken the message, or immediately if already closed.
func (h *Hub) CloseWith(message []byte) {
	select {
	case h.final <- message:
	case <-h.done:
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// formatSSEMessage formats an SSE message with event name and data.
// Each line of data gets its own "data: " prefix.
func formatSSEMessage(eventName, data string) []byte {
	var b strings.Builder
	b.WriteString("event: ")
	b.WriteString(eventName)
	b.WriteByte('\n')
	for _, line := range splitLines(data) {
		b.WriteString("data: ")
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	return []byte(b.String())
}

// splitLines splits on LF, dropping CRs and a trailing empty line
func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.TrimSuffix(s, "\n")
	return strings.Split(s, "\n")
}

// HubManager owns the hubs for all games
type HubManager struct {
	hubs   map[model.GameID]*Hub
	mu     sync.RWMutex
	logger *slog.Logger
}

// NewHubManager creates a new HubManager
func NewHubManager(logger *slog.Logger) *HubManager {
	return &HubManager{
		hubs:   make(map[model.GameID]*Hub),
		logger: logger.With(slog.String("component", "sse")),
	}
}

// GetOrCreateHub returns the hub for a game, creating and starting one if needed
func (m *HubManager) GetOrCreateHub(gameID model.GameID) *Hub {
	m.mu.Lock()
	defer m.mu.Unlock()

	if hub, ok := m.hubs[gameID]; ok {
		return hub
	}

	hub := NewHub(gameID, m.logger)
	m.hubs[gameID] = hub
	go hub.Run()
	return hub
}

// GetHub returns the hub for a game, or nil if nobody is watching it
func (m *HubManager) GetHub(gameID model.GameID) *Hub {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hubs[gameID]
}

// RemoveHub removes a hub and closes it. A non-nil farewell is delivered
// to the hub's clients before their streams end.
func (m *HubManager) RemoveHub(gameID model.GameID, farewell []byte) {
	m.mu.Lock()
	hub, ok := m.hubs[gameID]
	delete(m.hubs, gameID)
	m.mu.Unlock()

	if !ok {
		return
	}
	if farewell != nil {
		hub.CloseWith(farewell)
	} else {
		hub.Close()
	}
	m.logger.Info("sse hub removed", slog.String("game_id", string(gameID)))
}

// Join registers a new client with the game's hub. A hub closed by a
// concurrent cleanup is replaced once; nil means the game's hub kept closing.
func (m *HubManager) Join(gameID model.GameID, playerID model.PlayerID) *Client {
	for range 2 {
		hub := m.GetOrCreateHub(gameID)
		client := NewClient(hub, playerID)
		if hub.Register(client) {
			return client
		}
		m.forget(gameID, hub)
	}
	return nil
}

// forget drops a closed hub from the map if it is still the game's current hub
func (m *HubManager) forget(gameID model.GameID, hub *Hub) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hubs[gameID] == hub {
		delete(m.hubs, gameID)
	}
}

// CleanupEmptyHubs removes hubs with no clients
func (m *HubManager) CleanupEmptyHubs() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, hub := range m.hubs {
		if hub.ClientCount() == 0 {
			hub.Close()
			delete(m.hubs, id)
			removed++
		}
	}
	if removed > 0 {
		m.logger.Info("sse empty hubs cleaned up", slog.Int("removed", removed))
	}
	return removed
}

// CloseAll shuts down every hub
func (m *HubManager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, hub := range m.hubs {
		hub.Close()
		delete(m.hubs, id)
	}
}
