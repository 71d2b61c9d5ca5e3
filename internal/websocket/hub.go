// Beacon KPI - CRM Sync and Regional KPI Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beaconkpi

package websocket

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/beaconkpi/internal/logging"
)

// Message types for WebSocket communication
const (
	MessageTypePing          = "ping"
	MessageTypePong          = "pong"
	MessageTypeSyncProgress  = "sync_progress"
	MessageTypeSyncCompleted = "sync_completed"
	MessageTypeSyncFailed    = "sync_failed"
)

const broadcastBuffer = 256

// Message represents a WebSocket message
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// SyncProgressData is sent with sync_progress messages.
type SyncProgressData struct {
	Percent   int    `json:"percent"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// SyncFailedData is sent with sync_failed messages.
type SyncFailedData struct {
	Error     string `json:"error"`
	Timestamp string `json:"timestamp"`
}

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex
	now        func() time.Time
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan Message, broadcastBuffer),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		now:        time.Now,
	}
}

// RunWithContext serves registrations and broadcasts until ctx is done,
// then closes every client and returns ctx.Err().
//
// Lifecycle events are drained before broadcasts so a client registered
// before a broadcast always receives it.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return ctx.Err()
		default:
		}

		select {
		case client := <-h.Register:
			h.add(client)
			continue
		case client := <-h.Unregister:
			h.remove(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.shutdown()
			return ctx.Err()
		case client := <-h.Register:
			h.add(client)
		case client := <-h.Unregister:
			h.remove(client)
		case message := <-h.broadcast:
			h.broadcastToClients(message)
		}
	}
}

func (h *Hub) add(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	n := len(h.clients)
	h.mu.Unlock()
	logging.Info().Int("total_clients", n).Msg("websocket client connected")
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	n := len(h.clients)
	h.mu.Unlock()
	logging.Info().Int("total_clients", n).Msg("websocket client disconnected")
}

func (h *Hub) shutdown() {
	n := h.ClientCount()
	h.mu.Lock()
	for _, client := range h.sortedClients() {
		close(client.send)
		delete(h.clients, client)
	}
	h.mu.Unlock()
	logging.Info().Str("component", "websocket-hub").Int("clients_closed", n).Msg("websocket hub stopped")
}

// sortedClients returns clients in connection order. Callers hold mu.
func (h *Hub) sortedClients() []*Client {
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})
	return clients
}

// broadcastToClients delivers message in connection order and drops any
// client whose buffer is full.
func (h *Hub) broadcastToClients(message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.sortedClients() {
		select {
		case client.send <- message:
		default:
			close(client.send)
			delete(h.clients, client)
			logging.Warn().Uint64("client_id", client.id).Msg("websocket client too slow, dropped")
		}
	}
}

// BroadcastJSON queues a message for every client. It never blocks; when
// the queue is full the message is dropped.
func (h *Hub) BroadcastJSON(messageType string, data any) {
	select {
	case h.broadcast <- Message{Type: messageType, Data: data}:
	default:
		logging.Warn().Str("message_type", messageType).Msg("broadcast channel full, dropping message")
	}
}

// SyncProgress broadcasts a progress update. Its signature matches the
// sync orchestrator's progress callback.
func (h *Hub) SyncProgress(percent int, message string) {
	h.BroadcastJSON(MessageTypeSyncProgress, SyncProgressData{
		Percent:   percent,
		Message:   message,
		Timestamp: h.now().UTC().Format(time.RFC3339),
	})
}

// SyncCompleted broadcasts the summary of a finished sync.
func (h *Hub) SyncCompleted(summary any) {
	h.BroadcastJSON(MessageTypeSyncCompleted, summary)
}

// SyncFailed broadcasts a sync failure.
func (h *Hub) SyncFailed(err error) {
	h.BroadcastJSON(MessageTypeSyncFailed, SyncFailedData{
		Error:     err.Error(),
		Timestamp: h.now().UTC().Format(time.RFC3339),
	})
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// MarshalMessage converts a message to JSON
func MarshalMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}
