// internal/hub/hub.go
package hub

import (
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Hub tracks live connections and the room each one listens to. A connection
// listens to at most one room at a time.
type Hub struct {
	mu     sync.Mutex
	conns  map[uuid.UUID]*Conn
	topics map[string]map[uuid.UUID]struct{}
	topic  map[uuid.UUID]string // conn -> room

	logger *logrus.Logger
}

func New(logger *logrus.Logger) *Hub {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Hub{
		conns:  make(map[uuid.UUID]*Conn),
		topics: make(map[string]map[uuid.UUID]struct{}),
		topic:  make(map[uuid.UUID]string),
		logger: logger,
	}
}

// Register makes c reachable through Send and Broadcast.
func (h *Hub) Register(c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.conns[c.ID]; exists {
		h.logger.WithField("conn", c.ID).Warn("hub: connection registered twice")
		return
	}
	h.conns[c.ID] = c
}

// Unregister forgets the connection and its subscription.
func (h *Hub) Unregister(id uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.unsubscribeUnsafe(id)
	delete(h.conns, id)
}

// Subscribe moves the connection to roomID.
func (h *Hub) Subscribe(roomID string, id uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.topic[id] == roomID {
		return
	}
	h.unsubscribeUnsafe(id)
	set, ok := h.topics[roomID]
	if !ok {
		set = make(map[uuid.UUID]struct{})
		h.topics[roomID] = set
	}
	set[id] = struct{}{}
	h.topic[id] = roomID
}

// Unsubscribe stops room broadcasts to the connection.
func (h *Hub) Unsubscribe(id uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.unsubscribeUnsafe(id)
}

func (h *Hub) unsubscribeUnsafe(id uuid.UUID) {
	roomID, ok := h.topic[id]
	if !ok {
		return
	}
	delete(h.topic, id)
	if set := h.topics[roomID]; set != nil {
		delete(set, id)
		if len(set) == 0 {
			delete(h.topics, roomID)
		}
	}
}

// Send queues msg for one connection. It reports false if the connection is
// unknown or its queue is full.
func (h *Hub) Send(id uuid.UUID, msg map[string]interface{}) bool {
	h.mu.Lock()
	c, ok := h.conns[id]
	h.mu.Unlock()
	if !ok {
		return false
	}
	return c.Write(msg)
}

// Broadcast queues msg for every connection subscribed to roomID and returns
// how many accepted it.
func (h *Hub) Broadcast(roomID string, msg map[string]interface{}) int {
	h.mu.Lock()
	targets := make([]*Conn, 0, len(h.topics[roomID]))
	for id := range h.topics[roomID] {
		if c, ok := h.conns[id]; ok {
			targets = append(targets, c)
		}
	}
	h.mu.Unlock()

	sent := 0
	for _, c := range targets {
		if c.Write(msg) {
			sent++
		}
	}
	return sent
}

// Subscribers returns the number of connections listening to roomID.
func (h *Hub) Subscribers(roomID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.topics[roomID])
}
