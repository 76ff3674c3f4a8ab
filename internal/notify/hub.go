package notify

import (
	"sync"

	"CryptoPulse/internal/domain/models"
	drepo "CryptoPulse/internal/domain/repository"
	applogger "CryptoPulse/pkg/logger"
)

// Conn is the minimal live-connection surface the hub needs. The hub tracks
// membership only; it never owns a connection's lifecycle.
type Conn interface {
	WriteJSON(v any) error
	Close() error
}

// Hub fans typed alerts out to every live connection of an entity.
// Delivery is best-effort, at-most-once: a connection that errors is dropped,
// nothing is queued, and an offline client simply misses the alert.
type Hub struct {
	mu      sync.Mutex
	conns   map[string]map[Conn]struct{}
	log     *applogger.Logger
	metrics drepo.Metrics
}

func NewHub(log *applogger.Logger, metrics drepo.Metrics) *Hub {
	return &Hub{conns: make(map[string]map[Conn]struct{}), log: log, metrics: metrics}
}

// Register adds a live connection for an entity.
func (h *Hub) Register(entityID string, c Conn) {
	h.mu.Lock()
	set, ok := h.conns[entityID]
	if !ok {
		set = make(map[Conn]struct{})
		h.conns[entityID] = set
	}
	set[c] = struct{}{}
	total := h.totalLocked()
	h.mu.Unlock()
	h.metrics.SetLiveConnections(total)
}

// Unregister removes a connection; the entity's entry disappears once its
// last connection is gone.
func (h *Hub) Unregister(entityID string, c Conn) {
	h.mu.Lock()
	if set, ok := h.conns[entityID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.conns, entityID)
		}
	}
	total := h.totalLocked()
	h.mu.Unlock()
	h.metrics.SetLiveConnections(total)
}

// Broadcast pushes an alert to all of the entity's live connections. Failed
// connections are closed and removed without aborting delivery to the rest.
// Broadcasting to an entity with no connections is a no-op.
func (h *Hub) Broadcast(entityID string, alert models.Alert) int {
	msg := models.NewAlertPush(alert)

	h.mu.Lock()
	set, ok := h.conns[entityID]
	if !ok {
		h.mu.Unlock()
		return 0
	}
	targets := make([]Conn, 0, len(set))
	for c := range set {
		targets = append(targets, c)
	}
	h.mu.Unlock()

	delivered := 0
	for _, c := range targets {
		if err := c.WriteJSON(msg); err != nil {
			h.log.Warn("dropping dead connection",
				applogger.String("entity", entityID), applogger.Error(err))
			_ = c.Close()
			h.Unregister(entityID, c)
			continue
		}
		delivered++
	}
	return delivered
}

// Connections returns the live connection count for an entity.
func (h *Hub) Connections(entityID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns[entityID])
}

// HasEntity reports whether the entity still has a registry entry.
func (h *Hub) HasEntity(entityID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.conns[entityID]
	return ok
}

func (h *Hub) totalLocked() int {
	n := 0
	for _, set := range h.conns {
		n += len(set)
	}
	return n
}
