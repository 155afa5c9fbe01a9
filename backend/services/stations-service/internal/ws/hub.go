package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"evmap/backend/services/stations-service/internal/models"
)

// RefreshEvent is pushed to every subscriber after a refresh run.
type RefreshEvent struct {
	Type      string                        `json:"type"`
	Success   bool                          `json:"success"`
	Stats     map[string]models.VendorStats `json:"stats"`
	Failures  map[string]string             `json:"failures,omitempty"`
	Timestamp time.Time                     `json:"timestamp"`
}

// Hub tracks browser subscriptions on /api/ws.
type Hub struct {
	mu           sync.RWMutex
	connections  map[string]*Connection
	pingInterval time.Duration
	writeTimeout time.Duration
	upgrader     websocket.Upgrader
	logger       *zap.Logger
}

// NewHub builds the subscription hub.
func NewHub(pingInterval, writeTimeout time.Duration, logger *zap.Logger) *Hub {
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		connections:  make(map[string]*Connection),
		pingInterval: pingInterval,
		writeTimeout: writeTimeout,
		logger:       logger.Named("ws"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// ServeHTTP upgrades the request and keeps the subscriber until it leaves.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	connection := NewConnection(uuid.NewString(), conn, h.pingInterval, h.writeTimeout, h.logger, h.remove)
	h.add(connection)
	h.logger.Info("subscriber connected", zap.String("conn_id", connection.ID()), zap.String("remote", r.RemoteAddr))

	go connection.Start()
}

func (h *Hub) add(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connections[conn.ID()] = conn
}

func (h *Hub) remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.connections, id)
}

// Count returns the number of live subscribers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// Broadcast queues msg on every subscriber and returns how many accepted it.
func (h *Hub) Broadcast(msg []byte) int {
	h.mu.RLock()
	conns := make([]*Connection, 0, len(h.connections))
	for _, c := range h.connections {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, c := range conns {
		if c.Send(msg) {
			delivered++
		}
	}
	return delivered
}

// RefreshCompleted announces a finished refresh run.
func (h *Hub) RefreshCompleted(run models.RefreshRun) {
	payload, err := json.Marshal(RefreshEvent{
		Type:      "refresh",
		Success:   run.Success,
		Stats:     run.Stats,
		Failures:  run.Failures,
		Timestamp: run.FinishedAt,
	})
	if err != nil {
		h.logger.Error("failed to encode refresh event", zap.Error(err))
		return
	}
	n := h.Broadcast(payload)
	h.logger.Debug("refresh event broadcast", zap.Int("subscribers", n))
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.RLock()
	conns := make([]*Connection, 0, len(h.connections))
	for _, c := range h.connections {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		c.Close()
	}
}
