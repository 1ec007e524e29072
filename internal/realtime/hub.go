// Package realtime pushes notification events to connected clients over
// websockets so the notification bell updates without polling.
package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/summitcrm/pipeline-api/internal/auth"
	"github.com/summitcrm/pipeline-api/internal/config"
	"github.com/summitcrm/pipeline-api/internal/domain"
	"go.uber.org/zap"
)

const (
	// readLimit bounds inbound frames; clients only send pong/close
	readLimit = 512
)

type clientKey struct {
	tenantID domain.TenantID
	userID   uuid.UUID
}

// client is one connected websocket. The mutex serializes queueing against
// close so a publish racing a disconnect never sends on a closed channel.
type client struct {
	conn *websocket.Conn

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

// trySend queues a payload without blocking. A full buffer reports false so
// the hub can drop the connection; a closed client swallows the payload.
func (c *client) trySend(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return true
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// close shuts the send channel exactly once
func (c *client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// Hub fans notification events out to each recipient's open connections.
// A user may hold several connections (multiple tabs); each gets every event.
type Hub struct {
	cfg      *config.RealtimeConfig
	logger   *zap.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[clientKey]map[*client]struct{}

	closed  bool
	closeCh chan struct{}
}

// NewHub creates a hub. CheckOrigin is left permissive because the auth
// middleware has already validated the bearer token by the time the upgrade
// request reaches the hub.
func NewHub(cfg *config.RealtimeConfig, logger *zap.Logger) *Hub {
	return &Hub{
		cfg:    cfg,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[clientKey]map[*client]struct{}),
		closeCh: make(chan struct{}),
	}
}

// ServeHTTP upgrades the request and keeps the connection registered until
// the client goes away
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userCtx, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, h.cfg.SendBufferSize),
	}
	key := clientKey{tenantID: userCtx.TenantID, userID: userCtx.UserID}

	h.register(key, c)
	h.logger.Info("notification stream connected",
		zap.String("user_id", userCtx.UserID.String()),
		zap.String("tenant_id", string(userCtx.TenantID)),
	)

	go h.writePump(c)
	h.readPump(key, c)
}

// Publish delivers a notification event to every open connection of the
// recipient. Slow clients are disconnected rather than allowed to block
// delivery to others.
func (h *Hub) Publish(tenantID domain.TenantID, userID uuid.UUID, notification *domain.NotificationDTO) {
	payload, err := json.Marshal(map[string]interface{}{
		"event":        "notification",
		"notification": notification,
	})
	if err != nil {
		h.logger.Error("failed to encode notification event", zap.Error(err))
		return
	}

	key := clientKey{tenantID: tenantID, userID: userID}

	h.mu.RLock()
	conns := make([]*client, 0, len(h.clients[key]))
	for c := range h.clients[key] {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		if !c.trySend(payload) {
			h.logger.Warn("notification stream backlogged, dropping connection",
				zap.String("user_id", userID.String()),
			)
			h.unregister(key, c)
		}
	}
}

// Shutdown closes every connection and stops accepting work
func (h *Hub) Shutdown(ctx context.Context) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	close(h.closeCh)
	all := h.clients
	h.clients = make(map[clientKey]map[*client]struct{})
	h.mu.Unlock()

	for _, conns := range all {
		for c := range conns {
			c.close()
		}
	}
}

func (h *Hub) register(key clientKey, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		c.close()
		return
	}
	if h.clients[key] == nil {
		h.clients[key] = make(map[*client]struct{})
	}
	h.clients[key][c] = struct{}{}
}

func (h *Hub) unregister(key clientKey, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.clients[key]; ok {
		if _, ok := conns[c]; ok {
			delete(conns, c)
			c.close()
			if len(conns) == 0 {
				delete(h.clients, key)
			}
		}
	}
}

// readPump drains inbound frames until the peer closes
func (h *Hub) readPump(key clientKey, c *client) {
	defer func() {
		h.unregister(key, c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(readLimit)
	pongWait := h.cfg.PingIntervalDuration() * 2
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump writes queued events and keepalive pings
func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(h.cfg.PingIntervalDuration())
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeoutDuration()))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeoutDuration()))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-h.closeCh:
			return
		}
	}
}
