package websocket

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

type client struct {
	conn *websocket.Conn
	send chan interface{}
}

// Hub fans events out to WebSocket subscribers grouped by project. Voting
// pushes tally refreshes and lifecycle events through it so dashboards
// update without polling.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[*client]struct{}
	upgrader    websocket.Upgrader
	logger      *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		subscribers: make(map[string]map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		logger: logger,
	}
}

// Serve upgrades the request and subscribes it to a project's event stream
// until the peer disconnects.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, projectID string) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := &client{conn: conn, send: make(chan interface{}, 64)}

	h.mu.Lock()
	if h.subscribers[projectID] == nil {
		h.subscribers[projectID] = make(map[*client]struct{})
	}
	h.subscribers[projectID][c] = struct{}{}
	h.mu.Unlock()

	go h.writePump(c)
	go h.readPump(c, projectID)
	return nil
}

// Broadcast sends an event to every subscriber of a project. Slow clients
// are dropped rather than blocking the sender.
func (h *Hub) Broadcast(projectID string, event interface{}) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.subscribers[projectID] {
		select {
		case c.send <- event:
		default:
			h.logger.Warn("dropping slow websocket subscriber",
				zap.String("project_id", projectID))
		}
	}
}

func (h *Hub) remove(c *client, projectID string) {
	h.mu.Lock()
	if subs, ok := h.subscribers[projectID]; ok {
		if _, ok := subs[c]; ok {
			delete(subs, c)
			close(c.send)
			if len(subs) == 0 {
				delete(h.subscribers, projectID)
			}
		}
	}
	h.mu.Unlock()
}

func (h *Hub) readPump(c *client, projectID string) {
	defer func() {
		h.remove(c, projectID)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	// The feed is one-way; inbound frames only keep the connection alive.
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Debug("websocket closed unexpectedly", zap.Error(err))
			}
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
