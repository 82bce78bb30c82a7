package alerts

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	sendBuffer = 256
)

// ErrHubClosed is returned when publishing after Close
var ErrHubClosed = errors.New("alert hub closed")

// Connection is a live alert subscriber
type Connection struct {
	ID          string
	UserID      string
	Conn        *websocket.Conn
	Send        chan Event
	ConnectedAt time.Time
}

// Hub fans alert events out to websocket subscribers
type Hub struct {
	connections map[*Connection]bool
	broadcast   chan Event
	register    chan *Connection
	unregister  chan *Connection
	stop        chan struct{}
	stopOnce    sync.Once

	mu       sync.RWMutex
	count    int
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewHub starts the hub loop. allowedOrigins empty means any origin is accepted.
func NewHub(allowedOrigins []string, logger *zap.Logger) *Hub {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}

	h := &Hub{
		connections: make(map[*Connection]bool),
		broadcast:   make(chan Event, sendBuffer),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		stop:        make(chan struct{}),
		logger:      logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(origins) == 0 || origin == "" || origins[origin]
			},
		},
	}
	go h.run()
	return h
}

// HandleConnection upgrades the request and subscribes it to alert events
func (h *Hub) HandleConnection(w http.ResponseWriter, r *http.Request, userID string) (*Connection, error) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to upgrade connection: %w", err)
	}

	c := &Connection{
		ID:          uuid.New().String(),
		UserID:      userID,
		Conn:        conn,
		Send:        make(chan Event, sendBuffer),
		ConnectedAt: time.Now(),
	}

	select {
	case h.register <- c:
	case <-h.stop:
		conn.Close()
		return nil, ErrHubClosed
	}

	go h.readPump(c)
	go h.writePump(c)
	return c, nil
}

// readPump only keeps the read deadline fresh; subscribers do not send commands
func (h *Hub) readPump(c *Connection) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.stop:
		}
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(512)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Debug("Alert subscriber closed unexpectedly", zap.String("connection_id", c.ID), zap.Error(err))
			}
			return
		}
	}
}

func (h *Hub) writePump(c *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteJSON(event); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) run() {
	for {
		select {
		case c := <-h.register:
			h.connections[c] = true
			h.setCount(len(h.connections))
			h.logger.Debug("Alert subscriber registered", zap.String("connection_id", c.ID), zap.String("user_id", c.UserID))

		case c := <-h.unregister:
			if _, ok := h.connections[c]; ok {
				delete(h.connections, c)
				close(c.Send)
				h.setCount(len(h.connections))
			}

		case event := <-h.broadcast:
			for c := range h.connections {
				select {
				case c.Send <- event:
				default:
					close(c.Send)
					delete(h.connections, c)
				}
			}
			h.setCount(len(h.connections))

		case <-h.stop:
			for c := range h.connections {
				close(c.Send)
				delete(h.connections, c)
			}
			h.setCount(0)
			return
		}
	}
}

func (h *Hub) setCount(n int) {
	h.mu.Lock()
	h.count = n
	h.mu.Unlock()
}

// Broadcast queues an event for every subscriber
func (h *Hub) Broadcast(event Event) error {
	select {
	case <-h.stop:
		return ErrHubClosed
	default:
	}
	select {
	case h.broadcast <- event:
		return nil
	default:
		return fmt.Errorf("broadcast channel full")
	}
}

// ConnectionCount returns the number of live subscribers
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

// Close disconnects every subscriber and stops the hub loop
func (h *Hub) Close() {
	h.stopOnce.Do(func() { close(h.stop) })
}
