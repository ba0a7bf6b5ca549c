package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10

	sendBuffer  = 32
	queueLength = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// CORS is enforced on the REST routes; list views connect from the same admin origins
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Event tells open list views that a collection changed and should be reloaded
type Event struct {
	Collection string    `json:"collection"` // customers, branches, vehicles, sales-invoices, official-receipts
	Action     string    `json:"action"`     // created, updated, deleted
	ID         uint      `json:"id"`
	At         time.Time `json:"at"`
}

type subscriber struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub fans change events out to every connected list view.
type Hub struct {
	mu          sync.Mutex
	subscribers map[*subscriber]struct{}
	events      chan []byte
	join        chan *subscriber
	leave       chan *subscriber
	done        chan struct{}
	log         *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		subscribers: make(map[*subscriber]struct{}),
		events:      make(chan []byte, queueLength),
		join:        make(chan *subscriber),
		leave:       make(chan *subscriber),
		done:        make(chan struct{}),
		log:         log.Named("ws"),
	}
}

// Run dispatches events until ctx is cancelled, then disconnects every subscriber.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for s := range h.subscribers {
				h.drop(s)
			}
			h.mu.Unlock()
			return
		case s := <-h.join:
			h.mu.Lock()
			h.subscribers[s] = struct{}{}
			h.mu.Unlock()
			h.log.Debug("subscriber joined")
		case s := <-h.leave:
			h.mu.Lock()
			if _, ok := h.subscribers[s]; ok {
				h.drop(s)
				h.log.Debug("subscriber left")
			}
			h.mu.Unlock()
		case msg := <-h.events:
			h.mu.Lock()
			for s := range h.subscribers {
				select {
				case s.send <- msg:
				default:
					// too slow to keep up; it reloads on reconnect
					h.drop(s)
				}
			}
			h.mu.Unlock()
		}
	}
}

// drop must be called with mu held.
func (h *Hub) drop(s *subscriber) {
	delete(h.subscribers, s)
	close(s.send)
}

// Publish queues a change event. It never blocks; when the queue is full the event is dropped.
func (h *Hub) Publish(collection, action string, id uint) {
	msg, err := json.Marshal(Event{Collection: collection, Action: action, ID: id, At: time.Now().UTC()})
	if err != nil {
		h.log.Warn("failed to encode event", zap.Error(err))
		return
	}
	select {
	case h.events <- msg:
	default:
		h.log.Warn("event queue full, dropping event",
			zap.String("collection", collection), zap.String("action", action), zap.Uint("id", id))
	}
}

// ClientCount returns the number of connected subscribers
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// ServeWs upgrades the request and subscribes the connection to change events
func ServeWs(hub *Hub, c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		hub.log.Warn("upgrade failed", zap.Error(err))
		return
	}
	s := &subscriber{hub: hub, conn: conn, send: make(chan []byte, sendBuffer)}
	select {
	case hub.join <- s:
	case <-hub.done:
		_ = conn.Close()
		return
	}

	go s.writeLoop()
	go s.readLoop()
}

// writeLoop sends one text frame per event and pings the peer so dead connections are noticed.
func (s *subscriber) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readLoop discards client messages; it only exists to process pongs and notice disconnects.
func (s *subscriber) readLoop() {
	defer func() {
		select {
		case s.hub.leave <- s:
		case <-s.hub.done:
		}
		_ = s.conn.Close()
	}()

	s.conn.SetReadLimit(512)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.hub.log.Warn("unexpected close", zap.Error(err))
			}
			return
		}
	}
}
