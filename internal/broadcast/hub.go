package broadcast

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Atmakurhemanthkumar/splitmate/internal/metrics"
)

const (
	writeTimeout = 10 * time.Second
	pongTimeout  = 60 * time.Second
	pingInterval = 50 * time.Second
	sendBuffer   = 32
)

// envelope is the JSON frame written to websocket clients.
type envelope struct {
	Event   Event  `json:"event"`
	GroupID string `json:"group_id"`
	Payload any    `json:"payload,omitempty"`
}

// Hub fans published events out to websocket connections grouped in rooms
// keyed by group ID.
type Hub struct {
	mu      sync.RWMutex
	rooms   map[string]map[*client]struct{}
	metrics *metrics.Metrics

	upgrader websocket.Upgrader
}

type client struct {
	wc   *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

// NewHub creates an empty hub. m may be nil.
func NewHub(m *metrics.Metrics) *Hub {
	return &Hub{
		rooms:   make(map[string]map[*client]struct{}),
		metrics: m,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Publish encodes the event once and queues it on every subscriber of groupID.
// Subscribers whose queue is full are disconnected.
func (h *Hub) Publish(groupID string, event Event, payload any) {
	if groupID == "" {
		return
	}
	data, err := json.Marshal(envelope{Event: event, GroupID: groupID, Payload: payload})
	if err != nil {
		slog.Warn("broadcast encode failed", "event", event, "group_id", groupID, "error", err)
		return
	}

	var slow []*client
	h.mu.RLock()
	for c := range h.rooms[groupID] {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.metrics.BroadcastDropped()
		slog.Warn("dropping slow broadcast subscriber", "group_id", groupID, "event", event)
		h.leave(groupID, c)
	}
}

// Subscribers returns the number of connections in groupID's room.
func (h *Hub) Subscribers(groupID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[groupID])
}

func (h *Hub) join(groupID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[groupID]
	if !ok {
		room = make(map[*client]struct{})
		h.rooms[groupID] = room
	}
	room[c] = struct{}{}
}

func (h *Hub) leave(groupID string, c *client) {
	h.mu.Lock()
	room := h.rooms[groupID]
	if _, ok := room[c]; ok {
		delete(room, c)
		if len(room) == 0 {
			delete(h.rooms, groupID)
		}
	}
	h.mu.Unlock()
	c.close()
}

// ServeWS upgrades the request and subscribes the connection to groupID's room
// until the client disconnects. Clients only receive; incoming frames are discarded.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, groupID string) {
	wc, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &client{wc: wc, send: make(chan []byte, sendBuffer)}
	h.join(groupID, c)
	go h.write(c)

	wc.SetReadLimit(512)
	wc.SetReadDeadline(time.Now().Add(pongTimeout))
	wc.SetPongHandler(func(string) error {
		return wc.SetReadDeadline(time.Now().Add(pongTimeout))
	})
	for {
		if _, _, err := wc.NextReader(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("websocket read failed", "group_id", groupID, "error", err)
			}
			break
		}
	}
	h.leave(groupID, c)
}

func (h *Hub) write(c *client) {
	t := time.NewTicker(pingInterval)
	defer func() {
		t.Stop()
		c.wc.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.wc.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				c.wc.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.wc.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-t.C:
			c.wc.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.wc.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
