package realtime

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/fabline/mes-backend/internal/observability"
	"github.com/fabline/mes-backend/internal/platform/logger"
)

// Message is one room-scoped event on the wire.
type Message struct {
	Room  string      `json:"room"`
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

type client struct {
	id       uuid.UUID
	room     string
	outbound chan Message
	done     chan struct{}
}

// Hub fans room-scoped events out to websocket subscribers. Rooms are keyed
// "machine:<id>", "segment:<id>" or "pallet:<id>". Publish never blocks: a
// subscriber with a full buffer drops messages.
type Hub struct {
	mu            sync.RWMutex
	log           *logger.Logger
	subscriptions map[string]map[*client]bool
	bus           Bus
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin is enforced by the CORS layer in front of the upgrade.
	CheckOrigin: func(r *http.Request) bool { return true },
}

func NewHub(baseLog *logger.Logger) *Hub {
	return &Hub{
		log:           baseLog.With("component", "RealtimeHub"),
		subscriptions: make(map[string]map[*client]bool),
	}
}

// AttachBus wires a cross-instance bus; local publishes go through it so
// every instance's subscribers see them.
func (h *Hub) AttachBus(bus Bus) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.bus = bus
}

// Publish implements services.Notifier. Fire and forget.
func (h *Hub) Publish(room, event string, payload interface{}) {
	msg := Message{Room: room, Event: event, Data: payload}
	h.mu.RLock()
	bus := h.bus
	h.mu.RUnlock()
	if bus != nil {
		if err := bus.Publish(msg); err != nil {
			h.log.Warn("bus publish failed, delivering locally only", "room", room, "error", err)
		} else {
			// The forwarder loops it back to Deliver on every instance,
			// this one included.
			return
		}
	}
	h.Deliver(msg)
}

// Deliver fans a message out to local subscribers of its room.
func (h *Hub) Deliver(msg Message) {
	if msg.Room == "" {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.subscriptions[msg.Room] {
		select {
		case c.outbound <- msg:
		default:
			h.log.Warn("dropping realtime message, subscriber buffer full", "clientID", c.id, "room", msg.Room)
		}
	}
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients, ok := h.subscriptions[c.room]
	if !ok {
		clients = make(map[*client]bool)
		h.subscriptions[c.room] = clients
	}
	clients[c] = true
	observability.RealtimeClients.Inc()
	h.log.Debug("realtime client subscribed", "clientID", c.id, "room", c.room)
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if clients, ok := h.subscriptions[c.room]; ok {
		if clients[c] {
			delete(clients, c)
			observability.RealtimeClients.Dec()
		}
		if len(clients) == 0 {
			delete(h.subscriptions, c.room)
		}
	}
	h.log.Debug("realtime client unsubscribed", "clientID", c.id, "room", c.room)
}

// ServeWS upgrades the request and streams the ?room= subscription until the
// peer goes away.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	room := strings.TrimSpace(r.URL.Query().Get("room"))
	if room == "" {
		http.Error(w, "room query parameter required", http.StatusBadRequest)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &client{
		id:       uuid.New(),
		room:     room,
		outbound: make(chan Message, 16),
		done:     make(chan struct{}),
	}
	h.add(c)

	// Read pump: we never expect client frames, but reading is what surfaces
	// close and ping/pong handling.
	go func() {
		defer close(c.done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	heartbeat := time.NewTicker(30 * time.Second)
	defer func() {
		heartbeat.Stop()
		h.remove(c)
		_ = conn.Close()
	}()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-c.done:
			return
		case <-heartbeat.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return
			}
		case msg := <-c.outbound:
			if err := conn.WriteJSON(msg); err != nil {
				h.log.Warn("websocket write failed", "clientID", c.id, "error", err)
				return
			}
		}
	}
}
