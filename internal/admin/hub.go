package admin

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"cryotank-sim/internal/telemetry"
)

// Message kinds pushed to websocket clients.
const (
	KindTanks = "tanks"
	KindState = "state"
	KindEvent = "event"
)

const (
	clientBuffer   = 64
	writeTimeout   = 5 * time.Second
	maxMessageSize = 512
	// pongWait is how long a client may stay silent before it is dropped.
	pongWait = 60 * time.Second
	// pingPeriod must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
)

// Envelope is the JSON frame sent to websocket clients.
type Envelope struct {
	Kind string `json:"kind"`
	Data any    `json:"data"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans telemetry out to connected websocket clients. It implements the
// simulator's writer interfaces so it can sit in a multi writer. Slow clients
// are dropped rather than blocking the simulation.
type Hub struct {
	mu       sync.Mutex
	clients  map[*client]struct{}
	upgrader websocket.Upgrader
	log      *slog.Logger

	pongWait   time.Duration
	pingPeriod time.Duration
}

// NewHub creates an empty hub.
func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log:        log,
		pongWait:   pongWait,
		pingPeriod: pingPeriod,
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast sends one envelope to every client.
func (h *Hub) Broadcast(kind string, data any) {
	payload, err := json.Marshal(Envelope{Kind: kind, Data: data})
	if err != nil {
		h.log.Error("websocket encode failed", "kind", kind, "err", err)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			h.log.Warn("websocket client too slow, dropped")
			delete(h.clients, c)
			close(c.send)
		}
	}
}

// Write implements sim.TelemetryWriter.
func (h *Hub) Write(row telemetry.TankRow) error {
	return h.WriteBatch([]telemetry.TankRow{row})
}

// WriteBatch pushes one frame per tick.
func (h *Hub) WriteBatch(rows []telemetry.TankRow) error {
	h.Broadcast(KindTanks, rows)
	return nil
}

// WriteState implements sim.StateWriter.
func (h *Hub) WriteState(row telemetry.VesselStateRow) error {
	h.Broadcast(KindState, row)
	return nil
}

// WriteEvent implements sim.EventWriter.
func (h *Hub) WriteEvent(e telemetry.CoolingEventRow) error {
	h.Broadcast(KindEvent, e)
	return nil
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.log.Debug("websocket client connected")
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
		h.log.Debug("websocket client disconnected")
	}
}

// ServeHTTP upgrades the request and streams frames until the client goes
// away. Client messages are read and discarded.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	c := &client{conn: conn, send: make(chan []byte, clientBuffer)}
	h.add(c)
	defer h.remove(c)

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.writePump(c)
	}()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(h.pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.remove(c)
	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
	}
}

// writePump forwards queued frames and pings the client every pingPeriod so
// an idle browser keeps the read deadline moving.
func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(h.pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case b, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
