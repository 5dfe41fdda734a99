package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/abrezinsky/courtboard/internal/court"
	"github.com/abrezinsky/courtboard/internal/logger"
	"github.com/abrezinsky/courtboard/internal/match"
	"github.com/abrezinsky/courtboard/internal/metrics"
	"github.com/abrezinsky/courtboard/internal/models"
	"github.com/abrezinsky/courtboard/internal/presentation"
	"github.com/abrezinsky/courtboard/internal/propagation"
)

// Message types pushed to browsers
const (
	TypeStorage          = "storage"
	TypeScoreboardUpdate = propagation.TypeScoreboardUpdate
	TypeShowTimeout      = propagation.TypeShowTimeout
	TypeReset            = "reset"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	sendBuffer = 256
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Overlays are opened from OBS and other origins
	},
}

// StoragePayload is a forwarded storage event with the mapped view attached
type StoragePayload struct {
	Key      string            `json:"key"`
	NewValue string            `json:"newValue"`
	View     presentation.View `json:"view"`
}

// UpdatePayload is a forwarded topic update
type UpdatePayload struct {
	State models.MatchState `json:"state"`
	View  presentation.View `json:"view"`
}

// TimeoutPayload is a forwarded timeout flash
type TimeoutPayload struct {
	Team          models.Team `json:"team"`
	TimeoutNumber int         `json:"timeoutNumber"`
}

// Hub maintains the set of active clients and broadcasts messages to the clients
// watching the message's court.
type Hub struct {
	log        logger.Logger
	courts     *court.Registry
	metrics    *metrics.Metrics
	clients    map[*Client]bool
	broadcast  chan models.WSMessage
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mutex      sync.RWMutex
}

// Client is a middleman between the websocket connection and the hub
type Client struct {
	id      string
	courtID string // empty watches every court
	hub     *Hub
	conn    *websocket.Conn
	send    chan models.WSMessage
}

// New creates a new Hub instance with injected dependencies
func New(log logger.Logger, courts *court.Registry, m *metrics.Metrics) *Hub {
	return &Hub{
		log:        log,
		courts:     courts,
		metrics:    m,
		clients:    make(map[*Client]bool),
		broadcast:  make(chan models.WSMessage, sendBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run handles client registration and message fan-out until ctx ends, then
// disconnects every client.
func (h *Hub) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mutex.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mutex.Unlock()
			h.metrics.SetWebsocketClients(0)
			return nil

		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mutex.Unlock()
			h.metrics.SetWebsocketClients(total)
			h.log.Debug("Client connected", "client_id", client.id, "court_id", client.courtID, "total_clients", total)

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			total := len(h.clients)
			h.mutex.Unlock()
			h.metrics.SetWebsocketClients(total)
			h.log.Debug("Client disconnected", "client_id", client.id, "total_clients", total)

		case message := <-h.broadcast:
			h.mutex.RLock()
			for client := range h.clients {
				if !client.wants(message) {
					continue
				}
				select {
				case client.send <- message:
				default:
					// Client's send channel is full, unregister
					h.metrics.PropagationDropped(metrics.ChannelSocket)
					go h.leave(client)
				}
			}
			h.mutex.RUnlock()
		}
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Clients returns the number of connected clients
func (h *Hub) Clients() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

func (c *Client) wants(msg models.WSMessage) bool {
	return msg.CourtID == "" || c.courtID == "" || c.courtID == msg.CourtID
}

// BroadcastMessage queues a message for the clients of courtID, or for every
// client when courtID is empty. It drops the message when the queue is full.
func (h *Hub) BroadcastMessage(msgType, courtID string, payload interface{}) {
	select {
	case h.broadcast <- models.WSMessage{Type: msgType, CourtID: courtID, Payload: payload}:
	default:
		h.log.Warn("Dropping websocket message, queue full", "type", msgType, "court_id", courtID)
		h.metrics.PropagationDropped(metrics.ChannelSocket)
	}
}

// BroadcastReset implements services.Broadcaster
func (h *Hub) BroadcastReset(tables []string) {
	h.BroadcastMessage(TypeReset, "", map[string]interface{}{"tables": tables})
}

// AttachBus forwards storage events of local writes to the court's clients.
// The returned function detaches.
func (h *Hub) AttachBus(bus *propagation.Bus) func() {
	return bus.OnStorage(func(ev propagation.StorageEvent) {
		if !strings.HasPrefix(ev.Key, court.NamespacePrefix) {
			return
		}
		id := h.courts.Resolve(strings.TrimPrefix(ev.Key, court.NamespacePrefix))
		state, err := match.Decode([]byte(ev.NewValue), id.Variant)
		if err != nil {
			h.log.Warn("Dropping invalid storage event", "key", ev.Key, "error", err)
			h.metrics.PropagationDropped(metrics.ChannelSocket)
			return
		}
		h.BroadcastMessage(TypeStorage, id.CourtID, StoragePayload{
			Key:      ev.Key,
			NewValue: ev.NewValue,
			View:     presentation.MapForDisplay(state, id.Variant),
		})
	})
}

// AttachTopic forwards every court's topic messages until ctx ends.
func (h *Hub) AttachTopic(ctx context.Context, topic *propagation.Topic) error {
	return topic.Subscribe(ctx, "", func(u propagation.Update) {
		switch u.Type {
		case propagation.TypeScoreboardUpdate:
			id := h.courts.Resolve(u.CourtID)
			h.BroadcastMessage(TypeScoreboardUpdate, id.CourtID, UpdatePayload{
				State: u.State,
				View:  presentation.MapForDisplay(u.State, id.Variant),
			})
		case propagation.TypeShowTimeout:
			h.BroadcastMessage(TypeShowTimeout, u.CourtID, TimeoutPayload{
				Team:          u.Team,
				TimeoutNumber: u.TimeoutNumber,
			})
		}
	})
}

// readPump pumps messages from the websocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		c.hub.leave(c)
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Debug("WebSocket error", "error", err)
			}
			break
		}

		// Surfaces only listen
		var msg models.WSMessage
		if err := json.Unmarshal(message, &msg); err == nil {
			c.hub.log.Debug("Ignoring client message", "client_id", c.id, "type", msg.Type)
		}
	}
}

// writePump pumps messages from the hub to the websocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(message); err != nil {
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

// ServeWs handles websocket requests. ?court= limits the connection to one
// court; without it the client receives every court.
func (h *Hub) ServeWs(w http.ResponseWriter, r *http.Request) {
	courtID := ""
	if raw := r.URL.Query().Get("court"); raw != "" {
		id, ok := court.NormalizeID(raw)
		if !ok {
			http.Error(w, "invalid court", http.StatusBadRequest)
			return
		}
		courtID = id
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("WebSocket upgrade error", "error", err)
		return
	}

	client := &Client{
		id:      uuid.NewString(),
		courtID: courtID,
		hub:     h,
		conn:    conn,
		send:    make(chan models.WSMessage, sendBuffer),
	}
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	// Allow collection of memory referenced by the caller by doing all work in new goroutines
	go client.writePump()
	go client.readPump()
}
