package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/wricardo/mcp-training/vacuumworld/world/service"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512

	// Pending broadcasts before new ones are dropped.
	broadcastBuffer = 64
)

// EventRunCompleted is sent after every finished solve
const EventRunCompleted = "run_completed"

// AllInstances is the feed key that receives every run
const AllInstances = ""

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Message represents a WebSocket message
type Message struct {
	Instance string             `json:"instance"`
	Event    string             `json:"event"`
	Report   *service.RunReport `json:"report,omitempty"`
}

// Client represents a WebSocket client
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	instance string
}

// Hub maintains the set of active clients and broadcasts messages
type Hub struct {
	// Registered clients by instance name
	feeds map[string]map[*Client]bool

	// Outbound messages for clients
	broadcast chan *Message

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Closed when the event loop exits
	done chan struct{}

	log logrus.FieldLogger
}

// NewHub creates a new WebSocket hub
func NewHub(logger logrus.FieldLogger) *Hub {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Hub{
		feeds:      make(map[string]map[*Client]bool),
		broadcast:  make(chan *Message, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		log:        logger,
	}
}

// Run starts the hub's event loop and returns when ctx is done
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			close(h.done)
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)
		}
	}
}

// ServeWS upgrades the request and subscribes the client to an instance feed
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, instance string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	client := &Client{
		hub:      h,
		conn:     conn,
		send:     make(chan []byte, 256),
		instance: instance,
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// PublishRun queues a finished run for the instance feed and the all-runs feed.
// It never blocks; when the queue is full the message is dropped.
func (h *Hub) PublishRun(report *service.RunReport) {
	if report == nil {
		return
	}
	message := &Message{
		Instance: report.InstanceName,
		Event:    EventRunCompleted,
		Report:   report,
	}

	select {
	case h.broadcast <- message:
	default:
		h.log.WithField("run", report.ID).Warn("websocket broadcast queue full, dropping run")
	}
}

// registerClient adds a client to a feed
func (h *Hub) registerClient(client *Client) {
	if h.feeds[client.instance] == nil {
		h.feeds[client.instance] = make(map[*Client]bool)
	}
	h.feeds[client.instance][client] = true

	h.log.WithFields(logrus.Fields{
		"instance": feedName(client.instance),
		"clients":  len(h.feeds[client.instance]),
	}).Debug("websocket client registered")
}

// unregisterClient removes a client from its feed
func (h *Hub) unregisterClient(client *Client) {
	if clients, ok := h.feeds[client.instance]; ok {
		if _, ok := clients[client]; ok {
			delete(clients, client)
			close(client.send)

			if len(clients) == 0 {
				delete(h.feeds, client.instance)
			}

			h.log.WithFields(logrus.Fields{
				"instance": feedName(client.instance),
				"clients":  len(clients),
			}).Debug("websocket client unregistered")
		}
	}
}

// broadcastMessage sends a message to the instance feed and the all-runs feed
func (h *Hub) broadcastMessage(message *Message) {
	data, err := json.Marshal(message)
	if err != nil {
		h.log.WithError(err).Warn("failed to marshal websocket message")
		return
	}

	keys := []string{message.Instance}
	if message.Instance != AllInstances {
		keys = append(keys, AllInstances)
	}

	for _, key := range keys {
		for client := range h.feeds[key] {
			select {
			case client.send <- data:
			default:
				// Slow client
				h.unregisterClient(client)
			}
		}
	}
}

// closeAll drops every client on shutdown
func (h *Hub) closeAll() {
	for _, clients := range h.feeds {
		for client := range clients {
			h.unregisterClient(client)
		}
	}
}

func feedName(instance string) string {
	if instance == AllInstances {
		return "*"
	}
	return instance
}

// readPump keeps the connection alive until the peer goes away
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		// Incoming messages are ignored
		_, _, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.WithError(err).Debug("websocket read error")
			}
			break
		}
	}
}

// writePump pumps messages from the hub to the WebSocket connection
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
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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
