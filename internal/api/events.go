package api

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zuoweichuan/sounder-saas/internal/device"
	"github.com/zuoweichuan/sounder-saas/internal/infrastructure/config"
	"github.com/zuoweichuan/sounder-saas/internal/infrastructure/logging"
)

// Event stream constants.
const (
	wsTypeEvent = "event"
	wsTypePing  = "ping"
	wsTypePong  = "pong"
	wsTypeError = "error"

	// wsSendBufferSize is the per-client outbound message buffer size.
	wsSendBufferSize = 256

	// Fallbacks when events config values are unset.
	defaultPingInterval   = 30 * time.Second
	defaultPongTimeout    = 60 * time.Second
	defaultMaxMessageSize = 4096
)

// wsMessage is the envelope for event stream messages in both directions.
type wsMessage struct {
	Type      string `json:"type"`
	EventType string `json:"event_type,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Payload   any    `json:"payload,omitempty"`
}

// Hub manages event stream connections and fans device events out to the
// clients of the owning tenant. Clients of other tenants never see them.
//
// It satisfies the control dispatcher's EventPublisher interface.
type Hub struct {
	cfg     config.EventsConfig
	logger  *logging.Logger
	clients map[*wsClient]struct{}
	mu      sync.RWMutex
}

// wsClient is one connected event stream client, bound to the tenant from
// its admission ticket.
type wsClient struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	tenantID string
	userID   string
}

// upgrader configures the WebSocket upgrader. Origin checking is handled by
// the CORS middleware.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// NewHub creates a new event stream hub.
func NewHub(cfg config.EventsConfig, logger *logging.Logger) *Hub {
	return &Hub{
		cfg:     cfg,
		logger:  logger,
		clients: make(map[*wsClient]struct{}),
	}
}

// Run blocks until the context is cancelled, then disconnects all clients.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()
	h.closeAll()
}

// PublishDeviceEvent sends a device event to every client of the tenant.
func (h *Hub) PublishDeviceEvent(tenantID string, event device.Event) {
	msg := wsMessage{
		Type:      wsTypeEvent,
		EventType: event.Type,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Payload:   event,
	}

	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to marshal device event", "error", err)
		return
	}

	// Snapshot client list under hub lock, then release before sending.
	h.mu.RLock()
	clients := make([]*wsClient, 0, len(h.clients))
	for client := range h.clients {
		if client.tenantID == tenantID {
			clients = append(clients, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range clients {
		client.trySend(data)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// register adds a client to the hub.
func (h *Hub) register(client *wsClient) {
	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()
	h.logger.Debug("event stream client connected",
		"tenant_id", client.tenantID, "clients", h.ClientCount())
}

// unregister removes a client from the hub. Only the goroutine that
// successfully removes the client closes the send channel, preventing
// double-close panics during shutdown.
func (h *Hub) unregister(client *wsClient) {
	h.mu.Lock()
	_, existed := h.clients[client]
	delete(h.clients, client)
	h.mu.Unlock()

	if existed {
		close(client.send)
	}
}

// closeAll disconnects all clients so their write pumps exit cleanly.
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		close(client.send)
		if client.conn != nil {
			client.conn.Close()
		}
		delete(h.clients, client)
	}
}

// ticketTTL is how long an event stream ticket is valid.
const ticketTTL = 60 * time.Second

// ticketStore holds pending event stream admission tickets. Tickets are
// single-use, expire after ticketTTL, and carry the identity resolved when
// they were issued. The store belongs to one Server instance.
type ticketStore struct {
	tickets map[string]ticketEntry
	mu      sync.Mutex
}

type ticketEntry struct {
	tenantID  string
	userID    string
	expiresAt time.Time
}

func newTicketStore() *ticketStore {
	return &ticketStore{tickets: make(map[string]ticketEntry)}
}

// issue creates and stores a new single-use ticket for an identity.
func (t *ticketStore) issue(tenantID, userID string) string {
	ticket := generateTicket()

	t.mu.Lock()
	t.tickets[ticket] = ticketEntry{
		tenantID:  tenantID,
		userID:    userID,
		expiresAt: time.Now().Add(ticketTTL),
	}
	t.mu.Unlock()

	return ticket
}

// redeem consumes a ticket and returns its identity. A ticket can be
// redeemed at most once.
func (t *ticketStore) redeem(ticket string) (ticketEntry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.tickets[ticket]
	if !ok {
		return ticketEntry{}, false
	}
	delete(t.tickets, ticket)

	if time.Now().After(entry.expiresAt) {
		return ticketEntry{}, false
	}
	return entry, true
}

// cleanLoop removes expired tickets periodically until the context is cancelled.
func (t *ticketStore) cleanLoop(ctx context.Context) {
	ticker := time.NewTicker(ticketTTL)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.mu.Lock()
			now := time.Now()
			for ticket, entry := range t.tickets {
				if now.After(entry.expiresAt) {
					delete(t.tickets, ticket)
				}
			}
			t.mu.Unlock()
		}
	}
}

// ticketBytes is the number of random bytes used for event stream tickets.
const ticketBytes = 32

// generateTicket creates a cryptographically random ticket string.
func generateTicket() string {
	b := make([]byte, ticketBytes)
	//nolint:errcheck // crypto/rand.Read always returns len(b) on supported platforms
	rand.Read(b)
	return hex.EncodeToString(b)
}

// handleEventTicket issues a single-use event stream ticket for the
// authenticated caller. The ticket lets the browser open the WebSocket
// without exposing the JWT in the URL.
func (s *Server) handleEventTicket(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(r.Context())
	if !ok {
		writeUnauthorized(w, "authentication required")
		return
	}

	ticket := s.tickets.issue(id.Tenant.ID, id.User.ID)

	writeJSON(w, http.StatusOK, map[string]any{
		"ticket":     ticket,
		"expires_in": int(ticketTTL.Seconds()),
	})
}

// handleEvents upgrades the connection to the tenant-scoped event stream.
// Authentication is via the ticket query parameter.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	ticket := r.URL.Query().Get("ticket")
	if ticket == "" {
		writeUnauthorized(w, "ticket query parameter is required")
		return
	}
	entry, ok := s.tickets.redeem(ticket)
	if !ok {
		writeUnauthorized(w, "invalid or expired ticket")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("event stream upgrade failed", "error", err)
		return
	}

	client := &wsClient{
		hub:      s.hub,
		conn:     conn,
		send:     make(chan []byte, wsSendBufferSize),
		tenantID: entry.tenantID,
		userID:   entry.userID,
	}

	s.hub.register(client)

	go client.writePump(s.eventsCfg)
	go client.readPump(s.eventsCfg)
}

// pingTimings resolves the keepalive intervals from config with fallbacks.
func pingTimings(cfg config.EventsConfig) (pingInterval, pongWait time.Duration) {
	pingInterval = time.Duration(cfg.PingInterval) * time.Second
	if pingInterval <= 0 {
		pingInterval = defaultPingInterval
	}
	pongWait = time.Duration(cfg.PongTimeout) * time.Second
	if pongWait <= 0 {
		pongWait = defaultPongTimeout
	}
	return pingInterval, pongWait
}

// readPump reads messages from the client until the connection drops.
func (c *wsClient) readPump(cfg config.EventsConfig) {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	maxMessageSize := cfg.MaxMessageSize
	if maxMessageSize <= 0 {
		maxMessageSize = defaultMaxMessageSize
	}
	c.conn.SetReadLimit(int64(maxMessageSize))

	pingInterval, pongWait := pingTimings(cfg)
	//nolint:errcheck // Best-effort deadline on connection setup
	c.conn.SetReadDeadline(time.Now().Add(pingInterval + pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pingInterval + pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("event stream read error", "error", err)
			}
			return
		}
		// Any client message resets the read deadline.
		//nolint:errcheck // Best-effort deadline reset
		c.conn.SetReadDeadline(time.Now().Add(pingInterval + pongWait))
		c.handleMessage(message)
	}
}

// writePump writes queued messages and protocol pings to the client.
func (c *wsClient) writePump(cfg config.EventsConfig) {
	pingInterval, pongWait := pingTimings(cfg)
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				// Hub closed the channel
				//nolint:errcheck // Best-effort close message
				c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			//nolint:errcheck // Best-effort deadline; write error caught below
			c.conn.SetWriteDeadline(time.Now().Add(pongWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			//nolint:errcheck // Best-effort deadline; ping error caught below
			c.conn.SetWriteDeadline(time.Now().Add(pongWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage processes an incoming client message. The event stream is
// one-way; clients may only send application-level pings.
func (c *wsClient) handleMessage(data []byte) {
	var msg wsMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.sendMessage(wsTypeError, map[string]string{"message": "invalid JSON message"})
		return
	}

	switch msg.Type {
	case wsTypePing:
		c.sendMessage(wsTypePong, nil)
	default:
		c.sendMessage(wsTypeError, map[string]string{"message": "unknown message type: " + msg.Type})
	}
}

// sendMessage marshals and queues a message for the client.
func (c *wsClient) sendMessage(msgType string, payload any) {
	msg := wsMessage{
		Type:      msgType,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Payload:   payload,
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	c.trySend(data)
}

// trySend queues data for the client, silently dropping it when the client
// disconnected during broadcast or its buffer is full.
func (c *wsClient) trySend(data []byte) {
	defer func() {
		recover() //nolint:errcheck // Absorb send-on-closed-channel panic
	}()

	select {
	case c.send <- data:
	default:
		// Client buffer full, skip
	}
}
