package websocket

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/satriahrh/voxcal/domain"
	"github.com/satriahrh/voxcal/internal/metrics"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Maximum message size allowed from peer.
	maxMessageSize = 512 * 1024 // 512KB for audio chunks
)

var (
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
)

// ErrConnectionClosed is returned by Send once the connection is gone
var ErrConnectionClosed = errors.New("websocket connection closed")

var upgrader = websocket.Upgrader{
	// Origin is not checked; set JWT_SECRET to restrict access
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Session handles the messages of one connection, one at a time
type Session interface {
	HandleControl(ctx context.Context, msg domain.ControlMessage) error
	HandleAudio(ctx context.Context, data []byte) error
	Close()
}

// SessionFactory builds the session for a new connection. Events are delivered through sender.
type SessionFactory func(sender domain.EventSender, logger *zap.Logger) Session

// Hub maintains the set of active clients.
type Hub struct {
	// Registered clients keyed by connection id.
	clients map[string]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Closed when Run returns.
	done chan struct{}

	// Mutex for thread-safe access to clients map
	mu sync.RWMutex

	newSession   SessionFactory
	closeOnError bool
	metrics      *metrics.Metrics

	logger *zap.Logger
}

// NewHub creates a new WebSocket hub. With closeOnError a failed message ends the
// connection with close code 1011; otherwise the client may keep going.
func NewHub(newSession SessionFactory, closeOnError bool, m *metrics.Metrics, logger *zap.Logger) *Hub {
	return &Hub{
		clients:      make(map[string]*Client),
		register:     make(chan *Client),
		unregister:   make(chan *Client),
		done:         make(chan struct{}),
		newSession:   newSession,
		closeOnError: closeOnError,
		metrics:      m,
		logger:       logger,
	}
}

// Run starts the hub's main loop. Cancelling ctx disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for _, client := range h.clients {
				client.cancel()
			}
			h.mu.Unlock()
			h.logger.Info("Hub stopped")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.connID] = client
			h.mu.Unlock()
			h.metrics.ConnectionOpened()
			h.logger.Info("Client registered", zap.String("connID", client.connID))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.connID]; ok {
				delete(h.clients, client.connID)
				h.metrics.ConnectionClosed()
			}
			h.mu.Unlock()
			h.logger.Info("Client unregistered", zap.String("connID", client.connID))
		}
	}
}

// ActiveConnections returns the number of registered clients
func (h *Hub) ActiveConnections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

type WriteData struct {
	// MessageType is the type of the websocket message.
	// Expect websocket.TextMessage or websocket.CloseMessage
	Type    int
	Payload []byte
}

// Client is a middleman between the websocket connection and its session.
type Client struct {
	hub *Hub

	// The websocket connection.
	conn *websocket.Conn

	// Buffered channel of outbound messages.
	send chan WriteData

	// Closed when writePump returns.
	writerDone chan struct{}

	connID  string
	session Session

	// ctx is cancelled when either pump stops
	ctx    context.Context
	cancel context.CancelFunc

	logger *zap.Logger
}

// HandleWebSocket handles websocket requests from the peer.
func HandleWebSocket(hub *Hub, c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		hub.logger.Error("WebSocket upgrade failed", zap.Error(err))
		return err
	}

	connID := uuid.NewString()
	logger := hub.logger.With(zap.String("connID", connID))
	ctx, cancel := context.WithCancel(context.Background())

	client := &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan WriteData, 256),
		writerDone: make(chan struct{}),
		connID:     connID,
		ctx:        ctx,
		cancel:     cancel,
		logger:     logger,
	}
	client.session = hub.newSession(client, logger)

	select {
	case hub.register <- client:
	case <-hub.done:
		cancel()
		conn.Close()
		return nil
	}

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go client.writePump()
	go client.readPump()

	return nil
}

// Send queues an event for the peer. It blocks while the send buffer is full.
func (c *Client) Send(event domain.ServerEvent) error {
	payload, err := EncodeEvent(event)
	if err != nil {
		return err
	}

	select {
	case c.send <- WriteData{Type: websocket.TextMessage, Payload: payload}:
		return nil
	case <-c.ctx.Done():
		return ErrConnectionClosed
	}
}

// readPump reads frames and dispatches them to the session in arrival order.
func (c *Client) readPump() {
	defer func() {
		c.cancel()
		c.session.Close()
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
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			switch {
			case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway):
				c.logger.Info("Client disconnected")
			case websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure):
				c.logger.Error("WebSocket error", zap.Error(err))
			default:
				c.logger.Debug("Read loop ended", zap.Error(err))
			}
			return
		}

		var handleErr error
		switch messageType {
		case websocket.TextMessage:
			handleErr = c.processMessage(message)
		case websocket.BinaryMessage:
			handleErr = c.session.HandleAudio(c.ctx, message)
		default:
			c.logger.Warn("Received unknown message type", zap.Int("type", messageType))
		}

		if handleErr != nil && !c.handleError(handleErr) {
			return
		}

		// Pongs queued behind a slow turn are only read on the next ReadMessage
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
	}
}

// writePump pumps queued messages and pings to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.cancel()
		c.conn.Close()
		close(c.writerDone)
	}()

	for {
		select {
		case <-c.ctx.Done():
			return

		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(message.Type, message.Payload); err != nil {
				c.logger.Error("Failed to write message", zap.Error(err))
				return
			}
			if message.Type == websocket.CloseMessage {
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

// processMessage decodes a control message and hands it to the session
func (c *Client) processMessage(message []byte) error {
	msg, err := DecodeControlMessage(message)
	if err != nil {
		return fmt.Errorf("invalid control message: %w", err)
	}

	c.logger.Debug("Control message received", zap.String("eventType", string(msg.EventType)))
	return c.session.HandleControl(c.ctx, msg)
}

// handleError reports a failed message to the peer and reports whether to keep reading
func (c *Client) handleError(err error) bool {
	if c.ctx.Err() != nil {
		return false
	}

	c.logger.Error("Failed to handle message", zap.Error(err))
	c.hub.metrics.MessageFailed()

	if sendErr := c.Send(domain.NewErrorEvent()); sendErr != nil {
		return false
	}

	if !c.hub.closeOnError {
		return true
	}

	closeFrame := websocket.FormatCloseMessage(websocket.CloseInternalServerErr, domain.InternalErrorReason)
	select {
	case c.send <- WriteData{Type: websocket.CloseMessage, Payload: closeFrame}:
	case <-c.ctx.Done():
		return false
	}

	// Let the writer flush the error event and the close frame
	select {
	case <-c.writerDone:
	case <-time.After(writeWait):
	}
	return false
}
