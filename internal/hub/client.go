package hub

import (
	"context"
	"log"
	"net"
	"sync"
	"time"

	"github.com/mamoonayoob/Quick-Mart-Server/internal/event"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var (
	// tuning parameters
	writeWait          = 10 * time.Second       // time allowed to write a message to the peer
	pongWait           = 20 * time.Second       // time allowed to read the next pong message from the peer
	pingInterval       = (pongWait * 9) / 10    // send pings to peer with this period
	maxMessageSize     = 64 * 1024              // max inbound message size (64KB)
	sendBufSize        = 256                    // per-connection outbound buffer size
	workerPoolSize     = 16                     // number of workers to process inbound events
	sendTimeout        = 2 * time.Second        // timeout for enqueuing outbound events
	registerTimeout    = 5 * time.Second        // timeout for client registration
	unregisterTimeout  = 5 * time.Second        // timeout for client unregistration
	inboundSendTimeout = 500 * time.Millisecond // timeout for sending to inbound channel
)

// Client is one websocket connection. It starts anonymous; identity and role
// are bound by a successful authenticate event. Re-authenticating rebinds
// them after the hub releases the old registry entry.
type Client struct {
	ID     string
	conn   *websocket.Conn
	hub    *Hub
	egress chan event.WsEvent

	identity   string
	role       string
	identityMu sync.RWMutex

	cancel         context.CancelFunc
	ctx            context.Context
	once           sync.Once
	connClosed     chan struct{}
	connClosedOnce sync.Once
	closed         bool
	closedMu       sync.RWMutex
}

// registerClient creates a new client for a freshly upgraded connection.
func registerClient(conn *websocket.Conn, h *Hub) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	clientID := uuid.New().String()

	client := &Client{
		ID:             clientID,
		conn:           conn,
		hub:            h,
		egress:         make(chan event.WsEvent, sendBufSize),
		cancel:         cancel,
		ctx:            ctx,
		connClosed:     make(chan struct{}),
		connClosedOnce: sync.Once{},
	}

	select {
	case h.register <- client:
		go client.readMessages()
		go client.writeMessages()
		log.Printf("client %s connected (anonymous)", clientID)
		return client
	case <-time.After(registerTimeout):
		log.Printf("failed to register client %s: timeout", clientID)
		cancel()
		conn.Close()
		return nil
	}
}

// SessionID implements Session.
func (c *Client) SessionID() string { return c.ID }

// Identity returns the authenticated user ID, or "" while anonymous.
func (c *Client) Identity() string {
	c.identityMu.RLock()
	defer c.identityMu.RUnlock()
	return c.identity
}

// Role returns the authenticated role, or "" while anonymous.
func (c *Client) Role() string {
	c.identityMu.RLock()
	defer c.identityMu.RUnlock()
	return c.role
}

func (c *Client) bindIdentity(userID, role string) {
	c.identityMu.Lock()
	defer c.identityMu.Unlock()
	c.identity = userID
	c.role = role
}

func (c *Client) readMessages() {
	defer func() {
		select {
		case c.hub.unregister <- c:
			// unregistered successfully
		case <-time.After(unregisterTimeout):
			log.Printf("failed to unregister client %s: timeout", c.ID)
		}
		c.Close()
	}()

	c.conn.SetReadLimit(int64(maxMessageSize))
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(c.pongHandler)

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
			var ev event.WsEvent

			if err := c.conn.ReadJSON(&ev); err != nil {

				if websocket.IsCloseError(err,
					websocket.CloseNormalClosure,
					websocket.CloseGoingAway,
					websocket.CloseAbnormalClosure,
				) {
					log.Printf("client disconnected: %v", c.ID)
					return
				}

				if websocket.IsUnexpectedCloseError(err,
					websocket.CloseInternalServerErr,
					websocket.CloseProtocolError,
				) {
					log.Printf("unexpected close for %s: %v", c.ID, err)
				}

				if ne, ok := err.(net.Error); ok && ne.Timeout() {
					log.Printf("client %s timed out - closing connection", c.ID)
					return
				}

				log.Printf("error reading from client %s: %v", c.ID, err)
				return
			}

			// Non-blocking send into inbound processing queue to avoid blocking reader
			select {
			case c.hub.inbound <- inboundEvent{client: c, event: ev}:
				// accepted for processing
			case <-time.After(inboundSendTimeout):
				log.Printf("inbound send timeout: dropping client %s", c.ID)
				c.cancel()
				c.conn.Close()
			case <-c.ctx.Done():
				return
			}
		}
	}
}

func (c *Client) writeMessages() {
	ticker := time.NewTicker(pingInterval)

	defer func() {
		ticker.Stop()
		c.Close()
		_ = c.conn.Close()

		c.connClosedOnce.Do(func() {
			close(c.connClosed)
		})
	}()

	for {
		select {
		case <-c.ctx.Done():
			if err := c.conn.WriteMessage(websocket.CloseMessage, nil); err != nil {
				log.Printf("connection closed: %v", err)
			}
			return
		case ev := <-c.egress:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(ev); err != nil {
				log.Printf("write error for client %s: %v", c.ID, err)
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Printf("ping error for client %s: %v", c.ID, err)
				return
			}
		}
	}
}

func (c *Client) pongHandler(pongMsg string) error {
	return c.conn.SetReadDeadline(time.Now().Add(pongWait))
}

// Send attempts to enqueue an event for delivery. Returns false if the client
// is closed or the egress buffer stays full past the send timeout; the caller
// treats that as an offline recipient.
func (c *Client) Send(ev event.WsEvent) bool {
	if c.IsClosed() {
		return false
	}

	select {
	case <-c.ctx.Done():
		return false
	case c.egress <- ev:
		return true
	case <-time.After(sendTimeout):
		log.Printf("egress full for client %s, dropping event %s", c.ID, ev.Event)
		return false
	}
}

// Close shuts the client down exactly once. Safe to call concurrently with
// in-flight sends; they become no-ops.
func (c *Client) Close() {
	c.once.Do(func() {
		c.closedMu.Lock()
		c.closed = true
		c.closedMu.Unlock()

		// The egress channel is drained by ctx cancellation, never closed:
		// concurrent Send calls must stay safe during shutdown.
		c.cancel()

		// Wait for writeMessages to close conn, or force close after timeout
		go func() {
			select {
			case <-c.connClosed:
				// writeMessages closed it properly
			case <-time.After(5 * time.Second):
				_ = c.conn.Close()
				log.Printf("safety timeout: force closed connection for client %s", c.ID)
			}
		}()
	})
}

// IsClosed returns true if the client has been closed
func (c *Client) IsClosed() bool {
	c.closedMu.RLock()
	defer c.closedMu.RUnlock()
	return c.closed
}
