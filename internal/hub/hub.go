package hub

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/mamoonayoob/Quick-Mart-Server/internal/auth"
	"github.com/mamoonayoob/Quick-Mart-Server/internal/event"
	"github.com/mamoonayoob/Quick-Mart-Server/internal/model"
	"github.com/mamoonayoob/Quick-Mart-Server/internal/service"

	"github.com/gorilla/websocket"
)

type inboundEvent struct {
	event  event.WsEvent
	client *Client
}

// Hub is the delivery gateway: it owns every live connection, binds
// authenticated identities to sessions through the registry, and pushes
// store-confirmed events to recipients on a best-effort basis. Missed pushes
// are healed by the poll-based aggregator, so nothing here queues or retries.
type Hub struct {
	registry Registry
	svc      *service.MessageService
	users    service.IdentityDirectory
	verifier *auth.Verifier
	presence PresenceTracker

	register   chan *Client
	unregister chan *Client
	inbound    chan inboundEvent

	clients   map[*Client]struct{}
	clientsMu sync.RWMutex

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub(registry Registry, svc *service.MessageService, users service.IdentityDirectory, verifier *auth.Verifier, presence PresenceTracker) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	if presence == nil {
		presence = NopPresence{}
	}

	h := &Hub{
		registry:   registry,
		svc:        svc,
		users:      users,
		verifier:   verifier,
		presence:   presence,
		register:   make(chan *Client, 1024),
		unregister: make(chan *Client, 1024),
		inbound:    make(chan inboundEvent, 4096), // buffer for burst handling
		clients:    make(map[*Client]struct{}),
		ctx:        ctx,
		cancel:     cancel,
	}

	// run manager loop
	go h.run()

	// start worker loop; each event is handled independently so one
	// connection's store I/O never blocks another's traffic
	for i := 0; i < workerPoolSize; i++ {
		h.wg.Add(1)
		go func() {
			defer h.wg.Done()
			for {
				select {
				case <-h.ctx.Done():
					return
				case in := <-h.inbound:
					h.handleEvent(in.event, in.client)
				}
			}
		}()
	}

	return h
}

func (h *Hub) run() {
	for {
		select {
		case <-h.ctx.Done():
			return
		case c := <-h.register:
			h.addClient(c)
		case c := <-h.unregister:
			h.removeClient(c)
		}
	}
}

func (h *Hub) addClient(c *Client) {
	h.clientsMu.Lock()
	h.clients[c] = struct{}{}
	h.clientsMu.Unlock()
}

func (h *Hub) removeClient(c *Client) {
	h.clientsMu.Lock()
	delete(h.clients, c)
	h.clientsMu.Unlock()

	if userID := c.Identity(); userID != "" {
		if h.registry.Unbind(userID, c) {
			h.presence.Disconnected(context.Background(), userID, c.Role())
			log.Printf("user %s disconnected", userID)
		}
	}
	c.Close()
}

// Deliver implements service.LiveDeliverer: push an event to the identity's
// live session if one exists. A false return means the recipient is offline
// or their buffer is jammed; the caller does not care which.
func (h *Hub) Deliver(userID string, ev event.WsEvent) bool {
	s, ok := h.registry.Get(userID)
	if !ok {
		return false
	}
	return s.Send(ev)
}

// -----------------------------------------------------------------
// Inbound event dispatch
// -----------------------------------------------------------------

func (h *Hub) handleEvent(ev event.WsEvent, c *Client) {
	switch ev.Event {
	case event.EventAuthenticate:
		h.handleAuthenticate(ev, c)
	case event.EventSendMessage:
		h.handleSendMessage(ev, c)
	case event.EventMarkRead:
		h.handleMarkRead(ev, c)
	default:
		log.Printf("unknown event type %q from client %s", ev.Event, c.ID)
		h.sendError(c, "UNKNOWN_EVENT", "unknown event type")
	}
}

// handleAuthenticate binds an identity to this connection. A prior session
// for the same identity is evicted and closed: at most one live connection
// per identity. On failure the connection stays open and anonymous.
func (h *Hub) handleAuthenticate(ev event.WsEvent, c *Client) {
	var payload event.AuthenticatePayload
	if err := json.Unmarshal(ev.Payload, &payload); err != nil || payload.Token == "" {
		h.sendError(c, "AUTH_FAILED", "authentication payload requires a token")
		return
	}

	claims, err := h.verifier.ValidateToken(payload.Token)
	if err != nil {
		h.sendError(c, "AUTH_FAILED", "invalid credential")
		return
	}

	ctx, cancel := context.WithTimeout(h.ctx, 5*time.Second)
	defer cancel()

	user, err := h.users.FindIdentity(ctx, claims.UserID)
	if err != nil {
		h.sendError(c, "AUTH_FAILED", "user not found")
		return
	}
	if !user.IsActive {
		h.sendError(c, "AUTH_FAILED", "user is not active")
		return
	}

	// A connection re-authenticating under a different identity must release
	// its old binding first, or the registry would keep routing the old
	// identity's pushes to this socket.
	if prevID := c.Identity(); prevID != "" && prevID != user.UserID {
		if h.registry.Unbind(prevID, c) {
			h.presence.Disconnected(ctx, prevID, c.Role())
			log.Printf("client %s released identity %s on re-authenticate", c.ID, prevID)
		}
	}

	c.bindIdentity(user.UserID, user.Role)
	if prev := h.registry.Bind(user.UserID, c); prev != nil {
		log.Printf("user %s re-authenticated on a new connection, evicting %s", user.UserID, prev.SessionID())
		prev.Close()
	}
	h.presence.Connected(ctx, user.UserID, user.Role)

	log.Printf("user %s (%s) authenticated on client %s", user.UserID, user.Role, c.ID)

	authedPayload, _ := json.Marshal(event.AuthenticatedPayload{
		Success: true,
		UserID:  user.UserID,
		Role:    user.Role,
	})
	c.Send(event.WsEvent{Event: event.EventAuthenticated, Payload: authedPayload})

	// Fresh unread count so the client starts from the authoritative state.
	count, err := h.svc.UnreadCount(ctx, user.UserID)
	if err != nil {
		log.Printf("unread count on authenticate failed for %s: %v", user.UserID, err)
		return
	}
	countPayload, _ := json.Marshal(event.UnreadCountPayload{Count: count})
	c.Send(event.WsEvent{Event: event.EventUnreadCount, Payload: countPayload})
}

func (h *Hub) handleSendMessage(ev event.WsEvent, c *Client) {
	senderID := c.Identity()
	if senderID == "" {
		h.sendError(c, "UNAUTHORIZED", "authenticate before sending messages")
		return
	}

	var payload event.SendMessagePayload
	if err := json.Unmarshal(ev.Payload, &payload); err != nil {
		h.sendError(c, "VALIDATION_ERROR", "malformed send_message payload")
		return
	}

	ctx, cancel := context.WithTimeout(h.ctx, 15*time.Second)
	defer cancel()

	msg, err := h.svc.SendMessage(ctx, senderID, service.SendInput{
		ReceiverID: payload.ReceiverID,
		ToAdmins:   payload.ToAdmins,
		Content:    payload.Content,
		OrderID:    payload.OrderID,
	})
	if err != nil {
		h.sendError(c, errorCode(err), err.Error())
		return
	}

	// Echo the stored message back so the sender's client gets the assigned
	// ID and timestamp.
	echo, _ := json.Marshal(msg)
	c.Send(event.WsEvent{Event: event.EventNewMessage, Payload: echo})
}

func (h *Hub) handleMarkRead(ev event.WsEvent, c *Client) {
	readerID := c.Identity()
	if readerID == "" {
		h.sendError(c, "UNAUTHORIZED", "authenticate before acknowledging messages")
		return
	}

	var payload event.MarkReadPayload
	if err := json.Unmarshal(ev.Payload, &payload); err != nil || payload.MessageID == "" {
		h.sendError(c, "VALIDATION_ERROR", "malformed mark_read payload")
		return
	}

	ctx, cancel := context.WithTimeout(h.ctx, 15*time.Second)
	defer cancel()

	if _, err := h.svc.MarkRead(ctx, payload.MessageID, readerID); err != nil {
		h.sendError(c, errorCode(err), err.Error())
	}
}

func (h *Hub) sendError(c *Client, code, message string) {
	payload, _ := json.Marshal(event.ErrorPayload{Code: code, Message: message})
	c.Send(event.WsEvent{Event: event.EventError, Payload: payload})
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, model.ErrValidation):
		return "VALIDATION_ERROR"
	case errors.Is(err, model.ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, model.ErrUnauthorized):
		return "UNAUTHORIZED"
	default:
		return "INTERNAL_ERROR"
	}
}

// -----------------------------------------------------------------
// Transport
// -----------------------------------------------------------------

var websocketUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     checkOrigin,
}

func checkOrigin(r *http.Request) bool {
	// Browsers send an Origin header; non-browser clients (mobile apps, the
	// test harness) usually do not.
	return true
}

// ServeWS upgrades an HTTP request to a websocket connection. The connection
// starts anonymous; application events are rejected until the client
// authenticates over the socket.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocketUpgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println(err)
		return
	}

	registerClient(conn, h)
}

// Stop closes every connection and waits for the workers to drain.
func (h *Hub) Stop() {
	h.cancel()

	h.clientsMu.RLock()
	for c := range h.clients {
		c.Close()
	}
	h.clientsMu.RUnlock()

	// inbound is deliberately left open: workers exit on ctx cancellation,
	// and a reader goroutine mid-send must never hit a closed channel.
	h.wg.Wait()
}
