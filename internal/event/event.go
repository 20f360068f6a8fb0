package event

import "encoding/json"

// Client -> server events
const (
	EventAuthenticate = "authenticate"
	EventSendMessage  = "send_message"
	EventMarkRead     = "mark_read"
)

// Server -> client events
const (
	EventAuthenticated = "authenticated"
	EventNewMessage    = "new_message"
	EventUnreadCount   = "unread_count"
	EventMessageRead   = "message_read"
	EventError         = "error"
)

// WsEvent is the envelope for every frame on the live channel, both
// directions. Payload shape depends on Event.
type WsEvent struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// AuthenticatePayload carries the credential presented on a fresh connection.
type AuthenticatePayload struct {
	Token string `json:"token"`
}

// AuthenticatedPayload confirms a successful authenticate.
type AuthenticatedPayload struct {
	Success bool   `json:"success"`
	UserID  string `json:"userId"`
	Role    string `json:"role"`
}

// SendMessagePayload is a send request over the live channel. Exactly one of
// ReceiverID or ToAdmins is set; OrderID optionally scopes the message to an
// order.
type SendMessagePayload struct {
	ReceiverID string `json:"receiverId,omitempty"`
	ToAdmins   bool   `json:"toAdmins,omitempty"`
	Content    string `json:"content"`
	OrderID    string `json:"orderId,omitempty"`
}

// MarkReadPayload acknowledges a message.
type MarkReadPayload struct {
	MessageID string `json:"messageId"`
}

// UnreadCountPayload carries the reader's current unread total.
type UnreadCountPayload struct {
	Count int64 `json:"count"`
}

// MessageReadPayload notifies a sender that their message was acknowledged.
type MessageReadPayload struct {
	MessageID string `json:"messageId"`
	ReadBy    string `json:"readBy"`
	ReadAt    string `json:"readAt"`
}

// ErrorPayload is an error signal relayed to the client. The connection stays
// open; store-level failures never terminate the transport.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
