package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/mamoonayoob/Quick-Mart-Server/internal/db"
	"github.com/mamoonayoob/Quick-Mart-Server/internal/event"
	"github.com/mamoonayoob/Quick-Mart-Server/internal/model"

	"go.uber.org/zap"
)

// MessageStore is the durable message store the service writes through.
// Implemented by repo.MessageRepository; tests use an in-memory fake.
type MessageStore interface {
	Append(ctx context.Context, msg *model.Message) (*model.Message, error)
	FindByID(ctx context.Context, messageID string) (*model.Message, error)
	FindByParticipants(ctx context.Context, userA, userB, orderID string) ([]model.Message, error)
	FindThreadPage(ctx context.Context, userA, userB, orderID string, page int64) (*db.PaginatedResult[model.Message], error)
	FindAllForIdentity(ctx context.Context, userID string) ([]model.Message, error)
	FindByOrder(ctx context.Context, orderID string) ([]model.Message, error)
	MarkRead(ctx context.Context, messageID, readerID string) (*model.Message, error)
	CountUnreadFor(ctx context.Context, userID string) (int64, error)
}

// IdentityDirectory resolves users for validation and display enrichment.
type IdentityDirectory interface {
	FindIdentity(ctx context.Context, userID string) (*model.User, error)
	FindIdentities(ctx context.Context, userIDs []string) (map[string]*model.User, error)
	ListByRole(ctx context.Context, role, excludeUserID string) ([]model.User, error)
}

// OrderLookup resolves the parties of an order for order-scoped messages.
type OrderLookup interface {
	FindOrder(ctx context.Context, orderID string) (*model.Order, error)
}

// Notifier is the push-notification bridge; see notify.Notifier.
type Notifier interface {
	Notify(ctx context.Context, pushToken, title, body string, data map[string]string) error
}

// LiveDeliverer pushes an event to a user's live connection if one exists.
// Implemented by the websocket hub; a missed push is compensated by the next
// conversation or unread-count poll.
type LiveDeliverer interface {
	Deliver(userID string, ev event.WsEvent) bool
}

// SendInput is the single generic send request. Exactly one of ReceiverID or
// ToAdmins must be set.
type SendInput struct {
	ReceiverID string
	ToAdmins   bool
	Content    string
	OrderID    string
}

// MessageService implements the messaging core: generic policy-driven send,
// read acknowledgment, unread counts, conversation aggregation, history, and
// the role directories.
type MessageService struct {
	store    MessageStore
	users    IdentityDirectory
	orders   OrderLookup
	notifier Notifier
	live     LiveDeliverer
	logger   *zap.Logger

	notifyWG sync.WaitGroup
}

func NewMessageService(store MessageStore, users IdentityDirectory, orders OrderLookup, notifier Notifier, logger *zap.Logger) *MessageService {
	return &MessageService{
		store:    store,
		users:    users,
		orders:   orders,
		notifier: notifier,
		live:     noLive{},
		logger:   logger,
	}
}

// SetLiveDeliverer attaches the delivery gateway. Wired after construction
// because the hub and the service reference each other.
func (s *MessageService) SetLiveDeliverer(live LiveDeliverer) {
	if live != nil {
		s.live = live
	}
}

type noLive struct{}

func (noLive) Deliver(string, event.WsEvent) bool { return false }

// -----------------------------------------------------------------------------
// Send
// -----------------------------------------------------------------------------

// SendMessage validates the sender/receiver relationship against the
// role-pair policy table, persists the message, pushes it to any live
// recipient connections, and fires the notification bridge. Store failures
// abort before any side effect; push and notification failures never fail
// the send.
func (s *MessageService) SendMessage(ctx context.Context, senderID string, input SendInput) (*model.Message, error) {
	if input.ReceiverID == "" && !input.ToAdmins {
		return nil, model.Validationf("either receiverId or toAdmins must be set")
	}
	if input.ReceiverID != "" && input.ToAdmins {
		return nil, model.Validationf("receiverId and toAdmins are mutually exclusive")
	}

	sender, err := s.users.FindIdentity(ctx, senderID)
	if err != nil {
		return nil, err
	}
	if !sender.IsActive {
		return nil, model.Unauthorizedf("sender %s is not active", senderID)
	}

	var receiver *model.User
	receiverRole := ""
	if input.ReceiverID != "" {
		receiver, err = s.users.FindIdentity(ctx, input.ReceiverID)
		if err != nil {
			return nil, err
		}
		if !receiver.IsActive {
			return nil, model.Validationf("receiver %s is not active", input.ReceiverID)
		}
		receiverRole = receiver.Role
	}

	policy, err := policyFor(sender.Role, receiverRole, input.ToAdmins)
	if err != nil {
		return nil, err
	}

	if input.OrderID != "" {
		if !policy.OrderAllowed {
			return nil, model.Validationf("messages of kind %s cannot reference an order", policy.Kind)
		}
		if err := s.checkOrderParties(ctx, input.OrderID, sender, receiver); err != nil {
			return nil, err
		}
	}

	msg := &model.Message{
		SenderID: senderID,
		Content:  input.Content,
		OrderID:  input.OrderID,
		Kind:     policy.Kind,
	}

	if policy.Broadcast {
		exclude := ""
		if policy.ExcludeSender {
			exclude = senderID
		}
		admins, err := s.users.ListByRole(ctx, model.RoleAdmin, exclude)
		if err != nil {
			return nil, err
		}
		if len(admins) == 0 {
			return nil, model.NotFoundf("no active admin users found")
		}
		recipients := make([]string, 0, len(admins))
		for _, a := range admins {
			recipients = append(recipients, a.UserID)
		}
		msg.Recipients = recipients
	} else {
		msg.ReceiverID = input.ReceiverID
	}

	stored, err := s.store.Append(ctx, msg)
	if err != nil {
		return nil, err
	}

	s.fanOut(ctx, stored, sender, receiver, policy)
	return stored, nil
}

func (s *MessageService) checkOrderParties(ctx context.Context, orderID string, sender, receiver *model.User) error {
	order, err := s.orders.FindOrder(ctx, orderID)
	if err != nil {
		return err
	}

	// Admins may attach any order; the marketplace parties must actually be
	// party to it.
	if sender.Role != model.RoleAdmin && !order.Party(sender.UserID) {
		return model.Unauthorizedf("user %s is not a party to order %s", sender.UserID, orderID)
	}
	if receiver != nil && receiver.Role != model.RoleAdmin && !order.Party(receiver.UserID) {
		return model.Unauthorizedf("user %s is not a party to order %s", receiver.UserID, orderID)
	}
	return nil
}

// fanOut pushes the stored message to live recipient connections and invokes
// the notification bridge, one recipient at a time. Each recipient is
// isolated: a dropped connection or a failed push notification never affects
// the others, and never the stored message.
func (s *MessageService) fanOut(ctx context.Context, msg *model.Message, sender *model.User, receiver *model.User, policy sendPolicy) {
	recipients := msg.Recipients
	if !msg.IsBroadcast() {
		recipients = []string{msg.ReceiverID}
	}

	tokens := make(map[string]string, len(recipients))
	if receiver != nil {
		tokens[receiver.UserID] = receiver.PushToken
	} else {
		identities, err := s.users.FindIdentities(ctx, recipients)
		if err != nil {
			s.logger.Warn("recipient token lookup failed", zap.Error(err))
		} else {
			for id, u := range identities {
				tokens[id] = u.PushToken
			}
		}
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		s.logger.Error("message payload marshal failed", zap.Error(err))
		return
	}
	ev := event.WsEvent{Event: event.EventNewMessage, Payload: payload}

	for _, rid := range recipients {
		if s.live.Deliver(rid, ev) {
			s.pushUnreadCount(ctx, rid)
		}
	}

	body := policy.NotifyBody
	if sender.Name != "" {
		body = policy.NotifyBody + " " + sender.Name
	}
	data := map[string]string{
		"type":      "message",
		"messageId": msg.ID.Hex(),
		"senderId":  msg.SenderID,
		"orderId":   msg.OrderID,
	}

	// Notifications run off the request path: the push endpoint can take
	// seconds per recipient and must never stall the sender. The detached
	// context keeps them alive after the request's deadline fires.
	notifyCtx := context.WithoutCancel(ctx)
	s.notifyWG.Add(1)
	go func() {
		defer s.notifyWG.Done()
		for _, rid := range recipients {
			if err := s.notifier.Notify(notifyCtx, tokens[rid], policy.NotifyTitle, body, data); err != nil {
				s.logger.Warn("push notification failed",
					zap.Error(err),
					zap.String("recipient", rid),
					zap.String("message_id", msg.ID.Hex()),
				)
			}
		}
	}()
}

// WaitNotifications blocks until in-flight notification dispatches finish.
// Used on shutdown and by tests.
func (s *MessageService) WaitNotifications() {
	s.notifyWG.Wait()
}

func (s *MessageService) pushUnreadCount(ctx context.Context, userID string) {
	count, err := s.store.CountUnreadFor(ctx, userID)
	if err != nil {
		s.logger.Warn("unread count for live push failed", zap.Error(err), zap.String("user_id", userID))
		return
	}
	payload, _ := json.Marshal(event.UnreadCountPayload{Count: count})
	s.live.Deliver(userID, event.WsEvent{Event: event.EventUnreadCount, Payload: payload})
}

// -----------------------------------------------------------------------------
// Read acknowledgment
// -----------------------------------------------------------------------------

// MarkRead acknowledges a message for readerID, then pushes a read receipt to
// the sender's live connection and a fresh unread count to the reader's.
func (s *MessageService) MarkRead(ctx context.Context, messageID, readerID string) (*model.Message, error) {
	msg, err := s.store.MarkRead(ctx, messageID, readerID)
	if err != nil {
		return nil, err
	}

	readAt := time.Now().UTC()
	if msg.ReadAt != nil {
		readAt = *msg.ReadAt
	}
	payload, _ := json.Marshal(event.MessageReadPayload{
		MessageID: msg.ID.Hex(),
		ReadBy:    readerID,
		ReadAt:    readAt.Format(time.RFC3339),
	})
	s.live.Deliver(msg.SenderID, event.WsEvent{Event: event.EventMessageRead, Payload: payload})
	s.pushUnreadCount(ctx, readerID)

	return msg, nil
}

// UnreadCount returns the authoritative unread total for a user.
func (s *MessageService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	return s.store.CountUnreadFor(ctx, userID)
}

// -----------------------------------------------------------------------------
// History and directories
// -----------------------------------------------------------------------------

// History returns the ordered thread between userID and a partner, oldest
// first. The synthetic admin-group partner returns the broadcasts the user
// has sent to the group. orderID optionally restricts the thread.
func (s *MessageService) History(ctx context.Context, userID, partnerID, orderID string) ([]model.Message, error) {
	if partnerID == "" {
		return nil, model.Validationf("partner id cannot be empty")
	}

	if partnerID == model.PartnerAdmins {
		feed, err := s.store.FindAllForIdentity(ctx, userID)
		if err != nil {
			return nil, err
		}
		var thread []model.Message
		// Feed is newest-first; walk backwards for ascending history.
		for i := len(feed) - 1; i >= 0; i-- {
			m := feed[i]
			if m.SenderID != userID || !m.IsBroadcast() {
				continue
			}
			if orderID != "" && m.OrderID != orderID {
				continue
			}
			thread = append(thread, m)
		}
		return thread, nil
	}

	return s.store.FindByParticipants(ctx, userID, partnerID, orderID)
}

const historyPageSize = 15

// HistoryPage returns one page of the thread, oldest first. The synthetic
// admin-group partner is paged in memory over the user's own broadcasts.
func (s *MessageService) HistoryPage(ctx context.Context, userID, partnerID, orderID string, page int64) (*db.PaginatedResult[model.Message], error) {
	if partnerID == "" {
		return nil, model.Validationf("partner id cannot be empty")
	}
	if page < 1 {
		return nil, model.Validationf("page must be positive")
	}

	if partnerID == model.PartnerAdmins {
		thread, err := s.History(ctx, userID, partnerID, orderID)
		if err != nil {
			return nil, err
		}

		total := int64(len(thread))
		totalPages := total / historyPageSize
		if total%historyPageSize > 0 {
			totalPages++
		}
		start := (page - 1) * historyPageSize
		if start > total {
			start = total
		}
		end := start + historyPageSize
		if end > total {
			end = total
		}

		return &db.PaginatedResult[model.Message]{
			Data:       thread[start:end],
			Total:      total,
			Page:       page,
			PageSize:   historyPageSize,
			TotalPages: totalPages,
		}, nil
	}

	return s.store.FindThreadPage(ctx, userID, partnerID, orderID, page)
}

// MessagesByOrder returns an order's full thread after checking the caller is
// party to the order (admins see every order).
func (s *MessageService) MessagesByOrder(ctx context.Context, orderID, userID string) ([]model.Message, error) {
	user, err := s.users.FindIdentity(ctx, userID)
	if err != nil {
		return nil, err
	}

	order, err := s.orders.FindOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if user.Role != model.RoleAdmin && !order.Party(userID) {
		return nil, model.Unauthorizedf("user %s is not a party to order %s", userID, orderID)
	}

	return s.store.FindByOrder(ctx, orderID)
}

// VendorByOrder resolves the vendor of an order for "message this order's
// counterparty" shortcuts.
func (s *MessageService) VendorByOrder(ctx context.Context, orderID string) (*model.User, error) {
	order, err := s.orders.FindOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return s.users.FindIdentity(ctx, order.VendorID)
}

// Directory lists active identities of a role for conversation-starter
// pickers, excluding the caller.
func (s *MessageService) Directory(ctx context.Context, role, excludeUserID string) ([]model.User, error) {
	return s.users.ListByRole(ctx, role, excludeUserID)
}
