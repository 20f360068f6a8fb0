package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/mamoonayoob/Quick-Mart-Server/internal/db"
	"github.com/mamoonayoob/Quick-Mart-Server/internal/event"
	"github.com/mamoonayoob/Quick-Mart-Server/internal/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ----------------------------------------------------------------------
// In-memory fakes
// ----------------------------------------------------------------------

type fakeStore struct {
	appended []*model.Message
	markRead func(messageID, readerID string) (*model.Message, error)
	unread   map[string]int64
	failNext error
}

func (f *fakeStore) Append(ctx context.Context, msg *model.Message) (*model.Message, error) {
	if f.failNext != nil {
		err := f.failNext
		f.failNext = nil
		return nil, err
	}
	stored := *msg
	stored.ID = primitive.NewObjectID()
	stored.CreatedAt = time.Now().UTC()
	f.appended = append(f.appended, &stored)
	return &stored, nil
}

func (f *fakeStore) FindByID(ctx context.Context, messageID string) (*model.Message, error) {
	for _, m := range f.appended {
		if m.ID.Hex() == messageID {
			return m, nil
		}
	}
	return nil, model.NotFoundf("message %s not found", messageID)
}

func (f *fakeStore) FindByParticipants(ctx context.Context, userA, userB, orderID string) ([]model.Message, error) {
	var out []model.Message
	for _, m := range f.appended {
		direct := (m.SenderID == userA && m.ReceiverID == userB) ||
			(m.SenderID == userB && m.ReceiverID == userA)
		if !direct {
			continue
		}
		if orderID != "" && m.OrderID != orderID {
			continue
		}
		out = append(out, *m)
	}
	return out, nil
}

func (f *fakeStore) FindThreadPage(ctx context.Context, userA, userB, orderID string, page int64) (*db.PaginatedResult[model.Message], error) {
	thread, err := f.FindByParticipants(ctx, userA, userB, orderID)
	if err != nil {
		return nil, err
	}

	const pageSize = 15
	total := int64(len(thread))
	totalPages := total / pageSize
	if total%pageSize > 0 {
		totalPages++
	}
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	return &db.PaginatedResult[model.Message]{
		Data:       thread[start:end],
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

func (f *fakeStore) FindAllForIdentity(ctx context.Context, userID string) ([]model.Message, error) {
	// Newest first, same contract as the mongo-backed store.
	var out []model.Message
	for i := len(f.appended) - 1; i >= 0; i-- {
		m := f.appended[i]
		if m.SenderID == userID || m.AddressedTo(userID) {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (f *fakeStore) FindByOrder(ctx context.Context, orderID string) ([]model.Message, error) {
	var out []model.Message
	for _, m := range f.appended {
		if m.OrderID == orderID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (f *fakeStore) MarkRead(ctx context.Context, messageID, readerID string) (*model.Message, error) {
	if f.markRead != nil {
		return f.markRead(messageID, readerID)
	}
	return nil, model.NotFoundf("message %s not found", messageID)
}

func (f *fakeStore) CountUnreadFor(ctx context.Context, userID string) (int64, error) {
	return f.unread[userID], nil
}

type fakeUsers struct {
	users map[string]*model.User
}

func (f *fakeUsers) FindIdentity(ctx context.Context, userID string) (*model.User, error) {
	u, ok := f.users[userID]
	if !ok {
		return nil, model.NotFoundf("user %s not found", userID)
	}
	return u, nil
}

func (f *fakeUsers) FindIdentities(ctx context.Context, userIDs []string) (map[string]*model.User, error) {
	out := make(map[string]*model.User)
	for _, id := range userIDs {
		if u, ok := f.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

func (f *fakeUsers) ListByRole(ctx context.Context, role, excludeUserID string) ([]model.User, error) {
	var out []model.User
	for _, u := range f.users {
		if u.Role != role || !u.IsActive || u.UserID == excludeUserID {
			continue
		}
		out = append(out, *u)
	}
	return out, nil
}

type fakeOrders struct {
	orders map[string]*model.Order
}

func (f *fakeOrders) FindOrder(ctx context.Context, orderID string) (*model.Order, error) {
	o, ok := f.orders[orderID]
	if !ok {
		return nil, model.NotFoundf("order %s not found", orderID)
	}
	return o, nil
}

type notifyCall struct {
	token string
	title string
	body  string
	data  map[string]string
}

type recordingNotifier struct {
	mu    sync.Mutex
	calls []notifyCall
	err   error
}

func (n *recordingNotifier) Notify(ctx context.Context, pushToken, title, body string, data map[string]string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, notifyCall{token: pushToken, title: title, body: body, data: data})
	return n.err
}

func (n *recordingNotifier) recorded() []notifyCall {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notifyCall(nil), n.calls...)
}

// blockingNotifier holds every Notify call until released, to prove the send
// path does not wait for it.
type blockingNotifier struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (n *blockingNotifier) Notify(ctx context.Context, pushToken, title, body string, data map[string]string) error {
	n.once.Do(func() { close(n.started) })
	<-n.release
	return nil
}

type recordingLive struct {
	online    map[string]bool
	delivered map[string][]event.WsEvent
}

func newRecordingLive(online ...string) *recordingLive {
	l := &recordingLive{
		online:    make(map[string]bool),
		delivered: make(map[string][]event.WsEvent),
	}
	for _, id := range online {
		l.online[id] = true
	}
	return l
}

func (l *recordingLive) Deliver(userID string, ev event.WsEvent) bool {
	if !l.online[userID] {
		return false
	}
	l.delivered[userID] = append(l.delivered[userID], ev)
	return true
}

func (l *recordingLive) eventsFor(userID, eventType string) []event.WsEvent {
	var out []event.WsEvent
	for _, ev := range l.delivered[userID] {
		if ev.Event == eventType {
			out = append(out, ev)
		}
	}
	return out
}

// ----------------------------------------------------------------------
// Fixtures
// ----------------------------------------------------------------------

func marketplaceUsers() map[string]*model.User {
	return map[string]*model.User{
		"cust-1":   {UserID: "cust-1", Name: "Carol", Role: model.RoleCustomer, IsActive: true, PushToken: "tok-cust-1"},
		"vend-1":   {UserID: "vend-1", Name: "Victor", Role: model.RoleVendor, IsActive: true, PushToken: "tok-vend-1"},
		"deliv-1":  {UserID: "deliv-1", Name: "Dana", Role: model.RoleDelivery, IsActive: true},
		"admin-1":  {UserID: "admin-1", Name: "Alice", Role: model.RoleAdmin, IsActive: true, PushToken: "tok-admin-1"},
		"admin-2":  {UserID: "admin-2", Name: "Aaron", Role: model.RoleAdmin, IsActive: true, PushToken: "tok-admin-2"},
		"admin-x":  {UserID: "admin-x", Name: "Gone", Role: model.RoleAdmin, IsActive: false},
		"inactive": {UserID: "inactive", Name: "Idle", Role: model.RoleCustomer, IsActive: false},
	}
}

func newTestService(store *fakeStore, live *recordingLive, notifier Notifier) *MessageService {
	if store.unread == nil {
		store.unread = make(map[string]int64)
	}
	orders := &fakeOrders{orders: map[string]*model.Order{
		"order-1": {OrderID: "order-1", CustomerID: "cust-1", VendorID: "vend-1"},
	}}
	svc := NewMessageService(store, &fakeUsers{users: marketplaceUsers()}, orders, notifier, zap.NewNop())
	svc.SetLiveDeliverer(live)
	return svc
}

// ----------------------------------------------------------------------
// SendMessage
// ----------------------------------------------------------------------

func TestSendMessageRequiresExactlyOneTarget(t *testing.T) {
	svc := newTestService(&fakeStore{}, newRecordingLive(), &recordingNotifier{})
	ctx := context.Background()

	_, err := svc.SendMessage(ctx, "cust-1", SendInput{Content: "hi"})
	if !errors.Is(err, model.ErrValidation) {
		t.Fatalf("no target: expected validation error, got %v", err)
	}

	_, err = svc.SendMessage(ctx, "cust-1", SendInput{ReceiverID: "vend-1", ToAdmins: true, Content: "hi"})
	if !errors.Is(err, model.ErrValidation) {
		t.Fatalf("both targets: expected validation error, got %v", err)
	}
}

func TestSendMessageRejectsInactiveParties(t *testing.T) {
	svc := newTestService(&fakeStore{}, newRecordingLive(), &recordingNotifier{})
	ctx := context.Background()

	_, err := svc.SendMessage(ctx, "inactive", SendInput{ReceiverID: "vend-1", Content: "hi"})
	if !errors.Is(err, model.ErrUnauthorized) {
		t.Fatalf("inactive sender: expected unauthorized, got %v", err)
	}

	_, err = svc.SendMessage(ctx, "vend-1", SendInput{ReceiverID: "inactive", Content: "hi"})
	if !errors.Is(err, model.ErrValidation) {
		t.Fatalf("inactive receiver: expected validation error, got %v", err)
	}
}

func TestSendMessageEnforcesRolePairPolicy(t *testing.T) {
	svc := newTestService(&fakeStore{}, newRecordingLive(), &recordingNotifier{})
	ctx := context.Background()

	// A single admin may never be a direct receiver.
	_, err := svc.SendMessage(ctx, "cust-1", SendInput{ReceiverID: "admin-1", Content: "hi"})
	if !errors.Is(err, model.ErrUnauthorized) {
		t.Fatalf("direct-to-admin: expected unauthorized, got %v", err)
	}
}

func TestSendMessageStampsKindFromPolicy(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store, newRecordingLive(), &recordingNotifier{})

	msg, err := svc.SendMessage(context.Background(), "cust-1", SendInput{
		ReceiverID: "vend-1",
		Content:    "where is my order?",
		OrderID:    "order-1",
	})
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if msg.Kind != model.KindCustomerToVendor {
		t.Fatalf("expected kind %s, got %s", model.KindCustomerToVendor, msg.Kind)
	}
	if msg.ID.IsZero() || msg.CreatedAt.IsZero() {
		t.Fatalf("stored message missing id or timestamp: %+v", msg)
	}
	if len(store.appended) != 1 {
		t.Fatalf("expected 1 stored message, got %d", len(store.appended))
	}
}

func TestSendMessageOrderScopeRules(t *testing.T) {
	svc := newTestService(&fakeStore{}, newRecordingLive(), &recordingNotifier{})
	ctx := context.Background()

	// Vendor-to-delivery traffic is general only.
	_, err := svc.SendMessage(ctx, "vend-1", SendInput{ReceiverID: "deliv-1", Content: "hi", OrderID: "order-1"})
	if !errors.Is(err, model.ErrValidation) {
		t.Fatalf("order on general-only kind: expected validation error, got %v", err)
	}

	_, err = svc.SendMessage(ctx, "cust-1", SendInput{ReceiverID: "vend-1", Content: "hi", OrderID: "missing"})
	if !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("unknown order: expected not found, got %v", err)
	}

	// Admin may reference any order.
	if _, err := svc.SendMessage(ctx, "admin-1", SendInput{ReceiverID: "cust-1", Content: "hello", OrderID: "order-1"}); err != nil {
		t.Fatalf("admin order-scoped send failed: %v", err)
	}
}

func TestSendMessageRejectsNonPartyOrder(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store, newRecordingLive(), &recordingNotifier{})

	orders := &fakeOrders{orders: map[string]*model.Order{
		"order-2": {OrderID: "order-2", CustomerID: "cust-other", VendorID: "vend-other"},
	}}
	svc.orders = orders

	_, err := svc.SendMessage(context.Background(), "cust-1", SendInput{ReceiverID: "vend-1", Content: "hi", OrderID: "order-2"})
	if !errors.Is(err, model.ErrUnauthorized) {
		t.Fatalf("non-party order: expected unauthorized, got %v", err)
	}
}

func TestBroadcastCapturesRecipientsAtSend(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store, newRecordingLive(), &recordingNotifier{})

	msg, err := svc.SendMessage(context.Background(), "cust-1", SendInput{ToAdmins: true, Content: "help"})
	if err != nil {
		t.Fatalf("broadcast failed: %v", err)
	}
	if !msg.IsBroadcast() {
		t.Fatalf("expected broadcast message, got %+v", msg)
	}
	if msg.ReceiverID != "" {
		t.Fatalf("broadcast must not carry a single receiver, got %q", msg.ReceiverID)
	}

	// Only the active admins; admin-x is deactivated and must not appear.
	got := make(map[string]bool, len(msg.Recipients))
	for _, r := range msg.Recipients {
		got[r] = true
	}
	if len(got) != 2 || !got["admin-1"] || !got["admin-2"] {
		t.Fatalf("expected recipients admin-1+admin-2, got %v", msg.Recipients)
	}
	if msg.Kind != model.KindCustomerToAdmin {
		t.Fatalf("expected kind %s, got %s", model.KindCustomerToAdmin, msg.Kind)
	}
}

func TestAdminBroadcastExcludesSender(t *testing.T) {
	svc := newTestService(&fakeStore{}, newRecordingLive(), &recordingNotifier{})

	msg, err := svc.SendMessage(context.Background(), "admin-1", SendInput{ToAdmins: true, Content: "heads up"})
	if err != nil {
		t.Fatalf("admin broadcast failed: %v", err)
	}
	for _, r := range msg.Recipients {
		if r == "admin-1" {
			t.Fatalf("sender must not be their own recipient: %v", msg.Recipients)
		}
	}
	if len(msg.Recipients) != 1 || msg.Recipients[0] != "admin-2" {
		t.Fatalf("expected [admin-2], got %v", msg.Recipients)
	}
}

func TestSendMessageDeliversToLiveRecipients(t *testing.T) {
	store := &fakeStore{unread: map[string]int64{"vend-1": 3}}
	live := newRecordingLive("vend-1")
	svc := newTestService(store, live, &recordingNotifier{})

	if _, err := svc.SendMessage(context.Background(), "cust-1", SendInput{ReceiverID: "vend-1", Content: "hi"}); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	if n := len(live.eventsFor("vend-1", event.EventNewMessage)); n != 1 {
		t.Fatalf("expected 1 new_message push, got %d", n)
	}
	if n := len(live.eventsFor("vend-1", event.EventUnreadCount)); n != 1 {
		t.Fatalf("expected 1 unread_count push after delivery, got %d", n)
	}
}

func TestSendMessageSurvivesOfflineRecipientAndFailedPush(t *testing.T) {
	store := &fakeStore{}
	live := newRecordingLive() // nobody online
	notifier := &recordingNotifier{err: errors.New("fcm unavailable")}
	svc := newTestService(store, live, notifier)

	msg, err := svc.SendMessage(context.Background(), "cust-1", SendInput{ReceiverID: "vend-1", Content: "hi"})
	if err != nil {
		t.Fatalf("send must not fail on delivery problems: %v", err)
	}
	svc.WaitNotifications()

	if len(store.appended) != 1 {
		t.Fatalf("message must still be stored, got %d", len(store.appended))
	}
	if calls := notifier.recorded(); len(calls) != 1 {
		t.Fatalf("notifier should still be attempted, got %d calls", len(calls))
	}
	t.Logf("stored %s despite offline recipient and push failure", msg.ID.Hex())
}

func TestSendMessageNotifiesEachBroadcastRecipient(t *testing.T) {
	notifier := &recordingNotifier{}
	svc := newTestService(&fakeStore{}, newRecordingLive(), notifier)

	if _, err := svc.SendMessage(context.Background(), "vend-1", SendInput{ToAdmins: true, Content: "stock issue"}); err != nil {
		t.Fatalf("broadcast failed: %v", err)
	}
	svc.WaitNotifications()

	calls := notifier.recorded()
	if len(calls) != 2 {
		t.Fatalf("expected one notification per admin, got %d", len(calls))
	}
	for _, call := range calls {
		if call.title != "New Vendor Support Message" {
			t.Fatalf("unexpected notification title %q", call.title)
		}
		if call.data["senderId"] != "vend-1" {
			t.Fatalf("notification data missing sender: %v", call.data)
		}
	}
}

func TestSendMessageStoreFailureAborts(t *testing.T) {
	store := &fakeStore{failNext: fmt.Errorf("write concern: %w", context.DeadlineExceeded)}
	live := newRecordingLive("vend-1")
	notifier := &recordingNotifier{}
	svc := newTestService(store, live, notifier)

	if _, err := svc.SendMessage(context.Background(), "cust-1", SendInput{ReceiverID: "vend-1", Content: "hi"}); err == nil {
		t.Fatal("expected store failure to surface")
	}
	svc.WaitNotifications()
	if len(live.delivered["vend-1"]) != 0 || len(notifier.recorded()) != 0 {
		t.Fatal("no push or notification may happen when the store write fails")
	}
}

func TestSendMessageDoesNotWaitForNotifier(t *testing.T) {
	notifier := &blockingNotifier{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	svc := newTestService(&fakeStore{}, newRecordingLive(), notifier)

	// If the notifier ran on the request path this call would hang until the
	// release below and the test would time out.
	msg, err := svc.SendMessage(context.Background(), "cust-1", SendInput{ReceiverID: "vend-1", Content: "hi"})
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if msg.ID.IsZero() {
		t.Fatal("message must be stored before notification dispatch")
	}

	select {
	case <-notifier.started:
	case <-time.After(2 * time.Second):
		t.Fatal("notification dispatch never started")
	}

	close(notifier.release)
	svc.WaitNotifications()
}

// ----------------------------------------------------------------------
// MarkRead
// ----------------------------------------------------------------------

func TestMarkReadPushesReceiptToSender(t *testing.T) {
	readAt := time.Now().UTC()
	acked := &model.Message{
		ID:         primitive.NewObjectID(),
		SenderID:   "cust-1",
		ReceiverID: "vend-1",
		Content:    "hi",
		IsRead:     true,
		ReadAt:     &readAt,
	}
	store := &fakeStore{
		markRead: func(messageID, readerID string) (*model.Message, error) {
			if readerID != "vend-1" {
				return nil, model.Unauthorizedf("user %s is not the receiver", readerID)
			}
			return acked, nil
		},
	}
	live := newRecordingLive("cust-1", "vend-1")
	svc := newTestService(store, live, &recordingNotifier{})

	if _, err := svc.MarkRead(context.Background(), acked.ID.Hex(), "vend-1"); err != nil {
		t.Fatalf("mark read failed: %v", err)
	}

	if n := len(live.eventsFor("cust-1", event.EventMessageRead)); n != 1 {
		t.Fatalf("expected read receipt pushed to sender, got %d events", n)
	}
	if n := len(live.eventsFor("vend-1", event.EventUnreadCount)); n != 1 {
		t.Fatalf("expected fresh unread count pushed to reader, got %d events", n)
	}
}

func TestMarkReadRejectsNonRecipient(t *testing.T) {
	store := &fakeStore{
		markRead: func(messageID, readerID string) (*model.Message, error) {
			return nil, model.Unauthorizedf("user %s is not the receiver", readerID)
		},
	}
	svc := newTestService(store, newRecordingLive(), &recordingNotifier{})

	if _, err := svc.MarkRead(context.Background(), primitive.NewObjectID().Hex(), "deliv-1"); !errors.Is(err, model.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

// ----------------------------------------------------------------------
// History and directories
// ----------------------------------------------------------------------

func TestHistoryWithAdminGroupPartner(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store, newRecordingLive(), &recordingNotifier{})
	ctx := context.Background()

	if _, err := svc.SendMessage(ctx, "cust-1", SendInput{ToAdmins: true, Content: "first"}); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if _, err := svc.SendMessage(ctx, "cust-1", SendInput{ReceiverID: "vend-1", Content: "unrelated"}); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if _, err := svc.SendMessage(ctx, "cust-1", SendInput{ToAdmins: true, Content: "second"}); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	thread, err := svc.History(ctx, "cust-1", model.PartnerAdmins, "")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if len(thread) != 2 {
		t.Fatalf("expected 2 broadcast messages, got %d", len(thread))
	}
	if thread[0].Content != "first" || thread[1].Content != "second" {
		t.Fatalf("history must be oldest first, got %q then %q", thread[0].Content, thread[1].Content)
	}
}

func TestHistoryPageOverAdminGroup(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store, newRecordingLive(), &recordingNotifier{})
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		if _, err := svc.SendMessage(ctx, "cust-1", SendInput{ToAdmins: true, Content: fmt.Sprintf("msg %d", i)}); err != nil {
			t.Fatalf("send %d failed: %v", i, err)
		}
	}

	first, err := svc.HistoryPage(ctx, "cust-1", model.PartnerAdmins, "", 1)
	if err != nil {
		t.Fatalf("page 1 failed: %v", err)
	}
	if first.Total != 20 || first.TotalPages != 2 || len(first.Data) != 15 {
		t.Fatalf("page 1: total=%d totalPages=%d len=%d", first.Total, first.TotalPages, len(first.Data))
	}
	if first.Data[0].Content != "msg 0" {
		t.Fatalf("page 1 must start at the oldest message, got %q", first.Data[0].Content)
	}

	second, err := svc.HistoryPage(ctx, "cust-1", model.PartnerAdmins, "", 2)
	if err != nil {
		t.Fatalf("page 2 failed: %v", err)
	}
	if len(second.Data) != 5 || second.Data[0].Content != "msg 15" {
		t.Fatalf("page 2: len=%d first=%q", len(second.Data), second.Data[0].Content)
	}

	if _, err := svc.HistoryPage(ctx, "cust-1", model.PartnerAdmins, "", 0); !errors.Is(err, model.ErrValidation) {
		t.Fatalf("page 0: expected validation error, got %v", err)
	}
}

func TestHistoryRequiresPartner(t *testing.T) {
	svc := newTestService(&fakeStore{}, newRecordingLive(), &recordingNotifier{})
	if _, err := svc.History(context.Background(), "cust-1", "", ""); !errors.Is(err, model.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestMessagesByOrderAuthorization(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store, newRecordingLive(), &recordingNotifier{})
	ctx := context.Background()

	if _, err := svc.SendMessage(ctx, "cust-1", SendInput{ReceiverID: "vend-1", Content: "hi", OrderID: "order-1"}); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	// Parties and admins may read, a bystander may not.
	if _, err := svc.MessagesByOrder(ctx, "order-1", "cust-1"); err != nil {
		t.Fatalf("customer party read failed: %v", err)
	}
	if _, err := svc.MessagesByOrder(ctx, "order-1", "admin-1"); err != nil {
		t.Fatalf("admin read failed: %v", err)
	}
	if _, err := svc.MessagesByOrder(ctx, "order-1", "deliv-1"); !errors.Is(err, model.ErrUnauthorized) {
		t.Fatalf("bystander read: expected unauthorized, got %v", err)
	}
}

func TestVendorByOrder(t *testing.T) {
	svc := newTestService(&fakeStore{}, newRecordingLive(), &recordingNotifier{})

	vendor, err := svc.VendorByOrder(context.Background(), "order-1")
	if err != nil {
		t.Fatalf("vendor lookup failed: %v", err)
	}
	if vendor.UserID != "vend-1" {
		t.Fatalf("expected vend-1, got %s", vendor.UserID)
	}
}

func TestDirectoryExcludesCaller(t *testing.T) {
	svc := newTestService(&fakeStore{}, newRecordingLive(), &recordingNotifier{})

	admins, err := svc.Directory(context.Background(), model.RoleAdmin, "admin-1")
	if err != nil {
		t.Fatalf("directory failed: %v", err)
	}
	for _, a := range admins {
		if a.UserID == "admin-1" {
			t.Fatal("caller must be excluded from the directory")
		}
		if !a.IsActive {
			t.Fatalf("inactive user %s in directory", a.UserID)
		}
	}
}
