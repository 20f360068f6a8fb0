package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mamoonayoob/Quick-Mart-Server/internal/db"
	"github.com/mamoonayoob/Quick-Mart-Server/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var (
	ErrOperationTimeout = errors.New("operation timeout exceeded")
)

const (
	// Timeouts
	defaultWriteTimeout = 5 * time.Second
	defaultReadTimeout  = 30 * time.Second

	// Retry configuration
	maxRetries     = 3
	baseRetryDelay = 100 * time.Millisecond
	maxRetryDelay  = 2 * time.Second
)

type messageRepository struct {
	mongoRepo *db.Repository[model.Message]
	logger    *zap.Logger
	clock     appendClock
}

// MessageRepository is the durable message store: pure append plus queries.
// No aggregation logic lives here.
type MessageRepository interface {
	Append(ctx context.Context, msg *model.Message) (*model.Message, error)
	FindByID(ctx context.Context, messageID string) (*model.Message, error)
	FindByParticipants(ctx context.Context, userA, userB, orderID string) ([]model.Message, error)
	FindThreadPage(ctx context.Context, userA, userB, orderID string, page int64) (*db.PaginatedResult[model.Message], error)
	FindAllForIdentity(ctx context.Context, userID string) ([]model.Message, error)
	FindByOrder(ctx context.Context, orderID string) ([]model.Message, error)
	MarkRead(ctx context.Context, messageID, readerID string) (*model.Message, error)
	CountUnreadFor(ctx context.Context, userID string) (int64, error)
}

func NewMessageRepository(mongoRepo *db.Repository[model.Message], logger *zap.Logger) MessageRepository {
	return &messageRepository{
		mongoRepo: mongoRepo,
		logger:    logger,
	}
}

// EnsureMessageIndexes creates the query indexes the store relies on.
func EnsureMessageIndexes(ctx context.Context, mongoRepo *db.Repository[model.Message]) error {
	return mongoRepo.EnsureIndexes(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "sender_id", Value: 1}, {Key: "receiver_id", Value: 1}}},
		{Keys: bson.D{{Key: "recipients", Value: 1}}},
		{Keys: bson.D{{Key: "order_id", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	})
}

// -----------------------------------------------------------------------------
// Append
// -----------------------------------------------------------------------------

func (m *messageRepository) Append(ctx context.Context, msg *model.Message) (*model.Message, error) {
	if err := validateAppend(msg); err != nil {
		return nil, err
	}

	ctx, cancel := m.ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	msg.ID = primitive.NewObjectID()
	msg.CreatedAt = m.clock.Now()
	msg.IsRead = false
	msg.ReadAt = nil
	msg.ReadReceipts = nil

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			if err := m.waitForRetry(ctx, attempt); err != nil {
				return nil, err
			}
		}

		_, err := m.mongoRepo.Create(ctx, *msg)
		if err == nil {
			m.logger.Info("message appended",
				zap.String("message_id", msg.ID.Hex()),
				zap.String("kind", msg.Kind),
				zap.Int("attempt", attempt+1),
			)
			return msg, nil
		}

		lastErr = err

		if !m.isRetryableError(err) {
			break
		}

		m.logger.Warn("append attempt failed, retrying",
			zap.Error(err),
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", maxRetries),
		)
	}

	m.logger.Error("failed to append message after all retries", zap.Error(lastErr))
	return nil, fmt.Errorf("append message failed: %w", lastErr)
}

func validateAppend(msg *model.Message) error {
	if msg == nil {
		return model.Validationf("message cannot be nil")
	}
	if msg.SenderID == "" {
		return model.Validationf("sender is required")
	}
	if strings.TrimSpace(msg.Content) == "" {
		return model.Validationf("content cannot be empty")
	}
	hasReceiver := msg.ReceiverID != ""
	hasRecipients := len(msg.Recipients) > 0
	if hasReceiver == hasRecipients {
		return model.Validationf("exactly one of receiver or recipients must be set")
	}
	return nil
}

// -----------------------------------------------------------------------------
// Queries
// -----------------------------------------------------------------------------

func (m *messageRepository) FindByID(ctx context.Context, messageID string) (*model.Message, error) {
	ctx, cancel := m.ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	msg, err := m.mongoRepo.FindByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) || errors.Is(err, primitive.ErrInvalidHex) {
			return nil, model.NotFoundf("message %s", messageID)
		}
		return nil, m.handleReadError(err, messageID)
	}
	return msg, nil
}

// FindByParticipants returns every message exchanged between userA and userB,
// including broadcasts where one is the sender and the other a listed
// recipient, oldest first. orderID optionally restricts the thread to one
// order's scope.
func (m *messageRepository) FindByParticipants(ctx context.Context, userA, userB, orderID string) ([]model.Message, error) {
	ctx, cancel := m.ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter().Or(
		bson.M{"sender_id": userA, "receiver_id": userB},
		bson.M{"sender_id": userB, "receiver_id": userA},
		bson.M{"sender_id": userA, "recipients": userB},
		bson.M{"sender_id": userB, "recipients": userA},
	)
	if orderID != "" {
		filter.Eq("order_id", orderID)
	}

	msgs, err := m.mongoRepo.FindAll(ctx, filter.Build(), "created_at", false)
	if err != nil {
		return nil, m.handleReadError(err, userA+"/"+userB)
	}
	return msgs, nil
}

const threadPageSize = 15

// FindThreadPage returns one page of the thread between userA and userB,
// oldest first, with the same participant matching as FindByParticipants.
func (m *messageRepository) FindThreadPage(ctx context.Context, userA, userB, orderID string, page int64) (*db.PaginatedResult[model.Message], error) {
	ctx, cancel := m.ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	fb := db.NewFilter().Or(
		bson.M{"sender_id": userA, "receiver_id": userB},
		bson.M{"sender_id": userB, "receiver_id": userA},
		bson.M{"sender_id": userA, "recipients": userB},
		bson.M{"sender_id": userB, "recipients": userA},
	)
	if orderID != "" {
		fb.Eq("order_id", orderID)
	}
	filter := fb.Build()

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			if err := m.waitForRetry(ctx, attempt); err != nil {
				return nil, err
			}
			m.logger.Warn("retrying thread page query",
				zap.String("participants", userA+"/"+userB),
				zap.Int("attempt", attempt+1),
			)
		}

		result, err := m.mongoRepo.FindWithPagination(ctx, filter, db.PaginationParams{
			Page:     page,
			PageSize: threadPageSize,
			SortBy:   "created_at",
			SortDesc: false,
		})
		if err == nil {
			return result, nil
		}

		lastErr = err

		if !m.isRetryableError(err) {
			break
		}
	}

	return nil, m.handleReadError(lastErr, userA+"/"+userB)
}

// FindAllForIdentity returns every message where userID is sender, receiver,
// or a broadcast recipient, newest first. This is the feed the conversation
// aggregator folds.
func (m *messageRepository) FindAllForIdentity(ctx context.Context, userID string) ([]model.Message, error) {
	ctx, cancel := m.ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter().Or(
		bson.M{"sender_id": userID},
		bson.M{"receiver_id": userID},
		bson.M{"recipients": userID},
	).Build()

	msgs, err := m.mongoRepo.FindAll(ctx, filter, "created_at", true)
	if err != nil {
		return nil, m.handleReadError(err, userID)
	}

	m.logger.Debug("identity feed loaded", zap.String("user_id", userID), zap.Int("count", len(msgs)))
	return msgs, nil
}

func (m *messageRepository) FindByOrder(ctx context.Context, orderID string) ([]model.Message, error) {
	if orderID == "" {
		return nil, model.Validationf("order id cannot be empty")
	}

	ctx, cancel := m.ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	msgs, err := m.mongoRepo.FindAll(ctx, db.NewFilter().Eq("order_id", orderID).Build(), "created_at", false)
	if err != nil {
		return nil, m.handleReadError(err, orderID)
	}
	return msgs, nil
}

// -----------------------------------------------------------------------------
// MarkRead
// -----------------------------------------------------------------------------

// MarkRead acknowledges a message for readerID. Direct messages flip the
// single read flag; broadcast messages append a per-recipient read receipt
// and flip the aggregate flag once every recipient has acknowledged.
// Idempotent: acknowledging twice is a no-op. Each mutation is a single
// atomic document update.
func (m *messageRepository) MarkRead(ctx context.Context, messageID, readerID string) (*model.Message, error) {
	ctx, cancel := m.ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	msg, err := m.FindByID(ctx, messageID)
	if err != nil {
		return nil, err
	}

	if msg.IsBroadcast() {
		return m.markBroadcastRead(ctx, msg, readerID)
	}
	return m.markDirectRead(ctx, msg, readerID)
}

func (m *messageRepository) markDirectRead(ctx context.Context, msg *model.Message, readerID string) (*model.Message, error) {
	switch directReadOutcome(msg, readerID) {
	case readDenied:
		return nil, model.Unauthorizedf("user %s is not the receiver of message %s", readerID, msg.ID.Hex())
	case readNoop:
		return msg, nil
	}

	now := time.Now().UTC()
	filter := db.NewFilter().
		Eq("_id", msg.ID).
		Eq("receiver_id", readerID).
		Eq("is_read", false).
		Build()
	if _, err := m.mongoRepo.Set(ctx, filter, bson.M{"is_read": true, "read_at": now}); err != nil {
		m.logger.Error("mark read failed", zap.Error(err), zap.String("message_id", msg.ID.Hex()))
		return nil, fmt.Errorf("mark read failed: %w", err)
	}

	msg.IsRead = true
	msg.ReadAt = &now
	return msg, nil
}

func (m *messageRepository) markBroadcastRead(ctx context.Context, msg *model.Message, readerID string) (*model.Message, error) {
	switch broadcastReadOutcome(msg, readerID) {
	case readDenied:
		return nil, model.Unauthorizedf("user %s is not a recipient of message %s", readerID, msg.ID.Hex())
	case readNoop:
		return msg, nil
	}

	now := time.Now().UTC()
	receipt := model.ReadReceipt{RecipientID: readerID, ReadAt: now}

	// The receipt-absent guard in the filter keeps concurrent acknowledgments
	// from the same reader from double-appending.
	filter := db.NewFilter().
		Eq("_id", msg.ID).
		Eq("recipients", readerID).
		ElemNe("read_receipts", "recipient_id", readerID).
		Build()
	if _, err := m.mongoRepo.UpdateRaw(ctx, filter, bson.M{"$push": bson.M{"read_receipts": receipt}}); err != nil {
		m.logger.Error("read receipt append failed", zap.Error(err), zap.String("message_id", msg.ID.Hex()))
		return nil, fmt.Errorf("read receipt append failed: %w", err)
	}

	updated, err := m.FindByID(ctx, msg.ID.Hex())
	if err != nil {
		return nil, err
	}

	if !updated.IsRead && broadcastComplete(updated) {
		if _, err := m.mongoRepo.Set(ctx,
			bson.M{"_id": msg.ID, "is_read": false},
			bson.M{"is_read": true, "read_at": now},
		); err != nil {
			m.logger.Error("aggregate read flag update failed", zap.Error(err), zap.String("message_id", msg.ID.Hex()))
			return nil, fmt.Errorf("aggregate read flag update failed: %w", err)
		}
		updated.IsRead = true
		updated.ReadAt = &now
	}

	return updated, nil
}

// -----------------------------------------------------------------------------
// CountUnreadFor
// -----------------------------------------------------------------------------

// CountUnreadFor counts direct messages to userID with the read flag unset
// plus broadcast messages listing userID with no read receipt from them.
func (m *messageRepository) CountUnreadFor(ctx context.Context, userID string) (int64, error) {
	ctx, cancel := m.ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter().Or(
		db.NewFilter().Eq("receiver_id", userID).Eq("is_read", false).Build(),
		db.NewFilter().Eq("recipients", userID).ElemNe("read_receipts", "recipient_id", userID).Build(),
	).Build()

	count, err := m.mongoRepo.Count(ctx, filter)
	if err != nil {
		return 0, m.handleReadError(err, userID)
	}
	return count, nil
}

// -----------------------------------------------------------------------------
// Private Helper Methods
// -----------------------------------------------------------------------------

func (m *messageRepository) ensureTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, hadDeadline := ctx.Deadline(); hadDeadline {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

func (m *messageRepository) waitForRetry(ctx context.Context, attempt int) error {
	delay := time.Duration(1<<uint(attempt)) * baseRetryDelay
	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("retry wait cancelled: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

func (m *messageRepository) isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	// Context errors are not retryable
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}

	if mongo.IsTimeout(err) || mongo.IsNetworkError(err) {
		return true
	}

	return false
}

func (m *messageRepository) handleReadError(err error, key string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		m.logger.Error("read timeout", zap.String("key", key))
		return ErrOperationTimeout
	}

	if errors.Is(err, context.Canceled) {
		m.logger.Debug("read cancelled", zap.String("key", key))
		return err
	}

	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil // Not an error, just empty result
	}

	m.logger.Error("read failed", zap.Error(err), zap.String("key", key))
	return fmt.Errorf("message query failed: %w", err)
}
