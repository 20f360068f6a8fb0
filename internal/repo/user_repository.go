package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mamoonayoob/Quick-Mart-Server/internal/db"
	"github.com/mamoonayoob/Quick-Mart-Server/internal/model"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// UserRepository resolves identities for validation, display enrichment, and
// the conversation-starter directories.
type UserRepository interface {
	FindIdentity(ctx context.Context, userID string) (*model.User, error)
	FindIdentities(ctx context.Context, userIDs []string) (map[string]*model.User, error)
	ListByRole(ctx context.Context, role, excludeUserID string) ([]model.User, error)
}

type userRepository struct {
	mongoRepo *db.Repository[model.User]
	logger    *zap.Logger
}

func NewUserRepository(mongoRepo *db.Repository[model.User], logger *zap.Logger) UserRepository {
	return &userRepository{
		mongoRepo: mongoRepo,
		logger:    logger,
	}
}

func (r *userRepository) FindIdentity(ctx context.Context, userID string) (*model.User, error) {
	if userID == "" {
		return nil, model.Validationf("user id cannot be empty")
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	user, err := r.mongoRepo.FindOne(ctx, db.NewFilter().Eq("user_id", userID).Build())
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, model.NotFoundf("user %s", userID)
		}
		r.logger.Error("identity lookup failed", zap.Error(err), zap.String("user_id", userID))
		return nil, fmt.Errorf("identity lookup failed: %w", err)
	}
	return user, nil
}

// FindIdentities resolves a batch of user IDs in one query, keyed by user ID.
// Missing IDs are simply absent from the result; the caller decides whether
// that matters.
func (r *userRepository) FindIdentities(ctx context.Context, userIDs []string) (map[string]*model.User, error) {
	result := make(map[string]*model.User, len(userIDs))
	if len(userIDs) == 0 {
		return result, nil
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	users, err := r.mongoRepo.FindAll(ctx, db.NewFilter().In("user_id", userIDs).Build(), "", false)
	if err != nil {
		r.logger.Error("batch identity lookup failed", zap.Error(err), zap.Int("requested", len(userIDs)))
		return nil, fmt.Errorf("batch identity lookup failed: %w", err)
	}

	for i := range users {
		u := users[i]
		result[u.UserID] = &u
	}
	return result, nil
}

// ListByRole returns active identities of the given role sorted by display
// name, optionally excluding one user (typically the caller).
func (r *userRepository) ListByRole(ctx context.Context, role, excludeUserID string) ([]model.User, error) {
	if !model.ValidRole(role) {
		return nil, model.Validationf("unknown role %q", role)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := db.NewFilter().Eq("role", role).Eq("is_active", true)
	if excludeUserID != "" {
		filter.Ne("user_id", excludeUserID)
	}

	users, err := r.mongoRepo.FindAll(ctx, filter.Build(), "name", false)
	if err != nil {
		r.logger.Error("role listing failed", zap.Error(err), zap.String("role", role))
		return nil, fmt.Errorf("role listing failed: %w", err)
	}

	r.logger.Debug("role listing", zap.String("role", role), zap.Int("count", len(users)))
	return users, nil
}
