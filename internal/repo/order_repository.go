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

// OrderRepository is the order lookup consumed by order-scoped message
// authorization. Orders are owned elsewhere; this is a read-only projection.
type OrderRepository interface {
	FindOrder(ctx context.Context, orderID string) (*model.Order, error)
}

type orderRepository struct {
	mongoRepo *db.Repository[model.Order]
	logger    *zap.Logger
}

func NewOrderRepository(mongoRepo *db.Repository[model.Order], logger *zap.Logger) OrderRepository {
	return &orderRepository{
		mongoRepo: mongoRepo,
		logger:    logger,
	}
}

func (r *orderRepository) FindOrder(ctx context.Context, orderID string) (*model.Order, error) {
	if orderID == "" {
		return nil, model.Validationf("order id cannot be empty")
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	order, err := r.mongoRepo.FindOne(ctx, db.NewFilter().Eq("order_id", orderID).Build())
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, model.NotFoundf("order %s", orderID)
		}
		r.logger.Error("order lookup failed", zap.Error(err), zap.String("order_id", orderID))
		return nil, fmt.Errorf("order lookup failed: %w", err)
	}
	return order, nil
}
