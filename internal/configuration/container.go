package configuration

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/mamoonayoob/Quick-Mart-Server/internal/auth"
	"github.com/mamoonayoob/Quick-Mart-Server/internal/db"
	"github.com/mamoonayoob/Quick-Mart-Server/internal/handler"
	"github.com/mamoonayoob/Quick-Mart-Server/internal/hub"
	"github.com/mamoonayoob/Quick-Mart-Server/internal/model"
	"github.com/mamoonayoob/Quick-Mart-Server/internal/notify"
	"github.com/mamoonayoob/Quick-Mart-Server/internal/repo"
	"github.com/mamoonayoob/Quick-Mart-Server/internal/service"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const defaultConfigPath = "shared/config.dev.json"

type Container struct {
	MessageHandler handler.MessageHandler
	Hub            *hub.Hub
	Verifier       *auth.Verifier
	Config         Config
	Logger         *zap.Logger

	// private - for cleanup
	messageService *service.MessageService
	mongoClient    *mongo.Database
	redisClient    *redis.Client
}

func BuildContainer() (*Container, error) {
	configPath := os.Getenv("QUICKMART_CONFIG")
	if configPath == "" {
		configPath = defaultConfigPath
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	con, err := db.OpenConnection(config.Mongo.Uri, config.Mongo.Database)
	if err != nil {
		return nil, err
	}

	messageCollection := db.NewRepository[model.Message](con, config.Mongo.MessagesCollection)
	userCollection := db.NewRepository[model.User](con, config.Mongo.UsersCollection)
	orderCollection := db.NewRepository[model.Order](con, config.Mongo.OrdersCollection)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := repo.EnsureMessageIndexes(ctx, messageCollection); err != nil {
		return nil, fmt.Errorf("failed to ensure message indexes: %w", err)
	}

	logger, _ := zap.NewProduction()

	messageRepo := repo.NewMessageRepository(messageCollection, logger)
	userRepo := repo.NewUserRepository(userCollection, logger)
	orderRepo := repo.NewOrderRepository(orderCollection, logger)

	notifier := notify.NewHTTPNotifier(config.Push.Endpoint, config.Push.ApiKey, logger)
	verifier := auth.NewVerifier(config.Auth.JwtSecret, time.Duration(config.Auth.TokenTTLHours)*time.Hour)

	messageService := service.NewMessageService(messageRepo, userRepo, orderRepo, notifier, logger)

	var presence hub.PresenceTracker = hub.NopPresence{}
	var redisClient *redis.Client
	if config.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: config.Redis.Addr})
		presence = hub.NewRedisPresence(redisClient)
	}

	// Create Hub and wire it back into the service for live delivery
	Hub := hub.NewHub(hub.NewRegistry(), messageService, userRepo, verifier, presence)
	messageService.SetLiveDeliverer(Hub)

	messageHandler := handler.NewMessageHandler(messageService)

	return &Container{
		MessageHandler: messageHandler,
		Hub:            Hub,
		Verifier:       verifier,
		Config:         *config,
		Logger:         logger,
		messageService: messageService,
		mongoClient:    con,
		redisClient:    redisClient,
	}, nil
}

// Close gracefully shuts down all connections
func (c *Container) Close() error {
	// Stop the hub first (closes all WebSocket connections)
	if c.Hub != nil {
		c.Hub.Stop()
	}

	// Let in-flight push notifications finish
	if c.messageService != nil {
		c.messageService.WaitNotifications()
	}

	// Sync logger
	if c.Logger != nil {
		_ = c.Logger.Sync()
	}

	if c.redisClient != nil {
		_ = c.redisClient.Close()
	}

	// Close MongoDB connection pool
	if c.mongoClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := c.mongoClient.Client().Disconnect(ctx); err != nil {
			return fmt.Errorf("failed to close MongoDB connection: %w", err)
		}
	}

	return nil
}
