package hub

import (
	"context"
	"log"

	"github.com/redis/go-redis/v9"
)

// PresenceTracker records which identities currently hold a live session.
// It is advisory: delivery decisions come from the registry, not from here.
type PresenceTracker interface {
	Connected(ctx context.Context, userID, role string)
	Disconnected(ctx context.Context, userID, role string)
	Online(ctx context.Context, role string) ([]string, error)
}

const presenceKeyPrefix = "presence:"

// RedisPresence keeps one set per role so other processes (the REST API, ops
// tooling) can see who is online without reaching into this process.
type RedisPresence struct {
	client *redis.Client
}

func NewRedisPresence(client *redis.Client) *RedisPresence {
	return &RedisPresence{client: client}
}

func (p *RedisPresence) Connected(ctx context.Context, userID, role string) {
	if err := p.client.SAdd(ctx, presenceKeyPrefix+role, userID).Err(); err != nil {
		log.Printf("presence add failed for %s: %v", userID, err)
	}
}

func (p *RedisPresence) Disconnected(ctx context.Context, userID, role string) {
	if err := p.client.SRem(ctx, presenceKeyPrefix+role, userID).Err(); err != nil {
		log.Printf("presence remove failed for %s: %v", userID, err)
	}
}

func (p *RedisPresence) Online(ctx context.Context, role string) ([]string, error) {
	return p.client.SMembers(ctx, presenceKeyPrefix+role).Result()
}

// NopPresence is used when no redis address is configured.
type NopPresence struct{}

func (NopPresence) Connected(ctx context.Context, userID, role string)    {}
func (NopPresence) Disconnected(ctx context.Context, userID, role string) {}
func (NopPresence) Online(ctx context.Context, role string) ([]string, error) {
	return nil, nil
}
