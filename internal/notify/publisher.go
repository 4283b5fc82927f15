package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"

	"vault/internal/models"
)

// Publisher hands freshly written notifications to a delivery channel.
// Delivery itself (push, email, UI) belongs to whoever subscribes.
type Publisher interface {
	Publish(ctx context.Context, n *models.Notification) error
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, *models.Notification) error { return nil }

// RedisPublisher publishes each notification as JSON on
// "<prefix>:<userId>".
type RedisPublisher struct {
	client *redis.Client
	prefix string
}

type RedisOptions struct {
	Address  string
	Password string
	DB       int
	Prefix   string
}

func NewRedisPublisher(opts RedisOptions) *RedisPublisher {
	if opts.Prefix == "" {
		opts.Prefix = "vault:notifications"
	}
	return &RedisPublisher{
		client: redis.NewClient(&redis.Options{
			Addr:     opts.Address,
			Password: opts.Password,
			DB:       opts.DB,
		}),
		prefix: opts.Prefix,
	}
}

func (p *RedisPublisher) Channel(userID string) string {
	return p.prefix + ":" + userID
}

func (p *RedisPublisher) Publish(ctx context.Context, n *models.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	return p.client.Publish(ctx, p.Channel(n.UserID), payload).Err()
}

func (p *RedisPublisher) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
