package services

import (
	"context"
	"encoding/json"
	"fmt"

	"courtside/internal/models"

	"github.com/redis/go-redis/v9"
)

// NotificationChannel is the pub/sub channel a user's live clients listen on.
func NotificationChannel(userID uint) string {
	return fmt.Sprintf("notifications:%d", userID)
}

// RedisPublisher publishes notifications as JSON on the recipient's channel.
type RedisPublisher struct {
	client *redis.Client
}

func NewRedisPublisher(url string) (*RedisPublisher, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisPublisher{client: client}, nil
}

func (p *RedisPublisher) Publish(ctx context.Context, n models.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	return p.client.Publish(ctx, NotificationChannel(n.UserID), payload).Err()
}

// Subscribe returns a subscription to the user's channel. Callers close it.
func (p *RedisPublisher) Subscribe(ctx context.Context, userID uint) *redis.PubSub {
	return p.client.Subscribe(ctx, NotificationChannel(userID))
}

func (p *RedisPublisher) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
