package repository

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// WebhookEventStore remembers processed gateway event ids. It is a fast path
// in front of the booking state, never the source of truth.
type WebhookEventStore interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Remember(ctx context.Context, eventID string, ttl time.Duration) error
}

type redisWebhookEventStore struct {
	client *redis.Client
}

func NewRedisWebhookEventStore(client *redis.Client) WebhookEventStore {
	return &redisWebhookEventStore{client: client}
}

func (s *redisWebhookEventStore) key(eventID string) string {
	return "idem:webhook:" + eventID
}

func (s *redisWebhookEventStore) Seen(ctx context.Context, eventID string) (bool, error) {
	_, err := s.client.Get(ctx, s.key(eventID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *redisWebhookEventStore) Remember(ctx context.Context, eventID string, ttl time.Duration) error {
	return s.client.Set(ctx, s.key(eventID), time.Now().UTC().Format(time.RFC3339), ttl).Err()
}

// NopWebhookEventStore is used when Redis is not configured.
type NopWebhookEventStore struct{}

func (NopWebhookEventStore) Seen(context.Context, string) (bool, error) { return false, nil }

func (NopWebhookEventStore) Remember(context.Context, string, time.Duration) error { return nil }
