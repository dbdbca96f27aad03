package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "campus_session:"

// RedisStore keeps sessions in Redis with the session expiry as key TTL
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore creates a Redis-backed session store
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: redisKeyPrefix,
	}
}

func (r *RedisStore) key(id string) string {
	return r.prefix + id
}

// Save writes the session with a TTL matching its expiry
func (r *RedisStore) Save(ctx context.Context, s *Session) error {
	if s == nil || s.ID == "" {
		return errors.New("session: missing id")
	}
	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		return errors.New("session: expires_at must be in the future")
	}

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("session: failed to marshal: %w", err)
	}
	if err := r.client.Set(ctx, r.key(s.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("session: failed to save: %w", err)
	}
	return nil
}

// Get loads a session; a missing key is nil, nil
func (r *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	val, err := r.client.Get(ctx, r.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session: failed to load: %w", err)
	}

	var s Session
	if err := json.Unmarshal(val, &s); err != nil {
		return nil, fmt.Errorf("session: failed to unmarshal: %w", err)
	}
	return &s, nil
}

// Delete removes the session key
func (r *RedisStore) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, r.key(id)).Err(); err != nil {
		return fmt.Errorf("session: failed to delete: %w", err)
	}
	return nil
}

// Ping checks the Redis connection
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
