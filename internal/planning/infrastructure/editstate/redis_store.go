// Package editstate keeps open rebalance sessions between interactive calls.
package editstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/kinplan/internal/planning/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultTTL is how long an untouched rebalance session is kept.
const DefaultTTL = 30 * time.Minute

// RedisStore implements domain.EditStateStore with one JSON value per
// session under kinplan:rebalance:{id}. Every save refreshes the TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

var _ domain.EditStateStore = (*RedisStore)(nil)

// NewRedisStore creates a Redis-backed edit-state store.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl, now: time.Now}
}

func redisKey(id uuid.UUID) string {
	return fmt.Sprintf("kinplan:rebalance:%s", id)
}

// Save stores state and stamps UpdatedAt.
func (s *RedisStore) Save(ctx context.Context, state *domain.RebalanceState) error {
	state.UpdatedAt = s.now().UTC()
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode rebalance session: %w", err)
	}
	return s.client.Set(ctx, redisKey(state.ID), data, s.ttl).Err()
}

// Load returns domain.ErrRebalanceStateNotFound for unknown or expired ids.
func (s *RedisStore) Load(ctx context.Context, id uuid.UUID) (*domain.RebalanceState, error) {
	data, err := s.client.Get(ctx, redisKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrRebalanceStateNotFound
	}
	if err != nil {
		return nil, err
	}

	var state domain.RebalanceState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to decode rebalance session %s: %w", id, err)
	}
	return &state, nil
}

// Delete removes a session; deleting an unknown id is not an error.
func (s *RedisStore) Delete(ctx context.Context, id uuid.UUID) error {
	return s.client.Del(ctx, redisKey(id)).Err()
}
