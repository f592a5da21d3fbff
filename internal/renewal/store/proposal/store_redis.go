package proposal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"absher/internal/renewal/models"
	"absher/pkg/sentinel"
)

const keyPrefix = "proposal:"

// RedisStore keeps proposals in redis with a native TTL, so the dedup and
// replay guarantees survive process restarts and scale past one instance.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Save(ctx context.Context, p models.Proposal) error {
	ttl := time.Until(p.ExpiresAt)
	if ttl <= 0 {
		return sentinel.ErrExpired
	}
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal proposal: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+p.ActionID.String(), payload, ttl).Err(); err != nil {
		return fmt.Errorf("save proposal: %w", err)
	}
	return nil
}

// Consume atomically fetches and deletes the proposal. Redis TTL handles
// expiry, so a missing key covers both unknown and expired proposals.
func (s *RedisStore) Consume(ctx context.Context, actionID uuid.UUID) (models.Proposal, error) {
	payload, err := s.client.GetDel(ctx, keyPrefix+actionID.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.Proposal{}, sentinel.ErrNotFound
		}
		return models.Proposal{}, fmt.Errorf("consume proposal: %w", err)
	}
	var p models.Proposal
	if err := json.Unmarshal(payload, &p); err != nil {
		return models.Proposal{}, fmt.Errorf("unmarshal proposal: %w", err)
	}
	return p, nil
}
