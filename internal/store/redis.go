package store

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bpcprep/examportal-backend/internal/config"
)

// RedisStore persists session blobs in Redis, one key per user. Blobs carry
// a TTL so abandoned sessions do not accumulate.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore creates a RedisStore. ttl <= 0 disables expiry.
func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

// Save writes the blob, refreshing the TTL.
func (s *RedisStore) Save(ctx context.Context, userID int, blob []byte) error {
	return s.rdb.Set(ctx, config.CacheKey.UserExamSessionKey(userID), blob, s.ttl).Err()
}

// Load returns the stored blob or ErrNotFound.
func (s *RedisStore) Load(ctx context.Context, userID int) ([]byte, error) {
	blob, err := s.rdb.Get(ctx, config.CacheKey.UserExamSessionKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return blob, nil
}

// Clear removes the user's blob. Deleting a missing key is a no-op.
func (s *RedisStore) Clear(ctx context.Context, userID int) error {
	return s.rdb.Del(ctx, config.CacheKey.UserExamSessionKey(userID)).Err()
}
