package statusstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"upload-finalizer/internal/domain/entities"

	"github.com/go-redis/redis/v8"
)

// RedisStatusStore keeps upload statuses as plain string keys.
type RedisStatusStore struct {
	rdb *redis.Client
	ttl time.Duration // 0 keeps keys until deleted
}

func NewRedisStatusStore(rdb *redis.Client, ttl time.Duration) *RedisStatusStore {
	return &RedisStatusStore{rdb: rdb, ttl: ttl}
}

func (s *RedisStatusStore) Set(ctx context.Context, key string, status entities.UploadStatus) error {
	if err := s.rdb.Set(ctx, key, string(status), s.ttl).Err(); err != nil {
		return fmt.Errorf("set %s=%s: %w", key, status, err)
	}
	return nil
}

func (s *RedisStatusStore) Delete(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (s *RedisStatusStore) Get(ctx context.Context, key string) (entities.UploadStatus, bool, error) {
	val, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return entities.UploadStatus(val), true, nil
}
