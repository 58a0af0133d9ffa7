package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// RedisKVStore Redis键值存储实现
type RedisKVStore struct {
	client *redis.Client
}

// NewRedisKVStore 创建Redis键值存储
func NewRedisKVStore(client *redis.Client) *RedisKVStore {
	return &RedisKVStore{client: client}
}

func (s *RedisKVStore) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get key %s: %w", key, err)
	}
	return val, true, nil
}

func (s *RedisKVStore) Set(ctx context.Context, key, value string) (StorageStatus, error) {
	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		if isQuotaError(err) {
			return StorageQuotaExceeded, err
		}
		return StorageError, fmt.Errorf("failed to set key %s: %w", key, err)
	}
	return StorageOK, nil
}

func (s *RedisKVStore) Remove(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}
	return nil
}

func (s *RedisKVStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan keys with prefix %s: %w", prefix, err)
	}
	return keys, nil
}

// isQuotaError 识别Redis maxmemory写入拒绝
func isQuotaError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "OOM command not allowed")
}
