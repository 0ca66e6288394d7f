package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "holdem:table:"

// RedisStore keeps one key per table. Snapshots do not expire; a table
// that is closed deletes its key.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(url, prefix string) (*RedisStore, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, fmt.Errorf("empty redis url")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return newRedisStore(client, prefix), nil
}

func newRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(tableID string) string { return s.prefix + tableID }

func (s *RedisStore) Save(ctx context.Context, tableID string, data []byte) error {
	return s.client.Set(ctx, s.key(tableID), data, 0).Err()
}

func (s *RedisStore) Load(ctx context.Context, tableID string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key(tableID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	return data, err
}

func (s *RedisStore) Delete(ctx context.Context, tableID string) error {
	return s.client.Del(ctx, s.key(tableID)).Err()
}

func (s *RedisStore) Close() error { return s.client.Close() }
