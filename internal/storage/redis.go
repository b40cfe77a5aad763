package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore marks recently ingested posts so the crawl loop does not persist
// the same post again when the feed re-renders it on the next run. Keys are
// content hashes with a TTL; an expired key just means the post can be
// ingested again, which the upsert in Postgres tolerates.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(addr string, ttl time.Duration) *RedisStore {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	return &RedisStore{client: rdb, ttl: ttl}
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Seen reports whether an identical post text was ingested within the TTL.
func (s *RedisStore) Seen(ctx context.Context, text string) (bool, error) {
	val, err := s.client.Exists(ctx, postKey(text)).Result()
	if err != nil {
		return false, err
	}
	return val == 1, nil
}

// Mark records the post text as ingested.
func (s *RedisStore) Mark(ctx context.Context, text string) error {
	return s.client.Set(ctx, postKey(text), "1", s.ttl).Err()
}

// postKey hashes the post text into a fixed-size, safe redis key.
func postKey(text string) string {
	h := sha256.Sum256([]byte(text))
	return fmt.Sprintf("ingested:%s", hex.EncodeToString(h[:]))
}
