package idempotency

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Deduper reports whether a key has been seen before, recording it if not.
type Deduper interface {
	Seen(ctx context.Context, key string) (bool, error)
}

type RedisStore struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedisStore(rdb *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl, prefix: prefix}
}

func (s *RedisStore) Key(id string) string {
	return fmt.Sprintf("idem:%s:%s", s.prefix, id)
}

func (s *RedisStore) Seen(ctx context.Context, id string) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, s.Key(id), "1", s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("idempotency check %s: %w", id, err)
	}

	return !ok, nil
}

// MemoryStore is the in-process Deduper used when no redis is configured.
type MemoryStore struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{seen: make(map[string]struct{})}
}

func (s *MemoryStore) Seen(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[id]; ok {
		return true, nil
	}
	s.seen[id] = struct{}{}
	return false, nil
}
