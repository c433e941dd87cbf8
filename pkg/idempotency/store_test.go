package idempotency

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	seen, err := s.Seen(ctx, "a")
	require.NoError(t, err)
	assert.False(t, seen)

	seen, err = s.Seen(ctx, "a")
	require.NoError(t, err)
	assert.True(t, seen)

	seen, _ = s.Seen(ctx, "b")
	assert.False(t, seen)
}

func TestRedisStoreKey(t *testing.T) {
	s := NewRedisStore(nil, "orders", time.Hour)
	assert.Equal(t, "idem:orders:a-1", s.Key("a-1"))
}

func TestRedisStoreSurfacesConnectionErrors(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	defer rdb.Close()

	_, err := NewRedisStore(rdb, "orders", time.Hour).Seen(context.Background(), "a-1")
	assert.ErrorContains(t, err, "idempotency check a-1")
}
