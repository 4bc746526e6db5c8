package redis

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/pkg/config"
)

func TestIsNilError(t *testing.T) {
	assert.True(t, IsNilError(redis.Nil))
	assert.True(t, IsNilError(fmt.Errorf("get: %w", redis.Nil)))
	assert.False(t, IsNilError(context.Canceled))
	assert.False(t, IsNilError(nil))
}

// TestFlushByPattern needs a server; set SP_TEST_REDIS_ADDR to run it.
func TestFlushByPattern(t *testing.T) {
	addr := os.Getenv("SP_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("SP_TEST_REDIS_ADDR not set")
	}
	c, err := NewClient(config.RedisConfig{Addr: addr, DB: 15, PoolSize: 2})
	require.NoError(t, err)
	defer c.Close()
	ctx := context.Background()

	for i := 0; i < 450; i++ {
		require.NoError(t, c.Set(ctx, fmt.Sprintf("flushtest:%d", i), "v", time.Minute))
	}
	require.NoError(t, c.Set(ctx, "keep:me", "v", time.Minute))

	n, err := c.FlushByPattern(ctx, "flushtest:*")
	require.NoError(t, err)
	assert.Equal(t, int64(450), n)

	_, err = c.Get(ctx, "flushtest:3")
	assert.True(t, IsNilError(err))
	v, err := c.Get(ctx, "keep:me")
	require.NoError(t, err)
	assert.Equal(t, "v", v)
}
