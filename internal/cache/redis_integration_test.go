//go:build integration

package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	ctr, err := testcontainers.Run(ctx, "redis:7-alpine",
		testcontainers.WithExposedPorts("6379/tcp"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("Ready to accept connections").WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctr.Terminate(context.Background()) })

	addr, err := ctr.Endpoint(ctx, "")
	require.NoError(t, err)
	return addr
}

func TestRedisClient(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := context.Background()

	c, err := New(Config{Driver: "redis", Addr: startRedis(t), Prefix: "hjc-test"})
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.SetMany(ctx, map[string]string{"a": "1", "b": "2"}, time.Minute))
	v, err := c.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "1", v)

	got, err := c.Take(ctx, "a", "b", "missing")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, got)

	_, err = c.Get(ctx, "b")
	assert.True(t, IsNotFound(err))

	rc, ok := RedisOf(c)
	require.True(t, ok)
	keys, err := rc.Keys(ctx, "hjc-test:*").Result()
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestRedisClient_TakeIsExclusive(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := context.Background()

	c, err := New(Config{Driver: "redis", Addr: startRedis(t)})
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.SetMany(ctx, map[string]string{"state": "S", "provider": "hubspot"}, time.Minute))

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := c.Take(ctx, "state", "provider")
			if err != nil || len(got) == 0 {
				return
			}
			mu.Lock()
			wins++
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}
