package storage

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a test Redis client.
// Skips the test if no local Redis is available; the containerized
// variant lives in tests/integration.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15, // Use a separate DB for tests
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available for testing: %v", err)
	}

	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("Failed to flush test DB: %v", err)
	}

	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})

	return client
}

func TestRedis_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewRedis(setupTestRedis(t))

	require.NoError(t, store.Set(ctx, "townsq:cache:a", `{"v":1}`))

	value, err := store.Get(ctx, "townsq:cache:a")
	require.NoError(t, err)
	assert.Equal(t, `{"v":1}`, value)

	require.NoError(t, store.Delete(ctx, "townsq:cache:a"))
	_, err = store.Get(ctx, "townsq:cache:a")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestRedis_KeysPrefix(t *testing.T) {
	ctx := context.Background()
	store := NewRedis(setupTestRedis(t))

	require.NoError(t, store.Set(ctx, "townsq:cache:a", "1"))
	require.NoError(t, store.Set(ctx, "townsq:cache:b", "2"))
	require.NoError(t, store.Set(ctx, "townsq:other:c", "3"))

	keys, err := store.Keys(ctx, "townsq:cache:")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"townsq:cache:a", "townsq:cache:b"}, keys)
}

func TestNewRedis_Panic(t *testing.T) {
	assert.Panics(t, func() { NewRedis(nil) })
}
