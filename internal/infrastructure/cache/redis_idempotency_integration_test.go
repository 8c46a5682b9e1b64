//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/estate/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(t *testing.T) config.RedisConfig {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	return config.RedisConfig{Enabled: true, Host: host, Port: port.Int()}
}

func TestRedisIdempotencyStore(t *testing.T) {
	cfg := startRedis(t)
	ctx := context.Background()

	store, err := NewRedisIdempotencyStore(ctx, cfg)
	require.NoError(t, err)
	defer store.Close()

	fresh, err := store.MarkProcessed(ctx, "reminder-sweep:2024-03-01", time.Second)
	require.NoError(t, err)
	assert.True(t, fresh)

	fresh, err = store.MarkProcessed(ctx, "reminder-sweep:2024-03-01", time.Second)
	require.NoError(t, err)
	assert.False(t, fresh)

	processed, err := store.IsProcessed(ctx, "reminder-sweep:2024-03-01")
	require.NoError(t, err)
	assert.True(t, processed)

	assert.Eventually(t, func() bool {
		ok, err := store.IsProcessed(ctx, "reminder-sweep:2024-03-01")
		return err == nil && !ok
	}, 5*time.Second, 100*time.Millisecond)

	factoryStore, err := NewIdempotencyStore(ctx, cfg, WithInMemoryFallback(false))
	require.NoError(t, err)
	defer factoryStore.Close()
	assert.IsType(t, &RedisIdempotencyStore{}, factoryStore)
}
