package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestInMemoryIdempotencyStore_MarkProcessed(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC)}
	store := NewInMemoryIdempotencyStore(0, WithClock(clock.Now))
	defer store.Close()
	ctx := context.Background()

	fresh, err := store.MarkProcessed(ctx, "reminder-sweep:2024-03-01", time.Hour)
	require.NoError(t, err)
	assert.True(t, fresh)

	fresh, err = store.MarkProcessed(ctx, "reminder-sweep:2024-03-01", time.Hour)
	require.NoError(t, err)
	assert.False(t, fresh)

	processed, err := store.IsProcessed(ctx, "reminder-sweep:2024-03-01")
	require.NoError(t, err)
	assert.True(t, processed)

	clock.Advance(time.Hour)
	processed, err = store.IsProcessed(ctx, "reminder-sweep:2024-03-01")
	require.NoError(t, err)
	assert.False(t, processed, "a key expires exactly at its TTL")

	fresh, err = store.MarkProcessed(ctx, "reminder-sweep:2024-03-01", time.Hour)
	require.NoError(t, err)
	assert.True(t, fresh)
}

func TestInMemoryIdempotencyStore_Concurrent(t *testing.T) {
	store := NewInMemoryIdempotencyStore(0)
	defer store.Close()

	var (
		wg    sync.WaitGroup
		fresh atomic.Int32
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := store.MarkProcessed(context.Background(), "same", time.Minute)
			assert.NoError(t, err)
			if ok {
				fresh.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), fresh.Load())
}

func TestInMemoryIdempotencyStore_PurgeExpired(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	store := NewInMemoryIdempotencyStore(0, WithClock(clock.Now))
	defer store.Close()
	ctx := context.Background()

	_, _ = store.MarkProcessed(ctx, "short", time.Minute)
	_, _ = store.MarkProcessed(ctx, "long", time.Hour)
	clock.Advance(2 * time.Minute)

	store.purgeExpired()
	assert.Equal(t, 1, store.Len())
}

func TestInMemoryIdempotencyStore_CancelledContext(t *testing.T) {
	store := NewInMemoryIdempotencyStore(0)
	defer store.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.MarkProcessed(ctx, "k", time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, store.Len())
}

func TestInMemoryIdempotencyStore_CloseTwice(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Millisecond)
	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}
