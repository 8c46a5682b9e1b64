package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryDocumentStore(t *testing.T) {
	store := NewMemoryDocumentStore("https://docs.example.com")
	ctx := context.Background()

	payload := []byte("%PDF-1.7 lease")
	key, err := store.Put(ctx, payload, "lease.pdf")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(key, "-lease.pdf"))

	payload[0] = 'X'
	got, ok := store.Get(key)
	require.True(t, ok)
	assert.Equal(t, "%PDF-1.7 lease", string(got), "the store keeps its own copy")
	assert.Equal(t, "https://docs.example.com/"+key, store.PublicURL(key))

	require.NoError(t, store.Remove(ctx, key))
	require.NoError(t, store.Remove(ctx, key), "removing a missing key succeeds")
	assert.Zero(t, store.Len())

	assert.Error(t, store.Remove(ctx, ""))
}

func TestMemoryDocumentStore_CancelledContext(t *testing.T) {
	store := NewMemoryDocumentStore("")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Put(ctx, []byte("x"), "a.pdf")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, store.Len())
}
