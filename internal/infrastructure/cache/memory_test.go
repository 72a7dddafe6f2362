package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	defer store.Close()

	require.NoError(t, store.Set(ctx, "k", "v", time.Minute))
	got, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", got)

	require.NoError(t, store.Delete(ctx, "k"))
	_, ok, err = store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStore_Expiration(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	defer store.Close()

	require.NoError(t, store.Set(ctx, "short", "v", time.Millisecond))
	require.NoError(t, store.Set(ctx, "forever", "v", 0))
	time.Sleep(5 * time.Millisecond)

	_, ok, _ := store.Get(ctx, "short")
	assert.False(t, ok)
	_, ok, _ = store.Get(ctx, "forever")
	assert.True(t, ok)
}
