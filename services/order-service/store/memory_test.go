package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BeckerFac/restaurant-ordering/services/order-service/store"
)

func receive(t *testing.T, ch <-chan []byte) []byte {
	t.Helper()
	select {
	case v, ok := <-ch:
		require.True(t, ok, "watch channel closed")
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change")
		return nil
	}
}

func TestMemoryStore_GetMissingKey(t *testing.T) {
	s := store.NewMemoryStore()

	v, err := s.Get(context.Background(), store.KeyOrders)
	assert.NoError(t, err)
	assert.Nil(t, v)
}

func TestMemoryStore_SetThenGet(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", []byte(`[1]`)))
	require.NoError(t, s.Set(ctx, "k", []byte(`[1,2]`)))

	v, err := s.Get(ctx, "k")
	assert.NoError(t, err)
	assert.Equal(t, `[1,2]`, string(v))
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "k", []byte("abc")))

	v, _ := s.Get(ctx, "k")
	v[0] = 'x'

	again, _ := s.Get(ctx, "k")
	assert.Equal(t, "abc", string(again))
}

func TestMemoryStore_WatchSeesWrites(t *testing.T) {
	s := store.NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := s.Watch(ctx, store.KeyLastUpdate)
	require.NoError(t, err)

	require.NoError(t, s.Set(ctx, "other", []byte("ignored")))
	require.NoError(t, s.Set(ctx, store.KeyLastUpdate, []byte("one")))

	assert.Equal(t, "one", string(receive(t, ch)))
}

func TestMemoryStore_WatchKeepsOnlyLatest(t *testing.T) {
	s := store.NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := s.Watch(ctx, store.KeyLastUpdate)
	require.NoError(t, err)

	require.NoError(t, s.Set(ctx, store.KeyLastUpdate, []byte("first")))
	require.NoError(t, s.Set(ctx, store.KeyLastUpdate, []byte("second")))

	assert.Equal(t, "second", string(receive(t, ch)))
	select {
	case v := <-ch:
		t.Fatalf("unexpected extra value %q", v)
	default:
	}
}

func TestMemoryStore_WatchClosesOnCancel(t *testing.T) {
	s := store.NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())

	ch, err := s.Watch(ctx, "k")
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("watch channel not closed")
	}

	// Writes after the watcher left must not panic.
	assert.NoError(t, s.Set(context.Background(), "k", []byte("v")))
}

func TestMemoryStore_Keys(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, store.TablesKey("rest1002"), []byte("[]")))
	require.NoError(t, s.Set(ctx, store.TablesKey("rest1001"), []byte("[]")))
	require.NoError(t, s.Set(ctx, store.KeyOrders, []byte("[]")))

	keys, err := s.Keys(ctx, store.KeyTablesPrefix)
	assert.NoError(t, err)
	assert.Equal(t, []string{"restaurantTables:rest1001", "restaurantTables:rest1002"}, keys)
}

func TestMemoryStore_Close(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()
	ch, err := s.Watch(ctx, "k")
	require.NoError(t, err)

	require.NoError(t, s.Close())

	_, ok := <-ch
	assert.False(t, ok)
	_, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, store.ErrClosed)
	assert.ErrorIs(t, s.Set(ctx, "k", nil), store.ErrClosed)
}
