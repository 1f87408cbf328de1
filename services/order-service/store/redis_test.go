package store_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BeckerFac/restaurant-ordering/services/order-service/store"
)

func newRedisStore(t *testing.T) (*store.RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := store.NewRedisStore(client, "", zap.NewNop())
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestRedisStore_GetMissingKey(t *testing.T) {
	s, _ := newRedisStore(t)

	v, err := s.Get(context.Background(), store.KeyOrders)
	assert.NoError(t, err)
	assert.Nil(t, v)
}

func TestRedisStore_SetWritesPlainValue(t *testing.T) {
	s, mr := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, store.KeyOrders, []byte(`[]`)))

	raw, err := mr.Get(store.KeyOrders)
	require.NoError(t, err)
	assert.Equal(t, `[]`, raw)

	v, err := s.Get(ctx, store.KeyOrders)
	assert.NoError(t, err)
	assert.Equal(t, `[]`, string(v))
}

func TestRedisStore_WatchReceivesPublishedValue(t *testing.T) {
	s, _ := newRedisStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := s.Watch(ctx, store.KeyLastUpdate)
	require.NoError(t, err)

	require.NoError(t, s.Set(ctx, store.KeyLastUpdate, []byte(`{"type":"newOrder"}`)))

	assert.Equal(t, `{"type":"newOrder"}`, string(receive(t, ch)))
}

func TestRedisStore_Keys(t *testing.T) {
	s, _ := newRedisStore(t)
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, store.TablesKey("rest1001"), []byte("[]")))
	require.NoError(t, s.Set(ctx, store.KeyOrders, []byte("[]")))

	keys, err := s.Keys(ctx, store.KeyTablesPrefix)
	assert.NoError(t, err)
	assert.Equal(t, []string{"restaurantTables:rest1001"}, keys)
}
