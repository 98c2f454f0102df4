package storage

import (
	"context"
	"errors"
	"testing"

	"candy-stand/candy-svc/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*RedisInventoryStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisInventoryStore(client, 25), mr
}

func TestRedisInventoryStore_PutGetList(t *testing.T) {
	ctx := context.Background()
	store, _ := newRedisStore(t)

	require.NoError(t, store.Put(ctx, domain.InventoryRecord{Key: "sour-worms", Name: "Sour Worms", PriceCents: 150, Stock: 3}))
	require.NoError(t, store.Put(ctx, domain.InventoryRecord{Key: "gummy-bears", Name: "Gummy Bears", PriceCents: 250, Stock: 10}))

	got, err := store.Get(ctx, "gummy-bears")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 10, got.Stock)
	assert.Equal(t, int64(250), got.PriceCents)

	missing, err := store.Get(ctx, "licorice")
	require.NoError(t, err)
	assert.Nil(t, missing)

	all, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, domain.ItemKey("gummy-bears"), all[0].Key)
	assert.Equal(t, domain.ItemKey("sour-worms"), all[1].Key)

	assert.True(t, domain.IsValidation(store.Put(ctx, domain.InventoryRecord{Name: "nameless"})))
}

func TestRedisInventoryStore_RunTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("commits every record in the map", func(t *testing.T) {
		store, _ := newRedisStore(t)
		require.NoError(t, store.Put(ctx, domain.InventoryRecord{Key: "a", Stock: 5}))
		require.NoError(t, store.Put(ctx, domain.InventoryRecord{Key: "b", Stock: 5}))

		err := store.RunTransaction(ctx, []domain.ItemKey{"b", "a", "missing"}, func(records map[domain.ItemKey]*domain.InventoryRecord) error {
			assert.Len(t, records, 2)
			assert.NotContains(t, records, domain.ItemKey("missing"))
			records["a"].Stock = 1
			records["b"].Stock = 2
			return nil
		})
		require.NoError(t, err)

		a, _ := store.Get(ctx, "a")
		b, _ := store.Get(ctx, "b")
		assert.Equal(t, 1, a.Stock)
		assert.Equal(t, 2, b.Stock)

		missing, _ := store.Get(ctx, "missing")
		assert.Nil(t, missing)
	})

	t.Run("callback error writes nothing", func(t *testing.T) {
		store, _ := newRedisStore(t)
		require.NoError(t, store.Put(ctx, domain.InventoryRecord{Key: "a", Stock: 5}))
		boom := errors.New("boom")

		err := store.RunTransaction(ctx, []domain.ItemKey{"a"}, func(records map[domain.ItemKey]*domain.InventoryRecord) error {
			records["a"].Stock = 0
			return boom
		})
		assert.ErrorIs(t, err, boom)

		a, _ := store.Get(ctx, "a")
		assert.Equal(t, 5, a.Stock)
	})

	t.Run("retries when a watched key changes", func(t *testing.T) {
		store, mr := newRedisStore(t)
		require.NoError(t, store.Put(ctx, domain.InventoryRecord{Key: "a", Stock: 5}))

		attempts := 0
		err := store.RunTransaction(ctx, []domain.ItemKey{"a"}, func(records map[domain.ItemKey]*domain.InventoryRecord) error {
			attempts++
			if attempts == 1 {
				require.NoError(t, mr.Set(store.Key("a"), `{"id":"a","stock":9}`))
			}
			records["a"].Stock--
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 2, attempts)

		a, _ := store.Get(ctx, "a")
		assert.Equal(t, 8, a.Stock)
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		store, mr := newRedisStore(t)
		store.MaxRetries = 2
		require.NoError(t, store.Put(ctx, domain.InventoryRecord{Key: "a", Stock: 5}))

		err := store.RunTransaction(ctx, []domain.ItemKey{"a"}, func(records map[domain.ItemKey]*domain.InventoryRecord) error {
			require.NoError(t, mr.Set(store.Key("a"), `{"id":"a","stock":5}`))
			return nil
		})

		var persistence *domain.PersistenceError
		require.True(t, errors.As(err, &persistence))
		assert.ErrorIs(t, err, ErrTxContention)
	})
}
