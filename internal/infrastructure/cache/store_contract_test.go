package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopsmart/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testStoreContract exercises behaviour every domain.KeyValueStore must share
func testStoreContract(t *testing.T, newStore func(t *testing.T) domain.KeyValueStore) {
	ctx := context.Background()

	t.Run("set and get", func(t *testing.T) {
		store := newStore(t)

		err := store.Set(ctx, map[string][]byte{
			"analysisMode":       []byte(`"eco"`),
			"analysis_eco_abc12": []byte(`{"type":"eco","score":72}`),
		})
		require.NoError(t, err)

		got, err := store.Get(ctx, "analysisMode", "analysis_eco_abc12")
		require.NoError(t, err)
		assert.Equal(t, `"eco"`, string(got["analysisMode"]))
		assert.JSONEq(t, `{"type":"eco","score":72}`, string(got["analysis_eco_abc12"]))
	})

	t.Run("get returns partial mapping", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Set(ctx, map[string][]byte{"present": []byte(`1`)}))

		got, err := store.Get(ctx, "present", "missing")
		require.NoError(t, err)
		assert.Len(t, got, 1)
		assert.Contains(t, got, "present")
		assert.NotContains(t, got, "missing")
	})

	t.Run("get without keys", func(t *testing.T) {
		store := newStore(t)

		got, err := store.Get(ctx)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("set replaces whole entry", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Set(ctx, map[string][]byte{"k": []byte(`{"a":1,"b":2}`)}))
		require.NoError(t, store.Set(ctx, map[string][]byte{"k": []byte(`{"a":3}`)}))

		got, err := store.Get(ctx, "k")
		require.NoError(t, err)
		assert.JSONEq(t, `{"a":3}`, string(got["k"]))
	})

	t.Run("rejects invalid JSON", func(t *testing.T) {
		store := newStore(t)

		err := store.Set(ctx, map[string][]byte{"k": []byte(`{not json`)})
		assert.Error(t, err)

		got, err := store.Get(ctx, "k")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("delete", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Set(ctx, map[string][]byte{"k": []byte(`true`)}))

		require.NoError(t, store.Delete(ctx, "k"))
		require.NoError(t, store.Delete(ctx, "never-set"))

		got, err := store.Get(ctx, "k")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("returned values are copies", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Set(ctx, map[string][]byte{"k": []byte(`"abc"`)}))

		got, err := store.Get(ctx, "k")
		require.NoError(t, err)
		got["k"][1] = 'z'

		again, err := store.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, `"abc"`, string(again["k"]))
	})

	t.Run("subscribe receives changes", func(t *testing.T) {
		store := newStore(t)
		changes, cancel := store.Subscribe("analysisMode")
		defer cancel()

		require.NoError(t, store.Set(ctx, map[string][]byte{"analysisMode": []byte(`"eco"`)}))
		require.NoError(t, store.Set(ctx, map[string][]byte{"analysisMode": []byte(`"trust"`)}))
		require.NoError(t, store.Set(ctx, map[string][]byte{"otherKey": []byte(`1`)}))

		first := receive(t, changes)
		assert.Nil(t, first.Old)
		assert.Equal(t, `"eco"`, string(first.New))

		second := receive(t, changes)
		assert.Equal(t, `"eco"`, string(second.Old))
		assert.Equal(t, `"trust"`, string(second.New))

		select {
		case change := <-changes:
			t.Fatalf("unexpected change: %+v", change)
		case <-time.After(20 * time.Millisecond):
		}
	})

	t.Run("unchanged writes do not notify", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Set(ctx, map[string][]byte{"analysisMode": []byte(`"eco"`)}))

		changes, cancel := store.Subscribe("analysisMode")
		defer cancel()
		require.NoError(t, store.Set(ctx, map[string][]byte{"analysisMode": []byte(`"eco"`)}))

		select {
		case change := <-changes:
			t.Fatalf("unexpected change: %+v", change)
		case <-time.After(20 * time.Millisecond):
		}
	})

	t.Run("delete notifies", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Set(ctx, map[string][]byte{"currentProduct": []byte(`{}`)}))

		changes, cancel := store.Subscribe("currentProduct")
		defer cancel()
		require.NoError(t, store.Delete(ctx, "currentProduct"))

		change := receive(t, changes)
		assert.Equal(t, "currentProduct", change.Key)
		assert.Nil(t, change.New)
		assert.Equal(t, `{}`, string(change.Old))
	})

	t.Run("cancel closes the feed", func(t *testing.T) {
		store := newStore(t)
		changes, cancel := store.Subscribe("k")
		cancel()
		cancel()

		_, open := <-changes
		assert.False(t, open)
	})

	t.Run("concurrent access", func(t *testing.T) {
		store := newStore(t)
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				key := []string{"a", "b", "c"}[i%3]
				assert.NoError(t, store.Set(ctx, map[string][]byte{key: []byte(`{"v":1}`)}))
				_, err := store.Get(ctx, "a", "b", "c")
				assert.NoError(t, err)
			}(i)
		}
		wg.Wait()

		got, err := store.Get(ctx, "a", "b", "c")
		require.NoError(t, err)
		assert.Len(t, got, 3)
	})
}

func receive(t *testing.T, changes <-chan domain.StoreChange) domain.StoreChange {
	t.Helper()
	select {
	case change, ok := <-changes:
		require.True(t, ok, "feed closed")
		return change
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for change")
		return domain.StoreChange{}
	}
}
