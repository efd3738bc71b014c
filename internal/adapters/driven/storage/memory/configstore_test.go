package memory

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigStore_SetAndGet(t *testing.T) {
	store := NewConfigStore()

	require.NoError(t, store.Set("search.mode", "hybrid"))
	val, ok := store.Get("search.mode")
	assert.True(t, ok)
	assert.Equal(t, "hybrid", val)

	_, ok = store.Get("missing")
	assert.False(t, ok)
	assert.Equal(t, ":memory:", store.Path())
	assert.NoError(t, store.Save())
	assert.NoError(t, store.Load())
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Set("s", "text"))
	require.NoError(t, store.Set("i", 5))
	require.NoError(t, store.Set("i64", int64(7)))
	require.NoError(t, store.Set("f", 0.8))
	require.NoError(t, store.Set("b", true))
	require.NoError(t, store.Set("hosts", []any{"example.com", 3, "test.com"}))

	assert.Equal(t, "text", store.GetString("s"))
	assert.Equal(t, "", store.GetString("i"))
	assert.Equal(t, 5, store.GetInt("i"))
	assert.Equal(t, 7, store.GetInt("i64"))
	assert.Equal(t, 0, store.GetInt("missing"))
	assert.Equal(t, 0.8, store.GetFloat("f"))
	assert.Equal(t, 5.0, store.GetFloat("i"))
	assert.Equal(t, 0.0, store.GetFloat("s"))
	assert.True(t, store.GetBool("b"))
	assert.False(t, store.GetBool("s"))
	assert.Equal(t, []string{"example.com", "test.com"}, store.GetStringSlice("hosts"))
	assert.Nil(t, store.GetStringSlice("s"))
}

func TestConfigStore_Seed(t *testing.T) {
	seed := map[string]any{"search.mode": "vector", "search.limit": 4}
	store := NewConfigStore(seed, map[string]any{"search.limit": 2})

	assert.Equal(t, "vector", store.GetString("search.mode"))
	assert.Equal(t, 2, store.GetInt("search.limit"))

	require.NoError(t, store.Set("search.mode", "text"))
	assert.Equal(t, "vector", seed["search.mode"])
}

func TestConfigStore_StringSliceIsCopied(t *testing.T) {
	store := NewConfigStore(map[string]any{"hosts": []string{"example.com"}})

	got := store.GetStringSlice("hosts")
	got[0] = "changed"
	assert.Equal(t, []string{"example.com"}, store.GetStringSlice("hosts"))
}

func TestConfigStore_ConcurrentAccess(t *testing.T) {
	store := NewConfigStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := fmt.Sprintf("key.%d", n)
			_ = store.Set(key, n)
			_ = store.GetInt(key)
		}(i)
	}
	wg.Wait()

	for i := 0; i < 50; i++ {
		assert.Equal(t, i, store.GetInt(fmt.Sprintf("key.%d", i)))
	}
}
