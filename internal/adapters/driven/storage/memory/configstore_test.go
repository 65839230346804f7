package memory

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
)

func TestConfigStore_InterfaceCompliance(t *testing.T) {
	var _ driven.ConfigStore = NewConfigStore()
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Set("embedding.model", "all-minilm"))
	require.NoError(t, store.Set("retrieval.k", 5))
	require.NoError(t, store.Set("chunker.group_size", int64(4)))
	require.NoError(t, store.Set("embedding.rate_per_second", 1.5))
	require.NoError(t, store.Set("index.seed", true))

	assert.Equal(t, "all-minilm", store.GetString("embedding.model"))
	assert.Equal(t, 5, store.GetInt("retrieval.k"))
	assert.Equal(t, 4, store.GetInt("chunker.group_size"))
	assert.Equal(t, 1, store.GetInt("embedding.rate_per_second"))
	assert.Equal(t, 1.5, store.GetFloat("embedding.rate_per_second"))
	assert.Equal(t, 5.0, store.GetFloat("retrieval.k"))
	assert.True(t, store.GetBool("index.seed"))
}

func TestConfigStore_MissingAndWrongTypes(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Set("s", "text"))

	_, ok := store.Get("missing")
	assert.False(t, ok)
	assert.Equal(t, "", store.GetString("missing"))
	assert.Equal(t, 0, store.GetInt("s"))
	assert.Equal(t, 0.0, store.GetFloat("s"))
	assert.False(t, store.GetBool("s"))
}

func TestConfigStore_KeysSorted(t *testing.T) {
	store := NewConfigStore()
	for _, k := range []string{"llm.model", "embedding.model", "index.dir"} {
		require.NoError(t, store.Set(k, "x"))
	}

	assert.Equal(t, []string{"embedding.model", "index.dir", "llm.model"}, store.Keys())
}

func TestConfigStore_SaveLoadPath(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Set("k", "v"))

	assert.NoError(t, store.Save())
	assert.NoError(t, store.Load())
	assert.Equal(t, "v", store.GetString("k"))
	assert.Equal(t, ":memory:", store.Path())
}

func TestConfigStore_Concurrency(t *testing.T) {
	store := NewConfigStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			_ = store.Set(fmt.Sprintf("key.%d", n), n)
		}(i)
		go func() {
			defer wg.Done()
			_ = store.Keys()
		}()
	}
	wg.Wait()

	assert.Len(t, store.Keys(), 50)
	assert.Equal(t, 7, store.GetInt("key.7"))
}
