package search

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheEvictsOldestAtCapacity(t *testing.T) {
	cache := NewCache(50)

	for i := 0; i < 51; i++ {
		cache.Put(fmt.Sprintf("q%d", i), []Result{{ConversationID: fmt.Sprintf("c%d", i)}})
	}

	assert.Equal(t, 50, cache.Len())
	_, ok := cache.Get("q0")
	assert.False(t, ok, "oldest entry evicted")
	_, ok = cache.Get("q1")
	assert.True(t, ok)
	_, ok = cache.Get("q50")
	assert.True(t, ok)
}

func TestCachePutExistingUpdatesInPlace(t *testing.T) {
	cache := NewCache(2)
	cache.Put("a", []Result{{MatchCount: 1}})
	cache.Put("b", []Result{{MatchCount: 2}})
	cache.Put("a", []Result{{MatchCount: 9}})

	results, ok := cache.Get("a")
	require.True(t, ok)
	assert.Equal(t, 9, results[0].MatchCount)
	assert.Equal(t, 2, cache.Len())

	// 更新不改变淘汰顺序，a仍是最旧条目
	cache.Put("c", nil)
	_, ok = cache.Get("a")
	assert.False(t, ok)
	_, ok = cache.Get("b")
	assert.True(t, ok)
}

func TestCacheClear(t *testing.T) {
	cache := NewCache(10)
	cache.Put("a", []Result{{}})
	cache.Put("b", []Result{{}})
	cache.Clear()

	assert.Zero(t, cache.Len())
	_, ok := cache.Get("a")
	assert.False(t, ok)
}
