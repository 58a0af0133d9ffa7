package search

import "sync"

// DefaultCacheCapacity 结果缓存的默认容量
const DefaultCacheCapacity = 50

// Cache 检索结果缓存。容量满时按插入顺序淘汰最旧条目，
// 会话数据一旦变更由调用方整体清空
type Cache struct {
	mu       sync.Mutex
	entries  map[string][]Result
	order    []string
	capacity int
}

// NewCache 创建结果缓存
func NewCache(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	return &Cache{
		entries:  make(map[string][]Result),
		capacity: capacity,
	}
}

// Get 读取缓存的结果
func (c *Cache) Get(key string) ([]Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	results, ok := c.entries[key]
	return results, ok
}

// Put 写入结果。已存在的键原地更新，不改变淘汰顺序
func (c *Cache) Put(key string, results []Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; exists {
		c.entries[key] = results
		return
	}

	if len(c.order) >= c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.entries[key] = results
	c.order = append(c.order, key)
}

// Clear 整体清空
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string][]Result)
	c.order = nil
}

// Len 返回当前条目数
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
