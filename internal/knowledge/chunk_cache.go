package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	apperrors "github.com/aihub/answerai-go/internal/errors"
	"github.com/aihub/answerai-go/internal/logger"
	"github.com/aihub/answerai-go/internal/metrics"
	"github.com/aihub/answerai-go/internal/storage"
	"go.uber.org/zap"
)

const chunkCachePrefix = "chunk-cache:"

// cachedChunkSet 缓存条目，版本或年龄不符即作废
type cachedChunkSet struct {
	FileID       string          `json:"file_id"`
	ChunkSize    int             `json:"chunk_size"`
	ChunkOverlap int             `json:"chunk_overlap"`
	Version      int             `json:"version"`
	Timestamp    int64           `json:"timestamp"` // unix毫秒
	Chunks       []DocumentChunk `json:"chunks"`
}

// CacheHitStats 缓存命中率统计
type CacheHitStats struct {
	hits   int64
	misses int64
	mu     sync.RWMutex
}

// ChunkCacheStats 缓存总体统计
type ChunkCacheStats struct {
	TotalEntries int               `json:"total_entries"`
	TotalBytes   int               `json:"total_bytes"`
	Hits         int64             `json:"hits"`
	Misses       int64             `json:"misses"`
	HitRate      float64           `json:"hit_rate"`
	Entries      []ChunkCacheEntry `json:"entries"`
}

// ChunkCacheEntry 单条缓存的统计信息
type ChunkCacheEntry struct {
	Key        string        `json:"key"`
	ChunkCount int           `json:"chunk_count"`
	Age        time.Duration `json:"age"`
	Bytes      int           `json:"bytes"`
}

// ChunkCache 分块缓存，避免重复向量化同一文档。
// 键由文档ID、缓存格式版本和分块参数共同派生，参数不同的缓存互不碰撞
type ChunkCache struct {
	store    storage.KVStore
	version  int
	ttl      time.Duration
	hitStats *CacheHitStats
	now      func() time.Time
}

// NewChunkCache 创建分块缓存
func NewChunkCache(store storage.KVStore, version int, ttl time.Duration) *ChunkCache {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &ChunkCache{
		store:    store,
		version:  version,
		ttl:      ttl,
		hitStats: &CacheHitStats{},
		now:      time.Now,
	}
}

func (c *ChunkCache) cacheKey(fileID string, chunkSize, chunkOverlap int) string {
	return fmt.Sprintf("%s%s:v%d:%d:%d", chunkCachePrefix, fileID, c.version, chunkSize, chunkOverlap)
}

// Get 读取缓存。版本不符或超过最大年龄的条目立即删除并按未命中处理，
// 存储层故障同样只降级为未命中，不向上抛错
func (c *ChunkCache) Get(ctx context.Context, fileID string, chunkSize, chunkOverlap int) ([]DocumentChunk, bool) {
	key := c.cacheKey(fileID, chunkSize, chunkOverlap)

	raw, found, err := c.store.Get(ctx, key)
	if err != nil {
		logger.Warn("Chunk cache read failed", zap.String("key", key), zap.Error(err))
		c.recordMiss()
		return nil, false
	}
	if !found {
		c.recordMiss()
		return nil, false
	}

	var entry cachedChunkSet
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		// 无法解析的条目直接清除
		_ = c.store.Remove(ctx, key)
		c.recordMiss()
		return nil, false
	}

	if entry.Version != c.version {
		logger.Debug("Chunk cache version mismatch, invalidating", zap.String("file_id", fileID))
		_ = c.store.Remove(ctx, key)
		c.recordMiss()
		return nil, false
	}

	age := c.now().Sub(time.UnixMilli(entry.Timestamp))
	if age > c.ttl {
		logger.Debug("Chunk cache entry expired",
			zap.String("file_id", fileID),
			zap.Duration("age", age))
		_ = c.store.Remove(ctx, key)
		c.recordMiss()
		return nil, false
	}

	c.recordHit()
	return entry.Chunks, true
}

// Set 写入缓存。容量不足时清理超过半个TTL的旧条目后重试一次，
// 仍失败则返回CacheQuotaExceeded错误，由调用方决定是否只记警告
func (c *ChunkCache) Set(ctx context.Context, fileID string, chunks []DocumentChunk, chunkSize, chunkOverlap int) error {
	key := c.cacheKey(fileID, chunkSize, chunkOverlap)
	entry := cachedChunkSet{
		FileID:       fileID,
		ChunkSize:    chunkSize,
		ChunkOverlap: chunkOverlap,
		Version:      c.version,
		Timestamp:    c.now().UnixMilli(),
		Chunks:       chunks,
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal chunk cache entry: %w", err)
	}

	status, err := c.store.Set(ctx, key, string(data))
	if status == storage.StorageOK {
		return nil
	}
	if status != storage.StorageQuotaExceeded {
		return fmt.Errorf("failed to write chunk cache: %w", err)
	}

	// 容量不足：清理旧条目后重试一次
	pruned, pruneErr := c.PruneOlderThan(ctx, c.ttl/2)
	if pruneErr != nil {
		logger.Warn("Chunk cache prune failed", zap.Error(pruneErr))
	} else {
		logger.Info("Chunk cache storage full, pruned old entries", zap.Int("pruned", pruned))
	}

	status, err = c.store.Set(ctx, key, string(data))
	if status == storage.StorageOK {
		return nil
	}
	return apperrors.NewCacheQuotaError(err)
}

// Invalidate 删除指定文档的全部缓存条目（覆盖所有分块参数组合）
func (c *ChunkCache) Invalidate(ctx context.Context, fileID string) (int, error) {
	keys, err := c.store.Keys(ctx, chunkCachePrefix+fileID+":")
	if err != nil {
		return 0, fmt.Errorf("failed to enumerate cache keys for %s: %w", fileID, err)
	}
	removed := 0
	for _, key := range keys {
		if err := c.store.Remove(ctx, key); err == nil {
			removed++
		}
	}
	return removed, nil
}

// PruneOlderThan 删除超过指定年龄的缓存条目，无法解析的条目一并清除
func (c *ChunkCache) PruneOlderThan(ctx context.Context, maxAge time.Duration) (int, error) {
	keys, err := c.store.Keys(ctx, chunkCachePrefix)
	if err != nil {
		return 0, fmt.Errorf("failed to enumerate cache keys: %w", err)
	}

	now := c.now()
	removed := 0
	for _, key := range keys {
		raw, found, err := c.store.Get(ctx, key)
		if err != nil || !found {
			continue
		}
		var entry cachedChunkSet
		stale := false
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			stale = true
		} else if now.Sub(time.UnixMilli(entry.Timestamp)) > maxAge {
			stale = true
		}
		if stale {
			if err := c.store.Remove(ctx, key); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}

// Stats 汇总缓存统计信息
func (c *ChunkCache) Stats(ctx context.Context) (*ChunkCacheStats, error) {
	keys, err := c.store.Keys(ctx, chunkCachePrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate cache keys: %w", err)
	}

	stats := &ChunkCacheStats{}
	now := c.now()
	for _, key := range keys {
		raw, found, err := c.store.Get(ctx, key)
		if err != nil || !found {
			continue
		}
		stats.TotalEntries++
		stats.TotalBytes += len(raw)

		var entry cachedChunkSet
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			continue
		}
		stats.Entries = append(stats.Entries, ChunkCacheEntry{
			Key:        key,
			ChunkCount: len(entry.Chunks),
			Age:        now.Sub(time.UnixMilli(entry.Timestamp)),
			Bytes:      len(raw),
		})
	}

	stats.Hits, stats.Misses, stats.HitRate = c.hitRateLocked()
	return stats, nil
}

func (c *ChunkCache) recordHit() {
	metrics.ChunkCacheHits.Inc()
	c.hitStats.mu.Lock()
	c.hitStats.hits++
	c.hitStats.mu.Unlock()
}

func (c *ChunkCache) recordMiss() {
	metrics.ChunkCacheMisses.Inc()
	c.hitStats.mu.Lock()
	c.hitStats.misses++
	c.hitStats.mu.Unlock()
}

func (c *ChunkCache) hitRateLocked() (hits, misses int64, rate float64) {
	c.hitStats.mu.RLock()
	defer c.hitStats.mu.RUnlock()
	hits, misses = c.hitStats.hits, c.hitStats.misses
	if total := hits + misses; total > 0 {
		rate = float64(hits) / float64(total)
	}
	return
}
