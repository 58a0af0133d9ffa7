package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	require.NoError(t, LoadConfig())
	require.NotNil(t, AppConfig)

	assert.Equal(t, "8000", AppConfig.Server.Port)
	assert.Equal(t, 1000, AppConfig.Knowledge.ChunkSize)
	assert.Equal(t, 200, AppConfig.Knowledge.ChunkOverlap)
	assert.Equal(t, 0.4, AppConfig.Knowledge.MinSimilarity)
	assert.Equal(t, 5, AppConfig.Knowledge.MaxContextChunks)
	assert.Equal(t, 7, AppConfig.Knowledge.CacheTTLDays)
	assert.Equal(t, 1, AppConfig.Knowledge.CacheVersion)
	assert.Equal(t, 50, AppConfig.Search.CacheCapacity)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("REDIS_HOST", "redis.internal")
	t.Setenv("PORT", "9000")

	require.NoError(t, LoadConfig())

	assert.Equal(t, "redis.internal", AppConfig.Redis.Host)
	assert.Equal(t, "9000", AppConfig.Server.Port)
}

func TestCacheTTLHelper(t *testing.T) {
	k := KnowledgeConfig{CacheTTLDays: 7, EmbedDelayMs: 100}
	assert.Equal(t, "168h0m0s", k.CacheTTL().String())
	assert.Equal(t, "100ms", k.EmbedDelay().String())
}
