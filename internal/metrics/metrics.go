package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 核心链路的Prometheus指标
var (
	ChunkCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "answerai_chunk_cache_hits_total",
		Help: "Number of chunk cache hits.",
	})
	ChunkCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "answerai_chunk_cache_misses_total",
		Help: "Number of chunk cache misses.",
	})
	SearchCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "answerai_search_cache_hits_total",
		Help: "Number of conversation search cache hits.",
	})
	SearchCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "answerai_search_cache_misses_total",
		Help: "Number of conversation search cache misses.",
	})
	EmbeddingsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "answerai_embeddings_total",
		Help: "Number of embedding calls issued.",
	})
	EmbeddingFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "answerai_embedding_failures_total",
		Help: "Number of failed embedding calls.",
	})
	RetrievalDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "answerai_retrieval_duration_seconds",
		Help:    "Latency of context retrieval including query embedding.",
		Buckets: prometheus.DefBuckets,
	})
)
