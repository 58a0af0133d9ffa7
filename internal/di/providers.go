package di

import (
	"github.com/aihub/answerai-go/internal/config"
	"github.com/aihub/answerai-go/internal/knowledge"
	"github.com/aihub/answerai-go/internal/search"
	"github.com/aihub/answerai-go/internal/services"
	"github.com/aihub/answerai-go/internal/storage"
	"github.com/redis/go-redis/v9"
	openai "github.com/sashabaranov/go-openai"
)

func provideConfig() *config.Config {
	return config.GetAppConfig()
}

func provideKVStore(client *redis.Client) storage.KVStore {
	return storage.NewRedisKVStore(client)
}

// provideOpenAIClient API密钥未配置时返回nil，下游组件自行降级
func provideOpenAIClient(cfg *config.Config) *openai.Client {
	if cfg.AI.OpenAIAPIKey == "" {
		return nil
	}
	return openai.NewClient(cfg.AI.OpenAIAPIKey)
}

func provideChunker(cfg *config.Config) (*knowledge.Chunker, error) {
	return knowledge.NewChunker(cfg.Knowledge.ChunkSize, cfg.Knowledge.ChunkOverlap)
}

func provideEmbedder(client *openai.Client, cfg *config.Config) knowledge.Embedder {
	return knowledge.NewOpenAIEmbedder(client, cfg.AI.EmbeddingModel)
}

func provideVectorStore() knowledge.VectorStore {
	return knowledge.NewMemoryVectorStore()
}

func provideChunkCache(kv storage.KVStore, cfg *config.Config) *knowledge.ChunkCache {
	return knowledge.NewChunkCache(kv, cfg.Knowledge.CacheVersion, cfg.Knowledge.CacheTTL())
}

func provideRetriever(store knowledge.VectorStore, embedder knowledge.Embedder, cfg *config.Config) *knowledge.Retriever {
	return knowledge.NewRetriever(store, embedder, cfg.Knowledge.MinSimilarity, cfg.Knowledge.MaxContextChunks)
}

func provideProcessor(chunker *knowledge.Chunker, cache *knowledge.ChunkCache, embedder knowledge.Embedder, store knowledge.VectorStore, cfg *config.Config) *knowledge.Processor {
	return knowledge.NewProcessor(chunker, cache, embedder, store, cfg.Knowledge.MaxParallel, cfg.Knowledge.EmbedDelay())
}

func provideSearchCache(cfg *config.Config) *search.Cache {
	return search.NewCache(cfg.Search.CacheCapacity)
}

func provideSearchEngine(conversations *services.ConversationService, cache *search.Cache, cfg *config.Config) *search.Engine {
	return search.NewEngine(conversations, cache, cfg.Search.PreviewLength)
}

func provideChatService(conversations *services.ConversationService, documents *services.DocumentService, retriever *knowledge.Retriever, client *openai.Client, cfg *config.Config) *services.ChatService {
	return services.NewChatService(conversations, documents, retriever, client, cfg.AI)
}
