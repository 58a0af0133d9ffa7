package di

import (
	"github.com/aihub/answerai-go/internal/database"
	"github.com/aihub/answerai-go/internal/services"
	"go.uber.org/dig"
)

// BuildContainer 组装依赖注入容器
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	providers := []interface{}{
		provideConfig,
		database.InitDB,
		database.InitRedis,
		provideKVStore,
		provideOpenAIClient,
		provideChunker,
		provideEmbedder,
		provideVectorStore,
		provideChunkCache,
		provideRetriever,
		provideProcessor,
		provideSearchCache,
		provideSearchEngine,
		services.NewConversationService,
		services.NewDocumentService,
		provideChatService,
	}
	for _, provider := range providers {
		if err := container.Provide(provider); err != nil {
			return nil, err
		}
	}
	return container, nil
}
