package services

import (
	"context"
	"strings"
	"sync"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/aihub/answerai-go/internal/config"
	"github.com/aihub/answerai-go/internal/storage"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockDB 基于sqlmock构造gorm连接
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: mockDB}), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return db, mock
}

// serviceFakeKV 内存KV实现
type serviceFakeKV struct {
	mu   sync.Mutex
	data map[string]string
}

func newServiceFakeKV() *serviceFakeKV {
	return &serviceFakeKV{data: make(map[string]string)}
}

func (f *serviceFakeKV) Get(ctx context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	return v, ok, nil
}

func (f *serviceFakeKV) Set(ctx context.Context, key, value string) (storage.StorageStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value
	return storage.StorageOK, nil
}

func (f *serviceFakeKV) Remove(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, key)
	return nil
}

func (f *serviceFakeKV) Keys(ctx context.Context, prefix string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var keys []string
	for k := range f.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func testAIConfig() config.AIConfig {
	return config.AIConfig{
		ChatModel:      "gpt-4o-mini",
		EmbeddingModel: "text-embedding-3-small",
		MaxTokens:      2048,
		Temperature:    0.7,
	}
}

// stubEmbedder 固定向量的测试实现
type stubEmbedder struct{}

func (stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 0}, nil
}
func (stubEmbedder) Dimensions() int { return 2 }
func (stubEmbedder) Ready() bool     { return true }
