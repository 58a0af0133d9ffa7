package knowledge

import (
	"context"
	"fmt"
	"math"
	"strings"
	"testing"

	apperrors "github.com/aihub/answerai-go/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubEmbedder 固定返回查询向量(1,0)
type stubEmbedder struct {
	err error
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []float32{1, 0}, nil
}

func (s *stubEmbedder) Dimensions() int { return 2 }
func (s *stubEmbedder) Ready() bool     { return true }

// chunkWithScore 构造与查询向量(1,0)的余弦相似度恰为score的分块
func chunkWithScore(fileID string, index int, score float64) DocumentChunk {
	theta := math.Acos(score)
	return DocumentChunk{
		ID:         fmt.Sprintf("%s_chunk_%d", fileID, index),
		FileID:     fileID,
		FileName:   fileID + ".pdf",
		Text:       fmt.Sprintf("excerpt %d of %s", index, fileID),
		Embedding:  []float32{float32(math.Cos(theta)), float32(math.Sin(theta))},
		ChunkIndex: index,
	}
}

func TestRetrieveSelectsAboveThreshold(t *testing.T) {
	store := NewMemoryVectorStore()
	store.ReplaceChunks("f1", []DocumentChunk{
		chunkWithScore("f1", 0, 0.82),
		chunkWithScore("f1", 1, 0.55),
		chunkWithScore("f1", 2, 0.30),
		chunkWithScore("f1", 3, 0.10),
	})
	r := NewRetriever(store, &stubEmbedder{}, 0.4, 5)

	result, err := r.Retrieve(context.Background(), "query", []string{"f1"})
	require.NoError(t, err)
	require.Len(t, result.Sources, 2)
	assert.InDelta(t, 0.82, result.Sources[0].Similarity, 0.01)
	assert.InDelta(t, 0.55, result.Sources[1].Similarity, 0.01)
}

func TestRetrieveFallsBackToBestMatch(t *testing.T) {
	store := NewMemoryVectorStore()
	store.ReplaceChunks("f1", []DocumentChunk{
		chunkWithScore("f1", 0, 0.2),
		chunkWithScore("f1", 1, 0.1),
	})
	r := NewRetriever(store, &stubEmbedder{}, 0.4, 5)

	result, err := r.Retrieve(context.Background(), "query", []string{"f1"})
	require.NoError(t, err)
	require.Len(t, result.Sources, 1)
	assert.InDelta(t, 0.2, result.Sources[0].Similarity, 0.01)
}

func TestRetrieveCapsAtMaxChunks(t *testing.T) {
	store := NewMemoryVectorStore()
	chunks := make([]DocumentChunk, 8)
	for i := range chunks {
		chunks[i] = chunkWithScore("f1", i, 0.9-float64(i)*0.05)
	}
	store.ReplaceChunks("f1", chunks)
	r := NewRetriever(store, &stubEmbedder{}, 0.4, 5)

	result, err := r.Retrieve(context.Background(), "query", []string{"f1"})
	require.NoError(t, err)
	assert.Len(t, result.Sources, 5)
	// 按相似度降序
	for i := 1; i < len(result.Sources); i++ {
		assert.GreaterOrEqual(t, result.Sources[i-1].Similarity, result.Sources[i].Similarity)
	}
}

func TestRetrieveNoIndexedContent(t *testing.T) {
	r := NewRetriever(NewMemoryVectorStore(), &stubEmbedder{}, 0.4, 5)

	_, err := r.Retrieve(context.Background(), "query", []string{"missing"})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeNoIndexedContent))
}

func TestRetrieveEmbedFailure(t *testing.T) {
	store := NewMemoryVectorStore()
	store.ReplaceChunks("f1", []DocumentChunk{chunkWithScore("f1", 0, 0.8)})
	r := NewRetriever(store, &stubEmbedder{err: assert.AnError}, 0.4, 5)

	_, err := r.Retrieve(context.Background(), "query", []string{"f1"})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeRetrievalFailed))
}

func TestRetrieveScopedToActiveFiles(t *testing.T) {
	store := NewMemoryVectorStore()
	store.ReplaceChunks("f1", []DocumentChunk{chunkWithScore("f1", 0, 0.9)})
	store.ReplaceChunks("f2", []DocumentChunk{chunkWithScore("f2", 0, 0.95)})
	r := NewRetriever(store, &stubEmbedder{}, 0.4, 5)

	result, err := r.Retrieve(context.Background(), "query", []string{"f1"})
	require.NoError(t, err)
	require.Len(t, result.Sources, 1)
	assert.Equal(t, "f1.pdf", result.Sources[0].FileName)
}

func TestBuildContextGroupsByDocument(t *testing.T) {
	a0 := chunkWithScore("alpha", 0, 0.9)
	a0.PageNumbers = []int{1, 2}
	b0 := chunkWithScore("beta", 0, 0.8)
	a1 := chunkWithScore("alpha", 1, 0.7)

	ctxStr := buildContext([]scoredChunk{
		{chunk: a0, score: 0.9},
		{chunk: b0, score: 0.8},
		{chunk: a1, score: 0.7},
	})

	assert.Contains(t, ctxStr, "=== DOCUMENT: alpha.pdf ===")
	assert.Contains(t, ctxStr, "=== DOCUMENT: beta.pdf ===")
	assert.Contains(t, ctxStr, "[Excerpt 1 (Pages: 1, 2)]")
	// 摘录编号按文档独立计数
	assert.Contains(t, ctxStr, "[Excerpt 2]")
	assert.NotContains(t, ctxStr, "[Excerpt 3]")
	// 文档块按最高名次排序
	assert.Less(t, strings.Index(ctxStr, "alpha.pdf"), strings.Index(ctxStr, "beta.pdf"))
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{1, 0}, []float32{2, 0}), 1e-9)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, cosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	assert.Zero(t, cosineSimilarity([]float32{1, 0}, []float32{1}))
	assert.Zero(t, cosineSimilarity([]float32{0, 0}, []float32{1, 0}))
	assert.Zero(t, cosineSimilarity(nil, nil))
}
