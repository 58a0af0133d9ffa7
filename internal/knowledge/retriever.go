package knowledge

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	apperrors "github.com/aihub/answerai-go/internal/errors"
	"github.com/aihub/answerai-go/internal/logger"
	"github.com/aihub/answerai-go/internal/metrics"
	"go.uber.org/zap"
)

const (
	// DefaultMinSimilarity 低于该余弦相似度的分块不参与回答
	DefaultMinSimilarity = 0.4
	// DefaultMaxContextChunks 单次检索注入上下文的分块上限
	DefaultMaxContextChunks = 5
)

// Source 回答引用的出处
type Source struct {
	FileName    string  `json:"file_name"`
	Similarity  float64 `json:"similarity"`
	ChunkIndex  int     `json:"chunk_index"`
	PageNumbers []int   `json:"page_numbers,omitempty"`
}

// RetrievalResult 检索结果，Context按文档分组后的拼接文本
type RetrievalResult struct {
	Context string   `json:"context"`
	Sources []Source `json:"sources"`
}

// Retriever 余弦相似度检索器
type Retriever struct {
	store         VectorStore
	embedder      Embedder
	minSimilarity float64
	maxChunks     int
}

// NewRetriever 创建检索器，参数非法时回退默认值
func NewRetriever(store VectorStore, embedder Embedder, minSimilarity float64, maxChunks int) *Retriever {
	if minSimilarity <= 0 || minSimilarity >= 1 {
		minSimilarity = DefaultMinSimilarity
	}
	if maxChunks <= 0 {
		maxChunks = DefaultMaxContextChunks
	}
	return &Retriever{
		store:         store,
		embedder:      embedder,
		minSimilarity: minSimilarity,
		maxChunks:     maxChunks,
	}
}

type scoredChunk struct {
	chunk DocumentChunk
	score float64
}

// Retrieve 对查询向量化后在候选文档分块中做相似度检索。
// 阈值之上的取前maxChunks个；全部低于阈值时退而返回最相似的一个，
// 保证有索引内容时回答永远有依据
func (r *Retriever) Retrieve(ctx context.Context, query string, activeFileIDs []string) (*RetrievalResult, error) {
	start := time.Now()
	defer func() {
		metrics.RetrievalDuration.Observe(time.Since(start).Seconds())
	}()

	candidates := r.store.ChunksForFiles(activeFileIDs)
	if len(candidates) == 0 {
		return nil, apperrors.NewNoIndexedContentError()
	}

	queryEmbedding, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, apperrors.NewRetrievalError("failed to embed query", err)
	}

	scored := make([]scoredChunk, 0, len(candidates))
	for _, chunk := range candidates {
		scored = append(scored, scoredChunk{
			chunk: chunk,
			score: cosineSimilarity(queryEmbedding, chunk.Embedding),
		})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	var selected []scoredChunk
	for _, sc := range scored {
		if sc.score >= r.minSimilarity {
			selected = append(selected, sc)
			if len(selected) == r.maxChunks {
				break
			}
		}
	}
	if len(selected) == 0 {
		// 兜底：至少带上最相似的分块
		selected = scored[:1]
		logger.Debug("No chunk above similarity threshold, using best match",
			zap.Float64("best_score", scored[0].score))
	}

	result := &RetrievalResult{
		Context: buildContext(selected),
		Sources: make([]Source, 0, len(selected)),
	}
	for _, sc := range selected {
		result.Sources = append(result.Sources, Source{
			FileName:    sc.chunk.FileName,
			Similarity:  sc.score,
			ChunkIndex:  sc.chunk.ChunkIndex,
			PageNumbers: sc.chunk.PageNumbers,
		})
	}

	logger.Debug("Retrieval completed",
		zap.Int("candidates", len(candidates)),
		zap.Int("selected", len(selected)),
		zap.Duration("elapsed", time.Since(start)))
	return result, nil
}

// buildContext 按文档分组拼接上下文。文档顺序取各自最高名次的分块，
// 组内保持相似度排序，摘录编号在每个文档内从1重新计数
func buildContext(selected []scoredChunk) string {
	fileOrder := make([]string, 0, len(selected))
	grouped := make(map[string][]scoredChunk)
	for _, sc := range selected {
		name := sc.chunk.FileName
		if _, seen := grouped[name]; !seen {
			fileOrder = append(fileOrder, name)
		}
		grouped[name] = append(grouped[name], sc)
	}

	var parts []string
	for _, name := range fileOrder {
		parts = append(parts, fmt.Sprintf("\n=== DOCUMENT: %s ===", name))
		for i, sc := range grouped[name] {
			header := fmt.Sprintf("[Excerpt %d]", i+1)
			if len(sc.chunk.PageNumbers) > 0 {
				header = fmt.Sprintf("[Excerpt %d (Pages: %s)]", i+1, joinPages(sc.chunk.PageNumbers))
			}
			parts = append(parts, header, sc.chunk.Text, "")
		}
	}
	return strings.Join(parts, "\n")
}

func joinPages(pages []int) string {
	strs := make([]string, len(pages))
	for i, p := range pages {
		strs[i] = fmt.Sprintf("%d", p)
	}
	return strings.Join(strs, ", ")
}

// cosineSimilarity 计算两个向量的余弦相似度，维度不符或零向量返回0
func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
