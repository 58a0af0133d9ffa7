package knowledge

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	apperrors "github.com/aihub/answerai-go/internal/errors"
	"github.com/aihub/answerai-go/internal/logger"
	"go.uber.org/zap"
)

// PageText 文档单页的原始文本
type PageText struct {
	PageNumber int    `json:"page_number"`
	Text       string `json:"text"`
}

// DocumentInput 待索引的文档
type DocumentInput struct {
	ID    string     `json:"id"`
	Name  string     `json:"name"`
	Text  string     `json:"text"`
	Pages []PageText `json:"pages,omitempty"`
}

// ChunkOutcome 单个分块的向量化结果，Chunk与Err互斥
type ChunkOutcome struct {
	Index int
	Chunk *DocumentChunk
	Err   error
}

// Processor 文档索引流水线：分块、向量化、入库，命中缓存时跳过向量化
type Processor struct {
	chunker     *Chunker
	cache       *ChunkCache
	embedder    Embedder
	store       VectorStore
	maxParallel int
	embedDelay  time.Duration
}

// NewProcessor 创建索引流水线
func NewProcessor(chunker *Chunker, cache *ChunkCache, embedder Embedder, store VectorStore, maxParallel int, embedDelay time.Duration) *Processor {
	if maxParallel <= 0 {
		maxParallel = 4
	}
	return &Processor{
		chunker:     chunker,
		cache:       cache,
		embedder:    embedder,
		store:       store,
		maxParallel: maxParallel,
		embedDelay:  embedDelay,
	}
}

// EnsureIndexed 保证文档已入向量库。已索引的文档直接返回；
// 缓存命中时复用缓存分块；否则走完整的分块向量化流程。
// 部分分块失败只记日志，全部失败才返回错误
func (p *Processor) EnsureIndexed(ctx context.Context, doc DocumentInput) error {
	if len(p.store.ChunksForFile(doc.ID)) > 0 {
		return nil
	}
	if strings.TrimSpace(doc.Text) == "" {
		return apperrors.NewValidationError(fmt.Sprintf("document %s has no extractable text", doc.Name))
	}

	if p.cache != nil {
		if cached, ok := p.cache.Get(ctx, doc.ID, p.chunker.ChunkSize(), p.chunker.ChunkOverlap()); ok {
			logger.Info("Reusing cached chunks",
				zap.String("file_id", doc.ID),
				zap.Int("chunks", len(cached)))
			p.store.ReplaceChunks(doc.ID, cached)
			return nil
		}
	}

	spans := p.chunker.SplitSpans(doc.Text)
	if len(spans) == 0 {
		return apperrors.NewValidationError(fmt.Sprintf("document %s produced no chunks", doc.Name))
	}

	outcomes := p.embedAll(ctx, doc, spans)

	chunks := make([]DocumentChunk, 0, len(outcomes))
	failed := 0
	for _, outcome := range outcomes {
		if outcome.Err != nil {
			failed++
			logger.Warn("Chunk embedding failed",
				zap.String("file_id", doc.ID),
				zap.Int("chunk_index", outcome.Index),
				zap.Error(outcome.Err))
			continue
		}
		chunks = append(chunks, *outcome.Chunk)
	}
	if len(chunks) == 0 {
		return apperrors.NewDocumentProcessingError(doc.Name, fmt.Errorf("all %d chunks failed to embed", failed))
	}
	if failed > 0 {
		logger.Warn("Document indexed with partial failures",
			zap.String("file_id", doc.ID),
			zap.Int("indexed", len(chunks)),
			zap.Int("failed", failed))
	}

	p.store.ReplaceChunks(doc.ID, chunks)

	if p.cache != nil {
		if err := p.cache.Set(ctx, doc.ID, chunks, p.chunker.ChunkSize(), p.chunker.ChunkOverlap()); err != nil {
			// 缓存写失败不阻断索引，下次冷启动重新向量化即可
			logger.Warn("Failed to cache chunks", zap.String("file_id", doc.ID), zap.Error(err))
		}
	}

	logger.Info("Document indexed",
		zap.String("file_id", doc.ID),
		zap.String("file_name", doc.Name),
		zap.Int("chunks", len(chunks)))
	return nil
}

// embedAll 用有界工作池并发向量化，结果按分块序号归位
func (p *Processor) embedAll(ctx context.Context, doc DocumentInput, spans []ChunkSpan) []ChunkOutcome {
	outcomes := make([]ChunkOutcome, len(spans))
	jobs := make(chan int)

	var wg sync.WaitGroup
	workers := p.maxParallel
	if workers > len(spans) {
		workers = len(spans)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				outcomes[i] = p.embedOne(ctx, doc, i, spans[i])
				if p.embedDelay > 0 {
					select {
					case <-time.After(p.embedDelay):
					case <-ctx.Done():
					}
				}
			}
		}()
	}

	for i := range spans {
		select {
		case jobs <- i:
		case <-ctx.Done():
			// 未下发的任务标记为取消
			for j := i; j < len(spans); j++ {
				outcomes[j] = ChunkOutcome{Index: j, Err: ctx.Err()}
			}
			close(jobs)
			wg.Wait()
			return outcomes
		}
	}
	close(jobs)
	wg.Wait()
	return outcomes
}

func (p *Processor) embedOne(ctx context.Context, doc DocumentInput, index int, span ChunkSpan) ChunkOutcome {
	if err := ctx.Err(); err != nil {
		return ChunkOutcome{Index: index, Err: err}
	}

	embedding, err := p.embedder.Embed(ctx, span.Text)
	if err != nil {
		return ChunkOutcome{Index: index, Err: apperrors.NewEmbeddingError(index, err)}
	}

	return ChunkOutcome{
		Index: index,
		Chunk: &DocumentChunk{
			ID:          fmt.Sprintf("%s_chunk_%d", doc.ID, index),
			FileID:      doc.ID,
			FileName:    doc.Name,
			Text:        span.Text,
			Embedding:   embedding,
			ChunkIndex:  index,
			PageNumbers: attributePages(doc.Pages, span),
		},
	}
}

// attributePages 推断分块覆盖的页码。优先用分块文本与页文本的前缀包含判断，
// 失败时退回按字节位置估算（页间以两个字符的分隔符计）
func attributePages(pages []PageText, span ChunkSpan) []int {
	if len(pages) == 0 {
		return nil
	}

	var matched []int
	probe := span.Text
	if len(probe) > 50 {
		probe = probe[:50]
	}
	for _, page := range pages {
		if probe != "" && strings.Contains(page.Text, probe) {
			matched = append(matched, page.PageNumber)
		}
	}
	if len(matched) > 0 {
		return matched
	}

	// 位置估算：累加各页长度定位窗口覆盖的页
	offset := 0
	for _, page := range pages {
		pageStart := offset
		pageEnd := offset + len(page.Text)
		if span.Start < pageEnd && span.End > pageStart {
			matched = append(matched, page.PageNumber)
		}
		offset = pageEnd + 2
	}
	return matched
}
