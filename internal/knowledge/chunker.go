package knowledge

import (
	"strings"

	apperrors "github.com/aihub/answerai-go/internal/errors"
)

const (
	// DefaultChunkSize 默认分块长度（字节）
	DefaultChunkSize = 1000
	// DefaultChunkOverlap 相邻分块的默认重叠长度（字节）
	DefaultChunkOverlap = 200
)

// Chunker 文本分块器，滑动窗口按固定步长切分
type Chunker struct {
	chunkSize    int
	chunkOverlap int
}

// NewChunker 创建分块器。overlap必须严格小于chunkSize，否则窗口无法前进
func NewChunker(chunkSize, overlap int) (*Chunker, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = DefaultChunkOverlap
	}
	if overlap >= chunkSize {
		return nil, apperrors.NewValidationError("chunk overlap must be smaller than chunk size")
	}
	return &Chunker{
		chunkSize:    chunkSize,
		chunkOverlap: overlap,
	}, nil
}

// ChunkSize 返回分块长度
func (c *Chunker) ChunkSize() int { return c.chunkSize }

// ChunkOverlap 返回重叠长度
func (c *Chunker) ChunkOverlap() int { return c.chunkOverlap }

// ChunkSpan 单个分块及其在原文中的字节区间
type ChunkSpan struct {
	Text  string
	Start int
	End   int
}

// Split 将文本切分为有序分块。窗口起点每次前进chunkSize-overlap，
// 修剪后为空的窗口被跳过但不影响后续窗口的位置
func (c *Chunker) Split(text string) []string {
	spans := c.SplitSpans(text)
	if len(spans) == 0 {
		return nil
	}
	chunks := make([]string, len(spans))
	for i, span := range spans {
		chunks[i] = span.Text
	}
	return chunks
}

// SplitSpans 与Split相同，但保留每个分块的原始窗口区间
func (c *Chunker) SplitSpans(text string) []ChunkSpan {
	if text == "" {
		return nil
	}

	step := c.chunkSize - c.chunkOverlap
	var spans []ChunkSpan

	for start := 0; start < len(text); start += step {
		end := start + c.chunkSize
		if end > len(text) {
			end = len(text)
		}
		piece := strings.TrimSpace(text[start:end])
		if piece != "" {
			spans = append(spans, ChunkSpan{Text: piece, Start: start, End: end})
		}
	}

	return spans
}
