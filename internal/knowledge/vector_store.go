package knowledge

// DocumentChunk 向量化后的文档分块，检索的基本单位
type DocumentChunk struct {
	ID          string    `json:"id"`
	FileID      string    `json:"file_id"`
	FileName    string    `json:"file_name"`
	Text        string    `json:"text"`
	Embedding   []float32 `json:"embedding"`
	ChunkIndex  int       `json:"chunk_index"`
	PageNumbers []int     `json:"page_numbers,omitempty"`
}

// VectorStore 向量存储抽象。分块按文档整体替换，不支持局部修改
type VectorStore interface {
	// ReplaceChunks 原子替换指定文档的全部分块；chunks为空等价于删除
	ReplaceChunks(fileID string, chunks []DocumentChunk)

	// ChunksForFile 返回指定文档的分块，按chunkIndex有序
	ChunksForFile(fileID string) []DocumentChunk

	// ChunksForFiles 返回指定文档集合的全部分块
	ChunksForFiles(fileIDs []string) []DocumentChunk

	// Count 返回当前存储的分块总数
	Count() int

	// Clear 清空存储
	Clear()
}
