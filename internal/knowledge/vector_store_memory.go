package knowledge

import "sync"

// MemoryVectorStore 进程内向量存储。写操作持写锁，读操作返回快照，
// 并发读方要么看到替换前的完整分块集，要么看到替换后的，不会看到混合状态
type MemoryVectorStore struct {
	mu     sync.RWMutex
	byID   map[string]DocumentChunk
	byFile map[string][]string
}

// NewMemoryVectorStore 创建内存向量存储
func NewMemoryVectorStore() *MemoryVectorStore {
	return &MemoryVectorStore{
		byID:   make(map[string]DocumentChunk),
		byFile: make(map[string][]string),
	}
}

func (s *MemoryVectorStore) ReplaceChunks(fileID string, chunks []DocumentChunk) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.byFile[fileID] {
		delete(s.byID, id)
	}
	delete(s.byFile, fileID)

	if len(chunks) == 0 {
		return
	}

	ids := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		if _, exists := s.byID[chunk.ID]; exists {
			// 同一ID只保留首个，保证ID唯一不变量
			continue
		}
		chunk.FileID = fileID
		s.byID[chunk.ID] = chunk
		ids = append(ids, chunk.ID)
	}
	s.byFile[fileID] = ids
}

func (s *MemoryVectorStore) ChunksForFile(fileID string) []DocumentChunk {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chunksForFileLocked(fileID)
}

func (s *MemoryVectorStore) ChunksForFiles(fileIDs []string) []DocumentChunk {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var chunks []DocumentChunk
	for _, fileID := range fileIDs {
		chunks = append(chunks, s.chunksForFileLocked(fileID)...)
	}
	return chunks
}

func (s *MemoryVectorStore) chunksForFileLocked(fileID string) []DocumentChunk {
	ids := s.byFile[fileID]
	if len(ids) == 0 {
		return nil
	}
	chunks := make([]DocumentChunk, 0, len(ids))
	for _, id := range ids {
		if chunk, ok := s.byID[id]; ok {
			chunks = append(chunks, chunk)
		}
	}
	return chunks
}

func (s *MemoryVectorStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

func (s *MemoryVectorStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID = make(map[string]DocumentChunk)
	s.byFile = make(map[string][]string)
}
