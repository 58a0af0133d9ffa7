package services

import (
	"context"
	"errors"
	"strings"

	apperrors "github.com/aihub/answerai-go/internal/errors"
	"github.com/aihub/answerai-go/internal/knowledge"
	"github.com/aihub/answerai-go/internal/logger"
	"github.com/aihub/answerai-go/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DocumentService 文档管理服务：入库、索引、删除与缓存维护。
// 文档文本由外部解析器提取后提交，这里不做PDF解析
type DocumentService struct {
	db        *gorm.DB
	processor *knowledge.Processor
	store     knowledge.VectorStore
	cache     *knowledge.ChunkCache
}

// NewDocumentService 创建文档服务
func NewDocumentService(db *gorm.DB, processor *knowledge.Processor, store knowledge.VectorStore, cache *knowledge.ChunkCache) *DocumentService {
	return &DocumentService{
		db:        db,
		processor: processor,
		store:     store,
		cache:     cache,
	}
}

// Register 登记文档并立即建立索引
func (s *DocumentService) Register(ctx context.Context, name, text string, pages []models.DocumentPage) (*models.Document, error) {
	if strings.TrimSpace(name) == "" {
		return nil, apperrors.NewValidationError("document name is required")
	}
	if strings.TrimSpace(text) == "" {
		return nil, apperrors.NewValidationError("document text is required")
	}

	doc := &models.Document{
		ID:   "file_" + uuid.NewString(),
		Name: name,
		Text: text,
	}
	doc.SetPages(pages)

	if err := s.db.Create(doc).Error; err != nil {
		return nil, err
	}

	if err := s.EnsureIndexed(ctx, doc); err != nil {
		return nil, err
	}

	logger.Info("Document registered",
		zap.String("file_id", doc.ID),
		zap.String("name", doc.Name),
		zap.Int("pages", len(pages)))
	return doc, nil
}

// Get 按ID加载文档
func (s *DocumentService) Get(id string) (*models.Document, error) {
	var doc models.Document
	err := s.db.First(&doc, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NewNotFoundError("document")
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// List 返回全部文档，按创建时间降序
func (s *DocumentService) List() ([]models.Document, error) {
	var docs []models.Document
	if err := s.db.Order("created_at DESC").Find(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

// EnsureIndexed 保证单个文档已入向量库
func (s *DocumentService) EnsureIndexed(ctx context.Context, doc *models.Document) error {
	input := knowledge.DocumentInput{
		ID:   doc.ID,
		Name: doc.Name,
		Text: doc.Text,
	}
	for _, page := range doc.PageList() {
		input.Pages = append(input.Pages, knowledge.PageText{
			PageNumber: page.PageNumber,
			Text:       page.Text,
		})
	}
	return s.processor.EnsureIndexed(ctx, input)
}

// EnsureIndexedAll 保证一组文档已入向量库，单个文档失败不阻断其余
func (s *DocumentService) EnsureIndexedAll(ctx context.Context, fileIDs []string) error {
	var firstErr error
	for _, id := range fileIDs {
		doc, err := s.Get(id)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if err := s.EnsureIndexed(ctx, doc); err != nil {
			logger.Warn("Failed to index document",
				zap.String("file_id", id),
				zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// Delete 删除文档并清理其向量与缓存
func (s *DocumentService) Delete(ctx context.Context, id string) error {
	result := s.db.Delete(&models.Document{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFoundError("document")
	}

	s.store.ReplaceChunks(id, nil)
	if s.cache != nil {
		if removed, err := s.cache.Invalidate(ctx, id); err != nil {
			logger.Warn("Failed to invalidate chunk cache", zap.String("file_id", id), zap.Error(err))
		} else if removed > 0 {
			logger.Debug("Chunk cache invalidated",
				zap.String("file_id", id),
				zap.Int("removed", removed))
		}
	}

	logger.Info("Document deleted", zap.String("file_id", id))
	return nil
}

// CacheStats 返回分块缓存统计
func (s *DocumentService) CacheStats(ctx context.Context) (*knowledge.ChunkCacheStats, error) {
	if s.cache == nil {
		return &knowledge.ChunkCacheStats{}, nil
	}
	return s.cache.Stats(ctx)
}
