package services

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/aihub/answerai-go/internal/errors"
	"github.com/aihub/answerai-go/internal/logger"
	"github.com/aihub/answerai-go/internal/models"
	"github.com/aihub/answerai-go/internal/search"
	"github.com/aihub/answerai-go/internal/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DefaultConversationTitle 新建对话的初始标题
const DefaultConversationTitle = "New Conversation"

const (
	autoTitleMaxLen       = 50
	activeConversationKey = "active-conversation"
)

// ConversationService 对话管理服务。任何写操作都会使检索结果缓存整体失效
type ConversationService struct {
	db          *gorm.DB
	searchCache *search.Cache
	kv          storage.KVStore
}

// NewConversationService 创建对话服务
func NewConversationService(db *gorm.DB, searchCache *search.Cache, kv storage.KVStore) *ConversationService {
	return &ConversationService{db: db, searchCache: searchCache, kv: kv}
}

// Create 创建新对话
func (s *ConversationService) Create(title string) (*models.Conversation, error) {
	if title == "" {
		title = DefaultConversationTitle
	}
	conv := &models.Conversation{
		ID:    "conv_" + uuid.NewString(),
		Title: title,
	}
	conv.SetFileIDs(nil)

	if err := s.db.Create(conv).Error; err != nil {
		return nil, err
	}
	s.invalidateSearchCache()

	logger.Info("Conversation created", zap.String("conversation_id", conv.ID))
	return conv, nil
}

// Get 按ID加载对话及其消息（按时间升序）
func (s *ConversationService) Get(id string) (*models.Conversation, error) {
	var conv models.Conversation
	err := s.db.Preload("Messages", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC, id ASC")
	}).First(&conv, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NewNotFoundError("conversation")
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// List 返回全部对话，按最近更新排序
func (s *ConversationService) List() ([]models.Conversation, error) {
	var convs []models.Conversation
	err := s.db.Preload("Messages", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC, id ASC")
	}).Order("updated_at DESC").Find(&convs).Error
	if err != nil {
		return nil, err
	}
	return convs, nil
}

// AppendMessages 追加消息并更新对话时间戳。
// 首条用户消息会自动生成标题（截断到50字符）
func (s *ConversationService) AppendMessages(conv *models.Conversation, msgs ...models.ConversationMessage) error {
	now := time.Now()
	for i := range msgs {
		msgs[i].ConversationID = conv.ID
		if msgs[i].CreatedAt.IsZero() {
			msgs[i].CreatedAt = now
		}
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if len(msgs) > 0 {
			if err := tx.Create(&msgs).Error; err != nil {
				return err
			}
		}
		updates := map[string]interface{}{"updated_at": now}
		if title, ok := autoTitle(conv, msgs); ok {
			conv.Title = title
			updates["title"] = title
		}
		return tx.Model(&models.Conversation{}).Where("id = ?", conv.ID).Updates(updates).Error
	})
	if err != nil {
		return err
	}

	conv.Messages = append(conv.Messages, msgs...)
	conv.UpdatedAt = now
	s.invalidateSearchCache()
	return nil
}

// SetActiveFiles 更新对话引用的活跃文档集合
func (s *ConversationService) SetActiveFiles(id string, fileIDs []string) error {
	conv := &models.Conversation{ID: id}
	conv.SetFileIDs(fileIDs)

	result := s.db.Model(conv).Updates(map[string]interface{}{
		"active_file_ids": conv.ActiveFileIDs,
		"updated_at":      time.Now(),
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFoundError("conversation")
	}
	s.invalidateSearchCache()
	return nil
}

// Delete 删除对话及其消息
func (s *ConversationService) Delete(id string) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("conversation_id = ?", id).Delete(&models.ConversationMessage{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.Conversation{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperrors.NewNotFoundError("conversation")
		}
		return nil
	})
	if err != nil {
		return err
	}

	// 被删除的对话若是活跃对话，顺带清掉指针
	if s.kv != nil {
		ctx := context.Background()
		if active, err := s.Active(ctx); err == nil && active == id {
			_ = s.kv.Remove(ctx, activeConversationKey)
		}
	}

	s.invalidateSearchCache()
	logger.Info("Conversation deleted", zap.String("conversation_id", id))
	return nil
}

// ConversationsInOrder 以检索引擎需要的形式导出全部会话
func (s *ConversationService) ConversationsInOrder() ([]search.ConversationData, error) {
	convs, err := s.List()
	if err != nil {
		return nil, err
	}

	data := make([]search.ConversationData, 0, len(convs))
	for _, conv := range convs {
		cd := search.ConversationData{
			ID:       conv.ID,
			Title:    conv.Title,
			Messages: make([]search.Message, 0, len(conv.Messages)),
		}
		for _, m := range conv.Messages {
			cd.Messages = append(cd.Messages, search.Message{
				Role:      m.Role,
				Content:   m.Content,
				Timestamp: m.CreatedAt,
			})
		}
		data = append(data, cd)
	}
	return data, nil
}

// SetActive 记住当前活跃对话，id为空表示取消选择
func (s *ConversationService) SetActive(ctx context.Context, id string) error {
	if s.kv == nil {
		return nil
	}
	if id == "" {
		return s.kv.Remove(ctx, activeConversationKey)
	}
	if _, err := s.Get(id); err != nil {
		return err
	}
	if _, err := s.kv.Set(ctx, activeConversationKey, id); err != nil {
		return err
	}
	return nil
}

// Active 返回当前活跃对话ID，未设置时为空串
func (s *ConversationService) Active(ctx context.Context) (string, error) {
	if s.kv == nil {
		return "", nil
	}
	id, found, err := s.kv.Get(ctx, activeConversationKey)
	if err != nil || !found {
		return "", err
	}
	return id, nil
}

func (s *ConversationService) invalidateSearchCache() {
	if s.searchCache != nil {
		s.searchCache.Clear()
	}
}

// autoTitle 标题仍是初始值时，取首条用户消息生成标题
func autoTitle(conv *models.Conversation, incoming []models.ConversationMessage) (string, bool) {
	if conv.Title != DefaultConversationTitle && conv.Title != "" {
		return "", false
	}
	if len(conv.Messages) > 0 {
		return "", false
	}
	for _, m := range incoming {
		if m.Role == "user" {
			return truncateTitle(m.Content), true
		}
	}
	return "", false
}

func truncateTitle(content string) string {
	runes := []rune(content)
	if len(runes) <= autoTitleMaxLen {
		return content
	}
	return string(runes[:autoTitleMaxLen]) + "..."
}
