package models

import (
	"encoding/json"
	"time"
)

// Conversation 对话表
type Conversation struct {
	ID            string    `gorm:"primaryKey;column:id;size:64" json:"id"`
	Title         string    `gorm:"column:title;size:255;not null" json:"title"`
	ActiveFileIDs string    `gorm:"type:jsonb;column:active_file_ids" json:"-"`
	CreatedAt     time.Time `gorm:"column:created_at;not null" json:"created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at;not null;index" json:"updated_at"`

	Messages []ConversationMessage `gorm:"foreignKey:ConversationID;references:ID" json:"messages"`
}

func (Conversation) TableName() string {
	return "conversations"
}

// FileIDs 解析活跃文档ID列表
func (c *Conversation) FileIDs() []string {
	if c.ActiveFileIDs == "" {
		return nil
	}
	var ids []string
	if err := json.Unmarshal([]byte(c.ActiveFileIDs), &ids); err != nil {
		return nil
	}
	return ids
}

// SetFileIDs 序列化活跃文档ID列表
func (c *Conversation) SetFileIDs(ids []string) {
	if len(ids) == 0 {
		c.ActiveFileIDs = "[]"
		return
	}
	data, _ := json.Marshal(ids)
	c.ActiveFileIDs = string(data)
}

// ConversationMessage 对话消息表
type ConversationMessage struct {
	ID             uint      `gorm:"primaryKey;column:id" json:"id"`
	ConversationID string    `gorm:"column:conversation_id;size:64;not null;index" json:"conversation_id"`
	Role           string    `gorm:"column:role;size:20;not null" json:"role"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	CreatedAt      time.Time `gorm:"column:created_at;not null;index" json:"created_at"`
}

func (ConversationMessage) TableName() string {
	return "conversation_messages"
}
