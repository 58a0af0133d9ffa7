package models

import (
	"encoding/json"
	"time"
)

// Document 文档表，保存外部解析器提取后的文本
type Document struct {
	ID        string    `gorm:"primaryKey;column:id;size:64" json:"id"`
	Name      string    `gorm:"column:name;size:255;not null" json:"name"`
	Text      string    `gorm:"type:text;not null" json:"-"`
	Pages     string    `gorm:"type:jsonb;column:pages" json:"-"`
	CreatedAt time.Time `gorm:"column:created_at;not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Document) TableName() string {
	return "documents"
}

// DocumentPage 页文本，pageNumber从1开始
type DocumentPage struct {
	PageNumber int    `json:"page_number"`
	Text       string `json:"text"`
}

// PageList 解析页文本列表
func (d *Document) PageList() []DocumentPage {
	if d.Pages == "" {
		return nil
	}
	var pages []DocumentPage
	if err := json.Unmarshal([]byte(d.Pages), &pages); err != nil {
		return nil
	}
	return pages
}

// SetPages 序列化页文本列表
func (d *Document) SetPages(pages []DocumentPage) {
	if len(pages) == 0 {
		d.Pages = "[]"
		return
	}
	data, _ := json.Marshal(pages)
	d.Pages = string(data)
}
