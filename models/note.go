package models

import (
	"time"

	"gorm.io/gorm"
)

// Note 笔记类型常量
const (
	NoteKindText     = "text"
	NoteKindPhoto    = "photo"
	NoteKindVideo    = "video"
	NoteKindDocument = "document"
)

// GetNoteKinds 获取所有笔记类型
func GetNoteKinds() []string {
	return []string{NoteKindText, NoteKindPhoto, NoteKindVideo, NoteKindDocument}
}

// IsFileNoteKind 判断是否为带附件的笔记类型
func IsFileNoteKind(kind string) bool {
	switch kind {
	case NoteKindPhoto, NoteKindVideo, NoteKindDocument:
		return true
	}
	return false
}

// Note 笔记模型
// 文本笔记 ObjectKey 为空；附件笔记 ObjectKey 指向笔记附件存储中的对象，
// 附件内容按需读取，不内联到记录里
type Note struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	UserID    uint           `json:"user_id" gorm:"index;not null"`
	Title     string         `json:"title" gorm:"size:255;not null"`
	Content   string         `json:"content" gorm:"type:text"`
	Kind      string         `json:"kind" gorm:"size:20;not null;index"` // text/photo/video/document
	Date      string         `json:"date" gorm:"size:10;not null"`       // 创建日期，格式 2006-01-02
	ObjectKey string         `json:"-" gorm:"size:255"`
	FileName  string         `json:"file_name,omitempty" gorm:"size:255"`
	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
	User      User           `json:"-" gorm:"foreignKey:UserID"`
}

// TableName 设置表名
func (Note) TableName() string {
	return "notes"
}

// HasPayload 是否带附件
func (n *Note) HasPayload() bool {
	return n.ObjectKey != ""
}
