package models

import (
	"crypto/rand"
	"encoding/hex"
	"path/filepath"
	"time"
)

// 资料板块常量（对应前台各学习板块页面）
const (
	SectionClass910  = "class-9-10"
	SectionClass1112 = "class-11-12"
	SectionCollege   = "college"
	SectionExamPrep  = "jee-gate-pyq"
)

// GetFileSections 获取所有资料板块
func GetFileSections() []string {
	return []string{SectionClass910, SectionClass1112, SectionCollege, SectionExamPrep}
}

// IsValidFileSection 判断板块是否合法
func IsValidFileSection(section string) bool {
	for _, s := range GetFileSections() {
		if s == section {
			return true
		}
	}
	return false
}

// UploadedFile 学习资料元数据模型
// FilePath 为对象存储键，格式 <category>/<随机串>.<扩展名>，每个对象唯一；
// 记录创建后不再更新
type UploadedFile struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	FileName  string    `json:"file_name" gorm:"size:255;not null"`
	FilePath  string    `json:"file_path" gorm:"size:255;not null;uniqueIndex"`
	FileSize  int64     `json:"file_size" gorm:"not null"`
	FileType  string    `json:"file_type" gorm:"size:100"`
	Category  string    `json:"category" gorm:"size:50;not null;index"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName 设置表名
func (UploadedFile) TableName() string {
	return "uploaded_files"
}

// NewObjectKey 生成对象存储键：<category>/<随机串>.<扩展名>
func NewObjectKey(category, fileName string) (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	key := category + "/" + hex.EncodeToString(bytes)
	if ext := filepath.Ext(fileName); ext != "" {
		key += ext
	}
	return key, nil
}
