package models

import (
	"time"
)

// Budget 预算模型
// 每个用户一条记录，整体覆盖式更新；缺失记录视为预算 0
type Budget struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"uniqueIndex;not null"`
	Amount    float64   `json:"amount" gorm:"type:decimal(10,2);not null;default:0"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	User      User      `json:"-" gorm:"foreignKey:UserID"`
}

// TableName 设置表名
func (Budget) TableName() string {
	return "budgets"
}
