package model

import "time"

// Report 定义了 reports 表的 ORM 模型，记录用户提交的问题反馈。
// 只追加，不支持修改。
type Report struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      uint      `gorm:"index;not null" json:"userId"`
	SessionID   string    `gorm:"type:char(36)" json:"sessionId,omitempty"`
	Title       string    `gorm:"type:varchar(255);not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Report) TableName() string {
	return "reports"
}
