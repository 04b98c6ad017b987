package model

import "time"

// UserProfileLog 定义了 user_profile_logs 表的 ORM 模型。
// 每次资料保存都会追加一条审计记录，Changes 字段存变更内容的 JSON 文本。
type UserProfileLog struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"userId"`
	Changes   string    `gorm:"type:text;not null" json:"changes"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (UserProfileLog) TableName() string {
	return "user_profile_logs"
}
