package model

import "time"

// 会话标题相关限制。
const (
	// TitleFromMessageLen 是根据首条消息自动生成标题时截取的长度。
	TitleFromMessageLen = 30
	// TitleMaxLen 是手动重命名时允许的最大长度。
	TitleMaxLen = 120
)

// ChatSession 定义了 chat_sessions 表的 ORM 模型。
// 主键为 UUID 字符串，由服务端生成。
type ChatSession struct {
	ID        string    `gorm:"type:char(36);primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"userId"`
	Title     string    `gorm:"type:varchar(120);not null" json:"title"`
	Pinned    bool      `gorm:"not null;default:false" json:"pinned"`
	Archived  bool      `gorm:"not null;default:false" json:"archived"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime;index" json:"updatedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (ChatSession) TableName() string {
	return "chat_sessions"
}
