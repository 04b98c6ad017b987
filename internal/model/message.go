package model

import "time"

// 消息角色。
const (
	RoleMsgUser      = "user"
	RoleMsgAssistant = "assistant"
)

// Message 定义了 messages 表的 ORM 模型。
// 一条消息属于一个会话，按自增 ID 即为会话内的时间顺序。
type Message struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID string    `gorm:"type:char(36);index;not null" json:"sessionId"`
	Role      string    `gorm:"type:varchar(20);not null" json:"role"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Message) TableName() string {
	return "messages"
}
