// Package events 定义了通过 Kafka 传递的事件结构。
package events

// 会话事件类型。
const (
	SessionCreated  = "session_created"
	SessionRenamed  = "session_renamed"
	SessionPinned   = "session_pinned"
	SessionArchived = "session_archived"
	SessionDeleted  = "session_deleted"
	MessageAppended = "message_appended"
)

// SessionEvent 描述一次会话列表的变更，推送给会话所属用户的在线连接。
type SessionEvent struct {
	Type      string `json:"type"`
	UserID    uint   `json:"user_id"`
	SessionID string `json:"session_id"`
	Title     string `json:"title,omitempty"`
	Pinned    *bool  `json:"pinned,omitempty"`
	Archived  *bool  `json:"archived,omitempty"`
	Timestamp int64  `json:"timestamp"`
}
