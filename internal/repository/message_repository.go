package repository

import (
	"gorm.io/gorm"

	"github.com/Xenonn21/voitzu/internal/model"
)

// MessageRepository 接口定义了消息相关的数据持久化操作。
type MessageRepository interface {
	Create(message *model.Message) error
	FindByID(id uint) (*model.Message, error)
	FindBySessionID(sessionID string) ([]model.Message, error)
	CountBySessionID(sessionID string) (int64, error)
	FindBefore(sessionID string, beforeMessageID uint) ([]model.Message, error)
}

// messageRepository 是 MessageRepository 接口的 GORM 实现。
type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository 创建一个新的 MessageRepository 实例。
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

// Create 追加一条消息。
func (r *messageRepository) Create(message *model.Message) error {
	return r.db.Create(message).Error
}

// FindByID 根据 ID 查找消息。
func (r *messageRepository) FindByID(id uint) (*model.Message, error) {
	var message model.Message
	if err := r.db.First(&message, id).Error; err != nil {
		return nil, err
	}
	return &message, nil
}

// FindBySessionID 按时间顺序获取会话的全部消息。
func (r *messageRepository) FindBySessionID(sessionID string) ([]model.Message, error) {
	var messages []model.Message
	err := r.db.Where("session_id = ?", sessionID).Order("id asc").Find(&messages).Error
	return messages, err
}

// CountBySessionID 统计会话内的消息数。
func (r *messageRepository) CountBySessionID(sessionID string) (int64, error) {
	var count int64
	err := r.db.Model(&model.Message{}).Where("session_id = ?", sessionID).Count(&count).Error
	return count, err
}

// FindBefore 获取会话中严格早于指定消息的全部消息，用于编辑后重发。
// 被替代的旧消息保留在表里，不做删除。
func (r *messageRepository) FindBefore(sessionID string, beforeMessageID uint) ([]model.Message, error) {
	var messages []model.Message
	err := r.db.Where("session_id = ? AND id < ?", sessionID, beforeMessageID).
		Order("id asc").Find(&messages).Error
	return messages, err
}
