package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/Xenonn21/voitzu/internal/model"
)

// SessionRepository 接口定义了会话相关的数据持久化操作。
type SessionRepository interface {
	Create(session *model.ChatSession) error
	FindByID(id string) (*model.ChatSession, error)
	FindByUserID(userID uint, includeArchived bool) ([]model.ChatSession, error)
	UpdateTitle(id string, title string) error
	UpdatePinned(id string, pinned bool) error
	UpdateArchived(id string, archived bool) error
	Touch(id string) error
	DeleteWithMessages(id string) error
}

// sessionRepository 是 SessionRepository 接口的 GORM 实现。
type sessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository 创建一个新的 SessionRepository 实例。
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

// Create 创建一个新会话。
func (r *sessionRepository) Create(session *model.ChatSession) error {
	return r.db.Create(session).Error
}

// FindByID 根据 ID 查找会话。
func (r *sessionRepository) FindByID(id string) (*model.ChatSession, error) {
	var session model.ChatSession
	if err := r.db.Where("id = ?", id).First(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// FindByUserID 查找用户的会话列表，置顶优先，其余按最近更新排序。
func (r *sessionRepository) FindByUserID(userID uint, includeArchived bool) ([]model.ChatSession, error) {
	var sessions []model.ChatSession
	q := r.db.Where("user_id = ?", userID)
	if !includeArchived {
		q = q.Where("archived = ?", false)
	}
	err := q.Order("pinned desc, updated_at desc").Find(&sessions).Error
	return sessions, err
}

// UpdateTitle 更新会话标题。
func (r *sessionRepository) UpdateTitle(id string, title string) error {
	return r.db.Model(&model.ChatSession{}).Where("id = ?", id).Update("title", title).Error
}

// UpdatePinned 更新会话置顶状态。
func (r *sessionRepository) UpdatePinned(id string, pinned bool) error {
	return r.db.Model(&model.ChatSession{}).Where("id = ?", id).Update("pinned", pinned).Error
}

// UpdateArchived 更新会话归档状态。
func (r *sessionRepository) UpdateArchived(id string, archived bool) error {
	return r.db.Model(&model.ChatSession{}).Where("id = ?", id).Update("archived", archived).Error
}

// Touch 刷新会话的更新时间，使其排到列表前面。
func (r *sessionRepository) Touch(id string) error {
	return r.db.Model(&model.ChatSession{}).Where("id = ?", id).Update("updated_at", time.Now()).Error
}

// DeleteWithMessages 在一个事务里先删消息再删会话。
func (r *sessionRepository) DeleteWithMessages(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", id).Delete(&model.Message{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&model.ChatSession{}).Error
	})
}
