package repository

import (
	"gorm.io/gorm"

	"github.com/Xenonn21/voitzu/internal/model"
)

// ProfileLogRepository 接口定义了资料审计日志的数据持久化操作。
type ProfileLogRepository interface {
	Create(entry *model.UserProfileLog) error
	FindRecentByUserID(userID uint, limit int) ([]model.UserProfileLog, error)
	DeleteByUserID(userID uint) error
}

// profileLogRepository 是 ProfileLogRepository 接口的 GORM 实现。
type profileLogRepository struct {
	db *gorm.DB
}

// NewProfileLogRepository 创建一个新的 ProfileLogRepository 实例。
func NewProfileLogRepository(db *gorm.DB) ProfileLogRepository {
	return &profileLogRepository{db: db}
}

// Create 追加一条审计记录。
func (r *profileLogRepository) Create(entry *model.UserProfileLog) error {
	return r.db.Create(entry).Error
}

// FindRecentByUserID 取用户最近的若干条审计记录。
func (r *profileLogRepository) FindRecentByUserID(userID uint, limit int) ([]model.UserProfileLog, error) {
	var entries []model.UserProfileLog
	err := r.db.Where("user_id = ?", userID).Order("id desc").Limit(limit).Find(&entries).Error
	return entries, err
}

// DeleteByUserID 清空用户的审计记录。
func (r *profileLogRepository) DeleteByUserID(userID uint) error {
	return r.db.Where("user_id = ?", userID).Delete(&model.UserProfileLog{}).Error
}
