// Package repository 定义了与数据库进行数据交换的接口和实现。
package repository

import (
	"gorm.io/gorm"

	"github.com/Xenonn21/voitzu/internal/model"
)

// UserRepository 接口定义了用户相关的数据持久化操作。
type UserRepository interface {
	Create(user *model.User) error
	FindByID(id uint) (*model.User, error)
	FindByEmail(email string) (*model.User, error)
	Update(user *model.User) error
	UpdateAvatarPath(userID uint, path string) error
	ListAll(offset, limit int) ([]model.User, int64, error)
}

// userRepository 是 UserRepository 接口的 GORM 实现。
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建一个新的 UserRepository 实例。
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create 在数据库中创建一个新用户。
func (r *userRepository) Create(user *model.User) error {
	return r.db.Create(user).Error
}

// FindByID 根据 ID 查找用户。
func (r *userRepository) FindByID(id uint) (*model.User, error) {
	var user model.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail 根据邮箱查找用户。
func (r *userRepository) FindByEmail(email string) (*model.User, error) {
	var user model.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Update 保存用户的全部字段。
func (r *userRepository) Update(user *model.User) error {
	return r.db.Save(user).Error
}

// UpdateAvatarPath 只更新用户的头像存储路径。
func (r *userRepository) UpdateAvatarPath(userID uint, path string) error {
	return r.db.Model(&model.User{}).Where("id = ?", userID).Update("avatar_path", path).Error
}

// ListAll 分页列出全部用户，供管理端使用。
func (r *userRepository) ListAll(offset, limit int) ([]model.User, int64, error) {
	var users []model.User
	var total int64
	if err := r.db.Model(&model.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := r.db.Order("id asc").Offset(offset).Limit(limit).Find(&users).Error
	return users, total, err
}
