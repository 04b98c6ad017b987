// Package model 定义了与数据库表对应的 Go 结构体。
package model

import "time"

// 用户角色。
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// 登录方式。
const (
	ProviderLocal  = "local"
	ProviderGoogle = "google"
)

// User 定义了 users 表的 ORM 模型。
// AvatarPath 存储对象在存储桶内的路径，访问时再换取带签名的临时 URL。
type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"type:varchar(255)" json:"-"`
	Name         string    `gorm:"type:varchar(100);not null" json:"name"`
	Username     string    `gorm:"type:varchar(50)" json:"username"`
	Role         string    `gorm:"type:varchar(20);not null;default:'user'" json:"role"`
	Provider     string    `gorm:"type:varchar(20);not null;default:'local'" json:"provider"`
	AvatarPath   string    `gorm:"type:varchar(512)" json:"-"`
	AvatarColor  string    `gorm:"type:varchar(7)" json:"-"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (User) TableName() string {
	return "users"
}

// ProfileDTO 是返回给前端的用户资料视图。
type ProfileDTO struct {
	ID            uint   `json:"id"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	Username      string `json:"username"`
	Role          string `json:"role"`
	Provider      string `json:"provider"`
	AvatarURL     string `json:"avatarUrl"`     // 带签名的临时访问地址，可能为空
	AvatarColor   string `json:"avatarColor"`   // 无头像时前端使用的底色，可被用户自选覆盖
	AvatarInitial string `json:"avatarInitial"` // 无头像时展示的首字母
}
