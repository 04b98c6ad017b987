package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Xenonn21/voitzu/internal/config"
	"github.com/Xenonn21/voitzu/internal/model"
	"github.com/Xenonn21/voitzu/internal/repository"
	"github.com/Xenonn21/voitzu/pkg/imaging"
	"github.com/Xenonn21/voitzu/pkg/log"
	"github.com/Xenonn21/voitzu/pkg/storage"
)

// 签名链接有效期。头像路径落库，访问时临时换签名。
const avatarURLExpiry = time.Hour

// profileLogLimit 是审计日志查询时返回的最大条数。
const profileLogLimit = 20

// UpdateProfileInput 是一次资料保存请求的全部变更。字符串字段为空表示不修改；
// Avatar 为空且 RemoveAvatar 为 false 时头像保持原状。
type UpdateProfileInput struct {
	Name         string
	Username     string
	Color        string // 自选底色，形如 "#3B82F6"
	Avatar       []byte
	RemoveAvatar bool
}

// ProfileService 接口定义了用户资料相关的业务操作。
type ProfileService interface {
	GetProfile(ctx context.Context, userID uint) (*model.ProfileDTO, error)
	UpdateProfile(ctx context.Context, userID uint, input UpdateProfileInput) (*model.ProfileDTO, error)
	ResetProfile(ctx context.Context, userID uint) (*model.ProfileDTO, error)
	ListProfileLogs(userID uint) ([]model.UserProfileLog, error)
	ClearProfileLogs(userID uint) error
}

// profileService 是 ProfileService 接口的实现。
type profileService struct {
	userRepo       repository.UserRepository
	profileLogRepo repository.ProfileLogRepository
	store          storage.ObjectStore
	avatarCfg      config.AvatarConfig
}

// NewProfileService 创建一个新的 ProfileService 实例。
func NewProfileService(userRepo repository.UserRepository, profileLogRepo repository.ProfileLogRepository, store storage.ObjectStore, avatarCfg config.AvatarConfig) ProfileService {
	return &profileService{
		userRepo:       userRepo,
		profileLogRepo: profileLogRepo,
		store:          store,
		avatarCfg:      avatarCfg,
	}
}

// GetProfile 返回用户资料视图。
// 有头像时换取 1 小时签名链接；否则给出确定性底色和首字母。
func (s *profileService) GetProfile(ctx context.Context, userID uint) (*model.ProfileDTO, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, err
	}
	return s.toDTO(ctx, user), nil
}

// UpdateProfile 保存一次资料编辑，提交时才真正落库和动对象存储。
func (s *profileService) UpdateProfile(ctx context.Context, userID uint, input UpdateProfileInput) (*model.ProfileDTO, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, err
	}

	changes := map[string]interface{}{}

	if input.Name != "" && input.Name != user.Name {
		changes["name"] = map[string]string{"old": user.Name, "new": input.Name}
		user.Name = input.Name
	}
	if input.Username != "" && input.Username != user.Username {
		changes["username"] = map[string]string{"old": user.Username, "new": input.Username}
		user.Username = input.Username
	}
	if input.Color != "" && input.Color != user.AvatarColor {
		changes["color"] = map[string]string{"old": user.AvatarColor, "new": input.Color}
		user.AvatarColor = input.Color
	}

	oldPath := user.AvatarPath

	switch {
	case len(input.Avatar) > 0:
		// 新头像：压缩后上传，成功后再清理旧对象。
		processed, err := imaging.Process(input.Avatar, s.avatarCfg.MaxDimension, s.avatarCfg.MaxSizeKB*1024)
		if err != nil {
			return nil, err
		}
		newPath := fmt.Sprintf("users/%d/avatar/VoiTzuAI_%d.jpg", userID, time.Now().UnixNano())
		if err := s.store.Upload(ctx, newPath, bytes.NewReader(processed.Data), int64(len(processed.Data)), "image/jpeg"); err != nil {
			return nil, fmt.Errorf("failed to upload avatar: %w", err)
		}
		user.AvatarPath = newPath
		changes["avatar"] = map[string]string{"old": oldPath, "new": newPath}

		if oldPath != "" && oldPath != newPath {
			if err := s.store.Remove(ctx, oldPath); err != nil {
				log.Warnf("[ProfileService] 删除旧头像失败(忽略), path: %s, err: %v", oldPath, err)
			}
		}

	case input.RemoveAvatar && oldPath != "":
		// 删除是暂存语义：到保存这一步才真正删对象。
		if err := s.store.Remove(ctx, oldPath); err != nil {
			log.Warnf("[ProfileService] 删除头像对象失败(忽略), path: %s, err: %v", oldPath, err)
		}
		user.AvatarPath = ""
		changes["avatar"] = map[string]string{"old": oldPath, "new": ""}
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}

	if len(changes) > 0 {
		s.appendLog(userID, changes)
	}
	return s.toDTO(ctx, user), nil
}

// ResetProfile 将资料恢复到初始状态：名字回退为邮箱，清空头像目录下的全部对象。
func (s *profileService) ResetProfile(ctx context.Context, userID uint) (*model.ProfileDTO, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, err
	}

	prefix := fmt.Sprintf("users/%d/avatar/", userID)
	objects, err := s.store.ListByPrefix(ctx, prefix)
	if err != nil {
		return nil, err
	}
	if len(objects) > 0 {
		names := make([]string, 0, len(objects))
		for _, obj := range objects {
			names = append(names, obj.Key)
		}
		if err := s.store.RemoveMany(ctx, names); err != nil {
			log.Warnf("[ProfileService] 清空头像目录失败(忽略), prefix: %s, err: %v", prefix, err)
		}
	}

	changes := map[string]interface{}{
		"reset": map[string]string{"oldName": user.Name, "oldAvatar": user.AvatarPath},
	}
	user.Name = user.Email
	user.Username = ""
	user.AvatarPath = ""
	user.AvatarColor = ""
	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}

	s.appendLog(userID, changes)
	return s.toDTO(ctx, user), nil
}

// ListProfileLogs 返回最近的资料变更记录。
func (s *profileService) ListProfileLogs(userID uint) ([]model.UserProfileLog, error) {
	return s.profileLogRepo.FindRecentByUserID(userID, profileLogLimit)
}

// ClearProfileLogs 清空资料变更记录。
func (s *profileService) ClearProfileLogs(userID uint) error {
	return s.profileLogRepo.DeleteByUserID(userID)
}

// appendLog 追加审计记录，失败只记日志不影响主流程。
func (s *profileService) appendLog(userID uint, changes map[string]interface{}) {
	data, err := json.Marshal(changes)
	if err != nil {
		log.Errorf("[ProfileService] 序列化审计内容失败: %v", err)
		return
	}
	entry := &model.UserProfileLog{UserID: userID, Changes: string(data)}
	if err := s.profileLogRepo.Create(entry); err != nil {
		log.Errorf("[ProfileService] 写入审计记录失败, userID: %d, err: %v", userID, err)
	}
}

func (s *profileService) toDTO(ctx context.Context, user *model.User) *model.ProfileDTO {
	dto := &model.ProfileDTO{
		ID:            user.ID,
		Email:         user.Email,
		Name:          user.Name,
		Username:      user.Username,
		Role:          user.Role,
		Provider:      user.Provider,
		AvatarColor:   pickAvatarColor(user.Email),
		AvatarInitial: avatarInitial(user.Name, user.Email),
	}
	// 自选底色优先于按邮箱算出的默认色。
	if user.AvatarColor != "" {
		dto.AvatarColor = user.AvatarColor
	}
	if user.AvatarPath != "" {
		url, err := s.store.PresignedURL(ctx, user.AvatarPath, avatarURLExpiry)
		if err != nil {
			log.Warnf("[ProfileService] 生成头像签名链接失败, path: %s, err: %v", user.AvatarPath, err)
		} else {
			dto.AvatarURL = url
		}
	}
	return dto
}
