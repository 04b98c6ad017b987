package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// AttachmentHandle 是暂存在 Redis 里的附件句柄。
// 附件对象本身存放在对象存储中，句柄到期后由清理逻辑回收。
type AttachmentHandle struct {
	ID          string `json:"id"`
	UserID      uint   `json:"userId"`
	ObjectPath  string `json:"objectPath"`
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	CreatedAt   int64  `json:"createdAt"`
}

// AttachmentRepository 接口管理附件句柄的暂存。
type AttachmentRepository interface {
	Save(ctx context.Context, handle *AttachmentHandle, ttl time.Duration) error
	Find(ctx context.Context, userID uint, handleID string) (*AttachmentHandle, error)
	Delete(ctx context.Context, userID uint, handleID string) error
	ListByUser(ctx context.Context, userID uint) ([]AttachmentHandle, error)
}

// attachmentRepository 是 AttachmentRepository 接口的 Redis 实现。
type attachmentRepository struct {
	redisClient *redis.Client
}

// NewAttachmentRepository 创建一个新的 AttachmentRepository 实例。
func NewAttachmentRepository(redisClient *redis.Client) AttachmentRepository {
	return &attachmentRepository{redisClient: redisClient}
}

func (r *attachmentRepository) key(userID uint, handleID string) string {
	return fmt.Sprintf("attachment:%d:%s", userID, handleID)
}

// Save 写入句柄并设置过期时间。
func (r *attachmentRepository) Save(ctx context.Context, handle *AttachmentHandle, ttl time.Duration) error {
	data, err := json.Marshal(handle)
	if err != nil {
		return err
	}
	return r.redisClient.Set(ctx, r.key(handle.UserID, handle.ID), data, ttl).Err()
}

// Find 查找句柄，不存在时返回 (nil, nil)。
func (r *attachmentRepository) Find(ctx context.Context, userID uint, handleID string) (*AttachmentHandle, error) {
	data, err := r.redisClient.Get(ctx, r.key(userID, handleID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var handle AttachmentHandle
	if err := json.Unmarshal(data, &handle); err != nil {
		return nil, err
	}
	return &handle, nil
}

// Delete 删除句柄。句柄不存在也不算错误。
func (r *attachmentRepository) Delete(ctx context.Context, userID uint, handleID string) error {
	return r.redisClient.Del(ctx, r.key(userID, handleID)).Err()
}

// ListByUser 列出用户当前的全部句柄。
func (r *attachmentRepository) ListByUser(ctx context.Context, userID uint) ([]AttachmentHandle, error) {
	var handles []AttachmentHandle
	var cursor uint64
	pattern := fmt.Sprintf("attachment:%d:*", userID)
	for {
		keys, next, err := r.redisClient.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return nil, err
		}
		for _, key := range keys {
			data, err := r.redisClient.Get(ctx, key).Bytes()
			if errors.Is(err, redis.Nil) {
				continue
			}
			if err != nil {
				return nil, err
			}
			var handle AttachmentHandle
			if err := json.Unmarshal(data, &handle); err != nil {
				continue
			}
			handles = append(handles, handle)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return handles, nil
}
