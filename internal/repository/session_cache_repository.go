package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// SessionCacheRepository 接口管理每个用户缓存的"最近活跃会话 ID"。
type SessionCacheRepository interface {
	GetLastSessionID(ctx context.Context, userID uint) (string, error)
	SetLastSessionID(ctx context.Context, userID uint, sessionID string) error
	ClearLastSessionID(ctx context.Context, userID uint) error
}

// sessionCacheRepository 是 SessionCacheRepository 接口的 Redis 实现。
type sessionCacheRepository struct {
	redisClient *redis.Client
}

// NewSessionCacheRepository 创建一个新的 SessionCacheRepository 实例。
func NewSessionCacheRepository(redisClient *redis.Client) SessionCacheRepository {
	return &sessionCacheRepository{redisClient: redisClient}
}

func (r *sessionCacheRepository) key(userID uint) string {
	return fmt.Sprintf("user:%d:last_session", userID)
}

// GetLastSessionID 读取缓存的会话 ID，未缓存时返回空串。
func (r *sessionCacheRepository) GetLastSessionID(ctx context.Context, userID uint) (string, error) {
	val, err := r.redisClient.Get(ctx, r.key(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

// SetLastSessionID 缓存用户最近活跃的会话 ID。
func (r *sessionCacheRepository) SetLastSessionID(ctx context.Context, userID uint, sessionID string) error {
	return r.redisClient.Set(ctx, r.key(userID), sessionID, 0).Err()
}

// ClearLastSessionID 清除缓存，归属校验失败或会话被删除时调用。
func (r *sessionCacheRepository) ClearLastSessionID(ctx context.Context, userID uint) error {
	return r.redisClient.Del(ctx, r.key(userID)).Err()
}
