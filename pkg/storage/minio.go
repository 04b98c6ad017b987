// Package storage 提供了与对象存储服务（如 MinIO）交互的功能。
package storage

import (
	"context"
	"io"
	"time"

	"github.com/Xenonn21/voitzu/internal/config"
	"github.com/Xenonn21/voitzu/pkg/log"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectInfo 描述了一个存储对象的元信息。
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// ObjectStore 定义了业务层需要的对象存储操作。
// 服务层只依赖该接口，便于在测试中替换为内存实现。
type ObjectStore interface {
	Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error
	Download(ctx context.Context, objectName string) (io.ReadCloser, error)
	PresignedURL(ctx context.Context, objectName string, expiry time.Duration) (string, error)
	Remove(ctx context.Context, objectName string) error
	RemoveMany(ctx context.Context, objectNames []string) error
	ListByPrefix(ctx context.Context, prefix string) ([]ObjectInfo, error)
}

// Client 是 ObjectStore 的 MinIO 实现。
type Client struct {
	mc     *minio.Client
	bucket string
}

// NewClient 初始化 MinIO 客户端并确保指定的存储桶存在。
func NewClient(cfg config.MinIOConfig) *Client {
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		log.Fatal("初始化 MinIO 客户端失败", err)
	}

	log.Info("MinIO 客户端初始化成功")

	// 检查存储桶 (Bucket) 是否存在，如果不存在则创建
	ctx := context.Background()
	exists, err := mc.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		log.Fatal("检查 MinIO 存储桶失败", err)
	}

	if !exists {
		log.Infof("存储桶 '%s' 不存在，正在创建...", cfg.BucketName)
		if err := mc.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{}); err != nil {
			log.Fatal("创建 MinIO 存储桶失败", err)
		}
		log.Infof("存储桶 '%s' 创建成功", cfg.BucketName)
	} else {
		log.Infof("存储桶 '%s' 已存在", cfg.BucketName)
	}

	return &Client{mc: mc, bucket: cfg.BucketName}
}

// Upload 上传一个对象，已存在时覆盖。
func (c *Client) Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error {
	_, err := c.mc.PutObject(ctx, c.bucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

// Download 获取一个对象的读取流，调用方负责关闭。
func (c *Client) Download(ctx context.Context, objectName string) (io.ReadCloser, error) {
	obj, err := c.mc.GetObject(ctx, c.bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	return obj, nil
}

// PresignedURL 为给定对象生成一个限时签名链接。
func (c *Client) PresignedURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	presignedURL, err := c.mc.PresignedGetObject(ctx, c.bucket, objectName, expiry, nil)
	if err != nil {
		log.Errorf("Error generating presigned URL: %s", err)
		return "", err
	}
	return presignedURL.String(), nil
}

// Remove 删除单个对象。对象不存在不视为错误。
func (c *Client) Remove(ctx context.Context, objectName string) error {
	return c.mc.RemoveObject(ctx, c.bucket, objectName, minio.RemoveObjectOptions{})
}

// RemoveMany 批量删除对象，逐条收集删除结果。
func (c *Client) RemoveMany(ctx context.Context, objectNames []string) error {
	objectsCh := make(chan minio.ObjectInfo)
	go func() {
		defer close(objectsCh)
		for _, name := range objectNames {
			objectsCh <- minio.ObjectInfo{Key: name}
		}
	}()

	var lastErr error
	for res := range c.mc.RemoveObjects(ctx, c.bucket, objectsCh, minio.RemoveObjectsOptions{}) {
		if res.Err != nil {
			log.Warnf("删除对象失败: %s, err: %v", res.ObjectName, res.Err)
			lastErr = res.Err
		}
	}
	return lastErr
}

// ListByPrefix 列出指定前缀下的所有对象。
func (c *Client) ListByPrefix(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	var result []ObjectInfo
	opts := minio.ListObjectsOptions{Prefix: prefix, Recursive: true}
	for obj := range c.mc.ListObjects(ctx, c.bucket, opts) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		result = append(result, ObjectInfo{
			Key:          obj.Key,
			Size:         obj.Size,
			LastModified: obj.LastModified,
		})
	}
	return result, nil
}
