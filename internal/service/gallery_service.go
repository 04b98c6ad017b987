package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Xenonn21/voitzu/internal/model"
	"github.com/Xenonn21/voitzu/pkg/log"
	"github.com/Xenonn21/voitzu/pkg/storage"
)

// galleryURLExpiry 是图片浏览链接的有效期。
const galleryURLExpiry = time.Hour

// GalleryImage 是图片库里的一项。
type GalleryImage struct {
	Key          string          `json:"key"`
	URL          string          `json:"url"`
	Size         int64           `json:"size"`
	LastModified model.LocalTime `json:"lastModified"`
}

// GalleryService 接口定义了用户图片库的浏览操作。
type GalleryService interface {
	ListImages(ctx context.Context, userID uint) ([]GalleryImage, error)
}

// galleryService 是 GalleryService 接口的实现。
type galleryService struct {
	store storage.ObjectStore
}

// NewGalleryService 创建一个新的 GalleryService 实例。
func NewGalleryService(store storage.ObjectStore) GalleryService {
	return &galleryService{store: store}
}

// ListImages 列出用户目录下的图片对象并换取限时签名链接，按时间倒序返回。
func (s *galleryService) ListImages(ctx context.Context, userID uint) ([]GalleryImage, error) {
	prefix := fmt.Sprintf("users/%d/", userID)
	objects, err := s.store.ListByPrefix(ctx, prefix)
	if err != nil {
		return nil, err
	}

	images := make([]GalleryImage, 0, len(objects))
	for _, obj := range objects {
		if !isImageKey(obj.Key) {
			continue
		}
		url, err := s.store.PresignedURL(ctx, obj.Key, galleryURLExpiry)
		if err != nil {
			log.Warnf("[GalleryService] 生成图片签名链接失败, key: %s, err: %v", obj.Key, err)
			continue
		}
		images = append(images, GalleryImage{
			Key:          obj.Key,
			URL:          url,
			Size:         obj.Size,
			LastModified: model.LocalTime(obj.LastModified),
		})
	}

	// 新的在前。
	for i, j := 0, len(images)-1; i < j; i, j = i+1, j-1 {
		images[i], images[j] = images[j], images[i]
	}
	return images, nil
}

func isImageKey(key string) bool {
	lower := strings.ToLower(key)
	for _, ext := range []string{".jpg", ".jpeg", ".png", ".gif", ".webp"} {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
