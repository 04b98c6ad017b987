package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Xenonn21/voitzu/internal/repository"
	"github.com/Xenonn21/voitzu/pkg/log"
	"github.com/Xenonn21/voitzu/pkg/storage"
)

// ErrAttachmentNotFound 表示句柄不存在（可能已过期或被撤销）。
var ErrAttachmentNotFound = errors.New("attachment not found")

// ErrNotTextAttachment 表示内容替换只支持文本类附件。
var ErrNotTextAttachment = errors.New("attachment is not a text file")

// StagedAttachment 是暂存成功后返回给前端的视图。
type StagedAttachment struct {
	ID          string `json:"id"`
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	PreviewURL  string `json:"previewUrl,omitempty"` // 仅图片有预览链接
}

// AttachmentService 接口定义了附件暂存的业务操作。
// 附件只在输入阶段存在，不会挂到消息上；句柄到期自动失效。
type AttachmentService interface {
	Stage(ctx context.Context, userID uint, filename, contentType string, data []byte) (*StagedAttachment, error)
	List(ctx context.Context, userID uint) ([]StagedAttachment, error)
	ReadText(ctx context.Context, userID uint, handleID string) (string, error)
	ReplaceContent(ctx context.Context, userID uint, handleID string, content string) error
	Revoke(ctx context.Context, userID uint, handleID string) error
	RevokeAll(ctx context.Context, userID uint) error
}

// attachmentService 是 AttachmentService 接口的实现。
type attachmentService struct {
	attachmentRepo repository.AttachmentRepository
	store          storage.ObjectStore
	ttl            time.Duration
}

// NewAttachmentService 创建一个新的 AttachmentService 实例。
func NewAttachmentService(attachmentRepo repository.AttachmentRepository, store storage.ObjectStore, ttl time.Duration) AttachmentService {
	return &attachmentService{
		attachmentRepo: attachmentRepo,
		store:          store,
		ttl:            ttl,
	}
}

// Stage 上传附件内容并登记句柄。图片附带一个与句柄同寿命的预览签名链接。
func (s *attachmentService) Stage(ctx context.Context, userID uint, filename, contentType string, data []byte) (*StagedAttachment, error) {
	handleID := uuid.NewString()
	objectPath := fmt.Sprintf("users/%d/attachments/%s_%s", userID, handleID, filename)

	if err := s.store.Upload(ctx, objectPath, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return nil, err
	}

	handle := &repository.AttachmentHandle{
		ID:          handleID,
		UserID:      userID,
		ObjectPath:  objectPath,
		Filename:    filename,
		ContentType: contentType,
		Size:        int64(len(data)),
		CreatedAt:   time.Now().UnixMilli(),
	}
	if err := s.attachmentRepo.Save(ctx, handle, s.ttl); err != nil {
		// 句柄登记失败时回收对象，避免悬空文件。
		if rmErr := s.store.Remove(ctx, objectPath); rmErr != nil {
			log.Warnf("[AttachmentService] 回收对象失败, path: %s, err: %v", objectPath, rmErr)
		}
		return nil, err
	}

	return s.toView(ctx, handle), nil
}

// List 列出用户当前暂存的全部附件。
func (s *attachmentService) List(ctx context.Context, userID uint) ([]StagedAttachment, error) {
	handles, err := s.attachmentRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	views := make([]StagedAttachment, 0, len(handles))
	for i := range handles {
		views = append(views, *s.toView(ctx, &handles[i]))
	}
	return views, nil
}

// ReadText 读取文本附件的内容，供查看器展示。
func (s *attachmentService) ReadText(ctx context.Context, userID uint, handleID string) (string, error) {
	handle, err := s.attachmentRepo.Find(ctx, userID, handleID)
	if err != nil {
		return "", err
	}
	if handle == nil {
		return "", ErrAttachmentNotFound
	}
	if !isTextAttachment(handle.ContentType) {
		return "", ErrNotTextAttachment
	}

	reader, err := s.store.Download(ctx, handle.ObjectPath)
	if err != nil {
		return "", err
	}
	defer reader.Close()

	content, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	return string(content), nil
}

// ReplaceContent 原地覆盖文本附件的内容，句柄保持不变。
func (s *attachmentService) ReplaceContent(ctx context.Context, userID uint, handleID string, content string) error {
	handle, err := s.attachmentRepo.Find(ctx, userID, handleID)
	if err != nil {
		return err
	}
	if handle == nil {
		return ErrAttachmentNotFound
	}
	if !isTextAttachment(handle.ContentType) {
		return ErrNotTextAttachment
	}

	data := []byte(content)
	if err := s.store.Upload(ctx, handle.ObjectPath, bytes.NewReader(data), int64(len(data)), handle.ContentType); err != nil {
		return err
	}

	handle.Size = int64(len(data))
	return s.attachmentRepo.Save(ctx, handle, s.ttl)
}

// Revoke 撤销一个句柄并删除对应对象。
// 幂等：句柄已不存在时直接返回成功。
func (s *attachmentService) Revoke(ctx context.Context, userID uint, handleID string) error {
	handle, err := s.attachmentRepo.Find(ctx, userID, handleID)
	if err != nil {
		return err
	}
	if handle == nil {
		return nil
	}

	if err := s.store.Remove(ctx, handle.ObjectPath); err != nil {
		log.Warnf("[AttachmentService] 删除附件对象失败, path: %s, err: %v", handle.ObjectPath, err)
	}
	return s.attachmentRepo.Delete(ctx, userID, handleID)
}

// RevokeAll 撤销用户的全部句柄，输入区销毁时调用。
func (s *attachmentService) RevokeAll(ctx context.Context, userID uint) error {
	handles, err := s.attachmentRepo.ListByUser(ctx, userID)
	if err != nil {
		return err
	}
	if len(handles) == 0 {
		return nil
	}

	names := make([]string, 0, len(handles))
	for _, h := range handles {
		names = append(names, h.ObjectPath)
	}
	if err := s.store.RemoveMany(ctx, names); err != nil {
		log.Warnf("[AttachmentService] 批量删除附件对象失败, userID: %d, err: %v", userID, err)
	}

	for _, h := range handles {
		if err := s.attachmentRepo.Delete(ctx, userID, h.ID); err != nil {
			return err
		}
	}
	return nil
}

func (s *attachmentService) toView(ctx context.Context, handle *repository.AttachmentHandle) *StagedAttachment {
	view := &StagedAttachment{
		ID:          handle.ID,
		Filename:    handle.Filename,
		ContentType: handle.ContentType,
		Size:        handle.Size,
	}
	if strings.HasPrefix(handle.ContentType, "image/") {
		url, err := s.store.PresignedURL(ctx, handle.ObjectPath, s.ttl)
		if err != nil {
			log.Warnf("[AttachmentService] 生成预览链接失败, path: %s, err: %v", handle.ObjectPath, err)
		} else {
			view.PreviewURL = url
		}
	}
	return view
}

func isTextAttachment(contentType string) bool {
	return strings.HasPrefix(contentType, "text/") ||
		contentType == "application/json" ||
		contentType == "application/xml"
}
