package service

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Xenonn21/voitzu/internal/repository"
	"github.com/Xenonn21/voitzu/pkg/storage"
)

// fakeObjectStore 用一个 map 模拟对象存储。
type fakeObjectStore struct {
	objects map[string][]byte
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{objects: make(map[string][]byte)}
}

func (s *fakeObjectStore) Upload(_ context.Context, objectName string, reader io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	s.objects[objectName] = data
	return nil
}

func (s *fakeObjectStore) Download(_ context.Context, objectName string) (io.ReadCloser, error) {
	data, ok := s.objects[objectName]
	if !ok {
		return nil, io.EOF
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *fakeObjectStore) PresignedURL(_ context.Context, objectName string, _ time.Duration) (string, error) {
	return "https://store.local/" + objectName, nil
}

func (s *fakeObjectStore) Remove(_ context.Context, objectName string) error {
	delete(s.objects, objectName)
	return nil
}

func (s *fakeObjectStore) RemoveMany(_ context.Context, objectNames []string) error {
	for _, name := range objectNames {
		delete(s.objects, name)
	}
	return nil
}

func (s *fakeObjectStore) ListByPrefix(_ context.Context, prefix string) ([]storage.ObjectInfo, error) {
	var infos []storage.ObjectInfo
	for name, data := range s.objects {
		if strings.HasPrefix(name, prefix) {
			infos = append(infos, storage.ObjectInfo{Key: name, Size: int64(len(data))})
		}
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos, nil
}

// fakeAttachmentRepo 用一个 map 模拟 redis 句柄仓库（忽略 TTL）。
type fakeAttachmentRepo struct {
	handles map[string]repository.AttachmentHandle
}

func newFakeAttachmentRepo() *fakeAttachmentRepo {
	return &fakeAttachmentRepo{handles: make(map[string]repository.AttachmentHandle)}
}

func (r *fakeAttachmentRepo) Save(_ context.Context, handle *repository.AttachmentHandle, _ time.Duration) error {
	r.handles[handle.ID] = *handle
	return nil
}

func (r *fakeAttachmentRepo) Find(_ context.Context, userID uint, handleID string) (*repository.AttachmentHandle, error) {
	h, ok := r.handles[handleID]
	if !ok || h.UserID != userID {
		return nil, nil
	}
	cp := h
	return &cp, nil
}

func (r *fakeAttachmentRepo) Delete(_ context.Context, _ uint, handleID string) error {
	delete(r.handles, handleID)
	return nil
}

func (r *fakeAttachmentRepo) ListByUser(_ context.Context, userID uint) ([]repository.AttachmentHandle, error) {
	var out []repository.AttachmentHandle
	for _, h := range r.handles {
		if h.UserID == userID {
			out = append(out, h)
		}
	}
	return out, nil
}

type attachmentFixture struct {
	repo  *fakeAttachmentRepo
	store *fakeObjectStore
	svc   AttachmentService
}

func newAttachmentFixture() *attachmentFixture {
	f := &attachmentFixture{
		repo:  newFakeAttachmentRepo(),
		store: newFakeObjectStore(),
	}
	f.svc = NewAttachmentService(f.repo, f.store, time.Hour)
	return f
}

func TestStageAndReadTextAttachment(t *testing.T) {
	f := newAttachmentFixture()

	staged, err := f.svc.Stage(context.Background(), 1, "notes.txt", "text/plain", []byte("isi catatan"))
	require.NoError(t, err)
	assert.NotEmpty(t, staged.ID)
	assert.Equal(t, int64(len("isi catatan")), staged.Size)
	assert.Empty(t, staged.PreviewURL)

	content, err := f.svc.ReadText(context.Background(), 1, staged.ID)
	require.NoError(t, err)
	assert.Equal(t, "isi catatan", content)
}

func TestStageImageGetsPreviewURL(t *testing.T) {
	f := newAttachmentFixture()

	staged, err := f.svc.Stage(context.Background(), 1, "foto.png", "image/png", []byte{0x89, 0x50})
	require.NoError(t, err)
	assert.NotEmpty(t, staged.PreviewURL)

	_, err = f.svc.ReadText(context.Background(), 1, staged.ID)
	assert.ErrorIs(t, err, ErrNotTextAttachment)
}

func TestReplaceContentKeepsSameObjectPath(t *testing.T) {
	f := newAttachmentFixture()

	staged, err := f.svc.Stage(context.Background(), 1, "notes.txt", "text/plain", []byte("lama"))
	require.NoError(t, err)

	pathBefore := f.repo.handles[staged.ID].ObjectPath
	require.NoError(t, f.svc.ReplaceContent(context.Background(), 1, staged.ID, "baru"))

	handle := f.repo.handles[staged.ID]
	assert.Equal(t, pathBefore, handle.ObjectPath)
	assert.Equal(t, int64(len("baru")), handle.Size)

	content, err := f.svc.ReadText(context.Background(), 1, staged.ID)
	require.NoError(t, err)
	assert.Equal(t, "baru", content)

	// 存储里仍是单个对象
	assert.Len(t, f.store.objects, 1)
}

func TestRevokeIsIdempotent(t *testing.T) {
	f := newAttachmentFixture()

	staged, err := f.svc.Stage(context.Background(), 1, "notes.txt", "text/plain", []byte("x"))
	require.NoError(t, err)

	require.NoError(t, f.svc.Revoke(context.Background(), 1, staged.ID))
	assert.Empty(t, f.store.objects)

	// 再次撤销同一句柄也成功
	assert.NoError(t, f.svc.Revoke(context.Background(), 1, staged.ID))
	assert.NoError(t, f.svc.Revoke(context.Background(), 1, "never-existed"))
}

func TestRevokeAllRemovesEverything(t *testing.T) {
	f := newAttachmentFixture()

	_, err := f.svc.Stage(context.Background(), 1, "a.txt", "text/plain", []byte("a"))
	require.NoError(t, err)
	_, err = f.svc.Stage(context.Background(), 1, "b.txt", "text/plain", []byte("b"))
	require.NoError(t, err)
	other, err := f.svc.Stage(context.Background(), 2, "c.txt", "text/plain", []byte("c"))
	require.NoError(t, err)

	require.NoError(t, f.svc.RevokeAll(context.Background(), 1))

	mine, err := f.svc.List(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, mine)

	// 他人的附件不受影响
	theirs, err := f.svc.List(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, theirs, 1)
	assert.Equal(t, other.ID, theirs[0].ID)
}

func TestAttachmentOwnershipIsolated(t *testing.T) {
	f := newAttachmentFixture()

	staged, err := f.svc.Stage(context.Background(), 1, "notes.txt", "text/plain", []byte("rahasia"))
	require.NoError(t, err)

	_, err = f.svc.ReadText(context.Background(), 2, staged.ID)
	assert.ErrorIs(t, err, ErrAttachmentNotFound)
}
