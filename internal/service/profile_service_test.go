package service

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Xenonn21/voitzu/internal/config"
	"github.com/Xenonn21/voitzu/internal/model"
)

type fakeUserRepo struct {
	users  map[uint]*model.User
	nextID uint
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uint]*model.User), nextID: 1}
}

func (r *fakeUserRepo) Create(user *model.User) error {
	user.ID = r.nextID
	r.nextID++
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) FindByID(id uint) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) FindByEmail(email string) (*model.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) Update(user *model.User) error {
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) UpdateAvatarPath(userID uint, path string) error {
	if u, ok := r.users[userID]; ok {
		u.AvatarPath = path
	}
	return nil
}

func (r *fakeUserRepo) ListAll(offset, limit int) ([]model.User, int64, error) {
	var out []model.User
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out, int64(len(out)), nil
}

type fakeProfileLogRepo struct {
	entries []model.UserProfileLog
}

func (r *fakeProfileLogRepo) Create(entry *model.UserProfileLog) error {
	entry.ID = uint(len(r.entries) + 1)
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeProfileLogRepo) FindRecentByUserID(userID uint, limit int) ([]model.UserProfileLog, error) {
	var out []model.UserProfileLog
	for i := len(r.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if r.entries[i].UserID == userID {
			out = append(out, r.entries[i])
		}
	}
	return out, nil
}

func (r *fakeProfileLogRepo) DeleteByUserID(userID uint) error {
	var kept []model.UserProfileLog
	for _, e := range r.entries {
		if e.UserID != userID {
			kept = append(kept, e)
		}
	}
	r.entries = kept
	return nil
}

type profileFixture struct {
	users *fakeUserRepo
	logs  *fakeProfileLogRepo
	store *fakeObjectStore
	svc   ProfileService
}

func newProfileFixture(t *testing.T) *profileFixture {
	t.Helper()
	f := &profileFixture{
		users: newFakeUserRepo(),
		logs:  &fakeProfileLogRepo{},
		store: newFakeObjectStore(),
	}
	f.svc = NewProfileService(f.users, f.logs, f.store, config.AvatarConfig{MaxDimension: 1024, MaxSizeKB: 350})
	require.NoError(t, f.users.Create(&model.User{Email: "budi@example.com", Name: "Budi", Role: model.RoleUser, Provider: model.ProviderLocal}))
	return f
}

func avatarPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 4), G: uint8(y * 4), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestGetProfileWithoutAvatar(t *testing.T) {
	f := newProfileFixture(t)

	dto, err := f.svc.GetProfile(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, dto.AvatarURL)
	assert.Equal(t, pickAvatarColor("budi@example.com"), dto.AvatarColor)
	assert.Equal(t, "B", dto.AvatarInitial)
}

func TestUpdateProfileUploadsAvatarAndLogsChange(t *testing.T) {
	f := newProfileFixture(t)

	dto, err := f.svc.UpdateProfile(context.Background(), 1, UpdateProfileInput{
		Name:   "Budi Santoso",
		Avatar: avatarPNG(t),
	})
	require.NoError(t, err)
	assert.Equal(t, "Budi Santoso", dto.Name)
	assert.NotEmpty(t, dto.AvatarURL)

	user, err := f.users.FindByID(1)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(user.AvatarPath, "users/1/avatar/VoiTzuAI_"))
	assert.True(t, strings.HasSuffix(user.AvatarPath, ".jpg"))
	assert.Contains(t, f.store.objects, user.AvatarPath)

	require.Len(t, f.logs.entries, 1)
	var changes map[string]map[string]string
	require.NoError(t, json.Unmarshal([]byte(f.logs.entries[0].Changes), &changes))
	assert.Equal(t, "Budi", changes["name"]["old"])
	assert.Equal(t, "Budi Santoso", changes["name"]["new"])
	assert.Equal(t, user.AvatarPath, changes["avatar"]["new"])
}

func TestUpdateProfileReplacesOldAvatarObject(t *testing.T) {
	f := newProfileFixture(t)

	_, err := f.svc.UpdateProfile(context.Background(), 1, UpdateProfileInput{Avatar: avatarPNG(t)})
	require.NoError(t, err)
	firstUser, _ := f.users.FindByID(1)
	firstPath := firstUser.AvatarPath

	_, err = f.svc.UpdateProfile(context.Background(), 1, UpdateProfileInput{Avatar: avatarPNG(t)})
	require.NoError(t, err)
	secondUser, _ := f.users.FindByID(1)

	assert.NotEqual(t, firstPath, secondUser.AvatarPath)
	assert.NotContains(t, f.store.objects, firstPath)
	assert.Contains(t, f.store.objects, secondUser.AvatarPath)
	assert.Len(t, f.store.objects, 1)
}

func TestUpdateProfileRemoveAvatar(t *testing.T) {
	f := newProfileFixture(t)

	_, err := f.svc.UpdateProfile(context.Background(), 1, UpdateProfileInput{Avatar: avatarPNG(t)})
	require.NoError(t, err)

	dto, err := f.svc.UpdateProfile(context.Background(), 1, UpdateProfileInput{RemoveAvatar: true})
	require.NoError(t, err)
	assert.Empty(t, dto.AvatarURL)
	assert.Empty(t, f.store.objects)

	user, _ := f.users.FindByID(1)
	assert.Empty(t, user.AvatarPath)
}

func TestUpdateProfileUsernameAndColorOverride(t *testing.T) {
	f := newProfileFixture(t)

	dto, err := f.svc.UpdateProfile(context.Background(), 1, UpdateProfileInput{Username: "budi21", Color: "#3B82F6"})
	require.NoError(t, err)
	assert.Equal(t, "budi21", dto.Username)
	assert.Equal(t, "#3B82F6", dto.AvatarColor)

	// 重置后回到按邮箱计算的默认底色
	reset, err := f.svc.ResetProfile(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, reset.Username)
	assert.Equal(t, pickAvatarColor("budi@example.com"), reset.AvatarColor)
}

func TestUpdateProfileNoChangesNoLog(t *testing.T) {
	f := newProfileFixture(t)

	_, err := f.svc.UpdateProfile(context.Background(), 1, UpdateProfileInput{Name: "Budi"})
	require.NoError(t, err)
	assert.Empty(t, f.logs.entries)
}

func TestResetProfileClearsAvatarDirAndName(t *testing.T) {
	f := newProfileFixture(t)

	_, err := f.svc.UpdateProfile(context.Background(), 1, UpdateProfileInput{Name: "Budi Santoso", Avatar: avatarPNG(t)})
	require.NoError(t, err)

	dto, err := f.svc.ResetProfile(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "budi@example.com", dto.Name)
	assert.Empty(t, dto.AvatarURL)
	assert.Empty(t, f.store.objects)
}

func TestProfileLogsCappedAtLimit(t *testing.T) {
	f := newProfileFixture(t)

	for i := 0; i < profileLogLimit+5; i++ {
		name := "Budi " + strings.Repeat("x", i+1)
		_, err := f.svc.UpdateProfile(context.Background(), 1, UpdateProfileInput{Name: name})
		require.NoError(t, err)
	}

	logs, err := f.svc.ListProfileLogs(1)
	require.NoError(t, err)
	assert.Len(t, logs, profileLogLimit)

	require.NoError(t, f.svc.ClearProfileLogs(1))
	logs, err = f.svc.ListProfileLogs(1)
	require.NoError(t, err)
	assert.Empty(t, logs)
}
