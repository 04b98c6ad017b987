package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Xenonn21/voitzu/internal/model"
	"github.com/Xenonn21/voitzu/pkg/events"
)

type sessionFixture struct {
	sessions *fakeSessionRepo
	cache    *fakeSessionCache
	indexer  *fakeIndexer
	producer *fakeProducer
	svc      SessionService
}

func newSessionFixture() *sessionFixture {
	f := &sessionFixture{
		sessions: newFakeSessionRepo(),
		cache:    newFakeSessionCache(),
		indexer:  &fakeIndexer{},
		producer: &fakeProducer{},
	}
	f.svc = NewSessionService(f.sessions, f.cache, f.indexer, f.producer)
	return f
}

func (f *sessionFixture) seed(id string, userID uint) *model.ChatSession {
	s := &model.ChatSession{ID: id, UserID: userID, Title: "seed"}
	_ = f.sessions.Create(s)
	return s
}

func TestTogglePinnedDoubleToggleRestoresState(t *testing.T) {
	f := newSessionFixture()
	f.seed("s1", 1)

	once, err := f.svc.TogglePinned(context.Background(), 1, "s1")
	require.NoError(t, err)
	assert.True(t, once.Pinned)

	twice, err := f.svc.TogglePinned(context.Background(), 1, "s1")
	require.NoError(t, err)
	assert.False(t, twice.Pinned)

	stored, err := f.sessions.FindByID("s1")
	require.NoError(t, err)
	assert.False(t, stored.Pinned)
}

func TestToggleArchivedDoubleToggleRestoresState(t *testing.T) {
	f := newSessionFixture()
	f.seed("s1", 1)

	once, err := f.svc.ToggleArchived(context.Background(), 1, "s1")
	require.NoError(t, err)
	assert.True(t, once.Archived)

	twice, err := f.svc.ToggleArchived(context.Background(), 1, "s1")
	require.NoError(t, err)
	assert.False(t, twice.Archived)
}

func TestRenameSessionTruncatesLongTitle(t *testing.T) {
	f := newSessionFixture()
	f.seed("s1", 1)

	long := strings.Repeat("судьба", 25) // 150 个字符
	session, err := f.svc.RenameSession(context.Background(), 1, "s1", long)
	require.NoError(t, err)
	assert.Equal(t, model.TitleMaxLen, len([]rune(session.Title)))
	assert.Equal(t, string([]rune(long)[:model.TitleMaxLen]), session.Title)
}

func TestRenameSessionRejectsEmptyTitle(t *testing.T) {
	f := newSessionFixture()
	f.seed("s1", 1)

	_, err := f.svc.RenameSession(context.Background(), 1, "s1", "")
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestListSessionsFiltersArchived(t *testing.T) {
	f := newSessionFixture()
	f.seed("active", 1)
	archived := f.seed("archived", 1)
	archived.Archived = true
	_ = f.sessions.UpdateArchived("archived", true)
	f.seed("other", 2)

	visible, err := f.svc.ListSessions(1, false)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, "active", visible[0].ID)

	all, err := f.svc.ListSessions(1, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestDeleteSessionClearsCacheAndIndex(t *testing.T) {
	f := newSessionFixture()
	f.seed("s1", 1)
	require.NoError(t, f.cache.SetLastSessionID(context.Background(), 1, "s1"))

	require.NoError(t, f.svc.DeleteSession(context.Background(), 1, "s1"))

	_, err := f.sessions.FindByID("s1")
	assert.Error(t, err)

	cached, _ := f.cache.GetLastSessionID(context.Background(), 1)
	assert.Empty(t, cached)
	assert.Equal(t, []string{"s1"}, f.indexer.deleted)

	require.NotEmpty(t, f.producer.published)
	assert.Equal(t, events.SessionDeleted, f.producer.published[len(f.producer.published)-1].Type)
}

func TestDeleteSessionKeepsForeignCache(t *testing.T) {
	f := newSessionFixture()
	f.seed("s1", 1)
	f.seed("s2", 1)
	require.NoError(t, f.cache.SetLastSessionID(context.Background(), 1, "s2"))

	require.NoError(t, f.svc.DeleteSession(context.Background(), 1, "s1"))

	cached, _ := f.cache.GetLastSessionID(context.Background(), 1)
	assert.Equal(t, "s2", cached)
}

func TestSessionOperationsEnforceOwnership(t *testing.T) {
	f := newSessionFixture()
	f.seed("s1", 2)

	_, err := f.svc.RenameSession(context.Background(), 1, "s1", "x")
	assert.ErrorIs(t, err, ErrNotSessionOwner)

	_, err = f.svc.TogglePinned(context.Background(), 1, "s1")
	assert.ErrorIs(t, err, ErrNotSessionOwner)

	err = f.svc.DeleteSession(context.Background(), 1, "s1")
	assert.ErrorIs(t, err, ErrNotSessionOwner)

	_, err = f.svc.RenameSession(context.Background(), 1, "missing", "x")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
