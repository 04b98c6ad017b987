package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Xenonn21/voitzu/internal/model"
	"github.com/Xenonn21/voitzu/pkg/es"
	"github.com/Xenonn21/voitzu/pkg/events"
	"github.com/Xenonn21/voitzu/pkg/llm"
)

// ---- 内存版依赖实现 ----

type fakeSessionRepo struct {
	sessions map[string]*model.ChatSession
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]*model.ChatSession)}
}

func (r *fakeSessionRepo) Create(s *model.ChatSession) error {
	s.CreatedAt = time.Now()
	s.UpdatedAt = s.CreatedAt
	cp := *s
	r.sessions[s.ID] = &cp
	return nil
}

func (r *fakeSessionRepo) FindByID(id string) (*model.ChatSession, error) {
	s, ok := r.sessions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSessionRepo) FindByUserID(userID uint, includeArchived bool) ([]model.ChatSession, error) {
	var out []model.ChatSession
	for _, s := range r.sessions {
		if s.UserID != userID {
			continue
		}
		if !includeArchived && s.Archived {
			continue
		}
		out = append(out, *s)
	}
	return out, nil
}

func (r *fakeSessionRepo) UpdateTitle(id, title string) error {
	if s, ok := r.sessions[id]; ok {
		s.Title = title
	}
	return nil
}

func (r *fakeSessionRepo) UpdatePinned(id string, pinned bool) error {
	if s, ok := r.sessions[id]; ok {
		s.Pinned = pinned
	}
	return nil
}

func (r *fakeSessionRepo) UpdateArchived(id string, archived bool) error {
	if s, ok := r.sessions[id]; ok {
		s.Archived = archived
	}
	return nil
}

func (r *fakeSessionRepo) Touch(id string) error {
	if s, ok := r.sessions[id]; ok {
		s.UpdatedAt = time.Now()
	}
	return nil
}

func (r *fakeSessionRepo) DeleteWithMessages(id string) error {
	delete(r.sessions, id)
	return nil
}

type fakeMessageRepo struct {
	messages []model.Message
	nextID   uint
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{nextID: 1}
}

func (r *fakeMessageRepo) Create(m *model.Message) error {
	m.ID = r.nextID
	m.CreatedAt = time.Now()
	r.nextID++
	r.messages = append(r.messages, *m)
	return nil
}

func (r *fakeMessageRepo) FindByID(id uint) (*model.Message, error) {
	for _, m := range r.messages {
		if m.ID == id {
			cp := m
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeMessageRepo) FindBySessionID(sessionID string) ([]model.Message, error) {
	var out []model.Message
	for _, m := range r.messages {
		if m.SessionID == sessionID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeMessageRepo) CountBySessionID(sessionID string) (int64, error) {
	list, _ := r.FindBySessionID(sessionID)
	return int64(len(list)), nil
}

func (r *fakeMessageRepo) FindBefore(sessionID string, beforeMessageID uint) ([]model.Message, error) {
	var out []model.Message
	for _, m := range r.messages {
		if m.SessionID == sessionID && m.ID < beforeMessageID {
			out = append(out, m)
		}
	}
	return out, nil
}

type fakeSessionCache struct {
	values map[uint]string
	clears int
}

func newFakeSessionCache() *fakeSessionCache {
	return &fakeSessionCache{values: make(map[uint]string)}
}

func (c *fakeSessionCache) GetLastSessionID(_ context.Context, userID uint) (string, error) {
	return c.values[userID], nil
}

func (c *fakeSessionCache) SetLastSessionID(_ context.Context, userID uint, sessionID string) error {
	c.values[userID] = sessionID
	return nil
}

func (c *fakeSessionCache) ClearLastSessionID(_ context.Context, userID uint) error {
	delete(c.values, userID)
	c.clears++
	return nil
}

type fakeLLM struct {
	reply   string
	err     error
	calls   int
	history []llm.Message
}

func (f *fakeLLM) Complete(_ context.Context, messages []llm.Message) (string, error) {
	f.calls++
	f.history = messages
	return f.reply, f.err
}

type fakeIndexer struct {
	docs    []es.MessageDoc
	deleted []string
}

func (f *fakeIndexer) IndexMessage(_ context.Context, doc es.MessageDoc) error {
	f.docs = append(f.docs, doc)
	return nil
}

func (f *fakeIndexer) SearchMessages(_ context.Context, _ uint, _ string, _ int) ([]es.Hit, error) {
	return nil, nil
}

func (f *fakeIndexer) DeleteBySession(_ context.Context, sessionID string) error {
	f.deleted = append(f.deleted, sessionID)
	return nil
}

type fakeProducer struct {
	published []events.SessionEvent
}

func (f *fakeProducer) PublishSessionEvent(_ context.Context, event events.SessionEvent) error {
	f.published = append(f.published, event)
	return nil
}

func (f *fakeProducer) Close() error { return nil }

type chatFixture struct {
	sessions *fakeSessionRepo
	messages *fakeMessageRepo
	cache    *fakeSessionCache
	llm      *fakeLLM
	indexer  *fakeIndexer
	producer *fakeProducer
	svc      ChatService
}

func newChatFixture(reply string, llmErr error) *chatFixture {
	f := &chatFixture{
		sessions: newFakeSessionRepo(),
		messages: newFakeMessageRepo(),
		cache:    newFakeSessionCache(),
		llm:      &fakeLLM{reply: reply, err: llmErr},
		indexer:  &fakeIndexer{},
		producer: &fakeProducer{},
	}
	f.svc = NewChatService(f.sessions, f.messages, f.cache, f.llm, f.indexer, f.producer)
	return f
}

// ---- 测试 ----

func TestSendMessageCreatesSessionWithTruncatedTitle(t *testing.T) {
	f := newChatFixture("Halo!", nil)

	content := strings.Repeat("панда", 10) // 50 个字符，超过标题上限
	result, err := f.svc.SendMessage(context.Background(), 1, "", content)
	require.NoError(t, err)

	session, err := f.sessions.FindByID(result.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 30, len([]rune(session.Title)))
	assert.Equal(t, string([]rune(content)[:30]), session.Title)
	assert.Equal(t, uint(1), session.UserID)

	// 用户消息先落库，助手回复随后
	require.Len(t, f.messages.messages, 2)
	assert.Equal(t, model.RoleMsgUser, f.messages.messages[0].Role)
	assert.Equal(t, model.RoleMsgAssistant, f.messages.messages[1].Role)
	assert.Equal(t, "Halo!", result.AssistantMessage.Content)
	assert.True(t, f.messages.messages[0].ID < f.messages.messages[1].ID)
}

func TestSendMessageReusesCachedSession(t *testing.T) {
	f := newChatFixture("ok", nil)

	first, err := f.svc.SendMessage(context.Background(), 1, "", "pertanyaan pertama")
	require.NoError(t, err)

	second, err := f.svc.SendMessage(context.Background(), 1, "", "pertanyaan kedua")
	require.NoError(t, err)
	assert.Equal(t, first.SessionID, second.SessionID)
}

func TestSendMessageForeignCachedSessionCleared(t *testing.T) {
	f := newChatFixture("ok", nil)

	// 缓存指向归属他人的会话
	foreign := &model.ChatSession{ID: "foreign-id", UserID: 2, Title: "x"}
	require.NoError(t, f.sessions.Create(foreign))
	require.NoError(t, f.cache.SetLastSessionID(context.Background(), 1, "foreign-id"))

	content := "halo, ini pesan pembuka yang cukup panjang untuk dipotong"
	result, err := f.svc.SendMessage(context.Background(), 1, "", content)
	require.NoError(t, err)

	assert.NotEqual(t, "foreign-id", result.SessionID)
	assert.Equal(t, 1, f.cache.clears)

	session, err := f.sessions.FindByID(result.SessionID)
	require.NoError(t, err)
	assert.Equal(t, string([]rune(content)[:30]), session.Title)

	// 缓存已指向新会话
	cached, _ := f.cache.GetLastSessionID(context.Background(), 1)
	assert.Equal(t, result.SessionID, cached)
}

func TestSendMessageExplicitForeignSessionRejected(t *testing.T) {
	f := newChatFixture("ok", nil)

	foreign := &model.ChatSession{ID: "foreign-id", UserID: 2, Title: "x"}
	require.NoError(t, f.sessions.Create(foreign))

	_, err := f.svc.SendMessage(context.Background(), 1, "foreign-id", "hai")
	assert.ErrorIs(t, err, ErrNotSessionOwner)
	assert.Empty(t, f.messages.messages)
}

func TestSendMessageCompletionErrorPersistsFixedText(t *testing.T) {
	f := newChatFixture("", errors.New("upstream down"))

	result, err := f.svc.SendMessage(context.Background(), 1, "", "hai")
	require.NoError(t, err)

	// 用户消息不重复，助手回复为固定文案
	require.Len(t, f.messages.messages, 2)
	assert.Equal(t, model.RoleMsgUser, f.messages.messages[0].Role)
	assert.Equal(t, llm.ErrorText, result.AssistantMessage.Content)
}

func TestSendMessageEmptyReplyUsesFallback(t *testing.T) {
	f := newChatFixture("", nil)

	result, err := f.svc.SendMessage(context.Background(), 1, "", "hai")
	require.NoError(t, err)
	assert.Equal(t, llm.FallbackText, result.AssistantMessage.Content)
}

func TestSendMessagePublishesSessionCreatedEvent(t *testing.T) {
	f := newChatFixture("ok", nil)

	result, err := f.svc.SendMessage(context.Background(), 1, "", "hai")
	require.NoError(t, err)

	require.Len(t, f.producer.published, 1)
	assert.Equal(t, events.SessionCreated, f.producer.published[0].Type)
	assert.Equal(t, result.SessionID, f.producer.published[0].SessionID)

	_, err = f.svc.SendMessage(context.Background(), 1, result.SessionID, "lagi")
	require.NoError(t, err)
	assert.Equal(t, events.MessageAppended, f.producer.published[1].Type)
}

func TestEditMessageKeepsSupersededRows(t *testing.T) {
	f := newChatFixture("jawaban baru", nil)

	// 建会话并写入两轮对话
	first, err := f.svc.SendMessage(context.Background(), 1, "", "pertanyaan satu")
	require.NoError(t, err)
	second, err := f.svc.SendMessage(context.Background(), 1, first.SessionID, "pertanyaan dua")
	require.NoError(t, err)

	before := len(f.messages.messages)

	// 编辑第二轮的用户消息
	result, err := f.svc.EditMessage(context.Background(), 1, first.SessionID, second.UserMessage.ID, "pertanyaan dua (edit)")
	require.NoError(t, err)
	assert.Equal(t, "pertanyaan dua (edit)", result.UserMessage.Content)
	assert.Equal(t, "jawaban baru", result.AssistantMessage.Content)

	// 旧消息保留，新增两条
	assert.Len(t, f.messages.messages, before+2)
	old, err := f.messages.FindByID(second.UserMessage.ID)
	require.NoError(t, err)
	assert.Equal(t, "pertanyaan dua", old.Content)

	// 补全只携带目标之前的历史加上编辑后的内容
	require.Len(t, f.llm.history, 3)
	assert.Equal(t, "pertanyaan satu", f.llm.history[0].Content)
	assert.Equal(t, model.RoleMsgAssistant, f.llm.history[1].Role)
	assert.Equal(t, "pertanyaan dua (edit)", f.llm.history[2].Content)
}

func TestEditMessageRejectsAssistantMessage(t *testing.T) {
	f := newChatFixture("ok", nil)

	first, err := f.svc.SendMessage(context.Background(), 1, "", "hai")
	require.NoError(t, err)

	_, err = f.svc.EditMessage(context.Background(), 1, first.SessionID, first.AssistantMessage.ID, "baru")
	assert.ErrorIs(t, err, ErrNotUserMessage)
}

func TestSendMessageIndexesBothRows(t *testing.T) {
	f := newChatFixture("ok", nil)

	result, err := f.svc.SendMessage(context.Background(), 1, "", "hai")
	require.NoError(t, err)

	require.Len(t, f.indexer.docs, 2)
	assert.Equal(t, result.UserMessage.ID, f.indexer.docs[0].MessageID)
	assert.Equal(t, result.SessionID, f.indexer.docs[0].SessionID)
	assert.Equal(t, uint(1), f.indexer.docs[0].UserID)
}

func TestSendMessageRejectsEmptyContent(t *testing.T) {
	f := newChatFixture("ok", nil)

	_, err := f.svc.SendMessage(context.Background(), 1, "", "")
	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Zero(t, f.llm.calls)
}
