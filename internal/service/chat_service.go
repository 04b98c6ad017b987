package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Xenonn21/voitzu/internal/model"
	"github.com/Xenonn21/voitzu/internal/repository"
	"github.com/Xenonn21/voitzu/pkg/es"
	"github.com/Xenonn21/voitzu/pkg/events"
	"github.com/Xenonn21/voitzu/pkg/kafka"
	"github.com/Xenonn21/voitzu/pkg/llm"
	"github.com/Xenonn21/voitzu/pkg/log"
)

// 业务错误。
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrNotSessionOwner = errors.New("session belongs to another user")
	ErrMessageNotFound = errors.New("message not found")
	ErrNotUserMessage  = errors.New("only user messages can be edited")
	ErrEmptyMessage    = errors.New("message content is empty")
)

// SendResult 是一次发送的结果：会话 ID 以及写入的两条消息。
type SendResult struct {
	SessionID        string         `json:"sessionId"`
	UserMessage      *model.Message `json:"userMessage"`
	AssistantMessage *model.Message `json:"assistantMessage"`
}

// ChatService 接口定义了消息收发的业务操作。
type ChatService interface {
	SendMessage(ctx context.Context, userID uint, sessionID, content string) (*SendResult, error)
	EditMessage(ctx context.Context, userID uint, sessionID string, messageID uint, newContent string) (*SendResult, error)
	GetMessages(ctx context.Context, userID uint, sessionID string) ([]model.Message, error)
}

// chatService 是 ChatService 接口的实现。
type chatService struct {
	sessionRepo  repository.SessionRepository
	messageRepo  repository.MessageRepository
	sessionCache repository.SessionCacheRepository
	llmClient    llm.Client
	indexer      es.Indexer
	producer     kafka.Producer
}

// NewChatService 创建一个新的 ChatService 实例。
func NewChatService(
	sessionRepo repository.SessionRepository,
	messageRepo repository.MessageRepository,
	sessionCache repository.SessionCacheRepository,
	llmClient llm.Client,
	indexer es.Indexer,
	producer kafka.Producer,
) ChatService {
	return &chatService{
		sessionRepo:  sessionRepo,
		messageRepo:  messageRepo,
		sessionCache: sessionCache,
		llmClient:    llmClient,
		indexer:      indexer,
		producer:     producer,
	}
}

// SendMessage 是发送管线：解析会话 → 落用户消息 → 取全量历史 → 请求补全 →
// 落助手回复。用户消息落库后的失败只记日志，回复照常返回。
func (s *chatService) SendMessage(ctx context.Context, userID uint, sessionID, content string) (*SendResult, error) {
	if content == "" {
		return nil, ErrEmptyMessage
	}

	session, created, err := s.resolveSession(ctx, userID, sessionID, content)
	if err != nil {
		return nil, err
	}

	userMsg := &model.Message{
		SessionID: session.ID,
		Role:      model.RoleMsgUser,
		Content:   content,
	}
	if err := s.messageRepo.Create(userMsg); err != nil {
		return nil, err
	}

	history, err := s.messageRepo.FindBySessionID(session.ID)
	if err != nil {
		// 历史读取失败时退化为只带当前消息请求补全。
		log.Errorf("[ChatService] 读取会话历史失败, session: %s, err: %v", session.ID, err)
		history = []model.Message{*userMsg}
	}

	reply := s.complete(ctx, history)

	assistantMsg := &model.Message{
		SessionID: session.ID,
		Role:      model.RoleMsgAssistant,
		Content:   reply,
	}
	if err := s.messageRepo.Create(assistantMsg); err != nil {
		// 用户消息已落库，回复写入失败不再回滚，返回给调用方并记录分歧。
		log.Errorf("[ChatService] 写入助手回复失败, session: %s, err: %v", session.ID, err)
	}

	s.afterSend(ctx, userID, session, created, userMsg, assistantMsg)
	return &SendResult{
		SessionID:        session.ID,
		UserMessage:      userMsg,
		AssistantMessage: assistantMsg,
	}, nil
}

// EditMessage 编辑一条用户消息并重发：取目标消息之前的历史，携带新内容重新走
// 补全。被替代的旧消息保留在库里，不删除。
func (s *chatService) EditMessage(ctx context.Context, userID uint, sessionID string, messageID uint, newContent string) (*SendResult, error) {
	if newContent == "" {
		return nil, ErrEmptyMessage
	}

	session, err := s.ownedSession(userID, sessionID)
	if err != nil {
		return nil, err
	}

	target, err := s.messageRepo.FindByID(messageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, err
	}
	if target.SessionID != session.ID {
		return nil, ErrMessageNotFound
	}
	if target.Role != model.RoleMsgUser {
		return nil, ErrNotUserMessage
	}

	history, err := s.messageRepo.FindBefore(session.ID, target.ID)
	if err != nil {
		return nil, err
	}

	userMsg := &model.Message{
		SessionID: session.ID,
		Role:      model.RoleMsgUser,
		Content:   newContent,
	}
	if err := s.messageRepo.Create(userMsg); err != nil {
		return nil, err
	}

	history = append(history, *userMsg)
	reply := s.complete(ctx, history)

	assistantMsg := &model.Message{
		SessionID: session.ID,
		Role:      model.RoleMsgAssistant,
		Content:   reply,
	}
	if err := s.messageRepo.Create(assistantMsg); err != nil {
		log.Errorf("[ChatService] 写入助手回复失败, session: %s, err: %v", session.ID, err)
	}

	s.afterSend(ctx, userID, session, false, userMsg, assistantMsg)
	return &SendResult{
		SessionID:        session.ID,
		UserMessage:      userMsg,
		AssistantMessage: assistantMsg,
	}, nil
}

// GetMessages 返回会话的全部消息，要求会话归属当前用户。
func (s *chatService) GetMessages(ctx context.Context, userID uint, sessionID string) ([]model.Message, error) {
	if _, err := s.ownedSession(userID, sessionID); err != nil {
		return nil, err
	}
	return s.messageRepo.FindBySessionID(sessionID)
}

// resolveSession 解析本次发送要写入的会话。
// 显式传入的会话 ID 必须归属当前用户；否则尝试缓存的最近会话；缓存失效（会话
// 不存在或归属他人）时清掉缓存并新建会话，标题取消息前 30 个字符。
func (s *chatService) resolveSession(ctx context.Context, userID uint, sessionID, firstMessage string) (*model.ChatSession, bool, error) {
	if sessionID != "" {
		session, err := s.ownedSession(userID, sessionID)
		if err != nil {
			return nil, false, err
		}
		return session, false, nil
	}

	cachedID, err := s.sessionCache.GetLastSessionID(ctx, userID)
	if err != nil {
		log.Warnf("[ChatService] 读取会话缓存失败, userID: %d, err: %v", userID, err)
		cachedID = ""
	}
	if cachedID != "" {
		session, err := s.sessionRepo.FindByID(cachedID)
		switch {
		case err == nil && session.UserID == userID:
			return session, false, nil
		case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, false, err
		default:
			// 缓存指向不存在或他人的会话：清缓存，走新建。
			if err := s.sessionCache.ClearLastSessionID(ctx, userID); err != nil {
				log.Warnf("[ChatService] 清除会话缓存失败, userID: %d, err: %v", userID, err)
			}
		}
	}

	session := &model.ChatSession{
		ID:     uuid.NewString(),
		UserID: userID,
		Title:  titleFromMessage(firstMessage),
	}
	if err := s.sessionRepo.Create(session); err != nil {
		return nil, false, err
	}
	return session, true, nil
}

// ownedSession 查找会话并校验归属。
func (s *chatService) ownedSession(userID uint, sessionID string) (*model.ChatSession, error) {
	session, err := s.sessionRepo.FindByID(sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if session.UserID != userID {
		return nil, ErrNotSessionOwner
	}
	return session, nil
}

// complete 请求补全。上游错误与空回复都折算为固定的兜底文案。
func (s *chatService) complete(ctx context.Context, history []model.Message) string {
	msgs := make([]llm.Message, 0, len(history))
	for _, m := range history {
		msgs = append(msgs, llm.Message{Role: m.Role, Content: m.Content})
	}

	reply, err := s.llmClient.Complete(ctx, msgs)
	if err != nil {
		log.Errorf("[ChatService] 请求补全失败: %v", err)
		return llm.ErrorText
	}
	if reply == "" {
		return llm.FallbackText
	}
	return reply
}

// afterSend 处理发送成功后的旁路工作：刷新缓存和会话时间、索引消息、发事件。
// 全部为尽力而为，失败只记日志。
func (s *chatService) afterSend(ctx context.Context, userID uint, session *model.ChatSession, created bool, msgs ...*model.Message) {
	if err := s.sessionCache.SetLastSessionID(ctx, userID, session.ID); err != nil {
		log.Warnf("[ChatService] 更新会话缓存失败, userID: %d, err: %v", userID, err)
	}
	if err := s.sessionRepo.Touch(session.ID); err != nil {
		log.Warnf("[ChatService] 刷新会话时间失败, session: %s, err: %v", session.ID, err)
	}

	for _, m := range msgs {
		if m.ID == 0 {
			continue
		}
		doc := es.MessageDoc{
			MessageID: m.ID,
			SessionID: m.SessionID,
			UserID:    userID,
			Role:      m.Role,
			Content:   m.Content,
			CreatedAt: m.CreatedAt.UnixMilli(),
		}
		if err := s.indexer.IndexMessage(ctx, doc); err != nil {
			log.Warnf("[ChatService] 索引消息失败, message: %d, err: %v", m.ID, err)
		}
	}

	eventType := events.MessageAppended
	if created {
		eventType = events.SessionCreated
	}
	event := events.SessionEvent{
		Type:      eventType,
		UserID:    userID,
		SessionID: session.ID,
		Title:     session.Title,
		Timestamp: time.Now().UnixMilli(),
	}
	if err := s.producer.PublishSessionEvent(ctx, event); err != nil {
		log.Warnf("[ChatService] 发布会话事件失败, session: %s, err: %v", session.ID, err)
	}
}

// titleFromMessage 取消息的前 30 个字符作为新会话标题。
func titleFromMessage(content string) string {
	runes := []rune(content)
	if len(runes) > model.TitleFromMessageLen {
		runes = runes[:model.TitleFromMessageLen]
	}
	return string(runes)
}
