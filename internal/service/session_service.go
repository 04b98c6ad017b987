package service

import (
	"context"
	"time"

	"github.com/Xenonn21/voitzu/internal/model"
	"github.com/Xenonn21/voitzu/internal/repository"
	"github.com/Xenonn21/voitzu/pkg/es"
	"github.com/Xenonn21/voitzu/pkg/events"
	"github.com/Xenonn21/voitzu/pkg/kafka"
	"github.com/Xenonn21/voitzu/pkg/log"
)

// SessionService 接口定义了会话管理的业务操作。
type SessionService interface {
	ListSessions(userID uint, includeArchived bool) ([]model.ChatSession, error)
	RenameSession(ctx context.Context, userID uint, sessionID, title string) (*model.ChatSession, error)
	TogglePinned(ctx context.Context, userID uint, sessionID string) (*model.ChatSession, error)
	ToggleArchived(ctx context.Context, userID uint, sessionID string) (*model.ChatSession, error)
	DeleteSession(ctx context.Context, userID uint, sessionID string) error
}

// sessionService 是 SessionService 接口的实现。
type sessionService struct {
	sessionRepo  repository.SessionRepository
	sessionCache repository.SessionCacheRepository
	indexer      es.Indexer
	producer     kafka.Producer
}

// NewSessionService 创建一个新的 SessionService 实例。
func NewSessionService(
	sessionRepo repository.SessionRepository,
	sessionCache repository.SessionCacheRepository,
	indexer es.Indexer,
	producer kafka.Producer,
) SessionService {
	return &sessionService{
		sessionRepo:  sessionRepo,
		sessionCache: sessionCache,
		indexer:      indexer,
		producer:     producer,
	}
}

// ListSessions 返回用户的会话列表，置顶在前，其余按最近更新排序。
func (s *sessionService) ListSessions(userID uint, includeArchived bool) ([]model.ChatSession, error) {
	return s.sessionRepo.FindByUserID(userID, includeArchived)
}

// RenameSession 重命名会话，标题超长时截断到上限。
func (s *sessionService) RenameSession(ctx context.Context, userID uint, sessionID, title string) (*model.ChatSession, error) {
	session, err := s.owned(userID, sessionID)
	if err != nil {
		return nil, err
	}
	if title == "" {
		return nil, ErrEmptyMessage
	}

	runes := []rune(title)
	if len(runes) > model.TitleMaxLen {
		runes = runes[:model.TitleMaxLen]
	}
	session.Title = string(runes)

	if err := s.sessionRepo.UpdateTitle(session.ID, session.Title); err != nil {
		return nil, err
	}
	s.publish(ctx, events.SessionEvent{
		Type:      events.SessionRenamed,
		UserID:    userID,
		SessionID: session.ID,
		Title:     session.Title,
	})
	return session, nil
}

// TogglePinned 翻转会话置顶状态。连续调用两次回到原状态。
func (s *sessionService) TogglePinned(ctx context.Context, userID uint, sessionID string) (*model.ChatSession, error) {
	session, err := s.owned(userID, sessionID)
	if err != nil {
		return nil, err
	}
	session.Pinned = !session.Pinned
	if err := s.sessionRepo.UpdatePinned(session.ID, session.Pinned); err != nil {
		return nil, err
	}
	s.publish(ctx, events.SessionEvent{
		Type:      events.SessionPinned,
		UserID:    userID,
		SessionID: session.ID,
		Pinned:    &session.Pinned,
	})
	return session, nil
}

// ToggleArchived 翻转会话归档状态。连续调用两次回到原状态。
func (s *sessionService) ToggleArchived(ctx context.Context, userID uint, sessionID string) (*model.ChatSession, error) {
	session, err := s.owned(userID, sessionID)
	if err != nil {
		return nil, err
	}
	session.Archived = !session.Archived
	if err := s.sessionRepo.UpdateArchived(session.ID, session.Archived); err != nil {
		return nil, err
	}
	s.publish(ctx, events.SessionEvent{
		Type:      events.SessionArchived,
		UserID:    userID,
		SessionID: session.ID,
		Archived:  &session.Archived,
	})
	return session, nil
}

// DeleteSession 删除会话：先删消息，再删会话本身，然后清理缓存和索引。
func (s *sessionService) DeleteSession(ctx context.Context, userID uint, sessionID string) error {
	session, err := s.owned(userID, sessionID)
	if err != nil {
		return err
	}

	if err := s.sessionRepo.DeleteWithMessages(session.ID); err != nil {
		return err
	}

	// 删掉的正好是缓存的最近会话时，顺带清缓存。
	if cachedID, err := s.sessionCache.GetLastSessionID(ctx, userID); err == nil && cachedID == session.ID {
		if err := s.sessionCache.ClearLastSessionID(ctx, userID); err != nil {
			log.Warnf("[SessionService] 清除会话缓存失败, userID: %d, err: %v", userID, err)
		}
	}
	if err := s.indexer.DeleteBySession(ctx, session.ID); err != nil {
		log.Warnf("[SessionService] 清理会话索引失败, session: %s, err: %v", session.ID, err)
	}

	s.publish(ctx, events.SessionEvent{
		Type:      events.SessionDeleted,
		UserID:    userID,
		SessionID: session.ID,
	})
	return nil
}

func (s *sessionService) owned(userID uint, sessionID string) (*model.ChatSession, error) {
	session, err := s.sessionRepo.FindByID(sessionID)
	if err != nil {
		return nil, ErrSessionNotFound
	}
	if session.UserID != userID {
		return nil, ErrNotSessionOwner
	}
	return session, nil
}

// publish 发布会话事件，失败只记日志。
func (s *sessionService) publish(ctx context.Context, event events.SessionEvent) {
	event.Timestamp = time.Now().UnixMilli()
	if err := s.producer.PublishSessionEvent(ctx, event); err != nil {
		log.Warnf("[SessionService] 发布会话事件失败, session: %s, err: %v", event.SessionID, err)
	}
}
