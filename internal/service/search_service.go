// Package service 提供了搜索相关的业务逻辑。
package service

import (
	"context"
	"time"

	"github.com/Xenonn21/voitzu/internal/model"
	"github.com/Xenonn21/voitzu/pkg/es"
)

// SearchResultDTO 是一条搜索命中，附带所属会话便于前端跳转。
type SearchResultDTO struct {
	MessageID uint            `json:"messageId"`
	SessionID string          `json:"sessionId"`
	Role      string          `json:"role"`
	Content   string          `json:"content"`
	Score     float64         `json:"score"`
	CreatedAt model.LocalTime `json:"createdAt"`
}

// SearchService 接口定义了消息检索操作。
type SearchService interface {
	SearchMessages(ctx context.Context, userID uint, query string, topK int) ([]SearchResultDTO, error)
}

// searchService 是 SearchService 接口的实现。
type searchService struct {
	indexer es.Indexer
}

// NewSearchService 创建一个新的 SearchService 实例。
func NewSearchService(indexer es.Indexer) SearchService {
	return &searchService{indexer: indexer}
}

// SearchMessages 在当前用户的全部消息里做全文检索。
func (s *searchService) SearchMessages(ctx context.Context, userID uint, query string, topK int) ([]SearchResultDTO, error) {
	if topK <= 0 {
		topK = 10
	}

	hits, err := s.indexer.SearchMessages(ctx, userID, query, topK)
	if err != nil {
		return nil, err
	}

	results := make([]SearchResultDTO, 0, len(hits))
	for _, h := range hits {
		results = append(results, SearchResultDTO{
			MessageID: h.Doc.MessageID,
			SessionID: h.Doc.SessionID,
			Role:      h.Doc.Role,
			Content:   h.Doc.Content,
			Score:     h.Score,
			CreatedAt: model.LocalTime(millisToTime(h.Doc.CreatedAt)),
		})
	}
	return results, nil
}

func millisToTime(ms int64) time.Time {
	return time.UnixMilli(ms)
}
