// Package es 提供了与 Elasticsearch 交互的客户端功能。
package es

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/Xenonn21/voitzu/internal/config"
	"github.com/Xenonn21/voitzu/pkg/log"
)

// MessageDoc 是写入消息索引的文档结构。
type MessageDoc struct {
	MessageID uint   `json:"message_id"`
	SessionID string `json:"session_id"`
	UserID    uint   `json:"user_id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedAt int64  `json:"created_at"`
}

// Hit 是搜索命中的结果条目。
type Hit struct {
	Doc   MessageDoc
	Score float64
}

// Indexer 定义了消息索引与检索操作。
type Indexer interface {
	IndexMessage(ctx context.Context, doc MessageDoc) error
	SearchMessages(ctx context.Context, userID uint, query string, size int) ([]Hit, error)
	DeleteBySession(ctx context.Context, sessionID string) error
}

type client struct {
	es        *elasticsearch.Client
	indexName string
}

// NewClient 初始化 Elasticsearch 客户端并确保索引存在。
func NewClient(esCfg config.ElasticsearchConfig) (Indexer, error) {
	cfg := elasticsearch.Config{
		Addresses: []string{esCfg.Addresses},
		Username:  esCfg.Username,
		Password:  esCfg.Password,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	}
	es, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	c := &client{es: es, indexName: esCfg.IndexName}
	if err := c.createIndexIfNotExists(); err != nil {
		return nil, err
	}
	return c, nil
}

// createIndexIfNotExists 检查索引是否存在，如果不存在则创建它
func (c *client) createIndexIfNotExists() error {
	res, err := c.es.Indices.Exists([]string{c.indexName})
	if err != nil {
		log.Errorf("检查索引是否存在时出错: %v", err)
		return err
	}
	if !res.IsError() && res.StatusCode == http.StatusOK {
		log.Infof("索引 '%s' 已存在", c.indexName)
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("检查索引是否存在时收到意外的状态码: %d", res.StatusCode)
	}

	mapping := `{
		"mappings": {
			"properties": {
				"message_id": { "type": "long" },
				"session_id": { "type": "keyword" },
				"user_id":    { "type": "long" },
				"role":       { "type": "keyword" },
				"content":    { "type": "text" },
				"created_at": { "type": "date", "format": "epoch_millis" }
			}
		}
	}`

	res, err = c.es.Indices.Create(
		c.indexName,
		c.es.Indices.Create.WithBody(strings.NewReader(mapping)),
	)
	if err != nil {
		log.Errorf("创建索引 '%s' 失败: %v", c.indexName, err)
		return err
	}
	if res.IsError() {
		log.Errorf("创建索引 '%s' 时 Elasticsearch 返回错误: %s", c.indexName, res.String())
		return errors.New("创建索引时 Elasticsearch 返回错误")
	}

	log.Infof("索引 '%s' 创建成功", c.indexName)
	return nil
}

// IndexMessage 将单条消息索引到 Elasticsearch。
func (c *client) IndexMessage(ctx context.Context, doc MessageDoc) error {
	docBytes, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	req := esapi.IndexRequest{
		Index:      c.indexName,
		DocumentID: fmt.Sprintf("%d", doc.MessageID),
		Body:       bytes.NewReader(docBytes),
		Refresh:    "true",
	}

	res, err := req.Do(ctx, c.es)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		log.Errorf("索引消息到 Elasticsearch 出错: %s", res.String())
		return errors.New("failed to index message")
	}
	return nil
}

// SearchMessages 在当前用户的消息中做全文检索。
func (c *client) SearchMessages(ctx context.Context, userID uint, query string, size int) ([]Hit, error) {
	esQuery := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": map[string]interface{}{
					"match": map[string]interface{}{
						"content": query,
					},
				},
				"filter": map[string]interface{}{
					"term": map[string]interface{}{"user_id": userID},
				},
			},
		},
		"size": size,
		"sort": []map[string]interface{}{
			{"_score": map[string]interface{}{"order": "desc"}},
			{"created_at": map[string]interface{}{"order": "desc"}},
		},
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(esQuery); err != nil {
		return nil, err
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(c.indexName),
		c.es.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.IsError() {
		log.Errorf("Elasticsearch 搜索出错: %s", res.String())
		return nil, errors.New("failed to search messages")
	}

	var result struct {
		Hits struct {
			Hits []struct {
				Score  float64    `json:"_score"`
				Source MessageDoc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, err
	}

	hits := make([]Hit, 0, len(result.Hits.Hits))
	for _, h := range result.Hits.Hits {
		hits = append(hits, Hit{Doc: h.Source, Score: h.Score})
	}
	return hits, nil
}

// DeleteBySession 删除某个会话的全部索引文档。
func (c *client) DeleteBySession(ctx context.Context, sessionID string) error {
	return c.deleteByQuery(ctx, map[string]interface{}{
		"query": map[string]interface{}{
			"term": map[string]interface{}{"session_id": sessionID},
		},
	})
}

func (c *client) deleteByQuery(ctx context.Context, query map[string]interface{}) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(query); err != nil {
		return err
	}

	res, err := c.es.DeleteByQuery(
		[]string{c.indexName},
		&buf,
		c.es.DeleteByQuery.WithContext(ctx),
		c.es.DeleteByQuery.WithRefresh(true),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		log.Errorf("Elasticsearch 按条件删除出错: %s", res.String())
		return errors.New("failed to delete documents")
	}
	return nil
}
