// Package llm provides a client for the hosted chat completion API.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/Xenonn21/voitzu/internal/config"
)

// ErrMissingAPIKey 表示未配置补全服务的 API Key。
// 该错误必须在发起任何上游调用之前返回。
var ErrMissingAPIKey = errors.New("Missing GROQ_API_KEY")

const (
	// FallbackText 是上游返回内容缺失或不可用时展示给用户的固定回复。
	FallbackText = "Maaf, aku belum bisa menjawab itu."
	// ErrorText 是请求处理过程中发生错误时展示给用户的固定回复。
	ErrorText = "Terjadi kesalahan saat memproses permintaan."
)

// Message 表示一条角色消息
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client defines the interface for a completion client.
type Client interface {
	// Complete 将 system prompt 与完整会话历史发送到补全接口，返回一条生成文本。
	// 上游响应中缺少内容时返回空字符串且 err 为 nil，由调用方决定回退文案。
	Complete(ctx context.Context, messages []Message) (string, error)
}

type groqClient struct {
	cfg    config.CompletionConfig
	client *http.Client
}

// NewClient creates a new completion client for the configured provider.
func NewClient(cfg config.CompletionConfig) Client {
	return &groqClient{
		cfg:    cfg,
		client: &http.Client{},
	}
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete calls the Groq chat completions API with fixed sampling parameters.
func (c *groqClient) Complete(ctx context.Context, messages []Message) (string, error) {
	if c.cfg.APIKey == "" {
		// 配置缺失时快速失败，不发起任何网络调用
		return "", ErrMissingAPIKey
	}

	// 固定 system prompt 前置到会话最前面
	full := make([]Message, 0, len(messages)+1)
	full = append(full, Message{Role: "system", Content: c.cfg.SystemPrompt})
	full = append(full, messages...)

	reqBody := chatRequest{
		Model:       c.cfg.Model,
		Messages:    full,
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	}

	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.cfg.BaseURL+"/chat/completions", bytes.NewReader(reqBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create chat request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call chat api: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read chat api response: %w", err)
	}

	// 上游即使非 2xx 也返回 JSON 错误体，这里统一按内容缺失处理
	var parsed chatResponse
	if err := json.Unmarshal(bodyBytes, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse chat api response: %w", err)
	}

	if len(parsed.Choices) == 0 {
		return "", nil
	}
	return parsed.Choices[0].Message.Content, nil
}
