package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Xenonn21/voitzu/pkg/llm"
	"github.com/Xenonn21/voitzu/pkg/log"
)

// CompletionHandler 把补全请求透传给上游大模型服务。
// 不落库，供前端直接对话调试使用。
type CompletionHandler struct {
	llmClient llm.Client
}

// NewCompletionHandler 创建一个新的 CompletionHandler 实例。
func NewCompletionHandler(llmClient llm.Client) *CompletionHandler {
	return &CompletionHandler{llmClient: llmClient}
}

// CompletionRequest 定义了补全 API 的请求体结构。
type CompletionRequest struct {
	Messages []llm.Message `json:"messages"`
}

// Complete 处理一次补全请求。响应体刻意保持扁平：
// 成功和兜底都返回 {"text": ...}，缺少 API Key 返回 {"error": ...}。
func (h *CompletionHandler) Complete(c *gin.Context) {
	var req CompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"text": llm.FallbackText})
		return
	}

	reply, err := h.llmClient.Complete(c.Request.Context(), req.Messages)
	if err != nil {
		if errors.Is(err, llm.ErrMissingAPIKey) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Missing GROQ_API_KEY"})
			return
		}
		log.Errorf("Complete: 上游请求失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"text": llm.ErrorText})
		return
	}

	if reply == "" {
		c.JSON(http.StatusOK, gin.H{"text": llm.FallbackText})
		return
	}
	c.JSON(http.StatusOK, gin.H{"text": reply})
}
