package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Xenonn21/voitzu/internal/service"
	"github.com/Xenonn21/voitzu/pkg/log"
)

// ChatHandler 负责处理消息收发相关的 API 请求。
type ChatHandler struct {
	chatService service.ChatService
}

// NewChatHandler 创建一个新的 ChatHandler 实例。
func NewChatHandler(chatService service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// SendMessageRequest 定义了发送消息 API 的请求体结构。
// sessionId 为空时由服务端解析：优先缓存的最近会话，否则新建。
type SendMessageRequest struct {
	SessionID string `json:"sessionId"`
	Content   string `json:"content" binding:"required"`
}

// SendMessage 处理发送消息请求。
func (h *ChatHandler) SendMessage(c *gin.Context) {
	user := currentUser(c)

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "无效的请求负载：消息内容不能为空",
		})
		return
	}

	result, err := h.chatService.SendMessage(c.Request.Context(), user.ID, req.SessionID, req.Content)
	if err != nil {
		h.respondChatError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    result,
	})
}

// EditMessageRequest 定义了编辑消息 API 的请求体结构。
type EditMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

// EditMessage 处理编辑一条用户消息并重发的请求。
func (h *ChatHandler) EditMessage(c *gin.Context) {
	user := currentUser(c)
	sessionID := c.Param("id")
	messageID, ok := parseUintParam(c, "messageId")
	if !ok {
		return
	}

	var req EditMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "无效的请求负载：消息内容不能为空",
		})
		return
	}

	result, err := h.chatService.EditMessage(c.Request.Context(), user.ID, sessionID, messageID, req.Content)
	if err != nil {
		h.respondChatError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    result,
	})
}

// GetMessages 返回会话的全部消息。
func (h *ChatHandler) GetMessages(c *gin.Context) {
	user := currentUser(c)
	sessionID := c.Param("id")

	messages, err := h.chatService.GetMessages(c.Request.Context(), user.ID, sessionID)
	if err != nil {
		h.respondChatError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    messages,
	})
}

// respondChatError 把业务错误映射为 HTTP 状态码。
func (h *ChatHandler) respondChatError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrEmptyMessage):
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "消息内容不能为空"})
	case errors.Is(err, service.ErrSessionNotFound), errors.Is(err, service.ErrMessageNotFound):
		c.JSON(http.StatusNotFound, gin.H{"code": http.StatusNotFound, "message": "会话或消息不存在"})
	case errors.Is(err, service.ErrNotSessionOwner):
		c.JSON(http.StatusForbidden, gin.H{"code": http.StatusForbidden, "message": "无权访问该会话"})
	case errors.Is(err, service.ErrNotUserMessage):
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "只能编辑用户消息"})
	default:
		log.Errorf("ChatHandler: 请求处理失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "服务内部错误"})
	}
}
