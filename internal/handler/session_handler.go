package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Xenonn21/voitzu/internal/service"
)

// SessionHandler 负责处理会话管理相关的 API 请求。
type SessionHandler struct {
	sessionService service.SessionService
}

// NewSessionHandler 创建一个新的 SessionHandler 实例。
func NewSessionHandler(sessionService service.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

// ListSessions 返回当前用户的会话列表。
// query 参数 includeArchived=true 时包含已归档会话。
func (h *SessionHandler) ListSessions(c *gin.Context) {
	user := currentUser(c)
	includeArchived := c.Query("includeArchived") == "true"

	sessions, err := h.sessionService.ListSessions(user.ID, includeArchived)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "无法获取会话列表",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    sessions,
	})
}

// RenameSessionRequest 定义了重命名会话 API 的请求体结构。
type RenameSessionRequest struct {
	Title string `json:"title" binding:"required"`
}

// RenameSession 处理会话重命名请求。
func (h *SessionHandler) RenameSession(c *gin.Context) {
	user := currentUser(c)

	var req RenameSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "无效的请求负载：标题不能为空",
		})
		return
	}

	session, err := h.sessionService.RenameSession(c.Request.Context(), user.ID, c.Param("id"), req.Title)
	if err != nil {
		respondSessionError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    session,
	})
}

// TogglePinned 翻转会话置顶状态。
func (h *SessionHandler) TogglePinned(c *gin.Context) {
	user := currentUser(c)

	session, err := h.sessionService.TogglePinned(c.Request.Context(), user.ID, c.Param("id"))
	if err != nil {
		respondSessionError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    session,
	})
}

// ToggleArchived 翻转会话归档状态。
func (h *SessionHandler) ToggleArchived(c *gin.Context) {
	user := currentUser(c)

	session, err := h.sessionService.ToggleArchived(c.Request.Context(), user.ID, c.Param("id"))
	if err != nil {
		respondSessionError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    session,
	})
}

// DeleteSession 删除会话及其全部消息。
func (h *SessionHandler) DeleteSession(c *gin.Context) {
	user := currentUser(c)

	if err := h.sessionService.DeleteSession(c.Request.Context(), user.ID, c.Param("id")); err != nil {
		respondSessionError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
	})
}

func respondSessionError(c *gin.Context, err error) {
	switch err {
	case service.ErrSessionNotFound:
		c.JSON(http.StatusNotFound, gin.H{"code": http.StatusNotFound, "message": "会话不存在"})
	case service.ErrNotSessionOwner:
		c.JSON(http.StatusForbidden, gin.H{"code": http.StatusForbidden, "message": "无权访问该会话"})
	case service.ErrEmptyMessage:
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "标题不能为空"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "服务内部错误"})
	}
}

// parseUintParam 解析路径里的数字参数，失败时直接写 400 响应。
func parseUintParam(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "无效的 " + name + " 参数",
		})
		return 0, false
	}
	return uint(v), true
}
