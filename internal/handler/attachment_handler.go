package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Xenonn21/voitzu/internal/service"
	"github.com/Xenonn21/voitzu/pkg/log"
)

// AttachmentHandler 负责处理附件暂存相关的 API 请求。
type AttachmentHandler struct {
	attachmentService service.AttachmentService
}

// NewAttachmentHandler 创建一个新的 AttachmentHandler 实例。
func NewAttachmentHandler(attachmentService service.AttachmentService) *AttachmentHandler {
	return &AttachmentHandler{attachmentService: attachmentService}
}

// Stage 处理附件上传暂存请求，multipart 表单的 file 字段。
func (h *AttachmentHandler) Stage(c *gin.Context) {
	user := currentUser(c)

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "缺少 file 字段",
		})
		return
	}

	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "无法读取上传文件",
		})
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "无法读取上传文件",
		})
		return
	}

	contentType := file.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	staged, err := h.attachmentService.Stage(c.Request.Context(), user.ID, file.Filename, contentType, data)
	if err != nil {
		log.Errorf("Stage: 附件暂存失败, userID: %d, error: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "附件暂存失败",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    staged,
	})
}

// List 列出当前暂存的全部附件。
func (h *AttachmentHandler) List(c *gin.Context) {
	user := currentUser(c)

	attachments, err := h.attachmentService.List(c.Request.Context(), user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "无法获取附件列表",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    attachments,
	})
}

// ReadText 读取文本附件的内容。
func (h *AttachmentHandler) ReadText(c *gin.Context) {
	user := currentUser(c)

	content, err := h.attachmentService.ReadText(c.Request.Context(), user.ID, c.Param("id"))
	if err != nil {
		respondAttachmentError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    gin.H{"content": content},
	})
}

// ReplaceContentRequest 定义了文本附件覆写 API 的请求体结构。
type ReplaceContentRequest struct {
	Content string `json:"content"`
}

// ReplaceContent 原地覆盖文本附件的内容。
func (h *AttachmentHandler) ReplaceContent(c *gin.Context) {
	user := currentUser(c)

	var req ReplaceContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "无效的请求负载",
		})
		return
	}

	if err := h.attachmentService.ReplaceContent(c.Request.Context(), user.ID, c.Param("id"), req.Content); err != nil {
		respondAttachmentError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
	})
}

// Revoke 撤销一个附件句柄。幂等，重复撤销同样返回成功。
func (h *AttachmentHandler) Revoke(c *gin.Context) {
	user := currentUser(c)

	if err := h.attachmentService.Revoke(c.Request.Context(), user.ID, c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "撤销附件失败",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
	})
}

// RevokeAll 撤销当前用户的全部附件句柄。
func (h *AttachmentHandler) RevokeAll(c *gin.Context) {
	user := currentUser(c)

	if err := h.attachmentService.RevokeAll(c.Request.Context(), user.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "清空附件失败",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
	})
}

func respondAttachmentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrAttachmentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"code": http.StatusNotFound, "message": "附件不存在或已过期"})
	case errors.Is(err, service.ErrNotTextAttachment):
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "仅支持文本附件"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "服务内部错误"})
	}
}
