package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Xenonn21/voitzu/internal/service"
)

// ReportHandler 负责处理举报反馈相关的 API 请求。
type ReportHandler struct {
	reportService service.ReportService
}

// NewReportHandler 创建一个新的 ReportHandler 实例。
func NewReportHandler(reportService service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// SubmitReportRequest 定义了提交举报 API 的请求体结构。
type SubmitReportRequest struct {
	SessionID   string `json:"sessionId"`
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
}

// Submit 处理举报提交请求。
func (h *ReportHandler) Submit(c *gin.Context) {
	user := currentUser(c)

	var req SubmitReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "无效的请求负载：标题不能为空",
		})
		return
	}

	report, err := h.reportService.Submit(user.ID, req.SessionID, req.Title, req.Description)
	if err != nil {
		if errors.Is(err, service.ErrEmptyReportTitle) {
			c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "标题不能为空"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "举报提交失败",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    report,
	})
}

// ListOwn 列出当前用户提交过的举报。
func (h *ReportHandler) ListOwn(c *gin.Context) {
	user := currentUser(c)

	reports, err := h.reportService.ListOwn(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "无法获取举报列表",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    reports,
	})
}
