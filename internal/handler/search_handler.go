package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Xenonn21/voitzu/internal/service"
	"github.com/Xenonn21/voitzu/pkg/log"
)

// SearchHandler 负责处理消息检索相关的 API 请求。
type SearchHandler struct {
	searchService service.SearchService
}

// NewSearchHandler 创建一个新的 SearchHandler 实例。
func NewSearchHandler(searchService service.SearchService) *SearchHandler {
	return &SearchHandler{searchService: searchService}
}

// Search 在当前用户的全部消息里做全文检索。
// query 参数：q 为关键词，topK 为返回条数（默认 10）。
func (h *SearchHandler) Search(c *gin.Context) {
	user := currentUser(c)

	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "缺少查询参数 q",
		})
		return
	}

	topK, _ := strconv.Atoi(c.DefaultQuery("topK", "10"))

	results, err := h.searchService.SearchMessages(c.Request.Context(), user.ID, query, topK)
	if err != nil {
		log.Errorf("Search: 检索失败, userID: %d, error: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "检索失败",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    results,
	})
}
