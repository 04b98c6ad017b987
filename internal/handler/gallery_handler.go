package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Xenonn21/voitzu/internal/service"
)

// GalleryHandler 负责处理图片库浏览相关的 API 请求。
type GalleryHandler struct {
	galleryService service.GalleryService
}

// NewGalleryHandler 创建一个新的 GalleryHandler 实例。
func NewGalleryHandler(galleryService service.GalleryService) *GalleryHandler {
	return &GalleryHandler{galleryService: galleryService}
}

// ListImages 列出当前用户的全部图片及限时访问链接。
func (h *GalleryHandler) ListImages(c *gin.Context) {
	user := currentUser(c)

	images, err := h.galleryService.ListImages(c.Request.Context(), user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "无法获取图片列表",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    images,
	})
}
