// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Xenonn21/voitzu/internal/service"
	"github.com/Xenonn21/voitzu/pkg/log"
)

// AuthHandler 负责处理 token 刷新与第三方登录相关的 API 请求。
type AuthHandler struct {
	userService service.UserService
}

// NewAuthHandler 创建一个新的 AuthHandler 实例。
func NewAuthHandler(userService service.UserService) *AuthHandler {
	return &AuthHandler{userService: userService}
}

// RefreshTokenRequest 定义了刷新 token API 的请求体结构。
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// RefreshToken 处理刷新 token 的请求。
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "无效的请求负载：refreshToken 不能为空",
		})
		return
	}

	accessToken, refreshToken, err := h.userService.RefreshToken(req.RefreshToken)
	if err != nil {
		log.Warnf("RefreshToken: 刷新失败, error: %v", err)
		c.JSON(http.StatusUnauthorized, gin.H{
			"code":    http.StatusUnauthorized,
			"message": "无效或已过期的 refresh token",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data": gin.H{
			"token":        accessToken,
			"refreshToken": refreshToken,
		},
	})
}

// OAuthLogin 返回 Google 授权页地址，前端重定向用户过去。
func (h *AuthHandler) OAuthLogin(c *gin.Context) {
	url, err := h.userService.OAuthLoginURL(c.Request.Context())
	if err != nil {
		log.Errorf("OAuthLogin: 生成授权地址失败, error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "无法生成授权地址",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    gin.H{"url": url},
	})
}

// OAuthCallback 处理 Google 的授权回调，签发本站 token。
func (h *AuthHandler) OAuthCallback(c *gin.Context) {
	state := c.Query("state")
	code := c.Query("code")
	if state == "" || code == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "缺少 state 或 code 参数",
		})
		return
	}

	accessToken, refreshToken, err := h.userService.OAuthCallback(c.Request.Context(), state, code)
	if err != nil {
		log.Warnf("OAuthCallback: 回调处理失败, error: %v", err)
		c.JSON(http.StatusUnauthorized, gin.H{
			"code":    http.StatusUnauthorized,
			"message": "第三方登录失败",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "Login successful",
		"data": gin.H{
			"token":        accessToken,
			"refreshToken": refreshToken,
		},
	})
}
