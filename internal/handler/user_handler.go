// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Xenonn21/voitzu/internal/model"
	"github.com/Xenonn21/voitzu/internal/service"
	"github.com/Xenonn21/voitzu/pkg/log"
)

// UserHandler 负责处理所有与普通用户相关的 API 请求。
type UserHandler struct {
	userService    service.UserService
	profileService service.ProfileService
}

// NewUserHandler 创建一个新的 UserHandler 实例。
func NewUserHandler(userService service.UserService, profileService service.ProfileService) *UserHandler {
	return &UserHandler{userService: userService, profileService: profileService}
}

// RegisterRequest 定义了用户注册 API 的请求体结构。
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Name     string `json:"name"`
}

// Register 处理用户注册请求。注册即生效，不发确认邮件。
func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("Register: Invalid request payload, error: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "无效的请求负载：邮箱和密码不能为空",
		})
		return
	}

	user, err := h.userService.Register(req.Email, req.Password, req.Name)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    http.StatusBadRequest,
				"message": "邮箱已被注册",
			})
			return
		}
		log.Errorf("Register: User registration failed for '%s', error: %v", req.Email, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "注册失败",
		})
		return
	}

	log.Infof("User '%s' registered successfully", user.Email)
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "User registered successfully",
	})
}

// LoginRequest 定义了用户登录 API 的请求体结构。
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login 处理用户登录请求。
func (h *UserHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("Login: Invalid request payload, error: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "无效的请求负载：邮箱和密码不能为空",
		})
		return
	}

	accessToken, refreshToken, err := h.userService.Login(req.Email, req.Password)
	if err != nil {
		log.Warnf("Login: User authentication failed for '%s', error: %v", req.Email, err)
		c.JSON(http.StatusUnauthorized, gin.H{
			"code":    http.StatusUnauthorized,
			"message": "无效的凭证",
		})
		return
	}

	log.Infof("User '%s' logged in successfully", req.Email)
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "Login successful",
		"data": gin.H{
			"token":        accessToken,
			"refreshToken": refreshToken,
		},
	})
}

// GetProfile 返回当前登录用户的资料视图。
func (h *UserHandler) GetProfile(c *gin.Context) {
	user := currentUser(c)

	profile, err := h.profileService.GetProfile(c.Request.Context(), user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "无法获取用户资料",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    profile,
	})
}

// UpdateProfile 处理资料保存请求。
// 使用 multipart 表单：name/username/color 字段、可选的 avatar 文件、removeAvatar 标记。
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	user := currentUser(c)

	input := service.UpdateProfileInput{
		Name:         c.PostForm("name"),
		Username:     c.PostForm("username"),
		Color:        c.PostForm("color"),
		RemoveAvatar: strings.EqualFold(c.PostForm("removeAvatar"), "true"),
	}

	if file, err := c.FormFile("avatar"); err == nil {
		f, err := file.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    http.StatusBadRequest,
				"message": "无法读取头像文件",
			})
			return
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    http.StatusBadRequest,
				"message": "无法读取头像文件",
			})
			return
		}
		input.Avatar = data
	}

	profile, err := h.profileService.UpdateProfile(c.Request.Context(), user.ID, input)
	if err != nil {
		log.Errorf("UpdateProfile: 保存失败, userID: %d, error: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "资料保存失败",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    profile,
	})
}

// ResetProfile 将资料恢复到初始状态并清空头像目录。
func (h *UserHandler) ResetProfile(c *gin.Context) {
	user := currentUser(c)

	profile, err := h.profileService.ResetProfile(c.Request.Context(), user.ID)
	if err != nil {
		log.Errorf("ResetProfile: 重置失败, userID: %d, error: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "资料重置失败",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    profile,
	})
}

// GetProfileLogs 返回最近的资料变更记录。
func (h *UserHandler) GetProfileLogs(c *gin.Context) {
	user := currentUser(c)

	logs, err := h.profileService.ListProfileLogs(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "无法获取变更记录",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    logs,
	})
}

// ClearProfileLogs 清空资料变更记录。
func (h *UserHandler) ClearProfileLogs(c *gin.Context) {
	user := currentUser(c)

	if err := h.profileService.ClearProfileLogs(user.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "清空变更记录失败",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
	})
}

// Logout 处理用户登出请求，将当前 token 拉入黑名单。
func (h *UserHandler) Logout(c *gin.Context) {
	authHeader := c.GetHeader("Authorization")
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "缺少 token",
		})
		return
	}

	if err := h.userService.Logout(tokenString); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "登出失败",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "Logout successful",
	})
}

// currentUser 取 AuthMiddleware 放进上下文的用户对象。
func currentUser(c *gin.Context) *model.User {
	return c.MustGet("user").(*model.User)
}
