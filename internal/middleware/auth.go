// Package middleware 提供了处理 HTTP 请求的中间件。
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Xenonn21/voitzu/internal/service"
	"github.com/Xenonn21/voitzu/pkg/database"
	"github.com/Xenonn21/voitzu/pkg/token"
)

// AuthMiddleware 创建一个 Gin 中间件，用于 JWT 认证。
// 它会从请求头中提取 token，验证其有效性，并将完整的 User 对象存入 Gin 的上下文中。
// websocket 场景下允许通过 query 参数携带 token。
func AuthMiddleware(jwtManager *token.JWTManager, userService service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "请求未包含授权头"})
			return
		}

		// 已登出的 token 在黑名单里，直接拒绝
		if blacklisted, err := database.RDB.Exists(c.Request.Context(), "blacklist:"+tokenString).Result(); err == nil && blacklisted > 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token 已失效"})
			return
		}

		claims, err := jwtManager.VerifyToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "无效或已过期的 token"})
			return
		}

		// 使用 claims 中的用户 ID 从数据库获取完整的用户信息
		user, err := userService.GetUser(claims.UserID)
		if err != nil {
			// 如果根据 token 中的用户信息无法找到用户，说明该用户可能已被删除
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "用户不存在"})
			return
		}

		// 将完整的 User 对象存储在 context 中，供后续处理函数使用
		c.Set("user", user)
		c.Set("claims", claims)

		c.Next()
	}
}

// extractToken 依次尝试 Authorization 头和 token query 参数。
func extractToken(c *gin.Context) string {
	const bearerPrefix = "Bearer "
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, bearerPrefix) {
		return strings.TrimPrefix(authHeader, bearerPrefix)
	}
	return c.Query("token")
}
