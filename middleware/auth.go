package middleware

import (
	"net/http"
	"strings"

	"github.com/BerniceZTT/lead_end/models"
	"github.com/BerniceZTT/lead_end/utils"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware 认证中间件。token由外部认证服务签发，
// 这里只做解析校验，把claims放进上下文。
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")

		// 检查Authorization头
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "未授权访问",
				"code":    "MISSING_TOKEN",
			})
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "未授权访问",
				"code":    "MISSING_TOKEN",
			})
			return
		}

		// 解析token
		claims, err := utils.ParseToken(token)
		if err != nil {
			utils.Logger.Error().Err(err).Msg("Token验证失败")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "无效的token: " + err.Error(),
				"code":    "INVALID_TOKEN",
			})
			return
		}

		// 检查必要字段
		if claims["id"] == nil || claims["role"] == nil || claims["username"] == nil {
			utils.Logger.Warn().Interface("claims", claims).Msg("Token负载缺少必要字段")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "Token缺少必要字段",
				"code":    "INVALID_TOKEN",
			})
			return
		}

		// 将用户信息存储到上下文
		c.Set("user", claims)

		c.Next()
	}
}

// PermissionMiddleware 路由级粗粒度权限校验，
// 细粒度的可见范围由service层的权限解析器负责
func PermissionMiddleware(resource string, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := utils.GetActor(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "用户未认证",
				"code":    "UNAUTHENTICATED",
			})
			return
		}

		if !actor.Role.IsValid() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"error":   "用户角色信息无效",
				"code":    "INVALID_ROLE",
			})
			return
		}

		if !utils.HasPermission(actor.Role, resource, action) {
			utils.Logger.Info().
				Str("username", actor.Username).
				Str("role", string(actor.Role)).
				Str("resource", resource).
				Str("action", action).
				Msg("权限不足")

			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"error":   "权限不足",
				"code":    "FORBIDDEN",
			})
			return
		}

		c.Next()
	}
}

// AdminOnly 仅admin可访问
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := utils.GetActor(c)
		if err != nil || actor.Role != models.UserRoleADMIN {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"error":   "权限不足",
				"code":    "FORBIDDEN",
			})
			return
		}
		c.Next()
	}
}
