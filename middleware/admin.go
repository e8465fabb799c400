package middleware

import (
	"net/http"
	"strings"

	"studyportal/config"

	"github.com/gin-gonic/gin"
)

// AdminPolicy 管理员判定策略
// 抽象为可注入的谓词，后续换成角色表时调用方无需改动
type AdminPolicy func(email string) bool

// NewEmailAllowlist 基于邮箱白名单构建管理员策略
// 比较忽略大小写与首尾空白；空邮箱（匿名态）恒为 false
func NewEmailAllowlist(emails []string) AdminPolicy {
	allowed := make(map[string]bool, len(emails))
	for _, e := range emails {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			allowed[e] = true
		}
	}
	return func(email string) bool {
		email = strings.ToLower(strings.TrimSpace(email))
		if email == "" {
			return false
		}
		return allowed[email]
	}
}

// NewAdminPolicy 从配置构建管理员策略
func NewAdminPolicy(cfg *config.Config) AdminPolicy {
	return NewEmailAllowlist(cfg.Admin.Emails)
}

// AdminOnly 管理员校验中间件
// 需在 JWTAuth 之后使用：无会话返回 401，非管理员返回 403
func AdminOnly(policy AdminPolicy) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := GetCurrentUserEmail(c)
		if email == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    401,
				"message": "请先登录",
			})
			c.Abort()
			return
		}
		if !policy(email) {
			c.JSON(http.StatusForbidden, gin.H{
				"code":    403,
				"message": "权限不足，仅管理员可操作",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
