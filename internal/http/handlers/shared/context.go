package shared

import (
	"strings"

	"github.com/crewpay-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// 鉴权中间件写入的上下文键
const (
	ContextKeyOperatorID   = "operator_id"
	ContextKeyOperatorRole = "operator_role"
)

// GetContextStringWithKey 从上下文读取非空字符串，缺失时返回 401。
func GetContextStringWithKey(c *gin.Context, key string) (string, bool) {
	value, exists := c.Get(key)
	if !exists {
		RespondError(c, response.CodeUnauthorized, "error.unauthorized", nil)
		return "", false
	}
	str, ok := value.(string)
	if !ok {
		RespondError(c, response.CodeInternal, "error.internal", nil)
		return "", false
	}
	str = strings.TrimSpace(str)
	if str == "" {
		RespondError(c, response.CodeUnauthorized, "error.unauthorized", nil)
		return "", false
	}
	return str, true
}

// GetOperatorID 读取当前操作员标识
func GetOperatorID(c *gin.Context) (string, bool) {
	return GetContextStringWithKey(c, ContextKeyOperatorID)
}

// CurrentOperatorRole 读取当前操作员角色，缺失时返回空字符串
func CurrentOperatorRole(c *gin.Context) string {
	value, ok := c.Get(ContextKeyOperatorRole)
	if !ok {
		return ""
	}
	role, _ := value.(string)
	return role
}
