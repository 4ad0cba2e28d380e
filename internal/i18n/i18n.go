package i18n

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
)

// 支持的语言
const (
	LocaleZH = "zh-CN"
	LocaleEN = "en-US"
)

const localeHeader = "X-Locale"

var messages = map[string]map[string]string{
	LocaleZH: {
		"error.bad_request":            "请求参数错误",
		"error.unauthorized":           "未登录或登录已失效",
		"error.forbidden":              "无权限访问该资源",
		"error.auth_header_missing":    "缺少 Authorization 请求头",
		"error.auth_header_invalid":    "Authorization 格式错误",
		"error.token_invalid":          "令牌无效或已过期",
		"error.jwt_secret_missing":     "令牌密钥未配置",
		"error.validation":             "参数校验失败：%s",
		"error.not_found":              "资源不存在：%s",
		"error.conflict":               "数据已被并发修改：%s",
		"error.upstream_unavailable":   "数据源暂不可用，请稍后重试",
		"error.timeout":                "数据源响应超时，请稍后重试",
		"error.too_many_requests":      "请求过于频繁，请稍后再试",
		"error.internal":               "服务器内部错误",
		"error.id_invalid":             "ID 格式错误",
		"error.time_invalid":           "时间格式错误，请使用 RFC3339 或 YYYY-MM-DD",
		"error.amount_invalid":         "金额格式错误",
		"error.rate_limited":           "操作过于频繁，请 %d 秒后再试",
		"error.rate_limit_unavailable": "限流服务暂不可用，请稍后重试",
	},
	LocaleEN: {
		"error.bad_request":            "Invalid request parameters",
		"error.unauthorized":           "Not signed in or session expired",
		"error.forbidden":              "Access to this resource is forbidden",
		"error.auth_header_missing":    "Authorization header is missing",
		"error.auth_header_invalid":    "Authorization header is malformed",
		"error.token_invalid":          "Token is invalid or expired",
		"error.jwt_secret_missing":     "Token secret is not configured",
		"error.validation":             "Validation failed: %s",
		"error.not_found":              "Resource not found: %s",
		"error.conflict":               "Concurrent modification: %s",
		"error.upstream_unavailable":   "Data source unavailable, please retry later",
		"error.timeout":                "Data source timed out, please retry later",
		"error.too_many_requests":      "Too many requests, please retry later",
		"error.internal":               "Internal server error",
		"error.id_invalid":             "Invalid id",
		"error.time_invalid":           "Invalid time, use RFC3339 or YYYY-MM-DD",
		"error.amount_invalid":         "Invalid amount",
		"error.rate_limited":           "Too many write requests, retry in %d seconds",
		"error.rate_limit_unavailable": "Rate limiter unavailable, please retry later",
	},
}

// ResolveLocale 根据 X-Locale 与 Accept-Language 解析语言，默认中文
func ResolveLocale(c *gin.Context) string {
	if c == nil || c.Request == nil {
		return LocaleZH
	}
	if locale, ok := matchLocale(c.GetHeader(localeHeader)); ok {
		return locale
	}
	for _, part := range strings.Split(c.GetHeader("Accept-Language"), ",") {
		tag := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		if locale, ok := matchLocale(tag); ok {
			return locale
		}
	}
	return LocaleZH
}

func matchLocale(raw string) (string, bool) {
	tag := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case tag == "":
		return "", false
	case strings.HasPrefix(tag, "zh"):
		return LocaleZH, true
	case strings.HasPrefix(tag, "en"):
		return LocaleEN, true
	default:
		return "", false
	}
}

// T 翻译消息键，未知键原样返回
func T(locale, key string) string {
	if table, ok := messages[locale]; ok {
		if msg, ok := table[key]; ok {
			return msg
		}
	}
	if msg, ok := messages[LocaleZH][key]; ok {
		return msg
	}
	return key
}

// Sprintf 翻译并格式化消息
func Sprintf(locale, key string, args ...interface{}) string {
	return fmt.Sprintf(T(locale, key), args...)
}
