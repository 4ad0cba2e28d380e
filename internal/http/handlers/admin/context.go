package admin

import (
	"time"

	handlershared "github.com/crewpay-next/internal/http/handlers/shared"
	"github.com/crewpay-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

func getOperatorID(c *gin.Context) (string, bool) {
	return handlershared.GetOperatorID(c)
}

func parseIDParam(c *gin.Context) (uint, bool) {
	id, ok := handlershared.ParseUintParam(c.Param("id"))
	if !ok {
		respondError(c, response.CodeBadRequest, "error.id_invalid", nil)
		return 0, false
	}
	return id, true
}

// parseTimeQuery 读取时间查询参数，格式错误时直接写入 400 响应
func (h *Handler) parseTimeQuery(c *gin.Context, key string, endOfDay bool) (*time.Time, bool) {
	parsed, err := handlershared.ParseTimeNullable(c.Query(key), h.Policy.TimeLocation(), endOfDay)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.time_invalid", nil)
		return nil, false
	}
	return parsed, true
}

// parseTimeField 解析请求体中的时间字段
func (h *Handler) parseTimeField(c *gin.Context, raw string, endOfDay bool) (*time.Time, bool) {
	parsed, err := handlershared.ParseTimeNullable(raw, h.Policy.TimeLocation(), endOfDay)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.time_invalid", nil)
		return nil, false
	}
	return parsed, true
}
