package shared

import (
	"github.com/crewpay-next/internal/http/response"
	"github.com/crewpay-next/internal/i18n"
	"github.com/crewpay-next/internal/logger"
	"github.com/crewpay-next/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLog 提供携带 request_id 的日志实例。
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if c == nil {
		return logger.S()
	}
	if requestID, ok := c.Get("request_id"); ok {
		if id, ok := requestID.(string); ok && id != "" {
			return logger.SW("request_id", id)
		}
	}
	return logger.S()
}

// RespondError 返回国际化错误响应，并在有原始错误时记录日志。
func RespondError(c *gin.Context, code int, key string, err error) {
	msg := i18n.T(i18n.ResolveLocale(c), key)
	RespondErrorWithMsg(c, code, msg, err)
}

// RespondErrorWithMsg 返回自定义消息错误响应，并在有原始错误时记录日志。
func RespondErrorWithMsg(c *gin.Context, code int, msg string, err error) {
	appErr := response.WrapError(code, "", msg, err)
	if err != nil {
		RequestLog(c).Errorw("handler_error",
			"code", appErr.Code,
			"message", appErr.Message,
			"error", err,
		)
	}
	response.Error(c, appErr.Code, appErr.Message)
}

// RespondServiceError 按业务错误类别返回响应，data 中携带 kind 供调用方区分
func RespondServiceError(c *gin.Context, err error) {
	appErr := mapServiceError(i18n.ResolveLocale(c), err)
	if appErr.Code >= response.CodeInternal {
		RequestLog(c).Errorw("handler_service_error",
			"code", appErr.Code,
			"kind", appErr.Kind,
			"error", err,
		)
	} else {
		RequestLog(c).Infow("handler_service_rejected",
			"code", appErr.Code,
			"kind", appErr.Kind,
			"error", err,
		)
	}
	data := gin.H{}
	if appErr.Kind != "" {
		data["kind"] = appErr.Kind
	}
	response.ErrorWithData(c, appErr.Code, appErr.Message, data)
}

func mapServiceError(locale string, err error) *response.AppError {
	kind := service.ErrorKind(err)
	detail := service.ErrorDetail(err)
	switch kind {
	case service.ErrorKindValidation:
		return response.WrapError(response.CodeBadRequest, kind, i18n.Sprintf(locale, "error.validation", detail), err)
	case service.ErrorKindNotFound:
		return response.WrapError(response.CodeNotFound, kind, i18n.Sprintf(locale, "error.not_found", detail), err)
	case service.ErrorKindConcurrentModification:
		return response.WrapError(response.CodeConflict, kind, i18n.Sprintf(locale, "error.conflict", detail), err)
	case service.ErrorKindUpstreamUnavailable:
		return response.WrapError(response.CodeUnavailable, kind, i18n.T(locale, "error.upstream_unavailable"), err)
	case service.ErrorKindTimeout:
		return response.WrapError(response.CodeTimeout, kind, i18n.T(locale, "error.timeout"), err)
	default:
		return response.WrapError(response.CodeInternal, "", i18n.T(locale, "error.internal"), err)
	}
}

// RespondBindError 请求体解析失败按校验错误返回
func RespondBindError(c *gin.Context, err error) {
	locale := i18n.ResolveLocale(c)
	RequestLog(c).Infow("handler_bind_failed", "error", err)
	response.ErrorWithData(c, response.CodeBadRequest, i18n.T(locale, "error.bad_request"), gin.H{
		"kind": service.ErrorKindValidation,
	})
}
