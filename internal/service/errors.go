package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/crewpay-next/internal/repository"
)

// 错误类别，接口层按类别映射状态码
var (
	ErrValidation             = errors.New("validation error")
	ErrNotFound               = errors.New("not found")
	ErrConcurrentModification = errors.New("concurrent modification")
	ErrUpstreamUnavailable    = errors.New("upstream unavailable")
	ErrTimeout                = errors.New("timeout")
)

// 错误类别名称
const (
	ErrorKindValidation             = "ValidationError"
	ErrorKindNotFound               = "NotFound"
	ErrorKindConcurrentModification = "ConcurrentModification"
	ErrorKindUpstreamUnavailable    = "UpstreamUnavailable"
	ErrorKindTimeout                = "Timeout"
)

// kindError 具体业务错误，通过 Unwrap 归属到错误类别
type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() error { return e.kind }

func newKindError(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

// 校验类错误
var (
	ErrCrewUserIDRequired        = newKindError(ErrValidation, "crew_user_id is required")
	ErrOperatorRequired          = newKindError(ErrValidation, "operator identity is required")
	ErrAmountInvalid             = newKindError(ErrValidation, "amount must be a finite number")
	ErrEntryDateRequired         = newKindError(ErrValidation, "entry_date is required")
	ErrStatusInvalid             = newKindError(ErrValidation, "status is invalid")
	ErrStatusTransitionForbidden = newKindError(ErrValidation, "status transition is not allowed")
	ErrPeriodInvalid             = newKindError(ErrValidation, "period_start must not be after period_end")
	ErrServiceTypeRequired       = newKindError(ErrValidation, "service_type is required")
	ErrRatePercentInvalid        = newKindError(ErrValidation, "rate_percent must be between 0 and 100")
	ErrPayoutEntryCrewMismatch   = newKindError(ErrValidation, "entry belongs to another crew member")
	ErrPayoutPeriodConflict      = newKindError(ErrValidation, "an active payout already covers this period")
)

// 资源不存在类错误
var (
	ErrEntryNotFound  = newKindError(ErrNotFound, "commission entry not found")
	ErrPayoutNotFound = newKindError(ErrNotFound, "payout not found")
)

// 并发冲突类错误
var (
	ErrEntryAlreadyBatched = newKindError(ErrConcurrentModification, "commission entry already belongs to a payout")
)

// ErrorKind 返回错误所属类别名称，未知错误返回空字符串
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return ErrorKindValidation
	case errors.Is(err, ErrNotFound):
		return ErrorKindNotFound
	case errors.Is(err, ErrConcurrentModification):
		return ErrorKindConcurrentModification
	case errors.Is(err, ErrTimeout):
		return ErrorKindTimeout
	case errors.Is(err, ErrUpstreamUnavailable):
		return ErrorKindUpstreamUnavailable
	default:
		return ""
	}
}

// classifyStoreError 将存储层错误归类为业务错误类别
func classifyStoreError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if ErrorKind(err) != "" {
		return err
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded), ctx != nil && errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	case repository.IsConflictError(err):
		return fmt.Errorf("%w: %v", ErrConcurrentModification, err)
	default:
		return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
}

// ErrorDetail 返回可对外展示的错误描述，存储层原始错误只暴露其类别
func ErrorDetail(err error) string {
	var ke *kindError
	if errors.As(err, &ke) {
		return ke.msg
	}
	for _, kind := range []error{ErrValidation, ErrNotFound, ErrConcurrentModification, ErrTimeout, ErrUpstreamUnavailable} {
		if errors.Is(err, kind) {
			return kind.Error()
		}
	}
	return ""
}
