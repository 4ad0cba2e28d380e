package service

import (
	"context"
	"strings"
	"time"

	"github.com/crewpay-next/internal/config"
	"github.com/crewpay-next/internal/constants"
)

const defaultQueryTimeout = 5 * time.Second

// PayrollPolicy 结算引擎策略开关
type PayrollPolicy struct {
	Location              *time.Location
	QueryTimeout          time.Duration
	CascadePayoutStatus   bool
	AllowUnrelease        bool
	UniquePayoutPerPeriod bool
	SummaryCacheTTL       time.Duration
}

// DefaultPayrollPolicy 默认策略：UTC、批次状态级联、允许撤回发放、不限制同周期批次
func DefaultPayrollPolicy() PayrollPolicy {
	return PayrollPolicy{
		Location:            time.UTC,
		QueryTimeout:        defaultQueryTimeout,
		CascadePayoutStatus: true,
		AllowUnrelease:      true,
		SummaryCacheTTL:     30 * time.Second,
	}
}

// PayrollPolicyFromConfig 从配置构建策略
func PayrollPolicyFromConfig(cfg config.PayrollConfig) PayrollPolicy {
	policy := PayrollPolicy{
		Location:              cfg.Location(),
		QueryTimeout:          cfg.QueryTimeout(),
		CascadePayoutStatus:   cfg.CascadePayoutStatus,
		AllowUnrelease:        cfg.AllowUnrelease,
		UniquePayoutPerPeriod: cfg.UniquePayoutPerPeriod,
	}
	if cfg.SummaryCacheSeconds > 0 {
		policy.SummaryCacheTTL = time.Duration(cfg.SummaryCacheSeconds) * time.Second
	}
	return policy
}

func (p PayrollPolicy) location() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}

// TimeLocation 结算时区，未配置时为 UTC
func (p PayrollPolicy) TimeLocation() *time.Location {
	return p.location()
}

// withTimeout 为单次存储调用附加超时
func (p PayrollPolicy) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	timeout := p.QueryTimeout
	if timeout <= 0 {
		timeout = defaultQueryTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

// checkTransition 校验状态流转，默认允许任意流转
func (p PayrollPolicy) checkTransition(current, next string) error {
	if p.AllowUnrelease {
		return nil
	}
	if current == constants.SettlementStatusReleased && next != constants.SettlementStatusReleased {
		return ErrStatusTransitionForbidden
	}
	return nil
}

// normalizeSettlementStatus 规范化状态值，大小写不敏感
func normalizeSettlementStatus(raw string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case constants.SettlementStatusPending:
		return constants.SettlementStatusPending, true
	case constants.SettlementStatusApproved:
		return constants.SettlementStatusApproved, true
	case constants.SettlementStatusReleased:
		return constants.SettlementStatusReleased, true
	case constants.SettlementStatusDisputed:
		return constants.SettlementStatusDisputed, true
	default:
		return "", false
	}
}

// statusOrPending 无效或为空的状态回退为 pending
func statusOrPending(raw string) string {
	if status, ok := normalizeSettlementStatus(raw); ok {
		return status
	}
	return constants.SettlementStatusPending
}
