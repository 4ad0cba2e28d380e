package service

import (
	"context"
	"strings"
	"time"

	"github.com/crewpay-next/internal/cache"
	"github.com/crewpay-next/internal/constants"
	"github.com/crewpay-next/internal/logger"
	"github.com/crewpay-next/internal/models"
	"github.com/crewpay-next/internal/repository"

	"github.com/shopspring/decimal"
)

var maxRatePercent = decimal.NewFromInt(100)

// CommissionRateService 佣金比例管理服务
type CommissionRateService struct {
	repo     repository.CommissionRateRepository
	resolver *RateResolver
	policy   PayrollPolicy
}

// NewCommissionRateService 创建佣金比例服务
func NewCommissionRateService(repo repository.CommissionRateRepository, resolver *RateResolver, policy PayrollPolicy) *CommissionRateService {
	return &CommissionRateService{repo: repo, resolver: resolver, policy: policy}
}

// UpsertRateInput 新增或覆盖比例输入
type UpsertRateInput struct {
	ServiceType string
	RatePercent decimal.Decimal
	Active      *bool
	Operator    string
}

// ListActiveRates 查询生效比例
func (s *CommissionRateService) ListActiveRates(ctx context.Context) ([]models.CommissionRate, error) {
	return s.ListRates(ctx, false)
}

// ListRates 查询比例列表
func (s *CommissionRateService) ListRates(ctx context.Context, includeInactive bool) ([]models.CommissionRate, error) {
	callCtx, cancel := s.policy.withTimeout(ctx)
	defer cancel()

	var (
		rows []models.CommissionRate
		err  error
	)
	if includeInactive {
		rows, err = s.repo.ListAll(callCtx)
	} else {
		rows, err = s.repo.ListActive(callCtx)
	}
	if err != nil {
		return nil, classifyStoreError(callCtx, err)
	}
	return rows, nil
}

// UpsertRate 新增或覆盖服务类型比例，成功后刷新解析器快照
func (s *CommissionRateService) UpsertRate(ctx context.Context, input UpsertRateInput) (*models.CommissionRate, error) {
	serviceType := normalizeRateKey(input.ServiceType)
	if serviceType == "" {
		return nil, ErrServiceTypeRequired
	}
	if input.RatePercent.IsNegative() || input.RatePercent.GreaterThan(maxRatePercent) {
		return nil, ErrRatePercentInvalid
	}
	operator := strings.TrimSpace(input.Operator)
	if operator == "" {
		return nil, ErrOperatorRequired
	}
	active := true
	if input.Active != nil {
		active = *input.Active
	}

	callCtx, cancel := s.policy.withTimeout(ctx)
	defer cancel()

	now := time.Now()
	rate := &models.CommissionRate{
		ServiceType: serviceType,
		RatePercent: models.NewMoneyFromDecimal(input.RatePercent),
		Active:      active,
		UpdatedBy:   operator,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Upsert(callCtx, rate); err != nil {
		return nil, classifyStoreError(callCtx, err)
	}
	saved, err := s.repo.GetByServiceType(callCtx, serviceType)
	if err != nil {
		return nil, classifyStoreError(callCtx, err)
	}
	if err := s.resolver.Refresh(callCtx); err != nil {
		logger.Warnw("commission_rate_resolver_refresh_failed", "service_type", serviceType, "error", err)
	}
	invalidateSummaryCache(ctx)
	logger.Infow("commission_rate_upserted",
		"service_type", serviceType,
		"rate_percent", rate.RatePercent.String(),
		"active", active,
		"operator", operator,
	)
	return saved, nil
}

// invalidateSummaryCache 使佣金汇总缓存失效
func invalidateSummaryCache(ctx context.Context) {
	if err := cache.BumpNamespace(ctx, constants.CacheNamespaceSummary); err != nil {
		logger.Warnw("commission_summary_cache_invalidate_failed", "error", err)
	}
}
