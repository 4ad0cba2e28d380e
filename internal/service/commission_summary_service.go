package service

import (
	"context"
	"strings"
	"time"

	"github.com/crewpay-next/internal/cache"
	"github.com/crewpay-next/internal/constants"
	"github.com/crewpay-next/internal/logger"
	"github.com/crewpay-next/internal/models"
)

// CommissionSummaryService 佣金汇总报表服务
// 说明：读取失败时返回结构完整的零值汇总，仅当全部数据源不可用时报错。
type CommissionSummaryService struct {
	aggregator *CommissionAggregator
	policy     PayrollPolicy
	now        func() time.Time
}

// NewCommissionSummaryService 创建佣金汇总服务
func NewCommissionSummaryService(aggregator *CommissionAggregator, policy PayrollPolicy) *CommissionSummaryService {
	return &CommissionSummaryService{aggregator: aggregator, policy: policy, now: time.Now}
}

// SummaryPeriod 汇总周期
type SummaryPeriod struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// CommissionSummary 佣金汇总
type CommissionSummary struct {
	Period          SummaryPeriod             `json:"period"`
	TotalBookings   int64                     `json:"total_bookings"`
	TotalRevenue    models.Money              `json:"total_revenue"`
	TotalCommission models.Money              `json:"total_commission"`
	CrewCount       int64                     `json:"crew_count"`
	Crew            []CrewCommissionBucket    `json:"crew"`
	Breakdown       []ServiceCommissionBucket `json:"breakdown"`
	Degraded        bool                      `json:"degraded"`
	FailedSources   []string                  `json:"failed_sources,omitempty"`
}

// CrewPayroll 单个员工的周期结算明细
type CrewPayroll struct {
	Period            SummaryPeriod            `json:"period"`
	CrewID            string                   `json:"crew_id"`
	CrewName          string                   `json:"crew_name"`
	TotalBookings     int64                    `json:"total_bookings"`
	TotalRevenue      models.Money             `json:"total_revenue"`
	TotalCommission   models.Money             `json:"total_commission"`
	BookingCommission models.Money             `json:"booking_commission"`
	ManualCommission  models.Money             `json:"manual_commission"`
	Bookings          []BookingCommissionLine  `json:"bookings"`
	ManualEntries     []models.CommissionEntry `json:"manual_entries"`
	Degraded          bool                     `json:"degraded"`
	FailedSources     []string                 `json:"failed_sources,omitempty"`
}

// SummaryQuery 汇总查询参数，起止时间为空时使用当前结算周期
type SummaryQuery struct {
	Start        *time.Time
	End          *time.Time
	ForceRefresh bool
}

// CurrentWindow 返回参考时间所在结算周期
func (s *CommissionSummaryService) CurrentWindow(at *time.Time) PayrollWindow {
	reference := s.now()
	if at != nil {
		reference = *at
	}
	return PayrollWindowFor(reference, s.policy.location())
}

// Summary 生成周期佣金汇总
func (s *CommissionSummaryService) Summary(ctx context.Context, query SummaryQuery) (*CommissionSummary, error) {
	start, end, err := resolvePeriod(query.Start, query.End, s.now(), s.policy.location())
	if err != nil {
		return nil, err
	}
	period := SummaryPeriod{Start: start, End: end}

	cacheKey := ""
	if version, cacheErr := cache.NamespaceVersion(ctx, constants.CacheNamespaceSummary); cacheErr != nil {
		logger.Warnw("commission_summary_cache_version_failed", "error", cacheErr)
	} else {
		cacheKey = cache.VersionedKey(constants.CacheNamespaceSummary, version,
			start.UTC().Format(time.RFC3339Nano), end.UTC().Format(time.RFC3339Nano))
	}
	if cacheKey != "" && !query.ForceRefresh {
		var cached CommissionSummary
		hit, cacheErr := cache.GetJSON(ctx, cacheKey, &cached)
		if cacheErr == nil && hit {
			return &cached, nil
		}
	}

	aggregate, err := s.aggregator.Aggregate(ctx, AggregateInput{
		Start:               start,
		End:                 end,
		IncludeUnattributed: true,
	})
	if err != nil {
		sourceErr, ok := asAggregateSourceError(err)
		if !ok {
			return nil, err
		}
		if sourceErr.AllSourcesFailed() {
			logger.Errorw("commission_summary_all_sources_failed", "error", sourceErr)
			return nil, ErrUpstreamUnavailable
		}
		logger.Warnw("commission_summary_degraded",
			"failed_sources", strings.Join(sourceErr.Failed, ","),
			"start", start,
			"end", end,
			"error", sourceErr.Err,
		)
		return zeroSummary(period, sourceErr.Failed), nil
	}

	summary := &CommissionSummary{
		Period:          period,
		TotalBookings:   aggregate.TotalBookings,
		TotalRevenue:    aggregate.TotalRevenue,
		TotalCommission: aggregate.TotalCommission,
		CrewCount:       int64(len(aggregate.Crew)),
		Crew:            aggregate.Crew,
		Breakdown:       aggregate.Services,
	}
	if cacheKey != "" {
		if cacheErr := cache.SetJSON(ctx, cacheKey, summary, s.policy.SummaryCacheTTL); cacheErr != nil {
			logger.Warnw("commission_summary_cache_write_failed", "error", cacheErr)
		}
	}
	return summary, nil
}

// CrewPayroll 生成单个员工的周期结算明细
func (s *CommissionSummaryService) CrewPayroll(ctx context.Context, crewUserID string, start, end *time.Time) (*CrewPayroll, error) {
	crewID := strings.TrimSpace(crewUserID)
	if crewID == "" {
		return nil, ErrCrewUserIDRequired
	}
	from, to, err := resolvePeriod(start, end, s.now(), s.policy.location())
	if err != nil {
		return nil, err
	}
	payroll := &CrewPayroll{
		Period:            SummaryPeriod{Start: from, End: to},
		CrewID:            crewID,
		CrewName:          crewID,
		TotalRevenue:      models.ZeroMoney(),
		TotalCommission:   models.ZeroMoney(),
		BookingCommission: models.ZeroMoney(),
		ManualCommission:  models.ZeroMoney(),
		Bookings:          []BookingCommissionLine{},
		ManualEntries:     []models.CommissionEntry{},
	}

	aggregate, err := s.aggregator.Aggregate(ctx, AggregateInput{
		Start:      from,
		End:        to,
		CrewUserID: crewID,
		WithLines:  true,
	})
	if err != nil {
		sourceErr, ok := asAggregateSourceError(err)
		if !ok {
			return nil, err
		}
		if sourceErr.AllSourcesFailed() {
			logger.Errorw("crew_payroll_all_sources_failed", "crew_user_id", crewID, "error", sourceErr)
			return nil, ErrUpstreamUnavailable
		}
		logger.Warnw("crew_payroll_degraded",
			"crew_user_id", crewID,
			"failed_sources", strings.Join(sourceErr.Failed, ","),
			"error", sourceErr.Err,
		)
		payroll.Degraded = true
		payroll.FailedSources = sourceErr.Failed
		return payroll, nil
	}

	if profile := aggregate.CrewDirectory[crewID]; profile != nil {
		payroll.CrewName = profile.Name()
	}
	payroll.TotalBookings = aggregate.TotalBookings
	payroll.TotalRevenue = aggregate.TotalRevenue
	payroll.Bookings = aggregate.Lines
	if aggregate.ManualEntries != nil {
		payroll.ManualEntries = aggregate.ManualEntries
	}
	for _, bucket := range aggregate.Crew {
		if bucket.CrewID != crewID {
			continue
		}
		payroll.TotalCommission = bucket.TotalCommission
		payroll.BookingCommission = bucket.BookingCommission
		payroll.ManualCommission = bucket.ManualCommission
	}
	return payroll, nil
}

func zeroSummary(period SummaryPeriod, failed []string) *CommissionSummary {
	return &CommissionSummary{
		Period:          period,
		TotalRevenue:    models.ZeroMoney(),
		TotalCommission: models.ZeroMoney(),
		Crew:            []CrewCommissionBucket{},
		Breakdown:       []ServiceCommissionBucket{},
		Degraded:        true,
		FailedSources:   failed,
	}
}
