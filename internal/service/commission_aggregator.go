package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/crewpay-next/internal/models"
	"github.com/crewpay-next/internal/repository"

	"github.com/shopspring/decimal"
)

// 聚合数据源
const (
	aggregateSourceBookings = "bookings"
	aggregateSourceCrew     = "crew_directory"
	aggregateSourceRates    = "commission_rates"
	aggregateSourceEntries  = "commission_entries"

	aggregateSourceCount = 4

	unspecifiedServiceType = "unspecified"
)

// AggregateSourceError 部分数据源读取失败
type AggregateSourceError struct {
	Failed []string
	Err    error
}

func (e *AggregateSourceError) Error() string {
	return fmt.Sprintf("aggregate sources failed [%s]: %v", strings.Join(e.Failed, ","), e.Err)
}

func (e *AggregateSourceError) Unwrap() error { return e.Err }

// AllSourcesFailed 是否全部数据源不可用
func (e *AggregateSourceError) AllSourcesFailed() bool {
	return e != nil && len(e.Failed) >= aggregateSourceCount
}

// AggregateInput 聚合输入
type AggregateInput struct {
	Start               time.Time
	End                 time.Time
	CrewUserID          string
	IncludeUnattributed bool
	WithLines           bool
}

// CrewCommissionBucket 员工维度汇总
type CrewCommissionBucket struct {
	CrewID            string       `json:"crew_id"`
	CrewName          string       `json:"crew_name"`
	TotalRevenue      models.Money `json:"total_revenue"`
	TotalCommission   models.Money `json:"total_commission"`
	BookingCommission models.Money `json:"booking_commission"`
	ManualCommission  models.Money `json:"manual_commission"`
	TotalBookings     int64        `json:"total_bookings"`
	ManualEntryCount  int64        `json:"manual_entry_count"`
}

// ServiceCommissionBucket 服务类型维度汇总
type ServiceCommissionBucket struct {
	ServiceType     string       `json:"service_type"`
	BookingCount    int64        `json:"booking_count"`
	TotalRevenue    models.Money `json:"total_revenue"`
	TotalCommission models.Money `json:"total_commission"`
}

// BookingCommissionLine 单个订单对单个员工的佣金明细
type BookingCommissionLine struct {
	BookingID   uint         `json:"booking_id"`
	CrewID      string       `json:"crew_id"`
	ServiceType string       `json:"service_type"`
	Category    string       `json:"category"`
	Revenue     models.Money `json:"revenue"`
	RatePercent models.Money `json:"rate_percent"`
	Commission  models.Money `json:"commission"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
}

// CommissionAggregate 聚合结果
type CommissionAggregate struct {
	Start           time.Time
	End             time.Time
	TotalBookings   int64
	TotalRevenue    models.Money
	TotalCommission models.Money
	Crew            []CrewCommissionBucket
	Services        []ServiceCommissionBucket
	Lines           []BookingCommissionLine
	ManualEntries   []models.CommissionEntry
	CrewDirectory   map[string]*models.CrewProfile
}

// CommissionAggregator 佣金聚合器
type CommissionAggregator struct {
	bookingRepo repository.BookingRepository
	crewRepo    repository.CrewRepository
	entryRepo   repository.CommissionEntryRepository
	resolver    *RateResolver
	policy      PayrollPolicy
}

// NewCommissionAggregator 创建佣金聚合器
func NewCommissionAggregator(
	bookingRepo repository.BookingRepository,
	crewRepo repository.CrewRepository,
	entryRepo repository.CommissionEntryRepository,
	resolver *RateResolver,
	policy PayrollPolicy,
) *CommissionAggregator {
	return &CommissionAggregator{
		bookingRepo: bookingRepo,
		crewRepo:    crewRepo,
		entryRepo:   entryRepo,
		resolver:    resolver,
		policy:      policy,
	}
}

type crewAccumulator struct {
	revenue           decimal.Decimal
	bookingCommission decimal.Decimal
	manualCommission  decimal.Decimal
	bookings          int64
	manualEntries     int64
}

type serviceAccumulator struct {
	revenue    decimal.Decimal
	commission decimal.Decimal
	bookings   map[uint]struct{}
}

type aggregateSources struct {
	bookings []models.CompletedBooking
	crew     map[string]*models.CrewProfile
	entries  []models.CommissionEntry
}

// Aggregate 计算周期内的佣金汇总；任一数据源失败时返回 *AggregateSourceError
func (a *CommissionAggregator) Aggregate(ctx context.Context, input AggregateInput) (*CommissionAggregate, error) {
	if input.Start.After(input.End) {
		return nil, ErrPeriodInvalid
	}
	crewFilter := strings.TrimSpace(input.CrewUserID)

	sources, err := a.load(ctx, input.Start, input.End, crewFilter)
	if err != nil {
		return nil, err
	}

	crewAcc := map[string]*crewAccumulator{}
	serviceAcc := map[string]*serviceAccumulator{}
	totalRevenue := decimal.Zero
	totalCommission := decimal.Zero
	var totalBookings int64
	lines := make([]BookingCommissionLine, 0)

	bucketFor := func(crewID string) *crewAccumulator {
		acc, ok := crewAcc[crewID]
		if !ok {
			acc = &crewAccumulator{}
			crewAcc[crewID] = acc
		}
		return acc
	}

	for i := range sources.bookings {
		booking := &sources.bookings[i]
		revenue := booking.TotalRevenue.Decimal
		crewIDs := booking.CrewIDs()
		if crewFilter != "" {
			if !crewIDs.Contains(crewFilter) {
				continue
			}
			crewIDs = models.CrewIDSet{crewFilter}
		}

		if len(crewIDs) == 0 {
			if input.IncludeUnattributed && crewFilter == "" {
				totalBookings++
				totalRevenue = totalRevenue.Add(revenue)
			}
			continue
		}
		totalBookings++
		totalRevenue = totalRevenue.Add(revenue)

		serviceKey := normalizeRateKey(booking.ServiceType)
		if serviceKey == "" {
			serviceKey = unspecifiedServiceType
		}
		svc, ok := serviceAcc[serviceKey]
		if !ok {
			svc = &serviceAccumulator{bookings: map[uint]struct{}{}}
			serviceAcc[serviceKey] = svc
		}
		svc.bookings[booking.ID] = struct{}{}

		for _, crewID := range crewIDs {
			rate := a.resolver.Resolve(booking.ServiceType, booking.Category, sources.crew[crewID])
			commission := CalculateCommission(revenue, rate)

			acc := bucketFor(crewID)
			acc.revenue = acc.revenue.Add(revenue)
			acc.bookingCommission = acc.bookingCommission.Add(commission)
			acc.bookings++

			svc.revenue = svc.revenue.Add(revenue)
			svc.commission = svc.commission.Add(commission)
			totalCommission = totalCommission.Add(commission)

			if input.WithLines {
				lines = append(lines, BookingCommissionLine{
					BookingID:   booking.ID,
					CrewID:      crewID,
					ServiceType: booking.ServiceType,
					Category:    booking.Category,
					Revenue:     models.NewMoneyFromDecimal(revenue),
					RatePercent: models.NewMoneyFromDecimal(rate),
					Commission:  models.NewMoneyFromDecimal(commission),
					CompletedAt: booking.CompletedAt,
				})
			}
		}
	}

	for _, entry := range sources.entries {
		crewID := strings.TrimSpace(entry.CrewUserID)
		if crewID == "" || (crewFilter != "" && crewID != crewFilter) {
			continue
		}
		acc := bucketFor(crewID)
		acc.manualCommission = acc.manualCommission.Add(entry.Amount.Decimal)
		acc.manualEntries++
		totalCommission = totalCommission.Add(entry.Amount.Decimal)
	}

	result := &CommissionAggregate{
		Start:           input.Start,
		End:             input.End,
		TotalBookings:   totalBookings,
		TotalRevenue:    models.NewMoneyFromDecimal(totalRevenue),
		TotalCommission: models.NewMoneyFromDecimal(totalCommission),
		Crew:            buildCrewBuckets(crewAcc, sources.crew),
		Services:        buildServiceBuckets(serviceAcc),
		Lines:           lines,
		CrewDirectory:   sources.crew,
	}
	if input.WithLines {
		result.ManualEntries = sources.entries
	}
	return result, nil
}

// load 读取全部数据源，逐个记录失败而不提前返回
func (a *CommissionAggregator) load(ctx context.Context, start, end time.Time, crewFilter string) (*aggregateSources, error) {
	sources := &aggregateSources{crew: map[string]*models.CrewProfile{}}
	failed := make([]string, 0)
	var firstErr error
	record := func(source string, callCtx context.Context, err error) {
		failed = append(failed, source)
		if firstErr == nil {
			firstErr = classifyStoreError(callCtx, err)
		}
	}

	{
		callCtx, cancel := a.policy.withTimeout(ctx)
		bookings, err := a.bookingRepo.ListCompleted(callCtx, start, end)
		if err != nil {
			record(aggregateSourceBookings, callCtx, err)
		} else {
			sources.bookings = bookings
		}
		cancel()
	}
	{
		callCtx, cancel := a.policy.withTimeout(ctx)
		profiles, err := a.crewRepo.List(callCtx)
		if err != nil {
			record(aggregateSourceCrew, callCtx, err)
		} else {
			for i := range profiles {
				sources.crew[profiles[i].CrewUserID] = &profiles[i]
			}
		}
		cancel()
	}
	{
		callCtx, cancel := a.policy.withTimeout(ctx)
		if err := a.resolver.EnsureLoaded(callCtx); err != nil {
			record(aggregateSourceRates, callCtx, err)
		}
		cancel()
	}
	{
		callCtx, cancel := a.policy.withTimeout(ctx)
		entries, err := a.entryRepo.ListActiveManual(callCtx, start, end, crewFilter)
		if err != nil {
			record(aggregateSourceEntries, callCtx, err)
		} else {
			sources.entries = entries
		}
		cancel()
	}

	if len(failed) > 0 {
		return nil, &AggregateSourceError{Failed: failed, Err: firstErr}
	}
	return sources, nil
}

func buildCrewBuckets(acc map[string]*crewAccumulator, directory map[string]*models.CrewProfile) []CrewCommissionBucket {
	buckets := make([]CrewCommissionBucket, 0, len(acc))
	for crewID, item := range acc {
		name := crewID
		if profile := directory[crewID]; profile != nil {
			name = profile.Name()
		}
		buckets = append(buckets, CrewCommissionBucket{
			CrewID:            crewID,
			CrewName:          name,
			TotalRevenue:      models.NewMoneyFromDecimal(item.revenue),
			TotalCommission:   models.NewMoneyFromDecimal(item.bookingCommission.Add(item.manualCommission)),
			BookingCommission: models.NewMoneyFromDecimal(item.bookingCommission),
			ManualCommission:  models.NewMoneyFromDecimal(item.manualCommission),
			TotalBookings:     item.bookings,
			ManualEntryCount:  item.manualEntries,
		})
	}
	sort.SliceStable(buckets, func(i, j int) bool {
		cmp := buckets[i].TotalCommission.Cmp(buckets[j].TotalCommission.Decimal)
		if cmp != 0 {
			return cmp > 0
		}
		return buckets[i].CrewID < buckets[j].CrewID
	})
	return buckets
}

func buildServiceBuckets(acc map[string]*serviceAccumulator) []ServiceCommissionBucket {
	buckets := make([]ServiceCommissionBucket, 0, len(acc))
	for serviceType, item := range acc {
		buckets = append(buckets, ServiceCommissionBucket{
			ServiceType:     serviceType,
			BookingCount:    int64(len(item.bookings)),
			TotalRevenue:    models.NewMoneyFromDecimal(item.revenue),
			TotalCommission: models.NewMoneyFromDecimal(item.commission),
		})
	}
	sort.SliceStable(buckets, func(i, j int) bool {
		cmp := buckets[i].TotalCommission.Cmp(buckets[j].TotalCommission.Decimal)
		if cmp != 0 {
			return cmp > 0
		}
		return buckets[i].ServiceType < buckets[j].ServiceType
	})
	return buckets
}

// asAggregateSourceError 提取部分失败信息
func asAggregateSourceError(err error) (*AggregateSourceError, bool) {
	var sourceErr *AggregateSourceError
	if errors.As(err, &sourceErr) {
		return sourceErr, true
	}
	return nil, false
}
