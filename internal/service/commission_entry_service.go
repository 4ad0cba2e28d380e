package service

import (
	"context"
	"strings"
	"time"

	"github.com/crewpay-next/internal/constants"
	"github.com/crewpay-next/internal/logger"
	"github.com/crewpay-next/internal/models"
	"github.com/crewpay-next/internal/repository"

	"github.com/shopspring/decimal"
)

// CommissionEntryService 佣金条目台账服务
type CommissionEntryService struct {
	repo       repository.CommissionEntryRepository
	aggregator *CommissionAggregator
	policy     PayrollPolicy
}

// NewCommissionEntryService 创建佣金条目服务
func NewCommissionEntryService(repo repository.CommissionEntryRepository, aggregator *CommissionAggregator, policy PayrollPolicy) *CommissionEntryService {
	return &CommissionEntryService{repo: repo, aggregator: aggregator, policy: policy}
}

// CreateEntryInput 新建手工条目输入
type CreateEntryInput struct {
	CrewUserID string
	EntryDate  time.Time
	Amount     *decimal.Decimal
	Notes      string
	RecordedBy string
	Status     string
}

// EntryListQuery 条目列表查询
type EntryListQuery struct {
	Page       int
	PageSize   int
	CrewUserID string
	Status     string
	Source     string
	PayoutID   uint
	Unbatched  bool
	DateFrom   *time.Time
	DateTo     *time.Time
}

// MaterializeInput 物化订单佣金输入
type MaterializeInput struct {
	CrewUserID string
	Start      *time.Time
	End        *time.Time
	RecordedBy string
}

// MaterializeResult 物化结果
type MaterializeResult struct {
	Candidates int   `json:"candidates"`
	Created    int64 `json:"created"`
}

// CreateEntry 记录一条手工调整，状态无效时按 pending 处理
func (s *CommissionEntryService) CreateEntry(ctx context.Context, input CreateEntryInput) (*models.CommissionEntry, error) {
	crewUserID := strings.TrimSpace(input.CrewUserID)
	if crewUserID == "" {
		return nil, ErrCrewUserIDRequired
	}
	if input.Amount == nil {
		return nil, ErrAmountInvalid
	}
	if input.EntryDate.IsZero() {
		return nil, ErrEntryDateRequired
	}
	recordedBy := strings.TrimSpace(input.RecordedBy)
	if recordedBy == "" {
		return nil, ErrOperatorRequired
	}

	now := time.Now()
	entry := &models.CommissionEntry{
		CrewUserID: crewUserID,
		EntryDate:  input.EntryDate.UTC(),
		Amount:     models.NewMoneyFromDecimal(*input.Amount),
		Notes:      strings.TrimSpace(input.Notes),
		RecordedBy: recordedBy,
		Status:     statusOrPending(input.Status),
		Source:     constants.CommissionEntrySourceManual,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	callCtx, cancel := s.policy.withTimeout(ctx)
	defer cancel()
	if err := s.repo.Create(callCtx, entry); err != nil {
		return nil, classifyStoreError(callCtx, err)
	}
	invalidateSummaryCache(ctx)
	logger.Infow("commission_entry_created",
		"entry_id", entry.ID,
		"crew_user_id", crewUserID,
		"amount", entry.Amount.String(),
		"status", entry.Status,
		"recorded_by", recordedBy,
	)
	return entry, nil
}

// ListEntries 查询条目，按入账日期倒序
func (s *CommissionEntryService) ListEntries(ctx context.Context, query EntryListQuery) ([]models.CommissionEntry, int64, error) {
	status := ""
	if strings.TrimSpace(query.Status) != "" {
		normalized, ok := normalizeSettlementStatus(query.Status)
		if !ok {
			return nil, 0, ErrStatusInvalid
		}
		status = normalized
	}

	callCtx, cancel := s.policy.withTimeout(ctx)
	defer cancel()
	rows, total, err := s.repo.List(callCtx, repository.CommissionEntryListFilter{
		Page:       query.Page,
		PageSize:   query.PageSize,
		CrewUserID: query.CrewUserID,
		Status:     status,
		Source:     strings.ToLower(strings.TrimSpace(query.Source)),
		PayoutID:   query.PayoutID,
		Unbatched:  query.Unbatched,
		DateFrom:   query.DateFrom,
		DateTo:     query.DateTo,
	})
	if err != nil {
		return nil, 0, classifyStoreError(callCtx, err)
	}
	return rows, total, nil
}

// GetEntry 获取单个条目
func (s *CommissionEntryService) GetEntry(ctx context.Context, id uint) (*models.CommissionEntry, error) {
	callCtx, cancel := s.policy.withTimeout(ctx)
	defer cancel()
	entry, err := s.repo.GetByID(callCtx, id)
	if err != nil {
		return nil, classifyStoreError(callCtx, err)
	}
	if entry == nil {
		return nil, ErrEntryNotFound
	}
	return entry, nil
}

// UpdateEntryStatus 更新条目状态，状态未变化时不写库
func (s *CommissionEntryService) UpdateEntryStatus(ctx context.Context, id uint, rawStatus string) (*models.CommissionEntry, error) {
	nextStatus, ok := normalizeSettlementStatus(rawStatus)
	if !ok {
		return nil, ErrStatusInvalid
	}

	callCtx, cancel := s.policy.withTimeout(ctx)
	defer cancel()
	entry, err := s.repo.GetByID(callCtx, id)
	if err != nil {
		return nil, classifyStoreError(callCtx, err)
	}
	if entry == nil {
		return nil, ErrEntryNotFound
	}
	if entry.Status == nextStatus {
		return entry, nil
	}
	if err := s.policy.checkTransition(entry.Status, nextStatus); err != nil {
		return nil, err
	}
	now := time.Now()
	if err := s.repo.UpdateStatus(callCtx, id, nextStatus, now); err != nil {
		return nil, classifyStoreError(callCtx, err)
	}
	invalidateSummaryCache(ctx)
	logger.Infow("commission_entry_status_updated",
		"entry_id", id,
		"from", entry.Status,
		"to", nextStatus,
	)
	entry.Status = nextStatus
	entry.UpdatedAt = now
	return entry, nil
}

// MaterializeBookingEntries 将员工周期内的订单佣金写入台账，供结算批次认领
func (s *CommissionEntryService) MaterializeBookingEntries(ctx context.Context, input MaterializeInput) (*MaterializeResult, error) {
	crewUserID := strings.TrimSpace(input.CrewUserID)
	if crewUserID == "" {
		return nil, ErrCrewUserIDRequired
	}
	recordedBy := strings.TrimSpace(input.RecordedBy)
	if recordedBy == "" {
		return nil, ErrOperatorRequired
	}
	start, end, err := resolvePeriod(input.Start, input.End, time.Now(), s.policy.location())
	if err != nil {
		return nil, err
	}

	aggregate, err := s.aggregator.Aggregate(ctx, AggregateInput{
		Start:      start,
		End:        end,
		CrewUserID: crewUserID,
		WithLines:  true,
	})
	if err != nil {
		return nil, err
	}

	now := time.Now()
	entries := make([]models.CommissionEntry, 0, len(aggregate.Lines))
	for _, line := range aggregate.Lines {
		bookingID := line.BookingID
		entryDate := now
		if line.CompletedAt != nil {
			entryDate = *line.CompletedAt
		}
		entries = append(entries, models.CommissionEntry{
			CrewUserID: crewUserID,
			EntryDate:  entryDate.UTC(),
			Amount:     line.Commission,
			Notes:      line.ServiceType,
			RecordedBy: recordedBy,
			Status:     constants.SettlementStatusPending,
			Source:     constants.CommissionEntrySourceBooking,
			BookingID:  &bookingID,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}

	callCtx, cancel := s.policy.withTimeout(ctx)
	defer cancel()
	created, err := s.repo.CreateMaterialized(callCtx, entries)
	if err != nil {
		return nil, classifyStoreError(callCtx, err)
	}
	logger.Infow("commission_entries_materialized",
		"crew_user_id", crewUserID,
		"candidates", len(entries),
		"created", created,
		"recorded_by", recordedBy,
	)
	return &MaterializeResult{Candidates: len(entries), Created: created}, nil
}
