package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/crewpay-next/internal/constants"
	"github.com/crewpay-next/internal/logger"
	"github.com/crewpay-next/internal/models"
	"github.com/crewpay-next/internal/queue"
	"github.com/crewpay-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PayoutService 结算批次服务
type PayoutService struct {
	repo        repository.PayoutRepository
	entryRepo   repository.CommissionEntryRepository
	queueClient *queue.Client
	policy      PayrollPolicy
}

// NewPayoutService 创建结算批次服务
func NewPayoutService(
	repo repository.PayoutRepository,
	entryRepo repository.CommissionEntryRepository,
	queueClient *queue.Client,
	policy PayrollPolicy,
) *PayoutService {
	return &PayoutService{
		repo:        repo,
		entryRepo:   entryRepo,
		queueClient: queueClient,
		policy:      policy,
	}
}

// CreatePayoutInput 创建结算批次输入
type CreatePayoutInput struct {
	CrewUserID  string
	PeriodStart time.Time
	PeriodEnd   time.Time
	TotalAmount *decimal.Decimal
	CreatedBy   string
	Status      string
	EntryIDs    []uint
	Notes       string
}

// PayoutListQuery 批次列表查询
type PayoutListQuery struct {
	Page       int
	PageSize   int
	CrewUserID string
	Status     string
	PeriodFrom *time.Time
	PeriodTo   *time.Time
}

// CreatePayout 在单个事务内创建批次并认领条目，任一条目缺失或已被认领时整体回滚
func (s *PayoutService) CreatePayout(ctx context.Context, input CreatePayoutInput) (*models.Payout, error) {
	crewUserID := strings.TrimSpace(input.CrewUserID)
	if crewUserID == "" {
		return nil, ErrCrewUserIDRequired
	}
	if input.PeriodStart.IsZero() || input.PeriodEnd.IsZero() || input.PeriodStart.After(input.PeriodEnd) {
		return nil, ErrPeriodInvalid
	}
	if input.TotalAmount == nil {
		return nil, ErrAmountInvalid
	}
	createdBy := strings.TrimSpace(input.CreatedBy)
	if createdBy == "" {
		return nil, ErrOperatorRequired
	}
	status := statusOrPending(input.Status)
	entryIDs := normalizeEntryIDs(input.EntryIDs)

	callCtx, cancel := s.policy.withTimeout(ctx)
	defer cancel()

	now := time.Now()
	payout := &models.Payout{
		CrewUserID:  crewUserID,
		PeriodStart: input.PeriodStart.UTC(),
		PeriodEnd:   input.PeriodEnd.UTC(),
		TotalAmount: models.NewMoneyFromDecimal(*input.TotalAmount),
		Status:      status,
		CreatedBy:   createdBy,
		Notes:       strings.TrimSpace(input.Notes),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if status == constants.SettlementStatusReleased {
		payout.ReleasedAt = &now
	}

	entrySum := decimal.Zero
	err := s.repo.Transaction(callCtx, func(tx *gorm.DB) error {
		payoutTx := s.repo.WithTx(tx)
		entryTx := s.entryRepo.WithTx(tx)

		if s.policy.UniquePayoutPerPeriod {
			exists, err := payoutTx.HasActiveForPeriod(callCtx, crewUserID, payout.PeriodStart, payout.PeriodEnd)
			if err != nil {
				return err
			}
			if exists {
				return ErrPayoutPeriodConflict
			}
		}

		entries, err := entryTx.ListByIDsForUpdate(callCtx, entryIDs)
		if err != nil {
			return err
		}
		if len(entries) != len(entryIDs) {
			return ErrEntryNotFound
		}
		for _, entry := range entries {
			if entry.CrewUserID != crewUserID {
				return ErrPayoutEntryCrewMismatch
			}
			if entry.PayoutID != nil {
				return ErrEntryAlreadyBatched
			}
			entrySum = entrySum.Add(entry.Amount.Decimal)
		}

		if err := payoutTx.Create(callCtx, payout); err != nil {
			return err
		}
		affected, err := entryTx.AttachToPayout(callCtx, entryIDs, payout.ID, status, now)
		if err != nil {
			return err
		}
		if affected != int64(len(entryIDs)) {
			return ErrEntryAlreadyBatched
		}
		return nil
	})
	if err != nil {
		classified := classifyStoreError(callCtx, err)
		logger.Warnw("payout_create_failed",
			"crew_user_id", crewUserID,
			"entry_ids", entryIDs,
			"kind", ErrorKind(classified),
			"error", err,
		)
		return nil, classified
	}

	if !entrySum.Round(2).Equal(payout.TotalAmount.Decimal) {
		logger.Warnw("payout_total_differs_from_entries",
			"payout_id", payout.ID,
			"total_amount", payout.TotalAmount.String(),
			"entries_sum", entrySum.Round(2).StringFixed(2),
		)
	}
	logger.Infow("payout_created",
		"payout_id", payout.ID,
		"crew_user_id", crewUserID,
		"status", status,
		"entry_count", len(entryIDs),
		"created_by", createdBy,
	)
	s.afterStatusChange(ctx, payout, "", createdBy, int64(len(entryIDs)))

	created, err := s.repo.GetByID(callCtx, payout.ID)
	if err != nil || created == nil {
		return payout, nil
	}
	return created, nil
}

// UpdatePayoutStatus 更新批次状态，发放时记录发放时间，并按策略同步条目状态
func (s *PayoutService) UpdatePayoutStatus(ctx context.Context, id uint, rawStatus, operator string) (*models.Payout, error) {
	nextStatus, ok := normalizeSettlementStatus(rawStatus)
	if !ok {
		return nil, ErrStatusInvalid
	}

	callCtx, cancel := s.policy.withTimeout(ctx)
	defer cancel()

	var (
		previous string
		changed  bool
		cascaded int64
		current  models.Payout
	)
	err := s.repo.Transaction(callCtx, func(tx *gorm.DB) error {
		payoutTx := s.repo.WithTx(tx)
		payout, err := payoutTx.GetByIDForUpdate(callCtx, id)
		if err != nil {
			return err
		}
		if payout == nil {
			return ErrPayoutNotFound
		}
		previous = payout.Status
		current = *payout
		if payout.Status == nextStatus {
			return nil
		}
		if err := s.policy.checkTransition(payout.Status, nextStatus); err != nil {
			return err
		}

		now := time.Now()
		var releasedAt *time.Time
		if nextStatus == constants.SettlementStatusReleased {
			releasedAt = &now
		}
		if err := payoutTx.UpdateStatus(callCtx, id, nextStatus, releasedAt, now); err != nil {
			return err
		}
		if s.policy.CascadePayoutStatus {
			affected, err := s.entryRepo.WithTx(tx).UpdateStatusByPayout(callCtx, id, nextStatus, now)
			if err != nil {
				return err
			}
			cascaded = affected
		}
		current.Status = nextStatus
		current.ReleasedAt = releasedAt
		current.UpdatedAt = now
		changed = true
		return nil
	})
	if err != nil {
		return nil, classifyStoreError(callCtx, err)
	}

	if changed {
		logger.Infow("payout_status_updated",
			"payout_id", id,
			"from", previous,
			"to", nextStatus,
			"cascaded_entries", cascaded,
			"operator", operator,
		)
		s.afterStatusChange(ctx, &current, previous, operator, cascaded)
	}

	payout, err := s.repo.GetByID(callCtx, id)
	if err != nil {
		return nil, classifyStoreError(callCtx, err)
	}
	if payout == nil {
		return nil, ErrPayoutNotFound
	}
	return payout, nil
}

// GetPayout 获取批次及其条目
func (s *PayoutService) GetPayout(ctx context.Context, id uint) (*models.Payout, error) {
	callCtx, cancel := s.policy.withTimeout(ctx)
	defer cancel()
	payout, err := s.repo.GetByID(callCtx, id)
	if err != nil {
		return nil, classifyStoreError(callCtx, err)
	}
	if payout == nil {
		return nil, ErrPayoutNotFound
	}
	return payout, nil
}

// ListPayouts 查询批次列表
func (s *PayoutService) ListPayouts(ctx context.Context, query PayoutListQuery) ([]models.Payout, int64, error) {
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
	rows, total, err := s.repo.List(callCtx, repository.PayoutListFilter{
		Page:       query.Page,
		PageSize:   query.PageSize,
		CrewUserID: query.CrewUserID,
		Status:     status,
		PeriodFrom: query.PeriodFrom,
		PeriodTo:   query.PeriodTo,
	})
	if err != nil {
		return nil, 0, classifyStoreError(callCtx, err)
	}
	return rows, total, nil
}

// afterStatusChange 提交后的副作用：缓存失效、事件推送与缓存预热，失败只记录日志
func (s *PayoutService) afterStatusChange(ctx context.Context, payout *models.Payout, fromStatus, operator string, entryCount int64) {
	if payout == nil {
		return
	}
	invalidateSummaryCache(ctx)
	if err := s.queueClient.EnqueuePayoutStatusChanged(queue.PayoutStatusChangedPayload{
		PayoutID:    payout.ID,
		CrewUserID:  payout.CrewUserID,
		FromStatus:  fromStatus,
		Status:      payout.Status,
		TotalAmount: payout.TotalAmount.String(),
		EntryCount:  entryCount,
		Operator:    operator,
		OccurredAt:  time.Now(),
	}); err != nil {
		logger.Warnw("payout_status_event_enqueue_failed", "payout_id", payout.ID, "error", err)
	}
	if err := s.queueClient.EnqueueSummaryWarmup(queue.SummaryWarmupPayload{
		Start: payout.PeriodStart,
		End:   payout.PeriodEnd,
	}); err != nil {
		logger.Warnw("summary_warmup_enqueue_failed", "payout_id", payout.ID, "error", err)
	}
}

func normalizeEntryIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
