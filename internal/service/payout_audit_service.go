package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/crewpay-next/internal/models"
	"github.com/crewpay-next/internal/queue"
	"github.com/crewpay-next/internal/repository"

	"gorm.io/datatypes"
)

// PayoutAuditService 结算批次审计服务
type PayoutAuditService struct {
	repo   repository.PayoutAuditLogRepository
	policy PayrollPolicy
}

// NewPayoutAuditService 创建审计服务
func NewPayoutAuditService(repo repository.PayoutAuditLogRepository, policy PayrollPolicy) *PayoutAuditService {
	return &PayoutAuditService{repo: repo, policy: policy}
}

// RecordStatusChange 根据状态变更事件写入审计，重复事件返回 false
func (s *PayoutAuditService) RecordStatusChange(ctx context.Context, event queue.PayoutStatusChangedPayload) (bool, error) {
	if s == nil || s.repo == nil {
		return false, nil
	}
	if event.PayoutID == 0 || strings.TrimSpace(event.Status) == "" {
		return false, ErrStatusInvalid
	}
	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}
	occurredAt = occurredAt.UTC()

	detail, err := json.Marshal(map[string]interface{}{
		"total_amount": event.TotalAmount,
	})
	if err != nil {
		return false, err
	}

	callCtx, cancel := s.policy.withTimeout(ctx)
	defer cancel()
	created, err := s.repo.Create(callCtx, &models.PayoutAuditLog{
		EventKey:   payoutAuditEventKey(event.PayoutID, event.Status, occurredAt),
		PayoutID:   event.PayoutID,
		CrewUserID: strings.TrimSpace(event.CrewUserID),
		FromStatus: event.FromStatus,
		ToStatus:   event.Status,
		Operator:   strings.TrimSpace(event.Operator),
		EntryCount: event.EntryCount,
		DetailJSON: datatypes.JSON(detail),
		OccurredAt: occurredAt,
		CreatedAt:  time.Now(),
	})
	if err != nil {
		return false, classifyStoreError(callCtx, err)
	}
	return created, nil
}

// ListForPayout 查询批次的状态变更审计
func (s *PayoutAuditService) ListForPayout(ctx context.Context, payoutID uint, page, pageSize int) ([]models.PayoutAuditLog, int64, error) {
	if payoutID == 0 {
		return nil, 0, ErrPayoutNotFound
	}
	callCtx, cancel := s.policy.withTimeout(ctx)
	defer cancel()
	rows, total, err := s.repo.ListByPayout(callCtx, payoutID, page, pageSize)
	if err != nil {
		return nil, 0, classifyStoreError(callCtx, err)
	}
	return rows, total, nil
}

func payoutAuditEventKey(payoutID uint, status string, occurredAt time.Time) string {
	return fmt.Sprintf("%d:%s:%d", payoutID, status, occurredAt.UnixNano())
}
