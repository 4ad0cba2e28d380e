package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/crewpay-next/internal/cache"
	"github.com/crewpay-next/internal/constants"
	"github.com/crewpay-next/internal/logger"
	"github.com/crewpay-next/internal/provider"
	"github.com/crewpay-next/internal/queue"
	"github.com/crewpay-next/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskPayoutStatusChanged, c.handlePayoutStatusChanged)
	mux.HandleFunc(queue.TaskSummaryWarmup, c.handleSummaryWarmup)
}

func (c *Consumer) handlePayoutStatusChanged(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_payout_status_changed_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.PayoutStatusChangedPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_payout_status_changed_unmarshal_failed", "error", err)
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	if payload.PayoutID == 0 {
		logger.Debugw("worker_payout_status_changed_skip_invalid_payload", "payout_id", payload.PayoutID)
		return nil
	}

	// 批次状态变化会改变汇总中的已结算数据，先失效缓存再记审计
	if err := cache.BumpNamespace(ctx, constants.CacheNamespaceSummary); err != nil {
		logger.Warnw("worker_payout_status_changed_cache_bump_failed", "payout_id", payload.PayoutID, "error", err)
	}

	if c.PayoutAuditService == nil {
		logger.Warnw("worker_payout_status_changed_skip_audit_service_nil", "payout_id", payload.PayoutID)
		return nil
	}
	created, err := c.PayoutAuditService.RecordStatusChange(ctx, payload)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrStatusInvalid):
			logger.Debugw("worker_payout_status_changed_skip_invalid_status", "payout_id", payload.PayoutID, "status", payload.Status)
			return nil
		default:
			logger.Warnw("worker_payout_status_changed_audit_failed", "payout_id", payload.PayoutID, "error", err)
			return err
		}
	}
	if !created {
		logger.Debugw("worker_payout_status_changed_skip_duplicate", "payout_id", payload.PayoutID, "status", payload.Status)
		return nil
	}
	logger.Infow("worker_payout_status_changed_recorded",
		"payout_id", payload.PayoutID,
		"crew_user_id", payload.CrewUserID,
		"from_status", payload.FromStatus,
		"status", payload.Status,
		"entry_count", payload.EntryCount,
	)
	return nil
}

func (c *Consumer) handleSummaryWarmup(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_summary_warmup_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.SummaryWarmupPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_summary_warmup_unmarshal_failed", "error", err)
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	if payload.Start.IsZero() || payload.End.IsZero() || !payload.End.After(payload.Start) {
		logger.Debugw("worker_summary_warmup_skip_invalid_payload", "start", payload.Start, "end", payload.End)
		return nil
	}
	if c.CommissionSummaryService == nil {
		logger.Warnw("worker_summary_warmup_skip_summary_service_nil")
		return nil
	}

	summary, err := c.CommissionSummaryService.Summary(ctx, service.SummaryQuery{
		Start:        &payload.Start,
		End:          &payload.End,
		ForceRefresh: true,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			logger.Debugw("worker_summary_warmup_skip_invalid_period", "start", payload.Start, "end", payload.End, "error", err)
			return nil
		default:
			logger.Warnw("worker_summary_warmup_failed", "start", payload.Start, "end", payload.End, "error", err)
			return err
		}
	}
	logger.Debugw("worker_summary_warmup_done",
		"start", payload.Start,
		"end", payload.End,
		"total_bookings", summary.TotalBookings,
		"degraded", summary.Degraded,
	)
	return nil
}

// refreshRates 重新加载佣金比例快照
func (c *Consumer) refreshRates(ctx context.Context) {
	if c == nil || c.Container == nil || c.RateResolver == nil {
		return
	}
	if err := c.RateResolver.Refresh(ctx); err != nil {
		logger.Warnw("worker_rate_refresh_failed", "error", err)
	}
}
