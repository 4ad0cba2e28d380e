package queue

import (
	"encoding/json"
	"time"

	"github.com/crewpay-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskPayoutStatusChanged 结算批次状态变更事件
	TaskPayoutStatusChanged = constants.TaskPayoutStatusChanged
	// TaskSummaryWarmup 汇总缓存预热任务
	TaskSummaryWarmup = constants.TaskSummaryWarmup
)

// PayoutStatusChangedPayload 结算批次状态变更载荷
type PayoutStatusChangedPayload struct {
	PayoutID    uint      `json:"payout_id"`
	CrewUserID  string    `json:"crew_user_id"`
	FromStatus  string    `json:"from_status"`
	Status      string    `json:"status"`
	TotalAmount string    `json:"total_amount"`
	EntryCount  int64     `json:"entry_count"`
	Operator    string    `json:"operator"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// SummaryWarmupPayload 汇总缓存预热载荷
type SummaryWarmupPayload struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewPayoutStatusChangedTask 创建结算批次状态变更任务
func NewPayoutStatusChangedTask(payload PayoutStatusChangedPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPayoutStatusChanged, body), nil
}

// NewSummaryWarmupTask 创建汇总缓存预热任务
func NewSummaryWarmupTask(payload SummaryWarmupPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSummaryWarmup, body), nil
}
