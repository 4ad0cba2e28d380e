package models

import (
	"time"

	"gorm.io/datatypes"
)

// PayoutAuditLog 结算批次状态变更审计
// 说明：由异步任务根据状态变更事件写入，同一事件重复投递时按 event_key 去重。
type PayoutAuditLog struct {
	ID         uint           `gorm:"primarykey" json:"id"`
	EventKey   string         `gorm:"type:varchar(160);uniqueIndex;not null" json:"event_key"`
	PayoutID   uint           `gorm:"index;not null" json:"payout_id"`
	CrewUserID string         `gorm:"type:varchar(64);index;not null" json:"crew_user_id"`
	FromStatus string         `gorm:"type:varchar(32);not null;default:''" json:"from_status"`
	ToStatus   string         `gorm:"type:varchar(32);index;not null" json:"to_status"`
	Operator   string         `gorm:"type:varchar(64);index;not null;default:''" json:"operator"`
	EntryCount int64          `gorm:"not null;default:0" json:"entry_count"`
	DetailJSON datatypes.JSON `gorm:"type:json" json:"detail"`
	OccurredAt time.Time      `gorm:"index;not null" json:"occurred_at"`
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`
}

// TableName 指定表名
func (PayoutAuditLog) TableName() string {
	return "payout_audit_logs"
}
