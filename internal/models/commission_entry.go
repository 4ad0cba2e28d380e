package models

import "time"

// CommissionEntry 佣金条目（手工调整或由订单物化，永不删除）
type CommissionEntry struct {
	ID         uint      `gorm:"primarykey" json:"id"`                                                                               // 主键
	CrewUserID string    `gorm:"type:varchar(64);not null;index;index:idx_commission_entry_booking,unique" json:"crew_user_id"`      // 员工ID
	EntryDate  time.Time `gorm:"not null;index" json:"entry_date"`                                                                   // 入账日期
	Amount     Money     `gorm:"type:decimal(20,2);not null;default:0" json:"amount"`                                                // 金额（可为负）
	Notes      string    `gorm:"type:text" json:"notes"`                                                                             // 备注
	RecordedBy string    `gorm:"type:varchar(64);not null" json:"recorded_by"`                                                       // 录入人
	Status     string    `gorm:"type:varchar(32);not null;index" json:"status"`                                                      // 状态
	PayoutID   *uint     `gorm:"index" json:"payout_id,omitempty"`                                                                   // 所属结算批次
	Source     string    `gorm:"type:varchar(20);not null;default:'manual';index:idx_commission_entry_booking,unique" json:"source"` // 来源
	BookingID  *uint     `gorm:"index:idx_commission_entry_booking,unique" json:"booking_id,omitempty"`                              // 物化来源订单
	CreatedAt  time.Time `gorm:"index" json:"created_at"`                                                                            // 创建时间
	UpdatedAt  time.Time `json:"updated_at"`                                                                                         // 更新时间
}

// TableName 指定表名
func (CommissionEntry) TableName() string {
	return "commission_entries"
}
