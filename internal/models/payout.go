package models

import "time"

// Payout 结算批次
type Payout struct {
	ID          uint       `gorm:"primarykey" json:"id"`                                      // 主键
	CrewUserID  string     `gorm:"type:varchar(64);not null;index" json:"crew_user_id"`       // 员工ID
	PeriodStart time.Time  `gorm:"not null;index" json:"period_start"`                        // 周期开始
	PeriodEnd   time.Time  `gorm:"not null;index" json:"period_end"`                          // 周期结束
	TotalAmount Money      `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"` // 结算金额（调用方提供）
	Status      string     `gorm:"type:varchar(32);not null;index" json:"status"`             // 状态
	CreatedBy   string     `gorm:"type:varchar(64);not null" json:"created_by"`               // 创建人
	ReleasedAt  *time.Time `gorm:"index" json:"released_at,omitempty"`                        // 发放时间
	Notes       string     `gorm:"type:text" json:"notes"`                                    // 备注
	CreatedAt   time.Time  `gorm:"index" json:"created_at"`                                   // 创建时间
	UpdatedAt   time.Time  `json:"updated_at"`                                                // 更新时间

	Entries []CommissionEntry `gorm:"foreignKey:PayoutID" json:"entries,omitempty"` // 关联条目
}

// TableName 指定表名
func (Payout) TableName() string {
	return "payouts"
}
