package models

import "time"

// CommissionRate 服务类型佣金比例
type CommissionRate struct {
	ID          uint      `gorm:"primarykey" json:"id"`                                       // 主键
	ServiceType string    `gorm:"type:varchar(120);uniqueIndex;not null" json:"service_type"` // 服务类型（小写）
	RatePercent Money     `gorm:"type:decimal(10,2);not null;default:0" json:"rate_percent"`  // 佣金比例（百分比）
	Active      bool      `gorm:"not null;index" json:"active"`                               // 是否生效
	UpdatedBy   string    `gorm:"type:varchar(64)" json:"updated_by"`                         // 最后修改人
	CreatedAt   time.Time `json:"created_at"`                                                 // 创建时间
	UpdatedAt   time.Time `json:"updated_at"`                                                 // 更新时间
}

// TableName 指定表名
func (CommissionRate) TableName() string {
	return "commission_rates"
}
