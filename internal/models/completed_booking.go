package models

import (
	"time"

	"gorm.io/datatypes"
)

// CompletedBooking 预约订单（由订单系统维护，本服务只读）
type CompletedBooking struct {
	ID              uint           `gorm:"primarykey" json:"id"`                                       // 主键
	ServiceType     string         `gorm:"type:varchar(120);index" json:"service_type"`                // 服务类型
	Category        string         `gorm:"type:varchar(120)" json:"category"`                          // 服务分类
	TotalRevenue    Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_revenue"` // 订单收入
	Status          string         `gorm:"type:varchar(32);index" json:"status"`                       // 订单状态
	CompletedAt     *time.Time     `gorm:"index" json:"completed_at,omitempty"`                        // 完成时间
	AssignedCrewIDs datatypes.JSON `gorm:"column:assigned_crew_ids" json:"assigned_crew_ids"`          // 指派员工（JSON 数组）
}

// TableName 指定表名
func (CompletedBooking) TableName() string {
	return "bookings"
}

// CrewIDs 解析指派员工集合
func (b *CompletedBooking) CrewIDs() CrewIDSet {
	if b == nil {
		return CrewIDSet{}
	}
	return ParseCrewIDSet(b.AssignedCrewIDs)
}
