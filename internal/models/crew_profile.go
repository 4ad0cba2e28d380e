package models

// CrewProfile 员工档案（由员工目录维护，本服务只读）
type CrewProfile struct {
	CrewUserID                      string `gorm:"primarykey;type:varchar(64)" json:"crew_user_id"`                         // 员工ID
	DisplayName                     string `gorm:"type:varchar(120)" json:"display_name"`                                   // 显示名称
	IndividualCommissionRatePercent Money  `gorm:"type:decimal(10,2);not null;default:0" json:"individual_commission_rate"` // 个人佣金比例
}

// TableName 指定表名
func (CrewProfile) TableName() string {
	return "crew_profiles"
}

// Name 返回展示名称，为空时回退到员工ID
func (p *CrewProfile) Name() string {
	if p == nil {
		return ""
	}
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.CrewUserID
}
