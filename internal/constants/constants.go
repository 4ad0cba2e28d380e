package constants

// 佣金条目与结算批次共用的状态
const (
	SettlementStatusPending  = "pending"
	SettlementStatusApproved = "approved"
	SettlementStatusReleased = "released"
	SettlementStatusDisputed = "disputed"
)

// 佣金条目来源
const (
	CommissionEntrySourceManual  = "manual"
	CommissionEntrySourceBooking = "booking"
)

// 订单（预约）状态
const (
	BookingStatusCompleted = "completed"
)

// 操作员角色
const (
	OperatorRoleAdmin   = "payroll_admin"
	OperatorRoleManager = "crew_manager"
	OperatorRoleViewer  = "payroll_viewer"
)

// 缓存命名空间
const (
	CacheNamespaceSummary = "commission_summary"
)

// 队列名称
const (
	QueueDefault  = "default"
	QueueCritical = "critical"
)

// 异步任务类型
const (
	TaskPayoutStatusChanged = "payout:status_changed"
	TaskSummaryWarmup       = "summary:warmup"
)
