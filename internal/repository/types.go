package repository

import "time"

// CommissionEntryListFilter 查询佣金条目列表的过滤条件
type CommissionEntryListFilter struct {
	Page       int
	PageSize   int
	CrewUserID string
	Status     string
	Source     string
	PayoutID   uint
	Unbatched  bool
	DateFrom   *time.Time
	DateTo     *time.Time
}

// PayoutListFilter 查询结算批次列表的过滤条件
type PayoutListFilter struct {
	Page       int
	PageSize   int
	CrewUserID string
	Status     string
	PeriodFrom *time.Time
	PeriodTo   *time.Time
}
