package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/crewpay-next/internal/constants"
	"github.com/crewpay-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PayoutRepository 结算批次数据访问接口
type PayoutRepository interface {
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) PayoutRepository

	Create(ctx context.Context, payout *models.Payout) error
	GetByID(ctx context.Context, id uint) (*models.Payout, error)
	GetByIDForUpdate(ctx context.Context, id uint) (*models.Payout, error)
	List(ctx context.Context, filter PayoutListFilter) ([]models.Payout, int64, error)
	UpdateStatus(ctx context.Context, id uint, status string, releasedAt *time.Time, updatedAt time.Time) error
	HasActiveForPeriod(ctx context.Context, crewUserID string, periodStart, periodEnd time.Time) (bool, error)
}

// GormPayoutRepository GORM 结算批次仓储
type GormPayoutRepository struct {
	db *gorm.DB
}

// NewPayoutRepository 创建结算批次仓储
func NewPayoutRepository(db *gorm.DB) *GormPayoutRepository {
	return &GormPayoutRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPayoutRepository) WithTx(tx *gorm.DB) PayoutRepository {
	if tx == nil {
		return r
	}
	return &GormPayoutRepository{db: tx}
}

// Transaction 执行事务
func (r *GormPayoutRepository) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(fn)
}

// Create 创建批次
func (r *GormPayoutRepository) Create(ctx context.Context, payout *models.Payout) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(payout).Error
}

// GetByID 按ID获取批次（含条目）
func (r *GormPayoutRepository) GetByID(ctx context.Context, id uint) (*models.Payout, error) {
	if id == 0 {
		return nil, nil
	}
	var payout models.Payout
	err := r.db.WithContext(ctx).
		Preload("Entries", func(db *gorm.DB) *gorm.DB {
			return db.Order("entry_date desc").Order("id desc")
		}).
		First(&payout, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payout, nil
}

// GetByIDForUpdate 加锁获取批次
func (r *GormPayoutRepository) GetByIDForUpdate(ctx context.Context, id uint) (*models.Payout, error) {
	if id == 0 {
		return nil, nil
	}
	var payout models.Payout
	if err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&payout, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payout, nil
}

// List 查询批次列表
func (r *GormPayoutRepository) List(ctx context.Context, filter PayoutListFilter) ([]models.Payout, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Payout{})
	if crewUserID := strings.TrimSpace(filter.CrewUserID); crewUserID != "" {
		query = query.Where("crew_user_id = ?", crewUserID)
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", status)
	}
	if filter.PeriodFrom != nil {
		query = query.Where("period_end >= ?", filter.PeriodFrom.UTC())
	}
	if filter.PeriodTo != nil {
		query = query.Where("period_start <= ?", filter.PeriodTo.UTC())
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var rows []models.Payout
	if err := query.Order("period_start desc").Order("id desc").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// UpdateStatus 更新批次状态与发放时间
func (r *GormPayoutRepository) UpdateStatus(ctx context.Context, id uint, status string, releasedAt *time.Time, updatedAt time.Time) error {
	if id == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&models.Payout{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":      status,
			"released_at": releasedAt,
			"updated_at":  updatedAt,
		}).Error
}

// HasActiveForPeriod 判断员工在重叠周期内是否已有未争议批次
func (r *GormPayoutRepository) HasActiveForPeriod(ctx context.Context, crewUserID string, periodStart, periodEnd time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Payout{}).
		Where("crew_user_id = ?", strings.TrimSpace(crewUserID)).
		Where("status <> ?", constants.SettlementStatusDisputed).
		Where("period_start <= ? AND period_end >= ?", periodEnd.UTC(), periodStart.UTC()).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
