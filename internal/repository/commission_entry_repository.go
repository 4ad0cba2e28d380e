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

// CommissionEntryRepository 佣金条目数据访问接口
type CommissionEntryRepository interface {
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) CommissionEntryRepository

	Create(ctx context.Context, entry *models.CommissionEntry) error
	CreateMaterialized(ctx context.Context, entries []models.CommissionEntry) (int64, error)
	GetByID(ctx context.Context, id uint) (*models.CommissionEntry, error)
	List(ctx context.Context, filter CommissionEntryListFilter) ([]models.CommissionEntry, int64, error)
	ListActiveManual(ctx context.Context, start, end time.Time, crewUserID string) ([]models.CommissionEntry, error)
	ListByIDsForUpdate(ctx context.Context, ids []uint) ([]models.CommissionEntry, error)
	ListByPayout(ctx context.Context, payoutID uint) ([]models.CommissionEntry, error)
	UpdateStatus(ctx context.Context, id uint, status string, updatedAt time.Time) error
	AttachToPayout(ctx context.Context, ids []uint, payoutID uint, status string, updatedAt time.Time) (int64, error)
	UpdateStatusByPayout(ctx context.Context, payoutID uint, status string, updatedAt time.Time) (int64, error)
}

// GormCommissionEntryRepository GORM 佣金条目仓储
type GormCommissionEntryRepository struct {
	db *gorm.DB
}

// NewCommissionEntryRepository 创建佣金条目仓储
func NewCommissionEntryRepository(db *gorm.DB) *GormCommissionEntryRepository {
	return &GormCommissionEntryRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCommissionEntryRepository) WithTx(tx *gorm.DB) CommissionEntryRepository {
	if tx == nil {
		return r
	}
	return &GormCommissionEntryRepository{db: tx}
}

// Transaction 执行事务
func (r *GormCommissionEntryRepository) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(fn)
}

// Create 创建条目
func (r *GormCommissionEntryRepository) Create(ctx context.Context, entry *models.CommissionEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// CreateMaterialized 批量写入订单物化条目，已存在的 (员工, 订单) 组合跳过
func (r *GormCommissionEntryRepository) CreateMaterialized(ctx context.Context, entries []models.CommissionEntry) (int64, error) {
	if len(entries) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&entries)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// GetByID 按ID获取条目
func (r *GormCommissionEntryRepository) GetByID(ctx context.Context, id uint) (*models.CommissionEntry, error) {
	if id == 0 {
		return nil, nil
	}
	var entry models.CommissionEntry
	if err := r.db.WithContext(ctx).First(&entry, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

// List 查询条目列表，按入账日期倒序
func (r *GormCommissionEntryRepository) List(ctx context.Context, filter CommissionEntryListFilter) ([]models.CommissionEntry, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.CommissionEntry{})
	if crewUserID := strings.TrimSpace(filter.CrewUserID); crewUserID != "" {
		query = query.Where("crew_user_id = ?", crewUserID)
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", status)
	}
	if source := strings.TrimSpace(filter.Source); source != "" {
		query = query.Where("source = ?", source)
	}
	if filter.PayoutID != 0 {
		query = query.Where("payout_id = ?", filter.PayoutID)
	}
	if filter.Unbatched {
		query = query.Where("payout_id IS NULL")
	}
	if filter.DateFrom != nil {
		query = query.Where("entry_date >= ?", filter.DateFrom.UTC())
	}
	if filter.DateTo != nil {
		query = query.Where("entry_date <= ?", filter.DateTo.UTC())
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var rows []models.CommissionEntry
	if err := query.Order("entry_date desc").Order("id desc").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// ListActiveManual 查询窗口内未争议的手工条目
func (r *GormCommissionEntryRepository) ListActiveManual(ctx context.Context, start, end time.Time, crewUserID string) ([]models.CommissionEntry, error) {
	query := r.db.WithContext(ctx).
		Where("source = ?", constants.CommissionEntrySourceManual).
		Where("status <> ?", constants.SettlementStatusDisputed).
		Where("entry_date >= ? AND entry_date <= ?", start.UTC(), end.UTC())
	if id := strings.TrimSpace(crewUserID); id != "" {
		query = query.Where("crew_user_id = ?", id)
	}
	var rows []models.CommissionEntry
	if err := query.Order("entry_date desc").Order("id desc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListByIDsForUpdate 加锁读取指定条目
func (r *GormCommissionEntryRepository) ListByIDsForUpdate(ctx context.Context, ids []uint) ([]models.CommissionEntry, error) {
	if len(ids) == 0 {
		return []models.CommissionEntry{}, nil
	}
	var rows []models.CommissionEntry
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id asc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListByPayout 查询批次下的条目
func (r *GormCommissionEntryRepository) ListByPayout(ctx context.Context, payoutID uint) ([]models.CommissionEntry, error) {
	if payoutID == 0 {
		return []models.CommissionEntry{}, nil
	}
	var rows []models.CommissionEntry
	if err := r.db.WithContext(ctx).Where("payout_id = ?", payoutID).Order("entry_date desc").Order("id desc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// UpdateStatus 更新单个条目状态
func (r *GormCommissionEntryRepository) UpdateStatus(ctx context.Context, id uint, status string, updatedAt time.Time) error {
	if id == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&models.CommissionEntry{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": updatedAt,
		}).Error
}

// AttachToPayout 仅在条目尚未归属批次时写入 payout_id，返回实际更新行数
func (r *GormCommissionEntryRepository) AttachToPayout(ctx context.Context, ids []uint, payoutID uint, status string, updatedAt time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Model(&models.CommissionEntry{}).
		Where("id IN ? AND payout_id IS NULL", ids).
		Updates(map[string]interface{}{
			"payout_id":  payoutID,
			"status":     status,
			"updated_at": updatedAt,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// UpdateStatusByPayout 同步批次下全部条目状态
func (r *GormCommissionEntryRepository) UpdateStatusByPayout(ctx context.Context, payoutID uint, status string, updatedAt time.Time) (int64, error) {
	if payoutID == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Model(&models.CommissionEntry{}).
		Where("payout_id = ?", payoutID).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": updatedAt,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
