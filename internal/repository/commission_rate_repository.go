package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/crewpay-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CommissionRateRepository 佣金比例数据访问接口
type CommissionRateRepository interface {
	ListActive(ctx context.Context) ([]models.CommissionRate, error)
	ListAll(ctx context.Context) ([]models.CommissionRate, error)
	GetByServiceType(ctx context.Context, serviceType string) (*models.CommissionRate, error)
	Upsert(ctx context.Context, rate *models.CommissionRate) error
}

// GormCommissionRateRepository GORM 佣金比例仓储
type GormCommissionRateRepository struct {
	db *gorm.DB
}

// NewCommissionRateRepository 创建佣金比例仓储
func NewCommissionRateRepository(db *gorm.DB) *GormCommissionRateRepository {
	return &GormCommissionRateRepository{db: db}
}

// ListActive 查询全部生效比例
func (r *GormCommissionRateRepository) ListActive(ctx context.Context) ([]models.CommissionRate, error) {
	var rows []models.CommissionRate
	if err := r.db.WithContext(ctx).Where("active = ?", true).Order("service_type asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListAll 查询全部比例（含停用）
func (r *GormCommissionRateRepository) ListAll(ctx context.Context) ([]models.CommissionRate, error) {
	var rows []models.CommissionRate
	if err := r.db.WithContext(ctx).Order("service_type asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// GetByServiceType 按服务类型获取比例
func (r *GormCommissionRateRepository) GetByServiceType(ctx context.Context, serviceType string) (*models.CommissionRate, error) {
	normalized := strings.ToLower(strings.TrimSpace(serviceType))
	if normalized == "" {
		return nil, nil
	}
	var rate models.CommissionRate
	if err := r.db.WithContext(ctx).Where("service_type = ?", normalized).First(&rate).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rate, nil
}

// Upsert 按服务类型新增或覆盖比例
func (r *GormCommissionRateRepository) Upsert(ctx context.Context, rate *models.CommissionRate) error {
	if rate == nil {
		return nil
	}
	rate.ServiceType = strings.ToLower(strings.TrimSpace(rate.ServiceType))
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "service_type"}},
		DoUpdates: clause.AssignmentColumns([]string{"rate_percent", "active", "updated_by", "updated_at"}),
	}).Create(rate).Error
}
