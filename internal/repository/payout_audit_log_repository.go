package repository

import (
	"context"

	"github.com/crewpay-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PayoutAuditLogRepository 结算批次审计日志数据访问接口
type PayoutAuditLogRepository interface {
	Create(ctx context.Context, log *models.PayoutAuditLog) (bool, error)
	ListByPayout(ctx context.Context, payoutID uint, page, pageSize int) ([]models.PayoutAuditLog, int64, error)
}

// GormPayoutAuditLogRepository GORM 实现
type GormPayoutAuditLogRepository struct {
	db *gorm.DB
}

// NewPayoutAuditLogRepository 创建审计日志仓库
func NewPayoutAuditLogRepository(db *gorm.DB) *GormPayoutAuditLogRepository {
	return &GormPayoutAuditLogRepository{db: db}
}

// Create 写入审计日志，event_key 已存在时忽略并返回 false
func (r *GormPayoutAuditLogRepository) Create(ctx context.Context, log *models.PayoutAuditLog) (bool, error) {
	if log == nil {
		return false, nil
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "event_key"}}, DoNothing: true}).
		Create(log)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ListByPayout 按批次查询审计日志，最新在前
func (r *GormPayoutAuditLogRepository) ListByPayout(ctx context.Context, payoutID uint, page, pageSize int) ([]models.PayoutAuditLog, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.PayoutAuditLog{}).Where("payout_id = ?", payoutID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	logs := make([]models.PayoutAuditLog, 0)
	if err := applyPagination(query, page, pageSize).
		Order("occurred_at desc").Order("id desc").
		Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}
