package repository

import (
	"context"
	"time"

	"github.com/crewpay-next/internal/constants"
	"github.com/crewpay-next/internal/models"

	"gorm.io/gorm"
)

// BookingRepository 已完成订单只读接口
type BookingRepository interface {
	ListCompleted(ctx context.Context, start, end time.Time) ([]models.CompletedBooking, error)
}

// GormBookingRepository GORM 订单仓储
type GormBookingRepository struct {
	db *gorm.DB
}

// NewBookingRepository 创建订单仓储
func NewBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// ListCompleted 查询完成时间落在 [start, end] 内的已完成订单
func (r *GormBookingRepository) ListCompleted(ctx context.Context, start, end time.Time) ([]models.CompletedBooking, error) {
	var rows []models.CompletedBooking
	err := r.db.WithContext(ctx).
		Where("status = ?", constants.BookingStatusCompleted).
		Where("completed_at IS NOT NULL AND completed_at >= ? AND completed_at <= ?", start.UTC(), end.UTC()).
		Order("completed_at asc, id asc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
