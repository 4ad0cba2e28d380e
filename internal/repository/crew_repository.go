package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/crewpay-next/internal/models"

	"gorm.io/gorm"
)

// CrewRepository 员工目录只读接口
type CrewRepository interface {
	GetByID(ctx context.Context, crewUserID string) (*models.CrewProfile, error)
	List(ctx context.Context) ([]models.CrewProfile, error)
}

// GormCrewRepository GORM 员工目录仓储
type GormCrewRepository struct {
	db *gorm.DB
}

// NewCrewRepository 创建员工目录仓储
func NewCrewRepository(db *gorm.DB) *GormCrewRepository {
	return &GormCrewRepository{db: db}
}

// GetByID 按员工ID获取档案
func (r *GormCrewRepository) GetByID(ctx context.Context, crewUserID string) (*models.CrewProfile, error) {
	id := strings.TrimSpace(crewUserID)
	if id == "" {
		return nil, nil
	}
	var profile models.CrewProfile
	if err := r.db.WithContext(ctx).Where("crew_user_id = ?", id).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

// List 查询全部员工档案
func (r *GormCrewRepository) List(ctx context.Context) ([]models.CrewProfile, error) {
	var rows []models.CrewProfile
	if err := r.db.WithContext(ctx).Order("crew_user_id asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
