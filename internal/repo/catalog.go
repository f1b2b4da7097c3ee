package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/glowsalon/booking-backend/internal/models"
)

func (r *GormRepo) CreateService(ctx context.Context, svc *models.Service) error {
	return r.DB.WithContext(ctx).Create(svc).Error
}

func (r *GormRepo) GetService(ctx context.Context, id uuid.UUID) (*models.Service, error) {
	var svc models.Service
	if err := r.DB.WithContext(ctx).First(&svc, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &svc, nil
}

func (r *GormRepo) ListServices(ctx context.Context, limit, offset int) ([]models.Service, error) {
	var services []models.Service
	err := r.DB.WithContext(ctx).
		Where("active").
		Order("name ASC").
		Limit(limit).Offset(offset).
		Find(&services).Error
	if err != nil {
		return nil, err
	}
	return services, nil
}
