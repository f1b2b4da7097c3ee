package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/glowsalon/booking-backend/internal/models"
)

func (r *GormRepo) GetDiscountByCode(ctx context.Context, code string) (*models.DiscountCode, error) {
	var dc models.DiscountCode
	if err := r.DB.WithContext(ctx).Where("code = ?", code).First(&dc).Error; err != nil {
		return nil, err
	}
	return &dc, nil
}

func (r *GormRepo) CreateDiscount(ctx context.Context, dc *models.DiscountCode) error {
	return r.DB.WithContext(ctx).Create(dc).Error
}

func (r *GormRepo) ListDiscounts(ctx context.Context) ([]models.DiscountCode, error) {
	var codes []models.DiscountCode
	if err := r.DB.WithContext(ctx).Order("created_at DESC").Find(&codes).Error; err != nil {
		return nil, err
	}
	return codes, nil
}

func (r *GormRepo) SetDiscountActive(ctx context.Context, code string, active bool) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&models.DiscountCode{}).
		Where("code = ?", code).
		Update("active", active)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ConsumeDiscountUsage increments used_count under the same guard that
// validated it. A zero RowsAffected means a concurrent checkout claimed the
// last remaining use (or the code was deactivated in between).
func (r *GormRepo) ConsumeDiscountUsage(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&models.DiscountCode{}).
		Where("id = ? AND active AND (max_uses IS NULL OR used_count < max_uses)", id).
		Update("used_count", gorm.Expr("used_count + 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
