package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/glowsalon/booking-backend/internal/models"
)

func (r *GormRepo) GetReferralCodeByUser(ctx context.Context, userID uuid.UUID) (*models.ReferralCode, error) {
	var rc models.ReferralCode
	if err := r.DB.WithContext(ctx).Where("user_id = ?", userID).First(&rc).Error; err != nil {
		return nil, err
	}
	return &rc, nil
}

func (r *GormRepo) GetReferralCodeByCode(ctx context.Context, code string) (*models.ReferralCode, error) {
	var rc models.ReferralCode
	if err := r.DB.WithContext(ctx).Where("code = ?", code).First(&rc).Error; err != nil {
		return nil, err
	}
	return &rc, nil
}

func (r *GormRepo) CreateReferralCode(ctx context.Context, rc *models.ReferralCode) error {
	return r.DB.WithContext(ctx).Create(rc).Error
}

func (r *GormRepo) ListReferralCodes(ctx context.Context) ([]models.ReferralCode, error) {
	var codes []models.ReferralCode
	if err := r.DB.WithContext(ctx).Order("created_at DESC").Find(&codes).Error; err != nil {
		return nil, err
	}
	return codes, nil
}

func (r *GormRepo) IncrementReferralUsage(ctx context.Context, id uuid.UUID) error {
	return r.DB.WithContext(ctx).Model(&models.ReferralCode{}).
		Where("id = ?", id).
		Update("usage_count", gorm.Expr("usage_count + 1")).Error
}

func (r *GormRepo) CreateReward(ctx context.Context, reward *models.ReferralReward) error {
	return r.DB.WithContext(ctx).Create(reward).Error
}

func (r *GormRepo) HasReward(ctx context.Context, referrerID, referredID uuid.UUID) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&models.ReferralReward{}).
		Where("referrer_id = ? AND referred_id = ?", referrerID, referredID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormRepo) SumRewardPoints(ctx context.Context, referrerID uuid.UUID) (int64, error) {
	var total int64
	err := r.DB.WithContext(ctx).Model(&models.ReferralReward{}).
		Where("referrer_id = ?", referrerID).
		Select("COALESCE(SUM(points), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (r *GormRepo) CountUniqueReferrals(ctx context.Context, referrerID uuid.UUID) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&models.ReferralReward{}).
		Where("referrer_id = ?", referrerID).
		Distinct("referred_id").
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
