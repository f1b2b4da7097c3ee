package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/glowsalon/booking-backend/internal/models"
)

func (r *GormRepo) CartItems(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	var items []models.CartItem
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// AddCartItem inserts the item and refreshes the expiry of the whole cart,
// since any write restarts the cart's time-to-live.
func (r *GormRepo) AddCartItem(ctx context.Context, item *models.CartItem, expiresAt time.Time) error {
	item.ExpiresAt = expiresAt
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(item).Error; err != nil {
			return err
		}
		return tx.Model(&models.CartItem{}).
			Where("user_id = ?", item.UserID).
			Update("expires_at", expiresAt).Error
	})
}

// AppendCartItems bulk-inserts items into a user cart (guest merge path).
// Items get fresh ids so guest-side identifiers never leak into the store.
func (r *GormRepo) AppendCartItems(ctx context.Context, userID uuid.UUID, items []models.CartItem, expiresAt time.Time) error {
	if len(items) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range items {
			items[i].ID = uuid.Nil
			items[i].UserID = userID
			items[i].ExpiresAt = expiresAt
			if err := tx.Create(&items[i]).Error; err != nil {
				return err
			}
		}
		return tx.Model(&models.CartItem{}).
			Where("user_id = ?", userID).
			Update("expires_at", expiresAt).Error
	})
}

func (r *GormRepo) RemoveCartItem(ctx context.Context, userID, itemID uuid.UUID, expiresAt time.Time) (bool, error) {
	removed := false
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND user_id = ?", itemID, userID).Delete(&models.CartItem{})
		if res.Error != nil {
			return res.Error
		}
		removed = res.RowsAffected > 0
		if !removed {
			return nil
		}
		return tx.Model(&models.CartItem{}).
			Where("user_id = ?", userID).
			Update("expires_at", expiresAt).Error
	})
	if err != nil {
		return false, err
	}
	return removed, nil
}

func (r *GormRepo) ClearCart(ctx context.Context, userID uuid.UUID) error {
	return r.DB.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.CartItem{}).Error
}

// PurgeExpiredCartItems is the sweep behind the external cleanup trigger.
// Deleting an already-deleted row is a no-op, so concurrent sweeps are safe.
func (r *GormRepo) PurgeExpiredCartItems(ctx context.Context, now time.Time) (int64, error) {
	res := r.DB.WithContext(ctx).Where("expires_at < ?", now).Delete(&models.CartItem{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
