package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/glowsalon/booking-backend/internal/models"
)

func (r *GormRepo) CreateBooking(ctx context.Context, booking *models.Booking) error {
	return r.DB.WithContext(ctx).Create(booking).Error
}

func (r *GormRepo) CountConfirmedBookings(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&models.Booking{}).
		Where("user_id = ? AND status = ?", userID, models.BookingStatusConfirmed).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormRepo) ListBookings(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}
