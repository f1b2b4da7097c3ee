package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/glowsalon/booking-backend/internal/events"
	"github.com/glowsalon/booking-backend/internal/logging"
	"github.com/glowsalon/booking-backend/internal/models"
	"github.com/glowsalon/booking-backend/internal/repo"
)

type CheckoutStatus string

const (
	CheckoutStarted           CheckoutStatus = "started"
	CheckoutDiscountValidated CheckoutStatus = "discount_validated"
	CheckoutPaymentRequested  CheckoutStatus = "payment_requested"
	CheckoutConfirmed         CheckoutStatus = "confirmed"
	CheckoutFailed            CheckoutStatus = "failed"
)

// PaymentClient is the external payment collaborator.
type PaymentClient interface {
	Charge(ctx context.Context, amount int64, currency, reference string) error
}

// EventPublisher publishes domain events; a nil publisher disables them.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

// CheckoutService walks one checkout attempt through
// started -> discount_validated -> payment_requested -> confirmed | failed.
// Discount usage is consumed during validation; payment failure afterwards
// leaves the slot spent but touches nothing else. Referral rewards and cart
// clearing happen only after confirmation.
type CheckoutService struct {
	Cart      *CartService
	Discounts *DiscountService
	Referrals *ReferralService
	Repo      *repo.GormRepo
	Payments  PaymentClient
	Events    EventPublisher

	now func() time.Time
}

func NewCheckoutService(cart *CartService, discounts *DiscountService, referrals *ReferralService, r *repo.GormRepo, payments PaymentClient, events EventPublisher) *CheckoutService {
	return &CheckoutService{
		Cart:      cart,
		Discounts: discounts,
		Referrals: referrals,
		Repo:      r,
		Payments:  payments,
		Events:    events,
		now:       time.Now,
	}
}

type CheckoutInput struct {
	UserID       uuid.UUID
	DiscountCode string
	ReferralCode string
	Currency     string
}

type CheckoutResult struct {
	Status         CheckoutStatus `json:"status"`
	BookingID      uuid.UUID      `json:"booking_id,omitempty"`
	Total          int64          `json:"total"`
	DiscountAmount int64          `json:"discount_amount"`
	FinalTotal     int64          `json:"final_total"`
	AppliedCode    string         `json:"applied_code,omitempty"`
	RewardRecorded bool           `json:"reward_recorded"`
}

// Checkout runs one attempt. Bookings require an authenticated identity;
// guests merge their cart at login before checking out.
func (s *CheckoutService) Checkout(ctx context.Context, in CheckoutInput) (*CheckoutResult, error) {
	l := logging.FromContext(ctx).With("component", "checkout")

	if in.UserID == uuid.Nil {
		return &CheckoutResult{Status: CheckoutFailed}, fmt.Errorf("%w: checkout requires an authenticated user", ErrNotAuthorized)
	}
	currency := in.Currency
	if currency == "" {
		currency = "USD"
	}

	owner := UserOwner(in.UserID)

	// started: capture the cart total, honoring only unexpired items
	items, err := s.Cart.CheckoutItems(ctx, owner)
	if err != nil {
		return &CheckoutResult{Status: CheckoutFailed}, err
	}
	if len(items) == 0 {
		return &CheckoutResult{Status: CheckoutFailed}, ErrEmptyCart
	}
	var total int64
	for _, it := range items {
		total += it.Price
	}

	result := &CheckoutResult{Status: CheckoutStarted, Total: total, FinalTotal: total}

	// discount_validated: any rejection is terminal and leaves the cart
	// untouched
	if in.DiscountCode != "" {
		applied, err := s.Discounts.ValidateAndApply(ctx, in.DiscountCode, total)
		if err != nil {
			result.Status = CheckoutFailed
			return result, err
		}
		result.DiscountAmount = applied.DiscountAmount
		result.FinalTotal = applied.FinalTotal
		result.AppliedCode = applied.Code
	}
	result.Status = CheckoutDiscountValidated

	// payment_requested: a failure here must not clear the cart or grant
	// rewards; the discount slot stays consumed by policy
	result.Status = CheckoutPaymentRequested
	bookingID := uuid.New()
	if err := s.Payments.Charge(ctx, result.FinalTotal, currency, bookingID.String()); err != nil {
		result.Status = CheckoutFailed
		return result, fmt.Errorf("%w: %v", ErrPaymentFailed, err)
	}

	// confirmed
	booking := &models.Booking{
		ID:             bookingID,
		UserID:         in.UserID,
		Total:          total,
		DiscountCode:   result.AppliedCode,
		DiscountAmount: result.DiscountAmount,
		FinalTotal:     result.FinalTotal,
		Currency:       currency,
		Status:         models.BookingStatusConfirmed,
	}
	if err := s.Repo.CreateBooking(ctx, booking); err != nil {
		result.Status = CheckoutFailed
		return result, err
	}
	result.Status = CheckoutConfirmed
	result.BookingID = booking.ID

	if err := s.Cart.Clear(ctx, owner); err != nil {
		l.Error("clear_cart_after_checkout", "error", err, "user_id", in.UserID)
	}

	result.RewardRecorded = s.maybeReward(ctx, in, booking)

	s.publish(ctx, events.TopicCheckout, in.UserID.String(), map[string]any{
		"type":            "checkout_confirmed",
		"booking_id":      booking.ID,
		"user_id":         in.UserID,
		"total":           total,
		"discount_amount": result.DiscountAmount,
		"final_total":     result.FinalTotal,
	})

	return result, nil
}

// maybeReward grants the referrer's reward when this checkout is the
// qualifying event: a referral code was supplied, it belongs to someone else,
// and this is the referred user's first confirmed booking. The unique
// (referrer, referred) pair keeps retries and races at-most-once. Reward
// failures never fail a confirmed checkout.
func (s *CheckoutService) maybeReward(ctx context.Context, in CheckoutInput, booking *models.Booking) bool {
	if in.ReferralCode == "" {
		return false
	}
	l := logging.FromContext(ctx).With("component", "checkout.reward")

	rc, err := s.Repo.GetReferralCodeByCode(ctx, in.ReferralCode)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		l.Warn("referral_code_not_found", "code", in.ReferralCode)
		return false
	}
	if err != nil {
		l.Error("referral_code_lookup", "error", err)
		return false
	}
	if rc.UserID == in.UserID {
		l.Warn("self_referral_ignored", "user_id", in.UserID)
		return false
	}

	confirmed, err := s.Repo.CountConfirmedBookings(ctx, in.UserID)
	if err != nil {
		l.Error("count_bookings", "error", err)
		return false
	}
	if confirmed != 1 {
		// only the first completed booking qualifies
		return false
	}

	if _, err := s.Referrals.RecordReward(ctx, rc.UserID, in.UserID, rc.PointsPerReferral); err != nil {
		if errors.Is(err, ErrConflict) {
			return false
		}
		l.Error("record_reward", "error", err)
		return false
	}

	if err := s.Repo.IncrementReferralUsage(ctx, rc.ID); err != nil {
		l.Error("increment_referral_usage", "error", err)
	}

	s.publish(ctx, events.TopicReferral, rc.UserID.String(), map[string]any{
		"type":        "referral_reward_recorded",
		"referrer_id": rc.UserID,
		"referred_id": in.UserID,
		"points":      rc.PointsPerReferral,
		"booking_id":  booking.ID,
	})
	return true
}

func (s *CheckoutService) publish(ctx context.Context, topic, key string, event map[string]any) {
	if s.Events == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.Events.PublishEvent(pubCtx, topic, key, event); err != nil {
		logging.FromContext(ctx).Error("publish_event", "topic", topic, "error", err)
	}
}
