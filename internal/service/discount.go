package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/glowsalon/booking-backend/internal/models"
	"github.com/glowsalon/booking-backend/internal/repo"
)

// DiscountService validates discount codes against a cart total and consumes
// usage slots. It knows nothing about carts or users beyond the amount it is
// handed.
//
// Usage is consumed at validation time, not at payment confirmation. Two
// concurrent checkouts racing for the last use of a code therefore cannot
// both win, at the cost of a spent slot when a checkout is abandoned after
// validation.
type DiscountService struct {
	Repo *repo.GormRepo

	now func() time.Time
}

func NewDiscountService(r *repo.GormRepo) *DiscountService {
	return &DiscountService{Repo: r, now: time.Now}
}

type DiscountResult struct {
	Code           string `json:"code"`
	DiscountAmount int64  `json:"discount_amount"`
	FinalTotal     int64  `json:"final_total"`
}

func CanonicalCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidateAndApply checks the code against the cart total in a fixed order
// (existence, active, expiry, usage cap, minimum) and, on success, atomically
// increments the usage counter. The increment re-checks the cap so a
// concurrent application cannot push usage past max_uses.
func (s *DiscountService) ValidateAndApply(ctx context.Context, code string, cartTotal int64) (*DiscountResult, error) {
	if cartTotal < 0 {
		return nil, fmt.Errorf("%w: cart total must be >= 0", ErrValidation)
	}

	canonical := CanonicalCode(code)
	if canonical == "" {
		return nil, fmt.Errorf("%w: code required", ErrValidation)
	}

	dc, err := s.Repo.GetDiscountByCode(ctx, canonical)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCodeNotFound
	}
	if err != nil {
		return nil, err
	}

	if !dc.Active {
		return nil, ErrCodeInactive
	}
	if dc.ExpiresAt != nil && s.now().After(*dc.ExpiresAt) {
		return nil, ErrCodeExpired
	}
	if dc.MaxUses != nil && dc.UsedCount >= *dc.MaxUses {
		return nil, ErrUsageLimitReached
	}
	if dc.MinAmount != nil && cartTotal < *dc.MinAmount {
		return nil, &BelowMinimumError{Minimum: *dc.MinAmount}
	}

	discount := computeDiscount(dc, cartTotal)

	consumed, err := s.Repo.ConsumeDiscountUsage(ctx, dc.ID)
	if err != nil {
		return nil, err
	}
	if !consumed {
		// lost the race for the last remaining use
		return nil, ErrUsageLimitReached
	}

	return &DiscountResult{
		Code:           dc.Code,
		DiscountAmount: discount,
		FinalTotal:     cartTotal - discount,
	}, nil
}

// computeDiscount truncates toward zero on percentages and clamps fixed
// amounts so the final total never goes negative.
func computeDiscount(dc *models.DiscountCode, cartTotal int64) int64 {
	switch dc.Kind {
	case models.DiscountPercent:
		return cartTotal * dc.Value / 100
	case models.DiscountFixed:
		if dc.Value > cartTotal {
			return cartTotal
		}
		return dc.Value
	default:
		return 0
	}
}

// CreateDiscount is the administrative creation path. The code string is
// canonicalized before storage; a duplicate yields ErrConflict.
func (s *DiscountService) CreateDiscount(ctx context.Context, dc *models.DiscountCode) error {
	dc.Code = CanonicalCode(dc.Code)
	if dc.Code == "" {
		return fmt.Errorf("%w: code required", ErrValidation)
	}
	if dc.Value < 0 {
		return fmt.Errorf("%w: value must be >= 0", ErrValidation)
	}
	if dc.Kind == models.DiscountPercent && dc.Value > 100 {
		return fmt.Errorf("%w: percentage must be 0-100", ErrValidation)
	}
	if dc.Kind != models.DiscountPercent && dc.Kind != models.DiscountFixed {
		return fmt.Errorf("%w: kind must be percent or fixed", ErrValidation)
	}
	if dc.MaxUses != nil && *dc.MaxUses < 0 {
		return fmt.Errorf("%w: max_uses must be >= 0", ErrValidation)
	}
	if dc.MinAmount != nil && *dc.MinAmount < 0 {
		return fmt.Errorf("%w: min_amount must be >= 0", ErrValidation)
	}

	if err := s.Repo.CreateDiscount(ctx, dc); err != nil {
		if _, lookupErr := s.Repo.GetDiscountByCode(ctx, dc.Code); lookupErr == nil {
			return fmt.Errorf("%w: code %s already exists", ErrConflict, dc.Code)
		}
		return err
	}
	return nil
}

func (s *DiscountService) ListDiscounts(ctx context.Context) ([]models.DiscountCode, error) {
	return s.Repo.ListDiscounts(ctx)
}

func (s *DiscountService) SetActive(ctx context.Context, code string, active bool) error {
	updated, err := s.Repo.SetDiscountActive(ctx, CanonicalCode(code), active)
	if err != nil {
		return err
	}
	if !updated {
		return ErrCodeNotFound
	}
	return nil
}
