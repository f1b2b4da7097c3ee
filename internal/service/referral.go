package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/glowsalon/booking-backend/internal/models"
	"github.com/glowsalon/booking-backend/internal/repo"
)

const codeIssueAttempts = 5

// ReferralService issues at most one referral code per user and aggregates
// point balances from recorded rewards and completed bookings.
type ReferralService struct {
	Repo *repo.GormRepo

	PointsPerReferral int64
	PointsPerBooking  int64
}

func NewReferralService(r *repo.GormRepo, pointsPerReferral, pointsPerBooking int64) *ReferralService {
	return &ReferralService{
		Repo:              r,
		PointsPerReferral: pointsPerReferral,
		PointsPerBooking:  pointsPerBooking,
	}
}

// EnsureCode returns the user's referral code, creating it on first need.
// Concurrent calls for the same user are resolved by the unique constraint on
// user_id: the loser of the insert race re-reads and returns the winner's
// code. The returned bool reports whether this call created the code.
func (s *ReferralService) EnsureCode(ctx context.Context, userID uuid.UUID, email string) (*models.ReferralCode, bool, error) {
	if userID == uuid.Nil {
		return nil, false, fmt.Errorf("%w: user id required", ErrValidation)
	}

	if rc, err := s.Repo.GetReferralCodeByUser(ctx, userID); err == nil {
		return rc, false, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	var lastErr error
	for attempt := 0; attempt < codeIssueAttempts; attempt++ {
		rc := &models.ReferralCode{
			UserID:            userID,
			Code:              generateCode(email),
			PointsPerReferral: s.PointsPerReferral,
		}
		if err := s.Repo.CreateReferralCode(ctx, rc); err != nil {
			// either another call won the per-user race, or the code
			// string collided; re-read decides which
			if existing, lookupErr := s.Repo.GetReferralCodeByUser(ctx, userID); lookupErr == nil {
				return existing, false, nil
			}
			lastErr = err
			continue
		}
		return rc, true, nil
	}
	return nil, false, fmt.Errorf("issue referral code: %w", lastErr)
}

// generateCode derives a readable prefix from the email local part plus a
// random suffix; collisions are handled by the caller's retry loop.
func generateCode(email string) string {
	prefix := "REF"
	if at := strings.IndexByte(email, '@'); at > 0 {
		local := strings.ToUpper(email[:at])
		cleaned := make([]byte, 0, len(local))
		for i := 0; i < len(local) && len(cleaned) < 8; i++ {
			c := local[i]
			if (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
				cleaned = append(cleaned, c)
			}
		}
		if len(cleaned) >= 3 {
			prefix = string(cleaned)
		}
	}

	suffix := make([]byte, 3)
	if _, err := rand.Read(suffix); err != nil {
		// fall back to time-derived entropy; uniqueness is still
		// enforced by the DB constraint
		now := time.Now().UnixNano()
		suffix[0], suffix[1], suffix[2] = byte(now), byte(now>>8), byte(now>>16)
	}
	return prefix + "-" + strings.ToUpper(hex.EncodeToString(suffix))
}

type BulkUser struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}

type BulkEnsureResult struct {
	Total     int      `json:"total"`
	Generated int      `json:"generated"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors,omitempty"`
}

// BulkEnsure backfills codes for users lacking one. Per-user failures are
// collected; the batch itself never aborts.
func (s *ReferralService) BulkEnsure(ctx context.Context, users []BulkUser) *BulkEnsureResult {
	result := &BulkEnsureResult{Total: len(users)}
	for _, u := range users {
		_, created, err := s.EnsureCode(ctx, u.ID, u.Email)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("user %s: %v", u.ID, err))
			continue
		}
		if created {
			result.Generated++
		}
	}
	return result
}

// RecordReward grants points to a referrer for a referred user's qualifying
// event. The (referrer, referred) pair is unique for all time: a duplicate
// returns ErrConflict whether detected up front or by the DB constraint.
func (s *ReferralService) RecordReward(ctx context.Context, referrerID, referredID uuid.UUID, points int64) (*models.ReferralReward, error) {
	if referrerID == uuid.Nil || referredID == uuid.Nil {
		return nil, fmt.Errorf("%w: referrer and referred ids required", ErrValidation)
	}
	if referrerID == referredID {
		return nil, fmt.Errorf("%w: self-referral not allowed", ErrValidation)
	}
	if points <= 0 {
		return nil, fmt.Errorf("%w: points must be > 0", ErrValidation)
	}

	exists, err := s.Repo.HasReward(ctx, referrerID, referredID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: reward already recorded for pair", ErrConflict)
	}

	reward := &models.ReferralReward{
		ReferrerID: referrerID,
		ReferredID: referredID,
		Points:     points,
	}
	if err := s.Repo.CreateReward(ctx, reward); err != nil {
		// concurrent duplicate insert lands here via the unique index
		if exists, checkErr := s.Repo.HasReward(ctx, referrerID, referredID); checkErr == nil && exists {
			return nil, fmt.Errorf("%w: reward already recorded for pair", ErrConflict)
		}
		return nil, err
	}
	return reward, nil
}

type PointsBalance struct {
	ReferralPoints int64 `json:"referral_points"`
	BookingPoints  int64 `json:"booking_points"`
	TotalPoints    int64 `json:"total_points"`
}

// PointsBalance recomputes the balance from source facts on every call; the
// booking component is derived, never stored.
func (s *ReferralService) PointsBalance(ctx context.Context, userID uuid.UUID) (*PointsBalance, error) {
	referral, err := s.Repo.SumRewardPoints(ctx, userID)
	if err != nil {
		return nil, err
	}

	bookings, err := s.Repo.CountConfirmedBookings(ctx, userID)
	if err != nil {
		return nil, err
	}

	booking := bookings * s.PointsPerBooking
	return &PointsBalance{
		ReferralPoints: referral,
		BookingPoints:  booking,
		TotalPoints:    referral + booking,
	}, nil
}

type ReferralStats struct {
	Code               string    `json:"code"`
	UserID             uuid.UUID `json:"user_id"`
	PointsPerReferral  int64     `json:"points_per_referral"`
	UsageCount         int64     `json:"usage_count"`
	TotalPointsAwarded int64     `json:"total_points_awarded"`
	UniqueReferrals    int64     `json:"unique_referrals"`
}

// Stats is the admin-facing read-only projection over codes and rewards.
func (s *ReferralService) Stats(ctx context.Context) ([]ReferralStats, error) {
	codes, err := s.Repo.ListReferralCodes(ctx)
	if err != nil {
		return nil, err
	}

	stats := make([]ReferralStats, 0, len(codes))
	for _, rc := range codes {
		total, err := s.Repo.SumRewardPoints(ctx, rc.UserID)
		if err != nil {
			return nil, err
		}
		unique, err := s.Repo.CountUniqueReferrals(ctx, rc.UserID)
		if err != nil {
			return nil, err
		}
		stats = append(stats, ReferralStats{
			Code:               rc.Code,
			UserID:             rc.UserID,
			PointsPerReferral:  rc.PointsPerReferral,
			UsageCount:         rc.UsageCount,
			TotalPointsAwarded: total,
			UniqueReferrals:    unique,
		})
	}
	return stats, nil
}
