package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glowsalon/booking-backend/internal/models"
)

func newTestDiscountService(t *testing.T) *DiscountService {
	t.Helper()
	return NewDiscountService(newTestRepo(t))
}

func mustCreateDiscount(t *testing.T, svc *DiscountService, dc models.DiscountCode) models.DiscountCode {
	t.Helper()
	require.NoError(t, svc.CreateDiscount(context.Background(), &dc))
	return dc
}

func TestValidateAndApply_ValidationOrder(t *testing.T) {
	t.Parallel()

	svc := newTestDiscountService(t)
	ctx := context.Background()

	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	past := now.Add(-time.Hour)
	mustCreateDiscount(t, svc, models.DiscountCode{Code: "INACTIVE", Kind: models.DiscountPercent, Value: 10, Active: false})
	mustCreateDiscount(t, svc, models.DiscountCode{Code: "EXPIRED", Kind: models.DiscountPercent, Value: 10, Active: true, ExpiresAt: &past})
	mustCreateDiscount(t, svc, models.DiscountCode{Code: "USEDUP", Kind: models.DiscountPercent, Value: 10, Active: true, MaxUses: i64(0)})
	mustCreateDiscount(t, svc, models.DiscountCode{Code: "MINIMUM", Kind: models.DiscountPercent, Value: 10, Active: true, MinAmount: i64(500)})

	tests := []struct {
		name string
		code string
		want error
	}{
		{name: "unknown code", code: "NOPE", want: ErrCodeNotFound},
		{name: "inactive", code: "INACTIVE", want: ErrCodeInactive},
		{name: "expired", code: "EXPIRED", want: ErrCodeExpired},
		{name: "usage limit", code: "USEDUP", want: ErrUsageLimitReached},
		{name: "below minimum", code: "MINIMUM", want: ErrBelowMinimum},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.ValidateAndApply(ctx, tt.code, 100)
			require.Error(t, err)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestValidateAndApply_BelowMinimumCarriesMinimum(t *testing.T) {
	t.Parallel()

	svc := newTestDiscountService(t)
	ctx := context.Background()

	mustCreateDiscount(t, svc, models.DiscountCode{Code: "WELCOME10", Kind: models.DiscountPercent, Value: 10, Active: true, MinAmount: i64(50)})

	_, err := svc.ValidateAndApply(ctx, "WELCOME10", 30)
	require.Error(t, err)

	var below *BelowMinimumError
	require.ErrorAs(t, err, &below)
	assert.Equal(t, int64(50), below.Minimum)

	// a rejected application must not consume a usage slot
	dc, err := svc.Repo.GetDiscountByCode(ctx, "WELCOME10")
	require.NoError(t, err)
	assert.Equal(t, int64(0), dc.UsedCount)
}

func TestValidateAndApply_PercentFloors(t *testing.T) {
	t.Parallel()

	svc := newTestDiscountService(t)
	ctx := context.Background()

	mustCreateDiscount(t, svc, models.DiscountCode{Code: "PCT20", Kind: models.DiscountPercent, Value: 20, Active: true})

	tests := []struct {
		name         string
		total        int64
		wantDiscount int64
	}{
		{name: "even", total: 1000, wantDiscount: 200},
		{name: "truncates toward zero", total: 999, wantDiscount: 199},
		{name: "small total", total: 4, wantDiscount: 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.ValidateAndApply(ctx, "PCT20", tt.total)
			require.NoError(t, err)
			assert.Equal(t, tt.wantDiscount, res.DiscountAmount)
			assert.Equal(t, tt.total-tt.wantDiscount, res.FinalTotal)
			assert.GreaterOrEqual(t, res.FinalTotal, int64(0))
		})
	}
}

func TestValidateAndApply_FixedClampsAtZero(t *testing.T) {
	t.Parallel()

	svc := newTestDiscountService(t)
	ctx := context.Background()

	mustCreateDiscount(t, svc, models.DiscountCode{Code: "FIXED800", Kind: models.DiscountFixed, Value: 800, Active: true})

	res, err := svc.ValidateAndApply(ctx, "FIXED800", 500)
	require.NoError(t, err)
	assert.Equal(t, int64(500), res.DiscountAmount)
	assert.Equal(t, int64(0), res.FinalTotal)
}

func TestValidateAndApply_CaseInsensitiveLookup(t *testing.T) {
	t.Parallel()

	svc := newTestDiscountService(t)
	ctx := context.Background()

	mustCreateDiscount(t, svc, models.DiscountCode{Code: "save20", Kind: models.DiscountPercent, Value: 20, Active: true})

	res, err := svc.ValidateAndApply(ctx, "  sAvE20 ", 1000)
	require.NoError(t, err)
	assert.Equal(t, "SAVE20", res.Code)
	assert.Equal(t, int64(200), res.DiscountAmount)
}

func TestValidateAndApply_LastUseEndToEnd(t *testing.T) {
	t.Parallel()

	svc := newTestDiscountService(t)
	ctx := context.Background()

	mustCreateDiscount(t, svc, models.DiscountCode{
		Code: "SAVE20", Kind: models.DiscountPercent, Value: 20,
		Active: true, MinAmount: i64(100), MaxUses: i64(1),
	})

	res, err := svc.ValidateAndApply(ctx, "SAVE20", 1000)
	require.NoError(t, err)
	assert.Equal(t, int64(200), res.DiscountAmount)
	assert.Equal(t, int64(800), res.FinalTotal)

	_, err = svc.ValidateAndApply(ctx, "SAVE20", 1000)
	assert.ErrorIs(t, err, ErrUsageLimitReached)
}

func TestValidateAndApply_ConcurrentUsageNeverExceedsCap(t *testing.T) {
	t.Parallel()

	svc := newTestDiscountService(t)
	ctx := context.Background()

	const maxUses = 2
	const attempts = 6
	mustCreateDiscount(t, svc, models.DiscountCode{
		Code: "SCARCE", Kind: models.DiscountFixed, Value: 100,
		Active: true, MaxUses: i64(maxUses),
	})

	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.ValidateAndApply(ctx, "SCARCE", 1000)
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		assert.ErrorIs(t, err, ErrUsageLimitReached)
	}
	assert.Equal(t, maxUses, successes)

	dc, err := svc.Repo.GetDiscountByCode(ctx, "SCARCE")
	require.NoError(t, err)
	assert.Equal(t, int64(maxUses), dc.UsedCount)
}

func TestCreateDiscount_Validation(t *testing.T) {
	t.Parallel()

	svc := newTestDiscountService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		dc   models.DiscountCode
	}{
		{name: "empty code", dc: models.DiscountCode{Kind: models.DiscountPercent, Value: 10}},
		{name: "negative value", dc: models.DiscountCode{Code: "NEG", Kind: models.DiscountFixed, Value: -5}},
		{name: "percent over 100", dc: models.DiscountCode{Code: "BIG", Kind: models.DiscountPercent, Value: 150}},
		{name: "bad kind", dc: models.DiscountCode{Code: "KIND", Kind: "half-off", Value: 10}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			err := svc.CreateDiscount(ctx, &tt.dc)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestCreateDiscount_DuplicateIsConflict(t *testing.T) {
	t.Parallel()

	svc := newTestDiscountService(t)
	ctx := context.Background()

	mustCreateDiscount(t, svc, models.DiscountCode{Code: "TWICE", Kind: models.DiscountFixed, Value: 100, Active: true})

	dup := models.DiscountCode{Code: "twice", Kind: models.DiscountFixed, Value: 200, Active: true}
	err := svc.CreateDiscount(ctx, &dup)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestSetActive(t *testing.T) {
	t.Parallel()

	svc := newTestDiscountService(t)
	ctx := context.Background()

	mustCreateDiscount(t, svc, models.DiscountCode{Code: "TOGGLE", Kind: models.DiscountFixed, Value: 100, Active: true})

	require.NoError(t, svc.SetActive(ctx, "toggle", false))

	_, err := svc.ValidateAndApply(ctx, "TOGGLE", 1000)
	assert.ErrorIs(t, err, ErrCodeInactive)

	assert.ErrorIs(t, svc.SetActive(ctx, "MISSING", true), ErrCodeNotFound)

	var verr error
	_, verr = svc.ValidateAndApply(ctx, "", 100)
	assert.ErrorIs(t, verr, ErrValidation)
}
