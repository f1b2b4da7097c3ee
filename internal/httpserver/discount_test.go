package httpserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/glowsalon/booking-backend/internal/models"
	"github.com/glowsalon/booking-backend/internal/repo"
	"github.com/glowsalon/booking-backend/internal/service"
)

func newDiscountHandler(t *testing.T) *DiscountHTTP {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&models.DiscountCode{}))

	return &DiscountHTTP{Svc: service.NewDiscountService(&repo.GormRepo{DB: db})}
}

func applyRequest(t *testing.T, h *DiscountHTTP, body string) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/discount/apply", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	require.NoError(t, h.Apply(e.NewContext(req, rec)))
	return rec
}

func TestDiscountApply_Success(t *testing.T) {
	t.Parallel()

	h := newDiscountHandler(t)
	require.NoError(t, h.Svc.CreateDiscount(context.Background(), &models.DiscountCode{
		Code: "SAVE20", Kind: models.DiscountPercent, Value: 20, Active: true,
	}))

	rec := applyRequest(t, h, `{"code":"save20","cart_total":1000}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"discount_amount":200`)
	assert.Contains(t, rec.Body.String(), `"final_total":800`)
}

func TestDiscountApply_RejectionMessages(t *testing.T) {
	t.Parallel()

	h := newDiscountHandler(t)
	ctx := context.Background()

	require.NoError(t, h.Svc.CreateDiscount(ctx, &models.DiscountCode{
		Code: "OFFLINE", Kind: models.DiscountPercent, Value: 10, Active: false,
	}))
	require.NoError(t, h.Svc.CreateDiscount(ctx, &models.DiscountCode{
		Code: "MIN50", Kind: models.DiscountPercent, Value: 10, Active: true,
		MinAmount: func() *int64 { v := int64(50); return &v }(),
	}))
	require.NoError(t, h.Svc.CreateDiscount(ctx, &models.DiscountCode{
		Code: "DRAINED", Kind: models.DiscountPercent, Value: 10, Active: true,
		MaxUses: func() *int64 { v := int64(0); return &v }(),
	}))

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantMsg    string
	}{
		{name: "unknown code", body: `{"code":"NOPE","cart_total":100}`, wantStatus: http.StatusNotFound, wantMsg: "Coupon code not found"},
		{name: "inactive", body: `{"code":"OFFLINE","cart_total":100}`, wantStatus: http.StatusBadRequest, wantMsg: "Coupon is not active"},
		{name: "usage limit", body: `{"code":"DRAINED","cart_total":100}`, wantStatus: http.StatusConflict, wantMsg: "Coupon usage limit reached"},
		{name: "below minimum", body: `{"code":"MIN50","cart_total":30}`, wantStatus: http.StatusBadRequest, wantMsg: "Minimum order of 50 required"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			rec := applyRequest(t, h, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantMsg)
		})
	}
}

func TestDiscountApply_ExpiredMessage(t *testing.T) {
	t.Parallel()

	h := newDiscountHandler(t)
	ctx := context.Background()

	require.NoError(t, h.Svc.CreateDiscount(ctx, &models.DiscountCode{
		Code: "OLD", Kind: models.DiscountPercent, Value: 10, Active: true,
	}))
	// push the expiry into the past behind the service's back
	past := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, h.Svc.Repo.DB.Model(&models.DiscountCode{}).
		Where("code = ?", "OLD").
		Update("expires_at", past).Error)

	rec := applyRequest(t, h, `{"code":"OLD","cart_total":100}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Coupon has expired")
}

func TestDiscountCreate_Conflict(t *testing.T) {
	t.Parallel()

	h := newDiscountHandler(t)
	e := echo.New()

	create := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/admin/discounts", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		require.NoError(t, h.Create(e.NewContext(req, rec)))
		return rec
	}

	rec := create(`{"code":"TWICE","kind":"fixed","value":100}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = create(`{"code":"twice","kind":"fixed","value":200}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}
