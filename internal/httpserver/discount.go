package httpserver

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/glowsalon/booking-backend/internal/logging"
	"github.com/glowsalon/booking-backend/internal/models"
	"github.com/glowsalon/booking-backend/internal/service"
	"github.com/glowsalon/booking-backend/internal/transport"
)

type DiscountHTTP struct {
	Svc *service.DiscountService
}

// discountMessage maps every rejection kind to the distinct customer-facing
// message shown at checkout.
func discountMessage(err error) (int, string) {
	var below *service.BelowMinimumError
	switch {
	case errors.Is(err, service.ErrCodeNotFound):
		return http.StatusNotFound, "Coupon code not found"
	case errors.Is(err, service.ErrCodeInactive):
		return http.StatusBadRequest, "Coupon is not active"
	case errors.Is(err, service.ErrCodeExpired):
		return http.StatusBadRequest, "Coupon has expired"
	case errors.Is(err, service.ErrUsageLimitReached):
		return http.StatusConflict, "Coupon usage limit reached"
	case errors.As(err, &below):
		return http.StatusBadRequest, fmt.Sprintf("Minimum order of %d required", below.Minimum)
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest, "Invalid request"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func (h *DiscountHTTP) Apply(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "discount.apply")

	var req transport.ApplyDiscountRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("apply_discount_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, "invalid body")
	}

	result, err := h.Svc.ValidateAndApply(ctx, req.Code, req.CartTotal)
	if err != nil {
		status, msg := discountMessage(err)
		if status >= 500 {
			l.Error("apply_discount_error", "status", status, "error", err)
		} else {
			l.Warn("apply_discount_rejected", "status", status, "error", err)
		}
		return c.JSON(status, msg)
	}

	l.Info("discount_applied", "code", result.Code, "discount", result.DiscountAmount)
	return c.JSON(http.StatusOK, result)
}

func (h *DiscountHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "discount.list")

	codes, err := h.Svc.ListDiscounts(ctx)
	if err != nil {
		l.Error("list_discounts_error", "status", 500, "error", err)
		return c.JSON(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, codes)
}

func (h *DiscountHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "discount.create")

	var req transport.CreateDiscountRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_discount_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, "invalid body")
	}

	dc := models.DiscountCode{
		Code:      req.Code,
		Kind:      models.DiscountKind(req.Kind),
		Value:     req.Value,
		MinAmount: req.MinAmount,
		MaxUses:   req.MaxUses,
		ExpiresAt: req.ExpiresAt,
		Active:    true,
	}
	if req.Active != nil {
		dc.Active = *req.Active
	}

	if err := h.Svc.CreateDiscount(ctx, &dc); err != nil {
		switch {
		case errors.Is(err, service.ErrConflict):
			l.Warn("create_discount_conflict", "status", 409, "code", dc.Code)
			return c.JSON(http.StatusConflict, "code already exists")
		case errors.Is(err, service.ErrValidation):
			l.Warn("create_discount_error", "status", 400, "error", err)
			return c.JSON(http.StatusBadRequest, err.Error())
		default:
			l.Error("create_discount_error", "status", 500, "error", err)
			return c.JSON(http.StatusInternalServerError, "internal error")
		}
	}

	l.Info("discount_created", "code", dc.Code)
	return c.JSON(http.StatusCreated, dc)
}

func (h *DiscountHTTP) SetActive(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "discount.set_active")

	var req transport.SetDiscountActiveRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("set_active_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, "invalid body")
	}

	if err := h.Svc.SetActive(ctx, c.Param("code"), req.Active); err != nil {
		if errors.Is(err, service.ErrCodeNotFound) {
			return c.JSON(http.StatusNotFound, "code not found")
		}
		l.Error("set_active_error", "status", 500, "error", err)
		return c.JSON(http.StatusInternalServerError, "internal error")
	}

	l.Info("discount_active_updated", "code", c.Param("code"), "active", req.Active)
	return c.NoContent(http.StatusNoContent)
}
