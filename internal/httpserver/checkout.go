package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/glowsalon/booking-backend/internal/logging"
	"github.com/glowsalon/booking-backend/internal/service"
	"github.com/glowsalon/booking-backend/internal/transport"
)

type CheckoutHTTP struct {
	Svc *service.CheckoutService
}

func (h *CheckoutHTTP) Checkout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout")

	id, err := userID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, "unauthorized")
	}

	var req transport.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("checkout_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, "invalid body")
	}

	result, err := h.Svc.Checkout(ctx, service.CheckoutInput{
		UserID:       id,
		DiscountCode: req.DiscountCode,
		ReferralCode: req.ReferralCode,
		Currency:     req.Currency,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyCart):
			l.Warn("checkout_empty_cart", "status", 400)
			return c.JSON(http.StatusBadRequest, "Cart is empty")
		case isDiscountError(err):
			status, msg := discountMessage(err)
			l.Warn("checkout_discount_rejected", "status", status, "error", err)
			return c.JSON(status, echo.Map{"status": result.Status, "message": msg})
		case errors.Is(err, service.ErrPaymentFailed):
			l.Error("checkout_payment_failed", "status", 502, "error", err)
			return c.JSON(http.StatusBadGateway, echo.Map{"status": result.Status, "message": "Payment failed"})
		default:
			l.Error("checkout_error", "status", 500, "error", err)
			return c.JSON(http.StatusInternalServerError, "internal error")
		}
	}

	l.Info("checkout_confirmed", "booking_id", result.BookingID, "final_total", result.FinalTotal)
	return c.JSON(http.StatusOK, result)
}

func isDiscountError(err error) bool {
	return errors.Is(err, service.ErrCodeNotFound) ||
		errors.Is(err, service.ErrCodeInactive) ||
		errors.Is(err, service.ErrCodeExpired) ||
		errors.Is(err, service.ErrUsageLimitReached) ||
		errors.Is(err, service.ErrBelowMinimum)
}
