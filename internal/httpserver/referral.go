package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/glowsalon/booking-backend/internal/logging"
	"github.com/glowsalon/booking-backend/internal/service"
	"github.com/glowsalon/booking-backend/internal/transport"
)

type ReferralHTTP struct {
	Svc *service.ReferralService
}

func (h *ReferralHTTP) GetCode(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "referral.get_code")

	id, err := userID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, "unauthorized")
	}

	rc, _, err := h.Svc.EnsureCode(ctx, id, c.QueryParam("email"))
	if err != nil {
		l.Error("ensure_code_error", "status", 500, "error", err)
		return c.JSON(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, rc)
}

func (h *ReferralHTTP) Points(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "referral.points")

	id, err := userID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, "unauthorized")
	}

	balance, err := h.Svc.PointsBalance(ctx, id)
	if err != nil {
		l.Error("points_balance_error", "status", 500, "error", err)
		return c.JSON(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, balance)
}

func (h *ReferralHTTP) BulkEnsure(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "referral.bulk_ensure")

	var req transport.BulkEnsureRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("bulk_ensure_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, "invalid body")
	}

	users := make([]service.BulkUser, len(req.Users))
	for i, u := range req.Users {
		users[i] = service.BulkUser{ID: u.ID, Email: u.Email}
	}

	result := h.Svc.BulkEnsure(ctx, users)
	l.Info("bulk_ensure_done", "total", result.Total, "generated", result.Generated, "failed", result.Failed)
	return c.JSON(http.StatusOK, result)
}

func (h *ReferralHTTP) Stats(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "referral.stats")

	stats, err := h.Svc.Stats(ctx)
	if err != nil {
		l.Error("referral_stats_error", "status", 500, "error", err)
		return c.JSON(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, stats)
}
