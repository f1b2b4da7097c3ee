package httpserver

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/glowsalon/booking-backend/internal/logging"
	"github.com/glowsalon/booking-backend/internal/service"
	"github.com/glowsalon/booking-backend/internal/transport"
)

// MaintenanceHTTP exposes the purge sweep to the external scheduler (cron,
// k8s CronJob). The sweep is idempotent, so overlapping triggers are fine.
type MaintenanceHTTP struct {
	Cart *service.CartService
}

func (h *MaintenanceHTTP) PurgeExpired(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "maintenance.purge")

	purged, err := h.Cart.PurgeExpired(ctx, time.Now().UTC())
	if err != nil {
		l.Error("purge_expired_error", "status", 500, "error", err)
		return c.JSON(http.StatusInternalServerError, "internal error")
	}

	l.Info("purge_expired_done", "purged", purged)
	return c.JSON(http.StatusOK, transport.PurgeResponse{Purged: purged})
}
