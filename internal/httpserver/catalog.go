package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/glowsalon/booking-backend/internal/logging"
	"github.com/glowsalon/booking-backend/internal/models"
	"github.com/glowsalon/booking-backend/internal/service"
	"github.com/glowsalon/booking-backend/internal/transport"
)

type CatalogHTTP struct {
	Svc *service.CatalogService
}

func (h *CatalogHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.list")

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	services, err := h.Svc.List(ctx, limit, offset)
	if err != nil {
		l.Error("list_services_error", "status", 500, "error", err)
		return c.JSON(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, services)
}

func (h *CatalogHTTP) Search(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.search")

	q := c.QueryParam("q")
	if q == "" {
		return c.JSON(http.StatusBadRequest, "q required")
	}
	from, _ := strconv.Atoi(c.QueryParam("from"))
	size, _ := strconv.Atoi(c.QueryParam("size"))

	total, services, err := h.Svc.Search(ctx, q, from, size)
	if err != nil {
		l.Error("search_services_error", "status", 500, "error", err)
		return c.JSON(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, echo.Map{"total": total, "services": services})
}

func (h *CatalogHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.create")

	var req transport.CreateServiceRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_service_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, "invalid body")
	}

	svc := models.Service{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		DurationMin: req.DurationMin,
		Category:    req.Category,
		Active:      true,
	}
	if err := h.Svc.Create(ctx, &svc); err != nil {
		if errors.Is(err, service.ErrValidation) {
			l.Warn("create_service_error", "status", 400, "error", err)
			return c.JSON(http.StatusBadRequest, err.Error())
		}
		l.Error("create_service_error", "status", 500, "error", err)
		return c.JSON(http.StatusInternalServerError, "internal error")
	}

	l.Info("service_created", "service_id", svc.ID, "name", svc.Name)
	return c.JSON(http.StatusCreated, svc)
}
