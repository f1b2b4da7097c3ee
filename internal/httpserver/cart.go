package httpserver

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/glowsalon/booking-backend/internal/logging"
	"github.com/glowsalon/booking-backend/internal/models"
	"github.com/glowsalon/booking-backend/internal/service"
	"github.com/glowsalon/booking-backend/internal/transport"
)

type CartHTTP struct {
	Svc *service.CartService
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get")

	owner, err := ownerFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, "unauthorized")
	}

	items, err := h.Svc.Items(ctx, owner)
	if err != nil {
		l.Error("get_cart_error", "status", 500, "error", err)
		return c.JSON(http.StatusInternalServerError, "internal error")
	}

	total, err := h.Svc.Total(ctx, owner)
	if err != nil {
		l.Error("cart_total_error", "status", 500, "error", err)
		return c.JSON(http.StatusInternalServerError, "internal error")
	}

	if items == nil {
		items = []models.CartItem{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "total": total})
}

func (h *CartHTTP) AddItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add")

	owner, err := ownerFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, "unauthorized")
	}

	var req transport.AddCartItemRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("add_cart_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, "invalid body")
	}

	item := models.CartItem{
		ServiceID:   req.ServiceID,
		ServiceName: req.ServiceName,
		Price:       req.Price,
		Date:        req.Date,
		TimeSlot:    req.TimeSlot,
		AddOns:      req.AddOns,
		PhotoURLs:   req.PhotoURLs,
		StaffID:     req.StaffID,
	}
	if err := h.Svc.AddItem(ctx, owner, &item); err != nil {
		if errors.Is(err, service.ErrValidation) {
			l.Warn("add_cart_error", "status", 400, "error", err)
			return c.JSON(http.StatusBadRequest, err.Error())
		}
		l.Error("add_cart_error", "status", 500, "error", err)
		return c.JSON(http.StatusInternalServerError, "internal error")
	}

	l.Info("cart_item_added", "item_id", item.ID)
	return c.JSON(http.StatusCreated, item)
}

func (h *CartHTTP) RemoveItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove")

	owner, err := ownerFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, "unauthorized")
	}

	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, "invalid item id")
	}

	if err := h.Svc.RemoveItem(ctx, owner, itemID); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			l.Warn("remove_cart_not_found", "status", 404, "item_id", itemID)
			return c.JSON(http.StatusNotFound, "item not found")
		}
		l.Error("remove_cart_error", "status", 500, "error", err)
		return c.JSON(http.StatusInternalServerError, "internal error")
	}

	l.Info("cart_item_removed", "item_id", itemID)
	return c.JSON(http.StatusOK, "item removed")
}

func (h *CartHTTP) Clear(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.clear")

	owner, err := ownerFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, "unauthorized")
	}

	if err := h.Svc.Clear(ctx, owner); err != nil {
		l.Error("clear_cart_error", "status", 500, "error", err)
		return c.JSON(http.StatusInternalServerError, "internal error")
	}

	l.Info("cart_cleared")
	return c.JSON(http.StatusOK, "cart cleared")
}

// Merge folds the guest cart named in the body into the authenticated user's
// cart, called by the frontend right after login.
func (h *CartHTTP) Merge(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.merge")

	id, err := userID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, "unauthorized")
	}

	var req transport.MergeCartRequest
	if err := c.Bind(&req); err != nil || req.GuestToken == "" {
		l.Warn("merge_cart_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, "guest_token required")
	}

	merged, err := h.Svc.MergeGuestIntoUser(ctx, req.GuestToken, id)
	if err != nil {
		l.Error("merge_cart_error", "status", 500, "error", err)
		return c.JSON(http.StatusInternalServerError, "internal error")
	}

	l.Info("cart_merged", "merged_items", merged)
	return c.JSON(http.StatusOK, echo.Map{"merged_items": merged})
}
