package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type Deps struct {
	DiscountHandler    *DiscountHTTP
	ReferralHandler    *ReferralHTTP
	CartHandler        *CartHTTP
	CheckoutHandler    *CheckoutHTTP
	CatalogHandler     *CatalogHTTP
	MaintenanceHandler *MaintenanceHTTP
	JWTSecret          []byte
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	authMW := &AuthMiddleware{Secret: d.JWTSecret}
	e.Use(authMW.Resolve)

	e.POST("/discount/apply", d.DiscountHandler.Apply)

	cart := e.Group("/cart")
	cart.GET("", d.CartHandler.GetCart)
	cart.POST("", d.CartHandler.AddItem)
	cart.DELETE("", d.CartHandler.Clear)
	cart.DELETE("/items/:id", d.CartHandler.RemoveItem)
	cart.POST("/merge", d.CartHandler.Merge, authMW.RequireAuth)

	e.POST("/checkout", d.CheckoutHandler.Checkout, authMW.RequireAuth)

	referral := e.Group("/referral", authMW.RequireAuth)
	referral.GET("/code", d.ReferralHandler.GetCode)
	referral.GET("/points", d.ReferralHandler.Points)

	e.GET("/services", d.CatalogHandler.List)
	e.GET("/services/search", d.CatalogHandler.Search)

	admin := e.Group("/admin", authMW.RequireAdmin)
	admin.GET("/discounts", d.DiscountHandler.List)
	admin.POST("/discounts", d.DiscountHandler.Create)
	admin.PATCH("/discounts/:code", d.DiscountHandler.SetActive)
	admin.GET("/referrals", d.ReferralHandler.Stats)
	admin.POST("/referrals/bulk", d.ReferralHandler.BulkEnsure)
	admin.POST("/services", d.CatalogHandler.Create)
	admin.POST("/maintenance/purge", d.MaintenanceHandler.PurgeExpired)
}
