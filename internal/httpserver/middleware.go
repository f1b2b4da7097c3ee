package httpserver

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/glowsalon/booking-backend/internal/logging"
	"github.com/glowsalon/booking-backend/internal/service"
)

const guestTokenHeader = "X-Guest-Token"

// AuthMiddleware resolves the caller's identity from the accessToken cookie.
// Resolution never rejects: unauthenticated callers pass through as guests
// and the route decides what it requires.
type AuthMiddleware struct {
	Secret []byte
}

func (m *AuthMiddleware) Resolve(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		cookie, err := c.Cookie("accessToken")
		if err != nil || cookie.Value == "" {
			return next(c)
		}

		token, err := jwt.Parse(cookie.Value, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return m.Secret, nil
		})
		if err != nil || !token.Valid {
			return next(c)
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return next(c)
		}
		sub, ok := claims["sub"].(string)
		if !ok || sub == "" {
			return next(c)
		}
		if _, err := uuid.Parse(sub); err != nil {
			return next(c)
		}

		c.Set("user_id", sub)
		if role, ok := claims["role"].(string); ok {
			c.Set("role", role)
		}
		return next(c)
	}
}

func (m *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, err := userID(c); err != nil {
			return c.JSON(http.StatusUnauthorized, "unauthorized")
		}
		return next(c)
	}
}

func (m *AuthMiddleware) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, err := userID(c); err != nil {
			return c.JSON(http.StatusUnauthorized, "unauthorized")
		}
		role, _ := c.Get("role").(string)
		if role != "admin" {
			return c.JSON(http.StatusForbidden, "admin role required")
		}
		return next(c)
	}
}

func userID(c echo.Context) (uuid.UUID, error) {
	s, ok := c.Get("user_id").(string)
	if !ok || s == "" {
		return uuid.Nil, fmt.Errorf("unauthorized")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("unauthorized")
	}
	return id, nil
}

// ownerFrom picks the cart owner: the authenticated user when present,
// otherwise the opaque guest session token.
func ownerFrom(c echo.Context) (service.Owner, error) {
	if id, err := userID(c); err == nil {
		return service.UserOwner(id), nil
	}
	if token := c.Request().Header.Get(guestTokenHeader); token != "" {
		return service.GuestOwner(token), nil
	}
	return service.Owner{}, fmt.Errorf("no identity: authenticate or supply %s", guestTokenHeader)
}

// RequestLogger attaches a request-scoped slog logger to the context and
// logs one line per completed request.
func RequestLogger(base *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rid := c.Request().Header.Get(echo.HeaderXRequestID)

			l := base.With(
				"method", c.Request().Method,
				"path", c.Path(),
				"remote_ip", c.RealIP(),
			)
			if rid != "" {
				l = l.With("request_id", rid)
				c.Response().Header().Set(echo.HeaderXRequestID, rid)
			}

			req := c.Request().WithContext(logging.IntoContext(c.Request().Context(), l))
			c.SetRequest(req)

			start := time.Now()
			err := next(c)
			dur := time.Since(start)
			status := c.Response().Status

			if err != nil {
				c.Echo().HTTPErrorHandler(err, c)
				status = c.Response().Status
			}

			switch {
			case err != nil || status >= 500:
				l.Error("request completed", "status", status, "duration_ms", dur.Milliseconds(), "error", errStr(err))
			case status >= 400:
				l.Warn("request completed", "status", status, "duration_ms", dur.Milliseconds())
			default:
				l.Info("request completed", "status", status, "duration_ms", dur.Milliseconds())
			}
			return nil
		}
	}
}

func errStr(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("%v", err)
}
