package auth

import (
	"strings"

	"github.com/labstack/echo/v4"

	apperrors "github.com/TiRizvanov/chart-widget-backend/internal/errors"
)

const (
	userIDContextKey = "auth.user_id"
	emailContextKey  = "auth.email"
)

// Middleware returns an echo middleware that requires a valid Bearer token
// and stores the caller's identity on the request context.
func Middleware(tokens *Tokens) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || raw == "" {
				return apperrors.UnauthorizedError("missing bearer token")
			}

			claims, err := tokens.Verify(raw)
			if err != nil {
				return apperrors.UnauthorizedError("invalid or expired token")
			}

			c.Set(userIDContextKey, claims.UserID)
			c.Set(emailContextKey, claims.Email)
			return next(c)
		}
	}
}

// UserID returns the authenticated user's ID, or "" when the request
// passed through no auth middleware.
func UserID(c echo.Context) string {
	id, _ := c.Get(userIDContextKey).(string)
	return id
}

// Email returns the authenticated user's email, if any.
func Email(c echo.Context) string {
	email, _ := c.Get(emailContextKey).(string)
	return email
}
