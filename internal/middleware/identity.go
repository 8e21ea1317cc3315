package middleware

// identity.go holds helpers to read the identity JWTAuth stored on the
// echo context.

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-ticket-booking/internal/model"
)

// UserID returns the authenticated user id, or "" when the request is
// anonymous.
func UserID(c echo.Context) string {
	if s, ok := c.Get(CtxUserID).(string); ok {
		return s
	}
	return ""
}

// Role returns the authenticated role, or "".
func Role(c echo.Context) string {
	if s, ok := c.Get(CtxRole).(string); ok {
		return s
	}
	return ""
}

// IsAdmin reports whether the caller carries the ADMIN role.
func IsAdmin(c echo.Context) bool {
	return Role(c) == model.RoleAdmin
}

// identityKey is the user part of rate limit keys: the user id, or "anon".
func identityKey(c echo.Context) string {
	if uid := UserID(c); uid != "" {
		return uid
	}
	return "anon"
}
