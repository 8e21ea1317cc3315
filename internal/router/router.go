package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-ticket-booking/internal/handler"
	"github.com/iliyamo/cinema-ticket-booking/internal/middleware"
	"github.com/iliyamo/cinema-ticket-booking/internal/model"
)

// RegisterRoutes registers routes that do not touch storage: the health
// check and the seat map.
func RegisterRoutes(e *echo.Echo, storage string) {
	health := handler.Health(storage)
	e.GET("/healthz", health)
	e.GET("/api/health", health)
	e.GET("/api/seatmap", handler.SeatMap)
}

// RegisterAuth registers customer and admin authentication.  limit is the
// rate limiter applied to the credential endpoints.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	// Customer accounts.
	u := e.Group("/api/user-auth")
	u.POST("/register", a.Register, limit)
	u.POST("/login", a.Login, limit)
	u.GET("/me", a.Me, middleware.JWTAuth(jwtSecret))

	// Admin console.
	g := e.Group("/api/auth")
	g.POST("/login", a.AdminLogin, limit)
	g.POST("/verify-token", a.VerifyToken,
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)
}

// RegisterPublic registers the unauthenticated catalogue reads.  The
// cache middlewares sit in front of the listings only.
func RegisterPublic(e *echo.Echo, m *handler.MovieHandler, h *handler.HallHandler, movieCache, hallCache echo.MiddlewareFunc) {
	e.GET("/api/movies", m.List, movieCache)
	e.GET("/api/movies/:id", m.Get)

	e.GET("/api/halls", h.List, hallCache)
	e.GET("/api/halls/active/list", h.Active, hallCache)
	e.GET("/api/halls/:id", h.Get)
}
