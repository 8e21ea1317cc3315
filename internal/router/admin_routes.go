package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-ticket-booking/internal/handler"
	"github.com/iliyamo/cinema-ticket-booking/internal/middleware"
	"github.com/iliyamo/cinema-ticket-booking/internal/model"
)

// RegisterAdmin registers ADMIN-scoped catalogue management and the
// dashboard.  All routes require a valid JWT and the ADMIN role.  purge
// drops cached listings after a successful write.
func RegisterAdmin(e *echo.Echo, m *handler.MovieHandler, h *handler.HallHandler, d *handler.DashboardHandler, jwtSecret string, purge echo.MiddlewareFunc) {
	// Attach middlewares at group construction time for clarity.
	mv := e.Group("/api/movies",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
		purge,
	)
	mv.POST("", m.Create)
	mv.PUT("/:id", m.Update)
	mv.DELETE("/:id", m.Delete)
	mv.POST("/cleanup-broken-images", m.CleanupImages)

	hl := e.Group("/api/halls",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
		purge,
	)
	hl.POST("", h.Create)
	hl.PUT("/:id", h.Update)
	hl.DELETE("/:id", h.Delete)

	ds := e.Group("/api/admin/dashboard",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)
	ds.GET("/stats", d.Stats)
	ds.GET("/activity", d.Activity)
}
