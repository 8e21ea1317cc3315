package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-ticket-booking/internal/handler"
	"github.com/iliyamo/cinema-ticket-booking/internal/middleware"
	"github.com/iliyamo/cinema-ticket-booking/internal/model"
)

// RegisterBookings registers the booking endpoints under /api/bookings.
// Customers create and list their own bookings; reading or cancelling a
// single booking is open to its owner and to admins, which the handler
// checks.  Admin listings and lifecycle changes require the ADMIN role.
// limit throttles booking creation.
func RegisterBookings(e *echo.Echo, b *handler.BookingHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	auth := middleware.JWTAuth(jwtSecret)
	customer := middleware.RequireRole(model.RoleCustomer)
	anyone := middleware.RequireRole(model.RoleCustomer, model.RoleAdmin)
	admin := middleware.RequireRole(model.RoleAdmin)

	g := e.Group("/api/bookings")

	// Seat availability is public so guests can preview a showing.
	g.GET("/showtime", b.Showtime)

	// limit runs after auth so the bucket key includes the user id.
	g.POST("", b.Create, auth, customer, limit)
	g.GET("/user", b.ListMine, auth, customer)

	g.GET("/admin/all", b.ListAll, auth, admin)
	g.PUT("/admin/:id/status", b.SetStatus, auth, admin)
	g.PUT("/admin/:id/validate", b.Validate, auth, admin)
	g.GET("", b.Search, auth, admin)

	g.GET("/:bookingId", b.Get, auth, anyone)
	g.DELETE("/:bookingId", b.Cancel, auth, anyone)
}
