package handler // declare the package name; contains HTTP handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-ticket-booking/internal/seatmap"
)

// Health returns a health-check endpoint used by load balancers and
// monitoring systems.  storage names the active booking store so that a
// fallback to the in-memory store is visible from outside.
func Health(storage string) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok", "storage": storage})
	}
}

// SeatMap returns the hall layout shared by every screening.
func SeatMap(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"rows":        seatmap.Layout(),
		"seatsPerRow": seatmap.SeatsPerRow,
		"total":       seatmap.RowCount * seatmap.SeatsPerRow,
	})
}
