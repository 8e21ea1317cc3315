package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-ticket-booking/internal/booking"
	"github.com/iliyamo/cinema-ticket-booking/internal/logger"
	"github.com/iliyamo/cinema-ticket-booking/internal/model"
)

// activityLimit is the number of bookings shown in the activity feed.
const activityLimit = 10

// DashboardHandler serves the admin dashboard counters and activity feed.
type DashboardHandler struct {
	Movies   MovieStore
	Halls    HallStore
	Users    UserStore
	Bookings *booking.Service
	Log      *logger.Logger
}

func NewDashboardHandler(movies MovieStore, halls HallStore, users UserStore, bookings *booking.Service, log *logger.Logger) *DashboardHandler {
	return &DashboardHandler{Movies: movies, Halls: halls, Users: users, Bookings: bookings, Log: log}
}

// Stats returns the number of movies, halls and reservations.
func (h *DashboardHandler) Stats(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	movies, err := h.Movies.Count(ctx)
	if err != nil {
		h.Log.ErrorContext(ctx, "count movies failed", "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	halls, err := h.Halls.Count(ctx)
	if err != nil {
		h.Log.ErrorContext(ctx, "count halls failed", "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	bookings, err := h.Bookings.Count(ctx)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"totalMovies":       movies,
		"totalHalls":        halls,
		"totalReservations": bookings,
	})
}

type activityItem struct {
	BookingID    string    `json:"bookingId"`
	Action       string    `json:"action"`
	MovieTitle   string    `json:"movieTitle"`
	CustomerName string    `json:"customerName"`
	At           time.Time `json:"createdAt"`
	User         string    `json:"user"`
}

// activityAction names what last happened to b.
func activityAction(b *model.Booking) string {
	switch {
	case b.IsValidated && b.ValidatedAt != nil:
		return "Ticket Validated"
	case b.Status == model.StatusCancelled:
		return "Reservation Cancelled"
	}
	return "New Reservation"
}

// Activity lists the most recent bookings with what happened to them.
func (h *DashboardHandler) Activity(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	recent, err := h.Bookings.List(ctx, model.BookingFilter{Limit: activityLimit})
	if err != nil {
		return bookingError(c, err)
	}

	names := make(map[string]string)
	out := make([]activityItem, 0, len(recent))
	for _, b := range recent {
		name, seen := names[b.UserID]
		if !seen {
			name = "Unknown Customer"
			if u, err := h.Users.GetByID(ctx, b.UserID); err == nil && u.Name != "" {
				name = u.Name
			}
			names[b.UserID] = name
		}
		item := activityItem{
			BookingID:    b.BookingID,
			Action:       activityAction(b),
			MovieTitle:   b.Movie.Title,
			CustomerName: name,
			At:           b.CreatedAt,
			User:         name,
		}
		if b.ValidatedAt != nil {
			item.At = *b.ValidatedAt
		}
		if b.ValidatedBy != nil {
			item.User = *b.ValidatedBy
		}
		out = append(out, item)
	}
	return c.JSON(http.StatusOK, echo.Map{"activity": out})
}
