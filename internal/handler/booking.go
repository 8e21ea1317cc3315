package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-ticket-booking/internal/booking"
	"github.com/iliyamo/cinema-ticket-booking/internal/middleware"
	"github.com/iliyamo/cinema-ticket-booking/internal/model"
)

// BookingHandler exposes booking.Service over HTTP.
type BookingHandler struct {
	Svc *booking.Service
}

// NewBookingHandler constructs a BookingHandler and panics if svc is nil.
func NewBookingHandler(svc *booking.Service) *BookingHandler {
	if svc == nil {
		panic("nil booking service passed to NewBookingHandler")
	}
	return &BookingHandler{Svc: svc}
}

type createBookingReq struct {
	MovieID    string   `json:"movieId"`
	MovieTitle string   `json:"movieTitle" validate:"required_without=MovieID"`
	Hall       string   `json:"hall"`
	Date       string   `json:"date" validate:"required,isodate"`
	Time       string   `json:"time" validate:"required,clock"`
	Seats      []string `json:"seats" validate:"required,min=1,dive,required"`
}

// Create books seats for the authenticated customer.  Prices come from the
// movie's schedule; any client supplied total is ignored.
func (h *BookingHandler) Create(c echo.Context) error {
	uid := middleware.UserID(c)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createBookingReq
	if ok, err := bind(c, &req); !ok {
		return err
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	b, err := h.Svc.CreateBooking(ctx, booking.CreateRequest{
		UserID:     uid,
		MovieID:    req.MovieID,
		MovieTitle: req.MovieTitle,
		Hall:       req.Hall,
		Date:       req.Date,
		Time:       req.Time,
		Seats:      req.Seats,
	})
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"booking": toBookingDTO(b)})
}

// Showtime lists the seats already taken for ?movie=&date=&time=.
func (h *BookingHandler) Showtime(c echo.Context) error {
	movie := c.QueryParam("movie")
	if movie == "" {
		movie = c.QueryParam("movieTitle")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	seats, err := h.Svc.HeldSeats(ctx, movie, c.QueryParam("date"), c.QueryParam("time"))
	if err != nil {
		return bookingError(c, err)
	}
	if seats == nil {
		seats = []string{}
	}
	return c.JSON(http.StatusOK, echo.Map{"bookedSeats": seats})
}

// ListMine returns the caller's bookings, newest first.
func (h *BookingHandler) ListMine(c echo.Context) error {
	uid := middleware.UserID(c)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	out, err := h.Svc.ListForUser(ctx, uid)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": toBookingDTOs(out)})
}

// ListAll returns every booking for the admin console.
func (h *BookingHandler) ListAll(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	out, err := h.Svc.List(ctx, model.BookingFilter{})
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": toBookingDTOs(out), "total": len(out)})
}

// Search filters bookings by ?status=&date=&search=&limit=.
func (h *BookingHandler) Search(c echo.Context) error {
	f := model.BookingFilter{
		Status: model.BookingStatus(strings.ToLower(strings.TrimSpace(c.QueryParam("status")))),
		Date:   strings.TrimSpace(c.QueryParam("date")),
		Search: strings.TrimSpace(c.QueryParam("search")),
	}
	if f.Status == "all" {
		f.Status = ""
	}
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid limit"})
		}
		f.Limit = n
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	out, err := h.Svc.List(ctx, f)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": toBookingDTOs(out), "total": len(out)})
}

// Get returns one booking.  Customers may only read their own.
func (h *BookingHandler) Get(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	b, err := h.Svc.Get(ctx, c.Param("bookingId"), actorFrom(c))
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"booking": toBookingDTO(b)})
}

// Cancel cancels a booking.  Owners cancel as user_cancelled, admins as
// admin_cancelled.  Cancelling twice returns the cancelled booking.
func (h *BookingHandler) Cancel(c echo.Context) error {
	actor := actorFrom(c)
	reason := model.ReasonUserCancelled
	if actor.Admin {
		reason = model.ReasonAdminCancelled
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	b, err := h.Svc.Cancel(ctx, c.Param("bookingId"), actor, reason)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "booking cancelled", "booking": toBookingDTO(b)})
}

type setStatusReq struct {
	Status string `json:"status" validate:"required,oneof=pending confirmed cancelled"`
}

// SetStatus moves a booking to a new status (admin).
func (h *BookingHandler) SetStatus(c echo.Context) error {
	var req setStatusReq
	if ok, err := bind(c, &req); !ok {
		return err
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	b, err := h.Svc.SetStatus(ctx, c.Param("id"), model.BookingStatus(req.Status))
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"booking": toBookingDTO(b)})
}

type validateReq struct {
	IsValidated *bool  `json:"isValidated" validate:"required"`
	AdminName   string `json:"adminName" validate:"omitempty,max=100"`
}

// Validate records or clears ticket check-in (admin).  Status is left
// untouched.
func (h *BookingHandler) Validate(c echo.Context) error {
	var req validateReq
	if ok, err := bind(c, &req); !ok {
		return err
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	b, err := h.Svc.Validate(ctx, c.Param("id"), req.AdminName, *req.IsValidated)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"booking": toBookingDTO(b)})
}
