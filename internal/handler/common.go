package handler // handler defines http handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-ticket-booking/internal/booking"
	"github.com/iliyamo/cinema-ticket-booking/internal/middleware"
	"github.com/iliyamo/cinema-ticket-booking/internal/model"
)

// requestTimeout bounds the storage work of a single request.
const requestTimeout = 5 * time.Second

// MovieStore is the movie persistence used by the handlers.  Both
// repository.MovieRepo and memstore.Movies satisfy it.
type MovieStore interface {
	List(ctx context.Context, includeInactive bool) ([]*model.Movie, error)
	GetByID(ctx context.Context, id string) (*model.Movie, error)
	GetByTitle(ctx context.Context, title string) (*model.Movie, error)
	Create(ctx context.Context, m *model.Movie) error
	Update(ctx context.Context, m *model.Movie) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

// HallStore is the hall persistence used by the handlers.
type HallStore interface {
	List(ctx context.Context, status string) ([]*model.Hall, error)
	GetByID(ctx context.Context, id string) (*model.Hall, error)
	Create(ctx context.Context, h *model.Hall) error
	Update(ctx context.Context, h *model.Hall) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

// UserStore is the account persistence used by the auth handlers.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// reqCtx derives the storage context of a request.
func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// actorFrom builds the booking actor from the identity JWTAuth stored.
func actorFrom(c echo.Context) booking.Actor {
	return booking.Actor{UserID: middleware.UserID(c), Admin: middleware.IsAdmin(c)}
}

// bookingError writes the HTTP response for an error returned by
// booking.Service.  Internal details never reach the client.
func bookingError(c echo.Context, err error) error {
	var conflict *booking.SeatConflictError
	switch {
	case errors.As(err, &conflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "seats already booked", "seats": conflict.Seats})
	case errors.Is(err, booking.ErrSeatConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "seats already booked"})
	case errors.Is(err, booking.ErrInvalidRequest):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, booking.ErrMovieNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
	case errors.Is(err, booking.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
	case errors.Is(err, booking.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, booking.ErrInvalidTransition):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": err.Error()})
	case errors.Is(err, booking.ErrShowtimeNotFound):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "showtime not found"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

// bind decodes the request body into dst and runs the echo validator on
// it.  When ok is false the error response has already been written and
// err is what the handler should return.
func bind(c echo.Context, dst any) (ok bool, err error) {
	if err := c.Bind(dst); err != nil {
		return false, c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := c.Validate(dst); err != nil {
		return false, c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": validationFields(err)})
	}
	return true, nil
}
