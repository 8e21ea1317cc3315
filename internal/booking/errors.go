package booking

import (
	"errors"
	"strings"
)

// Errors returned by Service.  Detailed errors wrap one of these, so
// callers should compare with errors.Is.
var (
	ErrInvalidRequest     = errors.New("invalid request")
	ErrSeatConflict       = errors.New("seat conflict")
	ErrShowtimeNotFound   = errors.New("showtime not found")
	ErrDuplicateBookingID = errors.New("duplicate booking id")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrNotFound           = errors.New("booking not found")
	ErrForbidden          = errors.New("forbidden")
	ErrInternal           = errors.New("internal error")
)

// ErrMovieNotFound is returned by CreateBooking for an unknown movie,
// always together with ErrNotFound.
var ErrMovieNotFound = errors.New("movie not found")

// SeatConflictError lists the requested seats that another active booking
// already holds.
type SeatConflictError struct {
	Seats []string
}

func (e *SeatConflictError) Error() string {
	return "seats already booked: " + strings.Join(e.Seats, ", ")
}

// Is makes errors.Is(err, ErrSeatConflict) true for *SeatConflictError.
func (e *SeatConflictError) Is(target error) bool {
	return target == ErrSeatConflict
}
