package booking

import (
	"context"
	"time"

	"github.com/iliyamo/cinema-ticket-booking/internal/model"
)

// Store persists bookings.  Implementations must make Insert atomic with
// respect to seat ownership: when any seat of b is held by a pending or
// confirmed booking of the same showing, Insert writes nothing and
// returns repository.ErrSeatTaken.  A collision on BookingID returns
// repository.ErrDuplicateBookingID.
type Store interface {
	HeldSeats(ctx context.Context, key model.ShowingKey) ([]string, error)
	Insert(ctx context.Context, b *model.Booking) error
	GetByBookingID(ctx context.Context, bookingID string) (*model.Booking, error)
	// Mutate loads the booking, applies fn to it under a row lock and
	// stores the result.  Seats are released when the status leaves the
	// active set.  If fn returns repository.ErrUnchanged the current
	// booking is returned and nothing is written; any other error from fn
	// is returned as is.
	Mutate(ctx context.Context, bookingID string, fn func(b *model.Booking) error) (*model.Booking, error)
	// CancelByMovie cancels every active booking of the movie with reason
	// movie_deleted and clears the image URL of all its bookings.  Bookings
	// match on the movie id; snapshots without an id match on title (see
	// model.Booking.OfMovie).  It returns the number of bookings cancelled.
	CancelByMovie(ctx context.Context, movieID, title string, at time.Time) (int, error)
	// ScrubImageURLs clears image URLs that contain any of the patterns.
	ScrubImageURLs(ctx context.Context, patterns []string, at time.Time) (int, error)
	ListByUser(ctx context.Context, userID string) ([]*model.Booking, error)
	List(ctx context.Context, f model.BookingFilter) ([]*model.Booking, error)
	Count(ctx context.Context) (int, error)
}

// MovieLookup resolves the movie a booking is made for.  Both methods
// return repository.ErrNotFound when there is no such movie.
type MovieLookup interface {
	GetByID(ctx context.Context, id string) (*model.Movie, error)
	GetByTitle(ctx context.Context, title string) (*model.Movie, error)
}

// Publisher is notified after bookings are written.  Errors are logged
// by the service and never fail the operation.
type Publisher interface {
	BookingConfirmed(ctx context.Context, b *model.Booking) error
	BookingCancelled(ctx context.Context, b *model.Booking) error
}

type nopPublisher struct{}

func (nopPublisher) BookingConfirmed(context.Context, *model.Booking) error { return nil }
func (nopPublisher) BookingCancelled(context.Context, *model.Booking) error { return nil }
