// Package booking implements seat availability, booking creation and the
// booking lifecycle on top of a Store.
package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/cinema-ticket-booking/internal/logger"
	"github.com/iliyamo/cinema-ticket-booking/internal/model"
	"github.com/iliyamo/cinema-ticket-booking/internal/repository"
	"github.com/iliyamo/cinema-ticket-booking/internal/seatmap"
)

// PlaceholderImagePatterns match image URLs that never pointed at a real
// asset.  ScrubPlaceholderImages clears them from booking snapshots.
var PlaceholderImagePatterns = []string{"placeholder"}

// DefaultValidatorName is recorded when a check-in carries no name.
const DefaultValidatorName = "Admin"

// Service coordinates booking reads and writes.
type Service struct {
	store        Store
	movies       MovieLookup
	log          *logger.Logger
	defaultPrice int64
	pub          Publisher
	now          func() time.Time
	newID        func() string
}

// Option customises a Service.
type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator replaces the booking id generator.
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) { s.newID = gen }
}

// WithPublisher sets the event publisher.  A nil publisher is ignored.
func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.pub = p
		}
	}
}

// NewService wires a Service.  defaultPriceCents is the seat price for
// movies without structured showtimes.
func NewService(store Store, movies MovieLookup, log *logger.Logger, defaultPriceCents int64, opts ...Option) *Service {
	s := &Service{
		store:        store,
		movies:       movies,
		log:          log,
		defaultPrice: defaultPriceCents,
		pub:          nopPublisher{},
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.newID == nil {
		s.newID = func() string { return NewBookingID(s.now()) }
	}
	return s
}

// CreateRequest is the input of CreateBooking.  Either MovieID or
// MovieTitle identifies the movie; MovieID wins when both are set.  Hall
// overrides the movie's hall in the snapshot when non-empty.
type CreateRequest struct {
	UserID     string
	MovieID    string
	MovieTitle string
	Hall       string
	Date       string
	Time       string
	Seats      []string
}

// Actor is the authenticated caller of a lifecycle operation.
type Actor struct {
	UserID string
	Admin  bool
}

// HeldSeats returns the seats held by pending or confirmed bookings of the
// showing, in seat map order.  The title is resolved to its movie first,
// so any casing and the movie's previous titles see the same seats.  An
// unknown title holds no seats.  The answer is advisory: CreateBooking
// re-checks atomically.
func (s *Service) HeldSeats(ctx context.Context, movieTitle, date, tm string) ([]string, error) {
	title := strings.TrimSpace(movieTitle)
	key := model.ShowingKey{
		Date: strings.TrimSpace(date),
		Time: strings.TrimSpace(tm),
	}
	if title == "" || key.Date == "" || key.Time == "" {
		return nil, fmt.Errorf("%w: movie, date and time are required", ErrInvalidRequest)
	}
	movie, err := s.lookupMovie(ctx, "", title)
	switch {
	case err == nil:
		key.Movie = model.MovieKey(movie.ID, movie.Title)
	case errors.Is(err, ErrMovieNotFound):
		key.Movie = model.MovieKey("", title)
	default:
		return nil, err
	}
	seats, err := s.store.HeldSeats(ctx, key)
	if err != nil {
		return nil, s.internal(ctx, "held seats", err)
	}
	seatmap.Sort(seats)
	return seats, nil
}

// CreateBooking validates req, prices it and stores a confirmed booking.
// The seat check happens inside the store write, so two overlapping
// requests for the same showing never both succeed.
func (s *Service) CreateBooking(ctx context.Context, req CreateRequest) (*model.Booking, error) {
	req.UserID = strings.TrimSpace(req.UserID)
	req.MovieID = strings.TrimSpace(req.MovieID)
	req.MovieTitle = strings.TrimSpace(req.MovieTitle)
	req.Date = strings.TrimSpace(req.Date)
	req.Time = strings.TrimSpace(req.Time)
	switch {
	case req.UserID == "":
		return nil, fmt.Errorf("%w: user is required", ErrInvalidRequest)
	case req.MovieID == "" && req.MovieTitle == "":
		return nil, fmt.Errorf("%w: movie is required", ErrInvalidRequest)
	case req.Date == "" || req.Time == "":
		return nil, fmt.Errorf("%w: date and time are required", ErrInvalidRequest)
	}
	seats, err := seatmap.Normalize(req.Seats)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	movie, err := s.lookupMovie(ctx, req.MovieID, req.MovieTitle)
	if err != nil {
		return nil, err
	}
	price, err := ResolvePrice(movie, req.Date, req.Time, s.defaultPrice)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	b := &model.Booking{
		UserID: req.UserID,
		Movie: model.MovieSnapshot{
			ID:       movie.ID,
			Title:    movie.Title,
			Duration: movie.Duration,
			Hall:     movie.Hall,
		},
		Seats:     seats,
		Showtime:  model.Slot{Date: req.Date, Time: req.Time},
		Pricing:   model.NewPricing(price, len(seats)),
		Status:    model.StatusConfirmed,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if h := strings.TrimSpace(req.Hall); h != "" {
		b.Movie.Hall = h
	}
	if movie.Image != "" {
		img := movie.Image
		b.Movie.ImageURL = &img
	}

	// One retry on an id collision, then give up.
	for attempt := 0; attempt < 2; attempt++ {
		b.BookingID = s.newID()
		err = s.store.Insert(ctx, b)
		if err == nil {
			s.log.LogBookingCreated(ctx, b.BookingID, b.Movie.Title, b.UserID, len(b.Seats))
			if perr := s.pub.BookingConfirmed(ctx, b); perr != nil {
				s.log.WarnContext(ctx, "publish booking.confirmed failed", "booking_id", b.BookingID, "error", perr)
			}
			return b, nil
		}
		switch {
		case errors.Is(err, repository.ErrDuplicateBookingID):
			s.log.WarnContext(ctx, "booking id collision", "booking_id", b.BookingID, "attempt", attempt+1)
			continue
		case errors.Is(err, repository.ErrSeatTaken):
			return nil, s.seatConflict(ctx, b)
		default:
			return nil, s.internal(ctx, "insert booking", err)
		}
	}
	return nil, s.internal(ctx, "insert booking", fmt.Errorf("%w after retry", ErrDuplicateBookingID))
}

// seatConflict reports which of the requested seats are taken.  The
// store has already refused the write; the re-read only names the seats.
func (s *Service) seatConflict(ctx context.Context, b *model.Booking) error {
	held, err := s.store.HeldSeats(ctx, b.Showing())
	if err != nil {
		s.log.WarnContext(ctx, "held seats after conflict", "error", err)
	}
	taken := make(map[string]struct{}, len(held))
	for _, id := range held {
		taken[id] = struct{}{}
	}
	var clash []string
	for _, id := range b.Seats {
		if _, ok := taken[id]; ok {
			clash = append(clash, id)
		}
	}
	if len(clash) == 0 {
		// The competing booking was cancelled in between.  Report the
		// whole request so the caller re-queries availability.
		clash = append(clash, b.Seats...)
	}
	return &SeatConflictError{Seats: clash}
}

func (s *Service) lookupMovie(ctx context.Context, id, title string) (*model.Movie, error) {
	var (
		m   *model.Movie
		err error
	)
	if id != "" {
		m, err = s.movies.GetByID(ctx, id)
	} else {
		m, err = s.movies.GetByTitle(ctx, title)
	}
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %w", ErrMovieNotFound, ErrNotFound)
		}
		return nil, s.internal(ctx, "movie lookup", err)
	}
	return m, nil
}

// Get returns a booking.  Customers may only read their own bookings.
func (s *Service) Get(ctx context.Context, bookingID string, actor Actor) (*model.Booking, error) {
	b, err := s.store.GetByBookingID(ctx, bookingID)
	if err != nil {
		return nil, s.storeErr(ctx, "get booking", err)
	}
	if !actor.Admin && b.UserID != actor.UserID {
		return nil, ErrForbidden
	}
	return b, nil
}

// ListForUser returns the user's bookings, newest first.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]*model.Booking, error) {
	out, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, s.internal(ctx, "list user bookings", err)
	}
	return out, nil
}

// List returns bookings matching f, newest first.
func (s *Service) List(ctx context.Context, f model.BookingFilter) ([]*model.Booking, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidRequest, f.Status)
	}
	out, err := s.store.List(ctx, f)
	if err != nil {
		return nil, s.internal(ctx, "list bookings", err)
	}
	return out, nil
}

// Count returns the number of stored bookings.
func (s *Service) Count(ctx context.Context) (int, error) {
	n, err := s.store.Count(ctx)
	if err != nil {
		return 0, s.internal(ctx, "count bookings", err)
	}
	return n, nil
}

// SetStatus moves a booking to status.  Setting the current status again
// is a no-op.  Moving to cancelled is an admin cancellation.
func (s *Service) SetStatus(ctx context.Context, bookingID string, status model.BookingStatus) (*model.Booking, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidRequest, status)
	}
	if status == model.StatusCancelled {
		return s.Cancel(ctx, bookingID, Actor{Admin: true}, model.ReasonAdminCancelled)
	}
	b, err := s.store.Mutate(ctx, bookingID, func(b *model.Booking) error {
		if b.Status == status {
			return repository.ErrUnchanged
		}
		if !b.Status.CanTransitionTo(status) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, b.Status, status)
		}
		b.Status = status
		b.UpdatedAt = s.now().UTC()
		return nil
	})
	if err != nil {
		return nil, s.storeErr(ctx, "set status", err)
	}
	return b, nil
}

// Cancel cancels a booking on behalf of actor.  Cancelling a cancelled
// booking returns it unchanged.
func (s *Service) Cancel(ctx context.Context, bookingID string, actor Actor, reason model.CancellationReason) (*model.Booking, error) {
	if !reason.Valid() {
		return nil, fmt.Errorf("%w: unknown cancellation reason %q", ErrInvalidRequest, reason)
	}
	changed := false
	b, err := s.store.Mutate(ctx, bookingID, func(b *model.Booking) error {
		if !actor.Admin && b.UserID != actor.UserID {
			return ErrForbidden
		}
		if b.Status == model.StatusCancelled {
			return repository.ErrUnchanged
		}
		r := reason
		b.Status = model.StatusCancelled
		b.CancellationReason = &r
		b.UpdatedAt = s.now().UTC()
		changed = true
		return nil
	})
	if err != nil {
		return nil, s.storeErr(ctx, "cancel booking", err)
	}
	if changed {
		s.log.LogBookingCancelled(ctx, b.BookingID, string(reason), b.UserID)
		if perr := s.pub.BookingCancelled(ctx, b); perr != nil {
			s.log.WarnContext(ctx, "publish booking.cancelled failed", "booking_id", b.BookingID, "error", perr)
		}
	}
	return b, nil
}

// Validate records ticket check-in.  It never changes Status; checking in
// a cancelled booking is refused.
func (s *Service) Validate(ctx context.Context, bookingID, validatorName string, validated bool) (*model.Booking, error) {
	name := strings.TrimSpace(validatorName)
	if name == "" {
		name = DefaultValidatorName
	}
	b, err := s.store.Mutate(ctx, bookingID, func(b *model.Booking) error {
		if validated && b.Status == model.StatusCancelled {
			return fmt.Errorf("%w: booking is cancelled", ErrInvalidTransition)
		}
		now := s.now().UTC()
		b.IsValidated = validated
		if validated {
			b.ValidatedAt = &now
			b.ValidatedBy = &name
		} else {
			b.ValidatedAt = nil
			b.ValidatedBy = nil
		}
		b.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, s.storeErr(ctx, "validate booking", err)
	}
	return b, nil
}

// CancelForDeletedMovie cancels all active bookings of a movie that is
// being removed and returns how many were cancelled.  Bookings are matched
// by movie id, so they are found even if the movie was renamed after they
// were made; title only matters for snapshots that carry no id.
func (s *Service) CancelForDeletedMovie(ctx context.Context, movieID, movieTitle string) (int, error) {
	id, title := strings.TrimSpace(movieID), strings.TrimSpace(movieTitle)
	if id == "" && title == "" {
		return 0, fmt.Errorf("%w: movie is required", ErrInvalidRequest)
	}
	n, err := s.store.CancelByMovie(ctx, id, title, s.now().UTC())
	if err != nil {
		return 0, s.internal(ctx, "cascade cancel", err)
	}
	s.log.InfoContext(ctx, "bookings cancelled for deleted movie", "movie_id", id, "movie", title, "count", n)
	return n, nil
}

// ScrubPlaceholderImages clears placeholder image URLs from booking
// snapshots and returns how many bookings were touched.
func (s *Service) ScrubPlaceholderImages(ctx context.Context) (int, error) {
	n, err := s.store.ScrubImageURLs(ctx, PlaceholderImagePatterns, s.now().UTC())
	if err != nil {
		return 0, s.internal(ctx, "scrub images", err)
	}
	return n, nil
}

// storeErr maps errors coming out of Store calls.
func (s *Service) storeErr(ctx context.Context, op string, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrForbidden), errors.Is(err, ErrForbidden):
		return ErrForbidden
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrInvalidRequest):
		return err
	}
	return s.internal(ctx, op, err)
}

func (s *Service) internal(ctx context.Context, op string, err error) error {
	s.log.ErrorContext(ctx, "booking store failure", "op", op, "error", err)
	return ErrInternal
}
