// Package memstore holds in-memory implementations of the repositories.
// They back the service when no database is configured (or reachable)
// and keep the same contracts as the MySQL repositories, including the
// sentinel errors from the repository package.
package memstore

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/cinema-ticket-booking/internal/model"
	"github.com/iliyamo/cinema-ticket-booking/internal/repository"
)

// Bookings is an in-memory booking store.  A single mutex guards both the
// bookings and the per-showing seat index, so the seat check and the
// insert in Insert cannot interleave with another writer.
type Bookings struct {
	mu    sync.Mutex
	byID  map[string]*model.Booking
	order []string                                // insertion order
	seats map[model.ShowingKey]map[string]string // seat -> booking id, active bookings only
}

// NewBookings returns an empty store.
func NewBookings() *Bookings {
	return &Bookings{
		byID:  make(map[string]*model.Booking),
		seats: make(map[model.ShowingKey]map[string]string),
	}
}

// HeldSeats returns the seats held by active bookings of the showing.
func (s *Bookings) HeldSeats(_ context.Context, key model.ShowingKey) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	held := s.seats[key]
	out := make([]string, 0, len(held))
	for seat := range held {
		out = append(out, seat)
	}
	sort.Strings(out)
	return out, nil
}

// Insert stores a copy of b.  It fails with ErrSeatTaken if any of its
// seats is held and with ErrDuplicateBookingID on an id collision.
func (s *Bookings) Insert(_ context.Context, b *model.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[b.BookingID]; ok {
		return repository.ErrDuplicateBookingID
	}
	if b.Status.Active() {
		held := s.seats[b.Showing()]
		for _, seat := range b.Seats {
			if _, taken := held[seat]; taken {
				return repository.ErrSeatTaken
			}
		}
		s.hold(b)
	}
	s.byID[b.BookingID] = b.Clone()
	s.order = append(s.order, b.BookingID)
	return nil
}

func (s *Bookings) hold(b *model.Booking) {
	key := b.Showing()
	held := s.seats[key]
	if held == nil {
		held = make(map[string]string, len(b.Seats))
		s.seats[key] = held
	}
	for _, seat := range b.Seats {
		held[seat] = b.BookingID
	}
}

func (s *Bookings) release(b *model.Booking) {
	key := b.Showing()
	held := s.seats[key]
	for _, seat := range b.Seats {
		if held[seat] == b.BookingID {
			delete(held, seat)
		}
	}
	if len(held) == 0 {
		delete(s.seats, key)
	}
}

// GetByBookingID returns a copy of the booking.
func (s *Bookings) GetByBookingID(_ context.Context, bookingID string) (*model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.byID[bookingID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return b.Clone(), nil
}

// Mutate applies fn to a copy of the booking and stores the result.
func (s *Bookings) Mutate(_ context.Context, bookingID string, fn func(b *model.Booking) error) (*model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.byID[bookingID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	next := cur.Clone()
	if err := fn(next); err != nil {
		if errors.Is(err, repository.ErrUnchanged) {
			return cur.Clone(), nil
		}
		return nil, err
	}
	// Identity, seats and showing are immutable.
	next.BookingID, next.UserID = cur.BookingID, cur.UserID
	next.Seats, next.Showtime = cur.Seats, cur.Showtime
	next.Movie.ID, next.Movie.Title = cur.Movie.ID, cur.Movie.Title
	if cur.Status.Active() && !next.Status.Active() {
		s.release(cur)
	}
	s.byID[bookingID] = next
	return next.Clone(), nil
}

// CancelByMovie cancels the movie's active bookings and clears the image
// URL on all of its bookings.  See model.Booking.OfMovie for matching.
func (s *Bookings) CancelByMovie(_ context.Context, movieID, title string, at time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, id := range s.order {
		b := s.byID[id]
		if !b.OfMovie(movieID, title) {
			continue
		}
		if b.Status.Active() {
			s.release(b)
			r := model.ReasonMovieDeleted
			b.Status = model.StatusCancelled
			b.CancellationReason = &r
			b.UpdatedAt = at
			n++
		}
		if b.Movie.ImageURL != nil {
			b.Movie.ImageURL = nil
			b.UpdatedAt = at
		}
	}
	return n, nil
}

// ScrubImageURLs clears image URLs containing one of patterns.
func (s *Bookings) ScrubImageURLs(_ context.Context, patterns []string, at time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, b := range s.byID {
		if b.Movie.ImageURL == nil || !containsAny(*b.Movie.ImageURL, patterns) {
			continue
		}
		b.Movie.ImageURL = nil
		b.UpdatedAt = at
		n++
	}
	return n, nil
}

// ListByUser returns the user's bookings, newest first.
func (s *Bookings) ListByUser(_ context.Context, userID string) ([]*model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Booking
	for i := len(s.order) - 1; i >= 0; i-- {
		if b := s.byID[s.order[i]]; b.UserID == userID {
			out = append(out, b.Clone())
		}
	}
	return out, nil
}

// List returns bookings matching f, newest first.
func (s *Bookings) List(_ context.Context, f model.BookingFilter) ([]*model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	search := strings.ToLower(strings.TrimSpace(f.Search))
	var out []*model.Booking
	for i := len(s.order) - 1; i >= 0; i-- {
		b := s.byID[s.order[i]]
		if f.Status != "" && b.Status != f.Status {
			continue
		}
		if f.Date != "" && b.Showtime.Date != f.Date {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(b.BookingID), search) &&
			!strings.Contains(strings.ToLower(b.Movie.Title), search) {
			continue
		}
		out = append(out, b.Clone())
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

// Count returns the number of bookings.
func (s *Bookings) Count(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID), nil
}

func containsAny(s string, patterns []string) bool {
	for _, p := range patterns {
		if p != "" && strings.Contains(s, p) {
			return true
		}
	}
	return false
}
