package model

import (
	"strings"
	"time"
)

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
)

// Valid reports whether s is one of the known statuses.
func (s BookingStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled:
		return true
	}
	return false
}

// Active reports whether a booking in this status holds its seats.
func (s BookingStatus) Active() bool {
	return s == StatusPending || s == StatusConfirmed
}

// CanTransitionTo reports whether next is reachable from s.  pending may
// move to confirmed or cancelled, confirmed may only be cancelled and
// cancelled is terminal.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusConfirmed || next == StatusCancelled
	case StatusConfirmed:
		return next == StatusCancelled
	}
	return false
}

// CancellationReason records why a booking was cancelled.
type CancellationReason string

const (
	ReasonUserCancelled  CancellationReason = "user_cancelled"
	ReasonAdminCancelled CancellationReason = "admin_cancelled"
	ReasonMovieDeleted   CancellationReason = "movie_deleted"
	ReasonOther          CancellationReason = "other"
)

// Valid reports whether r is one of the known reasons.
func (r CancellationReason) Valid() bool {
	switch r {
	case ReasonUserCancelled, ReasonAdminCancelled, ReasonMovieDeleted, ReasonOther:
		return true
	}
	return false
}

// MovieSnapshot is the copy of movie details taken when a booking is
// created.  It is never re-joined with the movies table so that later
// edits or deletions do not rewrite booking history.  ImageURL is the
// only field that may change afterwards: it is cleared when the movie's
// image asset goes away.
type MovieSnapshot struct {
	ID       string  // bookings.movie_id
	Title    string  // bookings.movie_title
	Duration string  // bookings.movie_duration
	Hall     string  // bookings.movie_hall
	ImageURL *string // bookings.movie_image_url (nullable)
}

// Slot is the (date, time) pair of a session, e.g. ("2024-01-01", "19:00").
type Slot struct {
	Date string // YYYY-MM-DD
	Time string // HH:MM
}

// ShowingKey identifies one showing: a movie at a given slot.  Movie is
// the value returned by MovieKey, so a renamed movie keeps its showings.
type ShowingKey struct {
	Movie string
	Date  string
	Time  string
}

// MovieKey returns the movie part of a ShowingKey: the movie id, or the
// lower-cased title prefixed with "title:" when the id is unknown.
func MovieKey(id, title string) string {
	if id = strings.TrimSpace(id); id != "" {
		return id
	}
	return "title:" + strings.ToLower(strings.TrimSpace(title))
}

// Pricing holds the amounts of a booking in cents.  TotalAmountCents is
// always PricePerSeatCents * SeatCount.
type Pricing struct {
	PricePerSeatCents int64 // bookings.price_per_seat_cents
	SeatCount         int   // bookings.seat_count
	TotalAmountCents  int64 // bookings.total_amount_cents
}

// NewPricing computes the pricing block for seatCount seats.
func NewPricing(pricePerSeatCents int64, seatCount int) Pricing {
	return Pricing{
		PricePerSeatCents: pricePerSeatCents,
		SeatCount:         seatCount,
		TotalAmountCents:  pricePerSeatCents * int64(seatCount),
	}
}

// Booking is a customer's reservation of one or more seats for a showing.
//
// Fields:
//  BookingID          – human readable unique id (RES-<ts>-<suffix>).
//  UserID             – owner of the booking; never changes.
//  Movie              – snapshot of the movie at booking time.
//  Seats              – seat identifiers from the hall seat map.
//  Showtime           – date and time of the session.
//  Pricing            – per seat price, seat count and total.
//  Status             – pending, confirmed or cancelled.
//  IsValidated        – ticket check-in flag, independent of Status.
//  ValidatedAt        – check-in time (nil when not validated).
//  ValidatedBy        – name of the staff member who checked the ticket in.
//  CancellationReason – set only when Status is cancelled.
type Booking struct {
	BookingID          string              // bookings.booking_id
	UserID             string              // bookings.user_id
	Movie              MovieSnapshot       // bookings.movie_*
	Seats              []string            // bookings.seats
	Showtime           Slot                // bookings.show_date, bookings.show_time
	Pricing            Pricing             // bookings.*_cents, bookings.seat_count
	Status             BookingStatus       // bookings.status
	IsValidated        bool                // bookings.is_validated
	ValidatedAt        *time.Time          // bookings.validated_at (nullable)
	ValidatedBy        *string             // bookings.validated_by (nullable)
	CancellationReason *CancellationReason // bookings.cancellation_reason (nullable)
	CreatedAt          time.Time           // bookings.created_at
	UpdatedAt          time.Time           // bookings.updated_at
}

// Showing returns the key of the showing this booking belongs to.
func (b *Booking) Showing() ShowingKey {
	return ShowingKey{Movie: MovieKey(b.Movie.ID, b.Movie.Title), Date: b.Showtime.Date, Time: b.Showtime.Time}
}

// OfMovie reports whether b belongs to the movie with the given id, or,
// for snapshots taken without an id, to a movie with the given title.
func (b *Booking) OfMovie(id, title string) bool {
	if b.Movie.ID != "" {
		return id != "" && b.Movie.ID == id
	}
	return title != "" && strings.EqualFold(b.Movie.Title, title)
}

// Clone returns a deep copy of b.
func (b *Booking) Clone() *Booking {
	c := *b
	c.Seats = append([]string(nil), b.Seats...)
	if b.Movie.ImageURL != nil {
		v := *b.Movie.ImageURL
		c.Movie.ImageURL = &v
	}
	if b.ValidatedAt != nil {
		v := *b.ValidatedAt
		c.ValidatedAt = &v
	}
	if b.ValidatedBy != nil {
		v := *b.ValidatedBy
		c.ValidatedBy = &v
	}
	if b.CancellationReason != nil {
		v := *b.CancellationReason
		c.CancellationReason = &v
	}
	return &c
}

// BookingFilter narrows admin booking listings.  Zero values mean "any".
// Search matches booking ids and movie titles case-insensitively.
type BookingFilter struct {
	Status BookingStatus
	Date   string
	Search string
	Limit  int
}
