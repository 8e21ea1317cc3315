// Package queue defines message payloads exchanged over the message broker,
// the publisher the booking service uses and the background consumer that
// turns booking events into log lines.
package queue

import (
	"time"

	"github.com/iliyamo/cinema-ticket-booking/internal/model"
)

// Queue names.  Both queues are durable and use the default exchange.
const (
	QueueBookingConfirmed = "booking.confirmed"
	QueueBookingCancelled = "booking.cancelled"
)

// BookingConfirmedEvent is published when a booking is created.  It
// contains enough information for downstream consumers to log, notify, or
// trigger analytics without querying the primary database.
type BookingConfirmedEvent struct {
	BookingID         string   `json:"booking_id"`
	UserID            string   `json:"user_id"`
	MovieID           string   `json:"movie_id"`
	MovieTitle        string   `json:"movie_title"`
	Hall              string   `json:"hall"`
	ShowDate          string   `json:"show_date"`
	ShowTime          string   `json:"show_time"`
	SeatLabels        []string `json:"seats"`
	PricePerSeatCents int64    `json:"price_per_seat_cents"`
	TotalAmountCents  int64    `json:"total_amount_cents"`
	ConfirmedAt       string   `json:"confirmed_at"`
}

// BookingCancelledEvent is published when a booking leaves the active
// statuses through a user or admin cancellation.
type BookingCancelledEvent struct {
	BookingID   string   `json:"booking_id"`
	UserID      string   `json:"user_id"`
	MovieTitle  string   `json:"movie_title"`
	ShowDate    string   `json:"show_date"`
	ShowTime    string   `json:"show_time"`
	SeatLabels  []string `json:"seats"`
	Reason      string   `json:"reason"`
	CancelledAt string   `json:"cancelled_at"`
}

// NewBookingConfirmedEvent builds the event for b.
func NewBookingConfirmedEvent(b *model.Booking) BookingConfirmedEvent {
	return BookingConfirmedEvent{
		BookingID:         b.BookingID,
		UserID:            b.UserID,
		MovieID:           b.Movie.ID,
		MovieTitle:        b.Movie.Title,
		Hall:              b.Movie.Hall,
		ShowDate:          b.Showtime.Date,
		ShowTime:          b.Showtime.Time,
		SeatLabels:        append([]string(nil), b.Seats...),
		PricePerSeatCents: b.Pricing.PricePerSeatCents,
		TotalAmountCents:  b.Pricing.TotalAmountCents,
		ConfirmedAt:       b.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// NewBookingCancelledEvent builds the event for b.
func NewBookingCancelledEvent(b *model.Booking) BookingCancelledEvent {
	ev := BookingCancelledEvent{
		BookingID:   b.BookingID,
		UserID:      b.UserID,
		MovieTitle:  b.Movie.Title,
		ShowDate:    b.Showtime.Date,
		ShowTime:    b.Showtime.Time,
		SeatLabels:  append([]string(nil), b.Seats...),
		CancelledAt: b.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if b.CancellationReason != nil {
		ev.Reason = string(*b.CancellationReason)
	}
	return ev
}
