package repository

import (
	"context"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-ticket-booking/internal/model"
)

var bookingCols = []string{
	"booking_id", "user_id", "movie_id", "movie_title", "movie_duration", "movie_hall", "movie_image_url",
	"seats", "show_date", "show_time", "price_per_seat_cents", "seat_count", "total_amount_cents", "status",
	"is_validated", "validated_at", "validated_by", "cancellation_reason", "created_at", "updated_at",
}

var created = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

func bookingRow(id, status string, seats string) []driver.Value {
	return []driver.Value{
		id, "u1", "m1", "Dune", "2h 46m", "Hall 1", "dune.jpg",
		seats, "2024-01-01", "19:00", int64(1250), int64(2), int64(2500), status,
		false, nil, nil, nil, created, created,
	}
}

func sampleBooking() *model.Booking {
	return &model.Booking{
		BookingID: "RES-1-AAAA",
		UserID:    "u1",
		Movie:     model.MovieSnapshot{ID: "m1", Title: "Dune"},
		Seats:     []string{"A1", "A2"},
		Showtime:  model.Slot{Date: "2024-01-01", Time: "19:00"},
		Pricing:   model.NewPricing(1250, 2),
		Status:    model.StatusConfirmed,
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func TestBookingInsert_WritesSeatRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO bookings").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO booking_seats \(booking_id, movie_key, show_date, show_time, seat_label\) VALUES \(\?, \?, \?, \?, \?\),\(\?, \?, \?, \?, \?\)`).
		WithArgs("RES-1-AAAA", "m1", "2024-01-01", "19:00", "A1", "RES-1-AAAA", "m1", "2024-01-01", "19:00", "A2").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	require.NoError(t, NewBookingRepo(db).Insert(context.Background(), sampleBooking()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingInsert_SeatTakenRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO bookings").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO booking_seats").WillReturnError(&mysql.MySQLError{
		Number:  1062,
		Message: "Duplicate entry 'm1-2024-01-01-19:00-A1' for key 'booking_seats.uq_booking_seats_slot'",
	})
	mock.ExpectRollback()

	err = NewBookingRepo(db).Insert(context.Background(), sampleBooking())
	assert.ErrorIs(t, err, ErrSeatTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingInsert_DuplicateBookingID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO bookings").WillReturnError(&mysql.MySQLError{
		Number:  1062,
		Message: "Duplicate entry 'RES-1-AAAA' for key 'bookings.uq_bookings_booking_id'",
	})
	mock.ExpectRollback()

	err = NewBookingRepo(db).Insert(context.Background(), sampleBooking())
	assert.ErrorIs(t, err, ErrDuplicateBookingID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingGetByBookingID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewBookingRepo(db)

	mock.ExpectQuery(`FROM bookings WHERE booking_id = \?`).WithArgs("RES-1-AAAA").
		WillReturnRows(sqlmock.NewRows(bookingCols).AddRow(bookingRow("RES-1-AAAA", "confirmed", `["A1","A2"]`)...))
	b, err := repo.GetByBookingID(context.Background(), "RES-1-AAAA")
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "A2"}, b.Seats)
	assert.Equal(t, model.StatusConfirmed, b.Status)
	assert.Equal(t, int64(2500), b.Pricing.TotalAmountCents)
	require.NotNil(t, b.Movie.ImageURL)
	assert.Nil(t, b.ValidatedAt)
	assert.Nil(t, b.CancellationReason)

	mock.ExpectQuery(`FROM bookings WHERE booking_id = \?`).WithArgs("nope").
		WillReturnRows(sqlmock.NewRows(bookingCols))
	_, err = repo.GetByBookingID(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingMutate_CancelReleasesSeats(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM bookings WHERE booking_id = \? FOR UPDATE`).WithArgs("RES-1-AAAA").
		WillReturnRows(sqlmock.NewRows(bookingCols).AddRow(bookingRow("RES-1-AAAA", "confirmed", `["A1","A2"]`)...))
	mock.ExpectExec("UPDATE bookings").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM booking_seats WHERE booking_id = \?`).WithArgs("RES-1-AAAA").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	out, err := NewBookingRepo(db).Mutate(context.Background(), "RES-1-AAAA", func(b *model.Booking) error {
		r := model.ReasonUserCancelled
		b.Status = model.StatusCancelled
		b.CancellationReason = &r
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, out.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingMutate_UnchangedWritesNothing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows(bookingCols).AddRow(bookingRow("RES-1-AAAA", "cancelled", `["A1"]`)...))
	mock.ExpectRollback()

	out, err := NewBookingRepo(db).Mutate(context.Background(), "RES-1-AAAA", func(*model.Booking) error {
		return ErrUnchanged
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, out.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingMutate_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WillReturnRows(sqlmock.NewRows(bookingCols))
	mock.ExpectRollback()

	_, err = NewBookingRepo(db).Mutate(context.Background(), "x", func(*model.Booking) error { return nil })
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingCancelByMovie(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	at := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(`(?s)UPDATE bookings\s+SET status = 'cancelled', cancellation_reason = 'movie_deleted'.+movie_id = \?`).
		WithArgs(at, "m1", "m1", "Dune", "Dune").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(`DELETE FROM booking_seats WHERE movie_key IN \(\?, \?\)`).WithArgs("m1", "title:dune").
		WillReturnResult(sqlmock.NewResult(0, 5))
	mock.ExpectExec(`UPDATE bookings SET movie_image_url = NULL`).WithArgs(at, "m1", "m1", "Dune", "Dune").
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectCommit()

	n, err := NewBookingRepo(db).CancelByMovie(context.Background(), "m1", "Dune", at)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingList_BuildsFilters(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`FROM bookings WHERE status = \? AND show_date = \? AND \(booking_id LIKE \? OR movie_title LIKE \?\) ORDER BY created_at DESC, id DESC LIMIT \?`).
		WithArgs("confirmed", "2024-01-01", "%dune%", "%dune%", 10).
		WillReturnRows(sqlmock.NewRows(bookingCols).
			AddRow(bookingRow("RES-2-BBBB", "confirmed", `["B1"]`)...).
			AddRow(bookingRow("RES-1-AAAA", "confirmed", `["A1"]`)...))

	out, err := NewBookingRepo(db).List(context.Background(), model.BookingFilter{
		Status: model.StatusConfirmed, Date: "2024-01-01", Search: "dune", Limit: 10,
	})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "RES-2-BBBB", out[0].BookingID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingScrubImageURLs(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewBookingRepo(db)
	at := time.Now().UTC()

	mock.ExpectExec(`movie_image_url LIKE \?\)`).WithArgs(at, "%placeholder%").
		WillReturnResult(sqlmock.NewResult(0, 2))
	n, err := repo.ScrubImageURLs(context.Background(), []string{"placeholder"}, at)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = repo.ScrubImageURLs(context.Background(), nil, at)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingHeldSeats(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT seat_label FROM booking_seats WHERE movie_key = \?`).WithArgs("m1", "2024-01-01", "19:00").
		WillReturnRows(sqlmock.NewRows([]string{"seat_label"}).AddRow("A1").AddRow("A2"))
	held, err := NewBookingRepo(db).HeldSeats(context.Background(),
		model.ShowingKey{Movie: "m1", Date: "2024-01-01", Time: "19:00"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "A2"}, held)
	assert.NoError(t, mock.ExpectationsWereMet())
}
