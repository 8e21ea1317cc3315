package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/cinema-ticket-booking/internal/model"
)

// BookingRepo persists bookings in MySQL.  Seats of active bookings are
// mirrored into booking_seats, whose unique key on (movie_key,
// show_date, show_time, seat_label) makes a double booking fail inside
// the inserting transaction.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingColumns = `booking_id, user_id, movie_id, movie_title, movie_duration, movie_hall, movie_image_url,
	seats, show_date, show_time, price_per_seat_cents, seat_count, total_amount_cents, status,
	is_validated, validated_at, validated_by, cancellation_reason, created_at, updated_at`

// MySQL error number for ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*model.Booking, error) {
	var (
		b           model.Booking
		image       sql.NullString
		seats       string
		status      string
		validatedAt sql.NullTime
		validatedBy sql.NullString
		reason      sql.NullString
	)
	err := row.Scan(
		&b.BookingID, &b.UserID, &b.Movie.ID, &b.Movie.Title, &b.Movie.Duration, &b.Movie.Hall, &image,
		&seats, &b.Showtime.Date, &b.Showtime.Time,
		&b.Pricing.PricePerSeatCents, &b.Pricing.SeatCount, &b.Pricing.TotalAmountCents, &status,
		&b.IsValidated, &validatedAt, &validatedBy, &reason, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(seats), &b.Seats); err != nil {
		return nil, err
	}
	b.Status = model.BookingStatus(status)
	if image.Valid {
		v := image.String
		b.Movie.ImageURL = &v
	}
	if validatedAt.Valid {
		v := validatedAt.Time
		b.ValidatedAt = &v
	}
	if validatedBy.Valid {
		v := validatedBy.String
		b.ValidatedBy = &v
	}
	if reason.Valid {
		v := model.CancellationReason(reason.String)
		b.CancellationReason = &v
	}
	return &b, nil
}

func scanBookings(rows *sql.Rows) ([]*model.Booking, error) {
	defer rows.Close()
	var out []*model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// mapDuplicate turns a duplicate-key error into the matching sentinel.
func mapDuplicate(err error) error {
	var me *mysql.MySQLError
	if !errors.As(err, &me) || me.Number != mysqlDuplicateEntry {
		return err
	}
	switch {
	case strings.Contains(me.Message, "uq_booking_seats_slot"):
		return ErrSeatTaken
	case strings.Contains(me.Message, "uq_bookings_booking_id"):
		return ErrDuplicateBookingID
	case strings.Contains(me.Message, "uq_halls_name"):
		return ErrDuplicateName
	case strings.Contains(me.Message, "uq_users_email"):
		return ErrEmailExists
	}
	return err
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func nullTime(p *time.Time) sql.NullTime {
	if p == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *p, Valid: true}
}

func nullReason(p *model.CancellationReason) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*p), Valid: true}
}

// HeldSeats returns the seats currently held for the showing.  Only
// active bookings have rows in booking_seats.
func (r *BookingRepo) HeldSeats(ctx context.Context, key model.ShowingKey) ([]string, error) {
	const q = `SELECT seat_label FROM booking_seats WHERE movie_key = ? AND show_date = ? AND show_time = ?`
	rows, err := r.db.QueryContext(ctx, q, key.Movie, key.Date, key.Time)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Insert writes the booking and, for an active booking, its seat rows in
// one transaction.  A seat already held yields ErrSeatTaken and a taken
// booking id ErrDuplicateBookingID; in both cases nothing is written.
func (r *BookingRepo) Insert(ctx context.Context, b *model.Booking) error {
	seats, err := json.Marshal(b.Seats)
	if err != nil {
		return err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const q = `INSERT INTO bookings (` + bookingColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, q,
		b.BookingID, b.UserID, b.Movie.ID, b.Movie.Title, b.Movie.Duration, b.Movie.Hall, nullString(b.Movie.ImageURL),
		string(seats), b.Showtime.Date, b.Showtime.Time,
		b.Pricing.PricePerSeatCents, b.Pricing.SeatCount, b.Pricing.TotalAmountCents, string(b.Status),
		b.IsValidated, nullTime(b.ValidatedAt), nullString(b.ValidatedBy), nullReason(b.CancellationReason),
		b.CreatedAt, b.UpdatedAt,
	); err != nil {
		return mapDuplicate(err)
	}

	if b.Status.Active() && len(b.Seats) > 0 {
		key := b.Showing()
		query := `INSERT INTO booking_seats (booking_id, movie_key, show_date, show_time, seat_label) VALUES `
		args := make([]any, 0, len(b.Seats)*5)
		for i, s := range b.Seats {
			if i > 0 {
				query += ","
			}
			query += "(?, ?, ?, ?, ?)"
			args = append(args, b.BookingID, key.Movie, key.Date, key.Time, s)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return mapDuplicate(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// GetByBookingID returns ErrNotFound when no booking has the id.
func (r *BookingRepo) GetByBookingID(ctx context.Context, bookingID string) (*model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE booking_id = ?`
	b, err := scanBooking(r.db.QueryRowContext(ctx, q, bookingID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return b, err
}

// Mutate locks the booking row, applies fn and writes back the mutable
// columns.  Leaving the active statuses deletes the seat rows in the same
// transaction.
func (r *BookingRepo) Mutate(ctx context.Context, bookingID string, fn func(b *model.Booking) error) (*model.Booking, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const sel = `SELECT ` + bookingColumns + ` FROM bookings WHERE booking_id = ? FOR UPDATE`
	cur, err := scanBooking(tx.QueryRowContext(ctx, sel, bookingID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	next := cur.Clone()
	if err := fn(next); err != nil {
		if errors.Is(err, ErrUnchanged) {
			return cur, nil
		}
		return nil, err
	}

	const upd = `UPDATE bookings
		SET status = ?, is_validated = ?, validated_at = ?, validated_by = ?, cancellation_reason = ?,
		    movie_image_url = ?, updated_at = ?
		WHERE booking_id = ?`
	if _, err := tx.ExecContext(ctx, upd,
		string(next.Status), next.IsValidated, nullTime(next.ValidatedAt), nullString(next.ValidatedBy),
		nullReason(next.CancellationReason), nullString(next.Movie.ImageURL), next.UpdatedAt, bookingID,
	); err != nil {
		return nil, err
	}
	if cur.Status.Active() && !next.Status.Active() {
		if _, err := tx.ExecContext(ctx, `DELETE FROM booking_seats WHERE booking_id = ?`, bookingID); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	// Only the mutable columns were written; keep the rest as loaded.
	out := cur.Clone()
	out.Status = next.Status
	out.IsValidated = next.IsValidated
	out.ValidatedAt = next.ValidatedAt
	out.ValidatedBy = next.ValidatedBy
	out.CancellationReason = next.CancellationReason
	out.Movie.ImageURL = next.Movie.ImageURL
	out.UpdatedAt = next.UpdatedAt
	return out, nil
}

// movieMatch selects the bookings of one movie; it mirrors
// model.Booking.OfMovie.  Args: id, id, title, title.
const movieMatch = `((? <> '' AND movie_id = ?) OR (movie_id = '' AND ? <> '' AND movie_title = ?))`

// CancelByMovie cancels the movie's active bookings with reason
// movie_deleted, releases their seats and clears the image URL of every
// booking of the movie, all in one transaction.
func (r *BookingRepo) CancelByMovie(ctx context.Context, movieID, title string, at time.Time) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `UPDATE bookings
		SET status = 'cancelled', cancellation_reason = 'movie_deleted', updated_at = ?
		WHERE `+movieMatch+` AND status IN ('pending', 'confirmed')`, at, movieID, movieID, title, title)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM booking_seats WHERE movie_key IN (?, ?)`,
		model.MovieKey(movieID, title), model.MovieKey("", title)); err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE bookings SET movie_image_url = NULL, updated_at = ?
		WHERE `+movieMatch+` AND movie_image_url IS NOT NULL`, at, movieID, movieID, title, title); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return int(n), nil
}

// ScrubImageURLs clears image URLs containing any of patterns.
func (r *BookingRepo) ScrubImageURLs(ctx context.Context, patterns []string, at time.Time) (int, error) {
	var (
		conds []string
		args  = []any{at}
	)
	for _, p := range patterns {
		if p == "" {
			continue
		}
		conds = append(conds, "movie_image_url LIKE ?")
		args = append(args, "%"+p+"%")
	}
	if len(conds) == 0 {
		return 0, nil
	}
	q := `UPDATE bookings SET movie_image_url = NULL, updated_at = ?
		WHERE movie_image_url IS NOT NULL AND (` + strings.Join(conds, " OR ") + `)`
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// ListByUser returns the user's bookings, newest first.
func (r *BookingRepo) ListByUser(ctx context.Context, userID string) ([]*model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE user_id = ? ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	return scanBookings(rows)
}

// List returns bookings matching f, newest first.  The search term is
// matched against booking ids and movie titles using the column collation,
// which is case-insensitive.
func (r *BookingRepo) List(ctx context.Context, f model.BookingFilter) ([]*model.Booking, error) {
	var (
		where []string
		args  []any
	)
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(f.Status))
	}
	if f.Date != "" {
		where = append(where, "show_date = ?")
		args = append(args, f.Date)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		where = append(where, "(booking_id LIKE ? OR movie_title LIKE ?)")
		args = append(args, "%"+s+"%", "%"+s+"%")
	}
	q := `SELECT ` + bookingColumns + ` FROM bookings`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at DESC, id DESC"
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return scanBookings(rows)
}

// Count returns the number of bookings.
func (r *BookingRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookings`).Scan(&n)
	return n, err
}
