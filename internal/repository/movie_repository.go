package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/cinema-ticket-booking/internal/model"
)

// MovieRepo stores movies and their priced showtimes.  Showtimes live in
// movie_showtimes and are replaced wholesale on update.
type MovieRepo struct {
	db *sql.DB
}

// NewMovieRepo constructs a MovieRepo with the given DB handle.
func NewMovieRepo(db *sql.DB) *MovieRepo { return &MovieRepo{db: db} }

const movieColumns = `id, title, duration, hall, image, times, genre, description, status, created_at, updated_at`

func scanMovie(row rowScanner) (*model.Movie, error) {
	var (
		m     model.Movie
		times sql.NullString
		desc  sql.NullString
	)
	if err := row.Scan(&m.ID, &m.Title, &m.Duration, &m.Hall, &m.Image, &times, &m.Genre, &desc,
		&m.Status, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	m.Description = desc.String
	if times.Valid && times.String != "" {
		if err := json.Unmarshal([]byte(times.String), &m.Times); err != nil {
			return nil, err
		}
	}
	return &m, nil
}

// loadShowtimes fills Showtimes for the given movies with one query.
func (r *MovieRepo) loadShowtimes(ctx context.Context, movies ...*model.Movie) error {
	if len(movies) == 0 {
		return nil
	}
	byID := make(map[string]*model.Movie, len(movies))
	args := make([]any, 0, len(movies))
	for _, m := range movies {
		byID[m.ID] = m
		args = append(args, m.ID)
	}
	q := `SELECT movie_id, show_date, show_time, price_cents FROM movie_showtimes
		WHERE movie_id IN (?` + strings.Repeat(",?", len(movies)-1) + `)
		ORDER BY show_date, show_time`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			movieID string
			st      model.MovieShowtime
		)
		if err := rows.Scan(&movieID, &st.Date, &st.Time, &st.PriceCents); err != nil {
			return err
		}
		if m := byID[movieID]; m != nil {
			m.Showtimes = append(m.Showtimes, st)
		}
	}
	return rows.Err()
}

func (r *MovieRepo) getOne(ctx context.Context, q string, arg any) (*model.Movie, error) {
	m, err := scanMovie(r.db.QueryRowContext(ctx, q, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := r.loadShowtimes(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// GetByID returns ErrNotFound when no movie has the id.
func (r *MovieRepo) GetByID(ctx context.Context, id string) (*model.Movie, error) {
	return r.getOne(ctx, `SELECT `+movieColumns+` FROM movies WHERE id = ?`, id)
}

// GetByTitle matches using the column collation (case-insensitive).
func (r *MovieRepo) GetByTitle(ctx context.Context, title string) (*model.Movie, error) {
	return r.getOne(ctx, `SELECT `+movieColumns+` FROM movies WHERE title = ? ORDER BY created_at DESC LIMIT 1`, title)
}

// List returns movies, newest first.  Inactive ones are skipped unless
// includeInactive is set.
func (r *MovieRepo) List(ctx context.Context, includeInactive bool) ([]*model.Movie, error) {
	q := `SELECT ` + movieColumns + ` FROM movies`
	var args []any
	if !includeInactive {
		q += ` WHERE status <> ?`
		args = append(args, model.MovieInactive)
	}
	q += ` ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Movie
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadShowtimes(ctx, out...); err != nil {
		return nil, err
	}
	return out, nil
}

func encodeTimes(times []string) (sql.NullString, error) {
	if len(times) == 0 {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(times)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func insertShowtimesTx(ctx context.Context, tx *sql.Tx, movieID string, sts []model.MovieShowtime) error {
	if len(sts) == 0 {
		return nil
	}
	query := `INSERT INTO movie_showtimes (movie_id, show_date, show_time, price_cents) VALUES `
	args := make([]any, 0, len(sts)*4)
	for i, st := range sts {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?)"
		args = append(args, movieID, st.Date, st.Time, st.PriceCents)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// Create inserts the movie and its showtimes.  ID and timestamps are set
// on m.
func (r *MovieRepo) Create(ctx context.Context, m *model.Movie) error {
	times, err := encodeTimes(m.Times)
	if err != nil {
		return err
	}
	now := time.Now().UTC().Truncate(time.Second)
	m.ID = uuid.NewString()
	m.CreatedAt, m.UpdatedAt = now, now

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
	const q = `INSERT INTO movies (` + movieColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, q, m.ID, m.Title, m.Duration, m.Hall, m.Image, times, m.Genre,
		m.Description, m.Status, m.CreatedAt, m.UpdatedAt); err != nil {
		return err
	}
	if err := insertShowtimesTx(ctx, tx, m.ID, m.Showtimes); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// Update rewrites the movie row and replaces its showtimes.
func (r *MovieRepo) Update(ctx context.Context, m *model.Movie) error {
	times, err := encodeTimes(m.Times)
	if err != nil {
		return err
	}
	m.UpdatedAt = time.Now().UTC().Truncate(time.Second)

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
	res, err := tx.ExecContext(ctx, `UPDATE movies
		SET title = ?, duration = ?, hall = ?, image = ?, times = ?, genre = ?, description = ?, status = ?, updated_at = ?
		WHERE id = ?`,
		m.Title, m.Duration, m.Hall, m.Image, times, m.Genre, m.Description, m.Status, m.UpdatedAt, m.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// MySQL reports 0 for unchanged rows too; confirm the row exists.
		var one int
		if err := tx.QueryRowContext(ctx, `SELECT 1 FROM movies WHERE id = ?`, m.ID).Scan(&one); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM movie_showtimes WHERE movie_id = ?`, m.ID); err != nil {
		return err
	}
	if err := insertShowtimesTx(ctx, tx, m.ID, m.Showtimes); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// Delete removes the movie; showtimes go with it through the foreign key.
func (r *MovieRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM movies WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the number of movies.
func (r *MovieRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM movies`).Scan(&n)
	return n, err
}
