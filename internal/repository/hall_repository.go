package repository // repository holds data access logic for domain entities

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/cinema-ticket-booking/internal/model"
)

// HallRepo provides methods to create and retrieve halls.  It embeds a
// database handle to perform queries and commands.
type HallRepo struct {
	db *sql.DB // db is the underlying database connection
}

// NewHallRepo constructs a HallRepo with the given DB handle.
func NewHallRepo(db *sql.DB) *HallRepo {
	return &HallRepo{db: db}
}

const hallColumns = `id, name, capacity, type, status, description, amenities, created_at, updated_at`

func scanHall(row rowScanner) (*model.Hall, error) {
	var (
		h         model.Hall
		desc      sql.NullString
		amenities sql.NullString
	)
	if err := row.Scan(&h.ID, &h.Name, &h.Capacity, &h.Type, &h.Status, &desc, &amenities,
		&h.CreatedAt, &h.UpdatedAt); err != nil {
		return nil, err
	}
	h.Description = desc.String
	if amenities.Valid && amenities.String != "" {
		if err := json.Unmarshal([]byte(amenities.String), &h.Amenities); err != nil {
			return nil, err
		}
	}
	return &h, nil
}

func encodeAmenities(a []string) (sql.NullString, error) {
	if len(a) == 0 {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

// Create inserts a new hall.  ID and timestamps are set on h.  A taken
// name yields ErrDuplicateName.
func (r *HallRepo) Create(ctx context.Context, h *model.Hall) error {
	amenities, err := encodeAmenities(h.Amenities)
	if err != nil {
		return err
	}
	now := time.Now().UTC().Truncate(time.Second)
	h.ID = uuid.NewString()
	h.CreatedAt, h.UpdatedAt = now, now
	const q = `INSERT INTO halls (` + hallColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, q, h.ID, h.Name, h.Capacity, h.Type, h.Status, h.Description, amenities,
		h.CreatedAt, h.UpdatedAt)
	return mapDuplicate(err)
}

// GetByID retrieves a hall by its ID.  It returns ErrNotFound when no
// row is found.
func (r *HallRepo) GetByID(ctx context.Context, id string) (*model.Hall, error) {
	const q = `SELECT ` + hallColumns + ` FROM halls WHERE id = ?`
	h, err := scanHall(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return h, nil
}

// List returns halls ordered by name.  A non-empty status filters.
func (r *HallRepo) List(ctx context.Context, status string) ([]*model.Hall, error) {
	q := `SELECT ` + hallColumns + ` FROM halls`
	var args []any
	if status != "" {
		q += ` WHERE status = ?`
		args = append(args, status)
	}
	q += ` ORDER BY name`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Hall
	for rows.Next() {
		h, err := scanHall(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Update writes all editable hall fields.  Returns ErrNotFound when the
// hall does not exist.
func (r *HallRepo) Update(ctx context.Context, h *model.Hall) error {
	amenities, err := encodeAmenities(h.Amenities)
	if err != nil {
		return err
	}
	h.UpdatedAt = time.Now().UTC().Truncate(time.Second)
	const q = `UPDATE halls
               SET name = ?, capacity = ?, type = ?, status = ?, description = ?, amenities = ?, updated_at = ?
               WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q,
		h.Name, h.Capacity, h.Type, h.Status, h.Description, amenities, h.UpdatedAt, h.ID,
	)
	if err != nil {
		return mapDuplicate(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a hall.
func (r *HallRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM halls WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the number of halls.
func (r *HallRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM halls`).Scan(&n)
	return n, err
}
