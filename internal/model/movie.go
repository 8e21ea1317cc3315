package model

import "time"

// Movie statuses.  Inactive movies are hidden from the public listing.
const (
	MovieActive     = "active"
	MovieInactive   = "inactive"
	MovieComingSoon = "coming-soon"
)

// MovieShowtime is one scheduled session of a movie with its seat price.
type MovieShowtime struct {
	Date       string // movie_showtimes.show_date (YYYY-MM-DD)
	Time       string // movie_showtimes.show_time (HH:MM)
	PriceCents int64  // movie_showtimes.price_cents
}

// Movie is a film offered by the cinema.  Showtimes carries the
// structured schedule; Times is the older list of bare "HH:MM" values
// kept for movies created before prices were attached to sessions.
type Movie struct {
	ID          string          // movies.id
	Title       string          // movies.title
	Duration    string          // movies.duration
	Hall        string          // movies.hall
	Image       string          // movies.image
	Showtimes   []MovieShowtime // movie_showtimes rows
	Times       []string        // movies.times (legacy)
	Genre       string          // movies.genre
	Description string          // movies.description
	Status      string          // movies.status
	CreatedAt   time.Time       // movies.created_at
	UpdatedAt   time.Time       // movies.updated_at
}
