package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema lists the tables in dependency order.  Every statement is
// idempotent so Migrate can run on each start.
//
// booking_seats holds one row per seat of every pending or confirmed
// booking.  Its unique key is what stops two bookings from claiming the
// same seat of a showing; rows are deleted when a booking is cancelled.
// movie_key is model.MovieKey: the movie id, so renaming a movie does not
// split its showings.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            CHAR(36)     NOT NULL PRIMARY KEY,
		name          VARCHAR(100) NOT NULL,
		email         VARCHAR(255) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		phone         VARCHAR(32)  NOT NULL DEFAULT '',
		role          VARCHAR(16)  NOT NULL DEFAULT 'CUSTOMER',
		created_at    DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at    DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_users_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS halls (
		id          CHAR(36)     NOT NULL PRIMARY KEY,
		name        VARCHAR(100) NOT NULL,
		capacity    INT          NOT NULL,
		type        VARCHAR(16)  NOT NULL DEFAULT 'Standard',
		status      VARCHAR(16)  NOT NULL DEFAULT 'Active',
		description TEXT         NULL,
		amenities   TEXT         NULL,
		created_at  DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at  DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_halls_name (name)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS movies (
		id          CHAR(36)     NOT NULL PRIMARY KEY,
		title       VARCHAR(255) NOT NULL,
		duration    VARCHAR(32)  NOT NULL DEFAULT '',
		hall        VARCHAR(100) NOT NULL DEFAULT '',
		image       VARCHAR(512) NOT NULL DEFAULT '',
		times       TEXT         NULL,
		genre       VARCHAR(100) NOT NULL DEFAULT '',
		description TEXT         NULL,
		status      VARCHAR(16)  NOT NULL DEFAULT 'active',
		created_at  DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at  DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		KEY idx_movies_title (title)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS movie_showtimes (
		id          BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		movie_id    CHAR(36)        NOT NULL,
		show_date   CHAR(10)        NOT NULL,
		show_time   CHAR(5)         NOT NULL,
		price_cents BIGINT          NOT NULL,
		UNIQUE KEY uq_movie_showtimes_slot (movie_id, show_date, show_time),
		CONSTRAINT fk_movie_showtimes_movie FOREIGN KEY (movie_id) REFERENCES movies (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id                   BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		booking_id           VARCHAR(32)  NOT NULL,
		user_id              VARCHAR(36)  NOT NULL,
		movie_id             VARCHAR(36)  NOT NULL DEFAULT '',
		movie_title          VARCHAR(255) NOT NULL,
		movie_duration       VARCHAR(32)  NOT NULL DEFAULT '',
		movie_hall           VARCHAR(100) NOT NULL DEFAULT '',
		movie_image_url      VARCHAR(512) NULL,
		seats                TEXT         NOT NULL,
		show_date            CHAR(10)     NOT NULL,
		show_time            CHAR(5)      NOT NULL,
		price_per_seat_cents BIGINT       NOT NULL,
		seat_count           INT          NOT NULL,
		total_amount_cents   BIGINT       NOT NULL,
		status               VARCHAR(16)  NOT NULL,
		is_validated         TINYINT(1)   NOT NULL DEFAULT 0,
		validated_at         DATETIME     NULL,
		validated_by         VARCHAR(100) NULL,
		cancellation_reason  VARCHAR(32)  NULL,
		created_at           DATETIME     NOT NULL,
		updated_at           DATETIME     NOT NULL,
		UNIQUE KEY uq_bookings_booking_id (booking_id),
		KEY idx_bookings_user (user_id),
		KEY idx_bookings_movie (movie_id, status),
		KEY idx_bookings_title (movie_title)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS booking_seats (
		booking_id  VARCHAR(32)  NOT NULL,
		movie_key   VARCHAR(255) NOT NULL,
		show_date   CHAR(10)     NOT NULL,
		show_time   CHAR(5)      NOT NULL,
		seat_label  VARCHAR(8)   NOT NULL,
		UNIQUE KEY uq_booking_seats_slot (movie_key, show_date, show_time, seat_label),
		KEY idx_booking_seats_booking (booking_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates any missing tables.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}
