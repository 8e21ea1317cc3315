package booking

import (
	"fmt"

	"github.com/iliyamo/cinema-ticket-booking/internal/model"
)

// DefaultSeatPriceCents is the seat price used for movies that predate
// per-showtime pricing.
const DefaultSeatPriceCents int64 = 1500

// ResolvePrice returns the seat price in cents for the given slot.  A
// movie with structured showtimes must list the slot.  A movie without
// them is priced at fallbackCents, unless it carries a legacy list of
// times that does not include the requested one.
func ResolvePrice(m *model.Movie, date, tm string, fallbackCents int64) (int64, error) {
	if len(m.Showtimes) > 0 {
		for _, st := range m.Showtimes {
			if st.Date == date && st.Time == tm {
				return st.PriceCents, nil
			}
		}
		return 0, fmt.Errorf("%w: %s has no session on %s at %s", ErrShowtimeNotFound, m.Title, date, tm)
	}
	if len(m.Times) > 0 && !containsString(m.Times, tm) {
		return 0, fmt.Errorf("%w: %s is not shown at %s", ErrShowtimeNotFound, m.Title, tm)
	}
	if fallbackCents <= 0 {
		return 0, fmt.Errorf("%w: no price configured for %s", ErrShowtimeNotFound, m.Title)
	}
	return fallbackCents, nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
