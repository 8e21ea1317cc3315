// Package seatmap describes the physical seat layout of a hall.  Every hall
// uses the same grid: rows A through H with twelve seats each, addressed as
// "{row}{number}" (e.g. "C7").
package seatmap

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

const (
	RowCount    = 8
	SeatsPerRow = 12
)

var (
	// ErrNoSeats is returned by Normalize when the input is empty.
	ErrNoSeats = errors.New("no seats selected")
	// ErrUnknownSeat is returned by Normalize for identifiers outside the grid.
	ErrUnknownSeat = errors.New("unknown seat")
)

// Row is one row of the layout with its seat identifiers in order.
type Row struct {
	Label string   `json:"row"`
	Seats []string `json:"seats"`
}

var (
	layout []Row
	seats  []string
	order  map[string]int
)

func init() {
	layout = make([]Row, 0, RowCount)
	seats = make([]string, 0, RowCount*SeatsPerRow)
	order = make(map[string]int, RowCount*SeatsPerRow)
	for r := 0; r < RowCount; r++ {
		label := indexToRowLabel(r)
		row := Row{Label: label, Seats: make([]string, 0, SeatsPerRow)}
		for n := 1; n <= SeatsPerRow; n++ {
			id := label + strconv.Itoa(n)
			order[id] = len(seats)
			seats = append(seats, id)
			row.Seats = append(row.Seats, id)
		}
		layout = append(layout, row)
	}
}

// Seats returns the 96 seat identifiers in row-major order.  The returned
// slice is a copy and may be modified by the caller.
func Seats() []string {
	return append([]string(nil), seats...)
}

// Layout returns the seat grid grouped by row.
func Layout() []Row {
	out := make([]Row, len(layout))
	for i, r := range layout {
		out[i] = Row{Label: r.Label, Seats: append([]string(nil), r.Seats...)}
	}
	return out
}

// Valid reports whether id names a seat of the grid.  Identifiers are
// case sensitive; use Normalize for user input.
func Valid(id string) bool {
	_, ok := order[id]
	return ok
}

// Normalize cleans a requested seat list: identifiers are trimmed and
// upper-cased, duplicates collapse to one entry and the result is sorted
// in layout order.  It fails when the list is empty or names a seat that
// is not on the grid.
func Normalize(ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, ErrNoSeats
	}
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, raw := range ids {
		id := strings.ToUpper(strings.TrimSpace(raw))
		if !Valid(id) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownSeat, raw)
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	Sort(out)
	return out, nil
}

// Sort orders seat identifiers by their position in the layout.  Unknown
// identifiers sort after known ones, alphabetically.
func Sort(ids []string) {
	sort.SliceStable(ids, func(i, j int) bool {
		oi, okI := order[ids[i]]
		oj, okJ := order[ids[j]]
		switch {
		case okI && okJ:
			return oi < oj
		case okI != okJ:
			return okI
		}
		return ids[i] < ids[j]
	})
}

// indexToRowLabel converts a zero-based index to an alphabetical row label like A, B, AA
func indexToRowLabel(i int) string {
	if i < 0 {
		return ""
	}
	res := []rune{}
	for {
		rem := i % 26
		res = append(res, rune('A'+rem))
		i = i/26 - 1
		if i < 0 {
			break
		}
	}
	for j, k := 0, len(res)-1; j < k; j, k = j+1, k-1 {
		res[j], res[k] = res[k], res[j]
	}
	return string(res)
}
