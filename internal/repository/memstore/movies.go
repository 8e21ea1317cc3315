package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/cinema-ticket-booking/internal/model"
	"github.com/iliyamo/cinema-ticket-booking/internal/repository"
)

// Movies is an in-memory movie store.
type Movies struct {
	mu          sync.RWMutex
	byID        map[string]*model.Movie
	lastCreated time.Time // keeps CreatedAt strictly increasing
}

func NewMovies() *Movies {
	return &Movies{byID: make(map[string]*model.Movie)}
}

func cloneMovie(m *model.Movie) *model.Movie {
	c := *m
	c.Showtimes = append([]model.MovieShowtime(nil), m.Showtimes...)
	c.Times = append([]string(nil), m.Times...)
	return &c
}

// List returns movies ordered by creation time, newest first.  Inactive
// movies are skipped unless includeInactive is set.
func (s *Movies) List(_ context.Context, includeInactive bool) ([]*model.Movie, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.Movie, 0, len(s.byID))
	for _, m := range s.byID {
		if !includeInactive && m.Status == model.MovieInactive {
			continue
		}
		out = append(out, cloneMovie(m))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Movies) GetByID(_ context.Context, id string) (*model.Movie, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneMovie(m), nil
}

// GetByTitle matches titles case-insensitively.  When several movies
// share the title the newest one wins.
func (s *Movies) GetByTitle(_ context.Context, title string) (*model.Movie, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var found *model.Movie
	for _, m := range s.byID {
		if !strings.EqualFold(m.Title, title) {
			continue
		}
		if found == nil || m.CreatedAt.After(found.CreatedAt) {
			found = m
		}
	}
	if found == nil {
		return nil, repository.ErrNotFound
	}
	return cloneMovie(found), nil
}

// Create assigns an id and timestamps and stores m.
func (s *Movies) Create(_ context.Context, m *model.Movie) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	if last := s.lastCreated; !now.After(last) {
		now = last.Add(time.Nanosecond)
	}
	s.lastCreated = now
	m.ID = uuid.NewString()
	m.CreatedAt, m.UpdatedAt = now, now
	s.byID[m.ID] = cloneMovie(m)
	return nil
}

func (s *Movies) Update(_ context.Context, m *model.Movie) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.byID[m.ID]
	if !ok {
		return repository.ErrNotFound
	}
	m.CreatedAt = cur.CreatedAt
	m.UpdatedAt = time.Now().UTC()
	s.byID[m.ID] = cloneMovie(m)
	return nil
}

func (s *Movies) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.byID, id)
	return nil
}

func (s *Movies) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID), nil
}
