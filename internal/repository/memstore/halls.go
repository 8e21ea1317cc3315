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

// Halls is an in-memory hall store.  Names are unique, compared
// case-insensitively.
type Halls struct {
	mu   sync.RWMutex
	byID map[string]*model.Hall
}

func NewHalls() *Halls {
	return &Halls{byID: make(map[string]*model.Hall)}
}

func cloneHall(h *model.Hall) *model.Hall {
	c := *h
	c.Amenities = append([]string(nil), h.Amenities...)
	return &c
}

// List returns halls ordered by name.  A non-empty status filters.
func (s *Halls) List(_ context.Context, status string) ([]*model.Hall, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.Hall, 0, len(s.byID))
	for _, h := range s.byID {
		if status != "" && h.Status != status {
			continue
		}
		out = append(out, cloneHall(h))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Halls) GetByID(_ context.Context, id string) (*model.Hall, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneHall(h), nil
}

func (s *Halls) nameTaken(name, exceptID string) bool {
	for id, h := range s.byID {
		if id != exceptID && strings.EqualFold(h.Name, name) {
			return true
		}
	}
	return false
}

func (s *Halls) Create(_ context.Context, h *model.Hall) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.nameTaken(h.Name, "") {
		return repository.ErrDuplicateName
	}
	now := time.Now().UTC()
	h.ID = uuid.NewString()
	h.CreatedAt, h.UpdatedAt = now, now
	s.byID[h.ID] = cloneHall(h)
	return nil
}

func (s *Halls) Update(_ context.Context, h *model.Hall) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.byID[h.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if s.nameTaken(h.Name, h.ID) {
		return repository.ErrDuplicateName
	}
	h.CreatedAt = cur.CreatedAt
	h.UpdatedAt = time.Now().UTC()
	s.byID[h.ID] = cloneHall(h)
	return nil
}

func (s *Halls) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.byID, id)
	return nil
}

func (s *Halls) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID), nil
}
