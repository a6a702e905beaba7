package memory

import (
	"context"
	"sync"
	"time"

	"finbooks/internal/incident"
	"finbooks/pkg/platform/sentinel"
)

// InMemoryStore keeps breach incidents in process memory. Used in tests and
// for development without a database.
type InMemoryStore struct {
	mu        sync.RWMutex
	incidents map[string]*incident.BreachIncident
	clock     func() time.Time
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		incidents: make(map[string]*incident.BreachIncident),
		clock:     time.Now,
	}
}

// WithClock overrides the time source for tests.
func (s *InMemoryStore) WithClock(clock func() time.Time) *InMemoryStore {
	s.clock = clock
	return s
}

func (s *InMemoryStore) Create(_ context.Context, inc *incident.BreachIncident) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.incidents[inc.IncidentID]; exists {
		return sentinel.ErrConflict
	}
	cp := *inc
	s.incidents[inc.IncidentID] = &cp
	return nil
}

func (s *InMemoryStore) GetByIncidentID(_ context.Context, incidentID string) (*incident.BreachIncident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inc, ok := s.incidents[incidentID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *inc
	return &cp, nil
}

func (s *InMemoryStore) ListOpenICOIncidents(_ context.Context) ([]*incident.BreachIncident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var open []*incident.BreachIncident
	for _, inc := range s.incidents {
		if inc.ICONotifiedAt == nil {
			cp := *inc
			open = append(open, &cp)
		}
	}
	return open, nil
}

func (s *InMemoryStore) MarkICONotified(_ context.Context, incidentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	inc, ok := s.incidents[incidentID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if inc.ICONotifiedAt == nil {
		now := s.clock()
		inc.ICONotifiedAt = &now
	}
	return nil
}

func (s *InMemoryStore) MarkUsersNotified(_ context.Context, incidentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	inc, ok := s.incidents[incidentID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if inc.UsersNotifiedAt == nil {
		now := s.clock()
		inc.UsersNotifiedAt = &now
	}
	return nil
}

func (s *InMemoryStore) UpdateStatus(_ context.Context, incidentID string, status incident.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	inc, ok := s.incidents[incidentID]
	if !ok {
		return sentinel.ErrNotFound
	}
	inc.Status = status
	return nil
}
