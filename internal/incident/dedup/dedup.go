// Package dedup guards the deadline scanner against sending the same
// notification phase twice for one incident.
package dedup

import (
	"context"
	"sync"
)

// Phase names a notification the scanner sends at most once per incident.
type Phase string

const (
	PhaseWarning Phase = "warning"
	PhasePassed  Phase = "passed"
)

// Deduper records which incident/phase pairs have already been notified.
// Marks are never removed: an incident that has been warned stays warned.
type Deduper interface {
	Marked(ctx context.Context, incidentID string, phase Phase) (bool, error)
	Mark(ctx context.Context, incidentID string, phase Phase) error
}

// Memory is the process-lifetime deduper. Marks are lost on restart and
// invisible to other instances; use the redis deduper when either matters.
type Memory struct {
	mu   sync.RWMutex
	seen map[Phase]map[string]struct{}
}

func NewMemory() *Memory {
	return &Memory{
		seen: map[Phase]map[string]struct{}{
			PhaseWarning: {},
			PhasePassed:  {},
		},
	}
}

func (m *Memory) Marked(_ context.Context, incidentID string, phase Phase) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.seen[phase][incidentID]
	return ok, nil
}

func (m *Memory) Mark(_ context.Context, incidentID string, phase Phase) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.seen[phase]
	if !ok {
		set = make(map[string]struct{})
		m.seen[phase] = set
	}
	set[incidentID] = struct{}{}
	return nil
}
