package store

import (
	"context"
	"sync"

	"kycvault/internal/provenance"
	"kycvault/pkg/platform/sentinel"
)

// Memory keeps events per archive in append order. It intentionally favors
// clarity over performance; tests and single-operator setups are its users.
type Memory struct {
	mu     sync.RWMutex
	events map[string][]provenance.Event
}

func NewMemory() *Memory {
	return &Memory{events: make(map[string][]provenance.Event)}
}

func (s *Memory) Append(_ context.Context, event provenance.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.ArchiveName] = append(s.events[event.ArchiveName], event)
	return nil
}

func (s *Memory) Last(_ context.Context, archiveName string) (provenance.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chain := s.events[archiveName]
	if len(chain) == 0 {
		return provenance.Event{}, sentinel.ErrNotFound
	}
	return chain[len(chain)-1], nil
}

func (s *Memory) ListByArchive(_ context.Context, archiveName string) ([]provenance.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chain := s.events[archiveName]
	out := make([]provenance.Event, len(chain))
	copy(out, chain)
	return out, nil
}
