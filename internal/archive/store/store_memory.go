package store

import (
	"context"
	"sort"
	"sync"

	"kycvault/internal/archive"
	"kycvault/pkg/platform/sentinel"
)

// Memory keeps the registry in maps. It intentionally favors clarity over
// performance; the flat-directory vaults this tool manages hold dozens of
// archives, not millions.
type Memory struct {
	mu            sync.RWMutex
	records       map[string]archive.Record
	verifications map[string][]archive.Verification
}

func NewMemory() *Memory {
	return &Memory{
		records:       make(map[string]archive.Record),
		verifications: make(map[string][]archive.Verification),
	}
}

func (s *Memory) Save(_ context.Context, record archive.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[record.Name]; exists {
		return sentinel.ErrConflict
	}
	s.records[record.Name] = record
	return nil
}

func (s *Memory) FindByName(_ context.Context, name string) (archive.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if record, ok := s.records[name]; ok {
		return record, nil
	}
	return archive.Record{}, sentinel.ErrNotFound
}

func (s *Memory) List(_ context.Context) ([]archive.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := make([]archive.Record, 0, len(s.records))
	for _, record := range s.records {
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].RegisteredAt.Equal(records[j].RegisteredAt) {
			return records[i].Name < records[j].Name
		}
		return records[i].RegisteredAt.After(records[j].RegisteredAt)
	})
	return records, nil
}

func (s *Memory) MarkSuperseded(_ context.Context, name, successorName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[name]
	if !ok {
		return sentinel.ErrNotFound
	}
	if record.SupersededBy != "" {
		return sentinel.ErrSuperseded
	}
	record.SupersededBy = successorName
	s.records[name] = record
	return nil
}

func (s *Memory) SaveVerification(_ context.Context, v archive.Verification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verifications[v.ArchiveName] = append(s.verifications[v.ArchiveName], v)
	return nil
}

func (s *Memory) ListVerifications(_ context.Context, name string) ([]archive.Verification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	checks := s.verifications[name]
	out := make([]archive.Verification, len(checks))
	copy(out, checks)
	return out, nil
}
