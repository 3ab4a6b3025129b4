package store

import (
	"context"
	"sync"

	"kycvault/internal/qa"
	"kycvault/pkg/platform/sentinel"
)

// Memory keeps notes in process memory, for tests and single-operator use.
type Memory struct {
	mu    sync.RWMutex
	notes map[string][]qa.Note
}

func NewMemory() *Memory {
	return &Memory{notes: make(map[string][]qa.Note)}
}

func (m *Memory) Save(_ context.Context, note qa.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notes[note.ArchiveName] = append(m.notes[note.ArchiveName], note)
	return nil
}

func (m *Memory) LastForArchive(_ context.Context, archiveName string) (qa.Note, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	notes := m.notes[archiveName]
	if len(notes) == 0 {
		return qa.Note{}, sentinel.ErrNotFound
	}
	return notes[len(notes)-1], nil
}

func (m *Memory) ListForArchive(_ context.Context, archiveName string) ([]qa.Note, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	notes := m.notes[archiveName]
	out := make([]qa.Note, len(notes))
	copy(out, notes)
	return out, nil
}
