package store

import (
	"context"

	"kycvault/internal/qa"
)

// Store persists QA notes.
type Store interface {
	// Save records a reviewer sign-off.
	Save(ctx context.Context, note qa.Note) error
	// LastForArchive returns the most recent note for an archive, or
	// sentinel.ErrNotFound when none has been recorded.
	LastForArchive(ctx context.Context, archiveName string) (qa.Note, error)
	// ListForArchive returns all notes for an archive, oldest first.
	ListForArchive(ctx context.Context, archiveName string) ([]qa.Note, error)
}
