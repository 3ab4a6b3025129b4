// Package store persists archive registry records. Stores are
// interface-driven so services run against memory in tests and postgres in
// production without rewiring business code.
package store

import (
	"context"

	"kycvault/internal/archive"
)

type Store interface {
	// Save inserts a new record. Returns sentinel.ErrConflict when the name
	// is already registered; archives are never overwritten in place.
	Save(ctx context.Context, record archive.Record) error
	// FindByName returns a record or sentinel.ErrNotFound.
	FindByName(ctx context.Context, name string) (archive.Record, error)
	// List returns all records, newest registration first.
	List(ctx context.Context) ([]archive.Record, error)
	// MarkSuperseded points an existing record at its replacement. Returns
	// sentinel.ErrNotFound for unknown names and sentinel.ErrSuperseded when
	// the record already has a replacement.
	MarkSuperseded(ctx context.Context, name, successorName string) error
	// SaveVerification appends an integrity-check outcome.
	SaveVerification(ctx context.Context, v archive.Verification) error
	// ListVerifications returns check outcomes for an archive, oldest first.
	ListVerifications(ctx context.Context, name string) ([]archive.Verification, error)
}
