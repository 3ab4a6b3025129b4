// Package store persists provenance events. Stores are interface-driven so
// the recorder can run against memory in tests and postgres in production
// without rewiring.
package store

import (
	"context"

	"kycvault/internal/provenance"
)

type Store interface {
	// Append persists an event. The caller has already chained the hash;
	// stores only write.
	Append(ctx context.Context, event provenance.Event) error
	// Last returns the most recent event for an archive, or
	// sentinel.ErrNotFound when the archive has no history yet.
	Last(ctx context.Context, archiveName string) (provenance.Event, error)
	// ListByArchive returns all events for an archive in append order.
	ListByArchive(ctx context.Context, archiveName string) ([]provenance.Event, error)
}
