package provenance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	id "kycvault/pkg/domain"
	"kycvault/pkg/platform/sentinel"
)

// Store is the persistence surface the recorder needs. Implementations live
// in internal/provenance/store.
type Store interface {
	Append(ctx context.Context, event Event) error
	Last(ctx context.Context, archiveName string) (Event, error)
	ListByArchive(ctx context.Context, archiveName string) ([]Event, error)
}

// Sink receives persisted events for fan-out (Kafka). Failures must not
// block persistence; the store is the source of truth.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}

// Recorder appends hash-chained events. Compliance events are fail-closed:
// the calling operation must not proceed when Record returns an error.
// Operations and security events are persisted too, but callers may treat
// failures as non-fatal.
type Recorder struct {
	store  Store
	sink   Sink
	logger *slog.Logger
}

// Option configures the Recorder.
type Option func(*Recorder)

// WithSink fans persisted events out to a stream sink.
func WithSink(sink Sink) Option {
	return func(r *Recorder) { r.sink = sink }
}

// WithLogger sets a logger for sink failures.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Recorder) { r.logger = logger }
}

func NewRecorder(store Store, opts ...Option) *Recorder {
	r := &Recorder{store: store}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record chains the event onto the archive's history and persists it.
// Timestamp and ID are filled in when absent so call sites stay short.
func (r *Recorder) Record(ctx context.Context, event Event) error {
	if event.ArchiveName == "" {
		return fmt.Errorf("provenance event requires ArchiveName")
	}
	if event.Action == "" {
		return fmt.Errorf("provenance event requires Action")
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.ID.IsNil() {
		event.ID = id.NewEventID()
	}

	// Only a confirmed empty history starts a new chain. Any other failure
	// to read the tail would fork the chain with an empty PrevHash.
	prev, err := r.store.Last(ctx, event.ArchiveName)
	switch {
	case err == nil:
		event.PrevHash = prev.Hash
	case errors.Is(err, sentinel.ErrNotFound):
		// First event for this archive.
	default:
		return fmt.Errorf("read chain tail: %w", err)
	}
	event.Hash = chainHash(event)

	if err := r.store.Append(ctx, event); err != nil {
		return fmt.Errorf("append provenance event: %w", err)
	}

	if r.sink != nil {
		if err := r.sink.Publish(ctx, event); err != nil && r.logger != nil {
			r.logger.WarnContext(ctx, "provenance sink publish failed",
				"archive", event.ArchiveName,
				"action", event.Action,
				"error", err,
			)
		}
	}
	return nil
}

// History returns the full chain for an archive in append order.
func (r *Recorder) History(ctx context.Context, archiveName string) ([]Event, error) {
	return r.store.ListByArchive(ctx, archiveName)
}
