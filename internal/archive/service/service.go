// Package service implements the registry operations: register, look up,
// verify, and supersede archives. Handlers and CLIs stay thin; the
// immutability rules live here.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"kycvault/internal/archive"
	"kycvault/internal/archive/store"
	"kycvault/internal/catalog"
	"kycvault/internal/checksum"
	"kycvault/internal/platform/metrics"
	"kycvault/internal/provenance"
	vaulterrors "kycvault/pkg/errors"
	"kycvault/pkg/platform/sentinel"
)

// Service wires the registry store, the catalog cache, and the provenance
// recorder. Registration and supersession are fail-closed on provenance:
// history that cannot be written means the operation did not happen.
type Service struct {
	store    store.Store
	catalog  catalog.Catalog
	recorder *provenance.Recorder
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      func() time.Time
	runTx    func(ctx context.Context, fn func(ctx context.Context) error) error
}

// Option configures the Service.
type Option func(*Service)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithClock pins time for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithTxRunner makes registry writes and their compliance events commit in
// one transaction. Without it each write stands alone, which is fine for the
// memory stores.
func WithTxRunner(run func(ctx context.Context, fn func(ctx context.Context) error) error) Option {
	return func(s *Service) { s.runTx = run }
}

func New(st store.Store, cat catalog.Catalog, rec *provenance.Recorder, opts ...Option) *Service {
	s := &Service{
		store:    st,
		catalog:  cat,
		recorder: rec,
		now:      time.Now,
		runTx: func(ctx context.Context, fn func(ctx context.Context) error) error {
			return fn(ctx)
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterInput describes a new archive. Filename must satisfy the naming
// contract; Digest is the SHA-256 of the bytes being published.
type RegisterInput struct {
	Filename     string
	Digest       string
	SizeBytes    int64
	RegisteredBy string
}

// Register records a new immutable archive. Registering a name that already
// exists is refused: corrections go through Supersede.
func (s *Service) Register(ctx context.Context, in RegisterInput) (archive.Record, error) {
	name, err := archive.ParseName(in.Filename)
	if err != nil {
		return archive.Record{}, err
	}
	if !checksum.ValidDigest(in.Digest) {
		return archive.Record{}, vaulterrors.New(vaulterrors.CodeBadRequest, "digest must be a sha256 hex string")
	}
	if in.SizeBytes < 0 {
		return archive.Record{}, vaulterrors.New(vaulterrors.CodeBadRequest, "size_bytes must not be negative")
	}

	record := archive.Record{
		Name:         name.Filename(),
		Kind:         name.Kind,
		City:         name.City,
		Country:      name.Country,
		Version:      name.Version,
		Digest:       in.Digest,
		SizeBytes:    in.SizeBytes,
		RegisteredAt: s.now(),
		RegisteredBy: in.RegisteredBy,
	}

	err = s.runTx(ctx, func(ctx context.Context) error {
		if err := s.store.Save(ctx, record); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return vaulterrors.New(vaulterrors.CodeImmutableArchive,
					"archive already registered; publish a correction as a new version")
			}
			return vaulterrors.Wrap(vaulterrors.CodeInternal, "save archive", err)
		}
		// Fail-closed: a registration without history is not a registration.
		if err := s.recorder.Record(ctx, provenance.Event{
			ArchiveName: record.Name,
			Action:      provenance.ActionArchiveRegistered,
			Actor:       in.RegisteredBy,
			Digest:      record.Digest,
		}); err != nil {
			return vaulterrors.Wrap(vaulterrors.CodeInternal, "record provenance", err)
		}
		return nil
	})
	if err != nil {
		return archive.Record{}, err
	}

	if s.catalog != nil {
		if err := s.catalog.Put(ctx, record); err != nil && s.logger != nil {
			s.logger.WarnContext(ctx, "catalog put failed", "archive", record.Name, "error", err)
		}
	}
	if s.metrics != nil {
		s.metrics.ArchivesRegistered.Inc()
	}
	return record, nil
}

// Get returns one record, consulting the catalog cache first.
func (s *Service) Get(ctx context.Context, filename string) (archive.Record, error) {
	if _, err := archive.ParseName(filename); err != nil {
		return archive.Record{}, err
	}

	if s.catalog != nil {
		if record, err := s.catalog.Get(ctx, filename); err == nil {
			if s.metrics != nil {
				s.metrics.CatalogHits.Inc()
			}
			return record, nil
		}
		if s.metrics != nil {
			s.metrics.CatalogMisses.Inc()
		}
	}

	record, err := s.store.FindByName(ctx, filename)
	if errors.Is(err, sentinel.ErrNotFound) {
		return archive.Record{}, vaulterrors.New(vaulterrors.CodeNotFound, "archive not registered")
	}
	if err != nil {
		return archive.Record{}, vaulterrors.Wrap(vaulterrors.CodeInternal, "find archive", err)
	}

	if s.catalog != nil {
		if err := s.catalog.Put(ctx, record); err != nil && s.logger != nil {
			s.logger.WarnContext(ctx, "catalog put failed", "archive", record.Name, "error", err)
		}
	}
	return record, nil
}

// List returns all registered archives, newest first.
func (s *Service) List(ctx context.Context) ([]archive.Record, error) {
	records, err := s.store.List(ctx)
	if err != nil {
		return nil, vaulterrors.Wrap(vaulterrors.CodeInternal, "list archives", err)
	}
	return records, nil
}

// Verify compares an observed digest against the registered one and records
// the outcome. A mismatch is a reported fact, not an error: the operator
// decides what to do with a bad copy.
func (s *Service) Verify(ctx context.Context, filename, observedDigest, checkedBy string) (archive.Verification, error) {
	if !checksum.ValidDigest(observedDigest) {
		return archive.Verification{}, vaulterrors.New(vaulterrors.CodeBadRequest, "digest must be a sha256 hex string")
	}
	record, err := s.Get(ctx, filename)
	if err != nil {
		return archive.Verification{}, err
	}

	v := archive.Verification{
		ArchiveName: record.Name,
		Digest:      observedDigest,
		Match:       checksum.Equal(record.Digest, observedDigest),
		CheckedAt:   s.now(),
		CheckedBy:   checkedBy,
	}
	if err := s.store.SaveVerification(ctx, v); err != nil {
		return archive.Verification{}, vaulterrors.Wrap(vaulterrors.CodeInternal, "save verification", err)
	}

	action := provenance.ActionArchiveVerified
	outcome := "match"
	if !v.Match {
		action = provenance.ActionChecksumMismatch
		outcome = "mismatch"
	}
	if err := s.recorder.Record(ctx, provenance.Event{
		ArchiveName: record.Name,
		Action:      action,
		Actor:       checkedBy,
		Digest:      observedDigest,
	}); err != nil && s.logger != nil {
		// Verification history is best-effort; the check result stands.
		s.logger.WarnContext(ctx, "record verification provenance failed", "archive", record.Name, "error", err)
	}
	if s.metrics != nil {
		s.metrics.IncVerification(outcome)
	}
	if !v.Match && s.logger != nil {
		s.logger.WarnContext(ctx, "checksum mismatch",
			"archive", record.Name,
			"want", record.Digest,
			"got", observedDigest,
		)
	}
	return v, nil
}

// SupersedeInput describes the corrected archive replacing an existing one.
// SuccessorName is optional; when empty the next version of the old name is
// used.
type SupersedeInput struct {
	SuccessorName string
	Digest        string
	SizeBytes     int64
	Actor         string
}

// Supersede registers the successor and points the old record at it. The old
// bytes are never touched; supersession is the only sanctioned correction.
func (s *Service) Supersede(ctx context.Context, filename string, in SupersedeInput) (archive.Record, error) {
	old, err := s.Get(ctx, filename)
	if err != nil {
		return archive.Record{}, err
	}
	if !old.Authoritative() {
		return archive.Record{}, vaulterrors.New(vaulterrors.CodeConflict,
			"archive already superseded by "+old.SupersededBy)
	}

	successorName := in.SuccessorName
	if successorName == "" {
		oldName, err := archive.ParseName(old.Name)
		if err != nil {
			return archive.Record{}, vaulterrors.Wrap(vaulterrors.CodeInternal, "parse registered name", err)
		}
		successorName = oldName.NextVersion().Filename()
	}

	successor, err := s.Register(ctx, RegisterInput{
		Filename:     successorName,
		Digest:       in.Digest,
		SizeBytes:    in.SizeBytes,
		RegisteredBy: in.Actor,
	})
	if err != nil {
		return archive.Record{}, err
	}

	err = s.runTx(ctx, func(ctx context.Context) error {
		if err := s.store.MarkSuperseded(ctx, old.Name, successor.Name); err != nil {
			switch {
			case errors.Is(err, sentinel.ErrSuperseded):
				return vaulterrors.New(vaulterrors.CodeConflict, "archive already superseded")
			case errors.Is(err, sentinel.ErrNotFound):
				return vaulterrors.New(vaulterrors.CodeNotFound, "archive not registered")
			default:
				return vaulterrors.Wrap(vaulterrors.CodeInternal, "mark superseded", err)
			}
		}
		if err := s.recorder.Record(ctx, provenance.Event{
			ArchiveName: old.Name,
			Action:      provenance.ActionArchiveSuperseded,
			Actor:       in.Actor,
			Detail:      successor.Name,
		}); err != nil {
			return vaulterrors.Wrap(vaulterrors.CodeInternal, "record provenance", err)
		}
		return nil
	})
	if err != nil {
		return archive.Record{}, err
	}

	// Successors come out of the re-pack workflow; note that on their chain.
	if err := s.recorder.Record(ctx, provenance.Event{
		ArchiveName: successor.Name,
		Action:      provenance.ActionArchivePacked,
		Actor:       in.Actor,
		Detail:      "re-packed from " + old.Name,
	}); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "record pack provenance failed", "archive", successor.Name, "error", err)
	}

	if s.catalog != nil {
		if err := s.catalog.Invalidate(ctx, old.Name); err != nil && s.logger != nil {
			s.logger.WarnContext(ctx, "catalog invalidate failed", "archive", old.Name, "error", err)
		}
	}
	if s.metrics != nil {
		s.metrics.ArchivesSuperseded.Inc()
	}
	return successor, nil
}

// History returns the provenance chain for an archive.
func (s *Service) History(ctx context.Context, filename string) ([]provenance.Event, error) {
	if _, err := archive.ParseName(filename); err != nil {
		return nil, err
	}
	events, err := s.recorder.History(ctx, filename)
	if err != nil {
		return nil, vaulterrors.Wrap(vaulterrors.CodeInternal, "list provenance", err)
	}
	return events, nil
}

// Verifications returns recorded integrity checks for an archive.
func (s *Service) Verifications(ctx context.Context, filename string) ([]archive.Verification, error) {
	if _, err := archive.ParseName(filename); err != nil {
		return nil, err
	}
	checks, err := s.store.ListVerifications(ctx, filename)
	if err != nil {
		return nil, vaulterrors.Wrap(vaulterrors.CodeInternal, "list verifications", err)
	}
	return checks, nil
}
