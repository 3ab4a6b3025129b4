// Package service implements the QA workflow: reviewers sign off on an
// archive's figures once, and every later extract is checked against that
// baseline.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"kycvault/internal/provenance"
	"kycvault/internal/qa"
	"kycvault/internal/qa/store"
	"kycvault/internal/survey"
	"kycvault/pkg/domain"
	vaulterrors "kycvault/pkg/errors"
	"kycvault/pkg/platform/sentinel"
)

type Service struct {
	store    store.Store
	recorder *provenance.Recorder
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets the logger used for best-effort failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(st store.Store, recorder *provenance.Recorder, opts ...Option) *Service {
	s := &Service{
		store:    st,
		recorder: recorder,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Validate records a reviewer sign-off on the archive's computed figures.
func (s *Service) Validate(ctx context.Context, archiveName string, summary survey.Summary, reviewer string) (qa.Note, error) {
	note := qa.NoteFromSummary(archiveName, summary)
	note.Reviewer = reviewer
	return s.ValidateFigures(ctx, note)
}

// ValidateFigures records a sign-off on figures supplied directly, for
// callers that no longer have the extract on disk.
func (s *Service) ValidateFigures(ctx context.Context, note qa.Note) (qa.Note, error) {
	if note.ArchiveName == "" {
		return qa.Note{}, vaulterrors.New(vaulterrors.CodeBadRequest, "archive name is required")
	}
	if note.Reviewer == "" {
		return qa.Note{}, vaulterrors.New(vaulterrors.CodeBadRequest, "reviewer is required")
	}

	note.ID = domain.NewNoteID()
	note.ValidatedAt = s.now()

	if err := s.store.Save(ctx, note); err != nil {
		return qa.Note{}, vaulterrors.Wrap(vaulterrors.CodeInternal, "save qa note", err)
	}

	if s.recorder != nil {
		err := s.recorder.Record(ctx, provenance.Event{
			ArchiveName: note.ArchiveName,
			Action:      provenance.ActionFiguresValidated,
			Actor:       note.Reviewer,
			Detail:      "validated figures recorded",
		})
		if err != nil {
			s.logger.WarnContext(ctx, "recording validation event failed",
				"archive", note.ArchiveName, "error", err)
		}
	}
	return note, nil
}

// CheckExtract compares fresh figures against the last validated note.
// An empty mismatch list means the extract reproduces the baseline.
func (s *Service) CheckExtract(ctx context.Context, archiveName string, summary survey.Summary) ([]qa.Mismatch, error) {
	note, err := s.store.LastForArchive(ctx, archiveName)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, vaulterrors.New(vaulterrors.CodeNotFound,
			"no validated figures for "+archiveName)
	}
	if err != nil {
		return nil, vaulterrors.Wrap(vaulterrors.CodeInternal, "load qa note", err)
	}

	if s.recorder != nil {
		err := s.recorder.Record(ctx, provenance.Event{
			ArchiveName: archiveName,
			Action:      provenance.ActionArchiveExtracted,
			Actor:       note.Reviewer,
			Detail:      "extract checked against validated figures",
		})
		if err != nil {
			s.logger.WarnContext(ctx, "recording extract event failed",
				"archive", archiveName, "error", err)
		}
	}
	return qa.Check(note, summary), nil
}

// Notes returns all sign-offs for an archive, oldest first.
func (s *Service) Notes(ctx context.Context, archiveName string) ([]qa.Note, error) {
	notes, err := s.store.ListForArchive(ctx, archiveName)
	if err != nil {
		return nil, vaulterrors.Wrap(vaulterrors.CodeInternal, "list qa notes", err)
	}
	return notes, nil
}
