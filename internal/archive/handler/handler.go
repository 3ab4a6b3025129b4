// Package handler wires the registry endpoints to the archive and QA
// services. Reads are public; anything that writes registry state requires
// an authenticated operator.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"kycvault/internal/archive"
	"kycvault/internal/archive/service"
	"kycvault/internal/platform/middleware"
	"kycvault/internal/provenance"
	"kycvault/internal/qa"
	vaulterrors "kycvault/pkg/errors"
	"kycvault/pkg/platform/httputil"
	request "kycvault/pkg/platform/middleware/request"
)

// Service defines the interface for registry operations.
type Service interface {
	Register(ctx context.Context, in service.RegisterInput) (archive.Record, error)
	Get(ctx context.Context, filename string) (archive.Record, error)
	List(ctx context.Context) ([]archive.Record, error)
	Verify(ctx context.Context, filename, observedDigest, checkedBy string) (archive.Verification, error)
	Supersede(ctx context.Context, filename string, in service.SupersedeInput) (archive.Record, error)
	History(ctx context.Context, filename string) ([]provenance.Event, error)
	Verifications(ctx context.Context, filename string) ([]archive.Verification, error)
}

// QAService defines the interface for validated-figures operations.
type QAService interface {
	ValidateFigures(ctx context.Context, note qa.Note) (qa.Note, error)
	Notes(ctx context.Context, archiveName string) ([]qa.Note, error)
}

// Handler wires registry endpoints to the services.
type Handler struct {
	service Service
	qa      QAService
	logger  *slog.Logger
}

// New constructs a registry handler with its dependencies.
func New(service Service, qa QAService, logger *slog.Logger) *Handler {
	return &Handler{service: service, qa: qa, logger: logger}
}

// Register mounts the read endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/archives", h.HandleList)
	r.Get("/archives/{name}", h.HandleGet)
	r.Get("/archives/{name}/provenance", h.HandleHistory)
	r.Get("/archives/{name}/verifications", h.HandleVerifications)
	r.Get("/archives/{name}/qa-notes", h.HandleListNotes)
}

// RegisterProtected mounts the mutating endpoints. The router wraps these
// with operator authentication.
func (h *Handler) RegisterProtected(r chi.Router) {
	r.Post("/archives", h.HandleRegister)
	r.Post("/archives/{name}/verify", h.HandleVerify)
	r.Post("/archives/{name}/supersede", h.HandleSupersede)
	r.Post("/archives/{name}/qa-notes", h.HandleCreateNote)
}

// HandleList handles GET /archives requests.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	records, err := h.service.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list archives failed",
			"request_id", request.GetRequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromRecords(records))
}

// HandleGet handles GET /archives/{name} requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := chi.URLParam(r, "name")

	record, err := h.service.Get(ctx, name)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromRecord(record))
}

// HandleRegister handles POST /archives requests.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)
	start := time.Now()

	operator := middleware.GetOperator(ctx)
	if operator == "" {
		httputil.WriteError(w, vaulterrors.New(vaulterrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[RegisterRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	record, err := h.service.Register(ctx, service.RegisterInput{
		Filename:     req.Filename,
		Digest:       req.Digest,
		SizeBytes:    req.SizeBytes,
		RegisteredBy: operator,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "archive registration failed",
			"request_id", requestID,
			"operator", operator,
			"archive", req.Filename,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "archive registered",
		"request_id", requestID,
		"operator", operator,
		"archive", record.Name,
		"digest", record.Digest,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusCreated, FromRecord(record))
}

// HandleVerify handles POST /archives/{name}/verify requests.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)
	name := chi.URLParam(r, "name")

	operator := middleware.GetOperator(ctx)
	if operator == "" {
		httputil.WriteError(w, vaulterrors.New(vaulterrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[VerifyRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	verification, err := h.service.Verify(ctx, name, req.Digest, operator)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if !verification.Match {
		h.logger.WarnContext(ctx, "archive verification mismatch",
			"request_id", requestID,
			"operator", operator,
			"archive", verification.ArchiveName,
		)
	}
	httputil.WriteJSON(w, http.StatusOK, verification)
}

// HandleSupersede handles POST /archives/{name}/supersede requests.
func (h *Handler) HandleSupersede(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)
	name := chi.URLParam(r, "name")

	operator := middleware.GetOperator(ctx)
	if operator == "" {
		httputil.WriteError(w, vaulterrors.New(vaulterrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[SupersedeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	successor, err := h.service.Supersede(ctx, name, service.SupersedeInput{
		SuccessorName: req.SuccessorName,
		Digest:        req.Digest,
		SizeBytes:     req.SizeBytes,
		Actor:         operator,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "archive supersession failed",
			"request_id", requestID,
			"operator", operator,
			"archive", name,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "archive superseded",
		"request_id", requestID,
		"operator", operator,
		"archive", name,
		"successor", successor.Name,
	)
	httputil.WriteJSON(w, http.StatusCreated, FromRecord(successor))
}

// HandleHistory handles GET /archives/{name}/provenance requests.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := chi.URLParam(r, "name")

	events, err := h.service.History(ctx, name)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromHistory(events))
}

// HandleVerifications handles GET /archives/{name}/verifications requests.
func (h *Handler) HandleVerifications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := chi.URLParam(r, "name")

	checks, err := h.service.Verifications(ctx, name)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, VerificationsResponse{
		Verifications: checks,
		Count:         len(checks),
	})
}

// HandleCreateNote handles POST /archives/{name}/qa-notes requests.
func (h *Handler) HandleCreateNote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)
	name := chi.URLParam(r, "name")

	operator := middleware.GetOperator(ctx)
	if operator == "" {
		httputil.WriteError(w, vaulterrors.New(vaulterrors.CodeUnauthorized, "authentication required"))
		return
	}

	// The archive must exist before figures are signed off against it.
	if _, err := h.service.Get(ctx, name); err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[QANoteRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	note, err := h.qa.ValidateFigures(ctx, qa.Note{
		ArchiveName:     name,
		RowCount:        req.RowCount,
		SettlementCount: req.SettlementCount,
		PopulationSum:   req.PopulationSum,
		Reviewer:        operator,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "qa note recorded",
		"request_id", requestID,
		"operator", operator,
		"archive", name,
	)
	httputil.WriteJSON(w, http.StatusCreated, note)
}

// HandleListNotes handles GET /archives/{name}/qa-notes requests.
func (h *Handler) HandleListNotes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := chi.URLParam(r, "name")

	notes, err := h.qa.Notes(ctx, name)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, NotesResponse{Notes: notes, Count: len(notes)})
}
