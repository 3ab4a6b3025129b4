package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and filesystem helpers
// return these (optionally wrapped) so services can translate them into
// domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: archive, QA note, or event does not exist in store
// - ErrConflict: archive already registered under that name
// - ErrSuperseded: archive has been replaced by a newer version
// - ErrInvalidState: entity in wrong state for requested operation
// - ErrUnavailable: cache or broker temporarily unavailable
//
// For validation errors (bad input, malformed names), use pkg/errors directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrSuperseded   = errors.New("superseded")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
