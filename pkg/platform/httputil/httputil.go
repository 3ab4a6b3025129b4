// Package httputil centralizes JSON response envelopes so every handler
// returns the same shape. Internal errors omit the description to avoid
// leaking store or filesystem detail to callers.
package httputil

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	vaulterrors "kycvault/pkg/errors"
)

// Validatable is a request body that can validate and parse itself after
// decoding.
type Validatable interface {
	Validate() error
}

// DecodeAndPrepare decodes the JSON body into T and runs its validation.
// On failure the error response has already been written and ok is false.
func DecodeAndPrepare[T any, PT interface {
	*T
	Validatable
}](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (PT, bool) {
	req := PT(new(T))
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		if logger != nil {
			logger.WarnContext(ctx, "request body decode failed",
				"request_id", requestID,
				"error", err,
			)
		}
		WriteError(w, vaulterrors.New(vaulterrors.CodeBadRequest, "request body must be valid JSON"))
		return nil, false
	}
	if err := req.Validate(); err != nil {
		WriteError(w, err)
		return nil, false
	}
	return req, true
}

// WriteJSON writes v with the given status. Encoding failures are ignored;
// by then the status line is already on the wire.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error into the standard error envelope.
// Non-domain errors are reported as internal_error with no description.
func WriteError(w http.ResponseWriter, err error) {
	code := vaulterrors.CodeInternal
	message := ""
	if ve, ok := err.(vaulterrors.VaultError); ok {
		code = ve.Code
		message = ve.Message
	}

	body := map[string]string{"error": string(code)}
	if code != vaulterrors.CodeInternal && message != "" {
		body["error_description"] = message
	}
	WriteJSON(w, vaulterrors.ToHTTPStatus(code), body)
}
