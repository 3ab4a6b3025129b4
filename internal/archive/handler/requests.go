package handler

import (
	"strings"

	"kycvault/internal/archive"
	"kycvault/internal/checksum"
	vaulterrors "kycvault/pkg/errors"
)

// RegisterRequest is the HTTP request body for POST /archives.
type RegisterRequest struct {
	Filename  string `json:"filename"`
	Digest    string `json:"digest"`
	SizeBytes int64  `json:"size_bytes"`
}

// Validate validates the request against the naming and digest contracts.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *RegisterRequest) Validate() error {
	if r == nil {
		return vaulterrors.New(vaulterrors.CodeBadRequest, "request body is required")
	}

	r.Filename = strings.TrimSpace(r.Filename)
	if r.Filename == "" {
		return vaulterrors.New(vaulterrors.CodeBadRequest, "filename is required")
	}
	if _, err := archive.ParseName(r.Filename); err != nil {
		return err
	}

	r.Digest = strings.TrimSpace(r.Digest)
	if !checksum.ValidDigest(r.Digest) {
		return vaulterrors.New(vaulterrors.CodeBadRequest, "digest must be a sha256 hex string")
	}
	if r.SizeBytes < 0 {
		return vaulterrors.New(vaulterrors.CodeBadRequest, "size_bytes must not be negative")
	}
	return nil
}

// VerifyRequest is the HTTP request body for POST /archives/{name}/verify.
type VerifyRequest struct {
	Digest string `json:"digest"`
}

func (r *VerifyRequest) Validate() error {
	if r == nil {
		return vaulterrors.New(vaulterrors.CodeBadRequest, "request body is required")
	}
	r.Digest = strings.TrimSpace(r.Digest)
	if !checksum.ValidDigest(r.Digest) {
		return vaulterrors.New(vaulterrors.CodeBadRequest, "digest must be a sha256 hex string")
	}
	return nil
}

// SupersedeRequest is the HTTP request body for POST /archives/{name}/supersede.
// SuccessorName is optional; the next version of the old name is used when
// absent.
type SupersedeRequest struct {
	SuccessorName string `json:"successor_name,omitempty"`
	Digest        string `json:"digest"`
	SizeBytes     int64  `json:"size_bytes"`
}

func (r *SupersedeRequest) Validate() error {
	if r == nil {
		return vaulterrors.New(vaulterrors.CodeBadRequest, "request body is required")
	}

	r.SuccessorName = strings.TrimSpace(r.SuccessorName)
	if r.SuccessorName != "" {
		if _, err := archive.ParseName(r.SuccessorName); err != nil {
			return err
		}
	}

	r.Digest = strings.TrimSpace(r.Digest)
	if !checksum.ValidDigest(r.Digest) {
		return vaulterrors.New(vaulterrors.CodeBadRequest, "digest must be a sha256 hex string")
	}
	if r.SizeBytes < 0 {
		return vaulterrors.New(vaulterrors.CodeBadRequest, "size_bytes must not be negative")
	}
	return nil
}

// QANoteRequest is the HTTP request body for POST /archives/{name}/qa-notes.
type QANoteRequest struct {
	RowCount        int   `json:"row_count"`
	SettlementCount int   `json:"settlement_count"`
	PopulationSum   int64 `json:"population_sum"`
}

func (r *QANoteRequest) Validate() error {
	if r == nil {
		return vaulterrors.New(vaulterrors.CodeBadRequest, "request body is required")
	}
	if r.RowCount < 0 || r.SettlementCount < 0 || r.PopulationSum < 0 {
		return vaulterrors.New(vaulterrors.CodeBadRequest, "figures must not be negative")
	}
	if r.SettlementCount > r.RowCount {
		return vaulterrors.New(vaulterrors.CodeBadRequest, "settlement_count cannot exceed row_count")
	}
	return nil
}
