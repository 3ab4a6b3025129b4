// Package errors defines the domain error vocabulary for the vault. Services
// return VaultError values; the HTTP layer maps codes to status codes so
// handlers never hand-pick statuses.
package errors

import "fmt"

type Code string

const (
	CodeBadRequest       Code = "bad_request"
	CodeUnauthorized     Code = "unauthorized"
	CodeNotFound         Code = "not_found"
	CodeConflict         Code = "conflict"
	CodeInvalidName      Code = "invalid_archive_name"
	CodeImmutableArchive Code = "immutable_archive"
	CodeChecksumMismatch Code = "checksum_mismatch"
	CodeCorruptArchive   Code = "corrupt_archive"
	CodeInternal         Code = "internal_error"
)

// VaultError carries a machine-readable code plus an operator-facing message.
// Internal errors deliberately drop the message at the HTTP boundary.
type VaultError struct {
	Code    Code
	Message string
	cause   error
}

func (e VaultError) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e VaultError) Unwrap() error { return e.cause }

// New builds a VaultError with the given code and message.
func New(code Code, message string) VaultError {
	return VaultError{Code: code, Message: message}
}

// Wrap attaches a cause so errors.Is/As still see the underlying failure.
func Wrap(code Code, message string, cause error) VaultError {
	return VaultError{Code: code, Message: message, cause: cause}
}

// ToHTTPStatus translates a domain code to an HTTP status. Unknown codes fall
// back to 500 so new codes fail safe rather than leaking 200s.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeInvalidName:
		return 400
	case CodeUnauthorized:
		return 401
	case CodeNotFound:
		return 404
	case CodeConflict, CodeImmutableArchive:
		return 409
	case CodeChecksumMismatch, CodeCorruptArchive:
		return 422
	default:
		return 500
	}
}
