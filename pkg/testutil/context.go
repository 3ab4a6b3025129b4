package testutil

import (
	"context"
	"net/http"

	"kycvault/internal/platform/middleware"
)

// WithOperator adds an authenticated operator to the request context,
// simulating what the auth middleware does for a valid bearer token.
func WithOperator(req *http.Request, operator string) *http.Request {
	if operator == "" {
		return req
	}
	ctx := context.WithValue(req.Context(), middleware.ContextKeyOperator, operator)
	return req.WithContext(ctx)
}
