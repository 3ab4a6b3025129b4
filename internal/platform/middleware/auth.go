// Package middleware gates mutating vault endpoints behind bearer tokens.
// Reads stay open; registering, verifying, and superseding archives name an
// accountable operator, which is the access guidance that travels with
// sensitive survey data.
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	request "kycvault/pkg/platform/middleware/request"
)

// Claims carries the operator identity the vault records on provenance
// events.
type Claims struct {
	Operator string
}

// Verifier validates HMAC-signed operator tokens.
type Verifier struct {
	signingKey []byte
}

func NewVerifier(signingKey string) *Verifier {
	return &Verifier{signingKey: []byte(signingKey)}
}

// ValidateToken parses and verifies a token, returning the operator claims.
func (v *Verifier) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.signingKey, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	operator, _ := claims["sub"].(string)
	if operator == "" {
		return nil, fmt.Errorf("token missing sub claim")
	}
	return &Claims{Operator: operator}, nil
}

// IssueToken mints an operator token. Used by tests and the bootstrap path;
// production tokens come from whatever issues the team's credentials.
func (v *Verifier) IssueToken(operator string, claims jwt.MapClaims) (string, error) {
	if claims == nil {
		claims = jwt.MapClaims{}
	}
	claims["sub"] = operator
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.signingKey)
}

type contextKeyOperator struct{}

// ContextKeyOperator is exported for use in handler tests.
var ContextKeyOperator = contextKeyOperator{}

// GetOperator retrieves the authenticated operator from the context.
func GetOperator(ctx context.Context) string {
	if operator, ok := ctx.Value(ContextKeyOperator).(string); ok {
		return operator
	}
	return ""
}

// RequireAuth rejects requests without a valid bearer token and stores the
// operator identity in the request context.
func RequireAuth(verifier *Verifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const bearerPrefix = "Bearer "
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, bearerPrefix)
			if !ok || token == "" {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing bearer token")
				return
			}

			claims, err := verifier.ValidateToken(token)
			if err != nil {
				if logger != nil {
					logger.WarnContext(r.Context(), "unauthorized access - invalid token",
						"error", err,
						"request_id", request.GetRequestID(r.Context()),
					)
				}
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyOperator, claims.Operator)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":"%s","error_description":"%s"}`, errCode, errDesc))
}
