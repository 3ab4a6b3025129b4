package httptransport

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	archivehandler "kycvault/internal/archive/handler"
	"kycvault/internal/archive/service"
	"kycvault/internal/archive/store"
	"kycvault/internal/platform/logger"
	"kycvault/internal/platform/middleware"
	"kycvault/internal/provenance"
	provstore "kycvault/internal/provenance/store"
	qaservice "kycvault/internal/qa/service"
	qastore "kycvault/internal/qa/store"
)

func newTestServer(t *testing.T, checks ...HealthCheck) (http.Handler, *middleware.Verifier) {
	t.Helper()
	log := logger.New()
	recorder := provenance.NewRecorder(provstore.NewMemory())
	svc := service.New(store.NewMemory(), nil, recorder, service.WithLogger(log))
	qaSvc := qaservice.New(qastore.NewMemory(), recorder)
	verifier := middleware.NewVerifier("test-signing-key")

	router := NewRouter(RouterConfig{
		Handler:  archivehandler.New(svc, qaSvc, log),
		Verifier: verifier,
		Logger:   log,
		Health:   checks,
	})
	return router, verifier
}

func TestHealthz(t *testing.T) {
	router, _ := newTestServer(t,
		HealthCheck{Name: "postgres", Check: func(context.Context) error { return nil }},
	)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "ok", body["postgres"])
}

func TestHealthzDegraded(t *testing.T) {
	router, _ := newTestServer(t,
		HealthCheck{Name: "redis", Check: func(context.Context) error { return errors.New("connection refused") }},
	)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	router, _ := newTestServer(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMutationsRequireToken(t *testing.T) {
	router, verifier := newTestServer(t)

	digest := sha256.Sum256([]byte("bytes"))
	body, err := json.Marshal(archivehandler.RegisterRequest{
		Filename:  "kyc_ori_data_Accra_Ghana.zip",
		Digest:    hex.EncodeToString(digest[:]),
		SizeBytes: 1024,
	})
	require.NoError(t, err)

	// No token.
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/archives", bytes.NewReader(body)))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Garbage token.
	req := httptest.NewRequest(http.MethodPost, "/archives", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer not-a-token")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Valid operator token.
	token, err := verifier.IssueToken("amina", nil)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodPost, "/archives", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// The registered archive is readable without credentials.
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/archives/kyc_ori_data_Accra_Ghana.zip", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	var record archivehandler.RecordResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&record))
	assert.Equal(t, "amina", record.RegisteredBy)
}

func TestRequestIDPropagated(t *testing.T) {
	router, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/archives", nil)
	req.Header.Set("X-Request-ID", "req-42")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))
}
