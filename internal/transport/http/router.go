// Package httptransport assembles the vault's HTTP surface: public reads,
// operator-authenticated mutations, health, and metrics.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	archivehandler "kycvault/internal/archive/handler"
	"kycvault/internal/platform/middleware"
	"kycvault/pkg/platform/httputil"
	request "kycvault/pkg/platform/middleware/request"
)

// HealthCheck reports one dependency's liveness for /healthz.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// RouterConfig carries the wired dependencies for NewRouter.
type RouterConfig struct {
	Handler  *archivehandler.Handler
	Verifier *middleware.Verifier
	Logger   *slog.Logger
	Health   []HealthCheck
}

// NewRouter wires all endpoints. Mutating routes sit behind operator auth;
// everything else is open so downstream users can resolve archives without
// credentials.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Timeout(30 * time.Second))

	cfg.Handler.Register(r)
	r.Group(func(protected chi.Router) {
		protected.Use(middleware.RequireAuth(cfg.Verifier, cfg.Logger))
		cfg.Handler.RegisterProtected(protected)
	})

	r.Get("/healthz", handleHealth(cfg.Health))
	r.Handle("/metrics", promhttp.Handler())
	return r
}

func handleHealth(checks []HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		body := map[string]string{"status": "ok"}
		for _, check := range checks {
			if err := check.Check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				body["status"] = "degraded"
				body[check.Name] = err.Error()
				continue
			}
			body[check.Name] = "ok"
		}
		httputil.WriteJSON(w, status, body)
	}
}
