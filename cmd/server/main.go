package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	archivehandler "kycvault/internal/archive/handler"
	archiveservice "kycvault/internal/archive/service"
	archivestore "kycvault/internal/archive/store"
	"kycvault/internal/catalog"
	"kycvault/internal/platform/config"
	"kycvault/internal/platform/httpserver"
	"kycvault/internal/platform/logger"
	"kycvault/internal/platform/metrics"
	"kycvault/internal/platform/middleware"
	platformredis "kycvault/internal/platform/redis"
	"kycvault/internal/provenance"
	provstore "kycvault/internal/provenance/store"
	"kycvault/internal/provenance/stream"
	qaservice "kycvault/internal/qa/service"
	qastore "kycvault/internal/qa/store"
	httptransport "kycvault/internal/transport/http"
	"kycvault/pkg/platform/tx"
)

// main wires dependencies and keeps the server lifecycle small. Every
// backing service is optional: without postgres the registry is in-memory,
// without redis the catalog falls back to memory, without kafka provenance
// stays local. Business logic lives in the internal services.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	ctx := context.Background()

	m := metrics.New()

	var health []httptransport.HealthCheck

	var db *sql.DB
	var archives archivestore.Store = archivestore.NewMemory()
	var events provenance.Store = provstore.NewMemory()
	var notes qastore.Store = qastore.NewMemory()
	if cfg.PostgresDSN != "" {
		var err error
		db, err = sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			log.Error("open postgres", "error", err)
			os.Exit(1)
		}
		if err := db.PingContext(ctx); err != nil {
			log.Error("ping postgres", "error", err)
			os.Exit(1)
		}
		if _, err := db.ExecContext(ctx, archivestore.Schema); err != nil {
			log.Error("apply schema", "error", err)
			os.Exit(1)
		}
		archives = archivestore.NewPostgres(db)
		events = provstore.NewPostgres(db)
		notes = qastore.NewPostgres(db)
		health = append(health, httptransport.HealthCheck{Name: "postgres", Check: db.PingContext})
		defer db.Close()
	} else {
		log.Warn("KYC_VAULT_POSTGRES_DSN not set; registry state is in-memory only")
	}

	var cat catalog.Catalog = catalog.NewMemory()
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("connect redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		cat = catalog.NewRedis(redisClient.Client)
		health = append(health, httptransport.HealthCheck{Name: "redis", Check: redisClient.Health})
		defer redisClient.Close()
	}

	recorderOpts := []provenance.Option{provenance.WithLogger(log)}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher, err := stream.New(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			log.Error("connect kafka", "error", err)
			os.Exit(1)
		}
		defer publisher.Close()
		recorderOpts = append(recorderOpts, provenance.WithSink(publisher))
	}
	recorder := provenance.NewRecorder(events, recorderOpts...)

	svcOpts := []archiveservice.Option{
		archiveservice.WithMetrics(m),
		archiveservice.WithLogger(log),
	}
	if db != nil {
		// Registry rows and their compliance events commit together.
		svcOpts = append(svcOpts, archiveservice.WithTxRunner(tx.NewRunner(db).RunInTx))
	}
	svc := archiveservice.New(archives, cat, recorder, svcOpts...)
	qaSvc := qaservice.New(notes, recorder, qaservice.WithLogger(log))

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Handler:  archivehandler.New(svc, qaSvc, log),
		Verifier: middleware.NewVerifier(cfg.JWTSigningKey),
		Logger:   log,
		Health:   health,
	})

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting kycvault registry", "addr", cfg.Addr, "archive_root", cfg.ArchiveRoot)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}
