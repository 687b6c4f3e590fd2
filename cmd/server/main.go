package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"safeguard/internal/audit"
	"safeguard/internal/cases"
	consentservice "safeguard/internal/consent/service"
	consentstore "safeguard/internal/consent/store"
	"safeguard/internal/detect"
	jwttoken "safeguard/internal/jwt_token"
	"safeguard/internal/org"
	"safeguard/internal/pipeline"
	"safeguard/internal/platform/config"
	"safeguard/internal/platform/database"
	"safeguard/internal/platform/health"
	"safeguard/internal/platform/httpserver"
	"safeguard/internal/platform/logger"
	"safeguard/internal/platform/metrics"
	"safeguard/internal/redact"
	httptransport "safeguard/internal/transport/http"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	log.Info("initializing safeguard",
		"addr", cfg.Addr,
		"block_on_pii", cfg.BlockOnPII,
		"require_consent", cfg.RequireConsent,
	)

	m := metrics.New()

	dbCfg := database.DefaultConfig()
	dbCfg.URL = cfg.DatabaseURL
	pool, err := database.New(dbCfg)
	if err != nil {
		log.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if pool == nil {
		log.Warn("no DATABASE_URL configured, durable storage disabled")
	}

	// Audit trail: bounded in-memory window, durable postgres behind an
	// async queue when a database is available.
	window := audit.NewMemoryStore(cfg.AuditWindow)
	publisherOpts := []audit.PublisherOption{audit.WithMetrics(m)}
	var durableAudit *audit.PostgresStore
	if pool != nil {
		durableAudit = audit.NewPostgres(pool.DB())
		publisherOpts = append(publisherOpts, audit.WithDurable(durableAudit, cfg.AuditBuffer))
	}
	auditor := audit.NewPublisher(window, log, publisherOpts...)

	registry := detect.NewRegistry()
	detector := detect.NewDetector(registry)
	redactor := redact.NewRedactor(registry)

	settings := org.NewStaticProvider(org.Settings{
		BlockOnPII:      cfg.BlockOnPII,
		RequireConsent:  cfg.RequireConsent,
		NotifyGuardians: cfg.NotifyGuardians,
		RetentionDays:   cfg.RetentionDays,
	})

	caseManager := cases.NewManager(log, cases.WithMetrics(m))

	consentOpts := []consentservice.Option{consentservice.WithMetrics(m)}
	if pool != nil {
		consentOpts = append(consentOpts, consentservice.WithDurable(consentstore.NewPostgres(pool.DB())))
	}
	consentSvc := consentservice.NewService(consentstore.New(), auditor, settings, log, consentOpts...)

	pipelineSvc := pipeline.NewService(detector, redactor, settings, auditor, caseManager, log,
		pipeline.WithMetrics(m))

	tokens := jwttoken.NewService(cfg.JWTSigningKey, cfg.TokenTTL)

	healthHandler := health.New()
	if pool != nil {
		healthHandler.RegisterCheck("database", func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return pool.Health(ctx)
		})
	}

	handler := httptransport.NewHandler(pipelineSvc, auditor, caseManager, consentSvc, registry, log, m)
	router := httptransport.NewRouter(handler, tokens, healthHandler)

	srv := httpserver.New(cfg.Addr, router)

	janitorDone := make(chan struct{})
	if durableAudit != nil {
		go retentionJanitor(durableAudit, cfg.RetentionDays, log, janitorDone)
	}

	log.Info("starting http server", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown on SIGINT
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	log.Info("shutting down server gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}

	close(janitorDone)

	// Flush queued durable audit writes before the process exits.
	auditor.Close()

	if pool != nil {
		if err := pool.Close(); err != nil {
			log.Error("closing database pool", "error", err)
		}
	}

	log.Info("server stopped")
}

// retentionJanitor prunes durable audit entries past the retention window
// once a day. The first pass runs shortly after startup so restarts do not
// postpone enforcement.
func retentionJanitor(store *audit.PostgresStore, retentionDays int, log *slog.Logger, done <-chan struct{}) {
	timer := time.NewTimer(time.Minute)
	defer timer.Stop()
	for {
		select {
		case <-done:
			return
		case <-timer.C:
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		removed, err := store.EnforceRetention(ctx, "", retentionDays)
		cancel()
		if err != nil {
			log.Warn("audit retention pass failed", "error", err)
		} else if removed > 0 {
			log.Info("audit retention enforced", "removed", removed, "retention_days", retentionDays)
		}

		timer.Reset(24 * time.Hour)
	}
}
