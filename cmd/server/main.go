package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"coopgate/internal/groups"
	"coopgate/internal/platform/config"
	"coopgate/internal/platform/health"
	"coopgate/internal/platform/httpserver"
	"coopgate/internal/platform/logger"
	"coopgate/internal/platform/metrics"
	"coopgate/internal/session"
	httptransport "coopgate/internal/transport/http"
	"coopgate/internal/upstream"
	"coopgate/internal/wizard/handler"
	"coopgate/internal/wizard/service"
	"coopgate/internal/wizard/store"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	// Local development convenience; absence of a .env file is not an error.
	_ = godotenv.Load()

	cfg := config.FromEnv()
	log := logger.New()

	log.Info("initializing coopgate",
		"addr", cfg.Addr,
		"environment", cfg.Environment,
		"upstream", cfg.UpstreamBaseURL,
	)

	m := metrics.New()

	upstreamClient := upstream.New(cfg.UpstreamBaseURL, cfg.UpstreamTimeout, log)
	groupSource := groups.NewSource(upstreamClient, cfg.GroupsCacheTTL, log,
		groups.WithFallbackObserver(m),
	)
	wizardStore := store.New()

	wizardService := service.New(wizardStore, upstreamClient, groupSource,
		service.WithLogger(log),
		service.WithObserver(m),
	)

	tokens := session.NewTokenService(cfg.JWTSigningKey, "coopgate", cfg.TokenTTL)

	healthHandler := health.New(cfg.Environment)
	healthHandler.RegisterCheck("upstream", func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_, err := upstreamClient.FetchGroups(ctx)
		return err
	})

	router := httptransport.NewRouter(httptransport.Dependencies{
		Logger:  log,
		Metrics: m,
		Tokens:  tokens,
		Wizard:  handler.New(wizardService, log),
		Health:  healthHandler,
	})

	srv := httpserver.New(cfg.Addr, router)

	// Abandoned wizards are swept out so drafts don't accumulate forever.
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	go sweepExpired(sweepCtx, wizardStore, m, log, cfg.WizardTTL)

	log.Info("starting http server", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server gracefully")
	stopSweep()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}

// sweepExpired periodically deletes wizards idle past the TTL.
func sweepExpired(ctx context.Context, s *store.InMemoryStore, m *metrics.Metrics, log *slog.Logger, ttl time.Duration) {
	ticker := time.NewTicker(ttl / 4)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := s.DeleteExpired(ctx, time.Now().Add(-ttl))
			if err != nil {
				log.Error("wizard sweep failed", "error", err)
				continue
			}
			if deleted > 0 {
				m.DecrementActiveWizards(deleted)
				log.Info("swept expired wizards", "deleted", deleted)
			}
		}
	}
}
