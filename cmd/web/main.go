package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"healthgate/internal/auth"
	"healthgate/internal/config"
	"healthgate/internal/dashboard"
	transporthttp "healthgate/internal/http"
	"healthgate/internal/partners"
	"healthgate/internal/platform/database"
	"healthgate/internal/platform/logging"
	"healthgate/internal/platform/migrate"
	"healthgate/internal/session"
	"healthgate/internal/upstream"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logging.New(cfg.LogLevel)

	sessionRepo, cleanup, err := buildSessionRepository(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize session store", "error", err)
		os.Exit(1)
	}
	if cleanup != nil {
		defer cleanup()
	}

	apiClient := upstream.NewClient(
		&http.Client{Timeout: 15 * time.Second},
		upstream.WithBaseURL(cfg.UpstreamBaseURL),
	)

	sessions := session.NewService(sessionRepo, apiClient, cfg.SessionTTL)
	dashboards := dashboard.NewService(apiClient, logger)
	marketplace := partners.NewService(apiClient, logger)

	var google *auth.GoogleAuthenticator
	if cfg.GoogleLoginEnabled() {
		google, err = auth.NewGoogleAuthenticator(ctx, cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)
		if err != nil {
			logger.Error("failed to initialize google authenticator", "error", err)
			os.Exit(1)
		}
	}

	router := transporthttp.NewRouter(cfg, sessions, apiClient, dashboards, marketplace, google, logger)

	srv := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    http.DefaultMaxHeaderBytes,
	}

	go runSessionCleanup(ctx, sessions, logger)

	go func() {
		logger.Info("healthgate listening", "addr", srv.Addr, "store", cfg.SessionStore, "upstream", cfg.UpstreamBaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}

func buildSessionRepository(ctx context.Context, cfg config.Config, logger *slog.Logger) (session.Repository, func(), error) {
	if cfg.UseInMemoryStore() {
		logger.Info("using in-memory session store")
		return session.NewInMemoryRepository(), nil, nil
	}

	db, err := database.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		_ = db.Close()
	}

	if err := migrate.Apply(ctx, db, logger); err != nil {
		cleanup()
		return nil, nil, err
	}

	logger.Info("connected to postgres")
	return session.NewPostgresRepository(db), cleanup, nil
}

// runSessionCleanup drops expired session rows on an hourly cadence.
func runSessionCleanup(ctx context.Context, sessions *session.Service, logger *slog.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := sessions.CleanupExpired(ctx)
			if err != nil {
				logger.Error("session cleanup failed", "error", err)
				continue
			}
			if removed > 0 {
				logger.Info("expired sessions removed", "count", removed)
			}
		}
	}
}
