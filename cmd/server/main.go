package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/rallyops/designops/api"
	"github.com/rallyops/designops/internal/access"
	apirouter "github.com/rallyops/designops/internal/api"
	"github.com/rallyops/designops/internal/api/handler"
	"github.com/rallyops/designops/internal/auth"
	"github.com/rallyops/designops/internal/config"
	"github.com/rallyops/designops/internal/docstore"
	"github.com/rallyops/designops/internal/docstore/backend"
	"github.com/rallyops/designops/internal/session"
)

func main() {
	// A missing .env file is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var store docstore.Store
	if cfg.DatabaseURL != "" {
		store, err = backend.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer store.Close() //nolint:errcheck
	} else {
		slog.Warn("DATABASE_URL is not set; reference data is unavailable")
	}

	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.SessionTTL)
	if err != nil {
		slog.Error("failed to create token service", "error", err)
		os.Exit(1)
	}

	records := access.NewRepository(store)
	broker := auth.NewBroker()
	mgr := session.NewManager(store, records, broker, cfg.SessionTTL)
	defer mgr.Close()

	go session.NewJanitor(mgr, cfg.SessionSweepInterval).Start(ctx)

	deps := apirouter.RouterDeps{
		Version:        cfg.Version,
		OpenAPISpec:    api.OpenAPISpec,
		Sessions:       mgr,
		Records:        records,
		Tokens:         tokens,
		CSRFKey:        []byte(cfg.CSRFKey),
		SecureCookies:  cfg.SecureCookies,
		TrustedOrigins: cfg.TrustedOrigins,
		AllowedOrigins: cfg.AllowedOrigins,
	}
	if store != nil {
		deps.DBPinger = store
		deps.Keys = auth.NewKeyService(auth.NewKeyRepository(store), cfg.BcryptCost)
	}
	deps.Provider = identityProvider(cfg)

	router := apirouter.NewRouter(deps)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting designops server", "port", cfg.Port, "version", cfg.Version)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutting down server", "signal", sig.String())
	case err := <-serverErr:
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}

func setupLogger(level string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}

// identityProvider returns the Google provider, or nil when no client is
// configured. The nil is returned untyped so the router sees no provider.
func identityProvider(cfg *config.Config) handler.IdentityProvider {
	if cfg.GoogleClientID == "" {
		slog.Warn("GOOGLE_CLIENT_ID is not set; browser sign-in is disabled")
		return nil
	}
	return auth.NewGoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleCallbackURL)
}
