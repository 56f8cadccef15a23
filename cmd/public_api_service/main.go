package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/numberdesk/numberdesk/internal/number_service/app"
	"github.com/numberdesk/numberdesk/internal/number_service/provider"
	"github.com/numberdesk/numberdesk/internal/number_service/registry"
	"github.com/numberdesk/numberdesk/internal/platform/config"
	"github.com/numberdesk/numberdesk/internal/platform/logger"
	"github.com/numberdesk/numberdesk/internal/public_api_service/middleware"
	httptransport "github.com/numberdesk/numberdesk/internal/public_api_service/transport/http"
)

const serviceName = "public_api_service"

func main() {
	config.LoadDotEnv()

	cfg, err := config.Load(serviceName)
	if err != nil {
		slog.Error("Failed to load configuration", "service", serviceName, "error", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.LogLevel)
	appLogger.Info("Public API service starting...", "port", cfg.ServerPort)

	validate := validator.New()

	reg, err := registry.Load(cfg.RegistryPath, validate)
	if err != nil {
		appLogger.Error("Failed to load organization registry", "path", cfg.RegistryPath, "error", err)
		os.Exit(1)
	}
	appLogger.Info("Organization registry loaded", "organizations", len(reg.Organizations()))

	creds := registry.NewEnvCredentialResolver()
	providerClient := provider.NewHTTPClient(appLogger, reg, creds, &http.Client{Timeout: cfg.ProviderTimeout()})
	sessions := app.NewSessionManager()
	application := app.NewApplication(reg, providerClient, sessions, appLogger, cfg.DefaultPageSize)

	authConfig := httptransport.AuthConfig{
		AdminUsername:     cfg.AdminUsername,
		AdminPasswordHash: cfg.AdminPasswordHash,
		JWTAccessSecret:   cfg.JWTAccessSecret,
		JWTAccessExpiry:   time.Duration(cfg.JWTAccessExpiryHours) * time.Hour,
	}
	authHandler := httptransport.NewAuthHandler(authConfig, sessions, appLogger, validate)
	numberHandler := httptransport.NewNumberHandler(application, appLogger, validate)
	authMW := middleware.AuthMiddleware(cfg.JWTAccessSecret, sessions, appLogger)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))
	r.Use(httptransport.PrometheusMetricsMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "Public API service is healthy"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1/auth", func(authRouter chi.Router) {
		authHandler.RegisterRoutes(authRouter)
	})

	r.Route("/v1", func(v1Router chi.Router) {
		v1Router.Use(authMW)
		numberHandler.RegisterRoutes(v1Router)
	})

	httpServer := &http.Server{Addr: fmt.Sprintf(":%d", cfg.ServerPort), Handler: r}

	g, ctx := errgroup.WithContext(context.Background())
	g.Go(func() error {
		appLogger.Info(fmt.Sprintf("Public API server listening on port %d", cfg.ServerPort))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		quitChan := make(chan os.Signal, 1)
		signal.Notify(quitChan, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-quitChan:
			appLogger.Info("Shutdown signal received, shutting down HTTP server...")
		case <-ctx.Done():
		}
		ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancelShutdown()
		return httpServer.Shutdown(ctxShutdown)
	})

	if err := g.Wait(); err != nil {
		appLogger.Error("Public API service exited with error", "error", err)
		os.Exit(1)
	}
	appLogger.Info("Public API service shut down.")
}
