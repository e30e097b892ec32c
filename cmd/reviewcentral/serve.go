package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"review-central/internal/auth"
	"review-central/internal/config"
	"review-central/internal/handlers"
	"review-central/internal/middleware"
)

const shutdownTimeout = 30 * time.Second

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(parent context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      buildHandler(ctx, a),
		ReadTimeout:  cfg.Server.TimeoutRead,
		WriteTimeout: cfg.Server.TimeoutWrite,
		IdleTimeout:  cfg.Server.TimeoutIdle,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server starting", "address", addr, "env", cfg.App.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	slog.Info("Server shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	slog.Info("Server stopped")
	return nil
}

// buildHandler wires middleware and handlers onto a new mux
func buildHandler(ctx context.Context, a *app) http.Handler {
	cfg := a.cfg
	svc := a.services

	tokens := auth.NewService(&cfg.JWT)
	var idp handlers.IdentityProvider
	if cfg.Auth.Provider == "azure-ad" {
		idp = auth.NewAzureProvider(&cfg.Auth)
	}

	authMw := middleware.NewAuthMiddleware(tokens)
	rbacMw := middleware.NewRBACMiddleware(a.stores.users)
	auditMw := middleware.NewAuditMiddleware(svc.audit)
	corsMw := middleware.NewCORSMiddleware(&cfg.CORS)
	rateLimiter := middleware.NewRateLimiter(ctx, &cfg.RateLimit)
	httpMetrics := middleware.NewHTTPMetrics(a.registry)

	mux := http.NewServeMux()
	registerRoutes(mux, &routeDeps{
		authMw:         authMw,
		rbacMw:         rbacMw,
		auditMw:        auditMw,
		auth:           handlers.NewAuthHandler(cfg, svc.users, tokens, idp, auditMw),
		users:          handlers.NewUserHandler(svc.users),
		questionnaires: handlers.NewQuestionnaireHandler(svc.questionnaires),
		cycles:         handlers.NewReviewCycleHandler(svc.cycles, svc.assignments),
		assignments:    handlers.NewAssignmentHandler(svc.assignments),
		reviews:        handlers.NewReviewHandler(svc.reviews),
		ai:             handlers.NewAIHandler(svc.flows),
		dashboard:      handlers.NewDashboardHandler(svc.dashboard),
		audit:          handlers.NewAuditHandler(svc.audit),
		gatherer:       a.registry,
		health:         healthHandler(a),
	})

	return middleware.LoggingMiddleware(
		httpMetrics.Handler(
			middleware.SecurityHeaders(
				corsMw.Handler(
					rateLimiter.Limit(mux),
				),
			),
		),
	)
}

func healthHandler(a *app) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if err := a.db.HealthCheck(r.Context()); err != nil {
			slog.Error("Health check failed", "component", "database", "error", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unhealthy","database":"error"}`))
			return
		}
		if a.vault != nil {
			if err := a.vault.Health(r.Context()); err != nil {
				slog.Error("Health check failed", "component", "vault", "error", err)
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"unhealthy","vault":"error"}`))
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"healthy","version":"` + a.cfg.App.Version + `"}`))
	}
}
