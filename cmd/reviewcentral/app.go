package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"review-central/internal/ai"
	"review-central/internal/config"
	"review-central/internal/database"
	"review-central/internal/repository"
	"review-central/internal/securestore"
	"review-central/internal/service"
	"review-central/internal/vault"
	"review-central/migrations"
)

// stores groups the PostgreSQL repositories
type stores struct {
	users          *repository.UserRepository
	questionnaires *repository.QuestionnaireRepository
	cycles         *repository.ReviewCycleRepository
	assignments    *repository.AssignmentRepository
	reviews        *repository.ReviewRepository
	audit          *repository.AuditRepository
}

func newStores(db *sql.DB, sealer securestore.Sealer) *stores {
	return &stores{
		users:          repository.NewUserRepository(db),
		questionnaires: repository.NewQuestionnaireRepository(db),
		cycles:         repository.NewReviewCycleRepository(db),
		assignments:    repository.NewAssignmentRepository(db),
		reviews:        repository.NewReviewRepository(db, sealer),
		audit:          repository.NewAuditRepository(db),
	}
}

// services groups the domain services built on the stores
type services struct {
	users          *service.UserService
	questionnaires *service.QuestionnaireService
	cycles         *service.ReviewCycleService
	assignments    *service.AssignmentService
	reviews        *service.ReviewService
	dashboard      *service.DashboardService
	audit          *service.AuditService
	flows          *ai.Flows
}

func newServices(s *stores, flows *ai.Flows) *services {
	return &services{
		users:          service.NewUserService(s.users),
		questionnaires: service.NewQuestionnaireService(s.questionnaires),
		cycles:         service.NewReviewCycleService(s.cycles),
		assignments:    service.NewAssignmentService(s.assignments, s.users),
		reviews:        service.NewReviewService(s.reviews, s.assignments, s.questionnaires, s.cycles),
		dashboard:      service.NewDashboardService(s.cycles, s.users, s.assignments, s.reviews, flows),
		audit:          service.NewAuditService(s.audit),
		flows:          flows,
	}
}

// app holds everything a command needs. close releases the database.
type app struct {
	cfg      *config.Config
	db       *database.Database
	vault    *vault.Client
	registry *prometheus.Registry
	stores   *stores
	services *services
}

// newApp connects to Vault and PostgreSQL, applies pending migrations and
// builds the service graph
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg, registry: prometheus.NewRegistry()}
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if cfg.Vault.Enabled {
		client, err := vault.NewClient(ctx, &vault.Config{
			Address:      cfg.Vault.Address,
			Token:        cfg.Vault.Token,
			TransitMount: cfg.Vault.TransitMount,
			KVMount:      cfg.Vault.KVMount,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize vault: %w", err)
		}
		a.vault = client
		if err := applyVaultSecrets(ctx, client, cfg); err != nil {
			return nil, err
		}
		slog.Info("Vault initialized", "vault_addr", cfg.Vault.Address)
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	a.db = db
	slog.Info("Database connection established")

	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	sealer, err := newSealer(ctx, cfg, a.vault)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	flows, err := newFlows(ctx, &cfg.AI, ai.NewMetrics(a.registry))
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	a.stores = newStores(db.DB, sealer)
	a.services = newServices(a.stores, flows)
	return a, nil
}

func (a *app) close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			slog.Error("Failed to close database", "error", err)
		}
	}
}

func migrate(ctx context.Context, db *database.Database) error {
	applied, err := database.NewMigrationExecutor(db.DB).RunMigrations(ctx, migrations.FS)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Info("Database migrations completed", "applied", len(applied))
	return nil
}

// applyVaultSecrets lets Vault KV override secrets that would otherwise come
// from the environment
func applyVaultSecrets(ctx context.Context, client *vault.Client, cfg *config.Config) error {
	overrides := []struct {
		field  string
		target *string
	}{
		{"gemini_api_key", &cfg.AI.GeminiAPIKey},
		{"jwt_signing_key", &cfg.JWT.Secret},
		{"review_encryption_key", &cfg.Encryption.ReviewKey},
	}
	for _, o := range overrides {
		value, err := client.GetString(ctx, cfg.Vault.SecretPath, o.field)
		if err != nil {
			return fmt.Errorf("failed to read %s from vault: %w", o.field, err)
		}
		if value != "" {
			*o.target = value
			slog.Debug("Secret loaded from vault", "field", o.field)
		}
	}
	return nil
}

// newSealer picks Vault transit, then the local key, then plaintext
func newSealer(ctx context.Context, cfg *config.Config, client *vault.Client) (securestore.Sealer, error) {
	if client != nil {
		if err := client.EnsureKey(ctx, securestore.TransitKeyName); err != nil {
			return nil, fmt.Errorf("failed to prepare transit key: %w", err)
		}
		slog.Info("Review answers sealed with Vault transit", "key", securestore.TransitKeyName)
		return securestore.NewTransitSealer(client, securestore.TransitKeyName), nil
	}

	if cfg.Encryption.ReviewKey != "" {
		sealer, err := securestore.NewLocalSealer(cfg.Encryption.ReviewKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create local sealer: %w", err)
		}
		slog.Info("Review answers sealed with local key")
		return sealer, nil
	}

	slog.Warn("No Vault and no REVIEW_ENCRYPTION_KEY configured, review answers are stored unencrypted")
	return securestore.NewPlainSealer(), nil
}

// newFlows builds the AI flow runner for the configured provider
func newFlows(ctx context.Context, cfg *config.AIConfig, metrics *ai.Metrics) (*ai.Flows, error) {
	switch cfg.Provider {
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			slog.Warn("GEMINI_API_KEY is not set, AI endpoints will answer 503")
			return ai.NewFlows(nil, cfg.Timeout, metrics), nil
		}
		gen, err := ai.NewGeminiGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, fmt.Errorf("failed to create gemini client: %w", err)
		}
		slog.Info("AI provider configured", "provider", gen.Name(), "model", cfg.GeminiModel)
		return ai.NewFlows(gen, cfg.Timeout, metrics), nil
	case "ollama":
		gen := ai.NewOllamaGenerator(cfg.OllamaBaseURL, cfg.OllamaModel, cfg.Timeout)
		slog.Info("AI provider configured", "provider", gen.Name(), "model", cfg.OllamaModel)
		return ai.NewFlows(gen, cfg.Timeout, metrics), nil
	default:
		slog.Warn("AI provider disabled, AI endpoints will answer 503")
		return ai.NewFlows(nil, cfg.Timeout, metrics), nil
	}
}
