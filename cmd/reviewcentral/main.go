package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	_ "review-central/docs" // swagger spec
	"review-central/internal/config"
	"review-central/internal/database"
	"review-central/internal/logger"
	"review-central/internal/repository"
	"review-central/internal/seed"
	"review-central/internal/service"
)

// @title Review Central API
// @version 1.0
// @description Performance review management: questionnaires, review cycles, peer review assignments and AI-assisted feedback.

// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the session token.

// Set with -ldflags "-X main.version=..."
var version = "dev"

type rootOptions struct {
	logLevel  string
	logFormat string
}

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "reviewcentral",
		Short:         "Review Central backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides LOG_LEVEL")
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "json", "Log format (json, text)")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newMigrateCommand(opts))
	cmd.AddCommand(newSeedCommand(opts))
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "reviewcentral %s\n", version)
		},
	})

	return cmd
}

// loadConfig reads the environment and sets up the process logger
func loadConfig(opts *rootOptions) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	if version != "dev" {
		cfg.App.Version = version
	}

	logger.Setup(logger.Config{Level: cfg.Log.Level, Format: opts.logFormat})
	return cfg, nil
}

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}

			db, err := database.New(&cfg.Database)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer db.Close()

			return migrate(cmd.Context(), db)
		},
	}
}

func newSeedCommand(opts *rootOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load users and questionnaires from a YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}

			doc, err := seed.LoadFile(file)
			if err != nil {
				return err
			}

			db, err := database.New(&cfg.Database)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer db.Close()

			if err := migrate(cmd.Context(), db); err != nil {
				return err
			}

			seeder := seed.NewSeeder(
				service.NewUserService(repository.NewUserRepository(db.DB)),
				service.NewQuestionnaireService(repository.NewQuestionnaireRepository(db.DB)),
			)
			res, err := seeder.Apply(cmd.Context(), doc)
			if err != nil {
				return fmt.Errorf("seed failed: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "users: %d created, %d updated; questionnaires: %d created, %d skipped\n",
				res.UsersCreated, res.UsersUpdated, res.QuestionnairesCreated, res.QuestionnairesSkipped)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "seed.yaml", "Seed file path")
	return cmd
}
