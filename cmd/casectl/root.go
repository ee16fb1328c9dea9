package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"casetrack/internal/config"
	"casetrack/internal/database"
	"casetrack/internal/logger"
	"casetrack/migrations"
)

// env is what every subcommand works against
type env struct {
	cfg    *config.Config
	db     *database.DB
	logger *zap.Logger
	out    io.Writer
}

func (e *env) Close() {
	_ = e.logger.Sync()
	_ = e.db.Close()
}

// openEnv loads config, connects and brings the schema up to date
func openEnv(ctx context.Context, out io.Writer) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.LogLevel, "console", "casectl")
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := db.RunMigrations(ctx, migrations.Source(cfg.MigrationsPath), log); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &env{cfg: cfg, db: db, logger: log, out: out}, nil
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "casectl",
		Short:         "Administration tools for the case management service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(
		newMigrateCmd(),
		newCreateUserCmd(),
		newExportCmd(),
		newImportCmd(),
		newCheckModelsCmd(),
	)
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "casectl: %v\n", err)
		os.Exit(1)
	}
}
