// Package cli holds the smartlegal command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/brunomcduarte96/deploy-smartlegal/internal/config"
	"github.com/brunomcduarte96/deploy-smartlegal/internal/observability"
	"github.com/brunomcduarte96/deploy-smartlegal/internal/store"
	"github.com/spf13/cobra"
)

// NewRootCmd builds the smartlegal command. Running it without a subcommand serves HTTP.
func NewRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:   "smartlegal",
		Short: "SmartLegal intake service",
		Long: `SmartLegal intake service for client onboarding, flight claims and petitions.

Settings come from the environment, optionally loaded from a .env file.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadDotEnv(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("failed to load %s: %w", envFile, err)
			}
			observability.Init()
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file read before the environment")

	root.AddCommand(newServeCmd(), newMigrateCmd(), newImportCmd(), newExportCmd(), newOAuthCmd())
	return root
}

// Execute runs the command tree and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// openStore connects to the configured database and applies migrations when migrate is set.
func openStore(ctx context.Context, migrate bool) (*store.SQLStore, error) {
	dialect, err := store.ParseDialect(config.DatabaseDriver)
	if err != nil {
		return nil, err
	}

	dsn := config.DatabaseURL
	if dialect == store.SQLite {
		dsn = config.SQLitePath
		if dsn != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	st, err := store.Open(ctx, dialect, dsn)
	if err != nil {
		return nil, err
	}
	if migrate {
		if err := st.Migrate(ctx); err != nil {
			st.Close()
			return nil, err
		}
	}
	return st, nil
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer st.Close()
			log.Printf("Migrations applied (%s)", st.Dialect())
			return nil
		},
	}
}
