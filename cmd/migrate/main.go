package main

// Run database migrations:
//   go run ./cmd/migrate          # apply pending
//   go run ./cmd/migrate down     # revert the latest
//   go run ./cmd/migrate status

import (
	"context"
	"database/sql"
	"log"
	"os"

	"github.com/spf13/cobra"

	"resume-feedback/internal/shared/config"
	"resume-feedback/internal/shared/storage/db"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Printf("migrate: %v", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	up := func(cmd *cobra.Command, args []string) error {
		return withDB(cmd.Context(), db.RunMigrations)
	}
	root := &cobra.Command{
		Use:          "migrate",
		Short:        "Manage the kv_entries schema",
		SilenceUsage: true,
		RunE:         up,
	}
	root.AddCommand(
		&cobra.Command{Use: "up", Short: "Apply pending migrations", RunE: up},
		&cobra.Command{
			Use:   "down",
			Short: "Revert the latest migration",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDB(cmd.Context(), db.RollbackMigration)
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show applied migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDB(cmd.Context(), db.MigrationStatus)
			},
		},
	)
	return root
}

func withDB(ctx context.Context, fn func(context.Context, *sql.DB) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := config.Load()
	opts := db.OptionsFromEnv(db.DefaultMigrateOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		return err
	}
	defer sqlDB.Close()
	return fn(ctx, sqlDB)
}
