package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"kalaklub-site/internal/shared/storage/db"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply submission mirror migrations to DATABASE_URL",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := opts.config()
			ctx := cmd.Context()

			sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultMigrateOptions()))
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer sqlDB.Close()

			if err := db.RunMigrations(ctx, sqlDB); err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}
			return nil
		},
	}
}
