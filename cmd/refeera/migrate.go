package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"refeera/internal/platform/postgres"
)

func migrateCmd() *cobra.Command {
	var down int
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back the PostgreSQL schema",
		Long: `Apply every pending migration to DATABASE_URL, or roll back with --down.

Examples:
  refeera migrate
  refeera migrate --down 1`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.Store.DatabaseURL == "" {
				return fmt.Errorf("migrate: DATABASE_URL is not set")
			}
			db, err := postgres.Open(cmd.Context(), cfg.Store.DatabaseURL)
			if err != nil {
				return err
			}
			defer db.Close()

			if down > 0 {
				err = postgres.Rollback(db, down)
			} else {
				err = postgres.Migrate(db)
			}
			if err != nil {
				return err
			}
			v, dirty, err := postgres.Version(db)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (dirty=%t)\n", v, dirty)
			return nil
		},
	}
	cmd.Flags().IntVar(&down, "down", 0, "number of migrations to roll back")
	return cmd
}

