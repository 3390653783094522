package cli

import (
	"fmt"

	"resumescan/internal/errors"
	"resumescan/internal/store"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database schema migrations",
	Long:  "Apply the embedded Postgres schema. Every migration is idempotent and safe to re-run.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		cfg := getConfigFromContext(ctx)
		logger := getLoggerFromContext(ctx)

		if cfg.Database.URL == "" {
			return errors.NewConfigError(errors.ErrCodeInvalidConfig, "database.url is required for migrate", nil)
		}

		pg, err := store.Connect(ctx, cfg.Database)
		if err != nil {
			return errors.NewDatabaseError(errors.ErrCodeDB, "failed to open database", err)
		}
		defer pg.Close()

		applied, err := pg.Migrate(ctx)
		if err != nil {
			return err
		}
		for _, name := range applied {
			fmt.Fprintf(cmd.OutOrStdout(), "applied %s\n", name)
		}
		logger.Info("Migrations applied", "count", len(applied))
		return nil
	},
}
