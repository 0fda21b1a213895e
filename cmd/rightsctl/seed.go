package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"hrmrights/internal/platform/db"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the default tenant, roles, menu catalogue and admin user",
	Long: `Seed is idempotent. It uses SEED_TENANT_NAME, SEED_ADMIN_EMAIL and
SEED_ADMIN_PASSWORD from the environment.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		pool, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := db.Seed(cmd.Context(), pool, cfg); err != nil {
			return fmt.Errorf("seeding: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Seeded tenant %q.\n", cfg.SeedTenantName)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
