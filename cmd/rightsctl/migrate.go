package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"hrmrights/internal/platform/db"
)

var migrateDryRun bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending SQL migrations",
	RunE:  runMigrate,
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateDryRun, "dry-run", false, "List migration files without applying them")
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if migrateDryRun {
		files, err := db.PendingMigrations(cfg.MigrationsDir)
		if err != nil {
			return fmt.Errorf("reading migrations: %w", err)
		}
		for _, f := range files {
			fmt.Fprintln(out, f)
		}
		return nil
	}

	pool, err := connect(cmd.Context())
	if err != nil {
		return err
	}
	defer pool.Close()

	applied, err := db.Migrate(cmd.Context(), pool, cfg.MigrationsDir)
	if err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}
	if len(applied) == 0 {
		fmt.Fprintln(out, "Database is up to date.")
		return nil
	}
	for _, v := range applied {
		fmt.Fprintf(out, "applied %s\n", v)
	}
	return nil
}
