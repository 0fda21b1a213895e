package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"hrmrights/internal/domain/rights"
)

var (
	rolesTenant string
	rolesJSON   bool
)

var rolesCmd = &cobra.Command{
	Use:   "roles",
	Short: "List the roles of a tenant",
	RunE: func(cmd *cobra.Command, args []string) error {
		pool, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer pool.Close()

		roles, err := rights.NewStore(pool).ListRoles(cmd.Context(), rolesTenant)
		if err != nil {
			return fmt.Errorf("listing roles: %w", err)
		}
		return writeRoles(cmd.OutOrStdout(), roles, rolesJSON)
	},
}

func init() {
	rolesCmd.Flags().StringVar(&rolesTenant, "tenant", "", "Tenant id")
	rolesCmd.Flags().BoolVar(&rolesJSON, "json", false, "Output in JSON format")
	_ = rolesCmd.MarkFlagRequired("tenant")
	rootCmd.AddCommand(rolesCmd)
}

func writeRoles(w io.Writer, roles []rights.Role, asJSON bool) error {
	if asJSON {
		if roles == nil {
			roles = []rights.Role{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(roles)
	}
	if len(roles) == 0 {
		fmt.Fprintln(w, "No roles found.")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tDESCRIPTION")
	for _, r := range roles {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.ID, r.Name, r.Description)
	}
	return tw.Flush()
}
