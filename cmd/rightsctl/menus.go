package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"hrmrights/internal/domain/rights"
)

var (
	menusTenant string
	menusJSON   bool
)

var menusCmd = &cobra.Command{
	Use:   "menus",
	Short: "List the menu catalogue of a tenant",
	RunE: func(cmd *cobra.Command, args []string) error {
		pool, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer pool.Close()

		menus, err := rights.NewStore(pool).ListMenus(cmd.Context(), menusTenant)
		if err != nil {
			return fmt.Errorf("listing menus: %w", err)
		}
		return writeMenus(cmd.OutOrStdout(), menus, menusJSON)
	},
}

func init() {
	menusCmd.Flags().StringVar(&menusTenant, "tenant", "", "Tenant id")
	menusCmd.Flags().BoolVar(&menusJSON, "json", false, "Output in JSON format")
	_ = menusCmd.MarkFlagRequired("tenant")
	rootCmd.AddCommand(menusCmd)
}

// writeMenus prints the catalogue with each key indented by its level.
func writeMenus(w io.Writer, menus []rights.Menu, asJSON bool) error {
	if asJSON {
		if menus == nil {
			menus = []rights.Menu{}
		}
		return encodeIndented(w, menus)
	}
	if len(menus) == 0 {
		fmt.Fprintln(w, "No menus found.")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPARENT\tKEY\tNAME")
	for _, m := range menus {
		parent := "-"
		if m.ParentID != 0 {
			parent = fmt.Sprint(m.ParentID)
		}
		indent := strings.Repeat("  ", max(m.Level-1, 0))
		fmt.Fprintf(tw, "%d\t%s\t%s%s\t%s\n", m.ID, parent, indent, m.Key, m.Name)
	}
	return tw.Flush()
}
