package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"hrmrights/internal/domain/rights"
)

var (
	exportTenant string
	exportRole   string
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export one role's menu rights",
	Long: `Export writes the role's rights as a nested JSON forest (json), the flat
three-level payload (source) or a PDF matrix (pdf).`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportTenant, "tenant", "", "Tenant id")
	exportCmd.Flags().StringVar(&exportRole, "role", "", "Role id")
	exportCmd.Flags().StringVar(&exportFormat, "format", "json", "Output format (json, source, pdf)")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "-", "Output file, - for stdout")
	_ = exportCmd.MarkFlagRequired("tenant")
	_ = exportCmd.MarkFlagRequired("role")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	if !validFormat(exportFormat) {
		return fmt.Errorf("unknown format %q", exportFormat)
	}
	pool, err := connect(cmd.Context())
	if err != nil {
		return err
	}
	defer pool.Close()

	svc := rights.NewService(rights.NewStore(pool), nil, 0)
	role, err := svc.GetRole(cmd.Context(), exportTenant, exportRole)
	if err != nil {
		return fmt.Errorf("loading role: %w", err)
	}
	forest, err := svc.Forest(cmd.Context(), exportTenant, exportRole)
	if err != nil {
		return fmt.Errorf("loading rights: %w", err)
	}

	return writeOutput(exportOut, cmd.OutOrStdout(), func(w io.Writer) error {
		return writeExport(w, exportFormat, role, forest, time.Now())
	})
}

// writeOutput runs write against path, or against stdout when path is empty
// or "-". A failed close is reported as the result.
func writeOutput(path string, stdout io.Writer, write func(io.Writer) error) (err error) {
	if path == "" || path == "-" {
		return write(stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("closing output: %w", cerr)
		}
	}()
	return write(f)
}

func validFormat(format string) bool {
	switch format {
	case "json", "source", "pdf":
		return true
	}
	return false
}

func writeExport(w io.Writer, format string, role rights.Role, forest rights.Forest, now time.Time) error {
	switch format {
	case "pdf":
		return rights.RenderMatrixPDF(w, "Rights: "+role.Name, forest, now)
	case "source":
		return encodeIndented(w, rights.FlattenSource(forest))
	case "json":
		if forest == nil {
			forest = rights.Forest{}
		}
		return encodeIndented(w, map[string]any{"role": role, "forest": forest})
	}
	return fmt.Errorf("unknown format %q", format)
}

func encodeIndented(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
