package rights

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
)

const (
	reportNameWidth = 80.0
	reportCapWidth  = 20.0
	reportRowHeight = 7.0
)

// RenderMatrixPDF writes a one-table report of f: menus indented by depth,
// one column per capability.
func RenderMatrixPDF(w io.Writer, title string, f Forest, generatedAt time.Time) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, title)
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "", 9)
	pdf.Cell(0, 6, "Generated "+generatedAt.UTC().Format("2006-01-02 15:04 MST"))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(reportNameWidth, reportRowHeight, "Menu", "1", 0, "L", true, 0, "")
	for _, c := range Capabilities {
		pdf.CellFormat(reportCapWidth, reportRowHeight, capabilityLabel(c), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	f.Walk(func(path Path, n MenuNode) bool {
		indent := strings.Repeat("    ", len(path)-1)
		pdf.CellFormat(reportNameWidth, reportRowHeight, indent+n.Name, "1", 0, "L", false, 0, "")
		for _, c := range Capabilities {
			mark := "-"
			if n.Permissions.Get(c) {
				mark = "Y"
			}
			pdf.CellFormat(reportCapWidth, reportRowHeight, mark, "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)
		return true
	})

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render rights matrix: %w", err)
	}
	return nil
}

func capabilityLabel(c Capability) string {
	s := string(c)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
