package export

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/jung-kurt/gofpdf"
)

// ReportData carries everything the PDF report needs, already aggregated.
// Individual responses never reach this layer.
type ReportData struct {
	OrganizationName  string
	CEOName           string
	PeriodLabel       string
	TotalInvited      int
	TotalResponded    int
	ResponseRate      int
	DimensionAverages map[string]float64
}

// PDFExporter renders the evaluation report attachment.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// RenderReport produces the CEO evaluation report as PDF bytes: a title
// block, participation summary, and one row per dimension average.
func (e *PDFExporter) RenderReport(data ReportData) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 20, 15)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.SetTextColor(13, 44, 84)
	pdf.CellFormat(0, 10, "CEO Evaluation Report", "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "", 12)
	pdf.SetTextColor(71, 85, 105)
	pdf.CellFormat(0, 8, data.OrganizationName, "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 7, fmt.Sprintf("Evaluation of %s", data.CEOName), "", 1, "C", false, 0, "")
	if data.PeriodLabel != "" {
		pdf.SetFont("Arial", "I", 10)
		pdf.CellFormat(0, 6, data.PeriodLabel, "", 1, "C", false, 0, "")
	}
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 12)
	pdf.SetTextColor(13, 44, 84)
	pdf.CellFormat(0, 8, "Participation", "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.SetTextColor(30, 41, 59)
	pdf.CellFormat(0, 7, fmt.Sprintf("%d of %d evaluators responded (%d%%)",
		data.TotalResponded, data.TotalInvited, data.ResponseRate), "", 1, "L", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Arial", "B", 12)
	pdf.SetTextColor(13, 44, 84)
	pdf.CellFormat(0, 8, "Scores by Dimension", "", 1, "L", false, 0, "")

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(13, 44, 84)
	pdf.SetTextColor(255, 255, 255)
	pdf.CellFormat(130, 8, "Dimension", "1", 0, "L", true, 0, "")
	pdf.CellFormat(50, 8, "Average (1-5)", "1", 1, "C", true, 0, "")

	dimensions := make([]string, 0, len(data.DimensionAverages))
	for name := range data.DimensionAverages {
		dimensions = append(dimensions, name)
	}
	sort.Strings(dimensions)

	pdf.SetFont("Arial", "", 10)
	pdf.SetTextColor(30, 41, 59)
	fill := false
	for _, name := range dimensions {
		pdf.SetFillColor(248, 250, 252)
		pdf.CellFormat(130, 7, name, "1", 0, "L", fill, 0, "")
		pdf.CellFormat(50, 7, fmt.Sprintf("%.2f", data.DimensionAverages[name]), "1", 1, "C", fill, 0, "")
		fill = !fill
	}
	if len(dimensions) == 0 {
		pdf.CellFormat(180, 7, "No scored responses recorded", "1", 1, "C", false, 0, "")
	}

	pdf.Ln(10)
	pdf.SetFont("Arial", "I", 8)
	pdf.SetTextColor(148, 163, 184)
	pdf.CellFormat(0, 5, "Powered by The Nonprofit Edge", "", 1, "C", false, 0, "")

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render report pdf: %w", err)
	}
	return buf.Bytes(), nil
}
