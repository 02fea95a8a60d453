package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/user/fleet-dashboard-api/internal/usage"
)

// PDFGenerator - usage report renderer
type PDFGenerator struct{}

// NewPDFGenerator creates a new generator
func NewPDFGenerator() *PDFGenerator {
	return &PDFGenerator{}
}

// GenerateUsageReport renders the per-antenna usage table for one vessel
// and observation window into a PDF document.
func (g *PDFGenerator) GenerateUsageReport(vesselName string, window *usage.Window, rows []usage.AntennaUsage) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	g.drawHeader(pdf, vesselName, window)
	g.drawUsageTable(pdf, rows)
	g.drawFooter(pdf)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *PDFGenerator) drawHeader(pdf *fpdf.Fpdf, vesselName string, window *usage.Window) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(190, 8, "Data Usage Report", "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(190, 6, "Vessel: "+vesselName, "", 1, "L", false, 0, "")

	period := "Period: last 24 hours"
	if window != nil {
		period = fmt.Sprintf("Period: %s - %s",
			window.StartAt.UTC().Format("2006-01-02 15:04"),
			window.EndAt.UTC().Format("2006-01-02 15:04"))
	}
	pdf.CellFormat(190, 6, period, "", 1, "L", false, 0, "")
	pdf.Ln(4)
}

func (g *PDFGenerator) drawUsageTable(pdf *fpdf.Fpdf, rows []usage.AntennaUsage) {
	colW := []float64{50.0, 60.0, 40.0, 40.0}
	headers := []string{"Antenna", "Interfaces", "Total", "Avg Speed"}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range headers {
		pdf.CellFormat(colW[i], 7, h, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	if len(rows) == 0 {
		pdf.CellFormat(190, 7, "No usage recorded in this period", "1", 1, "C", false, 0, "")
		return
	}

	for _, row := range rows {
		interfaces := ""
		for i, ifname := range row.Interfaces {
			if i > 0 {
				interfaces += ", "
			}
			interfaces += ifname
		}
		pdf.CellFormat(colW[0], 7, row.Name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(colW[1], 7, interfaces, "1", 0, "L", false, 0, "")
		pdf.CellFormat(colW[2], 7, row.DisplaySize+" "+row.DisplayUnit, "1", 0, "R", false, 0, "")
		pdf.CellFormat(colW[3], 7, row.SpeedText, "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
}

func (g *PDFGenerator) drawFooter(pdf *fpdf.Fpdf) {
	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.CellFormat(190, 5, "Generated "+time.Now().UTC().Format("2006-01-02 15:04 MST"), "", 1, "L", false, 0, "")
}
