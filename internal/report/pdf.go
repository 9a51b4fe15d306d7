package report

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/jung-kurt/gofpdf"

	"demand-flex/internal/optmodel"
	"demand-flex/internal/summary"
)

// BuildPDF renders a one-page report: KPIs followed by the hourly schedule.
func BuildPDF(s *summary.Summary, rows []optmodel.HourlyResult, generated time.Time) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("summary is nil")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Optimization Result Summary")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", generated.Format(time.RFC3339)))
	pdf.Ln(7)
	for _, l := range summaryLines(s) {
		pdf.Cell(0, 6, fmt.Sprintf("%s: %v", l.label, l.value))
		pdf.Ln(5)
	}
	pdf.Ln(4)

	cols := []struct {
		title string
		width float64
	}{
		{"Hour", 12}, {"Price", 18}, {"PV", 18}, {"Curtail", 18}, {"Load", 18},
		{"Import", 18}, {"Export", 18}, {"SOC", 18}, {"Action", 26}, {"Cost", 20},
	}
	pdf.SetFont("Arial", "B", 8)
	for _, c := range cols {
		pdf.CellFormat(c.width, 5, c.title, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 8)
	for _, r := range rows {
		values := []string{
			fmt.Sprintf("%d", r.Hour),
			fmt.Sprintf("%.3f", r.PriceDKKPerKWh),
			fmt.Sprintf("%.2f", r.PVGenerationKW),
			fmt.Sprintf("%.2f", r.PVCurtailmentKW),
			fmt.Sprintf("%.2f", r.LoadKW),
			fmt.Sprintf("%.2f", r.GridImportKW),
			fmt.Sprintf("%.2f", r.GridExportKW),
			fmt.Sprintf("%.2f", r.BatterySOCKWh),
			string(r.Action),
			fmt.Sprintf("%.3f", r.HourlyCostDKK),
		}
		for i, v := range values {
			align := "R"
			if i == 0 || i == 8 {
				align = "C"
			}
			pdf.CellFormat(cols[i].width, 5, v, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WritePDF writes the PDF report to path.
func WritePDF(path string, s *summary.Summary, rows []optmodel.HourlyResult) error {
	raw, err := BuildPDF(s, rows, time.Now().UTC())
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}

func round(x float64, digits int) float64 {
	p := math.Pow(10, float64(digits))
	return math.Round(x*p) / p
}
