package report

import (
	"bytes"
	"fmt"
	"os"

	"github.com/xuri/excelize/v2"

	"demand-flex/internal/optmodel"
	"demand-flex/internal/summary"
)

const (
	summarySheet  = "summary"
	scheduleSheet = "schedule"
)

// BuildXLSX renders the KPIs and the hourly schedule as a workbook.
func BuildXLSX(s *summary.Summary, rows []optmodel.HourlyResult) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("summary is nil")
	}
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(scheduleSheet); err != nil {
		return nil, err
	}

	_ = f.SetCellValue(summarySheet, "A1", "Optimization Result Summary")
	for i, kv := range summaryLines(s) {
		row := i + 3
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", row), kv.label)
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("B%d", row), kv.value)
	}

	for i, h := range scheduleHeader {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		_ = f.SetCellValue(scheduleSheet, cell, h)
	}
	cum := 0.0
	for i, r := range rows {
		cum += r.HourlyCostDKK
		values := []any{
			r.Hour, r.PriceDKKPerKWh, r.PVGenerationKW, r.PVCurtailmentKW, r.LoadKW,
			r.GridImportKW, r.GridExportKW, r.BatteryChargeKW, r.BatteryDischargeKW,
			r.BatterySOCKWh, string(r.Action), r.HourlyCostDKK, cum,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(scheduleSheet, cell, &values); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteXLSX writes the workbook to path.
func WriteXLSX(path string, s *summary.Summary, rows []optmodel.HourlyResult) error {
	raw, err := BuildXLSX(s, rows)
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}

type line struct {
	label string
	value any
}

// summaryLines is the label/value list shared by the XLSX and PDF reports.
func summaryLines(s *summary.Summary) []line {
	k := s.KPIs
	lines := []line{
		{"Scenario", s.Scenario},
		{"Variant", string(s.Variant)},
		{"Objective (DKK)", round(s.ObjectiveDKK, 4)},
		{"Net Daily Cost (DKK)", round(k.NetDailyCostDKK, 4)},
		{"Cost of Imports (DKK)", round(k.CostOfImportsDKK, 4)},
		{"Revenue from Exports (DKK)", round(k.RevenueFromExportsDKK, 4)},
		{"Total Load (kWh)", round(k.TotalLoadKWh, 4)},
		{"Grid Import (kWh)", round(k.TotalGridImportKWh, 4)},
		{"Grid Export (kWh)", round(k.TotalGridExportKWh, 4)},
		{"PV Available (kWh)", round(k.TotalPVAvailableKWh, 4)},
		{"PV Used (kWh)", round(k.TotalPVUsedKWh, 4)},
		{"PV Curtailed (kWh)", round(k.TotalPVCurtailedKWh, 4)},
		{"Self-Sufficiency (%)", round(k.SelfSufficiencyPct, 2)},
		{"Self-Consumption (%)", round(k.SelfConsumptionPct, 2)},
		{"Price Mean (DKK/kWh)", round(s.Prices.MeanDKKPerKWh, 4)},
		{"Price P05-P95 Spread (DKK/kWh)", round(s.Prices.SpreadP95P05, 4)},
	}
	if inv := s.Investment; inv != nil {
		lines = append(lines,
			line{"Capital Cost (DKK/kWh/day)", inv.CapitalCostDKKPerKWh},
			line{"Optimal Battery Size (kWh)", round(inv.OptimalBatterySizeKWh, 4)},
			line{"Modules", inv.Modules},
			line{"Daily CAPEX (DKK)", round(inv.DailyCapexDKK, 4)},
		)
	}
	return lines
}
