package report

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"demand-flex/internal/optmodel"
)

var scheduleHeader = []string{
	"hour",
	"price_dkk_per_kwh",
	"pv_generation_kw",
	"pv_curtailment_kw",
	"load_kw",
	"grid_import_kw",
	"grid_export_kw",
	"battery_charge_kw",
	"battery_discharge_kw",
	"battery_soc_kwh",
	"action",
	"hourly_cost_dkk",
	"cum_cost_dkk",
}

// WriteScheduleCSV writes the hourly schedule to path.
func WriteScheduleCSV(path string, rows []optmodel.HourlyResult) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return EncodeScheduleCSV(f, rows)
}

// EncodeScheduleCSV writes the hourly schedule as CSV to w.
func EncodeScheduleCSV(out io.Writer, rows []optmodel.HourlyResult) error {
	w := csv.NewWriter(out)
	if err := w.Write(scheduleHeader); err != nil {
		return err
	}

	cum := 0.0
	for _, r := range rows {
		cum += r.HourlyCostDKK
		row := []string{
			strconv.Itoa(r.Hour),
			fmtFloat(r.PriceDKKPerKWh),
			fmtFloat(r.PVGenerationKW),
			fmtFloat(r.PVCurtailmentKW),
			fmtFloat(r.LoadKW),
			fmtFloat(r.GridImportKW),
			fmtFloat(r.GridExportKW),
			fmtFloat(r.BatteryChargeKW),
			fmtFloat(r.BatteryDischargeKW),
			fmtFloat(r.BatterySOCKWh),
			string(r.Action),
			fmtFloat(r.HourlyCostDKK),
			fmtFloat(cum),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
