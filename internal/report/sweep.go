package report

import (
	"encoding/csv"
	"os"
	"strconv"
)

// SweepRow is one capital-cost point of an investment sweep.
type SweepRow struct {
	CapitalCostDKKPerKWh  float64 `json:"capital_cost_dkk_per_kwh"`
	OptimalBatterySizeKWh float64 `json:"optimal_battery_size_kwh"`
	Modules               int     `json:"modules,omitempty"`
	OperatingCostDKK      float64 `json:"operating_cost_dkk"`
	DailyCapexDKK         float64 `json:"daily_capex_dkk"`
	ObjectiveDKK          float64 `json:"objective_dkk"`
	Error                 string  `json:"error,omitempty"`
}

// WriteSweepCSV writes the sweep table to path.
func WriteSweepCSV(path string, rows []SweepRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{
		"capital_cost_dkk_per_kwh",
		"optimal_battery_size_kwh",
		"modules",
		"operating_cost_dkk",
		"daily_capex_dkk",
		"objective_dkk",
		"error",
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, r := range rows {
		row := []string{
			fmtFloat(r.CapitalCostDKKPerKWh),
			fmtFloat(r.OptimalBatterySizeKWh),
			strconv.Itoa(r.Modules),
			fmtFloat(r.OperatingCostDKK),
			fmtFloat(r.DailyCapexDKK),
			fmtFloat(r.ObjectiveDKK),
			r.Error,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
