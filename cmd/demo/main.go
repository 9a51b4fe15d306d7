package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"demand-flex/internal/model"
	"demand-flex/internal/optmodel"
	"demand-flex/internal/report"
	"demand-flex/internal/summary"
)

// Demo:
// - Build a synthetic 24h household day in memory (no data directory needed)
// - Solve dispatch with and without the battery
// - Size the battery with the investment model
func main() {
	capitalCost := flag.Float64("capital-cost", 0.05, "Battery capital cost in DKK/kWh/day")
	capacity := flag.Float64("capacity", 10, "Installed battery capacity in kWh")
	outCSV := flag.String("out", "", "Optional path to write the dispatch schedule CSV (e.g. results/demo.csv)")
	flag.Parse()

	in := demoInputs(*capacity)
	ctx := context.Background()

	withBattery, err := optmodel.SolveDispatch(ctx, in, optmodel.DispatchOptions{})
	if err != nil {
		panic(err)
	}
	withoutBattery, err := optmodel.SolveDispatch(ctx, in, optmodel.DispatchOptions{IgnoreStorage: true})
	if err != nil {
		panic(err)
	}
	sized, err := optmodel.SolveInvestment(ctx, in, optmodel.InvestmentOptions{CapitalCostDKKPerKWh: *capitalCost})
	if err != nil {
		panic(err)
	}

	fmt.Printf("%-4s %-8s %-8s %-8s %-8s %-8s %-8s %-12s\n", "hour", "price", "pv", "load", "import", "export", "soc", "action")
	for _, r := range withBattery.Hourly {
		fmt.Printf("%-4d %-8.3f %-8.2f %-8.2f %-8.2f %-8.2f %-8.2f %-12s\n",
			r.Hour, r.PriceDKKPerKWh, r.PVGenerationKW, r.LoadKW, r.GridImportKW, r.GridExportKW, r.BatterySOCKWh, r.Action)
	}

	fmt.Println()
	fmt.Printf("Dispatch with %.1f kWh battery: %.3f DKK\n", *capacity, withBattery.ObjectiveDKK)
	fmt.Printf("Dispatch without battery:      %.3f DKK\n", withoutBattery.ObjectiveDKK)
	fmt.Printf("Battery value:                 %.3f DKK/day\n", withoutBattery.ObjectiveDKK-withBattery.ObjectiveDKK)
	fmt.Printf("Optimal size at %.3f DKK/kWh/day: %.2f kWh (total %.3f DKK)\n",
		*capitalCost, sized.Investment.OptimalBatterySizeKWh, sized.ObjectiveDKK)

	s, err := summary.Compute(withBattery, in)
	if err != nil {
		panic(err)
	}
	s.Print(os.Stdout)

	if *outCSV != "" {
		if err := os.MkdirAll(filepath.Dir(*outCSV), 0o755); err != nil {
			panic(err)
		}
		if err := report.WriteScheduleCSV(*outCSV, withBattery.Hourly); err != nil {
			panic(err)
		}
		fmt.Printf("Wrote %d rows to %s\n", len(withBattery.Hourly), *outCSV)
	}
}

func demoInputs(capacityKWh float64) *model.Inputs {
	const hours = 24
	in := &model.Inputs{
		Scenario: "demo",
		Hourly: model.HourlyParams{
			PriceDKKPerKWh:  make([]float64, hours),
			AvailablePVKW:   make([]float64, hours),
			ReferenceLoadKW: make([]float64, hours),
		},
		System: model.SystemParams{
			ImportTariffDKKPerKWh: 0.45,
			ExportTariffDKKPerKWh: 0.05,
			MaxImportKW:           11,
			MaxExportKW:           6,
			MaxLoadKW:             4,
			MinDailyEnergyKWh:     30,
			Storage: &model.StorageParams{
				CapacityKWh:         capacityKWh,
				MaxChargeKW:         capacityKWh / 2,
				MaxDischargeKW:      capacityKWh / 2,
				ChargeEfficiency:    0.95,
				DischargeEfficiency: 0.95,
				InitialSOC:          model.DefaultSOCRatio,
				FinalSOC:            model.DefaultSOCRatio,
			},
		},
	}
	for h := 0; h < hours; h++ {
		// Morning and evening price peaks.
		in.Hourly.PriceDKKPerKWh[h] = 0.6 + 0.5*math.Exp(-math.Pow(float64(h-8), 2)/4) + 0.9*math.Exp(-math.Pow(float64(h-18), 2)/4)
		if h >= 6 && h <= 20 {
			in.Hourly.AvailablePVKW[h] = 5 * math.Sin(math.Pi*float64(h-6)/14)
		}
		in.Hourly.ReferenceLoadKW[h] = 0.6 + 1.4*math.Exp(-math.Pow(float64(h-19), 2)/6)
	}
	return in
}
