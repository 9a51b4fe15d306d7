package summary

import (
	"fmt"
	"io"
)

// Print writes the human-readable summary.
func (s *Summary) Print(w io.Writer) {
	k := s.KPIs
	fmt.Fprintf(w, "\n--- Optimization Result Summary (%s, %s) ---\n", s.Scenario, s.Variant)

	fmt.Fprintln(w, "\n[ Financials ]")
	if k.NetDailyCostDKK >= 0 {
		fmt.Fprintf(w, "  Net Daily Cost: %.2f DKK\n", k.NetDailyCostDKK)
	} else {
		fmt.Fprintf(w, "  Net Daily Profit: %.2f DKK\n", -k.NetDailyCostDKK)
	}
	fmt.Fprintf(w, "  - Cost of Imports: %.2f DKK\n", k.CostOfImportsDKK)
	fmt.Fprintf(w, "  - Revenue from Exports: %.2f DKK\n", k.RevenueFromExportsDKK)

	if inv := s.Investment; inv != nil {
		fmt.Fprintln(w, "\n[ Investment ]")
		fmt.Fprintf(w, "  Capital Cost: %.4f DKK/kWh/day\n", inv.CapitalCostDKKPerKWh)
		fmt.Fprintf(w, "  Optimal Battery Size: %.2f kWh\n", inv.OptimalBatterySizeKWh)
		if inv.Modules > 0 {
			fmt.Fprintf(w, "  - Modules: %d\n", inv.Modules)
		}
		fmt.Fprintf(w, "  - Daily CAPEX: %.2f DKK\n", inv.DailyCapexDKK)
		fmt.Fprintf(w, "  Total Daily Cost: %.2f DKK\n", s.ObjectiveDKK)
	}

	fmt.Fprintln(w, "\n[ Energy Flow (kWh) ]")
	fmt.Fprintf(w, "  Total Load Consumption: %.2f kWh\n", k.TotalLoadKWh)
	fmt.Fprintf(w, "  - Grid Import: %.2f kWh\n", k.TotalGridImportKWh)
	fmt.Fprintf(w, "  - Grid Export: %.2f kWh\n", k.TotalGridExportKWh)
	if k.BatteryChargeKWh > 0 || k.BatteryDischargeKWh > 0 {
		fmt.Fprintf(w, "  - Battery Charge/Discharge: %.2f / %.2f kWh\n", k.BatteryChargeKWh, k.BatteryDischargeKWh)
	}

	fmt.Fprintln(w, "\n[ PV Performance ]")
	fmt.Fprintf(w, "  Available PV Generation: %.2f kWh\n", k.TotalPVAvailableKWh)
	fmt.Fprintf(w, "  - PV Used (Consumed + Exported): %.2f kWh\n", k.TotalPVUsedKWh)
	fmt.Fprintf(w, "  - PV Curtailed: %.2f kWh\n", k.TotalPVCurtailedKWh)

	fmt.Fprintln(w, "\n[ Performance Ratios ]")
	fmt.Fprintf(w, "  Self-Sufficiency Ratio: %.1f%% (of load met by own PV)\n", k.SelfSufficiencyPct)
	fmt.Fprintf(w, "  Self-Consumption Ratio: %.1f%% (of used PV that supplied the load)\n", k.SelfConsumptionPct)

	p := s.Prices
	fmt.Fprintln(w, "\n[ Prices (DKK/kWh) ]")
	fmt.Fprintf(w, "  Min/Mean/Max: %.3f / %.3f / %.3f\n", p.MinDKKPerKWh, p.MeanDKKPerKWh, p.MaxDKKPerKWh)
	fmt.Fprintf(w, "  P05-P95 Spread: %.3f\n", p.SpreadP95P05)

	fmt.Fprintln(w, "\n------------------------------------")
}
