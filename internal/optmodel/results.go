package optmodel

import (
	"demand-flex/internal/lp"
	"demand-flex/internal/model"
)

// Variant names one of the optimisation problems.
type Variant string

const (
	VariantDispatch   Variant = "dispatch"
	VariantInvestment Variant = "investment"
)

// HourlyResult is one row of the optimal schedule.
// Power values are kW held for one hour, so they double as kWh.
type HourlyResult struct {
	Hour int `json:"hour"`

	PVGenerationKW  float64 `json:"pv_generation_kw"`
	PVCurtailmentKW float64 `json:"pv_curtailment_kw"`
	LoadKW          float64 `json:"load_kw"`
	GridImportKW    float64 `json:"grid_import_kw"`
	GridExportKW    float64 `json:"grid_export_kw"`

	BatteryChargeKW    float64 `json:"battery_charge_kw"`
	BatteryDischargeKW float64 `json:"battery_discharge_kw"`
	BatterySOCKWh      float64 `json:"battery_soc_kwh"`

	PriceDKKPerKWh float64 `json:"price_dkk_per_kwh"`
	HourlyCostDKK  float64 `json:"hourly_cost_dkk"`

	Action model.Action `json:"action"`
}

// InvestmentResult is the sizing decision of the investment model.
type InvestmentResult struct {
	CapitalCostDKKPerKWh  float64 `json:"capital_cost_dkk_per_kwh"`
	OptimalBatterySizeKWh float64 `json:"optimal_battery_size_kwh"`
	// Modules is set only when capacity is sized in whole modules.
	Modules       int     `json:"modules,omitempty"`
	DailyCapexDKK float64 `json:"daily_capex_dkk"`
}

// Result is the outcome of one solve.
type Result struct {
	Scenario string
	Variant  Variant
	Status   lp.Status
	Nodes    int

	Hourly []HourlyResult

	// ObjectiveDKK is the solver objective: operating cost plus, for the
	// investment model, the daily capital cost.
	ObjectiveDKK float64
	// OperatingCostDKK is Σ HourlyCostDKK.
	OperatingCostDKK float64

	Investment *InvestmentResult
}

// HourlyCost is the grid bill of one hour: imports pay price plus import
// tariff, exports earn price minus export tariff.
func HourlyCost(importKW, exportKW, price float64, sys model.SystemParams) float64 {
	return importKW*(price+sys.ImportTariffDKKPerKWh) - exportKW*(price-sys.ExportTariffDKKPerKWh)
}
