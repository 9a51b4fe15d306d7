package summary

import (
	"errors"
	"math"

	"demand-flex/internal/model"
	"demand-flex/internal/optmodel"
)

var ErrEmptyResults = errors.New("a non-empty result schedule is required")

// KPIs are the headline numbers of one optimal schedule. Energy in kWh,
// money in DKK, ratios in percent.
type KPIs struct {
	TotalPVAvailableKWh float64 `json:"total_pv_available_kwh"`
	TotalPVUsedKWh      float64 `json:"total_pv_used_kwh"`
	TotalPVCurtailedKWh float64 `json:"total_pv_curtailed_kwh"`
	TotalLoadKWh        float64 `json:"total_load_kwh"`
	TotalGridImportKWh  float64 `json:"total_grid_import_kwh"`
	TotalGridExportKWh  float64 `json:"total_grid_export_kwh"`

	BatteryChargeKWh    float64 `json:"battery_charge_kwh"`
	BatteryDischargeKWh float64 `json:"battery_discharge_kwh"`

	NetDailyCostDKK       float64 `json:"net_daily_cost_dkk"`
	CostOfImportsDKK      float64 `json:"cost_of_imports_dkk"`
	RevenueFromExportsDKK float64 `json:"revenue_from_exports_dkk"`

	// PVSelfConsumedKWh is Σ min(pv_used, load).
	PVSelfConsumedKWh  float64 `json:"pv_self_consumed_kwh"`
	SelfSufficiencyPct float64 `json:"self_sufficiency_pct"`
	SelfConsumptionPct float64 `json:"self_consumption_pct"`
}

// Summary bundles the KPIs of a solved scenario with its price statistics.
type Summary struct {
	Scenario     string                     `json:"scenario"`
	Variant      optmodel.Variant           `json:"variant"`
	ObjectiveDKK float64                    `json:"objective_dkk"`
	KPIs         KPIs                       `json:"kpis"`
	Prices       PriceStats                 `json:"prices"`
	Investment   *optmodel.InvestmentResult `json:"investment,omitempty"`
}

// Compute derives the KPIs of res. Available PV and tariffs come from in.
func Compute(res *optmodel.Result, in *model.Inputs) (*Summary, error) {
	if res == nil || len(res.Hourly) == 0 {
		return nil, ErrEmptyResults
	}
	if in == nil {
		return nil, errors.New("inputs are nil")
	}

	k := KPIs{}
	for _, v := range in.Hourly.AvailablePVKW {
		k.TotalPVAvailableKWh += v
	}
	sys := in.System
	for _, r := range res.Hourly {
		k.TotalPVUsedKWh += r.PVGenerationKW
		k.TotalPVCurtailedKWh += r.PVCurtailmentKW
		k.TotalLoadKWh += r.LoadKW
		k.TotalGridImportKWh += r.GridImportKW
		k.TotalGridExportKWh += r.GridExportKW
		k.BatteryChargeKWh += r.BatteryChargeKW
		k.BatteryDischargeKWh += r.BatteryDischargeKW

		k.NetDailyCostDKK += r.HourlyCostDKK
		k.CostOfImportsDKK += r.GridImportKW * (r.PriceDKKPerKWh + sys.ImportTariffDKKPerKWh)
		k.RevenueFromExportsDKK += r.GridExportKW * (r.PriceDKKPerKWh - sys.ExportTariffDKKPerKWh)
		k.PVSelfConsumedKWh += math.Min(r.PVGenerationKW, r.LoadKW)
	}
	if k.TotalLoadKWh > 0 {
		k.SelfSufficiencyPct = k.PVSelfConsumedKWh / k.TotalLoadKWh * 100
	}
	if k.TotalPVUsedKWh > 0 {
		k.SelfConsumptionPct = k.PVSelfConsumedKWh / k.TotalPVUsedKWh * 100
	}

	return &Summary{
		Scenario:     res.Scenario,
		Variant:      res.Variant,
		ObjectiveDKK: res.ObjectiveDKK,
		KPIs:         k,
		Prices:       ComputePriceStats(in.Hourly.PriceDKKPerKWh),
		Investment:   res.Investment,
	}, nil
}
