package models

// OptimizeRequest represents the request body for a dispatch or investment run
type OptimizeRequest struct {
	Scenario   string           `json:"scenario" binding:"required"`
	ConsumerID string           `json:"consumer_id,omitempty"`
	Processing ProcessingConfig `json:"processing,omitempty"`
	// PriceOverride replaces the bus price series (DKK/kWh per hour)
	PriceOverride []float64 `json:"price_override,omitempty"`
	// StorageFile names a preset under the storage directory (without .yaml)
	StorageFile string        `json:"storage_file,omitempty"`
	Storage     StorageConfig `json:"storage,omitempty"`
	// IncludeStorage lets dispatch operate the consumer's own battery
	IncludeStorage bool             `json:"include_storage,omitempty"`
	Investment     InvestmentConfig `json:"investment,omitempty"`
	// MaxNodes lowers the branch-and-bound node limit; it cannot raise it
	MaxNodes int             `json:"max_nodes,omitempty" binding:"omitempty,min=1"`
	Options  OptimizeOptions `json:"options,omitempty"`
}

// ProcessingConfig mirrors the YAML processing options
type ProcessingConfig struct {
	ScaleHourEquivalent bool `json:"scale_hour_equivalent,omitempty"`
	ApplyRampLimits     bool `json:"apply_ramp_limits,omitempty"`
}

// StorageConfig overrides the consumer's battery
type StorageConfig struct {
	Name                string  `json:"name,omitempty"`
	CapacityKWh         float64 `json:"capacity_kwh"`
	MaxChargeKW         float64 `json:"max_charge_kw"`
	MaxDischargeKW      float64 `json:"max_discharge_kw"`
	ChargeEfficiency    float64 `json:"charge_efficiency"`
	DischargeEfficiency float64 `json:"discharge_efficiency"`
	InitialSOC          float64 `json:"initial_soc,omitempty"`
	FinalSOC            float64 `json:"final_soc,omitempty"`
}

// InvestmentConfig contains the battery sizing parameters
type InvestmentConfig struct {
	CapitalCostDKKPerKWh *float64 `json:"capital_cost_dkk_per_kwh,omitempty"`
	SOCRatio             *float64 `json:"soc_ratio,omitempty"`
	ModuleSizeKWh        float64  `json:"module_size_kwh,omitempty"`
	MaxModules           int      `json:"max_modules,omitempty"`
	MaxCapacityKWh       float64  `json:"max_capacity_kwh,omitempty"`
}

// OptimizeOptions contains optional response parameters
type OptimizeOptions struct {
	IncludeSchedule bool `json:"include_schedule,omitempty"` // default: false
}

// SweepRequest represents a capital cost sweep of the investment model
type SweepRequest struct {
	OptimizeRequest
	CapitalCosts []float64 `json:"capital_costs" binding:"required,min=1"`
}

// RankRequest represents a request to rank scenarios by dispatch cost
type RankRequest struct {
	Scenarios string `form:"scenarios,omitempty"` // comma-separated, default: all complete
	Limit     int    `form:"limit,omitempty"`     // default: 10
}

// RunsRequest filters stored runs
type RunsRequest struct {
	Scenario string `form:"scenario,omitempty"`
	Limit    int    `form:"limit,omitempty"` // default: 20
}
