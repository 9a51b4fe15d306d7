package models

import (
	"demand-flex/internal/optmodel"
	"demand-flex/internal/report"
	"demand-flex/internal/summary"
)

// OptimizeResponse represents the response from a dispatch or investment run
type OptimizeResponse struct {
	ID         string                  `json:"id,omitempty"`
	Scenario   string                  `json:"scenario"`
	Variant    string                  `json:"variant"`
	Status     string                  `json:"status"`
	Nodes      int                     `json:"nodes"`
	DurationMS int64                   `json:"duration_ms"`
	Summary    *summary.Summary        `json:"summary"`
	Schedule   []optmodel.HourlyResult `json:"schedule,omitempty"`
}

// SweepResponse contains one row per capital cost
type SweepResponse struct {
	Scenario string            `json:"scenario"`
	Points   []report.SweepRow `json:"points"`
}

// RankResponse represents the response from ranking scenarios
type RankResponse struct {
	Rankings []Ranking `json:"rankings"`
	Failed   []string  `json:"failed,omitempty"`
}

// Ranking represents one ranked scenario
type Ranking struct {
	Rank               int     `json:"rank"`
	Scenario           string  `json:"scenario"`
	ObjectiveDKK       float64 `json:"objective_dkk"`
	GridImportKWh      float64 `json:"grid_import_kwh"`
	GridExportKWh      float64 `json:"grid_export_kwh"`
	SelfSufficiencyPct float64 `json:"self_sufficiency_pct"`
	SpreadP95P05       float64 `json:"spread_p95_p05"`
	OracleArbitrageDKK float64 `json:"oracle_arbitrage_dkk"`
}

// StorageInfo represents information about a storage preset
type StorageInfo struct {
	ID    string       `json:"id"`
	Name  string       `json:"name"`
	File  string       `json:"file"`
	Specs StorageSpecs `json:"specs"`
}

// StorageSpecs contains storage specifications
type StorageSpecs struct {
	CapacityKWh    float64 `json:"capacity_kwh"`
	MaxChargeKW    float64 `json:"max_charge_kw"`
	MaxDischargeKW float64 `json:"max_discharge_kw"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
