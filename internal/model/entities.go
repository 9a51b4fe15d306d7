package model

import "encoding/json"

// Consumer matches one record of consumer_params.json.
type Consumer struct {
	ConsumerID     string   `json:"consumer_id"`
	ConnectionBus  string   `json:"connection_bus"`
	ListAppliances []string `json:"list_appliances"`
}

// ApplianceParams matches appliance_params.json: one list per appliance kind.
type ApplianceParams struct {
	DER     []DER     `json:"DER"`
	Load    []Load    `json:"load"`
	Storage []Storage `json:"storage"`
}

// DER is a distributed generator (PV, wind).
// Units: kW; ramp rates are fractions of max power per hour.
type DER struct {
	DERID                string   `json:"DER_id"`
	DERType              string   `json:"DER_type"`
	MaxPowerKW           float64  `json:"max_power_kW"`
	MaxRampRateUpRatio   *float64 `json:"max_ramp_rate_up_ratio"`
	MaxRampRateDownRatio *float64 `json:"max_ramp_rate_down_ratio"`
}

// Load is a (possibly flexible) consumption appliance.
type Load struct {
	LoadID               string   `json:"load_id"`
	LoadType             string   `json:"load_type"`
	MaxLoadKWhPerHour    float64  `json:"max_load_kWh_per_hour"`
	MaxRampRateUpRatio   *float64 `json:"max_ramp_rate_up_ratio"`
	MaxRampRateDownRatio *float64 `json:"max_ramp_rate_down_ratio"`
	MinOnTimeH           *float64 `json:"min_on_time_h"`
	MinOffTimeH          *float64 `json:"min_off_time_h"`
}

// Storage is a battery. Power limits are expressed as fractions of capacity.
type Storage struct {
	StorageID                string  `json:"storage_id"`
	StorageCapacityKWh       float64 `json:"storage_capacity_kWh"`
	MaxChargingPowerRatio    float64 `json:"max_charging_power_ratio"`
	MaxDischargingPowerRatio float64 `json:"max_discharging_power_ratio"`
	ChargingEfficiency       float64 `json:"charging_efficiency"`
	DischargingEfficiency    float64 `json:"discharging_efficiency"`
}

// UsagePreference matches one record of usage_preference.json.
// Grid and DER preferences have no fixed shape in the datasets and are kept raw.
type UsagePreference struct {
	ConsumerID         string              `json:"consumer_id"`
	GridPreferences    json.RawMessage     `json:"grid_preferences"`
	DERPreferences     json.RawMessage     `json:"DER_preferences"`
	LoadPreferences    []LoadPreference    `json:"load_preferences"`
	StoragePreferences []StoragePreference `json:"storage_preferences"`
}

type LoadPreference struct {
	LoadID string `json:"load_id"`
	// Daily energy bounds in hours of operation at max load.
	MinTotalEnergyPerDayHourEquivalent *float64  `json:"min_total_energy_per_day_hour_equivalent"`
	MaxTotalEnergyPerDayHourEquivalent *float64  `json:"max_total_energy_per_day_hour_equivalent"`
	HourlyProfileRatio                 []float64 `json:"hourly_profile_ratio"`
}

type StoragePreference struct {
	StorageID       string  `json:"storage_id"`
	InitialSOCRatio float64 `json:"initial_soc_ratio"`
	FinalSOCRatio   float64 `json:"final_soc_ratio"`
}

// BusParams matches one record of bus_params.json. Prices and tariffs are DKK/kWh.
type BusParams struct {
	BusID                  string    `json:"bus_ID"`
	EnergyPriceDKKPerKWh   []float64 `json:"energy_price_DKK_per_kWh"`
	ImportTariffDKKPerKWh  float64   `json:"import_tariff_DKK/kWh"`
	ExportTariffDKKPerKWh  float64   `json:"export_tariff_DKK/kWh"`
	PenaltyExcessImportDKK *float64  `json:"penalty_excess_import_DKK/kWh"`
	PenaltyExcessExportDKK *float64  `json:"penalty_excess_export_DKK/kWh"`
	MaxImportKW            float64   `json:"max_import_kW"`
	MaxExportKW            float64   `json:"max_export_kW"`
}

// DERProduction is a normalised hourly production profile (0..1 of max power).
type DERProduction struct {
	DERID              string    `json:"DER_id,omitempty"`
	ConsumerID         string    `json:"consumer_id,omitempty"`
	DERType            string    `json:"DER_type,omitempty"`
	HourlyProfileRatio []float64 `json:"hourly_profile_ratio"`
}

// Dataset bundles the raw records of one scenario directory.
type Dataset struct {
	Scenario         string
	Consumers        []Consumer
	Appliances       ApplianceParams
	UsagePreferences []UsagePreference
	DERProduction    []DERProduction
	Buses            []BusParams
}
