package data

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"demand-flex/internal/model"
)

// File names inside data/<scenario>/.
const (
	ConsumerParamsFile  = "consumer_params.json"
	ConsumersFile       = "consumers.json"
	ApplianceParamsFile = "appliance_params.json"
	UsagePreferenceFile = "usage_preference.json"
	DERProductionFile   = "DER_production.json"
	BusParamsFile       = "bus_params.json"
)

var (
	ErrNoData = errors.New("no scenario data")
	// ErrHoursMismatch marks hourly series whose lengths disagree.
	ErrHoursMismatch = errors.New("hourly series lengths differ")
)

// LoadScenario reads every input file of dataDir/scenario.
func LoadScenario(dataDir, scenario string) (*model.Dataset, error) {
	dir := filepath.Join(dataDir, scenario)
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("scenario %q: directory %s: %w", scenario, dir, ErrNoData)
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scenario %q: %s is not a directory", scenario, dir)
	}

	ds := &model.Dataset{Scenario: scenario}

	consumersPath := filepath.Join(dir, ConsumerParamsFile)
	if _, err := os.Stat(consumersPath); os.IsNotExist(err) {
		consumersPath = filepath.Join(dir, ConsumersFile)
	}
	if err := readJSON(consumersPath, &ds.Consumers); err != nil {
		return nil, err
	}
	if err := readJSON(filepath.Join(dir, ApplianceParamsFile), &ds.Appliances); err != nil {
		return nil, err
	}
	if err := readJSON(filepath.Join(dir, UsagePreferenceFile), &ds.UsagePreferences); err != nil {
		return nil, err
	}
	if err := readJSON(filepath.Join(dir, DERProductionFile), &ds.DERProduction); err != nil {
		return nil, err
	}
	if err := readJSON(filepath.Join(dir, BusParamsFile), &ds.Buses); err != nil {
		return nil, err
	}
	return ds, nil
}

func readJSON(path string, v any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

// SaveBusParams rewrites bus_params.json of a scenario.
func SaveBusParams(dataDir, scenario string, buses []model.BusParams) error {
	dir := filepath.Join(dataDir, scenario)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	raw, err := json.MarshalIndent(buses, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal bus params: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, BusParamsFile), raw, 0o644); err != nil {
		return fmt.Errorf("failed to write bus params: %w", err)
	}
	return nil
}

// LoadBusParams reads bus_params.json of a scenario.
func LoadBusParams(dataDir, scenario string) ([]model.BusParams, error) {
	var buses []model.BusParams
	if err := readJSON(filepath.Join(dataDir, scenario, BusParamsFile), &buses); err != nil {
		return nil, err
	}
	return buses, nil
}

// ReplaceBusPrices sets the energy price series of busID, or of every bus
// when busID is empty. A bus that already has prices only accepts a series
// of the same length; nothing is changed when any bus rejects it.
func ReplaceBusPrices(buses []model.BusParams, busID string, prices []float64) error {
	var matched []int
	for i := range buses {
		if busID != "" && buses[i].BusID != busID {
			continue
		}
		if n := len(buses[i].EnergyPriceDKKPerKWh); n > 0 && n != len(prices) {
			return fmt.Errorf("bus %q has %d hourly prices, got %d: %w", buses[i].BusID, n, len(prices), ErrHoursMismatch)
		}
		matched = append(matched, i)
	}
	if len(matched) == 0 {
		return fmt.Errorf("bus %q not found", busID)
	}
	for _, i := range matched {
		buses[i].EnergyPriceDKKPerKWh = append([]float64(nil), prices...)
	}
	return nil
}
