package model

import (
	"errors"
	"fmt"
)

// HourlyParams holds every parameter that varies by hour. All series share
// the same length (the horizon).
type HourlyParams struct {
	PriceDKKPerKWh  []float64
	AvailablePVKW   []float64
	ReferenceLoadKW []float64
}

// Hours is the model horizon.
func (h HourlyParams) Hours() int {
	return len(h.PriceDKKPerKWh)
}

// SystemParams holds the single-value parameters of one consumer/bus.
type SystemParams struct {
	ImportTariffDKKPerKWh float64
	ExportTariffDKKPerKWh float64
	MaxImportKW           float64
	MaxExportKW           float64
	MaxLoadKW             float64
	MinDailyEnergyKWh     float64
	// MaxDailyEnergyKWh is 0 when the consumer states no upper bound.
	MaxDailyEnergyKWh float64
	// LoadRampUpKW/LoadRampDownKW limit the hour-to-hour change of the
	// flexible load; 0 disables the limit.
	LoadRampUpKW   float64
	LoadRampDownKW float64
	// Storage is nil when the consumer owns no battery.
	Storage *StorageParams
}

// Inputs is the canonical input of both optimisation models.
type Inputs struct {
	Scenario string
	Hourly   HourlyParams
	System   SystemParams
}

func (in *Inputs) Validate() error {
	if in == nil {
		return errors.New("inputs are nil")
	}
	n := in.Hourly.Hours()
	if n == 0 {
		return errors.New("hourly energy prices are empty")
	}
	if len(in.Hourly.AvailablePVKW) != n {
		return fmt.Errorf("available PV has %d hours, prices have %d", len(in.Hourly.AvailablePVKW), n)
	}
	if in.Hourly.ReferenceLoadKW != nil && len(in.Hourly.ReferenceLoadKW) != n {
		return fmt.Errorf("reference load has %d hours, prices have %d", len(in.Hourly.ReferenceLoadKW), n)
	}
	for h, v := range in.Hourly.AvailablePVKW {
		if v < 0 {
			return fmt.Errorf("available PV must be >= 0 (hour %d: %g)", h, v)
		}
	}
	for h, v := range in.Hourly.ReferenceLoadKW {
		if v < 0 {
			return fmt.Errorf("reference load must be >= 0 (hour %d: %g)", h, v)
		}
	}
	s := in.System
	if s.MaxImportKW < 0 || s.MaxExportKW < 0 {
		return errors.New("MaxImportKW/MaxExportKW must be >= 0")
	}
	if s.MaxLoadKW < 0 {
		return errors.New("MaxLoadKW must be >= 0")
	}
	if s.MinDailyEnergyKWh < 0 {
		return errors.New("MinDailyEnergyKWh must be >= 0")
	}
	if s.MinDailyEnergyKWh > s.MaxLoadKW*float64(n)+1e-9 {
		return fmt.Errorf("MinDailyEnergyKWh %.3f exceeds what the load can absorb in %d hours (%.3f)",
			s.MinDailyEnergyKWh, n, s.MaxLoadKW*float64(n))
	}
	if s.MaxDailyEnergyKWh != 0 && s.MaxDailyEnergyKWh < s.MinDailyEnergyKWh {
		return errors.New("MaxDailyEnergyKWh must be >= MinDailyEnergyKWh")
	}
	if s.LoadRampUpKW < 0 || s.LoadRampDownKW < 0 {
		return errors.New("LoadRampUpKW/LoadRampDownKW must be >= 0")
	}
	if s.Storage != nil {
		if err := s.Storage.Validate(); err != nil {
			return err
		}
	}
	return nil
}
