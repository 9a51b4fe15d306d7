package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInputs() *Inputs {
	return &Inputs{
		Scenario: "unit",
		Hourly: HourlyParams{
			PriceDKKPerKWh: []float64{1, 2, 3},
			AvailablePVKW:  []float64{0, 1, 0},
		},
		System: SystemParams{
			MaxImportKW:       5,
			MaxExportKW:       5,
			MaxLoadKW:         2,
			MinDailyEnergyKWh: 3,
		},
	}
}

func TestInputsValidate(t *testing.T) {
	require.NoError(t, validInputs().Validate())

	cases := map[string]func(in *Inputs){
		"empty prices":     func(in *Inputs) { in.Hourly.PriceDKKPerKWh = nil },
		"pv length":        func(in *Inputs) { in.Hourly.AvailablePVKW = []float64{1} },
		"negative pv":      func(in *Inputs) { in.Hourly.AvailablePVKW[1] = -1 },
		"reference length": func(in *Inputs) { in.Hourly.ReferenceLoadKW = []float64{1, 1} },
		"negative import":  func(in *Inputs) { in.System.MaxImportKW = -1 },
		"energy too large": func(in *Inputs) { in.System.MinDailyEnergyKWh = 7 },
		"max below min":    func(in *Inputs) { in.System.MaxDailyEnergyKWh = 1 },
		"bad storage": func(in *Inputs) {
			in.System.Storage = &StorageParams{CapacityKWh: 1, ChargeEfficiency: 2, DischargeEfficiency: 1}
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := validInputs()
			mutate(in)
			assert.Error(t, in.Validate())
		})
	}
}

func TestStorageToParams(t *testing.T) {
	s := Storage{
		StorageID:                "BAT1",
		StorageCapacityKWh:       10,
		MaxChargingPowerRatio:    0.2,
		MaxDischargingPowerRatio: 0.5,
		ChargingEfficiency:       0.9,
		DischargingEfficiency:    0.95,
	}
	p := s.ToParams(nil)
	assert.InDelta(t, 2, p.MaxChargeKW, 1e-12)
	assert.InDelta(t, 5, p.MaxDischargeKW, 1e-12)
	assert.Equal(t, DefaultSOCRatio, p.InitialSOC)
	assert.InDelta(t, 0.2, p.ChargeToEnergyRatio(), 1e-12)
	assert.InDelta(t, 0.5, p.DischargeToEnergyRatio(), 1e-12)
	require.NoError(t, p.Validate())

	p = s.ToParams(&StoragePreference{StorageID: "BAT1", InitialSOCRatio: 0.1, FinalSOCRatio: 0.9})
	assert.Equal(t, 0.1, p.InitialSOC)
	assert.Equal(t, 0.9, p.FinalSOC)
}

func TestActionFromFlows(t *testing.T) {
	assert.Equal(t, ActionCharging, ActionFromFlowsKW(2, 0))
	assert.Equal(t, ActionDischarging, ActionFromFlowsKW(0, 1))
	assert.Equal(t, ActionIdle, ActionFromFlowsKW(1e-9, 0))
}
