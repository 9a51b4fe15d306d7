package optmodel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"demand-flex/internal/lp"
	"demand-flex/internal/model"
)

const tol = 1e-6

func flatInputs(prices, pv []float64) *model.Inputs {
	if pv == nil {
		pv = make([]float64, len(prices))
	}
	return &model.Inputs{
		Scenario: "test",
		Hourly: model.HourlyParams{
			PriceDKKPerKWh: prices,
			AvailablePVKW:  pv,
		},
		System: model.SystemParams{
			MaxImportKW: 5,
			MaxExportKW: 0,
			MaxLoadKW:   2,
		},
	}
}

func assertBalanced(t *testing.T, in *model.Inputs, res *Result) {
	t.Helper()
	require.Len(t, res.Hourly, in.Hourly.Hours())
	sum := 0.0
	for h, r := range res.Hourly {
		supply := r.PVGenerationKW + r.GridImportKW + r.BatteryDischargeKW
		demand := r.LoadKW + r.GridExportKW + r.BatteryChargeKW
		assert.InDelta(t, supply, demand, tol, "energy balance hour %d", h)
		assert.InDelta(t, in.Hourly.AvailablePVKW[h], r.PVGenerationKW+r.PVCurtailmentKW, tol, "pv split hour %d", h)
		assert.InDelta(t, HourlyCost(r.GridImportKW, r.GridExportKW, r.PriceDKKPerKWh, in.System), r.HourlyCostDKK, tol)
		sum += r.HourlyCostDKK
	}
	assert.InDelta(t, sum, res.OperatingCostDKK, tol)
}

func totalLoad(res *Result) float64 {
	s := 0.0
	for _, r := range res.Hourly {
		s += r.LoadKW
	}
	return s
}

func TestDispatchShiftsLoadToCheapHours(t *testing.T) {
	in := flatInputs([]float64{3, 1, 2}, nil)
	in.System.ImportTariffDKKPerKWh = 0.1
	in.System.MinDailyEnergyKWh = 3

	res, err := SolveDispatch(context.Background(), in, DispatchOptions{})
	require.NoError(t, err)

	assert.Equal(t, VariantDispatch, res.Variant)
	assert.Equal(t, lp.StatusOptimal, res.Status)
	assert.InDelta(t, 4.3, res.ObjectiveDKK, tol)
	assert.InDelta(t, res.ObjectiveDKK, res.OperatingCostDKK, tol)
	assert.InDelta(t, 0, res.Hourly[0].LoadKW, tol)
	assert.InDelta(t, 2, res.Hourly[1].LoadKW, tol)
	assert.InDelta(t, 1, res.Hourly[2].LoadKW, tol)
	assert.GreaterOrEqual(t, totalLoad(res), 3-tol)
	assertBalanced(t, in, res)
}

func TestDispatchUsesAndExportsPV(t *testing.T) {
	in := flatInputs([]float64{1, 1, 1}, []float64{4, 0, 0})
	in.System.ImportTariffDKKPerKWh = 0.5
	in.System.MaxExportKW = 5
	in.System.MinDailyEnergyKWh = 3

	res, err := SolveDispatch(context.Background(), in, DispatchOptions{})
	require.NoError(t, err)

	assert.InDelta(t, -0.5, res.ObjectiveDKK, tol)
	assert.InDelta(t, 4, res.Hourly[0].PVGenerationKW, tol)
	assert.InDelta(t, 0, res.Hourly[0].PVCurtailmentKW, tol)
	assert.InDelta(t, 2, res.Hourly[0].GridExportKW, tol)
	assert.InDelta(t, 3, totalLoad(res), tol)
	assertBalanced(t, in, res)
}

func TestDispatchCurtailsAtNegativePrice(t *testing.T) {
	in := flatInputs([]float64{-1, 1, 1}, []float64{4, 0, 0})
	in.System.ImportTariffDKKPerKWh = 0.5
	in.System.MaxExportKW = 5
	in.System.MinDailyEnergyKWh = 3

	res, err := SolveDispatch(context.Background(), in, DispatchOptions{})
	require.NoError(t, err)

	assert.InDelta(t, 0.5, res.ObjectiveDKK, tol)
	assert.InDelta(t, 4, res.Hourly[0].PVCurtailmentKW, tol)
	assert.InDelta(t, 0, res.Hourly[0].GridExportKW, tol)
	assert.InDelta(t, 2, res.Hourly[0].GridImportKW, tol)
	assertBalanced(t, in, res)
}

func TestDispatchWithStorage(t *testing.T) {
	in := flatInputs([]float64{1, 10}, nil)
	in.System.MaxLoadKW = 0
	in.System.MaxExportKW = 5
	in.System.Storage = &model.StorageParams{
		CapacityKWh:         4,
		MaxChargeKW:         2,
		MaxDischargeKW:      2,
		ChargeEfficiency:    1,
		DischargeEfficiency: 1,
		InitialSOC:          0.5,
		FinalSOC:            0.5,
	}

	res, err := SolveDispatch(context.Background(), in, DispatchOptions{})
	require.NoError(t, err)

	assert.InDelta(t, -18, res.ObjectiveDKK, tol)
	assert.Equal(t, model.ActionCharging, res.Hourly[0].Action)
	assert.Equal(t, model.ActionDischarging, res.Hourly[1].Action)
	assert.InDelta(t, 4, res.Hourly[0].BatterySOCKWh, tol)
	assert.InDelta(t, 2, res.Hourly[1].BatterySOCKWh, tol)
	assertBalanced(t, in, res)

	res, err = SolveDispatch(context.Background(), in, DispatchOptions{IgnoreStorage: true})
	require.NoError(t, err)
	assert.InDelta(t, 0, res.ObjectiveDKK, tol)
	assert.Equal(t, model.ActionIdle, res.Hourly[0].Action)
}

func TestDispatchRampLimits(t *testing.T) {
	in := flatInputs([]float64{1, 10, 10}, nil)
	in.System.MinDailyEnergyKWh = 2
	in.System.LoadRampUpKW = 1
	in.System.LoadRampDownKW = 1

	res, err := SolveDispatch(context.Background(), in, DispatchOptions{})
	require.NoError(t, err)

	assert.InDelta(t, 6.5, res.ObjectiveDKK, tol)
	assert.InDelta(t, 1.5, res.Hourly[0].LoadKW, tol)
	assert.InDelta(t, 0.5, res.Hourly[1].LoadKW, tol)
	assertBalanced(t, in, res)
}

func TestDispatchMaxDailyEnergy(t *testing.T) {
	in := flatInputs([]float64{-1, -1}, nil)

	res, err := SolveDispatch(context.Background(), in, DispatchOptions{})
	require.NoError(t, err)
	assert.InDelta(t, -4, res.ObjectiveDKK, tol)

	in.System.MaxDailyEnergyKWh = 3
	res, err = SolveDispatch(context.Background(), in, DispatchOptions{})
	require.NoError(t, err)
	assert.InDelta(t, -3, res.ObjectiveDKK, tol)
	assert.InDelta(t, 3, totalLoad(res), tol)
}

func TestDispatchInfeasible(t *testing.T) {
	in := flatInputs([]float64{1, 1, 1}, nil)
	in.System.MaxImportKW = 1
	in.System.MinDailyEnergyKWh = 5

	_, err := SolveDispatch(context.Background(), in, DispatchOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, lp.ErrInfeasible)
}

func TestDispatchRejectsInvalidInputs(t *testing.T) {
	in := flatInputs([]float64{1, 1}, []float64{1})
	_, err := NewDispatch(in, DispatchOptions{})
	assert.Error(t, err)
}

func investmentInputs() *model.Inputs {
	in := flatInputs([]float64{1, 10}, nil)
	in.Hourly.ReferenceLoadKW = []float64{0, 2}
	in.System.Storage = &model.StorageParams{
		CapacityKWh:         10,
		MaxChargeKW:         10,
		MaxDischargeKW:      10,
		ChargeEfficiency:    1,
		DischargeEfficiency: 1,
		InitialSOC:          0.5,
		FinalSOC:            0.5,
	}
	return in
}

func TestInvestmentSizesBattery(t *testing.T) {
	in := investmentInputs()

	res, err := SolveInvestment(context.Background(), in, InvestmentOptions{CapitalCostDKKPerKWh: 0.5})
	require.NoError(t, err)

	require.NotNil(t, res.Investment)
	assert.Equal(t, VariantInvestment, res.Variant)
	assert.InDelta(t, 4, res.Investment.OptimalBatterySizeKWh, tol)
	assert.InDelta(t, 2, res.Investment.DailyCapexDKK, tol)
	assert.InDelta(t, 2, res.OperatingCostDKK, tol)
	assert.InDelta(t, 4, res.ObjectiveDKK, tol)
	assert.Zero(t, res.Investment.Modules)
	assert.InDelta(t, 2, res.Hourly[1].LoadKW, tol)
	assertBalanced(t, in, res)
}

func TestInvestmentZeroCapitalCost(t *testing.T) {
	res, err := SolveInvestment(context.Background(), investmentInputs(), InvestmentOptions{})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, res.Investment.OptimalBatterySizeKWh, 4-tol)
	assert.InDelta(t, 2, res.ObjectiveDKK, tol)
}

func TestInvestmentProhibitiveCost(t *testing.T) {
	res, err := SolveInvestment(context.Background(), investmentInputs(), InvestmentOptions{CapitalCostDKKPerKWh: 100})
	require.NoError(t, err)
	assert.InDelta(t, 0, res.Investment.OptimalBatterySizeKWh, tol)
	assert.InDelta(t, 20, res.ObjectiveDKK, tol)
}

func TestInvestmentModules(t *testing.T) {
	res, err := SolveInvestment(context.Background(), investmentInputs(), InvestmentOptions{
		CapitalCostDKKPerKWh: 0.5,
		ModuleSizeKWh:        3,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Investment.Modules)
	assert.InDelta(t, 6, res.Investment.OptimalBatterySizeKWh, tol)
	assert.InDelta(t, 5, res.ObjectiveDKK, tol)

	res, err = SolveInvestment(context.Background(), investmentInputs(), InvestmentOptions{
		CapitalCostDKKPerKWh: 0.5,
		ModuleSizeKWh:        3,
		MaxModules:           1,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Investment.Modules)
	assert.InDelta(t, 8, res.ObjectiveDKK, tol)
}

func TestInvestmentMaxCapacity(t *testing.T) {
	res, err := SolveInvestment(context.Background(), investmentInputs(), InvestmentOptions{
		CapitalCostDKKPerKWh: 0.5,
		MaxCapacityKWh:       2,
	})
	require.NoError(t, err)
	assert.InDelta(t, 2, res.Investment.OptimalBatterySizeKWh, tol)
	// 1 kWh shifted: opex 1 + 1·10, capex 1.
	assert.InDelta(t, 12, res.ObjectiveDKK, tol)
}

func TestInvestmentErrors(t *testing.T) {
	in := investmentInputs()
	in.System.Storage = nil
	_, err := NewInvestment(in, InvestmentOptions{})
	assert.ErrorIs(t, err, ErrMissingStorage)

	in = investmentInputs()
	in.Hourly.ReferenceLoadKW = nil
	_, err = NewInvestment(in, InvestmentOptions{})
	assert.ErrorContains(t, err, "reference load")

	bad := 1.5
	_, err = NewInvestment(investmentInputs(), InvestmentOptions{SOCRatio: &bad})
	assert.Error(t, err)

	_, err = NewInvestment(investmentInputs(), InvestmentOptions{CapitalCostDKKPerKWh: -1})
	assert.Error(t, err)
}
