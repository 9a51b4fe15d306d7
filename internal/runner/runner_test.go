package runner

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"demand-flex/internal/config"
	"demand-flex/internal/data"
	"demand-flex/internal/optmodel"
	"demand-flex/internal/store"
)

var scenarioFiles = map[string]string{
	data.ConsumerParamsFile: `[{"consumer_id":"c1","connection_bus":"b1","list_appliances":["pv1","load1","bat1"]}]`,
	data.ApplianceParamsFile: `{
  "DER":[{"DER_id":"pv1","DER_type":"PV","max_power_kW":4}],
  "load":[{"load_id":"load1","load_type":"flexible","max_load_kWh_per_hour":2}],
  "storage":[{"storage_id":"bat1","storage_capacity_kWh":10,"max_charging_power_ratio":0.5,"max_discharging_power_ratio":0.4,"charging_efficiency":0.9,"discharging_efficiency":0.95}]
}`,
	data.UsagePreferenceFile: `[{"consumer_id":"c1",
  "load_preferences":[{"load_id":"load1","min_total_energy_per_day_hour_equivalent":3,"hourly_profile_ratio":[0.5,1,0.25]}],
  "storage_preferences":[{"storage_id":"bat1","initial_soc_ratio":0.2,"final_soc_ratio":0.8}]}]`,
	data.DERProductionFile: `[{"hourly_profile_ratio":[0,0.5,1]}]`,
	data.BusParamsFile: `[{"bus_ID":"b1","energy_price_DKK_per_kWh":[1,2,3],"import_tariff_DKK/kWh":0.5,"export_tariff_DKK/kWh":0.1,"max_import_kW":5,"max_export_kW":4}]`,
}

func writeScenario(t *testing.T, root, name string) {
	t.Helper()
	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for file, content := range scenarioFiles {
		require.NoError(t, os.WriteFile(filepath.Join(dir, file), []byte(content), 0o644))
	}
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type fakeStore struct {
	records []store.RunRecord
	err     error
}

func (f *fakeStore) SaveRun(_ context.Context, rec store.RunRecord) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.records = append(f.records, rec)
	return "run-1", nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	writeScenario(t, root, "s1")
	cfg := config.Default()
	cfg.DataDir = root
	return cfg
}

func TestRunDispatch(t *testing.T) {
	cfg := testConfig(t)
	cfg.OutputDir = filepath.Join(t.TempDir(), "out")
	cfg.Exports = []string{"csv", "xlsx", "pdf"}
	fs := &fakeStore{}

	r := New(cfg, quietLogger(), WithStore(fs), WithCache(data.NewDatasetCache(0)))
	out := r.Run(context.Background(), "s1")
	require.NoError(t, out.Err)

	require.NotNil(t, out.Result)
	require.NotNil(t, out.Summary)
	assert.Equal(t, optmodel.VariantDispatch, out.Variant)
	assert.GreaterOrEqual(t, out.Summary.KPIs.TotalLoadKWh, 3.0-1e-6)
	assert.InDelta(t, out.Result.ObjectiveDKK, out.Summary.KPIs.NetDailyCostDKK, 1e-6)
	require.Len(t, out.Exports, 3)
	for _, p := range out.Exports {
		assert.FileExists(t, p)
	}
	assert.Equal(t, "run-1", out.RunID)
	require.Len(t, fs.records, 1)
	assert.Equal(t, "s1", fs.records[0].Scenario)
	assert.Nil(t, fs.records[0].BatterySizeKWh)
}

func TestRunQuestion1a(t *testing.T) {
	cfg := config.Default()
	cfg.DataDir = filepath.Join("..", "..", "data")

	out := New(cfg, quietLogger()).Run(context.Background(), "question_1a")
	require.NoError(t, out.Err)
	assert.InDelta(t, -30.431840, out.Result.ObjectiveDKK, 1e-4)
	for _, h := range out.Result.Hourly {
		assert.Zero(t, h.BatteryChargeKW)
		assert.Zero(t, h.BatteryDischargeKW)
	}

	cfg.Dispatch.IncludeStorage = true
	withBattery := New(cfg, quietLogger()).Run(context.Background(), "question_1a")
	require.NoError(t, withBattery.Err)
	assert.InDelta(t, -36.339995, withBattery.Result.ObjectiveDKK, 1e-4)
}

func TestRunInvestment(t *testing.T) {
	cfg := testConfig(t)
	cfg.Variant = string(optmodel.VariantInvestment)
	cfg.Investment.CapitalCostDKKPerKWh = 100
	fs := &fakeStore{}

	out := New(cfg, quietLogger(), WithStore(fs)).Run(context.Background(), "s1")
	require.NoError(t, out.Err)
	require.NotNil(t, out.Result.Investment)
	assert.InDelta(t, 0, out.Result.Investment.OptimalBatterySizeKWh, 1e-6)
	require.Len(t, fs.records, 1)
	require.NotNil(t, fs.records[0].BatterySizeKWh)
}

func TestRunStorageOverride(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage = config.StorageConfig{
		CapacityKWh: 20, MaxChargeKW: 5, MaxDischargeKW: 5,
		ChargeEfficiency: 1, DischargeEfficiency: 1, InitialSOC: 0.5, FinalSOC: 0.5,
	}
	in, err := New(cfg, quietLogger()).Prepare("s1", nil)
	require.NoError(t, err)
	require.NotNil(t, in.System.Storage)
	assert.Equal(t, 20.0, in.System.Storage.CapacityKWh)
}

func TestRunPersistError(t *testing.T) {
	cfg := testConfig(t)
	out := New(cfg, quietLogger(), WithStore(&fakeStore{err: errors.New("db down")})).Run(context.Background(), "s1")
	require.Error(t, out.Err)
	assert.Contains(t, out.Err.Error(), "persist run")
	assert.NotNil(t, out.Summary)
}

func TestRunAllIsolatesFailures(t *testing.T) {
	cfg := testConfig(t)
	r := New(cfg, quietLogger())

	outcomes := r.RunAll(context.Background(), []string{"missing", "s1"})
	require.Len(t, outcomes, 2)
	assert.ErrorIs(t, outcomes[0].Err, data.ErrNoData)
	assert.NoError(t, outcomes[1].Err)
	assert.Equal(t, 1, Failed(outcomes))
	require.Len(t, Summaries(outcomes), 1)
	assert.Equal(t, "s1", Summaries(outcomes)[0].Scenario)
}

func TestRunAllCancelled(t *testing.T) {
	cfg := testConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcomes := New(cfg, quietLogger()).RunAll(ctx, []string{"s1", "s1"})
	require.Len(t, outcomes, 2)
	assert.Equal(t, 2, Failed(outcomes))
	assert.ErrorIs(t, outcomes[0].Err, context.Canceled)
}

func TestSweep(t *testing.T) {
	cfg := testConfig(t)
	cfg.OutputDir = t.TempDir()
	r := New(cfg, quietLogger())

	points, err := r.Sweep(context.Background(), "s1", []float64{0, 100})
	require.NoError(t, err)
	require.Len(t, points, 2)
	require.NoError(t, points[0].Err)
	require.NoError(t, points[1].Err)
	assert.InDelta(t, 0, points[1].Result.Investment.OptimalBatterySizeKWh, 1e-6)
	assert.LessOrEqual(t, points[0].Result.OperatingCostDKK, points[1].Result.OperatingCostDKK+1e-6)
	assert.FileExists(t, filepath.Join(cfg.OutputDir, "s1_sweep.csv"))

	rows := SweepRows(points)
	require.Len(t, rows, 2)
	assert.Equal(t, 100.0, rows[1].CapitalCostDKKPerKWh)

	_, err = r.Sweep(context.Background(), "s1", nil)
	assert.ErrorIs(t, err, ErrNoCapitalCosts)

	_, err = r.Sweep(context.Background(), "missing", []float64{1})
	assert.ErrorIs(t, err, data.ErrNoData)
}

func TestSweepRowsWithError(t *testing.T) {
	rows := SweepRows([]SweepPoint{{CapitalCostDKKPerKWh: 1, Err: errors.New("infeasible")}})
	require.Len(t, rows, 1)
	assert.Equal(t, "infeasible", rows[0].Error)
}
