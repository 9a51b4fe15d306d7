package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"demand-flex/internal/api/handlers"
	"demand-flex/internal/api/models"
	"demand-flex/internal/config"
	"demand-flex/internal/data"
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

const homePreset = `
storage:
  name: Home 6 kWh
  capacity_kwh: 6
  max_charge_kw: 3
  max_discharge_kw: 3
  charge_efficiency: 0.95
  discharge_efficiency: 0.95
`

type fakeRuns struct {
	runs []store.RunInfo
	err  error
}

func (f *fakeRuns) ListRuns(_ context.Context, scenario string, _ int) ([]store.RunInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []store.RunInfo
	for _, r := range f.runs {
		if scenario == "" || r.Scenario == scenario {
			out = append(out, r)
		}
	}
	return out, nil
}

func setupRouter(t *testing.T, runs handlers.RunLister, tune ...func(*handlers.Deps)) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dataDir := t.TempDir()
	dir := filepath.Join(dataDir, "s1")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for name, content := range scenarioFiles {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	require.NoError(t, os.MkdirAll(filepath.Join(dataDir, "partial"), 0o755))

	storageDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(storageDir, "home_6kwh.yaml"), []byte(homePreset), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(storageDir, "notes.txt"), []byte("ignored"), 0o644))

	log := logrus.New()
	log.SetOutput(io.Discard)

	cfg := config.Default()
	cfg.DataDir = dataDir
	deps := handlers.Deps{
		Config:     cfg,
		StorageDir: storageDir,
		Cache:      data.NewDatasetCache(time.Minute),
		Log:        log,
	}
	for _, fn := range tune {
		fn(&deps)
	}
	return NewRouter(Options{Deps: deps, Runs: runs})
}

func ptr(v float64) *float64 { return &v }

func do(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	return decode[models.ErrorResponse](t, w).Error.Code
}

func TestHealthAndMetrics(t *testing.T) {
	r := setupRouter(t, nil)

	w := do(t, r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = do(t, r, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodGet, "/api/v1/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", errorCode(t, w))
}

func TestListScenarios(t *testing.T) {
	r := setupRouter(t, nil)

	w := do(t, r, http.MethodGet, "/api/v1/scenarios", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[struct {
		Scenarios []data.ScenarioInfo `json:"scenarios"`
		Count     int                 `json:"count"`
	}](t, w)
	require.Equal(t, 2, body.Count)
	assert.Equal(t, "partial", body.Scenarios[0].Name)
	assert.False(t, body.Scenarios[0].Complete)
	assert.Equal(t, "s1", body.Scenarios[1].Name)
	assert.True(t, body.Scenarios[1].Complete)
}

func TestListStorage(t *testing.T) {
	r := setupRouter(t, nil)

	w := do(t, r, http.MethodGet, "/api/v1/storage", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[struct {
		Storage []models.StorageInfo `json:"storage"`
	}](t, w)
	require.Len(t, body.Storage, 1)
	assert.Equal(t, "home_6kwh", body.Storage[0].ID)
	assert.Equal(t, "Home 6 kWh", body.Storage[0].Name)
	assert.Equal(t, 6.0, body.Storage[0].Specs.CapacityKWh)
}

func TestDispatch(t *testing.T) {
	r := setupRouter(t, nil)

	w := do(t, r, http.MethodPost, "/api/v1/dispatch", models.OptimizeRequest{
		Scenario: "s1",
		Options:  models.OptimizeOptions{IncludeSchedule: true},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[models.OptimizeResponse](t, w)
	assert.Equal(t, "s1", resp.Scenario)
	assert.Equal(t, "dispatch", resp.Variant)
	assert.Empty(t, resp.ID)
	require.NotNil(t, resp.Summary)
	require.Len(t, resp.Schedule, 3)
	assert.GreaterOrEqual(t, resp.Summary.KPIs.TotalLoadKWh, 3.0-1e-6)
	assert.Nil(t, resp.Summary.Investment)

	w = do(t, r, http.MethodPost, "/api/v1/dispatch", models.OptimizeRequest{Scenario: "s1"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[models.OptimizeResponse](t, w).Schedule)
}

func TestDispatchPriceOverride(t *testing.T) {
	r := setupRouter(t, nil)

	w := do(t, r, http.MethodPost, "/api/v1/dispatch", models.OptimizeRequest{
		Scenario:      "s1",
		PriceOverride: []float64{2, 2, 2},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[models.OptimizeResponse](t, w)
	assert.InDelta(t, 2.0, resp.Summary.Prices.MeanDKKPerKWh, 1e-9)
	assert.InDelta(t, 0.0, resp.Summary.Prices.SpreadP95P05, 1e-9)

	w = do(t, r, http.MethodPost, "/api/v1/dispatch", models.OptimizeRequest{
		Scenario:      "s1",
		PriceOverride: []float64{2, 2},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	assert.Equal(t, "INVALID_REQUEST", errorCode(t, w))
}

func TestDispatchIncludeStorage(t *testing.T) {
	r := setupRouter(t, nil)

	run := func(include bool) models.OptimizeResponse {
		w := do(t, r, http.MethodPost, "/api/v1/dispatch", models.OptimizeRequest{
			Scenario:       "s1",
			IncludeStorage: include,
			Options:        models.OptimizeOptions{IncludeSchedule: true},
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		return decode[models.OptimizeResponse](t, w)
	}

	without := run(false)
	for _, h := range without.Schedule {
		assert.Zero(t, h.BatteryChargeKW)
		assert.Zero(t, h.BatteryDischargeKW)
	}
	// bat1 must end at 80% from 20%, so the included battery charges.
	charged := 0.0
	for _, h := range run(true).Schedule {
		charged += h.BatteryChargeKW
	}
	assert.Greater(t, charged, 1.0)
}

func TestDispatchSolveTimeout(t *testing.T) {
	r := setupRouter(t, nil, func(d *handlers.Deps) { d.SolveTimeout = time.Nanosecond })

	w := do(t, r, http.MethodPost, "/api/v1/dispatch", models.OptimizeRequest{Scenario: "s1"})
	assert.Equal(t, http.StatusGatewayTimeout, w.Code, w.Body.String())
	assert.Equal(t, "TIMEOUT", errorCode(t, w))
}

func TestDispatchErrors(t *testing.T) {
	r := setupRouter(t, nil)

	w := do(t, r, http.MethodPost, "/api/v1/dispatch", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_REQUEST", errorCode(t, w))

	w = do(t, r, http.MethodPost, "/api/v1/dispatch", models.OptimizeRequest{Scenario: "../etc"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_SCENARIO", errorCode(t, w))

	w = do(t, r, http.MethodPost, "/api/v1/dispatch", models.OptimizeRequest{Scenario: "missing"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "SCENARIO_NOT_FOUND", errorCode(t, w))

	w = do(t, r, http.MethodPost, "/api/v1/dispatch", models.OptimizeRequest{
		Scenario: "s1",
		Storage:  models.StorageConfig{CapacityKWh: 5, ChargeEfficiency: 2, DischargeEfficiency: 1},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_CONFIG", errorCode(t, w))

	w = do(t, r, http.MethodPost, "/api/v1/dispatch", models.OptimizeRequest{Scenario: "s1", StorageFile: "absent"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_CONFIG", errorCode(t, w))
}

func TestInvestment(t *testing.T) {
	r := setupRouter(t, nil)

	w := do(t, r, http.MethodPost, "/api/v1/investment", models.OptimizeRequest{
		Scenario:   "s1",
		Investment: models.InvestmentConfig{CapitalCostDKKPerKWh: ptr(100)},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[models.OptimizeResponse](t, w)
	assert.Equal(t, "investment", resp.Variant)
	require.NotNil(t, resp.Summary.Investment)
	assert.InDelta(t, 0, resp.Summary.Investment.OptimalBatterySizeKWh, 1e-6)
	assert.Equal(t, 100.0, resp.Summary.Investment.CapitalCostDKKPerKWh)
}

func TestInvestmentDefaultsToConfiguredCapitalCost(t *testing.T) {
	r := setupRouter(t, nil, func(d *handlers.Deps) { d.Config.Investment.CapitalCostDKKPerKWh = 100 })

	w := do(t, r, http.MethodPost, "/api/v1/investment", models.OptimizeRequest{Scenario: "s1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	inv := decode[models.OptimizeResponse](t, w).Summary.Investment
	require.NotNil(t, inv)
	assert.Equal(t, 100.0, inv.CapitalCostDKKPerKWh)
	assert.InDelta(t, 0, inv.OptimalBatterySizeKWh, 1e-6)

	w = do(t, r, http.MethodPost, "/api/v1/investment", models.OptimizeRequest{Scenario: "s1", MaxNodes: -1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_REQUEST", errorCode(t, w))
}

func TestInvestmentWithStoragePreset(t *testing.T) {
	r := setupRouter(t, nil)

	w := do(t, r, http.MethodPost, "/api/v1/investment", models.OptimizeRequest{
		Scenario:    "s1",
		StorageFile: "home_6kwh",
		Investment:  models.InvestmentConfig{CapitalCostDKKPerKWh: ptr(0.01), ModuleSizeKWh: 2, MaxModules: 3},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	inv := decode[models.OptimizeResponse](t, w).Summary.Investment
	require.NotNil(t, inv)
	assert.LessOrEqual(t, inv.Modules, 3)
	assert.InDelta(t, 2*float64(inv.Modules), inv.OptimalBatterySizeKWh, 1e-6)
}

func TestSweep(t *testing.T) {
	r := setupRouter(t, nil)

	w := do(t, r, http.MethodPost, "/api/v1/sweep", models.SweepRequest{
		OptimizeRequest: models.OptimizeRequest{Scenario: "s1"},
		CapitalCosts:    []float64{0, 100},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[models.SweepResponse](t, w)
	assert.Equal(t, "s1", resp.Scenario)
	require.Len(t, resp.Points, 2)
	assert.Empty(t, resp.Points[0].Error)
	assert.Equal(t, 100.0, resp.Points[1].CapitalCostDKKPerKWh)
	assert.InDelta(t, 0, resp.Points[1].OptimalBatterySizeKWh, 1e-6)

	w = do(t, r, http.MethodPost, "/api/v1/sweep", models.SweepRequest{
		OptimizeRequest: models.OptimizeRequest{Scenario: "s1"},
		CapitalCosts:    []float64{},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/api/v1/sweep", models.SweepRequest{
		OptimizeRequest: models.OptimizeRequest{Scenario: "s1"},
		CapitalCosts:    []float64{-1},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_CONFIG", errorCode(t, w))
}

func TestRank(t *testing.T) {
	r := setupRouter(t, nil)

	w := do(t, r, http.MethodGet, "/api/v1/rank", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[models.RankResponse](t, w)
	require.Len(t, resp.Rankings, 1)
	assert.Equal(t, 1, resp.Rankings[0].Rank)
	assert.Equal(t, "s1", resp.Rankings[0].Scenario)
	assert.Empty(t, resp.Failed)

	w = do(t, r, http.MethodGet, "/api/v1/rank?scenarios=s1,missing", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp = decode[models.RankResponse](t, w)
	require.Len(t, resp.Rankings, 1)
	assert.Equal(t, []string{"missing"}, resp.Failed)

	w = do(t, r, http.MethodGet, "/api/v1/rank?scenarios=../x", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_SCENARIO", errorCode(t, w))
}

func TestRuns(t *testing.T) {
	w := do(t, setupRouter(t, nil), http.MethodGet, "/api/v1/runs", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "STORE_DISABLED", errorCode(t, w))

	runs := &fakeRuns{runs: []store.RunInfo{
		{ID: "a", Scenario: "s1", Variant: "dispatch", Status: "Optimal", ObjectiveDKK: 1},
		{ID: "b", Scenario: "s2", Variant: "investment", Status: "Optimal", ObjectiveDKK: 2},
	}}
	r := setupRouter(t, runs)

	w = do(t, r, http.MethodGet, "/api/v1/runs?scenario=s1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[struct {
		Runs  []store.RunInfo `json:"runs"`
		Count int             `json:"count"`
	}](t, w)
	require.Equal(t, 1, body.Count)
	assert.Equal(t, "a", body.Runs[0].ID)

	runs.err = errors.New("db down")
	w = do(t, r, http.MethodGet, "/api/v1/runs", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "STORE_ERROR", errorCode(t, w))
}

func TestCORSPreflight(t *testing.T) {
	r := setupRouter(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/dispatch", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
