package handlers

import (
	"context"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"demand-flex/internal/api/models"
	"demand-flex/internal/config"
	"demand-flex/internal/data"
	"demand-flex/internal/lp"
	"demand-flex/internal/optmodel"
	"demand-flex/internal/runner"
)

// Deps are the shared services of the optimisation handlers.
type Deps struct {
	// Config is the base configuration every request starts from.
	Config     *config.Config
	StorageDir string
	Cache      *data.DatasetCache
	// Store is optional; runs are persisted when it is set.
	Store runner.RunSaver
	Log   logrus.FieldLogger
	// SolveTimeout bounds each request's solves; zero means DefaultSolveTimeout.
	SolveTimeout time.Duration
}

const DefaultSolveTimeout = 2 * time.Minute

// OptimizeHandler handles dispatch, investment and sweep requests
type OptimizeHandler struct {
	deps Deps
}

func NewOptimizeHandler(deps Deps) *OptimizeHandler {
	if deps.Config == nil {
		deps.Config = config.Default()
	}
	if deps.Log == nil {
		deps.Log = logrus.StandardLogger()
	}
	if deps.SolveTimeout <= 0 {
		deps.SolveTimeout = DefaultSolveTimeout
	}
	return &OptimizeHandler{deps: deps}
}

// RunDispatch handles POST /api/v1/dispatch
func (h *OptimizeHandler) RunDispatch(c *gin.Context) {
	h.run(c, optmodel.VariantDispatch)
}

// RunInvestment handles POST /api/v1/investment
func (h *OptimizeHandler) RunInvestment(c *gin.Context) {
	h.run(c, optmodel.VariantInvestment)
}

func (h *OptimizeHandler) run(c *gin.Context, variant optmodel.Variant) {
	var req models.OptimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
		return
	}
	cfg, ok := h.requestConfig(c, req, variant)
	if !ok {
		return
	}

	ctx, cancel := h.solveContext(c)
	defer cancel()
	out := h.runner(cfg).RunWithPrices(ctx, req.Scenario, req.PriceOverride)
	if out.Err != nil {
		respondError(c, out.Err)
		return
	}

	resp := models.OptimizeResponse{
		ID:         out.RunID,
		Scenario:   out.Scenario,
		Variant:    string(out.Variant),
		Status:     string(out.Result.Status),
		Nodes:      out.Result.Nodes,
		DurationMS: out.Duration.Milliseconds(),
		Summary:    out.Summary,
	}
	if req.Options.IncludeSchedule {
		resp.Schedule = out.Result.Hourly
	}
	c.JSON(http.StatusOK, resp)
}

// RunSweep handles POST /api/v1/sweep
func (h *OptimizeHandler) RunSweep(c *gin.Context) {
	var req models.SweepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
		return
	}
	cfg, ok := h.requestConfig(c, req.OptimizeRequest, optmodel.VariantInvestment, req.CapitalCosts...)
	if !ok {
		return
	}

	ctx, cancel := h.solveContext(c)
	defer cancel()
	points, err := h.runner(cfg).SweepWithPrices(ctx, req.Scenario, req.PriceOverride, req.CapitalCosts)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SweepResponse{
		Scenario: req.Scenario,
		Points:   runner.SweepRows(points),
	})
}

// solveContext derives the request's solve deadline.
func (h *OptimizeHandler) solveContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), h.deps.SolveTimeout)
}

func (h *OptimizeHandler) runner(cfg *config.Config) *runner.Runner {
	opts := []runner.Option{runner.WithCache(h.deps.Cache)}
	if h.deps.Store != nil {
		opts = append(opts, runner.WithStore(h.deps.Store))
	}
	return runner.New(cfg, h.deps.Log, opts...)
}

// requestConfig layers the request onto the base config. It writes the
// error response itself and reports whether the caller may continue.
func (h *OptimizeHandler) requestConfig(c *gin.Context, req models.OptimizeRequest, variant optmodel.Variant, sweep ...float64) (*config.Config, bool) {
	if !validScenario(req.Scenario) {
		writeError(c, http.StatusBadRequest, "INVALID_SCENARIO", "scenario must be a plain directory name", nil)
		return nil, false
	}
	cfg, err := h.buildConfig(req, variant, sweep)
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_CONFIG", err.Error(), nil)
		return nil, false
	}
	return cfg, true
}

func (h *OptimizeHandler) buildConfig(req models.OptimizeRequest, variant optmodel.Variant, sweep []float64) (*config.Config, error) {
	cfg := *h.deps.Config
	cfg.Variant = string(variant)
	// Requests never write report files.
	cfg.OutputDir = ""
	cfg.Exports = nil

	if req.ConsumerID != "" {
		cfg.ConsumerID = req.ConsumerID
	}
	cfg.Processing.ScaleHourEquivalent = cfg.Processing.ScaleHourEquivalent || req.Processing.ScaleHourEquivalent
	cfg.Processing.ApplyRampLimits = cfg.Processing.ApplyRampLimits || req.Processing.ApplyRampLimits
	cfg.Dispatch.IncludeStorage = cfg.Dispatch.IncludeStorage || req.IncludeStorage
	if req.MaxNodes > 0 {
		limit := cfg.Solver.MaxNodes
		if limit <= 0 {
			limit = lp.DefaultMaxNodes
		}
		cfg.Solver.MaxNodes = min(req.MaxNodes, limit)
	}

	inv := req.Investment
	if inv.CapitalCostDKKPerKWh != nil {
		cfg.Investment.CapitalCostDKKPerKWh = *inv.CapitalCostDKKPerKWh
	}
	if inv.SOCRatio != nil {
		cfg.Investment.SOCRatio = inv.SOCRatio
	}
	if inv.ModuleSizeKWh > 0 {
		cfg.Investment.ModuleSizeKWh = inv.ModuleSizeKWh
	}
	if inv.MaxModules > 0 {
		cfg.Investment.MaxModules = inv.MaxModules
	}
	if inv.MaxCapacityKWh > 0 {
		cfg.Investment.MaxCapacityKWh = inv.MaxCapacityKWh
	}
	cfg.Investment.Sweep = sweep

	if req.StorageFile != "" {
		id := strings.TrimSuffix(filepath.Base(req.StorageFile), ".yaml")
		loaded, err := config.LoadStorageFile(filepath.Join(h.deps.StorageDir, id+".yaml"))
		if err != nil {
			return nil, err
		}
		cfg.Storage = loaded
	}
	cfg.Storage = config.MergeStorage(cfg.Storage, config.StorageConfig{
		Name:                req.Storage.Name,
		CapacityKWh:         req.Storage.CapacityKWh,
		MaxChargeKW:         req.Storage.MaxChargeKW,
		MaxDischargeKW:      req.Storage.MaxDischargeKW,
		ChargeEfficiency:    req.Storage.ChargeEfficiency,
		DischargeEfficiency: req.Storage.DischargeEfficiency,
		InitialSOC:          req.Storage.InitialSOC,
		FinalSOC:            req.Storage.FinalSOC,
	})

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
