package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"demand-flex/internal/api/models"
	"demand-flex/internal/data"
	"demand-flex/internal/optmodel"
	"demand-flex/internal/summary"
)

// RankHandler handles ranking-related requests
type RankHandler struct {
	opt *OptimizeHandler
}

func NewRankHandler(opt *OptimizeHandler) *RankHandler {
	return &RankHandler{opt: opt}
}

// RankScenarios handles GET /api/v1/rank
func (h *RankHandler) RankScenarios(c *gin.Context) {
	var req models.RankRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
		return
	}

	var scenarios []string
	if req.Scenarios != "" {
		for _, s := range strings.Split(req.Scenarios, ",") {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			if !validScenario(s) {
				writeError(c, http.StatusBadRequest, "INVALID_SCENARIO",
					fmt.Sprintf("invalid scenario name %q", s), nil)
				return
			}
			scenarios = append(scenarios, s)
		}
	} else {
		infos, err := data.ListScenarios(h.opt.deps.Config.DataDir)
		if err != nil {
			writeError(c, http.StatusInternalServerError, "SCENARIOS_LOAD_ERROR", err.Error(), nil)
			return
		}
		for _, info := range infos {
			if info.Complete {
				scenarios = append(scenarios, info.Name)
			}
		}
	}
	if len(scenarios) == 0 {
		writeError(c, http.StatusBadRequest, "NO_SCENARIOS", "no scenarios to rank", nil)
		return
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}

	cfg, err := h.opt.buildConfig(models.OptimizeRequest{}, optmodel.VariantDispatch, nil)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "INVALID_CONFIG", err.Error(), nil)
		return
	}
	ctx, cancel := h.opt.solveContext(c)
	defer cancel()
	outcomes := h.opt.runner(cfg).RunAll(ctx, scenarios)

	resp := models.RankResponse{Rankings: []models.Ranking{}}
	var summaries []summary.Summary
	for _, o := range outcomes {
		if o.Err != nil || o.Summary == nil {
			resp.Failed = append(resp.Failed, o.Scenario)
			continue
		}
		summaries = append(summaries, *o.Summary)
	}
	for _, r := range summary.Rank(summaries) {
		if len(resp.Rankings) >= limit {
			break
		}
		resp.Rankings = append(resp.Rankings, models.Ranking{
			Rank:               r.Rank,
			Scenario:           r.Scenario,
			ObjectiveDKK:       r.ObjectiveDKK,
			GridImportKWh:      r.KPIs.TotalGridImportKWh,
			GridExportKWh:      r.KPIs.TotalGridExportKWh,
			SelfSufficiencyPct: r.KPIs.SelfSufficiencyPct,
			SpreadP95P05:       r.Prices.SpreadP95P05,
			OracleArbitrageDKK: r.Prices.OracleArbitrageDKK,
		})
	}
	c.JSON(http.StatusOK, resp)
}
