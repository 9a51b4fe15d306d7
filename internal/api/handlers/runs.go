package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"demand-flex/internal/api/models"
	"demand-flex/internal/store"
)

// RunLister reads persisted runs. *store.RunStore satisfies it.
type RunLister interface {
	ListRuns(ctx context.Context, scenario string, limit int) ([]store.RunInfo, error)
}

// RunsHandler serves the run history
type RunsHandler struct {
	store RunLister
}

// NewRunsHandler creates a runs handler. A nil lister disables the endpoint.
func NewRunsHandler(l RunLister) *RunsHandler {
	return &RunsHandler{store: l}
}

// ListRuns handles GET /api/v1/runs
func (h *RunsHandler) ListRuns(c *gin.Context) {
	if h.store == nil {
		writeError(c, http.StatusServiceUnavailable, "STORE_DISABLED", "run history needs DATABASE_URL", nil)
		return
	}
	var req models.RunsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
		return
	}
	limit := req.Limit
	if limit <= 0 {
		limit = 20
	}
	runs, err := h.store.ListRuns(c.Request.Context(), req.Scenario, limit)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "STORE_ERROR", err.Error(), nil)
		return
	}
	if runs == nil {
		runs = []store.RunInfo{}
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs, "count": len(runs)})
}
