package handlers

import (
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"demand-flex/internal/data"
)

// ScenarioHandler lists the scenarios under the data directory
type ScenarioHandler struct {
	dataDir string
}

func NewScenarioHandler(dataDir string) *ScenarioHandler {
	return &ScenarioHandler{dataDir: dataDir}
}

// ListScenarios handles GET /api/v1/scenarios
func (h *ScenarioHandler) ListScenarios(c *gin.Context) {
	scenarios, err := data.ListScenarios(h.dataDir)
	if err != nil {
		// A missing data directory is an empty list, not an error
		if os.IsNotExist(err) {
			c.JSON(http.StatusOK, gin.H{"scenarios": []data.ScenarioInfo{}, "count": 0})
			return
		}
		writeError(c, http.StatusInternalServerError, "SCENARIOS_LOAD_ERROR",
			fmt.Sprintf("Failed to list scenarios: %v", err), nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"scenarios": scenarios,
		"count":     len(scenarios),
	})
}
