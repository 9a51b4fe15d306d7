package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"demand-flex/internal/api/models"
	"demand-flex/internal/data"
	"demand-flex/internal/lp"
	"demand-flex/internal/optmodel"
)

func writeError(c *gin.Context, status int, code, message string, details map[string]interface{}) {
	c.JSON(status, models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// respondError maps run errors onto HTTP statuses and error codes.
func respondError(c *gin.Context, err error) {
	status, code := http.StatusInternalServerError, "RUN_ERROR"
	switch {
	case errors.Is(err, data.ErrNoData):
		status, code = http.StatusNotFound, "SCENARIO_NOT_FOUND"
	case errors.Is(err, data.ErrPriceOverride):
		status, code = http.StatusBadRequest, "INVALID_REQUEST"
	case errors.Is(err, data.ErrHoursMismatch):
		status, code = http.StatusUnprocessableEntity, "INVALID_SCENARIO_DATA"
	case errors.Is(err, optmodel.ErrMissingStorage):
		status, code = http.StatusUnprocessableEntity, "MISSING_STORAGE"
	case errors.Is(err, lp.ErrInfeasible):
		status, code = http.StatusUnprocessableEntity, "INFEASIBLE"
	case errors.Is(err, lp.ErrUnbounded):
		status, code = http.StatusUnprocessableEntity, "UNBOUNDED"
	case errors.Is(err, lp.ErrNodeLimit):
		status, code = http.StatusUnprocessableEntity, "NODE_LIMIT"
	case errors.Is(err, context.DeadlineExceeded):
		status, code = http.StatusGatewayTimeout, "TIMEOUT"
	case errors.Is(err, context.Canceled):
		status, code = http.StatusServiceUnavailable, "CANCELLED"
	}
	writeError(c, status, code, err.Error(), nil)
}

// validScenario rejects names that would leave the data directory.
func validScenario(name string) bool {
	return name != "" && name != "." && name != ".." && !strings.ContainsAny(name, `/\`)
}
