package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"demand-flex/internal/api/handlers"
	"demand-flex/internal/api/middleware"
	"demand-flex/internal/api/models"
	"demand-flex/internal/config"
)

// Options configures the HTTP surface.
type Options struct {
	Deps handlers.Deps
	// Runs serves /api/v1/runs; nil disables run history.
	Runs           handlers.RunLister
	AllowedOrigins []string
}

// NewRouter wires middleware, handlers and routes.
func NewRouter(opts Options) *gin.Engine {
	log := opts.Deps.Log
	if log == nil {
		log = logrus.StandardLogger()
		opts.Deps.Log = log
	}
	if opts.Deps.Config == nil {
		opts.Deps.Config = config.Default()
	}

	router := gin.New()
	router.Use(middleware.ErrorHandler(log))
	router.Use(middleware.CORS(opts.AllowedOrigins))
	router.Use(middleware.Logger(log))

	optimizeHandler := handlers.NewOptimizeHandler(opts.Deps)
	scenarioHandler := handlers.NewScenarioHandler(opts.Deps.Config.DataDir)
	storageHandler := handlers.NewStorageHandler(opts.Deps.StorageDir, log)
	rankHandler := handlers.NewRankHandler(optimizeHandler)
	runsHandler := handlers.NewRunsHandler(opts.Runs)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/scenarios", scenarioHandler.ListScenarios)
		v1.GET("/storage", storageHandler.ListStorage)

		v1.POST("/dispatch", optimizeHandler.RunDispatch)
		v1.POST("/investment", optimizeHandler.RunInvestment)
		v1.POST("/sweep", optimizeHandler.RunSweep)

		v1.GET("/rank", rankHandler.RankScenarios)
		v1.GET("/runs", runsHandler.ListRuns)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "NOT_FOUND", Message: "Not found"},
		})
	})
	return router
}
