package router

import (
	"github.com/gin-gonic/gin"

	"cvbatch/internal/handler"
	"cvbatch/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	batchH *handler.BatchHandler,
	healthH *handler.HealthHandler,
	corsOrigins []string,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(corsOrigins))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	v1 := r.Group("/api/v1")

	batches := v1.Group("/batches")
	batches.POST("/report", batchH.Report)
	batches.POST("/extract", batchH.Extract)

	return r
}
