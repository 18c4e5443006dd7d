package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cvbatch/internal/service"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	batches service.BatchService
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(batches service.BatchService) *HealthHandler {
	return &HealthHandler{batches: batches}
}

// Liveness handles GET /healthz
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readiness handles GET /readyz
func (h *HealthHandler) Readiness(c *gin.Context) {
	info := h.batches.Info()
	c.JSON(http.StatusOK, gin.H{
		"status":          "ok",
		"llm_enabled":     info.LLMEnabled,
		"strategies":      info.Strategies,
		"workers":         info.Workers,
		"max_zip_size_mb": info.MaxArchiveBytes >> 20,
	})
}
