package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nonprofit-edge/evaluation-api/internal/service"
)

// MetricsHandler exposes the Prometheus scrape endpoint and liveness probes.
type MetricsHandler struct {
	metrics *service.MetricsService
}

func NewMetricsHandler(metrics *service.MetricsService) *MetricsHandler {
	return &MetricsHandler{metrics: metrics}
}

// Prometheus serves the metrics registry in the exposition format.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health answers liveness and readiness probes.
func (h *MetricsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
