package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/resumatch/pkg/metrics"
)

type healthResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleRoot(c *gin.Context) {
	writeJSON(c, http.StatusOK, gin.H{"message": "Welcome to ResuMatch API"})
}

// handleHealth reports 503 until the service has started.
func (s *Server) handleHealth(c *gin.Context) {
	if !s.deps.Started() {
		writeJSON(c, http.StatusServiceUnavailable, healthResponse{Status: "starting"})
		return
	}
	writeJSON(c, http.StatusOK, healthResponse{Status: "healthy"})
}

func handleMetrics(c *gin.Context) {
	promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}).ServeHTTP(c.Writer, c.Request)
}

func (s *Server) handleStats(c *gin.Context) {
	stats, err := s.deps.GetStats(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	writeJSON(c, http.StatusOK, stats)
}
