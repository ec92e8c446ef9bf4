package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Root returns service information
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":       "SiikHub Waitlist API v" + Version,
		"status":        "operational",
		"documentation": "/docs",
		"health_check":  "/health",
	})
}

// HealthCheck handles health check requests
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:         "healthy",
		Timestamp:      time.Now().UTC(),
		DatabaseStatus: "healthy",
		Version:        Version,
	}

	total, err := h.service.Health(c.Request.Context())
	if err != nil {
		response.Status = "degraded"
		response.DatabaseStatus = "error: " + err.Error()
		logrus.Errorf("Database health check failed: %v", err)
	}
	response.TotalEntries = total

	c.JSON(http.StatusOK, response)
}
