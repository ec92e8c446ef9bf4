package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetAuditStatus returns the position audit scheduler status
func (h *Handlers) GetAuditStatus(c *gin.Context) {
	status := "stopped"
	if h.scheduler.IsRunning() {
		status = "running"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   status,
		"next_run": h.scheduler.GetNextRun(),
		"last_run": h.scheduler.GetLastRun(),
	})
}

// RunAudit verifies and, when needed, repairs queue positions immediately
func (h *Handlers) RunAudit(c *gin.Context) {
	report, err := h.scheduler.RunOnce(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to audit positions")
		return
	}
	c.JSON(http.StatusOK, AuditResponse{
		Consistent:    report.Consistent(),
		Active:        report.Active,
		Misplaced:     report.Misplaced,
		StaleInactive: report.StaleInactive,
	})
}
