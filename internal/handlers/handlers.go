package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"siikhub-waitlist-go/internal/scheduler"
	"siikhub-waitlist-go/internal/waitlist"
)

// Version is reported by the root and health endpoints.
const Version = "2.0.0"

// RequestIDKey is the gin context key holding the request id.
const RequestIDKey = "request_id"

// Handlers contains all HTTP handlers
type Handlers struct {
	service   *waitlist.Service
	scheduler *scheduler.Scheduler
	gatherer  prometheus.Gatherer
}

// NewHandlers creates new HTTP handlers
func NewHandlers(svc *waitlist.Service, s *scheduler.Scheduler, g prometheus.Gatherer) *Handlers {
	return &Handlers{service: svc, scheduler: s, gatherer: g}
}

// SetupRoutes sets up all HTTP routes
func (h *Handlers) SetupRoutes(router *gin.Engine) {
	router.GET("/", h.Root)
	router.GET("/health", h.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})))

	api := router.Group("/api/waitlist")
	{
		api.POST("/signup", h.Signup)
		api.GET("/stats", h.GetStats)
		api.GET("/entries", h.GetEntries)
		api.DELETE("/unsubscribe/:email", h.Unsubscribe)
		api.GET("/export", h.Export)
		api.GET("/position/:email", h.GetPosition)

		api.GET("/audit/status", h.GetAuditStatus)
		api.POST("/audit/run-once", h.RunAudit)
	}
}
