package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"siikhub-waitlist-go/internal/handlers"
)

const requestIDHeader = "X-Request-Id"

// SetupRouter configures routes and middleware
func SetupRouter(h *handlers.Handlers) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestIDMiddleware())
	router.Use(loggerMiddleware())
	h.SetupRoutes(router)
	return router
}

// NewHandler wraps the router with the CORS policy for allowedOrigins
func NewHandler(h *handlers.Handlers, allowedOrigins []string) http.Handler {
	return corsMiddleware(allowedOrigins)(SetupRouter(h))
}

func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{requestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader(requestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Set(handlers.RequestIDKey, reqID)
		c.Header(requestIDHeader, reqID)
		c.Next()
	}
}

func loggerMiddleware() gin.HandlerFunc {
	return gin.LoggerWithConfig(gin.LoggerConfig{
		Output: logrus.StandardLogger().Writer(),
		Formatter: func(param gin.LogFormatterParams) string {
			reqID, _ := param.Keys[handlers.RequestIDKey].(string)
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\" request_id=%s\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC1123),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
				reqID,
			)
		},
	})
}
