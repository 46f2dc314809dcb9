package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/forum-thread-engine/internal/config"
	"github.com/forum-thread-engine/internal/service"
	"github.com/forum-thread-engine/internal/session"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const (
	headerRequestID = "X-Request-Id"
	sessionKey      = "session"
	healthTimeout   = 2 * time.Second
)

// NewRouter creates and configures the Gin router. Request metrics are
// registered on reg, which is also served on /metrics.
func NewRouter(services *service.Services, cfg *config.Config, reg *prometheus.Registry, log zerolog.Logger) *gin.Engine {
	// Set Gin mode
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	requests := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "forum",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Duration of BFF requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
	reg.MustRegister(requests)

	// Middleware
	router.Use(recoveryMiddleware(log))
	router.Use(requestIDMiddleware())
	router.Use(loggingMiddleware(log, requests))
	router.Use(corsMiddleware())

	threadHandler := NewThreadHandler(services, cfg, log)

	// Health check
	router.GET("/health", healthCheck(services))
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// API v1
	v1 := router.Group("/v1")
	v1.Use(sessionMiddleware())
	{
		posts := v1.Group("/posts/:post_id")
		{
			posts.GET("/thread", threadHandler.GetThread)
			posts.POST("/reactions", threadHandler.ReactToPost)
			posts.POST("/comments", threadHandler.CreateComment)
			posts.POST("/comments/:comment_id/reactions", threadHandler.ReactToComment)
		}
	}

	return router
}

// healthCheck returns the health status, 503 when the local store is down
func healthCheck(services *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		body := gin.H{
			"status":    "healthy",
			"timestamp": time.Now().Format(time.RFC3339),
			"service":   "forum-thread-engine",
			"views":     services.Thread.LiveViews(),
		}

		if services.Health != nil {
			ctx, cancel := contextWithTimeout(c, healthTimeout)
			defer cancel()
			if err := services.Health.HealthCheck(ctx); err != nil {
				body["status"] = "unhealthy"
				body["database"] = err.Error()
				c.JSON(http.StatusServiceUnavailable, body)
				return
			}
			body["database"] = "ok"
		}

		c.JSON(http.StatusOK, body)
	}
}

// recoveryMiddleware handles panics
func recoveryMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().
					Interface("error", err).
					Str("request_id", c.GetString(headerRequestID)).
					Msg("Panic recovered")
				c.JSON(http.StatusInternalServerError, gin.H{
					"error": "Internal server error",
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}

// requestIDMiddleware keeps the caller's request id or assigns one
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(headerRequestID)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(headerRequestID, id)
		c.Writer.Header().Set(headerRequestID, id)
		c.Next()
	}
}

// loggingMiddleware logs requests and records their duration
func loggingMiddleware(log zerolog.Logger, requests *prometheus.HistogramVec) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		requests.WithLabelValues(c.Request.Method, route, strconv.Itoa(statusCode)).Observe(duration.Seconds())

		event := log.Info()
		if statusCode >= 400 {
			event = log.Warn()
		}
		if statusCode >= 500 {
			event = log.Error()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", statusCode).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Str("request_id", c.GetString(headerRequestID)).
			Msg("Request completed")
	}
}

// corsMiddleware handles CORS
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers",
			"Content-Type, Authorization, "+session.HeaderRefreshToken+", "+session.HeaderUserID+", "+headerRequestID)
		c.Writer.Header().Set("Access-Control-Expose-Headers",
			session.HeaderAccessTokenUp+", "+session.HeaderRefreshToken+", "+headerRequestID)

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// sessionMiddleware builds the viewer session from the request headers
func sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(sessionKey, session.FromRequest(c.Request))
		c.Next()
	}
}

func sessionFrom(c *gin.Context) *session.Session {
	if v, ok := c.Get(sessionKey); ok {
		if sess, ok := v.(*session.Session); ok {
			return sess
		}
	}
	return nil
}

// contextWithTimeout creates a context with timeout for handlers
func contextWithTimeout(c *gin.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(c.Request.Context())
	}
	return context.WithTimeout(c.Request.Context(), timeout)
}
