// Package api exposes the core services over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/drforse/match/internal/breaker"
	"github.com/drforse/match/internal/limiter"
	"github.com/drforse/match/internal/metrics"
	"github.com/drforse/match/internal/service"
)

// Config holds the API surface configuration.
type Config struct {
	// AuthToken is the shared secret checked against the token query
	// parameter on every route. Empty disables the check.
	AuthToken string
	// MaxUploadBytes bounds uploaded image payloads. 0 disables the cap.
	MaxUploadBytes int64
}

// Server wires the core services into HTTP handlers.
type Server struct {
	cfg           Config
	registry      *service.Registry
	searcher      *service.Searcher
	comparer      *service.Comparer
	enumerator    *service.Enumerator
	limiter       *limiter.RateLimiter
	searchBreaker *breaker.CircuitBreaker
	logger        *zap.Logger
}

// New creates a Server.
func New(cfg Config, registry *service.Registry, searcher *service.Searcher,
	comparer *service.Comparer, enumerator *service.Enumerator,
	lim *limiter.RateLimiter, logger *zap.Logger) *Server {
	return &Server{
		cfg:        cfg,
		registry:   registry,
		searcher:   searcher,
		comparer:   comparer,
		enumerator: enumerator,
		limiter:    lim,
		searchBreaker: breaker.New(breaker.Settings{
			Name:    "search",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts breaker.Counts) bool {
				return counts.ConsecutiveFailures >= 10
			},
		}),
		logger: logger,
	}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(s.observe(), s.recovered(), s.rateLimited())

	r.HandleMethodNotAllowed = true
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, service.Fail("", "not found"))
	})
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, service.Fail("", "method not allowed"))
	})

	r.POST("/add", s.authed(s.handleAdd))
	r.DELETE("/delete", s.authed(s.handleDelete))
	r.POST("/search", s.authed(s.handleSearch))
	r.POST("/compare", s.authed(s.handleCompare))
	r.GET("/list", s.authed(s.handleList))
	r.POST("/list", s.authed(s.handleList))
	r.GET("/count", s.authed(s.handleCount))
	r.POST("/count", s.authed(s.handleCount))
	r.GET("/ping", s.authed(s.handlePing))
	r.POST("/ping", s.authed(s.handlePing))

	return r
}

// authed wraps a handler with the shared-secret token check. The check runs
// before any core operation and denies with an empty JSON body.
func (s *Server) authed(h gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.cfg.AuthToken != "" && c.Query("token") != s.cfg.AuthToken {
			c.Data(http.StatusForbidden, "application/json", []byte("{}"))
			c.Abort()
			return
		}
		h(c)
	}
}

// observe records request metrics and emits a structured access log line.
func (s *Server) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		method := routeName(c.FullPath())
		status := c.Writer.Status()
		elapsed := time.Since(start)

		metrics.RequestsTotal.WithLabelValues(method, statusClass(status)).Inc()
		metrics.RequestDurationSeconds.WithLabelValues(method).Observe(elapsed.Seconds())
		s.logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("route", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("took", elapsed))
	}
}

// recovered turns handler panics into the uniform 500 envelope.
func (s *Server) recovered() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("handler panic", zap.Any("panic", r))
				c.AbortWithStatusJSON(http.StatusInternalServerError,
					service.Fail("", "internal server error"))
			}
		}()
		c.Next()
	}
}

// rateLimited rejects requests beyond the configured rate.
func (s *Server) rateLimited() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				service.Fail("", "too many requests"))
			return
		}
		c.Next()
	}
}

func routeName(fullPath string) string {
	if len(fullPath) > 1 {
		return fullPath[1:]
	}
	return "unknown"
}

func statusClass(status int) string {
	switch {
	case status < 400:
		return "ok"
	case status < 500:
		return "client_error"
	default:
		return "server_error"
	}
}
