// Package health aggregates component checks into a single readiness report
// served next to the Prometheus metrics endpoint.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Status is the health state of a component or of the whole service.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
)

var healthStatus = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "match_healthy",
	Help: "Whether the service is healthy (1) or not (0)",
})

// Checker probes a single component.
type Checker interface {
	Name() string
	Check(ctx context.Context) error
}

// ComponentReport is the per-component slice of a health report.
type ComponentReport struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
}

// Report is the full health report returned by the handler.
type Report struct {
	Status     Status                     `json:"status"`
	Timestamp  time.Time                  `json:"timestamp"`
	Uptime     string                     `json:"uptime"`
	Components map[string]ComponentReport `json:"components"`
}

// Manager runs the registered checkers on demand.
type Manager struct {
	mu       sync.RWMutex
	checkers []Checker
	started  time.Time
	logger   *zap.Logger
}

func NewManager(logger *zap.Logger) *Manager {
	return &Manager{started: time.Now(), logger: logger}
}

func (m *Manager) Register(c Checker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkers = append(m.checkers, c)
}

// Check runs every registered checker and aggregates the result. The overall
// status is unhealthy as soon as any single component is.
func (m *Manager) Check(ctx context.Context) Report {
	m.mu.RLock()
	checkers := make([]Checker, len(m.checkers))
	copy(checkers, m.checkers)
	m.mu.RUnlock()

	report := Report{
		Status:     StatusHealthy,
		Timestamp:  time.Now(),
		Uptime:     time.Since(m.started).Round(time.Second).String(),
		Components: make(map[string]ComponentReport, len(checkers)),
	}

	for _, c := range checkers {
		if err := c.Check(ctx); err != nil {
			report.Components[c.Name()] = ComponentReport{Status: StatusUnhealthy, Message: err.Error()}
			report.Status = StatusUnhealthy
			m.logger.Warn("health check failed", zap.String("component", c.Name()), zap.Error(err))
			continue
		}
		report.Components[c.Name()] = ComponentReport{Status: StatusHealthy}
	}

	if report.Status == StatusHealthy {
		healthStatus.Set(1)
	} else {
		healthStatus.Set(0)
	}
	return report
}

// Handler serves the report as JSON; unhealthy reports get a 503.
func (m *Manager) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := m.Check(r.Context())

		w.Header().Set("Content-Type", "application/json")
		if report.Status != StatusHealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(report)
	}
}
