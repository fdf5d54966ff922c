package metrics

import (
	"net/http"
	"time"

	"github.com/bitechdev/BreadSpec/pkg/config"
	"github.com/bitechdev/BreadSpec/pkg/logger"
)

// Provider defines the interface for metric collection
type Provider interface {
	// RecordHTTPRequest records metrics for an HTTP request; route is the route template
	RecordHTTPRequest(method, route, status string, duration time.Duration)

	IncRequestsInFlight()
	DecRequestsInFlight()

	// RecordBreadOperation counts one browse/read/edit/add/delete call.
	// status is "success", "invalid", "forbidden", "not_found" or "error".
	RecordBreadOperation(slug, action, status string)

	// RecordDBQuery records metrics for a database query
	RecordDBQuery(operation, table string, duration time.Duration, err error)

	// Handler returns an HTTP handler for exposing metrics (e.g., /metrics endpoint)
	Handler() http.Handler

	// Middleware wraps next with request metrics
	Middleware(next http.Handler) http.Handler
}

var globalProvider Provider

// SetProvider sets the global metrics provider
func SetProvider(p Provider) {
	globalProvider = p
}

// GetProvider returns the current metrics provider, a no-op one when unset
func GetProvider() Provider {
	if globalProvider == nil {
		return &NoOpProvider{}
	}
	return globalProvider
}

// NewFromConfig returns a Prometheus provider when metrics are enabled
func NewFromConfig(cfg config.MetricsConfig) Provider {
	if !cfg.Enabled {
		logger.Info("Metrics disabled")
		return &NoOpProvider{}
	}
	logger.Info("Metrics enabled at %s", cfg.Path)
	return NewPrometheusProvider()
}

// NoOpProvider is a no-op implementation of Provider
type NoOpProvider struct{}

func (n *NoOpProvider) RecordHTTPRequest(method, route, status string, duration time.Duration) {}
func (n *NoOpProvider) IncRequestsInFlight()                                                   {}
func (n *NoOpProvider) DecRequestsInFlight()                                                   {}
func (n *NoOpProvider) RecordBreadOperation(slug, action, status string)                       {}
func (n *NoOpProvider) RecordDBQuery(operation, table string, duration time.Duration, err error) {
}
func (n *NoOpProvider) Middleware(next http.Handler) http.Handler {
	return next
}
func (n *NoOpProvider) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, err := w.Write([]byte("Metrics provider not configured"))
		if err != nil {
			logger.Warn("Failed to write. %v", err)
		}
	})
}
