package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var dbBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}

// PrometheusProvider collects into its own registry, so several providers
// (one per test, say) never clash on registration.
type PrometheusProvider struct {
	registry *prometheus.Registry

	requestDuration  *prometheus.HistogramVec
	requestTotal     *prometheus.CounterVec
	requestsInFlight prometheus.Gauge
	breadOperations  *prometheus.CounterVec
	dbQueryDuration  *prometheus.HistogramVec
	dbQueryTotal     *prometheus.CounterVec
}

func NewPrometheusProvider() *PrometheusProvider {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)
	httpLabels := []string{"method", "route", "status"}

	return &PrometheusProvider{
		registry: reg,
		requestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name: "http_request_duration_seconds", Help: "HTTP request latency by route template",
			Buckets: prometheus.DefBuckets,
		}, httpLabels),
		requestTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total", Help: "HTTP requests by route template and status",
		}, httpLabels),
		requestsInFlight: f.NewGauge(prometheus.GaugeOpts{
			Name: "http_requests_in_flight", Help: "HTTP requests currently being served",
		}),
		breadOperations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "bread_operations_total", Help: "BREAD actions by bread slug and outcome",
		}, []string{"slug", "action", "status"}),
		dbQueryDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name: "db_query_duration_seconds", Help: "SQL statement latency",
			Buckets: dbBuckets,
		}, []string{"operation", "table"}),
		dbQueryTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "db_queries_total", Help: "SQL statements by outcome",
		}, []string{"operation", "table", "status"}),
	}
}

func (p *PrometheusProvider) RecordHTTPRequest(method, route, status string, duration time.Duration) {
	p.requestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
	p.requestTotal.WithLabelValues(method, route, status).Inc()
}

func (p *PrometheusProvider) IncRequestsInFlight() { p.requestsInFlight.Inc() }
func (p *PrometheusProvider) DecRequestsInFlight() { p.requestsInFlight.Dec() }

func (p *PrometheusProvider) RecordBreadOperation(slug, action, status string) {
	p.breadOperations.WithLabelValues(slug, action, status).Inc()
}

func (p *PrometheusProvider) RecordDBQuery(operation, table string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	p.dbQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	p.dbQueryTotal.WithLabelValues(operation, table, status).Inc()
}

func (p *PrometheusProvider) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}

// Middleware records request metrics. Installed with mux.Router.Use, requests
// are labelled by route template; outside a mux route the raw path is used.
func (p *PrometheusProvider) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		p.IncRequestsInFlight()
		defer p.DecRequestsInFlight()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		p.RecordHTTPRequest(r.Method, routeTemplate(r), strconv.Itoa(rec.status), time.Since(start))
	})
}

func routeTemplate(r *http.Request) string {
	if current := mux.CurrentRoute(r); current != nil {
		if tpl, err := current.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return r.URL.Path
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Flush keeps streaming responses working through the recorder
func (s *statusRecorder) Flush() {
	if f, ok := s.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
