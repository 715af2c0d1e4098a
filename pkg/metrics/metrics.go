package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector the server exports.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	aiGenerations *prometheus.CounterVec
	aiIterations  prometheus.Histogram

	toolExecutions *prometheus.CounterVec

	swapMonitorOutcomes *prometheus.CounterVec
}

// New creates and registers all collectors on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "limitless_http_requests_total",
			Help: "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "limitless_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		aiGenerations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "limitless_ai_generations_total",
			Help: "AI generations by outcome (answered, synthesized, rephrase, failed).",
		}, []string{"outcome"}),
		aiIterations: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "limitless_ai_iterations_per_generation",
			Help:    "Model invocations used per generation.",
			Buckets: []float64{1, 2, 3, 4, 5, 6},
		}),
		toolExecutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "limitless_tool_executions_total",
			Help: "Tool dispatches by tool name and outcome.",
		}, []string{"tool", "outcome"}),
		swapMonitorOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "limitless_swap_monitor_outcomes_total",
			Help: "Swap monitor terminations by outcome.",
		}, []string{"outcome"}),
	}

	registry.MustRegister(
		m.httpRequests,
		m.httpDuration,
		m.aiGenerations,
		m.aiIterations,
		m.toolExecutions,
		m.swapMonitorOutcomes,
	)
	return m
}

// Handler serves the scrape endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency per chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(route, r.Method, strconv.Itoa(ww.status)).Inc()
		m.httpDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

// ObserveGeneration records one finished AI generation.
func (m *Metrics) ObserveGeneration(iterations int, outcome string) {
	m.aiGenerations.WithLabelValues(outcome).Inc()
	m.aiIterations.Observe(float64(iterations))
}

// ObserveToolExecution records one tool dispatch.
func (m *Metrics) ObserveToolExecution(tool string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.toolExecutions.WithLabelValues(tool, outcome).Inc()
}

// ObserveSwapMonitor records a swap monitor termination.
func (m *Metrics) ObserveSwapMonitor(outcome string) {
	m.swapMonitorOutcomes.WithLabelValues(outcome).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
