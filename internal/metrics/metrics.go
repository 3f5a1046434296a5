// Package metrics exposes carbonledger's Prometheus collectors.
//
// Each Recorder owns its registry so several can coexist in one process.
// All methods are safe on a nil *Recorder, which records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "carbonledger"

// Activity processing statuses.
const (
	StatusOK      = "ok"
	StatusError   = "error"
	StatusTimeout = "timeout"
)

// Recorder holds the collectors.
type Recorder struct {
	registry *prometheus.Registry

	FactorLookups      *prometheus.CounterVec
	ActivitiesTotal    *prometheus.CounterVec
	ActivityDuration   *prometheus.HistogramVec
	BatchDuration      prometheus.Histogram
	BatchSize          prometheus.Histogram
	EmissionsKgTotal   *prometheus.CounterVec
	DBQueryDuration    *prometheus.HistogramVec
	DBErrorsTotal      *prometheus.CounterVec
	CacheRequestsTotal *prometheus.CounterVec
	IssuanceTotal      *prometheus.CounterVec
}

// Option configures a Recorder.
type Option func(*config)

type config struct {
	namespace string
	runtime   bool
}

// WithNamespace overrides DefaultNamespace.
func WithNamespace(ns string) Option {
	return func(c *config) { c.namespace = ns }
}

// WithRuntimeCollectors adds the Go runtime and process collectors.
func WithRuntimeCollectors() Option {
	return func(c *config) { c.runtime = true }
}

// NewRecorder creates a Recorder with a fresh registry.
func NewRecorder(opts ...Option) *Recorder {
	cfg := config{namespace: DefaultNamespace}
	for _, opt := range opts {
		opt(&cfg)
	}

	reg := prometheus.NewRegistry()
	if cfg.runtime {
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	factory := promauto.With(reg)
	ns := cfg.namespace

	return &Recorder{
		registry: reg,

		FactorLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "factor_lookups_total",
				Help:      "Emissions factor resolutions by contract and outcome",
			},
			[]string{"contract", "outcome"},
		),

		ActivitiesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "activities_processed_total",
				Help:      "Processed activities by type and status",
			},
			[]string{"type", "status"},
		),

		ActivityDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: ns,
				Name:      "activity_duration_seconds",
				Help:      "Time to price one activity",
				Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"type"},
		),

		BatchDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: ns,
				Name:      "batch_duration_seconds",
				Help:      "Time to process an activity batch",
				Buckets:   prometheus.DefBuckets,
			},
		),

		BatchSize: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: ns,
				Name:      "batch_size",
				Help:      "Number of activities per batch",
				Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
			},
		),

		EmissionsKgTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "emissions_kg_total",
				Help:      "Computed emissions in kgCO2e by activity type",
			},
			[]string{"type"},
		),

		DBQueryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: ns,
				Name:      "db_query_duration_seconds",
				Help:      "Factor store query duration by query type",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"query_type"},
		),

		DBErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "db_errors_total",
				Help:      "Factor store errors by query type",
			},
			[]string{"query_type"},
		),

		CacheRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "cache_requests_total",
				Help:      "Factor cache requests by result",
			},
			[]string{"result"},
		),

		IssuanceTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "token_issuance_total",
				Help:      "Token issuance requests by issuer and status",
			},
			[]string{"issuer", "status"},
		),
	}
}

// Registry returns the Recorder's registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// ObserveFactorLookup counts one factor resolution.
func (r *Recorder) ObserveFactorLookup(contract, outcome string) {
	if r == nil {
		return
	}
	r.FactorLookups.WithLabelValues(contract, outcome).Inc()
}

// ObserveActivity records one priced (or failed) activity.
func (r *Recorder) ObserveActivity(activityType, status string, d time.Duration, kg float64) {
	if r == nil {
		return
	}
	r.ActivitiesTotal.WithLabelValues(activityType, status).Inc()
	r.ActivityDuration.WithLabelValues(activityType).Observe(d.Seconds())
	if status == StatusOK && kg > 0 {
		r.EmissionsKgTotal.WithLabelValues(activityType).Add(kg)
	}
}

// ObserveBatch records one batch.
func (r *Recorder) ObserveBatch(size int, d time.Duration) {
	if r == nil {
		return
	}
	r.BatchSize.Observe(float64(size))
	r.BatchDuration.Observe(d.Seconds())
}

// ObserveDBQuery records one store query.
func (r *Recorder) ObserveDBQuery(queryType string, d time.Duration, err error) {
	if r == nil {
		return
	}
	r.DBQueryDuration.WithLabelValues(queryType).Observe(d.Seconds())
	if err != nil {
		r.DBErrorsTotal.WithLabelValues(queryType).Inc()
	}
}

// ObserveCache counts a cache hit or miss.
func (r *Recorder) ObserveCache(hit bool) {
	if r == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	r.CacheRequestsTotal.WithLabelValues(result).Inc()
}

// ObserveIssuance counts one issuance request.
func (r *Recorder) ObserveIssuance(issuer string, err error) {
	if r == nil {
		return
	}
	status := StatusOK
	if err != nil {
		status = StatusError
	}
	r.IssuanceTotal.WithLabelValues(issuer, status).Inc()
}
