package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Quote metrics
	QuoteRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lp_agent_quote_requests_total",
			Help: "Total number of aggregator quote requests",
		},
		[]string{"status"},
	)

	QuoteDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "lp_agent_quote_duration_seconds",
		Help:    "Aggregator quote round-trip duration in seconds",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	})

	DecimalsFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lp_agent_decimals_fallbacks_total",
			Help: "Decimals resolutions that did not come from chain",
		},
		[]string{"source"},
	)

	DecimalsCacheSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "lp_agent_decimals_cache_size",
		Help: "Current number of entries in decimals cache",
	})

	// Split metrics
	SplitPlans = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lp_agent_split_plans_total",
			Help: "Total number of equal-value split plans",
		},
		[]string{"pair_type", "status"},
	)

	// Execution metrics
	SimulationRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lp_agent_simulation_requests_total",
		Help: "Total number of transaction simulations",
	})

	SimulationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lp_agent_simulation_failures_total",
			Help: "Total number of failed transaction simulations",
		},
		[]string{"reason"},
	)

	ComputeUnits = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "lp_agent_compute_units",
		Help:    "Compute units consumed by simulated transactions",
		Buckets: []float64{10000, 50000, 100000, 200000, 400000, 800000, 1400000},
	})

	Executions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lp_agent_executions_total",
			Help: "Executed transaction intents by kind and final status",
		},
		[]string{"kind", "status"},
	)

	ConfirmationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "lp_agent_confirmation_duration_seconds",
		Help:    "Time from broadcast to confirmation",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
	})

	// Position metrics
	Deployments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lp_agent_deployments_total",
			Help: "Position deployments by operation and status",
		},
		[]string{"operation", "status"},
	)

	// HTTP metrics
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lp_agent_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lp_agent_http_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)
