package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Quote aggregation metrics
	QuoteRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swapengine_quote_requests_total",
			Help: "Total number of aggregate quote requests",
		},
		[]string{"status"},
	)

	QuoteDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "swapengine_quote_duration_seconds",
		Help:    "Aggregate quote fan-out duration in seconds",
		Buckets: prometheus.DefBuckets,
	})

	SourcesQuoted = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "swapengine_sources_quoted",
		Help:    "Number of sources that returned a viable quote per request",
		Buckets: []float64{0, 1, 2, 3, 5, 8},
	})

	// Split search metrics
	SplitSearchIterations = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "swapengine_split_search_iterations",
		Help:    "Number of ternary search iterations per split optimization",
		Buckets: []float64{1, 2, 3, 5, 7, 10, 12},
	})

	SplitSearchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "swapengine_split_search_duration_seconds",
		Help:    "Split ratio search duration in seconds",
		Buckets: prometheus.DefBuckets,
	})

	// Candidate ranking metrics
	CandidatePlans = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "swapengine_candidate_plans",
		Help:    "Number of candidate plans per recomputation",
		Buckets: []float64{0, 1, 2, 3, 5, 10, 20},
	})

	PriceImpact = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "swapengine_price_impact_bps",
			Help:    "Price impact of the best candidate plan in basis points",
			Buckets: []float64{0, 10, 50, 100, 300, 500, 1000, 5000, 10000},
		},
		[]string{"severity"},
	)

	// Execution metrics
	Executions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swapengine_executions_total",
			Help: "Total number of execution attempts",
		},
		[]string{"kind", "status"},
	)

	ExecutionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "swapengine_execution_duration_seconds",
			Help:    "Execution attempt duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	SagaPhaseFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swapengine_saga_phase_failures_total",
			Help: "Buyout saga failures by phase",
		},
		[]string{"phase"},
	)

	FundsAtRisk = promauto.NewCounter(prometheus.CounterOpts{
		Name: "swapengine_funds_at_risk_total",
		Help: "Confirm failures after a successful escrow transfer, requiring out-of-band reconciliation",
	})

	// Price cache metrics
	PriceCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "swapengine_price_cache_hits_total",
		Help: "USD price lookups served from the local cache",
	})

	PriceCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "swapengine_price_cache_misses_total",
		Help: "USD price lookups that went to the feed",
	})

	// HTTP metrics
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swapengine_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "swapengine_http_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)
