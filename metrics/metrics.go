package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SearchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "umrahcheck_searches_total",
			Help: "Total number of itinerary searches by outcome",
		},
		[]string{"status"},
	)

	SearchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "umrahcheck_search_duration_seconds",
			Help:    "Duration of itinerary searches in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
		},
		[]string{"status"},
	)

	ProviderCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "umrahcheck_provider_calls_total",
			Help: "Candidate provider calls by provider, leg and outcome",
		},
		[]string{"provider", "leg", "outcome"},
	)

	ProviderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "umrahcheck_provider_duration_seconds",
			Help: "Duration of candidate provider calls in seconds",
		},
		[]string{"provider", "leg"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "umrahcheck_cache_lookups_total",
			Help: "Result cache lookups by backend and result",
		},
		[]string{"backend", "result"},
	)

	AuditWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "umrahcheck_audit_writes_total",
			Help: "Background audit record writes by outcome",
		},
		[]string{"outcome"},
	)

	AuditInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "umrahcheck_audit_in_flight",
			Help: "Audit writes currently running in the background",
		},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "umrahcheck_http_requests_total",
			Help: "HTTP requests by route, method and status code",
		},
		[]string{"route", "method", "code"},
	)
)
