package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mes_http_requests_total",
		Help: "HTTP requests by method, route and status code.",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mes_http_request_duration_seconds",
		Help:    "HTTP request latency by method and route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// PalletTransitions counts state machine transitions by kind
	// (assign, complete, move_to_buffer).
	PalletTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mes_pallet_transitions_total",
		Help: "Pallet state machine transitions by kind.",
	}, []string{"kind"})

	ClassificationCalls = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mes_quantity_classifications_total",
		Help: "Part quantity classification evaluations.",
	})

	RealtimeClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mes_realtime_clients",
		Help: "Currently connected realtime subscribers.",
	})
)
