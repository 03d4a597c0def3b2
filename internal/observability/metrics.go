package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RideTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "rolo", Name: "ride_transitions_total", Help: "Ride status transitions by target status"},
		[]string{"status"},
	)
	PaymentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "rolo", Name: "payments_total", Help: "Payment operations by outcome"},
		[]string{"outcome"},
	)
	ReconciliationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "rolo", Name: "vehicle_reconciliations_total", Help: "Vehicle reconciliation results"},
		[]string{"result"},
	)
	DriverSearchSeconds = promauto.NewHistogram(prometheus.HistogramOpts{Namespace: "rolo", Name: "driver_search_seconds", Help: "Driver search latency seconds"})
	ActiveJobs          = promauto.NewGauge(prometheus.GaugeOpts{Namespace: "rolo", Name: "active_ride_jobs", Help: "Background search and trip jobs in flight"})
	WSConnections       = promauto.NewGauge(prometheus.GaugeOpts{Namespace: "rolo", Name: "ws_connections", Help: "Open rider websocket connections"})

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "rolo", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "rolo",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
