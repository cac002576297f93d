package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ImportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roster_imports_total",
			Help: "Spreadsheet imports by outcome",
		},
		[]string{"outcome"},
	)

	EmployeesImportedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "roster_employees_imported_total",
			Help: "Employees added through spreadsheet imports",
		},
	)

	EntriesAwardedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "raffle_entries_awarded_total",
			Help: "Raffle entries awarded, by activity category",
		},
		[]string{"category"},
	)

	RafflesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "raffles_recorded_total",
			Help: "Recorded raffle rounds by selection mode",
		},
		[]string{"mode"},
	)

	EligiblePoolSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "raffle_eligible_pool_size",
			Help: "Employees with entries at the last raffle preview",
		},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method", "status"},
	)
)
