package config

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "carwash",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "carwash",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// WashesCompleted counts washes moved to completed, by record kind.
	WashesCompleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "carwash",
			Name:      "washes_completed_total",
			Help:      "Washes marked completed.",
		},
		[]string{"kind"},
	)

	SubscriptionsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "carwash",
			Name:      "subscriptions_created_total",
			Help:      "Monthly subscriptions created.",
		},
		[]string{"package"},
	)

	RemindersSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "carwash",
			Name:      "reminders_total",
			Help:      "Wash reminders attempted, by channel and outcome.",
		},
		[]string{"channel", "status"},
	)

	DashboardCacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "carwash",
			Name:      "dashboard_cache_requests_total",
			Help:      "Dashboard cache lookups, by result.",
		},
		[]string{"result"},
	)

	DashboardCacheInvalidations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "carwash",
			Name:      "dashboard_cache_invalidations_total",
			Help:      "Writes that invalidated the dashboard cache.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		WashesCompleted,
		SubscriptionsCreated,
		RemindersSent,
		DashboardCacheHits,
		DashboardCacheInvalidations,
	)
}
