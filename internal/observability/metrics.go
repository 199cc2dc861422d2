package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce           sync.Once
	apiRequestsTotal       *prometheus.CounterVec
	apiLatencySeconds      *prometheus.HistogramVec
	apiErrorsTotal         *prometheus.CounterVec
	transitionsTotal       *prometheus.CounterVec
	reviewsCompletedTotal  *prometheus.CounterVec
	notificationsTotal     *prometheus.CounterVec
	notificationFailsTotal *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "api_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		transitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "workflow_transitions_total",
			Help: "Total number of submission status transitions recorded.",
		}, []string{"from", "to"})

		reviewsCompletedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reviews_completed_total",
			Help: "Total number of reviews marked completed.",
		}, []string{"decision"})

		notificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "workflow_notifications_published_total",
			Help: "Total number of workflow notification events dispatched.",
		}, []string{"type"})

		notificationFailsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "workflow_notification_failures_total",
			Help: "Total number of notification delivery failures, by channel.",
		}, []string{"type", "channel"})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			transitionsTotal,
			reviewsCompletedTotal,
			notificationsTotal,
			notificationFailsTotal,
		)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// WorkflowTransitions exposes the submission transition counter.
func WorkflowTransitions() *prometheus.CounterVec {
	RegisterMetrics()
	return transitionsTotal
}

// ReviewsCompleted exposes the completed review counter.
func ReviewsCompleted() *prometheus.CounterVec {
	RegisterMetrics()
	return reviewsCompletedTotal
}

// NotificationsPublished exposes the dispatched notification counter.
func NotificationsPublished() *prometheus.CounterVec {
	RegisterMetrics()
	return notificationsTotal
}

// NotificationFailures exposes the notification failure counter.
func NotificationFailures() *prometheus.CounterVec {
	RegisterMetrics()
	return notificationFailsTotal
}
