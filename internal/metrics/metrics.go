// Package metrics provides Prometheus metrics for newsdesk.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PublishTotal counts publish attempts by outcome.
	PublishTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "newsdesk",
			Name:      "publish_total",
			Help:      "Total number of article publish attempts",
		},
		[]string{"outcome"},
	)

	// ClassifierFallbackTotal counts classification calls answered by the fallback policy.
	ClassifierFallbackTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "newsdesk",
			Name:      "classifier_fallback_total",
			Help:      "Classification calls that fell back to the default answer",
		},
		[]string{"call", "reason"},
	)

	// ClassifierDuration measures classification round trips.
	ClassifierDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "newsdesk",
			Name:      "classifier_duration_seconds",
			Help:      "Duration of classification calls in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"call"},
	)

	// NotificationsTotal counts live events per delivery result.
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "newsdesk",
			Name:      "notifications_total",
			Help:      "Live events enqueued or dropped per session handle",
		},
		[]string{"status"},
	)

	// ConnectedSessions tracks open live sessions on this instance.
	ConnectedSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "newsdesk",
			Name:      "connected_sessions",
			Help:      "Number of open live notification sessions",
		},
	)

	// SinkDeliveries counts outbound mirror deliveries.
	SinkDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "newsdesk",
			Name:      "sink_deliveries_total",
			Help:      "Outbound sink deliveries by sink and status",
		},
		[]string{"sink", "status"},
	)
)
