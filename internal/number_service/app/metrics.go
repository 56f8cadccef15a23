package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	providerRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "numberdesk_provider_requests_total",
			Help: "Total number of remote provider API operations attempted.",
		},
		[]string{"operation"},
	)

	providerRequestFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "numberdesk_provider_request_failures_total",
			Help: "Total number of remote provider API operations that failed.",
		},
		[]string{"operation"},
	)

	activeSessionsGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "numberdesk_active_sessions",
			Help: "Number of live user sessions.",
		},
	)
)
