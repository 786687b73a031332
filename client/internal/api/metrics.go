package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "delicious",
			Subsystem: "client",
			Name:      "requests_total",
			Help:      "API requests by endpoint path and outcome kind.",
		},
		[]string{"path", "outcome"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "delicious",
			Subsystem: "client",
			Name:      "request_duration_seconds",
			Help:      "Round-trip latency of API requests.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"path"},
	)

	throttleWait = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "delicious",
			Subsystem: "client",
			Name:      "throttle_wait_seconds",
			Help:      "Time spent waiting on the request throttle.",
			Buckets:   []float64{0, .01, .05, .1, .25, .5, 1, 2, 5},
		},
	)
)
