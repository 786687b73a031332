package client

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	bookmarksEnqueuedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "delicious_client",
			Name:      "bookmark_writes_enqueued_total",
			Help:      "Bookmark writes accepted into the shard executor.",
		},
		[]string{"op", "shard"},
	)

	asyncFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "delicious_client",
			Name:      "bookmark_writes_failed_total",
			Help:      "Async bookmark writes that finished with an error.",
		},
		[]string{"kind"},
	)
)
