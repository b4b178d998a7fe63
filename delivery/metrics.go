package delivery

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	attemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "push",
		Subsystem: "delivery",
		Name:      "attempts_total",
		Help:      "Push delivery attempts by outcome (delivered, stale, failed).",
	}, []string{"outcome"})

	fanoutSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "push",
		Subsystem: "delivery",
		Name:      "fanout_size",
		Help:      "Number of subscriptions resolved per send request.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
	})
)
