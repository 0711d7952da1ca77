package blobsource

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const promNamespace = "blobsource"

const (
	opOpen = "open"
	opStat = "stat"
)

var (
	requests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: promNamespace,
			Name:      "requests_total",
			Help:      "Number of blob requests, partitioned by operation and result",
		},
		[]string{"op", "result"})

	retries = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: promNamespace,
			Name:      "retries_total",
			Help:      "Number of blob open retries issued by Retrier",
		})
)

type opCounters struct {
	ok, retryable, fatal prometheus.Counter
}

func newOpCounters(op string) opCounters {
	return opCounters{
		ok:        requests.WithLabelValues(op, "ok"),
		retryable: requests.WithLabelValues(op, "retryable"),
		fatal:     requests.WithLabelValues(op, "fatal"),
	}
}

var (
	openCounters = newOpCounters(opOpen)
	statCounters = newOpCounters(opStat)
)
