package appwrite

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RequestLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "schemasync_remote_request_duration_seconds",
		Help:    "The latency of remote schema API calls",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	}, []string{"operation"})

	RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schemasync_remote_requests_total",
		Help: "The total number of remote schema API calls by outcome",
	}, []string{"operation", "outcome"})
)

func init() {
	prometheus.MustRegister(RequestLatency)
	prometheus.MustRegister(RequestsTotal)
}
