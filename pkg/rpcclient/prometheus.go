package rpcclient

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics used in monitoring service.
var (
	rpcCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Help:      "Number of RPC requests performed, by method",
			Name:      "rpc_requests_total",
			Namespace: "fmus",
		},
		[]string{"method"},
	)

	rpcErrCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Help:      "Number of failed RPC requests, by method",
			Name:      "rpc_request_errors_total",
			Namespace: "fmus",
		},
		[]string{"method"},
	)

	rpcTimes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Help:      "RPC request handling time, by method",
			Name:      "rpc_request_duration_seconds",
			Namespace: "fmus",
		},
		[]string{"method"},
	)
)

func observeRequest(method string, d time.Duration, failed bool) {
	rpcCounter.WithLabelValues(method).Inc()
	if failed {
		rpcErrCounter.WithLabelValues(method).Inc()
	}
	rpcTimes.WithLabelValues(method).Observe(d.Seconds())
}

func init() {
	prometheus.MustRegister(
		rpcCounter,
		rpcErrCounter,
		rpcTimes,
	)
}
