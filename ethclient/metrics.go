package ethclient

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestDurations = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "claimer",
		Subsystem: "rpc",
		Name:      "request_duration_seconds",
		Buckets:   []float64{0.05, 0.1, 0.2, 0.5, 1, 2, 5, 10},
	}, []string{"chain_id", "url", "method"})
	RequestErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "claimer",
		Subsystem: "rpc",
		Name:      "request_errors_total",
	}, []string{"chain_id", "url", "method"})
)

func ObserveDuration(chainID, url, method string) func() time.Duration {
	return prometheus.NewTimer(RequestDurations.WithLabelValues(chainID, url, method)).ObserveDuration
}

func ObserveError(chainID, url, method string, err error) {
	if err != nil {
		RequestErrors.WithLabelValues(chainID, url, method).Inc()
	}
}
