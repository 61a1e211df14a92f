package media

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

func NewMetrics(registerer prometheus.Registerer) (*Metrics, error) {
	metrics := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hermes",
			Subsystem: "media",
			Name:      "operations_total",
			Help:      "Media storage operations by outcome.",
		}, []string{"operation", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hermes",
			Subsystem: "media",
			Name:      "operation_duration_seconds",
			Help:      "Time spent waiting on the object store per operation.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}

	for _, collector := range []prometheus.Collector{metrics.operations, metrics.duration} {
		if err := registerer.Register(collector); err != nil {
			return nil, err
		}
	}

	return metrics, nil
}

func (metrics *Metrics) observe(operation string, started time.Time, err error) {
	if metrics == nil {
		return
	}

	metrics.operations.WithLabelValues(operation, outcome(err)).Inc()
	metrics.duration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrLocalRead):
		return "local_read"
	case errors.Is(err, ErrInvalidMediaType), errors.Is(err, ErrInvalidKey):
		return "invalid_request"
	}

	return "storage_unavailable"
}
