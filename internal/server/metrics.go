package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the counters and histograms exported on /metrics.
type Metrics struct {
	Requests     *prometheus.CounterVec
	Duration     *prometheus.HistogramVec
	PayloadBytes *prometheus.HistogramVec
	Facets       prometheus.Histogram
}

// NewMetrics registers the server metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stlmark",
			Name:      "requests_total",
			Help:      "Watermark requests by operation and outcome.",
		}, []string{"op", "outcome"}),
		Duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "stlmark",
			Name:      "request_duration_seconds",
			Help:      "Time spent processing a request.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"op"}),
		PayloadBytes: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "stlmark",
			Name:      "payload_bytes",
			Help:      "Size of embedded or extracted payloads.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}, []string{"op"}),
		Facets: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "stlmark",
			Name:      "solid_facets",
			Help:      "Facet count of processed solids.",
			Buckets:   prometheus.ExponentialBuckets(16, 4, 8),
		}),
	}
}
