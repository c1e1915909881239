// Package metrics exposes Prometheus collectors for firmware uploads.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Upload outcomes besides pipeline error kinds.
const (
	OutcomeCreated      = "created"
	OutcomeStorageError = "storage_error"
)

type Ingest struct {
	uploads   *prometheus.CounterVec
	imageSize prometheus.Histogram
	freeSpace prometheus.Gauge
}

func NewIngest(registry prometheus.Registerer) *Ingest {
	return &Ingest{
		uploads: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "firmware_uploads_total",
				Help: "Firmware uploads by outcome.",
			}, []string{"outcome"},
		),
		imageSize: promauto.With(registry).NewHistogram(
			prometheus.HistogramOpts{
				Name: "firmware_image_size_bytes",
				Help: "Size of decoded firmware images.",
				// 256 B up to 1 MiB.
				Buckets: prometheus.ExponentialBuckets(256, 2, 13),
			},
		),
		freeSpace: promauto.With(registry).NewGauge(
			prometheus.GaugeOpts{
				Name: "firmware_storage_free_bytes",
				Help: "Free space left in firmware storage.",
			},
		),
	}
}

// Upload counts one upload with the given outcome, an Outcome constant or a pipeline error kind.
func (m *Ingest) Upload(outcome string) {
	m.uploads.WithLabelValues(outcome).Inc()
}

func (m *Ingest) ImageSize(size int) {
	m.imageSize.Observe(float64(size))
}

func (m *Ingest) FreeSpace(bytes int) {
	m.freeSpace.Set(float64(bytes))
}
