// Package metrics exposes prometheus collectors for the processing
// pipeline. Recording is fire-and-forget; nothing here can fail a job.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/croftbox/vidpipe/internal/domain"
)

type Registry struct {
	stageDuration *prometheus.HistogramVec
	uploadSize    prometheus.Histogram
	activeJobs    prometheus.Gauge
	errors        *prometheus.CounterVec
	storageOps    *prometheus.CounterVec
}

func NewRegistry(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)
	return &Registry{
		stageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vidpipe_stage_duration_seconds",
			Help:    "Time spent in each processing stage.",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 300},
		}, []string{"stage", "quality"}),
		uploadSize: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "vidpipe_upload_size_bytes",
			Help:    "Size of uploaded videos.",
			Buckets: prometheus.ExponentialBuckets(1e6, 5, 7),
		}),
		activeJobs: factory.NewGauge(prometheus.GaugeOpts{
			Name: "vidpipe_active_processing_jobs",
			Help: "Number of videos currently being processed.",
		}),
		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vidpipe_processing_errors_total",
			Help: "Processing failures by error kind.",
		}, []string{"kind"}),
		storageOps: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vidpipe_storage_operations_total",
			Help: "Object storage operations by type and outcome.",
		}, []string{"operation", "status"}),
	}
}

func (r *Registry) ObserveStageDuration(stage domain.Stage, quality string, d time.Duration) {
	r.stageDuration.WithLabelValues(string(stage), quality).Observe(d.Seconds())
}

func (r *Registry) ObserveUploadSize(bytes int) {
	r.uploadSize.Observe(float64(bytes))
}

func (r *Registry) AddActiveJobs(delta int) {
	r.activeJobs.Add(float64(delta))
}

func (r *Registry) IncError(kind domain.ErrorKind) {
	r.errors.WithLabelValues(string(kind)).Inc()
}

func (r *Registry) IncStorageOp(operation, status string) {
	r.storageOps.WithLabelValues(operation, status).Inc()
}
