package service

import (
	"time"

	"github.com/croftbox/vidpipe/internal/domain"
)

// MetricsSink records pipeline observations. Implementations must be
// non-blocking; a broken sink may never alter the state machine's outcome.
type MetricsSink interface {
	ObserveStageDuration(stage domain.Stage, quality string, d time.Duration)
	ObserveUploadSize(bytes int)
	AddActiveJobs(delta int)
	IncError(kind domain.ErrorKind)
	IncStorageOp(operation, status string)
}

// NopMetrics discards all observations.
type NopMetrics struct{}

func (NopMetrics) ObserveStageDuration(domain.Stage, string, time.Duration) {}
func (NopMetrics) ObserveUploadSize(int)                                    {}
func (NopMetrics) AddActiveJobs(int)                                        {}
func (NopMetrics) IncError(domain.ErrorKind)                                {}
func (NopMetrics) IncStorageOp(string, string)                              {}
