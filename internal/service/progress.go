package service

import (
	"sync"
	"time"

	"github.com/croftbox/vidpipe/internal/domain"
)

// ProgressView is the read-side snapshot served to polling clients.
type ProgressView struct {
	Found              bool                `json:"found"`
	VideoID            string              `json:"video_id,omitempty"`
	Status             domain.VideoStatus  `json:"status,omitempty"`
	Stage              domain.Stage        `json:"current_stage,omitempty"`
	Elapsed            time.Duration       `json:"elapsed,omitempty"`
	CompletedQualities []string            `json:"completed_qualities,omitempty"`
}

type progressRecord struct {
	videoID    string
	status     domain.VideoStatus
	stage      domain.Stage
	startedAt  time.Time
	finishedAt time.Time
	completed  []string
}

func (r *progressRecord) terminal() bool {
	return !r.finishedAt.IsZero()
}

// ProgressRegistry is the in-process fast path for processing progress.
// Records are ephemeral: lost on restart, at which point callers fall back
// to the durable video status. All mutation goes through the registry's
// lock; pipeline ownership guarantees a single writer per video id.
type ProgressRegistry struct {
	mu        sync.Mutex
	records   map[string]*progressRecord
	retention time.Duration
	now       func() time.Time
}

func NewProgressRegistry(retention time.Duration) *ProgressRegistry {
	return &ProgressRegistry{
		records:   make(map[string]*progressRecord),
		retention: retention,
		now:       time.Now,
	}
}

// Begin registers a new run for the video id. A second Begin while a run is
// active is rejected: no two orchestrations for the same video may overlap.
// A terminal record from an earlier run is replaced.
func (r *ProgressRegistry) Begin(videoID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rec, ok := r.records[videoID]; ok && !rec.terminal() {
		return domain.ErrAlreadyProcessing
	}
	r.records[videoID] = &progressRecord{
		videoID:   videoID,
		status:    domain.VideoStatusPending,
		startedAt: r.now(),
	}
	return nil
}

func (r *ProgressRegistry) SetStage(videoID string, stage domain.Stage, status domain.VideoStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.records[videoID]; ok {
		rec.stage = stage
		rec.status = status
	}
}

func (r *ProgressRegistry) MarkVariantDone(videoID, quality string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[videoID]
	if !ok {
		return
	}
	for _, q := range rec.completed {
		if q == quality {
			return
		}
	}
	rec.completed = append(rec.completed, quality)
}

// Finish marks the run terminal. The record stays readable until the
// retention window elapses.
func (r *ProgressRegistry) Finish(videoID string, status domain.VideoStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.records[videoID]; ok {
		rec.status = status
		rec.finishedAt = r.now()
	}
}

// Progress returns a copy of the record; reading has no side effects.
func (r *ProgressRegistry) Progress(videoID string) ProgressView {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[videoID]
	if !ok {
		return ProgressView{}
	}

	elapsed := r.now().Sub(rec.startedAt)
	if rec.terminal() {
		elapsed = rec.finishedAt.Sub(rec.startedAt)
	}

	completed := make([]string, len(rec.completed))
	copy(completed, rec.completed)

	return ProgressView{
		Found:              true,
		VideoID:            rec.videoID,
		Status:             rec.status,
		Stage:              rec.stage,
		Elapsed:            elapsed,
		CompletedQualities: completed,
	}
}

// Sweep evicts terminal records older than the retention window. Intended
// to run from a periodic ticker.
func (r *ProgressRegistry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	evicted := 0
	cutoff := r.now().Add(-r.retention)
	for id, rec := range r.records {
		if rec.terminal() && rec.finishedAt.Before(cutoff) {
			delete(r.records, id)
			evicted++
		}
	}
	return evicted
}
