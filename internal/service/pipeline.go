package service

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/errgroup"

	"github.com/croftbox/vidpipe/internal/domain"
	"github.com/croftbox/vidpipe/internal/infrastructure/logger"
	"github.com/croftbox/vidpipe/internal/port"
	"github.com/croftbox/vidpipe/internal/validation"
)

// PipelineConfig is the orchestrator's tuning surface.
type PipelineConfig struct {
	Profiles []domain.TranscodeProfile
	// WorkerLimit bounds concurrent transcode+upload units per video.
	WorkerLimit int
	ScanTimeout time.Duration
	// CallerWait bounds how long Start blocks before detaching. The
	// background run is not canceled, only the caller's wait.
	CallerWait time.Duration
	// MaxProcessingTime bounds detached background runs so an abandoned
	// orchestration cannot leak forever.
	MaxProcessingTime time.Duration
	Retry             RetryPolicy
}

func (c *PipelineConfig) withDefaults() {
	if len(c.Profiles) == 0 {
		c.Profiles = domain.DefaultProfiles()
	}
	if c.WorkerLimit <= 0 {
		c.WorkerLimit = 2
	}
	if c.ScanTimeout <= 0 {
		c.ScanTimeout = 2 * time.Minute
	}
	if c.CallerWait <= 0 {
		c.CallerWait = 30 * time.Second
	}
	if c.MaxProcessingTime <= 0 {
		c.MaxProcessingTime = time.Hour
	}
	if c.Retry.MaxAttempts == 0 {
		c.Retry = DefaultRetryPolicy()
	}
}

// Pipeline drives a video from uploaded bytes to durable variants. It owns
// the status state machine: validate and scan run as fail-fast gates, then
// one transcode+upload unit per profile fans out under a bounded worker
// limit, and the aggregate outcome is derived from the fan-in.
type Pipeline struct {
	repo       port.VideoRepository
	storage    port.ObjectStorage
	scanner    port.SecurityScanner
	transcoder port.Transcoder
	validator  *validation.Validator
	progress   *ProgressRegistry
	metrics    MetricsSink
	events     EventPublisher
	cfg        PipelineConfig
}

func NewPipeline(
	repo port.VideoRepository,
	storage port.ObjectStorage,
	scanner port.SecurityScanner,
	transcoder port.Transcoder,
	validator *validation.Validator,
	progress *ProgressRegistry,
	metrics MetricsSink,
	events EventPublisher,
	cfg PipelineConfig,
) *Pipeline {
	cfg.withDefaults()
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &Pipeline{
		repo:       repo,
		storage:    storage,
		scanner:    scanner,
		transcoder: transcoder,
		validator:  validator,
		progress:   progress,
		metrics:    metrics,
		events:     events,
		cfg:        cfg,
	}
}

// Qualities returns the configured quality tags in profile order.
func (p *Pipeline) Qualities() []string {
	return domain.ProfileQualities(p.cfg.Profiles)
}

// Progress reads the ephemeral progress record for a video.
func (p *Pipeline) Progress(videoID string) ProgressView {
	return p.progress.Progress(videoID)
}

// Start launches processing for the video and waits up to the configured
// caller timeout for a terminal state. It returns true when processing
// finished within the wait; false means the run continues in the
// background and the caller should poll. The only error is a rejected
// start (another run already owns this video id).
func (p *Pipeline) Start(ctx context.Context, video *domain.Video, data []byte) (bool, error) {
	if err := p.progress.Begin(video.ID); err != nil {
		return false, err
	}

	// The run mutates a private copy so a caller that detaches keeps a
	// stable snapshot instead of racing the background goroutine.
	work := video.Clone()
	done := make(chan struct{})
	go func() {
		defer close(done)
		// Detached from the caller's request lifetime on purpose: only
		// the wait below is bounded by it, never the run itself.
		runCtx, cancel := context.WithTimeout(context.Background(), p.cfg.MaxProcessingTime)
		defer cancel()
		p.run(runCtx, work, data)
	}()

	select {
	case <-done:
		*video = *work
		return true, nil
	case <-time.After(p.cfg.CallerWait):
		logger.Info.Printf("video %s: caller wait elapsed, processing continues in background", video.ID)
		return false, nil
	case <-ctx.Done():
		return false, nil
	}
}

func (p *Pipeline) run(ctx context.Context, video *domain.Video, data []byte) {
	started := time.Now()
	p.metrics.AddActiveJobs(1)
	defer p.metrics.AddActiveJobs(-1)
	p.metrics.ObserveUploadSize(len(data))

	defer func() {
		// Whatever happens, the video must land in a recorded state.
		if r := recover(); r != nil {
			p.fail(video, domain.NewStageError(domain.StageTranscode, domain.KindTranscode,
				fmt.Errorf("panic during processing: %v", r)))
		}
	}()

	if err := p.execute(ctx, video, data); err != nil {
		p.fail(video, err)
		return
	}

	p.progress.Finish(video.ID, domain.VideoStatusReady)
	p.publish(video.ID, domain.VideoStatusReady, domain.StageComplete, "")
	logger.Info.Printf("video %s: processing complete, %d variants in %s",
		video.ID, len(video.Variants), time.Since(started).Round(time.Millisecond))
}

func (p *Pipeline) execute(ctx context.Context, video *domain.Video, data []byte) error {
	if err := p.transition(ctx, video, domain.VideoStatusScanning, domain.StageValidation, "processing started"); err != nil {
		return err
	}

	if err := p.validate(ctx, video, data); err != nil {
		return err
	}

	if err := p.scan(ctx, video, data); err != nil {
		return err
	}

	if err := p.uploadOriginal(ctx, video, data); err != nil {
		return err
	}

	if err := p.transition(ctx, video, domain.VideoStatusProcessing, domain.StageTranscode,
		fmt.Sprintf("transcoding %d profiles", len(p.cfg.Profiles))); err != nil {
		return err
	}

	if err := p.fanOut(ctx, video, data); err != nil {
		return err
	}

	// converting is the brief fan-in stage between the last stored
	// variant and the ready flip; persisted once, together with ready.
	if err := video.Transition(domain.VideoStatusConverting); err != nil {
		return err
	}
	if !video.CanBecomeReady(p.Qualities()) {
		return domain.NewStageError(domain.StageComplete, domain.KindStorage,
			errors.New("variant set incomplete after fan-in"))
	}
	if err := video.Transition(domain.VideoStatusReady); err != nil {
		return err
	}
	video.RecordStage(domain.StageComplete, "all variants stored")
	if err := p.repo.UpdateStatus(ctx, video); err != nil {
		return domain.NewStageError(domain.StageComplete, domain.KindStorage, err)
	}
	return nil
}

// validate runs the cheap format gate. Rejections are deterministic input
// judgments: never retried, terminal immediately.
func (p *Pipeline) validate(ctx context.Context, video *domain.Video, data []byte) error {
	t0 := time.Now()
	res, err := p.validator.Validate(ctx, data)
	p.metrics.ObserveStageDuration(domain.StageValidation, "", time.Since(t0))
	if err != nil {
		return domain.NewStageError(domain.StageValidation, domain.KindInput, err)
	}
	video.RecordStage(domain.StageValidation, "format "+res.MIME)

	meta := domain.VideoMetadata{
		Format:    res.MIME,
		SizeBytes: int64(len(data)),
		Checksum:  checksum(data),
	}
	if res.Probe != nil {
		meta.Duration = res.Probe.DurationSeconds()
		meta.Width, meta.Height = res.Probe.Dimensions()
		meta.Fps = res.Probe.Fps()
		if vs := res.Probe.VideoStream(); vs != nil {
			meta.Codec = vs.CodecName
		}
	}
	// Original metadata is fixed from here on; only the scan flags may
	// still change.
	video.Metadata = meta
	return nil
}

// scan runs the security gate under its own timeout. Inconclusive scans
// fail closed.
func (p *Pipeline) scan(ctx context.Context, video *domain.Video, data []byte) error {
	scanCtx, cancel := context.WithTimeout(ctx, p.cfg.ScanTimeout)
	defer cancel()

	t0 := time.Now()
	result, err := p.scanner.Scan(scanCtx, data)
	p.metrics.ObserveStageDuration(domain.StageScan, "", time.Since(t0))

	if err != nil {
		return domain.NewStageError(domain.StageScan, domain.KindSecurity,
			fmt.Errorf("%w: scan inconclusive: %v", domain.ErrUnsafeContent, err))
	}
	if !result.Safe {
		return domain.NewStageError(domain.StageScan, domain.KindSecurity,
			fmt.Errorf("%w: %s", domain.ErrUnsafeContent, result.Signature))
	}

	video.Metadata.VirusScanned = true
	video.Metadata.ContentSafe = true
	video.RecordStage(domain.StageScan, "content verified safe")
	return nil
}

// uploadOriginal persists the source bytes once both gates have passed, so
// unsafe content never reaches durable storage.
func (p *Pipeline) uploadOriginal(ctx context.Context, video *domain.Video, data []byte) error {
	err := p.cfg.Retry.Do(ctx, func(ctx context.Context) error {
		if _, err := p.storage.UploadOriginal(ctx, data, video.ID); err != nil {
			return domain.NewStageError(domain.StageUpload, domain.KindStorage, err)
		}
		return nil
	})
	if err != nil {
		p.metrics.IncStorageOp("upload_original", "error")
		return err
	}
	p.metrics.IncStorageOp("upload_original", "success")
	return nil
}

// fanOut runs one retryable transcode+upload unit per profile with bounded
// parallelism and waits for all of them. Failure of any unit after retry
// exhaustion fails the whole video; variants stored by sibling units stay
// in storage until cleanup.
func (p *Pipeline) fanOut(ctx context.Context, video *domain.Video, data []byte) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.WorkerLimit)

	var mu sync.Mutex
	for _, profile := range p.cfg.Profiles {
		profile := profile
		g.Go(func() error {
			return p.processVariant(gctx, video, data, profile, &mu)
		})
	}
	return g.Wait()
}

// processVariant is the retryable unit: transcode then upload, one quality.
func (p *Pipeline) processVariant(ctx context.Context, video *domain.Video, data []byte, profile domain.TranscodeProfile, mu *sync.Mutex) error {
	t0 := time.Now()

	var (
		out  []byte
		meta domain.VideoMetadata
		url  string
	)
	err := p.cfg.Retry.Do(ctx, func(ctx context.Context) error {
		var err error
		out, meta, err = p.transcoder.Transcode(ctx, data, profile)
		if err != nil {
			return domain.NewStageError(domain.StageTranscode, domain.KindTranscode, err)
		}
		if len(out) == 0 {
			return domain.NewStageError(domain.StageTranscode, domain.KindTranscode,
				fmt.Errorf("empty output for %s", profile.Quality))
		}
		url, err = p.storage.UploadVariant(ctx, out, video.ID, profile.Quality)
		if err != nil {
			return domain.NewStageError(domain.StageUpload, domain.KindStorage, err)
		}
		return nil
	})
	p.metrics.ObserveStageDuration(domain.StageTranscode, profile.Quality, time.Since(t0))
	if err != nil {
		logger.Error.Printf("video %s: %s unit failed: %v", video.ID, profile.Quality, err)
		return err
	}

	meta.VirusScanned = video.Metadata.VirusScanned
	meta.ContentSafe = video.Metadata.ContentSafe

	mu.Lock()
	defer mu.Unlock()
	variant, err := video.AddVariant(profile.Quality, url, meta)
	if err != nil {
		return domain.NewStageError(domain.StageUpload, domain.KindStorage, err)
	}
	if err := p.repo.AppendVariant(ctx, video.ID, variant); err != nil {
		return domain.NewStageError(domain.StageUpload, domain.KindStorage, err)
	}
	p.progress.MarkVariantDone(video.ID, profile.Quality)
	p.metrics.IncStorageOp("upload_variant", "success")
	logger.Info.Printf("video %s: variant %s stored (%d bytes)", video.ID, profile.Quality, len(out))
	return nil
}

// transition applies a status change, records history, persists, and
// updates the read-side. Metrics and events are fire-and-forget.
func (p *Pipeline) transition(ctx context.Context, video *domain.Video, to domain.VideoStatus, stage domain.Stage, message string) error {
	if err := video.Transition(to); err != nil {
		return err
	}
	video.RecordStage(stage, message)
	if err := p.repo.UpdateStatus(ctx, video); err != nil {
		return domain.NewStageError(stage, domain.KindStorage, err)
	}
	p.progress.SetStage(video.ID, stage, to)
	p.publish(video.ID, to, stage, message)
	return nil
}

// fail is the single terminal-failure path: record, persist, clean up.
// Uses a fresh context so a deadline-expired run can still write its
// outcome.
func (p *Pipeline) fail(video *domain.Video, cause error) {
	stage := domain.StageOf(cause)
	kind := domain.KindOf(cause)
	if kind == "" {
		kind = domain.KindTranscode
	}
	p.metrics.IncError(kind)

	video.MarkFailed(stage, cause)
	logger.Error.Printf("video %s: failed at %s stage: %v", video.ID, stage, cause)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := p.repo.UpdateStatus(ctx, video); err != nil {
		logger.Error.Printf("video %s: failed to persist failure: %v", video.ID, err)
	}
	p.progress.Finish(video.ID, domain.VideoStatusFailed)
	p.publish(video.ID, domain.VideoStatusFailed, stage, cause.Error())

	// Best-effort: orphaned originals/variants are removed, but a cleanup
	// failure never changes the recorded outcome.
	if err := p.storage.CleanupFailedUpload(ctx, video.ID); err != nil {
		p.metrics.IncStorageOp("cleanup", "error")
		logger.Warn.Printf("video %s: cleanup after failure: %v", video.ID, err)
	} else {
		p.metrics.IncStorageOp("cleanup", "success")
	}
}

func (p *Pipeline) publish(videoID string, status domain.VideoStatus, stage domain.Stage, message string) {
	if p.events != nil {
		p.events.Publish(videoID, Event{
			VideoID: videoID,
			Status:  status,
			Stage:   stage,
			Message: message,
		})
	}
}

func checksum(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}
