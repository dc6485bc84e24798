package service

import (
	"context"
	"fmt"

	"github.com/croftbox/vidpipe/internal/domain"
	"github.com/croftbox/vidpipe/internal/infrastructure/logger"
	"github.com/croftbox/vidpipe/internal/port"
)

// VideoService is the upload-facing entry point: it creates the aggregate,
// persists it, and hands the bytes to the pipeline.
type VideoService struct {
	repo           port.VideoRepository
	pipeline       *Pipeline
	maxUploadBytes int64
}

func NewVideoService(repo port.VideoRepository, pipeline *Pipeline, maxUploadBytes int64) *VideoService {
	return &VideoService{
		repo:           repo,
		pipeline:       pipeline,
		maxUploadBytes: maxUploadBytes,
	}
}

// Upload registers a new video and starts processing. The returned bool
// mirrors Pipeline.Start: true when the video reached a terminal state
// within the caller wait, false when processing continues in the
// background.
func (s *VideoService) Upload(ctx context.Context, userID, title, description string, data []byte) (*domain.Video, bool, error) {
	if len(data) == 0 {
		return nil, false, domain.ErrEmptyInput
	}
	if s.maxUploadBytes > 0 && int64(len(data)) > s.maxUploadBytes {
		return nil, false, fmt.Errorf("upload of %d bytes exceeds limit of %d", len(data), s.maxUploadBytes)
	}

	video := domain.NewVideo(userID, title, description)
	if err := s.repo.Create(ctx, video); err != nil {
		return nil, false, fmt.Errorf("create video record: %w", err)
	}

	logger.Info.Printf("video %s uploaded by %s (%d bytes)", video.ID, userID, len(data))

	terminal, err := s.pipeline.Start(ctx, video, data)
	if err != nil {
		return nil, false, err
	}
	return video, terminal, nil
}

func (s *VideoService) Get(ctx context.Context, id string) (*domain.Video, error) {
	return s.repo.Get(ctx, id)
}

func (s *VideoService) ListByUser(ctx context.Context, userID string) ([]*domain.Video, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *VideoService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// Progress serves the polling read path. When the in-process record is
// gone (restart, eviction, never started) the durable video document is
// the source of truth and a view is synthesized from it, with Found left
// false so callers can tell fast path from fallback.
func (s *VideoService) Progress(ctx context.Context, videoID string) (ProgressView, error) {
	view := s.pipeline.Progress(videoID)
	if view.Found {
		return view, nil
	}

	video, err := s.repo.Get(ctx, videoID)
	if err != nil {
		return ProgressView{}, err
	}

	completed := make([]string, 0, len(video.Variants))
	for _, v := range video.Variants {
		completed = append(completed, v.Quality)
	}
	return ProgressView{
		VideoID:            video.ID,
		Status:             video.Status,
		CompletedQualities: completed,
	}, nil
}
