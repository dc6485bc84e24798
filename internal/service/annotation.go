package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/croftbox/vidpipe/internal/domain"
	"github.com/croftbox/vidpipe/internal/infrastructure/logger"
	"github.com/croftbox/vidpipe/internal/port"
)

// AnnotationService manages time-indexed annotations. Annotation writes are
// independent of a video's processing state and may run concurrently with
// the pipeline.
type AnnotationService struct {
	annotations port.AnnotationRepository
	videos      port.VideoRepository
	storage     port.ObjectStorage
	metrics     MetricsSink
}

func NewAnnotationService(annotations port.AnnotationRepository, videos port.VideoRepository, storage port.ObjectStorage, metrics MetricsSink) *AnnotationService {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &AnnotationService{
		annotations: annotations,
		videos:      videos,
		storage:     storage,
		metrics:     metrics,
	}
}

// checkTimestamp verifies the annotation anchor lies within the video's
// duration. Videos still in processing may not have a duration yet; only a
// known duration is enforced.
func (s *AnnotationService) checkTimestamp(video *domain.Video, timestamp float64) error {
	if timestamp < 0 {
		return fmt.Errorf("timestamp %.2f is negative", timestamp)
	}
	if d := video.Metadata.Duration; d > 0 && timestamp > d {
		return fmt.Errorf("timestamp %.2f beyond video duration %.2f", timestamp, d)
	}
	return nil
}

func (s *AnnotationService) CreateDrawing(ctx context.Context, videoID, userID string, timestamp float64, payload domain.DrawingPayload) (*domain.Annotation, error) {
	video, err := s.videos.Get(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if err := s.checkTimestamp(video, timestamp); err != nil {
		return nil, err
	}

	annotation, err := domain.NewDrawingAnnotation(videoID, userID, timestamp, payload)
	if err != nil {
		return nil, err
	}
	if err := s.annotations.Create(ctx, annotation); err != nil {
		return nil, fmt.Errorf("create annotation: %w", err)
	}

	logger.Info.Printf("drawing annotation %s created on video %s at %.2fs", annotation.ID, videoID, timestamp)
	return annotation, nil
}

// CreateVoiceOver stores the audio clip first, then records the annotation
// pointing at it.
func (s *AnnotationService) CreateVoiceOver(ctx context.Context, videoID, userID string, timestamp float64, audio []byte, format string, duration float64, transcription string) (*domain.Annotation, error) {
	video, err := s.videos.Get(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if err := s.checkTimestamp(video, timestamp); err != nil {
		return nil, err
	}
	if len(audio) == 0 {
		return nil, domain.ErrEmptyInput
	}

	clipName := uuid.NewString()
	url, err := s.storage.UploadAudio(ctx, audio, videoID, clipName, format)
	if err != nil {
		s.metrics.IncStorageOp("upload_audio", "error")
		return nil, fmt.Errorf("upload voice-over audio: %w", err)
	}
	s.metrics.IncStorageOp("upload_audio", "success")

	annotation, err := domain.NewVoiceOverAnnotation(videoID, userID, timestamp, domain.VoiceOverPayload{
		AudioURL:      url,
		Duration:      duration,
		Format:        format,
		SizeBytes:     int64(len(audio)),
		Transcription: transcription,
	})
	if err != nil {
		return nil, err
	}
	if err := s.annotations.Create(ctx, annotation); err != nil {
		return nil, fmt.Errorf("create annotation: %w", err)
	}

	logger.Info.Printf("voice-over annotation %s created on video %s at %.2fs", annotation.ID, videoID, timestamp)
	return annotation, nil
}

// UpdateDrawing replaces a drawing annotation's payload and anchor. Only
// the owner may update, and only drawings: voice-over clips are immutable
// once stored.
func (s *AnnotationService) UpdateDrawing(ctx context.Context, id, userID string, timestamp float64, payload domain.DrawingPayload) (*domain.Annotation, error) {
	annotation, err := s.annotations.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if annotation.UserID != userID {
		return nil, fmt.Errorf("%w: annotation %s", domain.ErrForbidden, id)
	}
	if annotation.Type != domain.AnnotationDrawing {
		return nil, fmt.Errorf("annotation %s is not a drawing", id)
	}

	video, err := s.videos.Get(ctx, annotation.VideoID)
	if err != nil {
		return nil, err
	}
	if err := s.checkTimestamp(video, timestamp); err != nil {
		return nil, err
	}
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	annotation.Timestamp = timestamp
	annotation.Drawing = &payload
	annotation.UpdatedAt = time.Now().UTC()
	if err := s.annotations.Update(ctx, annotation); err != nil {
		return nil, fmt.Errorf("update annotation: %w", err)
	}

	logger.Info.Printf("drawing annotation %s updated on video %s at %.2fs", id, annotation.VideoID, timestamp)
	return annotation, nil
}

func (s *AnnotationService) Get(ctx context.Context, id string) (*domain.Annotation, error) {
	return s.annotations.Get(ctx, id)
}

func (s *AnnotationService) ListByVideo(ctx context.Context, videoID string) ([]*domain.Annotation, error) {
	if _, err := s.videos.Get(ctx, videoID); err != nil {
		return nil, err
	}
	return s.annotations.ListByVideo(ctx, videoID)
}

func (s *AnnotationService) Delete(ctx context.Context, id, userID string) error {
	annotation, err := s.annotations.Get(ctx, id)
	if err != nil {
		return err
	}
	if annotation.UserID != userID {
		return fmt.Errorf("%w: annotation %s", domain.ErrForbidden, id)
	}
	return s.annotations.Delete(ctx, id)
}
