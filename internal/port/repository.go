package port

import (
	"context"

	"github.com/croftbox/vidpipe/internal/domain"
)

type VideoRepository interface {
	Create(ctx context.Context, v *domain.Video) error
	Get(ctx context.Context, id string) (*domain.Video, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Video, error)
	// UpdateStatus persists the status, error message, metadata and history
	// of a video. Status writes are idempotent: re-applying the same
	// terminal state is not an error.
	UpdateStatus(ctx context.Context, v *domain.Video) error
	// AppendVariant persists one variant row. Inserting the same
	// (video, quality) pair twice is rejected by the store.
	AppendVariant(ctx context.Context, videoID string, variant *domain.VideoVariant) error
	Delete(ctx context.Context, id string) error
}

type AnnotationRepository interface {
	Create(ctx context.Context, a *domain.Annotation) error
	Get(ctx context.Context, id string) (*domain.Annotation, error)
	// ListByVideo returns annotations ordered by their video timestamp.
	ListByVideo(ctx context.Context, videoID string) ([]*domain.Annotation, error)
	Update(ctx context.Context, a *domain.Annotation) error
	Delete(ctx context.Context, id string) error
}
