package port

import "context"

// ObjectStorage persists original and variant buffers durably and returns
// retrievable URLs.
type ObjectStorage interface {
	UploadOriginal(ctx context.Context, data []byte, videoID string) (url string, err error)
	UploadVariant(ctx context.Context, data []byte, videoID, quality string) (url string, err error)
	UploadAudio(ctx context.Context, data []byte, videoID, annotationID, contentType string) (url string, err error)
	// CleanupFailedUpload removes whatever was stored for the video.
	// Best-effort: failures are logged by the caller, never escalated.
	CleanupFailedUpload(ctx context.Context, videoID string) error
}
