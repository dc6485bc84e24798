package port

import (
	"context"

	"github.com/croftbox/vidpipe/internal/domain"
)

// Transcoder converts a source buffer into one rendition per profile and
// inspects container structure. Implementations are expected to be safe for
// concurrent use; the pipeline fans out one call per profile.
type Transcoder interface {
	Transcode(ctx context.Context, src []byte, profile domain.TranscodeProfile) (out []byte, meta domain.VideoMetadata, err error)
	Probe(ctx context.Context, src []byte) (*domain.ProbeResult, error)
}
