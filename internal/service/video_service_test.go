package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/croftbox/vidpipe/internal/domain"
)

func newVideoServiceFixture(t *testing.T) (*VideoService, *pipelineFixture) {
	t.Helper()
	f := newPipelineFixture(t, PipelineConfig{})
	return NewVideoService(f.repo, f.pipeline, 10<<20), f
}

func TestVideoService_Upload(t *testing.T) {
	svc, f := newVideoServiceFixture(t)

	video, terminal, err := svc.Upload(context.Background(), "user-1", "demo", "first clip", mp4Bytes())
	require.NoError(t, err)
	assert.True(t, terminal)
	assert.Equal(t, "user-1", video.UserID)
	assert.Equal(t, "demo", video.Title)

	stored, err := f.repo.Get(context.Background(), video.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.VideoStatusReady, stored.Status)
}

func TestVideoService_UploadRejectsEmptyInput(t *testing.T) {
	svc, _ := newVideoServiceFixture(t)

	_, _, err := svc.Upload(context.Background(), "user-1", "demo", "", nil)
	assert.ErrorIs(t, err, domain.ErrEmptyInput)
}

func TestVideoService_UploadRejectsOversizedInput(t *testing.T) {
	f := newPipelineFixture(t, PipelineConfig{})
	svc := NewVideoService(f.repo, f.pipeline, 16)

	_, _, err := svc.Upload(context.Background(), "user-1", "demo", "", mp4Bytes())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds limit")
}

func TestVideoService_ProgressFastPath(t *testing.T) {
	svc, _ := newVideoServiceFixture(t)

	video, _, err := svc.Upload(context.Background(), "user-1", "demo", "", mp4Bytes())
	require.NoError(t, err)

	view, err := svc.Progress(context.Background(), video.ID)
	require.NoError(t, err)
	assert.True(t, view.Found, "in-process record serves the fast path")
	assert.Equal(t, domain.VideoStatusReady, view.Status)
	assert.ElementsMatch(t, []string{"hd", "sd", "mobile"}, view.CompletedQualities)
}

func TestVideoService_ProgressFallsBackToStore(t *testing.T) {
	svc, f := newVideoServiceFixture(t)

	// A video that exists durably but has no in-process record, as after a
	// restart.
	video := domain.NewVideo("user-1", "old", "")
	video.Status = domain.VideoStatusReady
	_, err := video.AddVariant("hd", "https://store/hd.mp4", domain.VideoMetadata{})
	require.NoError(t, err)
	require.NoError(t, f.repo.Create(context.Background(), video))
	require.NoError(t, f.repo.AppendVariant(context.Background(), video.ID, &video.Variants[0]))

	view, err := svc.Progress(context.Background(), video.ID)
	require.NoError(t, err)
	assert.False(t, view.Found, "fallback views are marked so callers can tell")
	assert.Equal(t, domain.VideoStatusReady, view.Status)
	assert.Equal(t, []string{"hd"}, view.CompletedQualities)
}

func TestVideoService_ProgressUnknownVideo(t *testing.T) {
	svc, _ := newVideoServiceFixture(t)

	_, err := svc.Progress(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
