package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/croftbox/vidpipe/internal/domain"
)

func TestProgressRegistry_BeginRejectsActiveRun(t *testing.T) {
	r := NewProgressRegistry(time.Minute)

	require.NoError(t, r.Begin("video-1"))
	assert.ErrorIs(t, r.Begin("video-1"), domain.ErrAlreadyProcessing)

	// A terminal record releases ownership for a new run.
	r.Finish("video-1", domain.VideoStatusFailed)
	assert.NoError(t, r.Begin("video-1"))
}

func TestProgressRegistry_ProgressSnapshot(t *testing.T) {
	r := NewProgressRegistry(time.Minute)
	now := time.Now()
	r.now = func() time.Time { return now }

	require.NoError(t, r.Begin("video-1"))
	r.SetStage("video-1", domain.StageTranscode, domain.VideoStatusProcessing)
	r.MarkVariantDone("video-1", "hd")

	now = now.Add(3 * time.Second)
	view := r.Progress("video-1")

	assert.True(t, view.Found)
	assert.Equal(t, "video-1", view.VideoID)
	assert.Equal(t, domain.VideoStatusProcessing, view.Status)
	assert.Equal(t, domain.StageTranscode, view.Stage)
	assert.Equal(t, 3*time.Second, view.Elapsed)
	assert.Equal(t, []string{"hd"}, view.CompletedQualities)
}

func TestProgressRegistry_ProgressUnknownVideo(t *testing.T) {
	r := NewProgressRegistry(time.Minute)
	view := r.Progress("nope")
	assert.False(t, view.Found)
	assert.Empty(t, view.VideoID)
}

func TestProgressRegistry_MarkVariantDoneIsIdempotent(t *testing.T) {
	r := NewProgressRegistry(time.Minute)
	require.NoError(t, r.Begin("video-1"))

	r.MarkVariantDone("video-1", "hd")
	r.MarkVariantDone("video-1", "hd")
	r.MarkVariantDone("video-1", "sd")

	view := r.Progress("video-1")
	assert.Equal(t, []string{"hd", "sd"}, view.CompletedQualities)
}

func TestProgressRegistry_ReadsHaveNoSideEffects(t *testing.T) {
	r := NewProgressRegistry(time.Minute)
	require.NoError(t, r.Begin("video-1"))
	r.MarkVariantDone("video-1", "hd")

	first := r.Progress("video-1")
	first.CompletedQualities[0] = "mutated"

	second := r.Progress("video-1")
	assert.Equal(t, []string{"hd"}, second.CompletedQualities, "callers get copies, not the record")
}

func TestProgressRegistry_ElapsedFrozenAfterFinish(t *testing.T) {
	r := NewProgressRegistry(time.Minute)
	now := time.Now()
	r.now = func() time.Time { return now }

	require.NoError(t, r.Begin("video-1"))
	now = now.Add(2 * time.Second)
	r.Finish("video-1", domain.VideoStatusReady)

	now = now.Add(time.Hour)
	view := r.Progress("video-1")
	assert.Equal(t, 2*time.Second, view.Elapsed, "elapsed stops at the terminal flip")
	assert.Equal(t, domain.VideoStatusReady, view.Status)
}

func TestProgressRegistry_Sweep(t *testing.T) {
	r := NewProgressRegistry(time.Minute)
	now := time.Now()
	r.now = func() time.Time { return now }

	require.NoError(t, r.Begin("done-old"))
	r.Finish("done-old", domain.VideoStatusReady)
	require.NoError(t, r.Begin("still-running"))

	now = now.Add(2 * time.Minute)
	require.NoError(t, r.Begin("done-fresh"))
	r.Finish("done-fresh", domain.VideoStatusFailed)

	evicted := r.Sweep()

	assert.Equal(t, 1, evicted)
	assert.False(t, r.Progress("done-old").Found, "terminal records past retention are evicted")
	assert.True(t, r.Progress("still-running").Found, "active runs are never evicted")
	assert.True(t, r.Progress("done-fresh").Found, "terminal records within retention survive")
}
