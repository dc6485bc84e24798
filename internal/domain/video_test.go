package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVideo(t *testing.T) {
	video := NewVideo("user-1", "Sprint review", "weekly recording")

	assert.NotEmpty(t, video.ID, "ID should be generated")
	assert.Equal(t, "user-1", video.UserID)
	assert.Equal(t, "Sprint review", video.Title)
	assert.Equal(t, "weekly recording", video.Description)
	assert.Equal(t, VideoStatusPending, video.Status, "new videos start pending")
	assert.Empty(t, video.Variants)
	assert.Empty(t, video.History)
	assert.False(t, video.CreatedAt.IsZero())
}

func TestVideo_Transition(t *testing.T) {
	tests := []struct {
		name    string
		from    VideoStatus
		to      VideoStatus
		wantErr bool
	}{
		{name: "pending to scanning", from: VideoStatusPending, to: VideoStatusScanning},
		{name: "scanning to processing", from: VideoStatusScanning, to: VideoStatusProcessing},
		{name: "processing to converting", from: VideoStatusProcessing, to: VideoStatusConverting},
		{name: "converting to ready", from: VideoStatusConverting, to: VideoStatusReady},
		{name: "pending to failed", from: VideoStatusPending, to: VideoStatusFailed},
		{name: "scanning to failed", from: VideoStatusScanning, to: VideoStatusFailed},
		{name: "processing to failed", from: VideoStatusProcessing, to: VideoStatusFailed},
		{name: "converting to failed", from: VideoStatusConverting, to: VideoStatusFailed},
		{name: "skipping scanning", from: VideoStatusPending, to: VideoStatusProcessing, wantErr: true},
		{name: "skipping converting", from: VideoStatusProcessing, to: VideoStatusReady, wantErr: true},
		{name: "backwards", from: VideoStatusProcessing, to: VideoStatusScanning, wantErr: true},
		{name: "out of ready", from: VideoStatusReady, to: VideoStatusProcessing, wantErr: true},
		{name: "out of failed", from: VideoStatusFailed, to: VideoStatusScanning, wantErr: true},
		{name: "ready to failed", from: VideoStatusReady, to: VideoStatusFailed, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			video := NewVideo("user-1", "title", "")
			video.Status = tt.from

			err := video.Transition(tt.to)

			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTransition)
				assert.Equal(t, tt.from, video.Status, "status must not change on rejected transition")
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.to, video.Status)
			}
		})
	}
}

func TestVideo_MarkFailed(t *testing.T) {
	t.Run("records stage and message", func(t *testing.T) {
		video := NewVideo("user-1", "title", "")
		video.Status = VideoStatusProcessing

		video.MarkFailed(StageTranscode, errors.New("encoder crashed"))

		assert.Equal(t, VideoStatusFailed, video.Status)
		assert.Equal(t, "encoder crashed", video.ErrorMessage)
		require.Len(t, video.History, 1)
		assert.Equal(t, StageTranscode, video.History[0].Stage)
		assert.Equal(t, "encoder crashed", video.History[0].Message)
	})

	t.Run("no-op on ready video", func(t *testing.T) {
		video := NewVideo("user-1", "title", "")
		video.Status = VideoStatusReady

		video.MarkFailed(StageUpload, errors.New("late failure"))

		assert.Equal(t, VideoStatusReady, video.Status, "terminal outcome must not be overwritten")
		assert.Empty(t, video.ErrorMessage)
		assert.Empty(t, video.History)
	})
}

func TestVideo_RecordStage(t *testing.T) {
	video := NewVideo("user-1", "title", "")

	video.RecordStage(StageValidation, "format ok")
	video.RecordStage(StageScan, "clean")
	video.RecordStage(StageComplete, "")

	require.Len(t, video.History, 3)
	assert.Equal(t, StageValidation, video.History[0].Stage)
	assert.Equal(t, StageScan, video.History[1].Stage)
	assert.Equal(t, StageComplete, video.History[2].Stage)
	assert.False(t, video.History[0].Timestamp.After(video.History[2].Timestamp))
}

func TestVideo_AddVariant(t *testing.T) {
	video := NewVideo("user-1", "title", "")

	variant, err := video.AddVariant("hd", "https://cdn/videos/x/variants/hd.mp4", VideoMetadata{Width: 1920, Height: 1080})
	require.NoError(t, err)
	assert.Equal(t, "hd", variant.Quality)

	_, err = video.AddVariant("sd", "https://cdn/videos/x/variants/sd.mp4", VideoMetadata{Width: 1280, Height: 720})
	require.NoError(t, err)

	_, err = video.AddVariant("hd", "https://cdn/videos/x/variants/hd2.mp4", VideoMetadata{})
	assert.ErrorIs(t, err, ErrDuplicateVariant)
	assert.Len(t, video.Variants, 2, "rejected variant must not be stored")
}

func TestVideo_CanBecomeReady(t *testing.T) {
	qualities := []string{"hd", "sd", "mobile"}

	build := func(scanned, safe bool, variantQualities ...string) *Video {
		video := NewVideo("user-1", "title", "")
		video.Metadata.VirusScanned = scanned
		video.Metadata.ContentSafe = safe
		for _, q := range variantQualities {
			_, err := video.AddVariant(q, "https://cdn/"+q+".mp4", VideoMetadata{})
			if err != nil {
				t.Fatalf("AddVariant(%s): %v", q, err)
			}
		}
		return video
	}

	t.Run("all variants present and scanned", func(t *testing.T) {
		assert.True(t, build(true, true, "hd", "sd", "mobile").CanBecomeReady(qualities))
	})

	t.Run("missing variant", func(t *testing.T) {
		assert.False(t, build(true, true, "hd", "sd").CanBecomeReady(qualities))
	})

	t.Run("not scanned", func(t *testing.T) {
		assert.False(t, build(false, true, "hd", "sd", "mobile").CanBecomeReady(qualities))
	})

	t.Run("unsafe content", func(t *testing.T) {
		assert.False(t, build(true, false, "hd", "sd", "mobile").CanBecomeReady(qualities))
	})

	t.Run("empty variant URL", func(t *testing.T) {
		video := build(true, true, "hd", "sd")
		_, err := video.AddVariant("mobile", "", VideoMetadata{})
		require.NoError(t, err)
		assert.False(t, video.CanBecomeReady(qualities))
	})
}

func TestVideo_IsTerminal(t *testing.T) {
	for status, want := range map[VideoStatus]bool{
		VideoStatusPending:    false,
		VideoStatusScanning:   false,
		VideoStatusProcessing: false,
		VideoStatusConverting: false,
		VideoStatusReady:      true,
		VideoStatusFailed:     true,
	} {
		video := NewVideo("user-1", "title", "")
		video.Status = status
		assert.Equal(t, want, video.IsTerminal(), "status %s", status)
	}
}

func TestVideo_Clone(t *testing.T) {
	video := NewVideo("user-1", "title", "desc")
	require.NoError(t, video.Transition(VideoStatusScanning))
	_, err := video.AddVariant("hd", "https://cdn/hd.mp4", VideoMetadata{Width: 1920})
	require.NoError(t, err)

	clone := video.Clone()
	assert.Equal(t, video, clone)

	// Appends on the clone must not alias the original's backing arrays.
	_, err = clone.AddVariant("sd", "https://cdn/sd.mp4", VideoMetadata{Width: 854})
	require.NoError(t, err)
	clone.RecordStage(StageScan, "content verified safe")

	assert.Len(t, video.Variants, 1)
	assert.Len(t, clone.Variants, 2)
	assert.Less(t, len(video.History), len(clone.History))
}
