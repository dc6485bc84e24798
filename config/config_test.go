package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/croftbox/vidpipe/internal/domain"
)

func TestParseProfiles(t *testing.T) {
	t.Run("empty yields defaults", func(t *testing.T) {
		profiles, err := ParseProfiles("")
		require.NoError(t, err)
		assert.Equal(t, domain.DefaultProfiles(), profiles)
	})

	t.Run("custom set", func(t *testing.T) {
		profiles, err := ParseProfiles("hd:1920:1080:5000k:30, mobile:640:360:1000k:24")
		require.NoError(t, err)
		require.Len(t, profiles, 2)
		assert.Equal(t, domain.TranscodeProfile{Quality: "hd", Width: 1920, Height: 1080, Bitrate: "5000k", Fps: 30, Codec: "h264"}, profiles[0])
		assert.Equal(t, domain.TranscodeProfile{Quality: "mobile", Width: 640, Height: 360, Bitrate: "1000k", Fps: 24, Codec: "h264"}, profiles[1])
	})

	t.Run("wrong field count", func(t *testing.T) {
		_, err := ParseProfiles("hd:1920:1080")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "want quality:width:height:bitrate:fps")
	})

	t.Run("non-numeric dimension", func(t *testing.T) {
		_, err := ParseProfiles("hd:wide:1080:5000k:30")
		assert.Error(t, err)
	})

	t.Run("duplicate quality", func(t *testing.T) {
		_, err := ParseProfiles("hd:1920:1080:5000k:30,hd:1280:720:2500k:30")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate profile quality")
	})
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 500, cfg.MaxUploadSizeMB)
	assert.Equal(t, 2, cfg.WorkerPoolSize)
	assert.Equal(t, 3, cfg.RetryMaxAttempts)
	assert.Equal(t, time.Second, cfg.RetryBaseDelay)
	assert.Equal(t, 30*time.Second, cfg.CallerWaitTimeout)
	assert.Equal(t, time.Hour, cfg.MaxProcessingTime)
	assert.Equal(t, "localhost:3310", cfg.ClamdAddr)
	assert.Equal(t, "vidpipe", cfg.S3Bucket)
	assert.Len(t, cfg.Profiles, 3)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("TRANSCODE_WORKERS", "8")
	t.Setenv("SCAN_TIMEOUT", "45s")
	t.Setenv("TRANSCODE_PROFILES", "sd:1280:720:2500k:30")
	t.Setenv("REDIS_ADDR", "redis:6379")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Port)
	assert.Equal(t, 8, cfg.WorkerPoolSize)
	assert.Equal(t, 45*time.Second, cfg.ScanTimeout)
	require.Len(t, cfg.Profiles, 1)
	assert.Equal(t, "sd", cfg.Profiles[0].Quality)
	assert.Equal(t, "redis:6379", cfg.RedisAddr)
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Run("bad port", func(t *testing.T) {
		t.Setenv("PORT", "not-a-number")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("bad duration", func(t *testing.T) {
		t.Setenv("SCAN_TIMEOUT", "fast")
		_, err := Load()
		assert.Error(t, err)
	})
}
