package s3

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURL(t *testing.T) {
	t.Run("public base", func(t *testing.T) {
		s, err := New(Config{Endpoint: "localhost:9000", Bucket: "vidpipe", PublicBaseURL: "https://cdn.example.com/"})
		require.NoError(t, err)
		assert.Equal(t, "https://cdn.example.com/videos/v1/original", s.url("videos/v1/original"))
	})

	t.Run("endpoint fallback", func(t *testing.T) {
		s, err := New(Config{Endpoint: "localhost:9000", Bucket: "vidpipe"})
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:9000/vidpipe/videos/v1/variants/hd.mp4", s.url("videos/v1/variants/hd.mp4"))
	})
}
