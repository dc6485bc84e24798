package ffmpeg

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/croftbox/vidpipe/internal/domain"
)

func TestBuildArgs(t *testing.T) {
	profile := domain.TranscodeProfile{Quality: "hd", Width: 1920, Height: 1080, Bitrate: "5000k", Fps: 30, Codec: "h264"}
	args := buildArgs("/tmp/in", "/tmp/out.mp4", profile)

	joined := make(map[string]string)
	for i := 0; i+1 < len(args); i++ {
		joined[args[i]] = args[i+1]
	}

	assert.Equal(t, "/tmp/in", joined["-i"])
	assert.Equal(t, "scale=1920:-2", joined["-vf"], "scaling must preserve aspect ratio")
	assert.Equal(t, "libx264", joined["-c:v"])
	assert.Equal(t, "5000k", joined["-b:v"])
	assert.Equal(t, "aac", joined["-c:a"])
	assert.Equal(t, "+faststart", joined["-movflags"])
	assert.Equal(t, "30", joined["-r"])
	assert.Equal(t, "/tmp/out.mp4", args[len(args)-1])
	assert.Equal(t, "-y", args[len(args)-2], "existing outputs are overwritten")
}

func TestBuildArgs_CodecSelection(t *testing.T) {
	tests := []struct {
		codec string
		want  string
	}{
		{codec: "h264", want: "libx264"},
		{codec: "h265", want: "libx265"},
		{codec: "hevc", want: "libx265"},
		{codec: "", want: "libx264"},
	}

	for _, tt := range tests {
		args := buildArgs("in", "out", domain.TranscodeProfile{Codec: tt.codec, Width: 640, Bitrate: "1000k"})
		assert.Contains(t, args, tt.want, "codec %q", tt.codec)
	}
}

func TestBuildArgs_OmitsFpsWhenUnset(t *testing.T) {
	args := buildArgs("in", "out", domain.TranscodeProfile{Width: 640, Bitrate: "1000k"})
	assert.NotContains(t, args, "-r")
}

func TestLastLine(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "multiline", in: "frame=  100\nframe=  200\nConversion failed!\n", want: "Conversion failed!"},
		{name: "single line", in: "moov atom not found", want: "moov atom not found"},
		{name: "empty", in: "", want: ""},
		{name: "trailing whitespace", in: "error here\n\n\n", want: "error here"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, lastLine([]byte(tt.in)))
		})
	}
}

func TestStage(t *testing.T) {
	tr := NewTranscoder(t.TempDir())
	src := []byte("staged bytes")

	path, cleanup, err := tr.stage(src)
	require.NoError(t, err)

	written, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, src, written)

	cleanup()
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "cleanup must remove the staged file")
}
