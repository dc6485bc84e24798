// Package ffmpeg adapts the ffmpeg and ffprobe binaries to the transcoder
// port. Sources arrive as byte buffers; they are staged through temp files
// because mp4 demuxing needs seekable input.
package ffmpeg

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"

	"golang.org/x/crypto/blake2b"

	"github.com/croftbox/vidpipe/internal/domain"
	"github.com/croftbox/vidpipe/internal/port"
)

type Transcoder struct {
	workDir string
}

func NewTranscoder(workDir string) *Transcoder {
	return &Transcoder{workDir: workDir}
}

func (t *Transcoder) Transcode(ctx context.Context, src []byte, profile domain.TranscodeProfile) ([]byte, domain.VideoMetadata, error) {
	var meta domain.VideoMetadata

	inPath, cleanupIn, err := t.stage(src)
	if err != nil {
		return nil, meta, err
	}
	defer cleanupIn()

	outPath := inPath + "_" + profile.Quality + ".mp4"
	defer os.Remove(outPath)

	args := buildArgs(inPath, outPath, profile)
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, meta, fmt.Errorf("ffmpeg %s: %w: %s", profile.Quality, err, lastLine(stderr.Bytes()))
	}

	out, err := os.ReadFile(outPath)
	if err != nil {
		return nil, meta, fmt.Errorf("read transcode output: %w", err)
	}
	if len(out) == 0 {
		return nil, meta, fmt.Errorf("ffmpeg produced empty output for %s", profile.Quality)
	}

	// Probe the result rather than trusting the profile: scaling preserves
	// aspect ratio, so actual dimensions and duration may differ from the
	// nominal target.
	probe, err := t.probePath(ctx, outPath)
	if err != nil {
		return nil, meta, fmt.Errorf("probe transcode output: %w", err)
	}

	sum := blake2b.Sum256(out)
	meta = domain.VideoMetadata{
		Duration:  probe.DurationSeconds(),
		Fps:       probe.Fps(),
		Codec:     profile.Codec,
		Format:    "video/mp4",
		SizeBytes: int64(len(out)),
		Checksum:  hex.EncodeToString(sum[:]),
	}
	meta.Width, meta.Height = probe.Dimensions()
	if vs := probe.VideoStream(); vs != nil && vs.CodecName != "" {
		meta.Codec = vs.CodecName
	}

	return out, meta, nil
}

func (t *Transcoder) Probe(ctx context.Context, src []byte) (*domain.ProbeResult, error) {
	inPath, cleanup, err := t.stage(src)
	if err != nil {
		return nil, err
	}
	defer cleanup()
	return t.probePath(ctx, inPath)
}

func (t *Transcoder) probePath(ctx context.Context, path string) (*domain.ProbeResult, error) {
	args := []string{
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	}
	cmd := exec.CommandContext(ctx, "ffprobe", args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe: %w: %s", err, lastLine(stderr.Bytes()))
	}

	var probe domain.ProbeResult
	if err := json.Unmarshal(output, &probe); err != nil {
		return nil, fmt.Errorf("parse ffprobe output: %w", err)
	}
	if probe.VideoStream() == nil {
		return nil, fmt.Errorf("no video stream found")
	}
	return &probe, nil
}

// stage writes the buffer to a temp file and returns its path with a
// cleanup func.
func (t *Transcoder) stage(src []byte) (string, func(), error) {
	dir := t.workDir
	if dir == "" {
		dir = os.TempDir()
	}
	f, err := os.CreateTemp(dir, "vidpipe_src_*")
	if err != nil {
		return "", nil, fmt.Errorf("stage source: %w", err)
	}
	path := f.Name()
	if _, err := f.Write(src); err != nil {
		f.Close()
		os.Remove(path)
		return "", nil, fmt.Errorf("stage source: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", nil, fmt.Errorf("stage source: %w", err)
	}
	return path, func() { os.Remove(path) }, nil
}

func buildArgs(inPath, outPath string, p domain.TranscodeProfile) []string {
	codec := "libx264"
	if p.Codec == "h265" || p.Codec == "hevc" {
		codec = "libx265"
	}

	args := []string{
		"-i", inPath,
		// -2 keeps the aspect ratio while staying divisible by two.
		"-vf", fmt.Sprintf("scale=%d:-2", p.Width),
		"-c:v", codec,
		"-b:v", p.Bitrate,
		"-preset", "medium",
		"-c:a", "aac",
		"-b:a", "128k",
		"-movflags", "+faststart",
	}
	if p.Fps > 0 {
		args = append(args, "-r", strconv.Itoa(p.Fps))
	}
	args = append(args, "-y", outPath)
	return args
}

func lastLine(b []byte) string {
	b = bytes.TrimSpace(b)
	if i := bytes.LastIndexByte(b, '\n'); i >= 0 {
		b = b[i+1:]
	}
	return string(b)
}

var _ port.Transcoder = (*Transcoder)(nil)
