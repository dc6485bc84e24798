package domain

import (
	"fmt"
	"strconv"
)

// ProbeResult mirrors the ffprobe JSON output consumed by the format
// validator and the transcoder.
type ProbeFormat struct {
	FormatName string `json:"format_name"`
	FormatLong string `json:"format_long_name"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	BitRate    string `json:"bit_rate"`
	NbStreams  int    `json:"nb_streams"`
}

type ProbeStream struct {
	Index        int    `json:"index"`
	CodecType    string `json:"codec_type"`
	CodecName    string `json:"codec_name"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	PixFmt       string `json:"pix_fmt"`
	RFrameRate   string `json:"r_frame_rate"`
	AvgFrameRate string `json:"avg_frame_rate"`
	Duration     string `json:"duration"`
	BitRate      string `json:"bit_rate"`
	SampleRate   string `json:"sample_rate"`
	Channels     int    `json:"channels"`
}

type ProbeResult struct {
	Format  ProbeFormat   `json:"format"`
	Streams []ProbeStream `json:"streams"`
}

func (p *ProbeResult) VideoStream() *ProbeStream {
	for i := range p.Streams {
		if p.Streams[i].CodecType == "video" {
			return &p.Streams[i]
		}
	}
	return nil
}

func (p *ProbeResult) AudioStream() *ProbeStream {
	for i := range p.Streams {
		if p.Streams[i].CodecType == "audio" {
			return &p.Streams[i]
		}
	}
	return nil
}

func (p *ProbeResult) Dimensions() (width, height int) {
	if vs := p.VideoStream(); vs != nil {
		return vs.Width, vs.Height
	}
	return 0, 0
}

// Fps returns the average frame rate of the video stream, or 0.
func (p *ProbeResult) Fps() float64 {
	vs := p.VideoStream()
	if vs == nil {
		return 0
	}
	if fps := ParseFrameRate(vs.AvgFrameRate); fps > 0 {
		return fps
	}
	return ParseFrameRate(vs.RFrameRate)
}

// DurationSeconds returns the container duration, or 0 when absent.
func (p *ProbeResult) DurationSeconds() float64 {
	return ParseDuration(p.Format.Duration)
}

func (p *ProbeResult) SizeBytes() int64 {
	return ParseSize(p.Format.Size)
}

// ParseFrameRate parses an ffprobe rational like "30000/1001".
func ParseFrameRate(fraction string) float64 {
	if fraction == "" || fraction == "0/0" {
		return 0
	}
	var num, den int
	if _, err := fmt.Sscanf(fraction, "%d/%d", &num, &den); err == nil && den > 0 {
		return float64(num) / float64(den)
	}
	return 0
}

func ParseDuration(durationStr string) float64 {
	if durationStr == "" || durationStr == "N/A" {
		return 0
	}
	duration, err := strconv.ParseFloat(durationStr, 64)
	if err != nil {
		return 0
	}
	return duration
}

func ParseSize(sizeStr string) int64 {
	if sizeStr == "" {
		return 0
	}
	var size int64
	if _, err := fmt.Sscanf(sizeStr, "%d", &size); err == nil {
		return size
	}
	return 0
}
