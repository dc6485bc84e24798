package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseFrameRate(t *testing.T) {
	tests := []struct {
		name     string
		fraction string
		want     float64
	}{
		{name: "whole number", fraction: "30/1", want: 30},
		{name: "ntsc rational", fraction: "30000/1001", want: 29.97002997002997},
		{name: "zero fraction", fraction: "0/0", want: 0},
		{name: "empty", fraction: "", want: 0},
		{name: "garbage", fraction: "abc", want: 0},
		{name: "zero denominator", fraction: "30/0", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ParseFrameRate(tt.fraction), 0.0001)
		})
	}
}

func TestParseDuration(t *testing.T) {
	assert.Equal(t, 123.456, ParseDuration("123.456"))
	assert.Equal(t, 0.0, ParseDuration("N/A"))
	assert.Equal(t, 0.0, ParseDuration(""))
	assert.Equal(t, 0.0, ParseDuration("not-a-number"))
}

func TestProbeResult_Accessors(t *testing.T) {
	probe := &ProbeResult{
		Format: ProbeFormat{
			FormatName: "mov,mp4,m4a,3gp,3g2,mj2",
			Duration:   "90.5",
			Size:       "10485760",
		},
		Streams: []ProbeStream{
			{Index: 0, CodecType: "video", CodecName: "h264", Width: 1920, Height: 1080, AvgFrameRate: "30/1"},
			{Index: 1, CodecType: "audio", CodecName: "aac", SampleRate: "48000", Channels: 2},
		},
	}

	width, height := probe.Dimensions()
	assert.Equal(t, 1920, width)
	assert.Equal(t, 1080, height)
	assert.Equal(t, 30.0, probe.Fps())
	assert.Equal(t, 90.5, probe.DurationSeconds())
	assert.Equal(t, int64(10485760), probe.SizeBytes())
	assert.Equal(t, "h264", probe.VideoStream().CodecName)
	assert.Equal(t, "aac", probe.AudioStream().CodecName)
}

func TestProbeResult_NoVideoStream(t *testing.T) {
	probe := &ProbeResult{
		Streams: []ProbeStream{{CodecType: "audio", CodecName: "mp3"}},
	}

	assert.Nil(t, probe.VideoStream())
	width, height := probe.Dimensions()
	assert.Zero(t, width)
	assert.Zero(t, height)
	assert.Zero(t, probe.Fps())
}

func TestProbeResult_FallsBackToRFrameRate(t *testing.T) {
	probe := &ProbeResult{
		Streams: []ProbeStream{{CodecType: "video", AvgFrameRate: "0/0", RFrameRate: "25/1"}},
	}
	assert.Equal(t, 25.0, probe.Fps())
}
