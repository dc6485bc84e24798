package domain

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
)

type AnnotationType string

const (
	AnnotationDrawing   AnnotationType = "drawing"
	AnnotationVoiceOver AnnotationType = "voice-over"
)

type DrawingTool string

const (
	ToolPen       DrawingTool = "pen"
	ToolLine      DrawingTool = "line"
	ToolArrow     DrawingTool = "arrow"
	ToolRectangle DrawingTool = "rectangle"
	ToolCircle    DrawingTool = "circle"
)

const (
	MaxStrokeWidth        = 50.0
	MaxVoiceOverDuration  = 3600.0
	MaxVoiceOverSizeBytes = 50 << 20
	MaxTranscriptionLen   = 10000
)

var supportedAudioFormats = map[string]bool{
	"audio/mpeg": true,
	"audio/wav":  true,
	"audio/mp4":  true,
}

var hexColorRe = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

type DrawingPoint struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Pressure float64 `json:"pressure"`
}

type DrawingPayload struct {
	Tool        DrawingTool    `json:"tool"`
	Points      []DrawingPoint `json:"points"`
	Color       string         `json:"color"`
	StrokeWidth float64        `json:"stroke_width"`
	Filled      bool           `json:"filled"`
}

func (p *DrawingPayload) Validate() error {
	switch p.Tool {
	case ToolPen, ToolLine, ToolArrow, ToolRectangle, ToolCircle:
	default:
		return fmt.Errorf("unknown drawing tool: %q", p.Tool)
	}
	if len(p.Points) == 0 {
		return errors.New("drawing has no points")
	}
	// Shape tools are defined by exactly two points (start/end or bounds).
	if p.Tool != ToolPen && len(p.Points) != 2 {
		return fmt.Errorf("%s requires exactly 2 points, got %d", p.Tool, len(p.Points))
	}
	for i, pt := range p.Points {
		if pt.X < 0 || pt.Y < 0 {
			return fmt.Errorf("point %d has negative coordinates", i)
		}
		if pt.Pressure < 0 || pt.Pressure > 1 {
			return fmt.Errorf("point %d pressure out of range", i)
		}
	}
	if !hexColorRe.MatchString(p.Color) {
		return fmt.Errorf("invalid hex color: %q", p.Color)
	}
	if p.StrokeWidth < 0 || p.StrokeWidth > MaxStrokeWidth {
		return fmt.Errorf("stroke width %.1f out of range [0, %.0f]", p.StrokeWidth, MaxStrokeWidth)
	}
	return nil
}

type VoiceOverPayload struct {
	AudioURL      string  `json:"audio_url"`
	Duration      float64 `json:"duration"`
	Format        string  `json:"format"`
	SizeBytes     int64   `json:"size_bytes"`
	Transcription string  `json:"transcription,omitempty"`
}

func (p *VoiceOverPayload) Validate() error {
	if p.AudioURL == "" {
		return errors.New("voice-over has no audio URL")
	}
	if p.Duration <= 0 || p.Duration > MaxVoiceOverDuration {
		return fmt.Errorf("voice-over duration %.1fs out of range (0, %.0f]", p.Duration, MaxVoiceOverDuration)
	}
	if !supportedAudioFormats[p.Format] {
		return fmt.Errorf("unsupported audio format: %q", p.Format)
	}
	if p.SizeBytes <= 0 || p.SizeBytes > MaxVoiceOverSizeBytes {
		return fmt.Errorf("voice-over size %d out of range", p.SizeBytes)
	}
	if len(p.Transcription) > MaxTranscriptionLen {
		return fmt.Errorf("transcription exceeds %d characters", MaxTranscriptionLen)
	}
	return nil
}

// Annotation is a time-indexed note attached to a video. Its lifecycle is
// independent of the video's processing state.
type Annotation struct {
	ID        string            `json:"id"`
	VideoID   string            `json:"video_id"`
	UserID    string            `json:"user_id"`
	Type      AnnotationType    `json:"type"`
	Timestamp float64           `json:"timestamp"`
	Drawing   *DrawingPayload   `json:"drawing,omitempty"`
	VoiceOver *VoiceOverPayload `json:"voice_over,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

func NewDrawingAnnotation(videoID, userID string, timestamp float64, payload DrawingPayload) (*Annotation, error) {
	a := &Annotation{
		ID:        uuid.NewString(),
		VideoID:   videoID,
		UserID:    userID,
		Type:      AnnotationDrawing,
		Timestamp: timestamp,
		Drawing:   &payload,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

func NewVoiceOverAnnotation(videoID, userID string, timestamp float64, payload VoiceOverPayload) (*Annotation, error) {
	a := &Annotation{
		ID:        uuid.NewString(),
		VideoID:   videoID,
		UserID:    userID,
		Type:      AnnotationVoiceOver,
		Timestamp: timestamp,
		VoiceOver: &payload,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Annotation) Validate() error {
	if a.VideoID == "" || a.UserID == "" {
		return errors.New("annotation requires video and user ids")
	}
	if a.Timestamp < 0 {
		return errors.New("annotation timestamp cannot be negative")
	}
	switch a.Type {
	case AnnotationDrawing:
		if a.Drawing == nil {
			return errors.New("drawing annotation has no payload")
		}
		return a.Drawing.Validate()
	case AnnotationVoiceOver:
		if a.VoiceOver == nil {
			return errors.New("voice-over annotation has no payload")
		}
		return a.VoiceOver.Validate()
	default:
		return fmt.Errorf("unknown annotation type: %q", a.Type)
	}
}
