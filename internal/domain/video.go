package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type VideoStatus string

const (
	VideoStatusPending    VideoStatus = "pending"
	VideoStatusScanning   VideoStatus = "scanning"
	VideoStatusProcessing VideoStatus = "processing"
	VideoStatusConverting VideoStatus = "converting"
	VideoStatusReady      VideoStatus = "ready"
	VideoStatusFailed     VideoStatus = "failed"
)

// Stage identifies one phase of the processing pipeline.
type Stage string

const (
	StageValidation Stage = "validation"
	StageScan       Stage = "scan"
	StageTranscode  Stage = "transcode"
	StageUpload     Stage = "upload"
	StageComplete   Stage = "complete"
)

// validTransitions encodes the processing state machine. failed is reachable
// from every non-terminal state; ready and failed are terminal.
var validTransitions = map[VideoStatus][]VideoStatus{
	VideoStatusPending:    {VideoStatusScanning, VideoStatusFailed},
	VideoStatusScanning:   {VideoStatusProcessing, VideoStatusFailed},
	VideoStatusProcessing: {VideoStatusConverting, VideoStatusFailed},
	VideoStatusConverting: {VideoStatusReady, VideoStatusFailed},
	VideoStatusReady:      {},
	VideoStatusFailed:     {},
}

// VideoMetadata is the technical descriptor of an asset. For the original it
// is set once validation passes and only the two scan flags change afterward.
type VideoMetadata struct {
	Duration     float64 `json:"duration"`
	Width        int     `json:"width"`
	Height       int     `json:"height"`
	Fps          float64 `json:"fps"`
	Codec        string  `json:"codec"`
	Format       string  `json:"format"`
	SizeBytes    int64   `json:"size_bytes"`
	Checksum     string  `json:"checksum"`
	VirusScanned bool    `json:"virus_scanned"`
	ContentSafe  bool    `json:"content_safe"`
}

// VideoVariant is one transcoded rendition at a specific quality profile,
// immutable once created.
type VideoVariant struct {
	Quality   string        `json:"quality"`
	URL       string        `json:"url"`
	Metadata  VideoMetadata `json:"metadata"`
	CreatedAt time.Time     `json:"created_at"`
}

// HistoryEntry is one append-only record in a video's processing trail.
type HistoryEntry struct {
	Stage     Stage     `json:"stage"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message,omitempty"`
}

type Video struct {
	ID           string         `json:"id"`
	UserID       string         `json:"user_id"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	Status       VideoStatus    `json:"status"`
	Metadata     VideoMetadata  `json:"metadata"`
	Variants     []VideoVariant `json:"variants"`
	History      []HistoryEntry `json:"processing_history"`
	ErrorMessage string         `json:"error_message,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

func NewVideo(userID, title, description string) *Video {
	now := time.Now().UTC()
	return &Video{
		ID:          uuid.NewString(),
		UserID:      userID,
		Title:       title,
		Description: description,
		Status:      VideoStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Transition moves the video to the given status, enforcing the state
// machine. Terminal states reject all further transitions.
func (v *Video) Transition(to VideoStatus) error {
	for _, allowed := range validTransitions[v.Status] {
		if allowed == to {
			v.Status = to
			v.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, v.Status, to)
}

// RecordStage appends an entry to the processing history. The history is
// append-only; entries are never mutated or removed.
func (v *Video) RecordStage(stage Stage, message string) {
	v.History = append(v.History, HistoryEntry{
		Stage:     stage,
		Timestamp: time.Now().UTC(),
		Message:   message,
	})
	v.UpdatedAt = time.Now().UTC()
}

// MarkFailed moves the video to failed regardless of current state and
// records the failing stage. Calling it on an already-terminal video is a
// no-op so a late background failure cannot overwrite a recorded outcome.
func (v *Video) MarkFailed(stage Stage, err error) {
	if v.IsTerminal() {
		return
	}
	v.Status = VideoStatusFailed
	v.ErrorMessage = err.Error()
	v.RecordStage(stage, err.Error())
}

func (v *Video) IsTerminal() bool {
	return v.Status == VideoStatusReady || v.Status == VideoStatusFailed
}

// AddVariant appends a variant, enforcing quality uniqueness. The variant
// collection only ever grows during processing.
func (v *Video) AddVariant(quality, url string, meta VideoMetadata) (*VideoVariant, error) {
	if v.VariantByQuality(quality) != nil {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateVariant, quality)
	}
	variant := VideoVariant{
		Quality:   quality,
		URL:       url,
		Metadata:  meta,
		CreatedAt: time.Now().UTC(),
	}
	v.Variants = append(v.Variants, variant)
	v.RecordStage(StageUpload, fmt.Sprintf("variant %s stored", quality))
	return &v.Variants[len(v.Variants)-1], nil
}

// Clone returns a deep copy with its own Variants and History slices.
// The pipeline runs against a private copy so a caller that stops
// waiting can keep reading the video it was handed.
func (v *Video) Clone() *Video {
	clone := *v
	clone.Variants = append([]VideoVariant(nil), v.Variants...)
	clone.History = append([]HistoryEntry(nil), v.History...)
	return &clone
}

func (v *Video) VariantByQuality(quality string) *VideoVariant {
	for i := range v.Variants {
		if v.Variants[i].Quality == quality {
			return &v.Variants[i]
		}
	}
	return nil
}

// CanBecomeReady checks the ready invariant: one variant with a non-empty
// URL per configured quality, and both scan flags set.
func (v *Video) CanBecomeReady(qualities []string) bool {
	if !v.Metadata.VirusScanned || !v.Metadata.ContentSafe {
		return false
	}
	if len(v.Variants) != len(qualities) {
		return false
	}
	for _, q := range qualities {
		variant := v.VariantByQuality(q)
		if variant == nil || variant.URL == "" {
			return false
		}
	}
	return true
}
