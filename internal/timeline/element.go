package timeline

import (
	"strings"

	"github.com/google/uuid"

	"montage/internal/canvas"
)

func newElementID() string {
	return uuid.NewString()
}

// MediaType identifies the media family of a placed clip.
type MediaType string

const (
	MediaVideo MediaType = "video"
	MediaAudio MediaType = "audio"
	MediaImage MediaType = "image"
)

// ParseMediaType converts a string into a known MediaType.
func ParseMediaType(value string) (MediaType, bool) {
	normalized := MediaType(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case MediaVideo, MediaAudio, MediaImage:
		return normalized, true
	}
	return "", false
}

// HasAudio reports whether the media family carries an audio stream.
func (m MediaType) HasAudio() bool {
	return m == MediaVideo || m == MediaAudio
}

// Visual reports whether the media family contributes to the visual chain.
func (m MediaType) Visual() bool {
	return m == MediaVideo || m == MediaImage
}

// Alignment positions text within its line box.
type Alignment string

const (
	AlignLeft   Alignment = "left"
	AlignCenter Alignment = "center"
	AlignRight  Alignment = "right"
)

// ElementBase carries the fields shared by every placed item: its window on
// the master timeline, compositing order, and opacity. Visibility is implicit
// in the window (PositionStart <= t < PositionEnd).
type ElementBase struct {
	ID            string  `json:"id"`
	PositionStart float64 `json:"position_start"`
	PositionEnd   float64 `json:"position_end"`
	ZIndex        int     `json:"z_index"`
	Opacity       float64 `json:"opacity"`

	// seq preserves insertion order for deterministic tie-breaking.
	seq int64
}

// Duration returns the element's length on the master timeline.
func (b ElementBase) Duration() float64 {
	return b.PositionEnd - b.PositionStart
}

// ActiveAt reports whether the element is visible at the given time.
func (b ElementBase) ActiveAt(t float64) bool {
	return t >= b.PositionStart && t < b.PositionEnd
}

// Overlaps reports whether two timeline windows intersect.
func (b ElementBase) Overlaps(other ElementBase) bool {
	return !(b.PositionEnd <= other.PositionStart || other.PositionEnd <= b.PositionStart)
}

// MediaClip is a placed video, audio, or image element. StartTime and EndTime
// are the trim window into the source media, in source-seconds; they map
// linearly onto the timeline window under PlaybackSpeed.
type MediaClip struct {
	ElementBase

	MediaType      MediaType      `json:"media_type"`
	Source         string         `json:"source"`
	SourceDuration float64        `json:"source_duration"`
	SourceWidth    float64        `json:"source_width,omitempty"`
	SourceHeight   float64        `json:"source_height,omitempty"`
	StartTime      float64        `json:"start_time"`
	EndTime        float64        `json:"end_time"`
	Volume         float64        `json:"volume"`
	PlaybackSpeed  float64        `json:"playback_speed"`
	AspectFit      canvas.FitMode `json:"aspect_fit"`
	Zoom           float64        `json:"zoom"`
	Frame          canvas.Rect    `json:"frame"`
	IsPlaceholder  bool           `json:"is_placeholder,omitempty"`
}

// NewMediaClip constructs a clip with defaults applied (unity volume, speed 1,
// original aspect fit, fully opaque).
func NewMediaClip(mediaType MediaType, source string, sourceDuration float64) *MediaClip {
	return &MediaClip{
		ElementBase: ElementBase{
			ID:      uuid.NewString(),
			Opacity: 100,
		},
		MediaType:      mediaType,
		Source:         source,
		SourceDuration: sourceDuration,
		EndTime:        sourceDuration,
		Volume:         UnityVolume,
		PlaybackSpeed:  1,
		AspectFit:      canvas.FitOriginal,
		Zoom:           1,
	}
}

// Speed returns the playback speed with the default applied.
func (c *MediaClip) Speed() float64 {
	if c.PlaybackSpeed <= 0 {
		return 1
	}
	return c.PlaybackSpeed
}

// SourceWindow returns the trimmed span of the underlying media in
// source-seconds.
func (c *MediaClip) SourceWindow() float64 {
	return c.EndTime - c.StartTime
}

// clone returns a deep copy with the same identity.
func (c *MediaClip) clone() *MediaClip {
	cp := *c
	return &cp
}

// TextElement is a placed block of text. Line breaks split it into
// independent non-wrapping lines at render time.
type TextElement struct {
	ElementBase

	Text            string    `json:"text"`
	X               float64   `json:"x"`
	Y               float64   `json:"y"`
	FontSize        float64   `json:"font_size"`
	Color           string    `json:"color"`
	Font            string    `json:"font"`
	Align           Alignment `json:"align"`
	BackgroundColor string    `json:"background_color,omitempty"`
}

// NewTextElement constructs a text element with defaults applied.
func NewTextElement(text string) *TextElement {
	return &TextElement{
		ElementBase: ElementBase{
			ID:      uuid.NewString(),
			Opacity: 100,
		},
		Text:     text,
		FontSize: 48,
		Color:    "#ffffff",
		Font:     "sans",
		Align:    AlignCenter,
	}
}

// Lines splits the text into its rendered lines.
func (e *TextElement) Lines() []string {
	return strings.Split(strings.ReplaceAll(e.Text, "\r\n", "\n"), "\n")
}

func (e *TextElement) clone() *TextElement {
	cp := *e
	return &cp
}
