package render

import (
	"fmt"
	"strings"

	"montage/internal/timecode"
)

// Watermark describes the branding drawn after all user content when the
// output policy requires it. It is always the terminal step of the visual
// chain.
type Watermark struct {
	Label  string  `json:"label"`
	Icon   string  `json:"icon"`
	Corner string  `json:"corner"`
	Margin float64 `json:"margin"`
}

// Profile is the single output profile a compilation targets.
type Profile struct {
	Width           int     `json:"width"`
	Height          int     `json:"height"`
	FPS             float64 `json:"fps"`
	DurationSeconds float64 `json:"duration_seconds"`
	VideoCodecClass string  `json:"video_codec_class"`
	AudioCodecClass string  `json:"audio_codec_class"`
	QualityPreset   string  `json:"quality_preset"`
	Background      string  `json:"background"`

	// Watermark is nil when the caller's usage tier renders unbranded.
	Watermark *Watermark `json:"watermark,omitempty"`
}

// DefaultProfile returns the 1080p30 delivery profile.
func DefaultProfile() Profile {
	return Profile{
		Width:           1920,
		Height:          1080,
		FPS:             30,
		VideoCodecClass: "h264",
		AudioCodecClass: "aac",
		QualityPreset:   "standard",
		Background:      "#000000",
	}
}

// FrameRate returns the profile's frame grid.
func (p Profile) FrameRate() timecode.FrameRate {
	if p.FPS <= 0 {
		return timecode.FrameRate{FPS: timecode.DefaultFPS}
	}
	return timecode.FrameRate{FPS: p.FPS}
}

// Validate rejects unusable output parameters.
func (p Profile) Validate() error {
	if p.Width <= 0 || p.Height <= 0 {
		return fmt.Errorf("output resolution %dx%d is invalid", p.Width, p.Height)
	}
	if p.FPS <= 0 {
		return fmt.Errorf("output frame rate %v is invalid", p.FPS)
	}
	if strings.TrimSpace(p.VideoCodecClass) == "" {
		return fmt.Errorf("video codec class is required")
	}
	return nil
}
