// Package timecode provides frame-quantized time arithmetic for timeline
// editing. All timeline positions are expressed in seconds; quantization maps
// them onto the frame grid of the active output frame rate so edits stay
// frame-accurate under arbitrary interactive mutation.
package timecode

import (
	"fmt"
	"math"
)

// DefaultFPS is the frame rate assumed when a profile does not specify one.
const DefaultFPS = 30.0

// FrameRate describes the frame grid used for quantization.
type FrameRate struct {
	FPS float64
}

// NewFrameRate validates and constructs a frame rate.
func NewFrameRate(fps float64) (FrameRate, error) {
	if fps <= 0 || math.IsNaN(fps) || math.IsInf(fps, 0) {
		return FrameRate{}, fmt.Errorf("frame rate must be positive, got %v", fps)
	}
	return FrameRate{FPS: fps}, nil
}

// FrameDuration returns the duration of a single frame in seconds.
func (r FrameRate) FrameDuration() float64 {
	fps := r.FPS
	if fps <= 0 {
		fps = DefaultFPS
	}
	return 1.0 / fps
}

// Quantize snaps a time in seconds to the nearest frame boundary.
func (r FrameRate) Quantize(seconds float64) float64 {
	fps := r.FPS
	if fps <= 0 {
		fps = DefaultFPS
	}
	return math.Round(seconds*fps) / fps
}

// Frames converts a duration in seconds to a whole frame count, rounding to
// the nearest frame.
func (r FrameRate) Frames(seconds float64) int64 {
	fps := r.FPS
	if fps <= 0 {
		fps = DefaultFPS
	}
	return int64(math.Round(seconds * fps))
}

// Seconds converts a frame count back to seconds.
func (r FrameRate) Seconds(frames int64) float64 {
	fps := r.FPS
	if fps <= 0 {
		fps = DefaultFPS
	}
	return float64(frames) / fps
}

// Clamp bounds a value to [low, high].
func Clamp(value, low, high float64) float64 {
	if value < low {
		return low
	}
	if value > high {
		return high
	}
	return value
}
