// Package canvas provides canvas-space geometry for placed media: rectangles
// and the aspect-fit computations that derive a clip's on-canvas frame from
// its fit mode and zoom factor.
package canvas

import "math"

// Rect is an axis-aligned rectangle in canvas coordinates.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Center returns the rectangle's center point.
func (r Rect) Center() (float64, float64) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// FitMode selects the scale/crop policy used to place source media on the
// output canvas.
type FitMode string

const (
	// FitOriginal letterboxes the source at its native aspect ratio.
	FitOriginal FitMode = "original"
	// FitSquare crops the source to fill a centered square.
	FitSquare FitMode = "square"
	// FitCover crops the source to fill the whole canvas.
	FitCover FitMode = "cover"
	// FitWidescreen letterboxes the source into a 16:9 region.
	FitWidescreen FitMode = "widescreen"
)

// ParseFitMode normalizes a fit-mode string, defaulting to FitOriginal.
func ParseFitMode(value string) FitMode {
	switch FitMode(value) {
	case FitSquare, FitCover, FitWidescreen:
		return FitMode(value)
	default:
		return FitOriginal
	}
}

// CropsToFill reports whether the mode fills its target region by cropping
// rather than padding.
func (m FitMode) CropsToFill() bool {
	return m == FitCover || m == FitSquare
}

// Fit computes the canvas rectangle for a source of the given dimensions
// placed on a canvas of the given dimensions under the fit mode, with the
// zoom multiplier applied around the region center.
func Fit(srcW, srcH, canvasW, canvasH float64, mode FitMode, zoom float64) Rect {
	if srcW <= 0 || srcH <= 0 || canvasW <= 0 || canvasH <= 0 {
		return Rect{Width: canvasW, Height: canvasH}
	}
	if zoom <= 0 {
		zoom = 1
	}

	region := Rect{Width: canvasW, Height: canvasH}
	if mode == FitSquare {
		side := math.Min(canvasW, canvasH)
		region = Rect{X: (canvasW - side) / 2, Y: (canvasH - side) / 2, Width: side, Height: side}
	}

	srcRatio := srcW / srcH
	regionRatio := region.Width / region.Height

	var scale float64
	if mode.CropsToFill() {
		// Fill the region; overflow is cropped by the caller.
		if srcRatio > regionRatio {
			scale = region.Height / srcH
		} else {
			scale = region.Width / srcW
		}
	} else {
		// Letterbox inside the region.
		if srcRatio > regionRatio {
			scale = region.Width / srcW
		} else {
			scale = region.Height / srcH
		}
	}
	scale *= zoom

	w := srcW * scale
	h := srcH * scale
	cx, cy := region.Center()
	return Rect{X: cx - w/2, Y: cy - h/2, Width: w, Height: h}
}
