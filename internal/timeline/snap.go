package timeline

import "math"

const (
	// DefaultSnapThreshold is how close a proposed time must be to an
	// element edge before it is attracted to that edge.
	DefaultSnapThreshold = 0.050
	// SplitEdgeMargin keeps a resolved cut strictly inside the target
	// element's window.
	SplitEdgeMargin = 0.010
	// MinClipDuration is the floor applied to resize operations, the
	// minimum-visual-width equivalent of one clip.
	MinClipDuration = 0.5
)

// ResolveSnap quantizes a proposed time onto the frame grid, then attracts it
// to the nearest edge of any other element within the snap threshold. Snap
// resolution is the one path allowed to adjust proposed values before
// invariant checking.
func (tl *Timeline) ResolveSnap(proposed float64, excludeID string) float64 {
	quantized := tl.rate.Quantize(proposed)
	return attract(quantized, tl.edgeTargets(excludeID), tl.snap)
}

// edgeTargets collects the start and end edges of every element except the
// excluded one. Audio edges participate here: snap applies to split and drag
// gestures across all element kinds.
func (tl *Timeline) edgeTargets(excludeID string) []float64 {
	targets := make([]float64, 0, 2*(len(tl.clips)+len(tl.texts)))
	for _, clip := range tl.clips {
		if clip.ID == excludeID {
			continue
		}
		targets = append(targets, clip.PositionStart, clip.PositionEnd)
	}
	for _, text := range tl.texts {
		if text.ID == excludeID {
			continue
		}
		targets = append(targets, text.PositionStart, text.PositionEnd)
	}
	return targets
}

// videoEndTargets collects video clip end-times only. Audio resize snaps
// against these so an audio tail can be trimmed flush to a cut; the reverse
// does not hold, video resize never snaps to audio edges.
func (tl *Timeline) videoEndTargets(excludeID string) []float64 {
	var targets []float64
	for _, clip := range tl.clips {
		if clip.ID == excludeID || clip.MediaType != MediaVideo {
			continue
		}
		targets = append(targets, clip.PositionEnd)
	}
	return targets
}

func attract(value float64, targets []float64, threshold float64) float64 {
	best := value
	bestDist := threshold
	for _, target := range targets {
		if dist := math.Abs(target - value); dist <= bestDist {
			best = target
			bestDist = dist
		}
	}
	return best
}
