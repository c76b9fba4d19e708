package timeline

import "sort"

// MoveVideoClip reorders the ripple-packed video track by dragging a clip to
// a proposed start position. The clip's rank is decided by comparing its
// proposed midpoint against neighbors: dragging past the temporal midpoint of
// a neighboring clip swaps ranked order. The track is then repacked, so
// durations are preserved and only order and positions change.
func (tl *Timeline) MoveVideoClip(id string, proposedStart float64) error {
	const op = "move clip"
	clip := tl.Clip(id)
	if clip == nil {
		return elementNotFound(op, id)
	}
	if clip.MediaType != MediaVideo {
		return outOfBounds(op, "only video clips participate in track reordering")
	}

	draggedMid := proposedStart + clip.Duration()/2
	var others []*MediaClip
	for _, other := range tl.videoClips() {
		if other.ID != id {
			others = append(others, other)
		}
	}

	// Insertion rank: the count of neighbors whose midpoint the dragged
	// clip has passed.
	rank := 0
	for _, other := range others {
		mid := other.PositionStart + other.Duration()/2
		if draggedMid > mid {
			rank++
		}
	}

	order := make([]*MediaClip, 0, len(others)+1)
	order = append(order, others[:rank]...)
	order = append(order, clip)
	order = append(order, others[rank:]...)

	repack(order)
	tl.version++
	return nil
}

// RepackVideoTrack rebuilds video positions from the current rank order:
// each clip starts at the cumulative duration of the clips before it. The
// operation is idempotent on an already-contiguous, correctly-ordered track.
func (tl *Timeline) RepackVideoTrack() {
	repack(tl.videoClips())
	tl.version++
}

func repack(order []*MediaClip) {
	var cursor float64
	for _, clip := range order {
		length := clip.Duration()
		clip.PositionStart = cursor
		clip.PositionEnd = cursor + length
		cursor += length
	}
}

// VideoTrackContiguous reports whether the video track currently satisfies
// the gap-free, non-overlapping packing invariant.
func (tl *Timeline) VideoTrackContiguous() bool {
	video := tl.videoClips()
	if len(video) == 0 {
		return true
	}
	sorted := sort.SliceIsSorted(video, func(i, j int) bool {
		return video[i].PositionStart < video[j].PositionStart
	})
	if !sorted {
		return false
	}
	cursor := video[0].PositionStart
	if cursor != 0 {
		return false
	}
	for _, clip := range video {
		if diff := clip.PositionStart - cursor; diff > sourceEpsilon || diff < -sourceEpsilon {
			return false
		}
		cursor = clip.PositionEnd
	}
	return true
}
