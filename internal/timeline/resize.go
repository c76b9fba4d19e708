package timeline

import "fmt"

// Edge selects which end of an element a resize gesture drags.
type Edge string

const (
	EdgeStart Edge = "start"
	EdgeEnd   Edge = "end"
)

// Resize trims an element to the proposed duration in seconds. The duration
// is converted to whole frames and floored at MinClipDuration.
//
// Video clips only support end-edge resize (the ripple-packed track fixes
// their start); the new end is silently capped so the implied source end
// never exceeds the source duration, and every subsequent video clip ripples
// by the size delta so the track stays gap-free.
//
// Audio clips snap their dragged edge against video clip end-times so audio
// can be trimmed flush to a cut. Video resize never snaps to audio edges.
func (tl *Timeline) Resize(id string, edge Edge, proposedDuration float64) error {
	const op = "resize"
	if edge != EdgeStart && edge != EdgeEnd {
		return outOfBounds(op, fmt.Sprintf("unknown edge %q", edge))
	}
	if i := tl.clipIndex(id); i >= 0 {
		return tl.resizeClip(op, tl.clips[i], edge, proposedDuration)
	}
	if i := tl.textIndex(id); i >= 0 {
		return tl.resizeText(op, tl.texts[i], edge, proposedDuration)
	}
	return elementNotFound(op, id)
}

func (tl *Timeline) resizeClip(op string, clip *MediaClip, edge Edge, proposedDuration float64) error {
	duration := tl.quantizeDuration(proposedDuration)

	switch clip.MediaType {
	case MediaVideo:
		if edge == EdgeStart {
			return outOfBounds(op, "start-edge resize is not supported for video clips")
		}
		return tl.resizeVideoEnd(clip, duration)
	case MediaAudio:
		return tl.resizeAudio(op, clip, edge, duration)
	default:
		return tl.resizeImage(clip, edge, duration)
	}
}

// resizeVideoEnd applies the source-bound cap and ripples the track. The cap
// is a silent clamp: the source duration is a hard physical limit, not a
// user-correctable input.
func (tl *Timeline) resizeVideoEnd(clip *MediaClip, duration float64) error {
	capped := false
	if clip.SourceDuration > 0 {
		maxDuration := (clip.SourceDuration - clip.StartTime) / clip.Speed()
		if duration > maxDuration {
			duration = maxDuration
			capped = true
		}
	}

	oldEnd := clip.PositionEnd
	clip.PositionEnd = clip.PositionStart + duration
	if capped {
		clip.EndTime = clip.SourceDuration
	} else {
		clip.EndTime = clip.StartTime + duration*clip.Speed()
	}

	// Shift everything after the old end so the track stays contiguous.
	// Audio and text are never moved by a video resize.
	tl.rippleVideoAfterExcept(oldEnd, clip.PositionEnd-oldEnd, clip.ID)
	tl.version++
	return nil
}

func (tl *Timeline) resizeAudio(op string, clip *MediaClip, edge Edge, duration float64) error {
	if edge == EdgeEnd {
		newEnd := clip.PositionStart + duration
		newEnd = attract(newEnd, tl.videoEndTargets(clip.ID), tl.snap)
		if newEnd <= clip.PositionStart {
			return constraintViolation(op, InvariantPositionOrder,
				fmt.Sprintf("resized window [%v, %v) is empty", clip.PositionStart, newEnd))
		}
		sourceWindow := (newEnd - clip.PositionStart) * clip.Speed()
		if clip.SourceDuration > 0 && clip.StartTime+sourceWindow > clip.SourceDuration+sourceEpsilon {
			return constraintViolation(op, InvariantSourceWindow, fmt.Sprintf(
				"implied source end %v exceeds source duration %v",
				clip.StartTime+sourceWindow, clip.SourceDuration))
		}
		clip.PositionEnd = newEnd
		clip.EndTime = clip.StartTime + sourceWindow
		tl.version++
		return nil
	}

	newStart := clip.PositionEnd - duration
	newStart = attract(newStart, tl.videoEndTargets(clip.ID), tl.snap)
	if newStart >= clip.PositionEnd {
		return constraintViolation(op, InvariantPositionOrder,
			fmt.Sprintf("resized window [%v, %v) is empty", newStart, clip.PositionEnd))
	}
	sourceShift := (newStart - clip.PositionStart) * clip.Speed()
	newStartTime := clip.StartTime + sourceShift
	if newStartTime < -sourceEpsilon {
		return constraintViolation(op, InvariantSourceWindow,
			fmt.Sprintf("implied source start %v is before the source", newStartTime))
	}
	if newStartTime < 0 {
		newStartTime = 0
	}
	clip.PositionStart = newStart
	clip.StartTime = newStartTime
	tl.version++
	return nil
}

// resizeImage adjusts an image clip, which has no intrinsic source bound; the
// source window simply mirrors the timeline window.
func (tl *Timeline) resizeImage(clip *MediaClip, edge Edge, duration float64) error {
	if edge == EdgeStart {
		clip.PositionStart = clip.PositionEnd - duration
	} else {
		clip.PositionEnd = clip.PositionStart + duration
	}
	clip.StartTime = 0
	clip.EndTime = clip.Duration()
	tl.version++
	return nil
}

func (tl *Timeline) resizeText(op string, text *TextElement, edge Edge, proposedDuration float64) error {
	duration := tl.quantizeDuration(proposedDuration)
	if edge == EdgeStart {
		text.PositionStart = text.PositionEnd - duration
	} else {
		text.PositionEnd = text.PositionStart + duration
	}
	tl.version++
	return nil
}

// quantizeDuration converts a proposed duration to whole frames and applies
// the minimum-duration floor.
func (tl *Timeline) quantizeDuration(proposed float64) float64 {
	duration := tl.rate.Seconds(tl.rate.Frames(proposed))
	if duration < MinClipDuration {
		duration = MinClipDuration
	}
	return duration
}

// rippleVideoAfterExcept shifts video clips starting at or after the given
// time, skipping the clip that triggered the ripple.
func (tl *Timeline) rippleVideoAfterExcept(after, delta float64, exceptID string) {
	if delta == 0 {
		return
	}
	for _, clip := range tl.clips {
		if clip.MediaType != MediaVideo || clip.ID == exceptID {
			continue
		}
		if clip.PositionStart >= after-sourceEpsilon {
			clip.PositionStart += delta
			clip.PositionEnd += delta
		}
	}
}
