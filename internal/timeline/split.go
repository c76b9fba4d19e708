package timeline

import "fmt"

// Split cuts an element in two at the given time. The cut is snap-resolved
// (frame-quantized, then attracted to nearby element edges) and clamped to
// stay strictly inside the original window. For media clips the source window
// is partitioned at the same fractional position as the timeline window; for
// text elements only the timing window is split.
//
// The original element is replaced in place by two new elements with fresh
// ids. The ids of the left and right halves are returned in that order.
func (tl *Timeline) Split(id string, cutTime float64) (string, string, error) {
	const op = "split"
	if i := tl.clipIndex(id); i >= 0 {
		return tl.splitClip(op, i, cutTime)
	}
	if i := tl.textIndex(id); i >= 0 {
		return tl.splitText(op, i, cutTime)
	}
	return "", "", elementNotFound(op, id)
}

func (tl *Timeline) splitClip(op string, index int, cutTime float64) (string, string, error) {
	clip := tl.clips[index]
	cut, err := tl.resolveCut(op, clip.ElementBase, cutTime)
	if err != nil {
		return "", "", err
	}

	ratio := (cut - clip.PositionStart) / clip.Duration()
	sourceCut := clip.StartTime + ratio*clip.SourceWindow()

	left := clip.clone()
	left.ID = newElementID()
	left.seq = tl.nextSeq
	left.PositionEnd = cut
	left.EndTime = sourceCut

	right := clip.clone()
	right.ID = newElementID()
	right.seq = tl.nextSeq + 1
	right.PositionStart = cut
	right.StartTime = sourceCut

	tl.nextSeq += 2
	tl.clips = append(tl.clips[:index], append([]*MediaClip{left, right}, tl.clips[index+1:]...)...)
	tl.version++
	return left.ID, right.ID, nil
}

func (tl *Timeline) splitText(op string, index int, cutTime float64) (string, string, error) {
	text := tl.texts[index]
	cut, err := tl.resolveCut(op, text.ElementBase, cutTime)
	if err != nil {
		return "", "", err
	}

	left := text.clone()
	left.ID = newElementID()
	left.seq = tl.nextSeq
	left.PositionEnd = cut

	right := text.clone()
	right.ID = newElementID()
	right.seq = tl.nextSeq + 1
	right.PositionStart = cut

	tl.nextSeq += 2
	tl.texts = append(tl.texts[:index], append([]*TextElement{left, right}, tl.texts[index+1:]...)...)
	tl.version++
	return left.ID, right.ID, nil
}

// resolveCut checks the split precondition, snap-resolves the cut, and clamps
// it to leave a margin inside each edge of the original window.
func (tl *Timeline) resolveCut(op string, base ElementBase, cutTime float64) (float64, error) {
	if cutTime <= base.PositionStart || cutTime >= base.PositionEnd {
		return 0, outOfBounds(op, fmt.Sprintf(
			"cut %v outside window [%v, %v)", cutTime, base.PositionStart, base.PositionEnd))
	}
	cut := tl.ResolveSnap(cutTime, base.ID)
	low := base.PositionStart + SplitEdgeMargin
	high := base.PositionEnd - SplitEdgeMargin
	if low > high {
		// Window too small to honor both margins; cut in the middle.
		return base.PositionStart + base.Duration()/2, nil
	}
	if cut < low {
		cut = low
	}
	if cut > high {
		cut = high
	}
	return cut, nil
}
