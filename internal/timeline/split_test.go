package timeline_test

import (
	"errors"
	"math"
	"testing"

	"montage/internal/services"
	"montage/internal/timeline"
)

func TestSplitPartitionsTimelineAndSource(t *testing.T) {
	tl := newTimeline(t)
	clip := addVideo(t, tl, "a.mp4", 10)

	leftID, rightID, err := tl.Split(clip.ID, 4)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if tl.Clip(clip.ID) != nil {
		t.Fatal("original clip survived the split")
	}
	left, right := tl.Clip(leftID), tl.Clip(rightID)
	if left == nil || right == nil {
		t.Fatal("split halves missing")
	}

	if left.PositionStart != 0 || math.Abs(left.PositionEnd-4) > 1e-9 {
		t.Fatalf("left window [%v, %v), want [0, 4)", left.PositionStart, left.PositionEnd)
	}
	if math.Abs(right.PositionStart-4) > 1e-9 || right.PositionEnd != 10 {
		t.Fatalf("right window [%v, %v), want [4, 10)", right.PositionStart, right.PositionEnd)
	}
	if math.Abs(left.EndTime-4) > 1e-9 || math.Abs(right.StartTime-4) > 1e-9 {
		t.Fatalf("source cut at %v / %v, want 4", left.EndTime, right.StartTime)
	}
	if left.StartTime != 0 || right.EndTime != 10 {
		t.Fatalf("outer source edges moved: [%v, %v]", left.StartTime, right.EndTime)
	}
}

func TestSplitPreservesTrimAndSpeedFields(t *testing.T) {
	tl := newTimeline(t)
	clip := timeline.NewMediaClip(timeline.MediaVideo, "a.mp4", 20)
	clip.StartTime = 4
	clip.EndTime = 16
	clip.Volume = 80
	clip.ZIndex = 3
	if err := tl.AddClip(clip); err != nil {
		t.Fatalf("AddClip failed: %v", err)
	}
	// Window [0, 12) over source [4, 16).

	leftID, rightID, err := tl.Split(clip.ID, 6)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	left, right := tl.Clip(leftID), tl.Clip(rightID)

	if math.Abs(left.EndTime-10) > 1e-9 || math.Abs(right.StartTime-10) > 1e-9 {
		t.Fatalf("source cut %v / %v, want 10", left.EndTime, right.StartTime)
	}
	for _, half := range []*timeline.MediaClip{left, right} {
		if half.Volume != 80 || half.ZIndex != 3 {
			t.Fatalf("copied fields lost: volume=%v z=%d", half.Volume, half.ZIndex)
		}
	}
}

func TestSplitSnapsToNearbyEdge(t *testing.T) {
	tl := newTimeline(t)
	clip := addVideo(t, tl, "a.mp4", 10)
	addText(t, tl, "marker", 0, 4.02)

	_, rightID, err := tl.Split(clip.ID, 4.0)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	right := tl.Clip(rightID)
	if math.Abs(right.PositionStart-4.02) > 1e-9 {
		t.Fatalf("cut at %v, want snap to 4.02", right.PositionStart)
	}
}

func TestSplitOutsideWindowFails(t *testing.T) {
	tl := newTimeline(t)
	clip := addVideo(t, tl, "a.mp4", 10)

	for _, cut := range []float64{-1, 0, 10, 11} {
		if _, _, err := tl.Split(clip.ID, cut); !errors.Is(err, services.ErrOutOfBounds) {
			t.Fatalf("Split at %v: expected out-of-bounds, got %v", cut, err)
		}
	}
}

func TestSplitClampsCutInsideMargins(t *testing.T) {
	tl := newTimeline(t)
	clip := addVideo(t, tl, "a.mp4", 10)

	leftID, _, err := tl.Split(clip.ID, 0.001)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	left := tl.Clip(leftID)
	if left.PositionEnd < 0.01 {
		t.Fatalf("cut %v violates edge margin", left.PositionEnd)
	}
}

func TestSplitTextKeepsContent(t *testing.T) {
	tl := newTimeline(t)
	elem := addText(t, tl, "two\nlines", 0, 6)

	leftID, rightID, err := tl.Split(elem.ID, 2)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	left, right := tl.Text(leftID), tl.Text(rightID)
	if left == nil || right == nil {
		t.Fatal("split halves missing")
	}
	if left.Text != "two\nlines" || right.Text != "two\nlines" {
		t.Fatal("text content not copied to both halves")
	}
	if math.Abs(left.PositionEnd-2) > 1e-9 || math.Abs(right.PositionStart-2) > 1e-9 {
		t.Fatalf("text cut at %v / %v", left.PositionEnd, right.PositionStart)
	}
}
