package timeline_test

import (
	"math"
	"testing"
)

func TestMoveClipPastMidpointSwapsOrder(t *testing.T) {
	tl := newTimeline(t)
	a := addVideo(t, tl, "a.mp4", 5)
	b := addVideo(t, tl, "b.mp4", 3)

	// Drag b so its midpoint lands before a's midpoint (2.5).
	if err := tl.MoveVideoClip(b.ID, 0); err != nil {
		t.Fatalf("MoveVideoClip failed: %v", err)
	}
	if b.PositionStart != 0 || math.Abs(b.PositionEnd-3) > 1e-9 {
		t.Fatalf("dragged clip window [%v, %v), want [0, 3)", b.PositionStart, b.PositionEnd)
	}
	if math.Abs(a.PositionStart-3) > 1e-9 || math.Abs(a.PositionEnd-8) > 1e-9 {
		t.Fatalf("displaced clip window [%v, %v), want [3, 8)", a.PositionStart, a.PositionEnd)
	}
}

func TestMoveClipShortOfMidpointKeepsOrder(t *testing.T) {
	tl := newTimeline(t)
	a := addVideo(t, tl, "a.mp4", 5)
	b := addVideo(t, tl, "b.mp4", 3)

	// Dragging b to 1.5 puts its midpoint at 3.0, still past a's midpoint
	// of 2.5, so the ranked order is unchanged and repack restores positions.
	if err := tl.MoveVideoClip(b.ID, 1.5); err != nil {
		t.Fatalf("MoveVideoClip failed: %v", err)
	}
	if a.PositionStart != 0 || b.PositionStart != 5 {
		t.Fatalf("order changed: a=%v b=%v", a.PositionStart, b.PositionStart)
	}
}

func TestRepackIsIdempotent(t *testing.T) {
	tl := newTimeline(t)
	addVideo(t, tl, "a.mp4", 5)
	addVideo(t, tl, "b.mp4", 3)
	c := addVideo(t, tl, "c.mp4", 2)

	if err := tl.MoveVideoClip(c.ID, 0); err != nil {
		t.Fatalf("MoveVideoClip failed: %v", err)
	}

	capture := func() [][2]float64 {
		var out [][2]float64
		for _, clip := range tl.Clips() {
			out = append(out, [2]float64{clip.PositionStart, clip.PositionEnd})
		}
		return out
	}
	first := capture()
	tl.RepackVideoTrack()
	second := capture()

	if len(first) != len(second) {
		t.Fatalf("clip count changed: %d -> %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("repack moved clip %d: %v -> %v", i, first[i], second[i])
		}
	}
	if !tl.VideoTrackContiguous() {
		t.Fatal("repacked track not contiguous")
	}
}

func TestMoveClipPreservesDurations(t *testing.T) {
	tl := newTimeline(t)
	a := addVideo(t, tl, "a.mp4", 5)
	b := addVideo(t, tl, "b.mp4", 3)
	c := addVideo(t, tl, "c.mp4", 2)

	if err := tl.MoveVideoClip(a.ID, 9); err != nil {
		t.Fatalf("MoveVideoClip failed: %v", err)
	}
	if math.Abs(a.Duration()-5) > 1e-9 || math.Abs(b.Duration()-3) > 1e-9 || math.Abs(c.Duration()-2) > 1e-9 {
		t.Fatal("reorder changed a duration")
	}
	if b.PositionStart != 0 || math.Abs(c.PositionStart-3) > 1e-9 || math.Abs(a.PositionStart-5) > 1e-9 {
		t.Fatalf("unexpected order: a=%v b=%v c=%v", a.PositionStart, b.PositionStart, c.PositionStart)
	}
}
