package timeline_test

import (
	"errors"
	"math"
	"testing"

	"montage/internal/services"
	"montage/internal/timeline"
)

func TestResizeVideoCapsAtSourceDuration(t *testing.T) {
	tl := newTimeline(t)
	clip := timeline.NewMediaClip(timeline.MediaVideo, "a.mp4", 10)
	clip.EndTime = 5
	if err := tl.AddClip(clip); err != nil {
		t.Fatalf("AddClip failed: %v", err)
	}

	// Requesting far past the source bound clamps silently, no error.
	if err := tl.Resize(clip.ID, timeline.EdgeEnd, 60); err != nil {
		t.Fatalf("Resize failed: %v", err)
	}
	if clip.EndTime != 10 {
		t.Fatalf("EndTime = %v, want exactly sourceDuration 10", clip.EndTime)
	}
	if math.Abs(clip.PositionEnd-10) > 1e-9 {
		t.Fatalf("PositionEnd = %v, want 10", clip.PositionEnd)
	}
}

func TestResizeVideoRipplesSubsequentClips(t *testing.T) {
	tl := newTimeline(t)
	a := addVideo(t, tl, "a.mp4", 5)
	b := addVideo(t, tl, "b.mp4", 3)
	music := addAudio(t, tl, "music.mp3", 1, 20)

	if err := tl.Resize(a.ID, timeline.EdgeEnd, 3); err != nil {
		t.Fatalf("Resize failed: %v", err)
	}
	if math.Abs(b.PositionStart-3) > 1e-9 {
		t.Fatalf("subsequent clip start = %v, want 3", b.PositionStart)
	}
	if music.PositionStart != 1 {
		t.Fatalf("audio moved by video resize: start = %v", music.PositionStart)
	}
	if !tl.VideoTrackContiguous() {
		t.Fatal("video track lost contiguity after resize")
	}
}

func TestResizeVideoDerivesSourceEnd(t *testing.T) {
	tl := newTimeline(t)
	clip := timeline.NewMediaClip(timeline.MediaVideo, "a.mp4", 20)
	clip.PlaybackSpeed = 2
	clip.EndTime = 20
	if err := tl.AddClip(clip); err != nil {
		t.Fatalf("AddClip failed: %v", err)
	}
	// Window is 10s of timeline covering 20s of source at 2x.

	if err := tl.Resize(clip.ID, timeline.EdgeEnd, 4); err != nil {
		t.Fatalf("Resize failed: %v", err)
	}
	if math.Abs(clip.EndTime-8) > 1e-9 {
		t.Fatalf("EndTime = %v, want 8 (4s at 2x)", clip.EndTime)
	}
}

func TestResizeVideoStartEdgeRejected(t *testing.T) {
	tl := newTimeline(t)
	clip := addVideo(t, tl, "a.mp4", 5)
	err := tl.Resize(clip.ID, timeline.EdgeStart, 3)
	if !errors.Is(err, services.ErrOutOfBounds) {
		t.Fatalf("expected out-of-bounds, got %v", err)
	}
}

func TestResizeFloorsAtMinimumDuration(t *testing.T) {
	tl := newTimeline(t)
	clip := addVideo(t, tl, "a.mp4", 5)
	if err := tl.Resize(clip.ID, timeline.EdgeEnd, 0.01); err != nil {
		t.Fatalf("Resize failed: %v", err)
	}
	if math.Abs(clip.Duration()-timeline.MinClipDuration) > 1e-9 {
		t.Fatalf("duration = %v, want floor %v", clip.Duration(), timeline.MinClipDuration)
	}
}

func TestResizeAudioSnapsToVideoEnd(t *testing.T) {
	tl := newTimeline(t)
	addVideo(t, tl, "a.mp4", 5)
	music := addAudio(t, tl, "music.mp3", 0, 20)

	// 5.03 is within the snap threshold of the video cut at 5.0.
	if err := tl.Resize(music.ID, timeline.EdgeEnd, 5.03); err != nil {
		t.Fatalf("Resize failed: %v", err)
	}
	if math.Abs(music.PositionEnd-5) > 1e-9 {
		t.Fatalf("audio end = %v, want snap to 5", music.PositionEnd)
	}
	if math.Abs(music.EndTime-5) > 1e-9 {
		t.Fatalf("audio source end = %v, want 5", music.EndTime)
	}
}

func TestResizeVideoIgnoresAudioEdges(t *testing.T) {
	tl := newTimeline(t)
	clip := addVideo(t, tl, "a.mp4", 10)
	addAudio(t, tl, "music.mp3", 0, 4.02)

	if err := tl.Resize(clip.ID, timeline.EdgeEnd, 4); err != nil {
		t.Fatalf("Resize failed: %v", err)
	}
	if math.Abs(clip.PositionEnd-4) > 1e-9 {
		t.Fatalf("video end = %v, want 4 (no snap to audio edge)", clip.PositionEnd)
	}
}

func TestResizeAudioBeyondSourceRejected(t *testing.T) {
	tl := newTimeline(t)
	music := addAudio(t, tl, "music.mp3", 0, 5)
	err := tl.Resize(music.ID, timeline.EdgeEnd, 9)
	if !errors.Is(err, services.ErrConstraintViolation) {
		t.Fatalf("expected constraint violation, got %v", err)
	}
	if music.PositionEnd != 5 {
		t.Fatalf("rejected edit mutated clip: end = %v", music.PositionEnd)
	}
}

func TestResizeAudioStartEdgeTrimsSource(t *testing.T) {
	tl := newTimeline(t)
	music := addAudio(t, tl, "music.mp3", 0, 10)

	if err := tl.Resize(music.ID, timeline.EdgeStart, 6); err != nil {
		t.Fatalf("Resize failed: %v", err)
	}
	if math.Abs(music.PositionStart-4) > 1e-9 {
		t.Fatalf("audio start = %v, want 4", music.PositionStart)
	}
	if math.Abs(music.StartTime-4) > 1e-9 {
		t.Fatalf("audio source start = %v, want 4", music.StartTime)
	}
	if music.PositionEnd != 10 || music.EndTime != 10 {
		t.Fatalf("end edge moved: [%v, %v)", music.PositionEnd, music.EndTime)
	}
}
