package timeline_test

import (
	"errors"
	"math"
	"testing"

	"montage/internal/services"
	"montage/internal/timecode"
	"montage/internal/timeline"
)

func newTimeline(t *testing.T) *timeline.Timeline {
	t.Helper()
	rate, err := timecode.NewFrameRate(30)
	if err != nil {
		t.Fatalf("NewFrameRate failed: %v", err)
	}
	return timeline.New(rate)
}

func addVideo(t *testing.T, tl *timeline.Timeline, source string, sourceDuration float64) *timeline.MediaClip {
	t.Helper()
	clip := timeline.NewMediaClip(timeline.MediaVideo, source, sourceDuration)
	if err := tl.AddClip(clip); err != nil {
		t.Fatalf("AddClip(%s) failed: %v", source, err)
	}
	return clip
}

func addAudio(t *testing.T, tl *timeline.Timeline, source string, start, sourceDuration float64) *timeline.MediaClip {
	t.Helper()
	clip := timeline.NewMediaClip(timeline.MediaAudio, source, sourceDuration)
	clip.PositionStart = start
	clip.PositionEnd = start + sourceDuration
	if err := tl.AddClip(clip); err != nil {
		t.Fatalf("AddClip(%s) failed: %v", source, err)
	}
	return clip
}

func addText(t *testing.T, tl *timeline.Timeline, text string, start, end float64) *timeline.TextElement {
	t.Helper()
	elem := timeline.NewTextElement(text)
	elem.PositionStart = start
	elem.PositionEnd = end
	if err := tl.AddText(elem); err != nil {
		t.Fatalf("AddText(%q) failed: %v", text, err)
	}
	return elem
}

func TestVideoClipsAppendContiguously(t *testing.T) {
	tl := newTimeline(t)
	a := addVideo(t, tl, "a.mp4", 5)
	b := addVideo(t, tl, "b.mp4", 3)

	if a.PositionStart != 0 || a.PositionEnd != 5 {
		t.Fatalf("first clip window [%v, %v)", a.PositionStart, a.PositionEnd)
	}
	if b.PositionStart != 5 || b.PositionEnd != 8 {
		t.Fatalf("second clip window [%v, %v)", b.PositionStart, b.PositionEnd)
	}
	if got := tl.TotalDuration(); got != 8 {
		t.Fatalf("TotalDuration = %v, want 8", got)
	}
	if !tl.VideoTrackContiguous() {
		t.Fatal("video track not contiguous after inserts")
	}
}

func TestDeleteRipplesSubsequentVideo(t *testing.T) {
	tl := newTimeline(t)
	a := addVideo(t, tl, "a.mp4", 5)
	b := addVideo(t, tl, "b.mp4", 3)

	if err := tl.Remove(a.ID); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if b.PositionStart != 0 || b.PositionEnd != 3 {
		t.Fatalf("surviving clip window [%v, %v), want [0, 3)", b.PositionStart, b.PositionEnd)
	}
	if got := tl.TotalDuration(); got != 3 {
		t.Fatalf("TotalDuration = %v, want 3", got)
	}
}

func TestDeleteDoesNotMoveAudioOrText(t *testing.T) {
	tl := newTimeline(t)
	a := addVideo(t, tl, "a.mp4", 5)
	addVideo(t, tl, "b.mp4", 3)
	music := addAudio(t, tl, "music.mp3", 2, 10)
	caption := addText(t, tl, "hello", 1, 4)

	if err := tl.Remove(a.ID); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if music.PositionStart != 2 {
		t.Fatalf("audio moved to %v", music.PositionStart)
	}
	if caption.PositionStart != 1 {
		t.Fatalf("text moved to %v", caption.PositionStart)
	}
}

func TestRemoveUnknownElement(t *testing.T) {
	tl := newTimeline(t)
	err := tl.Remove("nope")
	if !errors.Is(err, services.ErrOutOfBounds) {
		t.Fatalf("expected out-of-bounds error, got %v", err)
	}
}

func TestTotalDurationFallsBackToAudio(t *testing.T) {
	tl := newTimeline(t)
	addAudio(t, tl, "music.mp3", 0, 12)
	if got := tl.TotalDuration(); got != 12 {
		t.Fatalf("TotalDuration = %v, want 12", got)
	}
}

func TestActiveElementsAndElementAt(t *testing.T) {
	tl := newTimeline(t)
	a := addVideo(t, tl, "a.mp4", 5)
	caption := addText(t, tl, "over", 1, 4)
	caption.ZIndex = 5

	active := tl.ActiveElements(2)
	if len(active) != 2 {
		t.Fatalf("ActiveElements(2) = %v", active)
	}
	if got := tl.ElementAt(2); got != caption.ID {
		t.Fatalf("ElementAt(2) = %v, want text element on top", got)
	}
	if got := tl.ElementAt(4.5); got != a.ID {
		t.Fatalf("ElementAt(4.5) = %v, want video clip", got)
	}
	if got := tl.ElementAt(10); got != "" {
		t.Fatalf("ElementAt(10) = %v, want nothing", got)
	}
}

func TestDuplicateVideoInsertsAfterOriginal(t *testing.T) {
	tl := newTimeline(t)
	a := addVideo(t, tl, "a.mp4", 5)
	b := addVideo(t, tl, "b.mp4", 3)

	dupID, err := tl.Duplicate(a.ID)
	if err != nil {
		t.Fatalf("Duplicate failed: %v", err)
	}
	dup := tl.Clip(dupID)
	if dup == nil {
		t.Fatal("duplicate not found")
	}
	if dup.ID == a.ID {
		t.Fatal("duplicate shares id with original")
	}
	if dup.PositionStart != 5 || dup.PositionEnd != 10 {
		t.Fatalf("duplicate window [%v, %v), want [5, 10)", dup.PositionStart, dup.PositionEnd)
	}
	if b.PositionStart != 10 || b.PositionEnd != 13 {
		t.Fatalf("subsequent clip window [%v, %v), want [10, 13)", b.PositionStart, b.PositionEnd)
	}
	if !tl.VideoTrackContiguous() {
		t.Fatal("video track not contiguous after duplicate")
	}
}

func TestCloneIsDeepAndVersioned(t *testing.T) {
	tl := newTimeline(t)
	a := addVideo(t, tl, "a.mp4", 5)

	snapshot := tl.Clone()
	if snapshot.Version() != tl.Version() {
		t.Fatalf("snapshot version %d != %d", snapshot.Version(), tl.Version())
	}

	if err := tl.Resize(a.ID, timeline.EdgeEnd, 3); err != nil {
		t.Fatalf("Resize failed: %v", err)
	}
	snapClip := snapshot.Clip(a.ID)
	if snapClip == nil {
		t.Fatal("snapshot lost clip")
	}
	if math.Abs(snapClip.PositionEnd-5) > 1e-9 {
		t.Fatalf("snapshot mutated: end = %v", snapClip.PositionEnd)
	}
	if tl.Version() == snapshot.Version() {
		t.Fatal("mutation did not bump version")
	}
}

func TestInvariantsHoldAcrossEditSequence(t *testing.T) {
	tl := newTimeline(t)
	a := addVideo(t, tl, "a.mp4", 6)
	b := addVideo(t, tl, "b.mp4", 4)
	c := addVideo(t, tl, "c.mp4", 8)
	addAudio(t, tl, "music.mp3", 0, 20)
	addText(t, tl, "title", 0, 3)

	if _, _, err := tl.Split(a.ID, 3); err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if err := tl.Resize(b.ID, timeline.EdgeEnd, 2); err != nil {
		t.Fatalf("Resize failed: %v", err)
	}
	if err := tl.Remove(c.ID); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if err := tl.MoveVideoClip(b.ID, 0); err != nil {
		t.Fatalf("MoveVideoClip failed: %v", err)
	}

	if !tl.VideoTrackContiguous() {
		t.Fatal("video track lost contiguity")
	}
	for _, clip := range tl.Clips() {
		if clip.PositionStart >= clip.PositionEnd {
			t.Fatalf("clip %s has empty window [%v, %v)", clip.ID, clip.PositionStart, clip.PositionEnd)
		}
	}
	for _, text := range tl.Texts() {
		if text.PositionStart >= text.PositionEnd {
			t.Fatalf("text %s has empty window", text.ID)
		}
	}
}

func addImage(t *testing.T, tl *timeline.Timeline, source string, start, end float64) *timeline.MediaClip {
	t.Helper()
	clip := timeline.NewMediaClip(timeline.MediaImage, source, 0)
	clip.PositionStart = start
	clip.PositionEnd = end
	if err := tl.AddClip(clip); err != nil {
		t.Fatalf("AddClip(%s) failed: %v", source, err)
	}
	return clip
}

func TestAddClipMirrorsImageSourceWindow(t *testing.T) {
	tl := newTimeline(t)
	clip := addImage(t, tl, "logo.png", 1, 6)

	if clip.StartTime != 0 || clip.EndTime != 5 {
		t.Fatalf("image source window [%v, %v), want [0, 5)", clip.StartTime, clip.EndTime)
	}
	if clip.SourceWindow() != clip.Duration() {
		t.Fatalf("source window %v does not mirror timeline window %v", clip.SourceWindow(), clip.Duration())
	}
}

func TestResizeImageKeepsSourceWindowMirrored(t *testing.T) {
	tl := newTimeline(t)
	clip := addImage(t, tl, "logo.png", 1, 6)

	if err := tl.Resize(clip.ID, timeline.EdgeEnd, 3); err != nil {
		t.Fatalf("Resize failed: %v", err)
	}
	if clip.PositionStart != 1 || clip.PositionEnd != 4 {
		t.Fatalf("image window [%v, %v), want [1, 4)", clip.PositionStart, clip.PositionEnd)
	}
	if clip.StartTime != 0 || clip.EndTime != 3 {
		t.Fatalf("image source window [%v, %v), want [0, 3)", clip.StartTime, clip.EndTime)
	}
}

func TestAddClipRejectsMismatchedPresetWindow(t *testing.T) {
	tl := newTimeline(t)
	clip := timeline.NewMediaClip(timeline.MediaAudio, "music.mp3", 4)
	clip.PositionStart = 0
	clip.PositionEnd = 6

	err := tl.AddClip(clip)
	if !errors.Is(err, services.ErrConstraintViolation) {
		t.Fatalf("AddClip = %v, want constraint violation", err)
	}
}

func TestAddClipAcceptsPresetWindowMatchingSpeed(t *testing.T) {
	tl := newTimeline(t)
	clip := timeline.NewMediaClip(timeline.MediaAudio, "music.mp3", 4)
	clip.PlaybackSpeed = 2
	clip.PositionStart = 0
	clip.PositionEnd = 2

	if err := tl.AddClip(clip); err != nil {
		t.Fatalf("AddClip failed: %v", err)
	}
}
