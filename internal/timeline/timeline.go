// Package timeline implements the editing model for composed media projects:
// the collections of placed media clips and text elements, the timing
// invariants that must survive every edit, and the interactive edit
// operations (split, resize, reorder, delete) defined over them.
//
// The video track is ripple-packed: video clips never overlap and never leave
// gaps; deleting or resizing a video clip shifts every subsequent video clip
// so the track stays contiguous. Audio clips may overlap freely and text
// elements may overlap arbitrarily; overlapping text is assigned display
// lanes on demand (see lanes.go) without altering timing.
package timeline

import (
	"fmt"
	"math"
	"sort"

	"montage/internal/timecode"
)

// Timeline owns the element collections for one editing session. All
// mutations go through methods so invariants are enforced at the boundary;
// the collections are never replaced wholesale from outside.
type Timeline struct {
	rate    timecode.FrameRate
	snap    float64
	clips   []*MediaClip
	texts   []*TextElement
	nextSeq int64
	version int64
}

// New constructs an empty timeline quantized to the given frame rate.
func New(rate timecode.FrameRate) *Timeline {
	return &Timeline{rate: rate, snap: DefaultSnapThreshold}
}

// SetSnapThreshold overrides the edge-attraction distance, in seconds.
// Non-positive values are ignored.
func (tl *Timeline) SetSnapThreshold(seconds float64) {
	if seconds > 0 {
		tl.snap = seconds
	}
}

// SnapThreshold returns the active edge-attraction distance in seconds.
func (tl *Timeline) SnapThreshold() float64 {
	return tl.snap
}

// Restore rebuilds a timeline from persisted collections. Elements keep the
// windows they arrive with; insertion order becomes the tie-breaking order.
// The video track is repacked afterwards so a hand-edited or stale document
// cannot introduce gaps or overlaps.
func Restore(rate timecode.FrameRate, clips []*MediaClip, texts []*TextElement) (*Timeline, error) {
	const op = "restore"
	tl := New(rate)
	for _, clip := range clips {
		if clip == nil {
			return nil, outOfBounds(op, "clip is nil")
		}
		if clip.MediaType == MediaImage {
			clip.StartTime = 0
			clip.EndTime = clip.Duration()
		}
		if err := tl.validateClip(op, clip); err != nil {
			return nil, err
		}
		clip.seq = tl.nextSeq
		tl.nextSeq++
		tl.clips = append(tl.clips, clip)
	}
	for _, text := range texts {
		if text == nil {
			return nil, outOfBounds(op, "text is nil")
		}
		if text.PositionEnd <= text.PositionStart {
			return nil, constraintViolation(op, InvariantPositionOrder,
				fmt.Sprintf("window [%v, %v) is empty", text.PositionStart, text.PositionEnd))
		}
		text.seq = tl.nextSeq
		tl.nextSeq++
		tl.texts = append(tl.texts, text)
	}
	tl.RepackVideoTrack()
	tl.version = 0
	return tl, nil
}

// FrameRate returns the frame grid used for snap quantization.
func (tl *Timeline) FrameRate() timecode.FrameRate {
	return tl.rate
}

// Version is incremented by every committed mutation. Snapshots carry the
// version they were taken at so render jobs can be tied to an exact state.
func (tl *Timeline) Version() int64 {
	return tl.version
}

// Clips returns the media clips in collection order. The returned slice is a
// copy; the elements are live pointers and must not be mutated by callers.
func (tl *Timeline) Clips() []*MediaClip {
	out := make([]*MediaClip, len(tl.clips))
	copy(out, tl.clips)
	return out
}

// Texts returns the text elements in collection order, as a copied slice.
func (tl *Timeline) Texts() []*TextElement {
	out := make([]*TextElement, len(tl.texts))
	copy(out, tl.texts)
	return out
}

// Clip returns the media clip with the given id, or nil.
func (tl *Timeline) Clip(id string) *MediaClip {
	if i := tl.clipIndex(id); i >= 0 {
		return tl.clips[i]
	}
	return nil
}

// Text returns the text element with the given id, or nil.
func (tl *Timeline) Text(id string) *TextElement {
	if i := tl.textIndex(id); i >= 0 {
		return tl.texts[i]
	}
	return nil
}

// AddClip inserts a media clip. Video clips are appended to the end of the
// ripple-packed video track regardless of any proposed position; audio and
// image clips keep the window they arrive with. The clip's timeline window is
// derived from its source window and playback speed when unset; a preset
// window must agree with that mapping. Image clips have no intrinsic source
// bound, so their source window mirrors the timeline window instead.
func (tl *Timeline) AddClip(clip *MediaClip) error {
	const op = "add clip"
	if clip == nil {
		return outOfBounds(op, "clip is nil")
	}
	if clip.PositionEnd <= clip.PositionStart {
		window := clip.SourceWindow() / clip.Speed()
		if window <= 0 {
			return constraintViolation(op, InvariantPositionOrder, "clip has no duration")
		}
		clip.PositionEnd = clip.PositionStart + window
	} else if clip.MediaType != MediaImage {
		expected := clip.SourceWindow() / clip.Speed()
		if math.Abs(clip.Duration()-expected) > mappingEpsilon {
			return constraintViolation(op, InvariantSourceMapping, fmt.Sprintf(
				"window %v does not match source window %v at speed %g",
				clip.Duration(), clip.SourceWindow(), clip.Speed()))
		}
	}
	if clip.MediaType == MediaImage {
		clip.StartTime = 0
		clip.EndTime = clip.Duration()
	}
	if err := tl.validateClip(op, clip); err != nil {
		return err
	}
	if clip.MediaType == MediaVideo {
		start := tl.videoTrackEnd()
		length := clip.Duration()
		clip.PositionStart = start
		clip.PositionEnd = start + length
	}
	clip.seq = tl.nextSeq
	tl.nextSeq++
	tl.clips = append(tl.clips, clip)
	tl.version++
	return nil
}

// AddText inserts a text element at its proposed window.
func (tl *Timeline) AddText(text *TextElement) error {
	const op = "add text"
	if text == nil {
		return outOfBounds(op, "text is nil")
	}
	if text.PositionEnd <= text.PositionStart {
		return constraintViolation(op, InvariantPositionOrder,
			fmt.Sprintf("window [%v, %v) is empty", text.PositionStart, text.PositionEnd))
	}
	text.seq = tl.nextSeq
	tl.nextSeq++
	tl.texts = append(tl.texts, text)
	tl.version++
	return nil
}

// Remove deletes an element. Removing a video clip ripples every subsequent
// video clip left by the removed duration so the track stays gap-free.
func (tl *Timeline) Remove(id string) error {
	const op = "remove"
	if i := tl.clipIndex(id); i >= 0 {
		clip := tl.clips[i]
		tl.clips = append(tl.clips[:i], tl.clips[i+1:]...)
		if clip.MediaType == MediaVideo {
			tl.rippleVideoAfter(clip.PositionStart, -clip.Duration())
		}
		tl.version++
		return nil
	}
	if i := tl.textIndex(id); i >= 0 {
		tl.texts = append(tl.texts[:i], tl.texts[i+1:]...)
		tl.version++
		return nil
	}
	return elementNotFound(op, id)
}

// Duplicate copies an element under a fresh id and returns the new id. A
// duplicated video clip is inserted immediately after its original and the
// rest of the track ripples right; audio and text duplicates share their
// original's window.
func (tl *Timeline) Duplicate(id string) (string, error) {
	const op = "duplicate"
	if i := tl.clipIndex(id); i >= 0 {
		original := tl.clips[i]
		cp := original.clone()
		cp.ID = newElementID()
		cp.seq = tl.nextSeq
		tl.nextSeq++
		if cp.MediaType == MediaVideo {
			length := original.Duration()
			tl.rippleVideoAfter(original.PositionEnd, length)
			cp.PositionStart = original.PositionEnd
			cp.PositionEnd = cp.PositionStart + length
		}
		tl.clips = append(tl.clips[:i+1], append([]*MediaClip{cp}, tl.clips[i+1:]...)...)
		tl.version++
		return cp.ID, nil
	}
	if i := tl.textIndex(id); i >= 0 {
		cp := tl.texts[i].clone()
		cp.ID = newElementID()
		cp.seq = tl.nextSeq
		tl.nextSeq++
		tl.texts = append(tl.texts, cp)
		tl.version++
		return cp.ID, nil
	}
	return "", elementNotFound(op, id)
}

// ElementAt returns the topmost visual element active at the given time:
// highest z-index wins, later insertion wins ties. Returns the empty string
// when nothing is active.
func (tl *Timeline) ElementAt(t float64) string {
	var bestID string
	var bestZ int
	var bestSeq int64 = -1
	consider := func(base ElementBase, visual bool) {
		if !visual || !base.ActiveAt(t) {
			return
		}
		if bestSeq < 0 || base.ZIndex > bestZ || (base.ZIndex == bestZ && base.seq > bestSeq) {
			bestID = base.ID
			bestZ = base.ZIndex
			bestSeq = base.seq
		}
	}
	for _, clip := range tl.clips {
		consider(clip.ElementBase, clip.MediaType.Visual())
	}
	for _, text := range tl.texts {
		consider(text.ElementBase, true)
	}
	return bestID
}

// ActiveElements returns the ids of every element whose window contains t,
// in collection order.
func (tl *Timeline) ActiveElements(t float64) []string {
	var ids []string
	for _, clip := range tl.clips {
		if clip.ActiveAt(t) {
			ids = append(ids, clip.ID)
		}
	}
	for _, text := range tl.texts {
		if text.ActiveAt(t) {
			ids = append(ids, text.ID)
		}
	}
	return ids
}

// TotalDuration returns the master timeline length: the furthest positionEnd
// across video content, falling back to audio content when no video exists,
// then to any remaining elements.
func (tl *Timeline) TotalDuration() float64 {
	var video, audio, other float64
	hasVideo := false
	for _, clip := range tl.clips {
		switch {
		case clip.MediaType == MediaVideo:
			hasVideo = true
			if clip.PositionEnd > video {
				video = clip.PositionEnd
			}
		case clip.MediaType == MediaAudio:
			if clip.PositionEnd > audio {
				audio = clip.PositionEnd
			}
		default:
			if clip.PositionEnd > other {
				other = clip.PositionEnd
			}
		}
	}
	for _, text := range tl.texts {
		if text.PositionEnd > other {
			other = text.PositionEnd
		}
	}
	if hasVideo {
		return maxFloat(video, maxFloat(audio, other))
	}
	if audio > 0 {
		return maxFloat(audio, other)
	}
	return other
}

// Clone returns a deep copy of the timeline for use as an immutable render
// snapshot. The copy shares no element pointers with the original.
func (tl *Timeline) Clone() *Timeline {
	cp := &Timeline{
		rate:    tl.rate,
		snap:    tl.snap,
		nextSeq: tl.nextSeq,
		version: tl.version,
		clips:   make([]*MediaClip, len(tl.clips)),
		texts:   make([]*TextElement, len(tl.texts)),
	}
	for i, clip := range tl.clips {
		cp.clips[i] = clip.clone()
	}
	for i, text := range tl.texts {
		cp.texts[i] = text.clone()
	}
	return cp
}

// videoClips returns the video-track clips ordered by positionStart, with
// insertion order breaking ties.
func (tl *Timeline) videoClips() []*MediaClip {
	var video []*MediaClip
	for _, clip := range tl.clips {
		if clip.MediaType == MediaVideo {
			video = append(video, clip)
		}
	}
	sort.SliceStable(video, func(i, j int) bool {
		if video[i].PositionStart != video[j].PositionStart {
			return video[i].PositionStart < video[j].PositionStart
		}
		return video[i].seq < video[j].seq
	})
	return video
}

func (tl *Timeline) videoTrackEnd() float64 {
	var end float64
	for _, clip := range tl.clips {
		if clip.MediaType == MediaVideo && clip.PositionEnd > end {
			end = clip.PositionEnd
		}
	}
	return end
}

// rippleVideoAfter shifts every video clip starting at or after the given
// time by delta seconds.
func (tl *Timeline) rippleVideoAfter(after float64, delta float64) {
	if delta == 0 {
		return
	}
	for _, clip := range tl.clips {
		if clip.MediaType != MediaVideo {
			continue
		}
		if clip.PositionStart >= after {
			clip.PositionStart += delta
			clip.PositionEnd += delta
		}
	}
}

func (tl *Timeline) clipIndex(id string) int {
	for i, clip := range tl.clips {
		if clip.ID == id {
			return i
		}
	}
	return -1
}

func (tl *Timeline) textIndex(id string) int {
	for i, text := range tl.texts {
		if text.ID == id {
			return i
		}
	}
	return -1
}

func (tl *Timeline) validateClip(op string, clip *MediaClip) error {
	if clip.PositionEnd <= clip.PositionStart {
		return constraintViolation(op, InvariantPositionOrder,
			fmt.Sprintf("window [%v, %v) is empty", clip.PositionStart, clip.PositionEnd))
	}
	if clip.MediaType != MediaImage {
		if clip.StartTime < 0 || clip.EndTime <= clip.StartTime {
			return constraintViolation(op, InvariantSourceWindow,
				fmt.Sprintf("source window [%v, %v) is invalid", clip.StartTime, clip.EndTime))
		}
		if clip.SourceDuration > 0 && clip.EndTime > clip.SourceDuration+sourceEpsilon {
			return constraintViolation(op, InvariantSourceWindow,
				fmt.Sprintf("source window end %v exceeds source duration %v", clip.EndTime, clip.SourceDuration))
		}
	}
	return nil
}

// sourceEpsilon absorbs floating-point drift when comparing against the
// immutable source duration.
const sourceEpsilon = 1e-9

// mappingEpsilon tolerates caller-side rounding when a preset timeline window
// is checked against the source window and playback speed.
const mappingEpsilon = 1e-6

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
