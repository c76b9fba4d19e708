package render

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"montage/internal/canvas"
	"montage/internal/services"
	"montage/internal/sources"
	"montage/internal/timeline"
)

// lineHeightFactor vertically offsets successive text lines as a multiple of
// font size.
const lineHeightFactor = 1.2

// Compiler turns timeline snapshots into render graphs. It holds no mutable
// state; one compiler may serve concurrent compilations.
type Compiler struct {
	resolver sources.Resolver
}

// NewCompiler constructs a compiler. The resolver may be nil, in which case
// source existence is not verified at compile time.
func NewCompiler(resolver sources.Resolver) *Compiler {
	return &Compiler{resolver: resolver}
}

// Compile builds the render graph for a timeline snapshot against the given
// output profile. Compilation is all-or-nothing: placeholder clips abort with
// an incomplete-timeline error, unresolvable sources abort with a
// missing-source error, and a timeline with no content at all aborts with an
// empty-timeline error. The snapshot is only read, never mutated.
func (c *Compiler) Compile(ctx context.Context, tl *timeline.Timeline, profile Profile) (*Graph, error) {
	const op = "compile"
	if err := profile.Validate(); err != nil {
		return nil, services.Wrap(services.ErrEncodingFailure, "render", op, "invalid output profile", err)
	}

	clips := tl.Clips()
	texts := tl.Texts()
	if len(clips) == 0 && len(texts) == 0 {
		return nil, services.Wrap(services.ErrEmptyTimeline, "render", op, "timeline has no content", nil)
	}
	if ids := placeholderIDs(clips); len(ids) > 0 {
		return nil, services.Wrap(services.ErrIncompleteTimeline, "render", op,
			fmt.Sprintf("placeholder clips await content: %s", strings.Join(ids, ", ")), nil)
	}

	inputs, inputIndex, err := c.collectInputs(ctx, clips)
	if err != nil {
		return nil, err
	}

	duration := tl.TotalDuration()
	profile.DurationSeconds = duration

	b := &graphBuilder{graph: &Graph{Profile: profile, Inputs: inputs}}

	// Visual chain: base canvas first, then every visual clip composited
	// in z order, then text, then the watermark as the terminal step.
	base := b.add(Node{
		Kind: NodeCanvas,
		Canvas: &CanvasParams{
			Width:    profile.Width,
			Height:   profile.Height,
			Color:    profile.Background,
			Duration: duration,
		},
	})

	for _, clip := range visualClipsInZOrder(clips) {
		base = b.compositeClip(base, clip, inputIndex[clip.Source], profile)
	}
	for _, text := range texts {
		base = b.drawText(base, text)
	}
	if profile.Watermark != nil {
		base = b.drawWatermark(base, profile)
	}
	b.graph.TerminalVideo = base

	// Audio chain: trim, delay, gain per audio-bearing clip, then one mix.
	var audioOutputs []string
	for _, clip := range clips {
		if !clip.MediaType.HasAudio() {
			continue
		}
		audioOutputs = append(audioOutputs, b.audioChain(clip, inputIndex[clip.Source]))
	}
	if len(audioOutputs) > 0 {
		b.graph.TerminalAudio = b.add(Node{
			Kind:   NodeAudioMix,
			Inputs: audioOutputs,
			Mix:    &MixParams{StreamCount: len(audioOutputs), Normalize: false},
		})
	}

	if err := b.graph.Validate(); err != nil {
		return nil, services.Wrap(services.ErrEncodingFailure, "render", op, "compiled graph failed validation", err)
	}
	return b.graph, nil
}

// collectInputs deduplicates clip sources in collection order and verifies
// each resolves when a resolver is configured.
func (c *Compiler) collectInputs(ctx context.Context, clips []*timeline.MediaClip) ([]Input, map[string]int, error) {
	const op = "collect inputs"
	var inputs []Input
	index := make(map[string]int)
	for _, clip := range clips {
		if _, ok := index[clip.Source]; ok {
			continue
		}
		if strings.TrimSpace(clip.Source) == "" {
			return nil, nil, services.Wrap(services.ErrMissingSource, "render", op,
				fmt.Sprintf("clip %s has no source reference", clip.ID), nil)
		}
		if c.resolver != nil {
			if err := c.resolver.Stat(ctx, clip.Source); err != nil {
				return nil, nil, err
			}
		}
		index[clip.Source] = len(inputs)
		inputs = append(inputs, Input{
			Index:     len(inputs),
			Source:    clip.Source,
			MediaType: clip.MediaType,
		})
	}
	return inputs, index, nil
}

func placeholderIDs(clips []*timeline.MediaClip) []string {
	var ids []string
	for _, clip := range clips {
		if clip.IsPlaceholder {
			ids = append(ids, clip.ID)
		}
	}
	return ids
}

// visualClipsInZOrder sorts visual clips by z-index ascending, stable on
// collection (insertion) order so ties keep a deterministic sequence.
func visualClipsInZOrder(clips []*timeline.MediaClip) []*timeline.MediaClip {
	var visual []*timeline.MediaClip
	for _, clip := range clips {
		if clip.MediaType.Visual() {
			visual = append(visual, clip)
		}
	}
	sort.SliceStable(visual, func(i, j int) bool {
		return visual[i].ZIndex < visual[j].ZIndex
	})
	return visual
}

// graphBuilder appends nodes with sequential ids so node sequencing never
// depends on element identifiers.
type graphBuilder struct {
	graph *Graph
	next  int
}

func (b *graphBuilder) add(node Node) string {
	node.ID = fmt.Sprintf("n%d_%s", b.next, node.Kind)
	b.next++
	b.graph.Nodes = append(b.graph.Nodes, node)
	return node.ID
}

// compositeClip emits the per-clip visual chain: trim, transform, shift,
// optional opacity, then the gated overlay onto the running base. It returns
// the overlay node id as the new base.
func (b *graphBuilder) compositeClip(base string, clip *timeline.MediaClip, inputIndex int, profile Profile) string {
	cur := b.add(Node{
		Kind: NodeTrim,
		Trim: &TrimParams{
			InputIndex: inputIndex,
			Start:      clip.StartTime,
			End:        clip.EndTime,
			Speed:      clip.Speed(),
		},
	})

	fit := canvas.ParseFitMode(string(clip.AspectFit))
	frame := clip.Frame
	if frame.Width <= 0 || frame.Height <= 0 {
		srcW, srcH := clip.SourceWidth, clip.SourceHeight
		if srcW <= 0 || srcH <= 0 {
			srcW, srcH = float64(profile.Width), float64(profile.Height)
		}
		frame = canvas.Fit(srcW, srcH, float64(profile.Width), float64(profile.Height), fit, clip.Zoom)
	}
	cur = b.add(Node{
		Kind:   NodeTransform,
		Inputs: []string{cur},
		Transform: &TransformParams{
			Fit:        fit,
			CropToFill: fit.CropsToFill(),
			Frame:      frame,
			Zoom:       clip.Zoom,
		},
	})

	cur = b.add(Node{
		Kind:   NodeShift,
		Inputs: []string{cur},
		Shift:  &ShiftParams{Offset: clip.PositionStart},
	})

	if clip.Opacity != 100 {
		cur = b.add(Node{
			Kind:    NodeOpacity,
			Inputs:  []string{cur},
			Opacity: &OpacityParams{Opacity: clip.Opacity},
		})
	}

	return b.add(Node{
		Kind:   NodeOverlay,
		Inputs: []string{base, cur},
		Overlay: &OverlayParams{
			GateStart: clip.PositionStart,
			GateEnd:   clip.PositionEnd,
			X:         frame.X,
			Y:         frame.Y,
		},
	})
}

// drawText emits one gated draw node per rendered line. The compiled render
// uses the element's absolute position; display lanes are an editor-preview
// concern and never reach the graph.
func (b *graphBuilder) drawText(base string, text *timeline.TextElement) string {
	for i, line := range text.Lines() {
		base = b.add(Node{
			Kind:   NodeDrawText,
			Inputs: []string{base},
			DrawText: &DrawTextParams{
				Text:            line,
				X:               text.X,
				Y:               text.Y + float64(i)*lineHeightFactor*text.FontSize,
				FontSize:        text.FontSize,
				Font:            text.Font,
				Color:           text.Color,
				Align:           text.Align,
				BackgroundColor: text.BackgroundColor,
				GateStart:       text.PositionStart,
				GateEnd:         text.PositionEnd,
			},
		})
	}
	return base
}

// drawWatermark appends the label and icon draw nodes after all user
// content, anchored to a fixed canvas corner.
func (b *graphBuilder) drawWatermark(base string, profile Profile) string {
	wm := profile.Watermark
	x, y := watermarkAnchor(wm, profile)
	base = b.add(Node{
		Kind:   NodeDrawText,
		Inputs: []string{base},
		DrawText: &DrawTextParams{
			Text:      wm.Label,
			X:         x,
			Y:         y,
			FontSize:  24,
			Color:     "#ffffff",
			GateStart: 0,
			GateEnd:   profile.DurationSeconds,
		},
	})
	return b.add(Node{
		Kind:   NodeDrawText,
		Inputs: []string{base},
		DrawText: &DrawTextParams{
			Text:      wm.Icon,
			X:         x,
			Y:         y + 28,
			FontSize:  24,
			Color:     "#ffffff",
			GateStart: 0,
			GateEnd:   profile.DurationSeconds,
		},
	})
}

func watermarkAnchor(wm *Watermark, profile Profile) (float64, float64) {
	margin := wm.Margin
	if margin <= 0 {
		margin = 24
	}
	switch wm.Corner {
	case "top-left":
		return margin, margin
	case "top-right":
		return float64(profile.Width) - margin, margin
	case "bottom-left":
		return margin, float64(profile.Height) - margin
	default: // bottom-right
		return float64(profile.Width) - margin, float64(profile.Height) - margin
	}
}

// audioChain emits trim, delay, and gain for one audio-bearing clip and
// returns the gain node id.
func (b *graphBuilder) audioChain(clip *timeline.MediaClip, inputIndex int) string {
	cur := b.add(Node{
		Kind: NodeAudioTrim,
		Trim: &TrimParams{
			InputIndex: inputIndex,
			Start:      clip.StartTime,
			End:        clip.EndTime,
			Speed:      clip.Speed(),
		},
	})
	cur = b.add(Node{
		Kind:   NodeAudioDelay,
		Inputs: []string{cur},
		Delay:  &DelayParams{Offset: clip.PositionStart},
	})
	return b.add(Node{
		Kind:   NodeAudioGain,
		Inputs: []string{cur},
		Gain:   &GainParams{Linear: timeline.LinearGain(clip.Volume)},
	})
}
