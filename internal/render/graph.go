// Package render compiles a timeline snapshot into an ordered render graph:
// a DAG of typed processing nodes (trim, transform, composite, delay, gain,
// mix) with one terminal visual sink and at most one terminal audio sink,
// consumable by an external encoding engine. Compilation is a pure function
// of the snapshot; it never mutates the timeline.
package render

import (
	"fmt"

	"montage/internal/canvas"
	"montage/internal/timeline"
)

// NodeKind identifies a processing node type.
type NodeKind string

const (
	NodeCanvas     NodeKind = "canvas"
	NodeTrim       NodeKind = "trim"
	NodeTransform  NodeKind = "transform"
	NodeShift      NodeKind = "shift"
	NodeOpacity    NodeKind = "opacity"
	NodeOverlay    NodeKind = "overlay"
	NodeDrawText   NodeKind = "drawtext"
	NodeAudioTrim  NodeKind = "atrim"
	NodeAudioDelay NodeKind = "adelay"
	NodeAudioGain  NodeKind = "again"
	NodeAudioMix   NodeKind = "amix"
)

// Input is one source media fetch the engine must perform before executing
// the graph. Inputs are deduplicated by source identity.
type Input struct {
	Index     int                `json:"index"`
	Source    string             `json:"source"`
	MediaType timeline.MediaType `json:"media_type"`
}

// Node is one processing step. Inputs reference upstream node ids; source
// nodes (trim, atrim) reference an Input index instead. Exactly one params
// struct is populated, matching Kind.
type Node struct {
	ID     string   `json:"id"`
	Kind   NodeKind `json:"kind"`
	Inputs []string `json:"inputs,omitempty"`

	Canvas    *CanvasParams    `json:"canvas,omitempty"`
	Trim      *TrimParams      `json:"trim,omitempty"`
	Transform *TransformParams `json:"transform,omitempty"`
	Shift     *ShiftParams     `json:"shift,omitempty"`
	Opacity   *OpacityParams   `json:"opacity,omitempty"`
	Overlay   *OverlayParams   `json:"overlay,omitempty"`
	DrawText  *DrawTextParams  `json:"drawtext,omitempty"`
	Delay     *DelayParams     `json:"delay,omitempty"`
	Gain      *GainParams      `json:"gain,omitempty"`
	Mix       *MixParams       `json:"mix,omitempty"`
}

// CanvasParams describes the solid background the visual chain composites
// onto.
type CanvasParams struct {
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	Color    string  `json:"color"`
	Duration float64 `json:"duration"`
}

// TrimParams selects the source window of a media input, in source-seconds.
type TrimParams struct {
	InputIndex int     `json:"input_index"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Speed      float64 `json:"speed,omitempty"`
}

// TransformParams scales and positions a stream on the canvas according to
// the clip's aspect-fit mode. CropToFill distinguishes crop modes from
// letterbox/pad modes.
type TransformParams struct {
	Fit        canvas.FitMode `json:"fit"`
	CropToFill bool           `json:"crop_to_fill"`
	Frame      canvas.Rect    `json:"frame"`
	Zoom       float64        `json:"zoom,omitempty"`
}

// ShiftParams moves a processed segment onto the master timeline.
type ShiftParams struct {
	Offset float64 `json:"offset"`
}

// OpacityParams applies a constant alpha, 0-100.
type OpacityParams struct {
	Opacity float64 `json:"opacity"`
}

// OverlayParams composites one stream over another, active only inside the
// gate window on the master timeline.
type OverlayParams struct {
	GateStart float64 `json:"gate_start"`
	GateEnd   float64 `json:"gate_end"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
}

// DrawTextParams draws one non-wrapping text line at an absolute canvas
// position, gated to the owning element's timing window.
type DrawTextParams struct {
	Text            string             `json:"text"`
	X               float64            `json:"x"`
	Y               float64            `json:"y"`
	FontSize        float64            `json:"font_size"`
	Font            string             `json:"font,omitempty"`
	Color           string             `json:"color,omitempty"`
	Align           timeline.Alignment `json:"align,omitempty"`
	BackgroundColor string             `json:"background_color,omitempty"`
	GateStart       float64            `json:"gate_start"`
	GateEnd         float64            `json:"gate_end"`
}

// DelayParams shifts an audio stream to its timeline position.
type DelayParams struct {
	Offset float64 `json:"offset"`
}

// GainParams applies a linear gain factor.
type GainParams struct {
	Linear float64 `json:"linear"`
}

// MixParams sums audio streams. Normalization is never applied; managing
// clipping through per-clip gain is the caller's responsibility.
type MixParams struct {
	StreamCount int  `json:"stream_count"`
	Normalize   bool `json:"normalize"`
}

// Graph is the compiled render graph plus the output parameters the encoding
// engine needs. TerminalAudio is empty when the timeline has no
// audio-bearing content.
type Graph struct {
	Profile       Profile `json:"profile"`
	Inputs        []Input `json:"inputs"`
	Nodes         []Node  `json:"nodes"`
	TerminalVideo string  `json:"terminal_video"`
	TerminalAudio string  `json:"terminal_audio,omitempty"`
}

// Node returns the node with the given id, or nil.
func (g *Graph) Node(id string) *Node {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i]
		}
	}
	return nil
}

// Validate checks structural integrity: every input reference resolves to an
// earlier node, terminals exist, and the visual terminal is present.
func (g *Graph) Validate() error {
	seen := make(map[string]struct{}, len(g.Nodes))
	for _, node := range g.Nodes {
		if _, dup := seen[node.ID]; dup {
			return fmt.Errorf("duplicate node id %s", node.ID)
		}
		for _, ref := range node.Inputs {
			if _, ok := seen[ref]; !ok {
				return fmt.Errorf("node %s references %s before it is defined", node.ID, ref)
			}
		}
		seen[node.ID] = struct{}{}
	}
	if g.TerminalVideo == "" {
		return fmt.Errorf("graph has no terminal visual node")
	}
	if _, ok := seen[g.TerminalVideo]; !ok {
		return fmt.Errorf("terminal visual node %s not defined", g.TerminalVideo)
	}
	if g.TerminalAudio != "" {
		if _, ok := seen[g.TerminalAudio]; !ok {
			return fmt.Errorf("terminal audio node %s not defined", g.TerminalAudio)
		}
	}
	return nil
}
