package render

import (
	"fmt"
	"strings"
)

// DOT renders the graph in Graphviz dot syntax for inspection. Nodes appear
// in compilation order, so diffing two exports shows structural changes
// directly.
func (g *Graph) DOT() string {
	var b strings.Builder
	b.WriteString("digraph render {\n")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [shape=box, fontname=\"monospace\"];\n")
	for _, input := range g.Inputs {
		fmt.Fprintf(&b, "  %q [label=%q, shape=oval];\n",
			inputDOTID(input.Index), fmt.Sprintf("in%d\n%s", input.Index, input.Source))
	}
	for _, node := range g.Nodes {
		fmt.Fprintf(&b, "  %q [label=%q%s];\n", node.ID, nodeDOTLabel(node), nodeDOTStyle(node))
		if node.Trim != nil {
			fmt.Fprintf(&b, "  %q -> %q;\n", inputDOTID(node.Trim.InputIndex), node.ID)
		}
		for _, ref := range node.Inputs {
			fmt.Fprintf(&b, "  %q -> %q;\n", ref, node.ID)
		}
	}
	if g.TerminalVideo != "" {
		fmt.Fprintf(&b, "  %q -> \"out:video\";\n", g.TerminalVideo)
	}
	if g.TerminalAudio != "" {
		fmt.Fprintf(&b, "  %q -> \"out:audio\";\n", g.TerminalAudio)
	}
	b.WriteString("}\n")
	return b.String()
}

func inputDOTID(index int) string {
	return fmt.Sprintf("in%d", index)
}

func nodeDOTLabel(node Node) string {
	switch {
	case node.Trim != nil:
		return fmt.Sprintf("%s\n[%.3f, %.3f) x%.2f", node.ID, node.Trim.Start, node.Trim.End, node.Trim.Speed)
	case node.Overlay != nil:
		return fmt.Sprintf("%s\ngate [%.3f, %.3f)", node.ID, node.Overlay.GateStart, node.Overlay.GateEnd)
	case node.DrawText != nil:
		return fmt.Sprintf("%s\n%s", node.ID, node.DrawText.Text)
	case node.Gain != nil:
		return fmt.Sprintf("%s\ngain %.4f", node.ID, node.Gain.Linear)
	case node.Mix != nil:
		return fmt.Sprintf("%s\n%d streams", node.ID, node.Mix.StreamCount)
	default:
		return node.ID
	}
}

func nodeDOTStyle(node Node) string {
	switch node.Kind {
	case NodeCanvas:
		return ", style=filled, fillcolor=lightgrey"
	case NodeAudioTrim, NodeAudioDelay, NodeAudioGain, NodeAudioMix:
		return ", color=blue"
	default:
		return ""
	}
}
