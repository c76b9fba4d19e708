package renderer

import (
	"fmt"
	"strings"

	"montage/internal/render"
	"montage/internal/timeline"
)

// FFmpegArgs translates a compiled graph into a complete ffmpeg invocation:
// one -i per input, every node as a filter_complex chain labelled with its
// node id, terminals mapped to the output streams, and codec flags from the
// profile.
func FFmpegArgs(graph *render.Graph, outputPath string) ([]string, error) {
	if err := graph.Validate(); err != nil {
		return nil, fmt.Errorf("graph not executable: %w", err)
	}

	args := []string{"-y", "-hide_banner"}
	for _, input := range graph.Inputs {
		if input.MediaType == timeline.MediaImage {
			// A still image decodes to a single frame; loop it for the
			// composition length so downstream trim windows have frames
			// to select.
			args = append(args, "-loop", "1",
				"-framerate", fmt.Sprintf("%g", graph.Profile.FPS),
				"-t", formatSeconds(graph.Profile.DurationSeconds))
		}
		args = append(args, "-i", input.Source)
	}

	chains := make([]string, 0, len(graph.Nodes))
	for _, node := range graph.Nodes {
		chain, err := filterChain(node)
		if err != nil {
			return nil, err
		}
		chains = append(chains, chain)
	}
	args = append(args, "-filter_complex", strings.Join(chains, ";"))

	args = append(args, "-map", "["+graph.TerminalVideo+"]")
	if graph.TerminalAudio != "" {
		args = append(args, "-map", "["+graph.TerminalAudio+"]")
	}

	args = append(args, codecArgs(graph.Profile)...)
	args = append(args, "-r", fmt.Sprintf("%g", graph.Profile.FPS))
	if graph.Profile.DurationSeconds > 0 {
		args = append(args, "-t", formatSeconds(graph.Profile.DurationSeconds))
	}
	args = append(args, outputPath)
	return args, nil
}

func filterChain(node render.Node) (string, error) {
	var b strings.Builder
	switch node.Kind {
	case render.NodeCanvas:
		p := node.Canvas
		fmt.Fprintf(&b, "color=c=%s:s=%dx%d:d=%s", colorValue(p.Color), p.Width, p.Height, formatSeconds(p.Duration))
	case render.NodeTrim:
		p := node.Trim
		fmt.Fprintf(&b, "[%d:v]trim=start=%s:end=%s,setpts=(PTS-STARTPTS)/%g",
			p.InputIndex, formatSeconds(p.Start), formatSeconds(p.End), speedOrUnity(p.Speed))
	case render.NodeTransform:
		p := node.Transform
		fmt.Fprintf(&b, "[%s]scale=%d:%d", node.Inputs[0], int(p.Frame.Width), int(p.Frame.Height))
		if p.CropToFill {
			b.WriteString(":force_original_aspect_ratio=increase")
			fmt.Fprintf(&b, ",crop=%d:%d", int(p.Frame.Width), int(p.Frame.Height))
		}
	case render.NodeShift:
		fmt.Fprintf(&b, "[%s]setpts=PTS+%s/TB", node.Inputs[0], formatSeconds(node.Shift.Offset))
	case render.NodeOpacity:
		fmt.Fprintf(&b, "[%s]format=rgba,colorchannelmixer=aa=%g", node.Inputs[0], node.Opacity.Opacity/100)
	case render.NodeOverlay:
		p := node.Overlay
		fmt.Fprintf(&b, "[%s][%s]overlay=x=%g:y=%g:enable='between(t,%s,%s)'",
			node.Inputs[0], node.Inputs[1], p.X, p.Y, formatSeconds(p.GateStart), formatSeconds(p.GateEnd))
	case render.NodeDrawText:
		p := node.DrawText
		fmt.Fprintf(&b, "[%s]drawtext=text='%s':x=%g:y=%g:fontsize=%g",
			node.Inputs[0], escapeDrawText(p.Text), p.X, p.Y, p.FontSize)
		if p.Color != "" {
			fmt.Fprintf(&b, ":fontcolor=%s", colorValue(p.Color))
		}
		if p.BackgroundColor != "" {
			fmt.Fprintf(&b, ":box=1:boxcolor=%s", colorValue(p.BackgroundColor))
		}
		fmt.Fprintf(&b, ":enable='between(t,%s,%s)'", formatSeconds(p.GateStart), formatSeconds(p.GateEnd))
	case render.NodeAudioTrim:
		p := node.Trim
		fmt.Fprintf(&b, "[%d:a]atrim=start=%s:end=%s,asetpts=PTS-STARTPTS",
			p.InputIndex, formatSeconds(p.Start), formatSeconds(p.End))
		if speed := speedOrUnity(p.Speed); speed != 1 {
			fmt.Fprintf(&b, ",atempo=%g", speed)
		}
	case render.NodeAudioDelay:
		ms := int64(node.Delay.Offset * 1000)
		fmt.Fprintf(&b, "[%s]adelay=%d:all=1", node.Inputs[0], ms)
	case render.NodeAudioGain:
		fmt.Fprintf(&b, "[%s]volume=%g", node.Inputs[0], node.Gain.Linear)
	case render.NodeAudioMix:
		for _, ref := range node.Inputs {
			fmt.Fprintf(&b, "[%s]", ref)
		}
		fmt.Fprintf(&b, "amix=inputs=%d:normalize=0", node.Mix.StreamCount)
	default:
		return "", fmt.Errorf("unknown node kind %q", node.Kind)
	}
	fmt.Fprintf(&b, "[%s]", node.ID)
	return b.String(), nil
}

func codecArgs(profile render.Profile) []string {
	var args []string
	switch profile.VideoCodecClass {
	case "hevc":
		args = append(args, "-c:v", "libx265")
	case "av1":
		args = append(args, "-c:v", "libsvtav1")
	default:
		args = append(args, "-c:v", "libx264")
	}
	switch profile.QualityPreset {
	case "draft":
		args = append(args, "-crf", "28", "-preset", "veryfast")
	case "high":
		args = append(args, "-crf", "18", "-preset", "slow")
	default:
		args = append(args, "-crf", "23", "-preset", "medium")
	}
	switch profile.AudioCodecClass {
	case "opus":
		args = append(args, "-c:a", "libopus")
	case "":
	default:
		args = append(args, "-c:a", "aac")
	}
	return args
}

// colorValue normalizes hash-prefixed hex colors to ffmpeg's 0x form.
func colorValue(color string) string {
	if strings.HasPrefix(color, "#") {
		return "0x" + color[1:]
	}
	return color
}

func escapeDrawText(text string) string {
	replacer := strings.NewReplacer(
		`\`, `\\`,
		`'`, `\'`,
		`:`, `\:`,
		`%`, `\%`,
	)
	return replacer.Replace(text)
}

func formatSeconds(seconds float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.6f", seconds), "0"), ".")
}

func speedOrUnity(speed float64) float64 {
	if speed <= 0 {
		return 1
	}
	return speed
}
