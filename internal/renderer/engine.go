package renderer

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"montage/internal/logging"
	"montage/internal/render"
	"montage/internal/services"
)

var commandContext = exec.CommandContext

// FFmpegEngine executes graphs by shelling out to ffmpeg, optionally followed
// by a delivery encode pass through the drapto library.
type FFmpegEngine struct {
	binary   string
	logger   *slog.Logger
	delivery *DeliveryEncoder
}

// EngineOption configures the ffmpeg engine.
type EngineOption func(*FFmpegEngine)

// WithBinary overrides the default ffmpeg binary name.
func WithBinary(binary string) EngineOption {
	return func(e *FFmpegEngine) {
		if binary != "" {
			e.binary = binary
		}
	}
}

// WithDeliveryEncoder enables the second-pass delivery encode.
func WithDeliveryEncoder(delivery *DeliveryEncoder) EngineOption {
	return func(e *FFmpegEngine) {
		e.delivery = delivery
	}
}

// NewFFmpegEngine constructs an engine using defaults.
func NewFFmpegEngine(logger *slog.Logger, opts ...EngineOption) *FFmpegEngine {
	if logger == nil {
		logger = logging.NewNop()
	}
	engine := &FFmpegEngine{
		binary: "ffmpeg",
		logger: logging.NewComponentLogger(logger, "renderer"),
	}
	for _, opt := range opts {
		opt(engine)
	}
	return engine
}

// Execute implements Engine. The graph runs as a single ffmpeg invocation;
// when a delivery encoder is configured its output replaces the composited
// intermediate.
func (e *FFmpegEngine) Execute(ctx context.Context, graph *render.Graph, outputPath string, progress func(Progress)) (string, error) {
	const op = "execute"
	args, err := FFmpegArgs(graph, outputPath)
	if err != nil {
		return "", services.Wrap(services.ErrEncodingFailure, "renderer", op, "build ffmpeg arguments", err)
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return "", services.Wrap(services.ErrEncodingFailure, "renderer", op, "create output directory", err)
	}

	report := func(stage, message string, percent float64) {
		if progress != nil {
			progress(Progress{Stage: stage, Message: message, Percent: percent})
		}
	}
	report("compositing", "executing render graph", 0)

	e.logger.Info("launching ffmpeg",
		logging.String("output", outputPath),
		logging.Int("input_count", len(graph.Inputs)),
		logging.Int("node_count", len(graph.Nodes)))

	cmd := commandContext(ctx, e.binary, args...)
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return "", services.Wrap(services.ErrEncodingFailure, "renderer", op, "stderr pipe", err)
	}
	if err := cmd.Start(); err != nil {
		return "", services.Wrap(services.ErrEncodingFailure, "renderer", op, "start ffmpeg", err)
	}

	total := graph.Profile.DurationSeconds
	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		line := scanner.Text()
		if seconds, ok := parseFFmpegTime(line); ok && total > 0 {
			percent := seconds / total * 100
			if percent > 100 {
				percent = 100
			}
			report("compositing", "executing render graph", percent)
		}
	}
	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return "", services.Wrap(services.ErrCancelled, "renderer", op, "render interrupted", ctx.Err())
		}
		return "", services.Wrap(services.ErrEncodingFailure, "renderer", op, "ffmpeg exited", err)
	}
	report("compositing", "render graph complete", 100)

	if e.delivery == nil {
		return outputPath, nil
	}
	return e.delivery.Encode(ctx, outputPath, progress)
}

// parseFFmpegTime extracts the out_time position from ffmpeg stderr progress
// lines (time=HH:MM:SS.cc).
func parseFFmpegTime(line string) (float64, bool) {
	idx := strings.Index(line, "time=")
	if idx < 0 {
		return 0, false
	}
	field := line[idx+len("time="):]
	if end := strings.IndexByte(field, ' '); end >= 0 {
		field = field[:end]
	}
	parts := strings.Split(field, ":")
	if len(parts) != 3 {
		return 0, false
	}
	var hours, minutes int
	var seconds float64
	if _, err := fmt.Sscanf(parts[0], "%d", &hours); err != nil {
		return 0, false
	}
	if _, err := fmt.Sscanf(parts[1], "%d", &minutes); err != nil {
		return 0, false
	}
	if _, err := fmt.Sscanf(parts[2], "%f", &seconds); err != nil {
		return 0, false
	}
	return float64(hours)*3600 + float64(minutes)*60 + seconds, true
}

var errDeliveryOutputMissing = errors.New("delivery encode produced no file")
