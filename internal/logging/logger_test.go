package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestConsoleHandlerFormat(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, lvl))

	child := NewComponentLogger(logger, "renderer")
	child.Info("job started",
		String("job_id", "abc123"),
		Int("inputs", 2),
		Duration("elapsed", 1500*time.Millisecond),
		String("note", "needs quoting"),
	)

	line := buf.String()
	if !strings.Contains(line, " INFO renderer: job started") {
		t.Fatalf("component prefix missing: %q", line)
	}
	if !strings.Contains(line, "job_id=abc123") {
		t.Fatalf("string attr missing: %q", line)
	}
	if !strings.Contains(line, "inputs=2") {
		t.Fatalf("int attr missing: %q", line)
	}
	if !strings.Contains(line, "elapsed=1.5s") {
		t.Fatalf("duration attr missing: %q", line)
	}
	if !strings.Contains(line, `note="needs quoting"`) {
		t.Fatalf("value with spaces not quoted: %q", line)
	}
	if !strings.HasSuffix(line, "\n") {
		t.Fatalf("line not terminated: %q", line)
	}
}

func TestConsoleHandlerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	lvl.Set(slog.LevelWarn)
	logger := slog.New(newConsoleHandler(&buf, lvl))

	logger.Info("ignored")
	logger.Warn("kept")

	out := buf.String()
	if strings.Contains(out, "ignored") {
		t.Fatalf("info record not filtered: %q", out)
	}
	if !strings.Contains(out, "WARN kept") {
		t.Fatalf("warn record missing: %q", out)
	}
}

func TestErrorAttr(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newConsoleHandler(&buf, new(slog.LevelVar)))
	logger.Error("encode failed", Error(errors.New("exit status 1")))
	if !strings.Contains(buf.String(), `error="exit status 1"`) {
		t.Fatalf("error attr missing: %q", buf.String())
	}
}

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "montage.log")
	logger, err := New(Options{Level: "debug", Format: "json", Paths: []string{path}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Debug("hello", String("k", "v"))

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, `"level":"debug"`) {
		t.Fatalf("json level missing: %q", out)
	}
	if !strings.Contains(out, `"ts":`) {
		t.Fatalf("json timestamp key missing: %q", out)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml", Paths: []string{"stdout"}}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		" warn ":  slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := NewNop()
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Fatal("nop logger should be disabled at every level")
	}
	logger.Error("dropped")
}
