package deps

import (
	"os"
	"path/filepath"
	"testing"

	"montage/internal/config"
)

func stubBinary(t *testing.T, name string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	t.Setenv("PATH", dir)
	return path
}

func TestCheckBinariesReportsMissing(t *testing.T) {
	t.Setenv("PATH", t.TempDir())

	results := CheckBinaries([]Requirement{
		{Name: "FFmpeg", Command: "definitely-not-ffmpeg"},
	})
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Available {
		t.Fatal("expected unavailable")
	}
	if results[0].Detail == "" {
		t.Fatal("expected detail for missing binary")
	}
}

func TestCheckBinariesResolvesPath(t *testing.T) {
	path := stubBinary(t, "fake-encoder")

	results := CheckBinaries([]Requirement{
		{Name: "Encoder", Command: "fake-encoder"},
	})
	if !results[0].Available {
		t.Fatalf("expected available: %+v", results[0])
	}
	if results[0].Command != path {
		t.Fatalf("command = %q, want %q", results[0].Command, path)
	}
}

func TestCheckBinariesEmptyCommand(t *testing.T) {
	results := CheckBinaries([]Requirement{{Name: "Mystery"}})
	if results[0].Available || results[0].Detail != "command not configured" {
		t.Fatalf("unexpected status: %+v", results[0])
	}
}

func TestRequirementsFollowConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Queue.FFmpegBinary = "/opt/ffmpeg/bin/ffmpeg"
	cfg.Queue.DeliveryEncode = true

	reqs := Requirements(&cfg)
	if reqs[0].Command != "/opt/ffmpeg/bin/ffmpeg" {
		t.Fatalf("ffmpeg command = %q", reqs[0].Command)
	}
	if reqs[1].Optional {
		t.Fatal("drapto should be required when delivery encoding is enabled")
	}

	cfg.Queue.DeliveryEncode = false
	reqs = Requirements(&cfg)
	if !reqs[1].Optional {
		t.Fatal("drapto should be optional when delivery encoding is disabled")
	}
}
