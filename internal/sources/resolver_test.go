package sources_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"montage/internal/services"
	"montage/internal/sources"
)

func TestDirResolvesRelativeReferences(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "clip.mp4"), []byte("data"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	dir, err := sources.NewDir(root)
	if err != nil {
		t.Fatalf("NewDir: %v", err)
	}

	ctx := context.Background()
	if err := dir.Stat(ctx, "clip.mp4"); err != nil {
		t.Fatalf("Stat: %v", err)
	}

	path, err := dir.Path(ctx, "clip.mp4")
	if err != nil {
		t.Fatalf("Path: %v", err)
	}
	if path != filepath.Join(root, "clip.mp4") {
		t.Fatalf("path = %q", path)
	}

	rc, err := dir.Fetch(ctx, "clip.mp4")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(data) != "data" {
		t.Fatalf("content = %q", data)
	}
}

func TestDirStatMissingSource(t *testing.T) {
	dir, err := sources.NewDir(t.TempDir())
	if err != nil {
		t.Fatalf("NewDir: %v", err)
	}
	err = dir.Stat(context.Background(), "absent.mp4")
	if !errors.Is(err, services.ErrMissingSource) {
		t.Fatalf("Stat = %v, want missing-source error", err)
	}
}

func TestNewDirRequiresRoot(t *testing.T) {
	if _, err := sources.NewDir("  "); err == nil {
		t.Fatal("expected error for empty root")
	}
}
