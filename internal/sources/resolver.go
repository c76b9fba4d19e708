// Package sources defines the source-resolution boundary: how clip source
// references become raw media. Resolution is assumed content-addressed and
// stable per reference for the duration of one compilation.
package sources

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"montage/internal/services"
)

// Resolver locates source media for clip references.
type Resolver interface {
	// Stat verifies the reference resolves without fetching content.
	Stat(ctx context.Context, ref string) error
	// Fetch opens the raw media for reading. The caller closes the reader.
	Fetch(ctx context.Context, ref string) (io.ReadCloser, error)
	// Path returns a local filesystem path for the reference when the
	// resolver is file-backed, for engines that consume paths not bytes.
	Path(ctx context.Context, ref string) (string, error)
}

// Dir resolves references against a single media directory.
type Dir struct {
	root string
}

// NewDir constructs a directory-backed resolver.
func NewDir(root string) (*Dir, error) {
	trimmed := strings.TrimSpace(root)
	if trimmed == "" {
		return nil, errors.New("media directory required")
	}
	abs, err := filepath.Abs(trimmed)
	if err != nil {
		return nil, fmt.Errorf("resolve media directory: %w", err)
	}
	return &Dir{root: abs}, nil
}

// Stat implements Resolver.
func (d *Dir) Stat(ctx context.Context, ref string) error {
	path, err := d.Path(ctx, ref)
	if err != nil {
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return services.Wrap(services.ErrMissingSource, "sources", "stat", ref, nil)
		}
		return fmt.Errorf("stat source %s: %w", ref, err)
	}
	if info.IsDir() {
		return services.Wrap(services.ErrMissingSource, "sources", "stat",
			fmt.Sprintf("%s is a directory", ref), nil)
	}
	return nil
}

// Fetch implements Resolver.
func (d *Dir) Fetch(ctx context.Context, ref string) (io.ReadCloser, error) {
	path, err := d.Path(ctx, ref)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, services.Wrap(services.ErrMissingSource, "sources", "fetch", ref, nil)
		}
		return nil, fmt.Errorf("open source %s: %w", ref, err)
	}
	return file, nil
}

// Path implements Resolver. References must stay inside the media directory.
func (d *Dir) Path(_ context.Context, ref string) (string, error) {
	cleaned := filepath.Clean(strings.TrimSpace(ref))
	if cleaned == "" || cleaned == "." {
		return "", services.Wrap(services.ErrMissingSource, "sources", "resolve", "empty source reference", nil)
	}
	path := filepath.Join(d.root, cleaned)
	if !strings.HasPrefix(path, d.root+string(filepath.Separator)) {
		return "", services.Wrap(services.ErrMissingSource, "sources", "resolve",
			fmt.Sprintf("%s escapes the media directory", ref), nil)
	}
	return path, nil
}

var _ Resolver = (*Dir)(nil)
