// Package project persists editing projects as JSON documents: the element
// collections, the frame grid, and the output profile, written atomically so
// a crash mid-save never corrupts the file.
package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"montage/internal/render"
	"montage/internal/timecode"
	"montage/internal/timeline"
)

// Document is the serialized form of one editing project.
type Document struct {
	Name    string    `json:"name"`
	SavedAt time.Time `json:"saved_at"`
	FPS     float64   `json:"fps"`
	Version int64     `json:"version"`

	Profile render.Profile          `json:"profile"`
	Clips   []*timeline.MediaClip   `json:"clips"`
	Texts   []*timeline.TextElement `json:"texts"`
}

// FromTimeline captures a timeline into a document. The document holds deep
// copies; later edits to the timeline do not leak into it.
func FromTimeline(name string, tl *timeline.Timeline, profile render.Profile) *Document {
	snapshot := tl.Clone()
	return &Document{
		Name:    name,
		SavedAt: time.Now().UTC(),
		FPS:     tl.FrameRate().FPS,
		Version: tl.Version(),
		Profile: profile,
		Clips:   snapshot.Clips(),
		Texts:   snapshot.Texts(),
	}
}

// Timeline rebuilds the editing timeline from the document.
func (d *Document) Timeline() (*timeline.Timeline, error) {
	rate, err := timecode.NewFrameRate(d.FPS)
	if err != nil {
		return nil, fmt.Errorf("project %q: %w", d.Name, err)
	}
	tl, err := timeline.Restore(rate, d.Clips, d.Texts)
	if err != nil {
		return nil, fmt.Errorf("project %q: %w", d.Name, err)
	}
	return tl, nil
}

// Load reads a project document from disk.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("project file %s does not exist", path)
		}
		return nil, fmt.Errorf("read project file: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse project file %s: %w", path, err)
	}
	if doc.FPS <= 0 {
		doc.FPS = timecode.DefaultFPS
	}
	if strings.TrimSpace(doc.Name) == "" {
		doc.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return &doc, nil
}

// Save writes the document atomically via a temp file rename.
func Save(path string, doc *Document) error {
	if doc == nil {
		return errors.New("document is nil")
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal project: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create project directory: %w", err)
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
