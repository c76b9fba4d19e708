package config

import (
	"errors"
	"fmt"
	"strings"
)

var validCorners = map[string]struct{}{
	"top-left":     {},
	"top-right":    {},
	"bottom-left":  {},
	"bottom-right": {},
}

var validQualities = map[string]struct{}{
	"draft":    {},
	"standard": {},
	"high":     {},
}

var validVideoCodecs = map[string]struct{}{
	"h264": {},
	"hevc": {},
	"av1":  {},
}

// normalize expands path fields and lowercases enum-like values.
func (c *Config) normalize() error {
	var err error
	if c.Paths.MediaDir, err = expandPath(c.Paths.MediaDir); err != nil {
		return err
	}
	if c.Paths.RenderDir, err = expandPath(c.Paths.RenderDir); err != nil {
		return err
	}
	if c.Paths.ProjectDir, err = expandPath(c.Paths.ProjectDir); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return err
	}

	c.Output.VideoCodec = strings.ToLower(strings.TrimSpace(c.Output.VideoCodec))
	c.Output.AudioCodec = strings.ToLower(strings.TrimSpace(c.Output.AudioCodec))
	c.Output.Quality = strings.ToLower(strings.TrimSpace(c.Output.Quality))
	c.Watermark.Corner = strings.ToLower(strings.TrimSpace(c.Watermark.Corner))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Queue.RemoteURL = strings.TrimSpace(c.Queue.RemoteURL)
	return nil
}

// Validate rejects configurations montage cannot run with.
func (c *Config) Validate() error {
	var problems []string

	if c.Output.Width <= 0 || c.Output.Height <= 0 {
		problems = append(problems, fmt.Sprintf("output resolution %dx%d is invalid", c.Output.Width, c.Output.Height))
	}
	if c.Output.FPS <= 0 {
		problems = append(problems, fmt.Sprintf("output fps %v is invalid", c.Output.FPS))
	}
	if _, ok := validVideoCodecs[c.Output.VideoCodec]; !ok {
		problems = append(problems, fmt.Sprintf("unknown video codec %q (h264, hevc, av1)", c.Output.VideoCodec))
	}
	if _, ok := validQualities[c.Output.Quality]; !ok {
		problems = append(problems, fmt.Sprintf("unknown quality preset %q (draft, standard, high)", c.Output.Quality))
	}
	if c.Editing.DefaultFPS <= 0 {
		problems = append(problems, fmt.Sprintf("editing fps %v is invalid", c.Editing.DefaultFPS))
	}
	if c.Editing.SnapThresholdMS < 0 {
		problems = append(problems, "snap threshold cannot be negative")
	}
	if c.Watermark.Enabled {
		if strings.TrimSpace(c.Watermark.Label) == "" {
			problems = append(problems, "watermark is enabled but has no label")
		}
		if _, ok := validCorners[c.Watermark.Corner]; !ok {
			problems = append(problems, fmt.Sprintf("unknown watermark corner %q", c.Watermark.Corner))
		}
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("unknown log format %q (console, json)", c.Logging.Format))
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}
