package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	MediaDir   string `toml:"media_dir"`
	RenderDir  string `toml:"render_dir"`
	ProjectDir string `toml:"project_dir"`
	LogDir     string `toml:"log_dir"`
	APIBind    string `toml:"api_bind"`
}

// Output contains the delivery profile defaults applied to new projects.
type Output struct {
	Width      int     `toml:"width"`
	Height     int     `toml:"height"`
	FPS        float64 `toml:"fps"`
	VideoCodec string  `toml:"video_codec"`
	AudioCodec string  `toml:"audio_codec"`
	Quality    string  `toml:"quality"`
	Background string  `toml:"background"`
}

// Editing contains interactive editing behaviour.
type Editing struct {
	DefaultFPS      float64 `toml:"default_fps"`
	SnapThresholdMS int     `toml:"snap_threshold_ms"`
}

// Watermark contains the branding drawn on renders when enabled.
type Watermark struct {
	Enabled bool    `toml:"enabled"`
	Label   string  `toml:"label"`
	Icon    string  `toml:"icon"`
	Corner  string  `toml:"corner"`
	Margin  float64 `toml:"margin"`
}

// Queue contains render queue behaviour.
type Queue struct {
	RemoteURL      string `toml:"remote_url"`
	DeliveryEncode bool   `toml:"delivery_encode"`
	FFmpegBinary   string `toml:"ffmpeg_binary"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for montage.
//
// Configuration sections by subsystem:
//   - Paths: media, render, and project directories plus the API bind address
//   - Output: delivery profile defaults for new projects
//   - Editing: frame grid and snap behaviour
//   - Watermark: branding applied to renders
//   - Queue: local vs remote render execution
//   - Logging: log format and level
type Config struct {
	Paths     Paths     `toml:"paths"`
	Output    Output    `toml:"output"`
	Editing   Editing   `toml:"editing"`
	Watermark Watermark `toml:"watermark"`
	Queue     Queue     `toml:"queue"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/montage/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("montage.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// EnsureDirectories creates the directories montage operates in.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.RenderDir, c.Paths.ProjectDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.MediaDir) != "" {
		// Best-effort so config load survives offline external storage.
		_ = os.MkdirAll(c.Paths.MediaDir, 0o755)
	}
	return nil
}

// QueueDBPath returns the render job database location.
func (c *Config) QueueDBPath() string {
	return filepath.Join(c.Paths.LogDir, "render.db")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
