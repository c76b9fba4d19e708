package main

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"montage/internal/config"
	"montage/internal/logging"
	"montage/internal/render"
	"montage/internal/renderer"
	"montage/internal/renderjob"
	"montage/internal/sources"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

// openStore opens the render job database. Callers own the Close.
func (c *commandContext) openStore() (*renderjob.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return renderjob.Open(cfg.QueueDBPath())
}

// newCompiler wires a compiler against the configured media directory. When
// the media directory is missing the compiler runs without source probing.
func (c *commandContext) newCompiler() (*render.Compiler, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	resolver, err := sources.NewDir(cfg.Paths.MediaDir)
	if err != nil {
		return render.NewCompiler(nil), nil
	}
	return render.NewCompiler(resolver), nil
}

// newEngine builds the local ffmpeg engine per queue configuration.
func (c *commandContext) newEngine(logger *slog.Logger) (*renderer.FFmpegEngine, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	opts := []renderer.EngineOption{}
	if cfg.Queue.FFmpegBinary != "" {
		opts = append(opts, renderer.WithBinary(cfg.Queue.FFmpegBinary))
	}
	if cfg.Queue.DeliveryEncode {
		opts = append(opts, renderer.WithDeliveryEncoder(renderer.NewDeliveryEncoder(logger)))
	}
	return renderer.NewFFmpegEngine(logger, opts...), nil
}

// remoteAdapter returns a client for the configured remote queue, or nil when
// rendering is local.
func (c *commandContext) remoteAdapter() (renderer.Adapter, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Queue.RemoteURL == "" {
		return nil, nil
	}
	return renderer.NewRemote(cfg.Queue.RemoteURL, http.DefaultClient), nil
}

// profileFromConfig translates output settings into a render profile.
func profileFromConfig(cfg *config.Config) render.Profile {
	profile := render.Profile{
		Width:           cfg.Output.Width,
		Height:          cfg.Output.Height,
		FPS:             cfg.Output.FPS,
		VideoCodecClass: cfg.Output.VideoCodec,
		AudioCodecClass: cfg.Output.AudioCodec,
		QualityPreset:   cfg.Output.Quality,
		Background:      cfg.Output.Background,
	}
	if cfg.Watermark.Enabled {
		profile.Watermark = &render.Watermark{
			Label:  cfg.Watermark.Label,
			Icon:   cfg.Watermark.Icon,
			Corner: cfg.Watermark.Corner,
			Margin: cfg.Watermark.Margin,
		}
	}
	return profile
}
