package config

// Default returns the baseline configuration before any file overrides.
func Default() Config {
	return Config{
		Paths: Paths{
			MediaDir:   "~/montage/media",
			RenderDir:  "~/montage/renders",
			ProjectDir: "~/montage/projects",
			LogDir:     "~/.local/share/montage/logs",
			APIBind:    "127.0.0.1:7460",
		},
		Output: Output{
			Width:      1920,
			Height:     1080,
			FPS:        30,
			VideoCodec: "h264",
			AudioCodec: "aac",
			Quality:    "standard",
			Background: "#000000",
		},
		Editing: Editing{
			DefaultFPS:      30,
			SnapThresholdMS: 50,
		},
		Watermark: Watermark{
			Enabled: false,
			Corner:  "bottom-right",
			Margin:  24,
		},
		Queue: Queue{
			DeliveryEncode: false,
			FFmpegBinary:   "ffmpeg",
		},
		Logging: Logging{
			Format: "console",
			Level:  "info",
		},
	}
}
