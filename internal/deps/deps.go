// Package deps checks the external binaries montage shells out to.
package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"montage/internal/config"
)

// Requirement defines an external dependency montage relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Requirements derives the binary set the current configuration needs.
// The delivery encoder is optional unless delivery encoding is enabled.
func Requirements(cfg *config.Config) []Requirement {
	ffmpeg := "ffmpeg"
	deliveryOptional := true
	if cfg != nil {
		if cfg.Queue.FFmpegBinary != "" {
			ffmpeg = cfg.Queue.FFmpegBinary
		}
		deliveryOptional = !cfg.Queue.DeliveryEncode
	}
	return []Requirement{
		{
			Name:        "FFmpeg",
			Command:     ffmpeg,
			Description: "Executes compiled render graphs",
		},
		{
			Name:        "Drapto",
			Command:     "drapto",
			Description: "Delivery encoding pass",
			Optional:    deliveryOptional,
		},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if resolved, err := exec.LookPath(cmd); err == nil {
			status.Command = resolved
			status.Available = true
		} else {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
		}
		results = append(results, status)
	}
	return results
}
