package renderer

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	draptolib "github.com/five82/drapto"

	"montage/internal/logging"
)

// DeliveryEncoder runs the final delivery pass through the drapto library,
// shrinking the composited intermediate into the file handed back to the
// caller.
type DeliveryEncoder struct {
	logger *slog.Logger
}

// NewDeliveryEncoder constructs a delivery encoder.
func NewDeliveryEncoder(logger *slog.Logger) *DeliveryEncoder {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &DeliveryEncoder{logger: logging.NewComponentLogger(logger, "delivery")}
}

// Encode re-encodes the intermediate and returns the delivery artifact path.
// The intermediate is removed on success.
func (d *DeliveryEncoder) Encode(ctx context.Context, inputPath string, progress func(Progress)) (string, error) {
	if strings.TrimSpace(inputPath) == "" {
		return "", errors.New("input path required")
	}
	outputDir := filepath.Join(filepath.Dir(inputPath), "delivery")
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", err
	}

	encoder, err := draptolib.New(draptolib.WithResponsive())
	if err != nil {
		return "", err
	}

	var rep draptolib.Reporter
	if progress != nil {
		rep = newProgressReporter(progress)
	}
	if _, err := encoder.EncodeWithReporter(ctx, inputPath, outputDir, rep); err != nil {
		return "", err
	}

	base := filepath.Base(inputPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" {
		stem = base
	}
	artifact := filepath.Join(outputDir, stem+".mkv")
	if _, err := os.Stat(artifact); err != nil {
		return "", errDeliveryOutputMissing
	}

	if err := os.Remove(inputPath); err != nil {
		d.logger.Warn("failed to remove composited intermediate",
			logging.String("path", inputPath), logging.Error(err))
	}
	return artifact, nil
}
