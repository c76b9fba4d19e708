package timeline

import (
	"fmt"

	"montage/internal/services"
)

// Invariant names reported with constraint violations so callers know which
// rule an edit would have broken.
const (
	InvariantPositionOrder = "position-order"  // positionStart < positionEnd
	InvariantVideoPacking  = "video-packing"   // video track gap-free, non-overlapping
	InvariantSourceWindow  = "source-window"   // 0 <= startTime < endTime <= sourceDuration
	InvariantSourceMapping = "source-mapping"  // timeline window maps linearly to source window
	InvariantKnownElement  = "known-element"   // referenced element exists
)

func constraintViolation(operation, invariant, message string) error {
	return services.Wrap(
		services.ErrConstraintViolation, "timeline", operation,
		fmt.Sprintf("invariant %s: %s", invariant, message), nil)
}

func outOfBounds(operation, message string) error {
	return services.Wrap(services.ErrOutOfBounds, "timeline", operation, message, nil)
}

func elementNotFound(operation, id string) error {
	return outOfBounds(operation, fmt.Sprintf("no element with id %s", id))
}
