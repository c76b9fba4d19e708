package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConstraintViolation marks edits that would break a timeline invariant.
	// The edit is rejected; callers recover by proposing adjusted values.
	ErrConstraintViolation = errors.New("constraint violation")
	// ErrOutOfBounds marks a time or index parameter outside its valid domain.
	ErrOutOfBounds = errors.New("out of bounds")
	// ErrIncompleteTimeline marks a compilation attempt over placeholder clips.
	ErrIncompleteTimeline = errors.New("incomplete timeline")
	// ErrMissingSource marks a clip whose source media cannot be resolved.
	ErrMissingSource = errors.New("missing source")
	// ErrEmptyTimeline marks a compilation attempt over a timeline with no content.
	ErrEmptyTimeline = errors.New("empty timeline")
	// ErrEncodingFailure marks a non-zero status from the external encoding
	// engine. Surfaced verbatim, never retried automatically.
	ErrEncodingFailure = errors.New("encoding failure")
	// ErrJobNotFound marks an unknown render job handle.
	ErrJobNotFound = errors.New("job not found")
	// ErrCancelled marks a render job cancelled before completion.
	ErrCancelled = errors.New("cancelled")
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrEncodingFailure
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsRecoverable reports whether the caller can retry the operation with
// adjusted inputs rather than treating the failure as fatal.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrConstraintViolation) || errors.Is(err, ErrOutOfBounds)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
