package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for precondition violations. Match with errors.Is.
var (
	// ErrInvalidInput marks malformed series or catalogs: unparsable
	// dates, non-monotonic or duplicate timestamps, empty input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrModelNotBuilt is returned when sampling is requested before
	// the regime model was constructed.
	ErrModelNotBuilt = errors.New("model not built")

	// ErrModelNotFitted is returned when summaries are requested
	// before the sampler has produced a posterior.
	ErrModelNotFitted = errors.New("model not fitted")

	// ErrInsufficientData marks an impact window with no observations.
	ErrInsufficientData = errors.New("insufficient data")
)

// InvalidInputf wraps ErrInvalidInput with detail.
func InvalidInputf(format string, a ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrInvalidInput}, a...)...)
}
