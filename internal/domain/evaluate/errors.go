package evaluate

import (
	"errors"
	"fmt"
)

var (
	// ErrMismatchedLength marks a submission whose value count differs
	// from the expected column.
	ErrMismatchedLength = errors.New("mismatched column lengths")
	// ErrComputationFailed marks a metric that resolved and bound its
	// parameters but failed while calculating.
	ErrComputationFailed = errors.New("metric computation failed")
)

// ComputationError wraps a calculation failure with the metric that
// produced it.
type ComputationError struct {
	Metric string
	Cause  error
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("metric %q: %v", e.Metric, e.Cause)
}

func (e *ComputationError) Unwrap() error { return e.Cause }

// Is lets errors.Is match both the sentinel and the wrapped cause.
func (e *ComputationError) Is(target error) bool {
	return target == ErrComputationFailed
}
