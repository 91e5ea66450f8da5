package metric

import "errors"

// Sentinel kinds for registry and calculation errors.
var (
	ErrUnknownMetric     = errors.New("unknown metric")
	ErrInvalidParameters = errors.New("invalid metric parameters")
	ErrDuplicateMetric   = errors.New("duplicate metric name")
	ErrNonNumeric        = errors.New("column is not numeric")
)
