package service

import "errors"

// Sentinel kinds for submission intake and challenge creation errors.
var (
	ErrDeadlinePassed      = errors.New("challenge deadline has passed")
	ErrEmptySubmission     = errors.New("submission has no values")
	ErrLengthMismatch      = errors.New("submission length does not match expected output")
	ErrDuplicateSubmission = errors.New("duplicate submission")
	ErrBackpressure        = errors.New("submission queue is full")
	ErrNoMainMetric        = errors.New("challenge needs exactly one main metric")
	ErrNoExpectedOutput    = errors.New("challenge needs a non-empty expected output")
	ErrNotStarted          = errors.New("service not started")
)
