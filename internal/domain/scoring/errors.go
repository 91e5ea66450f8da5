package scoring

import "errors"

var (
	// ErrScoringAborted marks a submission rejected because at least one
	// test failed to produce a score.
	ErrScoringAborted = errors.New("scoring aborted")
	// ErrNoActiveTests marks a challenge with nothing to score against.
	ErrNoActiveTests = errors.New("challenge has no active tests")
)
