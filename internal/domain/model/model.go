// Package model contains domain models passed between layers.
package model

import "time"

// Challenge is a published benchmark task with an expected-output file and
// one or more configured metrics.
type Challenge struct {
	ID          int64
	Author      string
	Title       string // unique, also keys the expected-output file
	Source      string
	Type        string
	Description string
	Deadline    time.Time // zero value means no deadline
	Award       string
	Deleted     bool
}

// Test associates a challenge with one metric configuration. Exactly one
// test per challenge carries MainMetric=true; that metric drives ranking
// and the leaderboard sort direction.
type Test struct {
	ID         int64
	Challenge  int64
	Metric     string // registry key
	Parameters string // JSON-encoded parameter blob, may be "" or "{}"
	MainMetric bool
	Active     bool
}

// Submission is one participant's uploaded predictions for a challenge.
// Immutable after creation except for Description and the soft-delete flag.
type Submission struct {
	ID          int64
	Challenge   int64
	Submitter   string
	Description string
	Timestamp   time.Time
	Deleted     bool
}

// Evaluation is the score of one Submission against one Test.
type Evaluation struct {
	ID         int64
	Test       int64
	Submission int64
	Score      float64
	Timestamp  time.Time
}

// Job is the unit of work flowing through the submission queue. Expected
// values are loaded by the worker; the job carries only the raw prediction
// lines as accepted at the HTTP boundary.
type Job struct {
	JobID       string // unique id for idempotency
	Challenge   int64
	Title       string
	Submitter   string
	Description string
	Lines       []string
	Received    time.Time
}
