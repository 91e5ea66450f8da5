// Package scoring runs every active test of a challenge against one
// submission and enforces the all-or-nothing contract: either every
// metric produces a score or the whole submission is rejected.
package scoring

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/kmarek/evalarena/internal/domain/metric"
	"github.com/kmarek/evalarena/internal/domain/model"
)

// Evaluator is the single-metric scoring dependency.
type Evaluator interface {
	Evaluate(ctx context.Context, name, rawParams string, expected, actual metric.Values) (float64, error)
}

// Result is one test's score for a submission.
type Result struct {
	TestID int64
	Score  float64
}

// Scorer fans a submission out over a challenge's tests.
type Scorer struct {
	evaluator   Evaluator
	concurrency int
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithConcurrency caps how many tests run in parallel.
func WithConcurrency(n int) Option {
	return func(s *Scorer) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// New creates a Scorer over the given evaluator.
func New(evaluator Evaluator, opts ...Option) *Scorer {
	s := &Scorer{
		evaluator:   evaluator,
		concurrency: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScoreSubmission evaluates every active test and returns one result per
// test, in the tests' input order. Any single failure aborts the whole
// scoring pass; no partial result set ever escapes.
func (s *Scorer) ScoreSubmission(ctx context.Context, expected, actual metric.Values, tests []model.Test) ([]Result, error) {
	active := make([]model.Test, 0, len(tests))
	for _, t := range tests {
		if t.Active {
			active = append(active, t)
		}
	}
	if len(active) == 0 {
		return nil, ErrNoActiveTests
	}

	results := make([]Result, len(active))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, t := range active {
		g.Go(func() error {
			score, err := s.evaluator.Evaluate(gctx, t.Metric, t.Parameters, expected, actual)
			if err != nil {
				return fmt.Errorf("test %d (%s): %w", t.ID, t.Metric, err)
			}
			results[i] = Result{TestID: t.ID, Score: score}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScoringAborted, err)
	}
	return results, nil
}
