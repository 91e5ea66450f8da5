// Package evaluate runs a single metric over one expected/actual column
// pair. It owns parameter decoding, the column length precondition and
// the failure taxonomy; the metric math itself lives in the metric
// package.
package evaluate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/kmarek/evalarena/internal/domain/metric"
	"github.com/kmarek/evalarena/pkg/metrics"
)

const defaultTimeout = time.Minute

// Evaluator binds a metric registry to evaluation policy.
type Evaluator struct {
	registry *metric.Registry
	timeout  time.Duration
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithTimeout bounds a single metric calculation. Zero disables the
// bound.
func WithTimeout(d time.Duration) Option {
	return func(e *Evaluator) {
		e.timeout = d
	}
}

// New creates an Evaluator over the given registry.
func New(registry *metric.Registry, opts ...Option) *Evaluator {
	e := &Evaluator{
		registry: registry,
		timeout:  defaultTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate scores the actual column against the expected column with the
// named metric. rawParams is the persisted JSON parameter blob; empty or
// "{}" means all defaults. The column length check runs before any
// metric code so a length mismatch is always reported as such, never as
// a confusing downstream calculation error.
func (e *Evaluator) Evaluate(ctx context.Context, name, rawParams string, expected, actual metric.Values) (float64, error) {
	params, err := decodeParams(rawParams)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", metric.ErrInvalidParameters, err)
	}

	instance, err := e.registry.Instantiate(name, params)
	if err != nil {
		return 0, err
	}

	if expected.Len() != actual.Len() {
		return 0, fmt.Errorf("%w: expected %d values, got %d",
			ErrMismatchedLength, expected.Len(), actual.Len())
	}

	start := time.Now()
	score, err := e.calculate(ctx, instance, expected, actual)
	if err != nil {
		metrics.RecordScoringError(name)
		return 0, err
	}
	metrics.RecordEvaluation(name)
	metrics.RecordEvaluationLatency(float64(time.Since(start).Microseconds()) / 1000)
	return score, nil
}

// Sorting reports the sort direction of the named metric.
func (e *Evaluator) Sorting(name string) (metric.Sorting, error) {
	s, err := e.registry.Resolve(name)
	if err != nil {
		return "", err
	}
	return s.Sorting, nil
}

type result struct {
	score float64
	err   error
}

func (e *Evaluator) calculate(ctx context.Context, in *metric.Instance, expected, actual metric.Values) (float64, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		score, err := in.Calculate(expected, actual)
		done <- result{score: score, err: err}
	}()

	select {
	case <-ctx.Done():
		return 0, &ComputationError{Metric: in.Name(), Cause: ctx.Err()}
	case r := <-done:
		if r.err != nil {
			return 0, &ComputationError{Metric: in.Name(), Cause: r.err}
		}
		return r.score, nil
	}
}

// decodeParams parses the persisted parameter blob. The seed data in this
// system stores empty parameter sets as "", "{}" or the literal "None".
func decodeParams(raw string) (map[string]any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "{}" || raw == "None" {
		return nil, nil
	}
	var params map[string]any
	if err := json.Unmarshal([]byte(raw), &params); err != nil {
		return nil, err
	}
	return params, nil
}
