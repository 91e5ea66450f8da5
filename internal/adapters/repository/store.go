// Package repository defines the persistence interface for challenges,
// tests, submissions and evaluations, plus its SQLite implementation.
package repository

import (
	"context"

	"github.com/kmarek/evalarena/internal/domain/model"
)

// Store provides durable access to the evaluation state.
type Store interface {
	// CreateChallenge persists a challenge together with its tests and
	// returns the stored challenge with assigned IDs.
	// Returns ErrDuplicateChallenge when the title is already taken.
	CreateChallenge(ctx context.Context, c model.Challenge, tests []model.Test) (model.Challenge, error)

	// ChallengeByTitle looks a challenge up by its unique title.
	// Returns ErrNotFound for unknown or deleted challenges.
	ChallengeByTitle(ctx context.Context, title string) (model.Challenge, error)

	// Challenges lists all non-deleted challenges.
	Challenges(ctx context.Context) ([]model.Challenge, error)

	// DeleteChallenge soft-deletes a challenge; its data stays queryable
	// by ID but the title no longer resolves.
	DeleteChallenge(ctx context.Context, id int64) error

	// Tests lists every test of a challenge, active or not.
	Tests(ctx context.Context, challengeID int64) ([]model.Test, error)

	// AddSubmission persists the submission and all of its evaluations in
	// one transaction. Either everything lands or nothing does; a scored
	// submission is never visible without its full score set.
	AddSubmission(ctx context.Context, sub model.Submission, evals []model.Evaluation) (model.Submission, error)

	// Submissions lists all non-deleted submissions of a challenge.
	Submissions(ctx context.Context, challengeID int64) ([]model.Submission, error)

	// SubmissionsBySubmitter lists one submitter's non-deleted
	// submissions on a challenge.
	SubmissionsBySubmitter(ctx context.Context, challengeID int64, submitter string) ([]model.Submission, error)

	// UpdateSubmissionDescription replaces a submission's description.
	// Returns ErrNotFound for unknown or deleted submissions.
	UpdateSubmissionDescription(ctx context.Context, id int64, description string) error

	// SoftDeleteSubmission hides a submission from listings and boards
	// without destroying its evaluations.
	SoftDeleteSubmission(ctx context.Context, id int64) error

	// EvaluationsForTest lists every evaluation recorded against a test.
	EvaluationsForTest(ctx context.Context, testID int64) ([]model.Evaluation, error)

	// EvaluationsForSubmission lists a submission's evaluations across
	// all tests.
	EvaluationsForSubmission(ctx context.Context, submissionID int64) ([]model.Evaluation, error)

	// Counts reports stored totals for the stats endpoint.
	Counts(ctx context.Context) (challenges, submissions, evaluations int64, err error)

	// Close releases the underlying database handle.
	Close() error
}
