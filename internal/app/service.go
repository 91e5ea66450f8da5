// Package service provides the core business service that implements
// the dependencies required by the HTTP API: challenge management,
// asynchronous submission scoring and leaderboard reads.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kmarek/evalarena/internal/adapters/filestore"
	jobqueue "github.com/kmarek/evalarena/internal/adapters/mq/queue"
	workerpool "github.com/kmarek/evalarena/internal/adapters/mq/worker"
	"github.com/kmarek/evalarena/internal/adapters/repository"
	"github.com/kmarek/evalarena/internal/domain/dedupe"
	"github.com/kmarek/evalarena/internal/domain/evaluate"
	"github.com/kmarek/evalarena/internal/domain/leaderboard"
	"github.com/kmarek/evalarena/internal/domain/metric"
	"github.com/kmarek/evalarena/internal/domain/model"
	"github.com/kmarek/evalarena/internal/domain/scoring"
	"github.com/kmarek/evalarena/internal/domain/types"
	"github.com/kmarek/evalarena/pkg/logger"
	"github.com/kmarek/evalarena/pkg/metrics"
)

// Service wires the stores, the registry and the scoring pipeline.
type Service struct {
	mu sync.RWMutex

	store     repository.Store
	files     *filestore.Store
	queue     jobqueue.Queue
	deduper   dedupe.Deduper
	registry  *metric.Registry
	evaluator *evaluate.Evaluator
	scorer    *scoring.Scorer
	pool      *workerpool.Pool

	storePath     string
	databasePath  string
	queueSize     int
	workerCount   int
	dedupeSize    int
	evalTimeout   time.Duration
	maxBoardLimit int

	started bool
	logger  logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStorePath sets the root directory for expected output files.
func WithStorePath(path string) Option {
	return func(s *Service) {
		if path != "" {
			s.storePath = path
		}
	}
}

// WithDatabasePath sets the SQLite database location.
func WithDatabasePath(path string) Option {
	return func(s *Service) {
		if path != "" {
			s.databasePath = path
		}
	}
}

// WithQueueSize sets the submission queue capacity.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithWorkerCount sets the number of scoring workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithDedupeSize sets the duplicate-submission cache size.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithEvalTimeout bounds a single metric calculation.
func WithEvalTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.evalTimeout = d
		}
	}
}

// WithMaxLeaderboardLimit caps how many rows a leaderboard read returns.
func WithMaxLeaderboardLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxBoardLimit = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		storePath:     "./store",
		databasePath:  "./evalarena.db",
		queueSize:     10000,
		workerCount:   runtime.NumCPU() * 2,
		dedupeSize:    100000,
		evalTimeout:   time.Minute,
		maxBoardLimit: 1000,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens the stores and launches the scoring pipeline.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	store, err := repository.NewSQLite(s.databasePath)
	if err != nil {
		return fmt.Errorf("open repository: %w", err)
	}
	files, err := filestore.New(s.storePath)
	if err != nil {
		store.Close()
		return fmt.Errorf("open filestore: %w", err)
	}

	s.store = store
	s.files = files
	s.deduper = dedupe.NewInMemory(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = jobqueue.NewInMemory(jobqueue.WithCapacity(s.queueSize))
	s.registry = metric.Default()
	s.evaluator = evaluate.New(s.registry, evaluate.WithTimeout(s.evalTimeout))
	s.scorer = scoring.New(s.evaluator)
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "evaluation service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queue_size", s.queueSize),
		logger.Int("metrics", len(s.registry.Names())),
		logger.String("database", s.databasePath),
	)
	return nil
}

// Stop drains the pipeline and closes the stores.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Error(ctx, "worker pool shutdown failed", logger.Error(err))
	}
	if err := s.store.Close(); err != nil {
		s.logger.Error(ctx, "closing repository failed", logger.Error(err))
	}
	s.started = false
	s.logger.Info(ctx, "evaluation service stopped")
}

// TestInput declares one metric configuration of a new challenge.
type TestInput struct {
	Metric     string         `json:"metric"`
	Parameters map[string]any `json:"parameters,omitempty"`
	MainMetric bool           `json:"main_metric"`
}

// CreateChallengeInput carries everything needed to publish a challenge.
type CreateChallengeInput struct {
	Author         string         `json:"author"`
	Title          string         `json:"title"`
	Source         string         `json:"source,omitempty"`
	Type           string         `json:"type,omitempty"`
	Description    string         `json:"description,omitempty"`
	Award          string         `json:"award,omitempty"`
	Deadline       time.Time      `json:"deadline,omitempty"`
	ExpectedOutput []string       `json:"expected_output"`
	Tests          []TestInput    `json:"tests"`
}

// CreateChallenge validates and persists a challenge, its tests and its
// expected output file. Every declared metric must resolve and bind its
// parameters before anything is stored.
func (s *Service) CreateChallenge(ctx context.Context, in CreateChallengeInput) (types.ChallengeRow, error) {
	if err := s.requireStarted(); err != nil {
		return types.ChallengeRow{}, err
	}
	if len(in.ExpectedOutput) == 0 {
		return types.ChallengeRow{}, ErrNoExpectedOutput
	}
	mains := 0
	for _, t := range in.Tests {
		if t.MainMetric {
			mains++
		}
	}
	if mains != 1 {
		return types.ChallengeRow{}, fmt.Errorf("%w: got %d", ErrNoMainMetric, mains)
	}

	tests := make([]model.Test, len(in.Tests))
	for i, t := range in.Tests {
		if _, err := s.registry.Instantiate(t.Metric, t.Parameters); err != nil {
			return types.ChallengeRow{}, err
		}
		blob := ""
		if len(t.Parameters) > 0 {
			raw, err := json.Marshal(t.Parameters)
			if err != nil {
				return types.ChallengeRow{}, fmt.Errorf("%w: %v", metric.ErrInvalidParameters, err)
			}
			blob = string(raw)
		}
		tests[i] = model.Test{
			Metric:     t.Metric,
			Parameters: blob,
			MainMetric: t.MainMetric,
			Active:     true,
		}
	}

	if err := s.files.SaveExpected(in.Title, in.ExpectedOutput); err != nil {
		return types.ChallengeRow{}, err
	}
	challenge, err := s.store.CreateChallenge(ctx, model.Challenge{
		Author:      in.Author,
		Title:       in.Title,
		Source:      in.Source,
		Type:        in.Type,
		Description: in.Description,
		Deadline:    in.Deadline,
		Award:       in.Award,
	}, tests)
	if err != nil {
		// The expected file is orphaned on failure; remove it so a retry
		// starts clean.
		_ = s.files.RemoveExpected(in.Title)
		return types.ChallengeRow{}, err
	}

	s.logger.Info(ctx, "challenge created",
		logger.String("title", challenge.Title),
		logger.Int("tests", len(tests)),
	)
	return s.challengeRow(ctx, challenge)
}

// SubmitInput is one participant's upload for a challenge.
type SubmitInput struct {
	Challenge   string   `json:"challenge"`
	Submitter   string   `json:"submitter"`
	Description string   `json:"description,omitempty"`
	Lines       []string `json:"submission"`
}

// Submit validates a submission synchronously and enqueues it for
// asynchronous scoring. It returns a job id the caller can correlate
// with server logs.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (string, error) {
	if err := s.requireStarted(); err != nil {
		return "", err
	}

	challenge, err := s.store.ChallengeByTitle(ctx, in.Challenge)
	if err != nil {
		return "", err
	}
	if !challenge.Deadline.IsZero() && time.Now().After(challenge.Deadline) {
		return "", fmt.Errorf("%w: %q closed at %s",
			ErrDeadlinePassed, challenge.Title, challenge.Deadline.Format(time.RFC3339))
	}

	actual := metric.Parse(in.Lines)
	if actual.Len() == 0 {
		return "", ErrEmptySubmission
	}
	expectedLines, err := s.files.LoadExpected(challenge.Title)
	if err != nil {
		return "", err
	}
	expected := metric.Parse(expectedLines)
	if expected.Len() != actual.Len() {
		return "", fmt.Errorf("%w: expected %d values, got %d",
			ErrLengthMismatch, expected.Len(), actual.Len())
	}

	key := dedupe.Key(challenge.ID, in.Submitter, in.Lines)
	if s.deduper.SeenAndRecord(ctx, key) {
		metrics.RecordSubmissionDuplicate()
		return "", fmt.Errorf("%w: identical content already submitted by %q",
			ErrDuplicateSubmission, in.Submitter)
	}

	job := model.Job{
		JobID:       uuid.NewString(),
		Challenge:   challenge.ID,
		Title:       challenge.Title,
		Submitter:   in.Submitter,
		Description: in.Description,
		Lines:       in.Lines,
		Received:    time.Now().UTC(),
	}
	if !s.queue.Enqueue(ctx, job) {
		s.deduper.Unrecord(ctx, key)
		return "", ErrBackpressure
	}

	metrics.RecordSubmissionReceived()
	s.logger.Debug(ctx, "submission enqueued",
		logger.String("job_id", job.JobID),
		logger.String("challenge", job.Title),
		logger.String("submitter", job.Submitter),
	)
	return job.JobID, nil
}

// Process scores one queued submission against every active test of its
// challenge and persists the submission with its full score set in one
// transaction. Any failure leaves no trace in the store and frees the
// dedupe slot so the submitter can retry.
func (s *Service) Process(ctx context.Context, job model.Job) error {
	key := dedupe.Key(job.Challenge, job.Submitter, job.Lines)

	expectedLines, err := s.files.LoadExpected(job.Title)
	if err != nil {
		return s.reject(ctx, key, err)
	}
	expected := metric.Parse(expectedLines)
	actual := metric.Parse(job.Lines)

	tests, err := s.store.Tests(ctx, job.Challenge)
	if err != nil {
		return s.reject(ctx, key, err)
	}
	results, err := s.scorer.ScoreSubmission(ctx, expected, actual, tests)
	if err != nil {
		return s.reject(ctx, key, err)
	}

	now := time.Now().UTC()
	evals := make([]model.Evaluation, len(results))
	for i, res := range results {
		evals[i] = model.Evaluation{Test: res.TestID, Score: res.Score, Timestamp: now}
	}
	sub, err := s.store.AddSubmission(ctx, model.Submission{
		Challenge:   job.Challenge,
		Submitter:   job.Submitter,
		Description: job.Description,
		Timestamp:   job.Received,
	}, evals)
	if err != nil {
		return s.reject(ctx, key, err)
	}

	metrics.RecordSubmissionScored()
	s.logger.Info(ctx, "submission scored",
		logger.String("job_id", job.JobID),
		logger.String("challenge", job.Title),
		logger.String("submitter", job.Submitter),
		logger.Int64("submission_id", sub.ID),
		logger.Int("evaluations", len(evals)),
	)
	return nil
}

func (s *Service) reject(ctx context.Context, key string, err error) error {
	s.deduper.Unrecord(ctx, key)
	metrics.RecordSubmissionRejected()
	return err
}

// Leaderboard builds the ranked board for a challenge. limit <= 0 means
// the configured maximum.
func (s *Service) Leaderboard(ctx context.Context, title string, limit int) ([]types.LeaderboardRow, error) {
	if err := s.requireStarted(); err != nil {
		return nil, err
	}
	start := time.Now()

	challenge, mainTest, err := s.mainTest(ctx, title)
	if err != nil {
		return nil, err
	}
	sorting, err := s.evaluator.Sorting(mainTest.Metric)
	if err != nil {
		return nil, err
	}
	evals, err := s.store.EvaluationsForTest(ctx, mainTest.ID)
	if err != nil {
		return nil, err
	}
	subs, err := s.store.Submissions(ctx, challenge.ID)
	if err != nil {
		return nil, err
	}

	rows := leaderboard.Build(sorting, evals, subs)
	if limit <= 0 || limit > s.maxBoardLimit {
		limit = s.maxBoardLimit
	}
	if len(rows) > limit {
		rows = rows[:limit]
	}

	metrics.RecordLeaderboardRead()
	metrics.RecordLeaderboardLatency(float64(time.Since(start).Microseconds()) / 1000)
	return rows, nil
}

// Submissions lists a challenge's scored submissions with every metric
// result. An empty submitter lists everyone's.
func (s *Service) Submissions(ctx context.Context, title, submitter string) ([]types.SubmissionRow, error) {
	if err := s.requireStarted(); err != nil {
		return nil, err
	}

	challenge, err := s.store.ChallengeByTitle(ctx, title)
	if err != nil {
		return nil, err
	}
	tests, err := s.store.Tests(ctx, challenge.ID)
	if err != nil {
		return nil, err
	}
	metricByTest := make(map[int64]model.Test, len(tests))
	for _, t := range tests {
		metricByTest[t.ID] = t
	}

	var subs []model.Submission
	if submitter == "" {
		subs, err = s.store.Submissions(ctx, challenge.ID)
	} else {
		subs, err = s.store.SubmissionsBySubmitter(ctx, challenge.ID, submitter)
	}
	if err != nil {
		return nil, err
	}

	rows := make([]types.SubmissionRow, 0, len(subs))
	for _, sub := range subs {
		evals, err := s.store.EvaluationsForSubmission(ctx, sub.ID)
		if err != nil {
			return nil, err
		}
		row := types.SubmissionRow{
			SubmissionID: sub.ID,
			Submitter:    sub.Submitter,
			Description:  sub.Description,
			Timestamp:    sub.Timestamp,
		}
		for _, ev := range evals {
			t, ok := metricByTest[ev.Test]
			if !ok {
				continue
			}
			if t.MainMetric {
				row.MainResult = ev.Score
			} else {
				row.Additional = append(row.Additional, types.MetricResult{
					Name:  t.Metric,
					Score: ev.Score,
				})
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Challenges lists all published challenges.
func (s *Service) Challenges(ctx context.Context) ([]types.ChallengeRow, error) {
	if err := s.requireStarted(); err != nil {
		return nil, err
	}
	challenges, err := s.store.Challenges(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]types.ChallengeRow, 0, len(challenges))
	for _, c := range challenges {
		row, err := s.challengeRow(ctx, c)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ChallengeInfo returns one challenge with its main metric and current
// best score.
func (s *Service) ChallengeInfo(ctx context.Context, title string) (types.ChallengeRow, error) {
	if err := s.requireStarted(); err != nil {
		return types.ChallengeRow{}, err
	}
	challenge, err := s.store.ChallengeByTitle(ctx, title)
	if err != nil {
		return types.ChallengeRow{}, err
	}
	return s.challengeRow(ctx, challenge)
}

// MetricInfos describes every registered metric.
func (s *Service) MetricInfos(ctx context.Context) ([]metric.Info, error) {
	if err := s.requireStarted(); err != nil {
		return nil, err
	}
	return s.registry.Infos(), nil
}

// GetStats snapshots the pipeline for the stats endpoint.
func (s *Service) GetStats(ctx context.Context) (types.Stats, error) {
	if err := s.requireStarted(); err != nil {
		return types.Stats{}, err
	}
	challenges, submissions, evaluations, err := s.store.Counts(ctx)
	if err != nil {
		return types.Stats{}, err
	}
	return types.Stats{
		Challenges:  challenges,
		Submissions: submissions,
		Evaluations: evaluations,
		QueueSize:   s.queue.Len(ctx),
		DedupeSize:  s.deduper.Size(),
		Workers:     s.workerCount,
	}, nil
}

func (s *Service) challengeRow(ctx context.Context, c model.Challenge) (types.ChallengeRow, error) {
	row := types.ChallengeRow{
		ID:          c.ID,
		Title:       c.Title,
		Author:      c.Author,
		Type:        c.Type,
		Description: c.Description,
		Award:       c.Award,
		Deleted:     c.Deleted,
	}
	if !c.Deadline.IsZero() {
		deadline := c.Deadline
		row.Deadline = &deadline
	}

	tests, err := s.store.Tests(ctx, c.ID)
	if err != nil {
		return types.ChallengeRow{}, err
	}
	for _, t := range tests {
		if !t.MainMetric {
			continue
		}
		row.MainMetric = t.Metric
		sorting, err := s.evaluator.Sorting(t.Metric)
		if err != nil {
			return types.ChallengeRow{}, err
		}
		row.Sorting = string(sorting)

		evals, err := s.store.EvaluationsForTest(ctx, t.ID)
		if err != nil {
			return types.ChallengeRow{}, err
		}
		row.BestScore = leaderboard.Best(sorting, evals)
		break
	}
	return row, nil
}

func (s *Service) mainTest(ctx context.Context, title string) (model.Challenge, model.Test, error) {
	challenge, err := s.store.ChallengeByTitle(ctx, title)
	if err != nil {
		return model.Challenge{}, model.Test{}, err
	}
	tests, err := s.store.Tests(ctx, challenge.ID)
	if err != nil {
		return model.Challenge{}, model.Test{}, err
	}
	for _, t := range tests {
		if t.MainMetric {
			return challenge, t, nil
		}
	}
	return model.Challenge{}, model.Test{}, fmt.Errorf("%w: challenge %q", ErrNoMainMetric, title)
}

func (s *Service) requireStarted() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}
