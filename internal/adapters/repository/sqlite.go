package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/kmarek/evalarena/internal/domain/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS challenges (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	author      TEXT NOT NULL,
	title       TEXT NOT NULL UNIQUE,
	source      TEXT NOT NULL DEFAULT '',
	type        TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	deadline    TEXT NOT NULL DEFAULT '',
	award       TEXT NOT NULL DEFAULT '',
	deleted     INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS tests (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	challenge   INTEGER NOT NULL REFERENCES challenges(id) ON DELETE CASCADE,
	metric      TEXT NOT NULL,
	parameters  TEXT NOT NULL DEFAULT '',
	main_metric INTEGER NOT NULL DEFAULT 0,
	active      INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS submissions (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	challenge   INTEGER NOT NULL REFERENCES challenges(id) ON DELETE CASCADE,
	submitter   TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	timestamp   TEXT NOT NULL,
	deleted     INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS evaluations (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	test       INTEGER NOT NULL REFERENCES tests(id) ON DELETE CASCADE,
	submission INTEGER NOT NULL REFERENCES submissions(id) ON DELETE CASCADE,
	score      REAL NOT NULL,
	timestamp  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tests_challenge ON tests(challenge);
CREATE INDEX IF NOT EXISTS idx_submissions_challenge ON submissions(challenge);
CREATE INDEX IF NOT EXISTS idx_evaluations_test ON evaluations(test);
CREATE INDEX IF NOT EXISTS idx_evaluations_submission ON evaluations(submission);
`

type sqliteStore struct {
	db          *sql.DB
	busyTimeout time.Duration
}

// NewSQLite opens (or creates) the database at path and ensures the
// schema. Pass ":memory:" for an ephemeral store.
func NewSQLite(path string, opts ...SQLiteOption) (Store, error) {
	s := &sqliteStore{busyTimeout: 5 * time.Second}
	for _, opt := range opts {
		opt(s)
	}

	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=%d", path, s.busyTimeout.Milliseconds())
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %q: %w", path, err)
	}
	// SQLite handles one writer at a time; a single connection avoids
	// table-lock errors and keeps in-memory databases coherent.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	s.db = db
	return s, nil
}

func (s *sqliteStore) Close() error { return s.db.Close() }

func encodeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func decodeTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, raw)
}

func (s *sqliteStore) CreateChallenge(ctx context.Context, c model.Challenge, tests []model.Test) (model.Challenge, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Challenge{}, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO challenges (author, title, source, type, description, deadline, award)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.Author, c.Title, c.Source, c.Type, c.Description, encodeTime(c.Deadline), c.Award,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.Challenge{}, fmt.Errorf("%w: %q", ErrDuplicateChallenge, c.Title)
		}
		return model.Challenge{}, fmt.Errorf("insert challenge: %w", err)
	}
	c.ID, err = res.LastInsertId()
	if err != nil {
		return model.Challenge{}, err
	}

	for _, t := range tests {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO tests (challenge, metric, parameters, main_metric, active)
			 VALUES (?, ?, ?, ?, ?)`,
			c.ID, t.Metric, t.Parameters, t.MainMetric, t.Active,
		); err != nil {
			return model.Challenge{}, fmt.Errorf("insert test %q: %w", t.Metric, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return model.Challenge{}, err
	}
	return c, nil
}

const challengeColumns = "id, author, title, source, type, description, deadline, award, deleted"

func scanChallenge(row interface{ Scan(...any) error }) (model.Challenge, error) {
	var c model.Challenge
	var deadline string
	if err := row.Scan(&c.ID, &c.Author, &c.Title, &c.Source, &c.Type,
		&c.Description, &deadline, &c.Award, &c.Deleted); err != nil {
		return model.Challenge{}, err
	}
	var err error
	c.Deadline, err = decodeTime(deadline)
	return c, err
}

func (s *sqliteStore) ChallengeByTitle(ctx context.Context, title string) (model.Challenge, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+challengeColumns+` FROM challenges WHERE title = ? AND deleted = 0`, title)
	c, err := scanChallenge(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Challenge{}, fmt.Errorf("%w: challenge %q", ErrNotFound, title)
	}
	return c, err
}

func (s *sqliteStore) Challenges(ctx context.Context) ([]model.Challenge, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+challengeColumns+` FROM challenges WHERE deleted = 0 ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Challenge
	for rows.Next() {
		c, err := scanChallenge(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *sqliteStore) DeleteChallenge(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE challenges SET deleted = 1 WHERE id = ? AND deleted = 0`, id)
	if err != nil {
		return err
	}
	return requireRow(res, "challenge", id)
}

func (s *sqliteStore) Tests(ctx context.Context, challengeID int64) ([]model.Test, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, challenge, metric, parameters, main_metric, active
		 FROM tests WHERE challenge = ? ORDER BY id`, challengeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Test
	for rows.Next() {
		var t model.Test
		if err := rows.Scan(&t.ID, &t.Challenge, &t.Metric, &t.Parameters, &t.MainMetric, &t.Active); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *sqliteStore) AddSubmission(ctx context.Context, sub model.Submission, evals []model.Evaluation) (model.Submission, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Submission{}, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO submissions (challenge, submitter, description, timestamp)
		 VALUES (?, ?, ?, ?)`,
		sub.Challenge, sub.Submitter, sub.Description, encodeTime(sub.Timestamp),
	)
	if err != nil {
		return model.Submission{}, fmt.Errorf("insert submission: %w", err)
	}
	sub.ID, err = res.LastInsertId()
	if err != nil {
		return model.Submission{}, err
	}

	for _, ev := range evals {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO evaluations (test, submission, score, timestamp)
			 VALUES (?, ?, ?, ?)`,
			ev.Test, sub.ID, ev.Score, encodeTime(ev.Timestamp),
		); err != nil {
			return model.Submission{}, fmt.Errorf("insert evaluation for test %d: %w", ev.Test, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return model.Submission{}, err
	}
	return sub, nil
}

const submissionColumns = "id, challenge, submitter, description, timestamp, deleted"

func scanSubmissions(rows *sql.Rows) ([]model.Submission, error) {
	var out []model.Submission
	for rows.Next() {
		var sub model.Submission
		var stamp string
		if err := rows.Scan(&sub.ID, &sub.Challenge, &sub.Submitter, &sub.Description, &stamp, &sub.Deleted); err != nil {
			return nil, err
		}
		var err error
		if sub.Timestamp, err = decodeTime(stamp); err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

func (s *sqliteStore) Submissions(ctx context.Context, challengeID int64) ([]model.Submission, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+submissionColumns+` FROM submissions
		 WHERE challenge = ? AND deleted = 0 ORDER BY id`, challengeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSubmissions(rows)
}

func (s *sqliteStore) SubmissionsBySubmitter(ctx context.Context, challengeID int64, submitter string) ([]model.Submission, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+submissionColumns+` FROM submissions
		 WHERE challenge = ? AND submitter = ? AND deleted = 0 ORDER BY id`, challengeID, submitter)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSubmissions(rows)
}

func (s *sqliteStore) UpdateSubmissionDescription(ctx context.Context, id int64, description string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE submissions SET description = ? WHERE id = ? AND deleted = 0`, description, id)
	if err != nil {
		return err
	}
	return requireRow(res, "submission", id)
}

func (s *sqliteStore) SoftDeleteSubmission(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE submissions SET deleted = 1 WHERE id = ? AND deleted = 0`, id)
	if err != nil {
		return err
	}
	return requireRow(res, "submission", id)
}

func (s *sqliteStore) EvaluationsForTest(ctx context.Context, testID int64) ([]model.Evaluation, error) {
	return s.evaluations(ctx,
		`SELECT id, test, submission, score, timestamp FROM evaluations WHERE test = ? ORDER BY id`, testID)
}

func (s *sqliteStore) EvaluationsForSubmission(ctx context.Context, submissionID int64) ([]model.Evaluation, error) {
	return s.evaluations(ctx,
		`SELECT id, test, submission, score, timestamp FROM evaluations WHERE submission = ? ORDER BY id`, submissionID)
}

func (s *sqliteStore) evaluations(ctx context.Context, query string, arg any) ([]model.Evaluation, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Evaluation
	for rows.Next() {
		var ev model.Evaluation
		var stamp string
		if err := rows.Scan(&ev.ID, &ev.Test, &ev.Submission, &ev.Score, &stamp); err != nil {
			return nil, err
		}
		if ev.Timestamp, err = decodeTime(stamp); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (s *sqliteStore) Counts(ctx context.Context) (challenges, submissions, evaluations int64, err error) {
	row := s.db.QueryRowContext(ctx, `SELECT
		(SELECT COUNT(*) FROM challenges WHERE deleted = 0),
		(SELECT COUNT(*) FROM submissions WHERE deleted = 0),
		(SELECT COUNT(*) FROM evaluations)`)
	err = row.Scan(&challenges, &submissions, &evaluations)
	return challenges, submissions, evaluations, err
}

func requireRow(res sql.Result, kind string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s %d", ErrNotFound, kind, id)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
