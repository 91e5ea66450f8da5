package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/kmarek/evalarena/internal/adapters/repository"
	"github.com/kmarek/evalarena/internal/domain/metric"
	"github.com/kmarek/evalarena/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	dir := t.TempDir()
	s := New(
		WithStorePath(dir),
		WithDatabasePath(filepath.Join(dir, "test.db")),
		WithWorkerCount(2),
		WithQueueSize(64),
	)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start service: %v", err)
	}
	t.Cleanup(func() { s.Stop(context.Background()) })
	return s
}

func digitsChallenge() CreateChallengeInput {
	return CreateChallengeInput{
		Author:         "ann",
		Title:          "digits",
		Type:           "classification",
		Description:    "classify handwritten digits",
		ExpectedOutput: []string{"0", "1", "2", "1", "0"},
		Tests: []TestInput{
			{Metric: "accuracy", MainMetric: true},
			{Metric: "f1_score", Parameters: map[string]any{"average": "macro"}},
		},
	}
}

func submitAndWait(t *testing.T, s *Service, in SubmitInput) {
	t.Helper()
	ctx := context.Background()
	if _, err := s.Submit(ctx, in); err != nil {
		t.Fatalf("submit: %v", err)
	}
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		rows, err := s.Submissions(ctx, in.Challenge, in.Submitter)
		if err == nil && len(rows) > 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("submission by %q never landed", in.Submitter)
}

func TestCreateChallenge(t *testing.T) {
	Convey("Given a running service", t, func() {
		s := newTestService(t)
		ctx := context.Background()

		Convey("When creating a valid challenge", func() {
			row, err := s.CreateChallenge(ctx, digitsChallenge())

			Convey("Then the challenge is queryable with its main metric", func() {
				So(err, ShouldBeNil)
				So(row.Title, ShouldEqual, "digits")
				So(row.MainMetric, ShouldEqual, "accuracy")
				So(row.Sorting, ShouldEqual, "descending")
				So(row.BestScore, ShouldBeNil)

				all, err := s.Challenges(ctx)
				So(err, ShouldBeNil)
				So(len(all), ShouldEqual, 1)
			})
		})

		Convey("When the challenge names an unknown metric", func() {
			in := digitsChallenge()
			in.Tests[0].Metric = "acuracy"
			_, err := s.CreateChallenge(ctx, in)

			Convey("Then creation fails before anything is stored", func() {
				So(errors.Is(err, metric.ErrUnknownMetric), ShouldBeTrue)
				all, err := s.Challenges(ctx)
				So(err, ShouldBeNil)
				So(all, ShouldBeEmpty)
			})
		})

		Convey("When a metric parameter is not declared", func() {
			in := digitsChallenge()
			in.Tests[1].Parameters = map[string]any{"avg": "macro"}
			_, err := s.CreateChallenge(ctx, in)

			Convey("Then creation fails with the parameter error", func() {
				So(errors.Is(err, metric.ErrInvalidParameters), ShouldBeTrue)
			})
		})

		Convey("When no test is marked as main metric", func() {
			in := digitsChallenge()
			in.Tests[0].MainMetric = false
			_, err := s.CreateChallenge(ctx, in)

			Convey("Then creation is rejected", func() {
				So(errors.Is(err, ErrNoMainMetric), ShouldBeTrue)
			})
		})

		Convey("When the expected output is empty", func() {
			in := digitsChallenge()
			in.ExpectedOutput = nil
			_, err := s.CreateChallenge(ctx, in)

			Convey("Then creation is rejected", func() {
				So(errors.Is(err, ErrNoExpectedOutput), ShouldBeTrue)
			})
		})

		Convey("When the title is already taken", func() {
			_, err := s.CreateChallenge(ctx, digitsChallenge())
			So(err, ShouldBeNil)
			_, err = s.CreateChallenge(ctx, digitsChallenge())

			Convey("Then the duplicate is rejected", func() {
				So(errors.Is(err, repository.ErrDuplicateChallenge), ShouldBeTrue)
			})
		})
	})
}

func TestSubmit(t *testing.T) {
	Convey("Given a service with a published challenge", t, func() {
		s := newTestService(t)
		ctx := context.Background()
		_, err := s.CreateChallenge(ctx, digitsChallenge())
		So(err, ShouldBeNil)

		Convey("When submitting a valid prediction file", func() {
			submitAndWait(t, s, SubmitInput{
				Challenge: "digits",
				Submitter: "bob",
				Lines:     []string{"0", "1", "2", "1", "1"},
			})

			Convey("Then the submission is scored against every test", func() {
				rows, err := s.Submissions(ctx, "digits", "bob")
				So(err, ShouldBeNil)
				So(len(rows), ShouldEqual, 1)
				So(rows[0].MainResult, ShouldAlmostEqual, 0.8)
				So(len(rows[0].Additional), ShouldEqual, 1)
				So(rows[0].Additional[0].Name, ShouldEqual, "f1_score")
			})
		})

		Convey("When the challenge does not exist", func() {
			_, err := s.Submit(ctx, SubmitInput{Challenge: "ghost", Submitter: "bob", Lines: []string{"1"}})

			Convey("Then the lookup error surfaces", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When the submission is empty", func() {
			_, err := s.Submit(ctx, SubmitInput{Challenge: "digits", Submitter: "bob"})

			Convey("Then it is rejected synchronously", func() {
				So(errors.Is(err, ErrEmptySubmission), ShouldBeTrue)
			})
		})

		Convey("When the line count does not match the expected output", func() {
			_, err := s.Submit(ctx, SubmitInput{
				Challenge: "digits",
				Submitter: "bob",
				Lines:     []string{"0", "1"},
			})

			Convey("Then it is rejected with both counts", func() {
				So(errors.Is(err, ErrLengthMismatch), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "5")
				So(err.Error(), ShouldContainSubstring, "2")
			})
		})

		Convey("When the same content is submitted twice", func() {
			lines := []string{"0", "1", "2", "1", "1"}
			_, err := s.Submit(ctx, SubmitInput{Challenge: "digits", Submitter: "bob", Lines: lines})
			So(err, ShouldBeNil)
			_, err = s.Submit(ctx, SubmitInput{Challenge: "digits", Submitter: "bob", Lines: lines})

			Convey("Then the second one is a duplicate", func() {
				So(errors.Is(err, ErrDuplicateSubmission), ShouldBeTrue)
			})

			Convey("But another submitter may send the same content", func() {
				_, err := s.Submit(ctx, SubmitInput{Challenge: "digits", Submitter: "cid", Lines: lines})
				So(err, ShouldBeNil)
			})
		})

		Convey("When the deadline has passed", func() {
			in := digitsChallenge()
			in.Title = "closed"
			in.Deadline = time.Now().Add(-time.Hour)
			_, err := s.CreateChallenge(ctx, in)
			So(err, ShouldBeNil)

			_, err = s.Submit(ctx, SubmitInput{
				Challenge: "closed",
				Submitter: "bob",
				Lines:     []string{"0", "1", "2", "1", "1"},
			})

			Convey("Then the submission is refused", func() {
				So(errors.Is(err, ErrDeadlinePassed), ShouldBeTrue)
			})
		})
	})
}

func TestScoringAllOrNothing(t *testing.T) {
	Convey("Given a challenge whose second metric needs numeric input", t, func() {
		s := newTestService(t)
		ctx := context.Background()
		_, err := s.CreateChallenge(ctx, CreateChallengeInput{
			Author:         "ann",
			Title:          "strict",
			ExpectedOutput: []string{"1", "0", "1"},
			Tests: []TestInput{
				{Metric: "accuracy", MainMetric: true},
				{Metric: "mse"},
			},
		})
		So(err, ShouldBeNil)

		Convey("When a submission fails one of the metrics", func() {
			_, err := s.Submit(ctx, SubmitInput{
				Challenge: "strict",
				Submitter: "bob",
				Lines:     []string{"yes", "no", "yes"},
			})
			So(err, ShouldBeNil)

			Convey("Then no partial scores are ever persisted", func() {
				time.Sleep(300 * time.Millisecond)
				rows, err := s.Submissions(ctx, "strict", "bob")
				So(err, ShouldBeNil)
				So(rows, ShouldBeEmpty)
			})

			Convey("And the submitter can retry the same content", func() {
				time.Sleep(300 * time.Millisecond)
				_, err := s.Submit(ctx, SubmitInput{
					Challenge: "strict",
					Submitter: "bob",
					Lines:     []string{"yes", "no", "yes"},
				})
				So(err, ShouldBeNil)
			})
		})
	})
}

func TestLeaderboard(t *testing.T) {
	Convey("Given a challenge with scored submissions", t, func() {
		s := newTestService(t)
		ctx := context.Background()
		_, err := s.CreateChallenge(ctx, digitsChallenge())
		So(err, ShouldBeNil)

		submitAndWait(t, s, SubmitInput{
			Challenge: "digits", Submitter: "bob",
			Lines: []string{"0", "1", "2", "1", "1"}, // 0.8
		})
		submitAndWait(t, s, SubmitInput{
			Challenge: "digits", Submitter: "cid",
			Lines: []string{"0", "1", "2", "1", "0"}, // 1.0
		})

		Convey("When reading the leaderboard", func() {
			rows, err := s.Leaderboard(ctx, "digits", 0)

			Convey("Then submitters rank by their best main metric score", func() {
				So(err, ShouldBeNil)
				So(len(rows), ShouldEqual, 2)
				So(rows[0].Submitter, ShouldEqual, "cid")
				So(rows[0].Rank, ShouldEqual, 1)
				So(rows[0].Score, ShouldAlmostEqual, 1.0)
				So(rows[1].Submitter, ShouldEqual, "bob")
				So(rows[1].Score, ShouldAlmostEqual, 0.8)
			})
		})

		Convey("When limiting the board", func() {
			rows, err := s.Leaderboard(ctx, "digits", 1)

			Convey("Then only the top rows return", func() {
				So(err, ShouldBeNil)
				So(len(rows), ShouldEqual, 1)
				So(rows[0].Submitter, ShouldEqual, "cid")
			})
		})

		Convey("When a submitter improves", func() {
			submitAndWait(t, s, SubmitInput{
				Challenge: "digits", Submitter: "dee",
				Lines: []string{"1", "1", "2", "1", "1"}, // 0.6
			})
			rows, err := s.Submissions(ctx, "digits", "bob")
			So(err, ShouldBeNil)
			So(len(rows), ShouldEqual, 1)

			Convey("Then the challenge best score tracks the board", func() {
				info, err := s.ChallengeInfo(ctx, "digits")
				So(err, ShouldBeNil)
				So(info.BestScore, ShouldNotBeNil)
				So(*info.BestScore, ShouldAlmostEqual, 1.0)
			})
		})
	})
}

func TestMetricInfosAndStats(t *testing.T) {
	Convey("Given a running service", t, func() {
		s := newTestService(t)
		ctx := context.Background()

		Convey("When listing metric infos", func() {
			infos, err := s.MetricInfos(ctx)

			Convey("Then every registered metric is described", func() {
				So(err, ShouldBeNil)
				So(len(infos), ShouldBeGreaterThan, 30)
			})
		})

		Convey("When reading stats after some activity", func() {
			_, err := s.CreateChallenge(ctx, digitsChallenge())
			So(err, ShouldBeNil)
			submitAndWait(t, s, SubmitInput{
				Challenge: "digits", Submitter: "bob",
				Lines: []string{"0", "1", "2", "1", "1"},
			})

			stats, err := s.GetStats(ctx)

			Convey("Then the counters reflect the stored state", func() {
				So(err, ShouldBeNil)
				So(stats.Challenges, ShouldEqual, 1)
				So(stats.Submissions, ShouldEqual, 1)
				So(stats.Evaluations, ShouldEqual, 2)
				So(stats.Workers, ShouldEqual, 2)
			})
		})
	})
}
