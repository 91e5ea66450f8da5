package leaderboard

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/kmarek/evalarena/internal/domain/metric"
	"github.com/kmarek/evalarena/internal/domain/model"
)

func ts(minute int) time.Time {
	return time.Date(2025, 6, 1, 12, minute, 0, 0, time.UTC)
}

func TestBuild(t *testing.T) {
	Convey("Given main metric evaluations from several submitters", t, func() {
		subs := []model.Submission{
			{ID: 1, Submitter: "ann", Timestamp: ts(0)},
			{ID: 2, Submitter: "bob", Timestamp: ts(1)},
			{ID: 3, Submitter: "ann", Timestamp: ts(2)},
			{ID: 4, Submitter: "cid", Timestamp: ts(3)},
		}
		evals := []model.Evaluation{
			{ID: 10, Submission: 1, Score: 0.70},
			{ID: 11, Submission: 2, Score: 0.90},
			{ID: 12, Submission: 3, Score: 0.85},
			{ID: 13, Submission: 4, Score: 0.85},
		}

		Convey("When the metric ranks higher-better", func() {
			rows := Build(metric.Descending, evals, subs)

			Convey("Then each submitter appears once at their best score", func() {
				So(len(rows), ShouldEqual, 3)
				So(rows[0].Submitter, ShouldEqual, "bob")
				So(rows[0].Rank, ShouldEqual, 1)
				So(rows[0].Score, ShouldAlmostEqual, 0.90)
				So(rows[1].Submitter, ShouldEqual, "ann")
				So(rows[1].Score, ShouldAlmostEqual, 0.85)
				So(rows[2].Submitter, ShouldEqual, "cid")
				So(rows[2].Rank, ShouldEqual, 3)
			})

			Convey("Then equal scores rank by earliest submission", func() {
				So(rows[1].Timestamp.Before(rows[2].Timestamp), ShouldBeTrue)
			})
		})

		Convey("When the metric ranks lower-better", func() {
			rows := Build(metric.Ascending, evals, subs)

			Convey("Then the order flips", func() {
				So(rows[0].Submitter, ShouldEqual, "ann")
				So(rows[0].Score, ShouldAlmostEqual, 0.70)
				So(rows[len(rows)-1].Submitter, ShouldEqual, "bob")
			})
		})

		Convey("When a submission is soft-deleted", func() {
			subs[1].Deleted = true
			rows := Build(metric.Descending, evals, subs)

			Convey("Then its submitter drops off the board", func() {
				So(len(rows), ShouldEqual, 2)
				So(rows[0].Submitter, ShouldNotEqual, "bob")
			})
		})

		Convey("When an evaluation references an unknown submission", func() {
			rows := Build(metric.Descending, append(evals, model.Evaluation{
				ID: 14, Submission: 99, Score: 1.0,
			}), subs)

			Convey("Then the orphan is ignored", func() {
				So(len(rows), ShouldEqual, 3)
				So(rows[0].Submitter, ShouldEqual, "bob")
			})
		})

		Convey("When there are no evaluations", func() {
			rows := Build(metric.Descending, nil, subs)

			Convey("Then the board is empty", func() {
				So(rows, ShouldBeEmpty)
			})
		})
	})
}

func TestBuildDeterminism(t *testing.T) {
	Convey("Given two submitters with identical scores and timestamps", t, func() {
		subs := []model.Submission{
			{ID: 2, Submitter: "bob", Timestamp: ts(0)},
			{ID: 1, Submitter: "ann", Timestamp: ts(0)},
		}
		evals := []model.Evaluation{
			{ID: 10, Submission: 2, Score: 0.5},
			{ID: 11, Submission: 1, Score: 0.5},
		}

		Convey("When building the board repeatedly", func() {
			first := Build(metric.Descending, evals, subs)

			reversed := []model.Evaluation{evals[1], evals[0]}
			second := Build(metric.Descending, reversed, subs)

			Convey("Then the lowest submission id settles the tie every time", func() {
				So(first[0].SubmissionID, ShouldEqual, 1)
				So(second[0].SubmissionID, ShouldEqual, 1)
				So(first, ShouldResemble, second)
			})
		})
	})
}

func TestBest(t *testing.T) {
	Convey("Given a set of evaluations", t, func() {
		evals := []model.Evaluation{
			{Score: 0.3}, {Score: 0.9}, {Score: 0.5},
		}

		Convey("When asking for the best score in each direction", func() {
			hi := Best(metric.Descending, evals)
			lo := Best(metric.Ascending, evals)

			Convey("Then the extremes are returned", func() {
				So(*hi, ShouldAlmostEqual, 0.9)
				So(*lo, ShouldAlmostEqual, 0.3)
			})
		})

		Convey("When there are no evaluations", func() {
			Convey("Then there is no best score", func() {
				So(Best(metric.Descending, nil), ShouldBeNil)
			})
		})
	})
}
