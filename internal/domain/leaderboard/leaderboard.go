// Package leaderboard derives a challenge's ranking from its stored main
// metric evaluations. The board is recomputed on read, never cached, so
// it always reflects exactly what is persisted.
package leaderboard

import (
	"sort"

	"github.com/kmarek/evalarena/internal/domain/metric"
	"github.com/kmarek/evalarena/internal/domain/model"
	"github.com/kmarek/evalarena/internal/domain/types"
)

type entry struct {
	submission model.Submission
	score      float64
}

// Build ranks submitters by their best main metric score. evals must all
// belong to the challenge's main metric test. Each submitter appears
// once, represented by their best submission under the metric's sort
// direction; among equal scores the earliest submission wins. The final
// order breaks score ties the same way, so the board is deterministic
// for any input order.
func Build(sorting metric.Sorting, evals []model.Evaluation, subs []model.Submission) []types.LeaderboardRow {
	byID := make(map[int64]model.Submission, len(subs))
	for _, s := range subs {
		if !s.Deleted {
			byID[s.ID] = s
		}
	}

	better := func(a, b entry) bool {
		if a.score != b.score {
			if sorting == metric.Ascending {
				return a.score < b.score
			}
			return a.score > b.score
		}
		if !a.submission.Timestamp.Equal(b.submission.Timestamp) {
			return a.submission.Timestamp.Before(b.submission.Timestamp)
		}
		return a.submission.ID < b.submission.ID
	}

	best := make(map[string]entry)
	for _, ev := range evals {
		sub, ok := byID[ev.Submission]
		if !ok {
			continue
		}
		cand := entry{submission: sub, score: ev.Score}
		cur, seen := best[sub.Submitter]
		if !seen || better(cand, cur) {
			best[sub.Submitter] = cand
		}
	}

	entries := make([]entry, 0, len(best))
	for _, e := range best {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return better(entries[i], entries[j]) })

	rows := make([]types.LeaderboardRow, len(entries))
	for i, e := range entries {
		rows[i] = types.LeaderboardRow{
			Rank:         i + 1,
			SubmissionID: e.submission.ID,
			Submitter:    e.submission.Submitter,
			Description:  e.submission.Description,
			Timestamp:    e.submission.Timestamp,
			Score:        e.score,
		}
	}
	return rows
}

// Best returns the single best score among the evaluations under the
// given sort direction, or nil when there is nothing to rank.
func Best(sorting metric.Sorting, evals []model.Evaluation) *float64 {
	var best *float64
	for _, ev := range evals {
		score := ev.Score
		if best == nil ||
			(sorting == metric.Ascending && score < *best) ||
			(sorting == metric.Descending && score > *best) {
			best = &score
		}
	}
	return best
}
