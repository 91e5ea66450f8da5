package metric

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// dcgAt computes the discounted cumulative gain of the relevance column
// ordered by the score column. With ignore_ties false, positions sharing
// a score form a tie group and each member receives the group's average
// discount.
func dcgAt(relevance, scores []float64, k int, logBase float64, ignoreTies bool) float64 {
	n := len(relevance)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return scores[order[i]] > scores[order[j]]
	})

	limit := n
	if k > 0 && k < limit {
		limit = k
	}
	discount := func(pos int) float64 {
		return 1 / (math.Log(float64(pos+2)) / math.Log(logBase))
	}

	if ignoreTies {
		total := 0.0
		for pos := 0; pos < limit; pos++ {
			total += relevance[order[pos]] * discount(pos)
		}
		return total
	}

	total := 0.0
	for start := 0; start < n; {
		end := start
		for end < n && scores[order[end]] == scores[order[start]] {
			end++
		}
		// Average discount over the group's positions, truncated at k.
		discSum := 0.0
		for pos := start; pos < end && pos < limit; pos++ {
			discSum += discount(pos)
		}
		avg := discSum / float64(end-start)
		for pos := start; pos < end; pos++ {
			total += relevance[order[pos]] * avg
		}
		if end >= limit {
			break
		}
		start = end
	}
	return total
}

func registerRanking(r *Registry) {
	r.mustRegister(&Spec{
		Name:    "dcg",
		Link:    skLearnBase + "sklearn.metrics.dcg_score.html",
		Sorting: Descending,
		Params: []ParamSpec{
			{Name: "k", Type: "int | None", Default: nil},
			{Name: "log_base", Type: "float", Default: 2.0},
			{Name: "ignore_ties", Type: "bool", Default: false},
		},
		Calculate: func(expected, actual Values, p Params) (float64, error) {
			rel, err := expected.Floats()
			if err != nil {
				return 0, err
			}
			scores, err := actual.Floats()
			if err != nil {
				return 0, err
			}
			k, err := p.Int("k", 0)
			if err != nil {
				return 0, err
			}
			logBase, err := p.Float("log_base", 2)
			if err != nil {
				return 0, err
			}
			if logBase <= 1 {
				return 0, fmt.Errorf("%w: log_base must be greater than 1, got %g",
					ErrInvalidParameters, logBase)
			}
			ignoreTies, err := p.Bool("ignore_ties", false)
			if err != nil {
				return 0, err
			}
			return dcgAt(rel, scores, k, logBase, ignoreTies), nil
		},
	})

	r.mustRegister(&Spec{
		Name:    "ndcg",
		Link:    skLearnBase + "sklearn.metrics.ndcg_score.html",
		Sorting: Descending,
		Params: []ParamSpec{
			{Name: "k", Type: "int | None", Default: nil},
			{Name: "ignore_ties", Type: "bool", Default: false},
		},
		Calculate: func(expected, actual Values, p Params) (float64, error) {
			rel, err := expected.Floats()
			if err != nil {
				return 0, err
			}
			scores, err := actual.Floats()
			if err != nil {
				return 0, err
			}
			for _, g := range rel {
				if g < 0 {
					return 0, errors.New("relevance values must be non-negative")
				}
			}
			k, err := p.Int("k", 0)
			if err != nil {
				return 0, err
			}
			ignoreTies, err := p.Bool("ignore_ties", false)
			if err != nil {
				return 0, err
			}
			ideal := dcgAt(rel, rel, k, 2, true)
			if ideal == 0 {
				return 0, nil
			}
			return dcgAt(rel, scores, k, 2, ignoreTies) / ideal, nil
		},
	})

	r.mustRegister(&Spec{
		Name:    "average_precision",
		Link:    skLearnBase + "sklearn.metrics.average_precision_score.html",
		Sorting: Descending,
		Params: []ParamSpec{
			{Name: "pos_label", Type: "int | str", Default: "1"},
			{Name: "sample_weight", Type: "list | None", Default: nil},
		},
		Calculate: func(expected, actual Values, p Params) (float64, error) {
			w, err := sampleWeights(p, expected.Len())
			if err != nil {
				return 0, err
			}
			posLabel, err := p.String("pos_label", "1")
			if err != nil {
				return 0, err
			}
			scores, err := actual.Floats()
			if err != nil {
				return 0, err
			}
			labels := expected.Labels()

			order := make([]int, len(labels))
			for i := range order {
				order[i] = i
			}
			sort.SliceStable(order, func(i, j int) bool {
				return scores[order[i]] > scores[order[j]]
			})

			totalPos := 0.0
			for i, l := range labels {
				if l == posLabel {
					totalPos += w[i]
				}
			}
			if totalPos == 0 {
				return 0, errors.New("no positive samples for the given pos_label")
			}

			// Sweep score thresholds from high to low; every distinct score
			// contributes (ΔR · P) at that threshold.
			var tp, fp, prevRecall, ap float64
			for start := 0; start < len(order); {
				end := start
				for end < len(order) && scores[order[end]] == scores[order[start]] {
					idx := order[end]
					if labels[idx] == posLabel {
						tp += w[idx]
					} else {
						fp += w[idx]
					}
					end++
				}
				recall := tp / totalPos
				precision := safeDiv(tp, tp+fp, 0)
				ap += (recall - prevRecall) * precision
				prevRecall = recall
				start = end
			}
			return ap, nil
		},
	})
}
