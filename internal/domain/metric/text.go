package metric

import (
	"errors"
	"math"
	"strings"
)

func ngramCounts(tokens []string, n int) map[string]int {
	counts := make(map[string]int)
	for i := 0; i+n <= len(tokens); i++ {
		counts[strings.Join(tokens[i:i+n], "\x1f")]++
	}
	return counts
}

func runeTokens(s string) []string {
	runes := []rune(s)
	out := make([]string, len(runes))
	for i, r := range runes {
		out[i] = string(r)
	}
	return out
}

// ngramOverlap returns clipped matches plus the reference and hypothesis
// n-gram totals for one segment pair.
func ngramOverlap(ref, hyp []string, n int) (matches, refTotal, hypTotal int) {
	refCounts := ngramCounts(ref, n)
	hypCounts := ngramCounts(hyp, n)
	for g, c := range hypCounts {
		hypTotal += c
		if rc, ok := refCounts[g]; ok {
			if c < rc {
				matches += c
			} else {
				matches += rc
			}
		}
	}
	for _, c := range refCounts {
		refTotal += c
	}
	return matches, refTotal, hypTotal
}

func registerText(r *Registry) {
	r.mustRegister(&Spec{
		Name:    "wer",
		Link:    "https://huggingface.co/spaces/evaluate-metric/wer",
		Sorting: Ascending,
		Params:  []ParamSpec{},
		Calculate: func(expected, actual Values, p Params) (float64, error) {
			e, a := expected.Labels(), actual.Labels()
			edits, refLen := 0, 0
			for i := range e {
				ref := strings.Fields(e[i])
				hyp := strings.Fields(a[i])
				edits += levenshtein(ref, hyp)
				refLen += len(ref)
			}
			if refLen == 0 {
				return 0, errors.New("reference column has no words")
			}
			return float64(edits) / float64(refLen), nil
		},
	})

	r.mustRegister(&Spec{
		Name:    "cer",
		Link:    "https://huggingface.co/spaces/evaluate-metric/cer",
		Sorting: Ascending,
		Params:  []ParamSpec{},
		Calculate: func(expected, actual Values, p Params) (float64, error) {
			e, a := expected.Labels(), actual.Labels()
			edits, refLen := 0, 0
			for i := range e {
				ref := runeTokens(e[i])
				hyp := runeTokens(a[i])
				edits += levenshtein(ref, hyp)
				refLen += len(ref)
			}
			if refLen == 0 {
				return 0, errors.New("reference column has no characters")
			}
			return float64(edits) / float64(refLen), nil
		},
	})

	r.mustRegister(&Spec{
		Name:    "bleu",
		Link:    "https://www.nltk.org/api/nltk.translate.bleu_score.html",
		Sorting: Descending,
		Params: []ParamSpec{
			{Name: "weights", Type: "list | None", Default: nil},
			{Name: "auto_reweigh", Type: "bool", Default: false},
		},
		Calculate: func(expected, actual Values, p Params) (float64, error) {
			weights, err := p.Floats("weights")
			if err != nil {
				return 0, err
			}
			if weights == nil {
				weights = []float64{0.25, 0.25, 0.25, 0.25}
			}
			autoReweigh, err := p.Bool("auto_reweigh", false)
			if err != nil {
				return 0, err
			}

			e, a := expected.Labels(), actual.Labels()
			refTotal, hypTotal := 0, 0
			shortest := math.MaxInt
			maxOrder := len(weights)
			matches := make([]int, maxOrder)
			possible := make([]int, maxOrder)
			for i := range e {
				ref := strings.Fields(e[i])
				hyp := strings.Fields(a[i])
				refTotal += len(ref)
				hypTotal += len(hyp)
				if len(hyp) < shortest {
					shortest = len(hyp)
				}
				for n := 1; n <= maxOrder; n++ {
					m, _, h := ngramOverlap(ref, hyp, n)
					matches[n-1] += m
					possible[n-1] += h
				}
			}
			if hypTotal == 0 {
				return 0, nil
			}

			// With very short hypotheses the higher orders have no n-grams
			// at all; auto_reweigh redistributes uniformly over the orders
			// that exist.
			if autoReweigh && shortest < maxOrder && shortest > 0 {
				maxOrder = shortest
				weights = make([]float64, maxOrder)
				for i := range weights {
					weights[i] = 1 / float64(maxOrder)
				}
			}

			logSum := 0.0
			for n := 1; n <= maxOrder; n++ {
				if matches[n-1] == 0 || possible[n-1] == 0 {
					return 0, nil
				}
				pn := float64(matches[n-1]) / float64(possible[n-1])
				logSum += weights[n-1] * math.Log(pn)
			}
			bp := 1.0
			if hypTotal < refTotal {
				bp = math.Exp(1 - float64(refTotal)/float64(hypTotal))
			}
			return bp * math.Exp(logSum), nil
		},
	})

	r.mustRegister(&Spec{
		Name:    "chrf",
		Link:    "https://huggingface.co/spaces/evaluate-metric/chrf",
		Sorting: Descending,
		Params: []ParamSpec{
			{Name: "char_order", Type: "int", Default: 6.0},
			{Name: "word_order", Type: "int", Default: 2.0},
			{Name: "beta", Type: "float", Default: 2.0},
			{Name: "lowercase", Type: "bool", Default: false},
		},
		Calculate: func(expected, actual Values, p Params) (float64, error) {
			charOrder, err := p.Int("char_order", 6)
			if err != nil {
				return 0, err
			}
			wordOrder, err := p.Int("word_order", 2)
			if err != nil {
				return 0, err
			}
			beta, err := p.Float("beta", 2)
			if err != nil {
				return 0, err
			}
			lowercase, err := p.Bool("lowercase", false)
			if err != nil {
				return 0, err
			}

			orders := charOrder + wordOrder
			if orders == 0 {
				return 0, errors.New("char_order and word_order cannot both be zero")
			}
			matches := make([]int, orders)
			refTotals := make([]int, orders)
			hypTotals := make([]int, orders)

			e, a := expected.Labels(), actual.Labels()
			for i := range e {
				refLine, hypLine := e[i], a[i]
				if lowercase {
					refLine = strings.ToLower(refLine)
					hypLine = strings.ToLower(hypLine)
				}
				// Character n-grams ignore whitespace; word n-grams split on it.
				refChars := runeTokens(strings.Join(strings.Fields(refLine), ""))
				hypChars := runeTokens(strings.Join(strings.Fields(hypLine), ""))
				for n := 1; n <= charOrder; n++ {
					m, rt, ht := ngramOverlap(refChars, hypChars, n)
					matches[n-1] += m
					refTotals[n-1] += rt
					hypTotals[n-1] += ht
				}
				refWords := strings.Fields(refLine)
				hypWords := strings.Fields(hypLine)
				for n := 1; n <= wordOrder; n++ {
					m, rt, ht := ngramOverlap(refWords, hypWords, n)
					matches[charOrder+n-1] += m
					refTotals[charOrder+n-1] += rt
					hypTotals[charOrder+n-1] += ht
				}
			}

			b2 := beta * beta
			fSum := 0.0
			for i := 0; i < orders; i++ {
				prec := safeDiv(float64(matches[i]), float64(hypTotals[i]), 0)
				rec := safeDiv(float64(matches[i]), float64(refTotals[i]), 0)
				fSum += safeDiv((1+b2)*prec*rec, b2*prec+rec, 0)
			}
			return fSum / float64(orders) * 100, nil
		},
	})
}
