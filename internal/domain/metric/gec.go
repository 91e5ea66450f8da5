package metric

import (
	"fmt"
	"strings"
)

// correctionSplit separates the uncorrected source from the gold target
// inside a single expected line.
const correctionSplit = "X_CORRECTION_SPLIT_X"

const errantLink = "https://github.com/chrisjbryant/errant"

// editSpan is one contiguous correction: source tokens [start, end) are
// replaced by the correction string. Identity is positional, so the same
// fix at a different offset is a different edit.
type editSpan struct {
	start, end int
	correction string
}

// normalizeGEC lowercases and strips everything outside [a-z0-9 ].
func normalizeGEC(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == ' ' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// extractEdits aligns source against target token-wise and merges every
// run of non-matching alignment operations into one replacement span.
func extractEdits(source, target []string) []editSpan {
	n, m := len(source), len(target)
	dist := make([][]int, n+1)
	for i := range dist {
		dist[i] = make([]int, m+1)
		dist[i][0] = i
	}
	for j := 0; j <= m; j++ {
		dist[0][j] = j
	}
	for i := 1; i <= n; i++ {
		for j := 1; j <= m; j++ {
			cost := 1
			if source[i-1] == target[j-1] {
				cost = 0
			}
			dist[i][j] = minInt(dist[i-1][j]+1, dist[i][j-1]+1, dist[i-1][j-1]+cost)
		}
	}

	// Backtrace from the corner, collecting operations in reverse.
	type op struct {
		si, ti int
		match  bool
	}
	var ops []op
	i, j := n, m
	for i > 0 || j > 0 {
		switch {
		case i > 0 && j > 0 && source[i-1] == target[j-1] && dist[i][j] == dist[i-1][j-1]:
			ops = append(ops, op{i - 1, j - 1, true})
			i, j = i-1, j-1
		case i > 0 && j > 0 && dist[i][j] == dist[i-1][j-1]+1:
			ops = append(ops, op{i - 1, j - 1, false})
			i, j = i-1, j-1
		case i > 0 && dist[i][j] == dist[i-1][j]+1:
			ops = append(ops, op{i - 1, -1, false})
			i--
		default:
			ops = append(ops, op{-1, j - 1, false})
			j--
		}
	}
	for l, r := 0, len(ops)-1; l < r; l, r = l+1, r-1 {
		ops[l], ops[r] = ops[r], ops[l]
	}

	var edits []editSpan
	srcPos, tgtPos := 0, 0
	spanStart, spanTgtStart := -1, -1
	flush := func() {
		if spanStart < 0 {
			return
		}
		edits = append(edits, editSpan{
			start:      spanStart,
			end:        srcPos,
			correction: strings.Join(target[spanTgtStart:tgtPos], " "),
		})
		spanStart, spanTgtStart = -1, -1
	}
	for _, o := range ops {
		if o.match {
			flush()
			srcPos++
			tgtPos++
			continue
		}
		if spanStart < 0 {
			spanStart, spanTgtStart = srcPos, tgtPos
		}
		if o.si >= 0 {
			srcPos++
		}
		if o.ti >= 0 {
			tgtPos++
		}
	}
	flush()
	return edits
}

type gecCounts struct {
	tp, fp, fn int
}

func (c gecCounts) precision() float64 {
	if c.fp == 0 {
		return 1
	}
	return float64(c.tp) / float64(c.tp+c.fp)
}

func (c gecCounts) recall() float64 {
	if c.fn == 0 {
		return 1
	}
	return float64(c.tp) / float64(c.tp+c.fn)
}

func (c gecCounts) fbeta(beta float64) float64 {
	p, r := c.precision(), c.recall()
	if p+r == 0 {
		return 0
	}
	b2 := beta * beta
	return (1 + b2) * p * r / (b2*p + r)
}

// gecScore aggregates corpus-level edit counts. Each expected line packs
// the uncorrected source and the gold correction around the split marker;
// the actual line is the submitted correction of the same source.
func gecScore(expected, actual Values) (gecCounts, error) {
	var counts gecCounts
	e, a := expected.Labels(), actual.Labels()
	for i := range e {
		parts := strings.SplitN(e[i], correctionSplit, 2)
		if len(parts) != 2 {
			return gecCounts{}, fmt.Errorf("expected line %d lacks the %s marker", i+1, correctionSplit)
		}
		source := strings.Fields(normalizeGEC(parts[0]))
		target := strings.Fields(normalizeGEC(parts[1]))
		hyp := strings.Fields(normalizeGEC(a[i]))

		refEdits := extractEdits(source, target)
		hypEdits := extractEdits(source, hyp)

		refSet := make(map[editSpan]bool, len(refEdits))
		for _, ed := range refEdits {
			refSet[ed] = true
		}
		hypSet := make(map[editSpan]bool, len(hypEdits))
		for _, ed := range hypEdits {
			hypSet[ed] = true
			if refSet[ed] {
				counts.tp++
			} else {
				counts.fp++
			}
		}
		for _, ed := range refEdits {
			if !hypSet[ed] {
				counts.fn++
			}
		}
	}
	return counts, nil
}

func registerGEC(r *Registry) {
	r.mustRegister(&Spec{
		Name:    "precision_gec",
		Link:    errantLink,
		Sorting: Descending,
		Params:  []ParamSpec{},
		Calculate: func(expected, actual Values, p Params) (float64, error) {
			counts, err := gecScore(expected, actual)
			if err != nil {
				return 0, err
			}
			return counts.precision(), nil
		},
	})

	r.mustRegister(&Spec{
		Name:    "recall_gec",
		Link:    errantLink,
		Sorting: Descending,
		Params:  []ParamSpec{},
		Calculate: func(expected, actual Values, p Params) (float64, error) {
			counts, err := gecScore(expected, actual)
			if err != nil {
				return 0, err
			}
			return counts.recall(), nil
		},
	})

	r.mustRegister(&Spec{
		Name:    "fbeta_gec",
		Link:    errantLink,
		Sorting: Descending,
		Params: []ParamSpec{
			{Name: "beta", Type: "float", Default: 1.0},
		},
		Calculate: func(expected, actual Values, p Params) (float64, error) {
			beta, err := p.Float("beta", 1)
			if err != nil {
				return 0, err
			}
			counts, err := gecScore(expected, actual)
			if err != nil {
				return 0, err
			}
			return counts.fbeta(beta), nil
		},
	})
}
