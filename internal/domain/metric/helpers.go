package metric

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// sampleWeights reads the conventional "sample_weight" parameter and
// validates it against the column length. A nil weight list means uniform
// weights of one.
func sampleWeights(p Params, n int) ([]float64, error) {
	w, err := p.Floats("sample_weight")
	if err != nil {
		return nil, err
	}
	if w == nil {
		w = make([]float64, n)
		for i := range w {
			w[i] = 1
		}
		return w, nil
	}
	if len(w) != n {
		return nil, fmt.Errorf("sample_weight has %d entries for %d values", len(w), n)
	}
	return w, nil
}

func sumFloats(xs []float64) float64 {
	total := 0.0
	for _, x := range xs {
		total += x
	}
	return total
}

func weightedMean(vals, w []float64) (float64, error) {
	den := sumFloats(w)
	if den == 0 {
		return 0, errors.New("zero total sample weight")
	}
	num := 0.0
	for i, v := range vals {
		num += v * w[i]
	}
	return num / den, nil
}

// safeDiv divides num by den, substituting zeroDiv when den is zero.
func safeDiv(num, den, zeroDiv float64) float64 {
	if den == 0 {
		return zeroDiv
	}
	return num / den
}

// classSet returns the sorted union of labels observed in both columns,
// unless an explicit restriction is given.
func classSet(expected, actual, restrict []string) []string {
	if restrict != nil {
		return restrict
	}
	seen := make(map[string]bool)
	var classes []string
	for _, s := range expected {
		if !seen[s] {
			seen[s] = true
			classes = append(classes, s)
		}
	}
	for _, s := range actual {
		if !seen[s] {
			seen[s] = true
			classes = append(classes, s)
		}
	}
	sort.Strings(classes)
	return classes
}

// confusion builds a weighted confusion matrix over the given class order.
// Pairs containing a label outside the class set are ignored, matching the
// restriction semantics of an explicit labels parameter.
func confusion(expected, actual []string, classes []string, w []float64) [][]float64 {
	index := make(map[string]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}
	m := make([][]float64, len(classes))
	for i := range m {
		m[i] = make([]float64, len(classes))
	}
	for k := range expected {
		i, okE := index[expected[k]]
		j, okA := index[actual[k]]
		if !okE || !okA {
			continue
		}
		m[i][j] += w[k]
	}
	return m
}

// classCounts holds weighted per-class true positive, false positive,
// false negative and support tallies.
type classCounts struct {
	tp, fp, fn, support float64
}

func countClasses(expected, actual, classes []string, w []float64) map[string]*classCounts {
	counts := make(map[string]*classCounts, len(classes))
	for _, c := range classes {
		counts[c] = &classCounts{}
	}
	for k := range expected {
		e, a := expected[k], actual[k]
		if c, ok := counts[e]; ok {
			c.support += w[k]
			if e == a {
				c.tp += w[k]
			} else {
				c.fn += w[k]
			}
		}
		if e != a {
			if c, ok := counts[a]; ok {
				c.fp += w[k]
			}
		}
	}
	return counts
}

func fbetaFrom(prec, rec, beta, zeroDiv float64) float64 {
	b2 := beta * beta
	return safeDiv((1+b2)*prec*rec, b2*prec+rec, zeroDiv)
}

// levenshtein computes the edit distance between two token sequences.
func levenshtein(a, b []string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = minInt(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func minInt(xs ...int) int {
	m := xs[0]
	for _, x := range xs[1:] {
		if x < m {
			m = x
		}
	}
	return m
}

// weightedMedian returns the value at which cumulative weight reaches half
// of the total, interpolating between the two central values on an exact
// split.
func weightedMedian(vals, w []float64) float64 {
	type pair struct{ v, w float64 }
	pairs := make([]pair, len(vals))
	for i := range vals {
		pairs[i] = pair{vals[i], w[i]}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].v < pairs[j].v })

	total := 0.0
	for _, p := range pairs {
		total += p.w
	}
	half := total / 2
	cum := 0.0
	for i, p := range pairs {
		cum += p.w
		if cum > half {
			return p.v
		}
		if cum == half && i+1 < len(pairs) {
			return (p.v + pairs[i+1].v) / 2
		}
	}
	if len(pairs) == 0 {
		return math.NaN()
	}
	return pairs[len(pairs)-1].v
}

// binaryClasses resolves the negative/positive class pair for metrics that
// only support two classes in single-column form. An explicit labels
// parameter overrides the sorted classes inferred from expected values.
func binaryClasses(expected []string, override []string) ([2]string, error) {
	classes := override
	if classes == nil {
		classes = classSet(expected, nil, nil)
	}
	if len(classes) != 2 {
		return [2]string{}, fmt.Errorf("need exactly 2 classes, got %d", len(classes))
	}
	return [2]string{classes[0], classes[1]}, nil
}
