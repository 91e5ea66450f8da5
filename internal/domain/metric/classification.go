package metric

import (
	"errors"
	"fmt"
	"math"
)

const skLearnBase = "https://scikit-learn.org/stable/modules/generated/"

// prfKind selects which of the precision/recall/F family a spec reports.
type prfKind int

const (
	kindPrecision prfKind = iota
	kindRecall
	kindFScore
)

// prfParams is the shared parameter schema of the precision/recall/F
// family.
func prfParams(withBeta bool) []ParamSpec {
	params := []ParamSpec{}
	if withBeta {
		params = append(params, ParamSpec{Name: "beta", Type: "float", Default: 1.0})
	}
	return append(params,
		ParamSpec{Name: "labels", Type: "list | None", Default: nil},
		ParamSpec{Name: "pos_label", Type: "int | str", Default: "1"},
		ParamSpec{Name: "average", Type: "str | None", Default: "binary",
			Values: []string{"binary", "micro", "macro", "weighted"}},
		ParamSpec{Name: "sample_weight", Type: "list | None", Default: nil},
		ParamSpec{Name: "zero_division", Type: "float", Default: 0.0},
	)
}

// calculatePRF computes precision, recall or F-beta over label columns
// under the binary/micro/macro/weighted averaging modes.
func calculatePRF(kind prfKind, expected, actual []string, p Params) (float64, error) {
	w, err := sampleWeights(p, len(expected))
	if err != nil {
		return 0, err
	}
	labels, err := p.Strings("labels")
	if err != nil {
		return 0, err
	}
	posLabel, err := p.String("pos_label", "1")
	if err != nil {
		return 0, err
	}
	average, err := p.String("average", "binary")
	if err != nil {
		return 0, err
	}
	zeroDiv, err := p.Float("zero_division", 0)
	if err != nil {
		return 0, err
	}
	beta, err := p.Float("beta", 1)
	if err != nil {
		return 0, err
	}

	pick := func(c *classCounts) float64 {
		prec := safeDiv(c.tp, c.tp+c.fp, zeroDiv)
		rec := safeDiv(c.tp, c.tp+c.fn, zeroDiv)
		switch kind {
		case kindPrecision:
			return prec
		case kindRecall:
			return rec
		default:
			return fbetaFrom(prec, rec, beta, zeroDiv)
		}
	}

	classes := classSet(expected, actual, labels)
	counts := countClasses(expected, actual, classes, w)

	switch average {
	case "binary":
		c, ok := counts[posLabel]
		if !ok {
			return 0, fmt.Errorf("pos_label %q not among classes %v", posLabel, classes)
		}
		return pick(c), nil
	case "micro":
		total := &classCounts{}
		for _, c := range counts {
			total.tp += c.tp
			total.fp += c.fp
			total.fn += c.fn
		}
		return pick(total), nil
	case "macro":
		if len(classes) == 0 {
			return 0, errors.New("no classes observed")
		}
		sum := 0.0
		for _, name := range classes {
			sum += pick(counts[name])
		}
		return sum / float64(len(classes)), nil
	case "weighted":
		totalSupport := 0.0
		sum := 0.0
		for _, name := range classes {
			c := counts[name]
			totalSupport += c.support
			sum += pick(c) * c.support
		}
		return safeDiv(sum, totalSupport, zeroDiv), nil
	default:
		return 0, fmt.Errorf("%w: average must be one of binary, micro, macro, weighted; got %q",
			ErrInvalidParameters, average)
	}
}

func registerClassification(r *Registry) {
	r.mustRegister(&Spec{
		Name:    "accuracy",
		Link:    skLearnBase + "sklearn.metrics.accuracy_score.html",
		Sorting: Descending,
		Params: []ParamSpec{
			{Name: "normalize", Type: "bool", Default: true},
			{Name: "sample_weight", Type: "list | None", Default: nil},
		},
		Calculate: func(expected, actual Values, p Params) (float64, error) {
			w, err := sampleWeights(p, expected.Len())
			if err != nil {
				return 0, err
			}
			normalize, err := p.Bool("normalize", true)
			if err != nil {
				return 0, err
			}
			e, a := expected.Labels(), actual.Labels()
			hits := 0.0
			for i := range e {
				if e[i] == a[i] {
					hits += w[i]
				}
			}
			if !normalize {
				return hits, nil
			}
			total := sumFloats(w)
			if total == 0 {
				return 0, errors.New("zero total sample weight")
			}
			return hits / total, nil
		},
	})

	r.mustRegister(&Spec{
		Name:    "balanced_accuracy",
		Link:    skLearnBase + "sklearn.metrics.balanced_accuracy_score.html",
		Sorting: Descending,
		Params: []ParamSpec{
			{Name: "adjusted", Type: "bool", Default: false},
			{Name: "sample_weight", Type: "list | None", Default: nil},
		},
		Calculate: func(expected, actual Values, p Params) (float64, error) {
			w, err := sampleWeights(p, expected.Len())
			if err != nil {
				return 0, err
			}
			adjusted, err := p.Bool("adjusted", false)
			if err != nil {
				return 0, err
			}
			e, a := expected.Labels(), actual.Labels()
			classes := classSet(e, nil, nil)
			counts := countClasses(e, a, classes, w)

			recalls := 0.0
			observed := 0
			for _, name := range classes {
				c := counts[name]
				if c.support == 0 {
					continue
				}
				recalls += c.tp / c.support
				observed++
			}
			if observed == 0 {
				return 0, errors.New("no classes observed")
			}
			score := recalls / float64(observed)
			if adjusted {
				if observed < 2 {
					return 0, errors.New("adjusted balanced accuracy needs at least 2 classes")
				}
				chance := 1 / float64(observed)
				score = (score - chance) / (1 - chance)
			}
			return score, nil
		},
	})

	r.mustRegister(&Spec{
		Name:    "precision",
		Link:    skLearnBase + "sklearn.metrics.precision_score.html",
		Sorting: Descending,
		Params:  prfParams(false),
		Calculate: func(expected, actual Values, p Params) (float64, error) {
			return calculatePRF(kindPrecision, expected.Labels(), actual.Labels(), p)
		},
	})

	r.mustRegister(&Spec{
		Name:    "recall",
		Link:    skLearnBase + "sklearn.metrics.recall_score.html",
		Sorting: Descending,
		Params:  prfParams(false),
		Calculate: func(expected, actual Values, p Params) (float64, error) {
			return calculatePRF(kindRecall, expected.Labels(), actual.Labels(), p)
		},
	})

	r.mustRegister(&Spec{
		Name:    "f1_score",
		Link:    skLearnBase + "sklearn.metrics.f1_score.html",
		Sorting: Descending,
		Params:  prfParams(false),
		Calculate: func(expected, actual Values, p Params) (float64, error) {
			return calculatePRF(kindFScore, expected.Labels(), actual.Labels(), p)
		},
	})

	r.mustRegister(&Spec{
		Name:    "fbeta_score",
		Link:    skLearnBase + "sklearn.metrics.fbeta_score.html",
		Sorting: Descending,
		Params:  prfParams(true),
		Calculate: func(expected, actual Values, p Params) (float64, error) {
			return calculatePRF(kindFScore, expected.Labels(), actual.Labels(), p)
		},
	})

	r.mustRegister(&Spec{
		Name:    "matthews_correlation",
		Link:    skLearnBase + "sklearn.metrics.matthews_corrcoef.html",
		Sorting: Descending,
		Params: []ParamSpec{
			{Name: "sample_weight", Type: "list | None", Default: nil},
		},
		Calculate: func(expected, actual Values, p Params) (float64, error) {
			w, err := sampleWeights(p, expected.Len())
			if err != nil {
				return 0, err
			}
			e, a := expected.Labels(), actual.Labels()
			classes := classSet(e, a, nil)
			m := confusion(e, a, classes, w)

			var trace, total float64
			rowSums := make([]float64, len(classes))
			colSums := make([]float64, len(classes))
			for i := range m {
				trace += m[i][i]
				for j := range m[i] {
					rowSums[i] += m[i][j]
					colSums[j] += m[i][j]
					total += m[i][j]
				}
			}
			var cross, t2, p2 float64
			for i := range classes {
				cross += rowSums[i] * colSums[i]
				t2 += rowSums[i] * rowSums[i]
				p2 += colSums[i] * colSums[i]
			}
			num := trace*total - cross
			den := math.Sqrt(total*total-p2) * math.Sqrt(total*total-t2)
			if den == 0 {
				return 0, nil
			}
			return num / den, nil
		},
	})

	r.mustRegister(&Spec{
		Name:    "cohen_kappa",
		Link:    skLearnBase + "sklearn.metrics.cohen_kappa_score.html",
		Sorting: Descending,
		Params: []ParamSpec{
			{Name: "labels", Type: "list | None", Default: nil},
			{Name: "weights", Type: "str | None", Default: nil,
				Values: []string{"linear", "quadratic"}},
			{Name: "sample_weight", Type: "list | None", Default: nil},
		},
		Calculate: func(expected, actual Values, p Params) (float64, error) {
			w, err := sampleWeights(p, expected.Len())
			if err != nil {
				return 0, err
			}
			restrict, err := p.Strings("labels")
			if err != nil {
				return 0, err
			}
			scheme, hasScheme, err := p.NullableString("weights")
			if err != nil {
				return 0, err
			}
			e, a := expected.Labels(), actual.Labels()
			classes := classSet(e, a, restrict)
			n := len(classes)
			if n < 2 {
				return 0, errors.New("cohen kappa needs at least 2 classes")
			}
			m := confusion(e, a, classes, w)

			rowSums := make([]float64, n)
			colSums := make([]float64, n)
			total := 0.0
			for i := range m {
				for j := range m[i] {
					rowSums[i] += m[i][j]
					colSums[j] += m[i][j]
					total += m[i][j]
				}
			}
			if total == 0 {
				return 0, errors.New("empty confusion matrix")
			}

			weight := func(i, j int) float64 {
				switch {
				case !hasScheme:
					if i == j {
						return 0
					}
					return 1
				case scheme == "linear":
					return math.Abs(float64(i - j))
				case scheme == "quadratic":
					d := float64(i - j)
					return d * d
				default:
					return math.NaN()
				}
			}
			if hasScheme && scheme != "linear" && scheme != "quadratic" {
				return 0, fmt.Errorf("%w: weights must be linear or quadratic, got %q",
					ErrInvalidParameters, scheme)
			}

			var observed, chance float64
			for i := 0; i < n; i++ {
				for j := 0; j < n; j++ {
					wij := weight(i, j)
					observed += wij * m[i][j]
					chance += wij * rowSums[i] * colSums[j] / total
				}
			}
			if chance == 0 {
				return 0, errors.New("degenerate chance agreement")
			}
			return 1 - observed/chance, nil
		},
	})

	r.mustRegister(&Spec{
		Name:    "hamming_loss",
		Link:    skLearnBase + "sklearn.metrics.hamming_loss.html",
		Sorting: Ascending,
		Params: []ParamSpec{
			{Name: "sample_weight", Type: "list | None", Default: nil},
		},
		Calculate: func(expected, actual Values, p Params) (float64, error) {
			w, err := sampleWeights(p, expected.Len())
			if err != nil {
				return 0, err
			}
			e, a := expected.Labels(), actual.Labels()
			misses := 0.0
			for i := range e {
				if e[i] != a[i] {
					misses += w[i]
				}
			}
			total := sumFloats(w)
			if total == 0 {
				return 0, errors.New("zero total sample weight")
			}
			return misses / total, nil
		},
	})

	r.mustRegister(&Spec{
		Name:    "hinge_loss",
		Link:    skLearnBase + "sklearn.metrics.hinge_loss.html",
		Sorting: Ascending,
		Params: []ParamSpec{
			{Name: "labels", Type: "list | None", Default: nil},
			{Name: "sample_weight", Type: "list | None", Default: nil},
		},
		Calculate: func(expected, actual Values, p Params) (float64, error) {
			w, err := sampleWeights(p, expected.Len())
			if err != nil {
				return 0, err
			}
			restrict, err := p.Strings("labels")
			if err != nil {
				return 0, err
			}
			margins, err := actual.Floats()
			if err != nil {
				return 0, err
			}
			e := expected.Labels()
			classes, err := binaryClasses(e, restrict)
			if err != nil {
				return 0, err
			}
			losses := make([]float64, len(e))
			for i := range e {
				y := -1.0
				if e[i] == classes[1] {
					y = 1.0
				}
				losses[i] = math.Max(0, 1-y*margins[i])
			}
			return weightedMean(losses, w)
		},
	})

	r.mustRegister(&Spec{
		Name:    "log_loss",
		Link:    skLearnBase + "sklearn.metrics.log_loss.html",
		Sorting: Ascending,
		Params: []ParamSpec{
			{Name: "eps", Type: "float | str", Default: "auto"},
			{Name: "normalize", Type: "bool", Default: true},
			{Name: "sample_weight", Type: "list | None", Default: nil},
			{Name: "labels", Type: "list | None", Default: nil},
		},
		Calculate: func(expected, actual Values, p Params) (float64, error) {
			w, err := sampleWeights(p, expected.Len())
			if err != nil {
				return 0, err
			}
			normalize, err := p.Bool("normalize", true)
			if err != nil {
				return 0, err
			}
			restrict, err := p.Strings("labels")
			if err != nil {
				return 0, err
			}
			eps := 1e-15
			if raw, ok := p["eps"]; ok && raw != nil {
				if s, isStr := raw.(string); !isStr || s != "auto" {
					eps, err = p.Float("eps", eps)
					if err != nil {
						return 0, err
					}
				}
			}
			probs, err := actual.Floats()
			if err != nil {
				return 0, err
			}
			e := expected.Labels()
			classes, err := binaryClasses(e, restrict)
			if err != nil {
				return 0, err
			}
			losses := make([]float64, len(e))
			for i := range e {
				prob := math.Min(math.Max(probs[i], eps), 1-eps)
				if e[i] == classes[1] {
					losses[i] = -math.Log(prob)
				} else {
					losses[i] = -math.Log(1 - prob)
				}
			}
			if !normalize {
				total := 0.0
				for i, l := range losses {
					total += l * w[i]
				}
				return total, nil
			}
			return weightedMean(losses, w)
		},
	})

	r.mustRegister(&Spec{
		Name:    "brier",
		Link:    skLearnBase + "sklearn.metrics.brier_score_loss.html",
		Sorting: Ascending,
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
			probs, err := actual.Floats()
			if err != nil {
				return 0, err
			}
			e := expected.Labels()
			losses := make([]float64, len(e))
			for i := range e {
				y := 0.0
				if e[i] == posLabel {
					y = 1.0
				}
				d := probs[i] - y
				losses[i] = d * d
			}
			return weightedMean(losses, w)
		},
	})
}
