package metric

import (
	"fmt"
	"strings"
)

// flattenTokens splits every line on whitespace and concatenates the
// tokens, turning a multi-label-per-line column into one flat label
// sequence.
func flattenTokens(v Values) []string {
	var out []string
	for _, line := range v.Labels() {
		out = append(out, strings.Fields(line)...)
	}
	return out
}

func tokenizedPRF(kind prfKind, expected, actual Values, p Params) (float64, error) {
	e := flattenTokens(expected)
	a := flattenTokens(actual)
	if len(e) != len(a) {
		return 0, fmt.Errorf("flattened token counts differ: expected %d, got %d", len(e), len(a))
	}
	return calculatePRF(kind, e, a, p)
}

// The _string variants accept several whitespace-separated labels per
// line. Token counts must agree line for line in aggregate; the score is
// then the plain precision/recall/F over the flattened sequence.
func registerLabelVariants(r *Registry) {
	r.mustRegister(&Spec{
		Name:    "precision_string",
		Link:    skLearnBase + "sklearn.metrics.precision_score.html",
		Sorting: Descending,
		Params:  prfParams(false),
		Calculate: func(expected, actual Values, p Params) (float64, error) {
			return tokenizedPRF(kindPrecision, expected, actual, p)
		},
	})

	r.mustRegister(&Spec{
		Name:    "recall_string",
		Link:    skLearnBase + "sklearn.metrics.recall_score.html",
		Sorting: Descending,
		Params:  prfParams(false),
		Calculate: func(expected, actual Values, p Params) (float64, error) {
			return tokenizedPRF(kindRecall, expected, actual, p)
		},
	})

	r.mustRegister(&Spec{
		Name:    "f1_score_string",
		Link:    skLearnBase + "sklearn.metrics.f1_score.html",
		Sorting: Descending,
		Params:  prfParams(false),
		Calculate: func(expected, actual Values, p Params) (float64, error) {
			return tokenizedPRF(kindFScore, expected, actual, p)
		},
	})
}
