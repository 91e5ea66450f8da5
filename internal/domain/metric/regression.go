package metric

import (
	"errors"
	"fmt"
	"math"
)

func weightOnly() []ParamSpec {
	return []ParamSpec{
		{Name: "sample_weight", Type: "list | None", Default: nil},
	}
}

// regressionColumns extracts both numeric columns and the validated
// sample weights in one step.
func regressionColumns(expected, actual Values, p Params) (e, a, w []float64, err error) {
	e, err = expected.Floats()
	if err != nil {
		return nil, nil, nil, err
	}
	a, err = actual.Floats()
	if err != nil {
		return nil, nil, nil, err
	}
	w, err = sampleWeights(p, len(e))
	if err != nil {
		return nil, nil, nil, err
	}
	return e, a, w, nil
}

// tweedieDeviance computes the unit Tweedie deviance for one pair. The
// caller validates the domain of y and yhat for the given power.
func tweedieDeviance(y, yhat, power float64) float64 {
	switch power {
	case 0:
		d := y - yhat
		return d * d
	case 1:
		term := 0.0
		if y > 0 {
			term = y * math.Log(y/yhat)
		}
		return 2 * (term - y + yhat)
	case 2:
		return 2 * (math.Log(yhat/y) + y/yhat - 1)
	default:
		return 2 * (math.Pow(math.Max(y, 0), 2-power)/((1-power)*(2-power)) -
			y*math.Pow(yhat, 1-power)/(1-power) +
			math.Pow(yhat, 2-power)/(2-power))
	}
}

func checkTweedieDomain(e, a []float64, power float64) error {
	for i := range e {
		switch {
		case power >= 2 && e[i] <= 0:
			return fmt.Errorf("power %g requires strictly positive expected values", power)
		case power >= 1 && power < 2 && e[i] < 0:
			return fmt.Errorf("power %g requires non-negative expected values", power)
		}
		if power >= 1 && a[i] <= 0 {
			return fmt.Errorf("power %g requires strictly positive predictions", power)
		}
	}
	return nil
}

func meanTweedie(expected, actual Values, p Params, power float64) (float64, error) {
	e, a, w, err := regressionColumns(expected, actual, p)
	if err != nil {
		return 0, err
	}
	if power > 0 && power < 1 {
		return 0, fmt.Errorf("%w: power must be outside the (0, 1) interval, got %g",
			ErrInvalidParameters, power)
	}
	if err := checkTweedieDomain(e, a, power); err != nil {
		return 0, err
	}
	dev := make([]float64, len(e))
	for i := range e {
		dev[i] = tweedieDeviance(e[i], a[i], power)
	}
	return weightedMean(dev, w)
}

func registerRegression(r *Registry) {
	r.mustRegister(&Spec{
		Name:    "mse",
		Link:    skLearnBase + "sklearn.metrics.mean_squared_error.html",
		Sorting: Ascending,
		Params:  weightOnly(),
		Calculate: func(expected, actual Values, p Params) (float64, error) {
			e, a, w, err := regressionColumns(expected, actual, p)
			if err != nil {
				return 0, err
			}
			sq := make([]float64, len(e))
			for i := range e {
				d := e[i] - a[i]
				sq[i] = d * d
			}
			return weightedMean(sq, w)
		},
	})

	r.mustRegister(&Spec{
		Name:    "rmse",
		Link:    skLearnBase + "sklearn.metrics.root_mean_squared_error.html",
		Sorting: Ascending,
		Params:  weightOnly(),
		Calculate: func(expected, actual Values, p Params) (float64, error) {
			e, a, w, err := regressionColumns(expected, actual, p)
			if err != nil {
				return 0, err
			}
			sq := make([]float64, len(e))
			for i := range e {
				d := e[i] - a[i]
				sq[i] = d * d
			}
			mean, err := weightedMean(sq, w)
			if err != nil {
				return 0, err
			}
			return math.Sqrt(mean), nil
		},
	})

	r.mustRegister(&Spec{
		Name:    "mean_absolute_error",
		Link:    skLearnBase + "sklearn.metrics.mean_absolute_error.html",
		Sorting: Ascending,
		Params:  weightOnly(),
		Calculate: func(expected, actual Values, p Params) (float64, error) {
			e, a, w, err := regressionColumns(expected, actual, p)
			if err != nil {
				return 0, err
			}
			abs := make([]float64, len(e))
			for i := range e {
				abs[i] = math.Abs(e[i] - a[i])
			}
			return weightedMean(abs, w)
		},
	})

	r.mustRegister(&Spec{
		Name:    "median_absolute_error",
		Link:    skLearnBase + "sklearn.metrics.median_absolute_error.html",
		Sorting: Ascending,
		Params:  weightOnly(),
		Calculate: func(expected, actual Values, p Params) (float64, error) {
			e, a, w, err := regressionColumns(expected, actual, p)
			if err != nil {
				return 0, err
			}
			if len(e) == 0 {
				return 0, errors.New("empty column")
			}
			abs := make([]float64, len(e))
			for i := range e {
				abs[i] = math.Abs(e[i] - a[i])
			}
			return weightedMedian(abs, w), nil
		},
	})

	r.mustRegister(&Spec{
		Name:    "max_error",
		Link:    skLearnBase + "sklearn.metrics.max_error.html",
		Sorting: Ascending,
		Params:  []ParamSpec{},
		Calculate: func(expected, actual Values, p Params) (float64, error) {
			e, err := expected.Floats()
			if err != nil {
				return 0, err
			}
			a, err := actual.Floats()
			if err != nil {
				return 0, err
			}
			if len(e) == 0 {
				return 0, errors.New("empty column")
			}
			worst := 0.0
			for i := range e {
				if d := math.Abs(e[i] - a[i]); d > worst {
					worst = d
				}
			}
			return worst, nil
		},
	})

	r.mustRegister(&Spec{
		Name:    "r2",
		Link:    skLearnBase + "sklearn.metrics.r2_score.html",
		Sorting: Descending,
		Params: []ParamSpec{
			{Name: "sample_weight", Type: "list | None", Default: nil},
			{Name: "force_finite", Type: "bool", Default: true},
		},
		Calculate: func(expected, actual Values, p Params) (float64, error) {
			e, a, w, err := regressionColumns(expected, actual, p)
			if err != nil {
				return 0, err
			}
			forceFinite, err := p.Bool("force_finite", true)
			if err != nil {
				return 0, err
			}
			mean, err := weightedMean(e, w)
			if err != nil {
				return 0, err
			}
			var ssRes, ssTot float64
			for i := range e {
				dr := e[i] - a[i]
				dt := e[i] - mean
				ssRes += w[i] * dr * dr
				ssTot += w[i] * dt * dt
			}
			if ssTot == 0 {
				if !forceFinite {
					return 0, errors.New("constant expected column makes the score non-finite")
				}
				if ssRes == 0 {
					return 1, nil
				}
				return 0, nil
			}
			return 1 - ssRes/ssTot, nil
		},
	})

	r.mustRegister(&Spec{
		Name:    "explained_variance",
		Link:    skLearnBase + "sklearn.metrics.explained_variance_score.html",
		Sorting: Descending,
		Params: []ParamSpec{
			{Name: "sample_weight", Type: "list | None", Default: nil},
			{Name: "force_finite", Type: "bool", Default: true},
		},
		Calculate: func(expected, actual Values, p Params) (float64, error) {
			e, a, w, err := regressionColumns(expected, actual, p)
			if err != nil {
				return 0, err
			}
			forceFinite, err := p.Bool("force_finite", true)
			if err != nil {
				return 0, err
			}
			diff := make([]float64, len(e))
			for i := range e {
				diff[i] = e[i] - a[i]
			}
			diffMean, err := weightedMean(diff, w)
			if err != nil {
				return 0, err
			}
			eMean, err := weightedMean(e, w)
			if err != nil {
				return 0, err
			}
			var varDiff, varE float64
			for i := range e {
				dd := diff[i] - diffMean
				de := e[i] - eMean
				varDiff += w[i] * dd * dd
				varE += w[i] * de * de
			}
			if varE == 0 {
				if !forceFinite {
					return 0, errors.New("constant expected column makes the score non-finite")
				}
				if varDiff == 0 {
					return 1, nil
				}
				return 0, nil
			}
			return 1 - varDiff/varE, nil
		},
	})

	r.mustRegister(&Spec{
		Name:    "mean_poisson_deviance",
		Link:    skLearnBase + "sklearn.metrics.mean_poisson_deviance.html",
		Sorting: Ascending,
		Params:  weightOnly(),
		Calculate: func(expected, actual Values, p Params) (float64, error) {
			return meanTweedie(expected, actual, p, 1)
		},
	})

	r.mustRegister(&Spec{
		Name:    "mean_gamma_deviance",
		Link:    skLearnBase + "sklearn.metrics.mean_gamma_deviance.html",
		Sorting: Ascending,
		Params:  weightOnly(),
		Calculate: func(expected, actual Values, p Params) (float64, error) {
			return meanTweedie(expected, actual, p, 2)
		},
	})

	r.mustRegister(&Spec{
		Name:    "mean_tweedie_deviance",
		Link:    skLearnBase + "sklearn.metrics.mean_tweedie_deviance.html",
		Sorting: Ascending,
		Params: []ParamSpec{
			{Name: "sample_weight", Type: "list | None", Default: nil},
			{Name: "power", Type: "float", Default: 0.0},
		},
		Calculate: func(expected, actual Values, p Params) (float64, error) {
			power, err := p.Float("power", 0)
			if err != nil {
				return 0, err
			}
			return meanTweedie(expected, actual, p, power)
		},
	})

	r.mustRegister(&Spec{
		Name:    "d2_tweedie",
		Link:    skLearnBase + "sklearn.metrics.d2_tweedie_score.html",
		Sorting: Descending,
		Params: []ParamSpec{
			{Name: "sample_weight", Type: "list | None", Default: nil},
			{Name: "power", Type: "float", Default: 0.0},
		},
		Calculate: func(expected, actual Values, p Params) (float64, error) {
			power, err := p.Float("power", 0)
			if err != nil {
				return 0, err
			}
			model, err := meanTweedie(expected, actual, p, power)
			if err != nil {
				return 0, err
			}
			e, _, w, err := regressionColumns(expected, actual, p)
			if err != nil {
				return 0, err
			}
			mean, err := weightedMean(e, w)
			if err != nil {
				return 0, err
			}
			null, err := meanTweedie(expected, FromFloats(constantColumn(mean, len(e))), p, power)
			if err != nil {
				return 0, err
			}
			if null == 0 {
				return 0, errors.New("constant expected column makes the score non-finite")
			}
			return 1 - model/null, nil
		},
	})

	r.mustRegister(&Spec{
		Name:    "d2_absolute_error",
		Link:    skLearnBase + "sklearn.metrics.d2_absolute_error_score.html",
		Sorting: Descending,
		Params:  weightOnly(),
		Calculate: func(expected, actual Values, p Params) (float64, error) {
			e, a, w, err := regressionColumns(expected, actual, p)
			if err != nil {
				return 0, err
			}
			if len(e) == 0 {
				return 0, errors.New("empty column")
			}
			median := weightedMedian(e, w)
			var model, null float64
			for i := range e {
				model += w[i] * math.Abs(e[i]-a[i])
				null += w[i] * math.Abs(e[i]-median)
			}
			if null == 0 {
				return 0, errors.New("constant expected column makes the score non-finite")
			}
			return 1 - model/null, nil
		},
	})

	r.mustRegister(&Spec{
		Name:    "mean_pinball_loss",
		Link:    skLearnBase + "sklearn.metrics.mean_pinball_loss.html",
		Sorting: Ascending,
		Params: []ParamSpec{
			{Name: "sample_weight", Type: "list | None", Default: nil},
			{Name: "alpha", Type: "float", Default: 0.5},
		},
		Calculate: func(expected, actual Values, p Params) (float64, error) {
			e, a, w, err := regressionColumns(expected, actual, p)
			if err != nil {
				return 0, err
			}
			alpha, err := p.Float("alpha", 0.5)
			if err != nil {
				return 0, err
			}
			losses := make([]float64, len(e))
			for i := range e {
				d := e[i] - a[i]
				if d >= 0 {
					losses[i] = alpha * d
				} else {
					losses[i] = (alpha - 1) * d
				}
			}
			return weightedMean(losses, w)
		},
	})
}

func constantColumn(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}
