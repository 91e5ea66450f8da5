// Package metric defines the metric registry and all built-in metric
// implementations used to score submissions.
//
// A metric is a declarative Spec: a unique name, a documentation link, a
// fixed sort direction, a parameter schema with defaults, and a pure
// Calculate function over two aligned value columns. Specs are registered
// in an explicit name-keyed Registry; there is no reflection-based lookup.
package metric

import (
	"fmt"
	"strconv"
)

// Sorting declares which direction of a metric's score is better. It is a
// property of the metric definition, never inferred from score values.
type Sorting string

const (
	// Ascending means a lower score is better (error rates, losses).
	Ascending Sorting = "ascending"
	// Descending means a higher score is better (accuracy, F1).
	Descending Sorting = "descending"
)

// ParamSpec declares one configurable parameter of a metric: its name, a
// human-readable type, the default value bound when the caller supplies no
// override, and an optional enumeration of allowed values.
type ParamSpec struct {
	Name    string
	Type    string
	Default any
	Values  []string
}

// Spec is the declarative definition of one metric.
type Spec struct {
	Name    string
	Link    string
	Sorting Sorting
	Params  []ParamSpec

	// Calculate computes the score over two aligned columns using the
	// resolved parameters. It must be a pure function of its inputs.
	Calculate func(expected, actual Values, p Params) (float64, error)
}

// Instance is a Spec bound to a resolved parameter set.
type Instance struct {
	spec   *Spec
	params Params
}

// Name returns the metric's registry key.
func (in *Instance) Name() string { return in.spec.Name }

// Sorting returns the metric's sort direction.
func (in *Instance) Sorting() Sorting { return in.spec.Sorting }

// Calculate invokes the metric over the two aligned columns.
func (in *Instance) Calculate(expected, actual Values) (float64, error) {
	return in.spec.Calculate(expected, actual, in.params)
}

// ParamInfo is the wire shape of one declared parameter.
type ParamInfo struct {
	Name         string `json:"name"`
	DataType     string `json:"data_type"`
	DefaultValue string `json:"default_value"`
	Values       string `json:"values,omitempty"`
}

// Info is the wire shape of one metric for the discovery endpoint.
type Info struct {
	Name       string      `json:"name"`
	Parameters []ParamInfo `json:"parameters"`
	Link       string      `json:"link"`
}

// Info renders the spec's static description.
func (s *Spec) Info() Info {
	params := make([]ParamInfo, len(s.Params))
	for i, p := range s.Params {
		params[i] = ParamInfo{
			Name:         p.Name,
			DataType:     p.Type,
			DefaultValue: formatDefault(p.Default),
			Values:       joinValues(p.Values),
		}
	}
	return Info{Name: s.Name, Parameters: params, Link: s.Link}
}

// formatDefault renders a default value the way persisted parameter blobs
// represent it: nil is the literal "None", booleans are capitalized.
func formatDefault(v any) string {
	switch t := v.(type) {
	case nil:
		return "None"
	case bool:
		if t {
			return "True"
		}
		return "False"
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case int:
		return strconv.Itoa(t)
	default:
		return fmt.Sprint(t)
	}
}

func joinValues(vals []string) string {
	out := ""
	for i, v := range vals {
		if i > 0 {
			out += ", "
		}
		out += v
	}
	return out
}
