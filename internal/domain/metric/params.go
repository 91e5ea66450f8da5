package metric

import (
	"fmt"
	"strconv"
)

// Params is a resolved parameter set: declared defaults overlaid with
// caller-supplied overrides. Values originate from JSON, so numbers arrive
// as float64 and lists as []any; the typed getters below coerce them.
type Params map[string]any

// Bool reads a boolean parameter, falling back to def when absent or nil.
func (p Params) Bool(name string, def bool) (bool, error) {
	v, ok := p[name]
	if !ok || v == nil {
		return def, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, paramTypeError(name, "bool", v)
	}
	return b, nil
}

// Float reads a numeric parameter, falling back to def when absent or nil.
func (p Params) Float(name string, def float64) (float64, error) {
	v, ok := p[name]
	if !ok || v == nil {
		return def, nil
	}
	switch t := v.(type) {
	case float64:
		return t, nil
	case int:
		return float64(t), nil
	default:
		return 0, paramTypeError(name, "float", v)
	}
}

// Int reads an integer parameter, falling back to def when absent or nil.
func (p Params) Int(name string, def int) (int, error) {
	f, err := p.Float(name, float64(def))
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

// String reads a string parameter, falling back to def when absent or nil.
// Numeric values canonicalize through float formatting so a JSON 1 and the
// label "1" bind identically.
func (p Params) String(name, def string) (string, error) {
	v, ok := p[name]
	if !ok || v == nil {
		return def, nil
	}
	switch t := v.(type) {
	case string:
		return t, nil
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64), nil
	case bool:
		return strconv.FormatBool(t), nil
	default:
		return "", paramTypeError(name, "str", v)
	}
}

// NullableString reads a string parameter that may legitimately be nil.
func (p Params) NullableString(name string) (string, bool, error) {
	v, ok := p[name]
	if !ok || v == nil {
		return "", false, nil
	}
	s, err := p.String(name, "")
	if err != nil {
		return "", false, err
	}
	return s, true, nil
}

// Floats reads a list-of-numbers parameter; nil yields a nil slice.
func (p Params) Floats(name string) ([]float64, error) {
	v, ok := p[name]
	if !ok || v == nil {
		return nil, nil
	}
	switch t := v.(type) {
	case []float64:
		return t, nil
	case []any:
		out := make([]float64, len(t))
		for i, e := range t {
			f, ok := e.(float64)
			if !ok {
				return nil, paramTypeError(name, "list of floats", v)
			}
			out[i] = f
		}
		return out, nil
	default:
		return nil, paramTypeError(name, "list of floats", v)
	}
}

// Strings reads a list-of-labels parameter; nil yields a nil slice.
// Numeric elements canonicalize the same way Labels() does.
func (p Params) Strings(name string) ([]string, error) {
	v, ok := p[name]
	if !ok || v == nil {
		return nil, nil
	}
	switch t := v.(type) {
	case []string:
		return t, nil
	case []any:
		out := make([]string, len(t))
		for i, e := range t {
			switch s := e.(type) {
			case string:
				out[i] = s
			case float64:
				out[i] = strconv.FormatFloat(s, 'g', -1, 64)
			default:
				return nil, paramTypeError(name, "list of labels", v)
			}
		}
		return out, nil
	default:
		return nil, paramTypeError(name, "list of labels", v)
	}
}

func paramTypeError(name, want string, got any) error {
	return fmt.Errorf("%w: parameter %q expects %s, got %T", ErrInvalidParameters, name, want, got)
}

// normalizeNone maps the literal string "None" to nil. Persisted parameter
// blobs round-trip through a string column, so "None" is the serialized
// null in this system.
func normalizeNone(v any) any {
	if s, ok := v.(string); ok && s == "None" {
		return nil
	}
	return v
}
