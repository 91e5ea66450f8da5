package metric

import (
	"fmt"
	"sort"
)

// Registry is an explicit mapping from metric name to Spec. Names are
// case-sensitive and globally unique; duplicates are a configuration error
// detected at startup.
type Registry struct {
	order []string
	specs map[string]*Spec
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{specs: make(map[string]*Spec)}
}

// Register adds a spec under its name.
func (r *Registry) Register(s *Spec) error {
	if s == nil || s.Name == "" {
		return fmt.Errorf("%w: empty name", ErrDuplicateMetric)
	}
	if _, exists := r.specs[s.Name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateMetric, s.Name)
	}
	r.specs[s.Name] = s
	r.order = append(r.order, s.Name)
	return nil
}

func (r *Registry) mustRegister(s *Spec) {
	if err := r.Register(s); err != nil {
		panic(err)
	}
}

// Names returns all registered metric names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Resolve returns the spec registered under name.
func (r *Registry) Resolve(name string) (*Spec, error) {
	s, ok := r.specs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMetric, name)
	}
	return s, nil
}

// Instantiate resolves the spec and binds a parameter set. Nil or empty
// params yield an instance with all defaults. Supplied parameter names
// must be a subset of the declared schema; the error for an unknown key
// enumerates the valid parameter set so callers can self-correct. The
// literal string "None" in any supplied value normalizes to nil before
// binding.
func (r *Registry) Instantiate(name string, params map[string]any) (*Instance, error) {
	spec, err := r.Resolve(name)
	if err != nil {
		return nil, err
	}

	merged := make(Params, len(spec.Params))
	declared := make(map[string]bool, len(spec.Params))
	declaredNames := make([]string, 0, len(spec.Params))
	for _, ps := range spec.Params {
		merged[ps.Name] = ps.Default
		declared[ps.Name] = true
		declaredNames = append(declaredNames, ps.Name)
	}

	if len(params) > 0 {
		var unknown []string
		for k := range params {
			if !declared[k] {
				unknown = append(unknown, k)
			}
		}
		if len(unknown) > 0 {
			sort.Strings(unknown)
			return nil, fmt.Errorf(
				"%w: metric %q declares parameters %v, got unknown parameters %v",
				ErrInvalidParameters, name, declaredNames, unknown,
			)
		}
		for k, v := range params {
			merged[k] = normalizeNone(v)
		}
	}

	return &Instance{spec: spec, params: merged}, nil
}

// Infos returns the static description of every registered metric, in
// registration order.
func (r *Registry) Infos() []Info {
	out := make([]Info, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.specs[name].Info())
	}
	return out
}

// Default returns a registry with every built-in metric registered.
func Default() *Registry {
	r := NewRegistry()
	registerClassification(r)
	registerLabelVariants(r)
	registerRegression(r)
	registerRanking(r)
	registerText(r)
	registerGEC(r)
	return r
}
