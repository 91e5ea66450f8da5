package metric

import (
	"fmt"
	"strconv"
	"strings"
)

// Values is one parsed column of expected or submitted data.
//
// Parsing is dual-mode: if every line parses as a float the column is
// numeric, otherwise the whole column falls back to raw strings. Label
// metrics work on either mode through Labels(); numeric metrics require
// Floats() and fail on a string column.
type Values struct {
	raw     []string
	floats  []float64
	numeric bool
}

// Parse builds Values from raw lines (one value per line, order
// significant). Lines are whitespace-trimmed; a single trailing empty line
// is dropped, matching flat newline-delimited file reads.
func Parse(lines []string) Values {
	if n := len(lines); n > 0 && strings.TrimSpace(lines[n-1]) == "" {
		lines = lines[:n-1]
	}

	raw := make([]string, len(lines))
	floats := make([]float64, len(lines))
	numeric := true
	for i, line := range lines {
		raw[i] = strings.TrimSpace(line)
		if !numeric {
			continue
		}
		f, err := strconv.ParseFloat(raw[i], 64)
		if err != nil {
			numeric = false
			continue
		}
		floats[i] = f
	}
	if !numeric {
		floats = nil
	}
	return Values{raw: raw, floats: floats, numeric: numeric}
}

// FromFloats builds a numeric Values column.
func FromFloats(xs []float64) Values {
	raw := make([]string, len(xs))
	for i, x := range xs {
		raw[i] = strconv.FormatFloat(x, 'g', -1, 64)
	}
	return Values{raw: raw, floats: xs, numeric: true}
}

// FromStrings builds a string Values column without numeric fallback.
func FromStrings(ss []string) Values {
	return Parse(ss)
}

// Len returns the number of values in the column.
func (v Values) Len() int { return len(v.raw) }

// Numeric reports whether every line parsed as a float.
func (v Values) Numeric() bool { return v.numeric }

// Floats returns the parsed numeric column, or ErrNonNumeric when the
// column fell back to string mode.
func (v Values) Floats() ([]float64, error) {
	if !v.numeric {
		return nil, fmt.Errorf("%w: %d lines", ErrNonNumeric, len(v.raw))
	}
	return v.floats, nil
}

// Labels returns the column as canonical label strings. Numeric columns
// canonicalize through float formatting so "1" and "1.0" compare equal.
func (v Values) Labels() []string {
	if !v.numeric {
		return v.raw
	}
	labels := make([]string, len(v.floats))
	for i, f := range v.floats {
		labels[i] = strconv.FormatFloat(f, 'g', -1, 64)
	}
	return labels
}
