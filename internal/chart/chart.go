// Package chart turns a chart request over a table into a resolved chart
// specification and renders it.
package chart

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/samajhai/internal/analysis"
)

// Kind identifies a chart type.
type Kind string

const (
	KindHistogram Kind = "histogram"
	KindBox       Kind = "box"
	KindScatter   Kind = "scatter"
	KindBar       Kind = "bar"
)

// Kinds lists chart kinds in selector order.
var Kinds = []Kind{KindHistogram, KindBox, KindScatter, KindBar}

// Label is the human name shown in selectors.
func (k Kind) Label() string {
	switch k {
	case KindHistogram:
		return "Histogram"
	case KindBox:
		return "Box Plot"
	case KindScatter:
		return "Scatter Plot"
	case KindBar:
		return "Bar Chart"
	default:
		return string(k)
	}
}

// ParseKind accepts a kind id or its label, case-insensitively.
func ParseKind(s string) (Kind, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	for _, k := range Kinds {
		if v == string(k) || v == strings.ToLower(k.Label()) {
			return k, nil
		}
	}
	return "", &ChartError{Reason: fmt.Sprintf("unknown chart kind %q (use histogram|box|scatter|bar)", s)}
}

// BarAggregation is the fixed aggregation applied to bar-chart values.
const BarAggregation = "sum"

// Request selects a chart kind and its columns.
// Histogram and Box use X. Scatter uses X and Y. Bar uses X as the
// category and Y as the summed value.
type Request struct {
	Kind Kind
	X    string
	Y    string
}

// ChartError reports an invalid chart selection.
type ChartError struct {
	Kind   Kind
	Column string
	Reason string
}

func (e *ChartError) Error() string {
	var b strings.Builder
	b.WriteString("chart")
	if e.Kind != "" {
		b.WriteString(" ")
		b.WriteString(e.Kind.Label())
	}
	if e.Column != "" {
		fmt.Fprintf(&b, " column %q", e.Column)
	}
	b.WriteString(": ")
	b.WriteString(e.Reason)
	return b.String()
}

// Validate checks the request against t's columns without computing anything.
func (r Request) Validate(t *analysis.Table) error {
	switch r.Kind {
	case KindHistogram, KindBox:
		_, err := r.numeric(t, r.X)
		return err
	case KindScatter:
		if _, err := r.numeric(t, r.X); err != nil {
			return err
		}
		_, err := r.numeric(t, r.Y)
		return err
	case KindBar:
		if _, err := r.categorical(t, r.X); err != nil {
			return err
		}
		_, err := r.numeric(t, r.Y)
		return err
	case "":
		return &ChartError{Reason: "no chart kind selected"}
	default:
		return &ChartError{Kind: r.Kind, Reason: "unsupported chart kind"}
	}
}

func (r Request) lookup(t *analysis.Table, name string) (*analysis.Column, error) {
	if name == "" {
		return nil, &ChartError{Kind: r.Kind, Reason: "no column selected"}
	}
	c, ok := t.Column(name)
	if !ok {
		return nil, &ChartError{Kind: r.Kind, Column: name, Reason: "not in table"}
	}
	return c, nil
}

func (r Request) numeric(t *analysis.Table, name string) (*analysis.Column, error) {
	c, err := r.lookup(t, name)
	if err != nil {
		return nil, err
	}
	if !c.Kind().Numeric() {
		return nil, &ChartError{Kind: r.Kind, Column: name, Reason: fmt.Sprintf("is %s, not numeric", c.Kind())}
	}
	return c, nil
}

func (r Request) categorical(t *analysis.Table, name string) (*analysis.Column, error) {
	c, err := r.lookup(t, name)
	if err != nil {
		return nil, err
	}
	if c.Kind().Numeric() {
		return nil, &ChartError{Kind: r.Kind, Column: name, Reason: "is numeric, not categorical"}
	}
	return c, nil
}

// Options returns the column choices a selector should offer for kind.
// Empty slices mean the chart cannot be drawn for this table.
func Options(t *analysis.Table, kind Kind) (x, y []string) {
	switch kind {
	case KindHistogram, KindBox:
		return t.NumericNames(), nil
	case KindScatter:
		n := t.NumericNames()
		return n, n
	case KindBar:
		return t.CategoricalNames(), t.NumericNames()
	}
	return nil, nil
}

// Available reports whether every selector for kind has at least one choice.
func Available(t *analysis.Table, kind Kind) bool {
	x, y := Options(t, kind)
	switch kind {
	case KindHistogram, KindBox:
		return len(x) > 0
	case KindScatter, KindBar:
		return len(x) > 0 && len(y) > 0
	}
	return false
}

// Defaults fills empty selections of r with the first valid choices.
func Defaults(t *analysis.Table, r Request) Request {
	x, y := Options(t, r.Kind)
	if r.X == "" && len(x) > 0 {
		r.X = x[0]
	}
	if r.Y == "" && len(y) > 0 {
		r.Y = y[0]
		if r.Kind == KindScatter && len(y) > 1 && y[0] == r.X {
			r.Y = y[1]
		}
	}
	return r
}
