package ui

import (
	"strings"

	"github.com/KaramelBytes/samajhai/internal/analysis"
	"github.com/KaramelBytes/samajhai/internal/chart"
)

// View is one of the dashboard's navigation targets.
type View string

const (
	ViewOverview       View = "overview"
	ViewInsights       View = "insights"
	ViewVisualizations View = "visualizations"
)

// Views lists navigation targets in sidebar order.
var Views = []View{ViewOverview, ViewInsights, ViewVisualizations}

func (v View) Label() string {
	switch v {
	case ViewInsights:
		return "AI Insights"
	case ViewVisualizations:
		return "Visualizations"
	default:
		return "Overview"
	}
}

// ParseView maps a query value to a View; unknown values fall back to Overview.
func ParseView(s string) View {
	v := View(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Views {
		if v == known {
			return v
		}
	}
	return ViewOverview
}

// State is everything one browser session remembers between requests.
// Handlers never mutate a State in place; they derive the next one.
type State struct {
	Table  *analysis.Table
	Source string
	View   View
	Chart  chart.Request
	// Notice is the last load failure, shown until the next load attempt.
	Notice string
}

// Loaded returns a state holding t. Everything derived from the previous
// table is dropped.
func (s State) Loaded(t *analysis.Table, source string) State {
	return State{
		Table:  t,
		Source: source,
		View:   s.view(),
		Chart:  chart.Defaults(t, chart.Request{Kind: chart.KindHistogram}),
	}
}

// LoadFailed keeps the current table and records why the new one was rejected.
func (s State) LoadFailed(err error) State {
	s.Notice = err.Error()
	return s
}

// Navigate switches the active view.
func (s State) Navigate(v View) State {
	s.View = v
	return s
}

// SelectChart applies chart selector input. Changing the kind discards
// column choices made for the previous kind.
func (s State) SelectChart(req chart.Request) State {
	if req.Kind == "" {
		req.Kind = s.Chart.Kind
	}
	if req.Kind != s.Chart.Kind {
		req.X, req.Y = "", ""
	}
	s.Chart = chart.Defaults(s.Table, req)
	s.View = ViewVisualizations
	return s
}

func (s State) view() View {
	if s.View == "" {
		return ViewOverview
	}
	return s.View
}
