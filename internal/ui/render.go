package ui

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/KaramelBytes/samajhai/internal/analysis"
	"github.com/KaramelBytes/samajhai/internal/chart"
	"github.com/KaramelBytes/samajhai/internal/insight"
)

// Page is the view model for one full dashboard render.
type Page struct {
	Title   string
	Tagline string
	Loaded  bool
	Source  string
	Notice  string
	View    View
	Nav     []Option
	Preview Preview

	Metrics  []Metric
	Insights []InsightButton
	Chart    *ChartPanel
}

type Option struct {
	Value    string
	Label    string
	Selected bool
}

type Metric struct {
	Label string
	Value string
}

// Preview is the head of the table shown above every view.
type Preview struct {
	Headers []string
	Rows    [][]string
	Shown   int
	Total   int
}

type InsightButton struct {
	Kind  insight.Kind
	Label string
	Busy  string
	Title string
}

// ChartPanel holds the selectors and the drawn chart (or why it could not be drawn).
type ChartPanel struct {
	Kinds    []Option
	Kind     chart.Kind
	XLabel   string
	XOptions []Option
	YLabel   string
	YOptions []Option
	SVG      template.HTML
	Err      string
	// Unavailable explains why the selected kind has nothing to offer.
	Unavailable string
	Note        string
}

// RenderOptions carries the fixed inputs of Render.
type RenderOptions struct {
	Title       string
	PreviewRows int
	Renderer    chart.Renderer
	Lang        language.Tag
}

// Render derives the page for st. It reads st and never changes it.
func Render(st State, opt RenderOptions) Page {
	p := Page{
		Title:   opt.Title,
		Tagline: "turns confusion into clarity",
		Notice:  st.Notice,
		View:    st.view(),
	}
	if p.Title == "" {
		p.Title = "SamajhAI"
	}
	for _, v := range Views {
		p.Nav = append(p.Nav, Option{Value: string(v), Label: v.Label(), Selected: v == p.View})
	}
	if st.Table == nil {
		return p
	}
	p.Loaded = true
	p.Source = st.Source
	p.Preview = preview(st.Table, opt.PreviewRows)

	switch p.View {
	case ViewOverview:
		p.Metrics = metrics(st.Table, opt.Lang)
	case ViewInsights:
		p.Insights = []InsightButton{
			{Kind: insight.KindSummary, Label: "Generate AI Summary", Busy: "Analyzing dataset...", Title: insight.KindSummary.Title()},
			{Kind: insight.KindInsights, Label: "Find Insights", Busy: "Finding insights...", Title: insight.KindInsights.Title()},
		}
	case ViewVisualizations:
		p.Chart = chartPanel(st.Table, st.Chart, opt.Renderer)
	}
	return p
}

func preview(t *analysis.Table, n int) Preview {
	if n <= 0 || n > t.Rows() {
		n = t.Rows()
	}
	pv := Preview{Headers: t.Names(), Shown: n, Total: t.Rows()}
	for i := 0; i < n; i++ {
		pv.Rows = append(pv.Rows, t.Row(i))
	}
	return pv
}

func metrics(t *analysis.Table, lang language.Tag) []Metric {
	if lang == language.Und {
		lang = language.English
	}
	pr := message.NewPrinter(lang)
	prof := analysis.ProfileTable(t)
	return []Metric{
		{"Rows", pr.Sprintf("%d", prof.Rows)},
		{"Columns", pr.Sprintf("%d", prof.Columns)},
		{"Missing Values", pr.Sprintf("%d", prof.Missing)},
		{"Numeric Columns", pr.Sprintf("%d", prof.NumericColumns)},
	}
}

func selectorLabels(k chart.Kind) (x, y string) {
	switch k {
	case chart.KindScatter:
		return "X Axis", "Y Axis"
	case chart.KindBar:
		return "Category", "Value"
	default:
		return "Select Numeric Column", ""
	}
}

func options(names []string, selected string) []Option {
	out := make([]Option, 0, len(names))
	for _, n := range names {
		out = append(out, Option{Value: n, Label: n, Selected: n == selected})
	}
	return out
}

func chartPanel(t *analysis.Table, req chart.Request, r chart.Renderer) *ChartPanel {
	if req.Kind == "" {
		req.Kind = chart.KindHistogram
	}
	cp := &ChartPanel{Kind: req.Kind}
	for _, k := range chart.Kinds {
		cp.Kinds = append(cp.Kinds, Option{Value: string(k), Label: k.Label(), Selected: k == req.Kind})
	}
	cp.XLabel, cp.YLabel = selectorLabels(req.Kind)
	xs, ys := chart.Options(t, req.Kind)
	cp.XOptions = options(xs, req.X)
	if cp.YLabel != "" {
		cp.YOptions = options(ys, req.Y)
	}
	if !chart.Available(t, req.Kind) {
		if req.Kind == chart.KindBar {
			cp.Unavailable = "A bar chart needs one text column and one numeric column."
		} else {
			cp.Unavailable = "This dataset has no numeric columns to plot."
		}
		return cp
	}
	if r == nil {
		r = chart.NewSVGRenderer()
	}
	var buf bytes.Buffer
	spec, err := chart.Draw(&buf, r, t, req)
	if err != nil {
		var ce *chart.ChartError
		if errors.As(err, &ce) {
			cp.Err = ce.Error()
		} else {
			cp.Err = fmt.Sprintf("could not draw chart: %v", err)
		}
		return cp
	}
	// The renderer escapes every label it writes.
	cp.SVG = template.HTML(buf.String())
	var notes []string
	if spec.Kind == chart.KindBar {
		notes = append(notes, fmt.Sprintf("Bars show the %s of %s for each %s.", chart.BarAggregation, req.Y, req.X))
	}
	if spec.Dropped > 0 {
		notes = append(notes, fmt.Sprintf("%d rows with a missing or infinite value were left out.", spec.Dropped))
	}
	cp.Note = strings.Join(notes, " ")
	return cp
}
