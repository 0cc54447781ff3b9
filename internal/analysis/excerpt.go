package analysis

import (
	"math"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// plainStyle renders an aligned grid without borders, close to a dataframe's
// to_string output and cheap in prompt tokens.
func plainStyle() table.Style {
	s := table.StyleDefault
	s.Name = "Plain"
	s.Options = table.OptionsNoBordersAndSeparators
	s.Format.Header = text.FormatDefault
	return s
}

// HeadString renders the first n rows with a positional index column.
// A table without rows renders as the empty string.
func (t *Table) HeadString(n int) string {
	if t.Rows() == 0 || n <= 0 {
		return ""
	}
	if n > t.Rows() {
		n = t.Rows()
	}
	tw := table.NewWriter()
	tw.SetStyle(plainStyle())

	header := make(table.Row, 0, t.NumColumns()+1)
	header = append(header, "")
	for _, name := range t.Names() {
		header = append(header, name)
	}
	tw.AppendHeader(header)

	cfgs := make([]table.ColumnConfig, 0, t.NumColumns())
	for j, c := range t.Columns() {
		if c.Kind().Numeric() {
			cfgs = append(cfgs, table.ColumnConfig{Number: j + 2, Align: text.AlignRight})
		}
	}
	tw.SetColumnConfigs(cfgs)

	for i := 0; i < n; i++ {
		row := make(table.Row, 0, t.NumColumns()+1)
		row = append(row, i)
		for _, v := range t.Row(i) {
			row = append(row, v)
		}
		tw.AppendRow(row)
	}
	return trimLines(tw.Render())
}

// DescribeString renders statistics transposed the way a dataframe describe
// prints them: one row per statistic, one column per numeric column.
// No stats renders as the empty string.
func DescribeString(stats []ColumnStats) string {
	if len(stats) == 0 {
		return ""
	}
	tw := table.NewWriter()
	tw.SetStyle(plainStyle())

	header := make(table.Row, 0, len(stats)+1)
	header = append(header, "")
	for _, s := range stats {
		header = append(header, s.Name)
	}
	tw.AppendHeader(header)

	rows := []struct {
		label string
		get   func(ColumnStats) float64
	}{
		{"count", func(s ColumnStats) float64 { return float64(s.Count) }},
		{"mean", func(s ColumnStats) float64 { return s.Mean }},
		{"std", func(s ColumnStats) float64 { return s.Std }},
		{"min", func(s ColumnStats) float64 { return s.Min }},
		{"25%", func(s ColumnStats) float64 { return s.Q1 }},
		{"50%", func(s ColumnStats) float64 { return s.Median }},
		{"75%", func(s ColumnStats) float64 { return s.Q3 }},
		{"max", func(s ColumnStats) float64 { return s.Max }},
	}
	for _, r := range rows {
		row := make(table.Row, 0, len(stats)+1)
		row = append(row, r.label)
		for _, s := range stats {
			row = append(row, FormatStat(r.get(s)))
		}
		tw.AppendRow(row)
	}
	cfgs := make([]table.ColumnConfig, 0, len(stats))
	for j := range stats {
		cfgs = append(cfgs, table.ColumnConfig{Number: j + 2, Align: text.AlignRight})
	}
	tw.SetColumnConfigs(cfgs)
	return trimLines(tw.Render())
}

// FormatStat prints a statistic with six decimals; NaN prints as NaN.
func FormatStat(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func trimLines(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " ")
	}
	return strings.Join(lines, "\n")
}
