package analysis

import (
	"math"
	"sort"
)

// Profile is the four-metric dataset overview.
type Profile struct {
	Rows           int `json:"rows"`
	Columns        int `json:"columns"`
	Missing        int `json:"missing"`
	NumericColumns int `json:"numeric_columns"`
}

// ProfileTable computes the overview counts. A nil or empty table yields zeros.
func ProfileTable(t *Table) Profile {
	p := Profile{Rows: t.Rows(), Columns: t.NumColumns()}
	for _, c := range t.Columns() {
		p.Missing += c.MissingCount()
		if c.Kind().Numeric() {
			p.NumericColumns++
		}
	}
	return p
}

// ColumnStats holds descriptive statistics for one numeric column.
// Fields are NaN when undefined (no values, or Std with fewer than two).
type ColumnStats struct {
	Name   string
	Count  int
	Mean   float64
	Std    float64
	Min    float64
	Q1     float64
	Median float64
	Q3     float64
	Max    float64
}

// Describe returns statistics for the numeric columns of t in header order.
// Non-numeric columns are excluded.
func Describe(t *Table) []ColumnStats {
	var out []ColumnStats
	for _, c := range t.Columns() {
		if !c.Kind().Numeric() {
			continue
		}
		out = append(out, describeValues(c.Name(), c.Floats()))
	}
	return out
}

func describeValues(name string, vals []float64) ColumnStats {
	s := ColumnStats{Name: name, Count: len(vals)}
	nan := math.NaN()
	if len(vals) == 0 {
		s.Mean, s.Std, s.Min, s.Q1, s.Median, s.Q3, s.Max = nan, nan, nan, nan, nan, nan, nan
		return s
	}
	s.Std = nan
	if hasInf(vals) {
		// A plain sum keeps ±Inf (or NaN for mixed signs); spread is undefined.
		var sum float64
		for _, x := range vals {
			sum += x
		}
		s.Mean = sum / float64(len(vals))
	} else {
		// Welford
		var mean, m2 float64
		for i, x := range vals {
			delta := x - mean
			mean += delta / float64(i+1)
			m2 += delta * (x - mean)
		}
		s.Mean = mean
		if len(vals) > 1 {
			s.Std = math.Sqrt(m2 / float64(len(vals)-1))
		}
	}
	sorted := SortedCopy(vals)
	s.Min = sorted[0]
	s.Max = sorted[len(sorted)-1]
	s.Q1 = Quantile(sorted, 0.25)
	s.Median = Quantile(sorted, 0.5)
	s.Q3 = Quantile(sorted, 0.75)
	return s
}

func hasInf(vals []float64) bool {
	for _, x := range vals {
		if math.IsInf(x, 0) {
			return true
		}
	}
	return false
}

// SortedCopy returns an ascending copy of vals.
func SortedCopy(vals []float64) []float64 {
	cp := make([]float64, len(vals))
	copy(cp, vals)
	sort.Float64s(cp)
	return cp
}

// Quantile returns the q-quantile of an ascending slice using linear interpolation.
func Quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}
