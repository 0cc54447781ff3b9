package chart

import (
	"fmt"
	"math"

	"github.com/KaramelBytes/samajhai/internal/analysis"
)

// Spec is a fully resolved chart ready to render. Exactly one of Bins, Box,
// Points or Bars is populated, matching Kind.
type Spec struct {
	Kind   Kind
	Title  string
	XLabel string
	YLabel string

	Bins    []Bin
	Box     *BoxStats
	Points  []Point
	Dropped int // rows left out for a missing or non-finite value
	Bars    []Bar
}

// Bin is one half-open histogram interval [Lo, Hi); the last bin is closed.
type Bin struct {
	Lo, Hi float64
	Count  int
}

// BoxStats summarizes one column for a box plot. Whiskers reach the most
// extreme values within 1.5 IQR of the quartiles.
type BoxStats struct {
	Count        int
	Min, Max     float64
	Q1, Median   float64
	Q3           float64
	LowerWhisker float64
	UpperWhisker float64
	Outliers     []float64
}

type Point struct{ X, Y float64 }

type Bar struct {
	Label string
	Value float64
}

// Build validates req against t and computes the chart.
func Build(t *analysis.Table, req Request) (*Spec, error) {
	if err := req.Validate(t); err != nil {
		return nil, err
	}
	switch req.Kind {
	case KindHistogram:
		c, _ := t.Column(req.X)
		vals := finite(c.Floats())
		return &Spec{
			Kind:    req.Kind,
			Title:   "Distribution of " + req.X,
			XLabel:  req.X,
			YLabel:  "count",
			Bins:    Histogram(vals),
			Dropped: c.Len() - len(vals),
		}, nil
	case KindBox:
		c, _ := t.Column(req.X)
		vals := finite(c.Floats())
		return &Spec{
			Kind:    req.Kind,
			Title:   "Spread of " + req.X,
			YLabel:  req.X,
			Box:     Box(vals),
			Dropped: c.Len() - len(vals),
		}, nil
	case KindScatter:
		xc, _ := t.Column(req.X)
		yc, _ := t.Column(req.Y)
		pts, dropped := scatter(xc, yc)
		return &Spec{
			Kind:    req.Kind,
			Title:   fmt.Sprintf("%s vs %s", req.Y, req.X),
			XLabel:  req.X,
			YLabel:  req.Y,
			Points:  pts,
			Dropped: dropped,
		}, nil
	case KindBar:
		cat, _ := t.Column(req.X)
		val, _ := t.Column(req.Y)
		bars, dropped := SumBy(cat, val)
		return &Spec{
			Kind:    req.Kind,
			Title:   fmt.Sprintf("%s of %s by %s", BarAggregation, req.Y, req.X),
			XLabel:  req.X,
			YLabel:  req.Y,
			Bars:    bars,
			Dropped: dropped,
		}, nil
	}
	return nil, &ChartError{Kind: req.Kind, Reason: "unsupported chart kind"}
}

// finite returns the values of vals that are neither NaN nor infinite.
func finite(vals []float64) []float64 {
	out := make([]float64, 0, len(vals))
	for _, v := range vals {
		if isFinite(v) {
			out = append(out, v)
		}
	}
	return out
}

func isFinite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// Histogram bins vals into ceil(log2 n)+1 equal-width bins (Sturges).
// A constant series yields a single bin centred on the value. Non-finite
// values are ignored.
func Histogram(vals []float64) []Bin {
	vals = finite(vals)
	n := len(vals)
	if n == 0 {
		return nil
	}
	lo, hi := vals[0], vals[0]
	for _, v := range vals[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if lo == hi {
		return []Bin{{Lo: lo - 0.5, Hi: hi + 0.5, Count: n}}
	}
	k := int(math.Ceil(math.Log2(float64(n)))) + 1
	width := (hi - lo) / float64(k)
	bins := make([]Bin, k)
	for i := range bins {
		bins[i].Lo = lo + float64(i)*width
		bins[i].Hi = lo + float64(i+1)*width
	}
	bins[k-1].Hi = hi
	for _, v := range vals {
		i := int((v - lo) / width)
		if i >= k {
			i = k - 1
		}
		if i < 0 {
			i = 0
		}
		bins[i].Count++
	}
	return bins
}

// Box computes quartiles, whiskers and outliers over the finite values.
// Nil when there are none.
func Box(vals []float64) *BoxStats {
	vals = finite(vals)
	if len(vals) == 0 {
		return nil
	}
	sorted := analysis.SortedCopy(vals)
	b := &BoxStats{
		Count:  len(sorted),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Q1:     analysis.Quantile(sorted, 0.25),
		Median: analysis.Quantile(sorted, 0.5),
		Q3:     analysis.Quantile(sorted, 0.75),
	}
	iqr := b.Q3 - b.Q1
	loFence, hiFence := b.Q1-1.5*iqr, b.Q3+1.5*iqr
	b.LowerWhisker, b.UpperWhisker = b.Q1, b.Q3
	for _, v := range sorted {
		if v >= loFence {
			b.LowerWhisker = v
			break
		}
	}
	for i := len(sorted) - 1; i >= 0; i-- {
		if sorted[i] <= hiFence {
			b.UpperWhisker = sorted[i]
			break
		}
	}
	for _, v := range sorted {
		if v < loFence || v > hiFence {
			b.Outliers = append(b.Outliers, v)
		}
	}
	return b
}

// scatter pairs rows positionally and drops rows where either axis is
// missing or non-finite.
func scatter(xc, yc *analysis.Column) ([]Point, int) {
	var pts []Point
	dropped := 0
	for i := 0; i < xc.Len(); i++ {
		x, okx := xc.Float(i)
		y, oky := yc.Float(i)
		if !okx || !oky || !isFinite(x) || !isFinite(y) {
			dropped++
			continue
		}
		pts = append(pts, Point{X: x, Y: y})
	}
	return pts, dropped
}

// SumBy groups val by cat and sums each group. Categories keep their order
// of first appearance. Rows missing either cell, or with a non-finite value,
// are skipped and counted.
func SumBy(cat, val *analysis.Column) (bars []Bar, dropped int) {
	index := map[string]int{}
	for i := 0; i < cat.Len(); i++ {
		v, ok := val.Float(i)
		if cat.IsMissing(i) || !ok || !isFinite(v) {
			dropped++
			continue
		}
		key := cat.Text(i)
		j, seen := index[key]
		if !seen {
			j = len(bars)
			index[key] = j
			bars = append(bars, Bar{Label: key})
		}
		bars[j].Value += v
	}
	return bars, dropped
}
