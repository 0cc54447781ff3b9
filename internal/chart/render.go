package chart

import (
	"fmt"
	"html"
	"io"
	"strconv"
	"strings"

	"github.com/KaramelBytes/samajhai/internal/analysis"
)

// Renderer draws a resolved Spec.
type Renderer interface {
	Render(w io.Writer, s *Spec) error
}

// Draw builds the chart for req and hands it to r. Invalid requests fail
// before r is called.
func Draw(w io.Writer, r Renderer, t *analysis.Table, req Request) (*Spec, error) {
	spec, err := Build(t, req)
	if err != nil {
		return nil, err
	}
	if err := r.Render(w, spec); err != nil {
		return spec, fmt.Errorf("render %s: %w", spec.Kind, err)
	}
	return spec, nil
}

// SVGRenderer writes standalone SVG documents.
type SVGRenderer struct {
	Width  int
	Height int
	Color  string
}

// NewSVGRenderer returns a renderer with the dashboard's default size and color.
func NewSVGRenderer() *SVGRenderer {
	return &SVGRenderer{Width: 720, Height: 420, Color: "#4a90d9"}
}

const padding = 60

// Render writes s as SVG.
func (r *SVGRenderer) Render(w io.Writer, s *Spec) error {
	if s == nil {
		return fmt.Errorf("nil chart spec")
	}
	width, height := r.Width, r.Height
	if width <= 0 {
		width = 720
	}
	if height <= 0 {
		height = 420
	}
	color := r.Color
	if color == "" {
		color = "#4a90d9"
	}
	c := canvas{width: width, height: height, color: color}

	c.open(s.Title)
	switch s.Kind {
	case KindHistogram:
		c.histogram(s.Bins)
	case KindBox:
		c.box(s.Box)
	case KindScatter:
		c.scatter(s.Points)
	case KindBar:
		c.bars(s.Bars)
	}
	c.axisLabels(s.XLabel, s.YLabel)
	c.sb.WriteString(`</svg>`)
	_, err := io.WriteString(w, c.sb.String())
	return err
}

type canvas struct {
	sb            strings.Builder
	width, height int
	color         string
}

func (c *canvas) chartW() int { return c.width - 2*padding }
func (c *canvas) chartH() int { return c.height - 2*padding }

// y maps v in [lo, hi] to a pixel row.
func (c *canvas) y(v, lo, hi float64) int {
	span := hi - lo
	if span == 0 {
		span = 1
	}
	return padding + c.chartH() - int(float64(c.chartH())*(v-lo)/span)
}

func (c *canvas) x(v, lo, hi float64) int {
	span := hi - lo
	if span == 0 {
		span = 1
	}
	return padding + int(float64(c.chartW())*(v-lo)/span)
}

func (c *canvas) open(title string) {
	fmt.Fprintf(&c.sb, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" role="img">`, c.width, c.height)
	fmt.Fprintf(&c.sb, `<rect width="%d" height="%d" fill="white"/>`, c.width, c.height)
	if title != "" {
		fmt.Fprintf(&c.sb, `<text x="%d" y="25" text-anchor="middle" font-size="16" font-weight="bold">%s</text>`, c.width/2, esc(title))
	}
	// axes
	fmt.Fprintf(&c.sb, `<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="#999"/>`, padding, padding, padding, padding+c.chartH())
	fmt.Fprintf(&c.sb, `<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="#999"/>`, padding, padding+c.chartH(), padding+c.chartW(), padding+c.chartH())
}

func (c *canvas) axisLabels(xLabel, yLabel string) {
	if xLabel != "" {
		fmt.Fprintf(&c.sb, `<text x="%d" y="%d" text-anchor="middle" font-size="12">%s</text>`, c.width/2, c.height-10, esc(xLabel))
	}
	if yLabel != "" {
		fmt.Fprintf(&c.sb, `<text x="15" y="%d" text-anchor="middle" font-size="12" transform="rotate(-90, 15, %d)">%s</text>`, c.height/2, c.height/2, esc(yLabel))
	}
}

func (c *canvas) tick(v float64, py int) {
	fmt.Fprintf(&c.sb, `<text x="%d" y="%d" text-anchor="end" font-size="10">%s</text>`, padding-5, py+3, num(v))
}

func (c *canvas) histogram(bins []Bin) {
	if len(bins) == 0 {
		return
	}
	maxCount := 0
	for _, b := range bins {
		if b.Count > maxCount {
			maxCount = b.Count
		}
	}
	lo, hi := bins[0].Lo, bins[len(bins)-1].Hi
	base := padding + c.chartH()
	for _, b := range bins {
		x0, x1 := c.x(b.Lo, lo, hi), c.x(b.Hi, lo, hi)
		top := c.y(float64(b.Count), 0, float64(maxCount))
		fmt.Fprintf(&c.sb, `<rect x="%d" y="%d" width="%d" height="%d" fill="%s" stroke="white"><title>%s–%s: %d</title></rect>`,
			x0, top, max(x1-x0, 1), base-top, c.color, num(b.Lo), num(b.Hi), b.Count)
	}
	fmt.Fprintf(&c.sb, `<text x="%d" y="%d" text-anchor="middle" font-size="10">%s</text>`, padding, base+15, num(lo))
	fmt.Fprintf(&c.sb, `<text x="%d" y="%d" text-anchor="middle" font-size="10">%s</text>`, padding+c.chartW(), base+15, num(hi))
	c.tick(float64(maxCount), padding)
	c.tick(0, base)
}

func (c *canvas) box(b *BoxStats) {
	if b == nil {
		return
	}
	lo, hi := b.Min, b.Max
	cx := padding + c.chartW()/2
	bw := c.chartW() / 4
	y1, y2, y3 := c.y(b.Q1, lo, hi), c.y(b.Median, lo, hi), c.y(b.Q3, lo, hi)
	yLo, yHi := c.y(b.LowerWhisker, lo, hi), c.y(b.UpperWhisker, lo, hi)

	fmt.Fprintf(&c.sb, `<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="%s"/>`, cx, yLo, cx, y1, c.color)
	fmt.Fprintf(&c.sb, `<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="%s"/>`, cx, y3, cx, yHi, c.color)
	fmt.Fprintf(&c.sb, `<rect x="%d" y="%d" width="%d" height="%d" fill="%s" fill-opacity="0.5" stroke="%s"/>`, cx-bw/2, y3, bw, max(y1-y3, 1), c.color, c.color)
	fmt.Fprintf(&c.sb, `<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="%s" stroke-width="2"/>`, cx-bw/2, y2, cx+bw/2, y2, c.color)
	for _, py := range []int{yLo, yHi} {
		fmt.Fprintf(&c.sb, `<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="%s"/>`, cx-bw/4, py, cx+bw/4, py, c.color)
	}
	for _, o := range b.Outliers {
		fmt.Fprintf(&c.sb, `<circle cx="%d" cy="%d" r="3" fill="none" stroke="%s"><title>%s</title></circle>`, cx, c.y(o, lo, hi), c.color, num(o))
	}
	c.tick(hi, padding)
	c.tick(lo, padding+c.chartH())
}

func (c *canvas) scatter(pts []Point) {
	if len(pts) == 0 {
		return
	}
	minX, maxX := pts[0].X, pts[0].X
	minY, maxY := pts[0].Y, pts[0].Y
	for _, p := range pts {
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}
	for _, p := range pts {
		fmt.Fprintf(&c.sb, `<circle cx="%d" cy="%d" r="4" fill="%s" fill-opacity="0.7"/>`, c.x(p.X, minX, maxX), c.y(p.Y, minY, maxY), c.color)
	}
	base := padding + c.chartH()
	fmt.Fprintf(&c.sb, `<text x="%d" y="%d" text-anchor="middle" font-size="10">%s</text>`, padding, base+15, num(minX))
	fmt.Fprintf(&c.sb, `<text x="%d" y="%d" text-anchor="middle" font-size="10">%s</text>`, padding+c.chartW(), base+15, num(maxX))
	c.tick(maxY, padding)
	c.tick(minY, base)
}

func (c *canvas) bars(bars []Bar) {
	if len(bars) == 0 {
		return
	}
	lo, hi := 0.0, 0.0
	for _, b := range bars {
		lo, hi = min(lo, b.Value), max(hi, b.Value)
	}
	slot := c.chartW() / len(bars)
	gap := slot / 5
	bw := max(slot-gap, 1)
	zero := c.y(0, lo, hi)
	for i, b := range bars {
		x := padding + i*slot + gap/2
		top, bottom := c.y(b.Value, lo, hi), zero
		if top > bottom {
			top, bottom = bottom, top
		}
		fmt.Fprintf(&c.sb, `<rect x="%d" y="%d" width="%d" height="%d" fill="%s"><title>%s: %s</title></rect>`,
			x, top, bw, max(bottom-top, 1), c.color, esc(b.Label), num(b.Value))
		fmt.Fprintf(&c.sb, `<text x="%d" y="%d" text-anchor="middle" font-size="10">%s</text>`, x+bw/2, c.height-padding+15, esc(b.Label))
	}
	c.tick(hi, padding)
	c.tick(lo, padding+c.chartH())
}

func esc(s string) string { return html.EscapeString(s) }

func num(v float64) string { return strconv.FormatFloat(v, 'g', 6, 64) }
