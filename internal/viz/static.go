package viz

import (
	"bytes"
	"fmt"
	"html"
	"math"
	"strings"

	"github.com/KaramelBytes/quickeda-cli/internal/result"
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	staticWidth  = 800
	staticHeight = 480
)

// StaticBackend draws SVG images with go-chart.
type StaticBackend struct {
	Width  int
	Height int
}

func NewStaticBackend() *StaticBackend {
	return &StaticBackend{Width: staticWidth, Height: staticHeight}
}

func (b *StaticBackend) Name() string { return Static }

func (b *StaticBackend) Render(kind Kind, data Data, annotations ...result.StatResult) (*Handle, error) {
	if err := validate(kind, data); err != nil {
		return nil, fmt.Errorf("%s backend: %w", Static, err)
	}
	var buf bytes.Buffer
	var err error
	switch kind {
	case Scatter:
		err = b.scatter(&buf, data)
	case BarChart:
		err = b.bars(&buf, data.Title, data.YLabel, barValues(data))
	case Histogram:
		err = b.bars(&buf, data.Title, "count", histogramValues(data))
	}
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", kind, err)
	}
	h := newHandle(Static, kind, data, "image/svg+xml", ".svg", nil, annotations)
	h.Content = overlayText(buf.Bytes(), h.Annotations)
	return h, nil
}

// pointStyle renders points only (no connecting line).
func pointStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeWidth: chart.Disabled,
		DotWidth:    4,
		DotColor:    col,
	}
}

func (b *StaticBackend) scatter(buf *bytes.Buffer, d Data) error {
	series := []chart.Series{
		chart.ContinuousSeries{
			Name:    "observations",
			XValues: d.X,
			YValues: d.Y,
			Style:   pointStyle(chart.ColorBlue),
		},
	}
	xlo, xhi := bounds(d.X)
	ylo, yhi := bounds(d.Y)
	if d.Fit != nil && !math.IsNaN(d.Fit.Slope) && !math.IsNaN(d.Fit.Intercept) {
		y0 := d.Fit.Intercept + d.Fit.Slope*xlo
		y1 := d.Fit.Intercept + d.Fit.Slope*xhi
		series = append(series, chart.ContinuousSeries{
			Name:    "fit",
			XValues: []float64{xlo, xhi},
			YValues: []float64{y0, y1},
			Style:   chart.Style{StrokeWidth: 2, StrokeColor: chart.ColorRed},
		})
		ylo, yhi = math.Min(ylo, math.Min(y0, y1)), math.Max(yhi, math.Max(y0, y1))
	}
	ch := chart.Chart{
		Title:      d.Title,
		Width:      b.Width,
		Height:     b.Height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      chart.XAxis{Name: d.XLabel, Range: padded(xlo, xhi)},
		YAxis:      chart.YAxis{Name: d.YLabel, Range: padded(ylo, yhi)},
		Series:     series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	return ch.Render(chart.SVG, buf)
}

func (b *StaticBackend) bars(buf *bytes.Buffer, title, ylabel string, vals []chart.Value) error {
	lo, hi := 0.0, 0.0
	for _, v := range vals {
		lo = math.Min(lo, v.Value)
		hi = math.Max(hi, v.Value)
	}
	width := b.Width
	if need := 80 + 48*len(vals); need > width {
		width = need
	}
	bc := chart.BarChart{
		Title:      title,
		Width:      width,
		Height:     b.Height,
		BarWidth:   32,
		Background: chart.Style{Padding: chart.Box{Top: 40}},
		YAxis:      chart.YAxis{Name: ylabel, Range: padded(lo, hi)},
		Bars:       vals,
	}
	return bc.Render(chart.SVG, buf)
}

// barValues flattens grouped series into one bar per (category, series).
func barValues(d Data) []chart.Value {
	var out []chart.Value
	multi := len(d.Series) > 1
	for i, c := range d.Categories {
		for _, s := range d.Series {
			label := c
			if multi {
				label = c + "/" + s.Name
			}
			v := s.Values[i]
			if math.IsNaN(v) || math.IsInf(v, 0) {
				v = 0
			}
			out = append(out, chart.Value{Label: label, Value: v})
		}
	}
	return out
}

func histogramValues(d Data) []chart.Value {
	bins := Binned(d.Values, d.Bins)
	out := make([]chart.Value, len(bins))
	for i, bn := range bins {
		out[i] = chart.Value{Label: fmt.Sprintf("%.3g", (bn.Lo+bn.Hi)/2), Value: float64(bn.Count)}
	}
	return out
}

func bounds(vals []float64) (lo, hi float64) {
	f := finite(vals)
	if len(f) == 0 {
		return 0, 1
	}
	lo, hi = f[0], f[0]
	for _, v := range f {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

// padded widens a degenerate range so single points still render.
func padded(lo, hi float64) *chart.ContinuousRange {
	if lo == hi {
		pad := math.Max(math.Abs(lo)*0.1, 1)
		return &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}
	}
	pad := (hi - lo) * 0.05
	return &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}

// overlayText appends annotation lines to the top-left corner of an SVG.
func overlayText(svg []byte, lines []string) []byte {
	if len(lines) == 0 {
		return svg
	}
	s := string(svg)
	end := strings.LastIndex(s, "</svg>")
	if end < 0 {
		return svg
	}
	var b strings.Builder
	b.WriteString(s[:end])
	b.WriteString(`<g class="annotations" font-family="sans-serif" font-size="11" fill="#333">`)
	for i, l := range lines {
		fmt.Fprintf(&b, `<text x="12" y="%d">%s</text>`, 14+13*i, html.EscapeString(l))
	}
	b.WriteString("</g>")
	b.WriteString(s[end:])
	return []byte(b.String())
}
