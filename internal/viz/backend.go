// Package viz renders analysis plots through interchangeable backends.
// Analyzers build a Data value and hand it to whichever Backend the
// session Selector resolves; they never draw directly.
package viz

import (
	"fmt"
	"math"
	"path/filepath"

	"github.com/KaramelBytes/quickeda-cli/internal/result"
	"github.com/KaramelBytes/quickeda-cli/internal/utils"
	"github.com/google/uuid"
)

// Kind is a plot capability every backend provides.
type Kind string

const (
	Scatter   Kind = "scatter"
	BarChart  Kind = "bar_chart"
	Histogram Kind = "histogram"
)

// Line is a fitted regression line drawn over a scatter plot.
type Line struct {
	Slope     float64
	Intercept float64
}

// BarSeries is one group of bars; several series render side by side.
type BarSeries struct {
	Name   string
	Values []float64
}

// Data is the prepared input of one plot. Which fields are read depends on
// the Kind: X/Y/Fit for scatter, Categories/Series for bar charts and
// Values/Bins for histograms.
type Data struct {
	Title  string
	XLabel string
	YLabel string

	X   []float64
	Y   []float64
	Fit *Line

	Categories []string
	Series     []BarSeries

	Values []float64
	Bins   int
}

// Handle is the opaque product of a render call.
type Handle struct {
	ID          string
	Backend     string
	Kind        Kind
	Title       string
	MIME        string
	Ext         string
	Content     []byte
	Annotations []string
}

// Backend renders plots for one rendering technology.
type Backend interface {
	Name() string
	Render(kind Kind, data Data, annotations ...result.StatResult) (*Handle, error)
}

// Save writes the rendered content under dir and returns the file path.
func (h *Handle) Save(dir, stem string) (string, error) {
	if stem == "" {
		stem = string(h.Kind)
	}
	short := h.ID
	if len(short) > 8 {
		short = short[:8]
	}
	path := filepath.Join(dir, fmt.Sprintf("%s-%s%s", utils.SafeStem(stem), short, h.Ext))
	if err := utils.SafeWriteFile(path, h.Content); err != nil {
		return "", err
	}
	return path, nil
}

func newHandle(backend string, kind Kind, data Data, mime, ext string, content []byte, annotations []result.StatResult) *Handle {
	var lines []string
	for _, a := range annotations {
		lines = append(lines, a.Annotations()...)
	}
	return &Handle{
		ID:          uuid.NewString(),
		Backend:     backend,
		Kind:        kind,
		Title:       data.Title,
		MIME:        mime,
		Ext:         ext,
		Content:     content,
		Annotations: lines,
	}
}

// validate checks that data carries what kind needs.
func validate(kind Kind, d Data) error {
	switch kind {
	case Scatter:
		if len(d.X) == 0 || len(d.X) != len(d.Y) {
			return fmt.Errorf("scatter needs equal-length x and y, got %d and %d", len(d.X), len(d.Y))
		}
	case BarChart:
		if len(d.Categories) == 0 || len(d.Series) == 0 {
			return fmt.Errorf("bar chart needs categories and at least one series")
		}
		for _, s := range d.Series {
			if len(s.Values) != len(d.Categories) {
				return fmt.Errorf("bar series %q has %d values for %d categories", s.Name, len(s.Values), len(d.Categories))
			}
		}
	case Histogram:
		if len(finite(d.Values)) == 0 {
			return fmt.Errorf("histogram needs at least one finite value")
		}
	default:
		return fmt.Errorf("unsupported plot kind: %s", kind)
	}
	return nil
}

// Bin is one histogram bucket covering [Lo, Hi); the last bucket is closed.
type Bin struct {
	Lo, Hi float64
	Count  int
}

// Binned counts finite values into equal-width bins. bins <= 0 uses
// Sturges' rule.
func Binned(values []float64, bins int) []Bin {
	vals := finite(values)
	if len(vals) == 0 {
		return nil
	}
	if bins <= 0 {
		bins = int(math.Ceil(math.Log2(float64(len(vals))))) + 1
	}
	lo, hi := vals[0], vals[0]
	for _, v := range vals {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo == hi {
		return []Bin{{Lo: lo, Hi: hi, Count: len(vals)}}
	}
	width := (hi - lo) / float64(bins)
	out := make([]Bin, bins)
	for i := range out {
		out[i] = Bin{Lo: lo + float64(i)*width, Hi: lo + float64(i+1)*width}
	}
	out[bins-1].Hi = hi
	for _, v := range vals {
		i := int((v - lo) / width)
		if i >= bins {
			i = bins - 1
		}
		out[i].Count++
	}
	return out
}

func finite(vals []float64) []float64 {
	out := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}
