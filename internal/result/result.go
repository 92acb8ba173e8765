package result

import (
	"fmt"
	"math"
	"strings"

	"github.com/KaramelBytes/quickeda-cli/internal/table"
)

// Marker flags an entry whose statistics were not computed.
type Marker string

const (
	// Computed is the zero marker: statistics are present.
	Computed Marker = ""
	// Skipped marks a pair without enough usable rows or an unsupported kind.
	Skipped Marker = "SKIPPED"
	// Excluded marks a feature left out of a regressor set.
	Excluded Marker = "EXCLUDED"
)

// Frequency is one bucket of a categorical distribution.
type Frequency struct {
	Value string
	Count int
	Share float64
	// Other is set on the bucket that folds the truncated tail.
	Other bool
}

// Group summarizes a numeric variable within one category level.
type Group struct {
	Name string
	N    int
	Mean float64
	Std  float64
}

// Comparison is a pairwise two-sample t-test between category levels.
type Comparison struct {
	A, B        string
	T           float64
	PValue      float64
	Threshold   float64
	Significant bool
}

// StatResult maps statistic names to values for the column(s) it describes.
// It is immutable: construct it with a Builder, read it with the getters.
type StatResult struct {
	columns     []string
	kind        table.Kind
	test        string
	marker      Marker
	reason      string
	names       []string
	nums        map[string]float64
	labels      map[string]string
	freqs       []Frequency
	groups      []Group
	comparisons []Comparison
}

// Columns returns the described columns; pair results list feature then target.
func (r StatResult) Columns() []string { return append([]string(nil), r.columns...) }

// Column returns the first described column.
func (r StatResult) Column() string {
	if len(r.columns) == 0 {
		return ""
	}
	return r.columns[0]
}

// Kind is the kind of the first described column.
func (r StatResult) Kind() table.Kind { return r.kind }

// Test names the statistical procedure behind the values, if any.
func (r StatResult) Test() string { return r.test }

func (r StatResult) Marker() Marker { return r.marker }

func (r StatResult) Reason() string { return r.reason }

// Names lists statistic names in the order they were recorded.
func (r StatResult) Names() []string { return append([]string(nil), r.names...) }

// Num returns a numeric statistic.
func (r StatResult) Num(name string) (float64, bool) {
	v, ok := r.nums[name]
	return v, ok
}

// Label returns a textual statistic such as a mode or granularity.
func (r StatResult) Label(name string) (string, bool) {
	v, ok := r.labels[name]
	return v, ok
}

// Has reports whether name is recorded either as a number or a label.
func (r StatResult) Has(name string) bool {
	if _, ok := r.nums[name]; ok {
		return true
	}
	_, ok := r.labels[name]
	return ok
}

func (r StatResult) Frequencies() []Frequency { return append([]Frequency(nil), r.freqs...) }

func (r StatResult) Groups() []Group { return append([]Group(nil), r.groups...) }

func (r StatResult) Comparisons() []Comparison {
	return append([]Comparison(nil), r.comparisons...)
}

// Format renders one statistic for display.
func (r StatResult) Format(name string) string {
	if v, ok := r.nums[name]; ok {
		return FormatNum(v)
	}
	if v, ok := r.labels[name]; ok {
		return v
	}
	return ""
}

// Annotations renders the statistics as "name=value" labels for plots.
func (r StatResult) Annotations() []string {
	if r.marker != Computed {
		s := string(r.marker)
		if r.reason != "" {
			s += ": " + r.reason
		}
		return []string{s}
	}
	out := make([]string, 0, len(r.names))
	for _, n := range r.names {
		out = append(out, n+"="+r.Format(n))
	}
	return out
}

func (r StatResult) String() string {
	return fmt.Sprintf("%s{%s}", strings.Join(r.columns, "~"), strings.Join(r.Annotations(), ", "))
}

// FormatNum prints a statistic compactly, spelling out NaN and infinities.
func FormatNum(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "+Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	}
	return fmt.Sprintf("%.4g", v)
}

// Builder accumulates a StatResult.
type Builder struct {
	r StatResult
}

func NewBuilder(kind table.Kind, columns ...string) *Builder {
	return &Builder{r: StatResult{
		columns: append([]string(nil), columns...),
		kind:    kind,
		nums:    map[string]float64{},
		labels:  map[string]string{},
	}}
}

func (b *Builder) Num(name string, v float64) *Builder {
	if _, ok := b.r.nums[name]; !ok {
		b.r.names = append(b.r.names, name)
	}
	b.r.nums[name] = v
	return b
}

func (b *Builder) Label(name, v string) *Builder {
	if _, ok := b.r.labels[name]; !ok {
		b.r.names = append(b.r.names, name)
	}
	b.r.labels[name] = v
	return b
}

func (b *Builder) Test(name string) *Builder {
	b.r.test = name
	return b
}

// Mark flags the entry; the reason is shown wherever the entry is rendered.
func (b *Builder) Mark(m Marker, reason string) *Builder {
	b.r.marker = m
	b.r.reason = reason
	return b
}

func (b *Builder) Frequencies(f []Frequency) *Builder {
	b.r.freqs = append([]Frequency(nil), f...)
	return b
}

func (b *Builder) Groups(g []Group) *Builder {
	b.r.groups = append([]Group(nil), g...)
	return b
}

func (b *Builder) Comparisons(c []Comparison) *Builder {
	b.r.comparisons = append([]Comparison(nil), c...)
	return b
}

// Build returns an independent copy; the builder may keep being used.
func (b *Builder) Build() StatResult {
	r := b.r
	r.columns = append([]string(nil), b.r.columns...)
	r.names = append([]string(nil), b.r.names...)
	r.nums = make(map[string]float64, len(b.r.nums))
	for k, v := range b.r.nums {
		r.nums[k] = v
	}
	r.labels = make(map[string]string, len(b.r.labels))
	for k, v := range b.r.labels {
		r.labels[k] = v
	}
	r.freqs = append([]Frequency(nil), b.r.freqs...)
	r.groups = append([]Group(nil), b.r.groups...)
	r.comparisons = append([]Comparison(nil), b.r.comparisons...)
	return r
}

// Skip is shorthand for a marker-only result.
func Skip(kind table.Kind, marker Marker, reason string, columns ...string) StatResult {
	return NewBuilder(kind, columns...).Mark(marker, reason).Build()
}
