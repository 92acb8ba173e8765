package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	apperrors "github.com/KaramelBytes/quickeda-cli/internal/errors"
	"github.com/KaramelBytes/quickeda-cli/internal/inference"
	"github.com/KaramelBytes/quickeda-cli/internal/result"
	"github.com/KaramelBytes/quickeda-cli/internal/table"
	"github.com/KaramelBytes/quickeda-cli/internal/viz"
)

// DefaultCategoryLimit is the number of categories listed before the rest
// are folded into an "other" bucket, when no explicit top-K is set.
const DefaultCategoryLimit = 20

// OtherBucket labels the folded tail of a truncated frequency table.
const OtherBucket = "other"

// UnivariateOptions controls per-column summaries.
type UnivariateOptions struct {
	// SortBy orders numeric entries by a statistic from NumericStats,
	// descending with NaN last. Empty keeps table order.
	SortBy string
	// TopK caps listed categories; 0 lists up to DefaultCategoryLimit.
	TopK int
	// OutlierThreshold is the robust |z| above which values count as outliers.
	OutlierThreshold float64
	// Plot renders a histogram per numeric and a bar chart per categorical column.
	Plot bool
	// Backend overrides the session backend for this call.
	Backend string
}

// DefaultUnivariateOptions returns the defaults used by the CLI.
func DefaultUnivariateOptions() UnivariateOptions {
	return UnivariateOptions{OutlierThreshold: 3.5}
}

// UnivariateAnalyzer summarizes every column independently of any target.
type UnivariateAnalyzer struct {
	selector *viz.Selector
}

func NewUnivariateAnalyzer(sel *viz.Selector) *UnivariateAnalyzer {
	if sel == nil {
		sel = viz.NewSelector()
	}
	return &UnivariateAnalyzer{selector: sel}
}

// Analyze returns exactly one entry per column of t.
func (a *UnivariateAnalyzer) Analyze(t *table.Table, opt UnivariateOptions) (*Report, error) {
	if opt.SortBy != "" && !contains(NumericStats, opt.SortBy) {
		return nil, apperrors.Configuration("sort_by", opt.SortBy, NumericStats)
	}
	if opt.TopK < 0 {
		return nil, apperrors.Configuration("top_k", fmt.Sprint(opt.TopK), []string{"0 (default)", "positive integer"})
	}
	// an explicit backend is checked even when nothing is plotted
	var backend viz.Backend
	if opt.Plot || opt.Backend != "" {
		b, err := a.selector.Resolve(opt.Backend)
		if err != nil {
			return nil, err
		}
		if opt.Plot {
			backend = b
		}
	}
	if opt.OutlierThreshold <= 0 {
		opt.OutlierThreshold = 3.5
	}

	cls := table.NewClassifier(t)
	rep := &Report{Analysis: KindUnivariate, Source: t.Name}
	for _, col := range t.Columns() {
		kind := cls.Kind(col.Name)
		var entry Entry
		var plot *viz.Data
		var plotKind viz.Kind
		switch kind {
		case table.Numeric:
			vals := presentFloats(col)
			entry.Result = numericSummary(col, vals, opt)
			plotKind = viz.Histogram
			plot = &viz.Data{Title: "Distribution of " + col.Name, XLabel: col.Name, Values: vals}
		case table.Categorical, table.Boolean:
			r, freqs := categoricalSummary(col, kind, opt.TopK)
			entry.Result = r
			plotKind = viz.BarChart
			plot = frequencyPlot(col.Name, freqs)
		case table.Datetime:
			entry.Result = datetimeSummary(col)
		case table.Unknown:
			entry.Result = result.NewBuilder(table.Unknown, col.Name).
				Num(StatCount, 0).
				Num(StatMissing, float64(col.Missing())).
				Build()
		}
		if backend != nil && plot != nil {
			h, err := backend.Render(plotKind, *plot, entry.Result)
			if err != nil {
				rep.Warnings = append(rep.Warnings, fmt.Sprintf("plot for %s: %v", col.Name, err))
			} else {
				entry.Plot = h
			}
		}
		rep.Entries = append(rep.Entries, entry)
	}
	if opt.SortBy != "" {
		rep.Entries = sortEntries(rep.Entries, opt.SortBy)
	}
	return rep, nil
}

func numericSummary(col *table.Column, vals []float64, opt UnivariateOptions) result.StatResult {
	s := inference.Describe(vals)
	p, test := inference.NormalityTest(vals)
	outliers, _ := inference.RobustOutliers(vals, opt.OutlierThreshold)
	distinct := make(map[float64]struct{}, len(vals))
	for _, v := range vals {
		distinct[v] = struct{}{}
	}
	b := result.NewBuilder(table.Numeric, col.Name).
		Num(StatCount, float64(s.N)).
		Num(StatMissing, float64(col.Missing())).
		Num(StatUnique, float64(len(distinct))).
		Num(StatMean, s.Mean).
		Num(StatStd, s.Std).
		Num(StatMin, s.Min).
		Num(StatQ25, s.Q25).
		Num(StatMedian, s.Median).
		Num(StatQ75, s.Q75).
		Num(StatMax, s.Max).
		Num(StatSkew, s.Skew).
		Num(StatKurtosis, s.Kurtosis).
		Num(StatNormalityP, p).
		Num(StatMode, s.Mode).
		Num(StatOutliers, float64(outliers))
	if test != "" {
		b.Label(StatNormality, test)
	}
	return b.Build()
}

func categoricalSummary(col *table.Column, kind table.Kind, topK int) (result.StatResult, []result.Frequency) {
	counts := map[string]int{}
	total := 0
	for i := range col.Values {
		if !col.Present(i) {
			continue
		}
		counts[levelOf(col, kind, i)]++
		total++
	}
	freqs := make([]result.Frequency, 0, len(counts))
	for v, c := range counts {
		freqs = append(freqs, result.Frequency{Value: v, Count: c, Share: float64(c) / float64(total)})
	}
	sort.Slice(freqs, func(i, j int) bool {
		if freqs[i].Count == freqs[j].Count {
			return freqs[i].Value < freqs[j].Value
		}
		return freqs[i].Count > freqs[j].Count
	})
	limit := topK
	if limit <= 0 {
		limit = DefaultCategoryLimit
	}
	if len(freqs) > limit {
		rest := 0
		for _, f := range freqs[limit:] {
			rest += f.Count
		}
		freqs = append(freqs[:limit:limit], result.Frequency{
			Value: OtherBucket, Count: rest, Share: float64(rest) / float64(total), Other: true,
		})
	}
	b := result.NewBuilder(kind, col.Name).
		Num(StatCount, float64(total)).
		Num(StatMissing, float64(col.Missing())).
		Num(StatUnique, float64(len(counts)))
	if len(freqs) > 0 {
		b.Label(StatMode, freqs[0].Value)
	}
	return b.Frequencies(freqs).Build(), freqs
}

func frequencyPlot(name string, freqs []result.Frequency) *viz.Data {
	if len(freqs) == 0 {
		return nil
	}
	d := &viz.Data{Title: "Frequencies of " + name, XLabel: name, YLabel: "count"}
	vals := make([]float64, len(freqs))
	for i, f := range freqs {
		d.Categories = append(d.Categories, f.Value)
		vals[i] = float64(f.Count)
	}
	d.Series = []viz.BarSeries{{Name: "count", Values: vals}}
	return d
}

func datetimeSummary(col *table.Column) result.StatResult {
	var ts []time.Time
	for i, v := range col.Values {
		if !col.Present(i) {
			continue
		}
		if t, ok := table.ParseTime(v); ok {
			ts = append(ts, t)
		}
	}
	b := result.NewBuilder(table.Datetime, col.Name).
		Num(StatCount, float64(len(ts))).
		Num(StatMissing, float64(col.Missing()))
	if len(ts) == 0 {
		return b.Build()
	}
	sort.Slice(ts, func(i, j int) bool { return ts[i].Before(ts[j]) })
	lo, hi := ts[0], ts[len(ts)-1]
	span := hi.Sub(lo)
	return b.Label(StatMin, formatTime(lo)).
		Label(StatMax, formatTime(hi)).
		Num(StatSpanDays, span.Hours()/24).
		Label(StatSpan, formatSpan(span)).
		Label(StatGranular, granularity(ts)).
		Build()
}

// granularity reads the smallest gap between consecutive distinct
// timestamps of a sorted slice.
func granularity(sorted []time.Time) string {
	minGap := time.Duration(math.MaxInt64)
	for i := 1; i < len(sorted); i++ {
		if gap := sorted[i].Sub(sorted[i-1]); gap > 0 && gap < minGap {
			minGap = gap
		}
	}
	const day = 24 * time.Hour
	switch {
	case minGap == time.Duration(math.MaxInt64):
		return "unknown"
	case minGap >= 365*day:
		return "year"
	case minGap >= 28*day:
		return "month"
	default:
		return "day"
	}
}

func formatTime(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format(time.RFC3339)
}

func formatSpan(d time.Duration) string {
	days := int(d.Hours() / 24)
	rem := d - time.Duration(days)*24*time.Hour
	if rem == 0 {
		return fmt.Sprintf("%dd", days)
	}
	return fmt.Sprintf("%dd %s", days, rem)
}

// sortEntries orders numeric entries by stat, descending with NaN last, and
// appends the other entries in their original order.
func sortEntries(entries []Entry, stat string) []Entry {
	var numeric, other []Entry
	for _, e := range entries {
		if e.Result.Kind() == table.Numeric {
			numeric = append(numeric, e)
		} else {
			other = append(other, e)
		}
	}
	sort.SliceStable(numeric, func(i, j int) bool {
		a, _ := numeric[i].Result.Num(stat)
		b, _ := numeric[j].Result.Num(stat)
		return descNaNLast(a, b)
	})
	return append(numeric, other...)
}

func descNaNLast(a, b float64) bool {
	switch {
	case math.IsNaN(a):
		return false
	case math.IsNaN(b):
		return true
	}
	return a > b
}

// presentFloats returns the parsed non-missing values of a numeric column.
func presentFloats(col *table.Column) []float64 {
	all := col.Floats()
	out := make([]float64, 0, len(all))
	for _, v := range all {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// levelOf returns the category label of row i; booleans are normalized.
func levelOf(col *table.Column, kind table.Kind, i int) string {
	v := strings.TrimSpace(col.Values[i])
	if kind == table.Boolean {
		if b, ok := table.ParseBool(v); ok {
			if b {
				return "true"
			}
			return "false"
		}
	}
	return v
}

func contains(set []string, s string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}
