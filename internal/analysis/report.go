// Package analysis implements the exploratory analyses: per-column
// summaries, feature-versus-target relationships and multicollinearity
// diagnostics, plus the DataAnalyzer facade that runs them together.
package analysis

import (
	"github.com/KaramelBytes/quickeda-cli/internal/result"
	"github.com/KaramelBytes/quickeda-cli/internal/table"
	"github.com/KaramelBytes/quickeda-cli/internal/viz"
)

// Analysis names used in reports.
const (
	KindUnivariate = "univariate"
	KindBivariate  = "bivariate"
	KindVIF        = "vif"
)

// Statistic names.
const (
	StatCount      = "count"
	StatMissing    = "missing"
	StatMean       = "mean"
	StatStd        = "std"
	StatMin        = "min"
	StatQ25        = "q25"
	StatMedian     = "median"
	StatQ75        = "q75"
	StatMax        = "max"
	StatSkew       = "skew"
	StatKurtosis   = "kurtosis"
	StatNormalityP = "normality_p"
	StatNormality  = "normality_test"
	StatMode       = "mode"
	StatOutliers   = "outliers"
	StatUnique     = "unique"
	StatSpanDays   = "span_days"
	StatSpan       = "span"
	StatGranular   = "granularity"

	StatN         = "n"
	StatR         = "r"
	StatPValue    = "p_value"
	StatSlope     = "slope"
	StatIntercept = "intercept"
	StatRSquared  = "r_squared"
	StatBPLM      = "bp_lm"
	StatBPPValue  = "bp_p_value"
	StatBPF       = "bp_f"
	StatBPFPValue = "bp_f_p_value"
	StatWhiteLM   = "white_lm"
	StatWhiteP    = "white_p_value"
	StatWhiteF    = "white_f"
	StatWhiteFP   = "white_f_p_value"
	StatF         = "f_stat"
	StatDFBetween = "df_between"
	StatDFWithin  = "df_within"
	StatGroups    = "groups"
	StatChi2      = "chi2"
	StatDOF       = "dof"
	StatCramersV  = "cramers_v"
	StatVIF       = "vif"
)

// Test names recorded on pair results.
const (
	TestPearson   = "pearson"
	TestANOVA     = "anova"
	TestChiSquare = "chi_square"
)

// NumericStats is the set of statistics every numeric univariate entry
// carries, which is also the set accepted as a sort key.
var NumericStats = []string{
	StatCount, StatMissing, StatUnique, StatMean, StatStd, StatMin, StatQ25, StatMedian,
	StatQ75, StatMax, StatSkew, StatKurtosis, StatNormalityP, StatMode, StatOutliers,
}

// Entry is one result with its optional rendered plot.
type Entry struct {
	Result result.StatResult
	Plot   *viz.Handle
}

// Report is the ordered outcome of one analyzer call. It is built fresh on
// every call and not modified after it is returned.
type Report struct {
	Analysis string
	Source   string
	Target   string
	Entries  []Entry
	// Warnings lists problems that did not abort the call, such as a plot
	// that failed to render.
	Warnings []string
}

func (r *Report) Len() int { return len(r.Entries) }

// Results returns the statistics in report order.
func (r *Report) Results() []result.StatResult {
	out := make([]result.StatResult, len(r.Entries))
	for i, e := range r.Entries {
		out[i] = e.Result
	}
	return out
}

// Find returns the entry describing column.
func (r *Report) Find(column string) (Entry, bool) {
	for _, e := range r.Entries {
		if e.Result.Column() == column {
			return e, true
		}
	}
	return Entry{}, false
}

// Split separates numeric entries from the rest, keeping report order.
func (r *Report) Split() (numeric, other []Entry) {
	for _, e := range r.Entries {
		if e.Result.Kind() == table.Numeric {
			numeric = append(numeric, e)
		} else {
			other = append(other, e)
		}
	}
	return numeric, other
}

// Plots returns every rendered plot in report order.
func (r *Report) Plots() []*viz.Handle {
	var out []*viz.Handle
	for _, e := range r.Entries {
		if e.Plot != nil {
			out = append(out, e.Plot)
		}
	}
	return out
}

// VIFs maps each feature with a computed VIF to its value.
func (r *Report) VIFs() map[string]float64 {
	out := map[string]float64{}
	for _, e := range r.Entries {
		if v, ok := e.Result.Num(StatVIF); ok {
			out[e.Result.Column()] = v
		}
	}
	return out
}
