package analysis

import (
	"fmt"
	"math"
	"sort"

	apperrors "github.com/KaramelBytes/quickeda-cli/internal/errors"
	"github.com/KaramelBytes/quickeda-cli/internal/inference"
	"github.com/KaramelBytes/quickeda-cli/internal/result"
	"github.com/KaramelBytes/quickeda-cli/internal/table"
	"github.com/KaramelBytes/quickeda-cli/internal/viz"
)

// DefaultAlpha is the family-wise significance level for pairwise group tests.
const DefaultAlpha = 0.05

// maxComparisonLevels bounds the levels compared pairwise after an ANOVA.
const maxComparisonLevels = 20

// BivariateOptions controls feature-versus-target analysis.
type BivariateOptions struct {
	// Features restricts the analysis; empty means every column but the target.
	Features []string
	// Plot renders one plot per computed pair.
	Plot bool
	// Backend overrides the session backend for this call only.
	Backend string
	// RankByStrength orders entries by the absolute test statistic.
	RankByStrength bool
	// Alpha is the family-wise level split across pairwise comparisons.
	Alpha float64
}

// BivariateAnalyzer relates every feature to one target column.
type BivariateAnalyzer struct {
	selector *viz.Selector
}

func NewBivariateAnalyzer(sel *viz.Selector) *BivariateAnalyzer {
	if sel == nil {
		sel = viz.NewSelector()
	}
	return &BivariateAnalyzer{selector: sel}
}

// role collapses column kinds into the two sides of the dispatch table.
type role int

const (
	roleOther role = iota
	roleNumeric
	roleCategorical
)

func roleOf(k table.Kind) role {
	switch k {
	case table.Numeric:
		return roleNumeric
	case table.Categorical, table.Boolean:
		return roleCategorical
	case table.Datetime, table.Unknown:
		return roleOther
	}
	return roleOther
}

// Analyze computes one entry per feature. A missing target or one that is
// neither numeric nor categorical fails the call; problems with a single
// feature are recorded as SKIPPED entries.
func (a *BivariateAnalyzer) Analyze(t *table.Table, target string, opt BivariateOptions) (*Report, error) {
	tcol, ok := t.Column(target)
	if !ok {
		return nil, apperrors.InvalidTarget(target, "column not found")
	}
	cls := table.NewClassifier(t)
	tkind := cls.Kind(target)
	if roleOf(tkind) == roleOther {
		return nil, apperrors.InvalidTarget(target, fmt.Sprintf("kind %s, want numeric or categorical", tkind))
	}
	features := opt.Features
	if len(features) == 0 {
		for _, n := range t.Names() {
			if n != target {
				features = append(features, n)
			}
		}
	}
	for _, f := range features {
		if _, ok := t.Column(f); !ok {
			return nil, apperrors.Configuration("feature", f, t.Names())
		}
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
	if opt.Alpha <= 0 {
		opt.Alpha = DefaultAlpha
	}

	rep := &Report{Analysis: KindBivariate, Source: t.Name, Target: target}
	for _, name := range features {
		fcol, _ := t.Column(name)
		fkind := cls.Kind(name)
		p := pair{feature: fcol, fkind: fkind, target: tcol, tkind: tkind}
		entry := Entry{}
		var plot *viz.Data
		var plotKind viz.Kind
		switch {
		case name == target:
			entry.Result = result.Skip(fkind, result.Skipped, "feature is the target", name, target)
		case roleOf(fkind) == roleOther:
			entry.Result = result.Skip(fkind, result.Skipped, fmt.Sprintf("unsupported feature kind %s", fkind), name, target)
		case p.usable() < 2:
			entry.Result = result.Skip(fkind, result.Skipped, "fewer than 2 usable rows", name, target)
		case roleOf(fkind) == roleNumeric && roleOf(tkind) == roleNumeric:
			entry.Result, plot = p.regression()
			plotKind = viz.Scatter
		case roleOf(fkind) == roleNumeric:
			entry.Result, plot = p.anova(fcol, p.target, tkind, opt.Alpha)
			plotKind = viz.BarChart
		case roleOf(tkind) == roleNumeric:
			entry.Result, plot = p.anova(p.target, fcol, fkind, opt.Alpha)
			plotKind = viz.BarChart
		default:
			entry.Result, plot = p.chiSquare()
			plotKind = viz.BarChart
		}
		if backend != nil && plot != nil {
			h, err := backend.Render(plotKind, *plot, entry.Result)
			if err != nil {
				rep.Warnings = append(rep.Warnings, fmt.Sprintf("plot for %s: %v", name, err))
			} else {
				entry.Plot = h
			}
		}
		rep.Entries = append(rep.Entries, entry)
	}
	if opt.RankByStrength {
		sort.SliceStable(rep.Entries, func(i, j int) bool {
			return descNaNLast(strength(rep.Entries[i].Result), strength(rep.Entries[j].Result))
		})
	}
	return rep, nil
}

// strength is the absolute primary statistic of a pair result.
func strength(r result.StatResult) float64 {
	var key string
	switch r.Test() {
	case TestPearson:
		key = StatR
	case TestANOVA:
		key = StatF
	case TestChiSquare:
		key = StatChi2
	default:
		return math.NaN()
	}
	v, _ := r.Num(key)
	return math.Abs(v)
}

type pair struct {
	feature *table.Column
	fkind   table.Kind
	target  *table.Column
	tkind   table.Kind
}

// rows returns the indices where both columns hold a value.
func (p pair) rows() []int {
	var out []int
	for i := range p.feature.Values {
		if p.feature.Present(i) && p.target.Present(i) {
			out = append(out, i)
		}
	}
	return out
}

func (p pair) usable() int { return len(p.rows()) }

func (p pair) regression() (result.StatResult, *viz.Data) {
	fx, ty := p.feature.Floats(), p.target.Floats()
	var x, y []float64
	for _, i := range p.rows() {
		x = append(x, fx[i])
		y = append(y, ty[i])
	}
	reg := inference.SimpleRegression(x, y)
	b := result.NewBuilder(p.fkind, p.feature.Name, p.target.Name).Test(TestPearson).
		Num(StatN, float64(reg.N)).
		Num(StatR, reg.R).
		Num(StatPValue, reg.PValue).
		Num(StatSlope, reg.Slope).
		Num(StatIntercept, reg.Intercept).
		Num(StatRSquared, reg.RSquared)
	nan := math.NaN()
	bp := inference.Heteroscedasticity{LM: nan, LMPValue: nan, F: nan, FPValue: nan}
	white := bp
	if !math.IsNaN(reg.Slope) && len(x) >= 3 {
		resid := make([]float64, len(x))
		for i := range x {
			resid[i] = y[i] - (reg.Intercept + reg.Slope*x[i])
		}
		bp = inference.BreuschPagan(resid, [][]float64{x})
		// x and x² need a residual degree of freedom beyond their three parameters
		if len(x) > 3 {
			white = inference.White(resid, [][]float64{x})
		}
	}
	b.Num(StatBPLM, bp.LM).Num(StatBPPValue, bp.LMPValue).
		Num(StatBPF, bp.F).Num(StatBPFPValue, bp.FPValue).
		Num(StatWhiteLM, white.LM).Num(StatWhiteP, white.LMPValue).
		Num(StatWhiteF, white.F).Num(StatWhiteFP, white.FPValue)
	d := &viz.Data{
		Title:  fmt.Sprintf("%s vs %s", p.target.Name, p.feature.Name),
		XLabel: p.feature.Name,
		YLabel: p.target.Name,
		X:      x,
		Y:      y,
	}
	if !math.IsNaN(reg.Slope) {
		d.Fit = &viz.Line{Slope: reg.Slope, Intercept: reg.Intercept}
	}
	return b.Build(), d
}

// anova groups the numeric column by the levels of the categorical one.
func (p pair) anova(num, cat *table.Column, catKind table.Kind, alpha float64) (result.StatResult, *viz.Data) {
	vals := num.Floats()
	byLevel := map[string][]float64{}
	for _, i := range p.rows() {
		lvl := levelOf(cat, catKind, i)
		byLevel[lvl] = append(byLevel[lvl], vals[i])
	}
	levels := sortedKeys(byLevel)
	samples := make([][]float64, len(levels))
	groups := make([]result.Group, len(levels))
	means := make([]float64, len(levels))
	for i, l := range levels {
		samples[i] = byLevel[l]
		s := inference.Describe(byLevel[l])
		groups[i] = result.Group{Name: l, N: s.N, Mean: s.Mean, Std: s.Std}
		means[i] = s.Mean
	}
	res := inference.OneWayANOVA(samples)
	b := result.NewBuilder(p.fkind, p.feature.Name, p.target.Name).Test(TestANOVA).
		Num(StatN, float64(p.usable())).
		Num(StatGroups, float64(len(levels))).
		Num(StatF, res.F).
		Num(StatPValue, res.PValue).
		Num(StatDFBetween, float64(res.DFBetween)).
		Num(StatDFWithin, float64(res.DFWithin)).
		Groups(groups)
	if len(levels) >= 2 && len(levels) <= maxComparisonLevels {
		b.Comparisons(pairwise(levels, samples, alpha))
	}
	d := &viz.Data{
		Title:      fmt.Sprintf("Mean %s by %s", num.Name, cat.Name),
		XLabel:     cat.Name,
		YLabel:     "mean " + num.Name,
		Categories: levels,
		Series:     []viz.BarSeries{{Name: "mean " + num.Name, Values: means}},
	}
	return b.Build(), d
}

// pairwise runs t-tests between every pair of levels against a Bonferroni
// adjusted threshold.
func pairwise(levels []string, samples [][]float64, alpha float64) []result.Comparison {
	m := len(levels) * (len(levels) - 1) / 2
	threshold := alpha / float64(m)
	out := make([]result.Comparison, 0, m)
	for i := 0; i < len(levels); i++ {
		for j := i + 1; j < len(levels); j++ {
			t, p := inference.StudentTTest(samples[i], samples[j])
			out = append(out, result.Comparison{
				A: levels[i], B: levels[j], T: t, PValue: p,
				Threshold: threshold, Significant: p < threshold,
			})
		}
	}
	return out
}

func (p pair) chiSquare() (result.StatResult, *viz.Data) {
	counts := map[string]map[string]float64{}
	tlevels := map[string]struct{}{}
	for _, i := range p.rows() {
		f := levelOf(p.feature, p.fkind, i)
		tl := levelOf(p.target, p.tkind, i)
		if counts[f] == nil {
			counts[f] = map[string]float64{}
		}
		counts[f][tl]++
		tlevels[tl] = struct{}{}
	}
	flev := sortedKeys(counts)
	tlev := sortedKeys(tlevels)
	observed := make([][]float64, len(flev))
	for i, f := range flev {
		observed[i] = make([]float64, len(tlev))
		for j, tl := range tlev {
			observed[i][j] = counts[f][tl]
		}
	}
	res := inference.ChiSquare(observed)
	b := result.NewBuilder(p.fkind, p.feature.Name, p.target.Name).Test(TestChiSquare).
		Num(StatN, float64(p.usable())).
		Num(StatChi2, res.Chi2).
		Num(StatDOF, float64(res.DOF)).
		Num(StatPValue, res.PValue).
		Num(StatCramersV, res.CramersV)
	d := &viz.Data{
		Title:      fmt.Sprintf("%s by %s", p.target.Name, p.feature.Name),
		XLabel:     p.feature.Name,
		YLabel:     "count",
		Categories: flev,
	}
	for j, tl := range tlev {
		vals := make([]float64, len(flev))
		for i := range flev {
			vals[i] = observed[i][j]
		}
		d.Series = append(d.Series, viz.BarSeries{Name: tl, Values: vals})
	}
	return b.Build(), d
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
