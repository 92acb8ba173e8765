package analysis

import (
	"fmt"
	"math"
	"strings"

	apperrors "github.com/KaramelBytes/quickeda-cli/internal/errors"
	"github.com/KaramelBytes/quickeda-cli/internal/inference"
	"github.com/KaramelBytes/quickeda-cli/internal/result"
	"github.com/KaramelBytes/quickeda-cli/internal/table"
)

// Multivariate methods.
const (
	MethodVIF      = "vif"
	MethodStepwise = "stepwise"
	MethodFull     = "full"
)

// Stepwise directions.
const (
	Forward  = "forward"
	Backward = "backward"
)

// Selection criteria.
const (
	CriterionAIC    = "aic"
	CriterionBIC    = "bic"
	CriterionPValue = "p_value"
)

// Step actions recorded in a selection history.
const (
	ActionStart  = "start"
	ActionAdd    = "add"
	ActionRemove = "remove"
)

// perfectFit is the 1-R² at or below which a regressor is treated as an
// exact linear combination of the others.
const perfectFit = 1e-10

var (
	methods    = []string{MethodVIF, MethodStepwise, MethodFull}
	directions = []string{Forward, Backward}
	criteria   = []string{CriterionAIC, CriterionBIC, CriterionPValue}
)

// VIF scores multicollinearity among numeric features. The target, when
// given, is left out of the regressor set. Non-numeric features get an
// EXCLUDED entry; fewer than two numeric candidates is a configuration error.
func VIF(t *table.Table, target string, features []string) (*Report, error) {
	cls := table.NewClassifier(t)
	if target != "" {
		if _, ok := t.Column(target); !ok {
			return nil, apperrors.InvalidTarget(target, "column not found")
		}
	}
	names, err := featureList(t, target, features)
	if err != nil {
		return nil, err
	}
	rep := &Report{Analysis: KindVIF, Source: t.Name, Target: target}
	var numeric []string
	for _, n := range names {
		if k := cls.Kind(n); k != table.Numeric {
			rep.Entries = append(rep.Entries, Entry{Result: result.Skip(k, result.Excluded, fmt.Sprintf("non-numeric (%s)", k), n)})
			continue
		}
		numeric = append(numeric, n)
	}
	if len(numeric) < 2 {
		return nil, apperrors.ConfigurationMsg("vif needs at least 2 numeric features, got %d", len(numeric))
	}
	cols, rows := completeCases(t, numeric)
	if rows < len(numeric)+1 {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("only %d complete rows for %d features", rows, len(numeric)))
	}
	var scored []Entry
	for j, name := range numeric {
		others := make([][]float64, 0, len(cols)-1)
		for i, c := range cols {
			if i != j {
				others = append(others, c)
			}
		}
		r2, v := math.NaN(), math.NaN()
		if rows > 0 {
			if fit, err := inference.OLS(cols[j], others); err == nil {
				r2 = fit.R2
				v = vifOf(r2)
			}
		}
		scored = append(scored, Entry{Result: result.NewBuilder(table.Numeric, name).
			Num(StatVIF, v).
			Num(StatRSquared, r2).
			Num(StatN, float64(rows)).
			Build()})
	}
	rep.Entries = append(scored, rep.Entries...)
	return rep, nil
}

func vifOf(r2 float64) float64 {
	switch {
	case math.IsNaN(r2):
		return math.NaN()
	case 1-r2 <= perfectFit:
		return math.Inf(1)
	}
	return 1 / (1 - r2)
}

// StepwiseOptions controls greedy feature selection.
type StepwiseOptions struct {
	Direction   string
	MinFeatures int
	Criterion   string
	// Features restricts the candidates; empty means every column but the target.
	Features []string
	// Alpha is the entry and removal threshold of the p_value criterion.
	Alpha float64
}

// DefaultStepwiseOptions returns forward AIC selection keeping at least one feature.
func DefaultStepwiseOptions() StepwiseOptions {
	return StepwiseOptions{Direction: Forward, MinFeatures: 1, Criterion: CriterionAIC, Alpha: DefaultAlpha}
}

// Step is one accepted state of a stepwise search.
type Step struct {
	Index    int
	Action   string
	Feature  string
	Features []string
	// Score is the model AIC or BIC, or for p_value the p-value of the
	// feature acted on.
	Score float64
}

// Selection is the outcome of a stepwise search.
type Selection struct {
	Target    string
	Direction string
	Criterion string
	Features  []string
	History   []Step
	Excluded  []string
	Rows      int
}

func (s *Selection) String() string {
	return fmt.Sprintf("%s %s/%s -> [%s]", s.Target, s.Direction, s.Criterion, strings.Join(s.Features, ", "))
}

// Stepwise selects regressors for a numeric target. The search accepts at
// most one change per step and runs at most one step per candidate, so it
// always terminates; min_features is a floor for both directions.
func Stepwise(t *table.Table, target string, opt StepwiseOptions) (*Selection, error) {
	if err := opt.validate(); err != nil {
		return nil, err
	}
	if err := requireNumericTarget(t, target); err != nil {
		return nil, err
	}
	names, err := featureList(t, target, opt.Features)
	if err != nil {
		return nil, err
	}
	cls := table.NewClassifier(t)
	sel := &Selection{Target: target, Direction: opt.Direction, Criterion: opt.Criterion}
	var cands []string
	for _, n := range names {
		if cls.Kind(n) == table.Numeric {
			cands = append(cands, n)
		} else {
			sel.Excluded = append(sel.Excluded, n)
		}
	}
	if len(cands) == 0 {
		return nil, apperrors.ConfigurationMsg("stepwise needs at least 1 numeric feature")
	}
	cols, rows := completeCases(t, append([]string{target}, cands...))
	if rows < 2 {
		return nil, apperrors.InvalidInput(fmt.Sprintf("stepwise needs at least 2 complete rows, got %d", rows))
	}
	sel.Rows = rows
	s := &search{y: cols[0], x: cols[1:], names: cands, opt: opt}
	if s.opt.MinFeatures > len(cands) {
		s.opt.MinFeatures = len(cands)
	}
	if s.opt.Alpha <= 0 {
		s.opt.Alpha = DefaultAlpha
	}
	var chosen []int
	if opt.Direction == Forward {
		chosen = s.forward(sel)
	} else {
		chosen = s.backward(sel)
	}
	sel.Features = s.labels(chosen)
	return sel, nil
}

func (o StepwiseOptions) validate() error {
	if !contains(directions, o.Direction) {
		return apperrors.Configuration("direction", o.Direction, directions)
	}
	if !contains(criteria, o.Criterion) {
		return apperrors.Configuration("criterion", o.Criterion, criteria)
	}
	if o.MinFeatures < 0 {
		return apperrors.Configuration("min_features", fmt.Sprint(o.MinFeatures), []string{"non-negative integer"})
	}
	return nil
}

type search struct {
	y     []float64
	x     [][]float64
	names []string
	opt   StepwiseOptions
}

func (s *search) labels(idx []int) []string {
	out := make([]string, len(idx))
	for i, j := range idx {
		out[i] = s.names[j]
	}
	return out
}

// fit regresses y on the candidate columns idx.
func (s *search) fit(idx []int) *inference.Fit {
	xs := make([][]float64, len(idx))
	for i, j := range idx {
		xs[i] = s.x[j]
	}
	f, err := inference.OLS(s.y, xs)
	if err != nil {
		return nil
	}
	return f
}

// modelScore is the information criterion of a fit; lower is better.
func (s *search) modelScore(f *inference.Fit) float64 {
	if f == nil {
		return math.Inf(1)
	}
	v := f.AIC
	if s.opt.Criterion == CriterionBIC {
		v = f.BIC
	}
	return orInf(v)
}

// coefP is the p-value of the coefficient at position pos of idx.
func coefP(f *inference.Fit, pos int) float64 {
	if f == nil {
		return math.Inf(1)
	}
	return orInf(f.P[pos+1])
}

func orInf(v float64) float64 {
	if math.IsNaN(v) {
		return math.Inf(1)
	}
	return v
}

func (s *search) record(sel *Selection, action string, feature int, chosen []int, score float64) {
	st := Step{Index: len(sel.History), Action: action, Features: s.labels(chosen), Score: score}
	if feature >= 0 {
		st.Feature = s.names[feature]
	}
	sel.History = append(sel.History, st)
}

func (s *search) forward(sel *Selection) []int {
	var chosen []int
	used := make([]bool, len(s.names))
	current := s.modelScore(s.fit(nil))
	if s.opt.Criterion == CriterionPValue {
		s.record(sel, ActionStart, -1, chosen, math.NaN())
	} else {
		s.record(sel, ActionStart, -1, chosen, current)
	}
	for step := 0; step < len(s.names); step++ {
		best, bestScore := -1, math.Inf(1)
		for j := range s.names {
			if used[j] {
				continue
			}
			trial := append(append([]int(nil), chosen...), j)
			f := s.fit(trial)
			// a column already in the span of the chosen ones adds nothing
			if f != nil && f.Rank < len(trial)+1 {
				continue
			}
			var v float64
			if s.opt.Criterion == CriterionPValue {
				v = coefP(f, len(trial)-1)
			} else {
				v = s.modelScore(f)
			}
			if best < 0 || v < bestScore {
				best, bestScore = j, v
			}
		}
		if best < 0 {
			break
		}
		forced := len(chosen) < s.opt.MinFeatures
		var improves bool
		if s.opt.Criterion == CriterionPValue {
			improves = bestScore < s.opt.Alpha
		} else {
			improves = bestScore < current
		}
		if !improves && !forced {
			break
		}
		chosen = append(chosen, best)
		used[best] = true
		current = bestScore
		s.record(sel, ActionAdd, best, chosen, bestScore)
	}
	return chosen
}

func (s *search) backward(sel *Selection) []int {
	chosen := make([]int, len(s.names))
	for i := range chosen {
		chosen[i] = i
	}
	full := s.fit(chosen)
	current := s.modelScore(full)
	if s.opt.Criterion == CriterionPValue {
		s.record(sel, ActionStart, -1, chosen, math.NaN())
	} else {
		s.record(sel, ActionStart, -1, chosen, current)
	}
	for step := 0; step < len(s.names); step++ {
		if len(chosen) <= s.opt.MinFeatures {
			break
		}
		if pos, f := s.redundant(chosen); pos >= 0 {
			removed := chosen[pos]
			chosen = append(append([]int(nil), chosen[:pos]...), chosen[pos+1:]...)
			if s.opt.Criterion != CriterionPValue {
				current = s.modelScore(f)
			}
			s.record(sel, ActionRemove, removed, chosen, s.modelScore(f))
			continue
		}
		pos, score := -1, 0.0
		if s.opt.Criterion == CriterionPValue {
			f := s.fit(chosen)
			for i := range chosen {
				if p := coefP(f, i); pos < 0 || p > score {
					pos, score = i, p
				}
			}
			if score <= s.opt.Alpha {
				break
			}
		} else {
			score = math.Inf(1)
			for i := range chosen {
				trial := append(append([]int(nil), chosen[:i]...), chosen[i+1:]...)
				if v := s.modelScore(s.fit(trial)); pos < 0 || v < score {
					pos, score = i, v
				}
			}
			if !(score < current) {
				break
			}
			current = score
		}
		removed := chosen[pos]
		chosen = append(append([]int(nil), chosen[:pos]...), chosen[pos+1:]...)
		s.record(sel, ActionRemove, removed, chosen, score)
	}
	return chosen
}

// redundant finds the last of the chosen columns whose removal leaves the
// column space unchanged, with the fit without it. pos is -1 when the chosen
// columns have full rank.
func (s *search) redundant(chosen []int) (pos int, f *inference.Fit) {
	full := s.fit(chosen)
	if full == nil || full.Rank == len(chosen)+1 {
		return -1, nil
	}
	for i := len(chosen) - 1; i >= 0; i-- {
		trial := append(append([]int(nil), chosen[:i]...), chosen[i+1:]...)
		if f := s.fit(trial); f != nil && f.Rank == full.Rank {
			return i, f
		}
	}
	return -1, nil
}

// Coefficient is one row of a fitted model's coefficient table.
type Coefficient struct {
	Name     string
	Estimate float64
	StdErr   float64
	T        float64
	PValue   float64
}

// ModelSummary describes an OLS fit of the target on a feature set.
type ModelSummary struct {
	Target       string
	Features     []string
	Excluded     []string
	N            int
	Rank         int
	DF           int
	Coefficients []Coefficient
	R2           float64
	AdjR2        float64
	F            float64
	FPValue      float64
	LogLik       float64
	AIC          float64
	BIC          float64
}

// Fit regresses a numeric target on the numeric features with an intercept.
func Fit(t *table.Table, target string, features []string) (*ModelSummary, error) {
	if err := requireNumericTarget(t, target); err != nil {
		return nil, err
	}
	names, err := featureList(t, target, features)
	if err != nil {
		return nil, err
	}
	cls := table.NewClassifier(t)
	ms := &ModelSummary{Target: target}
	for _, n := range names {
		if cls.Kind(n) == table.Numeric {
			ms.Features = append(ms.Features, n)
		} else {
			ms.Excluded = append(ms.Excluded, n)
		}
	}
	cols, rows := completeCases(t, append([]string{target}, ms.Features...))
	if rows == 0 {
		return nil, apperrors.InvalidInput("fit: no complete rows")
	}
	f, err := inference.OLS(cols[0], cols[1:])
	if err != nil {
		return nil, apperrors.Wrap(err, "fit "+target)
	}
	ms.N, ms.Rank, ms.DF = f.N, f.Rank, f.DF
	ms.R2, ms.AdjR2, ms.F, ms.FPValue = f.R2, f.AdjR2, f.F, f.FPValue
	ms.LogLik, ms.AIC, ms.BIC = f.LogLik, f.AIC, f.BIC
	for j := range f.Coef {
		name := "intercept"
		if j > 0 {
			name = ms.Features[j-1]
		}
		ms.Coefficients = append(ms.Coefficients, Coefficient{
			Name: name, Estimate: f.Coef[j], StdErr: f.StdErr[j], T: f.T[j], PValue: f.P[j],
		})
	}
	return ms, nil
}

// MultivariateOptions selects what Multivariate runs.
type MultivariateOptions struct {
	Method   string
	Features []string
	Stepwise StepwiseOptions
}

// MultivariateResult holds whichever parts the method produced.
type MultivariateResult struct {
	Method    string
	VIF       *Report
	Selection *Selection
	Model     *ModelSummary
}

// Multivariate dispatches on Method. "full" runs VIF, then a stepwise
// search and an OLS fit of the selected features.
func Multivariate(t *table.Table, target string, opt MultivariateOptions) (*MultivariateResult, error) {
	if !contains(methods, opt.Method) {
		return nil, apperrors.Configuration("method", opt.Method, methods)
	}
	out := &MultivariateResult{Method: opt.Method}
	if opt.Method == MethodVIF || opt.Method == MethodFull {
		rep, err := VIF(t, target, opt.Features)
		if err != nil {
			return nil, err
		}
		out.VIF = rep
	}
	if opt.Method == MethodStepwise || opt.Method == MethodFull {
		so := opt.Stepwise
		if len(so.Features) == 0 {
			so.Features = opt.Features
		}
		sel, err := Stepwise(t, target, so)
		if err != nil {
			return nil, err
		}
		out.Selection = sel
		if opt.Method == MethodFull && len(sel.Features) > 0 {
			ms, err := Fit(t, target, sel.Features)
			if err != nil {
				return nil, err
			}
			out.Model = ms
		}
	}
	return out, nil
}

func requireNumericTarget(t *table.Table, target string) error {
	if target == "" {
		return apperrors.InvalidTarget(target, "a target column is required")
	}
	col, ok := t.Column(target)
	if !ok {
		return apperrors.InvalidTarget(target, "column not found")
	}
	if k := table.Classify(col); k != table.Numeric {
		return apperrors.InvalidTarget(target, fmt.Sprintf("kind %s, want numeric", k))
	}
	return nil
}

// featureList resolves the candidate features, dropping the target.
func featureList(t *table.Table, target string, features []string) ([]string, error) {
	var out []string
	if len(features) == 0 {
		for _, n := range t.Names() {
			if n != target {
				out = append(out, n)
			}
		}
		return out, nil
	}
	seen := map[string]bool{}
	for _, f := range features {
		if _, ok := t.Column(f); !ok {
			return nil, apperrors.Configuration("feature", f, t.Names())
		}
		if f == target || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out, nil
}

// completeCases returns the named numeric columns restricted to rows where
// every one of them parses, plus the row count.
func completeCases(t *table.Table, names []string) ([][]float64, int) {
	raw := make([][]float64, len(names))
	for i, n := range names {
		c, _ := t.Column(n)
		raw[i] = c.Floats()
	}
	out := make([][]float64, len(names))
	rows := 0
	for r := 0; r < t.Rows(); r++ {
		ok := true
		for _, c := range raw {
			if math.IsNaN(c[r]) {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		for i, c := range raw {
			out[i] = append(out[i], c[r])
		}
		rows++
	}
	return out, rows
}
