package analysis

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/KaramelBytes/quickeda-cli/internal/errors"
	"github.com/KaramelBytes/quickeda-cli/internal/table"
	"github.com/KaramelBytes/quickeda-cli/internal/viz"
)

// ColumnInfo is one row of a table schema.
type ColumnInfo struct {
	Name    string
	Kind    table.Kind
	Unit    string
	Missing int
}

// DataAnalyzer runs every analysis over one table with a shared backend
// selection. It is not safe for concurrent use.
type DataAnalyzer struct {
	table    *table.Table
	kinds    *table.Classifier
	selector *viz.Selector
	uni      *UnivariateAnalyzer
	bi       *BivariateAnalyzer
	debug    bool
}

// Option configures a DataAnalyzer.
type Option func(*DataAnalyzer)

// WithSelector shares a backend selection with other analyzers.
func WithSelector(s *viz.Selector) Option {
	return func(a *DataAnalyzer) { a.selector = s }
}

// WithDebug enables trace logging.
func WithDebug(on bool) Option {
	return func(a *DataAnalyzer) { a.debug = on }
}

func New(t *table.Table, opts ...Option) (*DataAnalyzer, error) {
	if t == nil {
		return nil, apperrors.InvalidInput("nil table")
	}
	a := &DataAnalyzer{table: t, kinds: table.NewClassifier(t)}
	for _, o := range opts {
		o(a)
	}
	if a.selector == nil {
		a.selector = viz.NewSelector()
	}
	a.uni = NewUnivariateAnalyzer(a.selector)
	a.bi = NewBivariateAnalyzer(a.selector)
	return a, nil
}

func (a *DataAnalyzer) logf(format string, args ...interface{}) {
	if a.debug {
		log.Printf("[DataAnalyzer] "+format, args...)
	}
}

func (a *DataAnalyzer) Table() *table.Table { return a.table }

// SetBackend changes the session backend; an unknown name leaves it as is.
func (a *DataAnalyzer) SetBackend(name string) error {
	if err := a.selector.SetBackend(name); err != nil {
		return err
	}
	a.logf("backend set to %s", a.selector.CurrentName())
	return nil
}

// Backend names the session backend.
func (a *DataAnalyzer) Backend() string { return a.selector.CurrentName() }

// Schema lists every column with its inferred kind.
func (a *DataAnalyzer) Schema() []ColumnInfo {
	out := make([]ColumnInfo, 0, a.table.Width())
	for _, c := range a.table.Columns() {
		out = append(out, ColumnInfo{Name: c.Name, Kind: a.kinds.Kind(c.Name), Unit: c.Unit, Missing: c.Missing()})
	}
	return out
}

func (a *DataAnalyzer) Univariate(opt UnivariateOptions) (*Report, error) {
	a.logf("univariate over %d columns (sort_by=%q)", a.table.Width(), opt.SortBy)
	return a.uni.Analyze(a.table, opt)
}

func (a *DataAnalyzer) Bivariate(target string, opt BivariateOptions) (*Report, error) {
	a.logf("bivariate against %q", target)
	return a.bi.Analyze(a.table, target, opt)
}

func (a *DataAnalyzer) VIF(target string, features []string) (*Report, error) {
	a.logf("vif (target=%q)", target)
	return VIF(a.table, target, features)
}

func (a *DataAnalyzer) Stepwise(target string, opt StepwiseOptions) (*Selection, error) {
	a.logf("stepwise %s/%s against %q", opt.Direction, opt.Criterion, target)
	return Stepwise(a.table, target, opt)
}

func (a *DataAnalyzer) Fit(target string, features []string) (*ModelSummary, error) {
	return Fit(a.table, target, features)
}

func (a *DataAnalyzer) Multivariate(target string, opt MultivariateOptions) (*MultivariateResult, error) {
	a.logf("multivariate method=%s", opt.Method)
	return Multivariate(a.table, target, opt)
}

// RunOptions configures RunAll.
type RunOptions struct {
	Univariate UnivariateOptions
	Bivariate  BivariateOptions
	// Multivariate.Method empty picks "full" for a numeric target and
	// "vif" otherwise.
	Multivariate MultivariateOptions
}

// DefaultRunOptions mirrors the CLI defaults.
func DefaultRunOptions() RunOptions {
	return RunOptions{
		Univariate:   DefaultUnivariateOptions(),
		Bivariate:    BivariateOptions{Alpha: DefaultAlpha},
		Multivariate: MultivariateOptions{Stepwise: DefaultStepwiseOptions()},
	}
}

// Summary combines every analysis of one run.
type Summary struct {
	ID           string
	Source       string
	Rows         int
	Target       string
	Backend      string
	Schema       []ColumnInfo
	Univariate   *Report
	Bivariate    *Report
	Multivariate *MultivariateResult
	Warnings     []string
	Elapsed      time.Duration
}

// Summarize returns an empty summary carrying the run identity and schema.
// Callers running single analyses fill in the parts they need.
func (a *DataAnalyzer) Summarize(target string) *Summary {
	return &Summary{
		ID:      uuid.New().String(),
		Source:  a.table.Name,
		Rows:    a.table.Rows(),
		Target:  target,
		Backend: a.selector.CurrentName(),
		Schema:  a.Schema(),
	}
}

// DefaultMethod is "full" for a numeric target and "vif" otherwise.
func (a *DataAnalyzer) DefaultMethod(target string) string {
	if target != "" && a.kinds.Kind(target) == table.Numeric {
		return MethodFull
	}
	return MethodVIF
}

// RunAll runs univariate, then bivariate and multivariate analyses when a
// target is given. Configuration and target errors abort the run;
// multivariate analyses that do not apply to this table become warnings.
func (a *DataAnalyzer) RunAll(target string, opt RunOptions) (*Summary, error) {
	start := time.Now()
	s := a.Summarize(target)
	mopt := opt.Multivariate
	if mopt.Method == "" {
		mopt.Method = a.DefaultMethod(target)
	}
	if !contains(methods, mopt.Method) {
		return nil, apperrors.Configuration("method", mopt.Method, methods)
	}
	if mopt.Method != MethodVIF {
		if err := mopt.Stepwise.validate(); err != nil {
			return nil, err
		}
	}

	uni, err := a.Univariate(opt.Univariate)
	if err != nil {
		return nil, err
	}
	s.Univariate = uni
	s.Warnings = append(s.Warnings, uni.Warnings...)

	if target != "" {
		bi, err := a.Bivariate(target, opt.Bivariate)
		if err != nil {
			return nil, err
		}
		s.Bivariate = bi
		s.Warnings = append(s.Warnings, bi.Warnings...)
	}

	mv, err := a.Multivariate(target, mopt)
	if err != nil {
		a.logf("multivariate skipped: %v", err)
		s.Warnings = append(s.Warnings, fmt.Sprintf("multivariate (%s) skipped: %v", mopt.Method, err))
	} else {
		s.Multivariate = mv
		if mv.VIF != nil {
			s.Warnings = append(s.Warnings, mv.VIF.Warnings...)
		}
	}
	s.Elapsed = time.Since(start)
	a.logf("run %s finished in %s with %d warning(s)", s.ID, s.Elapsed, len(s.Warnings))
	return s, nil
}
