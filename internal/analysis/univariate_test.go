package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/KaramelBytes/quickeda-cli/internal/errors"
	"github.com/KaramelBytes/quickeda-cli/internal/result"
	"github.com/KaramelBytes/quickeda-cli/internal/table"
	"github.com/KaramelBytes/quickeda-cli/internal/viz"
)

func mixedTable(t *testing.T) *table.Table {
	t.Helper()
	tb, err := table.New(
		table.NumericColumn("x", []float64{1, 2, 3, 4, 5, 100}),
		table.NumericColumn("z", []float64{2, 2, 3, 3, 4, 4}),
		table.TextColumn("cat", "a", "b", "a", "c", "a", "b"),
		table.TextColumn("flag", "yes", "no", "yes", "Y", "no", "yes"),
		table.TextColumn("when", "2024-01-01", "2024-02-01", "2024-03-01", "2024-04-01", "", "2024-06-01"),
		table.TextColumn("blank", "", "NA", "", "", "null", ""),
	)
	require.NoError(t, err)
	tb.Name = "mixed.csv"
	return tb
}

func TestUnivariateOneEntryPerColumn(t *testing.T) {
	tb := mixedTable(t)
	rep, err := NewUnivariateAnalyzer(nil).Analyze(tb, DefaultUnivariateOptions())
	require.NoError(t, err)
	require.Equal(t, tb.Width(), rep.Len())

	for i, name := range tb.Names() {
		assert.Equal(t, name, rep.Entries[i].Result.Column())
	}
	kinds := map[string]table.Kind{}
	for _, r := range rep.Results() {
		kinds[r.Column()] = r.Kind()
	}
	assert.Equal(t, map[string]table.Kind{
		"x": table.Numeric, "z": table.Numeric, "cat": table.Categorical,
		"flag": table.Boolean, "when": table.Datetime, "blank": table.Unknown,
	}, kinds)
}

func TestUnivariateNumericSummary(t *testing.T) {
	rep, err := NewUnivariateAnalyzer(nil).Analyze(mixedTable(t), DefaultUnivariateOptions())
	require.NoError(t, err)
	e, ok := rep.Find("x")
	require.True(t, ok)
	r := e.Result

	for _, name := range NumericStats {
		assert.True(t, r.Has(name), "missing %s", name)
	}
	num := func(name string) float64 {
		v, _ := r.Num(name)
		return v
	}
	assert.Equal(t, 6.0, num(StatCount))
	assert.Equal(t, 0.0, num(StatMissing))
	assert.InDelta(t, 115.0/6, num(StatMean), 1e-9)
	assert.InDelta(t, 3.5, num(StatMedian), 1e-9)
	assert.Equal(t, 1.0, num(StatMin))
	assert.Equal(t, 100.0, num(StatMax))
	assert.Greater(t, num(StatSkew), 0.0)
	assert.Equal(t, 1.0, num(StatMode))
	test, ok := r.Label(StatNormality)
	assert.True(t, ok)
	assert.Equal(t, "jarque_bera", test)
}

func TestUnivariateCategoricalAndBoolean(t *testing.T) {
	rep, err := NewUnivariateAnalyzer(nil).Analyze(mixedTable(t), DefaultUnivariateOptions())
	require.NoError(t, err)

	cat, _ := rep.Find("cat")
	mode, _ := cat.Result.Label(StatMode)
	assert.Equal(t, "a", mode)
	unique, _ := cat.Result.Num(StatUnique)
	assert.Equal(t, 3.0, unique)
	freqs := cat.Result.Frequencies()
	require.Len(t, freqs, 3)
	assert.Equal(t, result.Frequency{Value: "a", Count: 3, Share: 0.5}, freqs[0])
	assert.Equal(t, "b", freqs[1].Value)

	flag, _ := rep.Find("flag")
	levels := flag.Result.Frequencies()
	require.Len(t, levels, 2)
	assert.Equal(t, "true", levels[0].Value)
	assert.Equal(t, 4, levels[0].Count)
}

func TestUnivariateTopKFoldsOther(t *testing.T) {
	tb := table.MustNew(table.TextColumn("c", "a", "a", "a", "b", "b", "c", "d"))
	rep, err := NewUnivariateAnalyzer(nil).Analyze(tb, UnivariateOptions{TopK: 2})
	require.NoError(t, err)
	freqs := rep.Entries[0].Result.Frequencies()
	require.Len(t, freqs, 3)
	assert.Equal(t, "a", freqs[0].Value)
	assert.Equal(t, "b", freqs[1].Value)
	assert.True(t, freqs[2].Other)
	assert.Equal(t, OtherBucket, freqs[2].Value)
	assert.Equal(t, 2, freqs[2].Count)
}

func TestUnivariateDatetime(t *testing.T) {
	rep, err := NewUnivariateAnalyzer(nil).Analyze(mixedTable(t), DefaultUnivariateOptions())
	require.NoError(t, err)
	e, _ := rep.Find("when")
	r := e.Result
	lo, _ := r.Label(StatMin)
	hi, _ := r.Label(StatMax)
	g, _ := r.Label(StatGranular)
	n, _ := r.Num(StatCount)
	missing, _ := r.Num(StatMissing)
	assert.Equal(t, "2024-01-01", lo)
	assert.Equal(t, "2024-06-01", hi)
	assert.Equal(t, "month", g)
	assert.Equal(t, 5.0, n)
	assert.Equal(t, 1.0, missing)
}

func TestGranularity(t *testing.T) {
	parse := func(vals ...string) *table.Column { return table.TextColumn("d", vals...) }
	for _, tc := range []struct {
		col  *table.Column
		want string
	}{
		{parse("2024-01-01", "2024-01-02", "2024-01-05"), "day"},
		{parse("2020-01-01", "2021-01-01", "2023-01-01"), "year"},
		{parse("2024-01-01", "2024-01-01"), "unknown"},
	} {
		r := datetimeSummary(tc.col)
		g, _ := r.Label(StatGranular)
		assert.Equal(t, tc.want, g)
	}
}

func TestUnivariateSortBySkew(t *testing.T) {
	tb := table.MustNew(
		table.NumericColumn("flat", []float64{1, 2, 3, 4, 5, 6}),
		table.TextColumn("label", "a", "b", "c", "d", "e", "f"),
		table.NumericColumn("right", []float64{1, 1, 1, 2, 3, 50}),
		table.NumericColumn("const", []float64{7, 7, 7, 7, 7, 7}),
	)
	rep, err := NewUnivariateAnalyzer(nil).Analyze(tb, UnivariateOptions{SortBy: StatSkew})
	require.NoError(t, err)
	var order []string
	for _, r := range rep.Results() {
		order = append(order, r.Column())
	}
	// const has NaN skew and sorts after the finite values; non-numeric last.
	assert.Equal(t, []string{"right", "flat", "const", "label"}, order)
	skew, _ := rep.Entries[2].Result.Num(StatSkew)
	assert.True(t, math.IsNaN(skew))
}

func TestUnivariateRejectsBadOptions(t *testing.T) {
	a := NewUnivariateAnalyzer(nil)
	_, err := a.Analyze(mixedTable(t), UnivariateOptions{SortBy: "loudness"})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeConfiguration, apperrors.GetCode(err))
	assert.Contains(t, err.Error(), "loudness")

	_, err = a.Analyze(mixedTable(t), UnivariateOptions{TopK: -1})
	assert.True(t, apperrors.IsConfiguration(err))

	_, err = a.Analyze(mixedTable(t), UnivariateOptions{Plot: true, Backend: "matplotlib"})
	assert.Equal(t, apperrors.CodeUnknownBackend, apperrors.GetCode(err))

	// a backend override is validated even when nothing is plotted
	_, err = a.Analyze(mixedTable(t), UnivariateOptions{Backend: "bogus"})
	assert.Equal(t, apperrors.CodeUnknownBackend, apperrors.GetCode(err))
	assert.True(t, apperrors.IsConfiguration(err))
	_, err = a.Analyze(mixedTable(t), UnivariateOptions{Backend: viz.Interactive})
	assert.NoError(t, err)
}

func TestUnivariateSortByUnique(t *testing.T) {
	tb := table.MustNew(
		table.NumericColumn("few", []float64{1, 1, 1, 2, 2, 2}),
		table.NumericColumn("many", []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6}),
		table.NumericColumn("tenths", []float64{0.1, 0.1, 0.1, 0.1, 0.1, 0.1}),
	)
	rep, err := NewUnivariateAnalyzer(nil).Analyze(tb, UnivariateOptions{SortBy: StatUnique})
	require.NoError(t, err)
	var order []string
	for _, r := range rep.Results() {
		order = append(order, r.Column())
	}
	assert.Equal(t, []string{"many", "few", "tenths"}, order)
	assert.Equal(t, 1.0, num(rep.Entries[2].Result, StatUnique))
	assert.Equal(t, 0.0, num(rep.Entries[2].Result, StatStd))
	assert.True(t, math.IsNaN(num(rep.Entries[2].Result, StatNormalityP)))
}

func TestUnivariatePlotOverrideLeavesSelection(t *testing.T) {
	sel := viz.NewSelector()
	a := NewUnivariateAnalyzer(sel)
	rep, err := a.Analyze(mixedTable(t), UnivariateOptions{Plot: true, Backend: viz.Interactive})
	require.NoError(t, err)
	assert.Equal(t, viz.Static, sel.CurrentName())

	plots := rep.Plots()
	// histogram for x and z, bar charts for cat and flag
	require.Len(t, plots, 4)
	for _, p := range plots {
		assert.Equal(t, viz.Interactive, p.Backend)
	}
	x, _ := rep.Find("x")
	assert.Equal(t, viz.Histogram, x.Plot.Kind)
	assert.Contains(t, x.Plot.Annotations, "count=6")

	rep, err = a.Analyze(mixedTable(t), UnivariateOptions{Plot: true})
	require.NoError(t, err)
	for _, p := range rep.Plots() {
		assert.Equal(t, viz.Static, p.Backend)
	}
}
