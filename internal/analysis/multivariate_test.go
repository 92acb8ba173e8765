package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/KaramelBytes/quickeda-cli/internal/errors"
	"github.com/KaramelBytes/quickeda-cli/internal/result"
	"github.com/KaramelBytes/quickeda-cli/internal/table"
)

func collinearTable() *table.Table {
	return table.MustNew(
		table.NumericColumn("a", []float64{1, 2, 3, 4, 5, 6}),
		table.NumericColumn("b", []float64{3, 1, 4, 1, 5, 9}),
		table.NumericColumn("c", []float64{2, 4, 6, 8, 10, 12}),
		table.TextColumn("label", "p", "q", "p", "q", "p", "q"),
		table.NumericColumn("y", []float64{1, 3, 2, 5, 4, 6}),
	)
}

func TestVIFPerfectCollinearity(t *testing.T) {
	rep, err := VIF(collinearTable(), "y", nil)
	require.NoError(t, err)

	vifs := rep.VIFs()
	assert.True(t, math.IsInf(vifs["a"], 1), "a: %v", vifs["a"])
	assert.True(t, math.IsInf(vifs["c"], 1), "c: %v", vifs["c"])
	assert.False(t, math.IsInf(vifs["b"], 0))
	assert.Greater(t, vifs["b"], 1.0)
	_, hasTarget := vifs["y"]
	assert.False(t, hasTarget)

	label, ok := rep.Find("label")
	require.True(t, ok)
	assert.Equal(t, result.Excluded, label.Result.Marker())
}

func TestVIFIndependentFeatures(t *testing.T) {
	tb := table.MustNew(
		table.NumericColumn("u", []float64{1, -1, 1, -1}),
		table.NumericColumn("v", []float64{1, 1, -1, -1}),
	)
	rep, err := VIF(tb, "", nil)
	require.NoError(t, err)
	assert.InDelta(t, 1, rep.VIFs()["u"], 1e-9)
	assert.InDelta(t, 1, rep.VIFs()["v"], 1e-9)
}

func TestVIFErrors(t *testing.T) {
	tb := collinearTable()
	_, err := VIF(tb, "missing", nil)
	assert.True(t, apperrors.IsInvalidTarget(err))

	_, err = VIF(tb, "y", []string{"a", "label"})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeConfiguration, apperrors.GetCode(err))

	_, err = VIF(tb, "", []string{"a", "ghost"})
	assert.True(t, apperrors.IsConfiguration(err))
}

func TestVIFConstantFeatureIsNaN(t *testing.T) {
	tb := table.MustNew(
		table.NumericColumn("k", []float64{2, 2, 2, 2, 2}),
		table.NumericColumn("a", []float64{1, 2, 3, 4, 5}),
		table.NumericColumn("b", []float64{5, 3, 4, 1, 2}),
	)
	rep, err := VIF(tb, "", nil)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(rep.VIFs()["k"]))
}

func TestVIFConstantNonIntegerFeature(t *testing.T) {
	tb := table.MustNew(
		table.NumericColumn("a", []float64{1, 2, 3, 4, 5, 6}),
		table.NumericColumn("b", []float64{3, 1, 4, 1, 5, 9}),
		table.NumericColumn("k", []float64{0.1, 0.1, 0.1, 0.1, 0.1, 0.1}),
	)
	var rep *Report
	require.NotPanics(t, func() {
		var err error
		rep, err = VIF(tb, "", nil)
		require.NoError(t, err)
	})
	vifs := rep.VIFs()
	assert.True(t, math.IsNaN(vifs["k"]))
	assert.False(t, math.IsNaN(vifs["a"]))
	assert.False(t, math.IsNaN(vifs["b"]))
}

func stepTable() *table.Table {
	a := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	b := []float64{2, 7, 1, 8, 2, 8, 1, 8}
	noise := []float64{0.1, -0.1, 0.05, -0.05, 0.1, -0.1, 0.05, -0.05}
	y := make([]float64, len(a))
	for i := range a {
		y[i] = 3*a[i] + noise[i]
	}
	return table.MustNew(
		table.NumericColumn("a", a),
		table.NumericColumn("b", b),
		table.TextColumn("label", "p", "q", "p", "q", "p", "q", "p", "q"),
		table.NumericColumn("y", y),
	)
}

func TestStepwiseForwardBounds(t *testing.T) {
	for _, crit := range criteria {
		opt := DefaultStepwiseOptions()
		opt.Criterion = crit
		sel, err := Stepwise(stepTable(), "y", opt)
		require.NoError(t, err, crit)

		assert.GreaterOrEqual(t, len(sel.Features), 1, crit)
		assert.LessOrEqual(t, len(sel.Features), 2, crit)
		assert.Equal(t, "a", sel.Features[0], crit)
		assert.Equal(t, []string{"label"}, sel.Excluded)
		assert.Equal(t, 8, sel.Rows)

		require.NotEmpty(t, sel.History)
		assert.Equal(t, ActionStart, sel.History[0].Action)
		assert.LessOrEqual(t, len(sel.History), 3, crit)
		for i := 1; i < len(sel.History); i++ {
			assert.GreaterOrEqual(t, len(sel.History[i].Features), len(sel.History[i-1].Features))
			assert.Equal(t, ActionAdd, sel.History[i].Action)
		}
		last := sel.History[len(sel.History)-1]
		assert.Equal(t, sel.Features, last.Features)
	}
}

func TestStepwiseMinFeaturesForcesAdds(t *testing.T) {
	opt := DefaultStepwiseOptions()
	opt.Criterion = CriterionPValue
	opt.MinFeatures = 5
	sel, err := Stepwise(stepTable(), "y", opt)
	require.NoError(t, err)
	// clamped to the two numeric candidates
	assert.Equal(t, []string{"a", "b"}, sel.Features)
}

func TestStepwiseBackwardRespectsFloor(t *testing.T) {
	opt := StepwiseOptions{Direction: Backward, MinFeatures: 2, Criterion: CriterionBIC}
	sel, err := Stepwise(stepTable(), "y", opt)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, sel.Features)
	require.Len(t, sel.History, 1)

	opt.MinFeatures = 1
	opt.Criterion = CriterionPValue
	sel, err = Stepwise(stepTable(), "y", opt)
	require.NoError(t, err)
	require.NotEmpty(t, sel.Features)
	assert.Contains(t, sel.Features, "a")
	for i := 1; i < len(sel.History); i++ {
		assert.Equal(t, ActionRemove, sel.History[i].Action)
		assert.Less(t, len(sel.History[i].Features), len(sel.History[i-1].Features))
	}
}

func duplicateTable() *table.Table {
	st := stepTable()
	a, _ := st.Column("a")
	b, _ := st.Column("b")
	y, _ := st.Column("y")
	return table.MustNew(
		table.NumericColumn("a", a.Floats()),
		table.NumericColumn("a_copy", a.Floats()),
		table.NumericColumn("b", b.Floats()),
		table.NumericColumn("y", y.Floats()),
	)
}

func TestStepwiseDuplicateColumnsBreakTiesByOrder(t *testing.T) {
	for _, crit := range criteria {
		opt := DefaultStepwiseOptions()
		opt.Criterion = crit
		sel, err := Stepwise(duplicateTable(), "y", opt)
		require.NoError(t, err, crit)
		require.NotEmpty(t, sel.Features, crit)
		assert.Equal(t, "a", sel.Features[0], crit)
		assert.NotContains(t, sel.Features, "a_copy", crit)
		assert.Equal(t, "a", sel.History[1].Feature, crit)

		opt.Direction = Backward
		sel, err = Stepwise(duplicateTable(), "y", opt)
		require.NoError(t, err, crit)
		require.Greater(t, len(sel.History), 1, crit)
		assert.Equal(t, ActionRemove, sel.History[1].Action, crit)
		assert.Equal(t, "a_copy", sel.History[1].Feature, crit)
		assert.Equal(t, []string{"a", "b"}, sel.History[1].Features, crit)
		assert.Contains(t, sel.Features, "a", crit)
		assert.NotContains(t, sel.Features, "a_copy", crit)
	}
}

func TestStepwiseErrors(t *testing.T) {
	tb := stepTable()
	_, err := Stepwise(tb, "y", StepwiseOptions{Direction: "sideways", Criterion: CriterionAIC})
	assert.True(t, apperrors.IsConfiguration(err))

	_, err = Stepwise(tb, "y", StepwiseOptions{Direction: Forward, Criterion: "r2"})
	assert.True(t, apperrors.IsConfiguration(err))

	_, err = Stepwise(tb, "label", DefaultStepwiseOptions())
	assert.True(t, apperrors.IsInvalidTarget(err))

	_, err = Stepwise(tb, "", DefaultStepwiseOptions())
	assert.True(t, apperrors.IsInvalidTarget(err))
}

func TestFitRecoversCoefficients(t *testing.T) {
	tb := table.MustNew(
		table.NumericColumn("a", []float64{1, 2, 3, 4, 5}),
		table.NumericColumn("b", []float64{2, 1, 0, 1, 2}),
		table.NumericColumn("y", []float64{5, 6, 7, 10, 13}),
	)
	ms, err := Fit(tb, "y", nil)
	require.NoError(t, err)
	require.Len(t, ms.Coefficients, 3)
	assert.Equal(t, "intercept", ms.Coefficients[0].Name)
	assert.Equal(t, "a", ms.Coefficients[1].Name)
	assert.InDelta(t, 1, ms.Coefficients[0].Estimate, 1e-9)
	assert.InDelta(t, 2, ms.Coefficients[1].Estimate, 1e-9)
	assert.InDelta(t, 1, ms.Coefficients[2].Estimate, 1e-9)
	assert.InDelta(t, 1, ms.R2, 1e-9)
	assert.Equal(t, 5, ms.N)
}

func TestMultivariateDispatch(t *testing.T) {
	tb := stepTable()
	_, err := Multivariate(tb, "y", MultivariateOptions{Method: "pca"})
	assert.True(t, apperrors.IsConfiguration(err))

	out, err := Multivariate(tb, "y", MultivariateOptions{Method: MethodVIF})
	require.NoError(t, err)
	assert.NotNil(t, out.VIF)
	assert.Nil(t, out.Selection)

	out, err = Multivariate(tb, "y", MultivariateOptions{Method: MethodFull, Stepwise: DefaultStepwiseOptions()})
	require.NoError(t, err)
	require.NotNil(t, out.VIF)
	require.NotNil(t, out.Selection)
	require.NotNil(t, out.Model)
	assert.Equal(t, out.Selection.Features, out.Model.Features)
}
