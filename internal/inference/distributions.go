// Package inference holds the statistical routines behind the analyzers:
// descriptive moments, hypothesis tests and least squares. Functions report
// degenerate inputs as NaN instead of returning errors.
package inference

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// TTestPValue is the two-tailed p-value of a t statistic.
func TTestPValue(t float64, df float64) float64 {
	if df <= 0 || math.IsNaN(t) || math.IsNaN(df) {
		return math.NaN()
	}
	if math.IsInf(t, 0) {
		return 0
	}
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return 2 * dist.Survival(math.Abs(t))
}

// FTestPValue is the upper-tail p-value of an F statistic. Negative
// statistics only arise from rounding and yield NaN.
func FTestPValue(f float64, df1, df2 float64) float64 {
	if df1 <= 0 || df2 <= 0 || math.IsNaN(f) || f < 0 {
		return math.NaN()
	}
	if math.IsInf(f, 1) {
		return 0
	}
	return distuv.F{D1: df1, D2: df2}.Survival(f)
}

// ChiSquarePValue is the upper-tail p-value of a chi-square statistic.
func ChiSquarePValue(x float64, dof float64) float64 {
	if dof <= 0 || math.IsNaN(x) || x < 0 {
		return math.NaN()
	}
	if math.IsInf(x, 1) {
		return 0
	}
	return distuv.ChiSquared{K: dof}.Survival(x)
}
