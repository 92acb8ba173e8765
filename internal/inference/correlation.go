package inference

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Regression is a Pearson correlation with its simple linear fit y = Intercept + Slope*x.
type Regression struct {
	N         int
	R         float64
	PValue    float64
	Slope     float64
	Intercept float64
	RSquared  float64
}

// SimpleRegression correlates paired samples and fits y on x. Either sample
// being constant leaves every statistic NaN.
func SimpleRegression(x, y []float64) Regression {
	n := len(x)
	out := Regression{N: n, R: math.NaN(), PValue: math.NaN(), Slope: math.NaN(), Intercept: math.NaN(), RSquared: math.NaN()}
	if n < 2 || len(y) != n {
		return out
	}
	if Constant(x) || Constant(y) {
		return out
	}
	r := stat.Correlation(x, y, nil)
	r = math.Max(-1, math.Min(1, r))
	out.R = r
	out.PValue = CorrelationPValue(r, n)
	out.Intercept, out.Slope = stat.LinearRegression(x, y, nil, false)
	out.RSquared = r * r
	return out
}

// CorrelationPValue tests r against zero with n-2 degrees of freedom.
func CorrelationPValue(r float64, n int) float64 {
	df := float64(n - 2)
	if df <= 0 || math.IsNaN(r) {
		return math.NaN()
	}
	if math.Abs(r) >= 1 {
		return 0
	}
	t := r * math.Sqrt(df/(1-r*r))
	return TTestPValue(t, df)
}
