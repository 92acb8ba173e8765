package inference

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// rankTolerance is the relative singular value cut-off below which a
// direction of the design matrix counts as collinear.
const rankTolerance = 1e-10

// Fit is an ordinary least squares fit with an intercept. Coefficient
// slices hold the intercept first, then one entry per regressor.
type Fit struct {
	N    int
	K    int // parameters including the intercept
	Rank int
	DF   int // residual degrees of freedom, N - Rank

	Coef   []float64
	StdErr []float64
	T      []float64
	P      []float64

	SSR      float64
	SST      float64
	R2       float64
	AdjR2    float64
	F        float64
	FPValue  float64
	LogLik   float64
	AIC      float64
	BIC      float64
	Fitted   []float64
	Residual []float64
}

// OLS regresses y on the columns xs plus an intercept. The solution is the
// minimum-norm least squares solution, so rank deficient designs (exact
// collinearity) still fit; their standard errors use the pseudo-inverse.
func OLS(y []float64, xs [][]float64) (*Fit, error) {
	n := len(y)
	if n == 0 {
		return nil, errors.New("ols: no observations")
	}
	k := len(xs) + 1
	x := mat.NewDense(n, k, nil)
	for i := 0; i < n; i++ {
		x.Set(i, 0, 1)
	}
	for j, col := range xs {
		if len(col) != n {
			return nil, fmt.Errorf("ols: regressor %d has %d rows, want %d", j, len(col), n)
		}
		for i, v := range col {
			x.Set(i, j+1, v)
		}
	}

	var svd mat.SVD
	if ok := svd.Factorize(x, mat.SVDThin); !ok {
		return nil, errors.New("ols: singular value decomposition failed")
	}
	s := svd.Values(nil)
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	rank := 0
	if len(s) > 0 && s[0] > 0 {
		for _, sv := range s {
			if sv > rankTolerance*s[0] {
				rank++
			}
		}
	}

	yv := mat.NewVecDense(n, y)
	beta := make([]float64, k)
	for i := 0; i < rank; i++ {
		c := mat.Dot(u.ColView(i), yv) / s[i]
		for j := 0; j < k; j++ {
			beta[j] += v.At(j, i) * c
		}
	}

	f := &Fit{N: n, K: k, Rank: rank, DF: n - rank, Coef: beta}
	f.Fitted = make([]float64, n)
	f.Residual = make([]float64, n)
	var mean, sumSq float64
	for _, yi := range y {
		mean += yi
		sumSq += yi * yi
	}
	mean /= float64(n)
	for i := 0; i < n; i++ {
		var fit float64
		for j := 0; j < k; j++ {
			fit += x.At(i, j) * beta[j]
		}
		f.Fitted[i] = fit
		f.Residual[i] = y[i] - fit
		f.SSR += f.Residual[i] * f.Residual[i]
		f.SST += (y[i] - mean) * (y[i] - mean)
	}

	// A constant response has no variance to explain, whatever rounding left in SST.
	if Constant(y) || f.SST <= constantTolerance*sumSq {
		f.SST = 0
	}
	f.R2, f.AdjR2, f.F, f.FPValue = math.NaN(), math.NaN(), math.NaN(), math.NaN()
	if f.SST > 0 {
		f.R2 = 1 - f.SSR/f.SST
		if f.DF > 0 {
			f.AdjR2 = 1 - (1-f.R2)*float64(n-1)/float64(f.DF)
		}
	}
	if dfModel := rank - 1; dfModel > 0 && f.DF > 0 && f.SST > 0 {
		if f.SSR == 0 {
			f.F, f.FPValue = math.Inf(1), 0
		} else {
			f.F = ((f.SST - f.SSR) / float64(dfModel)) / (f.SSR / float64(f.DF))
			f.FPValue = FTestPValue(f.F, float64(dfModel), float64(f.DF))
		}
	}

	f.LogLik = -float64(n) / 2 * (math.Log(2*math.Pi) + math.Log(f.SSR/float64(n)) + 1)
	f.AIC = -2*f.LogLik + 2*float64(rank)
	f.BIC = -2*f.LogLik + float64(rank)*math.Log(float64(n))

	f.StdErr = make([]float64, k)
	f.T = make([]float64, k)
	f.P = make([]float64, k)
	sigma2 := math.NaN()
	if f.DF > 0 {
		sigma2 = f.SSR / float64(f.DF)
	}
	for j := 0; j < k; j++ {
		var vjj float64
		for i := 0; i < rank; i++ {
			vji := v.At(j, i)
			vjj += vji * vji / (s[i] * s[i])
		}
		f.StdErr[j] = math.Sqrt(sigma2 * vjj)
		switch {
		case math.IsNaN(f.StdErr[j]):
			f.T[j] = math.NaN()
		case f.StdErr[j] == 0:
			if beta[j] == 0 {
				f.T[j] = math.NaN()
			} else {
				f.T[j] = math.Copysign(math.Inf(1), beta[j])
			}
		default:
			f.T[j] = beta[j] / f.StdErr[j]
		}
		f.P[j] = TTestPValue(f.T[j], float64(f.DF))
	}
	return f, nil
}

// Heteroscedasticity is an auxiliary regression test on squared residuals
// in its Lagrange multiplier (n·R²) and F forms.
type Heteroscedasticity struct {
	LM       float64
	LMPValue float64
	F        float64
	FPValue  float64
}

// BreuschPagan is the studentized (Koenker) Breusch-Pagan test: the squared
// residuals regressed on the original regressors.
func BreuschPagan(residuals []float64, xs [][]float64) Heteroscedasticity {
	return auxiliaryTest(residuals, xs)
}

// White regresses the squared residuals on the regressors, their squares and
// their pairwise products.
func White(residuals []float64, xs [][]float64) Heteroscedasticity {
	aux := append([][]float64(nil), xs...)
	for i := range xs {
		for j := i; j < len(xs); j++ {
			col := make([]float64, len(xs[i]))
			for r := range col {
				col[r] = xs[i][r] * xs[j][r]
			}
			aux = append(aux, col)
		}
	}
	return auxiliaryTest(residuals, aux)
}

func auxiliaryTest(residuals []float64, xs [][]float64) Heteroscedasticity {
	out := Heteroscedasticity{LM: math.NaN(), LMPValue: math.NaN(), F: math.NaN(), FPValue: math.NaN()}
	e2 := make([]float64, len(residuals))
	for i, r := range residuals {
		e2[i] = r * r
	}
	aux, err := OLS(e2, xs)
	if err != nil || math.IsNaN(aux.R2) {
		return out
	}
	// R² of an intercept model is non-negative up to rounding
	out.LM = math.Max(0, float64(aux.N)*aux.R2)
	out.LMPValue = ChiSquarePValue(out.LM, float64(aux.Rank-1))
	out.F, out.FPValue = aux.F, aux.FPValue
	return out
}
