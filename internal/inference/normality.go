package inference

import "math"

// Normality test names reported alongside the p-value.
const (
	TestDAgostino  = "dagostino_k2"
	TestJarqueBera = "jarque_bera"
)

// NormalityTest returns the p-value of a normality test and the test used.
// D'Agostino-Pearson K² needs eight values; from three to seven values the
// Jarque-Bera statistic is used. Smaller or constant samples yield NaN.
func NormalityTest(x []float64) (p float64, test string) {
	n := len(x)
	if n < 3 || Constant(x) {
		return math.NaN(), ""
	}
	g1, b2, ok := populationMoments(x)
	if !ok {
		return math.NaN(), ""
	}
	if n < 8 {
		jb := float64(n) / 6 * (g1*g1 + (b2-3)*(b2-3)/4)
		return ChiSquarePValue(jb, 2), TestJarqueBera
	}
	zs := skewZ(g1, float64(n))
	zk := kurtosisZ(b2, float64(n))
	return ChiSquarePValue(zs*zs+zk*zk, 2), TestDAgostino
}

// populationMoments returns the biased skewness g1 and non-excess kurtosis b2.
func populationMoments(x []float64) (g1, b2 float64, ok bool) {
	n := float64(len(x))
	var mean float64
	for _, v := range x {
		mean += v
	}
	mean /= n
	var m2, m3, m4 float64
	for _, v := range x {
		d := v - mean
		d2 := d * d
		m2 += d2
		m3 += d2 * d
		m4 += d2 * d2
	}
	m2 /= n
	m3 /= n
	m4 /= n
	if m2 <= 0 {
		return 0, 0, false
	}
	return m3 / math.Pow(m2, 1.5), m4 / (m2 * m2), true
}

func skewZ(g1, n float64) float64 {
	y := g1 * math.Sqrt((n+1)*(n+3)/(6*(n-2)))
	beta2 := 3 * (n*n + 27*n - 70) * (n + 1) * (n + 3) / ((n - 2) * (n + 5) * (n + 7) * (n + 9))
	w2 := -1 + math.Sqrt(2*(beta2-1))
	delta := 1 / math.Sqrt(0.5*math.Log(w2))
	alpha := math.Sqrt(2 / (w2 - 1))
	return delta * math.Asinh(y/alpha)
}

func kurtosisZ(b2, n float64) float64 {
	e := 3 * (n - 1) / (n + 1)
	varb2 := 24 * n * (n - 2) * (n - 3) / ((n + 1) * (n + 1) * (n + 3) * (n + 5))
	x := (b2 - e) / math.Sqrt(varb2)
	sqrtBeta1 := 6 * (n*n - 5*n + 2) / ((n + 7) * (n + 9)) * math.Sqrt(6*(n+3)*(n+5)/(n*(n-2)*(n-3)))
	a := 6 + 8/sqrtBeta1*(2/sqrtBeta1+math.Sqrt(1+4/(sqrtBeta1*sqrtBeta1)))
	term1 := 1 - 2/(9*a)
	denom := 1 + x*math.Sqrt(2/(a-4))
	if denom == 0 {
		return math.NaN()
	}
	term2 := math.Copysign(math.Cbrt((1-2/a)/math.Abs(denom)), denom)
	return (term1 - term2) / math.Sqrt(2/(9*a))
}
