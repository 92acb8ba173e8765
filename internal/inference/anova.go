package inference

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// ANOVA is the result of a one-way analysis of variance.
type ANOVA struct {
	F         float64
	PValue    float64
	DFBetween int
	DFWithin  int
}

// OneWayANOVA tests equality of group means. Empty groups are ignored;
// fewer than two non-empty groups or no within-group freedom yields NaN.
func OneWayANOVA(groups [][]float64) ANOVA {
	out := ANOVA{F: math.NaN(), PValue: math.NaN()}
	var k, total int
	var grand float64
	var all []float64
	withinConstant := true
	for _, g := range groups {
		if len(g) == 0 {
			continue
		}
		k++
		total += len(g)
		for _, v := range g {
			grand += v
		}
		all = append(all, g...)
		withinConstant = withinConstant && Constant(g)
	}
	if k < 2 || total-k < 1 || Constant(all) {
		return out
	}
	grand /= float64(total)
	var ssb, ssw float64
	for _, g := range groups {
		if len(g) == 0 {
			continue
		}
		m := stat.Mean(g, nil)
		ssb += float64(len(g)) * (m - grand) * (m - grand)
		for _, v := range g {
			ssw += (v - m) * (v - m)
		}
	}
	out.DFBetween = k - 1
	out.DFWithin = total - k
	msb := ssb / float64(out.DFBetween)
	msw := ssw / float64(out.DFWithin)
	if withinConstant || msw == 0 {
		out.F = math.Inf(1)
		out.PValue = 0
		return out
	}
	out.F = msb / msw
	out.PValue = FTestPValue(out.F, float64(out.DFBetween), float64(out.DFWithin))
	return out
}

// StudentTTest is the pooled-variance two-sample t-test. Returns NaN unless
// both samples have data and the pooled variance has freedom.
func StudentTTest(a, b []float64) (t, p float64) {
	n1, n2 := float64(len(a)), float64(len(b))
	df := n1 + n2 - 2
	if len(a) == 0 || len(b) == 0 || df <= 0 {
		return math.NaN(), math.NaN()
	}
	if Constant(a) && Constant(b) {
		if Constant(append(append([]float64(nil), a...), b...)) {
			return math.NaN(), math.NaN()
		}
		return math.Copysign(math.Inf(1), stat.Mean(a, nil)-stat.Mean(b, nil)), 0
	}
	m1, m2 := stat.Mean(a, nil), stat.Mean(b, nil)
	var ss float64
	for _, v := range a {
		ss += (v - m1) * (v - m1)
	}
	for _, v := range b {
		ss += (v - m2) * (v - m2)
	}
	se := math.Sqrt(ss / df * (1/n1 + 1/n2))
	diff := m1 - m2
	if se == 0 {
		if diff == 0 {
			return math.NaN(), math.NaN()
		}
		return math.Copysign(math.Inf(1), diff), 0
	}
	t = diff / se
	return t, TTestPValue(t, df)
}
