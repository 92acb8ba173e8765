package inference

import "math"

// ChiSquareResult is a Pearson chi-square test of independence.
type ChiSquareResult struct {
	Chi2     float64
	PValue   float64
	DOF      int
	CramersV float64
}

// ChiSquare tests independence on an observed contingency table. Rows and
// columns with zero totals are dropped before counting degrees of freedom.
func ChiSquare(observed [][]float64) ChiSquareResult {
	out := ChiSquareResult{Chi2: math.NaN(), PValue: math.NaN(), CramersV: math.NaN()}
	if len(observed) == 0 {
		return out
	}
	ncol := len(observed[0])
	rowSum := make([]float64, len(observed))
	colSum := make([]float64, ncol)
	var total float64
	for i, row := range observed {
		for j, v := range row {
			rowSum[i] += v
			colSum[j] += v
			total += v
		}
	}
	if total == 0 {
		return out
	}
	var r, c int
	for _, s := range rowSum {
		if s > 0 {
			r++
		}
	}
	for _, s := range colSum {
		if s > 0 {
			c++
		}
	}
	var chi2 float64
	for i, row := range observed {
		if rowSum[i] == 0 {
			continue
		}
		for j, o := range row {
			if colSum[j] == 0 {
				continue
			}
			e := rowSum[i] * colSum[j] / total
			chi2 += (o - e) * (o - e) / e
		}
	}
	out.Chi2 = chi2
	out.DOF = (r - 1) * (c - 1)
	out.PValue = ChiSquarePValue(chi2, float64(out.DOF))
	if m := math.Min(float64(r), float64(c)) - 1; m > 0 {
		out.CramersV = math.Sqrt(chi2 / (total * m))
	}
	return out
}
