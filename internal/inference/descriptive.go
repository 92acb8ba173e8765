package inference

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
)

// Summary holds the descriptive statistics of one numeric sample.
type Summary struct {
	N        int
	Mean     float64
	Std      float64
	Min      float64
	Q25      float64
	Median   float64
	Q75      float64
	Max      float64
	Skew     float64
	Kurtosis float64
	// Mode is the smallest most frequent value, NaN when all values are unique.
	Mode float64
}

// constantTolerance is the relative spread under which a sample counts as
// constant. The mean of repeated 0.1 is not exactly 0.1, so moments of a
// constant sample carry rounding noise instead of zero.
const constantTolerance = 1e-12

// Constant reports whether every value of x is the same up to rounding.
// Empty samples are constant.
func Constant(x []float64) bool {
	if len(x) == 0 {
		return true
	}
	lo, hi := x[0], x[0]
	for _, v := range x[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return hi-lo <= constantTolerance*math.Max(math.Abs(lo), math.Abs(hi))
}

// Describe summarizes x, which must not contain NaN. Std needs two values,
// skewness three and excess kurtosis four; below that they are NaN, as they
// are for a constant sample.
func Describe(x []float64) Summary {
	s := Summary{
		N: len(x), Mean: math.NaN(), Std: math.NaN(), Min: math.NaN(), Max: math.NaN(),
		Q25: math.NaN(), Median: math.NaN(), Q75: math.NaN(),
		Skew: math.NaN(), Kurtosis: math.NaN(), Mode: math.NaN(),
	}
	if len(x) == 0 {
		return s
	}
	data := stats.Float64Data(x)
	s.Mean, _ = stats.Mean(data)
	s.Min, _ = stats.Min(data)
	s.Max, _ = stats.Max(data)
	constant := Constant(x)
	if len(x) > 1 {
		s.Std = 0
		if !constant {
			s.Std, _ = stats.StandardDeviationSample(data)
		}
	}
	sorted := append([]float64(nil), x...)
	sort.Float64s(sorted)
	s.Q25 = Quantile(sorted, 0.25)
	s.Median = Quantile(sorted, 0.5)
	s.Q75 = Quantile(sorted, 0.75)
	// stats.Mode returns nothing when every value is equally frequent; the
	// smallest value is then a mode.
	if modes, err := stats.Mode(data); err == nil {
		s.Mode = s.Min
		if len(modes) > 0 {
			s.Mode = modes[0]
			for _, m := range modes[1:] {
				s.Mode = math.Min(s.Mode, m)
			}
		}
	}
	if !constant {
		if len(x) >= 3 {
			s.Skew = stat.Skew(x, nil)
		}
		if len(x) >= 4 {
			s.Kurtosis = stat.ExKurtosis(x, nil)
		}
	}
	return s
}

// Quantile interpolates linearly between order statistics of sorted data.
func Quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// MedianMAD computes the median and the median absolute deviation.
func MedianMAD(vals []float64) (median, mad float64) {
	if len(vals) == 0 {
		return math.NaN(), math.NaN()
	}
	cp := append([]float64(nil), vals...)
	sort.Float64s(cp)
	median = Quantile(cp, 0.5)
	dev := make([]float64, len(cp))
	for i, v := range cp {
		dev[i] = math.Abs(v - median)
	}
	sort.Float64s(dev)
	mad = Quantile(dev, 0.5)
	return
}

// RobustOutliers counts values whose modified z-score exceeds threshold.
// Samples under eight values or with zero MAD report zero.
func RobustOutliers(vals []float64, threshold float64) (count int, maxAbsZ float64) {
	if len(vals) < 8 {
		return 0, 0
	}
	median, mad := MedianMAD(vals)
	if mad == 0 {
		return 0, 0
	}
	for _, v := range vals {
		z := math.Abs(0.6745 * (v - median) / mad)
		if z > threshold {
			count++
		}
		if z > maxAbsZ {
			maxAbsZ = z
		}
	}
	return count, maxAbsZ
}

// Variance is the sample variance, NaN below two values.
func Variance(x []float64) float64 {
	if len(x) < 2 {
		return math.NaN()
	}
	return stat.Variance(x, nil)
}
