package analysis

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Median returns the median of vals ignoring NaN, averaging the two middle
// values for an even count. It returns NaN when no values remain.
func Median(vals []float64) float64 {
	cp := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) {
			cp = append(cp, v)
		}
	}
	if len(cp) == 0 {
		return math.NaN()
	}
	sort.Float64s(cp)
	return quantile(cp, 0.5)
}

// quantile interpolates linearly between closest ranks of a sorted slice.
func quantile(sorted []float64, q float64) float64 {
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

// OneSampleTTest runs a two-sided one-sample Student's t-test of x against mu.
// With fewer than two observations both results are NaN. A sample without
// variance yields p = 0 when its mean differs from mu and NaN when it equals mu.
func OneSampleTTest(x []float64, mu float64) (t, p float64) {
	n := len(x)
	if n < 2 {
		return math.NaN(), math.NaN()
	}
	mean, sd := stat.MeanStdDev(x, nil)
	if sd == 0 {
		switch {
		case mean == mu:
			return math.NaN(), math.NaN()
		case mean > mu:
			return math.Inf(1), 0
		default:
			return math.Inf(-1), 0
		}
	}
	t = (mean - mu) / (sd / math.Sqrt(float64(n)))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(n - 1)}
	p = 2 * dist.CDF(-math.Abs(t))
	return t, p
}

func boolsToFloats(bs []bool) []float64 {
	out := make([]float64, len(bs))
	for i, b := range bs {
		if b {
			out[i] = 1
		}
	}
	return out
}
