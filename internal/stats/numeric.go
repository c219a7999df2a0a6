package stats

import (
	"math"
	"sort"
)

// Mean returns the arithmetic average of v. An empty slice yields 0,
// not NaN; callers must tolerate empty groups.
func Mean(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	var sum float64
	for _, x := range v {
		sum += x
	}
	return sum / float64(len(v))
}

// StdDevSample returns the sample standard deviation of v (N-1
// denominator). Fewer than two samples yield 0.
func StdDevSample(v []float64) float64 {
	if len(v) < 2 {
		return 0
	}
	return math.Sqrt(sumSquares(v) / float64(len(v)-1))
}

// StdDevPopulation returns the population standard deviation of v
// (N denominator). An empty slice yields 0.
func StdDevPopulation(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	return math.Sqrt(sumSquares(v) / float64(len(v)))
}

// CVSample returns the coefficient of variation of v in percent,
// (sample stddev / mean) * 100. A zero mean yields 0.
func CVSample(v []float64) float64 {
	m := Mean(v)
	if m == 0 {
		return 0
	}
	return StdDevSample(v) / m * 100
}

// CVPopulation is like CVSample but uses the population standard
// deviation. Per-stage spread reporting uses this variant; scenario
// comparison and the KPI rollup use the sample variant.
func CVPopulation(v []float64) float64 {
	m := Mean(v)
	if m == 0 {
		return 0
	}
	return StdDevPopulation(v) / m * 100
}

// VariabilityReduction returns how much candidateCV improves on
// baselineCV, in percent:
//
//	((baselineCV - candidateCV) / baselineCV) * 100
//
// A zero baseline yields 0. Negative values mean the candidate is more
// variable than the baseline and are valid output, not errors.
func VariabilityReduction(baselineCV, candidateCV float64) float64 {
	if baselineCV == 0 {
		return 0
	}
	return (baselineCV - candidateCV) / baselineCV * 100
}

// Summary is a five-number distribution summary.
type Summary struct {
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`
}

// FiveNumber computes the nearest-rank five-number summary of v: the
// quartiles are the ascending-sorted elements at floor(n*0.25),
// floor(n*0.5) and floor(n*0.75), with no interpolation between
// neighbouring values. An empty slice yields the zero Summary. v is
// not modified.
func FiveNumber(v []float64) Summary {
	if len(v) == 0 {
		return Summary{}
	}
	sorted := append([]float64(nil), v...)
	sort.Float64s(sorted)
	n := len(sorted)
	return Summary{
		Min:    sorted[0],
		Q1:     sorted[n/4],
		Median: sorted[n/2],
		Q3:     sorted[3*n/4],
		Max:    sorted[n-1],
	}
}

// sumSquares returns the sum of squared deviations from the mean.
func sumSquares(v []float64) float64 {
	m := Mean(v)
	var ss float64
	for _, x := range v {
		d := x - m
		ss += d * d
	}
	return ss
}

// finite reports whether x is a usable sample. Gathering drops
// non-finite values so the numeric core never sees NaN or ±Inf.
func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
