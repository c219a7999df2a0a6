package stats

import (
	"math"
	"testing"
)

// almostEqual returns true if a and b are within epsilon of each other.
func almostEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) < epsilon
}

// --- Mean ---

func TestMean(t *testing.T) {
	tests := []struct {
		name string
		in   []float64
		want float64
	}{
		{"empty yields zero", nil, 0},
		{"single", []float64{7}, 7},
		{"simple", []float64{2, 4, 6}, 4},
		{"negative values", []float64{-2, 2}, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Mean(tc.in); !almostEqual(got, tc.want, 1e-12) {
				t.Errorf("Mean(%v) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

// --- Standard deviation ---

func TestStdDev_DenominatorVariants(t *testing.T) {
	// {10, 12}: deviations ±1, sum of squares 2.
	// sample:     sqrt(2/1) = sqrt(2)
	// population: sqrt(2/2) = 1
	v := []float64{10, 12}

	if got := StdDevSample(v); !almostEqual(got, math.Sqrt2, 1e-12) {
		t.Errorf("StdDevSample = %v, want sqrt(2)", got)
	}
	if got := StdDevPopulation(v); !almostEqual(got, 1, 1e-12) {
		t.Errorf("StdDevPopulation = %v, want 1", got)
	}
}

func TestStdDev_DegenerateInputs(t *testing.T) {
	for _, v := range [][]float64{nil, {}, {42}} {
		if got := StdDevSample(v); got != 0 {
			t.Errorf("StdDevSample(%v) = %v, want 0", v, got)
		}
	}
	if got := StdDevPopulation(nil); got != 0 {
		t.Errorf("StdDevPopulation(nil) = %v, want 0", got)
	}
	// A single sample has zero population spread.
	if got := StdDevPopulation([]float64{42}); got != 0 {
		t.Errorf("StdDevPopulation([42]) = %v, want 0", got)
	}
}

// --- Coefficient of variation ---

func TestCV_SingleElementIsZeroForBothVariants(t *testing.T) {
	v := []float64{5.5}
	if got := CVSample(v); got != 0 {
		t.Errorf("CVSample single element = %v, want 0", got)
	}
	if got := CVPopulation(v); got != 0 {
		t.Errorf("CVPopulation single element = %v, want 0", got)
	}
}

func TestCV_ZeroMeanGuard(t *testing.T) {
	// Mean is 0, so the ratio is defined as 0 rather than Inf/NaN.
	v := []float64{-5, 5}
	if got := CVSample(v); got != 0 {
		t.Errorf("CVSample zero-mean = %v, want 0", got)
	}
	if got := CVPopulation(v); got != 0 {
		t.Errorf("CVPopulation zero-mean = %v, want 0", got)
	}
}

func TestCV_Values(t *testing.T) {
	// {10, 12}: mean 11.
	// sample stddev sqrt(2)  -> CV = sqrt(2)/11*100
	// population stddev 1    -> CV = 1/11*100
	v := []float64{10, 12}

	if got, want := CVSample(v), math.Sqrt2/11*100; !almostEqual(got, want, 1e-9) {
		t.Errorf("CVSample = %v, want %v", got, want)
	}
	if got, want := CVPopulation(v), 1.0/11*100; !almostEqual(got, want, 1e-9) {
		t.Errorf("CVPopulation = %v, want %v", got, want)
	}
	if got := CVSample([]float64{4, 4, 4}); got != 0 {
		t.Errorf("CVSample of identical values = %v, want 0", got)
	}
}

// --- Variability reduction ---

func TestVariabilityReduction(t *testing.T) {
	tests := []struct {
		name               string
		baseline, candidate float64
		want               float64
	}{
		{"zero baseline yields zero", 0, 12.5, 0},
		{"halved", 10, 5, 50},
		{"eliminated", 10, 0, 100},
		{"unchanged", 8, 8, 0},
		{"candidate worse, negative is valid", 10, 15, -50},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := VariabilityReduction(tc.baseline, tc.candidate)
			if !almostEqual(got, tc.want, 1e-12) {
				t.Errorf("VariabilityReduction(%v, %v) = %v, want %v",
					tc.baseline, tc.candidate, got, tc.want)
			}
		})
	}
}

// --- Five-number summary ---

func TestFiveNumber_NearestRank(t *testing.T) {
	// n=4: Q1 at floor(4*0.25)=1, median at floor(4*0.5)=2,
	// Q3 at floor(4*0.75)=3. No interpolation.
	got := FiveNumber([]float64{10, 20, 30, 40})
	want := Summary{Min: 10, Q1: 20, Median: 30, Q3: 40, Max: 40}
	if got != want {
		t.Errorf("FiveNumber([10 20 30 40]) = %+v, want %+v", got, want)
	}
}

func TestFiveNumber_Cases(t *testing.T) {
	tests := []struct {
		name string
		in   []float64
		want Summary
	}{
		{"empty yields zero summary", nil, Summary{}},
		{"single element everywhere", []float64{3}, Summary{Min: 3, Q1: 3, Median: 3, Q3: 3, Max: 3}},
		{"odd length", []float64{1, 2, 3, 4, 5}, Summary{Min: 1, Q1: 2, Median: 3, Q3: 4, Max: 5}},
		{"unsorted input", []float64{40, 10, 30, 20}, Summary{Min: 10, Q1: 20, Median: 30, Q3: 40, Max: 40}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := FiveNumber(tc.in); got != tc.want {
				t.Errorf("FiveNumber(%v) = %+v, want %+v", tc.in, got, tc.want)
			}
		})
	}
}

func TestFiveNumber_DoesNotMutateInput(t *testing.T) {
	in := []float64{3, 1, 2}
	FiveNumber(in)
	if in[0] != 3 || in[1] != 1 || in[2] != 2 {
		t.Errorf("input reordered to %v", in)
	}
}
