package alerts

import (
	"strconv"
	"strings"

	"github.com/batchlens/batchlens/internal/stats"
)

// evalCondition evaluates a rule condition string against a KPI rollup.
//
// Supported expressions (field operator value):
//
//	titer_cv > 12
//	avg_titer < 4.5
//	pass_rate < 90
//	variability_reduction < 0
//	batch_count < 5
//	running_bioreactors < 1
//	high_risk_count >= 3
//
// Returns (fires bool, triggering value float64). An unparseable
// expression or unknown field never fires.
func evalCondition(cond string, k stats.Kpis) (bool, float64) {
	parts := strings.Fields(cond)
	if len(parts) != 3 {
		return false, 0
	}
	field, op, rhs := parts[0], parts[1], parts[2]

	v, ok := numericField(field, k)
	if !ok {
		return false, 0
	}
	threshold, err := strconv.ParseFloat(rhs, 64)
	if err != nil {
		return false, 0
	}
	return compareFloat(v, op, threshold), v
}

// numericField maps a condition field name to its value in the rollup.
func numericField(field string, k stats.Kpis) (float64, bool) {
	switch field {
	case "titer_cv":
		return k.TiterCV, true
	case "avg_titer":
		return k.AvgTiter, true
	case "pass_rate":
		return k.PassRate, true
	case "variability_reduction":
		return k.VariabilityReduction, true
	case "batch_count":
		return float64(k.BatchCount), true
	case "running_bioreactors":
		return float64(k.RunningBioreactors), true
	case "high_risk_count":
		return float64(k.HighRiskCount), true
	default:
		return 0, false
	}
}

// compareFloat applies a comparison operator to two float64 values.
func compareFloat(v float64, op string, threshold float64) bool {
	switch op {
	case ">":
		return v > threshold
	case ">=":
		return v >= threshold
	case "<":
		return v < threshold
	case "<=":
		return v <= threshold
	case "==":
		return v == threshold
	default:
		return false
	}
}
