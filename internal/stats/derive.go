package stats

import (
	"github.com/batchlens/batchlens/pkg/domain"
)

// AttributeTiter is the quality attribute the headline derivations
// aggregate over.
const AttributeTiter = "Titer"

// RiskThreshold splits ML risk scores into the stable and variable
// buckets. The boundary itself counts as variable.
const RiskThreshold = 0.3

// StageCV is one row of the per-stage consistency table.
type StageCV struct {
	Stage domain.Stage `json:"stage"`
	Mean  float64      `json:"mean"`
	CV    float64      `json:"cv"`
	Count int          `json:"count"`
}

// TiterCVByStage reports mean and population CV of Titer measurements
// for each manufacturing stage. Every stage of the fixed enumeration
// appears in the result exactly once, in enumeration order, zero-valued
// when it has no samples. Rows whose batch is missing from the corpus
// are excluded.
func TiterCVByStage(ds domain.Dataset) []StageCV {
	stageOf := make(map[string]domain.Stage, len(ds.Batches))
	for _, b := range ds.Batches {
		stageOf[b.ID] = b.Stage
	}

	values := make(map[domain.Stage][]float64, len(domain.Stages))
	for _, r := range ds.CqaResults {
		if r.Attribute != AttributeTiter || !finite(r.Value) {
			continue
		}
		stage, ok := stageOf[r.BatchID]
		if !ok {
			continue
		}
		values[stage] = append(values[stage], r.Value)
	}

	out := make([]StageCV, 0, len(domain.Stages))
	for _, stage := range domain.Stages {
		v := values[stage]
		out = append(out, StageCV{
			Stage: stage,
			Mean:  Mean(v),
			CV:    CVPopulation(v),
			Count: len(v),
		})
	}
	return out
}

// ScenarioStats is one side of the baseline/optimized comparison.
type ScenarioStats struct {
	Scenario   domain.Scenario `json:"scenario"`
	CV         float64         `json:"cv"`
	PassRate   float64         `json:"pass_rate"`
	BatchCount int             `json:"batch_count"`
}

// CompareScenarios reports Titer CV (sample stddev) and batch pass rate
// per scenario. Both scenarios always appear, in enumeration order; a
// scenario with no batches reports cv=0 and passRate=0.
func CompareScenarios(ds domain.Dataset) []ScenarioStats {
	scenarioOf := make(map[string]domain.Scenario, len(ds.Batches))
	totals := make(map[domain.Scenario]int, len(domain.Scenarios))
	passed := make(map[domain.Scenario]int, len(domain.Scenarios))
	for _, b := range ds.Batches {
		scenarioOf[b.ID] = b.Scenario
		totals[b.Scenario]++
		if b.Result == domain.ResultPass {
			passed[b.Scenario]++
		}
	}

	values := make(map[domain.Scenario][]float64, len(domain.Scenarios))
	for _, r := range ds.CqaResults {
		if r.Attribute != AttributeTiter || !finite(r.Value) {
			continue
		}
		if sc, ok := scenarioOf[r.BatchID]; ok {
			values[sc] = append(values[sc], r.Value)
		}
	}

	out := make([]ScenarioStats, 0, len(domain.Scenarios))
	for _, sc := range domain.Scenarios {
		row := ScenarioStats{
			Scenario:   sc,
			CV:         CVSample(values[sc]),
			BatchCount: totals[sc],
		}
		if totals[sc] > 0 {
			row.PassRate = float64(passed[sc]) / float64(totals[sc]) * 100
		}
		out = append(out, row)
	}
	return out
}

// StageDistribution is the five-number Titer spread for one stage.
type StageDistribution struct {
	Stage domain.Stage `json:"stage"`
	Summary
	Count int `json:"count"`
}

// TiterDistributionByStage reports the nearest-rank five-number summary
// of Titer measurements per stage. Every stage appears, in enumeration
// order; stages with no samples report the zero summary.
func TiterDistributionByStage(ds domain.Dataset) []StageDistribution {
	stageOf := make(map[string]domain.Stage, len(ds.Batches))
	for _, b := range ds.Batches {
		stageOf[b.ID] = b.Stage
	}

	values := make(map[domain.Stage][]float64, len(domain.Stages))
	for _, r := range ds.CqaResults {
		if r.Attribute != AttributeTiter || !finite(r.Value) {
			continue
		}
		stage, ok := stageOf[r.BatchID]
		if !ok {
			continue
		}
		values[stage] = append(values[stage], r.Value)
	}

	out := make([]StageDistribution, 0, len(domain.Stages))
	for _, stage := range domain.Stages {
		v := values[stage]
		out = append(out, StageDistribution{
			Stage:   stage,
			Summary: FiveNumber(v),
			Count:   len(v),
		})
	}
	return out
}

// ScatterPoint pairs a batch's average process-parameter reading with
// one of its quality outcomes.
type ScatterPoint struct {
	BatchID string  `json:"batch_id"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
}

// ParameterScatter builds one point per batch in corpus order. X is the
// mean of the named parameter's readings at the given phase, 0 when the
// batch has none. Y is the batch's first result for the named
// attribute, 0 when missing. Batches never drop out of the scatter;
// a chart renders every filtered batch even with a zero ordinate.
func ParameterScatter(ds domain.Dataset, phase int, parameter, attribute string) []ScatterPoint {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, p := range ds.CppPoints {
		if p.Phase != phase || p.Parameter != parameter || !finite(p.Value) {
			continue
		}
		sums[p.BatchID] += p.Value
		counts[p.BatchID]++
	}

	firstY := make(map[string]float64)
	for _, r := range ds.CqaResults {
		if r.Attribute != attribute || !finite(r.Value) {
			continue
		}
		if _, seen := firstY[r.BatchID]; !seen {
			firstY[r.BatchID] = r.Value
		}
	}

	out := make([]ScatterPoint, 0, len(ds.Batches))
	for _, b := range ds.Batches {
		pt := ScatterPoint{BatchID: b.ID, Y: firstY[b.ID]}
		if n := counts[b.ID]; n > 0 {
			pt.X = sums[b.ID] / float64(n)
		}
		out = append(out, pt)
	}
	return out
}

// RiskClusters is the fixed-threshold partition of ML risk scores.
// The name is descriptive, not algorithmic; nothing is learned here.
type RiskClusters struct {
	Stable   int `json:"stable"`
	Variable int `json:"variable"`
}

// ClusterRisk counts ML outputs on each side of RiskThreshold. Scores
// below the threshold are stable, scores at or above it are variable.
func ClusterRisk(ds domain.Dataset) RiskClusters {
	var rc RiskClusters
	for _, m := range ds.MlOutputs {
		if !finite(m.RiskScore) {
			continue
		}
		if m.RiskScore < RiskThreshold {
			rc.Stable++
		} else {
			rc.Variable++
		}
	}
	return rc
}

// Kpis is the headline dashboard rollup.
type Kpis struct {
	AvgTiter             float64 `json:"avg_titer"`
	TiterCV              float64 `json:"titer_cv"`
	PassRate             float64 `json:"pass_rate"`
	VariabilityReduction float64 `json:"variability_reduction"`
	BatchCount           int     `json:"batch_count"`
	RunningBioreactors   int     `json:"running_bioreactors"`
	HighRiskCount        int     `json:"high_risk_count"`
}

// KpiRollup computes the headline numbers over the filtered dataset.
// The variability reduction compares the filtered Titer CV against the
// raw corpus's baseline-scenario CV: the comparison denominator stays
// fixed while filters move, so raw must be the unfiltered snapshot.
func KpiRollup(filtered, raw domain.Dataset) Kpis {
	titers := titerValues(filtered)
	k := Kpis{
		AvgTiter:   Mean(titers),
		TiterCV:    CVSample(titers),
		BatchCount: len(filtered.Batches),
	}

	statuses := filtered.BioreactorStatuses()
	var pass int
	for _, b := range filtered.Batches {
		if b.Result == domain.ResultPass {
			pass++
		}
		if statuses[b.BioreactorID] == domain.BioreactorRunning {
			k.RunningBioreactors++
		}
	}
	if k.BatchCount > 0 {
		k.PassRate = float64(pass) / float64(k.BatchCount) * 100
	}

	ids := filtered.BatchIDs()
	for _, m := range filtered.MlOutputs {
		if m.RiskLevel == domain.RiskHigh && ids[m.BatchID] {
			k.HighRiskCount++
		}
	}

	k.VariabilityReduction = VariabilityReduction(BaselineTiterCV(raw), k.TiterCV)
	return k
}

// BaselineTiterCV returns the sample CV of Titer values belonging to
// baseline-scenario batches in ds. The KPI rollup calls it with the
// unfiltered corpus to anchor the variability-reduction comparison.
func BaselineTiterCV(ds domain.Dataset) float64 {
	scenarioOf := make(map[string]domain.Scenario, len(ds.Batches))
	for _, b := range ds.Batches {
		scenarioOf[b.ID] = b.Scenario
	}

	var v []float64
	for _, r := range ds.CqaResults {
		if r.Attribute != AttributeTiter || !finite(r.Value) {
			continue
		}
		if scenarioOf[r.BatchID] == domain.ScenarioBaseline {
			v = append(v, r.Value)
		}
	}
	return CVSample(v)
}

// titerValues returns the finite Titer readings of ds joined through
// the batch set; orphan rows are excluded.
func titerValues(ds domain.Dataset) []float64 {
	ids := ds.BatchIDs()
	out := make([]float64, 0, len(ds.CqaResults))
	for _, r := range ds.CqaResults {
		if r.Attribute == AttributeTiter && finite(r.Value) && ids[r.BatchID] {
			out = append(out, r.Value)
		}
	}
	return out
}
