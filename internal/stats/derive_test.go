package stats

import (
	"math"
	"testing"
	"time"

	"github.com/batchlens/batchlens/pkg/domain"
)

var baseTime = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func batch(id, product string, stage domain.Stage, sc domain.Scenario, result domain.BatchResult, reactor string) domain.Batch {
	return domain.Batch{
		ID: id, Product: product, Stage: stage, Scenario: sc,
		StartedAt: baseTime, BioreactorID: reactor, Result: result,
	}
}

func titer(batchID string, value float64) domain.CqaResult {
	return domain.CqaResult{BatchID: batchID, Attribute: AttributeTiter, Value: value}
}

// --- Titer CV by stage ---

func TestTiterCVByStage_CompleteTable(t *testing.T) {
	// Lab titers {5.0, 5.2}: mean 5.1, population stddev 0.1,
	// CV = 0.1/5.1*100. Pilot and Manufacturing have no samples and
	// must still appear, zero-valued.
	ds := domain.Dataset{
		Batches: []domain.Batch{
			batch("B-1", "mAb-A", domain.StageLab, domain.ScenarioBaseline, domain.ResultPass, "BR-1"),
			batch("B-2", "mAb-A", domain.StageLab, domain.ScenarioBaseline, domain.ResultPass, "BR-1"),
		},
		CqaResults: []domain.CqaResult{titer("B-1", 5.0), titer("B-2", 5.2)},
	}

	rows := TiterCVByStage(ds)
	if len(rows) != len(domain.Stages) {
		t.Fatalf("rows = %d, want %d", len(rows), len(domain.Stages))
	}
	for i, stage := range domain.Stages {
		if rows[i].Stage != stage {
			t.Errorf("row %d stage = %q, want %q (enumeration order)", i, rows[i].Stage, stage)
		}
	}

	lab := rows[0]
	if lab.Count != 2 || !almostEqual(lab.Mean, 5.1, 1e-9) || !almostEqual(lab.CV, 0.1/5.1*100, 1e-9) {
		t.Errorf("lab row = %+v", lab)
	}
	for _, row := range rows[1:] {
		if row.Mean != 0 || row.CV != 0 || row.Count != 0 {
			t.Errorf("empty stage %s not zero-valued: %+v", row.Stage, row)
		}
	}
}

func TestTiterCVByStage_IgnoresOtherAttributesAndOrphans(t *testing.T) {
	ds := domain.Dataset{
		Batches: []domain.Batch{
			batch("B-1", "mAb-A", domain.StageLab, domain.ScenarioBaseline, domain.ResultPass, "BR-1"),
		},
		CqaResults: []domain.CqaResult{
			titer("B-1", 5.0),
			{BatchID: "B-1", Attribute: "GlycanQuality", Value: 98},
			titer("B-404", 99),
		},
	}

	if got := TiterCVByStage(ds)[0].Count; got != 1 {
		t.Errorf("lab sample count = %d, want 1 (orphan and non-Titer rows excluded)", got)
	}
}

func TestTiterCVByStage_SkipsNonFiniteSamples(t *testing.T) {
	ds := domain.Dataset{
		Batches: []domain.Batch{
			batch("B-1", "mAb-A", domain.StageLab, domain.ScenarioBaseline, domain.ResultPass, "BR-1"),
			batch("B-2", "mAb-A", domain.StageLab, domain.ScenarioBaseline, domain.ResultPass, "BR-1"),
		},
		CqaResults: []domain.CqaResult{
			titer("B-1", 5.0),
			titer("B-2", math.NaN()),
			titer("B-2", math.Inf(1)),
		},
	}

	lab := TiterCVByStage(ds)[0]
	if lab.Count != 1 || !almostEqual(lab.Mean, 5.0, 1e-12) {
		t.Errorf("lab row = %+v, want one finite sample with mean 5", lab)
	}
	if math.IsNaN(lab.CV) || math.IsInf(lab.CV, 0) {
		t.Errorf("non-finite CV %v leaked through", lab.CV)
	}
}

// --- Scenario comparison ---

func TestCompareScenarios_EndToEnd(t *testing.T) {
	// Baseline titers {10, 12}: sample CV = sqrt(2)/11*100 > 0.
	// Optimized titers {11, 11}: identical values, CV = 0.
	// Reduction between the two is exactly 100%.
	ds := domain.Dataset{
		Batches: []domain.Batch{
			batch("B-b1", "mAb-A", domain.StageLab, domain.ScenarioBaseline, domain.ResultPass, "BR-1"),
			batch("B-b2", "mAb-A", domain.StageLab, domain.ScenarioBaseline, domain.ResultFail, "BR-1"),
			batch("B-o1", "mAb-A", domain.StageLab, domain.ScenarioOptimized, domain.ResultPass, "BR-1"),
			batch("B-o2", "mAb-A", domain.StageLab, domain.ScenarioOptimized, domain.ResultPass, "BR-1"),
		},
		CqaResults: []domain.CqaResult{
			titer("B-b1", 10), titer("B-b2", 12),
			titer("B-o1", 11), titer("B-o2", 11),
		},
	}

	rows := CompareScenarios(ds)
	if len(rows) != 2 || rows[0].Scenario != domain.ScenarioBaseline || rows[1].Scenario != domain.ScenarioOptimized {
		t.Fatalf("rows = %+v, want baseline then optimized", rows)
	}

	base, opt := rows[0], rows[1]
	if base.CV <= 0 {
		t.Errorf("baseline CV = %v, want > 0", base.CV)
	}
	if !almostEqual(base.CV, math.Sqrt2/11*100, 1e-9) {
		t.Errorf("baseline CV = %v, want %v", base.CV, math.Sqrt2/11*100)
	}
	if opt.CV != 0 {
		t.Errorf("optimized CV = %v, want 0", opt.CV)
	}
	if !almostEqual(base.PassRate, 50, 1e-12) || !almostEqual(opt.PassRate, 100, 1e-12) {
		t.Errorf("pass rates = %v / %v, want 50 / 100", base.PassRate, opt.PassRate)
	}
	if got := VariabilityReduction(base.CV, opt.CV); !almostEqual(got, 100, 1e-9) {
		t.Errorf("variability reduction = %v, want 100", got)
	}
}

func TestCompareScenarios_EmptyScenarioIsZeroValued(t *testing.T) {
	ds := domain.Dataset{
		Batches: []domain.Batch{
			batch("B-b1", "mAb-A", domain.StageLab, domain.ScenarioBaseline, domain.ResultPass, "BR-1"),
		},
		CqaResults: []domain.CqaResult{titer("B-b1", 10)},
	}

	rows := CompareScenarios(ds)
	opt := rows[1]
	if opt.CV != 0 || opt.PassRate != 0 || opt.BatchCount != 0 {
		t.Errorf("empty scenario row = %+v, want all zero", opt)
	}
}

// --- Distribution ---

func TestTiterDistributionByStage(t *testing.T) {
	ds := domain.Dataset{
		Batches: []domain.Batch{
			batch("B-1", "mAb-A", domain.StageManufacturing, domain.ScenarioBaseline, domain.ResultPass, "BR-1"),
			batch("B-2", "mAb-A", domain.StageManufacturing, domain.ScenarioBaseline, domain.ResultPass, "BR-1"),
			batch("B-3", "mAb-A", domain.StageManufacturing, domain.ScenarioBaseline, domain.ResultPass, "BR-1"),
			batch("B-4", "mAb-A", domain.StageManufacturing, domain.ScenarioBaseline, domain.ResultPass, "BR-1"),
		},
		CqaResults: []domain.CqaResult{
			titer("B-1", 40), titer("B-2", 10), titer("B-3", 30), titer("B-4", 20),
		},
	}

	rows := TiterDistributionByStage(ds)
	if len(rows) != len(domain.Stages) {
		t.Fatalf("rows = %d, want %d", len(rows), len(domain.Stages))
	}

	mfg := rows[2]
	want := Summary{Min: 10, Q1: 20, Median: 30, Q3: 40, Max: 40}
	if mfg.Summary != want || mfg.Count != 4 {
		t.Errorf("manufacturing row = %+v, want summary %+v count 4", mfg, want)
	}
	if rows[0].Summary != (Summary{}) || rows[0].Count != 0 {
		t.Errorf("empty lab row = %+v, want zero summary", rows[0])
	}
}

// --- Parameter scatter ---

func TestParameterScatter(t *testing.T) {
	ds := domain.Dataset{
		Batches: []domain.Batch{
			batch("B-1", "mAb-A", domain.StageLab, domain.ScenarioBaseline, domain.ResultPass, "BR-1"),
			batch("B-2", "mAb-A", domain.StageLab, domain.ScenarioBaseline, domain.ResultPass, "BR-1"),
		},
		CqaResults: []domain.CqaResult{titer("B-1", 5.1)},
		CppPoints: []domain.CppPoint{
			{BatchID: "B-1", Phase: 1, Parameter: "DO", Value: 40},
			{BatchID: "B-1", Phase: 1, Parameter: "DO", Value: 44},
			{BatchID: "B-1", Phase: 2, Parameter: "DO", Value: 99},
			{BatchID: "B-1", Phase: 1, Parameter: "pH", Value: 7.1},
			{BatchID: "B-2", Phase: 2, Parameter: "DO", Value: 50},
		},
	}

	pts := ParameterScatter(ds, 1, "DO", AttributeTiter)
	if len(pts) != 2 {
		t.Fatalf("points = %d, want one per batch", len(pts))
	}

	// B-1 averages the two phase-1 DO readings; other phases and
	// parameters do not contribute.
	if pts[0].BatchID != "B-1" || !almostEqual(pts[0].X, 42, 1e-12) || !almostEqual(pts[0].Y, 5.1, 1e-12) {
		t.Errorf("point[0] = %+v, want B-1 at (42, 5.1)", pts[0])
	}
	// B-2 has no phase-1 readings and no Titer result but still
	// appears, zero-valued on both axes.
	if pts[1].BatchID != "B-2" || pts[1].X != 0 || pts[1].Y != 0 {
		t.Errorf("point[1] = %+v, want B-2 at (0, 0)", pts[1])
	}
}

func TestParameterScatter_FirstAttributeMatchWins(t *testing.T) {
	ds := domain.Dataset{
		Batches: []domain.Batch{
			batch("B-1", "mAb-A", domain.StageLab, domain.ScenarioBaseline, domain.ResultPass, "BR-1"),
		},
		CqaResults: []domain.CqaResult{titer("B-1", 5.1), titer("B-1", 9.9)},
	}

	pts := ParameterScatter(ds, 1, "DO", AttributeTiter)
	if !almostEqual(pts[0].Y, 5.1, 1e-12) {
		t.Errorf("Y = %v, want first match 5.1", pts[0].Y)
	}
}

// --- Risk clustering ---

func TestClusterRisk_BoundaryInclusiveOnVariableSide(t *testing.T) {
	ds := domain.Dataset{
		MlOutputs: []domain.MlOutput{
			{BatchID: "B-1", RiskScore: 0.1, RiskLevel: domain.RiskLow},
			{BatchID: "B-2", RiskScore: 0.29, RiskLevel: domain.RiskLow},
			{BatchID: "B-3", RiskScore: 0.3, RiskLevel: domain.RiskMedium},
			{BatchID: "B-4", RiskScore: 0.5, RiskLevel: domain.RiskHigh},
		},
	}

	got := ClusterRisk(ds)
	if got.Stable != 2 || got.Variable != 2 {
		t.Errorf("clusters = %+v, want stable=2 variable=2 (0.3 lands on the variable side)", got)
	}
}

func TestClusterRisk_SkipsNonFiniteScores(t *testing.T) {
	ds := domain.Dataset{
		MlOutputs: []domain.MlOutput{
			{BatchID: "B-1", RiskScore: math.NaN(), RiskLevel: domain.RiskLow},
			{BatchID: "B-2", RiskScore: 0.5, RiskLevel: domain.RiskHigh},
		},
	}

	got := ClusterRisk(ds)
	if got.Stable != 0 || got.Variable != 1 {
		t.Errorf("clusters = %+v, want stable=0 variable=1", got)
	}
}

// --- KPI rollup ---

func kpiFixture() domain.Dataset {
	return domain.Dataset{
		Batches: []domain.Batch{
			batch("B-b1", "mAb-A", domain.StageLab, domain.ScenarioBaseline, domain.ResultPass, "BR-1"),
			batch("B-b2", "mAb-A", domain.StageLab, domain.ScenarioBaseline, domain.ResultFail, "BR-2"),
			batch("B-o1", "mAb-A", domain.StagePilot, domain.ScenarioOptimized, domain.ResultPass, "BR-1"),
			batch("B-o2", "mAb-A", domain.StagePilot, domain.ScenarioOptimized, domain.ResultPass, "BR-2"),
		},
		CqaResults: []domain.CqaResult{
			titer("B-b1", 10), titer("B-b2", 12),
			titer("B-o1", 11), titer("B-o2", 11),
		},
		MlOutputs: []domain.MlOutput{
			{BatchID: "B-o1", RiskScore: 0.8, RiskLevel: domain.RiskHigh},
			{BatchID: "B-o2", RiskScore: 0.1, RiskLevel: domain.RiskLow},
		},
		Bioreactors: []domain.Bioreactor{
			{ID: "BR-1", Status: domain.BioreactorRunning},
			{ID: "BR-2", Status: domain.BioreactorIdle},
		},
	}
}

func TestKpiRollup_AgainstUnfilteredBaseline(t *testing.T) {
	raw := kpiFixture()

	// Simulate an optimized-only filter: only the two optimized
	// batches and their dependents survive.
	filtered := domain.Dataset{
		Batches:     raw.Batches[2:],
		CqaResults:  raw.CqaResults[2:],
		MlOutputs:   raw.MlOutputs,
		Bioreactors: raw.Bioreactors,
	}

	k := KpiRollup(filtered, raw)
	if !almostEqual(k.AvgTiter, 11, 1e-12) {
		t.Errorf("AvgTiter = %v, want 11", k.AvgTiter)
	}
	if k.TiterCV != 0 {
		t.Errorf("TiterCV = %v, want 0 (identical optimized titers)", k.TiterCV)
	}
	// The reduction denominator is the raw corpus's baseline CV, so a
	// perfect optimized run reports exactly 100.
	if !almostEqual(k.VariabilityReduction, 100, 1e-9) {
		t.Errorf("VariabilityReduction = %v, want 100", k.VariabilityReduction)
	}
	if !almostEqual(k.PassRate, 100, 1e-12) {
		t.Errorf("PassRate = %v, want 100", k.PassRate)
	}
	if k.BatchCount != 2 {
		t.Errorf("BatchCount = %d, want 2", k.BatchCount)
	}
	if k.RunningBioreactors != 1 {
		t.Errorf("RunningBioreactors = %d, want 1 (only BR-1 is running)", k.RunningBioreactors)
	}
	if k.HighRiskCount != 1 {
		t.Errorf("HighRiskCount = %d, want 1", k.HighRiskCount)
	}
}

func TestKpiRollup_EmptyCorpus(t *testing.T) {
	k := KpiRollup(domain.Dataset{}, domain.Dataset{})
	if k != (Kpis{}) {
		t.Errorf("empty rollup = %+v, want zero value", k)
	}
}

func TestBaselineTiterCV_ExcludesOptimizedAndOrphans(t *testing.T) {
	ds := kpiFixture()
	ds.CqaResults = append(ds.CqaResults, titer("B-404", 1000))

	got := BaselineTiterCV(ds)
	if !almostEqual(got, math.Sqrt2/11*100, 1e-9) {
		t.Errorf("BaselineTiterCV = %v, want %v", got, math.Sqrt2/11*100)
	}
}
