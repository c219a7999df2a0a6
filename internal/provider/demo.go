package provider

import (
	"time"

	"github.com/batchlens/batchlens/pkg/domain"
)

// demoSeed is the single source of truth for the demo corpus: one row
// per batch, expanded into the dependent collections by Demo.
type demoSeed struct {
	id        string
	product   string
	stage     domain.Stage
	scenario  domain.Scenario
	monthsAgo int
	reactor   string
	result    domain.BatchResult
	titer     float64
	glycan    float64
	risk      float64
	riskLevel domain.RiskLevel
}

var demoSeeds = []demoSeed{
	{"BX-1001", "IMM-201", domain.StageLab, domain.ScenarioBaseline, 1, "BR-101", domain.ResultPass, 4.60, 96.1, 0.12, domain.RiskLow},
	{"BX-1002", "IMM-201", domain.StageLab, domain.ScenarioOptimized, 1, "BR-101", domain.ResultPass, 5.18, 97.9, 0.08, domain.RiskLow},
	{"BX-1003", "IMM-201", domain.StagePilot, domain.ScenarioBaseline, 2, "BR-102", domain.ResultPass, 4.10, 95.2, 0.34, domain.RiskMedium},
	{"BX-1004", "IMM-201", domain.StagePilot, domain.ScenarioOptimized, 2, "BR-102", domain.ResultPass, 5.22, 98.3, 0.11, domain.RiskLow},
	{"BX-1005", "IMM-201", domain.StageManufacturing, domain.ScenarioBaseline, 4, "BR-103", domain.ResultFail, 3.80, 93.7, 0.71, domain.RiskHigh},
	{"BX-1006", "IMM-201", domain.StageManufacturing, domain.ScenarioOptimized, 4, "BR-103", domain.ResultPass, 5.05, 97.5, 0.22, domain.RiskLow},
	{"BX-1007", "VAX-07", domain.StageLab, domain.ScenarioBaseline, 1, "BR-104", domain.ResultPass, 5.60, 96.8, 0.18, domain.RiskLow},
	{"BX-1008", "VAX-07", domain.StageLab, domain.ScenarioOptimized, 2, "BR-104", domain.ResultPass, 5.31, 98.1, 0.09, domain.RiskLow},
	{"BX-1009", "VAX-07", domain.StagePilot, domain.ScenarioBaseline, 5, "BR-102", domain.ResultFail, 4.90, 94.9, 0.55, domain.RiskHigh},
	{"BX-1010", "VAX-07", domain.StagePilot, domain.ScenarioOptimized, 5, "BR-101", domain.ResultPass, 5.12, 97.7, 0.13, domain.RiskLow},
	{"BX-1011", "VAX-07", domain.StageManufacturing, domain.ScenarioBaseline, 8, "BR-103", domain.ResultPass, 4.40, 95.8, 0.41, domain.RiskMedium},
	{"BX-1012", "VAX-07", domain.StageManufacturing, domain.ScenarioOptimized, 8, "BR-104", domain.ResultPending, 5.27, 98.0, 0.19, domain.RiskLow},
}

// Demo builds the built-in demo corpus: two products across all stages
// and both scenarios, with start dates spread relative to now so every
// date-window selection matches a different subset. Optimized titers
// cluster tighter than baseline ones, which gives the variability
// numbers something to show. The result is deterministic for a given
// now.
func Demo(now time.Time) domain.Dataset {
	ds := domain.Dataset{
		Batches:    make([]domain.Batch, 0, len(demoSeeds)),
		CqaResults: make([]domain.CqaResult, 0, 2*len(demoSeeds)),
		MlOutputs:  make([]domain.MlOutput, 0, len(demoSeeds)),
		Bioreactors: []domain.Bioreactor{
			{ID: "BR-101", Status: domain.BioreactorRunning},
			{ID: "BR-102", Status: domain.BioreactorRunning},
			{ID: "BR-103", Status: domain.BioreactorIdle},
			{ID: "BR-104", Status: domain.BioreactorRunning},
		},
	}

	for i, seed := range demoSeeds {
		ds.Batches = append(ds.Batches, domain.Batch{
			ID:           seed.id,
			Product:      seed.product,
			Stage:        seed.stage,
			Scenario:     seed.scenario,
			StartedAt:    now.AddDate(0, -seed.monthsAgo, -i),
			BioreactorID: seed.reactor,
			Result:       seed.result,
		})
		ds.CqaResults = append(ds.CqaResults,
			domain.CqaResult{BatchID: seed.id, Attribute: "Titer", Value: seed.titer},
			domain.CqaResult{BatchID: seed.id, Attribute: "GlycanQuality", Value: seed.glycan},
		)
		ds.MlOutputs = append(ds.MlOutputs, domain.MlOutput{
			BatchID:   seed.id,
			RiskScore: seed.risk,
			RiskLevel: seed.riskLevel,
		})
		ds.CppPoints = append(ds.CppPoints, demoPoints(seed.id, i)...)
	}
	return ds
}

// demoPoints expands one batch into a small process-parameter time
// series: two DO and two pH samples per phase, jittered by index so
// phase averages differ between batches without pulling in a RNG.
func demoPoints(batchID string, i int) []domain.CppPoint {
	points := make([]domain.CppPoint, 0, 12)
	for phase := 1; phase <= 3; phase++ {
		for s := 0; s < 2; s++ {
			points = append(points,
				domain.CppPoint{
					BatchID:   batchID,
					Phase:     phase,
					Parameter: "DO",
					Value:     38 + float64((i*5+phase*3+s)%8),
				},
				domain.CppPoint{
					BatchID:   batchID,
					Phase:     phase,
					Parameter: "pH",
					Value:     6.85 + 0.05*float64((i+phase+s)%6),
				},
			)
		}
	}
	return points
}
