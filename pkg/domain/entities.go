package domain

import "time"

// Stage is the manufacturing scale a batch was run at.
type Stage string

// The fixed stage enumeration. Per-stage aggregates always report all
// three stages, zero-valued where no batches exist.
const (
	StageLab           Stage = "Lab"
	StagePilot         Stage = "Pilot"
	StageManufacturing Stage = "Manufacturing"
)

// Stages lists the stage enumeration in canonical display order.
var Stages = []Stage{StageLab, StagePilot, StageManufacturing}

// Scenario identifies which experimental condition a batch belongs to.
type Scenario string

// The two comparison scenarios. Process-improvement impact is measured
// by comparing dispersion between them.
const (
	ScenarioBaseline  Scenario = "baseline"
	ScenarioOptimized Scenario = "optimized"
)

// Scenarios lists the scenario enumeration in canonical order.
var Scenarios = []Scenario{ScenarioBaseline, ScenarioOptimized}

// BatchResult is the recorded outcome of a completed (or running) batch.
type BatchResult string

// Batch outcome states.
const (
	ResultPass    BatchResult = "Pass"
	ResultFail    BatchResult = "Fail"
	ResultPending BatchResult = "Pending"
)

// RiskLevel is the label attached to a model risk output. It arrives
// pre-derived from the scoring model and is never recomputed here.
type RiskLevel string

// Risk level labels.
const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// BioreactorStatus describes the current operational state of a vessel.
// The set is open: gateways may report statuses beyond these two, and
// unknown values flow through untouched.
type BioreactorStatus string

// Common bioreactor statuses.
const (
	BioreactorRunning BioreactorStatus = "Running"
	BioreactorIdle    BioreactorStatus = "Idle"
)

// Batch is one process run: a product manufactured at a stage under a
// scenario, on a specific bioreactor, with a recorded outcome.
type Batch struct {
	ID           string      `json:"id" yaml:"id"`
	Product      string      `json:"product" yaml:"product"`
	Stage        Stage       `json:"stage" yaml:"stage"`
	Scenario     Scenario    `json:"scenario" yaml:"scenario"`
	StartedAt    time.Time   `json:"started_at" yaml:"started_at"`
	BioreactorID string      `json:"bioreactor_id" yaml:"bioreactor_id"`
	Result       BatchResult `json:"result" yaml:"result"`
}

// CqaResult is one measured critical quality attribute of a batch, e.g.
// a "Titer" or "GlycanQuality" reading. By convention there is one
// result per batch per attribute, but duplicates are tolerated and each
// counts as an independent sample when aggregating.
type CqaResult struct {
	BatchID   string  `json:"batch_id" yaml:"batch_id"`
	Attribute string  `json:"attribute" yaml:"attribute"`
	Value     float64 `json:"value" yaml:"value"`
}

// MlOutput is one risk prediction for a batch. Score is nominally in
// [0, 1] but is stored as delivered; nothing here clamps it.
type MlOutput struct {
	BatchID   string    `json:"batch_id" yaml:"batch_id"`
	RiskScore float64   `json:"risk_score" yaml:"risk_score"`
	RiskLevel RiskLevel `json:"risk_level" yaml:"risk_level"`
}

// CppPoint is one time-series sample of a critical process parameter at
// a process phase, e.g. a dissolved-oxygen reading during phase 2.
// Many points per (batch, phase, parameter) are expected; aggregations
// average across all matching points.
type CppPoint struct {
	BatchID   string  `json:"batch_id" yaml:"batch_id"`
	Phase     int     `json:"phase" yaml:"phase"`
	Parameter string  `json:"parameter" yaml:"parameter"`
	Value     float64 `json:"value" yaml:"value"`
}

// Bioreactor is a vessel batches run on, referenced by Batch.BioreactorID.
type Bioreactor struct {
	ID     string           `json:"id" yaml:"id"`
	Status BioreactorStatus `json:"status" yaml:"status"`
}
