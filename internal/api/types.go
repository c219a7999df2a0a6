package api

import (
	"github.com/batchlens/batchlens/internal/stats"
	"github.com/batchlens/batchlens/pkg/domain"
)

// HealthResponse is the payload for GET /api/v1/health.
type HealthResponse struct {
	Status    string        `json:"status"`
	Revision  uint64        `json:"revision"`
	UpdatedAt string        `json:"updated_at"` // RFC3339
	Counts    domain.Counts `json:"counts"`
}

// KpiResponse is the payload for GET /api/v1/kpis: the rollup computed
// over the filtered corpus, tagged with the revision it was read from.
type KpiResponse struct {
	Revision uint64 `json:"revision"`
	stats.Kpis
}

// ScatterResponse is the payload for GET /api/v1/stats/scatter.
type ScatterResponse struct {
	Phase     int                  `json:"phase"`
	Parameter string               `json:"parameter"`
	Attribute string               `json:"attribute"`
	Points    []stats.ScatterPoint `json:"points"`
}

// BatchResponse is one row of GET /api/v1/batches: a batch joined with
// its first Titer reading and its ML risk output.
type BatchResponse struct {
	ID           string             `json:"id"`
	Product      string             `json:"product"`
	Stage        domain.Stage       `json:"stage"`
	Scenario     domain.Scenario    `json:"scenario"`
	StartedAt    string             `json:"started_at"` // RFC3339
	BioreactorID string             `json:"bioreactor_id"`
	Result       domain.BatchResult `json:"result"`
	Titer        float64            `json:"titer"`
	RiskScore    float64            `json:"risk_score"`
	RiskLevel    domain.RiskLevel   `json:"risk_level,omitempty"`
}

// FiltersResponse is the payload for GET /api/v1/filters: the values
// the dashboard can offer for each filter dimension.
type FiltersResponse struct {
	Products  []string `json:"products"`
	Stages    []string `json:"stages"`
	Ranges    []string `json:"ranges"`
	Scenarios []string `json:"scenarios"`
}

// DatasetAck is the payload for PUT /api/v1/dataset.
type DatasetAck struct {
	Revision uint64        `json:"revision"`
	Counts   domain.Counts `json:"counts"`
}

// errorResponse is a generic JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}
