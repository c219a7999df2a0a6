package domain

// Dataset is a consistent snapshot of the full record universe for one
// analytics session: batches plus every dependent and referenced
// collection. All aggregation and filtering operates on values of this
// type; nothing downstream reaches back to a database or service.
//
// A Dataset is treated as immutable after publication. Producers build
// a fresh value and swap it in; consumers must not modify the slices
// they receive.
type Dataset struct {
	Batches     []Batch      `json:"batches" yaml:"batches"`
	CqaResults  []CqaResult  `json:"cqa_results" yaml:"cqa_results"`
	MlOutputs   []MlOutput   `json:"ml_outputs" yaml:"ml_outputs"`
	CppPoints   []CppPoint   `json:"cpp_points" yaml:"cpp_points"`
	Bioreactors []Bioreactor `json:"bioreactors" yaml:"bioreactors"`
}

// BatchIDs returns the set of batch identifiers present in the dataset.
// Dependent rows whose BatchID is absent from this set are orphans and
// are excluded from every batch-joined aggregate.
func (d Dataset) BatchIDs() map[string]bool {
	ids := make(map[string]bool, len(d.Batches))
	for _, b := range d.Batches {
		ids[b.ID] = true
	}
	return ids
}

// BioreactorStatuses returns a lookup from bioreactor ID to its status.
func (d Dataset) BioreactorStatuses() map[string]BioreactorStatus {
	statuses := make(map[string]BioreactorStatus, len(d.Bioreactors))
	for _, r := range d.Bioreactors {
		statuses[r.ID] = r.Status
	}
	return statuses
}

// Counts reports collection sizes, used by health endpoints and logs.
type Counts struct {
	Batches     int `json:"batches"`
	CqaResults  int `json:"cqa_results"`
	MlOutputs   int `json:"ml_outputs"`
	CppPoints   int `json:"cpp_points"`
	Bioreactors int `json:"bioreactors"`
}

// Counts returns the size of each collection in the dataset.
func (d Dataset) Counts() Counts {
	return Counts{
		Batches:     len(d.Batches),
		CqaResults:  len(d.CqaResults),
		MlOutputs:   len(d.MlOutputs),
		CppPoints:   len(d.CppPoints),
		Bioreactors: len(d.Bioreactors),
	}
}
