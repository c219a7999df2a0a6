// Package domain defines the canonical record types shared by every
// layer of batchlens: process-run batches, their quality and process
// measurements, and the bioreactors they ran on.
//
// entities.go declares the individual record types and their fixed
// enumerations (stage, scenario, result status, risk level).
//
// dataset.go declares Dataset, the consistent in-memory snapshot of the
// full record universe that providers publish and the filter and stats
// layers consume. Records are immutable once published; updates replace
// whole snapshots, never individual rows.
package domain
