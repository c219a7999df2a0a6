// Package stats derives descriptive aggregates from a dataset.
//
// numeric.go provides the pure numeric core: mean, sample and
// population standard deviation, coefficient of variation, variability
// reduction and the nearest-rank five-number summary. Every function is
// total; empty input and zero denominators yield 0, never NaN or Inf.
//
// derive.go provides the corpus derivations the dashboard renders:
// per-stage consistency, scenario comparison, distribution spread,
// parameter scatter, risk clustering and the headline KPI rollup. All
// derivations are pure functions over an immutable dataset value, so
// callers may memoize results keyed by filter and snapshot revision.
//
// Non-finite measurement values (NaN, ±Inf) are dropped when samples
// are gathered from the corpus, before any aggregation.
package stats
