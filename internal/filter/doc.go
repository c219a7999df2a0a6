// Package filter reduces a dataset to the subset matching a
// user-selected filter.
//
// A Filter carries four dimensions (products, stages, date range,
// scenario); a batch survives only if every active dimension accepts
// it, and every dependent collection is then cut down to the surviving
// batch universe so aggregates stay referentially consistent.
//
// Filtering is advisory, not a security boundary: unrecognised
// selector values never reject a query, they widen it. ResolveRange
// and ResolveScenario are the two policy functions encoding that
// fail-open rule.
package filter
