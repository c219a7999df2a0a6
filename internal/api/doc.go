// Package api implements the HTTP REST API for batchlens-server.
//
// New returns an http.Handler that serves:
//
//	GET /api/v1/health             - corpus revision, swap time, collection counts
//	GET /api/v1/kpis               - headline KPI rollup over the filtered corpus
//	GET /api/v1/stats/titer-cv     - per-stage Titer mean and CV
//	GET /api/v1/stats/scenarios    - baseline vs optimized comparison
//	GET /api/v1/stats/distribution - per-stage five-number Titer summary
//	GET /api/v1/stats/scatter      - parameter-vs-outcome points (phase, parameter, attribute)
//	GET /api/v1/stats/risk         - stable/variable risk partition
//	GET /api/v1/batches            - filtered batch rows joined with titer and risk
//	GET /api/v1/filters            - selectable values per filter dimension
//	GET /api/v1/alerts             - firing alerts plus the recently resolved tail
//	PUT /api/v1/dataset            - replace the corpus snapshot (API-key guarded)
//
// Read endpoints accept the filter query parameters products and stages
// (comma-separated lists), range and scenario. Unknown selector values
// fall open to unrestricted instead of erroring.
//
// Statistics responses are memoized per (filter, revision) pair; a
// corpus swap invalidates every cached body. All endpoints respond with
// Content-Type: application/json and return 405 for unsupported methods.
//
// JSON types are defined in types.go. No external HTTP framework is used.
package api
