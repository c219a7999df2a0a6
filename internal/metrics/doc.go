// Package metrics exposes batchlens-server's own operational metrics
// in Prometheus format: HTTP traffic by route, query cache
// effectiveness, snapshot bookkeeping and WebSocket client count.
// Collectors live on a private registry so the exposition contains
// only what this server registers.
package metrics
