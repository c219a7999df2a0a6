// Package ws implements the WebSocket hub for batchlens-server.
//
// Hub manages a set of connected dashboard clients and pushes the
// headline KPI summary to all of them whenever the dataset snapshot is
// replaced (via Notify), plus optionally on a fixed interval.
//
// New(store, interval) creates a Hub; an interval of 0 disables the
// timer so broadcasts are purely swap-driven.
// Hub.Run(ctx) drives broadcasting and blocks until ctx is cancelled,
// then closes all active connections.
// Hub.ServeHTTP upgrades an HTTP connection to WebSocket and sends the
// current summary immediately so the UI has data on connect.
//
// Message format sent to clients:
//
//	{
//	  "event": "summary",
//	  "data":  { "revision": 3, "updated_at": "...", "kpis": { ... }, "counts": { ... } }
//	}
//
// The upgrader accepts all origins. Apply CORS restrictions at the
// reverse proxy level. The server mounts the endpoint at /ws/stream.
package ws
