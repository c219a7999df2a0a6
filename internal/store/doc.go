// Package store holds the published dataset snapshot for the session.
// It provides a thread-safe single-slot store: providers replace the
// whole snapshot atomically, readers get a consistent view, and a
// monotonic revision number lets callers key caches and detect change.
package store
