// Package provider supplies dataset snapshots from one of three
// sources: built-in demo data, a JSON or YAML corpus file, or a SQLite
// database.
//
// demo.go builds the deterministic demo corpus used when no external
// source is configured.
//
// file.go loads corpus files and, via Watch, republishes the snapshot
// into the store whenever the file changes on disk. Content hashing
// suppresses reloads when an editor rewrites identical bytes, and a
// corpus that fails to parse keeps the previous snapshot active.
//
// sqlite.go loads the corpus from a SQLite database with one table per
// record type.
//
// The rest of the system never cares where a snapshot came from; a
// provider's only contract is a consistent domain.Dataset value.
package provider
