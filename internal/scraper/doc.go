// Package scraper polls the equipment gateway's Prometheus-format
// metrics endpoint and refreshes bioreactor statuses in the published
// snapshot.
//
// The gateway exposes one bioreactor_running gauge per vessel, labelled
// with the bioreactor ID. A value of 1 maps to the Running status,
// anything else to Idle. A failed or unparseable poll keeps the
// previous statuses; equipment visibility degrades to stale rather
// than empty.
package scraper
