// Package config loads and validates the batchlens-server YAML
// configuration.
//
// config.go defines the configuration tree (HTTP server, dataset
// source, gateway scraper, alerting) and Load, which fills defaults,
// parses the file and validates the result.
//
// watch.go re-loads the file on change so alert rules and webhook
// targets can be adjusted without a restart. A reload that fails
// validation keeps the previous configuration active.
//
// Secrets (API keys, webhook URLs) are never stored in the file
// itself; the file names environment variables and the accessors
// resolve them at call time.
package config
