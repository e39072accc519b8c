// Package config loads and validates the gaugefetch YAML configuration:
// the bind address, log level, startup-scrape flag and the list of targets
// with their extraction rules. Validation failures are fatal — the process
// must not start serving with a config it cannot fully honor.
//
// Watch (watch.go) monitors the file for edits and reloads it; targets are
// compiled once at startup, so a reload currently surfaces through the
// onChange callback and logs only.
package config
