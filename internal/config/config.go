// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults; Load() layers file/env.
// - Components receive configuration explicitly; no import-time globals.
package config

import "runtime"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// StorePath is the root directory holding challenge expected-output files.
	StorePath string `koanf:"store_path"`

	// DatabasePath is the SQLite database file. ":memory:" for ephemeral runs.
	DatabasePath string `koanf:"database_path"`

	// QueueSize bounds the in-memory submission job queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of scoring workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the duplicate-submission cache.
	DedupeSize int `koanf:"dedupe_size"`

	// EvalTimeoutMS bounds a single metric computation in milliseconds.
	EvalTimeoutMS int `koanf:"eval_timeout_ms"`

	// MaxLeaderboardLimit caps GET leaderboard ?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                ":9090",
		StorePath:           "./store",
		DatabasePath:        "./evalarena.db",
		QueueSize:           10_000,
		WorkerCount:         runtime.NumCPU() * 2,
		DedupeSize:          100_000,
		EvalTimeoutMS:       60_000,
		MaxLeaderboardLimit: 1000,
	}
}
