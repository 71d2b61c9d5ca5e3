// Beacon KPI - CRM Sync and Regional KPI Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beaconkpi

// Package config loads the application configuration.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: built-in values from defaultConfig()
//  2. Config File: optional YAML file (config.yaml, or CONFIG_PATH)
//  3. Environment Variables: override any setting
//
// Config is immutable after Load() and safe for concurrent reads.
package config

import (
	"time"
)

// Config holds all application configuration.
type Config struct {
	Beacon      BeaconConfig    `koanf:"beacon"`
	Sync        SyncConfig      `koanf:"sync"`
	Notify      NotifyConfig    `koanf:"notify"`
	Warehouse   WarehouseConfig `koanf:"warehouse"`
	Cache       CacheConfig     `koanf:"cache"`
	CaseStudies CaseStudyConfig `koanf:"case_studies"`
	Archive     ArchiveConfig   `koanf:"archive"`
	Server      ServerConfig    `koanf:"server"`
	Logging     LoggingConfig   `koanf:"logging"`
}

// BeaconConfig holds Beacon CRM API settings.
//
// Environment Variables:
//   - BEACON_API_KEY: bearer token (required for API sync)
//   - BEACON_ACCOUNT_ID: substituted into {account_id} of the base URL
//   - BEACON_BASE_URL: base URL template
//   - BEACON_PER_PAGE, BEACON_MAX_PAGES: pagination limits (50, 200)
//   - BEACON_TIMEOUT: per-request timeout (45s)
//   - BEACON_REQUESTS_PER_SECOND: request pacing, 0 disables (5)
//   - BEACON_ATTENDANCE_ENDPOINT: attendance endpoint tried before the built-in candidates
//   - BEACON_ATTENDANCE_HEURISTICS: enable the recursive id scan (true)
type BeaconConfig struct {
	APIKey               string        `koanf:"api_key"`
	AccountID            string        `koanf:"account_id"`
	BaseURL              string        `koanf:"base_url"`
	PerPage              int           `koanf:"per_page"`
	MaxPages             int           `koanf:"max_pages"`
	Timeout              time.Duration `koanf:"timeout"`
	RequestsPerSecond    float64       `koanf:"requests_per_second"`
	AttendanceEndpoint   string        `koanf:"attendance_endpoint"`
	AttendanceHeuristics bool          `koanf:"attendance_heuristics"`
}

// SyncConfig holds orchestrator and scheduler settings.
type SyncConfig struct {
	// MaxAttempts is the total number of whole-sync attempts, first included.
	MaxAttempts int `koanf:"max_attempts"`

	// RetryDelay is the wait between whole-sync attempts. Minimum 30s.
	RetryDelay time.Duration `koanf:"retry_delay"`

	Interval     time.Duration `koanf:"interval"`
	OnStartup    bool          `koanf:"on_startup"`
	ChunkSize    int           `koanf:"chunk_size"`
	MinChunkSize int           `koanf:"min_chunk_size"`
}

// NotifyConfig holds outbound sync notification settings.
type NotifyConfig struct {
	WebhookURL string        `koanf:"webhook_url"`
	OnSuccess  bool          `koanf:"on_success"`
	RateLimit  time.Duration `koanf:"rate_limit"`
	Timeout    time.Duration `koanf:"timeout"`
}

// WarehouseConfig selects and configures the warehouse backend.
type WarehouseConfig struct {
	// Driver is one of duckdb, postgres, sqlite.
	Driver string `koanf:"driver"`

	// DSN is a file path for duckdb/sqlite or a connection URL for postgres.
	DSN string `koanf:"dsn"`

	// StatementTimeout is a Postgres session setting; DuckDB and SQLite get
	// a per-statement context deadline instead. 0 disables.
	StatementTimeout time.Duration `koanf:"statement_timeout"`

	MaxMemory string `koanf:"max_memory"` // DuckDB only
	Threads   int    `koanf:"threads"`    // DuckDB only, 0 = runtime.NumCPU()
}

// CacheConfig holds report cache settings.
type CacheConfig struct {
	ReportTTL time.Duration `koanf:"report_ttl"`
}

// CaseStudyConfig selects the case-study backend: "warehouse" stores them
// next to the Beacon tables, "badger" keeps them in a local Badger directory.
type CaseStudyConfig struct {
	Store string `koanf:"store"`
	Path  string `koanf:"path"`
}

// ArchiveConfig enables S3 archival of sync summaries when Bucket is set.
type ArchiveConfig struct {
	Bucket   string `koanf:"bucket"`
	Prefix   string `koanf:"prefix"`
	Region   string `koanf:"region"`
	Endpoint string `koanf:"endpoint"` // S3-compatible endpoint override
}

// Enabled reports whether a bucket is configured.
func (a ArchiveConfig) Enabled() bool { return a.Bucket != "" }

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	Timeout         time.Duration `koanf:"timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimitReqs   int           `koanf:"rate_limit_requests"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// LoggingConfig holds logging settings.
//
// Environment Variables:
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, console (default: json)
//   - LOG_CALLER: true/false - include caller file:line (default: false)
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Load reads configuration from defaults, an optional config file and the
// environment, in that order of increasing priority.
//
// See LoadWithKoanf() for the underlying implementation.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
