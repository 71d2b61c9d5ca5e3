// Beacon KPI - CRM Sync and Regional KPI Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beaconkpi

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/beaconkpi/config.yaml",
	"/etc/beaconkpi/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Beacon: BeaconConfig{
			BaseURL:              "https://api.beaconcrm.org/v1/account/{account_id}",
			PerPage:              50,
			MaxPages:             200,
			Timeout:              45 * time.Second,
			RequestsPerSecond:    5,
			AttendanceHeuristics: true,
		},
		Sync: SyncConfig{
			MaxAttempts:  2,
			RetryDelay:   30 * time.Second,
			Interval:     6 * time.Hour,
			OnStartup:    false,
			ChunkSize:    200,
			MinChunkSize: 25,
		},
		Notify: NotifyConfig{
			RateLimit: time.Second,
			Timeout:   10 * time.Second,
		},
		Warehouse: WarehouseConfig{
			Driver:    "duckdb",
			DSN:       "/data/beaconkpi.duckdb",
			MaxMemory: "1GB",
		},
		Cache: CacheConfig{
			ReportTTL: 5 * time.Minute,
		},
		CaseStudies: CaseStudyConfig{
			Store: "warehouse",
			Path:  "/data/case-studies",
		},
		Archive: ArchiveConfig{
			Prefix: "beacon-sync/",
		},
		Server: ServerConfig{
			Port:            8080,
			Host:            "0.0.0.0",
			Timeout:         30 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any setting
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}
	if err := processSecondsFields(k); err != nil {
		return nil, fmt.Errorf("failed to process duration fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"server.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// Env vars come in as strings, but the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// secondsConfigPaths are durations that also accept a bare number of
// seconds, e.g. SYNC_RETRY_DELAY_SECONDS=45.
var secondsConfigPaths = []string{
	"sync.retry_delay",
}

func processSecondsFields(k *koanf.Koanf) error {
	for _, path := range secondsConfigPaths {
		var seconds float64
		switch v := k.Get(path).(type) {
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				continue // not a bare number; let the duration decoder handle it
			}
			seconds = f
		case int:
			seconds = float64(v)
		case int64:
			seconds = float64(v)
		case float64:
			seconds = v
		default:
			continue
		}
		if err := k.Set(path, time.Duration(seconds*float64(time.Second))); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to koanf paths.
var envMappings = map[string]string{
	// Beacon CRM
	"beacon_api_key":               "beacon.api_key",
	"beacon_account_id":            "beacon.account_id",
	"beacon_base_url":              "beacon.base_url",
	"beacon_per_page":              "beacon.per_page",
	"beacon_max_pages":             "beacon.max_pages",
	"beacon_timeout":               "beacon.timeout",
	"beacon_requests_per_second":   "beacon.requests_per_second",
	"beacon_attendance_endpoint":   "beacon.attendance_endpoint",
	"beacon_attendance_heuristics": "beacon.attendance_heuristics",

	// Sync
	"sync_max_attempts":        "sync.max_attempts",
	"sync_retry_delay_seconds": "sync.retry_delay",
	"sync_retry_delay":         "sync.retry_delay",
	"sync_interval":            "sync.interval",
	"sync_on_startup":          "sync.on_startup",
	"sync_chunk_size":          "sync.chunk_size",
	"sync_min_chunk_size":      "sync.min_chunk_size",

	// Notifications
	"sync_alert_webhook_url": "notify.webhook_url",
	"sync_notify_on_success": "notify.on_success",
	"notify_rate_limit":      "notify.rate_limit",
	"notify_timeout":         "notify.timeout",

	// Warehouse
	"warehouse_driver":            "warehouse.driver",
	"warehouse_dsn":               "warehouse.dsn",
	"database_url":                "warehouse.dsn",
	"warehouse_statement_timeout": "warehouse.statement_timeout",
	"duckdb_max_memory":           "warehouse.max_memory",
	"duckdb_threads":              "warehouse.threads",

	// Report cache
	"report_cache_ttl": "cache.report_ttl",

	// Case studies
	"case_study_store": "case_studies.store",
	"case_study_path":  "case_studies.path",

	// Archive
	"archive_s3_bucket":   "archive.bucket",
	"archive_s3_prefix":   "archive.prefix",
	"archive_s3_endpoint": "archive.endpoint",
	"aws_region":          "archive.region",

	// Server
	"http_port":         "server.port",
	"http_host":         "server.host",
	"http_timeout":      "server.timeout",
	"cors_origins":      "server.cors_origins",
	"rate_limit_reqs":   "server.rate_limit_requests",
	"rate_limit_window": "server.rate_limit_window",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - BEACON_API_KEY -> beacon.api_key
//   - SYNC_RETRY_DELAY_SECONDS -> sync.retry_delay
//   - DATABASE_URL -> warehouse.dsn
//   - HTTP_PORT -> server.port
//
// Unmapped keys return an empty string so that unrelated environment
// variables never reach the config.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
