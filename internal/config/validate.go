// Beacon KPI - CRM Sync and Regional KPI Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beaconkpi

package config

import (
	"fmt"
	"net/url"
	"time"
)

// MinRetryDelay is the shortest allowed wait between whole-sync attempts.
const MinRetryDelay = 30 * time.Second

// Validate checks that configuration values are usable. Beacon credentials
// are not required here because CSV-only deployments never call the API;
// beacon.NewClient rejects missing credentials instead.
func (c *Config) Validate() error {
	if err := c.validateBeacon(); err != nil {
		return err
	}
	if err := c.validateSync(); err != nil {
		return err
	}
	if err := c.validateNotify(); err != nil {
		return err
	}
	if err := c.validateWarehouse(); err != nil {
		return err
	}
	if err := c.validateCaseStudies(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateBeacon() error {
	if c.Beacon.PerPage < 1 || c.Beacon.PerPage > 500 {
		return fmt.Errorf("BEACON_PER_PAGE must be between 1 and 500, got %d", c.Beacon.PerPage)
	}
	if c.Beacon.MaxPages < 1 {
		return fmt.Errorf("BEACON_MAX_PAGES must be positive, got %d", c.Beacon.MaxPages)
	}
	if c.Beacon.RequestsPerSecond < 0 {
		return fmt.Errorf("BEACON_REQUESTS_PER_SECOND must not be negative")
	}
	if c.Beacon.BaseURL != "" {
		if err := validateHTTPURL(c.Beacon.BaseURL, "BEACON_BASE_URL"); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateSync() error {
	if c.Sync.MaxAttempts < 1 {
		return fmt.Errorf("SYNC_MAX_ATTEMPTS must be at least 1, got %d", c.Sync.MaxAttempts)
	}
	if c.Sync.RetryDelay < MinRetryDelay {
		return fmt.Errorf("SYNC_RETRY_DELAY_SECONDS must be at least %d, got %v", int(MinRetryDelay.Seconds()), c.Sync.RetryDelay)
	}
	if c.Sync.Interval < time.Minute {
		return fmt.Errorf("SYNC_INTERVAL must be at least 1m, got %v", c.Sync.Interval)
	}
	return c.validateChunkSizes()
}

func (c *Config) validateChunkSizes() error {
	if c.Sync.MinChunkSize < 1 {
		return fmt.Errorf("SYNC_MIN_CHUNK_SIZE must be positive, got %d", c.Sync.MinChunkSize)
	}
	if c.Sync.ChunkSize < c.Sync.MinChunkSize {
		return fmt.Errorf("SYNC_CHUNK_SIZE (%d) must not be smaller than SYNC_MIN_CHUNK_SIZE (%d)",
			c.Sync.ChunkSize, c.Sync.MinChunkSize)
	}
	return nil
}

func (c *Config) validateNotify() error {
	if c.Notify.WebhookURL == "" {
		return nil
	}
	return validateHTTPURL(c.Notify.WebhookURL, "SYNC_ALERT_WEBHOOK_URL")
}

var validDrivers = map[string]bool{
	"duckdb":   true,
	"postgres": true,
	"sqlite":   true,
}

func (c *Config) validateWarehouse() error {
	if !validDrivers[c.Warehouse.Driver] {
		return fmt.Errorf("WAREHOUSE_DRIVER must be one of: duckdb, postgres, sqlite")
	}
	if c.Warehouse.DSN == "" {
		return fmt.Errorf("WAREHOUSE_DSN is required")
	}
	if c.Warehouse.StatementTimeout < 0 {
		return fmt.Errorf("WAREHOUSE_STATEMENT_TIMEOUT must not be negative")
	}
	return nil
}

func (c *Config) validateCaseStudies() error {
	switch c.CaseStudies.Store {
	case "warehouse":
		return nil
	case "badger":
		if c.CaseStudies.Path == "" {
			return fmt.Errorf("CASE_STUDY_PATH is required when CASE_STUDY_STORE=badger")
		}
		return nil
	default:
		return fmt.Errorf("CASE_STUDY_STORE must be one of: warehouse, badger")
	}
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.RateLimitReqs < 1 {
		return fmt.Errorf("RATE_LIMIT_REQS must be positive")
	}
	if c.Server.RateLimitWindow < time.Second {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be at least 1s")
	}
	return nil
}

// validLogLevels defines the allowed log levels
var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validLogFormats defines the allowed log formats
var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

// validateHTTPURL checks scheme and host. Paths are allowed since both the
// Beacon base URL and webhook URLs carry one.
func validateHTTPURL(rawURL, fieldName string) error {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%s failed to parse URL: %w", fieldName, err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("%s scheme must be http or https, got: %s", fieldName, parsedURL.Scheme)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("%s host is required", fieldName)
	}
	return nil
}
