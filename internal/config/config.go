// Catalogus - Data Catalog Activity Streams
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogus

// Package config loads and validates Catalogus configuration.
//
// Configuration is loaded via Koanf v2 with layered sources, highest
// priority last: built-in defaults, an optional YAML config file, then
// CATALOGUS_-prefixed environment variables.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the Catalogus server.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Activity ActivityConfig `koanf:"activity"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the listen address. Empty binds all interfaces.
	Host string `koanf:"host"`

	// Port is the HTTP listen port.
	Port int `koanf:"port"`

	// ReadTimeout bounds request header+body reads.
	ReadTimeout time.Duration `koanf:"read_timeout"`

	// WriteTimeout bounds response writes.
	WriteTimeout time.Duration `koanf:"write_timeout"`

	// ShutdownTimeout bounds the graceful-shutdown drain.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// RateLimit is the per-IP request limit per minute. 0 disables.
	RateLimit int `koanf:"rate_limit"`

	// CORSAllowedOrigins lists origins allowed by the CORS middleware.
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	// Path is the DuckDB database file. ":memory:" for ephemeral use.
	Path string `koanf:"path"`

	// MaxMemory is the DuckDB memory cap (e.g. "2GB").
	MaxMemory string `koanf:"max_memory"`

	// Threads is the DuckDB thread count. 0 uses runtime.NumCPU().
	Threads int `koanf:"threads"`
}

// ActivityConfig holds feed-engine settings.
type ActivityConfig struct {
	// DefaultPageLimit is the page size when the caller supplies none.
	DefaultPageLimit int `koanf:"default_page_limit"`

	// MaxPageLimit is the largest page size a caller may request.
	MaxPageLimit int `koanf:"max_page_limit"`

	// SystemActorID identifies the built-in system actor whose activity
	// is hidden from feeds unless include_hidden is set.
	SystemActorID string `koanf:"system_actor_id"`

	// HiddenActorIDs lists additional actor ids to hide from feeds.
	HiddenActorIDs []string `koanf:"hidden_actor_ids"`

	// RetentionDays bounds the administrative purge helper. 0 means no
	// automatic retention cutoff is suggested.
	RetentionDays int `koanf:"retention_days"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Validate checks the configuration for inconsistent values.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in (0, 65535], got %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if c.Activity.DefaultPageLimit <= 0 {
		return fmt.Errorf("activity.default_page_limit must be positive, got %d", c.Activity.DefaultPageLimit)
	}
	if c.Activity.MaxPageLimit < c.Activity.DefaultPageLimit {
		return fmt.Errorf("activity.max_page_limit (%d) must not be below default_page_limit (%d)",
			c.Activity.MaxPageLimit, c.Activity.DefaultPageLimit)
	}
	if c.Activity.SystemActorID == "" {
		return fmt.Errorf("activity.system_actor_id must not be empty")
	}
	return nil
}

// HiddenActors returns the full hidden-actor set: the system actor plus
// any configured additions.
func (c *Config) HiddenActors() []string {
	out := make([]string, 0, len(c.Activity.HiddenActorIDs)+1)
	out = append(out, c.Activity.SystemActorID)
	out = append(out, c.Activity.HiddenActorIDs...)
	return out
}
