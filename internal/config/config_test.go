// Catalogus - Data Catalog Activity Streams
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogus

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigValidates(t *testing.T) {
	t.Parallel()
	cfg := defaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
	if cfg.Server.Port != 4327 {
		t.Errorf("default port = %d", cfg.Server.Port)
	}
	if cfg.Activity.DefaultPageLimit != 31 || cfg.Activity.MaxPageLimit != 100 {
		t.Errorf("default page limits = %d/%d", cfg.Activity.DefaultPageLimit, cfg.Activity.MaxPageLimit)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero port", func(c *Config) { c.Server.Port = 0 }},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }},
		{"empty db path", func(c *Config) { c.Database.Path = "" }},
		{"zero default page limit", func(c *Config) { c.Activity.DefaultPageLimit = 0 }},
		{"max below default", func(c *Config) { c.Activity.MaxPageLimit = 10; c.Activity.DefaultPageLimit = 31 }},
		{"empty system actor", func(c *Config) { c.Activity.SystemActorID = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation failure")
			}
		})
	}
}

func TestHiddenActors(t *testing.T) {
	t.Parallel()
	cfg := defaultConfig()
	cfg.Activity.HiddenActorIDs = []string{"harvester", "bot"}

	got := cfg.HiddenActors()
	want := []string{"system", "harvester", "bot"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestLoadLayersFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("server:\n  port: 9999\nactivity:\n  default_page_limit: 20\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("CATALOGUS_ACTIVITY__MAX_PAGE_LIMIT", "50")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("file value not applied: port = %d", cfg.Server.Port)
	}
	if cfg.Activity.DefaultPageLimit != 20 {
		t.Errorf("file value not applied: default_page_limit = %d", cfg.Activity.DefaultPageLimit)
	}
	if cfg.Activity.MaxPageLimit != 50 {
		t.Errorf("env override not applied: max_page_limit = %d", cfg.Activity.MaxPageLimit)
	}
	// Untouched keys keep their defaults.
	if cfg.Activity.SystemActorID != "system" {
		t.Errorf("default lost: system_actor_id = %q", cfg.Activity.SystemActorID)
	}
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 0\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	if _, err := Load(); err == nil {
		t.Fatal("invalid configuration must fail to load")
	}
}
