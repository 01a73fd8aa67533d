// AIOPicks - AI-Curated Media Catalog Engine
// Copyright 2026 qooode
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/qooode/aiopicks

package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.Port != 7000 {
		t.Errorf("default port = %d, want 7000", cfg.Server.Port)
	}
	if cfg.Catalog.ItemsPerLane != 8 {
		t.Errorf("default items per lane = %d, want 8", cfg.Catalog.ItemsPerLane)
	}
	if cfg.Catalog.TopUpAttempts != 3 {
		t.Errorf("default topup attempts = %d, want 3", cfg.Catalog.TopUpAttempts)
	}
	if cfg.Catalog.CacheTTL != 30*time.Minute {
		t.Errorf("default cache TTL = %s, want 30m", cfg.Catalog.CacheTTL)
	}
	if cfg.Catalog.RefreshInterval != 12*time.Hour {
		t.Errorf("default refresh interval = %s, want 12h", cfg.Catalog.RefreshInterval)
	}
	if cfg.Trakt.BaseURL != "https://api.trakt.tv" {
		t.Errorf("default trakt base url = %q", cfg.Trakt.BaseURL)
	}
	if cfg.Trakt.PageSize != 100 || cfg.Trakt.MaxPages != 100 {
		t.Errorf("default trakt paging = (%d, %d), want (100, 100)", cfg.Trakt.PageSize, cfg.Trakt.MaxPages)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("AIOPICKS_SERVER_PORT", "9090")
	t.Setenv("AIOPICKS_TRAKT_CLIENT_ID", "abc123")
	t.Setenv("AIOPICKS_CATALOG_ITEMS_PER_LANE", "12")
	t.Setenv("AIOPICKS_LOGGING_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Trakt.ClientID != "abc123" {
		t.Errorf("trakt client id = %q, want abc123", cfg.Trakt.ClientID)
	}
	if cfg.Catalog.ItemsPerLane != 12 {
		t.Errorf("items per lane = %d, want 12", cfg.Catalog.ItemsPerLane)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("logging level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoadSliceFieldsFromEnv(t *testing.T) {
	t.Setenv("AIOPICKS_CATALOG_LANE_KEYS", "because-you-watched, hidden-gems ,comfort-picks")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	want := []string{"because-you-watched", "hidden-gems", "comfort-picks"}
	if len(cfg.Catalog.LaneKeys) != len(want) {
		t.Fatalf("lane keys = %v, want %v", cfg.Catalog.LaneKeys, want)
	}
	for i, key := range want {
		if cfg.Catalog.LaneKeys[i] != key {
			t.Errorf("lane key[%d] = %q, want %q", i, cfg.Catalog.LaneKeys[i], key)
		}
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{
			name:   "port out of range",
			mutate: func(c *Config) { c.Server.Port = 0 },
			want:   "Server.Port",
		},
		{
			name:   "page size too large",
			mutate: func(c *Config) { c.Trakt.PageSize = 200 },
			want:   "Trakt.PageSize",
		},
		{
			name:   "bad log level",
			mutate: func(c *Config) { c.Logging.Level = "verbose" },
			want:   "Logging.Level",
		},
		{
			name:   "refresh shorter than ttl",
			mutate: func(c *Config) { c.Catalog.RefreshInterval = time.Minute },
			want:   "refresh_interval",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"AIOPICKS_SERVER_PORT", "server.port"},
		{"AIOPICKS_TRAKT_ACCESS_TOKEN", "trakt.access_token"},
		{"AIOPICKS_OPENROUTER_API_KEY", "openrouter.api_key"},
		{"AIOPICKS_CATALOG_REFRESH_INTERVAL", "catalog.refresh_interval"},
	}
	for _, tt := range tests {
		if got := envTransformFunc(tt.in); got != tt.want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
