// AIOPicks - AI-Curated Media Catalog Engine
// Copyright 2026 qooode
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/qooode/aiopicks

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found is used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/aiopicks/config.yaml",
	"/etc/aiopicks/config.yml",
}

// ConfigPathEnvVar overrides the config file search path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by the config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            7000,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    120 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   120,
			RateLimitWindow: time.Minute,
		},
		Trakt: TraktConfig{
			BaseURL:          "https://api.trakt.tv",
			Timeout:          30 * time.Second,
			PageSize:         100,
			MaxPages:         100,
			PageAttempts:     3,
			MovieHistoryMax:  1000,
			ShowHistoryMax:   1000,
			BreakerThreshold: 5,
			BreakerCooldown:  30 * time.Second,
		},
		OpenRouter: OpenRouterConfig{
			BaseURL:           "https://openrouter.ai/api/v1",
			Model:             "openrouter/auto",
			Timeout:           120 * time.Second,
			RequestsPerMinute: 20,
			MaxTokens:         4096,
			Referer:           "https://github.com/qooode/aiopicks",
			Title:             "AIOPicks",
		},
		Catalog: CatalogConfig{
			ItemsPerLane:           8,
			TopUpAttempts:          3,
			LaneKeys:               nil, // nil means the full default lane set
			CacheTTL:               30 * time.Minute,
			RefreshInterval:        12 * time.Hour,
			RefreshPollInterval:    time.Minute,
			MaxConcurrentLanes:     4,
			MaxConcurrentRefreshes: 2,
		},
		Store: StoreConfig{
			Path:     "/data/aiopicks",
			InMemory: false,
		},
		Metadata: MetadataConfig{
			Enabled: false,
			BaseURL: "https://v3-cinemeta.strem.io",
			Timeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load builds the configuration from layered sources:
//  1. Defaults: built-in values
//  2. Config file: optional YAML file (if one exists)
//  3. Environment variables: override any setting
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// AIOPICKS_TRAKT_CLIENT_ID -> trakt.client_id
	envProvider := env.Provider("AIOPICKS_", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
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

// findConfigFile returns the first existing config file path, or "".
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

// envSectionPrefixes maps the first env var token after the app prefix to a
// config section. The remainder of the var name becomes the field path, so
// AIOPICKS_CATALOG_ITEMS_PER_LANE resolves to catalog.items_per_lane.
var envSectionPrefixes = []string{
	"server",
	"trakt",
	"openrouter",
	"catalog",
	"store",
	"metadata",
	"logging",
}

// envTransformFunc transforms environment variable names to koanf paths.
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, "AIOPICKS_"))
	for _, section := range envSectionPrefixes {
		if strings.HasPrefix(key, section+"_") {
			return section + "." + strings.TrimPrefix(key, section+"_")
		}
	}
	// Unknown prefixes are ignored by unmarshal.
	return key
}

// sliceConfigPaths lists config paths parsed as comma-separated slices when
// supplied via env vars (env values arrive as plain strings).
var sliceConfigPaths = []string{
	"server.cors_origins",
	"catalog.lane_keys",
}

// processSliceFields converts comma-separated strings into slices for known
// slice fields.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		strVal, ok := val.(string)
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
