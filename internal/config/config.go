// AIOPicks - AI-Curated Media Catalog Engine
// Copyright 2026 qooode
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/qooode/aiopicks

package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the root configuration for the catalog engine.
//
// Values here are instance-wide defaults. Per-profile overrides (model,
// lane selection, item counts, cache policy) are resolved on top of these
// by the profile resolver.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Trakt      TraktConfig      `koanf:"trakt"`
	OpenRouter OpenRouterConfig `koanf:"openrouter"`
	Catalog    CatalogConfig    `koanf:"catalog"`
	Store      StoreConfig      `koanf:"store"`
	Metadata   MetadataConfig   `koanf:"metadata"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs" validate:"min=0"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// TraktConfig holds defaults for the watch-history service client.
// The client id and access token here act as instance-wide fallbacks;
// profiles normally carry their own credentials.
type TraktConfig struct {
	BaseURL          string        `koanf:"base_url" validate:"required,url"`
	ClientID         string        `koanf:"client_id"`
	AccessToken      string        `koanf:"access_token"`
	Timeout          time.Duration `koanf:"timeout"`
	PageSize         int           `koanf:"page_size" validate:"min=1,max=100"`
	MaxPages         int           `koanf:"max_pages" validate:"min=1,max=100"`
	PageAttempts     int           `koanf:"page_attempts" validate:"min=1,max=10"`
	MovieHistoryMax  int           `koanf:"movie_history_max" validate:"min=0"`
	ShowHistoryMax   int           `koanf:"show_history_max" validate:"min=0"`
	BreakerThreshold int           `koanf:"breaker_threshold" validate:"min=1"`
	BreakerCooldown  time.Duration `koanf:"breaker_cooldown"`
}

// OpenRouterConfig holds defaults for the generation backend client.
type OpenRouterConfig struct {
	BaseURL           string        `koanf:"base_url" validate:"required,url"`
	APIKey            string        `koanf:"api_key"`
	Model             string        `koanf:"model"`
	Timeout           time.Duration `koanf:"timeout"`
	RequestsPerMinute int           `koanf:"requests_per_minute" validate:"min=1"`
	MaxTokens         int           `koanf:"max_tokens" validate:"min=256"`
	Referer           string        `koanf:"referer"`
	Title             string        `koanf:"title"`
}

// CatalogConfig holds instance-wide catalog generation and refresh policy.
type CatalogConfig struct {
	ItemsPerLane           int           `koanf:"items_per_lane" validate:"min=1,max=50"`
	TopUpAttempts          int           `koanf:"topup_attempts" validate:"min=0,max=10"`
	LaneKeys               []string      `koanf:"lane_keys"`
	CacheTTL               time.Duration `koanf:"cache_ttl"`
	RefreshInterval        time.Duration `koanf:"refresh_interval"`
	RefreshPollInterval    time.Duration `koanf:"refresh_poll_interval"`
	MaxConcurrentLanes     int           `koanf:"max_concurrent_lanes" validate:"min=1,max=16"`
	MaxConcurrentRefreshes int           `koanf:"max_concurrent_refreshes" validate:"min=1,max=16"`
}

// StoreConfig holds persistence settings for the Badger-backed store.
type StoreConfig struct {
	Path     string `koanf:"path" validate:"required"`
	InMemory bool   `koanf:"in_memory"`
}

// MetadataConfig holds settings for the optional metadata enrichment addon.
type MetadataConfig struct {
	Enabled bool          `koanf:"enabled"`
	BaseURL string        `koanf:"base_url" validate:"omitempty,url"`
	Timeout time.Duration `koanf:"timeout"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration for invalid values. It is called after
// all layers (defaults, file, env) have been merged.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			first := verrs[0]
			return fmt.Errorf("config field %s failed %q validation", first.Namespace(), first.Tag())
		}
		return err
	}
	if c.Catalog.CacheTTL <= 0 {
		return fmt.Errorf("catalog.cache_ttl must be positive, got %s", c.Catalog.CacheTTL)
	}
	if c.Catalog.RefreshInterval < c.Catalog.CacheTTL {
		return fmt.Errorf("catalog.refresh_interval (%s) must not be shorter than catalog.cache_ttl (%s)",
			c.Catalog.RefreshInterval, c.Catalog.CacheTTL)
	}
	return nil
}
