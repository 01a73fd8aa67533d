// AIOPicks - AI-Curated Media Catalog Engine
// Copyright 2026 qooode
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/qooode/aiopicks

package models

import "time"

// Profile is a user's configuration and identity. It is created on first
// resolution from a request and updated whenever override fields change;
// the engine never deletes profiles.
type Profile struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name,omitempty"`

	// Generation backend credentials and model choice.
	OpenRouterAPIKey string `json:"openrouter_api_key,omitempty"`
	OpenRouterModel  string `json:"openrouter_model,omitempty"`

	// History service credentials.
	TraktClientID    string `json:"trakt_client_id,omitempty"`
	TraktAccessToken string `json:"trakt_access_token,omitempty"`

	// Lane selection and sizing.
	LaneKeys      []string `json:"lane_keys,omitempty"`
	ItemsPerLane  int      `json:"items_per_lane"`
	TopUpAttempts int      `json:"topup_attempts"`

	// Cache and refresh policy.
	CacheTTLSeconds        int `json:"cache_ttl_seconds"`
	RefreshIntervalSeconds int `json:"refresh_interval_seconds"`

	// Optional metadata enrichment addon base URL.
	MetadataAddonURL string `json:"metadata_addon_url,omitempty"`

	// Lifetime history stats, refreshed alongside catalogs.
	MovieHistoryCount int `json:"movie_history_count,omitempty"`
	ShowHistoryCount  int `json:"show_history_count,omitempty"`

	LastRefreshedAt time.Time `json:"last_refreshed_at,omitempty"`
	NextRefreshAt   time.Time `json:"next_refresh_at,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// CacheTTL returns the cache staleness window as a duration.
func (p *Profile) CacheTTL() time.Duration {
	return time.Duration(p.CacheTTLSeconds) * time.Second
}

// RefreshInterval returns the background refresh interval as a duration.
func (p *Profile) RefreshInterval() time.Duration {
	return time.Duration(p.RefreshIntervalSeconds) * time.Second
}

// HasTraktCredentials reports whether the profile can fetch watch history.
func (p *Profile) HasTraktCredentials() bool {
	return p.TraktClientID != "" && p.TraktAccessToken != ""
}

// HasGenerationCredentials reports whether the profile can call the
// generation backend.
func (p *Profile) HasGenerationCredentials() bool {
	return p.OpenRouterAPIKey != ""
}
