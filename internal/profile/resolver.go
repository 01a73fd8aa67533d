// AIOPicks - AI-Curated Media Catalog Engine
// Copyright 2026 qooode
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/qooode/aiopicks

// Package profile resolves request-level overrides to a stable profile
// identity and keeps the stored profile record in sync with the supplied
// settings.
package profile

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/qooode/aiopicks/internal/config"
	"github.com/qooode/aiopicks/internal/logging"
	"github.com/qooode/aiopicks/internal/models"
	"github.com/qooode/aiopicks/internal/store"
	"github.com/qooode/aiopicks/internal/trakt"
)

// DefaultProfileID is the shared profile used when a request carries no
// identity signal at all.
const DefaultProfileID = "default"

// IdentityFetcher resolves "who am I" against the history service.
// Implemented by trakt.Ingestor.
type IdentityFetcher interface {
	FetchIdentity(ctx context.Context, creds trakt.Credentials) (*trakt.Identity, error)
}

// ProfileStore is the persistence surface the resolver needs.
// Implemented by store.Store.
type ProfileStore interface {
	LoadProfile(id string) (*models.Profile, error)
	SaveProfile(profile *models.Profile) error
}

// Overrides carries the request-level settings that feed resolution. Zero
// values mean "not supplied" and fall back to stored or instance defaults.
type Overrides struct {
	ProfileHint            string
	TraktClientID          string
	TraktAccessToken       string
	OpenRouterAPIKey       string
	OpenRouterModel        string
	LaneKeys               []string
	ItemsPerLane           int
	CacheTTLSeconds        int
	RefreshIntervalSeconds int
	MetadataAddonURL       string
}

// Resolution is the outcome of a resolve call. CredentialsChanged reports
// that stored upstream credentials were replaced, which forces a refresh.
type Resolution struct {
	Profile            *models.Profile
	Created            bool
	CredentialsChanged bool
}

// Resolver derives profile identities and maintains profile records.
type Resolver struct {
	store    ProfileStore
	identity IdentityFetcher
	cfg      *config.Config
}

// NewResolver creates a resolver using the given store and identity
// fetcher. The config supplies instance-wide fallbacks for credentials
// and catalog sizing.
func NewResolver(s ProfileStore, identity IdentityFetcher, cfg *config.Config) *Resolver {
	return &Resolver{store: s, identity: identity, cfg: cfg}
}

// Resolve determines the stable profile id for the overrides, then loads
// or creates the profile record and applies the supplied settings.
//
// Identity wins over an explicit hint: when a history-service token
// resolves to an account, requests with and without the hint land on the
// same profile.
func (r *Resolver) Resolve(ctx context.Context, ov Overrides) (*Resolution, error) {
	id, displayName := r.deriveIdentity(ctx, ov)

	existing, err := r.store.LoadProfile(id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		existing = nil
	case err != nil:
		return nil, fmt.Errorf("load profile %s: %w", id, err)
	}

	now := time.Now().UTC()
	res := &Resolution{}
	if existing == nil {
		res.Created = true
		existing = &models.Profile{
			ID:        id,
			CreatedAt: now,
		}
	}
	res.Profile = existing

	changed := r.applyOverrides(existing, ov, displayName, res)

	if res.Created || changed {
		existing.UpdatedAt = now
		if err := r.store.SaveProfile(existing); err != nil {
			return nil, fmt.Errorf("save profile %s: %w", id, err)
		}
	}
	return res, nil
}

// deriveIdentity computes the stable profile id, and a display name when
// the history service supplied one.
func (r *Resolver) deriveIdentity(ctx context.Context, ov Overrides) (id, displayName string) {
	token := ov.TraktAccessToken
	clientID := ov.TraktClientID
	if token == "" {
		token = r.cfg.Trakt.AccessToken
		clientID = r.cfg.Trakt.ClientID
	}

	if token != "" {
		creds := trakt.Credentials{ClientID: clientID, AccessToken: token}
		identity, err := r.identity.FetchIdentity(ctx, creds)
		if err == nil && identity != nil {
			if slug := models.Slugify(identity.Slug()); slug != "" && slug != "catalog" {
				name := identity.User.Name
				if name == "" {
					name = identity.User.Username
				}
				return "trakt-" + slug, name
			}
		}
		if err != nil {
			// Identity lookups are best effort; a failure falls through
			// to the token digest so the caller is never blocked.
			logging.Debug().Err(err).Msg("trakt identity lookup failed, using token digest")
		}
		return "trakt-" + digest12(token), ""
	}

	if ov.ProfileHint != "" {
		if slug := models.Slugify(ov.ProfileHint); slug != "" && slug != "catalog" {
			return slug, ""
		}
	}

	if ov.OpenRouterAPIKey != "" {
		return "user-" + digest12(ov.OpenRouterAPIKey), ""
	}

	return DefaultProfileID, ""
}

// applyOverrides folds request settings into the profile and reports
// whether anything changed. Credential replacements additionally flag the
// resolution so the caller can force a refresh.
func (r *Resolver) applyOverrides(p *models.Profile, ov Overrides, displayName string, res *Resolution) bool {
	changed := false

	setString := func(dst *string, val string) {
		if val != "" && val != *dst {
			*dst = val
			changed = true
		}
	}
	setCredential := func(dst *string, val string) {
		if val != "" && val != *dst {
			*dst = val
			changed = true
			res.CredentialsChanged = true
		}
	}
	setInt := func(dst *int, val int) {
		if val > 0 && val != *dst {
			*dst = val
			changed = true
		}
	}

	setString(&p.DisplayName, displayName)
	setCredential(&p.TraktClientID, ov.TraktClientID)
	setCredential(&p.TraktAccessToken, ov.TraktAccessToken)
	setCredential(&p.OpenRouterAPIKey, ov.OpenRouterAPIKey)
	setCredential(&p.OpenRouterModel, ov.OpenRouterModel)
	setString(&p.MetadataAddonURL, ov.MetadataAddonURL)
	setInt(&p.ItemsPerLane, ov.ItemsPerLane)
	setInt(&p.CacheTTLSeconds, ov.CacheTTLSeconds)
	setInt(&p.RefreshIntervalSeconds, ov.RefreshIntervalSeconds)

	if len(ov.LaneKeys) > 0 && !slices.Equal(p.LaneKeys, ov.LaneKeys) {
		p.LaneKeys = slices.Clone(ov.LaneKeys)
		changed = true
	}

	// New profiles inherit instance defaults for anything not overridden.
	if res.Created {
		if p.ItemsPerLane == 0 {
			p.ItemsPerLane = r.cfg.Catalog.ItemsPerLane
		}
		if p.TopUpAttempts == 0 {
			p.TopUpAttempts = r.cfg.Catalog.TopUpAttempts
		}
		if p.CacheTTLSeconds == 0 {
			p.CacheTTLSeconds = int(r.cfg.Catalog.CacheTTL.Seconds())
		}
		if p.RefreshIntervalSeconds == 0 {
			p.RefreshIntervalSeconds = int(r.cfg.Catalog.RefreshInterval.Seconds())
		}
		if p.TraktClientID == "" {
			p.TraktClientID = r.cfg.Trakt.ClientID
		}
		if p.TraktAccessToken == "" {
			p.TraktAccessToken = r.cfg.Trakt.AccessToken
		}
		if p.OpenRouterAPIKey == "" {
			p.OpenRouterAPIKey = r.cfg.OpenRouter.APIKey
		}
		if p.OpenRouterModel == "" {
			p.OpenRouterModel = r.cfg.OpenRouter.Model
		}
	}

	return changed
}

func digest12(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])[:12]
}
