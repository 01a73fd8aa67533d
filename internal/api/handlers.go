// AIOPicks - AI-Curated Media Catalog Engine
// Copyright 2026 qooode
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/qooode/aiopicks

package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/qooode/aiopicks/internal/logging"
	"github.com/qooode/aiopicks/internal/models"
	"github.com/qooode/aiopicks/internal/profile"
	"github.com/qooode/aiopicks/internal/store"
)

// manifest is the addon descriptor Stremio fetches on install.
type manifest struct {
	ID          string                 `json:"id"`
	Version     string                 `json:"version"`
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Catalogs    []models.ManifestEntry `json:"catalogs"`
	Resources   []string               `json:"resources"`
	Types       []string               `json:"types"`
	IDPrefixes  []string               `json:"idPrefixes"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Version: addonVersion,
		Uptime:  time.Since(s.started).Truncate(time.Second).String(),
	})
}

// handleManifest resolves the caller's profile from query overrides,
// kicks off a non-blocking refresh when needed, and lists whatever lanes
// currently exist under profile-scoped ids.
func (s *Server) handleManifest(w http.ResponseWriter, r *http.Request) {
	res, err := s.resolver.Resolve(r.Context(), overridesFromQuery(r))
	if err != nil {
		logger := logging.Ctx(r.Context())
		logger.Error().Err(err).Msg("Profile resolution failed")
		writeError(w, http.StatusInternalServerError, "profile resolution failed")
		return
	}

	// A credential change or a brand-new profile forces regeneration; the
	// manifest itself never blocks on it.
	force := res.Created || res.CredentialsChanged
	bundle, err := s.catalogs.EnsureFresh(r.Context(), res.Profile, force, false)
	if err != nil {
		logger := logging.Ctx(r.Context())
		logger.Error().Err(err).Str("profile", res.Profile.ID).Msg("Lane lookup failed")
		writeError(w, http.StatusInternalServerError, "catalog lookup failed")
		return
	}

	entries := []models.ManifestEntry{}
	if bundle != nil {
		scoped := bundle.Scoped(res.Profile.ID)
		for _, lane := range scoped.Catalogs() {
			entries = append(entries, lane.ToManifestEntry())
		}
	}

	writeJSON(w, http.StatusOK, manifest{
		ID:          "com.aiopicks.catalogs",
		Version:     addonVersion,
		Name:        "AIOPicks",
		Description: "Dynamic, AI-randomized catalogs powered by OpenRouter and your Trakt history.",
		Catalogs:    entries,
		Resources:   []string{"catalog", "meta"},
		Types:       []string{"movie", "series"},
		IDPrefixes:  []string{"aiopicks", "tt", "trakt"},
	})
}

// handleCatalog serves one lane's payload. The catalog id carries the
// profile scope; unscoped ids fall back to the default profile.
func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	ct := models.ContentType(chi.URLParam(r, "contentType"))
	if !ct.Valid() {
		writeError(w, http.StatusBadRequest, "unsupported content type")
		return
	}

	scopedID := chi.URLParam(r, "catalogID")
	profileID, baseID := models.SplitScopedCatalogID(scopedID)
	if profileID == "" {
		profileID = profile.DefaultProfileID
	}

	if s.payloads != nil {
		if payload, ok := s.payloads.Get(models.ScopedCatalogID(profileID, baseID)); ok {
			writeJSON(w, http.StatusOK, payload)
			return
		}
	}

	p, err := s.profiles.LoadProfile(profileID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "unknown profile")
			return
		}
		writeError(w, http.StatusInternalServerError, "profile lookup failed")
		return
	}

	bundle, err := s.catalogs.EnsureFresh(r.Context(), p, false, false)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "catalog lookup failed")
		return
	}
	if bundle == nil {
		writeError(w, http.StatusNotFound, "catalog not generated yet")
		return
	}

	lane := bundle.Find(ct, baseID)
	if lane == nil {
		writeError(w, http.StatusNotFound, "unknown catalog")
		return
	}

	payload := lane.ToPayload()
	if s.payloads != nil {
		s.payloads.Set(models.ScopedCatalogID(profileID, baseID), payload)
	}
	writeJSON(w, http.StatusOK, payload)
}

// handleMeta serves a detail stub for one item, searched across the
// default profile's lanes. Meta ids are stable external ids where the
// item has one.
func (s *Server) handleMeta(w http.ResponseWriter, r *http.Request) {
	ct := models.ContentType(chi.URLParam(r, "contentType"))
	if !ct.Valid() {
		writeError(w, http.StatusBadRequest, "unsupported content type")
		return
	}
	metaID := chi.URLParam(r, "metaID")

	profileID := r.URL.Query().Get("profile")
	if profileID == "" {
		profileID = profile.DefaultProfileID
	}
	p, err := s.profiles.LoadProfile(profileID)
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown profile")
		return
	}
	bundle, err := s.catalogs.Lanes(p)
	if err != nil || bundle == nil {
		writeError(w, http.StatusNotFound, "unknown meta id")
		return
	}

	for _, lane := range bundle.Catalogs() {
		if lane.Type != ct {
			continue
		}
		for idx := range lane.Items {
			item := &lane.Items[idx]
			if item.MetaID(lane.ID, idx) != metaID {
				continue
			}
			writeJSON(w, http.StatusOK, map[string]any{"meta": models.MetaStub{
				ID:     metaID,
				Type:   ct,
				Name:   item.DisplayName(),
				Poster: item.Poster,
				IMDBID: item.IMDBID,
			}})
			return
		}
	}
	writeError(w, http.StatusNotFound, "unknown meta id")
}

func (s *Server) handleProfileStatus(w http.ResponseWriter, r *http.Request) {
	p, err := s.profiles.LoadProfile(chi.URLParam(r, "profileID"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "unknown profile")
			return
		}
		writeError(w, http.StatusInternalServerError, "profile lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, s.catalogs.Status(p))
}

// handleProfileRefresh forces a refresh. With wait=true the response
// carries the fresh lane counts; otherwise the refresh runs in the
// background and the response returns immediately.
func (s *Server) handleProfileRefresh(w http.ResponseWriter, r *http.Request) {
	p, err := s.profiles.LoadProfile(chi.URLParam(r, "profileID"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "unknown profile")
			return
		}
		writeError(w, http.StatusInternalServerError, "profile lookup failed")
		return
	}

	wait := r.URL.Query().Get("wait") == "true"
	if _, err := s.catalogs.EnsureFresh(r.Context(), p, true, wait); err != nil {
		logger := logging.Ctx(r.Context())
		logger.Error().Err(err).Str("profile", p.ID).Msg("Forced refresh failed")
		writeError(w, http.StatusInternalServerError, "refresh failed")
		return
	}
	writeJSON(w, http.StatusAccepted, s.catalogs.Status(p))
}

// overridesFromQuery maps the manifest query parameters onto resolver
// overrides. Unknown parameters are ignored.
func overridesFromQuery(r *http.Request) profile.Overrides {
	q := r.URL.Query()
	ov := profile.Overrides{
		ProfileHint:      q.Get("profile"),
		TraktClientID:    q.Get("trakt_client_id"),
		TraktAccessToken: q.Get("trakt_access_token"),
		OpenRouterAPIKey: q.Get("openrouter_api_key"),
		OpenRouterModel:  q.Get("openrouter_model"),
		MetadataAddonURL: q.Get("metadata_addon_url"),
	}
	if lanes := q.Get("lanes"); lanes != "" {
		for _, key := range strings.Split(lanes, ",") {
			if key = strings.TrimSpace(key); key != "" {
				ov.LaneKeys = append(ov.LaneKeys, key)
			}
		}
	}
	if v, err := strconv.Atoi(q.Get("items_per_lane")); err == nil && v > 0 {
		ov.ItemsPerLane = v
	}
	if v, err := strconv.Atoi(q.Get("cache_ttl_seconds")); err == nil && v > 0 {
		ov.CacheTTLSeconds = v
	}
	if v, err := strconv.Atoi(q.Get("refresh_interval_seconds")); err == nil && v > 0 {
		ov.RefreshIntervalSeconds = v
	}
	return ov
}
