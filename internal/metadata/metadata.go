// AIOPicks - AI-Curated Media Catalog Engine
// Copyright 2026 qooode
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/qooode/aiopicks

// Package metadata enriches generated items with artwork and descriptions
// from a Cinemeta-compatible metadata addon. Enrichment is best effort:
// lookup failures leave the item as the model produced it.
package metadata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"

	"github.com/qooode/aiopicks/internal/config"
	"github.com/qooode/aiopicks/internal/logging"
	"github.com/qooode/aiopicks/internal/models"
)

// maxConcurrentLookups bounds parallel addon requests per enrichment pass.
const maxConcurrentLookups = 8

// metaEnvelope is the addon response for a single meta lookup.
type metaEnvelope struct {
	Meta struct {
		ID          string   `json:"id"`
		Name        string   `json:"name"`
		Poster      string   `json:"poster"`
		Background  string   `json:"background"`
		Description string   `json:"description"`
		Genres      []string `json:"genres"`
	} `json:"meta"`
}

// Enricher fills missing item fields from a metadata addon.
type Enricher struct {
	baseURL string
	client  *http.Client
	enabled bool
}

// New creates an enricher from configuration. When the addon is disabled
// or has no base URL, Enrich is a no-op.
func New(cfg config.MetadataConfig) *Enricher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Enricher{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		enabled: cfg.Enabled && cfg.BaseURL != "",
	}
}

// Enabled reports whether enrichment will perform lookups.
func (e *Enricher) Enabled() bool {
	return e.enabled
}

// Enrich patches items across the bundle that carry an IMDb id but are
// missing artwork or a description. Each distinct id is looked up once
// even when the item appears in multiple lanes. Errors are logged and
// swallowed; the bundle is always usable afterwards.
func (e *Enricher) Enrich(ctx context.Context, bundle *models.Bundle) {
	if !e.enabled || bundle == nil {
		return
	}

	wanted := e.collectIDs(bundle)
	if len(wanted) == 0 {
		return
	}

	found := e.lookupAll(ctx, wanted)
	if len(found) == 0 {
		return
	}

	patched := 0
	forEachItem(bundle, func(item *models.Item) {
		meta, ok := found[normalizeIMDB(item.IMDBID)]
		if !ok {
			return
		}
		if item.Poster == "" {
			item.Poster = meta.Meta.Poster
		}
		if item.Background == "" {
			item.Background = meta.Meta.Background
		}
		if item.Overview == "" {
			item.Overview = meta.Meta.Description
		}
		if len(item.Genres) == 0 {
			item.Genres = meta.Meta.Genres
		}
		patched++
	})

	logging.Debug().
		Int("looked_up", len(wanted)).
		Int("resolved", len(found)).
		Int("patched", patched).
		Msg("Metadata enrichment pass complete")
}

// collectIDs returns the distinct IMDb ids in the bundle that still need
// enrichment, keyed by id with the content type of the first occurrence.
func (e *Enricher) collectIDs(bundle *models.Bundle) map[string]models.ContentType {
	wanted := make(map[string]models.ContentType)
	forEachItem(bundle, func(item *models.Item) {
		id := normalizeIMDB(item.IMDBID)
		if id == "" || !needsEnrichment(item) {
			return
		}
		if _, seen := wanted[id]; !seen {
			wanted[id] = item.Type
		}
	})
	return wanted
}

func (e *Enricher) lookupAll(ctx context.Context, wanted map[string]models.ContentType) map[string]*metaEnvelope {
	type result struct {
		id   string
		meta *metaEnvelope
	}

	results := make(chan result, len(wanted))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(maxConcurrentLookups)

	for id, contentType := range wanted {
		group.Go(func() error {
			meta, err := e.lookup(groupCtx, contentType, id)
			if err != nil {
				logging.Debug().Err(err).Str("imdb_id", id).Msg("Metadata lookup failed")
				return nil
			}
			results <- result{id: id, meta: meta}
			return nil
		})
	}

	_ = group.Wait()
	close(results)

	found := make(map[string]*metaEnvelope, len(wanted))
	for r := range results {
		found[r.id] = r.meta
	}
	return found
}

func (e *Enricher) lookup(ctx context.Context, contentType models.ContentType, imdbID string) (*metaEnvelope, error) {
	url := fmt.Sprintf("%s/meta/%s/%s.json", e.baseURL, metaPathType(contentType), imdbID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building metadata request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("metadata request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("metadata addon returned status %d for %s", resp.StatusCode, imdbID)
	}

	var envelope metaEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decoding metadata response: %w", err)
	}
	if envelope.Meta.ID == "" {
		return nil, fmt.Errorf("metadata addon returned empty meta for %s", imdbID)
	}
	return &envelope, nil
}

// metaPathType maps the internal content type to the addon's path segment.
func metaPathType(contentType models.ContentType) string {
	if contentType == models.ContentTypeSeries {
		return "series"
	}
	return "movie"
}

func needsEnrichment(item *models.Item) bool {
	return item.Poster == "" || item.Background == "" || item.Overview == ""
}

func normalizeIMDB(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

func forEachItem(bundle *models.Bundle, fn func(*models.Item)) {
	for _, catalogs := range [][]models.Catalog{bundle.Movies, bundle.Series} {
		for ci := range catalogs {
			for ii := range catalogs[ci].Items {
				fn(&catalogs[ci].Items[ii])
			}
		}
	}
}
