// AIOPicks - AI-Curated Media Catalog Engine
// Copyright 2026 qooode
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/qooode/aiopicks

package catalog

import (
	"fmt"
	"time"

	"github.com/qooode/aiopicks/internal/models"
	"github.com/qooode/aiopicks/internal/trakt"
)

// defaultFallbackItems is the lane size used when the caller supplies no
// positive limit.
const defaultFallbackItems = 10

const (
	fallbackMovieTitle  = "AI Offline: Movies You Loved"
	fallbackSeriesTitle = "AI Offline: Series Marathon"

	stubTitle       = "Connect Trakt to unlock personalized picks"
	stubDescription = "We need your Trakt API credentials to fetch history before calling the AI."
)

// buildFallbackBundle assembles history-derived lanes for whichever content
// types have history. When both are empty it returns a single stub lane so
// the consumer still receives a well-formed response.
func buildFallbackBundle(movieHistory, showHistory []trakt.HistoryEntry, seed string, limit int) *models.Bundle {
	bundle := &models.Bundle{}

	if lane := historyLane(movieHistory, models.ContentTypeMovie, fallbackMovieTitle, seed, limit); lane != nil {
		bundle.Movies = append(bundle.Movies, *lane)
	}
	if lane := historyLane(showHistory, models.ContentTypeSeries, fallbackSeriesTitle, seed, limit); lane != nil {
		bundle.Series = append(bundle.Series, *lane)
	}

	if bundle.IsEmpty() {
		bundle.Movies = append(bundle.Movies, stubLane(seed))
	}
	return bundle
}

// historyLane maps the most recent history entries to a visible lane. The
// title marks the degraded state so the consumer can tell fallback content
// from generated content. Returns nil when there is no history to show.
func historyLane(entries []trakt.HistoryEntry, ct models.ContentType, title, seed string, limit int) *models.Catalog {
	if len(entries) == 0 {
		return nil
	}
	if limit <= 0 {
		limit = defaultFallbackItems
	}

	seen := make(map[models.ItemKey]bool, limit)
	items := make([]models.Item, 0, limit)
	for i := range entries {
		if len(items) >= limit {
			break
		}
		media := entries[i].Subject()
		if media == nil || media.Title == "" {
			continue
		}
		item := models.Item{
			Title:          media.Title,
			Type:           ct,
			Overview:       media.Overview,
			Year:           media.Year,
			IMDBID:         media.IDs.IMDB,
			TraktID:        media.IDs.Trakt,
			TMDBID:         media.IDs.TMDB,
			RuntimeMinutes: media.Runtime,
			Genres:         media.Genres,
		}
		// Repeat plays of the same title collapse into one entry.
		key := item.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		items = append(items, item)
	}
	if len(items) == 0 {
		return nil
	}

	return &models.Catalog{
		ID:          models.CatalogID(ct, title),
		Type:        ct,
		Title:       title,
		Seed:        seed,
		Items:       items,
		GeneratedAt: time.Now().UTC(),
	}
}

// stubLane is served when there is neither history nor credentials to work
// with. It carries no items; its title is the instruction.
func stubLane(seed string) models.Catalog {
	return models.Catalog{
		ID:          fmt.Sprintf("aiopicks-movie-stub-%s", seed),
		Type:        models.ContentTypeMovie,
		Title:       stubTitle,
		Description: stubDescription,
		Seed:        seed,
		Items:       []models.Item{},
		GeneratedAt: time.Now().UTC(),
	}
}
