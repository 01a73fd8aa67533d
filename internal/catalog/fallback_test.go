// AIOPicks - AI-Curated Media Catalog Engine
// Copyright 2026 qooode
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/qooode/aiopicks

package catalog

import (
	"testing"

	"github.com/qooode/aiopicks/internal/models"
	"github.com/qooode/aiopicks/internal/trakt"
)

func TestHistoryLaneCollapsesRepeatPlays(t *testing.T) {
	rewatch := trakt.HistoryEntry{Movie: &trakt.Media{Title: "Blade Runner", Year: 1982, IDs: trakt.IDs{IMDB: "tt0083658"}}}
	entries := []trakt.HistoryEntry{rewatch, rewatch, rewatch,
		{Movie: &trakt.Media{Title: "Alien", Year: 1979, IDs: trakt.IDs{IMDB: "tt0078748"}}},
	}

	lane := historyLane(entries, models.ContentTypeMovie, fallbackMovieTitle, "seed1234", 10)
	if lane == nil {
		t.Fatal("expected a lane")
	}
	if len(lane.Items) != 2 {
		t.Fatalf("repeat plays should collapse, got %d items", len(lane.Items))
	}
}

func TestHistoryLaneSkipsEntriesWithoutMedia(t *testing.T) {
	entries := []trakt.HistoryEntry{{Type: "movie"}}
	if lane := historyLane(entries, models.ContentTypeMovie, fallbackMovieTitle, "seed", 10); lane != nil {
		t.Fatalf("expected no lane from empty media, got %+v", lane)
	}
}

func TestFallbackBundleBuildsSeriesLane(t *testing.T) {
	shows := []trakt.HistoryEntry{{Show: &trakt.Media{Title: "The Wire", Year: 2002, IDs: trakt.IDs{IMDB: "tt0306414"}}}}
	bundle := buildFallbackBundle(nil, shows, "seed", 10)

	if len(bundle.Movies) != 0 || len(bundle.Series) != 1 {
		t.Fatalf("expected one series lane, got %d/%d", len(bundle.Movies), len(bundle.Series))
	}
	if bundle.Series[0].Title != fallbackSeriesTitle {
		t.Errorf("unexpected title %q", bundle.Series[0].Title)
	}
	if bundle.Series[0].Items[0].Type != models.ContentTypeSeries {
		t.Error("fallback items must carry the lane content type")
	}
}
