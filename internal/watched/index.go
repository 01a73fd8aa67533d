// AIOPicks - AI-Curated Media Catalog Engine
// Copyright 2026 qooode
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/qooode/aiopicks

// Package watched builds the exclusion index that keeps already-watched
// titles out of generated catalog lanes. The index is rebuilt from the
// watch history on every refresh and is never persisted.
package watched

import (
	"fmt"
	"strings"

	"github.com/qooode/aiopicks/internal/models"
	"github.com/qooode/aiopicks/internal/trakt"
)

// Index is a fingerprint set over the watch history. An item is excluded
// from a lane when any of its fingerprints is present.
//
// Fingerprints are namespaced by content type, so a movie and a series
// sharing a title do not shadow each other.
type Index struct {
	fingerprints map[string]struct{}
	counts       map[models.ContentType]int
}

// NewIndex builds an index from history entries across both media types.
func NewIndex(entries []trakt.HistoryEntry) *Index {
	idx := &Index{
		fingerprints: make(map[string]struct{}, len(entries)*4),
		counts:       make(map[models.ContentType]int),
	}
	for i := range entries {
		idx.Add(&entries[i])
	}
	return idx
}

// Add records one history entry in the index.
func (idx *Index) Add(entry *trakt.HistoryEntry) {
	media := entry.Subject()
	if media == nil {
		return
	}
	ct := entry.ContentType()
	idx.counts[ct]++

	prefix := string(ct)
	if media.IDs.IMDB != "" {
		idx.add(prefix + ":imdb:" + strings.ToLower(media.IDs.IMDB))
	}
	if media.IDs.Trakt != 0 {
		idx.add(fmt.Sprintf("%s:trakt:%d", prefix, media.IDs.Trakt))
	}
	if media.IDs.TMDB != 0 {
		idx.add(fmt.Sprintf("%s:tmdb:%d", prefix, media.IDs.TMDB))
	}

	title := strings.ToLower(strings.TrimSpace(media.Title))
	if title == "" {
		return
	}
	idx.add(prefix + ":title:" + title)
	slug := models.Slugify(title)
	idx.add(prefix + ":slug:" + slug)
	if media.Year != 0 {
		idx.add(fmt.Sprintf("%s:title:%s:%d", prefix, title, media.Year))
		idx.add(fmt.Sprintf("%s:slug:%s:%d", prefix, slug, media.Year))
	}
}

func (idx *Index) add(fp string) {
	idx.fingerprints[fp] = struct{}{}
}

// Contains reports whether the item matches any watched fingerprint.
func (idx *Index) Contains(item *models.Item) bool {
	for _, fp := range item.Fingerprints() {
		if _, ok := idx.fingerprints[fp]; ok {
			return true
		}
	}
	return false
}

// Size returns the number of distinct fingerprints in the index.
func (idx *Index) Size() int {
	return len(idx.fingerprints)
}

// EntryCount returns the number of history entries indexed for the given
// content type.
func (idx *Index) EntryCount(ct models.ContentType) int {
	return idx.counts[ct]
}
