// AIOPicks - AI-Curated Media Catalog Engine
// Copyright 2026 qooode
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/qooode/aiopicks

package models

import (
	"fmt"
	"strings"
)

// ContentType identifies the media kind of a catalog or item.
type ContentType string

// Supported content types.
const (
	ContentTypeMovie  ContentType = "movie"
	ContentTypeSeries ContentType = "series"
)

// ContentTypes lists all supported content types in presentation order.
var ContentTypes = []ContentType{ContentTypeMovie, ContentTypeSeries}

// Valid reports whether the content type is one of the supported values.
func (ct ContentType) Valid() bool {
	return ct == ContentTypeMovie || ct == ContentTypeSeries
}

// Item is a single recommendation inside a catalog lane.
//
// At least one stable identifier (IMDb, Trakt, or TMDB) is preferred but
// not required; items carrying only a title/year are still valid and are
// deduplicated via their normalized key.
type Item struct {
	Title          string      `json:"name"`
	Type           ContentType `json:"type"`
	Overview       string      `json:"description,omitempty"`
	Poster         string      `json:"poster,omitempty"`
	Background     string      `json:"background,omitempty"`
	Year           int         `json:"year,omitempty"`
	IMDBID         string      `json:"imdb_id,omitempty"`
	TraktID        int         `json:"trakt_id,omitempty"`
	TMDBID         int         `json:"tmdb_id,omitempty"`
	RuntimeMinutes int         `json:"runtime_minutes,omitempty"`
	Genres         []string    `json:"genres,omitempty"`
}

// ItemKey is the normalized dedup key for items within a lane:
// (content type, case-folded stripped title, year-or-zero).
type ItemKey struct {
	Type  ContentType
	Title string
	Year  int
}

// Key returns the normalized dedup key for the item.
func (i *Item) Key() ItemKey {
	return ItemKey{
		Type:  i.Type,
		Title: strings.ToLower(strings.TrimSpace(i.Title)),
		Year:  i.Year,
	}
}

// DisplayName returns a non-empty title for catalog previews, deriving a
// placeholder from identifiers when no title was supplied.
func (i *Item) DisplayName() string {
	if strings.TrimSpace(i.Title) != "" {
		return i.Title
	}
	switch {
	case i.IMDBID != "":
		return i.IMDBID
	case i.TraktID != 0:
		return fmt.Sprintf("Trakt %d", i.TraktID)
	case i.TMDBID != 0:
		return fmt.Sprintf("TMDB %d", i.TMDBID)
	}
	return "Untitled"
}

// MetaID returns the identifier used for catalog/meta lookups, preferring
// stable external ids and falling back to a slug derived from the catalog
// scope and position.
func (i *Item) MetaID(catalogID string, index int) string {
	switch {
	case i.IMDBID != "":
		return i.IMDBID
	case i.TraktID != 0:
		return fmt.Sprintf("trakt:%d", i.TraktID)
	case i.TMDBID != 0:
		return fmt.Sprintf("tmdb:%d", i.TMDBID)
	}
	return fmt.Sprintf("%s-%d", Slugify(catalogID+"-"+i.DisplayName()), index)
}

// Fingerprints returns the exclusion fingerprints for the item, mirroring
// the scheme used by the watched-history index: one fingerprint per stable
// identifier plus normalized title[:year] and slug[:year] fallbacks.
func (i *Item) Fingerprints() []string {
	prefix := string(i.Type)
	fps := make([]string, 0, 8)
	if i.IMDBID != "" {
		fps = append(fps, prefix+":imdb:"+strings.ToLower(i.IMDBID))
	}
	if i.TraktID != 0 {
		fps = append(fps, fmt.Sprintf("%s:trakt:%d", prefix, i.TraktID))
	}
	if i.TMDBID != 0 {
		fps = append(fps, fmt.Sprintf("%s:tmdb:%d", prefix, i.TMDBID))
	}
	title := strings.ToLower(strings.TrimSpace(i.Title))
	if title == "" {
		return fps
	}
	fps = append(fps, prefix+":title:"+title)
	if i.Year != 0 {
		fps = append(fps, fmt.Sprintf("%s:title:%s:%d", prefix, title, i.Year))
	}
	slug := Slugify(title)
	fps = append(fps, prefix+":slug:"+slug)
	if i.Year != 0 {
		fps = append(fps, fmt.Sprintf("%s:slug:%s:%d", prefix, slug, i.Year))
	}
	return fps
}

// Summary returns a short human-readable label, "Title (Year)" when the
// year is known. Used when describing existing picks to the generation
// backend during top-up.
func (i *Item) Summary() string {
	name := i.DisplayName()
	if i.Year != 0 {
		return fmt.Sprintf("%s (%d)", name, i.Year)
	}
	return name
}
