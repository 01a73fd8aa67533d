// AIOPicks - AI-Curated Media Catalog Engine
// Copyright 2026 qooode
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/qooode/aiopicks

package trakt

import (
	"time"

	"github.com/qooode/aiopicks/internal/models"
)

// Credentials carries the per-request Trakt credentials. Profiles supply
// their own; the instance config may provide fallbacks.
type Credentials struct {
	ClientID    string
	AccessToken string
}

// Valid reports whether both credential parts are present.
func (c Credentials) Valid() bool {
	return c.ClientID != "" && c.AccessToken != ""
}

// IDs is the identifier block Trakt attaches to movies and shows.
type IDs struct {
	Trakt int    `json:"trakt"`
	Slug  string `json:"slug"`
	IMDB  string `json:"imdb"`
	TMDB  int    `json:"tmdb"`
	TVDB  int    `json:"tvdb"`
}

// Media is a movie or show as returned by the history endpoint with
// extended=full.
type Media struct {
	Title    string   `json:"title"`
	Year     int      `json:"year"`
	IDs      IDs      `json:"ids"`
	Genres   []string `json:"genres"`
	Language string   `json:"language"`
	Runtime  int      `json:"runtime"`
	Overview string   `json:"overview"`
}

// HistoryEntry is one watch event from /sync/history. Movie entries carry
// Movie; episode entries carry Show (the episode detail is not needed for
// taste profiling).
type HistoryEntry struct {
	ID        int64     `json:"id"`
	WatchedAt time.Time `json:"watched_at"`
	Action    string    `json:"action"`
	Type      string    `json:"type"`
	Movie     *Media    `json:"movie,omitempty"`
	Show      *Media    `json:"show,omitempty"`
}

// Subject returns the movie or show the entry refers to, or nil.
func (e *HistoryEntry) Subject() *Media {
	if e.Movie != nil {
		return e.Movie
	}
	return e.Show
}

// ContentType maps the entry to the catalog content type it counts toward.
func (e *HistoryEntry) ContentType() models.ContentType {
	if e.Movie != nil {
		return models.ContentTypeMovie
	}
	return models.ContentTypeSeries
}

// PageInfo carries the pagination headers of a history response.
type PageInfo struct {
	Page      int
	PageCount int
	ItemCount int
}

// HistoryBatch is the result of a full paginated history fetch.
// Fetched is false when at least one page could not be retrieved within
// the retry budget; the entries collected so far are still returned.
type HistoryBatch struct {
	Entries []HistoryEntry
	Total   int
	Fetched bool
}

// Identity is the authenticated user block from /users/settings.
type Identity struct {
	User struct {
		Username string `json:"username"`
		Name     string `json:"name"`
		IDs      struct {
			Slug string `json:"slug"`
		} `json:"ids"`
	} `json:"user"`
}

// Slug returns the best identifier for the account, preferring the id slug
// over the username.
func (i *Identity) Slug() string {
	if i.User.IDs.Slug != "" {
		return i.User.IDs.Slug
	}
	return i.User.Username
}

// Stats is the lifetime watch statistics block from /users/me/stats.
type Stats struct {
	Movies struct {
		Plays   int `json:"plays"`
		Watched int `json:"watched"`
	} `json:"movies"`
	Shows struct {
		Watched int `json:"watched"`
	} `json:"shows"`
	Episodes struct {
		Plays   int `json:"plays"`
		Watched int `json:"watched"`
	} `json:"episodes"`
}
