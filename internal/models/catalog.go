// AIOPicks - AI-Curated Media Catalog Engine
// Copyright 2026 qooode
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/qooode/aiopicks

package models

import (
	"fmt"
	"strings"
	"time"
)

// catalogScopeSeparator joins the profile id and the base catalog id in
// publicly visible catalog identifiers.
const catalogScopeSeparator = "__"

// Catalog is one themed recommendation lane.
//
// A catalog is replaced wholesale on each successful refresh; it is never
// merged with its predecessor.
type Catalog struct {
	ID          string      `json:"id"`
	Type        ContentType `json:"type"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Seed        string      `json:"seed,omitempty"`
	Items       []Item      `json:"items"`
	GeneratedAt time.Time   `json:"generated_at"`
	ExpiresAt   time.Time   `json:"expires_at"`
}

// CatalogID derives the canonical lane identifier from a content type and a
// slug source (the lane key or title).
func CatalogID(ct ContentType, slugSource string) string {
	return fmt.Sprintf("aiopicks-%s-%s", ct, Slugify(slugSource))
}

// ScopedCatalogID namespaces a base catalog id with a profile id so lanes
// from different profiles can coexist in one store.
func ScopedCatalogID(profileID, baseID string) string {
	return profileID + catalogScopeSeparator + baseID
}

// SplitScopedCatalogID splits a public catalog id into its profile scope
// and base id. The scope is empty when the id was never namespaced.
func SplitScopedCatalogID(catalogID string) (profileID, baseID string) {
	if idx := strings.Index(catalogID, catalogScopeSeparator); idx > 0 {
		return catalogID[:idx], catalogID[idx+len(catalogScopeSeparator):]
	}
	return "", catalogID
}

// ManifestEntry is the manifest descriptor for one catalog lane.
type ManifestEntry struct {
	Type ContentType `json:"type"`
	ID   string      `json:"id"`
	Name string      `json:"name"`
}

// ToManifestEntry returns the manifest descriptor for the catalog.
func (c *Catalog) ToManifestEntry() ManifestEntry {
	return ManifestEntry{Type: c.Type, ID: c.ID, Name: c.Title}
}

// MetaStub is the abbreviated item representation used in catalog listings.
type MetaStub struct {
	ID     string      `json:"id"`
	Type   ContentType `json:"type"`
	Name   string      `json:"name"`
	Poster string      `json:"poster,omitempty"`
	IMDBID string      `json:"imdb_id,omitempty"`
}

// CatalogPayload is the response body for a single catalog lookup.
type CatalogPayload struct {
	Metas              []MetaStub `json:"metas"`
	CatalogName        string     `json:"catalogName"`
	CatalogDescription string     `json:"catalogDescription,omitempty"`
}

// ToPayload renders the catalog as a response payload.
func (c *Catalog) ToPayload() CatalogPayload {
	metas := make([]MetaStub, 0, len(c.Items))
	for idx := range c.Items {
		item := &c.Items[idx]
		metas = append(metas, MetaStub{
			ID:     item.MetaID(c.ID, idx),
			Type:   item.Type,
			Name:   item.DisplayName(),
			Poster: item.Poster,
			IMDBID: item.IMDBID,
		})
	}
	return CatalogPayload{
		Metas:              metas,
		CatalogName:        c.Title,
		CatalogDescription: c.Description,
	}
}

// Bundle is the full set of generated lanes across all content types for
// one refresh cycle.
type Bundle struct {
	Movies []Catalog `json:"movie_catalogs"`
	Series []Catalog `json:"series_catalogs"`
}

// IsEmpty reports whether the bundle contains no lanes at all.
func (b *Bundle) IsEmpty() bool {
	return len(b.Movies) == 0 && len(b.Series) == 0
}

// Catalogs returns all lanes in presentation order (movies before series).
func (b *Bundle) Catalogs() []Catalog {
	out := make([]Catalog, 0, len(b.Movies)+len(b.Series))
	out = append(out, b.Movies...)
	out = append(out, b.Series...)
	return out
}

// Find returns the lane with the given id and content type, or nil.
func (b *Bundle) Find(ct ContentType, catalogID string) *Catalog {
	lanes := b.Movies
	if ct == ContentTypeSeries {
		lanes = b.Series
	}
	for idx := range lanes {
		if lanes[idx].ID == catalogID {
			return &lanes[idx]
		}
	}
	return nil
}

// Append adds a lane to the bundle under its content type.
func (b *Bundle) Append(c Catalog) {
	if c.Type == ContentTypeSeries {
		b.Series = append(b.Series, c)
		return
	}
	b.Movies = append(b.Movies, c)
}

// Scoped returns a copy of the bundle with every lane id namespaced by the
// profile id. Already-scoped ids are re-scoped to the given profile.
func (b *Bundle) Scoped(profileID string) *Bundle {
	scoped := &Bundle{
		Movies: scopeLanes(profileID, b.Movies),
		Series: scopeLanes(profileID, b.Series),
	}
	return scoped
}

func scopeLanes(profileID string, lanes []Catalog) []Catalog {
	out := make([]Catalog, len(lanes))
	copy(out, lanes)
	for idx := range out {
		_, base := SplitScopedCatalogID(out[idx].ID)
		out[idx].ID = ScopedCatalogID(profileID, base)
	}
	return out
}
