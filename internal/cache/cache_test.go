// AIOPicks - AI-Curated Media Catalog Engine
// Copyright 2026 qooode
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/qooode/aiopicks

package cache

import (
	"testing"
	"time"

	"github.com/qooode/aiopicks/internal/models"
)

func payloadWithName(name string) models.CatalogPayload {
	return models.CatalogPayload{
		Metas: []models.MetaStub{{ID: "tt0111161", Type: models.ContentTypeMovie, Name: name}},
	}
}

func TestGetReturnsStoredPayload(t *testing.T) {
	c := New(time.Minute)
	defer c.Stop()

	key := models.ScopedCatalogID("trakt-alice", "aiopicks-movie-movies-for-you")
	c.Set(key, payloadWithName("The Shawshank Redemption"))

	got, ok := c.Get(key)
	if !ok {
		t.Fatal("expected cache hit")
	}
	if len(got.Metas) != 1 || got.Metas[0].Name != "The Shawshank Redemption" {
		t.Fatalf("unexpected payload: %+v", got)
	}
}

func TestGetMissesUnknownKey(t *testing.T) {
	c := New(time.Minute)
	defer c.Stop()

	if _, ok := c.Get("trakt-alice__aiopicks-movie-hidden-gems"); ok {
		t.Fatal("expected cache miss for unknown key")
	}
}

func TestExpiredEntryIsEvictedOnRead(t *testing.T) {
	c := New(time.Millisecond)
	defer c.Stop()

	key := "trakt-alice__aiopicks-movie-movies-for-you"
	c.Set(key, payloadWithName("Heat"))
	time.Sleep(5 * time.Millisecond)

	if _, ok := c.Get(key); ok {
		t.Fatal("expected expired entry to miss")
	}
	if c.Len() != 0 {
		t.Fatalf("expected expired entry removed, have %d entries", c.Len())
	}
}

func TestInvalidateProfileRemovesOnlyThatProfile(t *testing.T) {
	c := New(time.Minute)
	defer c.Stop()

	c.Set(models.ScopedCatalogID("trakt-alice", "aiopicks-movie-movies-for-you"), payloadWithName("Alien"))
	c.Set(models.ScopedCatalogID("trakt-alice", "aiopicks-series-series-for-you"), payloadWithName("The Wire"))
	c.Set(models.ScopedCatalogID("trakt-bob", "aiopicks-movie-movies-for-you"), payloadWithName("Brazil"))

	c.InvalidateProfile("trakt-alice")

	if _, ok := c.Get("trakt-alice__aiopicks-movie-movies-for-you"); ok {
		t.Fatal("expected alice's movie payload invalidated")
	}
	if _, ok := c.Get("trakt-alice__aiopicks-series-series-for-you"); ok {
		t.Fatal("expected alice's series payload invalidated")
	}
	if _, ok := c.Get("trakt-bob__aiopicks-movie-movies-for-you"); !ok {
		t.Fatal("expected bob's payload to survive")
	}
}

func TestSetReplacesExisting(t *testing.T) {
	c := New(time.Minute)
	defer c.Stop()

	key := "default__aiopicks-movie-hidden-gems"
	c.Set(key, payloadWithName("Old"))
	c.Set(key, payloadWithName("New"))

	got, ok := c.Get(key)
	if !ok || got.Metas[0].Name != "New" {
		t.Fatalf("expected replaced payload, got %+v ok=%v", got, ok)
	}
}
