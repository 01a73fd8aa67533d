// AIOPicks - AI-Curated Media Catalog Engine
// Copyright 2026 qooode
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/qooode/aiopicks

package trakt

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/qooode/aiopicks/internal/config"
)

func testTraktConfig(baseURL string) *config.TraktConfig {
	return &config.TraktConfig{
		BaseURL:          baseURL,
		Timeout:          5 * time.Second,
		PageSize:         100,
		MaxPages:         100,
		PageAttempts:     3,
		BreakerThreshold: 3,
		BreakerCooldown:  100 * time.Millisecond,
	}
}

func fastIngestor(api API, cfg *config.TraktConfig) *Ingestor {
	ing := NewIngestor(api, cfg)
	ing.backoffBase = time.Millisecond
	ing.backoffCap = 2 * time.Millisecond
	return ing
}

// historyJSON renders n movie history entries starting at the given id.
func historyJSON(startID, n int) string {
	out := "["
	for i := 0; i < n; i++ {
		if i > 0 {
			out += ","
		}
		id := startID + i
		out += fmt.Sprintf(`{"id":%d,"watched_at":"2026-08-01T12:00:00Z","action":"watch","type":"movie","movie":{"title":"Movie %d","year":2020,"ids":{"trakt":%d,"imdb":"tt%07d"},"genres":["drama"],"language":"en"}}`, id, id, id, id)
	}
	return out + "]"
}

func TestClientSendsTraktHeaders(t *testing.T) {
	var gotHeaders http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		w.Header().Set("X-Pagination-Page-Count", "1")
		w.Header().Set("X-Pagination-Item-Count", "0")
		fmt.Fprint(w, "[]")
	}))
	defer server.Close()

	client := NewClient(testTraktConfig(server.URL))
	creds := Credentials{ClientID: "cid", AccessToken: "tok"}
	if _, _, err := client.History(context.Background(), creds, MediaTypeMovies, 1, 100); err != nil {
		t.Fatalf("History() error: %v", err)
	}

	if got := gotHeaders.Get("trakt-api-version"); got != "2" {
		t.Errorf("trakt-api-version = %q, want 2", got)
	}
	if got := gotHeaders.Get("trakt-api-key"); got != "cid" {
		t.Errorf("trakt-api-key = %q, want cid", got)
	}
	if got := gotHeaders.Get("Authorization"); got != "Bearer tok" {
		t.Errorf("Authorization = %q", got)
	}
}

func TestFetchHistoryPaginatesToLimit(t *testing.T) {
	var pagesServed []int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		pagesServed = append(pagesServed, page)
		w.Header().Set("X-Pagination-Page-Count", "5")
		w.Header().Set("X-Pagination-Item-Count", "500")
		fmt.Fprint(w, historyJSON((page-1)*100+1, 100))
	}))
	defer server.Close()

	ing := fastIngestor(NewClient(testTraktConfig(server.URL)), testTraktConfig(server.URL))
	batch, err := ing.FetchHistory(context.Background(), Credentials{ClientID: "c", AccessToken: "t"}, MediaTypeMovies, 120)
	if err != nil {
		t.Fatalf("FetchHistory() error: %v", err)
	}

	if len(pagesServed) != 2 {
		t.Errorf("served pages %v, want exactly 2 pages for limit 120", pagesServed)
	}
	if len(batch.Entries) != 120 {
		t.Errorf("got %d entries, want 120", len(batch.Entries))
	}
	if !batch.Fetched {
		t.Error("complete fetch must report Fetched=true")
	}
	if batch.Total != 500 {
		t.Errorf("batch.Total = %d, want 500", batch.Total)
	}
}

func TestFetchHistoryPartialOnPersistentPageFailure(t *testing.T) {
	var page2Attempts int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if page == 2 {
			page2Attempts++
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("X-Pagination-Page-Count", "3")
		w.Header().Set("X-Pagination-Item-Count", "300")
		fmt.Fprint(w, historyJSON((page-1)*100+1, 100))
	}))
	defer server.Close()

	ing := fastIngestor(NewClient(testTraktConfig(server.URL)), testTraktConfig(server.URL))
	batch, err := ing.FetchHistory(context.Background(), Credentials{ClientID: "c", AccessToken: "t"}, MediaTypeMovies, 0)
	if err != nil {
		t.Fatalf("partial fetch must not error: %v", err)
	}

	if page2Attempts != 3 {
		t.Errorf("page 2 attempts = %d, want 3", page2Attempts)
	}
	if batch.Fetched {
		t.Error("partial fetch must report Fetched=false")
	}
	if len(batch.Entries) != 100 {
		t.Errorf("got %d entries, want the 100 from page 1", len(batch.Entries))
	}
}

func TestFetchHistoryDoesNotRetryAuthFailure(t *testing.T) {
	var attempts int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	ing := fastIngestor(NewClient(testTraktConfig(server.URL)), testTraktConfig(server.URL))
	batch, err := ing.FetchHistory(context.Background(), Credentials{ClientID: "c", AccessToken: "bad"}, MediaTypeMovies, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1 (401 is permanent)", attempts)
	}
	if batch.Fetched || len(batch.Entries) != 0 {
		t.Errorf("expected empty partial batch, got %d entries fetched=%v", len(batch.Entries), batch.Fetched)
	}
}

func TestFetchHistoryRetriesRateLimit(t *testing.T) {
	var attempts int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Header().Set("X-Pagination-Page-Count", "1")
		w.Header().Set("X-Pagination-Item-Count", "1")
		fmt.Fprint(w, historyJSON(1, 1))
	}))
	defer server.Close()

	ing := fastIngestor(NewClient(testTraktConfig(server.URL)), testTraktConfig(server.URL))
	batch, err := ing.FetchHistory(context.Background(), Credentials{ClientID: "c", AccessToken: "t"}, MediaTypeMovies, 0)
	if err != nil {
		t.Fatalf("FetchHistory() error: %v", err)
	}
	if !batch.Fetched || len(batch.Entries) != 1 {
		t.Errorf("expected recovery after 429, got %d entries fetched=%v", len(batch.Entries), batch.Fetched)
	}
}

func TestFetchIdentityAndStats(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/users/settings":
			fmt.Fprint(w, `{"user":{"username":"alice","name":"Alice","ids":{"slug":"alice-slug"}}}`)
		case "/users/me/stats":
			fmt.Fprint(w, `{"movies":{"plays":900,"watched":640},"shows":{"watched":82},"episodes":{"plays":3100,"watched":2900}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	ing := fastIngestor(NewClient(testTraktConfig(server.URL)), testTraktConfig(server.URL))
	creds := Credentials{ClientID: "c", AccessToken: "t"}

	identity, err := ing.FetchIdentity(context.Background(), creds)
	if err != nil {
		t.Fatalf("FetchIdentity() error: %v", err)
	}
	if identity.Slug() != "alice-slug" {
		t.Errorf("Slug() = %q, want alice-slug (id slug preferred)", identity.Slug())
	}

	stats, err := ing.FetchStats(context.Background(), creds)
	if err != nil {
		t.Fatalf("FetchStats() error: %v", err)
	}
	if stats.Movies.Watched != 640 || stats.Shows.Watched != 82 {
		t.Errorf("stats = movies %d shows %d, want 640/82", stats.Movies.Watched, stats.Shows.Watched)
	}
}

type failingAPI struct {
	calls int
}

func (f *failingAPI) History(context.Context, Credentials, string, int, int) ([]HistoryEntry, PageInfo, error) {
	f.calls++
	return nil, PageInfo{}, errors.New("upstream down")
}

func (f *failingAPI) Settings(context.Context, Credentials) (*Identity, error) {
	f.calls++
	return nil, errors.New("upstream down")
}

func (f *failingAPI) Stats(context.Context, Credentials) (*Stats, error) {
	f.calls++
	return nil, errors.New("upstream down")
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	api := &failingAPI{}
	breaker := NewBreakerClient(api, testTraktConfig("http://unused"))

	for i := 0; i < 3; i++ {
		if _, err := breaker.Settings(context.Background(), Credentials{}); err == nil {
			t.Fatal("expected failure")
		}
	}

	before := api.calls
	if _, err := breaker.Settings(context.Background(), Credentials{}); err == nil {
		t.Fatal("expected open-circuit rejection")
	}
	if api.calls != before {
		t.Errorf("open breaker must not reach the upstream, calls went %d -> %d", before, api.calls)
	}
}

func TestSummarizeDeterministic(t *testing.T) {
	entries := []HistoryEntry{
		{Type: "movie", Movie: &Media{Title: "Heat", Year: 1995, Genres: []string{"Crime", "Drama"}, Language: "en"}},
		{Type: "movie", Movie: &Media{Title: "Ronin", Year: 1998, Genres: []string{"Action"}, Language: "en"}},
		{Type: "movie", Movie: &Media{Title: "Heat", Year: 1995, Genres: []string{"Crime", "Drama"}, Language: "en"}},
		{Type: "episode", Show: &Media{Title: "Dark", Year: 2017, Genres: []string{"Drama", "Mystery"}, Language: "de"}},
	}

	first := Summarize(entries, 10)
	second := Summarize(entries, 10)

	if first.TotalPlays != 4 {
		t.Errorf("TotalPlays = %d, want 4", first.TotalPlays)
	}
	if first.UniqueTitles != 3 {
		t.Errorf("UniqueTitles = %d, want 3", first.UniqueTitles)
	}
	if len(first.RecentTitles) != 3 || first.RecentTitles[0] != "Heat (1995)" {
		t.Errorf("RecentTitles = %v", first.RecentTitles)
	}
	if len(first.TopGenres) == 0 || first.TopGenres[0].Genre != "drama" {
		t.Errorf("expected drama as top genre, got %v", first.TopGenres)
	}
	if first.Describe() != second.Describe() {
		t.Error("identical histories must produce identical prompt text")
	}
}

func TestSummarizeFatigueAndCuriosity(t *testing.T) {
	entries := make([]HistoryEntry, 0, 10)
	for i := 0; i < 9; i++ {
		entries = append(entries, HistoryEntry{Type: "movie", Movie: &Media{
			Title: fmt.Sprintf("Drama %d", i), Year: 2000 + i, Genres: []string{"drama"},
		}})
	}
	entries = append(entries, HistoryEntry{Type: "movie", Movie: &Media{
		Title: "Lone Western", Year: 1969, Genres: []string{"western"},
	}})

	profile := Summarize(entries, 5)
	if len(profile.FatiguedGenres) != 1 || profile.FatiguedGenres[0] != "drama" {
		t.Errorf("FatiguedGenres = %v, want [drama]", profile.FatiguedGenres)
	}
	if len(profile.CuriosityGenres) != 1 || profile.CuriosityGenres[0] != "western" {
		t.Errorf("CuriosityGenres = %v, want [western]", profile.CuriosityGenres)
	}
}
