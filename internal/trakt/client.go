// AIOPicks - AI-Curated Media Catalog Engine
// Copyright 2026 qooode
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/qooode/aiopicks

// Package trakt implements the Trakt.tv API client used for watch-history
// ingestion: a thin HTTP client, a circuit breaker wrapper, a paginating
// ingestor with bounded retries, and taste-profile summarization.
package trakt

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/qooode/aiopicks/internal/config"
	"github.com/qooode/aiopicks/internal/metrics"
)

// maxErrorBodySize limits how much of an error response body is read for
// diagnostics.
const maxErrorBodySize = 64 * 1024

// API is the operation surface the ingestor consumes. It is implemented by
// Client and by BreakerClient, and by mocks in tests.
type API interface {
	History(ctx context.Context, creds Credentials, mediaType string, page, limit int) ([]HistoryEntry, PageInfo, error)
	Settings(ctx context.Context, creds Credentials) (*Identity, error)
	Stats(ctx context.Context, creds Credentials) (*Stats, error)
}

// StatusError reports a non-2xx response from the Trakt API. RetryAfter is
// populated from the Retry-After header on 429 responses.
type StatusError struct {
	Endpoint   string
	Code       int
	Body       string
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("trakt %s returned status %d: %s", e.Endpoint, e.Code, e.Body)
}

// Client is the low-level Trakt HTTP client. It performs single requests;
// retry policy lives in the Ingestor and resilience in BreakerClient.
//
// Thread safety: safe for concurrent use.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a Trakt API client from configuration.
func NewClient(cfg *config.TraktConfig) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// History fetches one page of watch history for the given media type
// ("movies" or "shows"). Extended metadata is requested so entries carry
// genres and language for taste profiling.
func (c *Client) History(ctx context.Context, creds Credentials, mediaType string, page, limit int) ([]HistoryEntry, PageInfo, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("limit", strconv.Itoa(limit))
	params.Set("extended", "full")

	endpoint := "/sync/history/" + mediaType
	resp, err := c.get(ctx, creds, endpoint+"?"+params.Encode(), endpoint)
	if err != nil {
		return nil, PageInfo{}, err
	}
	defer resp.Body.Close()

	var entries []HistoryEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, PageInfo{}, fmt.Errorf("failed to decode history page %d: %w", page, err)
	}

	info := PageInfo{Page: page}
	info.PageCount, _ = strconv.Atoi(resp.Header.Get("X-Pagination-Page-Count"))
	info.ItemCount, _ = strconv.Atoi(resp.Header.Get("X-Pagination-Item-Count"))
	return entries, info, nil
}

// Settings fetches the authenticated user's account settings.
func (c *Client) Settings(ctx context.Context, creds Credentials) (*Identity, error) {
	resp, err := c.get(ctx, creds, "/users/settings", "/users/settings")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	identity := &Identity{}
	if err := json.NewDecoder(resp.Body).Decode(identity); err != nil {
		return nil, fmt.Errorf("failed to decode user settings: %w", err)
	}
	return identity, nil
}

// Stats fetches the authenticated user's lifetime watch statistics.
func (c *Client) Stats(ctx context.Context, creds Credentials) (*Stats, error) {
	resp, err := c.get(ctx, creds, "/users/me/stats", "/users/me/stats")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	stats := &Stats{}
	if err := json.NewDecoder(resp.Body).Decode(stats); err != nil {
		return nil, fmt.Errorf("failed to decode user stats: %w", err)
	}
	return stats, nil
}

// get performs a GET request with the Trakt API headers and returns the
// response when the status is 200. Any other status is closed and reported
// as a StatusError. The metricEndpoint label keeps cardinality bounded.
func (c *Client) get(ctx context.Context, creds Credentials, path, metricEndpoint string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("trakt-api-version", "2")
	req.Header.Set("trakt-api-key", creds.ClientID)
	req.Header.Set("Authorization", "Bearer "+creds.AccessToken)

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.TraktRequests.WithLabelValues(metricEndpoint, "error").Inc()
		return nil, fmt.Errorf("trakt request failed: %w", err)
	}

	metrics.TraktRequests.WithLabelValues(metricEndpoint, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode != http.StatusOK {
		body := readBodyForError(resp.Body)
		_ = resp.Body.Close()
		serr := &StatusError{Endpoint: metricEndpoint, Code: resp.StatusCode, Body: string(body)}
		if resp.StatusCode == http.StatusTooManyRequests {
			if seconds, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && seconds > 0 {
				serr.RetryAfter = time.Duration(seconds) * time.Second
			}
		}
		return nil, serr
	}
	return resp, nil
}

// readBodyForError reads a bounded amount of the response body for error
// reporting.
func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	if len(body) == maxErrorBodySize {
		return append(body, []byte("... (truncated)")...)
	}
	return body
}
