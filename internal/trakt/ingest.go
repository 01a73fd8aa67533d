// AIOPicks - AI-Curated Media Catalog Engine
// Copyright 2026 qooode
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/qooode/aiopicks

package trakt

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/qooode/aiopicks/internal/config"
	"github.com/qooode/aiopicks/internal/logging"
	"github.com/qooode/aiopicks/internal/metrics"
)

// Media type segments for the history endpoint.
const (
	MediaTypeMovies = "movies"
	MediaTypeShows  = "shows"
)

// hardPageCap bounds a single fetch regardless of configuration.
const hardPageCap = 100

// backoffJitterMax is the upper bound of the random jitter added to each
// retry delay so concurrent profile refreshes do not retry in lockstep.
const backoffJitterMax = 250 * time.Millisecond

// Ingestor fetches complete watch histories through paginated requests
// with a bounded per-page retry budget. A page that stays unavailable
// after all attempts ends the fetch; the entries collected so far are
// returned with Fetched=false so the caller can decide whether the
// partial history is usable.
type Ingestor struct {
	api          API
	pageSize     int
	maxPages     int
	pageAttempts int
	backoffBase  time.Duration
	backoffCap   time.Duration
}

// NewIngestor creates an ingestor over the given API using the configured
// paging and retry policy.
func NewIngestor(api API, cfg *config.TraktConfig) *Ingestor {
	return &Ingestor{
		api:          api,
		pageSize:     cfg.PageSize,
		maxPages:     min(cfg.MaxPages, hardPageCap),
		pageAttempts: cfg.PageAttempts,
		backoffBase:  time.Second,
		backoffCap:   5 * time.Second,
	}
}

// FetchHistory retrieves watch history for one media type. A positive
// limit trims the result to the most recent entries; limit <= 0 fetches
// the full history up to the page cap.
func (ing *Ingestor) FetchHistory(ctx context.Context, creds Credentials, mediaType string, limit int) (*HistoryBatch, error) {
	batch := &HistoryBatch{Fetched: true}
	pageSize := ing.pageSize
	if limit > 0 && limit < pageSize {
		pageSize = limit
	}

	for page := 1; page <= ing.maxPages; page++ {
		entries, info, err := ing.fetchPage(ctx, creds, mediaType, page, pageSize)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logging.Warn().
				Err(err).
				Str("media_type", mediaType).
				Int("page", page).
				Int("collected", len(batch.Entries)).
				Msg("history page unavailable, returning partial history")
			batch.Fetched = false
			return batch, nil
		}

		batch.Entries = append(batch.Entries, entries...)
		if info.ItemCount > 0 {
			batch.Total = info.ItemCount
		}

		if limit > 0 && len(batch.Entries) >= limit {
			batch.Entries = batch.Entries[:limit]
			return batch, nil
		}
		if len(entries) == 0 || (info.PageCount > 0 && page >= info.PageCount) {
			return batch, nil
		}
	}
	return batch, nil
}

// FetchIdentity retrieves the authenticated account identity with the same
// retry policy as history pages.
func (ing *Ingestor) FetchIdentity(ctx context.Context, creds Credentials) (*Identity, error) {
	var identity *Identity
	err := ing.withRetries(ctx, func() error {
		var err error
		identity, err = ing.api.Settings(ctx, creds)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch trakt identity: %w", err)
	}
	return identity, nil
}

// FetchStats retrieves lifetime watch statistics with the same retry
// policy as history pages.
func (ing *Ingestor) FetchStats(ctx context.Context, creds Credentials) (*Stats, error) {
	var stats *Stats
	err := ing.withRetries(ctx, func() error {
		var err error
		stats, err = ing.api.Stats(ctx, creds)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch trakt stats: %w", err)
	}
	return stats, nil
}

// fetchPage fetches a single history page with retries.
func (ing *Ingestor) fetchPage(ctx context.Context, creds Credentials, mediaType string, page, pageSize int) ([]HistoryEntry, PageInfo, error) {
	var (
		entries []HistoryEntry
		info    PageInfo
	)
	err := ing.withRetries(ctx, func() error {
		var err error
		entries, info, err = ing.api.History(ctx, creds, mediaType, page, pageSize)
		return err
	})
	return entries, info, err
}

// withRetries runs fn up to the configured attempt budget, waiting between
// attempts with exponential backoff capped at backoffCap plus linear
// jitter. A 429 Retry-After hint extends the wait when it is longer.
// Client errors other than 429 are not retried; the upstream will answer
// identically on every attempt.
func (ing *Ingestor) withRetries(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < ing.pageAttempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if attempt > 0 {
			metrics.TraktRetries.Inc()
			if err := ing.wait(ctx, ing.backoffDelay(attempt, lastErr)); err != nil {
				return err
			}
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !retryable(lastErr) {
			return lastErr
		}
	}
	return lastErr
}

// backoffDelay computes the wait before the given attempt (1-based for
// waits).
func (ing *Ingestor) backoffDelay(attempt int, lastErr error) time.Duration {
	delay := ing.backoffBase << uint(attempt-1)
	if delay > ing.backoffCap {
		delay = ing.backoffCap
	}
	var serr *StatusError
	if errors.As(lastErr, &serr) && serr.RetryAfter > delay {
		delay = serr.RetryAfter
	}
	return delay + rand.N(backoffJitterMax)
}

func (ing *Ingestor) wait(ctx context.Context, delay time.Duration) error {
	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// retryable reports whether the error is worth another attempt: transport
// errors, 429, and 5xx qualify. Other 4xx responses are permanent for the
// given credentials.
func retryable(err error) bool {
	var serr *StatusError
	if errors.As(err, &serr) {
		return serr.Code == 429 || serr.Code >= 500
	}
	return true
}
