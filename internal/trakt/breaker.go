// AIOPicks - AI-Curated Media Catalog Engine
// Copyright 2026 qooode
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/qooode/aiopicks

package trakt

import (
	"context"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/qooode/aiopicks/internal/config"
	"github.com/qooode/aiopicks/internal/logging"
	"github.com/qooode/aiopicks/internal/metrics"
)

// BreakerClient wraps an API with a circuit breaker so a dead or degraded
// Trakt upstream fails fast instead of tying up refresh workers. Rejected
// calls surface as errors and the refresh pipeline falls back to
// history-derived lanes.
//
// The breaker uses real time for its interval and timeout; tests exercise
// the wrapped client directly.
type BreakerClient struct {
	api  API
	cb   *gobreaker.CircuitBreaker[any]
	name string
}

// NewBreakerClient wraps the given API with a circuit breaker configured
// from the Trakt config: the breaker opens after BreakerThreshold
// consecutive failures and probes again after BreakerCooldown.
func NewBreakerClient(api API, cfg *config.TraktConfig) *BreakerClient {
	const cbName = "trakt-api"

	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0)

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 2,
		Interval:    time.Minute,
		Timeout:     cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(cfg.BreakerThreshold)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("breaker", name).
				Str("from", stateToString(from)).
				Str("to", stateToString(to)).
				Msg("circuit breaker state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})

	return &BreakerClient{api: api, cb: cb, name: cbName}
}

// History implements API.
func (b *BreakerClient) History(ctx context.Context, creds Credentials, mediaType string, page, limit int) ([]HistoryEntry, PageInfo, error) {
	type historyResult struct {
		entries []HistoryEntry
		info    PageInfo
	}
	result, err := b.cb.Execute(func() (any, error) {
		entries, info, err := b.api.History(ctx, creds, mediaType, page, limit)
		if err != nil {
			return nil, err
		}
		return historyResult{entries: entries, info: info}, nil
	})
	if err != nil {
		return nil, PageInfo{}, err
	}
	hr := result.(historyResult)
	return hr.entries, hr.info, nil
}

// Settings implements API.
func (b *BreakerClient) Settings(ctx context.Context, creds Credentials) (*Identity, error) {
	result, err := b.cb.Execute(func() (any, error) {
		return b.api.Settings(ctx, creds)
	})
	if err != nil {
		return nil, err
	}
	return result.(*Identity), nil
}

// Stats implements API.
func (b *BreakerClient) Stats(ctx context.Context, creds Credentials) (*Stats, error) {
	result, err := b.cb.Execute(func() (any, error) {
		return b.api.Stats(ctx, creds)
	})
	if err != nil {
		return nil, err
	}
	return result.(*Stats), nil
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	}
	return "unknown"
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	}
	return -1
}
