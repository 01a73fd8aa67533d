// AIOPicks - AI-Curated Media Catalog Engine
// Copyright 2026 qooode
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/qooode/aiopicks

// Package catalog composes the refresh pipeline: history ingestion,
// watched-index construction, lane generation, fallback assembly and
// persistence, behind a TTL-based staleness check with at most one
// refresh in flight per profile.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/qooode/aiopicks/internal/config"
	"github.com/qooode/aiopicks/internal/generate"
	"github.com/qooode/aiopicks/internal/logging"
	"github.com/qooode/aiopicks/internal/metrics"
	"github.com/qooode/aiopicks/internal/models"
	"github.com/qooode/aiopicks/internal/store"
	"github.com/qooode/aiopicks/internal/trakt"
	"github.com/qooode/aiopicks/internal/watched"
)

// refreshTimeout bounds a background refresh so a hung upstream cannot
// pin a profile's lock forever.
const refreshTimeout = 5 * time.Minute

// recentTitleSample is how many recent titles feed the taste summaries.
const recentTitleSample = 20

// HistoryAPI is the slice of the Trakt ingestor the service consumes.
type HistoryAPI interface {
	FetchHistory(ctx context.Context, creds trakt.Credentials, mediaType string, limit int) (*trakt.HistoryBatch, error)
	FetchStats(ctx context.Context, creds trakt.Credentials) (*trakt.Stats, error)
}

// Generator produces a lane bundle. Implemented by generate.Engine.
type Generator interface {
	Generate(ctx context.Context, p generate.Params) (*models.Bundle, error)
}

// Enricher patches generated items with metadata. May be a no-op.
type Enricher interface {
	Enrich(ctx context.Context, bundle *models.Bundle)
}

// LaneStore is the persistence surface the service depends on.
type LaneStore interface {
	SaveLanes(profileID string, bundle *models.Bundle) error
	LoadLanes(profileID string) (*models.Bundle, error)
	SaveProfile(profile *models.Profile) error
	LoadProfile(id string) (*models.Profile, error)
	ListProfileIDs() ([]string, error)
}

// Invalidator drops rendered payloads for a profile after its lanes are
// replaced. Implemented by the payload cache.
type Invalidator interface {
	InvalidateProfile(profileID string)
}

// refreshState is the per-profile refresh bookkeeping. Staleness reads
// are lock-free; mu serializes the refresh itself.
type refreshState struct {
	mu          sync.Mutex
	lastRefresh atomic.Int64 // unix nanos of the last completed refresh, 0 = never
	refreshing  atomic.Bool
	scheduled   atomic.Bool
	bundle      atomic.Pointer[models.Bundle]
}

// stale reports whether the profile's lanes are past their TTL. A profile
// that has never refreshed in this process is immediately stale.
func (st *refreshState) stale(ttl time.Duration) bool {
	last := st.lastRefresh.Load()
	if last == 0 {
		return true
	}
	return time.Now().UnixNano() >= last+ttl.Nanoseconds()
}

// Service owns refresh state for all profiles and runs the pipeline.
//
// Thread safety: safe for concurrent use. Refreshes for different
// profiles run in parallel; refreshes for one profile are serialized.
type Service struct {
	cfg         *config.Config
	store       LaneStore
	history     HistoryAPI
	engine      Generator
	enricher    Enricher
	invalidator Invalidator

	mu     sync.Mutex
	states map[string]*refreshState
}

// NewService wires the refresh pipeline. Enricher and invalidator are
// optional.
func NewService(cfg *config.Config, store LaneStore, history HistoryAPI, engine Generator, enricher Enricher, invalidator Invalidator) *Service {
	return &Service{
		cfg:         cfg,
		store:       store,
		history:     history,
		engine:      engine,
		enricher:    enricher,
		invalidator: invalidator,
		states:      make(map[string]*refreshState),
	}
}

func (s *Service) state(profileID string) *refreshState {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[profileID]
	if !ok {
		st = &refreshState{}
		s.states[profileID] = st
	}
	return st
}

// Lanes returns the profile's current bundle without triggering a
// refresh. Falls back to the persisted bundle when this process has not
// refreshed yet; returns nil when none exists.
func (s *Service) Lanes(profile *models.Profile) (*models.Bundle, error) {
	st := s.state(profile.ID)
	if bundle := st.bundle.Load(); bundle != nil {
		return bundle, nil
	}
	bundle, err := s.store.LoadLanes(profile.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	st.bundle.CompareAndSwap(nil, bundle)
	return bundle, nil
}

// EnsureFresh serves the profile's lanes, refreshing them first when they
// are stale or force is set. Non-waiting callers get the previous lanes
// immediately and the refresh runs in the background; waiting callers
// block until the refresh (their own or a concurrent one) completes.
func (s *Service) EnsureFresh(ctx context.Context, profile *models.Profile, force, wait bool) (*models.Bundle, error) {
	st := s.state(profile.ID)

	if !force && !st.stale(profile.CacheTTL()) {
		return s.Lanes(profile)
	}

	if !wait {
		s.scheduleRefresh(profile, st)
		return s.Lanes(profile)
	}

	return s.refresh(ctx, profile, st)
}

// Refreshing reports whether a refresh for the profile is in flight.
func (s *Service) Refreshing(profileID string) bool {
	return s.state(profileID).refreshing.Load()
}

// scheduleRefresh starts a background refresh unless one is already
// queued or running for the profile.
func (s *Service) scheduleRefresh(profile *models.Profile, st *refreshState) {
	if !st.scheduled.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer st.scheduled.Store(false)
		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()
		if _, err := s.refresh(ctx, profile, st); err != nil {
			logging.Error().Err(err).Str("profile", profile.ID).Msg("Background refresh failed")
		}
	}()
}

// refresh acquires the profile lock and regenerates unless a concurrent
// refresh already completed while this caller was waiting for the lock.
func (s *Service) refresh(ctx context.Context, profile *models.Profile, st *refreshState) (*models.Bundle, error) {
	entered := time.Now()
	st.mu.Lock()
	defer st.mu.Unlock()

	// Double-checked: a caller who lost the lock race to another refresh
	// observes its result instead of regenerating.
	if last := st.lastRefresh.Load(); last != 0 && time.Unix(0, last).After(entered) {
		return s.Lanes(profile)
	}

	return s.doRefresh(ctx, profile, st)
}

// doRefresh runs the full pipeline with the profile lock held.
func (s *Service) doRefresh(ctx context.Context, profile *models.Profile, st *refreshState) (*models.Bundle, error) {
	start := time.Now()
	st.refreshing.Store(true)
	defer st.refreshing.Store(false)

	seed := uuid.NewString()[:8]
	creds := s.credentials(profile)
	movies, shows := s.fetchHistories(ctx, creds)

	bundle, outcome := s.generateBundle(ctx, profile, seed, movies, shows)

	if s.enricher != nil {
		s.enricher.Enrich(ctx, bundle)
	}
	s.updateStats(ctx, profile, creds)

	now := time.Now().UTC()
	stampExpiry(bundle, now.Add(profile.CacheTTL()))

	if err := s.store.SaveLanes(profile.ID, bundle); err != nil {
		metrics.RefreshTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("persisting lanes for profile %s: %w", profile.ID, err)
	}
	profile.LastRefreshedAt = now
	profile.NextRefreshAt = now.Add(profile.RefreshInterval())
	if err := s.store.SaveProfile(profile); err != nil {
		metrics.RefreshTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("persisting profile %s: %w", profile.ID, err)
	}

	st.bundle.Store(bundle)
	st.lastRefresh.Store(now.UnixNano())
	if s.invalidator != nil {
		s.invalidator.InvalidateProfile(profile.ID)
	}

	metrics.RefreshTotal.WithLabelValues(outcome).Inc()
	metrics.RefreshDuration.Observe(time.Since(start).Seconds())
	logging.Info().
		Str("profile", profile.ID).
		Str("outcome", outcome).
		Int("movie_lanes", len(bundle.Movies)).
		Int("series_lanes", len(bundle.Series)).
		Dur("elapsed", time.Since(start)).
		Msg("Catalog refresh complete")

	return bundle, nil
}

// fetchHistories pulls movie and show history in parallel. Transient
// failures surface as partial batches; fatal failures degrade to empty
// batches so the refresh can still produce a stub or fallback.
func (s *Service) fetchHistories(ctx context.Context, creds trakt.Credentials) (movies, shows *trakt.HistoryBatch) {
	movies = &trakt.HistoryBatch{Fetched: true}
	shows = &trakt.HistoryBatch{Fetched: true}
	if !creds.Valid() {
		return movies, shows
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		batch, err := s.history.FetchHistory(gctx, creds, trakt.MediaTypeMovies, s.cfg.Trakt.MovieHistoryMax)
		if err != nil {
			logging.Warn().Err(err).Msg("Movie history fetch failed")
			return nil
		}
		movies = batch
		return nil
	})
	g.Go(func() error {
		batch, err := s.history.FetchHistory(gctx, creds, trakt.MediaTypeShows, s.cfg.Trakt.ShowHistoryMax)
		if err != nil {
			logging.Warn().Err(err).Msg("Show history fetch failed")
			return nil
		}
		shows = batch
		return nil
	})
	_ = g.Wait()
	return movies, shows
}

// generateBundle runs lane generation, or falls back to history-derived
// lanes when generation cannot run or fails. The outcome label feeds the
// refresh metric.
func (s *Service) generateBundle(ctx context.Context, profile *models.Profile, seed string, movies, shows *trakt.HistoryBatch) (*models.Bundle, string) {
	target := profile.ItemsPerLane
	if target <= 0 {
		target = s.cfg.Catalog.ItemsPerLane
	}

	if !profile.HasGenerationCredentials() && s.cfg.OpenRouter.APIKey == "" {
		logging.Debug().Str("profile", profile.ID).Msg("No generation credentials, building fallback lanes")
		return buildFallbackBundle(movies.Entries, shows.Entries, seed, target), fallbackOutcome(movies, shows)
	}

	combined := make([]trakt.HistoryEntry, 0, len(movies.Entries)+len(shows.Entries))
	combined = append(combined, movies.Entries...)
	combined = append(combined, shows.Entries...)

	params := generate.Params{
		APIKey:        profile.OpenRouterAPIKey,
		Model:         profile.OpenRouterModel,
		Lanes:         generate.SelectLanes(profile.LaneKeys),
		ItemTarget:    target,
		TopUpAttempts: profile.TopUpAttempts,
		Seed:          seed,
		MovieProfile:  trakt.Summarize(movies.Entries, recentTitleSample),
		SeriesProfile: trakt.Summarize(shows.Entries, recentTitleSample),
		Watched:       watched.NewIndex(combined),
	}

	bundle, err := s.engine.Generate(ctx, params)
	if err != nil {
		logging.Warn().Err(err).Str("profile", profile.ID).Msg("Generation failed, serving fallback lanes")
		return buildFallbackBundle(movies.Entries, shows.Entries, seed, target), fallbackOutcome(movies, shows)
	}
	return bundle, "generated"
}

// updateStats folds lifetime watch counts into the profile. Best effort;
// the profile is saved by the caller either way.
func (s *Service) updateStats(ctx context.Context, profile *models.Profile, creds trakt.Credentials) {
	if !creds.Valid() {
		return
	}
	stats, err := s.history.FetchStats(ctx, creds)
	if err != nil {
		logging.Debug().Err(err).Str("profile", profile.ID).Msg("Stats fetch failed")
		return
	}
	profile.MovieHistoryCount = stats.Movies.Watched
	profile.ShowHistoryCount = stats.Shows.Watched
}

func (s *Service) credentials(profile *models.Profile) trakt.Credentials {
	creds := trakt.Credentials{
		ClientID:    profile.TraktClientID,
		AccessToken: profile.TraktAccessToken,
	}
	if creds.ClientID == "" {
		creds.ClientID = s.cfg.Trakt.ClientID
	}
	if creds.AccessToken == "" {
		creds.AccessToken = s.cfg.Trakt.AccessToken
	}
	return creds
}

func fallbackOutcome(movies, shows *trakt.HistoryBatch) string {
	if len(movies.Entries) == 0 && len(shows.Entries) == 0 {
		return "stub"
	}
	return "fallback"
}

func stampExpiry(bundle *models.Bundle, expiresAt time.Time) {
	for _, lanes := range [][]models.Catalog{bundle.Movies, bundle.Series} {
		for i := range lanes {
			lanes[i].ExpiresAt = expiresAt
		}
	}
}
