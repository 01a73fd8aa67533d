// AIOPicks - AI-Curated Media Catalog Engine
// Copyright 2026 qooode
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/qooode/aiopicks

package catalog

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/qooode/aiopicks/internal/logging"
)

// Scheduler is the background refresh loop. It wakes on a fixed poll
// interval and force-refreshes every profile whose refresh deadline has
// passed, so worst-case staleness is bounded even for profiles nobody is
// actively polling.
//
// Implements suture.Service.
type Scheduler struct {
	service *Service
}

// NewScheduler creates the background loop over the given service.
func NewScheduler(service *Service) *Scheduler {
	return &Scheduler{service: service}
}

// String implements fmt.Stringer for supervisor logging.
func (sch *Scheduler) String() string {
	return "refresh-scheduler"
}

// Serve runs the poll loop until the context is canceled.
func (sch *Scheduler) Serve(ctx context.Context) error {
	interval := sch.service.cfg.Catalog.RefreshPollInterval
	logging.Info().Dur("poll_interval", interval).Msg("Refresh scheduler started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Info().Msg("Refresh scheduler stopping")
			return ctx.Err()
		case <-ticker.C:
			sch.sweep(ctx)
		}
	}
}

// sweep refreshes every due profile, bounded by the configured refresh
// concurrency. A failing profile does not stop the sweep.
func (sch *Scheduler) sweep(ctx context.Context) {
	ids, err := sch.service.store.ListProfileIDs()
	if err != nil {
		logging.Error().Err(err).Msg("Scheduler could not list profiles")
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(sch.service.cfg.Catalog.MaxConcurrentRefreshes)
	for _, id := range ids {
		g.Go(func() error {
			sch.refreshIfDue(gctx, id)
			return nil
		})
	}
	_ = g.Wait()
}

func (sch *Scheduler) refreshIfDue(ctx context.Context, profileID string) {
	profile, err := sch.service.store.LoadProfile(profileID)
	if err != nil {
		logging.Warn().Err(err).Str("profile", profileID).Msg("Scheduler could not load profile")
		return
	}
	if !profile.NextRefreshAt.IsZero() && time.Now().Before(profile.NextRefreshAt) {
		return
	}

	refreshCtx, cancel := context.WithTimeout(ctx, refreshTimeout)
	defer cancel()
	st := sch.service.state(profile.ID)
	if _, err := sch.service.refresh(refreshCtx, profile, st); err != nil {
		logging.Error().Err(err).Str("profile", profile.ID).Msg("Scheduled refresh failed")
	}
}
