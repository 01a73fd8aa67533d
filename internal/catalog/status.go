// AIOPicks - AI-Curated Media Catalog Engine
// Copyright 2026 qooode
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/qooode/aiopicks

package catalog

import (
	"time"

	"github.com/qooode/aiopicks/internal/models"
)

// ProfileStatus is the runtime snapshot served to the config UI.
type ProfileStatus struct {
	ProfileID         string    `json:"profile_id"`
	DisplayName       string    `json:"display_name,omitempty"`
	MovieLanes        int       `json:"movie_lanes"`
	SeriesLanes       int       `json:"series_lanes"`
	ItemsPerLane      int       `json:"items_per_lane"`
	MovieHistoryCount int       `json:"movie_history_count"`
	ShowHistoryCount  int       `json:"show_history_count"`
	LastRefreshedAt   time.Time `json:"last_refreshed_at,omitempty"`
	NextRefreshAt     time.Time `json:"next_refresh_at,omitempty"`
	Refreshing        bool      `json:"refreshing"`
	Stale             bool      `json:"stale"`
}

// Status reports the profile's refresh state and current lane counts.
func (s *Service) Status(profile *models.Profile) ProfileStatus {
	st := s.state(profile.ID)

	status := ProfileStatus{
		ProfileID:         profile.ID,
		DisplayName:       profile.DisplayName,
		ItemsPerLane:      profile.ItemsPerLane,
		MovieHistoryCount: profile.MovieHistoryCount,
		ShowHistoryCount:  profile.ShowHistoryCount,
		LastRefreshedAt:   profile.LastRefreshedAt,
		NextRefreshAt:     profile.NextRefreshAt,
		Refreshing:        st.refreshing.Load(),
		Stale:             st.stale(profile.CacheTTL()),
	}
	if bundle, err := s.Lanes(profile); err == nil && bundle != nil {
		status.MovieLanes = len(bundle.Movies)
		status.SeriesLanes = len(bundle.Series)
	}
	return status
}
