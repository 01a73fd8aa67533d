// AIOPicks - AI-Curated Media Catalog Engine
// Copyright 2026 qooode
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/qooode/aiopicks

package generate

import "github.com/qooode/aiopicks/internal/models"

// LaneDefinition describes one fixed catalog lane. The lane set is stable
// across refreshes so catalog ids stay addressable; only the items change.
type LaneDefinition struct {
	Key         string
	Title       string
	Description string
	ContentType models.ContentType
}

// CatalogID returns the stable unscoped catalog id for the lane.
func (d LaneDefinition) CatalogID() string {
	return models.CatalogID(d.ContentType, d.Key)
}

// laneTable is the fixed lane catalog. Order is presentation order.
var laneTable = []LaneDefinition{
	{
		Key:         "movies-for-you",
		Title:       "Movies For You",
		Description: "Movies that represent your overall taste profile across favourite genres and moods.",
		ContentType: models.ContentTypeMovie,
	},
	{
		Key:         "series-for-you",
		Title:       "Series For You",
		Description: "Series that represent your overall taste profile across favourite genres and moods.",
		ContentType: models.ContentTypeSeries,
	},
	{
		Key:         "your-comfort-zone",
		Title:       "Your Comfort Zone",
		Description: "Safe film picks that align perfectly with the patterns you already love to revisit.",
		ContentType: models.ContentTypeMovie,
	},
	{
		Key:         "expand-your-horizons",
		Title:       "Expand Your Horizons",
		Description: "Quality films just outside your normal rotation, ready to broaden your taste without losing your vibe.",
		ContentType: models.ContentTypeMovie,
	},
	{
		Key:         "your-next-obsession",
		Title:       "Your Next Obsession",
		Description: "Binge-ready series poised to become your newest favourites based on deep taste analysis.",
		ContentType: models.ContentTypeSeries,
	},
	{
		Key:         "you-missed-these",
		Title:       "You Missed These",
		Description: "Noteworthy films that slipped past you the first time but match what you already enjoy.",
		ContentType: models.ContentTypeMovie,
	},
	{
		Key:         "critics-love-youll-love",
		Title:       "Critics Love, You'll Love",
		Description: "Critically adored movies curated to mirror your personal preferences and pacing.",
		ContentType: models.ContentTypeMovie,
	},
	{
		Key:         "international-picks",
		Title:       "International Picks",
		Description: "Foreign films matched to your favourite genres and storytelling moods.",
		ContentType: models.ContentTypeMovie,
	},
	{
		Key:         "your-guilty-pleasures-extended",
		Title:       "Your Guilty Pleasures Extended",
		Description: "More of the indulgent movies you watch on repeat, even if you never mention them.",
		ContentType: models.ContentTypeMovie,
	},
	{
		Key:         "starring-your-favorite-actors",
		Title:       "Starring Your Favorite Actors",
		Description: "Films featuring the actors who dominate your watch history and never disappoint.",
		ContentType: models.ContentTypeMovie,
	},
	{
		Key:         "visually-stunning-for-you",
		Title:       "Visually Stunning For You",
		Description: "Cinematography showcases that match your genre preferences and appetite for lush visuals.",
		ContentType: models.ContentTypeMovie,
	},
	{
		Key:         "background-watching",
		Title:       "Background Watching",
		Description: "Easy-flowing series perfect for multitasking without losing the narrative thread.",
		ContentType: models.ContentTypeSeries,
	},
	{
		Key:         "same-universe-different-story",
		Title:       "Same Universe, Different Story",
		Description: "Spin-offs and related series expanding the franchises you already follow.",
		ContentType: models.ContentTypeSeries,
	},
	{
		Key:         "animation-worth-your-time",
		Title:       "Animation Worth Your Time",
		Description: "Animated series that transcend age brackets while still fitting your preferred tones.",
		ContentType: models.ContentTypeSeries,
	},
	{
		Key:         "documentaries-youll-like",
		Title:       "Documentaries You'll Like",
		Description: "Feature documentaries tied to the crime, sports, and history stories you revisit often.",
		ContentType: models.ContentTypeMovie,
	},
	{
		Key:         "your-top-genre",
		Title:       "Your Top Genre",
		Description: "Essential films from the genre you stream most, dialled in to your signature moods.",
		ContentType: models.ContentTypeMovie,
	},
	{
		Key:         "your-second-genre",
		Title:       "Your Second Genre",
		Description: "Series highlights from the runner-up genre in your history, tuned to familiar beats.",
		ContentType: models.ContentTypeSeries,
	},
	{
		Key:         "your-third-genre",
		Title:       "Your Third Genre",
		Description: "Hand-picked films exploring the third pillar of your taste profile with fresh twists.",
		ContentType: models.ContentTypeMovie,
	},
	{
		Key:         "franchises-you-started",
		Title:       "Franchises You Started",
		Description: "Series sequels, prequels, and spin-offs tied to universes you've begun but not finished.",
		ContentType: models.ContentTypeSeries,
	},
	{
		Key:         "independent-films",
		Title:       "Independent Films That Mirror Your Taste",
		Description: "Indie standouts with daring storytelling and strong buzz that align with your preferences.",
		ContentType: models.ContentTypeMovie,
	},
}

// DefaultLanes returns a copy of the full lane table.
func DefaultLanes() []LaneDefinition {
	out := make([]LaneDefinition, len(laneTable))
	copy(out, laneTable)
	return out
}

// LaneByKey returns the lane with the given key.
func LaneByKey(key string) (LaneDefinition, bool) {
	for _, def := range laneTable {
		if def.Key == key {
			return def, true
		}
	}
	return LaneDefinition{}, false
}

// SelectLanes resolves lane keys to definitions in table order, skipping
// unknown keys. An empty or all-unknown selection yields the full table.
func SelectLanes(keys []string) []LaneDefinition {
	if len(keys) == 0 {
		return DefaultLanes()
	}
	wanted := make(map[string]bool, len(keys))
	for _, key := range keys {
		wanted[key] = true
	}
	out := make([]LaneDefinition, 0, len(keys))
	for _, def := range laneTable {
		if wanted[def.Key] {
			out = append(out, def)
		}
	}
	if len(out) == 0 {
		return DefaultLanes()
	}
	return out
}
