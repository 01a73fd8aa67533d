// AIOPicks - AI-Curated Media Catalog Engine
// Copyright 2026 qooode
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/qooode/aiopicks

package trakt

import (
	"fmt"
	"sort"
	"strings"
)

// fatigueShare is the fraction of total genre plays above which a genre is
// considered overexposed and worth steering away from.
const fatigueShare = 0.35

// curiosityMaxPlays is the play ceiling under which a seen genre counts as
// barely explored.
const curiosityMaxPlays = 2

// GenreCount pairs a genre with its play count.
type GenreCount struct {
	Genre string
	Count int
}

// TasteProfile is the compact history summary fed into generation prompts.
// All slices are deterministically ordered so identical histories produce
// identical prompts.
type TasteProfile struct {
	TotalPlays      int
	UniqueTitles    int
	RecentTitles    []string
	TopGenres       []GenreCount
	FatiguedGenres  []string
	CuriosityGenres []string
	Languages       []string
	Decades         []string
}

// Summarize condenses history entries into a taste profile. recentLimit
// bounds the recent-titles list; entries are assumed to be in Trakt's
// most-recent-first order.
func Summarize(entries []HistoryEntry, recentLimit int) *TasteProfile {
	profile := &TasteProfile{TotalPlays: len(entries)}

	genreCounts := make(map[string]int)
	languageCounts := make(map[string]int)
	decadeCounts := make(map[string]int)
	seenTitles := make(map[string]bool)

	for _, entry := range entries {
		media := entry.Subject()
		if media == nil {
			continue
		}

		titleKey := strings.ToLower(media.Title)
		if media.Year != 0 {
			titleKey = fmt.Sprintf("%s:%d", titleKey, media.Year)
		}
		if !seenTitles[titleKey] {
			seenTitles[titleKey] = true
			if len(profile.RecentTitles) < recentLimit {
				label := media.Title
				if media.Year != 0 {
					label = fmt.Sprintf("%s (%d)", media.Title, media.Year)
				}
				profile.RecentTitles = append(profile.RecentTitles, label)
			}
		}

		for _, genre := range media.Genres {
			genreCounts[strings.ToLower(genre)]++
		}
		if media.Language != "" {
			languageCounts[strings.ToLower(media.Language)]++
		}
		if media.Year != 0 {
			decadeCounts[fmt.Sprintf("%ds", media.Year/10*10)]++
		}
	}

	profile.UniqueTitles = len(seenTitles)
	profile.TopGenres = sortedCounts(genreCounts)

	totalGenrePlays := 0
	for _, count := range genreCounts {
		totalGenrePlays += count
	}
	for _, gc := range profile.TopGenres {
		if totalGenrePlays > 0 && float64(gc.Count)/float64(totalGenrePlays) >= fatigueShare {
			profile.FatiguedGenres = append(profile.FatiguedGenres, gc.Genre)
		}
		if gc.Count <= curiosityMaxPlays {
			profile.CuriosityGenres = append(profile.CuriosityGenres, gc.Genre)
		}
	}

	profile.Languages = countKeys(sortedCounts(languageCounts))
	profile.Decades = countKeys(sortedCounts(decadeCounts))
	return profile
}

// Describe renders the profile as prompt text.
func (p *TasteProfile) Describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Watch history: %d plays across %d unique titles.\n", p.TotalPlays, p.UniqueTitles)
	if len(p.RecentTitles) > 0 {
		fmt.Fprintf(&b, "Recently watched: %s.\n", strings.Join(p.RecentTitles, ", "))
	}
	if len(p.TopGenres) > 0 {
		parts := make([]string, 0, len(p.TopGenres))
		for _, gc := range p.TopGenres {
			parts = append(parts, fmt.Sprintf("%s (%d)", gc.Genre, gc.Count))
		}
		fmt.Fprintf(&b, "Genre exposure: %s.\n", strings.Join(parts, ", "))
	}
	if len(p.FatiguedGenres) > 0 {
		fmt.Fprintf(&b, "Overexposed genres to use sparingly: %s.\n", strings.Join(p.FatiguedGenres, ", "))
	}
	if len(p.CuriosityGenres) > 0 {
		fmt.Fprintf(&b, "Barely explored genres worth probing: %s.\n", strings.Join(p.CuriosityGenres, ", "))
	}
	if len(p.Languages) > 0 {
		fmt.Fprintf(&b, "Languages watched: %s.\n", strings.Join(p.Languages, ", "))
	}
	if len(p.Decades) > 0 {
		fmt.Fprintf(&b, "Decades watched: %s.\n", strings.Join(p.Decades, ", "))
	}
	return b.String()
}

// IsEmpty reports whether the profile carries no usable signal.
func (p *TasteProfile) IsEmpty() bool {
	return p.TotalPlays == 0
}

// sortedCounts returns counts ordered by count descending, then key
// ascending for determinism.
func sortedCounts(counts map[string]int) []GenreCount {
	out := make([]GenreCount, 0, len(counts))
	for key, count := range counts {
		out = append(out, GenreCount{Genre: key, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Genre < out[j].Genre
	})
	return out
}

func countKeys(counts []GenreCount) []string {
	out := make([]string, 0, len(counts))
	for _, gc := range counts {
		out = append(out, gc.Genre)
	}
	return out
}
