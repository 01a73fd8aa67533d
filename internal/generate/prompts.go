// AIOPicks - AI-Curated Media Catalog Engine
// Copyright 2026 qooode
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/qooode/aiopicks

package generate

import (
	"fmt"
	"strings"

	"github.com/qooode/aiopicks/internal/models"
	"github.com/qooode/aiopicks/internal/trakt"
)

// systemPrompt frames every generation call.
const systemPrompt = "You are AIOPicks, an AI that curates playful but trustworthy movie and " +
	"series catalogs for a media center. You always respond with a single JSON document that " +
	"matches the requested schema and never include commentary outside JSON."

// recentTitlesInPrompt bounds how many recent titles the prompt repeats.
const recentTitlesInPrompt = 25

func contentLabel(ct models.ContentType) (singular, plural string) {
	if ct == models.ContentTypeSeries {
		return "series", "series"
	}
	return "movie", "movies"
}

// lanePrompt builds the per-lane generation prompt.
func lanePrompt(def LaneDefinition, profile *trakt.TasteProfile, itemTarget int, seed string) string {
	singular, plural := contentLabel(def.ContentType)

	var b strings.Builder
	fmt.Fprintf(&b, "You are helping a power user discover new %s based on their watch history.\n", plural)
	fmt.Fprintf(&b, "This request fills the %q lane: %s\n", def.Title, def.Description)
	fmt.Fprintf(&b, "Random seed: %s. Use it to vary picks between refreshes.\n", seed)
	fmt.Fprintf(&b, "Recommend EXACTLY %d %s.\n", itemTarget, plural)
	b.WriteString("Never recommend anything listed as already watched below.\n")

	if profile != nil && !profile.IsEmpty() {
		b.WriteString("\n")
		b.WriteString(profile.Describe())
	}
	if profile != nil && len(profile.RecentTitles) > 0 {
		limit := min(len(profile.RecentTitles), recentTitlesInPrompt)
		fmt.Fprintf(&b, "\nAlready watched (do not recommend): %s.\n",
			strings.Join(profile.RecentTitles[:limit], ", "))
	}

	b.WriteString("\nRespond with JSON using this structure:\n")
	fmt.Fprintf(&b, `{"items":[{"title":"","type":%q,"year":2024,"description":"","imdb_id":"tt...","genres":[""]}]}`, singular)
	b.WriteString("\nInclude imdb ids when you know them. Real titles only.")
	return b.String()
}

// laneShortfall describes one lane still short of its target.
type laneShortfall struct {
	def      LaneDefinition
	existing []string
	needed   int
}

// topUpPrompt builds the single batched prompt covering every shortfall
// lane for one attempt.
func topUpPrompt(shortfalls []laneShortfall, seed string) string {
	var b strings.Builder
	b.WriteString("Some catalog lanes are short of their target count. Supply ONLY the missing items.\n")
	fmt.Fprintf(&b, "Random seed: %s.\n", seed)
	b.WriteString("Rules: never repeat an existing pick, never recommend watched titles, real titles only.\n\n")

	for _, sf := range shortfalls {
		_, plural := contentLabel(sf.def.ContentType)
		fmt.Fprintf(&b, "Lane %q (id %s): needs EXACTLY %d more %s.\n", sf.def.Title, sf.def.CatalogID(), sf.needed, plural)
		if len(sf.existing) > 0 {
			fmt.Fprintf(&b, "Existing picks: %s.\n", strings.Join(sf.existing, ", "))
		}
	}

	b.WriteString("\nRespond with JSON using this structure:\n")
	b.WriteString(`{"lanes":[{"id":"aiopicks-movie-example","items":[{"title":"","type":"movie","year":2024,"description":""}]}]}`)
	return b.String()
}
