// AIOPicks - AI-Curated Media Catalog Engine
// Copyright 2026 qooode
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/qooode/aiopicks

// Package generate implements the AI-backed lane generation engine: one
// bounded-parallel request per lane, duplicate and watched-item filtering,
// and a batched top-up loop that drives every lane toward its exact item
// target.
package generate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"

	"github.com/qooode/aiopicks/internal/config"
	"github.com/qooode/aiopicks/internal/logging"
	"github.com/qooode/aiopicks/internal/metrics"
	"github.com/qooode/aiopicks/internal/models"
	"github.com/qooode/aiopicks/internal/openrouter"
	"github.com/qooode/aiopicks/internal/trakt"
	"github.com/qooode/aiopicks/internal/watched"
)

// ErrEmptyBundle is returned when generation produced no items at all
// across every lane. The caller falls back to history-derived lanes.
var ErrEmptyBundle = errors.New("generation returned an empty catalog bundle")

// Engine turns a taste profile into a bundle of catalog lanes.
type Engine struct {
	completer     openrouter.Completer
	maxConcurrent int
	topUpAttempts int
}

// NewEngine creates an engine over the given completion backend.
func NewEngine(completer openrouter.Completer, cfg *config.CatalogConfig) *Engine {
	return &Engine{
		completer:     completer,
		maxConcurrent: cfg.MaxConcurrentLanes,
		topUpAttempts: cfg.TopUpAttempts,
	}
}

// Params carries one generation run's inputs. APIKey and Model come from
// the profile; the lanes slice selects and orders the output.
type Params struct {
	APIKey        string
	Model         string
	Lanes         []LaneDefinition
	ItemTarget    int
	TopUpAttempts int
	Seed          string
	MovieProfile  *trakt.TasteProfile
	SeriesProfile *trakt.TasteProfile
	Watched       *watched.Index
}

// topUpBudget returns the per-run attempt budget, falling back to the
// engine default when the params carry none.
func (e *Engine) topUpBudget(p Params) int {
	if p.TopUpAttempts > 0 {
		return p.TopUpAttempts
	}
	return e.topUpAttempts
}

func (p *Params) profileFor(ct models.ContentType) *trakt.TasteProfile {
	if ct == models.ContentTypeSeries {
		return p.SeriesProfile
	}
	return p.MovieProfile
}

// laneState tracks one lane through generation and top-up.
type laneState struct {
	def     LaneDefinition
	items   []models.Item
	keys    map[models.ItemKey]bool
	skipped bool
}

func (ls *laneState) missing(target int) int {
	if ls.skipped {
		return 0
	}
	return target - len(ls.items)
}

// absorb filters raw items into the lane: empty titles, duplicate keys,
// watched matches, and overshoot past the target are all dropped. Returns
// the number of items kept.
func (ls *laneState) absorb(raw []rawItem, target int, idx *watched.Index) int {
	added := 0
	for _, entry := range raw {
		if len(ls.items) >= target {
			break
		}
		item := entry.toItem(ls.def.ContentType)
		if strings.TrimSpace(item.Title) == "" {
			continue
		}
		key := item.Key()
		if ls.keys[key] {
			continue
		}
		if idx != nil && idx.Contains(&item) {
			continue
		}
		ls.keys[key] = true
		ls.items = append(ls.items, item)
		added++
	}
	return added
}

func (ls *laneState) summaries() []string {
	out := make([]string, 0, len(ls.items))
	for i := range ls.items {
		out = append(out, ls.items[i].Summary())
	}
	return out
}

// rawItem is the tolerant wire shape for generated items. Models answer
// with either "title" or "name" for the display name.
type rawItem struct {
	Title          string   `json:"title"`
	Name           string   `json:"name"`
	Type           string   `json:"type"`
	Description    string   `json:"description"`
	Poster         string   `json:"poster"`
	Background     string   `json:"background"`
	Year           int      `json:"year"`
	IMDBID         string   `json:"imdb_id"`
	TraktID        int      `json:"trakt_id"`
	TMDBID         int      `json:"tmdb_id"`
	RuntimeMinutes int      `json:"runtime_minutes"`
	Genres         []string `json:"genres"`
}

// toItem converts the raw item, forcing the lane's content type over
// whatever the model claimed.
func (r rawItem) toItem(ct models.ContentType) models.Item {
	title := r.Title
	if title == "" {
		title = r.Name
	}
	return models.Item{
		Title:          title,
		Type:           ct,
		Overview:       r.Description,
		Poster:         r.Poster,
		Background:     r.Background,
		Year:           r.Year,
		IMDBID:         r.IMDBID,
		TraktID:        r.TraktID,
		TMDBID:         r.TMDBID,
		RuntimeMinutes: r.RuntimeMinutes,
		Genres:         r.Genres,
	}
}

type laneResponse struct {
	Items []rawItem `json:"items"`
}

type topUpResponse struct {
	Lanes []struct {
		ID    string    `json:"id"`
		Items []rawItem `json:"items"`
	} `json:"lanes"`
}

// Generate runs the full pipeline: parallel per-lane generation, filtering,
// then batched top-up until every lane hits the target or the attempt
// budget runs out. Remaining shortfalls are logged, never padded.
func (e *Engine) Generate(ctx context.Context, p Params) (*models.Bundle, error) {
	if len(p.Lanes) == 0 {
		return nil, fmt.Errorf("no lanes selected for generation")
	}

	states := make([]*laneState, len(p.Lanes))
	for i, def := range p.Lanes {
		states[i] = &laneState{def: def, keys: make(map[models.ItemKey]bool, p.ItemTarget)}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.maxConcurrent)
	for i := range states {
		state := states[i]
		laneSeed := fmt.Sprintf("%s-%02d", p.Seed, i)
		g.Go(func() error {
			if err := e.generateLane(gctx, p, state, laneSeed); err != nil {
				// A failed lane is dropped from the bundle; the other
				// lanes are still worth serving.
				logging.Warn().
					Err(err).
					Str("lane", state.def.Key).
					Msg("lane generation failed")
				state.skipped = true
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	total := 0
	for _, state := range states {
		total += len(state.items)
	}
	if total == 0 {
		return nil, ErrEmptyBundle
	}

	e.topUp(ctx, p, states)

	now := time.Now().UTC()
	bundle := &models.Bundle{}
	for _, state := range states {
		if state.skipped || len(state.items) == 0 {
			continue
		}
		if missing := state.missing(p.ItemTarget); missing > 0 {
			logging.Warn().
				Str("lane", state.def.Key).
				Int("have", len(state.items)).
				Int("target", p.ItemTarget).
				Msg("lane short of target after top-up budget")
			metrics.GenerationShortfall.Add(float64(missing))
		}
		bundle.Append(models.Catalog{
			ID:          state.def.CatalogID(),
			Type:        state.def.ContentType,
			Title:       state.def.Title,
			Description: state.def.Description,
			Seed:        p.Seed,
			Items:       state.items,
			GeneratedAt: now,
		})
	}
	if bundle.IsEmpty() {
		return nil, ErrEmptyBundle
	}
	return bundle, nil
}

// generateLane issues the initial request for one lane and absorbs the
// filtered result.
func (e *Engine) generateLane(ctx context.Context, p Params, state *laneState, laneSeed string) error {
	metrics.GenerationRequests.WithLabelValues("lane").Inc()

	prompt := lanePrompt(state.def, p.profileFor(state.def.ContentType), p.ItemTarget, laneSeed)
	content, err := e.completer.Complete(ctx, openrouter.Request{
		APIKey:    p.APIKey,
		Model:     p.Model,
		System:    systemPrompt,
		Prompt:    prompt,
		MaxTokens: openrouter.BudgetTokens(p.ItemTarget),
	})
	if err != nil {
		return err
	}

	doc, err := openrouter.ExtractJSON(content)
	if err != nil {
		return err
	}

	var resp laneResponse
	if err := json.Unmarshal(doc, &resp); err != nil {
		// Some models answer with a bare item array.
		var items []rawItem
		if arrErr := json.Unmarshal(doc, &items); arrErr != nil {
			return fmt.Errorf("lane response did not parse: %w", err)
		}
		resp.Items = items
	}

	state.absorb(resp.Items, p.ItemTarget, p.Watched)
	return nil
}

// topUp runs the batched shortfall loop. Every attempt consumes budget
// even when it yields nothing usable, so a consistently unhelpful backend
// cannot spin the loop forever.
func (e *Engine) topUp(ctx context.Context, p Params, states []*laneState) {
	for attempt := 1; attempt <= e.topUpBudget(p); attempt++ {
		shortfalls := make([]laneShortfall, 0, len(states))
		byID := make(map[string]*laneState, len(states))
		for _, state := range states {
			if missing := state.missing(p.ItemTarget); missing > 0 {
				shortfalls = append(shortfalls, laneShortfall{
					def:      state.def,
					existing: state.summaries(),
					needed:   missing,
				})
				byID[state.def.CatalogID()] = state
			}
		}
		if len(shortfalls) == 0 {
			return
		}
		if ctx.Err() != nil {
			return
		}

		metrics.GenerationRequests.WithLabelValues("topup").Inc()
		seed := fmt.Sprintf("%s-topup-%d", p.Seed, attempt)
		content, err := e.completer.Complete(ctx, openrouter.Request{
			APIKey:    p.APIKey,
			Model:     p.Model,
			System:    systemPrompt,
			Prompt:    topUpPrompt(shortfalls, seed),
			MaxTokens: openrouter.BudgetTokens(totalNeeded(shortfalls)),
		})
		if err != nil {
			logging.Warn().Err(err).Int("attempt", attempt).Msg("top-up request failed")
			continue
		}

		added := e.mergeTopUp(content, byID, p)
		logging.Debug().
			Int("attempt", attempt).
			Int("lanes_short", len(shortfalls)).
			Int("added", added).
			Msg("top-up attempt finished")
	}
}

// mergeTopUp parses a top-up response and folds usable items into their
// lanes. Unknown lane ids are ignored.
func (e *Engine) mergeTopUp(content string, byID map[string]*laneState, p Params) int {
	doc, err := openrouter.ExtractJSON(content)
	if err != nil {
		logging.Warn().Err(err).Msg("top-up response had no JSON payload")
		return 0
	}
	var resp topUpResponse
	if err := json.Unmarshal(doc, &resp); err != nil {
		logging.Warn().Err(err).Msg("top-up response did not parse")
		return 0
	}

	added := 0
	for _, lane := range resp.Lanes {
		state, ok := byID[lane.ID]
		if !ok {
			continue
		}
		added += state.absorb(lane.Items, p.ItemTarget, p.Watched)
	}
	return added
}

func totalNeeded(shortfalls []laneShortfall) int {
	total := 0
	for _, sf := range shortfalls {
		total += sf.needed
	}
	return total
}
