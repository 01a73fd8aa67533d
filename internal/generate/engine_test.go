// AIOPicks - AI-Curated Media Catalog Engine
// Copyright 2026 qooode
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/qooode/aiopicks

package generate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/qooode/aiopicks/internal/config"
	"github.com/qooode/aiopicks/internal/models"
	"github.com/qooode/aiopicks/internal/openrouter"
	"github.com/qooode/aiopicks/internal/trakt"
	"github.com/qooode/aiopicks/internal/watched"
)

// scriptedCompleter routes lane and top-up prompts to separate handlers.
type scriptedCompleter struct {
	mu         sync.Mutex
	laneCalls  int
	topUpCalls int
	onLane     func(call int, req openrouter.Request) (string, error)
	onTopUp    func(call int, req openrouter.Request) (string, error)
}

func (s *scriptedCompleter) Complete(_ context.Context, req openrouter.Request) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if strings.Contains(req.Prompt, "short of their target") {
		s.topUpCalls++
		return s.onTopUp(s.topUpCalls, req)
	}
	s.laneCalls++
	return s.onLane(s.laneCalls, req)
}

func itemsJSON(prefix string, start, n int) string {
	var b strings.Builder
	b.WriteString(`{"items":[`)
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, `{"title":"%s %d","type":"movie","year":%d}`, prefix, start+i, 1990+start+i)
	}
	b.WriteString("]}")
	return b.String()
}

func testEngine(completer openrouter.Completer) *Engine {
	return NewEngine(completer, &config.CatalogConfig{
		MaxConcurrentLanes: 2,
		TopUpAttempts:      3,
	})
}

func singleLane() []LaneDefinition {
	def, _ := LaneByKey("movies-for-you")
	return []LaneDefinition{def}
}

func TestGenerateTopsUpToExactCount(t *testing.T) {
	// Initial batch: 8 wanted, the lane response carries 5 fresh, 2
	// duplicates of each other, and 1 watched title.
	watchedIdx := watched.NewIndex([]trakt.HistoryEntry{
		{Type: "movie", Movie: &trakt.Media{Title: "Seen It", Year: 2001}},
	})

	initial := `{"items":[
		{"title":"Fresh 1","type":"movie","year":1991},
		{"title":"Fresh 2","type":"movie","year":1992},
		{"title":"Fresh 3","type":"movie","year":1993},
		{"title":"Fresh 4","type":"movie","year":1994},
		{"title":"Fresh 5","type":"movie","year":1995},
		{"title":"fresh 5","type":"movie","year":1995},
		{"title":"FRESH 5","type":"movie","year":1995},
		{"title":"Seen It","type":"movie","year":2001}
	]}`

	completer := &scriptedCompleter{
		onLane: func(int, openrouter.Request) (string, error) {
			return initial, nil
		},
		onTopUp: func(call int, req openrouter.Request) (string, error) {
			if !strings.Contains(req.Prompt, "needs EXACTLY 3 more") {
				t.Errorf("top-up prompt must name the missing count, got: %s", req.Prompt)
			}
			return `{"lanes":[{"id":"aiopicks-movie-movies-for-you","items":[
				{"title":"Top 1","type":"movie","year":2010},
				{"title":"Top 2","type":"movie","year":2011},
				{"title":"Top 3","type":"movie","year":2012}
			]}]}`, nil
		},
	}

	bundle, err := testEngine(completer).Generate(context.Background(), Params{
		Lanes:      singleLane(),
		ItemTarget: 8,
		Seed:       "seed",
		Watched:    watchedIdx,
	})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	if len(bundle.Movies) != 1 {
		t.Fatalf("got %d movie lanes, want 1", len(bundle.Movies))
	}
	lane := bundle.Movies[0]
	if len(lane.Items) != 8 {
		t.Fatalf("lane has %d items, want exactly 8", len(lane.Items))
	}
	if completer.topUpCalls != 1 {
		t.Errorf("top-up calls = %d, want 1", completer.topUpCalls)
	}
	seen := make(map[models.ItemKey]bool)
	for i := range lane.Items {
		key := lane.Items[i].Key()
		if seen[key] {
			t.Errorf("duplicate item %v in lane", key)
		}
		seen[key] = true
		if watchedIdx.Contains(&lane.Items[i]) {
			t.Errorf("watched item %q in lane", lane.Items[i].Title)
		}
	}
}

func TestGenerateEmptyTopUpsConsumeBudget(t *testing.T) {
	completer := &scriptedCompleter{
		onLane: func(int, openrouter.Request) (string, error) {
			return itemsJSON("Pick", 1, 5), nil
		},
		onTopUp: func(int, openrouter.Request) (string, error) {
			return `{"lanes":[]}`, nil
		},
	}

	bundle, err := testEngine(completer).Generate(context.Background(), Params{
		Lanes:      singleLane(),
		ItemTarget: 8,
		Seed:       "seed",
	})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	if completer.topUpCalls != 3 {
		t.Errorf("top-up calls = %d, want the full budget of 3", completer.topUpCalls)
	}
	if len(bundle.Movies[0].Items) != 5 {
		t.Errorf("lane has %d items, want the 5 collected (shortfall logged, never padded)", len(bundle.Movies[0].Items))
	}
}

func TestGenerateEmptyBundleFailsWithoutTopUp(t *testing.T) {
	completer := &scriptedCompleter{
		onLane: func(int, openrouter.Request) (string, error) {
			return `{"items":[]}`, nil
		},
		onTopUp: func(int, openrouter.Request) (string, error) {
			t.Error("empty bundle must fail before consuming top-up budget")
			return "", nil
		},
	}

	_, err := testEngine(completer).Generate(context.Background(), Params{
		Lanes:      singleLane(),
		ItemTarget: 8,
		Seed:       "seed",
	})
	if !errors.Is(err, ErrEmptyBundle) {
		t.Errorf("err = %v, want ErrEmptyBundle", err)
	}
	if completer.topUpCalls != 0 {
		t.Errorf("top-up calls = %d, want 0", completer.topUpCalls)
	}
}

func TestGenerateFailedLaneIsDropped(t *testing.T) {
	lanes := SelectLanes([]string{"movies-for-you", "series-for-you"})
	completer := &scriptedCompleter{
		onLane: func(_ int, req openrouter.Request) (string, error) {
			if strings.Contains(req.Prompt, "Series For You") {
				return "", errors.New("backend exploded")
			}
			return itemsJSON("Pick", 1, 3), nil
		},
		onTopUp: func(int, openrouter.Request) (string, error) {
			return `{"lanes":[]}`, nil
		},
	}

	bundle, err := testEngine(completer).Generate(context.Background(), Params{
		Lanes:      lanes,
		ItemTarget: 3,
		Seed:       "seed",
	})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if len(bundle.Movies) != 1 || len(bundle.Series) != 0 {
		t.Errorf("bundle = %d movie / %d series lanes, want 1/0", len(bundle.Movies), len(bundle.Series))
	}
}

func TestGenerateAcceptsBareItemArray(t *testing.T) {
	completer := &scriptedCompleter{
		onLane: func(int, openrouter.Request) (string, error) {
			return `[{"name":"Named Pick","type":"movie","year":2005}]`, nil
		},
		onTopUp: func(int, openrouter.Request) (string, error) {
			return `{"lanes":[]}`, nil
		},
	}

	bundle, err := testEngine(completer).Generate(context.Background(), Params{
		Lanes:      singleLane(),
		ItemTarget: 1,
		Seed:       "seed",
	})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if bundle.Movies[0].Items[0].Title != "Named Pick" {
		t.Errorf("item title = %q; the name field must be honored", bundle.Movies[0].Items[0].Title)
	}
}

func TestSelectLanes(t *testing.T) {
	all := SelectLanes(nil)
	if len(all) != len(laneTable) {
		t.Errorf("empty selection = %d lanes, want full table of %d", len(all), len(laneTable))
	}

	picked := SelectLanes([]string{"series-for-you", "movies-for-you", "nope"})
	if len(picked) != 2 {
		t.Fatalf("got %d lanes, want 2", len(picked))
	}
	// Table order wins over request order.
	if picked[0].Key != "movies-for-you" || picked[1].Key != "series-for-you" {
		t.Errorf("lanes out of table order: %v, %v", picked[0].Key, picked[1].Key)
	}

	unknown := SelectLanes([]string{"bogus"})
	if len(unknown) != len(laneTable) {
		t.Errorf("all-unknown selection must fall back to the full table")
	}
}

func TestLaneTableStableIDs(t *testing.T) {
	seen := make(map[string]bool)
	for _, def := range DefaultLanes() {
		if !def.ContentType.Valid() {
			t.Errorf("lane %q has invalid content type %q", def.Key, def.ContentType)
		}
		id := def.CatalogID()
		if seen[id] {
			t.Errorf("duplicate catalog id %q", id)
		}
		seen[id] = true
		if want := "aiopicks-" + string(def.ContentType) + "-" + def.Key; id != want {
			t.Errorf("catalog id %q, want %q", id, want)
		}
	}
}
