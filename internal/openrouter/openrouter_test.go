// AIOPicks - AI-Curated Media Catalog Engine
// Copyright 2026 qooode
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/qooode/aiopicks

package openrouter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/qooode/aiopicks/internal/config"
)

func testORConfig(baseURL string) *config.OpenRouterConfig {
	return &config.OpenRouterConfig{
		BaseURL:           baseURL,
		APIKey:            "default-key",
		Model:             "default/model",
		Timeout:           5 * time.Second,
		RequestsPerMinute: 600,
		MaxTokens:         4096,
		Referer:           "https://example.test",
		Title:             "AIOPicks",
	}
}

func TestCompleteSendsProfileCredentials(t *testing.T) {
	var gotAuth, gotModel string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		gotModel = req.Model
		fmt.Fprint(w, `{"choices":[{"message":{"content":"hello"}}]}`)
	}))
	defer server.Close()

	client := NewClient(testORConfig(server.URL))
	content, err := client.Complete(context.Background(), Request{
		APIKey: "profile-key",
		Model:  "profile/model",
		Prompt: "say hello",
	})
	if err != nil {
		t.Fatalf("Complete() error: %v", err)
	}
	if content != "hello" {
		t.Errorf("content = %q, want hello", content)
	}
	if gotAuth != "Bearer profile-key" {
		t.Errorf("Authorization = %q, profile key must win over default", gotAuth)
	}
	if gotModel != "profile/model" {
		t.Errorf("model = %q, profile model must win over default", gotModel)
	}
}

func TestCompleteSurfacesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		fmt.Fprint(w, `{"error":{"message":"insufficient credits"}}`)
	}))
	defer server.Close()

	client := NewClient(testORConfig(server.URL))
	_, err := client.Complete(context.Background(), Request{Prompt: "x"})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Code != http.StatusPaymentRequired {
		t.Errorf("code = %d, want 402", apiErr.Code)
	}
}

func TestClampTokens(t *testing.T) {
	client := NewClient(testORConfig("http://unused"))
	tests := []struct {
		requested int
		want      int
	}{
		{0, 4096},
		{-5, 4096},
		{8000, 4096},
		{100, 512},
		{2000, 2000},
	}
	for _, tt := range tests {
		if got := client.clampTokens(tt.requested); got != tt.want {
			t.Errorf("clampTokens(%d) = %d, want %d", tt.requested, got, tt.want)
		}
	}
}

func TestBudgetTokensMonotonic(t *testing.T) {
	prev := 0
	for _, items := range []int{0, 1, 4, 8, 20} {
		budget := BudgetTokens(items)
		if budget < prev {
			t.Errorf("BudgetTokens(%d) = %d, smaller than previous %d", items, budget, prev)
		}
		prev = budget
	}
}

func TestExtractJSONFencedBlock(t *testing.T) {
	raw := "Here are the picks you asked for:\n```json\n{\"items\": [{\"name\": \"Heat\"}]}\n```\nEnjoy!"
	doc, err := ExtractJSON(raw)
	if err != nil {
		t.Fatalf("ExtractJSON() error: %v", err)
	}
	var parsed struct {
		Items []struct {
			Name string `json:"name"`
		} `json:"items"`
	}
	if err := json.Unmarshal(doc, &parsed); err != nil {
		t.Fatalf("extracted document does not parse: %v", err)
	}
	if len(parsed.Items) != 1 || parsed.Items[0].Name != "Heat" {
		t.Errorf("parsed = %+v", parsed)
	}
}

func TestExtractJSONBareWithProse(t *testing.T) {
	raw := `Sure! {"items": [{"name": "Brick (2005)", "note": "has {braces} in a string"}]} hope that helps`
	doc, err := ExtractJSON(raw)
	if err != nil {
		t.Fatalf("ExtractJSON() error: %v", err)
	}
	if !json.Valid(doc) {
		t.Fatalf("extracted document is not valid JSON: %s", doc)
	}
}

func TestExtractJSONArray(t *testing.T) {
	doc, err := ExtractJSON(`[{"name": "Heat"}, {"name": "Ronin"}]`)
	if err != nil {
		t.Fatalf("ExtractJSON() error: %v", err)
	}
	var items []map[string]any
	if err := json.Unmarshal(doc, &items); err != nil || len(items) != 2 {
		t.Errorf("got %d items, err %v", len(items), err)
	}
}

func TestExtractJSONFailure(t *testing.T) {
	for _, raw := range []string{"", "no json here at all", "{\"unterminated\": "} {
		_, err := ExtractJSON(raw)
		var extractErr *ExtractError
		if !errors.As(err, &extractErr) {
			t.Errorf("ExtractJSON(%q) err = %v, want ExtractError", raw, err)
		}
	}
}
