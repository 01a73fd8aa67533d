// AIOPicks - AI-Curated Media Catalog Engine
// Copyright 2026 qooode
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/qooode/aiopicks

// Package openrouter implements the generation backend client. It speaks
// the OpenRouter chat-completions API with per-instance rate limiting and
// extracts structured JSON from the loosely formatted text models return.
package openrouter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/qooode/aiopicks/internal/config"
	"github.com/qooode/aiopicks/internal/logging"
)

// maxErrorBodySize bounds error response reads.
const maxErrorBodySize = 64 * 1024

// minTokenBudget is the floor for a completion budget; below this models
// truncate mid-item.
const minTokenBudget = 512

// ErrMissingCredentials is returned when neither the request nor the
// instance config carries an API key. Not retried.
var ErrMissingCredentials = errors.New("openrouter: no api key available")

// Completer is the surface the generation engine consumes. Implemented by
// Client and by mocks in tests.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Request is one completion call. APIKey and Model come from the profile;
// empty values fall back to the instance defaults.
type Request struct {
	APIKey    string
	Model     string
	System    string
	Prompt    string
	MaxTokens int
}

// APIError is a structured error response from the backend.
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("openrouter returned status %d: %s", e.Code, e.Message)
}

// Client calls the OpenRouter chat-completions endpoint. A shared rate
// limiter spreads calls across all concurrent lane generations so one
// refresh burst cannot exhaust the account quota.
//
// Thread safety: safe for concurrent use.
type Client struct {
	baseURL      string
	defaultKey   string
	defaultModel string
	maxTokens    int
	referer      string
	title        string
	client       *http.Client
	limiter      *rate.Limiter
}

// NewClient creates a generation backend client from configuration.
func NewClient(cfg *config.OpenRouterConfig) *Client {
	perSecond := rate.Limit(float64(cfg.RequestsPerMinute) / 60.0)
	return &Client{
		baseURL:      cfg.BaseURL,
		defaultKey:   cfg.APIKey,
		defaultModel: cfg.Model,
		maxTokens:    cfg.MaxTokens,
		referer:      cfg.Referer,
		title:        cfg.Title,
		client:       &http.Client{Timeout: cfg.Timeout},
		limiter:      rate.NewLimiter(perSecond, cfg.RequestsPerMinute),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error,omitempty"`
}

// Complete sends one chat completion and returns the raw model text. The
// call blocks on the shared rate limiter before hitting the network.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter wait: %w", err)
	}

	apiKey := req.APIKey
	if apiKey == "" {
		apiKey = c.defaultKey
	}
	if apiKey == "" {
		return "", ErrMissingCredentials
	}
	model := req.Model
	if model == "" {
		model = c.defaultModel
	}

	payload := chatRequest{
		Model:     model,
		MaxTokens: c.clampTokens(req.MaxTokens),
	}
	if req.System != "" {
		payload.Messages = append(payload.Messages, chatMessage{Role: "system", Content: req.System})
	}
	payload.Messages = append(payload.Messages, chatMessage{Role: "user", Content: req.Prompt})

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode completion request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)
	if c.referer != "" {
		httpReq.Header.Set("HTTP-Referer", c.referer)
	}
	if c.title != "" {
		httpReq.Header.Set("X-Title", c.title)
	}

	started := time.Now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return "", &APIError{Code: resp.StatusCode, Message: string(raw)}
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("failed to decode completion response: %w", err)
	}
	if decoded.Error != nil {
		return "", &APIError{Code: decoded.Error.Code, Message: decoded.Error.Message}
	}
	if len(decoded.Choices) == 0 {
		return "", fmt.Errorf("completion response contained no choices")
	}

	logging.Debug().
		Str("model", model).
		Dur("elapsed", time.Since(started)).
		Int("content_len", len(decoded.Choices[0].Message.Content)).
		Msg("completion finished")

	return decoded.Choices[0].Message.Content, nil
}

// clampTokens keeps the requested budget within [minTokenBudget,
// configured max]. A zero request uses the configured max.
func (c *Client) clampTokens(requested int) int {
	if requested <= 0 || requested > c.maxTokens {
		return c.maxTokens
	}
	if requested < minTokenBudget {
		return minTokenBudget
	}
	return requested
}

// BudgetTokens estimates the completion budget needed for a batch of the
// given size. The estimate grows linearly with the item count so top-up
// calls for a few missing items stay cheap.
func BudgetTokens(items int) int {
	if items < 1 {
		items = 1
	}
	return 400 + items*180
}
