// AIOPicks - AI-Curated Media Catalog Engine
// Copyright 2026 qooode
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/qooode/aiopicks

package openrouter

import (
	"fmt"
	"strings"
)

// ExtractError reports that no usable JSON document could be located in a
// model response. The snippet carries the head of the raw text for logs.
type ExtractError struct {
	Reason  string
	Snippet string
}

func (e *ExtractError) Error() string {
	return fmt.Sprintf("no JSON payload in model response (%s): %q", e.Reason, e.Snippet)
}

const snippetLen = 120

// ExtractJSON locates the JSON document inside a model response. Models
// wrap output in markdown fences, prepend prose, or append commentary;
// the extractor tries a fenced code block first, then the first balanced
// JSON object or array in the raw text.
func ExtractJSON(raw string) ([]byte, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, &ExtractError{Reason: "empty response"}
	}

	if fenced, ok := extractFenced(trimmed); ok {
		if doc, ok := extractBalanced(fenced); ok {
			return []byte(doc), nil
		}
	}
	if doc, ok := extractBalanced(trimmed); ok {
		return []byte(doc), nil
	}

	return nil, &ExtractError{Reason: "no balanced document", Snippet: head(trimmed)}
}

// extractFenced returns the contents of the first markdown code fence,
// tolerating an optional language tag.
func extractFenced(raw string) (string, bool) {
	start := strings.Index(raw, "```")
	if start < 0 {
		return "", false
	}
	rest := raw[start+3:]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		// Drop the language tag line ("json", "JSON", or empty).
		firstLine := strings.TrimSpace(rest[:nl])
		if len(firstLine) <= 8 && !strings.ContainsAny(firstLine, "{[") {
			rest = rest[nl+1:]
		}
	}
	end := strings.Index(rest, "```")
	if end < 0 {
		return strings.TrimSpace(rest), true
	}
	return strings.TrimSpace(rest[:end]), true
}

// extractBalanced finds the first balanced top-level JSON object or array.
// Braces inside string literals are skipped.
func extractBalanced(raw string) (string, bool) {
	start := strings.IndexAny(raw, "{[")
	if start < 0 {
		return "", false
	}
	open := raw[start]
	closer := byte('}')
	if open == '[' {
		closer = ']'
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		ch := raw[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case open:
			depth++
		case closer:
			depth--
			if depth == 0 {
				return raw[start : i+1], true
			}
		}
	}
	return "", false
}

func head(raw string) string {
	if len(raw) <= snippetLen {
		return raw
	}
	return raw[:snippetLen]
}
