// AIOPicks - AI-Curated Media Catalog Engine
// Copyright 2026 qooode
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/qooode/aiopicks

package api

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/qooode/aiopicks/internal/logging"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.Debug().Err(err).Msg("Response encode failed")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
