// AIOPicks - AI-Curated Media Catalog Engine
// Copyright 2026 qooode
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/qooode/aiopicks

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/qooode/aiopicks/internal/logging"
	"github.com/qooode/aiopicks/internal/metrics"
)

// statusRecorder captures the response status for logging and metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

// requestLogging attaches a correlation id to the request context, logs
// the request on completion, and records API metrics keyed by the route
// pattern rather than the raw path so per-profile paths do not explode
// label cardinality.
func requestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := logging.ContextWithNewCorrelationID(r.Context())
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		w.Header().Set("X-Request-ID", logging.CorrelationIDFromContext(ctx))

		next.ServeHTTP(rec, r.WithContext(ctx))

		endpoint := chi.RouteContext(r.Context()).RoutePattern()
		if endpoint == "" {
			endpoint = r.URL.Path
		}
		elapsed := time.Since(start)
		metrics.RecordAPIRequest(endpoint, r.Method, rec.status, elapsed)
		logger := logging.Ctx(ctx)
		logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("elapsed", elapsed).
			Msg("Request handled")
	})
}
