// AIOPicks - AI-Curated Media Catalog Engine
// Copyright 2026 qooode
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/qooode/aiopicks

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// httpService wraps an http.Server as a supervised service, translating
// the blocking ListenAndServe pattern into suture's context-aware Serve.
type httpService struct {
	server          *http.Server
	shutdownTimeout time.Duration
}

func newHTTPService(server *http.Server, shutdownTimeout time.Duration) *httpService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &httpService{server: server, shutdownTimeout: shutdownTimeout}
}

func (h *httpService) String() string {
	return "http-server"
}

// Serve runs the server until the context is canceled, then shuts it
// down gracefully within the shutdown timeout.
func (h *httpService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), h.shutdownTimeout)
	defer cancel()
	if err := h.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return ctx.Err()
}
