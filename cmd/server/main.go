// AIOPicks - AI-Curated Media Catalog Engine
// Copyright 2026 qooode
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/qooode/aiopicks

// Package main is the entry point for the AIOPicks server.
//
// AIOPicks serves AI-curated, per-profile media catalogs. It ingests a
// user's Trakt watch history, asks a generation backend (OpenRouter) for
// themed recommendation lanes that exclude everything already watched,
// and serves the result as a Stremio-compatible addon with TTL-based
// background refresh.
//
// Startup order:
//
//  1. Configuration: Koanf v2 layers (defaults, config.yaml, AIOPICKS_* env)
//  2. Persistence: Badger store for profiles and generated lanes
//  3. Upstream clients: Trakt (behind a circuit breaker) and OpenRouter
//  4. Catalog service: refresh pipeline plus background scheduler
//  5. HTTP server: manifest/catalog/status endpoints plus /metrics
//
// The scheduler and HTTP server run under a suture supervisor; SIGINT
// and SIGTERM trigger graceful shutdown with a bounded timeout.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"

	"github.com/qooode/aiopicks/internal/api"
	"github.com/qooode/aiopicks/internal/cache"
	"github.com/qooode/aiopicks/internal/catalog"
	"github.com/qooode/aiopicks/internal/config"
	"github.com/qooode/aiopicks/internal/generate"
	"github.com/qooode/aiopicks/internal/logging"
	"github.com/qooode/aiopicks/internal/metadata"
	"github.com/qooode/aiopicks/internal/openrouter"
	"github.com/qooode/aiopicks/internal/profile"
	"github.com/qooode/aiopicks/internal/store"
	"github.com/qooode/aiopicks/internal/trakt"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("store_path", cfg.Store.Path).
		Bool("trakt_fallback_credentials", cfg.Trakt.ClientID != "").
		Bool("metadata_enrichment", cfg.Metadata.Enabled).
		Msg("Starting AIOPicks")

	db, err := store.Open(&cfg.Store)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open store")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing store")
		}
	}()

	// Trakt calls go through the circuit breaker so a flapping upstream
	// opens the breaker instead of burning the retry budget per request.
	traktAPI := trakt.NewBreakerClient(trakt.NewClient(&cfg.Trakt), &cfg.Trakt)
	ingestor := trakt.NewIngestor(traktAPI, &cfg.Trakt)

	completer := openrouter.NewClient(&cfg.OpenRouter)
	engine := generate.NewEngine(completer, &cfg.Catalog)
	enricher := metadata.New(cfg.Metadata)

	payloads := cache.New(cfg.Catalog.CacheTTL)
	defer payloads.Stop()

	service := catalog.NewService(cfg, db, ingestor, engine, enricher, payloads)
	resolver := profile.NewResolver(db, ingestor, cfg)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      api.NewServer(cfg, resolver, service, db, payloads).Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	handler := &sutureslog.Handler{Logger: logging.NewSlogLogger()}
	root := suture.New("aiopicks", suture.Spec{
		EventHook:        handler.MustHook(),
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		Timeout:          cfg.Server.ShutdownTimeout,
	})
	root.Add(catalog.NewScheduler(service))
	root.Add(newHTTPService(httpServer, cfg.Server.ShutdownTimeout))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", httpServer.Addr).Msg("Supervisor starting")
	if err := root.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor exited with error")
	}
	logging.Info().Msg("AIOPicks stopped")
}
