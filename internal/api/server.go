// AIOPicks - AI-Curated Media Catalog Engine
// Copyright 2026 qooode
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/qooode/aiopicks

// Package api provides the HTTP surface: the addon manifest, catalog
// payloads, profile status, health and metrics, routed with Chi.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/qooode/aiopicks/internal/cache"
	"github.com/qooode/aiopicks/internal/catalog"
	"github.com/qooode/aiopicks/internal/config"
	"github.com/qooode/aiopicks/internal/models"
	"github.com/qooode/aiopicks/internal/profile"
)

// addonVersion is reported in the manifest.
const addonVersion = "1.0.0"

// Resolver maps request overrides to a stable profile.
// Implemented by profile.Resolver.
type Resolver interface {
	Resolve(ctx context.Context, ov profile.Overrides) (*profile.Resolution, error)
}

// Catalogs is the slice of the catalog service the handlers consume.
type Catalogs interface {
	EnsureFresh(ctx context.Context, p *models.Profile, force, wait bool) (*models.Bundle, error)
	Lanes(p *models.Profile) (*models.Bundle, error)
	Status(p *models.Profile) catalog.ProfileStatus
}

// ProfileSource loads stored profiles for catalog lookups.
type ProfileSource interface {
	LoadProfile(id string) (*models.Profile, error)
}

// Server holds handler dependencies and builds the router.
type Server struct {
	cfg      *config.Config
	resolver Resolver
	catalogs Catalogs
	profiles ProfileSource
	payloads *cache.PayloadCache
	started  time.Time
}

// NewServer wires the HTTP surface. The payload cache is optional.
func NewServer(cfg *config.Config, resolver Resolver, catalogs Catalogs, profiles ProfileSource, payloads *cache.PayloadCache) *Server {
	return &Server{
		cfg:      cfg,
		resolver: resolver,
		catalogs: catalogs,
		profiles: profiles,
		payloads: payloads,
		started:  time.Now(),
	}
}

// Routes builds the router with the full middleware stack.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogging)
	// Stremio clients load the addon from arbitrary origins.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.corsOrigins(),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		MaxAge:         300,
	}))
	if s.cfg.Server.RateLimitReqs > 0 {
		r.Use(httprate.LimitByIP(s.cfg.Server.RateLimitReqs, s.cfg.Server.RateLimitWindow))
	}

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/manifest.json", s.handleManifest)
	r.Get("/catalog/{contentType}/{catalogID}.json", s.handleCatalog)
	r.Get("/meta/{contentType}/{metaID}.json", s.handleMeta)

	r.Route("/api/v1/profiles/{profileID}", func(r chi.Router) {
		r.Get("/status", s.handleProfileStatus)
		r.Post("/refresh", s.handleProfileRefresh)
	})

	return r
}

func (s *Server) corsOrigins() []string {
	if len(s.cfg.Server.CORSOrigins) == 0 {
		return []string{"*"}
	}
	return s.cfg.Server.CORSOrigins
}
