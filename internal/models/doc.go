// AIOPicks - AI-Curated Media Catalog Engine
// Copyright 2026 qooode
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/qooode/aiopicks

// Package models defines the core data types shared across the catalog
// engine: profiles, catalogs (lanes), catalog items, and the fingerprint
// scheme used to exclude already-watched titles from generated lanes.
package models
