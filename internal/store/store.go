// AIOPicks - AI-Curated Media Catalog Engine
// Copyright 2026 qooode
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/qooode/aiopicks

// Package store is the BadgerDB persistence gateway for profiles and their
// generated lane bundles. Profiles and bundles are stored as JSON values
// under prefixed keys; the engine never deletes profiles.
package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/qooode/aiopicks/internal/config"
	"github.com/qooode/aiopicks/internal/models"
)

// Key prefixes for BadgerDB storage.
const (
	profileKeyPrefix = "profile:"
	lanesKeyPrefix   = "lanes:"
)

// ErrNotFound is returned when a profile or lane bundle does not exist.
var ErrNotFound = errors.New("store: not found")

// Store wraps a Badger database.
type Store struct {
	db *badger.DB
}

// Open opens (or creates) the database at the configured path. InMemory
// mode backs tests and ephemeral deployments.
func Open(cfg *config.StoreConfig) (*Store, error) {
	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close flushes and closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveProfile persists a profile under its id.
func (s *Store) SaveProfile(profile *models.Profile) error {
	if profile.ID == "" {
		return fmt.Errorf("cannot save profile without an id")
	}
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(profileKeyPrefix+profile.ID), data)
	})
}

// LoadProfile retrieves a profile by id.
func (s *Store) LoadProfile(id string) (*models.Profile, error) {
	var profile models.Profile
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(profileKeyPrefix + id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get profile: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &profile)
		})
	})
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// ListProfileIDs returns the ids of all stored profiles.
func (s *Store) ListProfileIDs() ([]string, error) {
	var ids []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(profileKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			key := string(it.Item().Key())
			ids = append(ids, strings.TrimPrefix(key, profileKeyPrefix))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	return ids, nil
}

// SaveLanes replaces the lane bundle stored for a profile. Bundles are
// replaced wholesale; a refresh never merges with its predecessor.
func (s *Store) SaveLanes(profileID string, bundle *models.Bundle) error {
	data, err := json.Marshal(bundle)
	if err != nil {
		return fmt.Errorf("marshal lanes: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(lanesKeyPrefix+profileID), data)
	})
}

// LoadLanes retrieves the lane bundle stored for a profile.
func (s *Store) LoadLanes(profileID string) (*models.Bundle, error) {
	var bundle models.Bundle
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(lanesKeyPrefix + profileID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get lanes: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &bundle)
		})
	})
	if err != nil {
		return nil, err
	}
	return &bundle, nil
}
