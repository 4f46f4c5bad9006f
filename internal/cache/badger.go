// Cinemind - Personalized Media Recommendation Catalogs
// Copyright 2026 Cinemind Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinemind/cinemind

package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	json "github.com/goccy/go-json"

	"github.com/cinemind/cinemind/internal/logging"
)

// BadgerStore is the durable Store implementation. Entries are written with
// BadgerDB's native TTL, so expiry needs no sweeper of our own; value-log
// garbage collection still has to be driven via RunGC.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadger opens (or creates) a BadgerDB-backed store at path.
func OpenBadger(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).
		WithLogger(newBadgerLogger()).
		WithIndexCacheSize(64 << 20)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open cache db at %s: %w", path, err)
	}
	return &BadgerStore{db: db}, nil
}

// NewBadgerStore wraps an already opened database. Used when the caller owns
// the database lifecycle.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

// Get retrieves and unmarshals a live entry into out.
func (s *BadgerStore) Get(ctx context.Context, key string, out any) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, out)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}
	return true, nil
}

// Set stores value under key with the given TTL. A non-positive TTL is
// rejected; nothing in the system caches forever.
func (s *BadgerStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ttl <= 0 {
		return fmt.Errorf("cache set %s: non-positive ttl %v", key, ttl)
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal %s: %w", key, err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(key), data).WithTTL(ttl)
		return txn.SetEntry(entry)
	})
	if err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

// Delete removes an entry. Deleting an absent key is not an error.
func (s *BadgerStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("cache delete %s: %w", key, err)
	}
	return nil
}

// RunGC runs one round of value-log garbage collection. badger returns
// ErrNoRewrite when there was nothing to collect; that is a normal outcome.
func (s *BadgerStore) RunGC() error {
	err := s.db.RunValueLogGC(0.5)
	if errors.Is(err, badger.ErrNoRewrite) {
		return nil
	}
	return err
}

// Close closes the underlying database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// zerologBadgerLogger routes badger's internal logging through zerolog.
// Badger is chatty at INFO, so its info output is demoted to debug.
type zerologBadgerLogger struct{}

func newBadgerLogger() badger.Logger {
	return zerologBadgerLogger{}
}

func (zerologBadgerLogger) Errorf(format string, args ...any) {
	logging.Error().Str("component", "badger").Msgf(format, args...)
}

func (zerologBadgerLogger) Warningf(format string, args ...any) {
	logging.Warn().Str("component", "badger").Msgf(format, args...)
}

func (zerologBadgerLogger) Infof(format string, args ...any) {
	logging.Debug().Str("component", "badger").Msgf(format, args...)
}

func (zerologBadgerLogger) Debugf(format string, args ...any) {
	logging.Debug().Str("component", "badger").Msgf(format, args...)
}

var _ Store = (*BadgerStore)(nil)
