// Cinemind - Personalized Media Recommendation Catalogs
// Copyright 2026 Cinemind Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinemind/cinemind

// Package cache provides the TTL key-value store backing every cached
// artifact: identifier mappings, detail records, discovery feeds, and
// generated catalogs.
//
// Two implementations exist: BadgerStore persists across restarts and is the
// production default; MemoryStore keeps everything in a map and serves tests
// and cache-path-less deployments. Both treat an expired entry exactly like
// an absent one.
package cache

import (
	"context"
	"time"
)

// Store is the cache contract used across the application. Values are
// JSON-serialized; Get unmarshals into out and reports whether a live entry
// was found. An expired or missing entry yields (false, nil), never an error.
type Store interface {
	Get(ctx context.Context, key string, out any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Stats is a point-in-time snapshot of store activity.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	TotalKeys int64
}
