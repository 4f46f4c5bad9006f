// Cinemind - Personalized Media Recommendation Catalogs
// Copyright 2026 Cinemind Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinemind/cinemind

package services

import (
	"context"
	"time"

	"github.com/cinemind/cinemind/internal/logging"
)

// GarbageCollector is the cache-store maintenance hook. Implemented by
// cache.BadgerStore, whose value log only reclaims space when collected.
type GarbageCollector interface {
	RunGC() error
}

// CacheGCService periodically runs cache garbage collection.
type CacheGCService struct {
	store    GarbageCollector
	interval time.Duration
}

// NewCacheGCService builds the GC service. A non-positive interval falls
// back to ten minutes.
func NewCacheGCService(store GarbageCollector, interval time.Duration) *CacheGCService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &CacheGCService{store: store, interval: interval}
}

// Serve implements suture.Service. GC failures are logged and retried on
// the next tick rather than crashing the service into a restart loop.
func (s *CacheGCService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.store.RunGC(); err != nil {
				logging.Warn().Err(err).Msg("cache gc failed")
			}
		}
	}
}

func (s *CacheGCService) String() string { return "cache-gc" }
