// Cinemind - Personalized Media Recommendation Catalogs
// Copyright 2026 Cinemind Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinemind/cinemind

package cache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"
)

// MemoryStore is a thread-safe in-memory Store with per-entry TTL. It serves
// tests and deployments without a cache path; nothing survives a restart.
//
// Values are stored as marshaled JSON rather than as live pointers so that
// Get/Set semantics match BadgerStore exactly, including the copy on read.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64

	stop chan struct{}
	once sync.Once
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// NewMemoryStore creates a MemoryStore and starts its expiry sweeper.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]memoryEntry),
		stop:    make(chan struct{}),
	}
	go s.sweepLoop()
	return s
}

// Get retrieves and unmarshals a live entry into out.
func (s *MemoryStore) Get(ctx context.Context, key string, out any) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.RLock()
	entry, exists := s.entries[key]
	s.mu.RUnlock()

	if !exists {
		s.misses.Add(1)
		return false, nil
	}
	if time.Now().After(entry.expiresAt) {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		s.misses.Add(1)
		s.evictions.Add(1)
		return false, nil
	}

	if err := json.Unmarshal(entry.data, out); err != nil {
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}
	s.hits.Add(1)
	return true, nil
}

// Set stores value under key with the given TTL.
func (s *MemoryStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
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

	s.mu.Lock()
	s.entries[key] = memoryEntry{data: data, expiresAt: time.Now().Add(ttl)}
	s.mu.Unlock()
	return nil
}

// Delete removes an entry. Deleting an absent key is not an error.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	s.evictions.Add(1)
	return nil
}

// Close stops the expiry sweeper. Safe to call more than once.
func (s *MemoryStore) Close() error {
	s.once.Do(func() { close(s.stop) })
	return nil
}

// GetStats returns a snapshot of store activity.
func (s *MemoryStore) GetStats() Stats {
	s.mu.RLock()
	total := int64(len(s.entries))
	s.mu.RUnlock()

	return Stats{
		Hits:      s.hits.Load(),
		Misses:    s.misses.Load(),
		Evictions: s.evictions.Load(),
		TotalKeys: total,
	}
}

func (s *MemoryStore) sweepLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stop:
			return
		}
	}
}

func (s *MemoryStore) sweep() {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, entry := range s.entries {
		if now.After(entry.expiresAt) {
			delete(s.entries, key)
			s.evictions.Add(1)
		}
	}
}

var _ Store = (*MemoryStore)(nil)
