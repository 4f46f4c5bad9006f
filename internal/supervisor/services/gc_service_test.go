// Cinemind - Personalized Media Recommendation Catalogs
// Copyright 2026 Cinemind Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinemind/cinemind

package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type mockGC struct {
	mu   sync.Mutex
	runs int
	err  error
}

func (m *mockGC) RunGC() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs++
	return m.err
}

func (m *mockGC) runCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.runs
}

func TestCacheGCServiceRunsOnInterval(t *testing.T) {
	gc := &mockGC{}
	svc := NewCacheGCService(gc, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for gc.runCount() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("gc ran %d times, want at least 2", gc.runCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve returned %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Serve did not return after cancellation")
	}
}

func TestCacheGCServiceSurvivesGCErrors(t *testing.T) {
	gc := &mockGC{err: errors.New("value log gc failed")}
	svc := NewCacheGCService(gc, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	// A failing GC must not end Serve; only the context does.
	if err := svc.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Serve returned %v, want context.DeadlineExceeded", err)
	}
	if gc.runCount() == 0 {
		t.Error("gc never ran")
	}
}

func TestCacheGCServiceDefaultInterval(t *testing.T) {
	svc := NewCacheGCService(&mockGC{}, 0)
	if svc.interval != 10*time.Minute {
		t.Errorf("default interval = %v", svc.interval)
	}
	if svc.String() != "cache-gc" {
		t.Errorf("String() = %q", svc.String())
	}
}
